package taxonomy

import (
	"strings"
)

// parseWeaknessCatalog builds a bare-id to name index from a CWE catalog.
// Weakness elements are looked up in the root namespace first; if the
// schema has drifted and none are found, any element carrying an ID
// attribute whose tag mentions "Weakness" is accepted instead.
func parseWeaknessCatalog(data []byte) (map[string]string, error) {
	root, err := parseXML(data)
	if err != nil {
		return nil, &ParseError{Taxonomy: Weaknesses, Err: err}
	}

	elems := root.findTolerant(root.namespace(), "Weakness")
	if len(elems) == 0 {
		root.walk(func(e *element) {
			if e.attr("ID") != "" && strings.Contains(e.name.Local, "Weakness") {
				elems = append(elems, e)
			}
		})
	}

	names := make(map[string]string, len(elems))
	for _, e := range elems {
		id := strings.TrimSpace(e.attr("ID"))
		name := strings.TrimSpace(e.attr("Name"))
		if name == "" {
			if c := e.child("Name"); c != nil {
				name = strings.TrimSpace(c.text.String())
			}
		}
		if id == "" || name == "" {
			continue
		}
		names[DenormalizeWeaknessID(id)] = name
	}

	if len(names) == 0 {
		return nil, &ParseError{Taxonomy: Weaknesses, Err: ErrNoEntries}
	}
	return names, nil
}
