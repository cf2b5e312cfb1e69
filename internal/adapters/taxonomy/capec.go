package taxonomy

import (
	"strings"

	"github.com/senpai-on-fire/saci-database-sub001/internal/core/domain"
)

// parseAttackPatternCatalog builds a bare CWE id to attack pattern index
// from a CAPEC catalog. Each pattern is listed once under every weakness
// it references through a CWE_ID attribute.
func parseAttackPatternCatalog(data []byte) (map[string][]domain.AttackPattern, error) {
	root, err := parseXML(data)
	if err != nil {
		return nil, &ParseError{Taxonomy: AttackPatterns, Err: err}
	}

	patterns := root.findTolerant(root.namespace(), "Attack_Pattern")
	if len(patterns) == 0 {
		return nil, &ParseError{Taxonomy: AttackPatterns, Err: ErrNoEntries}
	}

	index := make(map[string][]domain.AttackPattern)
	for _, p := range patterns {
		id := strings.TrimSpace(p.attr("ID"))
		if id == "" {
			continue
		}
		ap := domain.AttackPattern{
			ID:   AttackPatternPrefix + id,
			Name: strings.TrimSpace(p.attr("Name")),
		}

		linked := make(map[string]struct{})
		p.walk(func(e *element) {
			cwe := strings.TrimSpace(e.attr("CWE_ID"))
			if cwe == "" {
				return
			}
			key := DenormalizeWeaknessID(cwe)
			if _, dup := linked[key]; dup {
				return
			}
			linked[key] = struct{}{}
			index[key] = append(index[key], ap)
		})
	}
	return index, nil
}
