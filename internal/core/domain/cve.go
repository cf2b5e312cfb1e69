package domain

import (
	"encoding/json"
	"sort"
	"strings"
)

// RawVulnerability is one CVE entry as returned by the NVD 2.0 search API.
// It is decoded at the API boundary and treated as immutable afterwards.
type RawVulnerability struct {
	ID             string          `json:"id"`
	Published      string          `json:"published"`
	LastModified   string          `json:"lastModified"`
	Descriptions   []LangString    `json:"descriptions"`
	Configurations []Configuration `json:"configurations"`
	Weaknesses     []WeaknessRef   `json:"weaknesses"`
	Metrics        Metrics         `json:"metrics"`
	References     []Reference     `json:"references"`
}

// LangString is a language-tagged text value.
type LangString struct {
	Lang  string `json:"lang"`
	Value string `json:"value"`
}

// Configuration groups the CPE match nodes of a vulnerability.
type Configuration struct {
	Operator string       `json:"operator,omitempty"`
	Nodes    []ConfigNode `json:"nodes"`
}

// ConfigNode holds a set of CPE matches joined by Operator.
type ConfigNode struct {
	Operator string     `json:"operator,omitempty"`
	Negate   bool       `json:"negate,omitempty"`
	CPEMatch []CPEMatch `json:"cpeMatch"`
}

// CPEMatch is a single CPE 2.3 criteria string.
type CPEMatch struct {
	Vulnerable bool   `json:"vulnerable"`
	Criteria   string `json:"criteria"`
}

// WeaknessRef lists the CWE identifiers a source assigned to a CVE.
type WeaknessRef struct {
	Source      string       `json:"source,omitempty"`
	Type        string       `json:"type,omitempty"`
	Description []LangString `json:"description"`
}

// Reference is an advisory, patch or report URL.
type Reference struct {
	URL    string   `json:"url"`
	Source string   `json:"source,omitempty"`
	Tags   []string `json:"tags,omitempty"`
}

// Metrics carries CVSS metrics per schema family. Several sources may
// contribute entries to the same family.
type Metrics struct {
	CVSSMetricV31 []CVSSMetric `json:"cvssMetricV31,omitempty"`
	CVSSMetricV30 []CVSSMetric `json:"cvssMetricV30,omitempty"`
	CVSSMetricV2  []CVSSMetric `json:"cvssMetricV2,omitempty"`
}

// CVSSMetric is one scored entry. For v2.0 the severity band lives on the
// metric rather than inside CVSSData.
type CVSSMetric struct {
	Source       string   `json:"source,omitempty"`
	Type         string   `json:"type"`
	BaseSeverity string   `json:"baseSeverity,omitempty"`
	CVSSData     CVSSData `json:"cvssData"`
}

// CVSSData is the union of the v2 and v3.x cvssData fields used here.
type CVSSData struct {
	Version      string  `json:"version,omitempty"`
	VectorString string  `json:"vectorString,omitempty"`
	BaseScore    float64 `json:"baseScore"`
	BaseSeverity string  `json:"baseSeverity,omitempty"`
	AttackVector string  `json:"attackVector,omitempty"` // v3.x
	AccessVector string  `json:"accessVector,omitempty"` // v2.0
}

// MetricTypePrimary marks the NVD-assigned metric of a family.
const MetricTypePrimary = "Primary"

// EnglishDescription returns the first description tagged "en", or "".
func (r RawVulnerability) EnglishDescription() string {
	for _, d := range r.Descriptions {
		if d.Lang == "en" {
			return d.Value
		}
	}
	return ""
}

// EnglishDescriptions returns every description tagged "en".
func (r RawVulnerability) EnglishDescriptions() []string {
	var out []string
	for _, d := range r.Descriptions {
		if d.Lang == "en" {
			out = append(out, d.Value)
		}
	}
	return out
}

// CPECriteria flattens all CPE criteria strings in configuration order.
func (r RawVulnerability) CPECriteria() []string {
	var out []string
	for _, cfg := range r.Configurations {
		for _, node := range cfg.Nodes {
			for _, m := range node.CPEMatch {
				if m.Criteria != "" {
					out = append(out, m.Criteria)
				}
			}
		}
	}
	return out
}

// ReferenceURLs returns the reference URLs in order.
func (r RawVulnerability) ReferenceURLs() []string {
	out := make([]string, 0, len(r.References))
	for _, ref := range r.References {
		if ref.URL != "" {
			out = append(out, ref.URL)
		}
	}
	return out
}

// Weakness is a CWE reference with its resolved display name.
type Weakness struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// WeaknessIDPrefix starts every CWE reference that can be resolved.
const WeaknessIDPrefix = "CWE-"

// AttackPattern is a CAPEC entry linked to a weakness.
type AttackPattern struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// CVSSScore is the per-family score kept on a normalized record.
type CVSSScore struct {
	BaseScore    float64 `json:"baseScore"`
	BaseSeverity string  `json:"baseSeverity"`
	VectorString string  `json:"vectorString"`
}

// CVSS schema family keys.
const (
	CVSSv31 = "v3.1"
	CVSSv30 = "v3.0"
	CVSSv20 = "v2.0"
)

// NormalizedVulnerability is the enrichment output for one CVE.
type NormalizedVulnerability struct {
	ID               string               `json:"cve_id"`
	Description      string               `json:"description"`
	Vendors          VendorSet            `json:"vendors"`
	Weaknesses       []Weakness           `json:"weaknesses"`
	AttackPatterns   []AttackPattern      `json:"attack_patterns"`
	CVSS             map[string]CVSSScore `json:"cvss"`
	IsNetworkRelated bool                 `json:"is_network_related"`
	IsSensorRelated  bool                 `json:"is_sensor_related"`
	Published        string               `json:"published"`
	LastModified     string               `json:"last_modified"`
}

// BestScore returns the highest-precedence score (v3.1, then v3.0, then v2.0).
func (v NormalizedVulnerability) BestScore() (CVSSScore, bool) {
	for _, key := range []string{CVSSv31, CVSSv30, CVSSv20} {
		if s, ok := v.CVSS[key]; ok {
			return s, true
		}
	}
	return CVSSScore{}, false
}

// VendorSet is an unordered set of vendor tokens. It marshals as a sorted
// JSON array.
type VendorSet map[string]struct{}

// NewVendorSet builds a set from the given tokens.
func NewVendorSet(vendors ...string) VendorSet {
	s := make(VendorSet, len(vendors))
	for _, v := range vendors {
		s.Add(v)
	}
	return s
}

// Add inserts a vendor token; empty tokens are ignored.
func (s VendorSet) Add(vendor string) {
	if vendor == "" {
		return
	}
	s[vendor] = struct{}{}
}

// Has reports whether vendor is present.
func (s VendorSet) Has(vendor string) bool {
	_, ok := s[vendor]
	return ok
}

// Sorted returns the members in lexical order.
func (s VendorSet) Sorted() []string {
	out := make([]string, 0, len(s))
	for v := range s {
		out = append(out, v)
	}
	sort.Strings(out)
	return out
}

// String renders the set as a comma separated list.
func (s VendorSet) String() string {
	return strings.Join(s.Sorted(), ",")
}

// MarshalJSON encodes the set as a sorted array.
func (s VendorSet) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.Sorted())
}

// UnmarshalJSON decodes an array of vendor tokens.
func (s *VendorSet) UnmarshalJSON(data []byte) error {
	var vendors []string
	if err := json.Unmarshal(data, &vendors); err != nil {
		return err
	}
	*s = NewVendorSet(vendors...)
	return nil
}
