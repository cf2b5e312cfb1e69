package app

import (
	"github.com/senpai-on-fire/saci-database-sub001/internal/core/domain"
)

// Session accumulates the results of every search made during one run.
// It owns the cross-search seen-set; a single search only deduplicates
// within itself.
type Session struct {
	seen     map[string]struct{}
	records  []domain.NormalizedVulnerability
	keywords []string
	kwSeen   map[string]struct{}
}

// NewSession creates an empty session.
func NewSession() *Session {
	return &Session{
		seen:   make(map[string]struct{}),
		kwSeen: make(map[string]struct{}),
	}
}

// Filter drops raw records already collected by an earlier search.
// Records without an identifier pass through.
func (s *Session) Filter(raws []domain.RawVulnerability) []domain.RawVulnerability {
	out := make([]domain.RawVulnerability, 0, len(raws))
	for _, r := range raws {
		if _, dup := s.seen[r.ID]; dup && r.ID != "" {
			continue
		}
		out = append(out, r)
	}
	return out
}

// Add records normalized results, ignoring identifiers already present.
// It returns how many were new.
func (s *Session) Add(vulns ...domain.NormalizedVulnerability) int {
	added := 0
	for _, v := range vulns {
		if _, dup := s.seen[v.ID]; dup {
			continue
		}
		s.seen[v.ID] = struct{}{}
		s.records = append(s.records, v)
		added++
	}
	return added
}

// AddKeywords remembers the keywords searched, in first-use order.
func (s *Session) AddKeywords(keywords ...string) {
	for _, kw := range keywords {
		if _, dup := s.kwSeen[kw]; dup || kw == "" {
			continue
		}
		s.kwSeen[kw] = struct{}{}
		s.keywords = append(s.keywords, kw)
	}
}

// Records returns a copy of the collected records.
func (s *Session) Records() []domain.NormalizedVulnerability {
	out := make([]domain.NormalizedVulnerability, len(s.records))
	copy(out, s.records)
	return out
}

// Keywords returns a copy of the searched keywords.
func (s *Session) Keywords() []string {
	out := make([]string, len(s.keywords))
	copy(out, s.keywords)
	return out
}

// Len reports the number of collected records.
func (s *Session) Len() int {
	return len(s.records)
}
