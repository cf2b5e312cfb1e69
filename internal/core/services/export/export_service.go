package export

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/senpai-on-fire/saci-database-sub001/internal/core/domain"
)

// NewDocument assembles the export artifact for a run. The SACI match list
// is always present and empty; matching happens outside this tool.
func NewDocument(runID string, keywords []string, vulns []domain.NormalizedVulnerability, now time.Time) domain.ExportDocument {
	if vulns == nil {
		vulns = []domain.NormalizedVulnerability{}
	}
	if keywords == nil {
		keywords = []string{}
	}
	return domain.ExportDocument{
		Metadata: domain.ExportMetadata{
			RunID:                runID,
			Timestamp:            now.UTC(),
			TotalVulnerabilities: len(vulns),
			TotalSaciMatches:     0,
			Keywords:             keywords,
		},
		Vulnerabilities: vulns,
		SaciMatches:     []domain.NormalizedVulnerability{},
	}
}

// WriteJSON writes the export document as indented JSON
func WriteJSON(w io.Writer, doc domain.ExportDocument) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(doc)
}

// WriteCSV writes one row per record with headers
func WriteCSV(w io.Writer, vulns []domain.NormalizedVulnerability) error {
	writer := csv.NewWriter(w)
	defer writer.Flush()

	headers := []string{
		"CVE", "Description", "Vendors", "Weaknesses", "AttackPatterns",
		"CVSSv31", "CVSSv30", "CVSSv20", "Band",
		"NetworkRelated", "SensorRelated",
		"Published", "LastModified",
	}
	if err := writer.Write(headers); err != nil {
		return err
	}

	for _, v := range vulns {
		band := domain.BandUnknown
		if best, ok := v.BestScore(); ok {
			band = domain.BandForScore(best.BaseScore)
		}

		row := []string{
			v.ID,
			v.Description,
			strings.Join(v.Vendors.Sorted(), ";"),
			joinWeaknesses(v.Weaknesses),
			joinPatterns(v.AttackPatterns),
			scoreCell(v.CVSS, domain.CVSSv31),
			scoreCell(v.CVSS, domain.CVSSv30),
			scoreCell(v.CVSS, domain.CVSSv20),
			string(band),
			fmt.Sprintf("%t", v.IsNetworkRelated),
			fmt.Sprintf("%t", v.IsSensorRelated),
			v.Published,
			v.LastModified,
		}
		if err := writer.Write(row); err != nil {
			return err
		}
	}

	writer.Flush()
	return writer.Error()
}

func scoreCell(scores map[string]domain.CVSSScore, family string) string {
	s, ok := scores[family]
	if !ok {
		return ""
	}
	return fmt.Sprintf("%.1f", s.BaseScore)
}

func joinWeaknesses(ws []domain.Weakness) string {
	ids := make([]string, len(ws))
	for i, w := range ws {
		ids[i] = w.ID
	}
	return strings.Join(ids, ";")
}

func joinPatterns(ps []domain.AttackPattern) string {
	ids := make([]string, len(ps))
	for i, p := range ps {
		ids[i] = p.ID
	}
	return strings.Join(ids, ";")
}
