package domain

import "time"

// ExportDocument is the JSON artifact written at the end of a run.
type ExportDocument struct {
	Metadata        ExportMetadata            `json:"metadata"`
	Vulnerabilities []NormalizedVulnerability `json:"vulnerabilities"`
	SaciMatches     []NormalizedVulnerability `json:"saci_matches"`
}

// ExportMetadata describes how and when the export was produced.
type ExportMetadata struct {
	RunID                string    `json:"run_id"`
	Timestamp            time.Time `json:"timestamp"`
	TotalVulnerabilities int       `json:"total_vulnerabilities"`
	TotalSaciMatches     int       `json:"total_saci_matches"`
	Keywords             []string  `json:"keywords"`
}
