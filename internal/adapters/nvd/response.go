package nvd

import (
	"encoding/json"
	"fmt"

	"github.com/senpai-on-fire/saci-database-sub001/internal/core/domain"
)

// searchResponse is the envelope of a /cves/2.0 page.
type searchResponse struct {
	ResultsPerPage  int             `json:"resultsPerPage"`
	StartIndex      int             `json:"startIndex"`
	TotalResults    int             `json:"totalResults"`
	Vulnerabilities []vulnerability `json:"vulnerabilities"`
}

type vulnerability struct {
	CVE domain.RawVulnerability `json:"cve"`
}

// page is a decoded result page.
type page struct {
	Total   int
	Records []domain.RawVulnerability
}

func decodePage(body []byte) (page, error) {
	var resp searchResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return page{}, fmt.Errorf("failed to decode search response: %w", err)
	}

	records := make([]domain.RawVulnerability, 0, len(resp.Vulnerabilities))
	for _, v := range resp.Vulnerabilities {
		records = append(records, v.CVE)
	}
	return page{Total: resp.TotalResults, Records: records}, nil
}
