package enrichment

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/senpai-on-fire/saci-database-sub001/internal/core/domain"
)

func TestExtractScores(t *testing.T) {
	m := domain.Metrics{
		CVSSMetricV31: []domain.CVSSMetric{
			{Type: "Secondary", CVSSData: domain.CVSSData{BaseScore: 5.0, BaseSeverity: "MEDIUM"}},
			{Type: "Primary", CVSSData: domain.CVSSData{BaseScore: 7.5, BaseSeverity: "HIGH", VectorString: "CVSS:3.1/AV:N"}},
			{Type: "Primary", CVSSData: domain.CVSSData{BaseScore: 8.1, BaseSeverity: "HIGH", VectorString: "CVSS:3.1/AV:A"}},
		},
		CVSSMetricV30: []domain.CVSSMetric{
			{Type: "Secondary", CVSSData: domain.CVSSData{BaseScore: 3.0}},
		},
		CVSSMetricV2: []domain.CVSSMetric{
			{Type: "Primary", BaseSeverity: "MEDIUM", CVSSData: domain.CVSSData{BaseScore: 6.8, VectorString: "AV:N/AC:M"}},
		},
	}

	got := ExtractScores(m)

	assert.Equal(t, map[string]domain.CVSSScore{
		domain.CVSSv31: {BaseScore: 8.1, BaseSeverity: "HIGH", VectorString: "CVSS:3.1/AV:A"},
		domain.CVSSv20: {BaseScore: 6.8, BaseSeverity: "MEDIUM", VectorString: "AV:N/AC:M"},
	}, got)
}

func TestIsNetworkRelated(t *testing.T) {
	tests := []struct {
		name string
		raw  domain.RawVulnerability
		want bool
	}{
		{
			name: "v2 access vector only",
			raw: domain.RawVulnerability{Metrics: domain.Metrics{CVSSMetricV2: []domain.CVSSMetric{
				{Type: "Primary", CVSSData: domain.CVSSData{AccessVector: "NETWORK"}},
			}}},
			want: true,
		},
		{
			name: "v3.0 attack vector",
			raw: domain.RawVulnerability{Metrics: domain.Metrics{CVSSMetricV30: []domain.CVSSMetric{
				{Type: "Primary", CVSSData: domain.CVSSData{AttackVector: "NETWORK"}},
			}}},
			want: true,
		},
		{
			name: "secondary metric ignored",
			raw: domain.RawVulnerability{Metrics: domain.Metrics{CVSSMetricV31: []domain.CVSSMetric{
				{Type: "Secondary", CVSSData: domain.CVSSData{AttackVector: "NETWORK"}},
			}}},
			want: false,
		},
		{
			name: "description keyword",
			raw:  domain.RawVulnerability{Descriptions: []domain.LangString{{Lang: "en", Value: "Crafted UDP packet crashes the autopilot"}}},
			want: true,
		},
		{
			name: "non-English description ignored",
			raw:  domain.RawVulnerability{Descriptions: []domain.LangString{{Lang: "es", Value: "ataque remote por red"}}},
			want: false,
		},
		{
			name: "local only",
			raw: domain.RawVulnerability{
				Descriptions: []domain.LangString{{Lang: "en", Value: "Local privilege escalation"}},
				Metrics: domain.Metrics{CVSSMetricV31: []domain.CVSSMetric{
					{Type: "Primary", CVSSData: domain.CVSSData{AttackVector: "LOCAL"}},
				}},
			},
			want: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsNetworkRelated(tt.raw))
		})
	}
}

func TestIsSensorRelated(t *testing.T) {
	assert.True(t, IsSensorRelated(domain.RawVulnerability{
		Descriptions: []domain.LangString{{Lang: "en", Value: "Spoofed GPS data"}},
	}))
	assert.True(t, IsSensorRelated(domain.RawVulnerability{
		Descriptions: []domain.LangString{
			{Lang: "en", Value: "Denial of service"},
			{Lang: "en", Value: "via malformed Telemetry frames"},
		},
	}))
	assert.False(t, IsSensorRelated(domain.RawVulnerability{
		Descriptions: []domain.LangString{{Lang: "en", Value: "SQL injection in web UI"}},
	}))
}
