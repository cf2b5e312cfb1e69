package enrichment

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/senpai-on-fire/saci-database-sub001/internal/core/domain"
	"github.com/senpai-on-fire/saci-database-sub001/internal/telemetry"
)

// MockTaxonomyResolver
type MockTaxonomyResolver struct {
	mock.Mock
}

func (m *MockTaxonomyResolver) ResolveWeaknessName(ctx context.Context, id string) string {
	args := m.Called(ctx, id)
	return args.String(0)
}

func (m *MockTaxonomyResolver) AttackPatternsForWeakness(ctx context.Context, id string) []domain.AttackPattern {
	args := m.Called(ctx, id)
	return args.Get(0).([]domain.AttackPattern)
}

const ardupilotRecord = `{
	"id": "CVE-2024-0001",
	"published": "2024-01-10T12:00:00.000",
	"lastModified": "2024-02-01T08:30:00.000",
	"descriptions": [{"lang": "en", "value": "Buffer overflow in ArduPilot ground control station"}],
	"configurations": [],
	"metrics": {"cvssMetricV31": [{"type": "Primary", "cvssData": {"baseScore": 9.8, "baseSeverity": "CRITICAL", "attackVector": "NETWORK"}}]},
	"weaknesses": [{"description": [{"value": "CWE-120"}]}]
}`

func TestEnrich_EndToEnd(t *testing.T) {
	var raw domain.RawVulnerability
	require.NoError(t, json.Unmarshal([]byte(ardupilotRecord), &raw))

	tax := new(MockTaxonomyResolver)
	tax.On("ResolveWeaknessName", mock.Anything, "CWE-120").Return("Buffer Copy without Checking Size of Input").Once()
	tax.On("AttackPatternsForWeakness", mock.Anything, "CWE-120").Return([]domain.AttackPattern{
		{ID: "CAPEC-100", Name: "Overflow Buffers"},
		{ID: "CAPEC-10", Name: "Buffer Overflow via Environment Variables"},
	}).Once()

	e := NewEnricher(tax, nil)
	v := e.Enrich(context.Background(), raw)
	require.NotNil(t, v)

	assert.Equal(t, "CVE-2024-0001", v.ID)
	assert.Equal(t, domain.NewVendorSet("ardupilot"), v.Vendors)
	assert.Equal(t, 9.8, v.CVSS[domain.CVSSv31].BaseScore)
	assert.Equal(t, "CRITICAL", v.CVSS[domain.CVSSv31].BaseSeverity)
	assert.True(t, v.IsNetworkRelated)
	assert.False(t, v.IsSensorRelated)
	require.Len(t, v.Weaknesses, 1)
	assert.Equal(t, "CWE-120", v.Weaknesses[0].ID)
	assert.Equal(t, "Buffer Copy without Checking Size of Input", v.Weaknesses[0].Name)
	assert.Len(t, v.AttackPatterns, 2)
	assert.Equal(t, "2024-01-10T12:00:00.000", v.Published)
	assert.Equal(t, "2024-02-01T08:30:00.000", v.LastModified)

	tax.AssertExpectations(t)
}

func TestEnrich_MissingIdentifier(t *testing.T) {
	tax := new(MockTaxonomyResolver)
	e := NewEnricher(tax, nil)
	skipped := testutil.ToFloat64(telemetry.RecordsSkipped)

	assert.Nil(t, e.Enrich(context.Background(), domain.RawVulnerability{
		Descriptions: []domain.LangString{{Lang: "en", Value: "orphan"}},
		Weaknesses:   []domain.WeaknessRef{{Description: []domain.LangString{{Value: "CWE-79"}}}},
	}))
	tax.AssertNotCalled(t, "ResolveWeaknessName", mock.Anything, mock.Anything)
	assert.Equal(t, skipped+1, testutil.ToFloat64(telemetry.RecordsSkipped))
}

func TestEnrich_WeaknessHandling(t *testing.T) {
	tax := new(MockTaxonomyResolver)
	tax.On("ResolveWeaknessName", mock.Anything, "CWE-79").Return("XSS")
	tax.On("ResolveWeaknessName", mock.Anything, "CWE-20").Return("CWE-20")
	shared := domain.AttackPattern{ID: "CAPEC-63", Name: "Cross-Site Scripting (XSS)"}
	tax.On("AttackPatternsForWeakness", mock.Anything, "CWE-79").Return([]domain.AttackPattern{shared})
	tax.On("AttackPatternsForWeakness", mock.Anything, "CWE-20").Return([]domain.AttackPattern{shared})

	raw := domain.RawVulnerability{
		ID:           "CVE-2024-0002",
		Descriptions: []domain.LangString{{Lang: "es", Value: "solo español"}},
		Weaknesses: []domain.WeaknessRef{
			{Source: "nvd@nist.gov", Type: "Primary", Description: []domain.LangString{{Lang: "en", Value: "CWE-79"}}},
			{Source: "vendor", Type: "Secondary", Description: []domain.LangString{
				{Lang: "en", Value: "NVD-CWE-Other"},
				{Lang: "en", Value: "CWE-20"},
			}},
		},
	}

	v := NewEnricher(tax, nil).Enrich(context.Background(), raw)
	require.NotNil(t, v)

	assert.Empty(t, v.Description, "no English description")
	assert.Equal(t, []domain.Weakness{{ID: "CWE-79", Name: "XSS"}, {ID: "CWE-20", Name: "CWE-20"}}, v.Weaknesses)
	assert.Equal(t, []domain.AttackPattern{shared, shared}, v.AttackPatterns, "patterns are not deduplicated across weaknesses")
	assert.Empty(t, v.CVSS)
	assert.NotNil(t, v.Vendors)
	tax.AssertNotCalled(t, "ResolveWeaknessName", mock.Anything, "NVD-CWE-Other")
}

func TestEnrich_NoWeaknessesKeepsEmptyLists(t *testing.T) {
	tax := new(MockTaxonomyResolver)
	v := NewEnricher(tax, nil).Enrich(context.Background(), domain.RawVulnerability{ID: "CVE-2024-0003"})
	require.NotNil(t, v)

	data, err := json.Marshal(v)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"weaknesses":[]`)
	assert.Contains(t, string(data), `"attack_patterns":[]`)
	assert.Contains(t, string(data), `"vendors":[]`)
}

func TestEnrichAll(t *testing.T) {
	tax := new(MockTaxonomyResolver)
	raws := []domain.RawVulnerability{{ID: "CVE-1"}, {}, {ID: "CVE-2"}}

	out := NewEnricher(tax, nil).EnrichAll(context.Background(), raws)

	require.Len(t, out, 2)
	assert.Equal(t, "CVE-1", out[0].ID)
	assert.Equal(t, "CVE-2", out[1].ID)
}
