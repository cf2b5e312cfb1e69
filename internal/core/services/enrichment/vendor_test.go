package enrichment

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/senpai-on-fire/saci-database-sub001/internal/core/domain"
)

func cpeRecord(desc string, criteria ...string) domain.RawVulnerability {
	matches := make([]domain.CPEMatch, len(criteria))
	for i, c := range criteria {
		matches[i] = domain.CPEMatch{Vulnerable: true, Criteria: c}
	}
	return domain.RawVulnerability{
		ID:             "CVE-2024-1000",
		Descriptions:   []domain.LangString{{Lang: "en", Value: desc}},
		Configurations: []domain.Configuration{{Nodes: []domain.ConfigNode{{Operator: "OR", CPEMatch: matches}}}},
	}
}

func TestResolveVendors_CPEWinsOverDescription(t *testing.T) {
	raw := cpeRecord("Issue in PX4 and DJI firmware",
		"cpe:2.3:a:ardupilot:ardupilot:4.3.0:*:*:*:*:*:*:*",
		"cpe:2.3:a:*:mavproxy:1.8:*:*:*:*:*:*:*",
		"cpe:2.3:o:ardupilot:chibios:*:*:*:*:*:*:*:*",
	)

	assert.Equal(t, domain.NewVendorSet("ardupilot"), ResolveVendors(raw))
}

func TestResolveVendors_DescriptionCollectsAllMatches(t *testing.T) {
	raw := cpeRecord("MAVLink parsing flaw affects PX4 autopilot and QGroundControl",
		"cpe:2.3:a:*:*:*:*:*:*:*:*:*:*")

	assert.Equal(t, domain.NewVendorSet("mavlink", "px4", "qgroundcontrol"), ResolveVendors(raw))
}

func TestResolveVendors_ReferencesLastResort(t *testing.T) {
	raw := domain.RawVulnerability{
		ID:           "CVE-2024-1001",
		Descriptions: []domain.LangString{{Lang: "en", Value: "Stack overflow in a flight controller"}},
		References: []domain.Reference{
			{URL: "https://github.com/ArduPilot/ardupilot/issues/1"},
			{URL: "https://example.org/advisory"},
		},
	}
	assert.Equal(t, domain.NewVendorSet("ardupilot"), ResolveVendors(raw))

	raw.Descriptions[0].Value = "Parrot firmware bug"
	assert.Equal(t, domain.NewVendorSet("parrot"), ResolveVendors(raw), "description takes precedence over references")
}

func TestResolveVendors_Empty(t *testing.T) {
	v := ResolveVendors(domain.RawVulnerability{ID: "CVE-2024-1002"})
	assert.NotNil(t, v)
	assert.Empty(t, v)
}

func TestVendorsFromCPE(t *testing.T) {
	got := VendorsFromCPE([]string{
		"cpe:2.3:h:dji:mavic_3:-:*:*:*:*:*:*:*",
		"cpe:2.3:a:-:tool:1:*:*:*:*:*:*:*",
		"cpe:2.3:a",
		"cpe:2.3:o:parrot:anafi_firmware:1.8:*:*:*:*:*:*:*",
	})
	assert.Equal(t, []string{"dji", "parrot"}, got.Sorted())
}
