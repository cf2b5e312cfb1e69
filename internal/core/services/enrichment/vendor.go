package enrichment

import (
	"strings"

	"github.com/senpai-on-fire/saci-database-sub001/internal/core/domain"
)

// vendorKeyword maps a case-insensitive substring to the vendor it implies.
type vendorKeyword struct {
	match  string
	vendor string
}

// descriptionVendors is consulted when no CPE names a vendor.
var descriptionVendors = []vendorKeyword{
	{"ardupilot", "ardupilot"},
	{"arducopter", "ardupilot"},
	{"arduplane", "ardupilot"},
	{"mission planner", "ardupilot"},
	{"px4", "px4"},
	{"qgroundcontrol", "qgroundcontrol"},
	{"mavlink", "mavlink"},
	{"mavproxy", "mavlink"},
	{"dji", "dji"},
	{"parrot", "parrot"},
	{"betaflight", "betaflight"},
	{"skydio", "skydio"},
	{"autel", "autel"},
	{"yuneec", "yuneec"},
	{"3dr", "3dr"},
	{"pixhawk", "pixhawk"},
}

// referenceVendors is the last resort, matched against reference URLs.
var referenceVendors = []vendorKeyword{
	{"ardupilot", "ardupilot"},
	{"px4", "px4"},
	{"dji", "dji"},
	{"parrot", "parrot"},
	{"mavlink", "mavlink"},
}

// ResolveVendors attributes a record to vendors. CPE criteria win; the
// English description is scanned only when they name no vendor, and the
// reference URLs only when the description yields nothing either.
func ResolveVendors(raw domain.RawVulnerability) domain.VendorSet {
	if v := VendorsFromCPE(raw.CPECriteria()); len(v) > 0 {
		return v
	}
	if v := VendorsFromText(raw.EnglishDescription()); len(v) > 0 {
		return v
	}
	return VendorsFromReferences(raw.ReferenceURLs())
}

// VendorsFromCPE takes the vendor field of each cpe:2.3 string, skipping
// the "*" wildcard.
func VendorsFromCPE(criteria []string) domain.VendorSet {
	out := domain.NewVendorSet()
	for _, c := range criteria {
		parts := strings.Split(c, ":")
		if len(parts) < 4 {
			continue
		}
		vendor := strings.TrimSpace(parts[3])
		if vendor == "*" || vendor == "-" {
			continue
		}
		out.Add(vendor)
	}
	return out
}

// VendorsFromText returns every vendor whose keyword occurs in text.
func VendorsFromText(text string) domain.VendorSet {
	return matchKeywords(descriptionVendors, text)
}

// VendorsFromReferences matches the smaller URL table against each URL.
func VendorsFromReferences(urls []string) domain.VendorSet {
	out := domain.NewVendorSet()
	for _, u := range urls {
		for v := range matchKeywords(referenceVendors, u) {
			out.Add(v)
		}
	}
	return out
}

func matchKeywords(table []vendorKeyword, text string) domain.VendorSet {
	out := domain.NewVendorSet()
	if text == "" {
		return out
	}
	lower := strings.ToLower(text)
	for _, kw := range table {
		if strings.Contains(lower, kw.match) {
			out.Add(kw.vendor)
		}
	}
	return out
}
