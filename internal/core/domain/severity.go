package domain

// SeverityBand is the summary-statistics bucket of a numeric CVSS score.
type SeverityBand string

const (
	BandUnknown  SeverityBand = "unknown"
	BandLow      SeverityBand = "low"
	BandMedium   SeverityBand = "medium"
	BandHigh     SeverityBand = "high"
	BandCritical SeverityBand = "critical"
)

// Bands lists the scored bands from most to least severe.
var Bands = []SeverityBand{BandCritical, BandHigh, BandMedium, BandLow}

// BandForScore maps a base score onto its band:
// critical >= 9.0, high >= 7.0, medium >= 4.0, low otherwise.
func BandForScore(score float64) SeverityBand {
	switch {
	case score >= 9.0:
		return BandCritical
	case score >= 7.0:
		return BandHigh
	case score >= 4.0:
		return BandMedium
	default:
		return BandLow
	}
}

// Rank returns an integer rank for comparison (Low=1, Critical=4).
func (b SeverityBand) Rank() int {
	switch b {
	case BandLow:
		return 1
	case BandMedium:
		return 2
	case BandHigh:
		return 3
	case BandCritical:
		return 4
	default:
		return 0
	}
}

func (b SeverityBand) String() string {
	return string(b)
}
