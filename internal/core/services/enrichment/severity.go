package enrichment

import (
	"strings"

	"github.com/senpai-on-fire/saci-database-sub001/internal/core/domain"
)

var networkKeywords = []string{"network", "remote", "tcp", "udp", "http", "https", "socket", "connection"}

var sensorKeywords = []string{
	"sensor", "gps", "imu", "accelerometer", "gyroscope", "magnetometer",
	"barometer", "compass", "lidar", "radar", "camera", "telemetry",
}

const vectorNetwork = "NETWORK"

// ExtractScores keeps the Primary metric of each CVSS family. When a family
// lists several Primary entries the last one wins.
func ExtractScores(m domain.Metrics) map[string]domain.CVSSScore {
	scores := make(map[string]domain.CVSSScore)

	families := []struct {
		key     string
		metrics []domain.CVSSMetric
	}{
		{domain.CVSSv31, m.CVSSMetricV31},
		{domain.CVSSv30, m.CVSSMetricV30},
		{domain.CVSSv20, m.CVSSMetricV2},
	}
	for _, fam := range families {
		for _, metric := range fam.metrics {
			if metric.Type != domain.MetricTypePrimary {
				continue
			}
			severity := metric.CVSSData.BaseSeverity
			if severity == "" {
				// v2.0 carries the band on the metric itself
				severity = metric.BaseSeverity
			}
			scores[fam.key] = domain.CVSSScore{
				BaseScore:    metric.CVSSData.BaseScore,
				BaseSeverity: severity,
				VectorString: metric.CVSSData.VectorString,
			}
		}
	}
	return scores
}

// IsNetworkRelated reports whether a Primary metric has a network attack
// or access vector, or any English description mentions a network term.
func IsNetworkRelated(raw domain.RawVulnerability) bool {
	for _, fam := range [][]domain.CVSSMetric{raw.Metrics.CVSSMetricV31, raw.Metrics.CVSSMetricV30} {
		for _, m := range fam {
			if m.Type == domain.MetricTypePrimary && strings.EqualFold(m.CVSSData.AttackVector, vectorNetwork) {
				return true
			}
		}
	}
	for _, m := range raw.Metrics.CVSSMetricV2 {
		if m.Type == domain.MetricTypePrimary && strings.EqualFold(m.CVSSData.AccessVector, vectorNetwork) {
			return true
		}
	}
	return descriptionsMention(raw, networkKeywords)
}

// IsSensorRelated reports whether any English description mentions a
// sensor term.
func IsSensorRelated(raw domain.RawVulnerability) bool {
	return descriptionsMention(raw, sensorKeywords)
}

func descriptionsMention(raw domain.RawVulnerability, keywords []string) bool {
	for _, desc := range raw.EnglishDescriptions() {
		lower := strings.ToLower(desc)
		for _, kw := range keywords {
			if strings.Contains(lower, kw) {
				return true
			}
		}
	}
	return false
}
