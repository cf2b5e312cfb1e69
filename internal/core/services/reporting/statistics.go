package reporting

import (
	"fmt"
	"io"
	"math"
	"sort"
	"text/tabwriter"

	"github.com/senpai-on-fire/saci-database-sub001/internal/core/domain"
)

// DefaultTopN bounds the vendor and weakness histograms.
const DefaultTopN = 10

// StatisticsCalculator summarises normalized records for reporting.
type StatisticsCalculator struct {
	topN int
}

// NewStatisticsCalculator creates a calculator keeping the topN most
// frequent vendors and weaknesses. A non-positive topN uses DefaultTopN.
func NewStatisticsCalculator(topN int) *StatisticsCalculator {
	if topN <= 0 {
		topN = DefaultTopN
	}
	return &StatisticsCalculator{topN: topN}
}

// Compute builds the run statistics. Severity bands use each record's best
// score (v3.1, then v3.0, then v2.0); unscored records count as unknown.
func (sc *StatisticsCalculator) Compute(vulns []domain.NormalizedVulnerability) domain.Statistics {
	stats := domain.Statistics{
		Total:      len(vulns),
		BySeverity: make(map[domain.SeverityBand]int, len(domain.Bands)+1),
	}
	for _, b := range domain.Bands {
		stats.BySeverity[b] = 0
	}
	stats.BySeverity[domain.BandUnknown] = 0

	vendors := make(map[string]int)
	weaknesses := make(map[string]int)
	weaknessNames := make(map[string]string)
	var scoreSum float64

	for _, v := range vulns {
		if best, ok := v.BestScore(); ok {
			stats.BySeverity[domain.BandForScore(best.BaseScore)]++
			stats.WithCVSS++
			scoreSum += best.BaseScore
			stats.MaxScore = math.Max(stats.MaxScore, best.BaseScore)
		} else {
			stats.BySeverity[domain.BandUnknown]++
		}

		if v.IsNetworkRelated {
			stats.NetworkRelated++
		}
		if v.IsSensorRelated {
			stats.SensorRelated++
		}
		stats.TotalAttackPatterns += len(v.AttackPatterns)

		for vendor := range v.Vendors {
			vendors[vendor]++
		}

		// a record counts once per weakness even if several sources cite it
		seen := make(map[string]struct{}, len(v.Weaknesses))
		for _, w := range v.Weaknesses {
			if _, dup := seen[w.ID]; dup {
				continue
			}
			seen[w.ID] = struct{}{}
			weaknesses[w.ID]++
			if w.Name != "" && w.Name != w.ID {
				weaknessNames[w.ID] = w.Name
			}
		}
	}

	if stats.WithCVSS > 0 {
		stats.AverageScore = math.Round(scoreSum/float64(stats.WithCVSS)*100) / 100
	}
	stats.TopVendors = sc.rank(vendors, nil)
	stats.TopWeaknesses = sc.rank(weaknesses, weaknessNames)
	return stats
}

// rank sorts a histogram by count descending, then key ascending, and
// keeps the first topN rows.
func (sc *StatisticsCalculator) rank(counts map[string]int, labels map[string]string) []domain.CountItem {
	items := make([]domain.CountItem, 0, len(counts))
	for k, n := range counts {
		items = append(items, domain.CountItem{Key: k, Label: labels[k], Count: n})
	}

	sort.Slice(items, func(i, j int) bool {
		if items[i].Count != items[j].Count {
			return items[i].Count > items[j].Count
		}
		return items[i].Key < items[j].Key
	})

	if len(items) > sc.topN {
		items = items[:sc.topN]
	}
	return items
}

// FormatText renders statistics as an aligned plain-text report.
func FormatText(w io.Writer, stats domain.Statistics) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)

	fmt.Fprintln(tw, "VULNERABILITY STATISTICS")
	fmt.Fprintf(tw, "Total vulnerabilities:\t%d\n", stats.Total)
	fmt.Fprintf(tw, "With CVSS score:\t%d\n", stats.WithCVSS)
	fmt.Fprintf(tw, "Average score:\t%.2f\n", stats.AverageScore)
	fmt.Fprintf(tw, "Max score:\t%.1f\n", stats.MaxScore)
	fmt.Fprintf(tw, "Network related:\t%d\n", stats.NetworkRelated)
	fmt.Fprintf(tw, "Sensor related:\t%d\n", stats.SensorRelated)
	fmt.Fprintf(tw, "Attack patterns:\t%d\n", stats.TotalAttackPatterns)

	fmt.Fprintln(tw, "\nBY SEVERITY")
	for _, b := range append(append([]domain.SeverityBand{}, domain.Bands...), domain.BandUnknown) {
		fmt.Fprintf(tw, "  %s\t%d\n", b, stats.BySeverity[b])
	}

	if len(stats.TopVendors) > 0 {
		fmt.Fprintln(tw, "\nTOP VENDORS")
		for _, item := range stats.TopVendors {
			fmt.Fprintf(tw, "  %s\t%d\n", item.Key, item.Count)
		}
	}

	if len(stats.TopWeaknesses) > 0 {
		fmt.Fprintln(tw, "\nTOP WEAKNESSES")
		for _, item := range stats.TopWeaknesses {
			label := item.Key
			if item.Label != "" {
				label = fmt.Sprintf("%s %s", item.Key, truncate(item.Label, 60))
			}
			fmt.Fprintf(tw, "  %s\t%d\n", label, item.Count)
		}
	}

	return tw.Flush()
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-3]) + "..."
}
