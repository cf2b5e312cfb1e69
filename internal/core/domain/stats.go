package domain

// Statistics summarises one run's normalized records.
type Statistics struct {
	Total               int                  `json:"total"`
	BySeverity          map[SeverityBand]int `json:"by_severity"`
	NetworkRelated      int                  `json:"network_related"`
	SensorRelated       int                  `json:"sensor_related"`
	WithCVSS            int                  `json:"with_cvss"`
	AverageScore        float64              `json:"average_score"`
	MaxScore            float64              `json:"max_score"`
	TotalAttackPatterns int                  `json:"total_attack_patterns"`
	TopVendors          []CountItem          `json:"top_vendors"`
	TopWeaknesses       []CountItem          `json:"top_weaknesses"`
}

// CountItem is one row of a histogram.
type CountItem struct {
	Key   string `json:"key"`
	Label string `json:"label,omitempty"`
	Count int    `json:"count"`
}
