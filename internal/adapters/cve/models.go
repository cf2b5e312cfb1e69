package cve

import (
	"strings"
	"time"

	"github.com/senpai-on-fire/saci-database-sub001/internal/core/domain"
)

// RunModel records one export run.
type RunModel struct {
	RunID                string `gorm:"primaryKey;column:run_id"`
	Timestamp            time.Time
	TotalVulnerabilities int
	Keywords             string
}

// VulnerabilityModel is the GORM model for normalized records.
type VulnerabilityModel struct {
	CVEID            string `gorm:"primaryKey;column:cve_id"`
	RunID            string `gorm:"index;column:run_id"`
	Description      string
	Weaknesses       []domain.Weakness           `gorm:"serializer:json"`
	AttackPatterns   []domain.AttackPattern      `gorm:"serializer:json"`
	CVSS             map[string]domain.CVSSScore `gorm:"serializer:json"`
	BestScore        float64
	Band             string `gorm:"index"`
	IsNetworkRelated bool
	IsSensorRelated  bool
	Published        string
	LastModified     string
	UpdatedAt        time.Time
}

// VendorModel links a record to one vendor token.
type VendorModel struct {
	ID     uint   `gorm:"primaryKey"`
	CVEID  string `gorm:"index;column:cve_id"`
	Vendor string `gorm:"index"`
}

func toModel(runID string, v domain.NormalizedVulnerability) VulnerabilityModel {
	m := VulnerabilityModel{
		CVEID:            v.ID,
		RunID:            runID,
		Description:      v.Description,
		Weaknesses:       v.Weaknesses,
		AttackPatterns:   v.AttackPatterns,
		CVSS:             v.CVSS,
		Band:             string(domain.BandUnknown),
		IsNetworkRelated: v.IsNetworkRelated,
		IsSensorRelated:  v.IsSensorRelated,
		Published:        v.Published,
		LastModified:     v.LastModified,
	}
	if best, ok := v.BestScore(); ok {
		m.BestScore = best.BaseScore
		m.Band = string(domain.BandForScore(best.BaseScore))
	}
	return m
}

func fromModel(m VulnerabilityModel, vendors []string) domain.NormalizedVulnerability {
	v := domain.NormalizedVulnerability{
		ID:               m.CVEID,
		Description:      m.Description,
		Vendors:          domain.NewVendorSet(vendors...),
		Weaknesses:       m.Weaknesses,
		AttackPatterns:   m.AttackPatterns,
		CVSS:             m.CVSS,
		IsNetworkRelated: m.IsNetworkRelated,
		IsSensorRelated:  m.IsSensorRelated,
		Published:        m.Published,
		LastModified:     m.LastModified,
	}
	if v.Weaknesses == nil {
		v.Weaknesses = []domain.Weakness{}
	}
	if v.AttackPatterns == nil {
		v.AttackPatterns = []domain.AttackPattern{}
	}
	if v.CVSS == nil {
		v.CVSS = map[string]domain.CVSSScore{}
	}
	return v
}

func joinKeywords(keywords []string) string {
	return strings.Join(keywords, ",")
}
