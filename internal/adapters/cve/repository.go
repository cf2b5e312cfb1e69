package cve

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"
	"gorm.io/plugin/opentelemetry/tracing"

	"github.com/senpai-on-fire/saci-database-sub001/internal/core/domain"
)

// SQLiteRepository implements ports.VulnerabilityRepository using GORM and
// SQLite. The database is an export artifact written at the end of a run.
type SQLiteRepository struct {
	db *gorm.DB
}

// NewSQLiteRepository opens or creates the database at dbPath and migrates
// the schema. Use ":memory:" for a throwaway database.
func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	db, err := gorm.Open(sqlite.Open(dbPath), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// ":memory:" databases are per connection.
	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to access connection pool: %w", err)
	}
	sqlDB.SetMaxOpenConns(1)

	if err := db.Use(tracing.NewPlugin()); err != nil {
		return nil, fmt.Errorf("failed to install tracing plugin: %w", err)
	}

	if err := db.AutoMigrate(&RunModel{}, &VulnerabilityModel{}, &VendorModel{}); err != nil {
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return &SQLiteRepository{db: db}, nil
}

// SaveRun stores a run and upserts its records. A record already present
// from an earlier run is replaced, vendors included.
func (r *SQLiteRepository) SaveRun(ctx context.Context, meta domain.ExportMetadata, vulns []domain.NormalizedVulnerability) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		run := RunModel{
			RunID:                meta.RunID,
			Timestamp:            meta.Timestamp,
			TotalVulnerabilities: len(vulns),
			Keywords:             joinKeywords(meta.Keywords),
		}
		if err := tx.Save(&run).Error; err != nil {
			return fmt.Errorf("save run: %w", err)
		}

		for _, v := range vulns {
			model := toModel(meta.RunID, v)
			if err := tx.Clauses(clause.OnConflict{UpdateAll: true}).Create(&model).Error; err != nil {
				return fmt.Errorf("upsert %s: %w", v.ID, err)
			}

			if err := tx.Where("cve_id = ?", v.ID).Delete(&VendorModel{}).Error; err != nil {
				return fmt.Errorf("clear vendors of %s: %w", v.ID, err)
			}
			vendors := v.Vendors.Sorted()
			if len(vendors) == 0 {
				continue
			}
			rows := make([]VendorModel, len(vendors))
			for i, vendor := range vendors {
				rows[i] = VendorModel{CVEID: v.ID, Vendor: vendor}
			}
			if err := tx.Create(&rows).Error; err != nil {
				return fmt.Errorf("save vendors of %s: %w", v.ID, err)
			}
		}
		return nil
	})
}

// GetByID retrieves a record, or nil when it does not exist.
func (r *SQLiteRepository) GetByID(ctx context.Context, cveID string) (*domain.NormalizedVulnerability, error) {
	var m VulnerabilityModel
	err := r.db.WithContext(ctx).Where("cve_id = ?", cveID).First(&m).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get CVE: %w", err)
	}

	vendors, err := r.vendorsFor(ctx, []string{m.CVEID})
	if err != nil {
		return nil, err
	}
	v := fromModel(m, vendors[m.CVEID])
	return &v, nil
}

// FindByVendor returns the records attributed to vendor (case-insensitive),
// highest score first.
func (r *SQLiteRepository) FindByVendor(ctx context.Context, vendor string) ([]domain.NormalizedVulnerability, error) {
	db := r.db.WithContext(ctx)
	sub := db.Model(&VendorModel{}).Select("cve_id").Where("LOWER(vendor) = LOWER(?)", vendor)

	var models []VulnerabilityModel
	if err := db.Where("cve_id IN (?)", sub).Order("best_score DESC, cve_id ASC").Find(&models).Error; err != nil {
		return nil, fmt.Errorf("query failed: %w", err)
	}

	ids := make([]string, len(models))
	for i, m := range models {
		ids[i] = m.CVEID
	}
	vendors, err := r.vendorsFor(ctx, ids)
	if err != nil {
		return nil, err
	}

	out := make([]domain.NormalizedVulnerability, len(models))
	for i, m := range models {
		out[i] = fromModel(m, vendors[m.CVEID])
	}
	return out, nil
}

// CountByBand returns the number of stored records per severity band.
func (r *SQLiteRepository) CountByBand(ctx context.Context) (map[domain.SeverityBand]int, error) {
	var rows []struct {
		Band  string
		Count int
	}
	err := r.db.WithContext(ctx).Model(&VulnerabilityModel{}).
		Select("band, COUNT(*) AS count").
		Group("band").
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("count by band: %w", err)
	}

	out := make(map[domain.SeverityBand]int, len(rows))
	for _, row := range rows {
		out[domain.SeverityBand(row.Band)] = row.Count
	}
	return out, nil
}

// Count returns the total number of stored records.
func (r *SQLiteRepository) Count(ctx context.Context) (int, error) {
	var n int64
	if err := r.db.WithContext(ctx).Model(&VulnerabilityModel{}).Count(&n).Error; err != nil {
		return 0, fmt.Errorf("count: %w", err)
	}
	return int(n), nil
}

// Close closes the underlying connection pool.
func (r *SQLiteRepository) Close() error {
	sqlDB, err := r.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func (r *SQLiteRepository) vendorsFor(ctx context.Context, ids []string) (map[string][]string, error) {
	out := make(map[string][]string, len(ids))
	if len(ids) == 0 {
		return out, nil
	}

	var rows []VendorModel
	if err := r.db.WithContext(ctx).Where("cve_id IN ?", ids).Order("vendor").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("load vendors: %w", err)
	}
	for _, row := range rows {
		out[row.CVEID] = append(out[row.CVEID], row.Vendor)
	}
	return out, nil
}
