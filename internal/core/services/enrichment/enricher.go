package enrichment

import (
	"context"
	"log/slog"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/senpai-on-fire/saci-database-sub001/internal/core/domain"
	"github.com/senpai-on-fire/saci-database-sub001/internal/core/ports"
	"github.com/senpai-on-fire/saci-database-sub001/internal/telemetry"
)

// Enricher turns raw provider records into normalized records.
type Enricher struct {
	taxonomy ports.TaxonomyResolver
	logger   *slog.Logger
}

// NewEnricher creates an Enricher backed by the given taxonomy resolver.
func NewEnricher(resolver ports.TaxonomyResolver, logger *slog.Logger) *Enricher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Enricher{
		taxonomy: resolver,
		logger:   logger.With("component", "enricher"),
	}
}

// Enrich normalizes one record. It returns nil when the record has no
// identifier. Taxonomy downloads happen lazily, on the first record that
// references a weakness.
func (e *Enricher) Enrich(ctx context.Context, raw domain.RawVulnerability) *domain.NormalizedVulnerability {
	if strings.TrimSpace(raw.ID) == "" {
		telemetry.RecordsSkipped.Inc()
		e.logger.Debug("Skipping record without identifier")
		return nil
	}

	weaknesses, patterns := e.weaknesses(ctx, raw.Weaknesses)

	telemetry.RecordsEnriched.Inc()
	return &domain.NormalizedVulnerability{
		ID:               raw.ID,
		Description:      raw.EnglishDescription(),
		Vendors:          ResolveVendors(raw),
		Weaknesses:       weaknesses,
		AttackPatterns:   patterns,
		CVSS:             ExtractScores(raw.Metrics),
		IsNetworkRelated: IsNetworkRelated(raw),
		IsSensorRelated:  IsSensorRelated(raw),
		Published:        raw.Published,
		LastModified:     raw.LastModified,
	}
}

// EnrichAll enriches records in order, dropping the ones Enrich skips.
func (e *Enricher) EnrichAll(ctx context.Context, raws []domain.RawVulnerability) []domain.NormalizedVulnerability {
	ctx, span := otel.Tracer("enrichment").Start(ctx, "EnrichAll")
	defer span.End()

	out := make([]domain.NormalizedVulnerability, 0, len(raws))
	for _, raw := range raws {
		if ctx.Err() != nil {
			break
		}
		if v := e.Enrich(ctx, raw); v != nil {
			out = append(out, *v)
		}
	}
	span.SetAttributes(attribute.Int("records.input", len(raws)), attribute.Int("records.output", len(out)))
	e.logger.Info("Enrichment complete", "input", len(raws), "output", len(out))
	return out
}

func (e *Enricher) weaknesses(ctx context.Context, refs []domain.WeaknessRef) ([]domain.Weakness, []domain.AttackPattern) {
	weaknesses := []domain.Weakness{}
	patterns := []domain.AttackPattern{}

	for _, ref := range refs {
		for _, d := range ref.Description {
			if !strings.HasPrefix(d.Value, domain.WeaknessIDPrefix) {
				continue
			}
			weaknesses = append(weaknesses, domain.Weakness{
				ID:   d.Value,
				Name: e.taxonomy.ResolveWeaknessName(ctx, d.Value),
			})
			patterns = append(patterns, e.taxonomy.AttackPatternsForWeakness(ctx, d.Value)...)
		}
	}
	return weaknesses, patterns
}
