package ports

import (
	"context"
	"net/http"
	"net/url"
	"time"

	"github.com/senpai-on-fire/saci-database-sub001/internal/core/domain"
)

// Response is a fully-read HTTP response.
type Response struct {
	StatusCode int
	Header     http.Header
	Body       []byte
}

// Fetcher issues GET requests with retry handling.
type Fetcher interface {
	Fetch(ctx context.Context, rawURL string, headers map[string]string, params url.Values) (*Response, error)
}

// Sleeper blocks for a duration; tests replace it to avoid real waits.
type Sleeper interface {
	Sleep(ctx context.Context, d time.Duration) error
}

// VulnerabilitySearcher performs keyword searches against the CVE provider.
type VulnerabilitySearcher interface {
	// Search returns records deduplicated by identifier across all keywords
	// of this call.
	Search(ctx context.Context, keywords []string, maxResults int) ([]domain.RawVulnerability, error)
}

// TaxonomyResolver resolves CWE names and their CAPEC attack patterns.
// Neither method fails; missing data yields the identifier or an empty list.
type TaxonomyResolver interface {
	ResolveWeaknessName(ctx context.Context, id string) string
	AttackPatternsForWeakness(ctx context.Context, id string) []domain.AttackPattern
}

// VulnerabilityRepository writes a run's normalized records to an export database.
type VulnerabilityRepository interface {
	SaveRun(ctx context.Context, meta domain.ExportMetadata, vulns []domain.NormalizedVulnerability) error
	GetByID(ctx context.Context, cveID string) (*domain.NormalizedVulnerability, error)
	FindByVendor(ctx context.Context, vendor string) ([]domain.NormalizedVulnerability, error)
	CountByBand(ctx context.Context) (map[domain.SeverityBand]int, error)
	Count(ctx context.Context) (int, error)
	Close() error
}
