package taxonomy

import (
	"archive/zip"
	"bytes"
	"context"
	"errors"
	"net/url"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/senpai-on-fire/saci-database-sub001/internal/core/domain"
	"github.com/senpai-on-fire/saci-database-sub001/internal/core/ports"
)

const (
	cweURL   = "https://cwe.test/cwec_latest.xml.zip"
	capecURL = "https://capec.test/capec_latest.xml"
)

const namespacedCWE = `<?xml version="1.0" encoding="UTF-8"?>
<Weakness_Catalog xmlns="http://cwe.mitre.org/cwe-7" Name="CWE" Version="4.14">
  <Weaknesses>
    <Weakness ID="79" Name="Improper Neutralization of Input During Web Page Generation" Abstraction="Base"/>
    <Weakness ID="120" Name="Buffer Copy without Checking Size of Input" Abstraction="Base"/>
    <Weakness ID="1000" Abstraction="Base"><Name>Named By Child</Name></Weakness>
  </Weaknesses>
</Weakness_Catalog>`

const namespacedCAPEC = `<?xml version="1.0" encoding="UTF-8"?>
<Attack_Pattern_Catalog xmlns="http://capec.mitre.org/capec-3" Name="CAPEC">
  <Attack_Patterns>
    <Attack_Pattern ID="63" Name="Cross-Site Scripting (XSS)">
      <Related_Weaknesses>
        <Related_Weakness CWE_ID="79"/>
        <Related_Weakness CWE_ID="79"/>
        <Related_Weakness CWE_ID="CWE-20"/>
      </Related_Weaknesses>
    </Attack_Pattern>
    <Attack_Pattern ID="588" Name="DOM-Based XSS">
      <Related_Weaknesses><Related_Weakness CWE_ID="79"/></Related_Weaknesses>
    </Attack_Pattern>
    <Attack_Pattern ID="100" Name="Overflow Buffers">
      <Related_Weaknesses><Related_Weakness CWE_ID="120"/></Related_Weaknesses>
    </Attack_Pattern>
  </Attack_Patterns>
</Attack_Pattern_Catalog>`

// stubFetcher serves canned bodies and counts requests per URL.
type stubFetcher struct {
	mu     sync.Mutex
	bodies map[string][]byte
	errs   map[string]error
	calls  map[string]int
}

func newStubFetcher() *stubFetcher {
	return &stubFetcher{
		bodies: make(map[string][]byte),
		errs:   make(map[string]error),
		calls:  make(map[string]int),
	}
}

func (s *stubFetcher) Fetch(_ context.Context, rawURL string, _ map[string]string, _ url.Values) (*ports.Response, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls[rawURL]++
	if err, ok := s.errs[rawURL]; ok {
		return nil, err
	}
	return &ports.Response{StatusCode: 200, Body: s.bodies[rawURL]}, nil
}

func (s *stubFetcher) count(rawURL string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls[rawURL]
}

func zipped(t *testing.T, files map[string]string) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for name, content := range files {
		w, err := zw.Create(name)
		require.NoError(t, err)
		_, err = w.Write([]byte(content))
		require.NoError(t, err)
	}
	require.NoError(t, zw.Close())
	return buf.Bytes()
}

func enabledOptions() Options {
	return Options{
		WeaknessURL:          cweURL,
		AttackPatternURL:     capecURL,
		EnableWeaknessNames:  true,
		EnableAttackPatterns: true,
	}
}

func TestResolveWeaknessName_DownloadsOnce(t *testing.T) {
	f := newStubFetcher()
	f.bodies[cweURL] = zipped(t, map[string]string{"cwec_v4.14.xml": namespacedCWE})
	c := New(f, enabledOptions(), nil)
	ctx := context.Background()

	assert.Equal(t, "Improper Neutralization of Input During Web Page Generation", c.ResolveWeaknessName(ctx, "CWE-79"))
	assert.Equal(t, "Buffer Copy without Checking Size of Input", c.ResolveWeaknessName(ctx, "120"))
	assert.Equal(t, "Named By Child", c.ResolveWeaknessName(ctx, "CWE-1000"))
	assert.Equal(t, "CWE-99999", c.ResolveWeaknessName(ctx, "CWE-99999"), "unknown ids resolve to themselves")
	assert.Equal(t, "NVD-CWE-Other", c.ResolveWeaknessName(ctx, "NVD-CWE-Other"))

	assert.Equal(t, 1, f.count(cweURL))
	assert.Equal(t, 3, c.WeaknessCount())
}

func TestResolveWeaknessName_ConcurrentCallersShareOneDownload(t *testing.T) {
	f := newStubFetcher()
	f.bodies[cweURL] = []byte(namespacedCWE)
	c := New(f, enabledOptions(), nil)

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			c.ResolveWeaknessName(context.Background(), "CWE-79")
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, f.count(cweURL))
}

func TestResolveWeaknessName_FailureUsesFallbackAndNeverRetries(t *testing.T) {
	f := newStubFetcher()
	f.errs[cweURL] = errors.New("rate limited")
	c := New(f, enabledOptions(), nil)
	ctx := context.Background()

	assert.Equal(t, "Out-of-bounds Write", c.ResolveWeaknessName(ctx, "CWE-787"))
	assert.Equal(t, "CWE-4242", c.ResolveWeaknessName(ctx, "CWE-4242"))
	assert.Equal(t, 1, f.count(cweURL))
}

func TestResolveWeaknessName_Disabled(t *testing.T) {
	f := newStubFetcher()
	opts := enabledOptions()
	opts.EnableWeaknessNames = false
	c := New(f, opts, nil)

	assert.Equal(t, "CWE-79", c.ResolveWeaknessName(context.Background(), "CWE-79"))
	assert.Zero(t, f.count(cweURL))
}

func TestResolveWeaknessName_Reset(t *testing.T) {
	f := newStubFetcher()
	f.bodies[cweURL] = []byte(namespacedCWE)
	c := New(f, enabledOptions(), nil)
	ctx := context.Background()

	c.ResolveWeaknessName(ctx, "CWE-79")
	c.Reset()
	c.ResolveWeaknessName(ctx, "CWE-79")

	assert.Equal(t, 2, f.count(cweURL))
}

func TestAttackPatternsForWeakness(t *testing.T) {
	f := newStubFetcher()
	f.bodies[capecURL] = []byte(namespacedCAPEC)
	c := New(f, enabledOptions(), nil)
	ctx := context.Background()

	got := c.AttackPatternsForWeakness(ctx, "CWE-79")
	assert.Equal(t, []domain.AttackPattern{
		{ID: "CAPEC-63", Name: "Cross-Site Scripting (XSS)"},
		{ID: "CAPEC-588", Name: "DOM-Based XSS"},
	}, got)

	assert.Equal(t, []domain.AttackPattern{{ID: "CAPEC-63", Name: "Cross-Site Scripting (XSS)"}},
		c.AttackPatternsForWeakness(ctx, "20"))
	assert.Empty(t, c.AttackPatternsForWeakness(ctx, "CWE-787"))
	assert.NotNil(t, c.AttackPatternsForWeakness(ctx, "CWE-787"))
	assert.Equal(t, 1, f.count(capecURL))
}

func TestAttackPatternsForWeakness_ReturnsCopies(t *testing.T) {
	f := newStubFetcher()
	f.bodies[capecURL] = []byte(namespacedCAPEC)
	c := New(f, enabledOptions(), nil)
	ctx := context.Background()

	first := c.AttackPatternsForWeakness(ctx, "CWE-120")
	first[0].Name = "mutated"
	_ = append(first, domain.AttackPattern{ID: "CAPEC-0"})

	assert.Equal(t, []domain.AttackPattern{{ID: "CAPEC-100", Name: "Overflow Buffers"}},
		c.AttackPatternsForWeakness(ctx, "CWE-120"))
}

func TestAttackPatternsForWeakness_FailureAndDisabled(t *testing.T) {
	f := newStubFetcher()
	f.errs[capecURL] = errors.New("timeout")
	c := New(f, enabledOptions(), nil)
	ctx := context.Background()

	assert.Empty(t, c.AttackPatternsForWeakness(ctx, "CWE-79"))
	assert.Empty(t, c.AttackPatternsForWeakness(ctx, "CWE-120"))
	assert.Equal(t, 1, f.count(capecURL))

	opts := enabledOptions()
	opts.EnableAttackPatterns = false
	disabled := New(f, opts, nil)
	assert.Empty(t, disabled.AttackPatternsForWeakness(ctx, "CWE-79"))
	assert.Equal(t, 1, f.count(capecURL))
}

func TestAttackPatternsForWeakness_BadArchiveFallsBack(t *testing.T) {
	f := newStubFetcher()
	f.bodies[capecURL] = zipped(t, map[string]string{"README.txt": "no catalog here"})
	c := New(f, enabledOptions(), nil)

	assert.Empty(t, c.AttackPatternsForWeakness(context.Background(), "CWE-79"))
	assert.Equal(t, 1, f.count(capecURL))
}
