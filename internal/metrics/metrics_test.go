package metrics

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/dchrnv/neurograph-core/internal/arbiter"
	"github.com/dchrnv/neurograph-core/internal/connection"
	"github.com/dchrnv/neurograph-core/internal/constitution"
	"github.com/dchrnv/neurograph-core/internal/guardian"
)

// #region fakes

type noLookup struct{}

func (noLookup) FindReflex(state []float32) (connection.Connection, bool) {
	return connection.Connection{}, false
}

type cannedProvider struct {
	dist arbiter.ActionDistribution
	err  error
}

func (p cannedProvider) GetPolicy(ctx context.Context, state []float32) (arbiter.ActionDistribution, error) {
	return p.dist, p.err
}

type plainCodec struct{}

func (plainCodec) StateKey(state []float32) string {
	return fmt.Sprint(state)
}

func (plainCodec) DecompressTarget(t connection.Target) []float32 {
	return nil
}

// #endregion fakes

func decideOnce(t *testing.T, provider arbiter.PolicyProvider) *arbiter.Stats {
	t.Helper()
	h, err := constitution.NewHolder(constitution.DefaultSnapshot())
	if err != nil {
		t.Fatalf("NewHolder: %v", err)
	}
	v := guardian.NewValidator(connection.NewStore(), h)
	a := arbiter.New(noLookup{}, v, provider, plainCodec{}, h, arbiter.DefaultConfig(), nil)
	a.Decide(context.Background(), []float32{0.5})
	return a.Stats()
}

func TestCollectDecisionCounters(t *testing.T) {
	stats := decideOnce(t, cannedProvider{err: errors.New("unavailable")})
	exporter := NewExporter(stats)

	expected := `
# HELP neurograph_arbiter_decisions_total Decisions taken, by path.
# TYPE neurograph_arbiter_decisions_total counter
neurograph_arbiter_decisions_total{path="failsafe"} 1
neurograph_arbiter_decisions_total{path="reasoning"} 0
neurograph_arbiter_decisions_total{path="reflex"} 0
`
	if err := testutil.CollectAndCompare(exporter, strings.NewReader(expected),
		"neurograph_arbiter_decisions_total"); err != nil {
		t.Fatalf("collect: %v", err)
	}
}

func TestCollectEmitsAllSeries(t *testing.T) {
	stats := decideOnce(t, cannedProvider{dist: arbiter.ActionDistribution{Weights: []float64{1, 2}}})
	exporter := NewExporter(stats)

	// 3 decision series + 5 plain counters + 4 averages + 2 derived gauges.
	if n := testutil.CollectAndCount(exporter); n != 14 {
		t.Fatalf("collected %d series, want 14", n)
	}
}

func TestHandlerServesScrape(t *testing.T) {
	stats := decideOnce(t, cannedProvider{dist: arbiter.ActionDistribution{Weights: []float64{1}}})

	srv := httptest.NewServer(Handler(stats))
	defer srv.Close()

	resp, err := http.Get(srv.URL)
	if err != nil {
		t.Fatalf("scrape: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}

	buf := new(strings.Builder)
	if _, err := io.Copy(buf, resp.Body); err != nil {
		t.Fatalf("read body: %v", err)
	}
	body := buf.String()
	for _, name := range []string{
		"neurograph_arbiter_decisions_total",
		"neurograph_arbiter_reflex_usage_percent",
		"neurograph_arbiter_speedup_factor",
	} {
		if !strings.Contains(body, name) {
			t.Fatalf("scrape output missing %s", name)
		}
	}
}
