package telemetry

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/pharmassist/synthdata/internal/domain/simulation"
)

var _ simulation.Observer = (*Provider)(nil)

func TestProvider_GeneratorMetrics(t *testing.T) {
	p := NewProvider(false)
	day := time.Date(2025, 1, 5, 0, 0, 0, 0, time.UTC)
	p.OnDay(day, false, 0)
	p.OnDay(day.AddDate(0, 0, 1), true, 180)
	p.OnDay(day.AddDate(0, 0, 2), true, 220)
	p.OnDay(day.AddDate(0, 0, 3), true, 0)
	for i := 0; i < 3; i++ {
		p.OnRecord("visits")
	}
	p.OnRecord("events")

	if got := testutil.ToFloat64(p.days.WithLabelValues("closed")); got != 1 {
		t.Errorf("closed days = %v", got)
	}
	if got := testutil.ToFloat64(p.days.WithLabelValues("open")); got != 3 {
		t.Errorf("open days = %v", got)
	}
	if got := testutil.ToFloat64(p.records.WithLabelValues("visits")); got != 3 {
		t.Errorf("visit records = %v", got)
	}
	if got := testutil.CollectAndCount(p.visitsPerDay); got != 1 {
		t.Errorf("histogram series = %d", got)
	}

	p.RecordRun("compact", 2*time.Second, nil)
	p.RecordRun("compact", time.Second, errors.New("boom"))
	if got := testutil.ToFloat64(p.runs.WithLabelValues("compact", "error")); got != 1 {
		t.Errorf("failed runs = %v", got)
	}
}

func TestProvider_GeneratorObservesRun(t *testing.T) {
	p := NewProvider(false)
	w := discard{}
	opts := simulation.Options{Seed: 42, Pharmacy: "paris15", Year: 2025, Mode: simulation.ModeCompact}
	if _, err := simulation.Generate(t.Context(), opts, w, simulation.WithObserver(p)); err != nil {
		t.Fatal(err)
	}
	if got := testutil.ToFloat64(p.records.WithLabelValues("visits")); got != 60 {
		t.Errorf("visit records = %v", got)
	}
	if got := testutil.ToFloat64(p.records.WithLabelValues("patients")); got != 20 {
		t.Errorf("patient records = %v", got)
	}
}

func TestProvider_QuietOpenDaysStayOpen(t *testing.T) {
	params, err := simulation.Preset("paris15")
	if err != nil {
		t.Fatal(err)
	}
	params.MuBase = 0.05
	params.InitialPatients = 5

	p := NewProvider(false)
	opts := simulation.Options{Seed: 9, Pharmacy: "paris15", Year: 2025, Mode: simulation.ModeFull}
	sum, err := simulation.Generate(t.Context(), opts, discard{}, simulation.WithParameters(params), simulation.WithObserver(p))
	if err != nil {
		t.Fatal(err)
	}
	if got := testutil.ToFloat64(p.days.WithLabelValues("open")); got != float64(sum.OpenDays) {
		t.Errorf("open days metric = %v, summary says %d", got, sum.OpenDays)
	}
	if got := testutil.ToFloat64(p.days.WithLabelValues("closed")); got != float64(365-sum.OpenDays) {
		t.Errorf("closed days metric = %v, want %d", got, 365-sum.OpenDays)
	}

	path := filepath.Join(t.TempDir(), "metrics.prom")
	if err := p.WriteTextfile(path); err != nil {
		t.Fatal(err)
	}
	body, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if want := fmt.Sprintf("synthdata_visits_per_day_count %d", sum.OpenDays); !strings.Contains(string(body), want) {
		t.Errorf("textfile missing %q", want)
	}
}

type discard struct{}

func (discard) Append(string, any) error { return nil }

func TestProvider_HTTPMetricsAndExposition(t *testing.T) {
	p := NewProvider(true)
	e := echo.New()
	e.Use(p.MetricsMiddleware())
	e.GET("/health", func(c echo.Context) error { return c.String(http.StatusOK, "ok") })
	e.GET("/metrics", p.Handler())

	for i := 0; i < 2; i++ {
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/nope", nil))
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status %d", rec.Code)
	}

	if got := testutil.ToFloat64(p.httpRequests.WithLabelValues("GET", "/health", "200")); got != 2 {
		t.Errorf("health requests = %v", got)
	}

	rec = httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	body := rec.Body.String()
	for _, want := range []string{`http_requests_total{method="GET",route="/health",status_code="200"} 2`, "go_goroutines", "synthdata_case_bundles_total 0"} {
		if !strings.Contains(body, want) {
			t.Errorf("exposition missing %q", want)
		}
	}
}
