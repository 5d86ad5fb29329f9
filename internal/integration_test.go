package internal

import (
	"context"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/dshills/shipshape/internal/findings"
	"github.com/dshills/shipshape/internal/narrative"
	"github.com/dshills/shipshape/internal/report"
)

// skipUnlessIntegration skips the test unless SHIPSHAPE_INTEGRATION=1.
func skipUnlessIntegration(t *testing.T) {
	t.Helper()
	if os.Getenv("SHIPSHAPE_INTEGRATION") != "1" {
		t.Skip("skipping integration test (set SHIPSHAPE_INTEGRATION=1 to run)")
	}
}

// runNarrative builds the sample report through a live narrator.
func runNarrative(t *testing.T, opts narrative.Options) report.Report {
	t.Helper()
	n, err := narrative.Resolve(opts)
	if err != nil {
		t.Fatalf("resolve narrator: %v", err)
	}
	if n == nil {
		t.Fatal("resolve returned no narrator")
	}

	b, meta := loadSample(t)
	ctx, cancel := context.WithTimeout(context.Background(), 180*time.Second)
	defer cancel()

	r := report.Build(ctx, b.Result.Images, findings.Overrides{}, meta, report.Options{
		Narrator: n,
		Scrub:    true,
		Log:      zerolog.New(zerolog.NewTestWriter(t)),
	})
	if r.Narrative.Source != narrative.SourceService {
		t.Fatalf("narrative source = %s (narrator failed, see log)", r.Narrative.Source)
	}
	if strings.TrimSpace(r.Narrative.Summary) == "" {
		t.Error("empty summary")
	}
	t.Logf("Rating: %s | Summary: %s", r.Narrative.OverallRating, r.Narrative.Summary)

	// The narrator never changes the computed rating.
	if r.Rating.Score == nil || *r.Rating.Score != 66 {
		t.Errorf("rating = %+v", r.Rating)
	}
	return r
}

func TestIntegrationAnthropic(t *testing.T) {
	skipUnlessIntegration(t)
	t.Parallel()
	if os.Getenv("ANTHROPIC_API_KEY") == "" {
		t.Skip("ANTHROPIC_API_KEY not set")
	}
	runNarrative(t, narrative.Options{
		Provider: narrative.ProviderAnthropic,
		Model:    "anthropic:claude-sonnet-4-6",
		Timeout:  120 * time.Second,
		Settings: narrative.Settings{Temperature: 0.2, MaxTokens: 2048},
	})
}

func TestIntegrationOpenAI(t *testing.T) {
	skipUnlessIntegration(t)
	t.Parallel()
	if os.Getenv("OPENAI_API_KEY") == "" {
		t.Skip("OPENAI_API_KEY not set")
	}
	runNarrative(t, narrative.Options{
		Provider: narrative.ProviderOpenAI,
		Model:    "openai:gpt-5.2",
		Timeout:  120 * time.Second,
		Settings: narrative.Settings{Temperature: 0.2, MaxTokens: 2048},
	})
}

func TestIntegrationAutoDetect(t *testing.T) {
	skipUnlessIntegration(t)
	t.Parallel()
	if os.Getenv("ANTHROPIC_API_KEY") == "" && os.Getenv("OPENAI_API_KEY") == "" {
		t.Skip("no API key set")
	}
	r := runNarrative(t, narrative.Options{
		Provider: narrative.ProviderAuto,
		Timeout:  120 * time.Second,
		Settings: narrative.Settings{Temperature: 0.2, MaxTokens: 2048},
	})

	// The live summary lands on the executive summary page.
	var found bool
	for _, p := range r.Pages {
		if p.Has(report.KindExecutiveSummary) {
			found = true
		}
	}
	if !found {
		t.Error("no executive summary page")
	}
}

func TestIntegrationService(t *testing.T) {
	skipUnlessIntegration(t)
	endpoint := os.Getenv("SHIPSHAPE_NARRATIVE_ENDPOINT")
	if endpoint == "" {
		t.Skip("SHIPSHAPE_NARRATIVE_ENDPOINT not set")
	}
	runNarrative(t, narrative.Options{
		Provider: narrative.ProviderService,
		Endpoint: endpoint,
		Timeout:  120 * time.Second,
	})
}
