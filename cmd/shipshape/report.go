package main

import (
	"encoding/json"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/dshills/shipshape/internal/assets"
	"github.com/dshills/shipshape/internal/findings"
	"github.com/dshills/shipshape/internal/inspection"
	"github.com/dshills/shipshape/internal/narrative"
	"github.com/dshills/shipshape/internal/render"
	"github.com/dshills/shipshape/internal/report"
	"github.com/dshills/shipshape/internal/schema"
	"github.com/dshills/shipshape/internal/store"
)

type reportFlags struct {
	format      string
	out         string
	failBelow   int
	checkAssets bool
}

func newReportCmd(a *app) *cobra.Command {
	f := &reportFlags{}

	cmd := &cobra.Command{
		Use:   "report <batch.json>",
		Short: "Build the paginated inspection report for a batch",
		Args:  cobra.ExactArgs(1),
	}
	cmd.RunE = a.run(func(cmd *cobra.Command, args []string) error {
		return runReport(cmd, a, args[0], f)
	})

	flags := cmd.Flags()
	flags.StringVar(&f.format, "format", "md", "Output format: md, json or text")
	flags.StringVar(&f.out, "out", "", "Output file path (default: stdout)")
	flags.IntVar(&f.failBelow, "fail-below", 0, "Exit 2 if the rating score is below this value")
	flags.BoolVar(&f.checkAssets, "check-assets", false, "Wait for every page's photos to load and mark broken ones")
	flags.String("asset-base", "", "Base URL or directory photos are served from (default: the batch file's directory)")
	flags.Duration("check-timeout", 0, "Per-asset timeout for --check-assets")
	flags.String("narrative", narrative.ProviderNone, "Executive summary source: none, auto, http, anthropic or openai")
	flags.String("endpoint", "", "Summarization service URL for --narrative http")
	flags.String("model", "", "Model id for hosted providers")
	flags.Duration("timeout", 0, "Narrative request timeout")
	flags.Bool("redact", true, "Scrub contact details and crew names before sending text to a narrative provider")
	return cmd
}

func loadBatch(a *app, path string) (*inspection.Batch, error) {
	b, err := inspection.Load(path)
	if err != nil {
		return nil, exitError(exitInput, "failed to load batch: %v", err)
	}
	logProblems(a, b.Problems)
	a.log.Debug().Str("path", path).Str("hash", b.Hash).Int("images", len(b.Result.Images)).Msg("batch loaded")
	return b, nil
}

func logProblems(a *app, problems []schema.ValidationError) {
	for _, p := range problems {
		a.log.Warn().Str("field", p.Path).Msg(p.Message)
	}
}

func runReport(cmd *cobra.Command, a *app, batchPath string, f *reportFlags) error {
	switch f.format {
	case "md", "json", "text":
	default:
		return exitError(exitInput, "unknown format: %s", f.format)
	}

	b, err := loadBatch(a, batchPath)
	if err != nil {
		return err
	}
	if err := a.openStore(); err != nil {
		return err
	}
	ctx := cmd.Context()
	ov := store.LoadOverrides(ctx, a.stores.Overrides, a.reportID(), a.log)
	meta := store.LoadMeta(ctx, a.stores.Meta, a.reportID(), a.log)

	s := a.settings
	narrator, err := narrative.Resolve(s.NarrativeOptions())
	if err != nil {
		a.log.Warn().Err(err).Msg("narrative provider unavailable, using heuristic summary")
		narrator = nil
	}

	r := report.Build(ctx, b.Result.Images, ov, meta, report.Options{
		Resolve:  resolver(a, batchPath, b.Result.Images),
		Narrator: narrator,
		Scrub:    s.Narrative.Redact,
		Log:      a.log,
	})

	if f.checkAssets {
		checker := assets.HTTPChecker{Timeout: s.Assets.CheckTimeout}
		n := report.CheckAssets(ctx, &r, checker, s.Assets.CheckLimit, a.log)
		a.log.Debug().Int("broken", n).Msg("asset check finished")
	}

	var data []byte
	switch f.format {
	case "json":
		data, err = render.JSON(r)
		if err != nil {
			return exitError(exitOutput, "%v", err)
		}
	case "md":
		data = []byte(render.Markdown(r))
	case "text":
		data = []byte(render.Text(r))
	}
	if err := a.writeOutput(f.out, data); err != nil {
		return err
	}

	if f.failBelow > 0 && r.Rating.Score != nil && *r.Rating.Score < f.failBelow {
		return exitError(exitThreshold, "rating %d (%s) is below %d", *r.Rating.Score, r.Rating.Label, f.failBelow)
	}
	return nil
}

// resolver maps image ids under the configured asset base, or next to the
// batch file when none is set. Only ids present in the batch resolve.
func resolver(a *app, batchPath string, images []inspection.ImageRecord) assets.Resolver {
	base := a.settings.Assets.BaseURL
	if base == "" {
		base = filepath.Dir(batchPath)
	}
	known := make(map[string]bool, len(images))
	for _, img := range images {
		known[img.ID] = true
	}
	return assets.Cached(assets.Known(assets.BaseURL(base), known), a.settings.Assets.CacheTTL)
}

type findingsFlags struct {
	format string
	all    bool
}

func newFindingsCmd(a *app) *cobra.Command {
	f := &findingsFlags{}

	cmd := &cobra.Command{
		Use:   "findings <batch.json>",
		Short: "List the defects and non-conformities for a batch",
		Args:  cobra.ExactArgs(1),
	}
	cmd.RunE = a.run(func(cmd *cobra.Command, args []string) error {
		return runFindings(cmd, a, args[0], f)
	})
	cmd.Flags().StringVar(&f.format, "format", "md", "Output format: md or json")
	cmd.Flags().BoolVar(&f.all, "all", false, "Include hidden findings")
	return cmd
}

func runFindings(cmd *cobra.Command, a *app, batchPath string, f *findingsFlags) error {
	if f.format != "md" && f.format != "json" {
		return exitError(exitInput, "unknown format: %s", f.format)
	}
	b, err := loadBatch(a, batchPath)
	if err != nil {
		return err
	}
	if err := a.openStore(); err != nil {
		return err
	}
	ov := store.LoadOverrides(cmd.Context(), a.stores.Overrides, a.reportID(), a.log)

	fs := findings.Build(b.Result.Images, ov)
	if f.all {
		fs = findings.BuildAll(b.Result.Images, ov)
	}
	counts := findings.Rollup(fs)

	if f.format == "md" {
		return a.writeOutput("", []byte(render.FindingsTable(fs, counts)))
	}
	data, err := json.MarshalIndent(struct {
		Findings []findings.Finding `json:"findings"`
		Counts   findings.Counts    `json:"counts"`
	}{fs, counts}, "", "  ")
	if err != nil {
		return exitError(exitOutput, "failed to marshal findings: %v", err)
	}
	return a.writeOutput("", append(data, '\n'))
}
