package report

import (
	"context"
	"strings"

	"github.com/rs/zerolog"

	"github.com/dshills/shipshape/internal/assets"
	"github.com/dshills/shipshape/internal/findings"
	"github.com/dshills/shipshape/internal/gallery"
	"github.com/dshills/shipshape/internal/impact"
	"github.com/dshills/shipshape/internal/inspection"
	"github.com/dshills/shipshape/internal/narrative"
	"github.com/dshills/shipshape/internal/rating"
	"github.com/dshills/shipshape/internal/reportmeta"
	"github.com/dshills/shipshape/internal/schema"
)

// Report is the fully derived document.
type Report struct {
	Meta      reportmeta.Meta          `json:"meta"`
	Findings  []findings.Finding       `json:"findings"`
	Counts    findings.Counts          `json:"counts"`
	Rating    rating.Result            `json:"rating"`
	Impact    impact.Summary           `json:"impact"`
	Groups    []gallery.Group          `json:"-"`
	Narrative narrative.Outcome        `json:"narrative"`
	Pages     []Page                   `json:"pages"`
	Warnings  []schema.ValidationError `json:"warnings,omitempty"`
}

// Options control Build.
type Options struct {
	Resolve  assets.Resolver
	Narrator narrative.Narrator
	// Scrub removes contact details and named people from text sent to the
	// narrator.
	Scrub bool
	Log   zerolog.Logger
}

// Build derives findings, rating, impact and the narrative, then paginates.
// It never fails: a narrator error falls back to the heuristic summary and
// unresolvable photos become placeholders.
func Build(ctx context.Context, images []inspection.ImageRecord, ov findings.Overrides, meta reportmeta.Meta, opts Options) Report {
	log := opts.Log
	fs := findings.Build(images, ov)

	r := Report{
		Meta:     meta,
		Findings: fs,
		Counts:   findings.Rollup(fs),
		Rating:   rating.Compute(meta.AverageScore, fs, meta.RatingOverride),
		Impact:   impact.Summarize(fs),
		Groups:   gallery.ByLocation(images),
		Warnings: reportmeta.Validate(meta),
	}
	for _, w := range r.Warnings {
		log.Warn().Str("field", w.Path).Msg(w.Message)
	}

	if s := strings.TrimSpace(meta.ExecutiveSummary); s != "" {
		r.Narrative = narrative.Outcome{Response: narrative.Response{Summary: s}, Source: narrative.SourceManual}
	} else {
		req := narrative.NewRequest(meta, fs, opts.Scrub)
		r.Narrative = narrative.Summarize(ctx, opts.Narrator, req, log)
	}

	r.Pages = Paginate(Input{
		Images:   images,
		Findings: fs,
		Groups:   r.Groups,
		Counts:   r.Counts,
		Rating:   r.Rating,
		Impact:   r.Impact,
		Meta:     meta,
		Resolve:  opts.Resolve,
	})

	missing := 0
	for _, p := range r.Pages {
		for _, c := range p.Cells {
			if c.Missing && c.PhotoID != "" {
				missing++
				log.Debug().Int("page", p.Number).Str("photo", c.PhotoID).Msg("unresolved photo reference")
			}
		}
	}
	if missing > 0 {
		log.Warn().Int("cells", missing).Msg("photo cells rendered as placeholders")
	}
	log.Info().
		Int("images", len(images)).
		Int("findings", len(fs)).
		Int("pages", len(r.Pages)).
		Str("rating", r.Rating.Label).
		Str("narrative", r.Narrative.Source).
		Msg("report built")
	return r
}

// CheckAssets waits for the photo assets of each page, at most limit checks
// in flight per page. Broken assets are recorded on the page and their cells
// marked missing; they never fail the report.
func CheckAssets(ctx context.Context, r *Report, c assets.Checker, limit int, log zerolog.Logger) int {
	broken := 0
	for i := range r.Pages {
		p := &r.Pages[i]
		refs := make([]string, 0, len(p.Cells))
		for _, cell := range p.Cells {
			if !cell.Missing {
				refs = append(refs, cell.URL)
			}
		}
		if len(refs) == 0 {
			continue
		}
		res := assets.AwaitReady(ctx, c, refs, limit)
		if res.Ready() {
			continue
		}
		p.Broken = res.Broken
		bad := make(map[string]bool, len(res.Broken))
		for _, u := range res.Broken {
			bad[u] = true
		}
		for j := range p.Cells {
			if bad[p.Cells[j].URL] {
				p.Cells[j].Missing = true
				broken++
			}
		}
		log.Warn().Int("page", p.Number).Strs("assets", res.Broken).Msg("page assets failed to load")
	}
	return broken
}
