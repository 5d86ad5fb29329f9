package render

import (
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/rs/zerolog"

	"github.com/dshills/shipshape/internal/assets"
	"github.com/dshills/shipshape/internal/condition"
	"github.com/dshills/shipshape/internal/findings"
	"github.com/dshills/shipshape/internal/inspection"
	"github.com/dshills/shipshape/internal/report"
	"github.com/dshills/shipshape/internal/reportmeta"
)

func sampleReport() report.Report {
	meta := reportmeta.Default()
	meta.Vessel.Name = "MV Northern Star"
	meta.Vessel.IMO = "9074729"
	meta.Crew.Master = "Capt. A. Berg"
	meta.Inspection.ReportNumber = "NS-042"

	images := []inspection.ImageRecord{
		{
			ID: "IMG_001.jpg", Location: "Engine Room", RawCondition: condition.FireHazard,
			Severity: condition.SeverityCritical, Comment: "Oil soaked rags near | exhaust",
			Recommendations: []string{"Remove rags", "Clean bilge", "Brief crew", "Inspect lagging", "Log in PMS"},
		},
		{ID: "IMG_002.jpg", Location: "Main Deck", RawCondition: condition.Rust},
		{ID: "IMG_003.jpg", Location: "Main Deck"},
	}
	return report.Build(context.Background(), images, findings.Overrides{}, meta, report.Options{
		Resolve: assets.Known(assets.BaseURL("https://cdn.example.com"), map[string]bool{"IMG_001.jpg": true, "IMG_003.jpg": true}),
		Log:     zerolog.Nop(),
	})
}

func TestMarkdown(t *testing.T) {
	md := Markdown(sampleReport())

	checks := []string{
		"# MV Northern Star",
		"# Disclaimer",
		"| PSC | Port State Control |",
		"## Vessel Particulars",
		"| IMO | 9074729 |",
		"| Master | Capt. A. Berg |",
		"## Executive Summary",
		"MV Northern Star has 2 findings",
		"**Overall rating:** Good (72 / 100)",
		"1 critical, 0 high severity findings",
		"1 critical finding may lead to detention",
		"![IMG_001.jpg](https://cdn.example.com/IMG_001.jpg)",
		"**Fire hazard** (critical severity) · Engine Room",
		"Oil soaked rags near | exhaust",
		"_+1 more_",
		"(photo unavailable)",
		"# Appendix: Photographs",
		"MV Northern Star | Report NS-042 · Page 1 of ",
	}
	for _, want := range checks {
		if !strings.Contains(md, want) {
			t.Errorf("markdown missing %q", want)
		}
	}
}

func TestMarkdownEmpty(t *testing.T) {
	r := report.Build(context.Background(), nil, findings.Overrides{}, reportmeta.Default(), report.Options{Log: zerolog.Nop()})
	md := Markdown(r)
	if !strings.Contains(md, "No photographs.") {
		t.Error("expected 'No photographs.' for an empty batch")
	}
	if !strings.Contains(md, "no commercial impact is expected") {
		t.Error("expected the no-impact statement")
	}
	if got := strings.Count(md, "\n---\n"); got != len(r.Pages)-1 {
		t.Errorf("page separators = %d, want %d", got, len(r.Pages)-1)
	}
}

func TestJSON(t *testing.T) {
	r := sampleReport()
	data, err := JSON(r)
	if err != nil {
		t.Fatal(err)
	}
	var out struct {
		Pages []struct {
			Kind   string `json:"kind"`
			Footer string `json:"footer"`
		} `json:"pages"`
		Rating struct {
			Label string `json:"label"`
		} `json:"rating"`
		Narrative struct {
			Source string `json:"source"`
		} `json:"narrative"`
	}
	if err := json.Unmarshal(data, &out); err != nil {
		t.Fatalf("output is not valid JSON: %v", err)
	}
	if len(out.Pages) != len(r.Pages) {
		t.Errorf("pages = %d, want %d", len(out.Pages), len(r.Pages))
	}
	if out.Pages[0].Kind != "cover" {
		t.Errorf("first page kind = %q", out.Pages[0].Kind)
	}
	if out.Rating.Label != "Good" {
		t.Errorf("rating label = %q", out.Rating.Label)
	}
	if out.Narrative.Source != "heuristic" {
		t.Errorf("narrative source = %q", out.Narrative.Source)
	}
}

func TestText(t *testing.T) {
	out := Text(sampleReport())
	for _, want := range []string{"MV Northern Star", "[FIRE HAZARD]", "Engine Room", "Appendix: Photographs", "Page 1 of"} {
		if !strings.Contains(out, want) {
			t.Errorf("text output missing %q", want)
		}
	}
}

func TestFindingsTable(t *testing.T) {
	fs := []findings.Finding{
		{ID: "IMG_001.jpg", Index: 0, Area: "Deck", Condition: condition.Rust, Comment: "Flaking"},
		{ID: "manual-1", Index: 1, Area: "Bridge", Condition: condition.Attention, Description: "Chart out of date", Hidden: true},
	}
	out := FindingsTable(fs, findings.Rollup(fs))
	for _, want := range []string{
		"| 1 | IMG_001.jpg | Deck | rust |",
		"| 2 | manual-1 (hidden) | Bridge | attention |",
		"Chart out of date",
		"**Findings:** 1 total",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("findings table missing %q", want)
		}
	}
}
