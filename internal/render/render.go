// Package render produces Markdown, JSON and terminal output from a report.
package render

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/dshills/shipshape/internal/findings"
	"github.com/dshills/shipshape/internal/report"
	"github.com/dshills/shipshape/internal/reportmeta"
)

// Missing is printed in place of a photo that could not be resolved.
const Missing = "(photo unavailable)"

// Markdown renders the paginated report as Markdown, one section per page.
func Markdown(r report.Report) string {
	var b strings.Builder
	for i, p := range r.Pages {
		if i > 0 {
			b.WriteString("\n---\n\n")
		}
		fmt.Fprintf(&b, "# %s\n\n", p.Title)
		if p.Subtitle != "" {
			fmt.Fprintf(&b, "_%s_\n\n", p.Subtitle)
		}
		for _, k := range p.Kinds {
			renderSection(&b, r, p, k)
		}
		fmt.Fprintf(&b, "<sub>%s · %s</sub>\n", p.Header, p.Footer)
	}
	return b.String()
}

func renderSection(b *strings.Builder, r report.Report, p report.Page, k report.Kind) {
	m := r.Meta
	switch k {
	case report.KindCover:
		if p.Rating != nil {
			fmt.Fprintf(b, "**Overall rating:** %s", p.Rating.Label)
			if s := p.Rating.ScoreText(); s != "" {
				fmt.Fprintf(b, " (%s / 100)", s)
			}
			b.WriteString("\n\n")
		}
		if p.Counts != nil {
			renderCounts(b, *p.Counts)
		}
	case report.KindDisclaimer:
		fmt.Fprintf(b, "%s\n\n", m.Disclaimer)
	case report.KindDistribution:
		bullets(b, m.Distribution)
	case report.KindTerms:
		b.WriteString("| Term | Meaning |\n|---|---|\n")
		for _, t := range m.Terms {
			fmt.Fprintf(b, "| %s | %s |\n", cell(t.Abbrev), cell(t.Meaning))
		}
		b.WriteString("\n")
	case report.KindReferences:
		b.WriteString("## References\n\n")
		bullets(b, m.References)
	case report.KindParticulars:
		b.WriteString("## Vessel Particulars\n\n")
		table(b, particulars(m))
	case report.KindMovement:
		b.WriteString("## Movement\n\n")
		table(b, [][2]string{
			{"Last port", m.Movement.LastPort},
			{"Port of inspection", m.Inspection.Port},
			{"Next port", m.Movement.NextPort},
			{"ETA", m.Movement.ETA},
		})
	case report.KindCrew:
		b.WriteString("## Crew\n\n")
		table(b, [][2]string{
			{"Master", m.Crew.Master},
			{"Chief engineer", m.Crew.ChiefEngineer},
			{"Complement", m.Crew.Complement},
		})
	case report.KindExecutiveSummary:
		b.WriteString("## Executive Summary\n\n")
		fmt.Fprintf(b, "%s\n\n", r.Narrative.Summary)
	case report.KindOverallRating:
		b.WriteString("## Overall Rating\n\n")
		if p.Rating != nil {
			fmt.Fprintf(b, "**%s**", p.Rating.Label)
			if s := p.Rating.ScoreText(); s != "" {
				fmt.Fprintf(b, " (%s / 100)", s)
			}
			b.WriteString("\n\n")
			if p.Rating.IsOverride {
				fmt.Fprintf(b, "Set manually: %s\n\n", p.Rating.Rationale)
			} else {
				fmt.Fprintf(b, "%d critical, %d high severity findings\n\n", p.Rating.CriticalCount, p.Rating.HighCount)
			}
		}
	case report.KindFindingsImpact:
		b.WriteString("## Commercial Impact\n\n")
		if p.Impact != nil {
			bullets(b, p.Impact.Statements)
		}
		if len(p.Findings) > 0 {
			b.WriteString("| # | Area | Condition | Severity | Priority | Recommendation |\n|---|---|---|---|---|---|\n")
			for i, f := range p.Findings {
				fmt.Fprintf(b, "| %d | %s | %s | %s | %s | %s |\n",
					i+1, cell(f.Area), f.Condition, f.Severity, f.Priority, cell(f.RecommendationText))
			}
			b.WriteString("\n")
		}
	case report.KindDefectsGallery, report.KindLocationGallery, report.KindAppendix:
		if len(p.Cells) == 0 {
			b.WriteString("No photographs.\n\n")
		}
		for _, c := range p.Cells {
			renderCell(b, c)
		}
	}
}

func renderCounts(b *strings.Builder, c findings.Counts) {
	fmt.Fprintf(b, "**Findings:** %d total, %d fire hazard, %d trip / fall, %d rust, %d attention\n\n",
		c.Total, c.FireHazard, c.TripFall, c.Rust, c.Attention)
}

func renderCell(b *strings.Builder, c report.PhotoCell) {
	if c.Missing {
		fmt.Fprintf(b, "%s\n\n", Missing)
	} else {
		fmt.Fprintf(b, "![%s](%s)\n\n", c.PhotoID, c.URL)
	}
	fmt.Fprintf(b, "**%s**", c.Caption.ConditionLabel)
	if c.Caption.SeveritySuffix != "" {
		fmt.Fprintf(b, " (%s)", c.Caption.SeveritySuffix)
	}
	fmt.Fprintf(b, " · %s\n\n", c.Caption.Location)
	if c.Caption.Notes != "" {
		fmt.Fprintf(b, "%s\n\n", c.Caption.Notes)
	}
	bullets(b, c.Caption.Recommendations)
	if c.Caption.MoreRecommendations > 0 {
		fmt.Fprintf(b, "_+%d more_\n\n", c.Caption.MoreRecommendations)
	}
}

func particulars(m reportmeta.Meta) [][2]string {
	return [][2]string{
		{"Vessel", m.Vessel.Name},
		{"IMO", m.Vessel.IMO},
		{"Flag", m.Vessel.Flag},
		{"Type", m.Vessel.Type},
		{"Gross tonnage", m.Vessel.GrossTonnage},
		{"Year built", m.Vessel.YearBuilt},
		{"Class", m.Vessel.Class},
		{"Owner", m.Vessel.Owner},
		{"Manager", m.Vessel.Manager},
		{"Inspector", m.Inspection.Inspector},
		{"Date", m.Inspection.Date},
	}
}

func bullets(b *strings.Builder, items []string) {
	if len(items) == 0 {
		return
	}
	for _, s := range items {
		fmt.Fprintf(b, "- %s\n", s)
	}
	b.WriteString("\n")
}

func table(b *strings.Builder, rows [][2]string) {
	b.WriteString("| | |\n|---|---|\n")
	for _, r := range rows {
		fmt.Fprintf(b, "| %s | %s |\n", r[0], cell(r[1]))
	}
	b.WriteString("\n")
}

// cell keeps a value on one table row.
func cell(s string) string {
	s = strings.ReplaceAll(s, "\n", " ")
	return strings.ReplaceAll(s, "|", "\\|")
}

// JSON renders the report as indented JSON.
func JSON(r report.Report) ([]byte, error) {
	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("render.JSON: %w", err)
	}
	return append(data, '\n'), nil
}

// FindingsTable renders the findings list on its own, for the findings
// command.
func FindingsTable(fs []findings.Finding, c findings.Counts) string {
	var b strings.Builder
	b.WriteString("| # | ID | Area | Condition | Severity | Priority | Notes |\n|---|---|---|---|---|---|---|\n")
	for _, f := range fs {
		id := f.ID
		if f.Hidden {
			id += " (hidden)"
		}
		fmt.Fprintf(&b, "| %d | %s | %s | %s | %s | %s | %s |\n",
			f.Index+1, id, cell(f.Area), f.Condition, f.Severity, f.Priority, cell(f.Text()))
	}
	b.WriteString("\n")
	renderCounts(&b, c)
	return b.String()
}
