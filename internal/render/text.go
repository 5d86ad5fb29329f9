package render

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/dshills/shipshape/internal/condition"
	"github.com/dshills/shipshape/internal/report"
	"github.com/dshills/shipshape/internal/rating"
)

var (
	titleStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("69"))
	labelStyle  = lipgloss.NewStyle().Bold(true)
	mutedStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
	footerStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("241")).Italic(true)
	pageStyle   = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("240")).
			Padding(0, 1)
)

var conditionColors = map[condition.Condition]lipgloss.Color{
	condition.FireHazard: lipgloss.Color("196"),
	condition.TripFall:   lipgloss.Color("208"),
	condition.Rust:       lipgloss.Color("130"),
	condition.Attention:  lipgloss.Color("220"),
	condition.Defect:     lipgloss.Color("203"),
}

var ratingColors = map[string]lipgloss.Color{
	rating.Excellent:    lipgloss.Color("46"),
	rating.Good:         lipgloss.Color("82"),
	rating.Satisfactory: lipgloss.Color("190"),
	rating.Fair:         lipgloss.Color("220"),
	rating.Poor:         lipgloss.Color("196"),
}

// Text renders a terminal preview of the report: one bordered box per page.
// Photos are listed by id.
func Text(r report.Report) string {
	boxes := make([]string, 0, len(r.Pages))
	for _, p := range r.Pages {
		boxes = append(boxes, pageStyle.Render(textPage(r, p)))
	}
	return lipgloss.JoinVertical(lipgloss.Left, boxes...) + "\n"
}

func textPage(r report.Report, p report.Page) string {
	lines := []string{titleStyle.Render(p.Title)}
	if p.Subtitle != "" {
		lines = append(lines, mutedStyle.Render(p.Subtitle))
	}
	for _, k := range p.Kinds {
		lines = append(lines, textSection(r, p, k)...)
	}
	lines = append(lines, footerStyle.Render(p.Footer))
	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}

func textSection(r report.Report, p report.Page, k report.Kind) []string {
	switch k {
	case report.KindCover, report.KindOverallRating:
		if p.Rating == nil {
			return nil
		}
		out := []string{labeled("Rating", ratingBadge(*p.Rating))}
		if p.Counts != nil {
			out = append(out, labeled("Findings", fmt.Sprintf("%d", p.Counts.Total)))
		}
		return out
	case report.KindExecutiveSummary:
		return []string{labelStyle.Render("Executive summary"), r.Narrative.Summary}
	case report.KindFindingsImpact:
		var out []string
		if p.Impact != nil {
			for _, s := range p.Impact.Statements {
				out = append(out, "- "+s)
			}
		}
		for _, f := range p.Findings {
			out = append(out, fmt.Sprintf("  %s %s", conditionBadge(f.Condition), f.Area))
		}
		return out
	case report.KindDefectsGallery, report.KindLocationGallery, report.KindAppendix:
		if len(p.Cells) == 0 {
			return []string{mutedStyle.Render("(no photographs)")}
		}
		out := make([]string, 0, len(p.Cells))
		for _, c := range p.Cells {
			id := c.PhotoID
			if c.Missing {
				id = mutedStyle.Render(Missing)
			}
			line := fmt.Sprintf("%s %s  %s", conditionBadge(c.Caption.Condition), c.Caption.Location, id)
			if c.Caption.SeveritySuffix != "" {
				line += mutedStyle.Render(" (" + c.Caption.SeveritySuffix + ")")
			}
			out = append(out, line)
		}
		return out
	}
	return nil
}

func labeled(label, value string) string {
	return labelStyle.Render(label+":") + " " + value
}

func ratingBadge(r rating.Result) string {
	text := r.Label
	if s := r.ScoreText(); s != "" {
		text = fmt.Sprintf("%s (%s)", r.Label, s)
	}
	if c, ok := ratingColors[r.Label]; ok {
		return lipgloss.NewStyle().Bold(true).Foreground(c).Render(text)
	}
	return text
}

func conditionBadge(c condition.Condition) string {
	label := "[" + strings.ToUpper(condition.Label(c)) + "]"
	if col, ok := conditionColors[c]; ok {
		return lipgloss.NewStyle().Foreground(col).Render(label)
	}
	return label
}
