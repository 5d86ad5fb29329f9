// Package narrative produces the executive summary text, either from an
// external summarization service or from a local heuristic.
package narrative

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/rs/zerolog"

	"github.com/dshills/shipshape/internal/condition"
	"github.com/dshills/shipshape/internal/findings"
	"github.com/dshills/shipshape/internal/redact"
	"github.com/dshills/shipshape/internal/reportmeta"
)

// MaxHazards caps the findings sent with a request.
const MaxHazards = 40

// Sources recorded on an Outcome.
const (
	SourceService   = "service"
	SourceHeuristic = "heuristic"
	SourceManual    = "manual"
)

// Request is the summarization request body.
type Request struct {
	Meta    Particulars     `json:"meta"`
	Counts  findings.Counts `json:"counts"`
	Hazards []Hazard        `json:"hazards"`
}

// Particulars is the part of the report metadata sent for summarization.
// Personal names are never included.
type Particulars struct {
	Vessel       string   `json:"vessel,omitempty"`
	IMO          string   `json:"imo,omitempty"`
	Type         string   `json:"type,omitempty"`
	Flag         string   `json:"flag,omitempty"`
	YearBuilt    string   `json:"year_built,omitempty"`
	Class        string   `json:"class,omitempty"`
	Date         string   `json:"date,omitempty"`
	Port         string   `json:"port,omitempty"`
	NextPort     string   `json:"next_port,omitempty"`
	AverageScore *float64 `json:"average_score,omitempty"`
}

// ParticularsOf extracts the shareable particulars from m.
func ParticularsOf(m reportmeta.Meta) Particulars {
	t := strings.TrimSpace
	return Particulars{
		Vessel:       t(m.Vessel.Name),
		IMO:          t(m.Vessel.IMO),
		Type:         t(m.Vessel.Type),
		Flag:         t(m.Vessel.Flag),
		YearBuilt:    t(m.Vessel.YearBuilt),
		Class:        t(m.Vessel.Class),
		Date:         t(m.Inspection.Date),
		Port:         t(m.Inspection.Port),
		NextPort:     t(m.Movement.NextPort),
		AverageScore: m.AverageScore,
	}
}

// Hazard is one finding as sent for summarization.
type Hazard struct {
	Area            string   `json:"area"`
	Condition       string   `json:"condition"`
	Severity        string   `json:"severity,omitempty"`
	Priority        string   `json:"priority,omitempty"`
	Text            string   `json:"text,omitempty"`
	Recommendations []string `json:"recommendations,omitempty"`
}

// Response is the optional summarization result. Every field may be absent.
type Response struct {
	Summary       string   `json:"summary,omitempty"`
	OverallRating string   `json:"overallRating,omitempty"`
	Score         *float64 `json:"score,omitempty"`
}

// Outcome is the summary used for the report and where it came from.
type Outcome struct {
	Response
	Source string `json:"source"`
}

// Narrator turns a request into a summary.
type Narrator interface {
	Narrate(ctx context.Context, req Request) (Response, error)
}

// NewRequest builds a request from the visible findings. When scrub is set,
// free text is passed through redact and the people named in meta are
// removed.
func NewRequest(meta reportmeta.Meta, fs []findings.Finding, scrub bool) Request {
	clean := func(s string) string { return s }
	if scrub {
		people := []string{meta.Inspection.Inspector, meta.Crew.Master, meta.Crew.ChiefEngineer}
		clean = func(s string) string { return redact.Names(s, people...) }
	}

	visible := findings.Visible(fs)
	req := Request{
		Meta:    ParticularsOf(meta),
		Counts:  findings.Rollup(visible),
		Hazards: make([]Hazard, 0, min(len(visible), MaxHazards)),
	}
	for _, f := range visible {
		if len(req.Hazards) == MaxHazards {
			break
		}
		recs := make([]string, len(f.Recommendations))
		for i, r := range f.Recommendations {
			recs[i] = clean(r)
		}
		req.Hazards = append(req.Hazards, Hazard{
			Area:            f.Area,
			Condition:       string(f.Condition),
			Severity:        string(f.Severity),
			Priority:        string(f.Priority),
			Text:            clean(f.Text()),
			Recommendations: recs,
		})
	}
	return req
}

// Summarize asks n for a summary and falls back to Heuristic when n is nil,
// fails, or returns nothing usable. It never returns an error; failures are
// logged.
func Summarize(ctx context.Context, n Narrator, req Request, log zerolog.Logger) Outcome {
	if n == nil {
		return Outcome{Response: Response{Summary: Heuristic(req)}, Source: SourceHeuristic}
	}
	resp, err := n.Narrate(ctx, req)
	if err == nil && strings.TrimSpace(resp.Summary) == "" {
		err = fmt.Errorf("narrative: empty summary")
	}
	if err != nil {
		log.Warn().Err(err).Msg("narrative service failed, using heuristic summary")
		return Outcome{Response: Response{Summary: Heuristic(req)}, Source: SourceHeuristic}
	}
	return Outcome{Response: resp, Source: SourceService}
}

// Heuristic builds a deterministic summary from the counts and the three
// areas with the most findings.
func Heuristic(req Request) string {
	subject := "The vessel"
	if req.Meta.Vessel != "" {
		subject = req.Meta.Vessel
	}
	c := req.Counts
	if c.Total == 0 {
		return subject + " was found in good order; no findings requiring attention were recorded."
	}

	var parts []string
	add := func(n int, one, many string) {
		switch {
		case n == 1:
			parts = append(parts, "1 "+one)
		case n > 1:
			parts = append(parts, fmt.Sprintf("%d %s", n, many))
		}
	}
	add(c.FireHazard, "fire hazard", "fire hazards")
	add(c.TripFall, "trip / fall hazard", "trip / fall hazards")
	add(c.Rust, "rust finding", "rust findings")
	add(c.Attention, "item needing attention", "items needing attention")
	add(c.Defect, "defect", "defects")
	add(c.Other, "other finding", "other findings")

	noun := "findings"
	if c.Total == 1 {
		noun = "finding"
	}
	var b strings.Builder
	fmt.Fprintf(&b, "%s has %d %s: %s.", subject, c.Total, noun, joinList(parts))
	if top := topAreas(req.Hazards, 3); len(top) > 0 {
		fmt.Fprintf(&b, " Most affected areas: %s.", strings.Join(top, ", "))
	}
	if c.FireHazard+c.TripFall > 0 {
		b.WriteString(" Safety hazards should be rectified before departure.")
	}
	return b.String()
}

func joinList(parts []string) string {
	switch len(parts) {
	case 0:
		return ""
	case 1:
		return parts[0]
	default:
		return strings.Join(parts[:len(parts)-1], ", ") + " and " + parts[len(parts)-1]
	}
}

// topAreas ranks areas by finding count; ties keep first-seen order.
func topAreas(hs []Hazard, n int) []string {
	type area struct {
		name  string
		count int
	}
	var areas []area
	index := map[string]int{}
	for _, h := range hs {
		name := strings.TrimSpace(h.Area)
		if name == "" || name == findings.NoArea {
			continue
		}
		i, ok := index[name]
		if !ok {
			i = len(areas)
			index[name] = i
			areas = append(areas, area{name: name})
		}
		areas[i].count++
	}
	sort.SliceStable(areas, func(i, j int) bool { return areas[i].count > areas[j].count })
	var out []string
	for _, a := range areas[:min(n, len(areas))] {
		out = append(out, fmt.Sprintf("%s (%d)", a.name, a.count))
	}
	return out
}

// ConditionLabel is the display label for a hazard's condition.
func (h Hazard) ConditionLabel() string {
	return condition.Label(condition.Condition(h.Condition))
}
