// Package rating computes the overall vessel score and label.
package rating

import (
	"math"
	"strconv"
	"strings"

	"github.com/dshills/shipshape/internal/findings"
)

// Labels produced by the formula.
const (
	Excellent = "Excellent"
	Good      = "Good"
	Fair      = "Fair"
	Poor      = "Poor"
)

// Satisfactory is offered only as a manual override label. Compute never
// produces it.
const Satisfactory = "Satisfactory"

// Score deductions and the seed used when no average score is supplied.
const (
	DefaultSeed      = 80
	CriticalPenalty  = 8
	HighPenalty      = 3
	fivePointCeiling = 5.5
)

// Result is the computed or overridden rating.
type Result struct {
	// Score is nil when the value is unrepresentable (a non-numeric manual score).
	Score         *int   `json:"score"`
	Label         string `json:"label"`
	CriticalCount int    `json:"critical_count"`
	HighCount     int    `json:"high_count"`
	IsOverride    bool   `json:"is_override"`
	Rationale     string `json:"override_rationale,omitempty"`
}

// ScoreText returns the score for display, or "" when there is none.
func (r Result) ScoreText() string {
	if r.Score == nil {
		return ""
	}
	return strconv.Itoa(*r.Score)
}

// ManualOverride replaces the computed rating when UseOverride is set.
type ManualOverride struct {
	UseOverride bool   `json:"use_override" yaml:"use_override"`
	Score       string `json:"score" yaml:"score"`
	Label       string `json:"label" yaml:"label"`
	Rationale   string `json:"rationale,omitempty" yaml:"rationale,omitempty"`
}

// Compute rates the vessel from an optional average score and the visible
// findings. A manual override, when enabled, is returned verbatim with zero
// counts.
//
// An average in (0, 5.5] is treated as a five point scale and multiplied by
// 20. With no finite average the seed is DefaultSeed. Each critical finding
// (severity or priority critical) costs CriticalPenalty and each high
// severity finding costs HighPenalty. The result is clamped to [0, 100] and
// rounded.
func Compute(avg *float64, fs []findings.Finding, o *ManualOverride) Result {
	if o != nil && o.UseOverride {
		return Result{
			Score:      parseScore(o.Score),
			Label:      o.Label,
			IsOverride: true,
			Rationale:  o.Rationale,
		}
	}

	var crit, high int
	for _, f := range fs {
		if f.Hidden {
			continue
		}
		if findings.IsCritical(f) {
			crit++
		}
		if findings.IsHigh(f) {
			high++
		}
	}

	seed := float64(DefaultSeed)
	if avg != nil && !math.IsNaN(*avg) && !math.IsInf(*avg, 0) {
		seed = *avg
		if seed > 0 && seed <= fivePointCeiling {
			seed *= 20
		}
	}

	raw := seed - CriticalPenalty*float64(crit) - HighPenalty*float64(high)
	score := int(math.Round(math.Max(0, math.Min(100, raw))))
	return Result{
		Score:         &score,
		Label:         LabelFor(score),
		CriticalCount: crit,
		HighCount:     high,
	}
}

// LabelFor maps a score to its qualitative label.
func LabelFor(score int) string {
	switch {
	case score >= 85:
		return Excellent
	case score >= 70:
		return Good
	case score >= 55:
		return Fair
	default:
		return Poor
	}
}

func parseScore(s string) *int {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	n := int(math.Round(v))
	return &n
}
