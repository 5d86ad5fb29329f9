// Package findings merges image-derived findings with manually authored
// findings and per-finding overrides into the ordered defects list.
package findings

import (
	"strings"

	"github.com/dshills/shipshape/internal/condition"
	"github.com/dshills/shipshape/internal/inspection"
)

// Origin distinguishes the two finding lifecycles.
type Origin string

const (
	// OriginDerived findings come from a flagged image. They are hidden,
	// never deleted, so they can be restored.
	OriginDerived Origin = "derived"
	// OriginManual findings are authored by the reviewer and deleted outright.
	OriginManual Origin = "manual"
)

// NoArea is shown when a finding has no location.
const NoArea = "—"

// Finding is one row of the defects / non-conformities list.
type Finding struct {
	ID              string              `json:"id"`
	Index           int                 `json:"index"`
	Origin          Origin              `json:"origin"`
	PhotoID         string              `json:"photo_id,omitempty"`
	Area            string              `json:"area"`
	AssignedTo      string              `json:"assigned_to,omitempty"`
	Condition       condition.Condition `json:"condition"`
	Severity        condition.Severity  `json:"severity,omitempty"`
	Priority        condition.Priority  `json:"priority,omitempty"`
	Deadline        string              `json:"deadline,omitempty"`
	Comment         string              `json:"comment,omitempty"`
	Recommendations []string            `json:"recommendations,omitempty"`
	// RecommendationText is Recommendations joined for table display.
	RecommendationText string `json:"recommendation_text,omitempty"`
	// Description is the single free-text block of a manual finding, or the
	// edited free text of a derived one.
	Description string `json:"description,omitempty"`
	Hidden      bool   `json:"hidden,omitempty"`
}

// Derived reports whether f was derived from an image.
func (f Finding) Derived() bool { return f.Origin == OriginDerived }

// Manual reports whether f was authored by hand.
func (f Finding) Manual() bool { return f.Origin == OriginManual }

// Text returns the free text to display: the edited description when there
// is one, otherwise the comment.
func (f Finding) Text() string {
	if f.Description != "" {
		return f.Description
	}
	return f.Comment
}

// IsCritical reports whether f counts as critical for rating and impact.
func IsCritical(f Finding) bool {
	return f.Severity == condition.SeverityCritical || f.Priority == condition.PriorityCritical
}

// IsHigh reports whether f counts as high for rating and impact.
func IsHigh(f Finding) bool {
	return f.Severity == condition.SeverityHigh
}

// JoinRecommendations renders recommendation lines as one string.
func JoinRecommendations(recs []string) string {
	return strings.Join(recs, "; ")
}

func newDerived(img inspection.ImageRecord, eff condition.Condition) Finding {
	area := strings.TrimSpace(img.Location)
	if area == "" {
		area = NoArea
	}
	recs := append([]string(nil), img.Recommendations...)
	return Finding{
		ID:                 img.ID,
		Origin:             OriginDerived,
		PhotoID:            img.ID,
		Area:               area,
		Condition:          eff,
		Severity:           img.Severity,
		Priority:           img.Priority,
		Comment:            img.Comment,
		Recommendations:    recs,
		RecommendationText: JoinRecommendations(recs),
	}
}

func newManual(id string, o Override) Finding {
	f := Finding{
		ID:        id,
		Origin:    OriginManual,
		PhotoID:   o.PhotoID,
		Area:      NoArea,
		Condition: condition.Attention,
	}
	return Merge(f, o)
}
