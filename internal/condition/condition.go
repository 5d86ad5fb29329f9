// Package condition canonicalizes free-form condition, severity and priority
// strings into a small vocabulary and resolves the effective condition of an
// inspected image.
package condition

import (
	"embed"
	"fmt"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"gopkg.in/yaml.v3"
)

//go:embed builtin/synonyms.yaml
var builtinFS embed.FS

// Condition is the canonical category of an observed issue. Values outside
// the known vocabulary are kept verbatim (lower-cased) so they stay visible.
type Condition string

const (
	None       Condition = "none"
	FireHazard Condition = "fire_hazard"
	TripFall   Condition = "trip_fall"
	Rust       Condition = "rust"
	Attention  Condition = "attention"
	Defect     Condition = "defect"
)

// Known reports whether c is part of the fixed vocabulary.
func (c Condition) Known() bool {
	switch c {
	case None, FireHazard, TripFall, Rust, Attention, Defect:
		return true
	}
	return false
}

func (c Condition) String() string { return string(c) }

// Severity is the canonical severity of an observation.
type Severity string

const (
	SeverityNone     Severity = ""
	SeverityLow      Severity = "low"
	SeverityMedium   Severity = "medium"
	SeverityHigh     Severity = "high"
	SeverityCritical Severity = "critical"
)

// Known reports whether s is part of the fixed vocabulary.
func (s Severity) Known() bool {
	switch s {
	case SeverityNone, SeverityLow, SeverityMedium, SeverityHigh, SeverityCritical:
		return true
	}
	return false
}

func (s Severity) String() string { return string(s) }

// Priority is the canonical rectification priority of an observation.
type Priority string

const (
	PriorityNone     Priority = ""
	PriorityLow      Priority = "low"
	PriorityMedium   Priority = "medium"
	PriorityHigh     Priority = "high"
	PriorityCritical Priority = "critical"
)

// Known reports whether p is part of the fixed vocabulary.
func (p Priority) Known() bool {
	switch p {
	case PriorityNone, PriorityLow, PriorityMedium, PriorityHigh, PriorityCritical:
		return true
	}
	return false
}

func (p Priority) String() string { return string(p) }

type tables struct {
	Neutral    []string          `yaml:"neutral"`
	Conditions map[string]string `yaml:"conditions"`
	Severities map[string]string `yaml:"severities"`
	Priorities map[string]string `yaml:"priorities"`

	neutral map[string]bool
}

var vocab = mustLoadTables()

func mustLoadTables() *tables {
	data, err := builtinFS.ReadFile("builtin/synonyms.yaml")
	if err != nil {
		panic(fmt.Sprintf("condition: read synonyms: %v", err))
	}
	var t tables
	if err := yaml.Unmarshal(data, &t); err != nil {
		panic(fmt.Sprintf("condition: parse synonyms: %v", err))
	}
	t.neutral = make(map[string]bool, len(t.Neutral))
	for _, n := range t.Neutral {
		t.neutral[normalize(n)] = true
	}
	return &t
}

// normalize lower-cases, trims and collapses inner whitespace.
func normalize(raw string) string {
	return strings.Join(strings.Fields(strings.ToLower(raw)), " ")
}

func lookup(raw string, synonyms map[string]string) (string, bool) {
	key := normalize(raw)
	if vocab.neutral[key] {
		return "", true
	}
	if v, ok := synonyms[key]; ok {
		return v, false
	}
	return key, false
}

// CanonicalCondition maps a free-form condition string to a Condition.
// Neutral values map to None; unrecognized values pass through lower-cased.
func CanonicalCondition(raw string) Condition {
	v, neutral := lookup(raw, vocab.Conditions)
	if neutral {
		return None
	}
	return Condition(v)
}

// CanonicalSeverity maps a free-form severity string to a Severity.
func CanonicalSeverity(raw string) Severity {
	v, _ := lookup(raw, vocab.Severities)
	return Severity(v)
}

// CanonicalPriority maps a free-form priority string to a Priority.
func CanonicalPriority(raw string) Priority {
	v, _ := lookup(raw, vocab.Priorities)
	return Priority(v)
}

var labels = map[Condition]string{
	None:       "No issue",
	FireHazard: "Fire hazard",
	TripFall:   "Trip / fall",
	Rust:       "Rust",
	Attention:  "Attention",
	Defect:     "Defect",
}

// Label returns the display label for c. Unknown conditions are title-cased.
func Label(c Condition) string {
	if l, ok := labels[c]; ok {
		return l
	}
	if c == "" {
		return labels[None]
	}
	return cases.Title(language.English).String(strings.ReplaceAll(string(c), "_", " "))
}
