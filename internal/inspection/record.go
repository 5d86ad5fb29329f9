// Package inspection models the per-image annotations produced by the
// external classification service and ingests them tolerantly.
package inspection

import (
	"bytes"
	"encoding/json"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/dshills/shipshape/internal/condition"
)

// ImageRecord is one inspected photograph.
type ImageRecord struct {
	ID               string
	Location         string
	RawCondition     condition.Condition
	Severity         condition.Severity
	Priority         condition.Priority
	Tags             Tags
	Comment          string
	Recommendations  Recommendations
	CaptureTimestamp *time.Time
}

// Signals returns the fields consulted by effective condition resolution.
func (r ImageRecord) Signals() condition.Signals {
	return condition.Signals{
		Raw:             r.RawCondition,
		RustStains:      r.Tags.RustStains(),
		Severity:        r.Severity,
		Priority:        r.Priority,
		Recommendations: r.Recommendations,
	}
}

// Effective returns the condition to display and report for r.
func (r ImageRecord) Effective() condition.Condition {
	return condition.ResolveEffective(r.Signals())
}

// wireRecord accepts the field aliases seen in classification output.
type wireRecord struct {
	ID               flexString      `json:"id"`
	ImageID          flexString      `json:"image_id"`
	Filename         flexString      `json:"filename"`
	Location         flexString      `json:"location"`
	Condition        flexString      `json:"condition"`
	RawCondition     flexString      `json:"raw_condition"`
	Severity         flexString      `json:"severity"`
	Priority         flexString      `json:"priority"`
	Tags             Tags            `json:"tags"`
	Comment          flexString      `json:"comment"`
	Notes            flexString      `json:"notes"`
	Recommendations  Recommendations `json:"recommendations"`
	CaptureTimestamp flexString      `json:"capture_timestamp"`
	Exif             *struct {
		DateTimeOriginal flexString `json:"DateTimeOriginal"`
	} `json:"exif"`
}

// UnmarshalJSON decodes a record, canonicalizing condition, severity and
// priority. RawCondition is never empty afterwards.
func (r *ImageRecord) UnmarshalJSON(data []byte) error {
	var w wireRecord
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	*r = ImageRecord{
		ID:              firstNonEmpty(string(w.ImageID), string(w.ID), string(w.Filename)),
		Location:        strings.TrimSpace(string(w.Location)),
		RawCondition:    condition.CanonicalCondition(firstNonEmpty(string(w.Condition), string(w.RawCondition))),
		Severity:        condition.CanonicalSeverity(string(w.Severity)),
		Priority:        condition.CanonicalPriority(string(w.Priority)),
		Tags:            w.Tags,
		Comment:         strings.TrimSpace(firstNonEmpty(string(w.Comment), string(w.Notes))),
		Recommendations: w.Recommendations,
	}
	ts := string(w.CaptureTimestamp)
	if ts == "" && w.Exif != nil {
		ts = string(w.Exif.DateTimeOriginal)
	}
	if t, ok := ParseTimestamp(ts); ok {
		r.CaptureTimestamp = &t
	}
	return nil
}

type outRecord struct {
	ImageID          string              `json:"image_id"`
	Location         string              `json:"location,omitempty"`
	Condition        condition.Condition `json:"condition"`
	Severity         condition.Severity  `json:"severity,omitempty"`
	Priority         condition.Priority  `json:"priority,omitempty"`
	Tags             Tags                `json:"tags,omitempty"`
	Comment          string              `json:"comment,omitempty"`
	Recommendations  []string            `json:"recommendations,omitempty"`
	CaptureTimestamp *time.Time          `json:"capture_timestamp,omitempty"`
}

// MarshalJSON writes the canonical wire form.
func (r ImageRecord) MarshalJSON() ([]byte, error) {
	raw := r.RawCondition
	if raw == "" {
		raw = condition.None
	}
	return json.Marshal(outRecord{
		ImageID:          r.ID,
		Location:         r.Location,
		Condition:        raw,
		Severity:         r.Severity,
		Priority:         r.Priority,
		Tags:             r.Tags,
		Comment:          r.Comment,
		Recommendations:  r.Recommendations,
		CaptureTimestamp: r.CaptureTimestamp,
	})
}

var timestampLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006:01:02 15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"2006-01-02",
}

// ParseTimestamp accepts RFC 3339, EXIF and plain date layouts.
func ParseTimestamp(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// Tags is a set of boolean flags attached to an image. Keys are normalized
// to lower snake case.
type Tags map[string]bool

func tagKey(name string) string {
	k := strings.ToLower(strings.TrimSpace(name))
	return strings.NewReplacer("-", "_", " ", "_").Replace(k)
}

// Has reports whether the named flag is set.
func (t Tags) Has(name string) bool {
	return t[tagKey(name)]
}

// RustStains reports whether the rust-stains flag is set under any of its
// known spellings.
func (t Tags) RustStains() bool {
	return t.Has("rust_stains") || t.Has("rust_stains_present") || t.Has("rust_staining")
}

// UnmarshalJSON accepts an object of truthy values or an array of names.
// Any other shape decodes to an empty set.
func (t *Tags) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	out := Tags{}
	switch {
	case bytes.Equal(data, []byte("null")):
		*t = nil
		return nil
	case len(data) > 0 && data[0] == '[':
		var names []flexString
		if err := json.Unmarshal(data, &names); err != nil {
			*t = nil
			return nil
		}
		for _, n := range names {
			if k := tagKey(string(n)); k != "" {
				out[k] = true
			}
		}
	default:
		var m map[string]flexString
		if err := json.Unmarshal(data, &m); err != nil {
			*t = nil
			return nil
		}
		for k, v := range m {
			if truthy(string(v)) {
				out[tagKey(k)] = true
			}
		}
	}
	*t = out
	return nil
}

func truthy(v string) bool {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "true", "yes", "y", "1", "present":
		return true
	}
	return false
}

// Recommendations is an ordered list of short recommendation lines.
type Recommendations []string

var bulletPrefix = regexp.MustCompile(`^(?:[-*•·]+|\d+[.)])\s*`)

// SplitRecommendations splits a delimited recommendation block into lines.
// Newlines, semicolons, pipes and bullet markers all separate entries.
func SplitRecommendations(s string) []string {
	s = strings.ReplaceAll(s, "•", "\n")
	parts := strings.FieldsFunc(s, func(r rune) bool {
		return r == '\n' || r == '\r' || r == ';' || r == '|'
	})
	var out []string
	for _, p := range parts {
		p = strings.TrimSpace(bulletPrefix.ReplaceAllString(strings.TrimSpace(p), ""))
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

// UnmarshalJSON accepts a delimited string, an array of strings, or an
// array of {text, severity} objects. High and critical object severities are
// kept as a leading marker so IsHighSeverityRecommendation can see them.
// Unusable shapes and entries are dropped.
func (r *Recommendations) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*r = nil
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return fmt.Errorf("recommendations: %w", err)
		}
		*r = SplitRecommendations(s)
		return nil
	}
	var items []json.RawMessage
	if err := json.Unmarshal(data, &items); err != nil {
		*r = nil
		return nil
	}
	var out Recommendations
	for _, item := range items {
		var s string
		if err := json.Unmarshal(item, &s); err == nil {
			if s = strings.TrimSpace(s); s != "" {
				out = append(out, s)
			}
			continue
		}
		var obj struct {
			Text           flexString `json:"text"`
			Recommendation flexString `json:"recommendation"`
			Action         flexString `json:"action"`
			Severity       flexString `json:"severity"`
			Priority       flexString `json:"priority"`
		}
		if err := json.Unmarshal(item, &obj); err != nil {
			continue
		}
		text := strings.TrimSpace(firstNonEmpty(string(obj.Text), string(obj.Recommendation), string(obj.Action)))
		if text == "" {
			continue
		}
		sev := condition.CanonicalSeverity(firstNonEmpty(string(obj.Severity), string(obj.Priority)))
		if (sev == condition.SeverityHigh || sev == condition.SeverityCritical) &&
			!condition.IsHighSeverityRecommendation(text) {
			text = "[" + string(sev) + "] " + text
		}
		out = append(out, text)
	}
	*r = out
	return nil
}

// flexString decodes any JSON scalar into its string form.
type flexString string

func (f *flexString) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*f = ""
		return nil
	}
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*f = flexString(s)
		return nil
	}
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	switch x := v.(type) {
	case bool:
		*f = flexString(strconv.FormatBool(x))
	case float64:
		*f = flexString(strconv.FormatFloat(x, 'f', -1, 64))
	default:
		return fmt.Errorf("expected scalar, got %s", string(data))
	}
	return nil
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
