// Package reportmeta holds the report metadata blob: vessel particulars,
// inspection details, movement, crew, and the fixed front-matter text.
package reportmeta

import (
	"embed"
	"encoding/json"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/dshills/shipshape/internal/rating"
	"github.com/dshills/shipshape/internal/schema"
)

//go:embed builtin/*.yaml
var builtinFS embed.FS

// DefaultTemplate is the built-in template every other template layers over.
const DefaultTemplate = "default"

// Meta is the persisted report metadata.
type Meta struct {
	Vessel           Vessel                 `json:"vessel" yaml:"vessel"`
	Inspection       Inspection             `json:"inspection" yaml:"inspection"`
	Movement         Movement               `json:"movement" yaml:"movement"`
	Crew             Crew                   `json:"crew" yaml:"crew"`
	Disclaimer       string                 `json:"disclaimer" yaml:"disclaimer"`
	Distribution     []string               `json:"distribution" yaml:"distribution"`
	Terms            []Term                 `json:"terms" yaml:"terms"`
	References       []string               `json:"references" yaml:"references"`
	AverageScore     *float64               `json:"average_score,omitempty" yaml:"average_score,omitempty"`
	RatingOverride   *rating.ManualOverride `json:"rating_override,omitempty" yaml:"rating_override,omitempty"`
	ExecutiveSummary string                 `json:"executive_summary,omitempty" yaml:"executive_summary,omitempty"`
}

// Vessel particulars.
type Vessel struct {
	Name         string `json:"name" yaml:"name"`
	IMO          string `json:"imo" yaml:"imo"`
	Flag         string `json:"flag" yaml:"flag"`
	Type         string `json:"type" yaml:"type"`
	GrossTonnage string `json:"gross_tonnage" yaml:"gross_tonnage"`
	YearBuilt    string `json:"year_built" yaml:"year_built"`
	Owner        string `json:"owner" yaml:"owner"`
	Manager      string `json:"manager" yaml:"manager"`
	Class        string `json:"class" yaml:"class"`
}

// Inspection identifies who inspected the vessel, where and when.
type Inspection struct {
	Inspector    string `json:"inspector" yaml:"inspector"`
	Company      string `json:"company" yaml:"company"`
	Date         string `json:"date" yaml:"date"`
	Port         string `json:"port" yaml:"port"`
	ReportNumber string `json:"report_number" yaml:"report_number"`
}

// Movement is the vessel's voyage context.
type Movement struct {
	LastPort string `json:"last_port" yaml:"last_port"`
	NextPort string `json:"next_port" yaml:"next_port"`
	ETA      string `json:"eta" yaml:"eta"`
}

// Crew lists the senior officers and the complement.
type Crew struct {
	Master        string `json:"master" yaml:"master"`
	ChiefEngineer string `json:"chief_engineer" yaml:"chief_engineer"`
	Complement    string `json:"complement" yaml:"complement"`
}

// Term is one row of the abbreviations page.
type Term struct {
	Abbrev  string `json:"abbrev" yaml:"abbrev"`
	Meaning string `json:"meaning" yaml:"meaning"`
}

// Default returns the documented default metadata.
func Default() Meta {
	m, err := LoadBuiltin(DefaultTemplate)
	if err != nil {
		panic(err)
	}
	return m
}

// LoadBuiltin loads a built-in template by name. Templates other than the
// default are layered over it.
func LoadBuiltin(name string) (Meta, error) {
	var m Meta
	if name != DefaultTemplate {
		m = Default()
	}
	data, err := builtinFS.ReadFile("builtin/" + name + ".yaml")
	if err != nil {
		return Meta{}, fmt.Errorf("reportmeta.LoadBuiltin: unknown template %q: %w", name, err)
	}
	if err := yaml.Unmarshal(data, &m); err != nil {
		return Meta{}, fmt.Errorf("reportmeta.LoadBuiltin: parse %q: %w", name, err)
	}
	return m, nil
}

// List returns the names of the built-in templates.
func List() ([]string, error) {
	entries, err := builtinFS.ReadDir("builtin")
	if err != nil {
		return nil, err
	}
	var names []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if n, ok := strings.CutSuffix(e.Name(), ".yaml"); ok {
			names = append(names, n)
		}
	}
	return names, nil
}

// Decode reads a stored metadata blob. Fields present in the blob are
// layered over the defaults. A missing blob yields the defaults; a
// malformed one yields the defaults and an error.
func Decode(blob []byte) (Meta, error) {
	m := Default()
	trimmed := strings.TrimSpace(string(blob))
	if trimmed == "" || trimmed == "null" {
		return m, nil
	}
	if err := json.Unmarshal(blob, &m); err != nil {
		return Default(), fmt.Errorf("reportmeta.Decode: %w", err)
	}
	return m, nil
}

// Encode serializes m for the metadata store.
func (m Meta) Encode() ([]byte, error) {
	return json.Marshal(m)
}

// Parse reads metadata from a YAML or JSON document, layered over base.
func Parse(base Meta, data []byte) (Meta, error) {
	m := base
	if err := yaml.Unmarshal(data, &m); err != nil {
		return base, fmt.Errorf("reportmeta.Parse: %w", err)
	}
	return m, nil
}

// Validate reports metadata values that will render poorly. Problems are
// advisory; the report is built regardless.
func Validate(m Meta) []schema.ValidationError {
	var errs []schema.ValidationError
	if imo := strings.TrimSpace(m.Vessel.IMO); imo != "" && !ValidIMO(imo) {
		errs = append(errs, schema.Errorf("vessel.imo", "%q is not a valid IMO number", imo))
	}
	if m.AverageScore != nil && (*m.AverageScore < 0 || *m.AverageScore > 100) {
		errs = append(errs, schema.Errorf("average_score", "%v is outside 0-100", *m.AverageScore))
	}
	if o := m.RatingOverride; o != nil && o.UseOverride && strings.TrimSpace(o.Label) == "" {
		errs = append(errs, schema.Errorf("rating_override.label", "override is enabled but has no label"))
	}
	for i, t := range m.Terms {
		if strings.TrimSpace(t.Abbrev) == "" {
			errs = append(errs, schema.Errorf(fmt.Sprintf("terms[%d].abbrev", i), "is empty"))
		}
	}
	return errs
}

// ValidIMO checks a seven digit IMO ship number, with or without the "IMO"
// prefix, against its check digit.
func ValidIMO(s string) bool {
	s = strings.TrimSpace(strings.TrimPrefix(strings.ToUpper(strings.TrimSpace(s)), "IMO"))
	if len(s) != 7 {
		return false
	}
	sum := 0
	for i := range 7 {
		c := s[i]
		if c < '0' || c > '9' {
			return false
		}
		if i < 6 {
			sum += int(c-'0') * (7 - i)
		}
	}
	return sum%10 == int(s[6]-'0')
}
