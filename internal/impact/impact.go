// Package impact derives commercial-impact statements from the findings
// severity distribution.
package impact

import (
	"fmt"

	"github.com/dshills/shipshape/internal/findings"
)

// Statement templates. Plural forms are chosen by count.
const (
	criticalStatement = "%d critical finding%s may lead to detention, off-hire or charterer rejection until rectified."
	highStatement     = "%d high severity finding%s should be closed out before the next port state or vetting inspection."
	noneStatement     = "No critical or high severity findings; no commercial impact is expected."
)

// Summary partitions findings by the rating predicates.
type Summary struct {
	Critical   []findings.Finding `json:"critical"`
	High       []findings.Finding `json:"high"`
	Statements []string           `json:"statements"`
}

// Summarize partitions visible findings into critical and high lists and
// selects the impact statements. The critical statement comes first, then
// the high statement; the "none" statement appears only when both lists are
// empty. A finding that is both critical and high severity lands in both
// lists, matching how the rating counts it.
func Summarize(fs []findings.Finding) Summary {
	s := Summary{
		Critical: []findings.Finding{},
		High:     []findings.Finding{},
	}
	for _, f := range fs {
		if f.Hidden {
			continue
		}
		if findings.IsCritical(f) {
			s.Critical = append(s.Critical, f)
		}
		if findings.IsHigh(f) {
			s.High = append(s.High, f)
		}
	}
	if n := len(s.Critical); n > 0 {
		s.Statements = append(s.Statements, fmt.Sprintf(criticalStatement, n, plural(n)))
	}
	if n := len(s.High); n > 0 {
		s.Statements = append(s.Statements, fmt.Sprintf(highStatement, n, plural(n)))
	}
	if len(s.Statements) == 0 {
		s.Statements = []string{noneStatement}
	}
	return s
}

// Top returns at most n critical findings in input order. They are not
// re-sorted by severity.
func Top(fs []findings.Finding, n int) []findings.Finding {
	if n <= 0 {
		return nil
	}
	out := make([]findings.Finding, 0, n)
	for _, f := range fs {
		if len(out) == n {
			break
		}
		if !f.Hidden && findings.IsCritical(f) {
			out = append(out, f)
		}
	}
	return out
}

func plural(n int) string {
	if n == 1 {
		return ""
	}
	return "s"
}
