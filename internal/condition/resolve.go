package condition

import "strings"

// Signals are the per-image fields that feed effective condition resolution.
type Signals struct {
	Raw             Condition
	RustStains      bool
	Severity        Severity
	Priority        Priority
	Recommendations []string
}

// ResolveEffective decides the condition that should be displayed and
// reported for one image. A raw "none" is escalated when secondary signals
// say otherwise:
//
//  1. raw condition other than none is returned unchanged
//  2. the rust-stains tag yields Rust
//  3. a high-severity recommendation, high/critical severity, or critical
//     priority yields Attention
//  4. any remaining recommendation yields Attention
//  5. otherwise None
//
// Every view that shows a condition must go through this function.
func ResolveEffective(s Signals) Condition {
	raw := CanonicalCondition(string(s.Raw))
	if raw != None {
		return raw
	}
	if s.RustStains {
		return Rust
	}
	sev := CanonicalSeverity(string(s.Severity))
	if sev == SeverityHigh || sev == SeverityCritical ||
		CanonicalPriority(string(s.Priority)) == PriorityCritical {
		return Attention
	}
	hasRec := false
	for _, r := range s.Recommendations {
		if IsHighSeverityRecommendation(r) {
			return Attention
		}
		if strings.TrimSpace(r) != "" {
			hasRec = true
		}
	}
	if hasRec {
		return Attention
	}
	return None
}

var highMarkers = []string{"[high]", "[critical]", "(high)", "(critical)", "high:", "critical:"}

var highLeads = []string{"urgent", "immediate", "immediately"}

// IsHighSeverityRecommendation reports whether a recommendation line carries
// a high or critical marker, or leads with an urgency word.
func IsHighSeverityRecommendation(text string) bool {
	lower := strings.ToLower(strings.TrimSpace(text))
	if lower == "" {
		return false
	}
	for _, m := range highMarkers {
		if strings.HasPrefix(lower, m) {
			return true
		}
	}
	first := strings.FieldsFunc(lower, func(r rune) bool {
		return r == ' ' || r == ',' || r == ':' || r == '.'
	})
	if len(first) == 0 {
		return false
	}
	for _, w := range highLeads {
		if first[0] == w {
			return true
		}
	}
	return false
}
