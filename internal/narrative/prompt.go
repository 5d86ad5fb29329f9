package narrative

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/dshills/shipshape/internal/schema"
)

const (
	defaultMaxTokens = 1024
	maxResponseBytes = 1 << 20
)

const systemPrompt = `You are a marine superintendent writing the executive summary of a vessel condition inspection report.`

const responseSchema = `## Output JSON Schema

{
  "summary": "string, 3 to 6 sentences, plain prose",
  "overallRating": "one of Excellent, Good, Fair, Poor",
  "score": "number from 0 to 100"
}`

// BuildPrompt assembles the summarization prompt for req.
func BuildPrompt(req Request) string {
	var b strings.Builder

	b.WriteString("Summarize the inspection below for the vessel's owner and manager.\n\n")
	b.WriteString("You MUST output ONLY valid JSON matching the schema below. No markdown, no prose outside JSON.\n\n")
	b.WriteString(responseSchema)
	b.WriteString("\n\n")

	b.WriteString(`## Rules

1. Mention fire hazards and trip/fall hazards first, then rust and items needing attention.
2. Refer to areas of the vessel by name; do not invent areas, equipment or people.
3. Do not repeat every finding; group similar findings by area.
4. If there are no findings, say the vessel was found in good order.

`)

	writeParticulars(&b, req.Meta)

	c := req.Counts
	fmt.Fprintf(&b, "## Counts\n\n- Fire hazard: %d\n- Trip / fall: %d\n- Rust: %d\n- Attention: %d\n- Defect: %d\n- Other: %d\n- Total: %d\n\n",
		c.FireHazard, c.TripFall, c.Rust, c.Attention, c.Defect, c.Other, c.Total)

	if len(req.Hazards) > 0 {
		b.WriteString("## Findings\n\n")
		for _, h := range req.Hazards {
			fmt.Fprintf(&b, "- [%s] %s", h.ConditionLabel(), h.Area)
			if sev := strings.TrimSpace(h.Severity + " " + h.Priority); sev != "" {
				fmt.Fprintf(&b, " (%s)", sev)
			}
			if h.Text != "" {
				fmt.Fprintf(&b, ": %s", h.Text)
			}
			if len(h.Recommendations) > 0 {
				fmt.Fprintf(&b, " Recommended: %s", strings.Join(h.Recommendations, "; "))
			}
			b.WriteString("\n")
		}
		b.WriteString("\n")
	}
	return b.String()
}

func writeParticulars(b *strings.Builder, p Particulars) {
	b.WriteString("## Vessel\n\n")
	line := func(k, v string) {
		if v != "" {
			fmt.Fprintf(b, "- %s: %s\n", k, v)
		}
	}
	line("Name", p.Vessel)
	line("IMO", p.IMO)
	line("Type", p.Type)
	line("Flag", p.Flag)
	line("Year built", p.YearBuilt)
	line("Class", p.Class)
	line("Inspection date", p.Date)
	line("Inspection port", p.Port)
	line("Next port", p.NextPort)
	if p.AverageScore != nil {
		line("Average score", fmt.Sprintf("%g", *p.AverageScore))
	}
	b.WriteString("\n")
}

// BuildRepair asks the model to fix a response that failed validation.
func BuildRepair(originalOutput string, problems []schema.ValidationError) string {
	var b strings.Builder
	b.WriteString("The JSON output you returned has validation errors. Fix ONLY the errors listed below and return the corrected JSON.\n\n")
	b.WriteString("## Validation Errors\n\n")
	for _, e := range problems {
		fmt.Fprintf(&b, "- %s: %s\n", e.Path, e.Message)
	}
	b.WriteString("\n## Original Output\n\n```json\n")
	b.WriteString(originalOutput)
	b.WriteString("\n```\n\n")
	b.WriteString(responseSchema)
	b.WriteString("\n\nReturn ONLY the corrected JSON. No prose.\n")
	return b.String()
}

// ExtractJSON strips surrounding whitespace and markdown code fences.
func ExtractJSON(s string) string {
	s = strings.TrimSpace(s)
	if rest, ok := strings.CutPrefix(s, "```"); ok {
		if nl := strings.IndexByte(rest, '\n'); nl >= 0 {
			rest = rest[nl+1:]
		} else {
			rest = ""
		}
		if end := strings.LastIndex(rest, "```"); end >= 0 {
			rest = rest[:end]
		}
		s = strings.TrimSpace(rest)
	}
	return s
}

// decodeResponse parses and checks a model or service response.
func decodeResponse(text string) (Response, []schema.ValidationError) {
	var resp Response
	if err := json.Unmarshal([]byte(ExtractJSON(text)), &resp); err != nil {
		return Response{}, []schema.ValidationError{schema.Errorf("$", "invalid JSON: %v", err)}
	}
	var problems []schema.ValidationError
	resp.Summary = strings.TrimSpace(resp.Summary)
	if resp.Summary == "" {
		problems = append(problems, schema.Errorf("summary", "is empty"))
	}
	if resp.Score != nil && (*resp.Score < 0 || *resp.Score > 100) {
		problems = append(problems, schema.Errorf("score", "%v is outside 0-100", *resp.Score))
	}
	return resp, problems
}
