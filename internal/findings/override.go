package findings

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/dshills/shipshape/internal/condition"
	"github.com/dshills/shipshape/internal/schema"
)

// Patch holds edited finding fields. Nil means "not edited"; a pointer to
// the empty string is an explicit clear.
type Patch struct {
	Area       *string `json:"area,omitempty"`
	AssignedTo *string `json:"assigned_to,omitempty"`
	Condition  *string `json:"condition,omitempty"`
	Severity   *string `json:"severity,omitempty"`
	Priority   *string `json:"priority,omitempty"`
	Deadline   *string `json:"deadline,omitempty"`
	Text       *string `json:"text,omitempty"`
}

// Then layers next over p; fields set in next win.
func (p Patch) Then(next Patch) Patch {
	pick := func(a, b *string) *string {
		if b != nil {
			return b
		}
		return a
	}
	return Patch{
		Area:       pick(p.Area, next.Area),
		AssignedTo: pick(p.AssignedTo, next.AssignedTo),
		Condition:  pick(p.Condition, next.Condition),
		Severity:   pick(p.Severity, next.Severity),
		Priority:   pick(p.Priority, next.Priority),
		Deadline:   pick(p.Deadline, next.Deadline),
		Text:       pick(p.Text, next.Text),
	}
}

// Override is the stored patch for one finding id. For a derived finding it
// is layered over the image-derived base at read time; for a manual finding
// it is the whole record.
type Override struct {
	Patch
	Manual    bool      `json:"manual,omitempty"`
	Hidden    bool      `json:"hidden,omitempty"`
	PhotoID   string    `json:"photo_id,omitempty"`
	CreatedAt time.Time `json:"created_at,omitzero"`
}

// Merge returns base with the override's edited fields layered on top.
// base is not modified.
func Merge(base Finding, o Override) Finding {
	out := base
	out.Recommendations = append([]string(nil), base.Recommendations...)
	p := o.Patch
	if p.Area != nil {
		out.Area = strings.TrimSpace(*p.Area)
		if out.Area == "" {
			out.Area = NoArea
		}
	}
	if p.AssignedTo != nil {
		out.AssignedTo = strings.TrimSpace(*p.AssignedTo)
	}
	if p.Condition != nil {
		out.Condition = condition.CanonicalCondition(*p.Condition)
	}
	if p.Severity != nil {
		out.Severity = condition.CanonicalSeverity(*p.Severity)
	}
	if p.Priority != nil {
		out.Priority = condition.CanonicalPriority(*p.Priority)
	}
	if p.Deadline != nil {
		out.Deadline = strings.TrimSpace(*p.Deadline)
	}
	if p.Text != nil {
		out.Description = strings.TrimSpace(*p.Text)
	}
	if o.PhotoID != "" {
		out.PhotoID = o.PhotoID
	}
	out.Hidden = o.Hidden
	return out
}

// Overrides is the persisted override map plus the insertion order of its
// keys. Manual findings are listed in that order.
//
// The store holding it is shared mutable state: two edits that read, merge
// and write the same key concurrently race, and the last write wins.
type Overrides struct {
	Entries map[string]Override `json:"entries"`
	Order   []string            `json:"order"`
}

// Get returns the override stored for id.
func (ov Overrides) Get(id string) (Override, bool) {
	o, ok := ov.Entries[id]
	return o, ok
}

// Len returns the number of stored overrides.
func (ov Overrides) Len() int { return len(ov.Entries) }

func (ov Overrides) clone() Overrides {
	out := Overrides{
		Entries: make(map[string]Override, len(ov.Entries)+1),
		Order:   append([]string(nil), ov.Order...),
	}
	for k, v := range ov.Entries {
		out.Entries[k] = v
	}
	return out
}

// With returns a copy of ov with id set to o.
func (ov Overrides) With(id string, o Override) Overrides {
	out := ov.clone()
	if _, exists := out.Entries[id]; !exists {
		out.Order = append(out.Order, id)
	}
	out.Entries[id] = o
	return out
}

// Without returns a copy of ov with id removed.
func (ov Overrides) Without(id string) Overrides {
	out := ov.clone()
	if _, exists := out.Entries[id]; !exists {
		return out
	}
	delete(out.Entries, id)
	order := out.Order[:0]
	for _, k := range out.Order {
		if k != id {
			order = append(order, k)
		}
	}
	out.Order = order
	return out
}

// Hide marks id hidden. The finding drops out of Build but its edits are kept.
func (ov Overrides) Hide(id string) Overrides {
	o := ov.Entries[id]
	o.Hidden = true
	return ov.With(id, o)
}

// Restore clears the hidden flag on id.
func (ov Overrides) Restore(id string) Overrides {
	o, ok := ov.Entries[id]
	if !ok {
		return ov.clone()
	}
	o.Hidden = false
	return ov.With(id, o)
}

// Edit layers p over the stored patch for id.
func (ov Overrides) Edit(id string, p Patch) Overrides {
	o := ov.Entries[id]
	o.Patch = o.Patch.Then(p)
	return ov.With(id, o)
}

// AddManual appends a manual finding and returns its generated id. Ids use
// the manual-<unix millis> scheme; a short random suffix is added if that id
// is already taken.
func (ov Overrides) AddManual(now time.Time, p Patch, photoID string) (Overrides, string) {
	id := fmt.Sprintf("manual-%d", now.UnixMilli())
	for {
		if _, taken := ov.Entries[id]; !taken {
			break
		}
		id = fmt.Sprintf("manual-%d-%s", now.UnixMilli(), uuid.NewString()[:8])
	}
	return ov.With(id, Override{
		Patch:     p,
		Manual:    true,
		PhotoID:   photoID,
		CreatedAt: now,
	}), id
}

// Delete removes a manual finding outright. Derived findings are hidden
// instead so they can be restored.
func (ov Overrides) Delete(id string) Overrides {
	if o, ok := ov.Entries[id]; ok && o.Manual {
		return ov.Without(id)
	}
	return ov.Hide(id)
}

// Encode serializes ov for the override store.
func (ov Overrides) Encode() ([]byte, error) {
	if ov.Entries == nil {
		ov.Entries = map[string]Override{}
	}
	if ov.Order == nil {
		ov.Order = []string{}
	}
	return json.Marshal(ov)
}

// DecodeOverrides reads a stored override blob. Both the {entries, order}
// form and a bare id→override map are accepted; entries missing from the
// order are appended by creation time then id. An empty blob is an empty
// set. Entries that do not decode are dropped and reported as problems; the
// rest are kept. A blob that is not a JSON object yields an empty set and an
// error.
func DecodeOverrides(data []byte) (Overrides, []schema.ValidationError, error) {
	empty := Overrides{Entries: map[string]Override{}}
	if len(strings.TrimSpace(string(data))) == 0 || strings.TrimSpace(string(data)) == "null" {
		return empty, nil, nil
	}
	var top map[string]json.RawMessage
	if err := json.Unmarshal(data, &top); err != nil {
		return empty, nil, fmt.Errorf("findings.DecodeOverrides: %w", err)
	}

	var (
		problems []schema.ValidationError
		order    []string
		raw      = top
		prefix   = ""
	)
	if rawEntries, structured := top["entries"]; structured {
		raw = nil
		prefix = "entries."
		if err := json.Unmarshal(rawEntries, &raw); err != nil {
			return empty, nil, fmt.Errorf("findings.DecodeOverrides: entries: %w", err)
		}
		if rawOrder, ok := top["order"]; ok {
			if err := json.Unmarshal(rawOrder, &order); err != nil {
				problems = append(problems, schema.Errorf("order", "unreadable, rebuilt from entries: %v", err))
				order = nil
			}
		}
	}

	ov := Overrides{Entries: make(map[string]Override, len(raw))}
	for id, msg := range raw {
		var o Override
		if err := json.Unmarshal(msg, &o); err != nil {
			problems = append(problems, schema.Errorf(prefix+id, "dropped: %v", err))
			continue
		}
		ov.Entries[id] = o
	}
	sort.Slice(problems, func(i, j int) bool { return problems[i].Path < problems[j].Path })
	ov.Order = normalizeOrder(ov.Entries, order)
	return ov, problems, nil
}

func normalizeOrder(entries map[string]Override, order []string) []string {
	seen := make(map[string]bool, len(entries))
	out := make([]string, 0, len(entries))
	for _, id := range order {
		if _, ok := entries[id]; ok && !seen[id] {
			seen[id] = true
			out = append(out, id)
		}
	}
	var rest []string
	for id := range entries {
		if !seen[id] {
			rest = append(rest, id)
		}
	}
	sort.Slice(rest, func(i, j int) bool {
		a, b := entries[rest[i]].CreatedAt, entries[rest[j]].CreatedAt
		if !a.Equal(b) {
			return a.Before(b)
		}
		return rest[i] < rest[j]
	})
	return append(out, rest...)
}
