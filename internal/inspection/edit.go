package inspection

import (
	"errors"
	"fmt"
	"strings"
)

// ErrNoSuchRecord is returned when an edit target matches no record.
var ErrNoSuchRecord = errors.New("inspection: no such record")

// Target addresses one record either by id or by ordinal position.
type Target struct {
	ID      string
	Index   int
	ByIndex bool
}

// ByID targets the record with the given id.
func ByID(id string) Target { return Target{ID: id} }

// ByIndex targets the record at position i in source order.
func ByIndex(i int) Target { return Target{Index: i, ByIndex: true} }

func (t Target) String() string {
	if t.ByIndex {
		return fmt.Sprintf("#%d", t.Index)
	}
	return t.ID
}

// RecordEdit holds the user-editable fields of a record. Nil fields are left
// untouched.
type RecordEdit struct {
	Location        *string
	Comment         *string
	Recommendations *[]string
}

// Find returns the position of the targeted record, or -1.
func (b *BatchResult) Find(t Target) int {
	if t.ByIndex {
		if t.Index >= 0 && t.Index < len(b.Images) {
			return t.Index
		}
		return -1
	}
	for i, img := range b.Images {
		if img.ID == t.ID {
			return i
		}
	}
	return -1
}

// ApplyEdit writes the edit into the targeted record in place.
func (b *BatchResult) ApplyEdit(t Target, e RecordEdit) error {
	i := b.Find(t)
	if i < 0 {
		return fmt.Errorf("inspection.ApplyEdit %s: %w", t, ErrNoSuchRecord)
	}
	rec := &b.Images[i]
	if e.Location != nil {
		rec.Location = strings.TrimSpace(*e.Location)
	}
	if e.Comment != nil {
		rec.Comment = strings.TrimSpace(*e.Comment)
	}
	if e.Recommendations != nil {
		var recs Recommendations
		for _, r := range *e.Recommendations {
			recs = append(recs, SplitRecommendations(r)...)
		}
		rec.Recommendations = recs
	}
	return nil
}
