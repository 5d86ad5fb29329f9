package findings

import (
	"fmt"

	"github.com/dshills/shipshape/internal/condition"
	"github.com/dshills/shipshape/internal/inspection"
)

// Build returns the visible findings list.
//
// Derived findings come first, in source image order: an image yields a
// finding unless its effective condition is none and it has no
// recommendations. A stored override for the image id is then applied;
// hidden findings are dropped after they are computed. Visible manual
// findings follow in insertion order. Overrides whose id matches no image
// and that are not manual are ignored. When several images share an id, the
// second and later findings are keyed "<id>#<n>" so each has its own
// override; PhotoID keeps the image id.
func Build(images []inspection.ImageRecord, ov Overrides) []Finding {
	return build(images, ov, false)
}

// BuildAll is Build with hidden findings kept and flagged, for review screens
// that offer a restore action.
func BuildAll(images []inspection.ImageRecord, ov Overrides) []Finding {
	return build(images, ov, true)
}

func build(images []inspection.ImageRecord, ov Overrides, keepHidden bool) []Finding {
	var out []Finding
	seen := make(map[string]int, len(images))
	for _, img := range images {
		seen[img.ID]++
		eff := img.Effective()
		if eff == condition.None && len(img.Recommendations) == 0 {
			continue
		}
		f := newDerived(img, eff)
		if n := seen[img.ID]; n > 1 {
			f.ID = fmt.Sprintf("%s#%d", img.ID, n)
		}
		if o, ok := ov.Get(f.ID); ok && !o.Manual {
			f = Merge(f, o)
		}
		if f.Hidden && !keepHidden {
			continue
		}
		f.Index = len(out)
		out = append(out, f)
	}
	for _, id := range ov.Order {
		o, ok := ov.Entries[id]
		if !ok || !o.Manual {
			continue
		}
		if o.Hidden && !keepHidden {
			continue
		}
		f := newManual(id, o)
		f.Index = len(out)
		out = append(out, f)
	}
	return out
}

// Counts are per-condition totals over visible findings.
type Counts struct {
	FireHazard int `json:"fire_hazard"`
	TripFall   int `json:"trip_fall"`
	Rust       int `json:"rust"`
	Attention  int `json:"attention"`
	Defect     int `json:"defect"`
	Other      int `json:"other"`
	Total      int `json:"total"`
}

// Rollup counts visible findings by condition. Hidden findings are skipped
// even if the caller passes them in.
func Rollup(fs []Finding) Counts {
	var c Counts
	for _, f := range fs {
		if f.Hidden {
			continue
		}
		c.Total++
		switch f.Condition {
		case condition.FireHazard:
			c.FireHazard++
		case condition.TripFall:
			c.TripFall++
		case condition.Rust:
			c.Rust++
		case condition.Attention:
			c.Attention++
		case condition.Defect:
			c.Defect++
		default:
			c.Other++
		}
	}
	return c
}

// Visible filters out hidden findings.
func Visible(fs []Finding) []Finding {
	out := make([]Finding, 0, len(fs))
	for _, f := range fs {
		if !f.Hidden {
			out = append(out, f)
		}
	}
	return out
}
