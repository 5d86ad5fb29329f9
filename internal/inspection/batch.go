package inspection

import (
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/dshills/shipshape/internal/condition"
	"github.com/dshills/shipshape/internal/schema"
)

// BatchSummary holds the counts reported by the classification service.
type BatchSummary struct {
	FireHazard int `json:"fire_hazard_count"`
	TripFall   int `json:"trip_fall_count"`
	None       int `json:"none_count"`
}

// BatchResult is one analysis run: a summary plus the per-image records in
// source order.
type BatchResult struct {
	Summary BatchSummary  `json:"batch_summary"`
	Images  []ImageRecord `json:"per_image"`
}

// Batch is a BatchResult loaded from disk along with its content hash and the
// problems repaired while decoding it.
type Batch struct {
	Path     string
	Hash     string
	Result   *BatchResult
	Problems []schema.ValidationError
}

// Load reads a batch result file and computes its SHA-256 hash. Only a read
// failure is an error; malformed content yields an empty or partial batch
// with Problems filled in.
func Load(path string) (*Batch, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("inspection.Load: %w", err)
	}
	h := sha256.Sum256(data)
	res, problems := Parse(data)
	return &Batch{
		Path:     path,
		Hash:     fmt.Sprintf("sha256:%x", h),
		Result:   res,
		Problems: problems,
	}, nil
}

// Parse decodes a batch result tolerantly. It never fails: unreadable
// records are dropped, records without an id get "img-<index>", and a
// missing summary is recomputed from the records.
func Parse(data []byte) (*BatchResult, []schema.ValidationError) {
	var errs []schema.ValidationError
	res := &BatchResult{}

	var top struct {
		Summary  json.RawMessage   `json:"batch_summary"`
		PerImage []json.RawMessage `json:"per_image"`
		Images   []json.RawMessage `json:"images"`
	}
	if err := json.Unmarshal(data, &top); err != nil {
		errs = append(errs, schema.Errorf("$", "unreadable batch result: %v", err))
		return res, errs
	}

	records := top.PerImage
	if records == nil {
		records = top.Images
	}
	if records == nil {
		errs = append(errs, schema.Errorf("per_image", "missing; treating batch as empty"))
	}

	seen := make(map[string]int)
	count := make(map[string]int)
	for i, raw := range records {
		path := fmt.Sprintf("per_image[%d]", i)
		var rec ImageRecord
		if err := json.Unmarshal(raw, &rec); err != nil {
			errs = append(errs, schema.Errorf(path, "dropped unreadable record: %v", err))
			continue
		}
		if strings.TrimSpace(rec.ID) == "" {
			rec.ID = fmt.Sprintf("img-%d", i)
			errs = append(errs, schema.Errorf(path+".image_id", "missing; assigned %q", rec.ID))
		}
		count[rec.ID]++
		if prev, dup := seen[rec.ID]; dup {
			errs = append(errs, schema.Errorf(path+".image_id", "duplicate of per_image[%d] (%q); its finding is keyed %q",
				prev, rec.ID, fmt.Sprintf("%s#%d", rec.ID, count[rec.ID])))
		} else {
			seen[rec.ID] = i
		}
		if !rec.RawCondition.Known() {
			errs = append(errs, schema.Errorf(path+".condition", "unrecognized condition %q kept as-is", rec.RawCondition))
		}
		if !rec.Severity.Known() {
			errs = append(errs, schema.Errorf(path+".severity", "unrecognized severity %q kept as-is", rec.Severity))
		}
		if !rec.Priority.Known() {
			errs = append(errs, schema.Errorf(path+".priority", "unrecognized priority %q kept as-is", rec.Priority))
		}
		res.Images = append(res.Images, rec)
	}

	if len(top.Summary) == 0 || string(top.Summary) == "null" {
		res.Summary = ComputeSummary(res.Images)
	} else if err := json.Unmarshal(top.Summary, &res.Summary); err != nil {
		errs = append(errs, schema.Errorf("batch_summary", "unreadable, recomputed from records: %v", err))
		res.Summary = ComputeSummary(res.Images)
	}
	return res, errs
}

// ComputeSummary counts raw fire hazard, trip/fall and none conditions.
func ComputeSummary(images []ImageRecord) BatchSummary {
	var s BatchSummary
	for _, img := range images {
		switch img.RawCondition {
		case condition.FireHazard:
			s.FireHazard++
		case condition.TripFall:
			s.TripFall++
		case condition.None, "":
			s.None++
		}
	}
	return s
}

// Save writes the batch result back as indented JSON.
func Save(path string, res *BatchResult) error {
	data, err := json.MarshalIndent(res, "", "  ")
	if err != nil {
		return fmt.Errorf("inspection.Save: marshal: %w", err)
	}
	if err := os.WriteFile(path, append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("inspection.Save: %w", err)
	}
	return nil
}
