package inspection

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dshills/shipshape/internal/condition"
)

const sampleBatch = `{
  "batch_summary": {"fire_hazard_count": 1, "trip_fall_count": 1, "none_count": 2},
  "per_image": [
    {"image_id": "a.jpg", "location": "Engine Room", "condition": "Fire Hazard",
     "severity": "Severe", "priority": "Immediate action required",
     "comment": "Oily rags near exhaust", "recommendations": "Remove rags; Clean bilge\n- Inspect lagging"},
    {"id": "b.jpg", "location": "  ", "condition": "N/A", "tags": {"rust-stains-present": true}},
    {"filename": "c.jpg", "condition": "none", "recommendations": [{"text": "Renew handrail", "severity": "high"}, "monitor"]},
    {"condition": "trip hazard", "severity": 3, "tags": ["slippery"]},
    "not an object"
  ]
}`

func TestParse(t *testing.T) {
	res, problems := Parse([]byte(sampleBatch))
	require.Len(t, res.Images, 4)

	a := res.Images[0]
	assert.Equal(t, "a.jpg", a.ID)
	assert.Equal(t, condition.FireHazard, a.RawCondition)
	assert.Equal(t, condition.SeverityHigh, a.Severity)
	assert.Equal(t, condition.PriorityCritical, a.Priority)
	assert.Equal(t, Recommendations{"Remove rags", "Clean bilge", "Inspect lagging"}, a.Recommendations)

	b := res.Images[1]
	assert.Equal(t, "b.jpg", b.ID)
	assert.Equal(t, "", b.Location)
	assert.Equal(t, condition.None, b.RawCondition)
	assert.True(t, b.Tags.RustStains())
	assert.Equal(t, condition.Rust, b.Effective())

	c := res.Images[2]
	assert.Equal(t, "c.jpg", c.ID)
	assert.Equal(t, Recommendations{"[high] Renew handrail", "monitor"}, c.Recommendations)
	assert.Equal(t, condition.Attention, c.Effective())

	d := res.Images[3]
	assert.Equal(t, "img-3", d.ID)
	assert.Equal(t, condition.TripFall, d.RawCondition)
	assert.Equal(t, condition.Severity("3"), d.Severity)
	assert.True(t, d.Tags.Has("Slippery"))

	assert.Equal(t, BatchSummary{FireHazard: 1, TripFall: 1, None: 2}, res.Summary)

	var paths []string
	for _, p := range problems {
		paths = append(paths, p.Path)
	}
	assert.Contains(t, paths, "per_image[3].image_id")
	assert.Contains(t, paths, "per_image[3].severity")
	assert.Contains(t, paths, "per_image[4]")
}

func TestParseMalformedTopLevel(t *testing.T) {
	res, problems := Parse([]byte(`[1,2,3]`))
	require.NotNil(t, res)
	assert.Empty(t, res.Images)
	require.NotEmpty(t, problems)
	assert.Equal(t, "$", problems[0].Path)

	res, problems = Parse([]byte(`{}`))
	assert.Empty(t, res.Images)
	assert.Equal(t, "per_image", problems[0].Path)
}

func TestParseRecomputesMissingSummary(t *testing.T) {
	res, _ := Parse([]byte(`{"per_image": [{"image_id": "x", "condition": "fire"}, {"image_id": "y"}]}`))
	assert.Equal(t, BatchSummary{FireHazard: 1, None: 1}, res.Summary)
}

func TestParseReportsDuplicateIDs(t *testing.T) {
	res, problems := Parse([]byte(`{"batch_summary": {}, "per_image": [{"image_id": "x", "condition": "rust"}, {"image_id": "x", "condition": "defect"}]}`))
	require.Len(t, res.Images, 2)
	require.Len(t, problems, 1)
	assert.Equal(t, "per_image[1].image_id", problems[0].Path)
	assert.Contains(t, problems[0].Message, `"x#2"`)
}

func TestRawConditionNeverEmpty(t *testing.T) {
	res, _ := Parse([]byte(`{"per_image": [{"image_id": "x"}, {"image_id": "y", "condition": null}]}`))
	for _, img := range res.Images {
		assert.Equal(t, condition.None, img.RawCondition)
	}
}

func TestSplitRecommendations(t *testing.T) {
	tests := []struct {
		in   string
		want []string
	}{
		{"", nil},
		{"one", []string{"one"}},
		{"one; two | three", []string{"one", "two", "three"}},
		{"1. first\n2) second\n* third", []string{"first", "second", "third"}},
		{"• a • b", []string{"a", "b"}},
		{" ;; ", nil},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, SplitRecommendations(tt.in))
		})
	}
}

func TestRecordJSONRoundTrip(t *testing.T) {
	res, _ := Parse([]byte(sampleBatch))
	data, err := json.Marshal(res)
	require.NoError(t, err)
	again, problems := Parse(data)
	assert.Equal(t, res.Images, again.Images)
	for _, p := range problems {
		assert.NotContains(t, p.Path, "image_id")
	}
}

func TestParseTimestamp(t *testing.T) {
	for _, s := range []string{"2024-05-01T10:00:00Z", "2024:05:01 10:00:00", "2024-05-01"} {
		_, ok := ParseTimestamp(s)
		assert.True(t, ok, s)
	}
	_, ok := ParseTimestamp("yesterday")
	assert.False(t, ok)
}

func TestApplyEdit(t *testing.T) {
	res, _ := Parse([]byte(sampleBatch))

	loc := "Bridge"
	require.NoError(t, res.ApplyEdit(ByID("b.jpg"), RecordEdit{Location: &loc}))
	assert.Equal(t, "Bridge", res.Images[1].Location)

	comment := "  updated note "
	recs := []string{"Paint; Grease"}
	require.NoError(t, res.ApplyEdit(ByIndex(0), RecordEdit{Comment: &comment, Recommendations: &recs}))
	assert.Equal(t, "updated note", res.Images[0].Comment)
	assert.Equal(t, Recommendations{"Paint", "Grease"}, res.Images[0].Recommendations)
	assert.Equal(t, "Engine Room", res.Images[0].Location)

	err := res.ApplyEdit(ByID("missing"), RecordEdit{Location: &loc})
	assert.ErrorIs(t, err, ErrNoSuchRecord)
	err = res.ApplyEdit(ByIndex(99), RecordEdit{Location: &loc})
	assert.ErrorIs(t, err, ErrNoSuchRecord)
}

func TestLoadAndSave(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "batch.json")
	require.NoError(t, os.WriteFile(path, []byte(sampleBatch), 0o644))

	b, err := Load(path)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(b.Hash, "sha256:"))
	assert.Len(t, b.Result.Images, 4)
	assert.NotEmpty(t, b.Problems)

	out := filepath.Join(dir, "out.json")
	require.NoError(t, Save(out, b.Result))
	b2, err := Load(out)
	require.NoError(t, err)
	assert.Equal(t, b.Result.Images, b2.Result.Images)

	_, err = Load(filepath.Join(dir, "nope.json"))
	assert.Error(t, err)
}

func TestFillCaptureTimesSkipsMissingPhotos(t *testing.T) {
	res, _ := Parse([]byte(sampleBatch))
	n := FillCaptureTimes(res, t.TempDir(), zerolog.Nop())
	assert.Zero(t, n)
	for _, img := range res.Images {
		assert.Nil(t, img.CaptureTimestamp)
	}
}

func TestCaptureTimeRejectsNonImage(t *testing.T) {
	_, ok := CaptureTime(strings.NewReader("plain text"))
	assert.False(t, ok)
}
