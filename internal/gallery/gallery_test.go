package gallery

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dshills/shipshape/internal/inspection"
)

func TestByLocationExample(t *testing.T) {
	images := []inspection.ImageRecord{
		{ID: "img0", Location: "Bridge"},
		{ID: "img1", Location: ""},
		{ID: "img2", Location: "Bridge"},
	}
	groups := ByLocation(images)
	require.Len(t, groups, 2)
	assert.Equal(t, "Bridge", groups[0].Location)
	assert.Equal(t, []inspection.ImageRecord{images[0], images[2]}, groups[0].Items)
	assert.Equal(t, Unspecified, groups[1].Location)
	assert.Equal(t, []inspection.ImageRecord{images[1]}, groups[1].Items)
}

func TestByLocationTrimsAndDefaults(t *testing.T) {
	groups := ByLocation([]inspection.ImageRecord{
		{ID: "a", Location: "  \t"},
		{ID: "b", Location: " Deck "},
		{ID: "c", Location: "Deck"},
		{ID: "d"},
	})
	require.Len(t, groups, 2)
	assert.Equal(t, Unspecified, groups[0].Location)
	assert.Len(t, groups[0].Items, 2)
	assert.Equal(t, "Deck", groups[1].Location)
	assert.Len(t, groups[1].Items, 2)
}

func TestByLocationDeterministic(t *testing.T) {
	var images []inspection.ImageRecord
	for i := range 40 {
		images = append(images, inspection.ImageRecord{
			ID:       fmt.Sprintf("img%d", i),
			Location: fmt.Sprintf("loc-%d", (i*7)%5),
		})
	}
	assert.Equal(t, ByLocation(images), ByLocation(images))
	assert.Nil(t, ByLocation(nil))
}

func TestChunk(t *testing.T) {
	tests := []struct {
		n, size int
		want    []int
	}{
		{0, 4, nil},
		{1, 4, []int{1}},
		{4, 4, []int{4}},
		{9, 4, []int{4, 4, 1}},
		{9, 0, []int{4, 4, 1}},
		{5, 2, []int{2, 2, 1}},
	}
	for _, tt := range tests {
		t.Run(fmt.Sprintf("%d/%d", tt.n, tt.size), func(t *testing.T) {
			items := make([]int, tt.n)
			var got []int
			for _, b := range Chunk(items, tt.size) {
				got = append(got, len(b))
			}
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestChunkDoesNotAlias(t *testing.T) {
	items := []int{1, 2, 3, 4, 5}
	blocks := Chunk(items, 2)
	blocks[0] = append(blocks[0], 99)
	blocks[1][0] = 42
	assert.Equal(t, []int{1, 2, 3, 4, 5}, items)

	items[4] = 7
	assert.Equal(t, []int{5}, blocks[2])
}

func TestBlockCount(t *testing.T) {
	for n, want := range map[int]int{0: 1, 1: 1, 4: 1, 5: 2, 8: 2, 9: 3, 100: 25} {
		assert.Equal(t, want, BlockCount(n, BlockSize), "n=%d", n)
	}
}
