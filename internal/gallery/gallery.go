// Package gallery groups image records by location and chunks them into
// fixed-size photo blocks.
package gallery

import (
	"strings"

	"github.com/dshills/shipshape/internal/inspection"
)

// Unspecified names the group for records with a blank location.
const Unspecified = "Unspecified area"

// BlockSize is the number of photo cells on one gallery page.
const BlockSize = 4

// Group is one location and its records in source order.
type Group struct {
	Location string                   `json:"location"`
	Items    []inspection.ImageRecord `json:"items"`
}

// ByLocation partitions images by trimmed location. Groups appear in the
// order their location is first seen.
func ByLocation(images []inspection.ImageRecord) []Group {
	var groups []Group
	index := make(map[string]int)
	for _, img := range images {
		loc := strings.TrimSpace(img.Location)
		if loc == "" {
			loc = Unspecified
		}
		i, ok := index[loc]
		if !ok {
			i = len(groups)
			index[loc] = i
			groups = append(groups, Group{Location: loc})
		}
		groups[i].Items = append(groups[i].Items, img)
	}
	return groups
}

// Chunk splits items into consecutive blocks of at most size. A size of
// zero or less uses BlockSize. An empty input yields no blocks. Blocks are
// copies and share no memory with items.
func Chunk[T any](items []T, size int) [][]T {
	if size <= 0 {
		size = BlockSize
	}
	var out [][]T
	for start := 0; start < len(items); start += size {
		end := min(start+size, len(items))
		out = append(out, append([]T(nil), items[start:end]...))
	}
	return out
}

// BlockCount is the number of pages n items occupy at size per page, never
// less than one.
func BlockCount(n, size int) int {
	if size <= 0 {
		size = BlockSize
	}
	return max(1, (n+size-1)/size)
}
