package diff

import (
	"unicode/utf8"

	"github.com/sergi/go-diff/diffmatchpatch"
)

type Segment struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

const (
	SegmentEqual   = "equal"
	SegmentAdded   = "added"
	SegmentRemoved = "removed"
)

// Stats counts changed runes.
type Stats struct {
	Added   int `json:"added"`
	Removed int `json:"removed"`
}

// ExprDiff compares the text of two steps rune by rune and merges the result
// into human-sized segments.
func ExprDiff(before, after string) ([]Segment, Stats) {
	dmp := diffmatchpatch.New()
	diffs := dmp.DiffMain(before, after, false)
	diffs = dmp.DiffCleanupSemantic(diffs)

	segments := make([]Segment, 0, len(diffs))
	var stats Stats
	for _, d := range diffs {
		if d.Text == "" {
			continue
		}
		var kind string
		switch d.Type {
		case diffmatchpatch.DiffEqual:
			kind = SegmentEqual
		case diffmatchpatch.DiffInsert:
			kind = SegmentAdded
			stats.Added += utf8.RuneCountInString(d.Text)
		case diffmatchpatch.DiffDelete:
			kind = SegmentRemoved
			stats.Removed += utf8.RuneCountInString(d.Text)
		}
		segments = append(segments, Segment{Type: kind, Text: d.Text})
	}
	return segments, stats
}

// Reconstruct returns the before and after texts a segment list was built
// from.
func Reconstruct(segments []Segment) (string, string) {
	var before, after []byte
	for _, s := range segments {
		if s.Type != SegmentAdded {
			before = append(before, s.Text...)
		}
		if s.Type != SegmentRemoved {
			after = append(after, s.Text...)
		}
	}
	return string(before), string(after)
}
