package worksheet

// GroupedHistory is a contiguous run of history: one manual step and the
// automatic steps that followed it. AnchorIndex is the position of Lines[0]
// in the full history.
type GroupedHistory struct {
	Lines       []Line `json:"lines"`
	AnchorIndex int    `json:"anchor_index"`
}

// Headless reports a group made only of automatic lines, which can occur
// only at the start of a history.
func (g GroupedHistory) Headless() bool {
	return len(g.Lines) > 0 && g.Lines[0].IsAutoGenerated
}

// Group splits history into groups whose concatenation is history itself.
func Group(history []Line) []GroupedHistory {
	var groups []GroupedHistory
	var current []Line
	anchor := 0
	flush := func() {
		if len(current) > 0 {
			groups = append(groups, GroupedHistory{Lines: current, AnchorIndex: anchor})
			current = nil
		}
	}
	for i, line := range history {
		if line.IsAutoGenerated {
			if len(current) == 0 {
				anchor = i
			}
			current = append(current, line.Clone())
			continue
		}
		flush()
		current = []Line{line.Clone()}
		anchor = i
	}
	flush()
	return groups
}
