package duration

// UnknownPriority sorts tags missing from the table after every known tag.
const UnknownPriority = 99

var priorities = map[string]int{
	"1H":     1,
	"2H":     2,
	"3H":     3,
	"4H":     4,
	"5H":     5,
	"6H":     6,
	TagDay:   10,
	TagWeek:  20,
	TagFort:  25,
	TagMonth: 30,
}

// Priority returns the print-order priority of a tag; lower prints first.
func Priority(tag string) int {
	if p, ok := priorities[tag]; ok {
		return p
	}
	return UnknownPriority
}

// Less orders tags by priority, then by tag string.
func Less(a, b string) bool {
	pa, pb := Priority(a), Priority(b)
	if pa != pb {
		return pa < pb
	}
	return a < b
}
