package layout

import (
	"github.com/xuri/excelize/v2"
)

// Group summarizes the rows a duration group occupies.
type Group struct {
	Tag      string
	Count    int
	FirstRow int
	LastRow  int
}

// Sheet summarizes a packed layout for printing.
type Sheet struct {
	Geometry  Geometry
	RowsUsed  int
	Pages     int
	PrintArea string
	Groups    []Group
}

// Summarize computes rows, pages, print area and groups of a packing.
// An empty packing has no print area.
func Summarize(placements []Placement, geom Geometry) Sheet {
	geom = geom.Normalize()
	s := Sheet{Geometry: geom}

	var current *Group
	for _, p := range placements {
		if p.PageRow > s.RowsUsed {
			s.RowsUsed = p.PageRow
		}
		if current == nil || current.Tag != p.DurationTag {
			s.Groups = append(s.Groups, Group{Tag: p.DurationTag, FirstRow: p.PageRow})
			current = &s.Groups[len(s.Groups)-1]
		}
		current.Count++
		current.LastRow = p.PageRow
	}

	if s.RowsUsed == 0 {
		return s
	}
	s.Pages = (s.RowsUsed + geom.RowsPerPage - 1) / geom.RowsPerPage
	if last, err := excelize.CoordinatesToCellName(geom.LastColumn(), s.RowsUsed, true); err == nil {
		s.PrintArea = "$A$1:" + last
	}
	return s
}
