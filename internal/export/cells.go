// Package export renders packed vouchers into documents: an XLSX sheet
// built on a template, its PDF rendering, and plain text or CSV listings.
package export

import (
	"github.com/chpines/hotspot-tickets/internal/layout"
)

// CellKind tells the writer how a cell is styled.
type CellKind int

const (
	KindTag CellKind = iota
	KindUsername
)

// Cell is one value to write on the sheet.
type Cell struct {
	Row   int
	Col   int
	Value string
	Kind  CellKind

	// Fill is the RGB hex background of tag cells; empty for usernames.
	Fill string

	// TemplateRow is the template row whose formatting the cell copies.
	TemplateRow int
}

// Cells turns placements into tag and username cells.
func Cells(placements []layout.Placement, geom layout.Geometry) []Cell {
	geom = geom.Normalize()
	cells := make([]Cell, 0, 2*len(placements))
	for _, p := range placements {
		tagCol, userCol := geom.Columns(p.ColumnPair)
		tplRow := p.TemplateRow(geom)
		cells = append(cells,
			Cell{Row: p.PageRow, Col: tagCol, Value: p.DurationTag, Kind: KindTag, Fill: layout.Color(p.DurationTag), TemplateRow: tplRow},
			Cell{Row: p.PageRow, Col: userCol, Value: p.Username, Kind: KindUsername, TemplateRow: tplRow},
		)
	}
	return cells
}
