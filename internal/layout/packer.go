// Package layout arranges voucher records on a printable sheet.
//
// Records are grouped by duration tag, groups are ordered by tag priority,
// and each group fills rows left to right across the column pairs of the
// reference template (tag cell + username cell per pair).
package layout

import (
	"sort"

	"github.com/chpines/hotspot-tickets/internal/duration"
	"github.com/chpines/hotspot-tickets/internal/ticket"
)

// Geometry describes the printable template.
type Geometry struct {
	RowsPerPage  int
	ColumnPairs  int
	GroupGapRows int
}

// DefaultGeometry matches the reference template: 40 rows and 4 column pairs
// per page, with 4 empty rows between duration groups.
var DefaultGeometry = Geometry{RowsPerPage: 40, ColumnPairs: 4, GroupGapRows: 4}

// Normalize replaces non-positive fields with the defaults. A zero gap is kept.
func (g Geometry) Normalize() Geometry {
	if g.RowsPerPage <= 0 {
		g.RowsPerPage = DefaultGeometry.RowsPerPage
	}
	if g.ColumnPairs <= 0 {
		g.ColumnPairs = DefaultGeometry.ColumnPairs
	}
	if g.GroupGapRows < 0 {
		g.GroupGapRows = DefaultGeometry.GroupGapRows
	}
	return g
}

// Columns returns the 1-based sheet columns of a 1-based column pair.
// Pairs come two at a time with an empty separator column between blocks:
// (A,B) (C,D) | (F,G) (H,I) | (K,L) ...
func (g Geometry) Columns(pair int) (tagCol, userCol int) {
	k := pair - 1
	tagCol = 1 + 2*k + k/2
	return tagCol, tagCol + 1
}

// LastColumn is the rightmost column used by the geometry.
func (g Geometry) LastColumn() int {
	_, user := g.Normalize().Columns(g.Normalize().ColumnPairs)
	return user
}

// Placement addresses one record on the sheet.
type Placement struct {
	// PageRow is the absolute 1-based sheet row.
	PageRow     int
	ColumnPair  int
	DurationTag string
	Username    string
	Sequence    int
}

// Page is the 1-based printed page the placement lands on.
func (p Placement) Page(g Geometry) int {
	g = g.Normalize()
	return (p.PageRow-1)/g.RowsPerPage + 1
}

// TemplateRow is the row of the template page whose format applies.
func (p Placement) TemplateRow(g Geometry) int {
	g = g.Normalize()
	return (p.PageRow-1)%g.RowsPerPage + 1
}

type group struct {
	tag     string
	records []ticket.Record
}

// Pack assigns every record a row and column pair. Groups are not paginated:
// a group taller than a page simply continues onto the next rows.
func Pack(records []ticket.Record, geom Geometry) []Placement {
	geom = geom.Normalize()
	groups := groupByTag(records)
	if len(groups) == 0 {
		return []Placement{}
	}

	sort.SliceStable(groups, func(i, j int) bool {
		return duration.Less(groups[i].tag, groups[j].tag)
	})

	placements := make([]Placement, 0, len(records))
	row := 1
	for gi, g := range groups {
		if gi > 0 {
			row += geom.GroupGapRows
		}
		for i, r := range g.records {
			pair := i%geom.ColumnPairs + 1
			placements = append(placements, Placement{
				PageRow:     row,
				ColumnPair:  pair,
				DurationTag: g.tag,
				Username:    r.Username,
				Sequence:    r.Sequence,
			})
			if pair == geom.ColumnPairs || i == len(g.records)-1 {
				row++
			}
		}
	}
	return placements
}

func groupByTag(records []ticket.Record) []*group {
	var groups []*group
	index := make(map[string]*group)
	for _, r := range records {
		if r.Username == "" {
			continue
		}
		tag := r.DurationTag
		if tag == "" {
			tag = duration.Normalize(r.DurationRaw)
		}
		g, ok := index[tag]
		if !ok {
			g = &group{tag: tag}
			index[tag] = g
			groups = append(groups, g)
		}
		g.records = append(g.records, r)
	}
	return groups
}
