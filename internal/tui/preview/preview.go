// Package preview shows the packed voucher sheet in the terminal, page by
// page, before anything is written or printed.
package preview

import (
	"fmt"
	"strings"

	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"

	"github.com/chpines/hotspot-tickets/internal/layout"
)

// Cell is one grid position of a page.
type Cell struct {
	Text string
	Tag  string
	Fill tcell.Color
}

// Page is the grid of one printed page, indexed [row][column] from zero.
type Page [][]Cell

// Pages lays placements out on per-page grids using the same columns as the
// exported sheet.
func Pages(placements []layout.Placement, geom layout.Geometry) []Page {
	geom = geom.Normalize()
	sheet := layout.Summarize(placements, geom)
	if sheet.Pages == 0 {
		return nil
	}
	cols := geom.LastColumn()

	pages := make([]Page, sheet.Pages)
	for i := range pages {
		pages[i] = make(Page, geom.RowsPerPage)
		for r := range pages[i] {
			pages[i][r] = make([]Cell, cols)
		}
	}

	for _, p := range placements {
		page := pages[p.Page(geom)-1]
		row := p.TemplateRow(geom) - 1
		tagCol, userCol := geom.Columns(p.ColumnPair)
		page[row][tagCol-1] = Cell{Text: p.DurationTag, Tag: p.DurationTag, Fill: tcell.GetColor("#" + layout.Color(p.DurationTag))}
		page[row][userCol-1] = Cell{Text: p.Username, Tag: p.DurationTag}
	}
	return pages
}

// Viewer is the interactive preview.
type Viewer struct {
	app   *tview.Application
	pages []Page
	sheet layout.Sheet
	title string
	page  int

	table     *tview.Table
	groups    *tview.TextView
	statusBar *tview.TextView
}

// NewViewer builds a viewer over placements.
func NewViewer(title string, placements []layout.Placement, geom layout.Geometry) *Viewer {
	geom = geom.Normalize()
	v := &Viewer{
		pages: Pages(placements, geom),
		sheet: layout.Summarize(placements, geom),
		title: title,
	}
	v.buildUI()
	v.showPage(0)
	return v
}

// Run blocks until the user quits with q or esc.
func (v *Viewer) Run() error {
	v.app = tview.NewApplication()
	v.app.SetInputCapture(v.handleKey)
	v.app.SetRoot(v.layout(), true)
	return v.app.Run()
}

func (v *Viewer) handleKey(event *tcell.EventKey) *tcell.EventKey {
	switch event.Key() {
	case tcell.KeyEsc:
		v.app.Stop()
		return nil
	case tcell.KeyPgDn, tcell.KeyRight:
		v.showPage(v.page + 1)
		return nil
	case tcell.KeyPgUp, tcell.KeyLeft:
		v.showPage(v.page - 1)
		return nil
	case tcell.KeyRune:
		switch event.Rune() {
		case 'q', 'Q':
			v.app.Stop()
			return nil
		case 'n', 'N':
			v.showPage(v.page + 1)
			return nil
		case 'p', 'P':
			v.showPage(v.page - 1)
			return nil
		}
	}
	return event
}

func (v *Viewer) buildUI() {
	v.table = tview.NewTable().
		SetBorders(false).
		SetSelectable(false, false)
	v.table.SetBorder(true)

	v.groups = tview.NewTextView().
		SetDynamicColors(true).
		SetTextAlign(tview.AlignLeft)
	v.groups.SetBorder(true).SetTitle(" Groups ")
	v.groups.SetText(v.groupText())

	v.statusBar = tview.NewTextView().
		SetDynamicColors(true).
		SetTextAlign(tview.AlignCenter)
}

func (v *Viewer) layout() tview.Primitive {
	header := tview.NewTextView().
		SetDynamicColors(true).
		SetTextAlign(tview.AlignCenter)
	header.SetText(fmt.Sprintf("\n[::b]%s[::-] [gray](%d pages, print area %s)[-]", v.title, v.sheet.Pages, v.sheet.PrintArea))

	body := tview.NewFlex().
		AddItem(v.table, 0, 3, false).
		AddItem(v.groups, 28, 0, false)

	return tview.NewFlex().SetDirection(tview.FlexRow).
		AddItem(header, 3, 0, false).
		AddItem(body, 0, 1, false).
		AddItem(v.statusBar, 1, 0, false)
}

func (v *Viewer) groupText() string {
	if len(v.sheet.Groups) == 0 {
		return " [gray]No vouchers[-]"
	}
	var sb strings.Builder
	for _, g := range v.sheet.Groups {
		fmt.Fprintf(&sb, " [black:#%s] %-4s [-:-] %5d  [gray]rows %d-%d[-]\n", layout.Color(g.Tag), g.Tag, g.Count, g.FirstRow, g.LastRow)
	}
	return sb.String()
}

// showPage renders page i, clamped to the available pages.
func (v *Viewer) showPage(i int) {
	if len(v.pages) == 0 {
		v.table.Clear()
		v.table.SetCell(0, 0, tview.NewTableCell(" [gray]Nothing to preview[-]"))
		v.updateStatusBar()
		return
	}
	v.page = max(0, min(i, len(v.pages)-1))
	page := v.pages[v.page]

	v.table.Clear()
	v.table.SetTitle(fmt.Sprintf(" Page %d/%d ", v.page+1, len(v.pages)))
	for r, row := range page {
		for c, cell := range row {
			tc := tview.NewTableCell(" " + cell.Text + " ").SetSelectable(false)
			if cell.Fill != tcell.ColorDefault {
				tc.SetBackgroundColor(cell.Fill).SetTextColor(tcell.ColorBlack)
			}
			v.table.SetCell(r, c, tc)
		}
	}
	v.updateStatusBar()
}

func (v *Viewer) updateStatusBar() {
	v.statusBar.SetText(fmt.Sprintf(
		" [yellow][n][-]ext  [yellow][p][-]revious  [yellow][q][-]uit  |  Page [gray]%d/%d[-]",
		min(v.page+1, len(v.pages)), len(v.pages),
	))
}

// Run shows the preview for placements and blocks until the user quits.
func Run(title string, placements []layout.Placement, geom layout.Geometry) error {
	return NewViewer(title, placements, geom).Run()
}
