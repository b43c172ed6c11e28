package export

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/xuri/excelize/v2"

	apperrors "github.com/chpines/hotspot-tickets/internal/errors"
	"github.com/chpines/hotspot-tickets/internal/layout"
)

// DefaultRowHeight is used for rows the template leaves at the sheet default.
const DefaultRowHeight = 21.6

// excelize reports rows without a custom height at this value.
const unsetRowHeight = 15.0

// Exporter writes cells into a document shaped by a template.
type Exporter interface {
	Write(ctx context.Context, templatePath, outPath string, cells []Cell, sheet layout.Sheet) error
}

// XLSX writes a new workbook that reproduces the template geometry: column
// widths, cyclic row heights, page setup and the per-row cell formatting.
type XLSX struct {
	Log *slog.Logger
}

// NewXLSX returns an XLSX exporter.
func NewXLSX(log *slog.Logger) *XLSX {
	if log == nil {
		log = slog.Default()
	}
	return &XLSX{Log: log}
}

var _ Exporter = (*XLSX)(nil)

// Write builds the workbook in a temporary file next to outPath and renames
// it into place, so a failed export never leaves a partial document.
func (x *XLSX) Write(ctx context.Context, templatePath, outPath string, cells []Cell, sheet layout.Sheet) error {
	if _, err := os.Stat(templatePath); err != nil {
		return apperrors.NewExportError("template not found: "+templatePath, err)
	}

	tpl, err := excelize.OpenFile(templatePath)
	if err != nil {
		return apperrors.NewExportError("open template", err)
	}
	defer tpl.Close()

	out := excelize.NewFile()
	defer out.Close()

	tplSheet := tpl.GetSheetName(tpl.GetActiveSheetIndex())
	name := tplSheet
	if name == "" {
		name = "Tickets"
	}
	if err := out.SetSheetName(out.GetSheetName(0), name); err != nil {
		return apperrors.NewExportError("name sheet", err)
	}

	w := &sheetWriter{tpl: tpl, tplSheet: tplSheet, out: out, sheet: name, styles: make(map[styleKey]int)}
	geom := sheet.Geometry.Normalize()

	if err := w.copyGeometry(geom, sheet.RowsUsed); err != nil {
		return apperrors.NewExportError("copy template geometry", err)
	}

	for i, c := range cells {
		if i%500 == 0 {
			if err := ctx.Err(); err != nil {
				return err
			}
		}
		if err := w.writeCell(c); err != nil {
			return apperrors.NewExportError(fmt.Sprintf("write cell R%dC%d", c.Row, c.Col), err)
		}
	}

	if sheet.RowsUsed > 0 {
		if err := w.setPrintArea(geom.LastColumn(), sheet.RowsUsed); err != nil {
			return apperrors.NewExportError("set print area", err)
		}
	}

	if err := saveAtomically(out, outPath); err != nil {
		return apperrors.NewExportError("save "+outPath, err)
	}

	x.Log.Info("xlsx written", "path", outPath, "cells", len(cells), "rows", sheet.RowsUsed, "pages", sheet.Pages)
	return nil
}

type styleKey struct {
	templateStyle int
	fill          string
}

type sheetWriter struct {
	tpl      *excelize.File
	tplSheet string
	out      *excelize.File
	sheet    string
	styles   map[styleKey]int
}

func (w *sheetWriter) copyGeometry(geom layout.Geometry, rowsUsed int) error {
	lastCol := geom.LastColumn()
	for col := 1; col <= lastCol; col++ {
		name, err := excelize.ColumnNumberToName(col)
		if err != nil {
			return err
		}
		width, err := w.tpl.GetColWidth(w.tplSheet, name)
		if err != nil {
			return err
		}
		if err := w.out.SetColWidth(w.sheet, name, name, width); err != nil {
			return err
		}
	}

	for row := 1; row <= rowsUsed; row++ {
		tplRow := (row-1)%geom.RowsPerPage + 1
		height, err := w.tpl.GetRowHeight(w.tplSheet, tplRow)
		if err != nil || height <= 0 || height == unsetRowHeight {
			height = DefaultRowHeight
		}
		if err := w.out.SetRowHeight(w.sheet, row, height); err != nil {
			return err
		}
	}

	if pl, err := w.tpl.GetPageLayout(w.tplSheet); err == nil {
		if err := w.out.SetPageLayout(w.sheet, &pl); err != nil {
			return err
		}
	}
	if pm, err := w.tpl.GetPageMargins(w.tplSheet); err == nil {
		if err := w.out.SetPageMargins(w.sheet, &pm); err != nil {
			return err
		}
	}
	return nil
}

func (w *sheetWriter) writeCell(c Cell) error {
	ref, err := excelize.CoordinatesToCellName(c.Col, c.Row)
	if err != nil {
		return err
	}
	if err := w.out.SetCellStr(w.sheet, ref, c.Value); err != nil {
		return err
	}

	styleID, err := w.style(c)
	if err != nil {
		return err
	}
	return w.out.SetCellStyle(w.sheet, ref, ref, styleID)
}

// style copies the template cell format and adds the tag fill. Styles are
// cached per (template style, fill) so the workbook stays small.
func (w *sheetWriter) style(c Cell) (int, error) {
	tplRef, err := excelize.CoordinatesToCellName(c.Col, c.TemplateRow)
	if err != nil {
		return 0, err
	}
	tplStyle, err := w.tpl.GetCellStyle(w.tplSheet, tplRef)
	if err != nil {
		tplStyle = 0
	}

	key := styleKey{templateStyle: tplStyle, fill: c.Fill}
	if id, ok := w.styles[key]; ok {
		return id, nil
	}

	var style excelize.Style
	if tplStyle != 0 {
		if s, err := w.tpl.GetStyle(tplStyle); err == nil && s != nil {
			style = *s
		}
	}
	if style.Alignment == nil {
		style.Alignment = &excelize.Alignment{Horizontal: "center", Vertical: "center"}
	}
	if style.Font == nil {
		style.Font = &excelize.Font{Bold: true, Size: 10}
	}
	if c.Kind == KindTag && c.Fill != "" {
		style.Fill = excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{c.Fill}}
	}

	id, err := w.out.NewStyle(&style)
	if err != nil {
		return 0, err
	}
	w.styles[key] = id
	return id, nil
}

func (w *sheetWriter) setPrintArea(lastCol, rows int) error {
	colName, err := excelize.ColumnNumberToName(lastCol)
	if err != nil {
		return err
	}
	return w.out.SetDefinedName(&excelize.DefinedName{
		Name:     "_xlnm.Print_Area",
		RefersTo: fmt.Sprintf("'%s'!$A$1:$%s$%d", w.sheet, colName, rows),
		Scope:    w.sheet,
	})
}

func saveAtomically(f *excelize.File, outPath string) error {
	dir := filepath.Dir(outPath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(dir, ".tickets-*.xlsx")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	tmp.Close()

	if err := f.SaveAs(tmpName); err != nil {
		os.Remove(tmpName)
		return err
	}
	if err := os.Rename(tmpName, outPath); err != nil {
		os.Remove(tmpName)
		return err
	}
	return nil
}
