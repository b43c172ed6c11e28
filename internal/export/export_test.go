package export

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	apperrors "github.com/chpines/hotspot-tickets/internal/errors"
	"github.com/chpines/hotspot-tickets/internal/layout"
	"github.com/chpines/hotspot-tickets/internal/ticket"
)

func sampleRecords() []ticket.Record {
	var recs []ticket.Record
	for i := 1; i <= 6; i++ {
		recs = append(recs, ticket.Record{Sequence: i, Username: "H00000" + string(rune('0'+i)), Profile: "default", DurationRaw: "1h", DurationTag: "1H", Status: ticket.LocalOnly()})
	}
	recs = append(recs,
		ticket.Record{Sequence: 7, Username: "M000007", Profile: "default", DurationRaw: "30d", DurationTag: "MES", Status: ticket.CreatedRemotely()},
		ticket.Record{Sequence: 8, Username: "D000008", Profile: "default", DurationRaw: "1d", DurationTag: "DÍA", Status: ticket.Failed("bad profile")},
	)
	return recs
}

func writeTemplate(t *testing.T) string {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()

	require.NoError(t, f.SetColWidth("Sheet1", "A", "A", 8.5))
	require.NoError(t, f.SetColWidth("Sheet1", "B", "B", 18))
	require.NoError(t, f.SetRowHeight("Sheet1", 1, 30))

	style, err := f.NewStyle(&excelize.Style{
		Font:   &excelize.Font{Bold: true, Size: 14},
		Border: []excelize.Border{{Type: "left", Color: "000000", Style: 1}},
	})
	require.NoError(t, err)
	require.NoError(t, f.SetCellStyle("Sheet1", "B1", "B1", style))

	path := filepath.Join(t.TempDir(), "Plantilla.xlsx")
	require.NoError(t, f.SaveAs(path))
	return path
}

func TestCells(t *testing.T) {
	placements := layout.Pack(sampleRecords(), layout.DefaultGeometry)
	cells := Cells(placements, layout.DefaultGeometry)
	require.Len(t, cells, 16)

	// row 1 holds four 1H vouchers across A,B C,D F,G H,I
	var cols []int
	for _, c := range cells[:8] {
		assert.Equal(t, 1, c.Row)
		cols = append(cols, c.Col)
	}
	assert.Equal(t, []int{1, 2, 3, 4, 6, 7, 8, 9}, cols)

	assert.Equal(t, KindTag, cells[0].Kind)
	assert.Equal(t, "1H", cells[0].Value)
	assert.Equal(t, "FFFF99", cells[0].Fill)
	assert.Equal(t, KindUsername, cells[1].Kind)
	assert.Empty(t, cells[1].Fill)

	// DÍA sorts before MES and starts after a 4 row gap
	assert.Equal(t, "DÍA", cells[12].Value)
	assert.Equal(t, 7, cells[12].Row)
	assert.Equal(t, "MES", cells[14].Value)
	assert.Equal(t, 12, cells[14].Row)
}

func TestCellsTemplateRowCycles(t *testing.T) {
	placements := []layout.Placement{{PageRow: 41, ColumnPair: 1, DurationTag: "1H", Username: "x"}}
	cells := Cells(placements, layout.DefaultGeometry)
	assert.Equal(t, 1, cells[0].TemplateRow)
}

func TestXLSXWrite(t *testing.T) {
	tpl := writeTemplate(t)
	outDir := t.TempDir()
	out := filepath.Join(outDir, "tickets.xlsx")

	placements := layout.Pack(sampleRecords(), layout.DefaultGeometry)
	sheet := layout.Summarize(placements, layout.DefaultGeometry)
	cells := Cells(placements, layout.DefaultGeometry)

	require.NoError(t, NewXLSX(nil).Write(context.Background(), tpl, out, cells, sheet))

	entries, err := os.ReadDir(outDir)
	require.NoError(t, err)
	require.Len(t, entries, 1, "no temporary files left behind")

	f, err := excelize.OpenFile(out)
	require.NoError(t, err)
	defer f.Close()

	v, err := f.GetCellValue("Sheet1", "A1")
	require.NoError(t, err)
	assert.Equal(t, "1H", v)
	v, _ = f.GetCellValue("Sheet1", "B1")
	assert.Equal(t, "H000001", v)
	v, _ = f.GetCellValue("Sheet1", "I1")
	assert.Equal(t, "H000004", v)
	v, _ = f.GetCellValue("Sheet1", "E1")
	assert.Empty(t, v, "separator column stays empty")
	v, _ = f.GetCellValue("Sheet1", "A12")
	assert.Equal(t, "MES", v)

	styleID, err := f.GetCellStyle("Sheet1", "A1")
	require.NoError(t, err)
	style, err := f.GetStyle(styleID)
	require.NoError(t, err)
	require.NotEmpty(t, style.Fill.Color)
	assert.Contains(t, strings.ToUpper(style.Fill.Color[0]), "FFFF99")

	styleID, err = f.GetCellStyle("Sheet1", "B1")
	require.NoError(t, err)
	style, err = f.GetStyle(styleID)
	require.NoError(t, err)
	require.NotNil(t, style.Font)
	assert.Equal(t, 14.0, style.Font.Size, "username cell copies the template format")

	width, err := f.GetColWidth("Sheet1", "B")
	require.NoError(t, err)
	assert.InDelta(t, 18, width, 0.01)

	h, err := f.GetRowHeight("Sheet1", 1)
	require.NoError(t, err)
	assert.InDelta(t, 30, h, 0.01)
	h, err = f.GetRowHeight("Sheet1", 2)
	require.NoError(t, err)
	assert.InDelta(t, DefaultRowHeight, h, 0.01)

	var printArea string
	for _, dn := range f.GetDefinedName() {
		if dn.Name == "_xlnm.Print_Area" {
			printArea = dn.RefersTo
		}
	}
	assert.Contains(t, printArea, "$A$1:$I$12")
}

func TestXLSXMissingTemplate(t *testing.T) {
	out := filepath.Join(t.TempDir(), "tickets.xlsx")

	err := NewXLSX(nil).Write(context.Background(), filepath.Join(t.TempDir(), "missing.xlsx"), out, nil, layout.Sheet{})
	require.Error(t, err)
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeExport))
	assert.Contains(t, err.Error(), "template not found")

	_, statErr := os.Stat(out)
	assert.True(t, os.IsNotExist(statErr))
}

func TestXLSXCancelled(t *testing.T) {
	tpl := writeTemplate(t)
	out := filepath.Join(t.TempDir(), "tickets.xlsx")
	placements := layout.Pack(sampleRecords(), layout.DefaultGeometry)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := NewXLSX(nil).Write(ctx, tpl, out, Cells(placements, layout.DefaultGeometry), layout.Summarize(placements, layout.DefaultGeometry))
	require.ErrorIs(t, err, context.Canceled)
	_, statErr := os.Stat(out)
	assert.True(t, os.IsNotExist(statErr))
}

func TestOfficeUnavailable(t *testing.T) {
	office := NewOffice(filepath.Join(t.TempDir(), "no-soffice"), nil)
	assert.False(t, office.Available())

	err := office.Convert(context.Background(), "in.xlsx", "out.pdf")
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperrors.ErrFeatureUnavailable))
}

func fakeOffice(t *testing.T, body string) string {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("uses a shell script as the office binary")
	}
	path := filepath.Join(t.TempDir(), "soffice")
	require.NoError(t, os.WriteFile(path, []byte("#!/bin/sh\n"+body+"\n"), 0o755))
	return path
}

func TestOfficeConvert(t *testing.T) {
	// args: --headless --convert-to pdf --outdir DIR FILE
	bin := fakeOffice(t, `base=$(basename "$6" .xlsx); echo "%PDF-1.4" > "$5/$base.pdf"`)
	dir := t.TempDir()
	in := filepath.Join(dir, "tickets.xlsx")
	require.NoError(t, os.WriteFile(in, []byte("xlsx"), 0o644))
	pdf := filepath.Join(dir, "out.pdf")

	require.NoError(t, NewOffice(bin, nil).Convert(context.Background(), in, pdf))

	data, err := os.ReadFile(pdf)
	require.NoError(t, err)
	assert.Contains(t, string(data), "%PDF")
}

func TestOfficeConvertFailure(t *testing.T) {
	bin := fakeOffice(t, `echo "source file could not be loaded" >&2; exit 1`)

	err := NewOffice(bin, nil).Convert(context.Background(), "in.xlsx", filepath.Join(t.TempDir(), "out.pdf"))
	require.Error(t, err)
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeExport))
	assert.Contains(t, err.Error(), "could not be loaded")
}

type fakeExporter struct {
	written string
	err     error
}

func (f *fakeExporter) Write(_ context.Context, _, outPath string, _ []Cell, _ layout.Sheet) error {
	if f.err != nil {
		return f.err
	}
	f.written = outPath
	return os.WriteFile(outPath, []byte("xlsx"), 0o644)
}

type fakeConverter struct {
	err error
}

func (f *fakeConverter) Convert(_ context.Context, _, pdfPath string) error {
	if f.err != nil {
		return f.err
	}
	return os.WriteFile(pdfPath, []byte("%PDF"), 0o644)
}

func TestToPDFKeepsWorkbookAndCleansUp(t *testing.T) {
	dir := t.TempDir()
	pdf := filepath.Join(dir, "tickets.pdf")
	xlsx := &fakeExporter{}

	kept, err := ToPDF(context.Background(), xlsx, &fakeConverter{}, nil, layout.Sheet{}, PDFOptions{PDFPath: pdf, KeepXLSX: true})
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "tickets.xlsx"), kept)

	assert.FileExists(t, pdf)
	assert.FileExists(t, kept)
	assert.NoFileExists(t, xlsx.written, "temporary workbook is removed")
}

func TestToPDFWithoutWorkbookCopy(t *testing.T) {
	dir := t.TempDir()
	pdf := filepath.Join(dir, "tickets.pdf")

	kept, err := ToPDF(context.Background(), &fakeExporter{}, &fakeConverter{}, nil, layout.Sheet{}, PDFOptions{PDFPath: pdf})
	require.NoError(t, err)
	assert.Empty(t, kept)
	assert.NoFileExists(t, filepath.Join(dir, "tickets.xlsx"))
}

func TestToPDFUnavailable(t *testing.T) {
	dir := t.TempDir()
	xlsx := &fakeExporter{}

	_, err := ToPDF(context.Background(), xlsx, &fakeConverter{err: apperrors.Unavailable("no soffice")}, nil, layout.Sheet{}, PDFOptions{PDFPath: filepath.Join(dir, "t.pdf"), KeepXLSX: true})
	require.ErrorIs(t, err, apperrors.ErrFeatureUnavailable)

	entries, _ := os.ReadDir(dir)
	assert.Empty(t, entries, "nothing is left next to the requested pdf")
	assert.NoFileExists(t, xlsx.written)
}

func TestUsernamesColumn(t *testing.T) {
	recs := sampleRecords()[:3]
	assert.Equal(t, "H000001\nH000002\nH000003", UsernamesColumn(recs))
	assert.Empty(t, UsernamesColumn(nil))
}

func TestPrintTextAlignsAccentedTags(t *testing.T) {
	text := PrintText(sampleRecords())
	lines := strings.Split(strings.TrimRight(text, "\n"), "\n")

	assert.Equal(t, "HOTSPOT USERS REPORT", lines[0])
	require.Len(t, lines, 5+8)

	dia := lines[len(lines)-1]
	mes := lines[len(lines)-2]
	assert.True(t, strings.HasSuffix(dia, "DÍA"))
	// the tag column starts at the same display column on every row
	assert.Equal(t, strings.Index(mes, "MES"), strings.Index(dia, "DÍA"))
}

func TestTabTable(t *testing.T) {
	lines := strings.Split(TabTable(sampleRecords()[6:7]), "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, "#\tusername\tprofile\tduration\ttag\tstatus", lines[0])
	assert.Equal(t, "7\tM000007\tdefault\t30d\tMES\tcreated", lines[1])
}

func TestWriteCSV(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, sampleRecords()))

	rows, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 9)
	assert.Equal(t, []string{"8", "D000008", "default", "1d", "DÍA", "error: bad profile"}, rows[8])
}
