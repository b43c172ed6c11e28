package export

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	apperrors "github.com/chpines/hotspot-tickets/internal/errors"
	"github.com/chpines/hotspot-tickets/internal/layout"
	"github.com/chpines/hotspot-tickets/internal/platform"
)

// PDFConverter renders a spreadsheet as PDF.
type PDFConverter interface {
	Convert(ctx context.Context, xlsxPath, pdfPath string) error
}

// Office converts through a headless LibreOffice (soffice) process.
type Office struct {
	// Binary overrides executable discovery.
	Binary string
	Log    *slog.Logger
}

var _ PDFConverter = (*Office)(nil)

// NewOffice returns a converter using binary, or the first office suite found.
func NewOffice(binary string, log *slog.Logger) *Office {
	if log == nil {
		log = slog.Default()
	}
	return &Office{Binary: binary, Log: log}
}

// Available reports whether an office engine can be found.
func (o *Office) Available() bool {
	_, err := o.resolve()
	return err == nil
}

func (o *Office) resolve() (string, error) {
	candidates := platform.OfficeCandidates()
	if o.Binary != "" {
		candidates = []string{o.Binary}
	}
	path, ok := platform.FindCommand(candidates...)
	if !ok {
		return "", apperrors.Unavailable("pdf conversion needs LibreOffice (" + strings.Join(candidates, ", ") + " not found)")
	}
	return path, nil
}

// Convert writes pdfPath from xlsxPath. A missing office engine returns
// an error matching errors.ErrFeatureUnavailable.
func (o *Office) Convert(ctx context.Context, xlsxPath, pdfPath string) error {
	bin, err := o.resolve()
	if err != nil {
		return err
	}

	outDir, err := os.MkdirTemp("", "tickets-pdf-*")
	if err != nil {
		return apperrors.NewExportError("create conversion dir", err)
	}
	defer os.RemoveAll(outDir)

	var output bytes.Buffer
	cmd := exec.CommandContext(ctx, bin, "--headless", "--convert-to", "pdf", "--outdir", outDir, xlsxPath)
	cmd.Stdout = &output
	cmd.Stderr = &output

	o.Log.Debug("converting to pdf", "binary", bin, "input", xlsxPath)
	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return apperrors.NewExportError("convert to pdf", fmt.Errorf("%w: %s", err, strings.TrimSpace(output.String())))
	}

	produced := filepath.Join(outDir, strings.TrimSuffix(filepath.Base(xlsxPath), filepath.Ext(xlsxPath))+".pdf")
	if _, err := os.Stat(produced); err != nil {
		return apperrors.NewExportError("convert to pdf", fmt.Errorf("no pdf produced: %s", strings.TrimSpace(output.String())))
	}
	if err := moveFile(produced, pdfPath); err != nil {
		return apperrors.NewExportError("save "+pdfPath, err)
	}
	return nil
}

// moveFile renames src to dst, copying when they live on different filesystems.
func moveFile(src, dst string) error {
	if err := os.Rename(src, dst); err == nil {
		return nil
	}
	return copyFile(src, dst)
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	tmp, err := os.CreateTemp(filepath.Dir(dst), ".tickets-*.tmp")
	if err != nil {
		return err
	}
	if _, err := io.Copy(tmp, in); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return err
	}
	if err := os.Rename(tmp.Name(), dst); err != nil {
		os.Remove(tmp.Name())
		return err
	}
	return nil
}

// PDFOptions controls ToPDF.
type PDFOptions struct {
	TemplatePath string
	PDFPath      string

	// KeepXLSX leaves a copy of the workbook next to the PDF (same name, .xlsx).
	KeepXLSX bool
}

// ToPDF writes a temporary workbook, converts it and removes the temporary
// file whatever the outcome. It returns the path of the kept workbook, if any.
func ToPDF(ctx context.Context, xlsx Exporter, conv PDFConverter, cells []Cell, sheet layout.Sheet, opts PDFOptions) (string, error) {
	tmpDir, err := os.MkdirTemp("", "tickets-export-*")
	if err != nil {
		return "", apperrors.NewExportError("create temp dir", err)
	}
	defer os.RemoveAll(tmpDir)

	base := strings.TrimSuffix(filepath.Base(opts.PDFPath), filepath.Ext(opts.PDFPath))
	tmpXLSX := filepath.Join(tmpDir, base+".xlsx")

	if err := xlsx.Write(ctx, opts.TemplatePath, tmpXLSX, cells, sheet); err != nil {
		return "", err
	}
	if err := conv.Convert(ctx, tmpXLSX, opts.PDFPath); err != nil {
		return "", err
	}

	if !opts.KeepXLSX {
		return "", nil
	}
	kept := strings.TrimSuffix(opts.PDFPath, filepath.Ext(opts.PDFPath)) + ".xlsx"
	if err := copyFile(tmpXLSX, kept); err != nil {
		return "", apperrors.NewExportError("keep workbook copy", err)
	}
	return kept, nil
}
