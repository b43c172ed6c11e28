package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/mattn/go-runewidth"

	"github.com/chpines/hotspot-tickets/internal/ticket"
)

// UsernamesColumn returns one username per line.
func UsernamesColumn(records []ticket.Record) string {
	names := make([]string, len(records))
	for i, r := range records {
		names[i] = r.Username
	}
	return strings.Join(names, "\n")
}

// PrintText renders the printable user report. Columns are padded by display
// width so accented tags such as DÍA stay aligned.
func PrintText(records []ticket.Record) string {
	var b strings.Builder
	b.WriteString("HOTSPOT USERS REPORT\n")
	b.WriteString(strings.Repeat("=", 30))
	b.WriteString("\n\n")

	b.WriteString(row([]string{"No.", "User", "Time", "Tag"}, []int{5, 16, 12, 5}))
	b.WriteString(strings.Repeat("-", 40))
	b.WriteString("\n")
	for _, r := range records {
		b.WriteString(row([]string{strconv.Itoa(r.Sequence), r.Username, r.DurationRaw, r.DurationTag}, []int{5, 16, 12, 5}))
	}
	return b.String()
}

// TabTable renders records as tab separated rows for pasting into a spreadsheet.
func TabTable(records []ticket.Record) string {
	lines := []string{strings.Join(csvHeader, "\t")}
	for _, r := range records {
		lines = append(lines, strings.Join(csvRow(r), "\t"))
	}
	return strings.Join(lines, "\n")
}

var csvHeader = []string{"#", "username", "profile", "duration", "tag", "status"}

func csvRow(r ticket.Record) []string {
	return []string{strconv.Itoa(r.Sequence), r.Username, r.Profile, r.DurationRaw, r.DurationTag, r.Status.String()}
}

// WriteCSV writes a flat record listing.
func WriteCSV(w io.Writer, records []ticket.Record) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}
	for _, r := range records {
		if err := cw.Write(csvRow(r)); err != nil {
			return fmt.Errorf("write csv row %d: %w", r.Sequence, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

func row(values []string, widths []int) string {
	cols := make([]string, len(values))
	for i, v := range values {
		if i == len(values)-1 {
			cols[i] = v
			continue
		}
		cols[i] = runewidth.FillRight(v, widths[i])
	}
	return strings.TrimRight(strings.Join(cols, " "), " ") + "\n"
}
