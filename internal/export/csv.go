// Package export renders ordered records as CSV text.
package export

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"strconv"
	"time"

	"caseintake/internal/admin"
)

// Field is one named cell. A nil Value renders as an empty cell.
type Field struct {
	Name  string
	Value *string
}

// Record is one row; field order is column order.
type Record []Field

// Text builds a Field from a plain string.
func Text(name, value string) Field {
	return Field{Name: name, Value: &value}
}

// CSV renders records with the first record's field names as the header.
// Cells containing a comma, quote or line break are quoted with inner quotes
// doubled. Lines are separated by \n and the output has no trailing newline.
func CSV(records []Record) (string, error) {
	if len(records) == 0 {
		return "", nil
	}

	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	header := make([]string, len(records[0]))
	for i, f := range records[0] {
		header[i] = f.Name
	}
	if err := w.Write(header); err != nil {
		return "", fmt.Errorf("write header: %w", err)
	}

	row := make([]string, len(header))
	for n, rec := range records {
		if len(rec) != len(header) {
			return "", fmt.Errorf("record %d has %d fields, header has %d", n, len(rec), len(header))
		}
		for i, f := range rec {
			row[i] = ""
			if f.Value != nil {
				row[i] = *f.Value
			}
		}
		if err := w.Write(row); err != nil {
			return "", fmt.Errorf("write record %d: %w", n, err)
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return "", fmt.Errorf("flush csv: %w", err)
	}
	return string(bytes.TrimSuffix(buf.Bytes(), []byte("\n"))), nil
}

// StatusUnknown fills the Estado column when a user has no status.
const StatusUnknown = "No especificado"

// SummaryRecords maps a listing onto the export columns.
func SummaryRecords(list admin.Summaries) []Record {
	out := make([]Record, 0, len(list))
	for _, s := range list {
		status := s.Status()
		if status == "" {
			status = StatusUnknown
		}
		out = append(out, Record{
			Text("ID", strconv.FormatUint(uint64(s.ID), 10)),
			Text("NIF", s.NIF),
			Text("Nombre", s.FirstName),
			Text("Primer Apellido", s.FirstSurname),
			{Name: "Segundo Apellido", Value: s.SecondSurname},
			Text("Email", s.Email),
			{Name: "Teléfono", Value: s.Phone1},
			{Name: "Población", Value: s.City},
			Text("Fecha Alta", time.Time(s.IntakeDate).Format("2006-01-02")),
			Text("Estado", status),
		})
	}
	return out
}

// Filename returns "<prefix>_YYYY-MM-DD.csv" for t's calendar date.
func Filename(prefix string, t time.Time) string {
	return fmt.Sprintf("%s_%s.csv", prefix, t.Format("2006-01-02"))
}

// DefaultPrefix names user exports.
const DefaultPrefix = "usuarios"
