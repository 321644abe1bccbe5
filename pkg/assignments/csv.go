package assignments

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"
)

// CSVHeaders are the exported columns, in order.
var CSVHeaders = []string{
	"title",
	"course",
	"dueDate",
	"dueTime",
	"priority",
	"estimateHours",
	"status",
	"notes",
	"remindAheadMinutes",
}

// ErrNoRows is returned when a CSV document has no data rows.
var ErrNoRows = errors.New("no rows found in CSV")

// WriteCSV writes items with a header row.
func WriteCSV(w io.Writer, items []*Assignment) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(CSVHeaders); err != nil {
		return err
	}
	for _, a := range items {
		rec := []string{
			a.Title,
			a.Course,
			a.DueDate,
			a.DueTime,
			string(a.Priority),
			strconv.FormatFloat(a.EstimateHours, 'f', -1, 64),
			string(a.Status),
			a.Notes,
			strconv.Itoa(a.RemindAhead.Int()),
		}
		if err := cw.Write(rec); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// ParseCSV reads assignments from a CSV document whose first row names the
// columns. Columns are matched by name, so order does not matter and missing
// columns read as empty. Every row gets a fresh identity and no reminder
// history.
func ParseCSV(r io.Reader, now time.Time) ([]*Assignment, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true

	var (
		index map[string]int
		out   []*Assignment
	)
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read CSV: %w", err)
		}
		if blankRecord(rec) {
			continue
		}
		if index == nil {
			index = make(map[string]int, len(rec))
			for i, h := range rec {
				h = strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))
				if _, dup := index[h]; !dup {
					index[h] = i
				}
			}
			continue
		}
		out = append(out, fromRecord(rec, index, now))
	}
	if len(out) == 0 {
		return nil, ErrNoRows
	}
	return out, nil
}

func fromRecord(rec []string, index map[string]int, now time.Time) *Assignment {
	col := func(name string) string {
		i, ok := index[name]
		if !ok || i >= len(rec) {
			return ""
		}
		return rec[i]
	}

	estimate, err := strconv.ParseFloat(strings.TrimSpace(col("estimateHours")), 64)
	if err != nil {
		estimate = 0
	}
	remind := NoReminder()
	if m, err := parseMinutes(col("remindAheadMinutes")); err == nil {
		remind = RemindBefore(m)
	}

	return &Assignment{
		ID:            NewID(),
		Title:         col("title"),
		Course:        col("course"),
		DueDate:       strings.TrimSpace(col("dueDate")),
		DueTime:       strings.TrimSpace(col("dueTime")),
		Priority:      ParsePriority(col("priority")),
		EstimateHours: estimate,
		Status:        ParseStatus(col("status")),
		Notes:         col("notes"),
		RemindAhead:   remind,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
}

func blankRecord(rec []string) bool {
	for _, f := range rec {
		if strings.TrimSpace(f) != "" {
			return false
		}
	}
	return true
}
