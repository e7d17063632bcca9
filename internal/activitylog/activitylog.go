// Package activitylog keeps an append-only CSV record of what the archive
// sweep did to stored transactions.
package activitylog

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// Actions written by the sweep.
const (
	ActionArchive      = "archive_occurrence"
	ActionSkipMissing  = "skip_missing_date"
	ActionDeleteParent = "delete_exhausted_parent"
)

// Entry is one row in the activity log.
type Entry struct {
	Timestamp     time.Time
	Action        string
	TransactionID string
	Occurrence    time.Time
	ArchivedID    string
}

// Header is the CSV header for activity.csv.
const Header = "timestamp,action,transaction_id,occurrence_date,archived_id"

// FileName is the log file inside the log directory.
const FileName = "activity.csv"

const (
	numFields     = 5
	dateLayout    = "2006-01-02"
	colTimestamp  = 0
	colAction     = 1
	colTxnID      = 2
	colOccurrence = 3
	colArchivedID = 4
)

// MarshalEntry converts an Entry to a CSV row.
func MarshalEntry(e Entry) []string {
	row := make([]string, numFields)
	row[colTimestamp] = e.Timestamp.Format(time.RFC3339)
	row[colAction] = e.Action
	row[colTxnID] = e.TransactionID
	if !e.Occurrence.IsZero() {
		row[colOccurrence] = e.Occurrence.Format(dateLayout)
	}
	row[colArchivedID] = e.ArchivedID
	return row
}

// UnmarshalEntry converts a CSV row to an Entry.
func UnmarshalEntry(record []string) (Entry, error) {
	if len(record) != numFields {
		return Entry{}, fmt.Errorf("expected %d fields, got %d", numFields, len(record))
	}

	ts, err := time.Parse(time.RFC3339, record[colTimestamp])
	if err != nil {
		return Entry{}, fmt.Errorf("parsing timestamp %q: %w", record[colTimestamp], err)
	}

	var occ time.Time
	if record[colOccurrence] != "" {
		occ, err = time.Parse(dateLayout, record[colOccurrence])
		if err != nil {
			return Entry{}, fmt.Errorf("parsing occurrence_date %q: %w", record[colOccurrence], err)
		}
	}

	return Entry{
		Timestamp:     ts,
		Action:        record[colAction],
		TransactionID: record[colTxnID],
		Occurrence:    occ,
		ArchivedID:    record[colArchivedID],
	}, nil
}

// Log appends to <dir>/activity.csv.
type Log struct {
	dir string
}

// New returns a Log writing into dir.
func New(dir string) *Log {
	return &Log{dir: dir}
}

// Path returns the log file path.
func (l *Log) Path() string {
	return filepath.Join(l.dir, FileName)
}

// Append writes entries, creating the directory, file and header if needed.
func (l *Log) Append(entries ...Entry) error {
	if len(entries) == 0 {
		return nil
	}
	if err := os.MkdirAll(l.dir, 0o755); err != nil {
		return fmt.Errorf("creating log dir: %w", err)
	}

	path := l.Path()
	needsHeader := false
	if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
		needsHeader = true
	}

	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("opening activity log: %w", err)
	}
	defer f.Close()

	cw := csv.NewWriter(f)
	if needsHeader {
		if err := cw.Write(strings.Split(Header, ",")); err != nil {
			return fmt.Errorf("writing header: %w", err)
		}
	}
	for i, e := range entries {
		if err := cw.Write(MarshalEntry(e)); err != nil {
			return fmt.Errorf("writing entry %d: %w", i, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// Read returns all entries. A missing file yields no entries.
func (l *Log) Read() ([]Entry, error) {
	f, err := os.Open(l.Path())
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("opening activity log: %w", err)
	}
	defer f.Close()

	return readEntries(f)
}

func readEntries(r io.Reader) ([]Entry, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = numFields

	records, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("reading activity log CSV: %w", err)
	}
	if len(records) <= 1 {
		return nil, nil
	}

	var entries []Entry
	for i, rec := range records[1:] {
		e, err := UnmarshalEntry(rec)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i+2, err)
		}
		entries = append(entries, e)
	}
	return entries, nil
}
