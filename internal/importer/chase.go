package importer

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/projectie-app/projectie/internal/model"
)

// ChaseParser parses Chase bank checking CSV exports. Posting dates are
// read as midnight in Location, or UTC when it is nil.
type ChaseParser struct {
	Location *time.Location
}

const (
	chaseDateFormat = "01/02/2006"
	chaseNumFields  = 7
	chaseColDate    = 1
	chaseColDesc    = 2
	chaseColAmount  = 3
	chaseColType    = 4
)

// Format returns the parser name.
func (p *ChaseParser) Format() string { return "chase" }

// Parse reads a Chase CSV and returns one-off transactions.
func (p *ChaseParser) Parse(r io.Reader) ([]model.Transaction, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = chaseNumFields

	records, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("reading chase CSV: %w", err)
	}

	if len(records) <= 1 {
		return nil, nil
	}

	loc := p.Location
	if loc == nil {
		loc = time.UTC
	}

	var txns []model.Transaction
	seen := make(map[string]int)
	for i, rec := range records[1:] {
		txn, err := parseChaseRow(rec, loc)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i+2, err)
		}
		// Same-day rows with the same description get _2, _3, ... in file order.
		seen[txn.Reference]++
		if n := seen[txn.Reference]; n > 1 {
			txn.Reference = fmt.Sprintf("%s_%d", txn.Reference, n)
		}
		txns = append(txns, txn)
	}
	return txns, nil
}

func parseChaseRow(rec []string, loc *time.Location) (model.Transaction, error) {
	date, err := time.ParseInLocation(chaseDateFormat, rec[chaseColDate], loc)
	if err != nil {
		return model.Transaction{}, fmt.Errorf("parsing date %q: %w", rec[chaseColDate], err)
	}

	amount, err := decimal.NewFromString(rec[chaseColAmount])
	if err != nil {
		return model.Transaction{}, fmt.Errorf("parsing amount %q: %w", rec[chaseColAmount], err)
	}

	desc := strings.TrimSpace(rec[chaseColDesc])
	return model.Transaction{
		Title:     desc,
		Amount:    amount,
		Date:      date,
		Note:      rec[chaseColType],
		Category:  Categorize(desc, amount),
		Reference: makeChaseRef(date, desc),
	}, nil
}

// makeChaseRef creates a reference like chase_20250103_NETFLIXCOM.
func makeChaseRef(date time.Time, desc string) string {
	prefix := strings.Map(func(r rune) rune {
		if r >= 'A' && r <= 'Z' || r >= 'a' && r <= 'z' || r >= '0' && r <= '9' {
			return r
		}
		return -1
	}, desc)
	if len(prefix) > 10 {
		prefix = prefix[:10]
	}
	return fmt.Sprintf("chase_%s_%s", date.Format("20060102"), prefix)
}
