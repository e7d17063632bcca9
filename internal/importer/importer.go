// Package importer turns bank CSV exports into one-off transactions.
package importer

import (
	"fmt"
	"io"
	"maps"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/projectie-app/projectie/internal/model"
)

// Parser converts a bank CSV file into transactions. Parsed transactions
// carry no id or account; the tracker assigns both when storing them.
type Parser interface {
	Parse(r io.Reader) ([]model.Transaction, error)
	Format() string
}

// Registry holds named parsers.
type Registry struct {
	parsers map[string]Parser
}

// NewRegistry creates an empty parser registry.
func NewRegistry() *Registry {
	return &Registry{parsers: make(map[string]Parser)}
}

// Register adds a parser. Panics on duplicate format.
func (r *Registry) Register(p Parser) {
	key := strings.ToLower(p.Format())
	if _, ok := r.parsers[key]; ok {
		panic("duplicate parser format: " + key)
	}
	r.parsers[key] = p
}

// Get returns the parser for format, or nil.
func (r *Registry) Get(format string) Parser {
	return r.parsers[strings.ToLower(format)]
}

// Formats returns the registered format names.
func (r *Registry) Formats() []string {
	return slices.Sorted(maps.Keys(r.parsers))
}

// DefaultRegistry returns a registry with all built-in parsers reading
// dates in loc.
func DefaultRegistry(loc *time.Location) *Registry {
	r := NewRegistry()
	r.Register(&ChaseParser{Location: loc})
	return r
}

// ParseFile opens path and parses it with p.
func ParseFile(p Parser, path string) ([]model.Transaction, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", filepath.Base(path), err)
	}
	defer f.Close()

	txns, err := p.Parse(f)
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", filepath.Base(path), err)
	}
	return txns, nil
}

// keyword rules are checked in order; the first match wins.
var keywordRules = []struct {
	keyword  string
	category string
}{
	{"PAYROLL", "salary"},
	{"SALARY", "salary"},
	{"INTEREST", "interest"},
	{"REFUND", "refund"},
	{"RENT", "rent"},
	{"SUBSCRIPTION", "subscriptions"},
	{"NETFLIX", "subscriptions"},
	{"SPOTIFY", "subscriptions"},
	{"WHOLE FOODS", "groceries"},
	{"SAFEWAY", "groceries"},
	{"TRADER JOE", "groceries"},
	{"GROCER", "groceries"},
	{"UBER", "transport"},
	{"LYFT", "transport"},
	{"SHELL", "transport"},
	{"ELECTRIC", "utilities"},
	{"WATER", "utilities"},
	{"PHARMACY", "health"},
	{"RESTAURANT", "dining"},
	{"AMAZON", "shopping"},
}

// Categorize guesses a category from a bank description. Unmatched
// descriptions fall back to "other".
func Categorize(desc string, amount decimal.Decimal) string {
	upper := strings.ToUpper(desc)
	for _, rule := range keywordRules {
		if !strings.Contains(upper, rule.keyword) {
			continue
		}
		c := model.LookupCategory(rule.category)
		// A keyword never flips the direction of money.
		if (c.Kind == model.CategoryIncome) == amount.IsNegative() {
			continue
		}
		return c.Key
	}
	return model.CategoryOther
}
