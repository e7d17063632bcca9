package commands

import (
	"fmt"
	"strings"

	"github.com/projectie-app/projectie/internal/model"
)

// matchRef finds the single record whose id equals ref, whose id starts
// with ref, or whose name equals ref (case-insensitive).
func matchRef[T any](kind, ref string, items []T, idOf, nameOf func(T) string) (T, error) {
	var zero T
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return zero, fmt.Errorf("empty %s reference", kind)
	}

	var matches []T
	for _, it := range items {
		if idOf(it) == ref {
			return it, nil
		}
		if strings.HasPrefix(idOf(it), ref) || strings.EqualFold(nameOf(it), ref) {
			matches = append(matches, it)
		}
	}
	switch len(matches) {
	case 0:
		return zero, fmt.Errorf("no %s matches %q", kind, ref)
	case 1:
		return matches[0], nil
	default:
		return zero, fmt.Errorf("%q matches %d %ss; use a longer id", ref, len(matches), kind)
	}
}

func matchAccount(ref string, accts []model.Account) (model.Account, error) {
	return matchRef("account", ref, accts,
		func(a model.Account) string { return a.ID },
		func(a model.Account) string { return a.Name })
}

func matchTransaction(ref string, txns []model.Transaction) (model.Transaction, error) {
	return matchRef("transaction", ref, txns,
		func(t model.Transaction) string { return t.ID },
		func(t model.Transaction) string { return t.Title })
}

func matchGoal(ref string, goals []model.Goal) (model.Goal, error) {
	return matchRef("goal", ref, goals,
		func(g model.Goal) string { return g.ID },
		func(g model.Goal) string { return g.Title })
}
