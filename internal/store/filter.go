package store

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// ErrUnknownColumn is returned for predicates on columns the ledger does
// not have.
var ErrUnknownColumn = errors.New("unknown ledger column")

// Predicate selects ledger rows. Only types in this package implement it.
type Predicate interface {
	predicateNode()
}

// Equals matches rows whose column equals Value.
type Equals struct {
	Column string
	Value  any
}

func (Equals) predicateNode() {}

// CreatedSince matches rows recorded at or after Time.
type CreatedSince struct {
	Time time.Time
}

func (CreatedSince) predicateNode() {}

// And matches rows every predicate matches. An empty And matches all rows.
type And struct {
	Predicates []Predicate
}

func (And) predicateNode() {}

// filterColumns are the columns a predicate may name.
var filterColumns = map[string]bool{
	"model_name": true,
	"guid":       true,
	"platform":   true,
	"sha256":     true,
}

// compilePredicate turns p into a parameterized WHERE expression. Values
// are always passed as parameters.
func compilePredicate(p Predicate) (string, []any, error) {
	switch pred := p.(type) {
	case Equals:
		if !filterColumns[pred.Column] {
			return "", nil, fmt.Errorf("%w: %q", ErrUnknownColumn, pred.Column)
		}
		return pred.Column + " = ?", []any{pred.Value}, nil
	case CreatedSince:
		return "julianday(created_at) >= julianday(?)", []any{pred.Time.UTC().Format(time.RFC3339Nano)}, nil
	case And:
		if len(pred.Predicates) == 0 {
			return "1 = 1", nil, nil
		}
		parts := make([]string, 0, len(pred.Predicates))
		var params []any
		for _, sub := range pred.Predicates {
			sql, subParams, err := compilePredicate(sub)
			if err != nil {
				return "", nil, err
			}
			parts = append(parts, sql)
			params = append(params, subParams...)
		}
		return strings.Join(parts, " AND "), params, nil
	case nil:
		return "1 = 1", nil, nil
	default:
		return "", nil, fmt.Errorf("unsupported predicate %T", p)
	}
}
