package storage

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"budgenet/internal/core"
)

// Index names, shared by every caller of FindByIndex, CountByIndex and
// DeleteAllByIndex.
const (
	IndexName           = "name"
	IndexType           = "type"
	IndexCategoryID     = "categoryId"
	IndexDate           = "date"
	IndexTypeCategoryID = "type_categoryId"
	IndexPeriod         = "period"
)

var categoryCodec = codec[core.Category]{
	table:   "categories",
	columns: []string{"name", "is_default", "original_name"},
	indexes: map[string][]string{
		IndexName: {"name"},
	},
	id: func(c core.Category) int64 { return c.ID },
	values: func(c core.Category) []any {
		return []any{strings.TrimSpace(c.Name), c.IsDefault, c.OriginalName}
	},
	scan: func(r rowScanner) (core.Category, error) {
		var c core.Category
		err := r.Scan(&c.ID, &c.Name, &c.IsDefault, &c.OriginalName)
		return c, err
	},
}

var transactionCodec = codec[core.Transaction]{
	table:   "transactions",
	columns: []string{"type", "amount", "date", "category_id", "category_name", "description", "is_edited"},
	indexes: map[string][]string{
		IndexType:           {"type"},
		IndexCategoryID:     {"category_id"},
		IndexDate:           {"date"},
		IndexTypeCategoryID: {"type", "category_id"},
	},
	id: func(t core.Transaction) int64 { return t.ID },
	values: func(t core.Transaction) []any {
		return []any{string(t.Type), t.Amount, t.Date.String(), t.CategoryID, t.CategoryName, t.Description, t.IsEdited}
	},
	scan: func(r rowScanner) (core.Transaction, error) {
		var (
			t    core.Transaction
			typ  string
			date string
		)
		if err := r.Scan(&t.ID, &typ, &t.Amount, &date, &t.CategoryID, &t.CategoryName, &t.Description, &t.IsEdited); err != nil {
			return t, err
		}
		ts, err := time.Parse(time.RFC3339Nano, date)
		if err != nil {
			return t, fmt.Errorf("parse date of transaction %d: %w", t.ID, err)
		}
		t.Type = core.TransactionType(typ)
		t.Date = core.Date{Time: ts}
		return t, nil
	},
}

var budgetCodec = codec[core.Budget]{
	table:   "budgets",
	columns: []string{"month", "year", "category_id", "amount"},
	indexes: map[string][]string{
		IndexCategoryID: {"category_id"},
		IndexPeriod:     {"month", "year"},
	},
	id: func(b core.Budget) int64 { return b.ID },
	values: func(b core.Budget) []any {
		return []any{b.Month, b.Year, b.CategoryID, b.Amount}
	},
	scan: func(r rowScanner) (core.Budget, error) {
		var b core.Budget
		err := r.Scan(&b.ID, &b.Month, &b.Year, &b.CategoryID, &b.Amount)
		return b, err
	},
}

// Filter narrows a transaction listing. Zero values match everything.
type Filter struct {
	Type       core.TransactionType
	CategoryID int64
	// SearchTerm matches description and category name, ignoring case.
	SearchTerm string
}

func (f Filter) Match(t core.Transaction) bool {
	if f.Type != "" && t.Type != f.Type {
		return false
	}
	if f.CategoryID != 0 && t.CategoryID != f.CategoryID {
		return false
	}
	if term := strings.ToLower(strings.TrimSpace(f.SearchTerm)); term != "" {
		if !strings.Contains(strings.ToLower(t.Description), term) &&
			!strings.Contains(strings.ToLower(t.CategoryName), term) {
			return false
		}
	}
	return true
}

type TransactionCollection struct {
	*Collection[core.Transaction]
}

// Query scans the whole collection and keeps what f matches, newest first.
func (c *TransactionCollection) Query(ctx context.Context, f Filter) ([]core.Transaction, error) {
	all, err := c.GetAll(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]core.Transaction, 0, len(all))
	for _, t := range all {
		if f.Match(t) {
			out = append(out, t)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].Date.Equal(out[j].Date.Time) {
			return out[i].Date.After(out[j].Date.Time)
		}
		return out[i].ID > out[j].ID
	})
	return out, nil
}
