package core

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

const (
	Income  TransactionType = "income"
	Expense TransactionType = "expense"
)

const (
	maxDescriptionLen  = 200
	maxCategoryNameLen = 60
)

type (
	TransactionType string

	Date struct {
		time.Time
	}

	Category struct {
		ID           int64
		Name         string
		IsDefault    bool
		OriginalName string
	}

	Transaction struct {
		ID           int64
		Type         TransactionType
		Amount       decimal.Decimal
		Date         Date
		CategoryID   int64
		CategoryName string // denormalized at save time, may be empty
		Description  string
		IsEdited     bool
	}

	Budget struct {
		ID         int64
		Month      int
		Year       int
		CategoryID int64
		Amount     decimal.Decimal
	}
)

// PredefinedCategories ship with fixed negative ids so reseeding never
// collides with user categories.
var PredefinedCategories = []Category{
	{ID: -1, Name: "Comida", IsDefault: true, OriginalName: "Comida"},
	{ID: -2, Name: "Transporte", IsDefault: true, OriginalName: "Transporte"},
	{ID: -3, Name: "Vivienda", IsDefault: true, OriginalName: "Vivienda"},
	{ID: -4, Name: "Entretenimiento", IsDefault: true, OriginalName: "Entretenimiento"},
	{ID: -5, Name: "Salario", IsDefault: true, OriginalName: "Salario"},
	{ID: -6, Name: "Otros", IsDefault: true, OriginalName: "Otros"},
}

func (t TransactionType) Valid() bool {
	return t == Income || t == Expense
}

func ParseTransactionType(s string) (TransactionType, error) {
	t := TransactionType(strings.ToLower(strings.TrimSpace(s)))
	if !t.Valid() {
		return "", NewValidationError("type", fmt.Sprintf("unknown transaction type %q", s))
	}
	return t, nil
}

// NewDate creates a new Date from year, month, day
func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

// ParseDate accepts RFC 3339 timestamps and plain YYYY-MM-DD dates.
// The offset of the input is kept so month grouping matches what the user typed.
func ParseDate(s string) (Date, error) {
	s = strings.TrimSpace(s)
	for _, layout := range []string{time.RFC3339Nano, "2006-01-02T15:04", "2006-01-02"} {
		if t, err := time.Parse(layout, s); err == nil {
			return Date{Time: t}, nil
		}
	}
	return Date{}, NewValidationError("date", fmt.Sprintf("invalid date %q", s))
}

func (d Date) Validate() error {
	if d.IsZero() {
		return errors.New("date cannot be zero")
	}
	return nil
}

// Month returns the calendar month, 1-12
func (d Date) Month() int {
	return int(d.Time.Month())
}

// Year returns the four digit year
func (d Date) Year() int {
	return d.Time.Year()
}

func (d Date) Period() Period {
	return Period{Month: d.Month(), Year: d.Year()}
}

// String renders the date in ISO-8601 form, which is also the on-disk format.
func (d Date) String() string {
	return d.Time.Format(time.RFC3339Nano)
}

func (c Category) Validate() error {
	name := strings.TrimSpace(c.Name)
	if name == "" {
		return NewValidationError("name", "category name cannot be empty")
	}
	if len([]rune(name)) > maxCategoryNameLen {
		return NewValidationError("name", fmt.Sprintf("category name too long (max %d characters)", maxCategoryNameLen))
	}
	return nil
}

// SameName reports whether two category names collide. Uniqueness is
// case-insensitive and ignores surrounding whitespace.
func SameName(a, b string) bool {
	return strings.EqualFold(strings.TrimSpace(a), strings.TrimSpace(b))
}

func (t Transaction) Validate() error {
	var errs ValidationErrors
	if !t.Type.Valid() {
		errs.Add(NewValidationError("type", "transaction type must be income or expense"))
	}
	if err := ValidateAmount(t.Amount); err != nil {
		errs.Add(NewValidationError("amount", err.Error()))
	}
	if err := t.Date.Validate(); err != nil {
		errs.Add(NewValidationError("date", err.Error()))
	}
	if t.CategoryID == 0 {
		errs.Add(NewValidationError("categoryId", "category is required"))
	}
	if len([]rune(t.Description)) > maxDescriptionLen {
		errs.Add(NewValidationError("description", fmt.Sprintf("description too long (max %d characters)", maxDescriptionLen)))
	}
	return errs.OrNil()
}

func (b Budget) Validate() error {
	var errs ValidationErrors
	if b.Month < 1 || b.Month > 12 {
		errs.Add(NewValidationError("month", ErrInvalidMonth.Error()))
	}
	if b.Year < 1900 || b.Year > 9999 {
		errs.Add(NewValidationError("year", ErrInvalidYear.Error()))
	}
	if b.CategoryID == 0 {
		errs.Add(NewValidationError("categoryId", "category is required"))
	}
	if err := ValidateAmount(b.Amount); err != nil {
		errs.Add(NewValidationError("amount", err.Error()))
	}
	return errs.OrNil()
}

func (b Budget) Period() Period {
	return Period{Month: b.Month, Year: b.Year}
}
