package core

import (
	"fmt"
	"time"
)

// Period is a calendar month. Two timestamps in the same month and year
// belong to the same period regardless of day or time.
type Period struct {
	Month int
	Year  int
}

func PeriodOf(t time.Time) Period {
	return Period{Month: int(t.Month()), Year: t.Year()}
}

func (p Period) Validate() error {
	if p.Month < 1 || p.Month > 12 {
		return ErrInvalidMonth
	}
	if p.Year < 1 {
		return ErrInvalidYear
	}
	return nil
}

// Add moves the period n months forward (or backward for negative n),
// rolling over year boundaries.
func (p Period) Add(n int) Period {
	idx := p.Year*12 + (p.Month - 1) + n
	year := idx / 12
	month := idx % 12
	if month < 0 {
		month += 12
		year--
	}
	return Period{Month: month + 1, Year: year}
}

func (p Period) Contains(d Date) bool {
	return d.Month() == p.Month && d.Year() == p.Year
}

func (p Period) Before(o Period) bool {
	if p.Year != o.Year {
		return p.Year < o.Year
	}
	return p.Month < o.Month
}

func (p Period) String() string {
	return fmt.Sprintf("%04d-%02d", p.Year, p.Month)
}
