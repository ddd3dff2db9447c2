package shared

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// ═══════════════════════════════════════════════════════════════════════════
// AcademicYear Value Object
// ═══════════════════════════════════════════════════════════════════════════

// AcademicYear is the starting calendar year of an academic year (2020 means 2020-21).
type AcademicYear int

const (
	MinAcademicYear AcademicYear = 1900
	MaxAcademicYear AcademicYear = 2999
)

// IsValid checks if the year is within a plausible range.
func (y AcademicYear) IsValid() bool {
	return y >= MinAcademicYear && y <= MaxAcademicYear
}

// Int returns the underlying int value.
func (y AcademicYear) Int() int {
	return int(y)
}

// String returns the display form, e.g. "2020-21".
func (y AcademicYear) String() string {
	return fmt.Sprintf("%d-%02d", int(y), (int(y)+1)%100)
}

// NewAcademicYear creates a new AcademicYear with validation.
func NewAcademicYear(year int) (AcademicYear, error) {
	y := AcademicYear(year)
	if !y.IsValid() {
		return 0, NewDomainError("shared", "NewAcademicYear", ErrValueOutOfRange, "academic year out of range")
	}
	return y, nil
}

// ═══════════════════════════════════════════════════════════════════════════
// Volume helpers
// ═══════════════════════════════════════════════════════════════════════════

// Hours builds a filled NullDecimal, handy for fixtures and tests.
func Hours(v float64) decimal.NullDecimal {
	return decimal.NewNullDecimal(decimal.NewFromFloat(v))
}

// NoHours is an absent volume.
var NoHours = decimal.NullDecimal{}

// OrZero returns the volume, or zero when it is absent.
func OrZero(v decimal.NullDecimal) decimal.Decimal {
	if !v.Valid {
		return decimal.Zero
	}
	return v.Decimal
}

// IsFilled reports whether a volume is present and non-zero.
func IsFilled(v decimal.NullDecimal) bool {
	return v.Valid && !v.Decimal.IsZero()
}
