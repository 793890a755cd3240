package money

import (
	"errors"
	"strings"

	"github.com/shopspring/decimal"
)

var ErrNegativeAmount = errors.New("amount cannot be negative")

// Money is a fixed-point monetary amount. All engine outputs are rounded to
// two decimal places, half away from zero.
type Money struct {
	amount decimal.Decimal
}

func Zero() Money {
	return Money{amount: decimal.Zero}
}

func FromFloat(v float64) Money {
	return Money{amount: decimal.NewFromFloat(v)}
}

func FromDecimal(d decimal.Decimal) Money {
	return Money{amount: d}
}

// Parse reads a decimal string, typically a numeric database column.
// A string that is not a valid decimal is an error, never treated as zero.
func Parse(s string) (Money, error) {
	d, err := decimal.NewFromString(strings.TrimSpace(s))
	if err != nil {
		return Money{}, err
	}
	return Money{amount: d}, nil
}

func New(v float64) (Money, error) {
	if v < 0 {
		return Money{}, ErrNegativeAmount
	}
	return FromFloat(v), nil
}

func (m Money) Add(other Money) Money {
	return Money{amount: m.amount.Add(other.amount)}
}

func (m Money) Sub(other Money) Money {
	return Money{amount: m.amount.Sub(other.amount)}
}

func (m Money) MulInt(n int64) Money {
	return Money{amount: m.amount.Mul(decimal.NewFromInt(n))}
}

func (m Money) MulFloat(f float64) Money {
	return Money{amount: m.amount.Mul(decimal.NewFromFloat(f))}
}

// Round2 applies the engine-wide rounding rule: two decimal places,
// half away from zero.
func (m Money) Round2() Money {
	return Money{amount: m.amount.Round(2)}
}

func (m Money) IsZero() bool {
	return m.amount.IsZero()
}

func (m Money) IsNegative() bool {
	return m.amount.IsNegative()
}

func (m Money) IsPositive() bool {
	return m.amount.IsPositive()
}

func (m Money) Equal(other Money) bool {
	return m.amount.Equal(other.amount)
}

func (m Money) Cmp(other Money) int {
	return m.amount.Cmp(other.amount)
}

func (m Money) Decimal() decimal.Decimal {
	return m.amount
}

func (m Money) Float64() float64 {
	f, _ := m.amount.Float64()
	return f
}

func (m Money) String() string {
	return m.amount.StringFixed(2)
}
