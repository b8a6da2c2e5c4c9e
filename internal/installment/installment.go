// Package installment computes the monthly payment schedule of a sale.
package installment

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

var (
	ErrInvalidTotal    = errors.New("total amount must be greater than zero")
	ErrInvalidAdvance  = errors.New("advance amount must not be negative")
	ErrAdvanceTooLarge = errors.New("advance amount must not exceed total amount")
	ErrInvalidDuration = errors.New("duration must be at least one month")
)

// Schedule is one generated installment, not yet persisted.
type Schedule struct {
	Amount  decimal.Decimal
	DueDate time.Time
}

// Generate splits total minus advance into duration monthly installments.
// Each installment is the even share rounded half-up to cents; the last one
// takes whatever is left so the schedule sums to the remaining balance
// exactly. Installment i falls due at the start of the day i+1 months after
// now, in now's location, clamped to the end of shorter months.
func Generate(total, advance decimal.Decimal, duration int, now time.Time) ([]Schedule, error) {
	if !total.IsPositive() {
		return nil, ErrInvalidTotal
	}
	if advance.IsNegative() {
		return nil, ErrInvalidAdvance
	}
	if advance.GreaterThan(total) {
		return nil, ErrAdvanceTooLarge
	}
	if duration < 1 {
		return nil, ErrInvalidDuration
	}

	remaining := total.Sub(advance)
	n := decimal.NewFromInt(int64(duration))
	per := remaining.Div(n).Round(2)
	if per.Mul(n.Sub(decimal.NewFromInt(1))).GreaterThan(remaining) {
		// rounding up would leave the last installment negative
		per = remaining.Div(n).RoundDown(2)
	}
	start := StartOfDay(now)

	out := make([]Schedule, duration)
	allocated := decimal.Zero
	for i := 0; i < duration; i++ {
		amount := per
		if i == duration-1 {
			amount = remaining.Sub(allocated)
		}
		allocated = allocated.Add(amount)
		out[i] = Schedule{
			Amount:  amount,
			DueDate: AddMonths(start, i+1),
		}
	}
	return out, nil
}

func StartOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// AddMonths moves t forward by months calendar months, keeping the day of
// month unless the target month is shorter.
func AddMonths(t time.Time, months int) time.Time {
	y, m, d := t.Date()
	first := time.Date(y, m+time.Month(months), 1, t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), t.Location())
	last := first.AddDate(0, 1, -1).Day()
	if d > last {
		d = last
	}
	return first.AddDate(0, 0, d-1)
}
