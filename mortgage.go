package japanrealestate

import (
	"fmt"
	"math"
)

// Mortgage calculates the economics of a fixed-rate, fixed-payment loan.
//
// Construct with NewMortgage, or fill the input fields directly and call
// CalculateAllFields. Derived fields are only refreshed by an explicit
// recalculation; mutating an input leaves them stale until then.
type Mortgage struct {
	Principal float64 // Total loan principal
	Tenor     int     // Term of loan in years
	Rate      float64 // Annual interest rate in decimal (0.008 for 0.8%)

	// Derived fields. Schedules have one entry per month; index i is
	// financial period i+1.
	InterestSchedule     []float64
	PrincipalSchedule    []float64
	AmortizationSchedule []float64
	MonthlyPayment       float64
}

// NewMortgage validates the loan terms and computes the full schedule.
//
// e.g. a 100M loan paid back over 35 years at a fixed 0.8%:
//
//	loan, err := NewMortgage(100e6, 35, 0.008)
//	payment := loan.MonthlyPayment
func NewMortgage(principal float64, tenor int, rate float64) (*Mortgage, error) {
	m := &Mortgage{Principal: principal, Tenor: tenor, Rate: rate}
	if err := m.CalculateAllFields(); err != nil {
		return nil, err
	}
	return m, nil
}

// Validate checks the loan terms without recalculating.
func (m *Mortgage) Validate() error {
	if m.Principal < 0 {
		return fmt.Errorf("mortgage: principal must not be negative, got %.0f", m.Principal)
	}
	if m.Rate < 0 {
		return fmt.Errorf("mortgage: rate must not be negative, got %f", m.Rate)
	}
	if m.Tenor < 0 {
		return fmt.Errorf("mortgage: tenor must not be negative, got %d", m.Tenor)
	}
	if m.Principal > 0 && m.Tenor == 0 {
		return fmt.Errorf("mortgage: tenor must be positive for a principal of %.0f", m.Principal)
	}
	return nil
}

// CalculateAllFields recomputes every derived field from the inputs.
func (m *Mortgage) CalculateAllFields() error {
	if err := m.Validate(); err != nil {
		return err
	}

	months := m.Tenor * 12
	m.InterestSchedule = make([]float64, months)
	m.PrincipalSchedule = make([]float64, months)
	m.AmortizationSchedule = make([]float64, months)

	if months == 0 {
		m.MonthlyPayment = 0
		return nil
	}

	if m.Rate == 0 {
		// Degenerate case: equal principal payments, no interest.
		payment := m.Principal / float64(months)
		for i := range m.PrincipalSchedule {
			m.PrincipalSchedule[i] = payment
			m.AmortizationSchedule[i] = payment
		}
		m.MonthlyPayment = payment
		return nil
	}

	// Fixed payment from the annuity formula, then the interest/principal
	// split from the closed-form balance before each period:
	//   M = P * r(1+r)^n / ((1+r)^n - 1)
	//   B(k) = P(1+r)^k - M((1+r)^k - 1)/r
	r := m.Rate / 12
	growth := math.Pow(1+r, float64(months))
	payment := m.Principal * r * growth / (growth - 1)
	for i := 0; i < months; i++ {
		f := math.Pow(1+r, float64(i))
		balance := m.Principal*f - payment*(f-1)/r
		interest := balance * r
		m.InterestSchedule[i] = interest
		m.PrincipalSchedule[i] = payment - interest
		m.AmortizationSchedule[i] = payment
	}
	m.MonthlyPayment = payment
	return nil
}

// InterestForYear returns the interest paid during loan year (0-based).
// Years past the tenor return 0.
func (m *Mortgage) InterestForYear(year int) float64 {
	return sumRange(m.InterestSchedule, year*12, year*12+12)
}

// PrincipalForYear returns the principal repaid during loan year (0-based).
func (m *Mortgage) PrincipalForYear(year int) float64 {
	return sumRange(m.PrincipalSchedule, year*12, year*12+12)
}

// OutstandingAfterMonth returns the principal still owed after the first
// `month` monthly payments have been made.
func (m *Mortgage) OutstandingAfterMonth(month int) float64 {
	return sumRange(m.PrincipalSchedule, month, len(m.PrincipalSchedule))
}

// PaymentsRemainingFromMonth returns the total of all payments still due
// after the first `month` monthly payments have been made.
func (m *Mortgage) PaymentsRemainingFromMonth(month int) float64 {
	return sumRange(m.AmortizationSchedule, month, len(m.AmortizationSchedule))
}

func sumRange(values []float64, from, to int) float64 {
	if from < 0 {
		from = 0
	}
	if to > len(values) {
		to = len(values)
	}
	total := 0.0
	for i := from; i < to; i++ {
		total += values[i]
	}
	return total
}
