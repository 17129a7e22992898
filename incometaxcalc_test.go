package japanrealestate

import (
	"math"
	"strings"
	"testing"
	"time"
)

// Income Tax Calculation Tests
//
// Reference values were worked out by hand from the NTA employment income
// conversion table and the national bracket table, cross-checked against
// https://www.nta.go.jp/tetsuzuki/shinkoku/shotoku/tebiki2016/pdf/01.pdf

const taxTolerance = 0.50

func assertTaxEquals(t *testing.T, expected, actual float64, description string) {
	t.Helper()
	if math.Abs(expected-actual) > taxTolerance {
		t.Errorf("%s: expected ¥%.2f, got ¥%.2f (diff: ¥%.2f)",
			description, expected, actual, actual-expected)
	}
}

// =============================================================================
// Social Security Tests
// =============================================================================

func TestIncomeTax_SocialSecurityEstimate(t *testing.T) {
	calc, err := NewIncomeTaxCalc(IncomeTaxCalc{EmploymentIncome: 10000000})
	if err != nil {
		t.Fatalf("NewIncomeTaxCalc: %v", err)
	}
	if calc.SocialSecurityExpense == nil {
		t.Fatal("Social security expense was not estimated")
	}
	// min(10M, 1.39M×12) × 9.96% health + min(10M, 635k×12) × 18.3% pension, half employer-paid
	assertTaxEquals(t, 1195230, *calc.SocialSecurityExpense, "Estimated social security at ¥10M salary")
}

func TestIncomeTax_SocialSecuritySupplied(t *testing.T) {
	expense := 200000.0
	calc, err := NewIncomeTaxCalc(IncomeTaxCalc{
		EmploymentIncome:      10000000,
		SocialSecurityExpense: &expense,
	})
	if err != nil {
		t.Fatalf("NewIncomeTaxCalc: %v", err)
	}
	assertTaxEquals(t, 200000, *calc.SocialSecurityExpense, "Supplied social security is kept")
}

// =============================================================================
// Employment Income Conversion Tests
// =============================================================================

func TestIncomeTax_EmploymentIncomeForTax(t *testing.T) {
	tests := []struct {
		gross       float64
		expected    float64
		description string
	}{
		{600000, 0, "below the tax-free threshold"},
		{1000000, 350000, "subtract ¥650k band"},
		{1619500, 969000, "fixed amount band"},
		{1700000, 1020000, "quarter-rounded ×2.4 band"},
		{3000000, 1920000, "quarter-rounded ×2.8 band"},
		{5000000, 3460000, "quarter-rounded ×3.2 band"},
		{10000000, 7800000, "95% band"},
		{20000000, 17700000, "top band subtracts ¥2.3M"},
	}

	for _, tc := range tests {
		t.Run(tc.description, func(t *testing.T) {
			calc, err := NewIncomeTaxCalc(IncomeTaxCalc{EmploymentIncome: tc.gross})
			if err != nil {
				t.Fatalf("NewIncomeTaxCalc: %v", err)
			}
			assertTaxEquals(t, tc.expected, calc.EmploymentIncomeForTax, tc.description)
		})
	}
}

func TestIncomeTax_RentProgram(t *testing.T) {
	base := IncomeTaxCalc{
		EmploymentIncome: 10000000,
		Rent:             150000 * 12,
	}

	calc, err := NewIncomeTaxCalc(base)
	if err != nil {
		t.Fatalf("NewIncomeTaxCalc: %v", err)
	}
	assertTaxEquals(t, 10000000, calc.EmploymentIncomeAfterRentProgram,
		"No rent program leaves income untouched")

	base.IsRentProgram = true
	calc, err = NewIncomeTaxCalc(base)
	if err != nil {
		t.Fatalf("NewIncomeTaxCalc: %v", err)
	}
	// 95% of rent paid by the employer pre-tax
	assertTaxEquals(t, 10000000-150000*12*0.95, calc.EmploymentIncomeAfterRentProgram,
		"Rent program reduces taxable salary")
}

// =============================================================================
// Bracket Tests
// =============================================================================

func TestIncomeTax_BracketLookup(t *testing.T) {
	tests := []struct {
		income       float64
		expectedRate float64
		description  string
	}{
		{0, 0.05, "zero income"},
		{-1, 0.05, "below table clamps to lowest"},
		{1950000, 0.05, "upper bound of first bracket"},
		{1950001, 0.10, "lower bound of second bracket"},
		{10000000, 0.33, "mid-table income"},
		{40000001, 0.45, "lower bound of top bracket"},
		{1000000000, 0.45, "above table clamps to highest"},
	}

	for _, tc := range tests {
		t.Run(tc.description, func(t *testing.T) {
			bracket := LookupTaxBracket(tc.income, NationalIncomeTaxTable)
			if bracket.Rate != tc.expectedRate {
				t.Errorf("Income ¥%.0f: expected rate %.2f, got %.2f",
					tc.income, tc.expectedRate, bracket.Rate)
			}
		})
	}
}

func TestIncomeTax_NationalTaxRestorationSurtax(t *testing.T) {
	calc := IncomeTaxCalc{TaxableIncome: 50000000}
	calc.calculateNationalIncomeTaxBracket()
	calc.calculateNationalIncomeTaxRate()

	// (50M - 40,000,001) × 45% + ¥13,204,000 from the lower brackets
	calc.CurrentDate = time.Date(2040, time.December, 25, 0, 0, 0, 0, time.UTC)
	calc.calculateNationalIncomeTax()
	assertTaxEquals(t, 17703999, calc.NationalIncomeTax, "Top bracket without restoration surtax")

	calc.CurrentDate = time.Date(2016, time.December, 25, 0, 0, 0, 0, time.UTC)
	calc.calculateNationalIncomeTax()
	assertTaxEquals(t, 18075783, calc.NationalIncomeTax, "Top bracket with 2.1% restoration surtax")
}

func TestIncomeTax_LocalTax(t *testing.T) {
	calc := IncomeTaxCalc{TaxableIncome: 10000000}

	calc.IsResidentForTaxPurposes = false
	calc.calculateLocalIncomeTax()
	assertTaxEquals(t, 0, calc.LocalIncomeTax, "Non-residents pay no inhabitants tax")

	calc.IsResidentForTaxPurposes = true
	calc.calculateLocalIncomeTax()
	assertTaxEquals(t, 1000000, calc.LocalIncomeTax, "Residents pay a flat 10%")
}

func TestIncomeTax_TaxDeduction(t *testing.T) {
	calc := IncomeTaxCalc{NationalIncomeTax: 3000000, LocalIncomeTax: 1000000}

	calc.calculateTotalIncomeTax()
	assertTaxEquals(t, 4000000, calc.TotalIncomeTax, "No deduction")

	calc.TaxDeduction = 500000
	calc.calculateTotalIncomeTax()
	assertTaxEquals(t, 3500000, calc.TotalIncomeTax, "Deduction reduces tax one for one")

	calc.TaxDeduction = 5000000
	calc.calculateTotalIncomeTax()
	assertTaxEquals(t, 0, calc.TotalIncomeTax, "Tax is floored at zero")
}

// =============================================================================
// Deduction Tests
// =============================================================================

func TestIncomeTax_MedicalExpenseCap(t *testing.T) {
	base := IncomeTaxCalc{
		EmploymentIncome:         20000000,
		MedicalExpense:           2000000,
		IsResidentForTaxPurposes: true,
		CurrentDate:              time.Date(2016, time.January, 1, 0, 0, 0, 0, time.UTC),
	}
	atCap, err := NewIncomeTaxCalc(base)
	if err != nil {
		t.Fatalf("NewIncomeTaxCalc: %v", err)
	}

	base.MedicalExpense = 2500000
	overCap, err := NewIncomeTaxCalc(base)
	if err != nil {
		t.Fatalf("NewIncomeTaxCalc: %v", err)
	}

	if atCap.TotalIncomeTax != overCap.TotalIncomeTax {
		t.Errorf("Medical expenses above the ¥2M cap should not lower tax further: ¥%.0f vs ¥%.0f",
			atCap.TotalIncomeTax, overCap.TotalIncomeTax)
	}
}

func TestIncomeTax_DependentDeduction(t *testing.T) {
	calc := IncomeTaxCalc{NumberOfDependents: 3}
	calc.calculateDeductionDependents()
	assertTaxEquals(t, 1140000, calc.DeductionDependents, "¥380k per dependent")
}

// =============================================================================
// Full Pipeline Regression Test
// =============================================================================

func TestIncomeTax_Regression(t *testing.T) {
	// A high earner on the rent program with rental income on the side.
	calc, err := NewIncomeTaxCalc(IncomeTaxCalc{
		EmploymentIncome:         20000000,
		Rent:                     2400000,
		IsRentProgram:            true,
		OtherIncome:              1000000,
		LifeInsurancePremium:     30000,
		MedicalExpense:           10000,
		NumberOfDependents:       2,
		TaxDeduction:             100000,
		IsResidentForTaxPurposes: true,
		CurrentDate:              time.Date(2016, time.January, 1, 0, 0, 0, 0, time.UTC),
	})
	if err != nil {
		t.Fatalf("NewIncomeTaxCalc: %v", err)
	}

	assertTaxEquals(t, 21000000, calc.TotalIncome, "Total cash income")
	assertTaxEquals(t, 17720000, calc.EmploymentIncomeAfterRentProgram, "Salary after rent program")
	if calc.SocialSecurityExpense == nil {
		t.Fatal("Social security expense was not estimated")
	}
	assertTaxEquals(t, 1527894, *calc.SocialSecurityExpense, "Estimated social security")
	assertTaxEquals(t, 15420000, calc.EmploymentIncomeForTax, "Employment income for tax")
	assertTaxEquals(t, 13712106, calc.TaxableIncome, "Taxable income")
	assertTaxEquals(t, 3051763, calc.NationalIncomeTax, "National income tax (with surtax)")
	assertTaxEquals(t, 1371210.6, calc.LocalIncomeTax, "Local inhabitants tax")
	assertTaxEquals(t, 4322973.6, calc.TotalIncomeTax, "Total income tax after deduction")

	if math.Abs(calc.EffectiveTaxRate-0.27861) > 0.0001 {
		t.Errorf("Effective tax rate: expected 0.27861, got %.5f", calc.EffectiveTaxRate)
	}

	t.Logf("Effective tax rate at ¥21M total income: %.2f%%", calc.EffectiveTaxRate*100)
}

func TestIncomeTax_ZeroIncome(t *testing.T) {
	calc, err := NewIncomeTaxCalc(IncomeTaxCalc{})
	if err != nil {
		t.Fatalf("NewIncomeTaxCalc: %v", err)
	}
	if calc.TotalIncomeTax != 0 {
		t.Errorf("Zero income should mean zero tax, got ¥%.0f", calc.TotalIncomeTax)
	}
	if calc.EffectiveTaxRate != 0 {
		t.Errorf("Zero income should mean a zero effective rate, got %.5f", calc.EffectiveTaxRate)
	}
}

// =============================================================================
// Clone and Validation Tests
// =============================================================================

func TestIncomeTax_CloneIndependence(t *testing.T) {
	original, err := NewIncomeTaxCalc(IncomeTaxCalc{
		EmploymentIncome:         10000000,
		IsResidentForTaxPurposes: true,
		CurrentDate:              time.Date(2016, time.January, 1, 0, 0, 0, 0, time.UTC),
	})
	if err != nil {
		t.Fatalf("NewIncomeTaxCalc: %v", err)
	}
	taxBefore := original.TotalIncomeTax
	expenseBefore := *original.SocialSecurityExpense

	clone := original.Clone()
	clone.OtherIncome = 5000000
	*clone.SocialSecurityExpense = 0
	if err := clone.CalculateAllFields(); err != nil {
		t.Fatalf("CalculateAllFields: %v", err)
	}

	if original.TotalIncomeTax != taxBefore {
		t.Errorf("Recalculating a clone changed the original's tax: ¥%.0f vs ¥%.0f",
			original.TotalIncomeTax, taxBefore)
	}
	if *original.SocialSecurityExpense != expenseBefore {
		t.Errorf("Clone shares the social security pointer with the original")
	}
	if clone.TotalIncomeTax <= taxBefore {
		t.Errorf("Clone with extra income should owe more tax: ¥%.0f vs ¥%.0f",
			clone.TotalIncomeTax, taxBefore)
	}
}

func TestIncomeTax_Validation(t *testing.T) {
	negative := -1.0
	tests := []struct {
		calc        IncomeTaxCalc
		wantErr     string
		description string
	}{
		{IncomeTaxCalc{EmploymentIncome: -1}, "employment_income", "negative employment income"},
		{IncomeTaxCalc{Rent: -1}, "rent", "negative rent"},
		{IncomeTaxCalc{LifeInsurancePremium: -1}, "life_insurance_premium", "negative life insurance"},
		{IncomeTaxCalc{MedicalExpense: -1}, "medical_expense", "negative medical expense"},
		{IncomeTaxCalc{NumberOfDependents: -1}, "number_of_dependents", "negative dependents"},
		{IncomeTaxCalc{TaxDeduction: -1}, "tax_deduction", "negative tax deduction"},
		{IncomeTaxCalc{SocialSecurityExpense: &negative}, "social_security_expense", "negative social security"},
	}

	for _, tc := range tests {
		t.Run(tc.description, func(t *testing.T) {
			_, err := NewIncomeTaxCalc(tc.calc)
			if err == nil {
				t.Fatalf("expected an error for %s", tc.description)
			}
			if !strings.Contains(err.Error(), tc.wantErr) {
				t.Errorf("error %q should mention %q", err, tc.wantErr)
			}
		})
	}

	// Negative other income is legitimate (e.g. rental losses)
	if _, err := NewIncomeTaxCalc(IncomeTaxCalc{OtherIncome: -1000000}); err != nil {
		t.Errorf("Negative other income should be accepted, got %v", err)
	}
}
