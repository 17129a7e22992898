package japanrealestate

import (
	"fmt"
	"math"
	"time"
)

// IncomeTaxCalc calculates Japanese income taxes and post-tax income for an
// individual. https://home.kpmg.com/xx/en/home/insights/2011/12/japan-income-tax.html
// is a good resource for the underlying logic.
//
// Not exhaustive. Example issues not dealt with: unreimbursed
// employment-related expenditures, capital gains deduction, occasional income
// deduction, medical expense qualifying conditions, donations, earthquake
// insurance, relief for foreign taxes paid, spouse deductions, retirement
// income, and tax laws only applicable prior to December 2016.
//
// Construct with NewIncomeTaxCalc. Derived fields are refreshed only by an
// explicit call to CalculateAllFields; after overriding any input, call it
// again or derived fields stay stale. This is deliberate so intermediate
// values can be inspected and overridden for what-if analysis.
type IncomeTaxCalc struct {
	EmploymentIncome         float64   // Annual employment income before any rent program deduction
	Rent                     float64   // Annual rent actually paid to the landlord
	IsRentProgram            bool      // True if rent is deducted from taxable income by the employer
	OtherIncome              float64   // Net income from real estate etc. May be negative.
	LifeInsurancePremium     float64   // Annual life insurance premium
	MedicalExpense           float64   // Annual unreimbursed medical expenses
	NumberOfDependents       int       // Claimed tax dependents
	SocialSecurityExpense    *float64  // Annual social security expense. nil = estimate from salary.
	TaxDeduction             float64   // Deduction from taxes due (not from taxable income), e.g. home loan deduction
	IsResidentForTaxPurposes bool      // Residents also pay local inhabitants tax
	CurrentDate              time.Time // Date the tax is calculated for. Zero value = today.

	// Derived fields.
	TotalIncome                      float64 // Real cash flow income
	EmploymentIncomeAfterRentProgram float64
	EmploymentIncomeDeduction        float64 // Deduction allowed for employment income (for reference)
	EmploymentIncomeForTax           float64 // Employment income for tax purposes after deduction
	TotalIncomeForTax                float64
	DeductionDependents              float64
	DeductionTotal                   float64
	TaxableIncome                    float64
	NationalIncomeTaxBracket         TaxBracket // Bracket matching TaxableIncome
	NationalIncomeTaxRate            float64    // Marginal rate from the bracket
	NationalIncomeTax                float64
	LocalIncomeTax                   float64 // aka local inhabitants tax
	TotalIncomeTax                   float64
	NetIncomeAfterTax                float64 // Cash flow after taxes and social insurance
	EffectiveTaxRate                 float64
}

// TaxBracket is one row of a progressive tax table. Bounds are inclusive.
type TaxBracket struct {
	Lower               float64
	Upper               float64
	Rate                float64 // Marginal rate applied to income above Lower
	PreviousBracketsSum float64 // Sum of taxes for all previous brackets
}

const (
	deductionBasic        = 380000 // Basic deduction each tax individual receives
	deductionPerDependent = 380000
	legalRentRate         = 0.95 // Portion of rent deducted pre-tax under the rent program

	localIncomeTaxRate  = 0.04 + 0.06 // 4% prefectural + 6% municipal
	healthInsuranceRate = 0.0996      // Tokyo
	socialPensionRate   = 0.183       // Expected as of Sept 2017
)

// NationalIncomeTaxTable is the progressive national bracket table, ascending.
// tax = PreviousBracketsSum + (taxable - Lower) * Rate
var NationalIncomeTaxTable = []TaxBracket{
	{0, 1950000, 0.05, 0},
	{1950001, 3300000, 0.10, 97500},
	{3300001, 6950000, 0.20, 232500},
	{6950001, 9000000, 0.23, 962500},
	{9000001, 18000000, 0.33, 1434000},
	{18000001, 40000000, 0.40, 4404000},
	{40000001, math.Inf(1), 0.45, 13204000},
}

// The net revenue (所得) for employment income is derived from the gross
// amount (収入) by this table. See page 9 of
// http://www.nta.go.jp/tetsuzuki/shinkoku/shotoku/tebiki2016/pdf/01.pdf
type employmentIncomeRule struct {
	lower, upper float64
	convert      func(x float64) float64
}

var employmentIncomeForTaxTable = []employmentIncomeRule{
	{0, 650999, func(x float64) float64 { return 0 }},
	{651000, 1618999, func(x float64) float64 { return x - 650000 }},
	{1619000, 1619999, func(x float64) float64 { return 969000 }},
	{1620000, 1621999, func(x float64) float64 { return 970000 }},
	{1622000, 1623999, func(x float64) float64 { return 972000 }},
	{1624000, 1627999, func(x float64) float64 { return 974000 }},
	{1628000, 1799999, func(x float64) float64 { return roundToThousandQuarter(x) * 2.4 }},
	{1800000, 3599999, func(x float64) float64 { return roundToThousandQuarter(x)*2.8 - 180000 }},
	{3600000, 6599999, func(x float64) float64 { return roundToThousandQuarter(x)*3.2 - 540000 }},
	{6600000, 9999999, func(x float64) float64 { return x*0.9 - 1200000 }},
	{10000000, 11999999, func(x float64) float64 { return x*0.95 - 1700000 }},
	{12000000, math.Inf(1), func(x float64) float64 { return x - 2300000 }},
}

func roundToThousandQuarter(x float64) float64 {
	return math.Round(x/(4*1000)) * 1000
}

// NewIncomeTaxCalc validates the inputs and computes all derived fields.
func NewIncomeTaxCalc(calc IncomeTaxCalc) (*IncomeTaxCalc, error) {
	c := calc
	if err := c.CalculateAllFields(); err != nil {
		return nil, err
	}
	return &c, nil
}

// Validate checks the raw inputs without recalculating.
func (c *IncomeTaxCalc) Validate() error {
	// OtherIncome may legitimately be negative (e.g. rental losses).
	for _, check := range []struct {
		name  string
		value float64
	}{
		{"employment_income", c.EmploymentIncome},
		{"rent", c.Rent},
		{"life_insurance_premium", c.LifeInsurancePremium},
		{"medical_expense", c.MedicalExpense},
		{"tax_deduction", c.TaxDeduction},
	} {
		if check.value < 0 {
			return fmt.Errorf("income tax: %s must not be negative, got %.0f", check.name, check.value)
		}
	}
	if c.NumberOfDependents < 0 {
		return fmt.Errorf("income tax: number_of_dependents must not be negative, got %d", c.NumberOfDependents)
	}
	if c.SocialSecurityExpense != nil && *c.SocialSecurityExpense < 0 {
		return fmt.Errorf("income tax: social_security_expense must not be negative, got %.0f", *c.SocialSecurityExpense)
	}
	return nil
}

// CalculateAllFields recomputes every derived field from the inputs, in
// dependency order.
func (c *IncomeTaxCalc) CalculateAllFields() error {
	if err := c.Validate(); err != nil {
		return err
	}
	c.calculateCurrentDate()
	c.calculateTotalIncome()
	c.calculateEmploymentIncomeAfterRentProgram()
	c.calculateSocialSecurityExpense()
	c.calculateEmploymentIncomeForTax()
	c.calculateEmploymentIncomeDeduction()
	c.calculateTotalIncomeForTax()
	c.calculateDeductionDependents()
	c.calculateDeductionTotal()
	c.calculateTaxableIncome()
	c.calculateNationalIncomeTaxBracket()
	c.calculateNationalIncomeTaxRate()
	c.calculateNationalIncomeTax()
	c.calculateLocalIncomeTax()
	c.calculateTotalIncomeTax()
	c.calculateNetIncomeAfterTax()
	c.calculateEffectiveTaxRate()
	return nil
}

// Clone returns a deep copy, so what-if overrides never touch the original.
func (c *IncomeTaxCalc) Clone() *IncomeTaxCalc {
	clone := *c
	if c.SocialSecurityExpense != nil {
		v := *c.SocialSecurityExpense
		clone.SocialSecurityExpense = &v
	}
	return &clone
}

func (c *IncomeTaxCalc) calculateCurrentDate() {
	if c.CurrentDate.IsZero() {
		c.CurrentDate = time.Now()
	}
}

func (c *IncomeTaxCalc) calculateTotalIncome() {
	c.TotalIncome = c.EmploymentIncome + c.OtherIncome
}

func (c *IncomeTaxCalc) calculateEmploymentIncomeAfterRentProgram() {
	c.EmploymentIncomeAfterRentProgram = c.EmploymentIncome
	if c.IsRentProgram {
		c.EmploymentIncomeAfterRentProgram -= c.Rent * legalRentRate
	}
}

// calculateSocialSecurityExpense defaults the social security expense to a
// sensible estimate when none was supplied, and writes it back so it can be
// inspected after recalculation.
//
// Social security insurance consists of health insurance, social pension
// insurance, nursing (40-65 year olds) and children upbringing. Only the
// first two are dealt with here; half is paid by the employer. The exact
// formula varies by region/age/children and needs a large lookup table, so
// this approximation is used instead. Details:
// http://www.shigakukyosai.jp/en/about/en_about_premiumchart2016_9.pdf
// http://www.htm.co.jp/payroll-social-insurance-practices-japan.htm
func (c *IncomeTaxCalc) calculateSocialSecurityExpense() {
	if c.SocialSecurityExpense != nil {
		return
	}
	healthStandardSalary := math.Min(c.EmploymentIncomeAfterRentProgram, 1390000*12)
	healthExpense := healthStandardSalary * healthInsuranceRate

	pensionStandardSalary := math.Min(c.EmploymentIncomeAfterRentProgram, 635000*12)
	pensionExpense := pensionStandardSalary * socialPensionRate

	expense := math.Trunc((healthExpense + pensionExpense) * 0.5) // Half paid by employer
	c.SocialSecurityExpense = &expense
}

// calculateEmploymentIncomeForTax converts actual annual employment income
// into the income used for tax calculations.
func (c *IncomeTaxCalc) calculateEmploymentIncomeForTax() {
	rule := lookupEmploymentIncomeRule(c.EmploymentIncomeAfterRentProgram)
	c.EmploymentIncomeForTax = math.Min(
		math.Trunc(rule.convert(c.EmploymentIncomeAfterRentProgram)),
		c.EmploymentIncomeAfterRentProgram,
	)
}

// calculateEmploymentIncomeDeduction is just for reference.
func (c *IncomeTaxCalc) calculateEmploymentIncomeDeduction() {
	c.EmploymentIncomeDeduction = c.EmploymentIncomeAfterRentProgram - c.EmploymentIncomeForTax
}

func (c *IncomeTaxCalc) calculateTotalIncomeForTax() {
	c.TotalIncomeForTax = c.EmploymentIncomeForTax + c.OtherIncome
}

func (c *IncomeTaxCalc) calculateDeductionDependents() {
	c.DeductionDependents = float64(c.NumberOfDependents) * deductionPerDependent
}

func (c *IncomeTaxCalc) calculateDeductionTotal() {
	c.DeductionTotal = math.Min(2000000, c.MedicalExpense) +
		*c.SocialSecurityExpense +
		c.LifeInsurancePremium +
		deductionBasic +
		c.DeductionDependents
}

func (c *IncomeTaxCalc) calculateTaxableIncome() {
	// Floored at 0 since tax losses and credits are not handled here.
	c.TaxableIncome = math.Max(0, c.TotalIncomeForTax-c.DeductionTotal)
}

func (c *IncomeTaxCalc) calculateNationalIncomeTaxBracket() {
	c.NationalIncomeTaxBracket = LookupTaxBracket(c.TaxableIncome, NationalIncomeTaxTable)
}

func (c *IncomeTaxCalc) calculateNationalIncomeTaxRate() {
	c.NationalIncomeTaxRate = c.NationalIncomeTaxBracket.Rate
}

func (c *IncomeTaxCalc) calculateNationalIncomeTax() {
	marginalIncome := c.TaxableIncome - c.NationalIncomeTaxBracket.Lower
	totalTax := c.NationalIncomeTaxBracket.PreviousBracketsSum + marginalIncome*c.NationalIncomeTaxRate

	// Restoration tax is multiplied on top of national income tax only.
	// (There is also a 10 year ¥1000 inhabitant tax increase, not
	// implemented as it is insignificant.)
	if c.CurrentDate.Before(RestorationTaxExpiry) {
		totalTax *= 1 + RestorationTax
	}
	c.NationalIncomeTax = math.Trunc(totalTax)
}

func (c *IncomeTaxCalc) calculateLocalIncomeTax() {
	c.LocalIncomeTax = 0
	if c.IsResidentForTaxPurposes {
		c.LocalIncomeTax = localIncomeTaxRate * c.TaxableIncome
	}
}

func (c *IncomeTaxCalc) calculateTotalIncomeTax() {
	c.TotalIncomeTax = math.Max(0, c.NationalIncomeTax+c.LocalIncomeTax-c.TaxDeduction)
}

func (c *IncomeTaxCalc) calculateNetIncomeAfterTax() {
	c.NetIncomeAfterTax = c.TotalIncome - c.TotalIncomeTax - *c.SocialSecurityExpense
}

func (c *IncomeTaxCalc) calculateEffectiveTaxRate() {
	if c.TotalIncome == 0 {
		c.EffectiveTaxRate = 0
		return
	}
	c.EffectiveTaxRate = 1 - c.NetIncomeAfterTax/c.TotalIncome
}

// LookupTaxBracket finds the bracket whose inclusive bounds contain income.
// Income below the lowest threshold resolves to the lowest bracket and income
// above the highest to the highest; lookups never fail.
func LookupTaxBracket(income float64, table []TaxBracket) TaxBracket {
	for _, bracket := range table {
		if income >= bracket.Lower && income <= bracket.Upper {
			return bracket
		}
	}
	if income < table[0].Lower {
		return table[0]
	}
	return table[len(table)-1]
}

func lookupEmploymentIncomeRule(income float64) employmentIncomeRule {
	for _, rule := range employmentIncomeForTaxTable {
		if income >= rule.lower && income <= rule.upper {
			return rule
		}
	}
	if income < employmentIncomeForTaxTable[0].lower {
		return employmentIncomeForTaxTable[0]
	}
	return employmentIncomeForTaxTable[len(employmentIncomeForTaxTable)-1]
}
