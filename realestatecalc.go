package japanrealestate

import (
	"fmt"
	"math"
	"time"
)

// RealEstateCalc calculates the economics of owning real estate in Japan as
// an individual (not a corporation).
//
// Excluded here: cash flow timings and tax withholding, entrepreneurial tax,
// corporate contracts and commercial real estate, mid-year purchases and
// sales, property tax exclusions for low value land, alternative acquisition
// cost methods for capital gains, owning more than one non-investment
// property, tax on income made from a primary residence, joint financing
// (joint ownership for the capital gains deduction is supported), and any
// modeling of yield changes over time.
//
// Useful background:
// http://www.akasakarealestate.com/wiki/index.php
// http://japanpropertycentral.com/real-estate-faq/capital-gains-tax/
// http://investment-japan.jp/japantaxonproperty/2994.html
//
// Construct with NewRealEstateCalc so the defaults below are in place, set
// the inputs, then call CalculateAllFields. As with the other calculators,
// derived fields stay stale after an input change until the next explicit
// recalculation; this allows overriding intermediate values for what-if
// analysis.
type RealEstateCalc struct {
	// Initial purchase.
	PurchaseDate           time.Time // Zero value = today
	PurchasePrice          float64   // Market value of property
	BuildingToLandRatio    float64   // Building portion of the price, decimal. Normally in the contract.
	Size                   float64   // Square metres
	Age                    int       // Property age in years. 0 = brand new.
	MortgageLoanToValue    float64   // Financed % of the bank-assessed value, decimal. 0 = all cash.
	BankValuationToActual  float64   // Bank assessed value / actual market value
	MortgageTenor          int       // Years
	MortgageRate           float64   // Annual, decimal
	MortgageInitiationFees float64   // Sum of all fees paid for initiating the mortgage
	RenovationCost         float64   // Paid to renovate after purchase

	// Applied to both purchase and sale.
	AgentFeeVariable     float64 // % of property value paid to the agent, decimal
	AgentFeeFixed        float64 // Fees paid to the agent on top of variable fees
	OtherTransactionFees float64 // Stamp duty, acquisition tax, scrivener fee etc, % of value

	// Ongoing concern.
	MonthlyFees         float64        // Monthly management and sinking fund fees
	PropertyTaxRate     float64        // Annual % of purchase price. Normally 0.3% to 0.5% of market value.
	MaintenancePerM2    float64        // Annual maintenance per square metre
	UsefulLife          int            // Years for building book value to depreciate to zero. 47 = reinforced concrete.
	CalcYear            int            // Year income and capital gains are calculated for. 0 = purchase year.
	IncomeTaxCalculator *IncomeTaxCalc // Tax profile excluding the real estate income calculated here

	// Renting out the real estate.
	GrossRentalYield           float64 // Annual rent as % of purchase price, before fees
	RenewalIncomeRate          float64 // % of annual rent the tenant pays on renewal, incl. key money
	RentalManagementRentalFee  float64 // % of annual rent to the agent, excl. consumption tax
	RentalManagementRenewalFee float64 // % of annual rent to the agent on renewal, excl. consumption tax

	// Final disposal.
	IsPrimaryResidence       int // 0 = investment property, 1 = yes, 2 = jointly owned with spouse
	IsResidentForTaxPurposes bool
	SalePrice                *float64 // nil = estimate from the depreciation model

	// Acquisition derived fields.
	PurchasePriceFinanced        float64   // Amount of purchase price loaned by bank
	Mortgage                     *Mortgage // nil for all cash purchases
	PurchasePriceBuilding        float64   // Purchase price allocated to building
	PurchasePriceLand            float64   // Purchase price allocated to land
	PurchaseAgentFee             float64
	PurchaseOtherTransactionFees float64
	PurchasePriceAndFees         float64 // Total expense for purchase including all fees and taxes
	PurchaseInitialOutlay        float64 // Amount paid upfront, i.e. not financed

	// Ongoing derived fields. Fields from CalcDate down vary by CalcYear
	// because mortgage payments, interest and cumulative depreciation do.
	DepreciationYears              int     // Years over which building value depreciates to zero
	DepreciationPercentage         float64 // Annual % of building value depreciated (straight line)
	DepreciationAnnual             float64
	RentalIncome                   float64 // Annual income from tenant rental
	RenewalIncome                  float64 // Annual income from tenant renewing lease
	TotalIncome                    float64
	MaintenanceExpense             float64
	MonthlyFeesAnnualized          float64
	RentalManagementRenewalExpense float64
	RentalManagementRentalExpense  float64
	RentalManagementTotalExpense   float64
	PropertyTaxExpense             float64
	CalcDate                       time.Time // Date corresponding to CalcYear
	TotalExpense                   float64   // Annual total. Excludes PurchaseInitialOutlay, it is not recurring.
	NetIncomeBeforeTaxes           float64   // Actual cash flow income after expenses and mortgage payment
	Depreciation                   float64   // Depreciation for CalcYear
	NetIncomeTaxable               float64   // After expenses, depreciation and interest. Zero for primary residences.
	HomeLoanDeduction              float64   // Tax relief for loan financed primary residences
	IncomeTax                      float64   // Total annual income tax, real estate plus the tax profile
	IncomeTaxRealEstate            float64   // Tax owed on real estate income only
	IncomeTaxShield                float64   // Income tax not paid as a result of a tax loss on the property
	NetIncomeAfterTaxes            float64
	CumulativeNetIncome            float64 // Sum of NetIncomeAfterTaxes from purchase year through CalcYear
	MortgageAmountOutstanding      float64 // Loan outstanding after CalcYear ends

	// Disposal derived fields.
	DepreciationCumulative                   float64
	DepreciatedBuildingValue                 float64 // Book value of building when sold
	BookValue                                float64 // Land value + depreciated building value
	EquityValue                              float64 // BookValue after loan is paid back
	SaleValue                                float64 // SalePrice if given, otherwise BookValue
	SaleAgentFee                             float64
	SaleOtherTransactionFees                 float64
	SaleProceedsAfterFees                    float64
	AcquisitionCost                          float64 // Base for the capital gains calculation
	CapitalGainsTaxPrimaryResidenceDeduction float64
	CapitalGains                             float64 // Capital gains that will be taxed
	CapitalGainsTaxRate                      float64
	CapitalGainsTax                          float64
	SaleProceedsNet                          float64 // Sale proceeds after fees and taxes
	NetProfitOnRealEstate                    float64 // Including past income, after selling and repaying the loan
}

// Real estate constants.
const (
	// Lease renewed every 2 years with one month of rent paid by the tenant.
	renewalIncomeRateDefault = 1.0 / 24

	// 5% seems normal in Tokyo.
	rentalManagementFeeDefault = 0.05

	// Agent takes one month for a new tenant, half a month for an existing
	// one. Contract renews every two years, 50% of the time a new tenant.
	rentalManagementRenewalDefault = (1.0/24 + 0.5/24) / 2

	// Second hand properties deduct 80% of the age from the useful life.
	depreciationAgeFactorSecondHand = 0.8

	// http://japanpropertycentral.com/real-estate-faq/capital-gains-tax/
	// http://www.akasakarealestate.com/wiki/index.php/Taxes#Capital_Gains
	capitalGainsTaxShortNational  = 0.30
	capitalGainsTaxShortMunicipal = 0.09
	capitalGainsTaxLongNational   = 0.15
	capitalGainsTaxLongMunicipal  = 0.05

	capitalGainsPrimaryResidenceDeduction = 30000000
)

// NewRealEstateCalc returns a calculator with the customary defaults filled
// in: 70% building to land, bank valuation at par, ¥1000/m² maintenance, 47
// year useful life (reinforced concrete) and Tokyo rental management fees.
// Set the scenario inputs and call CalculateAllFields.
func NewRealEstateCalc() *RealEstateCalc {
	return &RealEstateCalc{
		BuildingToLandRatio:        0.7,
		BankValuationToActual:      1,
		MaintenancePerM2:           1000,
		UsefulLife:                 47,
		RenewalIncomeRate:          renewalIncomeRateDefault,
		RentalManagementRentalFee:  rentalManagementFeeDefault,
		RentalManagementRenewalFee: rentalManagementRenewalDefault,
	}
}

// Validate checks the raw inputs without recalculating.
func (c *RealEstateCalc) Validate() error {
	for _, check := range []struct {
		name  string
		value float64
	}{
		{"purchase_price", c.PurchasePrice},
		{"size", c.Size},
		{"mortgage_loan_to_value", c.MortgageLoanToValue},
		{"bank_valuation_to_actual", c.BankValuationToActual},
		{"mortgage_rate", c.MortgageRate},
		{"mortgage_initiation_fees", c.MortgageInitiationFees},
		{"renovation_cost", c.RenovationCost},
		{"agent_fee_variable", c.AgentFeeVariable},
		{"agent_fee_fixed", c.AgentFeeFixed},
		{"other_transaction_fees", c.OtherTransactionFees},
		{"monthly_fees", c.MonthlyFees},
		{"property_tax_rate", c.PropertyTaxRate},
		{"maintenance_per_m2", c.MaintenancePerM2},
		{"gross_rental_yield", c.GrossRentalYield},
		{"renewal_income_rate", c.RenewalIncomeRate},
		{"rental_management_rental_fee", c.RentalManagementRentalFee},
		{"rental_management_renewal_fee", c.RentalManagementRenewalFee},
	} {
		if check.value < 0 {
			return fmt.Errorf("real estate: %s must not be negative, got %g", check.name, check.value)
		}
	}
	if c.BuildingToLandRatio < 0 || c.BuildingToLandRatio > 1 {
		return fmt.Errorf("real estate: building_to_land_ratio must be between 0 and 1, got %g", c.BuildingToLandRatio)
	}
	if c.Age < 0 {
		return fmt.Errorf("real estate: age must not be negative, got %d", c.Age)
	}
	if c.MortgageTenor < 0 {
		return fmt.Errorf("real estate: mortgage_tenor must not be negative, got %d", c.MortgageTenor)
	}
	if c.UsefulLife < 0 {
		return fmt.Errorf("real estate: useful_life must not be negative, got %d", c.UsefulLife)
	}
	if c.CalcYear < 0 {
		return fmt.Errorf("real estate: calc_year must not be negative, got %d", c.CalcYear)
	}
	if c.IsPrimaryResidence < 0 || c.IsPrimaryResidence > 2 {
		return fmt.Errorf("real estate: %d is not a valid value for is_primary_residence", c.IsPrimaryResidence)
	}
	if c.SalePrice != nil && *c.SalePrice < 0 {
		return fmt.Errorf("real estate: sale_price must not be negative, got %.0f", *c.SalePrice)
	}
	return nil
}

// CalculateAllFields recomputes every derived field from the inputs:
// acquisition, then ongoing, then disposal.
func (c *RealEstateCalc) CalculateAllFields() error {
	if err := c.Validate(); err != nil {
		return err
	}
	c.calculatePurchaseDate()
	if err := c.CalculateAcquisitionFields(); err != nil {
		return err
	}
	c.CalculateOngoingFields()
	c.CalculateDisposalFields()
	return nil
}

func (c *RealEstateCalc) calculatePurchaseDate() {
	if c.PurchaseDate.IsZero() {
		c.PurchaseDate = time.Now()
	}
}

// CalculateAcquisitionFields derives the purchase-time fields and builds the
// mortgage when part of the price is financed.
func (c *RealEstateCalc) CalculateAcquisitionFields() error {
	c.PurchasePriceFinanced = math.Trunc(c.PurchasePrice * c.BankValuationToActual * c.MortgageLoanToValue)

	c.Mortgage = nil
	if c.PurchasePriceFinanced > 0 {
		mortgage, err := NewMortgage(c.PurchasePriceFinanced, c.MortgageTenor, c.MortgageRate)
		if err != nil {
			return err
		}
		c.Mortgage = mortgage
	}

	// New properties are bought from developers and therefore incur
	// consumption tax on the building (never on land). Existing properties
	// are usually sales between individuals, which are exempt.
	// http://www.realestate-tokyo.com/news/consumption-tax-for-property/
	c.PurchasePriceBuilding = math.Trunc(c.PurchasePrice * c.BuildingToLandRatio)
	if c.Age == 0 {
		c.PurchasePriceBuilding *= 1 + ConsumptionTax
	}
	c.PurchasePriceLand = c.PurchasePrice - c.PurchasePriceBuilding

	c.PurchaseAgentFee = math.Trunc((c.PurchasePrice*c.AgentFeeVariable + c.AgentFeeFixed) * (1 + ConsumptionTax))
	c.PurchaseOtherTransactionFees = math.Trunc(c.PurchasePrice * c.OtherTransactionFees)
	c.PurchasePriceAndFees = math.Trunc(c.PurchasePrice +
		c.PurchaseAgentFee +
		c.PurchaseOtherTransactionFees +
		c.MortgageInitiationFees +
		c.RenovationCost)

	// Not part of net income, it is financing rather than investment economics.
	c.PurchaseInitialOutlay = c.PurchasePriceAndFees - c.PurchasePriceFinanced
	return nil
}

// CalculateOngoingFields derives the recurring income, expense and tax
// fields, including everything that varies with CalcYear.
func (c *RealEstateCalc) CalculateOngoingFields() {
	// Second hand properties deduct 80% of the age, truncated down, and a
	// building cannot depreciate past its useful life.
	// http://www.akasakarealestate.com/wiki/index.php/Taxes#Depreciation_Deduction_for_Income_Tax
	if c.Age == 0 {
		c.DepreciationYears = c.UsefulLife
	} else {
		ageForDepreciation := float64(min(c.UsefulLife, c.Age)) * depreciationAgeFactorSecondHand
		c.DepreciationYears = int(float64(c.UsefulLife) - ageForDepreciation)
	}
	c.DepreciationPercentage = 0
	if c.DepreciationYears != 0 {
		c.DepreciationPercentage = 1 / float64(c.DepreciationYears)
	}
	c.DepreciationAnnual = math.Trunc(c.PurchasePriceBuilding * c.DepreciationPercentage)

	c.RentalIncome = math.Trunc(c.PurchasePrice * c.GrossRentalYield)
	c.RenewalIncome = math.Trunc(c.RenewalIncomeRate * c.RentalIncome)
	c.TotalIncome = c.RentalIncome + c.RenewalIncome

	c.MaintenanceExpense = math.Trunc(c.MaintenancePerM2 * c.Size)
	c.MonthlyFeesAnnualized = c.MonthlyFees * 12
	c.RentalManagementRenewalExpense = math.Trunc(c.RentalIncome * c.RentalManagementRenewalFee * (1 + ConsumptionTax))
	c.RentalManagementRentalExpense = math.Trunc(c.RentalIncome * c.RentalManagementRentalFee * (1 + ConsumptionTax))
	c.RentalManagementTotalExpense = c.RentalManagementRenewalExpense + c.RentalManagementRentalExpense
	c.PropertyTaxExpense = math.Trunc(c.PurchasePrice * c.PropertyTaxRate)

	c.CalcDate = c.calcDateForYear(c.CalcYear)
	c.TotalExpense = c.totalExpenseForYear(c.CalcYear)
	c.NetIncomeBeforeTaxes = c.TotalIncome - c.TotalExpense
	c.Depreciation = c.depreciationForYear(c.CalcYear)
	c.NetIncomeTaxable = c.netIncomeTaxableForYear(c.CalcYear)
	c.HomeLoanDeduction = c.homeLoanDeductionForYear(c.CalcYear)
	c.IncomeTax = c.incomeTaxForYear(c.CalcYear)
	c.IncomeTaxRealEstate = c.incomeTaxRealEstateForYear(c.CalcYear)
	c.IncomeTaxShield = c.incomeTaxShieldForYear(c.CalcYear)
	c.NetIncomeAfterTaxes = c.netIncomeAfterTaxesForYear(c.CalcYear)

	c.CumulativeNetIncome = 0
	for year := 0; year <= c.CalcYear; year++ {
		c.CumulativeNetIncome += c.netIncomeAfterTaxesForYear(year)
	}

	c.MortgageAmountOutstanding = 0
	if c.Mortgage != nil {
		c.MortgageAmountOutstanding = math.Trunc(c.Mortgage.OutstandingAfterMonth((c.CalcYear + 1) * 12))
	}
}

// CalculateDisposalFields derives the sale and capital gains fields for a
// sale at the end of CalcYear.
func (c *RealEstateCalc) CalculateDisposalFields() {
	c.DepreciationCumulative = 0
	for year := 0; year <= c.CalcYear; year++ {
		c.DepreciationCumulative += c.depreciationForYear(year)
	}
	c.DepreciatedBuildingValue = math.Trunc(c.PurchasePriceBuilding - c.DepreciationCumulative)
	c.BookValue = math.Trunc(c.PurchasePriceLand + c.DepreciatedBuildingValue)
	c.EquityValue = math.Trunc(c.BookValue - c.MortgageAmountOutstanding)

	c.SaleValue = c.BookValue
	if c.SalePrice != nil {
		c.SaleValue = *c.SalePrice
	}
	c.SaleAgentFee = math.Trunc((c.SaleValue*c.AgentFeeVariable + c.AgentFeeFixed) * (1 + ConsumptionTax))
	c.SaleOtherTransactionFees = math.Trunc(c.SaleValue * c.OtherTransactionFees)
	c.SaleProceedsAfterFees = c.SaleValue - c.SaleAgentFee - c.SaleOtherTransactionFees

	// Differs from PurchasePriceAndFees in that mortgage fees are not
	// relevant for capital gains tax.
	c.AcquisitionCost = c.PurchasePrice +
		c.PurchaseAgentFee +
		c.PurchaseOtherTransactionFees +
		c.RenovationCost

	c.CapitalGainsTaxPrimaryResidenceDeduction = capitalGainsPrimaryResidenceDeduction * float64(c.IsPrimaryResidence)
	c.CapitalGains = math.Max(0, c.SaleProceedsAfterFees-(c.AcquisitionCost-c.DepreciationCumulative))

	// Not exhaustive (e.g. the divided rate for primary residences held
	// more than 10 years is missing) but realistic most of the time.
	if c.CalcYear < 5 {
		c.CapitalGainsTaxRate = capitalGainsTaxShortNational
		if c.IsResidentForTaxPurposes {
			c.CapitalGainsTaxRate += capitalGainsTaxShortMunicipal
		}
	} else {
		c.CapitalGainsTaxRate = capitalGainsTaxLongNational
		if c.IsResidentForTaxPurposes {
			c.CapitalGainsTaxRate += capitalGainsTaxLongMunicipal
		}
	}
	if c.CalcDate.Before(RestorationTaxExpiry) {
		c.CapitalGainsTaxRate *= 1 + RestorationTax
	}

	c.CapitalGainsTax = math.Max(0,
		math.Trunc(c.CapitalGains*c.CapitalGainsTaxRate-c.CapitalGainsTaxPrimaryResidenceDeduction))
	c.SaleProceedsNet = c.SaleProceedsAfterFees - c.CapitalGainsTax

	c.NetProfitOnRealEstate = c.SaleProceedsNet +
		c.CumulativeNetIncome -
		c.PurchaseInitialOutlay -
		c.MortgageAmountOutstanding
}

func (c *RealEstateCalc) calcDateForYear(year int) time.Time {
	return c.PurchaseDate.AddDate(year, 0, 0)
}

func (c *RealEstateCalc) depreciationForYear(year int) float64 {
	if year < c.DepreciationYears {
		return c.DepreciationAnnual
	}
	return 0
}

func (c *RealEstateCalc) mortgageActiveInYear(year int) bool {
	return c.Mortgage != nil && year < c.Mortgage.Tenor
}

func (c *RealEstateCalc) totalExpenseForYear(year int) float64 {
	expense := c.MaintenanceExpense +
		c.MonthlyFeesAnnualized +
		c.RentalManagementTotalExpense +
		c.PropertyTaxExpense
	// Tenor is assumed to be a whole number of years.
	if c.mortgageActiveInYear(year) {
		expense += math.Trunc(c.Mortgage.MonthlyPayment * 12)
	}
	return expense
}

// netIncomeTaxableForYear is the income after expenses, depreciation and
// interest. It differs from cash flow income in two ways: depreciation is not
// a cash expense but is recognized for tax on investment properties, and only
// the interest portion of a mortgage payment is a tax expense. Primary
// residences cannot claim the income or the expenses, so taxable is zero.
func (c *RealEstateCalc) netIncomeTaxableForYear(year int) float64 {
	if c.IsPrimaryResidence != 0 {
		return 0
	}
	taxable := c.TotalIncome - c.totalExpenseForYear(year) - c.depreciationForYear(year)
	if c.mortgageActiveInYear(year) {
		taxable -= math.Trunc(c.Mortgage.InterestForYear(year))
	}
	return taxable
}

// homeLoanDeductionForYear is the home loan tax deduction (住宅ローン減税):
// for the first 10 years of a loan financed primary residence bigger than
// 50m² whose owner's taxable income is under ¥30M, income tax is reduced by
// ¥400k a year when brand new and ¥200k when second hand, capped by the
// remaining loan balance. Second hand age/certification conditions ignored.
//
// http://japanpropertycentral.com/real-estate-faq/home-loan-tax-deduction/
// http://resources.realestate.co.jp/buy/calculate-mortgage-loan-deduction-japan/
func (c *RealEstateCalc) homeLoanDeductionForYear(year int) float64 {
	qualified := c.IsPrimaryResidence != 0 &&
		year < 10 &&
		c.Size > 50 &&
		c.mortgageActiveInYear(year) &&
		c.IncomeTaxCalculator != nil &&
		c.IncomeTaxCalculator.TaxableIncome < 30000000
	if !qualified {
		return 0
	}

	deduction := 400000.0
	if c.Age != 0 {
		deduction = 200000
	}
	remainingLoanBalance := c.Mortgage.PaymentsRemainingFromMonth(year * 12)
	return math.Trunc(math.Min(deduction, remainingLoanBalance))
}

// incomeTaxForYear is the total income tax owed for the year, rental income
// included. Useful on its own to see how total annual taxes change by owning
// real estate even with no taxable income on it, because the home loan
// deduction offsets other income.
func (c *RealEstateCalc) incomeTaxForYear(year int) float64 {
	if c.IncomeTaxCalculator == nil {
		return 0
	}

	// A copy so the caller's calculator is never touched.
	calc := c.IncomeTaxCalculator.Clone()
	calc.CurrentDate = c.calcDateForYear(year)
	calc.OtherIncome += c.netIncomeTaxableForYear(year)
	calc.TaxDeduction += c.homeLoanDeductionForYear(year)

	// OtherIncome is unconstrained and the added deduction is non-negative,
	// so the copy cannot fail validation.
	_ = calc.CalculateAllFields()

	return math.Trunc(calc.TotalIncomeTax)
}

func (c *RealEstateCalc) incomeTaxRealEstateForYear(year int) float64 {
	if c.IncomeTaxCalculator == nil {
		return 0
	}
	return math.Trunc(math.Max(0, c.incomeTaxForYear(year)-c.IncomeTaxCalculator.TotalIncomeTax))
}

// incomeTaxShieldForYear is the reduction in income taxes from holding the
// property. Only non-zero when the property yields a tax loss for the year.
func (c *RealEstateCalc) incomeTaxShieldForYear(year int) float64 {
	if c.IncomeTaxCalculator == nil {
		return 0
	}
	return math.Trunc(math.Max(0, c.IncomeTaxCalculator.TotalIncomeTax-c.incomeTaxForYear(year)))
}

func (c *RealEstateCalc) netIncomeAfterTaxesForYear(year int) float64 {
	return c.TotalIncome -
		c.totalExpenseForYear(year) -
		c.incomeTaxRealEstateForYear(year) +
		c.incomeTaxShieldForYear(year)
}
