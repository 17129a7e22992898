package japanrealestate

import (
	"fmt"
	"os"
	"regexp"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// IncomeTaxParams is the tax profile section of a scenario file.
type IncomeTaxParams struct {
	EmploymentIncome         float64  `yaml:"employment_income"`
	Rent                     float64  `yaml:"rent"`
	IsRentProgram            bool     `yaml:"is_rent_program"`
	OtherIncome              float64  `yaml:"other_income"`
	LifeInsurancePremium     float64  `yaml:"life_insurance_premium"`
	MedicalExpense           float64  `yaml:"medical_expense"`
	NumberOfDependents       int      `yaml:"number_of_dependents"`
	SocialSecurityExpense    *float64 `yaml:"social_security_expense,omitempty"` // omit to estimate from salary
	TaxDeduction             float64  `yaml:"tax_deduction"`
	IsResidentForTaxPurposes bool     `yaml:"is_resident_for_tax_purposes"`
	CurrentDate              string   `yaml:"current_date,omitempty"` // YYYY-MM-DD, omit for today
}

// RealEstateParams is the property section of a scenario file. Optional
// fields are pointers so that omission means "use the default".
type RealEstateParams struct {
	PurchaseDate           string   `yaml:"purchase_date,omitempty"` // YYYY-MM-DD, omit for today
	PurchasePrice          float64  `yaml:"purchase_price"`
	BuildingToLandRatio    *float64 `yaml:"building_to_land_ratio,omitempty"`
	Size                   float64  `yaml:"size"`
	Age                    int      `yaml:"age"`
	MortgageLoanToValue    float64  `yaml:"mortgage_loan_to_value"`
	BankValuationToActual  *float64 `yaml:"bank_valuation_to_actual,omitempty"`
	MortgageTenor          int      `yaml:"mortgage_tenor"`
	MortgageRate           float64  `yaml:"mortgage_rate"`
	MortgageInitiationFees float64  `yaml:"mortgage_initiation_fees"`
	RenovationCost         float64  `yaml:"renovation_cost"`

	AgentFeeVariable     float64 `yaml:"agent_fee_variable"`
	AgentFeeFixed        float64 `yaml:"agent_fee_fixed"`
	OtherTransactionFees float64 `yaml:"other_transaction_fees"`

	MonthlyFees      float64  `yaml:"monthly_fees"`
	PropertyTaxRate  float64  `yaml:"property_tax_rate"`
	MaintenancePerM2 *float64 `yaml:"maintenance_per_m2,omitempty"`
	UsefulLife       *int     `yaml:"useful_life,omitempty"`
	CalcYear         int      `yaml:"calc_year"`

	GrossRentalYield           float64  `yaml:"gross_rental_yield"`
	RenewalIncomeRate          *float64 `yaml:"renewal_income_rate,omitempty"`
	RentalManagementRentalFee  *float64 `yaml:"rental_management_rental_fee,omitempty"`
	RentalManagementRenewalFee *float64 `yaml:"rental_management_renewal_fee,omitempty"`

	IsPrimaryResidence       int      `yaml:"is_primary_residence"`
	IsResidentForTaxPurposes bool     `yaml:"is_resident_for_tax_purposes"`
	SalePrice                *float64 `yaml:"sale_price,omitempty"` // omit to estimate from book value
}

// ScenarioConfig is a complete due diligence scenario.
type ScenarioConfig struct {
	IncomeTax  IncomeTaxParams  `yaml:"income_tax_calc_params"`
	RealEstate RealEstateParams `yaml:"real_estate_calc_params"`
}

// LoadScenario loads a scenario from a YAML file. Percentage values like
// "3%" are accepted and converted to decimals.
func LoadScenario(filename string) (*ScenarioConfig, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, err
	}

	content := preprocessPercentages(string(data))

	var scenario ScenarioConfig
	if err := yaml.Unmarshal([]byte(content), &scenario); err != nil {
		return nil, fmt.Errorf("scenario %s: %w", filename, err)
	}
	return &scenario, nil
}

// SaveScenario saves a scenario to a YAML file.
func SaveScenario(scenario *ScenarioConfig, filename string) error {
	data, err := yaml.Marshal(scenario)
	if err != nil {
		return err
	}

	header := []byte(`# Real estate due diligence scenario
#
# Percentages: 0.05 = 5% (decimal), or write 5% directly
# Money: values are in JPY (e.g. 68000000 = ¥68M)
# Dates: YYYY-MM-DD format (e.g. 2017-01-24)
#
# Omitted optional fields fall back to the customary defaults
# (building_to_land_ratio 0.7, useful_life 47, Tokyo management fees etc).
# Omit sale_price to estimate it from book value at the calculation year.

`)
	content := append(header, data...)
	return os.WriteFile(filename, content, 0644)
}

// preprocessPercentages converts percentage values like "5%" to decimal "0.05"
func preprocessPercentages(content string) string {
	re := regexp.MustCompile(`(:\s*)(\d+\.?\d*)%`)
	return re.ReplaceAllStringFunc(content, func(match string) string {
		parts := re.FindStringSubmatch(match)
		if len(parts) >= 3 {
			num, err := strconv.ParseFloat(parts[2], 64)
			if err == nil {
				return parts[1] + strconv.FormatFloat(num/100.0, 'f', -1, 64)
			}
		}
		return match
	})
}

// BuildCalculators turns a scenario into wired, fully calculated calculator
// instances. The income tax calculator is attached to the real estate one.
func (s *ScenarioConfig) BuildCalculators() (*IncomeTaxCalc, *RealEstateCalc, error) {
	taxCalc := IncomeTaxCalc{
		EmploymentIncome:         s.IncomeTax.EmploymentIncome,
		Rent:                     s.IncomeTax.Rent,
		IsRentProgram:            s.IncomeTax.IsRentProgram,
		OtherIncome:              s.IncomeTax.OtherIncome,
		LifeInsurancePremium:     s.IncomeTax.LifeInsurancePremium,
		MedicalExpense:           s.IncomeTax.MedicalExpense,
		NumberOfDependents:       s.IncomeTax.NumberOfDependents,
		SocialSecurityExpense:    s.IncomeTax.SocialSecurityExpense,
		TaxDeduction:             s.IncomeTax.TaxDeduction,
		IsResidentForTaxPurposes: s.IncomeTax.IsResidentForTaxPurposes,
	}
	if s.IncomeTax.CurrentDate != "" {
		date, err := time.Parse("2006-01-02", s.IncomeTax.CurrentDate)
		if err != nil {
			return nil, nil, fmt.Errorf("scenario current_date: %w", err)
		}
		taxCalc.CurrentDate = date
	}
	tax, err := NewIncomeTaxCalc(taxCalc)
	if err != nil {
		return nil, nil, err
	}

	re := NewRealEstateCalc()
	p := s.RealEstate
	if p.PurchaseDate != "" {
		date, err := time.Parse("2006-01-02", p.PurchaseDate)
		if err != nil {
			return nil, nil, fmt.Errorf("scenario purchase_date: %w", err)
		}
		re.PurchaseDate = date
	}
	re.PurchasePrice = p.PurchasePrice
	re.Size = p.Size
	re.Age = p.Age
	re.MortgageLoanToValue = p.MortgageLoanToValue
	re.MortgageTenor = p.MortgageTenor
	re.MortgageRate = p.MortgageRate
	re.MortgageInitiationFees = p.MortgageInitiationFees
	re.RenovationCost = p.RenovationCost
	re.AgentFeeVariable = p.AgentFeeVariable
	re.AgentFeeFixed = p.AgentFeeFixed
	re.OtherTransactionFees = p.OtherTransactionFees
	re.MonthlyFees = p.MonthlyFees
	re.PropertyTaxRate = p.PropertyTaxRate
	re.CalcYear = p.CalcYear
	re.GrossRentalYield = p.GrossRentalYield
	re.IsPrimaryResidence = p.IsPrimaryResidence
	re.IsResidentForTaxPurposes = p.IsResidentForTaxPurposes
	re.SalePrice = p.SalePrice
	re.IncomeTaxCalculator = tax

	if p.BuildingToLandRatio != nil {
		re.BuildingToLandRatio = *p.BuildingToLandRatio
	}
	if p.BankValuationToActual != nil {
		re.BankValuationToActual = *p.BankValuationToActual
	}
	if p.MaintenancePerM2 != nil {
		re.MaintenancePerM2 = *p.MaintenancePerM2
	}
	if p.UsefulLife != nil {
		re.UsefulLife = *p.UsefulLife
	}
	if p.RenewalIncomeRate != nil {
		re.RenewalIncomeRate = *p.RenewalIncomeRate
	}
	if p.RentalManagementRentalFee != nil {
		re.RentalManagementRentalFee = *p.RentalManagementRentalFee
	}
	if p.RentalManagementRenewalFee != nil {
		re.RentalManagementRenewalFee = *p.RentalManagementRenewalFee
	}

	if err := re.CalculateAllFields(); err != nil {
		return nil, nil, err
	}
	return tax, re, nil
}
