package japanrealestate

// ProjectionRow is one year of a multi-year due diligence projection.
type ProjectionRow struct {
	Year                  int     // Calendar year
	NetIncomeAfterTaxes   float64 // Income for the year, after expenses, mortgage and taxes
	BookValue             float64 // Estimated property value
	CumulativeNetIncome   float64 // All income since purchase
	EquityValue           float64 // Property value after repaying the loan
	NetProfitOnRealEstate float64 // Net PNL if sold at the end of the year
}

// Projection evaluates the calculator for each holding year from the purchase
// year onwards and returns one row per year. The receiver is not modified.
func (c *RealEstateCalc) Projection(years int) ([]ProjectionRow, error) {
	calc := *c
	rows := make([]ProjectionRow, 0, years)
	for year := 0; year < years; year++ {
		calc.CalcYear = year
		if err := calc.CalculateAllFields(); err != nil {
			return nil, err
		}
		rows = append(rows, ProjectionRow{
			Year:                  calc.PurchaseDate.Year() + year,
			NetIncomeAfterTaxes:   calc.NetIncomeAfterTaxes,
			BookValue:             calc.BookValue,
			CumulativeNetIncome:   calc.CumulativeNetIncome,
			EquityValue:           calc.EquityValue,
			NetProfitOnRealEstate: calc.NetProfitOnRealEstate,
		})
	}
	return rows, nil
}
