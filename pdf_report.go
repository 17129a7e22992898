package japanrealestate

import (
	"bytes"
	"fmt"
	"strings"
	"time"

	"github.com/go-pdf/fpdf"
)

// pdfText converts UTF-8 text to PDF-safe encoding
// The ¥ sign in UTF-8 is 0xC2 0xA5, but PDF standard fonts expect Latin-1 (just 0xA5)
func pdfText(s string) string {
	return strings.ReplaceAll(s, "¥", "\xa5")
}

// FormatYenPDF formats money for PDF output (handles ¥ encoding)
func FormatYenPDF(amount float64) string {
	return pdfText(FormatYen(amount))
}

const (
	pageWidth    = 210.0
	marginLeft   = 15.0
	marginRight  = 15.0
	marginTop    = 15.0
	marginBottom = 20.0
	contentWidth = pageWidth - marginLeft - marginRight
)

// DueDiligenceReport renders a property scenario and its multi-year
// projection as a PDF.
type DueDiligenceReport struct {
	pdf  *fpdf.Fpdf
	calc *RealEstateCalc
}

// GenerateDueDiligencePDF creates a due diligence PDF for a fully calculated
// scenario, with a projection over the given number of holding years.
func GenerateDueDiligencePDF(calc *RealEstateCalc, projectionYears int) ([]byte, error) {
	rows, err := calc.Projection(projectionYears)
	if err != nil {
		return nil, err
	}

	report := &DueDiligenceReport{
		pdf:  fpdf.New("P", "mm", "A4", ""),
		calc: calc,
	}
	report.pdf.SetMargins(marginLeft, marginTop, marginRight)
	report.pdf.SetAutoPageBreak(true, marginBottom)

	report.addTitlePage()
	report.addScenarioSummary()
	report.addProjectionTable(rows)

	var buf bytes.Buffer
	if err := report.pdf.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (r *DueDiligenceReport) addTitlePage() {
	r.pdf.AddPage()

	r.pdf.SetFont("Arial", "B", 28)
	r.pdf.SetTextColor(0, 51, 102)
	r.pdf.Ln(50)
	r.pdf.CellFormat(contentWidth, 15, "Real Estate Due Diligence", "", 1, "C", false, 0, "")

	r.pdf.SetFont("Arial", "", 14)
	r.pdf.SetTextColor(80, 80, 80)
	r.pdf.Ln(10)
	subtitle := fmt.Sprintf("%s purchase, %.0fm2", FormatYenPDF(r.calc.PurchasePrice), r.calc.Size)
	r.pdf.CellFormat(contentWidth, 10, subtitle, "", 1, "C", false, 0, "")

	r.pdf.SetFont("Arial", "I", 11)
	r.pdf.Ln(15)
	r.pdf.CellFormat(contentWidth, 8, fmt.Sprintf("Generated: %s", time.Now().Format("2 January 2006")), "", 1, "C", false, 0, "")

	// Property box
	r.pdf.Ln(20)
	r.pdf.SetFillColor(245, 247, 250)
	r.pdf.SetDrawColor(200, 200, 200)

	r.pdf.SetFont("Arial", "B", 12)
	r.pdf.SetTextColor(0, 51, 102)
	r.pdf.CellFormat(contentWidth, 8, "Property", "1", 1, "C", true, 0, "")

	r.pdf.SetFont("Arial", "", 11)
	r.pdf.SetTextColor(50, 50, 50)
	ageText := "brand new"
	if r.calc.Age > 0 {
		ageText = fmt.Sprintf("%d years old", r.calc.Age)
	}
	lines := []string{
		fmt.Sprintf("Purchased %s for %s (%s)",
			r.calc.PurchaseDate.Format("2 January 2006"), FormatYenPDF(r.calc.PurchasePrice), ageText),
		fmt.Sprintf("Building %s / Land %s",
			FormatYenPDF(r.calc.PurchasePriceBuilding), FormatYenPDF(r.calc.PurchasePriceLand)),
		fmt.Sprintf("Gross rental yield %.2f%%", r.calc.GrossRentalYield*100),
	}
	for _, line := range lines {
		r.pdf.CellFormat(contentWidth, 7, line, "LR", 1, "C", true, 0, "")
	}
	r.pdf.CellFormat(contentWidth, 1, "", "LRB", 1, "C", true, 0, "")

	// Disclaimer
	r.pdf.Ln(15)
	r.pdf.SetFont("Arial", "I", 9)
	r.pdf.SetTextColor(120, 120, 120)
	r.pdf.MultiCell(contentWidth, 4.5,
		"This document is for informational purposes only and does not constitute financial or tax advice. "+
			"Tax rules and rates are subject to change. "+
			"Please consult a qualified tax accountant before making any investment decisions.", "", "C", false)
}

func (r *DueDiligenceReport) addScenarioSummary() {
	r.pdf.AddPage()
	r.drawSectionHeader("Scenario Summary")

	// Acquisition & financing
	r.pdf.SetFont("Arial", "B", 11)
	r.pdf.SetTextColor(0, 51, 102)
	r.pdf.CellFormat(contentWidth, 7, "Acquisition & Financing", "", 1, "L", false, 0, "")

	financing := "All cash purchase"
	if r.calc.Mortgage != nil {
		financing = fmt.Sprintf("%s loan, %d years at %.2f%%, %s/month",
			FormatYenPDF(r.calc.PurchasePriceFinanced),
			r.calc.Mortgage.Tenor,
			r.calc.MortgageRate*100,
			FormatYenPDF(r.calc.Mortgage.MonthlyPayment))
	}

	r.drawTableHeader([]string{"Item", "Amount"}, []float64{100, 80})
	r.drawTableRow([]string{"Purchase Price", FormatYenPDF(r.calc.PurchasePrice)}, []float64{100, 80}, false)
	r.drawTableRow([]string{"Agent Fee", FormatYenPDF(r.calc.PurchaseAgentFee)}, []float64{100, 80}, false)
	r.drawTableRow([]string{"Other Transaction Fees", FormatYenPDF(r.calc.PurchaseOtherTransactionFees)}, []float64{100, 80}, false)
	r.drawTableRow([]string{"Renovation", FormatYenPDF(r.calc.RenovationCost)}, []float64{100, 80}, false)
	r.drawTableRow([]string{"Total incl. Fees", FormatYenPDF(r.calc.PurchasePriceAndFees)}, []float64{100, 80}, false)
	r.drawTableRow([]string{"Initial Outlay (not financed)", FormatYenPDF(r.calc.PurchaseInitialOutlay)}, []float64{100, 80}, true)

	r.pdf.SetFont("Arial", "", 10)
	r.pdf.SetTextColor(50, 50, 50)
	r.pdf.CellFormat(contentWidth, 6, financing, "", 1, "L", false, 0, "")
	r.pdf.Ln(5)

	// Operating year
	r.pdf.SetFont("Arial", "B", 11)
	r.pdf.SetTextColor(0, 51, 102)
	r.pdf.CellFormat(contentWidth, 7, fmt.Sprintf("Operating Year %d", r.calc.CalcYear), "", 1, "L", false, 0, "")

	r.drawTableHeader([]string{"Item", "Amount"}, []float64{100, 80})
	r.drawTableRow([]string{"Rental Income", FormatYenPDF(r.calc.RentalIncome)}, []float64{100, 80}, false)
	r.drawTableRow([]string{"Renewal Income", FormatYenPDF(r.calc.RenewalIncome)}, []float64{100, 80}, false)
	r.drawTableRow([]string{"Total Expense", FormatYenPDF(r.calc.TotalExpense)}, []float64{100, 80}, false)
	r.drawTableRow([]string{"Net Income Before Taxes", FormatYenPDF(r.calc.NetIncomeBeforeTaxes)}, []float64{100, 80}, false)
	r.drawTableRow([]string{"Income Tax on Real Estate", FormatYenPDF(r.calc.IncomeTaxRealEstate)}, []float64{100, 80}, false)
	r.drawTableRow([]string{"Income Tax Shield", FormatYenPDF(r.calc.IncomeTaxShield)}, []float64{100, 80}, false)
	r.drawTableRow([]string{"Net Income After Taxes", FormatYenPDF(r.calc.NetIncomeAfterTaxes)}, []float64{100, 80}, true)
	r.pdf.Ln(5)

	// Disposal
	r.pdf.SetFont("Arial", "B", 11)
	r.pdf.SetTextColor(0, 51, 102)
	r.pdf.CellFormat(contentWidth, 7, fmt.Sprintf("Disposal at End of Year %d", r.calc.CalcYear), "", 1, "L", false, 0, "")

	saleBasis := "estimated from book value"
	if r.calc.SalePrice != nil {
		saleBasis = "specified"
	}

	r.drawTableHeader([]string{"Item", "Amount"}, []float64{100, 80})
	r.drawTableRow([]string{fmt.Sprintf("Sale Price (%s)", saleBasis), FormatYenPDF(r.calc.SaleValue)}, []float64{100, 80}, false)
	r.drawTableRow([]string{"Sale Proceeds After Fees", FormatYenPDF(r.calc.SaleProceedsAfterFees)}, []float64{100, 80}, false)
	r.drawTableRow([]string{"Capital Gains", FormatYenPDF(r.calc.CapitalGains)}, []float64{100, 80}, false)
	r.drawTableRow([]string{fmt.Sprintf("Capital Gains Tax (%.2f%%)", r.calc.CapitalGainsTaxRate*100),
		FormatYenPDF(r.calc.CapitalGainsTax)}, []float64{100, 80}, false)
	r.drawTableRow([]string{"Mortgage Outstanding", FormatYenPDF(r.calc.MortgageAmountOutstanding)}, []float64{100, 80}, false)
	r.drawTableRow([]string{"Cumulative Net Income", FormatYenPDF(r.calc.CumulativeNetIncome)}, []float64{100, 80}, false)
	r.drawTableRow([]string{"Net Profit on Real Estate", FormatYenPDF(r.calc.NetProfitOnRealEstate)}, []float64{100, 80}, true)
}

func (r *DueDiligenceReport) addProjectionTable(rows []ProjectionRow) {
	r.pdf.AddPage()
	r.drawSectionHeader("Multi-Year Projection")

	widths := []float64{20, 32, 32, 32, 32, 32}
	r.drawTableHeader([]string{"Year", "Income", "Value", "Cum. Income", "Equity", "PNL If Sold"}, widths)

	r.pdf.SetFont("Arial", "", 9)
	r.pdf.SetTextColor(50, 50, 50)
	for i, row := range rows {
		if r.pdf.GetY() > 265 {
			r.pdf.AddPage()
			r.drawTableHeader([]string{"Year", "Income", "Value", "Cum. Income", "Equity", "PNL If Sold"}, widths)
		}
		if i%2 == 0 {
			r.pdf.SetFillColor(250, 250, 250)
		} else {
			r.pdf.SetFillColor(255, 255, 255)
		}
		r.pdf.SetFont("Arial", "", 9)
		r.pdf.CellFormat(widths[0], 5, fmt.Sprintf("%d", row.Year), "1", 0, "L", true, 0, "")
		r.pdf.CellFormat(widths[1], 5, FormatYenPDF(row.NetIncomeAfterTaxes), "1", 0, "R", true, 0, "")
		r.pdf.CellFormat(widths[2], 5, FormatYenPDF(row.BookValue), "1", 0, "R", true, 0, "")
		r.pdf.CellFormat(widths[3], 5, FormatYenPDF(row.CumulativeNetIncome), "1", 0, "R", true, 0, "")
		r.pdf.CellFormat(widths[4], 5, FormatYenPDF(row.EquityValue), "1", 0, "R", true, 0, "")
		r.pdf.CellFormat(widths[5], 5, FormatYenPDF(row.NetProfitOnRealEstate), "1", 1, "R", true, 0, "")
	}

	r.pdf.Ln(5)
	r.pdf.SetFont("Arial", "I", 8)
	r.pdf.SetTextColor(128, 128, 128)
	r.pdf.MultiCell(contentWidth, 4,
		"Property value is book value: land plus the building depreciated straight-line over its remaining "+
			"useful life. PNL if sold includes cumulative income and repaying the outstanding loan.", "", "L", false)
}

func (r *DueDiligenceReport) drawSectionHeader(title string) {
	r.pdf.SetFont("Arial", "B", 16)
	r.pdf.SetTextColor(0, 51, 102)
	r.pdf.CellFormat(contentWidth, 10, title, "", 1, "L", false, 0, "")
	r.pdf.SetDrawColor(0, 51, 102)
	r.pdf.Line(marginLeft, r.pdf.GetY(), marginLeft+contentWidth, r.pdf.GetY())
	r.pdf.Ln(5)
}

func (r *DueDiligenceReport) drawTableHeader(headers []string, widths []float64) {
	r.pdf.SetFillColor(0, 51, 102)
	r.pdf.SetTextColor(255, 255, 255)
	r.pdf.SetFont("Arial", "B", 9)

	for i, header := range headers {
		align := "L"
		if i > 0 {
			align = "R"
		}
		r.pdf.CellFormat(widths[i], 6, header, "1", 0, align, true, 0, "")
	}
	r.pdf.Ln(-1)
}

func (r *DueDiligenceReport) drawTableRow(cells []string, widths []float64, isBold bool) {
	r.pdf.SetFillColor(250, 250, 250)
	r.pdf.SetTextColor(50, 50, 50)

	if isBold {
		r.pdf.SetFont("Arial", "B", 9)
		r.pdf.SetFillColor(240, 240, 240)
	} else {
		r.pdf.SetFont("Arial", "", 9)
	}

	for i, cell := range cells {
		align := "L"
		if i > 0 {
			align = "R"
		}
		r.pdf.CellFormat(widths[i], 5, cell, "1", 0, align, true, 0, "")
	}
	r.pdf.Ln(-1)
}
