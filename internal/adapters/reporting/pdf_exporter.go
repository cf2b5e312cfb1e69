package reporting

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/jung-kurt/gofpdf"

	"github.com/senpai-on-fire/saci-database-sub001/internal/core/domain"
)

// ReportTitle heads every generated PDF.
const ReportTitle = "SACI CVE Statistics"

// PDFExporter exports run statistics to PDF format
type PDFExporter struct{}

// NewPDFExporter creates a new PDF exporter instance
func NewPDFExporter() *PDFExporter {
	return &PDFExporter{}
}

// ExportStatistics renders the statistics of one run
func (e *PDFExporter) ExportStatistics(stats domain.Statistics, meta domain.ExportMetadata) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.AddPage()

	e.addHeader(pdf, meta)
	e.addScore(pdf, stats)
	e.addOverview(pdf, stats)
	e.addHistogram(pdf, "Top Vendors", "Vendor", stats.TopVendors)
	e.addHistogram(pdf, "Top Weaknesses", "Weakness", stats.TopWeaknesses)
	e.addFooter(pdf, meta)

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("failed to generate PDF: %w", err)
	}
	return buf.Bytes(), nil
}

// addHeader adds the title, generation time and search keywords
func (e *PDFExporter) addHeader(pdf *gofpdf.Fpdf, meta domain.ExportMetadata) {
	pdf.SetFont("Arial", "B", 24)
	pdf.SetTextColor(0, 51, 102) // Dark blue
	pdf.CellFormat(0, 15, ReportTitle, "", 1, "L", false, 0, "")
	pdf.Ln(2)

	pdf.SetFont("Arial", "", 10)
	pdf.SetTextColor(120, 120, 120)
	if !meta.Timestamp.IsZero() {
		pdf.CellFormat(0, 6, fmt.Sprintf("Generated: %s", meta.Timestamp.Format("2006-01-02 15:04")), "", 1, "L", false, 0, "")
	}
	if len(meta.Keywords) > 0 {
		pdf.MultiCell(0, 6, "Keywords: "+strings.Join(meta.Keywords, ", "), "", "L", false)
	}

	pdf.Ln(8)
}

// addScore shows the highest score in a box colored by its band
func (e *PDFExporter) addScore(pdf *gofpdf.Fpdf, stats domain.Statistics) {
	band := domain.BandUnknown
	if stats.WithCVSS > 0 {
		band = domain.BandForScore(stats.MaxScore)
	}
	r, g, b := e.getBandColor(band)

	pdf.SetFillColor(r, g, b)
	pdf.Rect(20, pdf.GetY(), 170, 30, "F")
	y := pdf.GetY()

	pdf.SetFont("Arial", "B", 36)
	pdf.SetTextColor(255, 255, 255)
	pdf.SetXY(25, y+5)
	pdf.CellFormat(80, 20, fmt.Sprintf("%.1f/10", stats.MaxScore), "", 0, "L", false, 0, "")

	pdf.SetFont("Arial", "B", 18)
	pdf.SetXY(110, y+8)
	pdf.CellFormat(80, 14, fmt.Sprintf("Max severity: %s", strings.ToUpper(string(band))), "", 0, "L", false, 0, "")

	pdf.SetY(y + 35)
	pdf.Ln(5)
}

// getBandColor returns RGB color based on severity band
func (e *PDFExporter) getBandColor(band domain.SeverityBand) (r, g, b int) {
	switch band {
	case domain.BandCritical:
		return 220, 53, 69 // Red
	case domain.BandHigh:
		return 255, 149, 0 // Orange
	case domain.BandMedium:
		return 255, 204, 0 // Yellow
	case domain.BandLow:
		return 52, 199, 89 // Green
	default:
		return 150, 150, 150 // Gray
	}
}

// addOverview adds the counts grid
func (e *PDFExporter) addOverview(pdf *gofpdf.Fpdf, stats domain.Statistics) {
	pdf.SetFont("Arial", "B", 14)
	pdf.SetTextColor(0, 51, 102)
	pdf.CellFormat(0, 10, "Overview", "", 1, "L", false, 0, "")
	pdf.Ln(2)

	blue := []int{0, 102, 204}
	grid := []struct {
		label string
		value string
		color []int
	}{
		{"Total Vulnerabilities", fmt.Sprintf("%d", stats.Total), blue},
		{"With CVSS", fmt.Sprintf("%d", stats.WithCVSS), blue},
		{"Critical", fmt.Sprintf("%d", stats.BySeverity[domain.BandCritical]), []int{220, 53, 69}},
		{"High", fmt.Sprintf("%d", stats.BySeverity[domain.BandHigh]), []int{255, 149, 0}},
		{"Medium", fmt.Sprintf("%d", stats.BySeverity[domain.BandMedium]), []int{255, 204, 0}},
		{"Low", fmt.Sprintf("%d", stats.BySeverity[domain.BandLow]), []int{52, 199, 89}},
		{"Unknown", fmt.Sprintf("%d", stats.BySeverity[domain.BandUnknown]), []int{150, 150, 150}},
		{"Average Score", fmt.Sprintf("%.2f", stats.AverageScore), blue},
		{"Network Related", fmt.Sprintf("%d", stats.NetworkRelated), blue},
		{"Sensor Related", fmt.Sprintf("%d", stats.SensorRelated), blue},
		{"Attack Patterns", fmt.Sprintf("%d", stats.TotalAttackPatterns), blue},
	}

	// Display in 2 columns
	colWidth := 85.0
	for i, item := range grid {
		x := 20.0
		if i%2 == 1 {
			x = 105.0
		}
		pdf.SetXY(x, pdf.GetY())

		pdf.SetFont("Arial", "", 10)
		pdf.SetTextColor(100, 100, 100)
		pdf.CellFormat(50, 7, item.label+":", "", 0, "L", false, 0, "")

		pdf.SetFont("Arial", "B", 11)
		pdf.SetTextColor(item.color[0], item.color[1], item.color[2])
		pdf.CellFormat(colWidth-50, 7, item.value, "", 0, "R", false, 0, "")

		if i%2 == 1 || i == len(grid)-1 {
			pdf.Ln(7)
		}
	}

	pdf.Ln(10)
}

// addHistogram adds a ranked count table
func (e *PDFExporter) addHistogram(pdf *gofpdf.Fpdf, title, keyHeader string, items []domain.CountItem) {
	if pdf.GetY() > 230 {
		pdf.AddPage()
	}

	pdf.SetFont("Arial", "B", 14)
	pdf.SetTextColor(0, 51, 102)
	pdf.CellFormat(0, 10, title, "", 1, "L", false, 0, "")
	pdf.Ln(2)

	if len(items) == 0 {
		pdf.SetFont("Arial", "I", 10)
		pdf.SetTextColor(100, 100, 100)
		pdf.CellFormat(0, 7, "No data", "", 1, "L", false, 0, "")
		pdf.Ln(5)
		return
	}

	pdf.SetFillColor(240, 240, 240)
	pdf.SetFont("Arial", "B", 10)
	pdf.SetTextColor(60, 60, 60)
	pdf.CellFormat(15, 8, "Rank", "1", 0, "C", true, 0, "")
	pdf.CellFormat(40, 8, keyHeader, "1", 0, "L", true, 0, "")
	pdf.CellFormat(100, 8, "Name", "1", 0, "L", true, 0, "")
	pdf.CellFormat(25, 8, "Count", "1", 1, "C", true, 0, "")

	pdf.SetFont("Arial", "", 9)
	for i, item := range items {
		label := item.Label
		if len(label) > 60 {
			label = label[:57] + "..."
		}
		pdf.CellFormat(15, 7, fmt.Sprintf("%d", i+1), "1", 0, "C", false, 0, "")
		pdf.CellFormat(40, 7, item.Key, "1", 0, "L", false, 0, "")
		pdf.CellFormat(100, 7, label, "1", 0, "L", false, 0, "")
		pdf.CellFormat(25, 7, fmt.Sprintf("%d", item.Count), "1", 1, "C", false, 0, "")
	}

	pdf.Ln(8)
}

// addFooter adds the report footer
func (e *PDFExporter) addFooter(pdf *gofpdf.Fpdf, meta domain.ExportMetadata) {
	pdf.SetY(-20)

	pdf.SetDrawColor(200, 200, 200)
	pdf.Line(20, pdf.GetY(), 190, pdf.GetY())
	pdf.Ln(3)

	runID := meta.RunID
	if len(runID) > 8 {
		runID = runID[:8]
	}
	pdf.SetFont("Arial", "I", 8)
	pdf.SetTextColor(120, 120, 120)
	pdf.CellFormat(0, 5, fmt.Sprintf("Generated by saci-cve | Run ID: %s", runID), "", 1, "C", false, 0, "")
}
