package interfaces

import (
	"bytes"
	"fmt"
	"sort"
	"time"

	"github.com/jung-kurt/gofpdf"
	"github.com/xuri/excelize/v2"

	report "analytics-pulse/internal/report/domain"
)

// BuildReportPDF renders a minimal PDF for a report document.
func BuildReportPDF(rpt *report.Report) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetFont("Arial", "", 12)
	pdf.AddPage()

	pdf.Cell(0, 8, fmt.Sprintf("%s Analytics Report", rpt.Period.Label()))
	pdf.Ln(10)
	pdf.SetFont("Arial", "", 10)
	pdf.Cell(0, 6, fmt.Sprintf("Period: %s to %s", rpt.FromDate, rpt.ToDate))
	pdf.Ln(5)
	pdf.Cell(0, 6, fmt.Sprintf("Generated: %s", rpt.GeneratedAt.Format(time.RFC3339)))
	pdf.Ln(5)
	if rpt.Error != "" {
		pdf.Cell(0, 6, fmt.Sprintf("Error: %s", rpt.Error))
		pdf.Ln(5)
	}
	pdf.Ln(4)

	// Metrics table
	pdf.SetFont("Arial", "B", 10)
	pdf.CellFormat(70, 6, "Metric", "1", 0, "C", false, 0, "")
	pdf.CellFormat(35, 6, "Value", "1", 0, "C", false, 0, "")
	pdf.CellFormat(35, 6, "Change", "1", 0, "C", false, 0, "")
	pdf.Ln(-1)
	pdf.SetFont("Arial", "", 10)
	for _, name := range sortedMetricNames(rpt.Metrics) {
		change := ""
		if cmp, ok := rpt.Comparison(name); ok {
			change = fmt.Sprintf("%s%.1f%%", changeSign(cmp.Direction), cmp.PercentChange)
		}
		pdf.CellFormat(70, 6, name, "1", 0, "L", false, 0, "")
		pdf.CellFormat(35, 6, report.FormatCount(rpt.Metrics[name]), "1", 0, "R", false, 0, "")
		pdf.CellFormat(35, 6, change, "1", 0, "R", false, 0, "")
		pdf.Ln(-1)
	}
	pdf.Ln(4)

	if len(rpt.TopEvents) > 0 {
		pdf.SetFont("Arial", "B", 10)
		pdf.CellFormat(70, 6, "Event", "1", 0, "C", false, 0, "")
		pdf.CellFormat(35, 6, "Count", "1", 0, "C", false, 0, "")
		pdf.Ln(-1)
		pdf.SetFont("Arial", "", 10)
		for _, event := range rpt.TopEvents {
			pdf.CellFormat(70, 6, event.Event, "1", 0, "L", false, 0, "")
			pdf.CellFormat(35, 6, report.FormatCount(event.Count), "1", 0, "R", false, 0, "")
			pdf.Ln(-1)
		}
		pdf.Ln(4)
	}

	for _, insight := range rpt.Insights {
		pdf.Cell(0, 6, fmt.Sprintf("- %s", insight))
		pdf.Ln(5)
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// BuildReportXLSX renders a minimal XLSX for a report document.
func BuildReportXLSX(rpt *report.Report) ([]byte, error) {
	f := excelize.NewFile()
	summarySheet := "summary"
	metricsSheet := "metrics"
	eventsSheet := "top_events"
	f.SetSheetName("Sheet1", summarySheet)
	f.NewSheet(metricsSheet)
	f.NewSheet(eventsSheet)

	_ = f.SetCellValue(summarySheet, "A1", fmt.Sprintf("%s Analytics Report", rpt.Period.Label()))
	_ = f.SetCellValue(summarySheet, "A3", "From")
	_ = f.SetCellValue(summarySheet, "B3", rpt.FromDate)
	_ = f.SetCellValue(summarySheet, "A4", "To")
	_ = f.SetCellValue(summarySheet, "B4", rpt.ToDate)
	_ = f.SetCellValue(summarySheet, "A5", "Generated")
	_ = f.SetCellValue(summarySheet, "B5", rpt.GeneratedAt.Format(time.RFC3339))
	if rpt.Error != "" {
		_ = f.SetCellValue(summarySheet, "A6", "Error")
		_ = f.SetCellValue(summarySheet, "B6", rpt.Error)
	}
	for i, insight := range rpt.Insights {
		_ = f.SetCellValue(summarySheet, fmt.Sprintf("A%d", 8+i), insight)
	}

	_ = f.SetCellValue(metricsSheet, "A1", "Metric")
	_ = f.SetCellValue(metricsSheet, "B1", "Value")
	_ = f.SetCellValue(metricsSheet, "C1", "Change %")
	_ = f.SetCellValue(metricsSheet, "D1", "Previous")
	for i, name := range sortedMetricNames(rpt.Metrics) {
		row := i + 2
		_ = f.SetCellValue(metricsSheet, fmt.Sprintf("A%d", row), name)
		_ = f.SetCellValue(metricsSheet, fmt.Sprintf("B%d", row), rpt.Metrics[name])
		if cmp, ok := rpt.Comparison(name); ok {
			_ = f.SetCellValue(metricsSheet, fmt.Sprintf("C%d", row), fmt.Sprintf("%s%.1f", changeSign(cmp.Direction), cmp.PercentChange))
			_ = f.SetCellValue(metricsSheet, fmt.Sprintf("D%d", row), cmp.PreviousValue)
		}
	}

	_ = f.SetCellValue(eventsSheet, "A1", "Rank")
	_ = f.SetCellValue(eventsSheet, "B1", "Event")
	_ = f.SetCellValue(eventsSheet, "C1", "Count")
	for i, event := range rpt.TopEvents {
		row := i + 2
		_ = f.SetCellValue(eventsSheet, fmt.Sprintf("A%d", row), i+1)
		_ = f.SetCellValue(eventsSheet, fmt.Sprintf("B%d", row), event.Event)
		_ = f.SetCellValue(eventsSheet, fmt.Sprintf("C%d", row), event.Count)
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func changeSign(d report.Direction) string {
	switch d {
	case report.DirectionUp:
		return "+"
	case report.DirectionDown:
		return "-"
	default:
		return ""
	}
}

func sortedMetricNames(metrics map[string]int64) []string {
	names := make([]string, 0, len(metrics))
	for name := range metrics {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
