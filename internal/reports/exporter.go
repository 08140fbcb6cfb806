// Pulseboard - Cross-Service Metrics Aggregation and Goal Tracking
// Copyright 2026 Pulseboard contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/pulseboard/pulseboard

// Package reports builds XLSX exports of aggregation results and goal
// progress for download through the API.
package reports

import (
	"fmt"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/pulseboard/pulseboard/internal/models"
)

const (
	aggregationSheet = "Aggregations"
	goalsSheet       = "Goals"
	summarySheet     = "Summary"
)

// Exporter renders workbooks. It is stateless and safe for concurrent
// use.
type Exporter struct{}

// NewExporter creates an exporter.
func NewExporter() *Exporter {
	return &Exporter{}
}

// AggregationWorkbook builds an XLSX file with one row per aggregation
// group plus a summary sheet. Returns the file bytes and a dated
// filename.
func (e *Exporter) AggregationWorkbook(results []models.AggregationResult, groupBy string, generatedAt time.Time) ([]byte, string, error) {
	f := excelize.NewFile()
	defer closeFile(f)

	index, err := f.NewSheet(aggregationSheet)
	if err != nil {
		return nil, "", fmt.Errorf("failed to create sheet: %w", err)
	}
	f.SetActiveSheet(index)

	headerStyle := newHeaderStyle(f)

	columns := []string{"Group", "Count", "Sum", "Avg", "Min", "Max"}
	writeHeader(f, aggregationSheet, columns, headerStyle)

	var totalCount int64
	var totalSum float64
	for rowIdx, result := range results {
		row := rowIdx + 2
		setCell(f, aggregationSheet, 1, row, result.GroupKey)
		setCell(f, aggregationSheet, 2, row, result.Count)
		setCell(f, aggregationSheet, 3, row, result.Sum)
		setCell(f, aggregationSheet, 4, row, result.Avg)
		setCell(f, aggregationSheet, 5, row, result.Min)
		setCell(f, aggregationSheet, 6, row, result.Max)

		totalCount += result.Count
		totalSum += result.Sum
	}
	widenColumns(f, aggregationSheet, len(columns))

	writeSummary(f, headerStyle, [][2]any{
		{"Report", "Metric aggregations"},
		{"Grouped by", groupBy},
		{"Groups", len(results)},
		{"Total metrics", totalCount},
		{"Total value", totalSum},
		{"Generated at", generatedAt.UTC().Format("2006-01-02 15:04:05")},
	})

	if err := deleteDefaultSheet(f); err != nil {
		return nil, "", err
	}

	buffer, err := f.WriteToBuffer()
	if err != nil {
		return nil, "", fmt.Errorf("failed to write workbook: %w", err)
	}

	filename := fmt.Sprintf("aggregations_%s.xlsx", generatedAt.UTC().Format("20060102"))
	return buffer.Bytes(), filename, nil
}

// GoalsWorkbook builds an XLSX file with one row per goal plus a
// summary sheet with per-status counts.
func (e *Exporter) GoalsWorkbook(goals []models.Goal, generatedAt time.Time) ([]byte, string, error) {
	f := excelize.NewFile()
	defer closeFile(f)

	index, err := f.NewSheet(goalsSheet)
	if err != nil {
		return nil, "", fmt.Errorf("failed to create sheet: %w", err)
	}
	f.SetActiveSheet(index)

	headerStyle := newHeaderStyle(f)

	columns := []string{"Name", "Metric Type", "Target", "Current", "Progress %", "Status", "Start Date", "End Date", "Forecast"}
	writeHeader(f, goalsSheet, columns, headerStyle)

	statusCounts := make(map[models.GoalStatus]int)
	for rowIdx, goal := range goals {
		row := rowIdx + 2
		setCell(f, goalsSheet, 1, row, goal.Name)
		setCell(f, goalsSheet, 2, row, string(goal.MetricType))
		setCell(f, goalsSheet, 3, row, goal.TargetValue)
		setCell(f, goalsSheet, 4, row, goal.CurrentValue)
		setCell(f, goalsSheet, 5, row, goal.ProgressPercentage)
		setCell(f, goalsSheet, 6, row, string(goal.Status))
		setCell(f, goalsSheet, 7, row, goal.StartDate.Format("2006-01-02"))
		setCell(f, goalsSheet, 8, row, goal.EndDate.Format("2006-01-02"))
		if goal.ForecastValue != nil {
			setCell(f, goalsSheet, 9, row, *goal.ForecastValue)
		}

		statusCounts[goal.Status]++
	}
	widenColumns(f, goalsSheet, len(columns))

	writeSummary(f, headerStyle, [][2]any{
		{"Report", "Goal progress"},
		{"Goals", len(goals)},
		{"Active", statusCounts[models.GoalActive]},
		{"Achieved", statusCounts[models.GoalAchieved]},
		{"Failed", statusCounts[models.GoalFailed]},
		{"Cancelled", statusCounts[models.GoalCancelled]},
		{"Generated at", generatedAt.UTC().Format("2006-01-02 15:04:05")},
	})

	if err := deleteDefaultSheet(f); err != nil {
		return nil, "", err
	}

	buffer, err := f.WriteToBuffer()
	if err != nil {
		return nil, "", fmt.Errorf("failed to write workbook: %w", err)
	}

	filename := fmt.Sprintf("goals_%s.xlsx", generatedAt.UTC().Format("20060102"))
	return buffer.Bytes(), filename, nil
}

func newHeaderStyle(f *excelize.File) int {
	style, _ := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#E0E0E0"}, Pattern: 1},
	})
	return style
}

func writeHeader(f *excelize.File, sheet string, columns []string, style int) {
	for i, col := range columns {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		_ = f.SetCellValue(sheet, cell, col)
		_ = f.SetCellStyle(sheet, cell, cell, style)
	}
}

func setCell(f *excelize.File, sheet string, col, row int, value any) {
	cell, _ := excelize.CoordinatesToCellName(col, row)
	_ = f.SetCellValue(sheet, cell, value)
}

func widenColumns(f *excelize.File, sheet string, count int) {
	for i := 0; i < count; i++ {
		col, _ := excelize.ColumnNumberToName(i + 1)
		_ = f.SetColWidth(sheet, col, col, 18)
	}
}

func writeSummary(f *excelize.File, headerStyle int, rows [][2]any) {
	if _, err := f.NewSheet(summarySheet); err != nil {
		return
	}
	for rowIdx, pair := range rows {
		labelCell, _ := excelize.CoordinatesToCellName(1, rowIdx+1)
		valueCell, _ := excelize.CoordinatesToCellName(2, rowIdx+1)
		_ = f.SetCellValue(summarySheet, labelCell, pair[0])
		_ = f.SetCellStyle(summarySheet, labelCell, labelCell, headerStyle)
		_ = f.SetCellValue(summarySheet, valueCell, pair[1])
	}
	widenColumns(f, summarySheet, 2)
}

// deleteDefaultSheet removes excelize's auto-created Sheet1.
func deleteDefaultSheet(f *excelize.File) error {
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return fmt.Errorf("failed to remove default sheet: %w", err)
	}
	return nil
}

func closeFile(f *excelize.File) {
	_ = f.Close()
}
