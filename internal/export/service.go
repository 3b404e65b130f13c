package export

import (
	"fmt"
	"sort"

	"github.com/xuri/excelize/v2"

	"github.com/equipsight/api/internal/domain"
)

const (
	summarySheet  = "Summary"
	readingsSheet = "Readings"
)

// BuildReport renders one upload as an XLSX workbook: a summary sheet with
// the averages and the equipment type distribution, and a readings sheet with
// the retained rows. Null readings are left as blank cells.
func BuildReport(upload domain.Upload, rows []domain.EquipmentRow) (*excelize.File, error) {
	f := excelize.NewFile()

	if err := f.SetSheetName(f.GetSheetName(0), summarySheet); err != nil {
		return nil, fmt.Errorf("failed to create summary sheet: %w", err)
	}
	if _, err := f.NewSheet(readingsSheet); err != nil {
		return nil, fmt.Errorf("failed to create readings sheet: %w", err)
	}

	if err := writeSummary(f, upload); err != nil {
		return nil, err
	}
	if err := writeReadings(f, rows); err != nil {
		return nil, err
	}

	return f, nil
}

func writeSummary(f *excelize.File, upload domain.Upload) error {
	header := [][]any{
		{"File", upload.FileName},
		{"Rows", upload.RowCount},
		{"Created", upload.CreatedAt},
		{},
		{"Average Flowrate", upload.Summary.AvgFlowrate},
		{"Average Pressure", upload.Summary.AvgPressure},
		{"Average Temperature", upload.Summary.AvgTemperature},
		{},
		{"Equipment Type", "Count"},
	}

	for i, row := range header {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return fmt.Errorf("failed to address summary cell: %w", err)
		}
		if err := f.SetSheetRow(summarySheet, cell, &row); err != nil {
			return fmt.Errorf("failed to write summary row: %w", err)
		}
	}

	// Deterministic sheet output regardless of map iteration order.
	types := make([]string, 0, len(upload.Summary.TypeDistribution))
	for equipmentType := range upload.Summary.TypeDistribution {
		types = append(types, equipmentType)
	}
	sort.Strings(types)

	for i, equipmentType := range types {
		cell, err := excelize.CoordinatesToCellName(1, len(header)+i+1)
		if err != nil {
			return fmt.Errorf("failed to address distribution cell: %w", err)
		}
		row := []any{equipmentType, upload.Summary.TypeDistribution[equipmentType]}
		if err := f.SetSheetRow(summarySheet, cell, &row); err != nil {
			return fmt.Errorf("failed to write distribution row: %w", err)
		}
	}

	return nil
}

func writeReadings(f *excelize.File, rows []domain.EquipmentRow) error {
	header := []any{"Equipment Name", "Equipment Type", "Flowrate", "Pressure", "Temperature"}
	if err := f.SetSheetRow(readingsSheet, "A1", &header); err != nil {
		return fmt.Errorf("failed to write readings header: %w", err)
	}

	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return fmt.Errorf("failed to address readings cell: %w", err)
		}
		values := []any{
			row.EquipmentName,
			row.EquipmentType,
			numericCell(row.Flowrate),
			numericCell(row.Pressure),
			numericCell(row.Temperature),
		}
		if err := f.SetSheetRow(readingsSheet, cell, &values); err != nil {
			return fmt.Errorf("failed to write readings row: %w", err)
		}
	}

	return nil
}

func numericCell(value *float64) any {
	if value == nil {
		return nil
	}
	return *value
}
