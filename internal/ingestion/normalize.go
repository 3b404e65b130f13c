package ingestion

import (
	"math"
	"strconv"
	"strings"

	"github.com/equipsight/api/internal/domain"
)

// NormalizeRow converts one raw CSV record into its canonical form using the
// file's column mapping. Text fields fall back to the sentinel when unmapped
// or blank; numeric fields degrade to null on any coercion failure, never an
// error.
func NormalizeRow(record []string, mapping ColumnMapping) domain.EquipmentRow {
	return domain.EquipmentRow{
		EquipmentName: textField(record, mapping, FieldName),
		EquipmentType: textField(record, mapping, FieldType),
		Flowrate:      numericField(record, mapping, FieldFlowrate),
		Pressure:      numericField(record, mapping, FieldPressure),
		Temperature:   numericField(record, mapping, FieldTemperature),
	}
}

func textField(record []string, mapping ColumnMapping, field string) string {
	column, ok := mapping[field]
	if !ok || column.Index >= len(record) {
		return domain.SentinelUnknown
	}
	value := strings.TrimSpace(record[column.Index])
	if value == "" {
		return domain.SentinelUnknown
	}
	return value
}

func numericField(record []string, mapping ColumnMapping, field string) *float64 {
	column, ok := mapping[field]
	if !ok || column.Index >= len(record) {
		return nil
	}
	raw := strings.TrimSpace(record[column.Index])
	if raw == "" {
		return nil
	}
	value, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return nil
	}
	// ParseFloat accepts "NaN" and "Inf" spellings; neither is representable
	// in persisted data, so both normalize to null.
	if math.IsNaN(value) || math.IsInf(value, 0) {
		return nil
	}
	return &value
}
