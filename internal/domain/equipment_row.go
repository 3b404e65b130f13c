package domain

import "github.com/google/uuid"

// SentinelUnknown is the fallback value for a text field that could not be
// resolved from the source file.
const SentinelUnknown = "Unknown"

// EquipmentRow is one normalized CSV line. Numeric readings are nullable: a
// missing column or an unparseable value yields nil, never zero.
type EquipmentRow struct {
	ID            uuid.UUID `json:"id"`
	UploadID      uuid.UUID `json:"upload_id"`
	EquipmentName string    `json:"equipment_name"`
	EquipmentType string    `json:"equipment_type"`
	Flowrate      *float64  `json:"flowrate"`
	Pressure      *float64  `json:"pressure"`
	Temperature   *float64  `json:"temperature"`
}

// Retained reports whether the row carries any identity. Rows where both
// identity fields fell back to the sentinel are treated as blank or
// header-mismatched lines and dropped.
func (r EquipmentRow) Retained() bool {
	return !(r.EquipmentName == SentinelUnknown && r.EquipmentType == SentinelUnknown)
}
