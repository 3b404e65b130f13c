package ingestion

import (
	"testing"

	"github.com/equipsight/api/internal/domain"
)

func TestNormalizeRowCoercesAndTrims(t *testing.T) {
	mapping := ResolveColumns([]string{"Name", "Type", "Flow", "Pressure", "Temp"})

	row := NormalizeRow([]string{" Pump-1 ", "Centrifugal", " 12.5 ", "1e3", "-4"}, mapping)

	if row.EquipmentName != "Pump-1" {
		t.Fatalf("expected trimmed name, got %q", row.EquipmentName)
	}
	if row.EquipmentType != "Centrifugal" {
		t.Fatalf("unexpected type %q", row.EquipmentType)
	}
	if row.Flowrate == nil || *row.Flowrate != 12.5 {
		t.Fatalf("expected flowrate 12.5, got %v", row.Flowrate)
	}
	if row.Pressure == nil || *row.Pressure != 1000 {
		t.Fatalf("expected scientific notation to parse, got %v", row.Pressure)
	}
	if row.Temperature == nil || *row.Temperature != -4 {
		t.Fatalf("expected temperature -4, got %v", row.Temperature)
	}
}

func TestNormalizeRowNonNumericIsNull(t *testing.T) {
	mapping := ResolveColumns([]string{"Name", "Flow"})

	for _, raw := range []string{"abc", "12,5", "NaN", "nan", "Inf", "-Inf", ""} {
		row := NormalizeRow([]string{"Pump-1", raw}, mapping)
		if row.Flowrate != nil {
			t.Fatalf("expected null flowrate for %q, got %v", raw, *row.Flowrate)
		}
	}
}

func TestNormalizeRowSentinelFallback(t *testing.T) {
	mapping := ResolveColumns([]string{"Flow"})

	row := NormalizeRow([]string{"10"}, mapping)

	if row.EquipmentName != domain.SentinelUnknown || row.EquipmentType != domain.SentinelUnknown {
		t.Fatalf("expected sentinel identity, got %q/%q", row.EquipmentName, row.EquipmentType)
	}
}

func TestNormalizeRowShortRecord(t *testing.T) {
	mapping := ResolveColumns([]string{"Name", "Type", "Flow"})

	row := NormalizeRow([]string{"Pump-1"}, mapping)

	if row.EquipmentName != "Pump-1" {
		t.Fatalf("unexpected name %q", row.EquipmentName)
	}
	if row.EquipmentType != domain.SentinelUnknown {
		t.Fatalf("expected sentinel type, got %q", row.EquipmentType)
	}
	if row.Flowrate != nil {
		t.Fatalf("expected null flowrate, got %v", *row.Flowrate)
	}
}

func TestRetained(t *testing.T) {
	cases := []struct {
		name     string
		row      domain.EquipmentRow
		retained bool
	}{
		{"both sentinel", domain.EquipmentRow{EquipmentName: domain.SentinelUnknown, EquipmentType: domain.SentinelUnknown}, false},
		{"only type set", domain.EquipmentRow{EquipmentName: domain.SentinelUnknown, EquipmentType: "Valve"}, true},
		{"only name set", domain.EquipmentRow{EquipmentName: "Pump-1", EquipmentType: domain.SentinelUnknown}, true},
		{"both set", domain.EquipmentRow{EquipmentName: "Pump-1", EquipmentType: "Pump"}, true},
	}

	for _, tc := range cases {
		if got := tc.row.Retained(); got != tc.retained {
			t.Fatalf("%s: expected retained=%v, got %v", tc.name, tc.retained, got)
		}
	}
}
