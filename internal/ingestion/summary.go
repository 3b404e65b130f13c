package ingestion

import "github.com/equipsight/api/internal/domain"

// Summarize computes the per-field means and the equipment type distribution
// in a single pass over the retained rows. Averages ignore null readings; a
// field with no non-null values averages to 0 rather than null so downstream
// charts always receive a number.
func Summarize(rows []domain.EquipmentRow) domain.UploadSummary {
	var flowrate, pressure, temperature meanAccumulator
	distribution := make(map[string]int)

	for _, row := range rows {
		flowrate.add(row.Flowrate)
		pressure.add(row.Pressure)
		temperature.add(row.Temperature)
		distribution[row.EquipmentType]++
	}

	return domain.UploadSummary{
		AvgFlowrate:      flowrate.mean(),
		AvgPressure:      pressure.mean(),
		AvgTemperature:   temperature.mean(),
		TypeDistribution: distribution,
	}
}

type meanAccumulator struct {
	sum   float64
	count int
}

func (m *meanAccumulator) add(value *float64) {
	if value == nil {
		return
	}
	m.sum += *value
	m.count++
}

func (m meanAccumulator) mean() float64 {
	if m.count == 0 {
		return 0
	}
	return m.sum / float64(m.count)
}
