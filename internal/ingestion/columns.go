package ingestion

import "strings"

// Canonical fields every CSV row is normalized into.
const (
	FieldName        = "name"
	FieldType        = "type"
	FieldFlowrate    = "flowrate"
	FieldPressure    = "pressure"
	FieldTemperature = "temperature"
)

// canonicalOrder fixes the order in which fields claim headers. Identity
// fields resolve first so an ambiguous header like "Equipment Type Flow" is
// claimed as identity, not as a reading.
var canonicalOrder = []string{
	FieldName,
	FieldType,
	FieldFlowrate,
	FieldPressure,
	FieldTemperature,
}

// columnSynonyms maps each canonical field to the lowercase substrings that
// identify it. Synonym order matters: the first synonym that matches any
// header wins before later synonyms are tried.
var columnSynonyms = map[string][]string{
	FieldName:        {"equipment name", "equipment", "name", "tag"},
	FieldType:        {"equipment type", "type", "category", "class"},
	FieldFlowrate:    {"flowrate", "flow rate", "flow"},
	FieldPressure:    {"pressure", "press"},
	FieldTemperature: {"temperature", "temp"},
}

// Column identifies the header a canonical field resolved to.
type Column struct {
	Header string `json:"header"`
	Index  int    `json:"index"`
}

// ColumnMapping maps canonical field names to their matched header. Fields
// with no matching header are absent. Built once per file; the same fixed
// synonym table applies to every upload.
type ColumnMapping map[string]Column

// ResolveColumns inspects the header row and selects, for each canonical
// field, the first header (in original order) whose lowercased text contains
// one of the field's synonyms. A header is claimed by at most one field per
// resolution pass, so duplicate header text only ever matches its first
// occurrence. Zero matches on a field is not an error; normalization falls
// back to sentinels downstream.
func ResolveColumns(headers []string) ColumnMapping {
	lowered := make([]string, len(headers))
	for i, header := range headers {
		lowered[i] = strings.ToLower(header)
	}

	claimed := make(map[int]bool, len(headers))
	mapping := make(ColumnMapping, len(canonicalOrder))

	for _, field := range canonicalOrder {
		for _, synonym := range columnSynonyms[field] {
			matched := -1
			for idx, header := range lowered {
				if claimed[idx] {
					continue
				}
				if strings.Contains(header, synonym) {
					matched = idx
					break
				}
			}
			if matched >= 0 {
				claimed[matched] = true
				mapping[field] = Column{Header: headers[matched], Index: matched}
				break
			}
		}
	}

	return mapping
}
