// Package template defines the closed set of QRDA template identifiers.
//
// Every decoded node carries exactly one ID. IDs are the dispatch key for
// the decode, validate and encode registries and the members of scopes.
// The set is fixed at build time; Unknown is the zero value and is never
// dispatched.
package template

import (
	"sort"
	"strings"
)

// ID identifies the semantic role of a document element.
type ID uint8

const (
	Unknown ID = iota
	ClinicalDocument
	ReportingParametersAct
	IASection
	IAMeasure
	MeasurePerformed
	PISection
	PINumeratorDenominator
	PINumerator
	PIDenominator
	PIAggregateCount
	MeasureSectionV2
	MeasureReferenceResultsCMSV2
	MeasureDataCMSV2
	PerformanceRateProportionMeasure
	ReportingStratumCMS
	EthnicitySupplementalDataElementCMSV2
	SexSupplementalDataElementCMSV2
	RaceSupplementalDataElementCMSV2
	PayerSupplementalDataElementCMSV2

	count
)

// info is the static descriptor of an ID.
type info struct {
	name      string
	root      string
	extension string
}

var table = [count]info{
	Unknown:                               {name: "UNKNOWN"},
	ClinicalDocument:                      {"CLINICAL_DOCUMENT", "2.16.840.1.113883.10.20.27.1.1", "2017-06-01"},
	ReportingParametersAct:                {"REPORTING_PARAMETERS_ACT", "2.16.840.1.113883.10.20.17.3.8", ""},
	IASection:                             {"IA_SECTION", "2.16.840.1.113883.10.20.27.2.4", ""},
	IAMeasure:                             {"IA_MEASURE", "2.16.840.1.113883.10.20.27.3.33", ""},
	MeasurePerformed:                      {"MEASURE_PERFORMED", "2.16.840.1.113883.10.20.27.3.27", ""},
	PISection:                             {"PI_SECTION", "2.16.840.1.113883.10.20.27.2.5", "2017-06-01"},
	PINumeratorDenominator:                {"PI_NUMERATOR_DENOMINATOR", "2.16.840.1.113883.10.20.27.3.28", ""},
	PINumerator:                           {"PI_NUMERATOR", "2.16.840.1.113883.10.20.27.3.31", ""},
	PIDenominator:                         {"PI_DENOMINATOR", "2.16.840.1.113883.10.20.27.3.32", ""},
	PIAggregateCount:                      {"PI_AGGREGATE_COUNT", "2.16.840.1.113883.10.20.27.3.3", ""},
	MeasureSectionV2:                      {"MEASURE_SECTION_V2", "2.16.840.1.113883.10.20.27.2.3", "2017-06-01"},
	MeasureReferenceResultsCMSV2:          {"MEASURE_REFERENCE_RESULTS_CMS_V2", "2.16.840.1.113883.10.20.27.3.17", "2016-11-01"},
	MeasureDataCMSV2:                      {"MEASURE_DATA_CMS_V2", "2.16.840.1.113883.10.20.27.3.16", "2016-11-01"},
	PerformanceRateProportionMeasure:      {"PERFORMANCE_RATE_PROPORTION_MEASURE", "2.16.840.1.113883.10.20.27.3.30", "2016-09-01"},
	ReportingStratumCMS:                   {"REPORTING_STRATUM_CMS", "2.16.840.1.113883.10.20.27.3.20", ""},
	EthnicitySupplementalDataElementCMSV2: {"ETHNICITY_SUPPLEMENTAL_DATA_ELEMENT_CMS_V2", "2.16.840.1.113883.10.20.27.3.22", "2016-11-01"},
	SexSupplementalDataElementCMSV2:       {"SEX_SUPPLEMENTAL_DATA_ELEMENT_CMS_V2", "2.16.840.1.113883.10.20.27.3.21", "2016-11-01"},
	RaceSupplementalDataElementCMSV2:      {"RACE_SUPPLEMENTAL_DATA_ELEMENT_CMS_V2", "2.16.840.1.113883.10.20.27.3.19", "2016-11-01"},
	PayerSupplementalDataElementCMSV2:     {"PAYER_SUPPLEMENTAL_DATA_ELEMENT_CMS_V2", "2.16.840.1.113883.10.20.27.3.18", "2016-11-01"},
}

var (
	byName = make(map[string]ID, count)
	byOID  = make(map[string]ID, count)
)

func init() {
	for id := ID(1); id < count; id++ {
		t := table[id]
		byName[t.name] = id
		byOID[oidKey(t.root, t.extension)] = id
		// Root-only lookups resolve to the first ID declared for that root.
		if _, ok := byOID[oidKey(t.root, "")]; !ok {
			byOID[oidKey(t.root, "")] = id
		}
	}
}

func oidKey(root, extension string) string {
	if extension == "" {
		return root
	}
	return root + ":" + extension
}

// String returns the canonical upper snake case name.
func (id ID) String() string {
	if id >= count {
		return table[Unknown].name
	}
	return table[id].name
}

// Valid reports whether id is a dispatchable identifier.
func (id ID) Valid() bool {
	return id > Unknown && id < count
}

// Root returns the OID root of the template.
func (id ID) Root() string {
	if !id.Valid() {
		return ""
	}
	return table[id].root
}

// Extension returns the template version extension, which may be empty.
func (id ID) Extension() string {
	if !id.Valid() {
		return ""
	}
	return table[id].extension
}

// ByOID resolves a templateId marker. An exact root:extension match wins;
// otherwise the root alone is tried so that newer extensions of a known
// template still dispatch.
func ByOID(root, extension string) (ID, bool) {
	if id, ok := byOID[oidKey(root, extension)]; ok {
		return id, true
	}
	id, ok := byOID[oidKey(root, "")]
	return id, ok
}

// ByName resolves a canonical name such as "PI_SECTION". Matching is case
// insensitive.
func ByName(name string) (ID, bool) {
	id, ok := byName[strings.ToUpper(strings.TrimSpace(name))]
	return id, ok
}

// All returns every valid ID in declaration order.
func All() []ID {
	ids := make([]ID, 0, count-1)
	for id := ID(1); id < count; id++ {
		ids = append(ids, id)
	}
	return ids
}

// Set is an unordered collection of IDs.
type Set map[ID]struct{}

// NewSet builds a set from ids.
func NewSet(ids ...ID) Set {
	s := make(Set, len(ids))
	for _, id := range ids {
		s[id] = struct{}{}
	}
	return s
}

// Universe returns a set holding every valid ID.
func Universe() Set {
	return NewSet(All()...)
}

// Has reports membership. A nil set contains nothing.
func (s Set) Has(id ID) bool {
	_, ok := s[id]
	return ok
}

// Add inserts ids into the set.
func (s Set) Add(ids ...ID) {
	for _, id := range ids {
		s[id] = struct{}{}
	}
}

// Union adds every member of other.
func (s Set) Union(other Set) {
	for id := range other {
		s[id] = struct{}{}
	}
}

// Contains reports whether every member of other is in s.
func (s Set) Contains(other Set) bool {
	for id := range other {
		if !s.Has(id) {
			return false
		}
	}
	return true
}

// Sorted returns the members in declaration order.
func (s Set) Sorted() []ID {
	ids := make([]ID, 0, len(s))
	for id := range s {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}
