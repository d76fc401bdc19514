package scope

import "github.com/roach88/qppconv/internal/template"

// std is the process-wide catalog. It is fully built during package
// initialization and never mutated afterwards.
var std = NewGraph()

// Catalog scopes, declared dependencies first.
var (
	PIAggregateCount = std.MustDeclare("PI_AGGREGATE_COUNT", T(template.PIAggregateCount))
	PINumerator      = std.MustDeclare("PI_NUMERATOR", T(template.PINumerator), PIAggregateCount)
	PIDenominator    = std.MustDeclare("PI_DENOMINATOR", T(template.PIDenominator), PIAggregateCount)

	// A numerator/denominator pair cannot be validated without its section
	// and reporting parameters.
	PINumeratorDenominator = std.MustDeclare("PI_NUMERATOR_DENOMINATOR",
		T(template.PISection, template.ReportingParametersAct, template.PINumeratorDenominator),
		PINumerator, PIDenominator)
	PISection = std.MustDeclare("PI_SECTION",
		T(template.PISection, template.ReportingParametersAct), PINumeratorDenominator)

	MeasurePerformed = std.MustDeclare("MEASURE_PERFORMED", T(template.MeasurePerformed))
	IAMeasure        = std.MustDeclare("IA_MEASURE", T(template.IAMeasure), MeasurePerformed)
	IASection        = std.MustDeclare("IA_SECTION",
		T(template.IASection, template.ReportingParametersAct), IAMeasure)

	Defaults = std.MustDeclare("DEFAULTS", T(
		template.EthnicitySupplementalDataElementCMSV2,
		template.SexSupplementalDataElementCMSV2,
		template.RaceSupplementalDataElementCMSV2,
		template.PayerSupplementalDataElementCMSV2,
	))

	MeasureDataCMSV2 = std.MustDeclare("MEASURE_DATA_CMS_V2",
		T(template.MeasureDataCMSV2, template.ReportingStratumCMS), Defaults, PIAggregateCount)
	MeasureReferenceResultsCMSV2 = std.MustDeclare("MEASURE_REFERENCE_RESULTS_CMS_V2",
		T(template.MeasureReferenceResultsCMSV2, template.PerformanceRateProportionMeasure), MeasureDataCMSV2)
	MeasureSectionV2 = std.MustDeclare("MEASURE_SECTION_V2",
		T(template.MeasureSectionV2), MeasureReferenceResultsCMSV2, T(template.ReportingParametersAct))

	ClinicalDocument = std.MustDeclare("CLINICAL_DOCUMENT",
		T(template.ClinicalDocument), MeasureSectionV2, IASection, PISection)
)

// Default returns the catalog graph.
func Default() *Graph { return std }

// ByName looks a catalog scope up by name.
func ByName(name string) (*Scope, bool) { return std.ByName(name) }

// Names returns every catalog scope name in declaration order.
func Names() []string { return std.Names() }

// All returns the catalog scopes in declaration order.
func All() []*Scope { return std.All() }

// Parse resolves catalog scope names.
func Parse(names []string) ([]*Scope, error) { return std.Parse(names) }
