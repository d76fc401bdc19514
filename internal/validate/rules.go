package validate

import (
	"strings"

	"github.com/roach88/qppconv/internal/failure"
	"github.com/roach88/qppconv/internal/ir"
	"github.com/roach88/qppconv/internal/node"
	"github.com/roach88/qppconv/internal/registry"
	"github.com/roach88/qppconv/internal/template"
)

// Entries is the static validator table.
func Entries() []registry.Entry[template.ID, Validator] {
	return []registry.Entry[template.ID, Validator]{
		bind(template.ClinicalDocument, clinicalDocument),
		bind(template.ReportingParametersAct, reportingParameters),
		bind(template.IASection, section(IASectionMissingMeasures, template.IAMeasure)),
		bind(template.PISection, section(PISectionMissingMeasures, template.PINumeratorDenominator)),
		bind(template.MeasureSectionV2, section(MeasureSectionMissingMeasures, template.MeasureReferenceResultsCMSV2)),
		bind(template.IAMeasure, iaMeasure),
		bind(template.MeasurePerformed, measurePerformed),
		bind(template.PINumeratorDenominator, piNumeratorDenominator),
		bind(template.PINumerator, countHolder(NumeratorMissingCount, NumeratorTooManyCounts)),
		bind(template.PIDenominator, countHolder(DenominatorMissingCount, DenominatorTooManyCounts)),
		bind(template.PIAggregateCount, aggregateCount),
		bind(template.MeasureReferenceResultsCMSV2, measureReferenceResults),
		bind(template.MeasureDataCMSV2, measureData),
		bind(template.PerformanceRateProportionMeasure, performanceRate),
		bind(template.EthnicitySupplementalDataElementCMSV2, supplemental),
		bind(template.SexSupplementalDataElementCMSV2, supplemental),
		bind(template.RaceSupplementalDataElementCMSV2, supplemental),
		bind(template.PayerSupplementalDataElementCMSV2, supplemental),
	}
}

func bind(id template.ID, fn Func) registry.Entry[template.ID, Validator] {
	return registry.Entry[template.ID, Validator]{
		Key:         id,
		New:         registry.Value(func() Validator { return fn }),
		Conditional: id.String(),
	}
}

func clinicalDocument(n *node.Node, details *[]failure.Detail) {
	ThoroughlyCheck(n, details).
		ChildMinimum(ClinicalDocumentMissingSections, 1,
			template.IASection, template.PISection, template.MeasureSectionV2).
		Value(ContainsProgramName, node.ProgramName).
		ValueIn(IncorrectProgramName, node.ProgramName, "mips", "cpcplus").
		Value(ContainsTIN, node.TIN).
		ChildMaximum(DuplicateIASection, 1, template.IASection).
		ChildMaximum(DuplicatePISection, 1, template.PISection).
		ChildMaximum(DuplicateMeasureSection, 1, template.MeasureSectionV2)
}

func section(missingMeasures string, measure template.ID) Func {
	return func(n *node.Node, details *[]failure.Detail) {
		ThoroughlyCheck(n, details).
			ChildMinimum(SectionMissingReportingParameters, 1, template.ReportingParametersAct).
			ChildMinimum(missingMeasures, 1, measure)
	}
}

func reportingParameters(n *node.Node, details *[]failure.Detail) {
	c := ThoroughlyCheck(n, details).
		Value(ReportingParametersMissingStart, node.PerformanceStart).
		Value(ReportingParametersMissingEnd, node.PerformanceEnd)
	if c.Failed() {
		return
	}
	// Dates are ISO formatted, so string order is date order.
	Check(n, details).Satisfies(ReportingParametersOutOfOrder, func(n *node.Node) bool {
		return n.Get(node.PerformanceStart) <= n.Get(node.PerformanceEnd)
	})
}

func iaMeasure(n *node.Node, details *[]failure.Detail) {
	ThoroughlyCheck(n, details).
		Value(IAMeasureMissingID, node.MeasureID).
		ChildMinimum(IAMeasureMissingPerformed, 1, template.MeasurePerformed).
		ChildMaximum(IAMeasureTooManyPerformed, 1, template.MeasurePerformed)
}

func measurePerformed(n *node.Node, details *[]failure.Detail) {
	Check(n, details).
		Value(MeasurePerformedMissing, node.MeasurePerformed).
		ValueIn(MeasurePerformedInvalid, node.MeasurePerformed, "Y", "N")
}

func piNumeratorDenominator(n *node.Node, details *[]failure.Detail) {
	ThoroughlyCheck(n, details).
		Value(PIMissingMeasureID, node.MeasureID).
		ChildMinimum(PIMissingNumerator, 1, template.PINumerator).
		ChildMaximum(PITooManyNumerators, 1, template.PINumerator).
		ChildMinimum(PIMissingDenominator, 1, template.PIDenominator).
		ChildMaximum(PITooManyDenominators, 1, template.PIDenominator)

	// The pair can only be compared when both sides carry a usable count.
	num, okNum := soleCount(n, template.PINumerator)
	den, okDen := soleCount(n, template.PIDenominator)
	if okNum && okDen && num > den {
		*details = append(*details, failure.NewDetail(PINumeratorExceedsDenominator, n.Path()))
	}
}

// soleCount returns the aggregate count of the only child of type typ.
func soleCount(n *node.Node, typ template.ID) (int64, bool) {
	holders := n.ChildrenOf(typ)
	if len(holders) != 1 {
		return 0, false
	}
	counts := holders[0].ChildrenOf(template.PIAggregateCount)
	if len(counts) != 1 {
		return 0, false
	}
	return intAttr(counts[0], node.AggregateCount)
}

func countHolder(missing, tooMany string) Func {
	return func(n *node.Node, details *[]failure.Detail) {
		Check(n, details).
			ChildMinimum(missing, 1, template.PIAggregateCount).
			ChildMaximum(tooMany, 1, template.PIAggregateCount)
	}
}

func aggregateCount(n *node.Node, details *[]failure.Detail) {
	Check(n, details).
		IntValue(AggregateCountNotInteger, node.AggregateCount).
		IntMinimum(AggregateCountNegative, node.AggregateCount, 0)
}

func measureReferenceResults(n *node.Node, details *[]failure.Detail) {
	ThoroughlyCheck(n, details).
		Value(MeasureMissingID, node.MeasureID).
		ChildMinimum(MeasureMissingData, 1, template.MeasureDataCMSV2)
}

func measureData(n *node.Node, details *[]failure.Detail) {
	Check(n, details).
		Value(MeasureDataMissingType, node.PopulationType).
		ChildMinimum(MeasureDataMissingCount, 1, template.PIAggregateCount).
		ChildMaximum(MeasureDataTooManyCounts, 1, template.PIAggregateCount)
}

func performanceRate(n *node.Node, details *[]failure.Detail) {
	Check(n, details).
		Value(PerformanceRateMissing, node.PerformanceRate).
		Satisfies(PerformanceRateInvalid, validRate)
}

func validRate(n *node.Node) bool {
	raw := n.Get(node.PerformanceRate)
	if raw == node.NotApplicable {
		return true
	}
	if _, err := ir.ParseDecimal(raw); err != nil {
		return false
	}
	whole, frac, _ := strings.Cut(raw, ".")
	switch whole {
	case "0":
		return true
	case "1":
		return strings.Trim(frac, "0") == ""
	}
	return false
}

func supplemental(n *node.Node, details *[]failure.Detail) {
	Check(n, details).Value(SupplementalMissingCode, node.SupplementalCode)
}
