package encode

import (
	"fmt"
	"strconv"

	"github.com/roach88/qppconv/internal/ir"
	"github.com/roach88/qppconv/internal/node"
	"github.com/roach88/qppconv/internal/registry"
	"github.com/roach88/qppconv/internal/template"
)

// SubmissionMethod is reported for every measurement set.
const SubmissionMethod = "electronicHealthRecord"

// Measurement set categories.
const (
	CategoryQuality = "quality"
	CategoryIA      = "ia"
	CategoryPI      = "pi"
)

// populationKeys maps measure data population codes to result fields.
var populationKeys = map[string]string{
	"NUMER":    "performanceMet",
	"DENOM":    "eligiblePopulation",
	"DENEX":    "eligiblePopulationExclusion",
	"DENEXCEP": "eligiblePopulationException",
}

// Entries is the static encoder table.
func Entries() []registry.Entry[template.ID, Encoder] {
	return []registry.Entry[template.ID, Encoder]{
		bind(template.ClinicalDocument, clinicalDocument),
		bind(template.ReportingParametersAct, reportingParameters),
		bind(template.IASection, section(CategoryIA, template.IAMeasure)),
		bind(template.PISection, section(CategoryPI, template.PINumeratorDenominator)),
		bind(template.MeasureSectionV2, section(CategoryQuality, template.MeasureReferenceResultsCMSV2)),
		bind(template.IAMeasure, iaMeasure),
		bind(template.MeasurePerformed, measurePerformed),
		bind(template.PINumeratorDenominator, piNumeratorDenominator),
		bind(template.PINumerator, countHolder),
		bind(template.PIDenominator, countHolder),
		bind(template.PIAggregateCount, aggregateCount),
		bind(template.MeasureReferenceResultsCMSV2, measureReferenceResults),
		bind(template.MeasureDataCMSV2, measureData),
		bind(template.PerformanceRateProportionMeasure, performanceRate),
	}
}

func bind(id template.ID, fn Func) registry.Entry[template.ID, Encoder] {
	return registry.Entry[template.ID, Encoder]{
		Key:         id,
		New:         registry.Value(func() Encoder { return fn }),
		Conditional: id.String(),
	}
}

// putString copies a node attribute into obj when present.
func putString(obj ir.Object, n *node.Node, attr, key string) {
	if v, ok := n.Lookup(attr); ok {
		obj[key] = ir.String(v)
	}
}

func clinicalDocument(n *node.Node, children Fragments) (ir.Value, error) {
	out := ir.Object{}
	putString(out, n, node.ProgramName, "programName")
	putString(out, n, node.EntityType, "entityType")
	putString(out, n, node.TIN, "taxpayerIdentificationNumber")
	putString(out, n, node.NPI, "nationalProviderIdentifier")
	if raw, ok := n.Lookup(node.PerformanceYear); ok {
		year, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("performance year %q is not a year", raw)
		}
		out["performanceYear"] = ir.Int(year)
	}
	out["measurementSets"] = children.Values(
		template.MeasureSectionV2, template.IASection, template.PISection)
	return out, nil
}

func reportingParameters(n *node.Node, _ Fragments) (ir.Value, error) {
	out := ir.Object{}
	putString(out, n, node.PerformanceStart, "performanceStart")
	putString(out, n, node.PerformanceEnd, "performanceEnd")
	return out, nil
}

func section(category string, measure template.ID) Func {
	return func(_ *node.Node, children Fragments) (ir.Value, error) {
		out := ir.NewObject(
			ir.O("category", ir.String(category)),
			ir.O("submissionMethod", ir.String(SubmissionMethod)),
		)
		if period, ok := children.First(template.ReportingParametersAct); ok {
			if obj, ok := period.(ir.Object); ok {
				out.Merge(obj)
			}
		}
		out["measurements"] = children.Values(measure)
		return out, nil
	}
}

func iaMeasure(n *node.Node, children Fragments) (ir.Value, error) {
	out := ir.Object{}
	putString(out, n, node.MeasureID, "measureId")
	if v, ok := children.First(template.MeasurePerformed); ok {
		out["value"] = v
	}
	return out, nil
}

func measurePerformed(n *node.Node, _ Fragments) (ir.Value, error) {
	switch code := n.Get(node.MeasurePerformed); code {
	case "Y":
		return ir.Bool(true), nil
	case "N":
		return ir.Bool(false), nil
	default:
		return nil, fmt.Errorf("measure performed value %q is not Y or N", code)
	}
}

func piNumeratorDenominator(n *node.Node, children Fragments) (ir.Value, error) {
	value := ir.Object{}
	if v, ok := children.First(template.PINumerator); ok {
		value["numerator"] = v
	}
	if v, ok := children.First(template.PIDenominator); ok {
		value["denominator"] = v
	}
	out := ir.NewObject(ir.O("value", value))
	putString(out, n, node.MeasureID, "measureId")
	return out, nil
}

// countHolder forwards the aggregate count of a numerator or denominator.
func countHolder(_ *node.Node, children Fragments) (ir.Value, error) {
	if v, ok := children.First(template.PIAggregateCount); ok {
		return v, nil
	}
	return nil, nil
}

func aggregateCount(n *node.Node, _ Fragments) (ir.Value, error) {
	raw := n.Get(node.AggregateCount)
	v, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("aggregate count %q is not an integer", raw)
	}
	return ir.Int(v), nil
}

func measureReferenceResults(n *node.Node, children Fragments) (ir.Value, error) {
	value := ir.NewObject(ir.O("isEndToEndReported", ir.Bool(true)))
	for _, f := range children.Of(template.MeasureDataCMSV2) {
		data, ok := f.Value.(ir.Object)
		if !ok {
			continue
		}
		population, _ := data["populationType"].(ir.String)
		key, known := populationKeys[string(population)]
		if !known {
			continue
		}
		if count, ok := data["count"]; ok {
			value[key] = count
		}
	}
	if rate, ok := children.First(template.PerformanceRateProportionMeasure); ok {
		value["performanceRate"] = rate
	}

	out := ir.NewObject(ir.O("value", value))
	putString(out, n, node.MeasureID, "measureId")
	return out, nil
}

func measureData(n *node.Node, children Fragments) (ir.Value, error) {
	out := ir.Object{}
	putString(out, n, node.PopulationType, "populationType")
	if v, ok := children.First(template.PIAggregateCount); ok {
		out["count"] = v
	}
	return out, nil
}

func performanceRate(n *node.Node, _ Fragments) (ir.Value, error) {
	raw, ok := n.Lookup(node.PerformanceRate)
	if !ok {
		return nil, nil
	}
	if raw == node.NotApplicable {
		return ir.Null{}, nil
	}
	d, err := ir.ParseDecimal(raw)
	if err != nil {
		return nil, fmt.Errorf("performance rate: %w", err)
	}
	return d, nil
}
