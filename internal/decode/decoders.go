package decode

import (
	"fmt"
	"strings"
	"time"

	"github.com/roach88/qppconv/internal/failure"
	"github.com/roach88/qppconv/internal/node"
	"github.com/roach88/qppconv/internal/registry"
	"github.com/roach88/qppconv/internal/template"
	"github.com/roach88/qppconv/internal/xmldoc"
)

// Identifier roots read by the decoders.
const (
	ProgramNameRoot = "2.16.840.1.113883.3.249.7"
	TINRoot         = "2.16.840.1.113883.4.2"
	NPIRoot         = "2.16.840.1.113883.4.6"
)

// Entries is the static decoder table.
func Entries() []registry.Entry[template.ID, Decoder] {
	return []registry.Entry[template.ID, Decoder]{
		bind(template.ClinicalDocument, clinicalDocument),
		bind(template.ReportingParametersAct, reportingParameters),
		bind(template.IASection, passThrough),
		bind(template.PISection, passThrough),
		bind(template.MeasureSectionV2, passThrough),
		bind(template.IAMeasure, measureReference),
		bind(template.MeasurePerformed, measurePerformed),
		bind(template.PINumeratorDenominator, measureReference),
		bind(template.PINumerator, passThrough),
		bind(template.PIDenominator, passThrough),
		bind(template.PIAggregateCount, aggregateCount),
		bind(template.MeasureReferenceResultsCMSV2, measureReference),
		bind(template.MeasureDataCMSV2, measureData),
		bind(template.PerformanceRateProportionMeasure, performanceRate),
		bind(template.EthnicitySupplementalDataElementCMSV2, supplemental),
		bind(template.SexSupplementalDataElementCMSV2, supplemental),
		bind(template.RaceSupplementalDataElementCMSV2, supplemental),
		bind(template.PayerSupplementalDataElementCMSV2, supplemental),
	}
}

// PathEntries maps unmarked elements to templates.
func PathEntries() []registry.Entry[string, template.ID] {
	return []registry.Entry[string, template.ID]{
		{
			Key:         "/ClinicalDocument",
			New:         registry.Value(func() template.ID { return template.ClinicalDocument }),
			Conditional: template.ClinicalDocument.String(),
		},
	}
}

func bind(id template.ID, fn Func) registry.Entry[template.ID, Decoder] {
	return registry.Entry[template.ID, Decoder]{
		Key:         id,
		New:         registry.Value(func() Decoder { return fn }),
		Conditional: id.String(),
	}
}

func passThrough(*xmldoc.Element, *node.Node) (Result, error) {
	return Continue, nil
}

func clinicalDocument(el *xmldoc.Element, n *node.Node) (Result, error) {
	recipient := el.Descend("informationRecipient", "intendedRecipient")
	if id := recipient.FindFirst("id", xmldoc.WithAttr("root", ProgramNameRoot)); id != nil {
		if ext, ok := id.LookupAttr("extension"); ok {
			program, entity := splitProgram(ext)
			n.Set(node.ProgramName, program)
			if entity != "" {
				n.Set(node.EntityType, entity)
			}
		}
	}

	event := el.Descend("documentationOf", "serviceEvent")
	if id := event.FindFirst("id", xmldoc.WithAttr("root", TINRoot)); id != nil {
		n.Set(node.TIN, id.Attr("extension"))
	}
	if id := event.FindFirst("id", xmldoc.WithAttr("root", NPIRoot)); id != nil {
		n.Set(node.NPI, id.Attr("extension"))
	}
	if low := event.Descend("effectiveTime", "low"); low != nil {
		if v := low.Attr("value"); len(v) >= 4 {
			n.Set(node.PerformanceYear, v[:4])
		}
	}
	return Continue, nil
}

// splitProgram maps a recipient extension such as "MIPS_GROUP" to its
// program name and entity type.
func splitProgram(ext string) (program, entity string) {
	name, suffix, _ := strings.Cut(strings.TrimSpace(ext), "_")
	program = strings.ToLower(name)
	switch strings.ToUpper(suffix) {
	case "INDIV":
		entity = "individual"
	case "GROUP":
		entity = "group"
	}
	return program, entity
}

func reportingParameters(el *xmldoc.Element, n *node.Node) (Result, error) {
	period := el.Child("effectiveTime")
	for _, bound := range []struct {
		name string
		attr string
	}{
		{"low", node.PerformanceStart},
		{"high", node.PerformanceEnd},
	} {
		e := period.Child(bound.name)
		raw, ok := e.LookupAttr("value")
		if !ok {
			continue
		}
		date, err := parseDate(raw)
		if err != nil {
			return Continue, failure.NewDecodeError(e.Path(), "invalid reporting period "+bound.name, err)
		}
		n.Set(bound.attr, date)
	}
	return Finished, nil
}

// parseDate converts an HL7 timestamp (YYYYMMDD with optional time) to
// YYYY-MM-DD.
func parseDate(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if len(raw) < 8 {
		return "", fmt.Errorf("timestamp %q is shorter than YYYYMMDD", raw)
	}
	t, err := time.Parse("20060102", raw[:8])
	if err != nil {
		return "", fmt.Errorf("timestamp %q: %w", raw, err)
	}
	return t.Format("2006-01-02"), nil
}

func measureReference(el *xmldoc.Element, n *node.Node) (Result, error) {
	if id := el.Descend("reference", "externalDocument", "id"); id != nil {
		if ext, ok := id.LookupAttr("extension"); ok {
			n.Set(node.MeasureID, strings.TrimSpace(ext))
		}
	}
	return Continue, nil
}

func measurePerformed(el *xmldoc.Element, n *node.Node) (Result, error) {
	if code, ok := el.Child("value").LookupAttr("code"); ok {
		n.Set(node.MeasurePerformed, code)
	}
	return Finished, nil
}

func aggregateCount(el *xmldoc.Element, n *node.Node) (Result, error) {
	if v, ok := el.Child("value").LookupAttr("value"); ok {
		n.Set(node.AggregateCount, strings.TrimSpace(v))
	}
	return Finished, nil
}

// Populations that are never submitted.
var ignoredPopulations = map[string]bool{"IPOP": true, "IPP": true}

func measureData(el *xmldoc.Element, n *node.Node) (Result, error) {
	value := el.Child("value")
	if code, ok := value.LookupAttr("code"); ok {
		if ignoredPopulations[strings.ToUpper(code)] {
			return Skip, nil
		}
		n.Set(node.PopulationType, code)
	}
	if ref := el.Descend("reference", "externalObservation", "id"); ref != nil {
		n.Set(node.PopulationID, ref.Attr("root"))
	}
	return Continue, nil
}

func performanceRate(el *xmldoc.Element, n *node.Node) (Result, error) {
	value := el.Child("value")
	if flavor, ok := value.LookupAttr("nullFlavor"); ok && flavor == node.NotApplicable {
		n.Set(node.PerformanceRate, node.NotApplicable)
		return Finished, nil
	}
	if v, ok := value.LookupAttr("value"); ok {
		n.Set(node.PerformanceRate, strings.TrimSpace(v))
	}
	return Finished, nil
}

func supplemental(el *xmldoc.Element, n *node.Node) (Result, error) {
	if code, ok := el.Child("value").LookupAttr("code"); ok {
		n.Set(node.SupplementalCode, code)
	}
	return Continue, nil
}
