package node

// Attribute names written by decoders and read by validators and encoders.
const (
	ProgramName      = "programName"
	EntityType       = "entityType"
	TIN              = "taxpayerIdentificationNumber"
	NPI              = "nationalProviderIdentifier"
	PerformanceStart = "performanceStart"
	PerformanceEnd   = "performanceEnd"
	PerformanceYear  = "performanceYear"
	MeasureID        = "measureId"
	MeasurePerformed = "measurePerformed"
	AggregateCount   = "aggregateCount"
	PopulationType   = "populationType"
	PopulationID     = "populationId"
	PerformanceRate  = "performanceRate"
	SupplementalCode = "supplementalCode"
)

// NotApplicable is the performance rate value decoded from nullFlavor="NA".
const NotApplicable = "NA"
