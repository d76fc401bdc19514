package validate

// Messages reported by the catalog validators.
const (
	ClinicalDocumentMissingSections = "Clinical Document Node must have at least one IA, PI or eCQM Section Node as a child"
	ContainsProgramName             = "Clinical Document must contain a program name"
	IncorrectProgramName            = "Clinical Document program name must be one of: mips, cpcplus"
	ContainsTIN                     = "Clinical Document must contain a taxpayer identification number"
	DuplicateIASection              = "Clinical Document contains duplicate IA sections"
	DuplicatePISection              = "Clinical Document contains duplicate PI sections"
	DuplicateMeasureSection         = "Clinical Document contains duplicate eCQM sections"

	SectionMissingReportingParameters = "Section must have a Reporting Parameters Act"
	IASectionMissingMeasures          = "IA Section must have at least one IA Measure"
	PISectionMissingMeasures          = "PI Section must have at least one PI Numerator Denominator"
	MeasureSectionMissingMeasures     = "eCQM Section must have at least one Measure Reference Results"

	ReportingParametersMissingStart = "Reporting Parameters Act must have a performance start"
	ReportingParametersMissingEnd   = "Reporting Parameters Act must have a performance end"
	ReportingParametersOutOfOrder   = "Reporting Parameters Act performance start must not be after performance end"

	PIMissingMeasureID            = "PI Numerator Denominator must have a measure id"
	PIMissingNumerator            = "PI Numerator Denominator must have exactly one Numerator"
	PITooManyNumerators           = "PI Numerator Denominator must not have more than one Numerator"
	PIMissingDenominator          = "PI Numerator Denominator must have exactly one Denominator"
	PITooManyDenominators         = "PI Numerator Denominator must not have more than one Denominator"
	PINumeratorExceedsDenominator = "PI Numerator must not be greater than its Denominator"

	NumeratorMissingCount    = "PI Numerator must have an Aggregate Count"
	NumeratorTooManyCounts   = "PI Numerator must not have more than one Aggregate Count"
	DenominatorMissingCount  = "PI Denominator must have an Aggregate Count"
	DenominatorTooManyCounts = "PI Denominator must not have more than one Aggregate Count"
	AggregateCountNotInteger = "Aggregate Count must be an integer"
	AggregateCountNegative   = "Aggregate Count must not be negative"

	IAMeasureMissingID        = "IA Measure must have a measure id"
	IAMeasureMissingPerformed = "IA Measure must have exactly one Measure Performed"
	IAMeasureTooManyPerformed = "IA Measure must not have more than one Measure Performed"
	MeasurePerformedMissing   = "Measure Performed must have a value"
	MeasurePerformedInvalid   = "Measure Performed value must be Y or N"

	MeasureMissingID         = "Measure Reference Results must have a measure id"
	MeasureMissingData       = "Measure Reference Results must have at least one Measure Data"
	MeasureDataMissingType   = "Measure Data must have a population type"
	MeasureDataMissingCount  = "Measure Data must have an Aggregate Count"
	MeasureDataTooManyCounts = "Measure Data must not have more than one Aggregate Count"
	PerformanceRateMissing   = "Performance Rate must have a value"
	PerformanceRateInvalid   = "Performance Rate must be NA or a decimal between 0 and 1"
	SupplementalMissingCode  = "Supplemental Data Element must have a code"
)
