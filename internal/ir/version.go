package ir

// Version constants for the output model and the converter.
const (
	// OutputVersion is the output schema version.
	OutputVersion = "1"

	// ConverterVersion is the qppconv release version.
	ConverterVersion = "0.1.0"
)
