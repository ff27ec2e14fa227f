package message

import "strings"

// Format declares how a payload is encoded.
type Format int

const (
	FormatUnknown Format = iota
	FormatJSON
	FormatCSV
	FormatYAML
	FormatAvro
	FormatParquet
	FormatText
	FormatBinary
)

var formatNames = map[Format]string{
	FormatUnknown: "unknown",
	FormatJSON:    "json",
	FormatCSV:     "csv",
	FormatYAML:    "yaml",
	FormatAvro:    "avro",
	FormatParquet: "parquet",
	FormatText:    "text",
	FormatBinary:  "binary",
}

// String returns the lower-case format name.
func (f Format) String() string {
	if name, ok := formatNames[f]; ok {
		return name
	}
	return "unknown"
}

// ParseFormat maps a name such as "json" or "yml" to a Format.
func ParseFormat(name string) (Format, bool) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "json", "ndjson":
		return FormatJSON, true
	case "csv":
		return FormatCSV, true
	case "yaml", "yml":
		return FormatYAML, true
	case "avro":
		return FormatAvro, true
	case "parquet":
		return FormatParquet, true
	case "text", "txt":
		return FormatText, true
	case "binary", "bin":
		return FormatBinary, true
	}
	return FormatUnknown, false
}
