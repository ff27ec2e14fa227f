package database

import (
	"regexp"
	"strings"

	"github.com/kbukum/fluxmux/errors"
)

var identifierPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*(\.[A-Za-z_][A-Za-z0-9_]*)?$`)

// IsIdentifier reports whether name is a plain SQL identifier, optionally
// schema-qualified.
func IsIdentifier(name string) bool {
	return identifierPattern.MatchString(name)
}

// Column is a required column and its declared type.
type Column struct {
	Name string
	Type string
}

// ParseColumns parses "col:type,col2:type" into columns.
func ParseColumns(spec string) ([]Column, error) {
	if strings.TrimSpace(spec) == "" {
		return nil, nil
	}
	var cols []Column
	for _, part := range strings.Split(spec, ",") {
		name, typ, ok := strings.Cut(strings.TrimSpace(part), ":")
		name, typ = strings.TrimSpace(name), strings.TrimSpace(typ)
		if !ok || name == "" || typ == "" {
			return nil, errors.InvalidInput("schema", "expected col:type, got "+quote(part))
		}
		if !IsIdentifier(name) {
			return nil, errors.InvalidInput("schema", "invalid column name "+quote(name))
		}
		cols = append(cols, Column{Name: name, Type: typ})
	}
	return cols, nil
}

// typeGroups maps every spelling of a type to one name. Types in the same
// group are compatible.
var typeGroups = map[string]string{
	"integer": "int4", "int": "int4", "int4": "int4", "serial": "int4",
	"bigint": "int8", "int8": "int8", "bigserial": "int8",
	"smallint": "int2", "int2": "int2",
	"real": "float4", "float4": "float4",
	"double precision": "float8", "float8": "float8", "double": "float8",
	"text": "text", "varchar": "text", "character varying": "text",
	"char": "text", "character": "text", "bpchar": "text",
	"json": "jsonb", "jsonb": "jsonb",
	"boolean": "bool", "bool": "bool",
	"timestamp": "timestamp", "timestamp without time zone": "timestamp",
	"timestamptz": "timestamptz", "timestamp with time zone": "timestamptz",
}

func canonicalType(t string) string {
	t = strings.ToLower(strings.TrimSpace(t))
	if i := strings.IndexByte(t, '('); i >= 0 {
		t = strings.TrimSpace(t[:i])
	}
	if g, ok := typeGroups[t]; ok {
		return g
	}
	return t
}

// TypesCompatible reports whether a column of type actual satisfies a
// required type.
func TypesCompatible(actual, required string) bool {
	return canonicalType(actual) == canonicalType(required)
}

func quote(s string) string { return `"` + s + `"` }
