// Package main generates the JSON Schema that pkg/sigdoc embeds to validate
// signature documents.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"math"
	"os"
	"reflect"
	"strconv"
	"strings"

	"github.com/Sumatoshi-tech/simsketch/pkg/sigdoc"
)

const (
	draft07 = "http://json-schema.org/draft-07/schema#"
	title   = "simsketch signature document"

	// constraintTag holds extra keywords, e.g. `jsonschema:"minimum=1,minItems=1"`.
	constraintTag = "jsonschema"
)

// Schema represents the subset of JSON Schema used for signature documents.
type Schema struct {
	Schema               string             `json:"$schema,omitempty"`
	Title                string             `json:"title,omitempty"`
	Type                 string             `json:"type,omitempty"`
	Required             []string           `json:"required,omitempty"`
	Properties           map[string]*Schema `json:"properties,omitempty"`
	Items                *Schema            `json:"items,omitempty"`
	Minimum              *uint64            `json:"minimum,omitempty"`
	Maximum              *uint64            `json:"maximum,omitempty"`
	MinItems             *uint64            `json:"minItems,omitempty"`
	AdditionalProperties *bool              `json:"additionalProperties,omitempty"`
}

func main() {
	output := flag.String("o", "pkg/sigdoc/schema.json", "Output file for the schema")
	flag.Parse()

	schema, err := generateSchema(reflect.TypeFor[sigdoc.Document]())
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error generating schema: %v\n", err)
		os.Exit(1)
	}

	err = writeSchema(*output, schema)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error writing schema: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Generated %s\n", *output)
}

func generateSchema(t reflect.Type) (*Schema, error) {
	props, required, err := structToProperties(t)
	if err != nil {
		return nil, err
	}

	closed := false

	return &Schema{
		Schema:               draft07,
		Title:                title,
		Type:                 "object",
		Required:             required,
		Properties:           props,
		AdditionalProperties: &closed,
	}, nil
}

func structToProperties(t reflect.Type) (map[string]*Schema, []string, error) {
	props := make(map[string]*Schema)

	var required []string

	for i := range t.NumField() {
		field := t.Field(i)
		jsonTag := field.Tag.Get("json")

		if jsonTag == "-" || jsonTag == "" {
			continue
		}

		jsonName, opts, _ := strings.Cut(jsonTag, ",")

		fieldSchema := typeToSchema(field.Type)

		err := applyConstraints(fieldSchema, field.Tag.Get(constraintTag))
		if err != nil {
			return nil, nil, fmt.Errorf("field %s: %w", field.Name, err)
		}

		props[jsonName] = fieldSchema

		if !strings.Contains(opts, "omitempty") {
			required = append(required, jsonName)
		}
	}

	return props, required, nil
}

func typeToSchema(t reflect.Type) *Schema {
	switch t.Kind() {
	case reflect.String:
		return &Schema{Type: "string"}

	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return &Schema{Type: "integer"}

	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		// Unsigned fields are bounded by their width.
		upper := uint64(math.MaxUint64) >> (64 - t.Bits())

		return &Schema{Type: "integer", Minimum: ptr(uint64(0)), Maximum: &upper}

	case reflect.Float32, reflect.Float64:
		return &Schema{Type: "number"}

	case reflect.Bool:
		return &Schema{Type: "boolean"}

	case reflect.Slice, reflect.Array:
		return &Schema{Type: "array", Items: typeToSchema(t.Elem())}

	case reflect.Ptr:
		return typeToSchema(t.Elem())

	default:
		return &Schema{Type: "object"}
	}
}

func applyConstraints(schema *Schema, tag string) error {
	if tag == "" {
		return nil
	}

	for kv := range strings.SplitSeq(tag, ",") {
		key, raw, ok := strings.Cut(kv, "=")
		if !ok {
			return fmt.Errorf("malformed constraint %q", kv)
		}

		value, err := strconv.ParseUint(raw, 10, 64)
		if err != nil {
			return fmt.Errorf("constraint %s: %w", key, err)
		}

		switch key {
		case "minimum":
			schema.Minimum = &value
		case "maximum":
			schema.Maximum = &value
		case "minItems":
			schema.MinItems = &value
		default:
			return fmt.Errorf("unsupported constraint %q", key)
		}
	}

	return nil
}

func writeSchema(path string, schema *Schema) error {
	data, err := json.MarshalIndent(schema, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal schema: %w", err)
	}

	return os.WriteFile(path, append(data, '\n'), 0o644)
}

func ptr[T any](v T) *T {
	return &v
}
