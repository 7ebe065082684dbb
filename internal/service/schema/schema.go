// Package schema holds the canonical bar contract every adapter output is
// validated against.
package schema

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"fmt"
	"os"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"BarPull/internal/domain/models"
)

//go:embed bar.schema.json
var embedded []byte

const embeddedURL = "bar.schema.json"

var defaultSchema = mustCompile(embeddedURL, embedded)

// Schema is a compiled, immutable bar contract.
type Schema struct {
	name     string
	compiled *jsonschema.Schema
}

// Default returns the embedded contract compiled at process start.
func Default() *Schema { return defaultSchema }

// Raw returns a copy of the embedded contract document.
func Raw() []byte { return bytes.Clone(embedded) }

// Load compiles a contract from an external file.
func Load(path string) (*Schema, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read schema: %w", err)
	}
	return Compile(path, raw)
}

// Compile compiles raw as a JSON Schema document.
func Compile(name string, raw []byte) (*Schema, error) {
	compiled, err := jsonschema.CompileString(name, string(raw))
	if err != nil {
		return nil, fmt.Errorf("compile schema %s: %w", name, err)
	}
	return &Schema{name: name, compiled: compiled}, nil
}

func mustCompile(name string, raw []byte) *Schema {
	s, err := Compile(name, raw)
	if err != nil {
		panic(err)
	}
	return s
}

// Name returns the location the contract was compiled from.
func (s *Schema) Name() string { return s.name }

// Validate checks one record against the contract.
func (s *Schema) Validate(rec models.NormalizedRecord) error {
	if rec == nil {
		return fmt.Errorf("record is nil")
	}
	doc, err := toJSONValue(rec)
	if err != nil {
		return err
	}
	return s.compiled.Validate(doc)
}

// toJSONValue re-decodes rec so the validator only sees JSON value types.
func toJSONValue(rec models.NormalizedRecord) (any, error) {
	b, err := json.Marshal(rec)
	if err != nil {
		return nil, fmt.Errorf("encode record: %w", err)
	}
	dec := json.NewDecoder(bytes.NewReader(b))
	dec.UseNumber()
	var doc any
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("decode record: %w", err)
	}
	return doc, nil
}
