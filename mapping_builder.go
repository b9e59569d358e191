package esdex

import (
	"fmt"
	"strings"
)

// FieldType is an engine field datatype.
type FieldType string

// Field datatypes supported by MappingBuilder.
const (
	FieldKeyword  FieldType = "keyword"
	FieldText     FieldType = "text"
	FieldLong     FieldType = "long"
	FieldInteger  FieldType = "integer"
	FieldDouble   FieldType = "double"
	FieldBoolean  FieldType = "boolean"
	FieldDate     FieldType = "date"
	FieldGeoPoint FieldType = "geo_point"
	FieldObject   FieldType = "object"
)

// MappingField is one property of a type mapping.
type MappingField struct {
	Name     string
	Type     FieldType
	Format   string
	Analyzer string
	// Index=false stores the field without indexing it.
	Index *bool
}

// MappingBuilder is a fluent builder for type mappings passed to PutMapping.
type MappingBuilder struct {
	fields  []MappingField
	dynamic string
}

// NewMapping starts building a type mapping.
func NewMapping() *MappingBuilder {
	return &MappingBuilder{}
}

// Keyword adds an exact-match string field.
func (b *MappingBuilder) Keyword(name string) *MappingBuilder {
	return b.Field(MappingField{Name: name, Type: FieldKeyword})
}

// Text adds a full-text field.
func (b *MappingBuilder) Text(name string) *MappingBuilder {
	return b.Field(MappingField{Name: name, Type: FieldText})
}

// TextWithAnalyzer adds a full-text field analyzed by analyzer.
func (b *MappingBuilder) TextWithAnalyzer(name, analyzer string) *MappingBuilder {
	return b.Field(MappingField{Name: name, Type: FieldText, Analyzer: analyzer})
}

// Long adds a 64-bit integer field.
func (b *MappingBuilder) Long(name string) *MappingBuilder {
	return b.Field(MappingField{Name: name, Type: FieldLong})
}

// Double adds a floating point field.
func (b *MappingBuilder) Double(name string) *MappingBuilder {
	return b.Field(MappingField{Name: name, Type: FieldDouble})
}

// Boolean adds a boolean field.
func (b *MappingBuilder) Boolean(name string) *MappingBuilder {
	return b.Field(MappingField{Name: name, Type: FieldBoolean})
}

// Date adds a date field. An empty format keeps the engine default.
func (b *MappingBuilder) Date(name, format string) *MappingBuilder {
	return b.Field(MappingField{Name: name, Type: FieldDate, Format: format})
}

// GeoPoint adds a lat/lon field.
func (b *MappingBuilder) GeoPoint(name string) *MappingBuilder {
	return b.Field(MappingField{Name: name, Type: FieldGeoPoint})
}

// Field adds an arbitrary field definition.
func (b *MappingBuilder) Field(f MappingField) *MappingBuilder {
	b.fields = append(b.fields, f)
	return b
}

// Dynamic sets the dynamic mapping policy: "true", "false" or "strict".
func (b *MappingBuilder) Dynamic(policy string) *MappingBuilder {
	b.dynamic = policy
	return b
}

// Build validates and returns the mapping as {"properties": {...}}.
func (b *MappingBuilder) Build() (map[string]any, error) {
	if len(b.fields) == 0 {
		return nil, unsupported("mapping has no fields")
	}
	switch b.dynamic {
	case "", "true", "false", "strict":
	default:
		return nil, unsupported("unknown dynamic policy %q", b.dynamic)
	}

	props := make(map[string]any, len(b.fields))
	for _, f := range b.fields {
		if strings.TrimSpace(f.Name) == "" {
			return nil, unsupported("mapping field without name")
		}
		if f.Type == "" {
			return nil, unsupported("mapping field %q without type", f.Name)
		}
		if _, dup := props[f.Name]; dup {
			return nil, unsupported("duplicate mapping field %q", f.Name)
		}
		props[f.Name] = f.definition()
	}

	out := map[string]any{"properties": props}
	if b.dynamic != "" {
		out["dynamic"] = b.dynamic
	}
	return out, nil
}

// MustBuild calls Build and panics on error.
func (b *MappingBuilder) MustBuild() map[string]any {
	m, err := b.Build()
	if err != nil {
		panic(err)
	}
	return m
}

func (f MappingField) definition() map[string]any {
	def := map[string]any{"type": string(f.Type)}
	if f.Format != "" {
		def["format"] = f.Format
	}
	if f.Analyzer != "" {
		def["analyzer"] = f.Analyzer
	}
	if f.Index != nil {
		def["index"] = *f.Index
	}
	return def
}

// String returns a debug representation like "title:text user:keyword".
func (b *MappingBuilder) String() string {
	parts := make([]string, 0, len(b.fields))
	for _, f := range b.fields {
		parts = append(parts, fmt.Sprintf("%s:%s", f.Name, f.Type))
	}
	return strings.Join(parts, " ")
}
