package schemafile

import (
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/dmitrymomot/schemakit"
	"github.com/dmitrymomot/schemakit/formats"
)

// Schema loading errors.
var (
	ErrInvalidSchema = errors.New("invalid schema document")
	ErrUnknownType   = errors.New("unknown field type")
	ErrUnknownFormat = errors.New("unknown field format")
	ErrUnknownRecord = errors.New("unknown record reference")
	ErrUnknownExtra  = errors.New("unknown extra policy")
	ErrMissingName   = errors.New("record name is required")
)

// Document is the YAML shape of a schema file: one root record, optional
// auxiliary records referenced by name, and record-level configuration.
type Document struct {
	Name    string       `yaml:"name"`
	Config  ConfigSpec   `yaml:"config"`
	Records []RecordSpec `yaml:"records"`
	Fields  []FieldSpec  `yaml:"fields"`
}

// ConfigSpec mirrors schemakit.Config in YAML form.
type ConfigSpec struct {
	Strict             bool   `yaml:"strict"`
	Extra              string `yaml:"extra"`
	Frozen             bool   `yaml:"frozen"`
	ValidateAssignment bool   `yaml:"validate_assignment"`
	StrStripWhitespace bool   `yaml:"str_strip_whitespace"`
	StrToLower         bool   `yaml:"str_to_lower"`
	StrToUpper         bool   `yaml:"str_to_upper"`
}

// RecordSpec declares an auxiliary record usable as a nested field type.
type RecordSpec struct {
	Name   string      `yaml:"name"`
	Config ConfigSpec  `yaml:"config"`
	Fields []FieldSpec `yaml:"fields"`
}

// FieldSpec declares one field. Exactly one of Type or Record must be set.
type FieldSpec struct {
	Name   string `yaml:"name"`
	Type   string `yaml:"type"`
	Record string `yaml:"record"`
	Format string `yaml:"format"`

	Gt         *float64 `yaml:"gt"`
	Ge         *float64 `yaml:"ge"`
	Lt         *float64 `yaml:"lt"`
	Le         *float64 `yaml:"le"`
	MultipleOf *float64 `yaml:"multiple_of"`
	MinLength  *int     `yaml:"min_length"`
	MaxLength  *int     `yaml:"max_length"`
	Pattern    string   `yaml:"pattern"`

	Strict          *bool `yaml:"strict"`
	StripWhitespace bool  `yaml:"strip_whitespace"`
	ToLower         bool  `yaml:"to_lower"`
	ToUpper         bool  `yaml:"to_upper"`
	AllowInfNaN     *bool `yaml:"allow_inf_nan"`
	MaxDigits       *int  `yaml:"max_digits"`
	DecimalPlaces   *int  `yaml:"decimal_places"`
	UniqueItems     bool  `yaml:"unique_items"`

	Default            any    `yaml:"default"`
	Alias              string `yaml:"alias"`
	ValidationAlias    string `yaml:"validation_alias"`
	SerializationAlias string `yaml:"serialization_alias"`
	Frozen             bool   `yaml:"frozen"`
	Exclude            bool   `yaml:"exclude"`
	Title              string `yaml:"title"`
	Description        string `yaml:"description"`
}

// Parse reads a YAML schema document and registers it, returning the root
// record's compiled plan.
func Parse(data []byte) (*schemakit.Plan, error) {
	var doc Document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidSchema, err)
	}
	return build(doc)
}

// ParseReader is Parse over an io.Reader.
func ParseReader(r io.Reader) (*schemakit.Plan, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidSchema, err)
	}
	return Parse(data)
}

// LoadFile parses and registers the schema in the named file.
func LoadFile(path string) (*schemakit.Plan, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Parse(data)
}

func build(doc Document) (*schemakit.Plan, error) {
	if doc.Name == "" {
		return nil, ErrMissingName
	}

	// Auxiliary records register in listed order; each may reference the
	// ones declared before it.
	registry := make(map[string]*schemakit.Plan, len(doc.Records))
	for _, rs := range doc.Records {
		if rs.Name == "" {
			return nil, ErrMissingName
		}
		plan, err := buildRecord(rs.Name, rs.Config, rs.Fields, registry)
		if err != nil {
			return nil, err
		}
		registry[rs.Name] = plan
	}

	return buildRecord(doc.Name, doc.Config, doc.Fields, registry)
}

func buildRecord(name string, cs ConfigSpec, fields []FieldSpec, registry map[string]*schemakit.Plan) (*schemakit.Plan, error) {
	config, err := buildConfig(cs)
	if err != nil {
		return nil, fmt.Errorf("record %s: %w", name, err)
	}

	decls := make([]schemakit.FieldDecl, 0, len(fields))
	for _, fs := range fields {
		decl, err := buildField(fs, registry)
		if err != nil {
			return nil, fmt.Errorf("record %s: %w", name, err)
		}
		decls = append(decls, decl)
	}

	return schemakit.Register(schemakit.Definition{
		Name:   name,
		Fields: decls,
		Config: config,
	})
}

func buildConfig(cs ConfigSpec) (schemakit.Config, error) {
	config := schemakit.Config{
		Strict:             cs.Strict,
		Frozen:             cs.Frozen,
		ValidateAssignment: cs.ValidateAssignment,
		StrStripWhitespace: cs.StrStripWhitespace,
		StrToLower:         cs.StrToLower,
		StrToUpper:         cs.StrToUpper,
	}
	switch cs.Extra {
	case "", "ignore":
		config.Extra = schemakit.ExtraIgnore
	case "forbid":
		config.Extra = schemakit.ExtraForbid
	case "allow":
		config.Extra = schemakit.ExtraAllow
	default:
		return config, fmt.Errorf("%w: %q", ErrUnknownExtra, cs.Extra)
	}
	return config, nil
}

func buildField(fs FieldSpec, registry map[string]*schemakit.Plan) (schemakit.FieldDecl, error) {
	if fs.Name == "" {
		return schemakit.FieldDecl{}, fmt.Errorf("%w: field name", ErrMissingName)
	}

	var typ any
	switch {
	case fs.Record != "":
		nested, ok := registry[fs.Record]
		if !ok {
			return schemakit.FieldDecl{}, fmt.Errorf("%w: %q in field %s", ErrUnknownRecord, fs.Record, fs.Name)
		}
		typ = nested
	default:
		kind, err := kindOf(fs.Type)
		if err != nil {
			return schemakit.FieldDecl{}, fmt.Errorf("field %s: %w", fs.Name, err)
		}
		typ = kind
	}

	attrs := schemakit.Attrs{
		Default:            fs.Default,
		Alias:              fs.Alias,
		ValidationAlias:    fs.ValidationAlias,
		SerializationAlias: fs.SerializationAlias,
		Frozen:             fs.Frozen,
		Exclude:            fs.Exclude,
		Title:              fs.Title,
		Description:        fs.Description,
		Gt:                 fs.Gt,
		Ge:                 fs.Ge,
		Lt:                 fs.Lt,
		Le:                 fs.Le,
		MultipleOf:         fs.MultipleOf,
		MinLen:             fs.MinLength,
		MaxLen:             fs.MaxLength,
		Pattern:            fs.Pattern,
		Strict:             fs.Strict,
		StripWhitespace:    fs.StripWhitespace,
		ToLower:            fs.ToLower,
		ToUpper:            fs.ToUpper,
		AllowInfNaN:        fs.AllowInfNaN,
		MaxDigits:          fs.MaxDigits,
		DecimalPlaces:      fs.DecimalPlaces,
		UniqueItems:        fs.UniqueItems,
	}

	meta := []any{attrs}
	if fs.Format != "" {
		fv, err := formatOf(fs.Format)
		if err != nil {
			return schemakit.FieldDecl{}, fmt.Errorf("field %s: %w", fs.Name, err)
		}
		meta = append(meta, fv)
	}

	return schemakit.F(fs.Name, typ, meta...), nil
}

func kindOf(name string) (schemakit.Kind, error) {
	switch name {
	case "int", "integer":
		return schemakit.Int, nil
	case "float", "number":
		return schemakit.Float, nil
	case "string", "str":
		return schemakit.String, nil
	case "bool", "boolean":
		return schemakit.Bool, nil
	case "bytes":
		return schemakit.Bytes, nil
	case "decimal":
		return schemakit.Decimal, nil
	case "time", "datetime":
		return schemakit.Time, nil
	case "list", "array":
		return schemakit.List, nil
	case "map", "object":
		return schemakit.Map, nil
	case "any", "":
		return schemakit.Any, nil
	default:
		return schemakit.Any, fmt.Errorf("%w: %q", ErrUnknownType, name)
	}
}

func formatOf(name string) (schemakit.ValueValidator, error) {
	switch name {
	case "email":
		return formats.Email(), nil
	case "name_email":
		return formats.NameEmail(), nil
	case "url":
		return formats.URL(), nil
	case "http_url":
		return formats.URL("http", "https"), nil
	case "uuid":
		return formats.UUID(), nil
	case "ip":
		return formats.IP(), nil
	case "ipv4":
		return formats.IPv4(), nil
	case "ipv6":
		return formats.IPv6(), nil
	case "cidr":
		return formats.CIDR(), nil
	case "base64":
		return formats.Base64Str(), nil
	case "past":
		return formats.PastTime(), nil
	case "future":
		return formats.FutureTime(), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownFormat, name)
	}
}
