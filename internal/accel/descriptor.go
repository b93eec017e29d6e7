// Package accel is the constraint accelerator: a compiled-descriptor driven
// batch evaluator for primitive field constraints. The engine hands it a
// compact per-field descriptor at schema compile time and, depending on the
// schema's execution tier, either a whole instantiation (InitFull) or single
// values (ValidateOne). It knows nothing about plans, instances, or error
// kinds; failures travel back as field-prefixed messages that the engine
// classifies.
package accel

// TypeCode identifies the primitive type a descriptor validates.
type TypeCode uint8

const (
	CodeAny TypeCode = iota
	CodeInt
	CodeFloat
	CodeString
	CodeBool
	CodeBytes
)

func (c TypeCode) String() string {
	switch c {
	case CodeInt:
		return "int"
	case CodeFloat:
		return "float"
	case CodeString:
		return "string"
	case CodeBool:
		return "bool"
	case CodeBytes:
		return "bytes"
	default:
		return "any"
	}
}

// Descriptor is the compact constraint form for a single accelerable field:
// type tag, strictness, the six numeric/length bounds, the finiteness flag,
// and the three string transform flags.
type Descriptor struct {
	Type   TypeCode
	Strict bool

	Gt, Ge, Lt, Le *float64
	MultipleOf     *float64
	MinLen, MaxLen *int

	AllowInfNaN bool

	Strip, Lower, Upper bool
}

// FieldError is one per-field failure reported by a batch call.
type FieldError struct {
	Field   string
	Message string
}

// NestedFunc validates one nested-record value through the nested type's own
// compiled plan. A returned FieldError with an empty Field names the value
// itself rather than an inner field.
type NestedFunc func(value any) (any, []FieldError)

// FieldDescriptor is one field's slot in a compiled batch plan.
type FieldDescriptor struct {
	Name            string
	Alias           string
	ValidationAlias string
	Required        bool
	HasDefault      bool
	Default         any
	// Slot is the index in the instance value array this field writes to.
	Slot        int
	Constraints Descriptor
	// Nested, when set, overrides Constraints entirely.
	Nested NestedFunc
}

// Plan is the accelerator-internal compiled form built once per record type.
type Plan struct {
	fields     []FieldDescriptor
	recognized map[string]bool
}

// ExtraMode mirrors the engine's extra-field policy for full batch calls.
type ExtraMode int

const (
	ExtraIgnore ExtraMode = iota
	ExtraForbid
	ExtraAllow
)

// Compile builds the accelerator-internal plan from field descriptors. It is
// called once per record type.
func Compile(fields []FieldDescriptor) *Plan {
	recognized := make(map[string]bool, len(fields)*2)
	for _, fd := range fields {
		recognized[fd.Name] = true
		if fd.Alias != "" {
			recognized[fd.Alias] = true
		}
		if fd.ValidationAlias != "" {
			recognized[fd.ValidationAlias] = true
		}
	}
	return &Plan{fields: fields, recognized: recognized}
}

// Fields exposes the compiled descriptors for dump fast paths.
func (p *Plan) Fields() []FieldDescriptor { return p.fields }

// resolve looks the field up in the supplied mapping: validation alias first,
// then alias, then the field name.
func (fd *FieldDescriptor) resolve(supplied map[string]any) (any, bool) {
	if fd.ValidationAlias != "" {
		if v, ok := supplied[fd.ValidationAlias]; ok {
			return v, true
		}
	}
	if fd.Alias != "" {
		if v, ok := supplied[fd.Alias]; ok {
			return v, true
		}
	}
	v, ok := supplied[fd.Name]
	return v, ok
}
