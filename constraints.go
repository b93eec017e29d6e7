package schemakit

// Constraint is a single piece of validation metadata attached to a field
// declaration. Constraints are plain values; they carry no behavior of their
// own and are merged into a field's compiled record by Register.
type Constraint interface {
	constraint()
}

type (
	gtConstraint         struct{ value float64 }
	geConstraint         struct{ value float64 }
	ltConstraint         struct{ value float64 }
	leConstraint         struct{ value float64 }
	multipleOfConstraint struct{ value float64 }
	minLenConstraint     struct{ value int }
	maxLenConstraint     struct{ value int }
	patternConstraint    struct{ expr string }
	strictConstraint     struct{ strict bool }
	stripConstraint      struct{}
	toLowerConstraint    struct{}
	toUpperConstraint    struct{}
	allowInfNaN          struct{ allow bool }
	maxDigitsConstraint  struct{ value int }
	decimalPlaces        struct{ value int }
	uniqueItems          struct{}
)

func (gtConstraint) constraint()         {}
func (geConstraint) constraint()         {}
func (ltConstraint) constraint()         {}
func (leConstraint) constraint()         {}
func (multipleOfConstraint) constraint() {}
func (minLenConstraint) constraint()     {}
func (maxLenConstraint) constraint()     {}
func (patternConstraint) constraint()    {}
func (strictConstraint) constraint()     {}
func (stripConstraint) constraint()      {}
func (toLowerConstraint) constraint()    {}
func (toUpperConstraint) constraint()    {}
func (allowInfNaN) constraint()          {}
func (maxDigitsConstraint) constraint()  {}
func (decimalPlaces) constraint()        {}
func (uniqueItems) constraint()          {}

// Gt requires the value to be strictly greater than v.
func Gt(v float64) Constraint { return gtConstraint{v} }

// Ge requires the value to be greater than or equal to v.
func Ge(v float64) Constraint { return geConstraint{v} }

// Lt requires the value to be strictly less than v.
func Lt(v float64) Constraint { return ltConstraint{v} }

// Le requires the value to be less than or equal to v.
func Le(v float64) Constraint { return leConstraint{v} }

// MultipleOf requires the value to be an exact multiple of v.
func MultipleOf(v float64) Constraint { return multipleOfConstraint{v} }

// MinLen sets the minimum length, counted in logical characters for strings.
func MinLen(n int) Constraint { return minLenConstraint{n} }

// MaxLen sets the maximum length, counted in logical characters for strings.
func MaxLen(n int) Constraint { return maxLenConstraint{n} }

// Pattern requires strings to match expr at the start of the value. The
// expression is compiled once, at Register time; a malformed expression fails
// the whole registration.
func Pattern(expr string) Constraint { return patternConstraint{expr} }

// Strict disallows type coercion for this field regardless of the record's
// configuration.
func Strict() Constraint { return strictConstraint{strict: true} }

// Lax re-enables coercion on a field inside a strict-by-default record.
func Lax() Constraint { return strictConstraint{strict: false} }

// StripWhitespace trims leading and trailing whitespace before any length or
// pattern check.
func StripWhitespace() Constraint { return stripConstraint{} }

// ToLower lowercases string values before length and pattern checks.
func ToLower() Constraint { return toLowerConstraint{} }

// ToUpper uppercases string values before length and pattern checks.
func ToUpper() Constraint { return toUpperConstraint{} }

// AllowInfNaN controls whether non-finite floats are accepted. Fields accept
// them unless declared with AllowInfNaN(false).
func AllowInfNaN(allow bool) Constraint { return allowInfNaN{allow} }

// MaxDigits limits the total number of significant digits of a decimal field.
func MaxDigits(n int) Constraint { return maxDigitsConstraint{n} }

// DecimalPlaces limits the number of digits after the decimal point.
func DecimalPlaces(n int) Constraint { return decimalPlaces{n} }

// UniqueItems rejects list values containing duplicate elements.
func UniqueItems() Constraint { return uniqueItems{} }

// Attrs is the rich field-metadata object. Any constraint expressible as a
// standalone Constraint can also be set here; non-nil/non-zero attributes are
// merged into the field as if each were attached individually.
type Attrs struct {
	// Default is the static default. Mutable container defaults are
	// deep-copied per instance so two instances never share state.
	Default any
	// Factory produces a fresh default per instance. A field declaring a
	// Factory must not also declare a Default.
	Factory func() any

	// Alias is accepted from input in place of, or in addition to, the field
	// name. ValidationAlias outranks Alias at validation time;
	// SerializationAlias is only used by the dumper's ByAlias mode.
	Alias              string
	ValidationAlias    string
	SerializationAlias string

	// Frozen rejects post-construction assignment to this field.
	Frozen bool
	// Exclude omits the field from all serialized output.
	Exclude bool

	Title       string
	Description string

	Gt, Ge, Lt, Le, MultipleOf *float64
	MinLen, MaxLen             *int
	Pattern                    string
	Strict                     *bool
	StripWhitespace            bool
	ToLower                    bool
	ToUpper                    bool
	AllowInfNaN                *bool
	MaxDigits, DecimalPlaces   *int
	UniqueItems                bool
}
