package schemakit

// Kind is the base type tag of a field. Exactly one Kind applies per field;
// nested records are declared with a *Plan instead of a Kind.
type Kind int

const (
	Any Kind = iota
	Int
	Float
	String
	Bool
	Bytes
	Decimal
	Time
	List
	Map
)

func (k Kind) String() string {
	switch k {
	case Int:
		return "int"
	case Float:
		return "float"
	case String:
		return "string"
	case Bool:
		return "bool"
	case Bytes:
		return "bytes"
	case Decimal:
		return "decimal"
	case Time:
		return "time"
	case List:
		return "list"
	case Map:
		return "map"
	default:
		return "any"
	}
}

// Annotated wraps a base type with attached constraint metadata, the way a
// named type alias would. Annotated values nest: the innermost wrapping's
// metadata is interpreted first.
type Annotated struct {
	Base any // Kind, *Plan, or another Annotated
	Meta []any
}

// ExtraPolicy controls how input keys that match no declared field are
// handled.
type ExtraPolicy int

const (
	ExtraIgnore ExtraPolicy = iota
	ExtraForbid
	ExtraAllow
)

func (p ExtraPolicy) String() string {
	switch p {
	case ExtraForbid:
		return "forbid"
	case ExtraAllow:
		return "allow"
	default:
		return "ignore"
	}
}

// Config is the record-level configuration consumed read-only by Register.
// Field-level constraints override the record-wide string transform and
// strictness defaults.
type Config struct {
	// Strict disables type coercion for every field unless a field opts out.
	Strict bool
	// Extra selects the extra-field policy. Zero value is ExtraIgnore.
	Extra ExtraPolicy
	// Frozen rejects all post-construction assignment on instances.
	Frozen bool
	// ValidateAssignment re-runs the field validator on Set.
	ValidateAssignment bool
	// Record-wide string transforms applied before length/pattern checks.
	StrStripWhitespace bool
	StrToLower         bool
	StrToUpper         bool
}

// Ptr returns a pointer to v. Convenience for optional Attrs fields.
func Ptr[T any](v T) *T { return &v }
