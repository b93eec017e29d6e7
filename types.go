package schemakit

import "github.com/dmitrymomot/schemakit/formats"

// Named type aliases: Annotated wrappings for the common constraint shapes,
// usable anywhere a declared type is expected.
var (
	PositiveInt    = Annotated{Base: Int, Meta: []any{Gt(0)}}
	NegativeInt    = Annotated{Base: Int, Meta: []any{Lt(0)}}
	NonNegativeInt = Annotated{Base: Int, Meta: []any{Ge(0)}}
	NonPositiveInt = Annotated{Base: Int, Meta: []any{Le(0)}}

	PositiveFloat    = Annotated{Base: Float, Meta: []any{Gt(0)}}
	NegativeFloat    = Annotated{Base: Float, Meta: []any{Lt(0)}}
	NonNegativeFloat = Annotated{Base: Float, Meta: []any{Ge(0)}}
	NonPositiveFloat = Annotated{Base: Float, Meta: []any{Le(0)}}
	FiniteFloat      = Annotated{Base: Float, Meta: []any{AllowInfNaN(false)}}

	StrictInt    = Annotated{Base: Int, Meta: []any{Strict()}}
	StrictFloat  = Annotated{Base: Float, Meta: []any{Strict()}}
	StrictString = Annotated{Base: String, Meta: []any{Strict()}}
	StrictBool   = Annotated{Base: Bool, Meta: []any{Strict()}}
	StrictBytes  = Annotated{Base: Bytes, Meta: []any{Strict()}}

	EmailStr = Annotated{Base: String, Meta: []any{formats.Email()}}
	HTTPURL  = Annotated{Base: String, Meta: []any{formats.URL("http", "https")}}
	UUIDStr  = Annotated{Base: String, Meta: []any{formats.UUID()}}
)

// ConInt declares a constrained integer type inline.
func ConInt(meta ...any) Annotated { return Annotated{Base: Int, Meta: meta} }

// ConFloat declares a constrained float type inline.
func ConFloat(meta ...any) Annotated { return Annotated{Base: Float, Meta: meta} }

// ConStr declares a constrained string type inline.
func ConStr(meta ...any) Annotated { return Annotated{Base: String, Meta: meta} }

// ConBytes declares a constrained byte-sequence type inline.
func ConBytes(meta ...any) Annotated { return Annotated{Base: Bytes, Meta: meta} }

// ConList declares a constrained list type inline.
func ConList(meta ...any) Annotated { return Annotated{Base: List, Meta: meta} }

// ConDecimal declares a constrained decimal type inline.
func ConDecimal(meta ...any) Annotated { return Annotated{Base: Decimal, Meta: meta} }

// ConTime declares a constrained time type inline.
func ConTime(meta ...any) Annotated { return Annotated{Base: Time, Meta: meta} }
