package schemakit

// FieldDecl is a single field declaration: a name, a declared type, and zero
// or more attached metadata objects (constraints, Attrs, format validators,
// plain transform funcs).
type FieldDecl struct {
	Name string
	Type any // Kind, *Plan, or Annotated
	Meta []any
}

// F declares a field. typ is a Kind for primitives, a *Plan for a nested
// record, or an Annotated alias wrapping either. Metadata order matters:
// items attached later override earlier scalar settings, and custom
// validators run in attachment order.
//
// A nested-record field constructed from an existing *Instance is passed
// through by reference: the parent and the caller then share that instance,
// and later mutation is visible through both.
func F(name string, typ any, meta ...any) FieldDecl {
	return FieldDecl{Name: name, Type: typ, Meta: meta}
}

// unwrap resolves the declared type to a base Kind or nested Plan and returns
// the flat metadata list. Nested Annotated wrappings are unwrapped repeatedly
// with the innermost metadata first, so outer wrappings override inner ones
// and the field's own metadata is interpreted last.
func unwrap(typ any, meta []any) (Kind, *Plan, []any, error) {
	flat := meta
	for {
		switch t := typ.(type) {
		case Kind:
			return t, nil, flat, nil
		case *Plan:
			return Any, t, flat, nil
		case Annotated:
			flat = append(append([]any{}, t.Meta...), flat...)
			typ = t.Base
		default:
			return Any, nil, nil, failUnknownType(t)
		}
	}
}

// mergeMeta folds the flat metadata list into a constraint record and field
// attributes. Later items override earlier scalar settings; custom validators
// accumulate in order. Unrecognized metadata is ignored so that declarations
// without constraints simply yield an unconstrained field.
func mergeMeta(spec *FieldSpec, flat []any) {
	rec := &spec.rec
	for _, m := range flat {
		switch c := m.(type) {
		case gtConstraint:
			rec.gt = Ptr(c.value)
		case geConstraint:
			rec.ge = Ptr(c.value)
		case ltConstraint:
			rec.lt = Ptr(c.value)
		case leConstraint:
			rec.le = Ptr(c.value)
		case multipleOfConstraint:
			rec.multipleOf = Ptr(c.value)
		case minLenConstraint:
			rec.minLen = Ptr(c.value)
		case maxLenConstraint:
			rec.maxLen = Ptr(c.value)
		case patternConstraint:
			rec.patternExpr = c.expr
		case strictConstraint:
			rec.strict = Ptr(c.strict)
		case stripConstraint:
			rec.strip = true
		case toLowerConstraint:
			rec.lower = true
		case toUpperConstraint:
			rec.upper = true
		case allowInfNaN:
			rec.allowInf = c.allow
		case maxDigitsConstraint:
			rec.maxDigits = Ptr(c.value)
		case decimalPlaces:
			rec.decPlaces = Ptr(c.value)
		case uniqueItems:
			rec.unique = true
		case Attrs:
			mergeAttrs(spec, c)
		case ValueValidator:
			rec.chain = append(rec.chain, chainEntry{validator: c})
		case func(any) (any, error):
			rec.chain = append(rec.chain, chainEntry{fn: c})
		}
	}
}

func mergeAttrs(spec *FieldSpec, a Attrs) {
	rec := &spec.rec

	if a.Default != nil {
		spec.hasDefault = true
		spec.defaultValue = a.Default
	}
	if a.Factory != nil {
		spec.factory = a.Factory
	}
	if a.Alias != "" {
		spec.Alias = a.Alias
	}
	if a.ValidationAlias != "" {
		spec.ValidationAlias = a.ValidationAlias
	}
	if a.SerializationAlias != "" {
		spec.SerializationAlias = a.SerializationAlias
	}
	if a.Frozen {
		spec.Frozen = true
	}
	if a.Exclude {
		spec.Exclude = true
	}
	if a.Title != "" {
		spec.Title = a.Title
	}
	if a.Description != "" {
		spec.Description = a.Description
	}

	if a.Gt != nil {
		rec.gt = a.Gt
	}
	if a.Ge != nil {
		rec.ge = a.Ge
	}
	if a.Lt != nil {
		rec.lt = a.Lt
	}
	if a.Le != nil {
		rec.le = a.Le
	}
	if a.MultipleOf != nil {
		rec.multipleOf = a.MultipleOf
	}
	if a.MinLen != nil {
		rec.minLen = a.MinLen
	}
	if a.MaxLen != nil {
		rec.maxLen = a.MaxLen
	}
	if a.Pattern != "" {
		rec.patternExpr = a.Pattern
	}
	if a.Strict != nil {
		rec.strict = a.Strict
	}
	if a.StripWhitespace {
		rec.strip = true
	}
	if a.ToLower {
		rec.lower = true
	}
	if a.ToUpper {
		rec.upper = true
	}
	if a.AllowInfNaN != nil {
		rec.allowInf = *a.AllowInfNaN
	}
	if a.MaxDigits != nil {
		rec.maxDigits = a.MaxDigits
	}
	if a.DecimalPlaces != nil {
		rec.decPlaces = a.DecimalPlaces
	}
	if a.UniqueItems {
		rec.unique = true
	}
}
