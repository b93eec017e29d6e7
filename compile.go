package schemakit

import (
	"fmt"
	"math"
	"reflect"
	"regexp"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/dmitrymomot/schemakit/internal/accel"
)

func failUnknownType(t any) error {
	return fmt.Errorf("%w: %T", ErrUnknownKind, t)
}

// Register compiles a record definition into an immutable Plan. It is the
// one-time type-declaration hook: call it once per record type, at package
// initialization. Unknown field types and malformed patterns fail here, not
// per instance.
func Register(def Definition) (*Plan, error) {
	if len(def.Fields) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrEmptyDefinition, def.Name)
	}

	p := &Plan{
		name:       def.Name,
		fields:     make([]FieldSpec, 0, len(def.Fields)),
		byName:     make(map[string]int, len(def.Fields)),
		config:     def.Config,
		recognized: make(map[string]bool, len(def.Fields)*2),
		before:     def.Before,
		after:      def.After,
		computed:   def.Computed,
		private:    def.Private,
		postInit:   def.PostInit,
	}
	p.hasUserValidators = len(def.Before) > 0 || len(def.After) > 0 || len(def.FieldValidators) > 0
	p.needsPostInit = len(def.Private) > 0 || def.PostInit != nil

	for _, decl := range def.Fields {
		if _, dup := p.byName[decl.Name]; dup {
			return nil, fmt.Errorf("%w: %s.%s", ErrDuplicateField, def.Name, decl.Name)
		}

		spec := FieldSpec{Name: decl.Name}
		spec.rec.allowInf = true

		kind, nested, flat, err := unwrap(decl.Type, decl.Meta)
		if err != nil {
			return nil, fmt.Errorf("field %s.%s: %w", def.Name, decl.Name, err)
		}
		spec.rec.kind = kind
		spec.rec.nested = nested

		mergeMeta(&spec, flat)

		if spec.hasDefault && spec.factory != nil {
			return nil, fmt.Errorf("%w: %s.%s", ErrDefaultAndFactory, def.Name, decl.Name)
		}
		spec.Required = !spec.hasDefault && spec.factory == nil
		spec.defaultIsMutable = spec.hasDefault && isMutable(spec.defaultValue)

		// Record-level defaults apply unless the field overrides them.
		if spec.rec.strict == nil && def.Config.Strict {
			spec.rec.strict = Ptr(true)
		}
		if def.Config.StrStripWhitespace {
			spec.rec.strip = true
		}
		if def.Config.StrToLower {
			spec.rec.lower = true
		}
		if def.Config.StrToUpper {
			spec.rec.upper = true
		}

		if spec.rec.patternExpr != "" {
			re, err := regexp.Compile(spec.rec.patternExpr)
			if err != nil {
				return nil, fmt.Errorf("%w: %s.%s: %v", ErrInvalidPattern, def.Name, decl.Name, err)
			}
			spec.rec.pattern = re
		}

		spec.userChain = def.FieldValidators[decl.Name]
		spec.accelDesc = accelEligible(&spec.rec)

		if spec.accelDesc != nil {
			spec.validate = accelValidator(spec.Name, *spec.accelDesc)
		} else {
			spec.validate = compileValidator(spec.Name, &spec.rec)
		}

		p.byName[decl.Name] = len(p.fields)
		p.fields = append(p.fields, spec)
		p.recognized[decl.Name] = true
		if spec.Alias != "" {
			p.recognized[spec.Alias] = true
		}
		if spec.ValidationAlias != "" {
			p.recognized[spec.ValidationAlias] = true
		}
		if nested != nil {
			p.hasNested = true
		}
	}

	for name := range def.FieldValidators {
		if _, ok := p.byName[name]; !ok {
			return nil, fmt.Errorf("%w: field validator for %q on %s", ErrUnknownField, name, def.Name)
		}
	}

	classify(p)
	return p, nil
}

// MustRegister is Register that panics on error, for package-level plan
// variables.
func MustRegister(def Definition) *Plan {
	p, err := Register(def)
	if err != nil {
		panic(err)
	}
	return p
}

// accelEligible reports whether the field qualifies for accelerator
// delegation and builds its compact descriptor. Only primitive fields without
// pattern, decimal, uniqueness, or custom-chain constraints qualify.
func accelEligible(rec *constraintRecord) *accel.Descriptor {
	if rec.nested != nil || rec.pattern != nil || rec.maxDigits != nil ||
		rec.decPlaces != nil || rec.unique || len(rec.chain) > 0 {
		return nil
	}

	var code accel.TypeCode
	switch rec.kind {
	case Int:
		code = accel.CodeInt
	case Float:
		code = accel.CodeFloat
	case String:
		code = accel.CodeString
	case Bool:
		code = accel.CodeBool
	case Bytes:
		code = accel.CodeBytes
	default:
		return nil
	}

	return &accel.Descriptor{
		Type:        code,
		Strict:      rec.strict != nil && *rec.strict,
		Gt:          rec.gt,
		Ge:          rec.ge,
		Lt:          rec.lt,
		Le:          rec.le,
		MultipleOf:  rec.multipleOf,
		MinLen:      rec.minLen,
		MaxLen:      rec.maxLen,
		AllowInfNaN: rec.allowInf,
		Strip:       rec.strip,
		Lower:       rec.lower,
		Upper:       rec.upper,
	}
}

// classify picks the execution tier once and pre-builds the accelerator plans
// it needs. The tier never changes for the lifetime of the type.
func classify(p *Plan) {
	if p.hasUserValidators {
		p.tier = TierStandard
		return
	}

	full := true
	anyEligible := false
	for i := range p.fields {
		spec := &p.fields[i]
		if spec.accelDesc == nil || spec.factory != nil || spec.defaultIsMutable {
			full = false
		}
		if spec.accelDesc != nil {
			anyEligible = true
		}
	}

	if full {
		p.tier = TierAccelerated
		fds := make([]accel.FieldDescriptor, len(p.fields))
		for i := range p.fields {
			spec := &p.fields[i]
			fds[i] = accel.FieldDescriptor{
				Name:            spec.Name,
				Alias:           spec.Alias,
				ValidationAlias: spec.ValidationAlias,
				Required:        spec.Required,
				HasDefault:      spec.hasDefault,
				Default:         spec.defaultValue,
				Slot:            i,
				Constraints:     *spec.accelDesc,
			}
		}
		p.accelPlan = accel.Compile(fds)

		p.fastDump = len(p.computed) == 0
		for i := range p.fields {
			if p.fields[i].Exclude {
				p.fastDump = false
				break
			}
		}
		return
	}

	if !anyEligible && !p.hasNested {
		p.tier = TierStandard
		return
	}

	// Hybrid: the accelerator takes eligible fields in one batch call,
	// including nested records which it special-cases through the nested
	// type's own compiled plan; everything else finishes in-process.
	p.tier = TierHybrid
	var fds []accel.FieldDescriptor
	for i := range p.fields {
		spec := &p.fields[i]

		batchable := spec.factory == nil && !spec.defaultIsMutable &&
			(spec.accelDesc != nil || spec.rec.nested != nil)
		if !batchable {
			p.inProcess = append(p.inProcess, i)
			continue
		}

		fd := accel.FieldDescriptor{
			Name:            spec.Name,
			Alias:           spec.Alias,
			ValidationAlias: spec.ValidationAlias,
			Required:        spec.Required,
			HasDefault:      spec.hasDefault,
			Default:         spec.defaultValue,
			Slot:            i,
		}
		if spec.rec.nested != nil {
			fd.Nested = nestedFunc(spec.validate)
		} else {
			fd.Constraints = *spec.accelDesc
		}
		fds = append(fds, fd)
	}
	p.hybridPlan = accel.Compile(fds)
}

// nestedFunc adapts a compiled nested-record validator to the accelerator's
// nested callback contract.
func nestedFunc(validate func(any) (any, error)) accel.NestedFunc {
	return func(value any) (any, []accel.FieldError) {
		out, err := validate(value)
		if err == nil {
			return out, nil
		}
		if ve := ExtractValidationErrors(err); ve != nil {
			fes := make([]accel.FieldError, len(ve))
			for i, e := range ve {
				fes[i] = accel.FieldError{Field: e.Field, Message: e.Message}
			}
			return nil, fes
		}
		return nil, []accel.FieldError{{Message: err.Error()}}
	}
}

// accelValidator wraps single-field accelerator evaluation for the hybrid and
// standard paths. The accelerator prefixes messages with the field name; the
// prefix is stripped before the message is classified and wrapped.
func accelValidator(field string, d accel.Descriptor) func(any) (any, error) {
	return func(value any) (any, error) {
		out, err := accel.ValidateOne(value, field, d)
		if err != nil {
			msg := strings.TrimPrefix(err.Error(), field+": ")
			return nil, &valueError{kind: classifyMessage(msg), msg: msg}
		}
		return out, nil
	}
}

func runChain(value any, field string, chain []chainEntry) (any, error) {
	var err error
	for _, entry := range chain {
		if entry.validator != nil {
			value, err = entry.validator.Validate(value, field)
		} else {
			value, err = entry.fn(value)
		}
		if err != nil {
			if _, ok := err.(*valueError); ok {
				return nil, err
			}
			return nil, &valueError{kind: KindCustom, msg: err.Error()}
		}
	}
	return value, nil
}

// compileValidator builds the in-process validator closure for fields the
// accelerator cannot take. Checks run in fixed order: type check and
// coercion, string transforms, numeric bounds, finiteness, length, pattern,
// decimal precision, uniqueness, custom chain, nested recursion.
func compileValidator(field string, rec *constraintRecord) func(any) (any, error) {
	strict := rec.strict != nil && *rec.strict

	return func(value any) (any, error) {
		if rec.nested != nil {
			// The custom chain sits before nested recursion in the check
			// order and therefore sees the raw value.
			value, err := runChain(value, field, rec.chain)
			if err != nil {
				return nil, err
			}
			return validateNested(value, rec.nested)
		}

		value, err := coerceKind(value, rec.kind, strict)
		if err != nil {
			return nil, err
		}

		if s, ok := value.(string); ok {
			if rec.strip {
				s = strings.TrimSpace(s)
			}
			if rec.lower {
				s = strings.ToLower(s)
			}
			if rec.upper {
				s = strings.ToUpper(s)
			}
			value = s
		}

		if err := checkNumericBounds(value, rec); err != nil {
			return nil, err
		}

		if f, ok := value.(float64); ok && !rec.allowInf {
			if math.IsInf(f, 0) || math.IsNaN(f) {
				return nil, failf(KindRange, "must be finite, got %v", f)
			}
		}

		if rec.minLen != nil || rec.maxLen != nil {
			if length, ok := accel.Length(value); ok {
				if rec.minLen != nil && length < *rec.minLen {
					return nil, failf(KindLength, "length must be >= %d, got %d", *rec.minLen, length)
				}
				if rec.maxLen != nil && length > *rec.maxLen {
					return nil, failf(KindLength, "length must be <= %d, got %d", *rec.maxLen, length)
				}
			}
		}

		if rec.pattern != nil {
			if s, ok := value.(string); ok {
				if loc := rec.pattern.FindStringIndex(s); loc == nil || loc[0] != 0 {
					return nil, failf(KindPattern, "does not match pattern %q", rec.patternExpr)
				}
			}
		}

		if rec.maxDigits != nil || rec.decPlaces != nil {
			if err := checkDecimalPrecision(value, rec); err != nil {
				return nil, err
			}
		}

		if rec.unique {
			if items, ok := value.([]any); ok {
				seen := make(map[string]bool, len(items))
				for _, item := range items {
					key := fmt.Sprintf("%#v", item)
					if seen[key] {
						return nil, failf(KindUnique, "items must be unique, found duplicate: %v", item)
					}
					seen[key] = true
				}
			}
		}

		return runChain(value, field, rec.chain)
	}
}

// validateNested accepts an already-valid instance of the nested type by
// reference, or a mapping validated recursively through the nested plan. The
// caller relabels any inner failures under the outer field name.
func validateNested(value any, nested *Plan) (any, error) {
	switch v := value.(type) {
	case *Instance:
		if v.plan == nested {
			return v, nil
		}
		return nil, failf(KindType, "expected %s, got %s", nested.name, v.plan.name)
	case map[string]any:
		inst, err := nested.New(v)
		if err != nil {
			return nil, err
		}
		return inst, nil
	default:
		return nil, failf(KindType, "expected %s, got %s", nested.name, inputTypeName(value))
	}
}

func inputTypeName(v any) string {
	switch t := v.(type) {
	case nil:
		return "nil"
	case bool:
		return "bool"
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
		return "int"
	case float32, float64:
		return "float"
	case string:
		return "string"
	case []byte:
		return "bytes"
	case []any:
		return "list"
	case map[string]any:
		return "map"
	case decimal.Decimal:
		return "decimal"
	case time.Time:
		return "time"
	case *Instance:
		return t.plan.name
	default:
		return fmt.Sprintf("%T", v)
	}
}

func intValue(v any) (int64, bool) {
	switch n := v.(type) {
	case int:
		return int64(n), true
	case int8:
		return int64(n), true
	case int16:
		return int64(n), true
	case int32:
		return int64(n), true
	case int64:
		return n, true
	case uint:
		return int64(n), true
	case uint8:
		return int64(n), true
	case uint16:
		return int64(n), true
	case uint32:
		return int64(n), true
	case uint64:
		if n > math.MaxInt64 {
			return 0, false
		}
		return int64(n), true
	default:
		return 0, false
	}
}

func floatValue(v any) (float64, bool) {
	switch n := v.(type) {
	case float32:
		return float64(n), true
	case float64:
		return n, true
	case decimal.Decimal:
		f, _ := n.Float64()
		return f, true
	default:
		if i, ok := intValue(v); ok {
			return float64(i), true
		}
		return 0, false
	}
}

func isFloatInput(v any) bool {
	switch v.(type) {
	case float32, float64:
		return true
	}
	return false
}

// coerceKind applies the type coercion policy. Non-strict mode allows
// numeric cross-coercion between integer and float, including float-to-int
// truncation; booleans never satisfy an integer requirement; text, bytes,
// record, and collection types are never cross-coerced.
func coerceKind(value any, kind Kind, strict bool) (any, error) {
	switch kind {
	case Int:
		if _, ok := value.(bool); ok {
			return nil, failf(KindType, "expected int, got bool")
		}
		if i, ok := intValue(value); ok {
			return i, nil
		}
		if isFloatInput(value) {
			if strict {
				return nil, failf(KindType, "expected exactly int, got float")
			}
			f, _ := floatValue(value)
			if math.IsInf(f, 0) || math.IsNaN(f) {
				return nil, failf(KindCoercion, "cannot convert float to int")
			}
			return int64(f), nil
		}
		return nil, typeFail("int", value, strict)

	case Float:
		if _, ok := value.(bool); ok {
			return nil, failf(KindType, "expected float, got bool")
		}
		if isFloatInput(value) {
			f, _ := floatValue(value)
			return f, nil
		}
		if i, ok := intValue(value); ok {
			if strict {
				return nil, failf(KindType, "expected exactly float, got int")
			}
			return float64(i), nil
		}
		return nil, typeFail("float", value, strict)

	case String:
		if s, ok := value.(string); ok {
			return s, nil
		}
		return nil, typeFail("string", value, strict)

	case Bool:
		if b, ok := value.(bool); ok {
			return b, nil
		}
		return nil, typeFail("bool", value, strict)

	case Bytes:
		if b, ok := value.([]byte); ok {
			return b, nil
		}
		return nil, typeFail("bytes", value, strict)

	case Decimal:
		switch d := value.(type) {
		case decimal.Decimal:
			return d, nil
		case string:
			if strict {
				return nil, failf(KindType, "expected exactly decimal, got string")
			}
			out, err := decimal.NewFromString(d)
			if err != nil {
				return nil, failf(KindCoercion, "cannot convert string to decimal")
			}
			return out, nil
		default:
			if strict {
				return nil, typeFail("decimal", value, true)
			}
			if i, ok := intValue(value); ok {
				return decimal.NewFromInt(i), nil
			}
			if isFloatInput(value) {
				f, _ := floatValue(value)
				if math.IsInf(f, 0) || math.IsNaN(f) {
					return nil, failf(KindCoercion, "cannot convert float to decimal")
				}
				return decimal.NewFromFloat(f), nil
			}
			return nil, typeFail("decimal", value, false)
		}

	case Time:
		switch t := value.(type) {
		case time.Time:
			return t, nil
		case string:
			if strict {
				return nil, failf(KindType, "expected exactly time, got string")
			}
			out, err := time.Parse(time.RFC3339, t)
			if err != nil {
				return nil, failf(KindCoercion, "cannot convert string to time")
			}
			return out, nil
		default:
			return nil, typeFail("time", value, strict)
		}

	case List:
		if l, ok := value.([]any); ok {
			return l, nil
		}
		// Typed slices from Go callers are normalized, never cross-coerced
		// from non-sequence input.
		rv := reflect.ValueOf(value)
		if value != nil && (rv.Kind() == reflect.Slice || rv.Kind() == reflect.Array) {
			if _, isBytes := value.([]byte); !isBytes {
				out := make([]any, rv.Len())
				for i := 0; i < rv.Len(); i++ {
					out[i] = rv.Index(i).Interface()
				}
				return out, nil
			}
		}
		return nil, typeFail("list", value, strict)

	case Map:
		if m, ok := value.(map[string]any); ok {
			return m, nil
		}
		rv := reflect.ValueOf(value)
		if value != nil && rv.Kind() == reflect.Map && rv.Type().Key().Kind() == reflect.String {
			out := make(map[string]any, rv.Len())
			for _, k := range rv.MapKeys() {
				out[k.String()] = rv.MapIndex(k).Interface()
			}
			return out, nil
		}
		return nil, typeFail("map", value, strict)

	default:
		return value, nil
	}
}

func typeFail(want string, got any, strict bool) error {
	if strict {
		return failf(KindType, "expected exactly %s, got %s", want, inputTypeName(got))
	}
	return failf(KindType, "expected %s, got %s", want, inputTypeName(got))
}

func checkNumericBounds(value any, rec *constraintRecord) error {
	if rec.gt == nil && rec.ge == nil && rec.lt == nil && rec.le == nil && rec.multipleOf == nil {
		return nil
	}
	f, ok := floatValue(value)
	if !ok {
		return nil
	}

	if rec.gt != nil && f <= *rec.gt {
		return failf(KindRange, "must be > %v, got %v", *rec.gt, displayNum(value))
	}
	if rec.ge != nil && f < *rec.ge {
		return failf(KindRange, "must be >= %v, got %v", *rec.ge, displayNum(value))
	}
	if rec.lt != nil && f >= *rec.lt {
		return failf(KindRange, "must be < %v, got %v", *rec.lt, displayNum(value))
	}
	if rec.le != nil && f > *rec.le {
		return failf(KindRange, "must be <= %v, got %v", *rec.le, displayNum(value))
	}
	if rec.multipleOf != nil {
		m := *rec.multipleOf
		switch v := value.(type) {
		case int64:
			if m == math.Trunc(m) {
				if int64(m) == 0 || v%int64(m) != 0 {
					return failf(KindMultipleOf, "must be a multiple of %v, got %v", m, v)
				}
			} else if math.Mod(float64(v), m) != 0 {
				return failf(KindMultipleOf, "must be a multiple of %v, got %v", m, v)
			}
		case decimal.Decimal:
			if !v.Mod(decimal.NewFromFloat(m)).IsZero() {
				return failf(KindMultipleOf, "must be a multiple of %v, got %v", m, v)
			}
		default:
			if math.Mod(f, m) != 0 {
				return failf(KindMultipleOf, "must be a multiple of %v, got %v", m, displayNum(value))
			}
		}
	}
	return nil
}

func displayNum(v any) any {
	if d, ok := v.(decimal.Decimal); ok {
		return d.String()
	}
	return v
}

func checkDecimalPrecision(value any, rec *constraintRecord) error {
	d, ok := value.(decimal.Decimal)
	if !ok {
		return nil
	}
	if rec.maxDigits != nil {
		digits := int(d.NumDigits())
		if digits > *rec.maxDigits {
			return failf(KindDecimal, "must have at most %d digits, got %d", *rec.maxDigits, digits)
		}
	}
	if rec.decPlaces != nil {
		places := 0
		if d.Exponent() < 0 {
			places = int(-d.Exponent())
		}
		if places > *rec.decPlaces {
			return failf(KindDecimal, "must have at most %d decimal places, got %d", *rec.decPlaces, places)
		}
	}
	return nil
}

// isMutable reports whether a static default needs per-instance deep copying
// so two instances never share the same underlying container. Nested instance
// defaults are exempt: they stay shared, the same aliasing callers get when
// they pass an instance at construction, and deep copying would not survive
// their unexported fields anyway.
func isMutable(v any) bool {
	if v == nil {
		return false
	}
	if _, ok := v.(*Instance); ok {
		return false
	}
	switch reflect.ValueOf(v).Kind() {
	case reflect.Slice, reflect.Map, reflect.Ptr:
		return true
	default:
		return false
	}
}
