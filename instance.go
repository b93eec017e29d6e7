package schemakit

import (
	"fmt"
	"reflect"
	"sort"
	"strings"

	"github.com/mohae/deepcopy"

	"github.com/dmitrymomot/schemakit/internal/accel"
)

// rootField labels record-level validator failures that are not tied to a
// single field.
const rootField = "__root__"

// Instance is one validated record. Field values are engine-owned; nested
// record fields constructed from mappings belong to the parent, while nested
// instances supplied by the caller stay shared with the caller. Mutation goes
// through Set, which re-checks frozen flags.
type Instance struct {
	plan    *Plan
	values  []any
	set     []bool
	extra   map[string]any
	private map[string]any
}

// Plan returns the compiled plan this instance was built from.
func (inst *Instance) Plan() *Plan { return inst.plan }

// New validates the supplied mapping against the plan and constructs an
// instance. Validation is exhaustive: every field is evaluated and every
// failure collected before the aggregated ValidationErrors is returned; no
// partial instance is returned on failure.
func (p *Plan) New(input map[string]any) (*Instance, error) {
	inst := &Instance{
		plan:   p,
		values: make([]any, len(p.fields)),
		set:    make([]bool, len(p.fields)),
	}

	switch p.tier {
	case TierAccelerated:
		var extra map[string]any
		if p.config.Extra == ExtraAllow {
			extra = make(map[string]any)
		}
		ferrs := p.accelPlan.InitFull(inst.values, inst.set, input, accelMode(p.config.Extra), extra)
		if ferrs != nil {
			return nil, translateAccelErrors(ferrs)
		}
		if len(extra) > 0 {
			inst.extra = extra
		}

	case TierHybrid:
		var errs ValidationErrors
		if ferrs := p.hybridPlan.InitFull(inst.values, inst.set, input, accel.ExtraIgnore, nil); ferrs != nil {
			errs = append(errs, translateAccelErrors(ferrs)...)
		}
		for _, i := range p.inProcess {
			p.processField(&p.fields[i], i, input, inst, &errs)
		}
		p.applyExtraPolicy(input, inst, &errs)
		if len(errs) > 0 {
			return nil, errs
		}

	default:
		data := input
		for _, bv := range p.before {
			rewritten, err := bv(data)
			if err != nil {
				return nil, asRecordError(err)
			}
			data = rewritten
		}

		var errs ValidationErrors
		for i := range p.fields {
			p.processField(&p.fields[i], i, data, inst, &errs)
		}
		p.applyExtraPolicy(data, inst, &errs)
		if len(errs) > 0 {
			return nil, errs
		}

		for _, av := range p.after {
			if err := av(inst); err != nil {
				return nil, asRecordError(err)
			}
		}
	}

	if p.needsPostInit {
		if len(p.private) > 0 {
			inst.private = deepcopy.Copy(p.private).(map[string]any)
		}
		if p.postInit != nil {
			if err := p.postInit(inst); err != nil {
				return nil, err
			}
		}
	}

	return inst, nil
}

func accelMode(p ExtraPolicy) accel.ExtraMode {
	switch p {
	case ExtraForbid:
		return accel.ExtraForbid
	case ExtraAllow:
		return accel.ExtraAllow
	default:
		return accel.ExtraIgnore
	}
}

// translateAccelErrors converts accelerator (field, message) pairs 1:1 into
// ValidationErrors, classifying each message. Unclassifiable messages are
// preserved opaque under the reported field.
func translateAccelErrors(ferrs []accel.FieldError) ValidationErrors {
	out := make(ValidationErrors, len(ferrs))
	for i, fe := range ferrs {
		out[i] = ValidationError{
			Field:   fe.Field,
			Kind:    classifyMessage(fe.Message),
			Message: fe.Message,
		}
	}
	return out
}

// processField is the in-process path for one field: alias-then-name lookup,
// default application, compiled validation, user validator chain. Failures
// are collected, never raised one at a time.
func (p *Plan) processField(spec *FieldSpec, slot int, input map[string]any, inst *Instance, errs *ValidationErrors) {
	value, ok := spec.resolve(input)
	if !ok {
		if spec.factory != nil {
			inst.values[slot] = spec.factory()
			return
		}
		if spec.hasDefault {
			d := spec.defaultValue
			if spec.defaultIsMutable {
				d = deepcopy.Copy(d)
			}
			inst.values[slot] = d
			return
		}
		errs.Add(ValidationError{Field: spec.Name, Kind: KindMissing, Message: "field required"})
		return
	}

	out, err := spec.validate(value)
	if err != nil {
		appendFieldError(errs, spec.Name, err)
		return
	}

	for _, fv := range spec.userChain {
		out, err = fv(out)
		if err != nil {
			appendFieldError(errs, spec.Name, err)
			return
		}
	}

	inst.values[slot] = out
	inst.set[slot] = true
}

// appendFieldError attaches a validator failure to the field path. A nested
// record's full error set is re-labeled with the outer field name prefixed.
func appendFieldError(errs *ValidationErrors, field string, err error) {
	if ve := ExtractValidationErrors(err); ve != nil {
		*errs = append(*errs, ve.prefixed(field)...)
		return
	}
	if fe, ok := err.(*valueError); ok {
		errs.Add(ValidationError{Field: field, Kind: fe.kind, Message: fe.msg})
		return
	}
	errs.Add(ValidationError{Field: field, Kind: KindCustom, Message: err.Error()})
}

func (p *Plan) applyExtraPolicy(input map[string]any, inst *Instance, errs *ValidationErrors) {
	if p.config.Extra == ExtraIgnore {
		return
	}

	var unknown []string
	for key := range input {
		if !p.recognized[key] {
			unknown = append(unknown, key)
		}
	}
	sort.Strings(unknown)

	for _, key := range unknown {
		switch p.config.Extra {
		case ExtraForbid:
			errs.Add(ValidationError{Field: key, Kind: KindExtra, Message: "extra field not permitted"})
		case ExtraAllow:
			if inst.extra == nil {
				inst.extra = make(map[string]any)
			}
			inst.extra[key] = input[key]
		}
	}
}

func asRecordError(err error) error {
	if IsValidationError(err) {
		return err
	}
	return ValidationErrors{{Field: rootField, Kind: KindCustom, Message: err.Error()}}
}

// Get returns the current value of a declared field.
func (inst *Instance) Get(name string) (any, bool) {
	i, ok := inst.plan.byName[name]
	if !ok {
		return nil, false
	}
	return inst.values[i], true
}

// Set assigns a declared field. It re-checks the record-level and per-field
// frozen flags and, when the record is configured with ValidateAssignment,
// re-runs the field's validator. Frozen violations are misuse errors, raised
// immediately and never aggregated.
func (inst *Instance) Set(name string, value any) error {
	i, ok := inst.plan.byName[name]
	if !ok {
		return fmt.Errorf("%w: %s.%s", ErrUnknownField, inst.plan.name, name)
	}
	spec := &inst.plan.fields[i]

	if inst.plan.config.Frozen || spec.Frozen {
		return fmt.Errorf("%w: %s.%s", ErrFrozen, inst.plan.name, name)
	}

	if inst.plan.config.ValidateAssignment {
		out, err := spec.validate(value)
		if err != nil {
			var errs ValidationErrors
			appendFieldError(&errs, spec.Name, err)
			return errs
		}
		for _, fv := range spec.userChain {
			out, err = fv(out)
			if err != nil {
				var errs ValidationErrors
				appendFieldError(&errs, spec.Name, err)
				return errs
			}
		}
		value = out
	}

	inst.values[i] = value
	inst.set[i] = true
	return nil
}

// WasSet reports whether the field was explicitly supplied at construction
// (or assigned later), as opposed to defaulted.
func (inst *Instance) WasSet(name string) bool {
	i, ok := inst.plan.byName[name]
	if !ok {
		return false
	}
	return inst.set[i]
}

// FieldsSet returns the names of explicitly supplied fields in declaration
// order.
func (inst *Instance) FieldsSet() []string {
	var out []string
	for i := range inst.plan.fields {
		if inst.set[i] {
			out = append(out, inst.plan.fields[i].Name)
		}
	}
	return out
}

// Extra returns the extra-field bag. Non-nil only when the record's policy is
// ExtraAllow and unrecognized keys were supplied.
func (inst *Instance) Extra() map[string]any { return inst.extra }

// Private returns a private attribute by name.
func (inst *Instance) Private(name string) (any, bool) {
	v, ok := inst.private[name]
	return v, ok
}

// SetPrivate assigns a private attribute. Private attributes bypass
// validation and frozen checks; they never appear in input or output.
func (inst *Instance) SetPrivate(name string, value any) {
	if inst.private == nil {
		inst.private = make(map[string]any)
	}
	inst.private[name] = value
}

// Copy duplicates the instance's stored state directly, no serialization
// round trip involved, so excluded fields carry over and computed fields
// never leak into the copy. Mutable containers are deep-copied; nested
// instances stay shared, matching construction-time aliasing. Update entries
// run through the field validators and any failures are aggregated.
func (inst *Instance) Copy(update map[string]any) (*Instance, error) {
	out := &Instance{
		plan:   inst.plan,
		values: make([]any, len(inst.values)),
		set:    make([]bool, len(inst.set)),
	}
	copy(out.set, inst.set)
	for i, v := range inst.values {
		out.values[i] = cloneValue(v)
	}
	if inst.extra != nil {
		out.extra = make(map[string]any, len(inst.extra))
		for k, v := range inst.extra {
			out.extra[k] = cloneValue(v)
		}
	}
	if inst.private != nil {
		out.private = make(map[string]any, len(inst.private))
		for k, v := range inst.private {
			out.private[k] = v
		}
	}

	var errs ValidationErrors
	for name, value := range update {
		i, ok := inst.plan.byName[name]
		if !ok {
			return nil, fmt.Errorf("%w: %s.%s", ErrUnknownField, inst.plan.name, name)
		}
		spec := &inst.plan.fields[i]

		validated, err := spec.validate(value)
		if err != nil {
			appendFieldError(&errs, spec.Name, err)
			continue
		}
		failed := false
		for _, fv := range spec.userChain {
			validated, err = fv(validated)
			if err != nil {
				appendFieldError(&errs, spec.Name, err)
				failed = true
				break
			}
		}
		if failed {
			continue
		}
		out.values[i] = validated
		out.set[i] = true
	}
	if len(errs) > 0 {
		return nil, errs
	}
	return out, nil
}

// cloneValue duplicates mutable containers so a copy never shares them with
// the source. Nested instances are returned as-is; they keep the shared
// aliasing callers already get at construction.
func cloneValue(v any) any {
	switch t := v.(type) {
	case *Instance:
		return t
	case []any:
		out := make([]any, len(t))
		for i, item := range t {
			out[i] = cloneValue(item)
		}
		return out
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, item := range t {
			out[k] = cloneValue(item)
		}
		return out
	case []byte:
		return append([]byte(nil), t...)
	default:
		if isMutable(v) {
			return deepcopy.Copy(v)
		}
		return v
	}
}

// Equal reports whether two instances share a plan and hold equal stored
// field values and extras. Excluded fields participate; computed fields do
// not, since they derive from stored state.
func (inst *Instance) Equal(other *Instance) bool {
	if other == nil || inst.plan != other.plan {
		return false
	}
	return reflect.DeepEqual(inst.values, other.values) &&
		reflect.DeepEqual(inst.extra, other.extra)
}

func (inst *Instance) String() string {
	var b strings.Builder
	b.WriteString(inst.plan.name)
	b.WriteByte('(')
	for i := range inst.plan.fields {
		if i > 0 {
			b.WriteString(", ")
		}
		fmt.Fprintf(&b, "%s=%v", inst.plan.fields[i].Name, inst.values[i])
	}
	b.WriteByte(')')
	return b.String()
}
