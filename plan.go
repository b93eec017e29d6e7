package schemakit

import (
	"regexp"

	"github.com/dmitrymomot/schemakit/internal/accel"
)

// Tier is the execution strategy chosen once for a schema at Register time.
type Tier int

const (
	// TierStandard evaluates every field in-process. Chosen whenever user
	// field-level or record-level validators are registered.
	TierStandard Tier = iota
	// TierHybrid delegates eligible fields to the accelerator in one batch
	// call and finishes the rest in-process.
	TierHybrid
	// TierAccelerated handles an entire instantiation with a single
	// accelerator call.
	TierAccelerated
)

func (t Tier) String() string {
	switch t {
	case TierAccelerated:
		return "accelerated"
	case TierHybrid:
		return "hybrid"
	default:
		return "standard"
	}
}

// ValueValidator is the contract every leaf-format validator satisfies. The
// engine treats them uniformly as entries in a field's custom validator
// chain, after built-in constraint checks and before nested-record recursion.
type ValueValidator interface {
	Validate(value any, field string) (any, error)
}

// ComputedField derives a value from a validated instance at dump time. It is
// never validated and never accepted from input.
type ComputedField struct {
	Name  string
	Alias string
	Fn    func(*Instance) any
}

// Definition declares a record type: its ordered fields, configuration, and
// user validators. Register compiles it into an immutable Plan.
type Definition struct {
	Name   string
	Fields []FieldDecl
	Config Config

	// Before validators run ahead of field validation and may rewrite the
	// supplied mapping. Registering any forces the standard tier.
	Before []func(map[string]any) (map[string]any, error)
	// After validators run on the fully validated instance, strictly after
	// every field has passed. Their failure is reported alone, never merged
	// with field errors.
	After []func(*Instance) error
	// FieldValidators are user value transforms run immediately after a
	// field's compiled validator, in registration order.
	FieldValidators map[string][]func(any) (any, error)

	// Computed fields are rendered by the dumper alongside declared fields.
	Computed []ComputedField
	// Private attributes are initialized on every instance after validation
	// and never appear in input or output.
	Private map[string]any
	// PostInit runs once per instance after successful construction.
	PostInit func(*Instance) error
}

// constraintRecord is a field's merged, normalized constraint set.
type constraintRecord struct {
	kind   Kind
	nested *Plan

	gt, ge, lt, le *float64
	multipleOf     *float64
	minLen, maxLen *int

	pattern     *regexp.Regexp
	patternExpr string

	strict    *bool
	strip     bool
	lower     bool
	upper     bool
	allowInf  bool
	maxDigits *int
	decPlaces *int
	unique    bool

	chain []chainEntry
}

type chainEntry struct {
	validator ValueValidator
	fn        func(any) (any, error)
}

// FieldSpec is one field's compiled descriptor inside a Plan.
type FieldSpec struct {
	Name string

	Alias              string
	ValidationAlias    string
	SerializationAlias string

	Required bool
	Frozen   bool
	Exclude  bool

	Title       string
	Description string

	rec              constraintRecord
	hasDefault       bool
	defaultValue     any
	defaultIsMutable bool
	factory          func() any

	validate  func(any) (any, error)
	accelDesc *accel.Descriptor
	userChain []func(any) (any, error)
}

// Kind reports the field's base type tag.
func (s *FieldSpec) Kind() Kind { return s.rec.kind }

// Nested reports the nested record plan, or nil for non-record fields.
func (s *FieldSpec) Nested() *Plan { return s.rec.nested }

// HasDefault reports whether the field carries a static default.
func (s *FieldSpec) HasDefault() bool { return s.hasDefault }

// Default returns the static default value, if any.
func (s *FieldSpec) Default() any { return s.defaultValue }

// resolve looks the field up in the supplied mapping: validation alias first,
// then alias, then the field name. When both an alias and the field name are
// present, the alias wins.
func (s *FieldSpec) resolve(input map[string]any) (any, bool) {
	if s.ValidationAlias != "" {
		if v, ok := input[s.ValidationAlias]; ok {
			return v, true
		}
	}
	if s.Alias != "" {
		if v, ok := input[s.Alias]; ok {
			return v, true
		}
	}
	v, ok := input[s.Name]
	return v, ok
}

// Plan is the immutable, once-compiled description of a record type. It is
// built exactly once by Register and is safe for unsynchronized concurrent
// reads afterwards; it is never mutated by instances.
type Plan struct {
	name   string
	fields []FieldSpec
	byName map[string]int
	config Config

	tier       Tier
	accelPlan  *accel.Plan // full-batch plan, accelerated tier only
	hybridPlan *accel.Plan // eligible-subset plan, hybrid tier only
	inProcess  []int       // field indexes the hybrid tier finishes in-process

	recognized map[string]bool // declared names and aliases, for extra policy

	hasUserValidators bool
	needsPostInit     bool
	hasNested         bool
	fastDump          bool

	before   []func(map[string]any) (map[string]any, error)
	after    []func(*Instance) error
	computed []ComputedField
	private  map[string]any
	postInit func(*Instance) error
}

// Name returns the record type name.
func (p *Plan) Name() string { return p.name }

// Tier returns the execution tier chosen at Register time.
func (p *Plan) Tier() Tier { return p.tier }

// Config returns the record-level configuration snapshot.
func (p *Plan) Config() Config { return p.config }

// Fields returns the ordered field specs. The returned slice is shared;
// callers must not modify it.
func (p *Plan) Fields() []FieldSpec { return p.fields }

// Field returns the compiled descriptor for name, if declared.
func (p *Plan) Field(name string) (*FieldSpec, bool) {
	i, ok := p.byName[name]
	if !ok {
		return nil, false
	}
	return &p.fields[i], true
}
