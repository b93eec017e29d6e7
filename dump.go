package schemakit

import (
	"encoding/json"
	"reflect"
	"time"

	"github.com/shopspring/decimal"
)

type dumpConfig struct {
	include         map[string]bool
	exclude         map[string]bool
	byAlias         bool
	excludeUnset    bool
	excludeDefaults bool
	excludeNone     bool
	jsonMode        bool
}

func (c *dumpConfig) filtered() bool {
	return len(c.include) > 0 || len(c.exclude) > 0 || c.byAlias ||
		c.excludeUnset || c.excludeDefaults || c.excludeNone
}

// DumpOption adjusts how an instance is rendered to a mapping.
type DumpOption func(*dumpConfig)

// WithInclude restricts output to the named fields.
func WithInclude(fields ...string) DumpOption {
	return func(c *dumpConfig) {
		if c.include == nil {
			c.include = make(map[string]bool, len(fields))
		}
		for _, f := range fields {
			c.include[f] = true
		}
	}
}

// WithExclude omits the named fields from output.
func WithExclude(fields ...string) DumpOption {
	return func(c *dumpConfig) {
		if c.exclude == nil {
			c.exclude = make(map[string]bool, len(fields))
		}
		for _, f := range fields {
			c.exclude[f] = true
		}
	}
}

// ByAlias emits fields under their serialization alias, falling back to the
// general alias, then the field name.
func ByAlias() DumpOption {
	return func(c *dumpConfig) { c.byAlias = true }
}

// ExcludeUnset emits only fields that were explicitly supplied, omitting
// defaulted ones.
func ExcludeUnset() DumpOption {
	return func(c *dumpConfig) { c.excludeUnset = true }
}

// ExcludeDefaults omits fields whose current value equals the static
// default. It never applies to factory defaults.
func ExcludeDefaults() DumpOption {
	return func(c *dumpConfig) { c.excludeDefaults = true }
}

// ExcludeNone omits fields whose current value is nil.
func ExcludeNone() DumpOption {
	return func(c *dumpConfig) { c.excludeNone = true }
}

// Dump renders the instance to a mapping, iterating plan fields in
// declaration order. Nested records and collections recurse with the same
// filter set.
func (inst *Instance) Dump(opts ...DumpOption) map[string]any {
	var cfg dumpConfig
	for _, opt := range opts {
		opt(&cfg)
	}

	if !cfg.filtered() && inst.plan.fastDump && inst.extra == nil {
		return inst.plan.accelPlan.DumpCompiled(inst.values)
	}

	return inst.dumpWith(&cfg)
}

// DumpJSON renders the instance to JSON text, lowering byte sequences,
// times, and decimals to their textual forms.
func (inst *Instance) DumpJSON(opts ...DumpOption) ([]byte, error) {
	var cfg dumpConfig
	for _, opt := range opts {
		opt(&cfg)
	}
	cfg.jsonMode = true

	if !cfg.filtered() && inst.plan.fastDump && inst.extra == nil {
		return inst.plan.accelPlan.DumpJSONCompiled(inst.values)
	}

	return json.Marshal(inst.dumpWith(&cfg))
}

func (inst *Instance) dumpWith(cfg *dumpConfig) map[string]any {
	out := make(map[string]any, len(inst.plan.fields))

	for i := range inst.plan.fields {
		spec := &inst.plan.fields[i]
		if spec.Exclude {
			continue
		}
		if len(cfg.include) > 0 && !cfg.include[spec.Name] {
			continue
		}
		if cfg.exclude[spec.Name] {
			continue
		}
		if cfg.excludeUnset && !inst.set[i] {
			continue
		}

		value := inst.values[i]
		if cfg.excludeNone && value == nil {
			continue
		}
		if cfg.excludeDefaults && spec.hasDefault && spec.factory == nil &&
			reflect.DeepEqual(value, spec.defaultValue) {
			continue
		}

		out[outName(spec, cfg)] = renderValue(value, cfg)
	}

	for key, value := range inst.extra {
		out[key] = renderValue(value, cfg)
	}

	for _, cf := range inst.plan.computed {
		if len(cfg.include) > 0 && !cfg.include[cf.Name] {
			continue
		}
		if cfg.exclude[cf.Name] {
			continue
		}
		name := cf.Name
		if cfg.byAlias && cf.Alias != "" {
			name = cf.Alias
		}
		out[name] = renderValue(cf.Fn(inst), cfg)
	}

	return out
}

func outName(spec *FieldSpec, cfg *dumpConfig) string {
	if !cfg.byAlias {
		return spec.Name
	}
	if spec.SerializationAlias != "" {
		return spec.SerializationAlias
	}
	if spec.Alias != "" {
		return spec.Alias
	}
	return spec.Name
}

func renderValue(value any, cfg *dumpConfig) any {
	switch v := value.(type) {
	case *Instance:
		return v.dumpWith(cfg)
	case []any:
		out := make([]any, len(v))
		for i, item := range v {
			out[i] = renderValue(item, cfg)
		}
		return out
	case map[string]any:
		out := make(map[string]any, len(v))
		for k, item := range v {
			out[k] = renderValue(item, cfg)
		}
		return out
	case []byte:
		if cfg.jsonMode {
			return string(v)
		}
		return v
	case time.Time:
		if cfg.jsonMode {
			return v.Format(time.RFC3339)
		}
		return v
	case decimal.Decimal:
		if cfg.jsonMode {
			return v.String()
		}
		return v
	default:
		return value
	}
}
