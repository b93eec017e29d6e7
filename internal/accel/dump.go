package accel

import "encoding/json"

// DumpCompiled is the bulk unfiltered serialization fast path: it zips field
// names and slot values into a mapping with no filter logic.
func (p *Plan) DumpCompiled(values []any) map[string]any {
	out := make(map[string]any, len(p.fields))
	for i := range p.fields {
		fd := &p.fields[i]
		out[fd.Name] = values[fd.Slot]
	}
	return out
}

// DumpJSONCompiled renders slot values straight to JSON text, lowering byte
// sequences to strings.
func (p *Plan) DumpJSONCompiled(values []any) ([]byte, error) {
	out := make(map[string]any, len(p.fields))
	for i := range p.fields {
		fd := &p.fields[i]
		v := values[fd.Slot]
		if b, ok := v.([]byte); ok {
			v = string(b)
		}
		out[fd.Name] = v
	}
	return json.Marshal(out)
}
