package accel

import "sort"

// InitFull validates and populates an entire instantiation in one call.
// values and set are the instance's storage, indexed by each descriptor's
// Slot. On success it returns nil with every slot populated and supplied
// slots marked in set. On failure it returns the complete per-field error
// list; no partial population is guaranteed.
func (p *Plan) InitFull(values []any, set []bool, supplied map[string]any, mode ExtraMode, extra map[string]any) []FieldError {
	var errs []FieldError

	for i := range p.fields {
		fd := &p.fields[i]

		value, ok := fd.resolve(supplied)
		if !ok {
			if fd.Required {
				errs = append(errs, FieldError{Field: fd.Name, Message: errRequired.Error()})
				continue
			}
			if fd.HasDefault {
				values[fd.Slot] = fd.Default
			}
			continue
		}

		if fd.Nested != nil {
			out, nerrs := fd.Nested(value)
			if len(nerrs) > 0 {
				for _, ne := range nerrs {
					path := fd.Name
					if ne.Field != "" {
						path += "." + ne.Field
					}
					errs = append(errs, FieldError{Field: path, Message: ne.Message})
				}
				continue
			}
			values[fd.Slot] = out
			set[fd.Slot] = true
			continue
		}

		out, err := eval(value, fd.Constraints)
		if err != nil {
			errs = append(errs, FieldError{Field: fd.Name, Message: err.Error()})
			continue
		}
		values[fd.Slot] = out
		set[fd.Slot] = true
	}

	if mode != ExtraIgnore {
		var unknown []string
		for key := range supplied {
			if !p.recognized[key] {
				unknown = append(unknown, key)
			}
		}
		sort.Strings(unknown)
		for _, key := range unknown {
			switch mode {
			case ExtraForbid:
				errs = append(errs, FieldError{Field: key, Message: "extra field not permitted"})
			case ExtraAllow:
				if extra != nil {
					extra[key] = supplied[key]
				}
			}
		}
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}
