package schemakit

// JSONSchema renders the plan as a JSON Schema object document: property
// types, constraint keywords, defaults, and the required-field list. Nested
// record plans are inlined.
func (p *Plan) JSONSchema() map[string]any {
	properties := make(map[string]any, len(p.fields))
	required := make([]string, 0)

	for i := range p.fields {
		spec := &p.fields[i]
		properties[spec.Name] = fieldSchema(spec)
		if spec.Required {
			required = append(required, spec.Name)
		}
	}

	return map[string]any{
		"title":      p.name,
		"type":       "object",
		"properties": properties,
		"required":   required,
	}
}

func fieldSchema(spec *FieldSpec) map[string]any {
	rec := &spec.rec

	if rec.nested != nil {
		return rec.nested.JSONSchema()
	}

	prop := map[string]any{}
	switch rec.kind {
	case Int:
		prop["type"] = "integer"
	case Float:
		prop["type"] = "number"
	case String, Bytes, Time, Decimal:
		prop["type"] = "string"
	case Bool:
		prop["type"] = "boolean"
	case List:
		prop["type"] = "array"
	case Map:
		prop["type"] = "object"
	}
	if rec.kind == Time {
		prop["format"] = "date-time"
	}

	if rec.gt != nil {
		prop["exclusiveMinimum"] = *rec.gt
	}
	if rec.ge != nil {
		prop["minimum"] = *rec.ge
	}
	if rec.lt != nil {
		prop["exclusiveMaximum"] = *rec.lt
	}
	if rec.le != nil {
		prop["maximum"] = *rec.le
	}
	if rec.multipleOf != nil {
		prop["multipleOf"] = *rec.multipleOf
	}

	if rec.minLen != nil {
		if rec.kind == List {
			prop["minItems"] = *rec.minLen
		} else {
			prop["minLength"] = *rec.minLen
		}
	}
	if rec.maxLen != nil {
		if rec.kind == List {
			prop["maxItems"] = *rec.maxLen
		} else {
			prop["maxLength"] = *rec.maxLen
		}
	}
	if rec.patternExpr != "" {
		prop["pattern"] = rec.patternExpr
	}
	if rec.unique {
		prop["uniqueItems"] = true
	}

	if spec.Title != "" {
		prop["title"] = spec.Title
	}
	if spec.Description != "" {
		prop["description"] = spec.Description
	}
	if spec.hasDefault {
		prop["default"] = spec.defaultValue
	}

	return prop
}
