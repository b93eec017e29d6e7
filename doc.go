// Package schemakit is a schema-driven validation and (de)serialization
// engine. A record shape (field names, types, constraints, defaults,
// aliases) is declared once and compiled into an immutable Plan; the Plan
// then turns loosely-typed input (maps, JSON payloads, struct attributes) into
// validated, type-coerced instances and renders instances back to mappings
// or JSON text.
//
// # Declaring records
//
//	user := schemakit.MustRegister(schemakit.Definition{
//		Name: "User",
//		Fields: []schemakit.FieldDecl{
//			schemakit.F("name", schemakit.String, schemakit.MinLen(2), schemakit.MaxLen(100)),
//			schemakit.F("email", schemakit.EmailStr),
//			schemakit.F("age", schemakit.Int, schemakit.Ge(18), schemakit.Le(120)),
//			schemakit.F("score", schemakit.Float, schemakit.Attrs{Default: 0.0, Ge: schemakit.Ptr(0.0)}),
//		},
//	})
//
//	inst, err := user.New(map[string]any{
//		"name": "Alice", "email": "alice@example.com", "age": 25,
//	})
//
// Register runs once per record type and does all the expensive work up
// front: constraint metadata is extracted and merged per field, every field
// gets a compiled validator, and the whole schema is classified into one of
// three execution tiers (accelerated, hybrid, standard) that decide how much
// of an instantiation is delegated to the batch constraint evaluator. The
// resulting Plan is immutable and safe for unsynchronized concurrent reads.
//
// # Validation semantics
//
// Validation is exhaustive, never fail-fast: every field is evaluated and
// every failure collected before the aggregated ValidationErrors is
// returned. Nested record failures carry dotted field paths
// ("outer.inner"). Non-strict fields coerce between integer and float
// (including float-to-int truncation); booleans never satisfy an integer
// requirement; strings, bytes, and collections are never cross-coerced.
//
// Frozen-field assignment is a misuse error (ErrFrozen), returned
// immediately and kept distinct from data validation errors: callers can
// retry a ValidationErrors with different input, while a frozen violation
// means the call itself was invalid.
//
// # Serialization
//
// Instance.Dump and Instance.DumpJSON iterate fields in declaration order
// and honor include/exclude sets, alias naming, and unset/default/nil
// filtering; nested records recurse with the same filter set. Schemas whose
// fields are all primitive bypass filter logic entirely through the
// compiled bulk dump path.
package schemakit
