// Package formats provides leaf-format validators: small single-purpose
// predicate/transform objects for well-known value shapes such as email
// addresses, URLs, IP addresses, UUIDs, base64 payloads, and time ordering.
//
// Every validator satisfies the same contract:
//
//	Validate(value any, field string) (any, error)
//
// returning the (possibly transformed) value or a failure message. The
// schema engine runs them as entries in a field's custom validator chain, in
// fixed position after built-in constraint checks, and attaches the field
// path to any failure. Validators are stateless and safe for concurrent use.
package formats
