// Package validation checks flat request input against pipe-separated rules.
//
//	v := validation.Make(map[string]string{
//	    "customer": "alice@example.com",
//	}, validation.Rules{
//	    "customer": "required|email|max:254",
//	})
//
//	if v.Fails() {
//	    res.ValidationError(v.Errors()) // 422 {"message": ..., "errors": {...}}
//	}
//
// Rules:
//   - required: present and not blank
//   - email: a bare RFC 5322 address
//   - max:n: at most n UTF-8 characters
//   - alpha_dash: letters, numbers, dashes and underscores
//   - integer: parseable as int
//   - gte:n: numerically at least n
//
// Fields are checked in name order and a field stops at its first failing
// rule.
package validation
