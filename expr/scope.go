package expr

// Scope selects the analysis mode affinity checks run under. The zero value
// is the default discipline.
//
// Scope is threaded explicitly through every predicate; there is no ambient
// analysis state, so certification stays referentially transparent.
type Scope struct {
	// DPP enables the stricter parametrized discipline: Parameter leaves are
	// treated like variables, so a product of a parameter with a
	// variable-dependent term is no longer considered affine.
	DPP bool
}
