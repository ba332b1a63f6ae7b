// Package conic provides the cone-constraint core of a convex-optimization
// modeling layer.
//
// conic defines two elementwise cone-constraint variants:
//   - ExpCone, the (reformulated) exponential cone
//   - RelEntrQuad, a quadrature-parametrized outer approximation of the
//     scalar relative-entropy cone
//
// together with the machinery a canonicalization pipeline needs around them:
// operand normalization and shape checking, elementwise cone bookkeeping,
// convexity certification (DCP, DGP, DQCP — with an optional stricter
// parametrized-discipline scope), dual-value recovery after a solve, residual
// diagnostics via a nested projection solve, and a compact serialization
// codec for cone metadata.
//
// Sub-packages:
//   - expr: the expression-graph collaborator (terms, shapes, affinity)
//   - constraint: the cone variants and their certification and codec
//   - problem: the minimization-problem and solver boundary used by
//     residual diagnostics and dual distribution
package conic

import (
	"github.com/blang/semver/v4"
)

// Version of the conic module. Serialized cone artifacts embed it; the
// decoder warns on mismatch.
var Version = semver.MustParse("0.3.0")
