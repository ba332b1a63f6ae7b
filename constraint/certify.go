package constraint

import "github.com/convexsys/conic/expr"

// Classification is the convexity certificate of a constraint under one
// analysis scope.
type Classification struct {
	DCP  bool
	DGP  bool
	DQCP bool
}

// Certify classifies a constraint under the given scope. It is a pure
// function of the constraint's operands and is cheap enough for hot
// compilation paths.
func Certify(c Cone, scope expr.Scope) Classification {
	return Classification{
		DCP:  c.IsDCP(scope),
		DGP:  c.IsDGP(scope),
		DQCP: c.IsDQCP(),
	}
}
