package access

// Evaluator maps each action of the closed Action set to the policy that
// governs it. Retrieve is always public; every other action goes through
// the endpoint policy.
type Evaluator struct {
	Policy Policy
}

// NewEvaluator returns an evaluator using p for non-retrieve actions.
func NewEvaluator(p Policy) Evaluator {
	if p == nil {
		p = OwnerOrReadOnly{}
	}
	return Evaluator{Policy: p}
}

func (e Evaluator) policyFor(a Action) Policy {
	switch a {
	case ActionRetrieve:
		return Public{}
	case ActionList, ActionCreate, ActionUpdate, ActionDelete:
		if e.Policy == nil {
			return OwnerOrReadOnly{}
		}
		return e.Policy
	default:
		return denyAll{}
	}
}

// Evaluate returns the decision for req against rec. A nil rec means no
// record is involved yet (list, create, or the request-level check of an
// object action).
func (e Evaluator) Evaluate(req Request, rec Owned) Decision {
	p := e.policyFor(req.Action)
	if !p.Permit(req) {
		return Deny
	}
	if rec == nil {
		return Allow
	}
	return p.PermitObject(req, rec)
}

type denyAll struct{}

func (denyAll) Name() string                         { return "deny_all" }
func (denyAll) Permit(Request) Decision              { return Deny }
func (denyAll) PermitObject(Request, Owned) Decision { return Deny }
