// Package access decides whether a caller may perform an action on a
// resource. Every decision is a pure function of the request and the
// record owner; evaluators never touch storage.
package access

import (
	"fmt"
	"strings"
)

import (
	"github.com/nanjiek/pixiu-cats/internal/identity"
)

// Decision is ALLOW or DENY.
type Decision bool

const (
	Allow Decision = true
	Deny  Decision = false
)

func (d Decision) String() string {
	if d {
		return "ALLOW"
	}
	return "DENY"
}

// Request is the part of a request an access policy may look at.
type Request struct {
	Identity identity.Identity
	Action   Action
	Method   string
}

// Owned is implemented by records that carry an owner reference.
type Owned interface {
	OwnerRef() string
}

// Policy is a permission strategy with a request-level and an
// object-level check, both side-effect free.
type Policy interface {
	Name() string
	// Permit runs before any record is loaded.
	Permit(req Request) Decision
	// PermitObject runs once the target record is known.
	PermitObject(req Request, rec Owned) Decision
}

// OwnerOrReadOnly lets anyone read, authenticated callers create, and only
// the owner modify or delete.
type OwnerOrReadOnly struct{}

func (OwnerOrReadOnly) Name() string { return "owner_or_read_only" }

func (OwnerOrReadOnly) Permit(req Request) Decision {
	return Decision(IsSafeMethod(req.Method) || !req.Identity.IsAnonymous())
}

func (OwnerOrReadOnly) PermitObject(req Request, rec Owned) Decision {
	if IsSafeMethod(req.Method) {
		return Allow
	}
	if req.Identity.IsAnonymous() || rec == nil {
		return Deny
	}
	return Decision(rec.OwnerRef() == req.Identity.Subject)
}

// AuthenticatedOrReadOnly lets anyone read and any authenticated caller write.
type AuthenticatedOrReadOnly struct{}

func (AuthenticatedOrReadOnly) Name() string { return "authenticated_or_read_only" }

func (AuthenticatedOrReadOnly) Permit(req Request) Decision {
	return Decision(IsSafeMethod(req.Method) || !req.Identity.IsAnonymous())
}

func (AuthenticatedOrReadOnly) PermitObject(req Request, _ Owned) Decision {
	return Decision(IsSafeMethod(req.Method) || !req.Identity.IsAnonymous())
}

// ReadOnly allows safe methods only.
type ReadOnly struct{}

func (ReadOnly) Name() string { return "read_only" }

func (ReadOnly) Permit(req Request) Decision {
	return Decision(IsSafeMethod(req.Method))
}

func (ReadOnly) PermitObject(req Request, _ Owned) Decision {
	return Decision(IsSafeMethod(req.Method))
}

// Public allows everything. Used for public reads.
type Public struct{}

func (Public) Name() string                         { return "public" }
func (Public) Permit(Request) Decision              { return Allow }
func (Public) PermitObject(Request, Owned) Decision { return Allow }

// ParsePolicy resolves a policy by its configuration name.
func ParsePolicy(name string) (Policy, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "owner_or_read_only":
		return OwnerOrReadOnly{}, nil
	case "authenticated_or_read_only":
		return AuthenticatedOrReadOnly{}, nil
	case "read_only":
		return ReadOnly{}, nil
	case "public":
		return Public{}, nil
	}
	return nil, fmt.Errorf("unknown access policy %q", name)
}
