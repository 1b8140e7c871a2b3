// Package authz is the one place that decides whether a principal may act on a resource.
// Handlers and services call Authorize instead of re-deriving ownership rules locally.
package authz

import (
	"fmt"

	"github.com/psds-microservice/backoffice-service/internal/errs"
	"github.com/psds-microservice/backoffice-service/internal/model"
)

type Action int

const (
	// AnyAuthenticated only requires a resolved identity.
	AnyAuthenticated Action = iota
	// AdminOnly requires an Admin principal.
	AdminOnly
	// ClientOnly requires a Client principal.
	ClientOnly
	// OwnerOrAdmin admits any Admin, or the Client whose id equals the resource owner.
	OwnerOrAdmin
)

func (a Action) String() string {
	switch a {
	case AnyAuthenticated:
		return "any-authenticated"
	case AdminOnly:
		return "admin-only"
	case ClientOnly:
		return "client-only"
	case OwnerOrAdmin:
		return "owner-or-admin"
	}
	return fmt.Sprintf("action(%d)", int(a))
}

// Authorize returns nil when p may perform action on a resource owned by ownerID.
// ownerID is ignored for actions that are not ownership-scoped.
func Authorize(p model.Principal, action Action, ownerID string) error {
	if p.ID == "" || !p.Kind.Valid() {
		return errs.ErrUnauthenticated
	}
	switch action {
	case AnyAuthenticated:
		return nil
	case AdminOnly:
		if p.Kind == model.KindAdmin {
			return nil
		}
	case ClientOnly:
		if p.Kind == model.KindClient {
			return nil
		}
	case OwnerOrAdmin:
		if p.Kind == model.KindAdmin {
			return nil
		}
		if ownerID != "" && p.ID == ownerID {
			return nil
		}
	default:
		return fmt.Errorf("%w: unknown action %s", errs.ErrForbidden, action)
	}
	return fmt.Errorf("%w: %s denied for %s", errs.ErrForbidden, action, p.Kind)
}

// IsAdmin is a convenience for branching on principal kind after authorization.
func IsAdmin(p model.Principal) bool {
	return p.Kind == model.KindAdmin
}
