package command

import (
	"context"
	"fmt"

	"github.com/invoicing/backend/internal/domain/identity"
	"github.com/invoicing/backend/internal/domain/shared"
)

// RequireRole wraps h so that it only runs when the acting user holds
// role. The check is a single existence read in the handler's own scope.
// It panics on an unknown role, like Register does on a bad route.
func RequireRole[C Command, R any](role identity.Role, h Handler[C, R]) Handler[C, R] {
	if !role.IsValid() {
		panic(fmt.Sprintf("command: guard configured with unknown role %q", role))
	}
	return func(ctx context.Context, cmd C, d *Deps) (R, error) {
		var zero R
		userID, err := d.User()
		if err != nil {
			return zero, err
		}
		scope, err := d.Scope()
		if err != nil {
			return zero, err
		}
		ok, err := scope.Users().Exists(ctx, shared.ByID(userID), shared.Eq("role", role))
		if err != nil {
			return zero, err
		}
		if !ok {
			return zero, shared.PermissionDenied(fmt.Sprintf("%s role required", role))
		}
		return h(ctx, cmd, d)
	}
}
