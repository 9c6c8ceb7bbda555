package auth

import (
	"context"
)

// Guard decides whether the identity behind a set of claims may proceed.
// Guards fail closed: any error short circuits the chain.
type Guard interface {
	Check(ctx context.Context, claims AuthClaims) error
}

// GuardFunc adapts a plain function to the Guard interface.
type GuardFunc func(ctx context.Context, claims AuthClaims) error

func (f GuardFunc) Check(ctx context.Context, claims AuthClaims) error {
	if f == nil {
		return ErrUnauthenticated
	}
	return f(ctx, claims)
}

// AuthenticatedGuard admits any request carrying validated claims. It is the
// canonical head of a guard chain.
func AuthenticatedGuard() Guard {
	return GuardFunc(func(ctx context.Context, claims AuthClaims) error {
		if claims == nil || claims.UserID() == "" {
			return ErrUnauthenticated
		}
		return nil
	})
}

// RoleGuard admits identities whose role is in the allowed set. Role is read
// from the claims as captured at token issue time.
func RoleGuard(roles ...UserRole) Guard {
	allowed := NewRoleSet(roles...)
	return GuardFunc(func(ctx context.Context, claims AuthClaims) error {
		if claims == nil {
			return ErrUnauthenticated
		}
		if !allowed.Contains(claims.Role()) {
			return ErrForbidden
		}
		return nil
	})
}

// SubscriptionGuard admits identities with an active subscription. Admins
// bypass the check. Subscription status is re-fetched from the store rather
// than trusted from the claims, so a lapse takes effect before the token
// expires. A store failure denies access.
func SubscriptionGuard(store CredentialStore) Guard {
	return GuardFunc(func(ctx context.Context, claims AuthClaims) error {
		if claims == nil {
			return ErrUnauthenticated
		}

		if claims.IsAdmin() {
			return nil
		}

		user, err := store.FindByID(ctx, claims.UserID())
		if err != nil {
			if IsNotFoundError(err) {
				return ErrForbidden
			}
			return wrapStoreError(err)
		}

		if !user.HasActiveSubscription() {
			return ErrForbidden
		}

		return nil
	})
}

// Chain runs guards in order and stops at the first failure.
func Chain(guards ...Guard) Guard {
	return GuardFunc(func(ctx context.Context, claims AuthClaims) error {
		for _, guard := range guards {
			if guard == nil {
				continue
			}
			if err := guard.Check(ctx, claims); err != nil {
				return err
			}
		}
		return nil
	})
}

// Authorize builds and evaluates the standard guard chain for a request:
// authenticated, then role membership when roles are given, then an active
// subscription when required.
func Authorize(ctx context.Context, store CredentialStore, claims AuthClaims, roles []UserRole, requireActiveSubscription bool) error {
	guards := []Guard{AuthenticatedGuard()}

	if len(roles) > 0 {
		guards = append(guards, RoleGuard(roles...))
	}

	if requireActiveSubscription {
		guards = append(guards, SubscriptionGuard(store))
	}

	return Chain(guards...).Check(ctx, claims)
}
