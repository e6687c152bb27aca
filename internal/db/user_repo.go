package db

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	"designkit/internal/types"
)

// UserRepo provides access to the fields of the user record the entitlement
// engine reads: the stored plan ID, the developer flag, and the email. The
// full user schema is owned by the auth collaborator; this repo deliberately
// selects only the entitlement-relevant columns.
type UserRepo struct {
	db DBTX
}

// NewUserRepo creates a UserRepo backed by the given database connection
// (pool or transaction).
func NewUserRepo(db DBTX) *UserRepo {
	return &UserRepo{db: db}
}

// GetByID returns the user with the given ID.
func (r *UserRepo) GetByID(ctx context.Context, userID string) (*types.User, error) {
	var u types.User
	err := r.db.QueryRow(ctx,
		`SELECT id, email, COALESCE(plan_id, ''), is_developer
		 FROM users
		 WHERE id = $1`,
		userID,
	).Scan(&u.ID, &u.Email, &u.PlanID, &u.IsDeveloper)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, types.NewAppError(types.ErrCodeNotFoundUser, "user not found", nil)
		}
		return nil, types.NewAppError(types.ErrCodeInternalDB, "failed to get user", err)
	}
	return &u, nil
}

// GetByCustomerID returns the user linked to the given billing provider
// customer ID. Used by the subscription webhook to apply plan changes.
func (r *UserRepo) GetByCustomerID(ctx context.Context, customerID string) (*types.User, error) {
	var u types.User
	err := r.db.QueryRow(ctx,
		`SELECT id, email, COALESCE(plan_id, ''), is_developer
		 FROM users
		 WHERE stripe_customer_id = $1`,
		customerID,
	).Scan(&u.ID, &u.Email, &u.PlanID, &u.IsDeveloper)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, types.NewAppError(types.ErrCodeNotFoundUser, "no user for billing customer", nil)
		}
		return nil, types.NewAppError(types.ErrCodeInternalDB, "failed to get user by customer id", err)
	}
	return &u, nil
}

// UpdatePlan stores the user's new plan ID.
func (r *UserRepo) UpdatePlan(ctx context.Context, userID string, plan types.PlanID) error {
	tag, err := r.db.Exec(ctx,
		`UPDATE users SET plan_id = $1, updated_at = NOW() WHERE id = $2`,
		plan, userID,
	)
	if err != nil {
		return types.NewAppError(types.ErrCodeInternalDB, "failed to update user plan", err)
	}
	if tag.RowsAffected() == 0 {
		return types.NewAppError(types.ErrCodeNotFoundUser, "user not found", nil)
	}
	return nil
}
