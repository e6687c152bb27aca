package db

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"

	"designkit/internal/types"
)

// ProjectRepo provides data access for saved design-system projects.
//
// The project count is the authoritative "usage" for the lifetime project
// cap: enforcement uses a Direct Count query at read time rather than a
// maintained counter, so deletes free capacity immediately.
type ProjectRepo struct {
	db DBTX
}

// NewProjectRepo creates a ProjectRepo backed by the given database
// connection (pool or transaction).
func NewProjectRepo(db DBTX) *ProjectRepo {
	return &ProjectRepo{db: db}
}

// CountByUser performs the Direct Count query for the lifetime project cap.
// An empty userID is grouped under the anonymous sentinel, matching counter
// key construction.
func (r *ProjectRepo) CountByUser(ctx context.Context, userID string) (int, error) {
	if userID == "" {
		userID = types.AnonymousUserID
	}

	var count int
	err := r.db.QueryRow(ctx,
		`SELECT COUNT(*) FROM projects WHERE user_id = $1`,
		userID,
	).Scan(&count)
	if err != nil {
		return 0, types.NewAppError(types.ErrCodeInternalDB, "failed to count projects", err)
	}
	return count, nil
}

// Create inserts a new project record.
func (r *ProjectRepo) Create(ctx context.Context, p *types.Project) error {
	_, err := r.db.Exec(ctx,
		`INSERT INTO projects (id, user_id, name, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5)`,
		p.ID, p.UserID, p.Name, p.CreatedAt, p.UpdatedAt,
	)
	if err != nil {
		return types.NewAppError(types.ErrCodeInternalDB, "failed to create project", err)
	}
	return nil
}

// GetByID returns the project with the given ID, scoped to the user.
func (r *ProjectRepo) GetByID(ctx context.Context, userID, projectID string) (*types.Project, error) {
	var p types.Project
	err := r.db.QueryRow(ctx,
		`SELECT id, user_id, name, created_at, updated_at
		 FROM projects
		 WHERE id = $1 AND user_id = $2`,
		projectID, userID,
	).Scan(&p.ID, &p.UserID, &p.Name, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, types.NewAppError(types.ErrCodeNotFoundProject, "project not found", nil)
		}
		return nil, types.NewAppError(types.ErrCodeInternalDB, "failed to get project", err)
	}
	return &p, nil
}

// Delete removes the project, scoped to the user. Deleting a missing project
// returns a not-found error so callers can distinguish it from success.
func (r *ProjectRepo) Delete(ctx context.Context, userID, projectID string) error {
	tag, err := r.db.Exec(ctx,
		`DELETE FROM projects WHERE id = $1 AND user_id = $2`,
		projectID, userID,
	)
	if err != nil {
		return types.NewAppError(types.ErrCodeInternalDB, "failed to delete project", err)
	}
	if tag.RowsAffected() == 0 {
		return types.NewAppError(types.ErrCodeNotFoundProject, "project not found", nil)
	}
	return nil
}

// ListByUser returns the user's projects, newest first.
func (r *ProjectRepo) ListByUser(ctx context.Context, userID string) ([]types.Project, error) {
	rows, err := r.db.Query(ctx,
		`SELECT id, user_id, name, created_at, updated_at
		 FROM projects
		 WHERE user_id = $1
		 ORDER BY created_at DESC`,
		userID,
	)
	if err != nil {
		return nil, types.NewAppError(types.ErrCodeInternalDB, "failed to list projects", err)
	}
	defer rows.Close()

	var projects []types.Project
	for rows.Next() {
		var p types.Project
		if err := rows.Scan(&p.ID, &p.UserID, &p.Name, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, types.NewAppError(types.ErrCodeInternalDB, "failed to scan project row", err)
		}
		projects = append(projects, p)
	}
	if err := rows.Err(); err != nil {
		return nil, types.NewAppError(types.ErrCodeInternalDB, "error iterating project rows", err)
	}
	return projects, nil
}

// Touch updates the project's updated_at timestamp.
func (r *ProjectRepo) Touch(ctx context.Context, userID, projectID string, at time.Time) error {
	tag, err := r.db.Exec(ctx,
		`UPDATE projects SET updated_at = $1 WHERE id = $2 AND user_id = $3`,
		at, projectID, userID,
	)
	if err != nil {
		return types.NewAppError(types.ErrCodeInternalDB, "failed to touch project", err)
	}
	if tag.RowsAffected() == 0 {
		return types.NewAppError(types.ErrCodeNotFoundProject, "project not found", nil)
	}
	return nil
}
