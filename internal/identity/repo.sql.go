package identity

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/accounthub/accounthub/internal/shared"
)

const userColumns = `id, organization_id, name, email, password_hash, group_ids, is_disabled, api_key, created_at, updated_at`

// uniqueViolation is the PostgreSQL SQLSTATE for unique-constraint failures.
const uniqueViolation = "23505"

// PGRepository implements Repository on PostgreSQL. The per-organization
// email uniqueness invariant lives in the users_org_email_key index, so two
// concurrent creators of the same email resolve to exactly one winner.
type PGRepository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a PostgreSQL repository.
func NewRepository(pool *pgxpool.Pool) *PGRepository {
	return &PGRepository{pool: pool}
}

func scanUser(row pgx.Row) (*User, error) {
	var user User
	err := row.Scan(&user.ID, &user.OrganizationID, &user.Name, &user.Email, &user.PasswordHash,
		&user.GroupIDs, &user.IsDisabled, &user.APIKey, &user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &user, nil
}

func mapWriteError(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		return &shared.ConflictError{Field: "email"}
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return shared.ErrNotFound
	}
	return err
}

// ListByOrg returns all users in an organization.
func (r *PGRepository) ListByOrg(ctx context.Context, orgID int64) ([]User, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+userColumns+` FROM users WHERE organization_id = $1 ORDER BY id`, orgID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var users []User
	for rows.Next() {
		var user User
		if err := rows.Scan(&user.ID, &user.OrganizationID, &user.Name, &user.Email, &user.PasswordHash,
			&user.GroupIDs, &user.IsDisabled, &user.APIKey, &user.CreatedAt, &user.UpdatedAt); err != nil {
			return nil, err
		}
		users = append(users, user)
	}
	return users, rows.Err()
}

// GetByIDAndOrg fetches a user scoped to its organization.
func (r *PGRepository) GetByIDAndOrg(ctx context.Context, id, orgID int64) (*User, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT `+userColumns+` FROM users WHERE id = $1 AND organization_id = $2`, id, orgID)
	return scanUser(row)
}

// GetByAPIKey fetches a user by its API key.
func (r *PGRepository) GetByAPIKey(ctx context.Context, apiKey string) (*User, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT `+userColumns+` FROM users WHERE api_key = $1`, apiKey)
	return scanUser(row)
}

// DefaultGroup returns the organization's default group id.
func (r *PGRepository) DefaultGroup(ctx context.Context, orgID int64) (int64, error) {
	var groupID int64
	err := r.pool.QueryRow(ctx,
		`SELECT default_group_id FROM organizations WHERE id = $1`, orgID).Scan(&groupID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, shared.ErrNotFound
		}
		return 0, err
	}
	return groupID, nil
}

// EffectiveCapabilities returns the deduplicated capability names granted by
// the user's group memberships.
func (r *PGRepository) EffectiveCapabilities(ctx context.Context, userID int64) ([]string, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT DISTINCT cap
		 FROM users u, groups g, unnest(g.capabilities) AS cap
		 WHERE u.id = $1 AND g.id = ANY(u.group_ids)`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var caps []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		caps = append(caps, name)
	}
	return caps, rows.Err()
}

// Create atomically inserts a user. A duplicate email within the
// organization surfaces as *shared.ConflictError.
func (r *PGRepository) Create(ctx context.Context, user *User) (*User, error) {
	row := r.pool.QueryRow(ctx,
		`INSERT INTO users (organization_id, name, email, password_hash, group_ids, is_disabled, api_key, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, FALSE, $6, NOW(), NOW())
		 RETURNING `+userColumns,
		user.OrganizationID, user.Name, user.Email, user.PasswordHash, user.GroupIDs, user.APIKey)
	created, err := scanUser(row)
	if err != nil {
		return nil, mapWriteError(err)
	}
	return created, nil
}

// Update applies the patch as one atomic UPDATE; all patched fields commit
// together or none do.
func (r *PGRepository) Update(ctx context.Context, id, orgID int64, patch StorePatch) (*User, error) {
	if patch.Empty() {
		return r.GetByIDAndOrg(ctx, id, orgID)
	}

	var sets []string
	var args []any
	add := func(column string, value any) {
		args = append(args, value)
		sets = append(sets, fmt.Sprintf("%s = $%d", column, len(args)))
	}
	if patch.Name != nil {
		add("name", *patch.Name)
	}
	if patch.Email != nil {
		add("email", *patch.Email)
	}
	if patch.PasswordHash != nil {
		add("password_hash", *patch.PasswordHash)
	}
	if patch.GroupIDs != nil {
		add("group_ids", patch.GroupIDs)
	}
	sets = append(sets, "updated_at = NOW()")

	args = append(args, id, orgID)
	query := fmt.Sprintf(
		`UPDATE users SET %s WHERE id = $%d AND organization_id = $%d RETURNING %s`,
		strings.Join(sets, ", "), len(args)-1, len(args), userColumns)

	updated, err := scanUser(r.pool.QueryRow(ctx, query, args...))
	if err != nil {
		return nil, mapWriteError(err)
	}
	return updated, nil
}

// SetDisabled flips the disabled flag. Repeating a transition is a no-op
// that still returns the current record.
func (r *PGRepository) SetDisabled(ctx context.Context, id, orgID int64, disabled bool) (*User, error) {
	row := r.pool.QueryRow(ctx,
		`UPDATE users SET is_disabled = $1, updated_at = NOW()
		 WHERE id = $2 AND organization_id = $3
		 RETURNING `+userColumns,
		disabled, id, orgID)
	return scanUser(row)
}

var _ Repository = (*PGRepository)(nil)
