// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package auth

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/taibuivan/userhub/internal/platform/apperr"
	"github.com/taibuivan/userhub/internal/platform/database/schema"
	"github.com/taibuivan/userhub/internal/platform/dberr"
	"github.com/taibuivan/userhub/internal/platform/postgres"
	"github.com/taibuivan/userhub/pkg/uuid"
)

// # User Repository

// userColumns is the projection every query scans through [scanUser].
var userColumns = strings.Join(schema.Users.Columns(), ", ")

// userConflicts maps the users table unique constraints to client messages.
var userConflicts = dberr.ConflictMessages{
	schema.Users.EmailKey:    "Email already exists",
	schema.Users.UsernameKey: "Username already exists",
}

// PostgresUserRepository implements the [UserRepository] interface using pgx.
//
// Storage errors are mapped through [dberr.Wrap] so that callers only ever see
// NOT_FOUND, CONFLICT or INTERNAL_ERROR.
type PostgresUserRepository struct {
	db postgres.DBTX
}

// NewUserRepository creates a new PostgreSQL implementation of the UserRepository.
func NewUserRepository(db postgres.DBTX) *PostgresUserRepository {
	return &PostgresUserRepository{db: db}
}

/*
Create inserts a new account row with a time-sortable id.

Parameters:
  - context: context.Context
  - email: string
  - passwordHash: string

Returns:
  - *User: The inserted row
  - error: apperr.Conflict on users_email_key, or database errors
*/
func (repository *PostgresUserRepository) Create(context context.Context, email, passwordHash string) (*User, error) {
	query := fmt.Sprintf(`
		INSERT INTO %s (%s, %s, %s)
		VALUES ($1, $2, $3)
		RETURNING %s`,
		schema.Users.Table, schema.Users.ID, schema.Users.Email, schema.Users.Password, userColumns)

	user, err := scanUser(repository.db.QueryRow(context, query, uuid.New(), email, passwordHash))
	if err != nil {
		return nil, dberr.Wrap(fmt.Errorf("postgres_user_repo_create_failed: %w", err), "User", userConflicts)
	}

	return user, nil
}

/*
FindByID retrieves a user record by its primary key.

Parameters:
  - context: context.Context
  - id: string

Returns:
  - *User: Hydrated account entity
  - error: apperr.NotFound or database errors
*/
func (repository *PostgresUserRepository) FindByID(context context.Context, id string) (*User, error) {
	query := fmt.Sprintf(`SELECT %s FROM %s WHERE %s = $1`, userColumns, schema.Users.Table, schema.Users.ID)

	user, err := scanUser(repository.db.QueryRow(context, query, id))
	if err != nil {
		return nil, dberr.Wrap(fmt.Errorf("postgres_user_repo_find_by_id_failed: %w", err), "User", nil)
	}

	return user, nil
}

/*
FindBy retrieves a user record by username or email.

Parameters:
  - context: context.Context
  - field: IdentityField
  - value: string

Returns:
  - *User: Hydrated account entity
  - error: apperr.NotFound or database errors
*/
func (repository *PostgresUserRepository) FindBy(context context.Context, field IdentityField, value string) (*User, error) {
	column, err := identityColumn(field)
	if err != nil {
		return nil, err
	}

	query := fmt.Sprintf(`SELECT %s FROM %s WHERE %s = $1`, userColumns, schema.Users.Table, column)

	user, err := scanUser(repository.db.QueryRow(context, query, value))
	if err != nil {
		return nil, dberr.Wrap(fmt.Errorf("postgres_user_repo_find_by_%s_failed: %w", column, err), "User", nil)
	}

	return user, nil
}

/*
FindByIdentity retrieves a user only when both the identity field and the id match.

A session whose id and identity disagree (stale or tampered) therefore resolves
to NOT_FOUND.

Parameters:
  - context: context.Context
  - field: IdentityField
  - value: string
  - id: string

Returns:
  - *User: Hydrated account entity
  - error: apperr.NotFound or database errors
*/
func (repository *PostgresUserRepository) FindByIdentity(context context.Context, field IdentityField, value, id string) (*User, error) {
	column, err := identityColumn(field)
	if err != nil {
		return nil, err
	}

	query := fmt.Sprintf(`SELECT %s FROM %s WHERE %s = $1 AND %s = $2`,
		userColumns, schema.Users.Table, column, schema.Users.ID)

	user, err := scanUser(repository.db.QueryRow(context, query, value, id))
	if err != nil {
		return nil, dberr.Wrap(fmt.Errorf("postgres_user_repo_find_by_identity_failed: %w", err), "User", nil)
	}

	return user, nil
}

/*
Update applies a partial update and returns the row as persisted.

Only the non-nil fields of update are written. updated_at is always refreshed,
so even an empty update confirms the row still exists.

Parameters:
  - context: context.Context
  - id: string
  - update: ProfileUpdate

Returns:
  - *User: The updated row
  - error: apperr.NotFound when no row has id, apperr.Conflict on a unique violation
*/
func (repository *PostgresUserRepository) Update(context context.Context, id string, update ProfileUpdate) (*User, error) {
	var (
		assignments []string
		arguments   []any
	)

	set := func(column string, value any) {
		arguments = append(arguments, value)
		assignments = append(assignments, fmt.Sprintf("%s = $%d", column, len(arguments)))
	}

	if update.Name != nil {
		set(schema.Users.Name, *update.Name)
	}
	if update.Username != nil {
		set(schema.Users.Username, *update.Username)
	}
	if update.Gender != nil {
		set(schema.Users.Gender, *update.Gender)
	}
	if update.Bio != nil {
		set(schema.Users.Bio, *update.Bio)
	}
	if update.ClearImage {
		assignments = append(assignments, schema.Users.Image+" = NULL")
	} else if update.Image != nil {
		set(schema.Users.Image, *update.Image)
	}
	if update.PasswordHash != nil {
		set(schema.Users.Password, *update.PasswordHash)
	}
	if update.Setup != nil {
		set(schema.Users.Setup, *update.Setup)
	}
	assignments = append(assignments, schema.Users.UpdatedAt+" = now()")

	arguments = append(arguments, id)
	query := fmt.Sprintf(`UPDATE %s SET %s WHERE %s = $%d RETURNING %s`,
		schema.Users.Table, strings.Join(assignments, ", "), schema.Users.ID, len(arguments), userColumns)

	user, err := scanUser(repository.db.QueryRow(context, query, arguments...))
	if err != nil {
		return nil, dberr.Wrap(fmt.Errorf("postgres_user_repo_update_failed: %w", err), "User", userConflicts)
	}

	return user, nil
}

/*
Delete removes the account row.

Parameters:
  - context: context.Context
  - id: string

Returns:
  - error: apperr.NotFound when no row has id
*/
func (repository *PostgresUserRepository) Delete(context context.Context, id string) error {
	query := fmt.Sprintf(`DELETE FROM %s WHERE %s = $1`, schema.Users.Table, schema.Users.ID)

	tag, err := repository.db.Exec(context, query, id)
	if err != nil {
		return dberr.Wrap(fmt.Errorf("postgres_user_repo_delete_failed: %w", err), "User", nil)
	}

	if tag.RowsAffected() == 0 {
		return apperr.NotFound("User")
	}

	return nil
}

// # Helpers

// identityColumn whitelists the columns an identity lookup may filter on.
func identityColumn(field IdentityField) (string, error) {
	switch field {
	case IdentityUsername:
		return schema.Users.Username, nil
	case IdentityEmail:
		return schema.Users.Email, nil
	default:
		return "", apperr.Internal(fmt.Errorf("postgres_user_repo_unknown_identity_field: %q", field))
	}
}

// scanUser hydrates a [User] from a row produced with userColumns.
func scanUser(row pgx.Row) (*User, error) {
	var (
		user                               User
		name, username, gender, image, bio pgtype.Text
	)

	err := row.Scan(
		&user.ID,
		&name,
		&user.Email,
		&username,
		&user.PasswordHash,
		&gender,
		&image,
		&bio,
		&user.Setup,
		&user.CreatedAt,
		&user.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	user.Name = textPointer(name)
	user.Username = textPointer(username)
	user.Gender = textPointer(gender)
	user.Image = textPointer(image)
	user.Bio = textPointer(bio)

	return &user, nil
}

func textPointer(text pgtype.Text) *string {
	if !text.Valid {
		return nil
	}
	value := text.String
	return &value
}
