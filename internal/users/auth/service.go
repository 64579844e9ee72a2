// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package auth

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/taibuivan/userhub/internal/platform/apperr"
	"github.com/taibuivan/userhub/internal/platform/ctxutil"
)

// # Contracts & Types

// PasswordHasher hashes and verifies credentials. Implemented by [sec.Hasher].
type PasswordHasher interface {
	Hash(plainTextPassword string) (string, error)
	Verify(plainTextPassword, existingHash string) bool
}

// Service implements user authentication use cases.
//
// # Review Process
//
// This service is critical for security. Any changes to hashing, registration,
// or login logic must be reviewed by the security team.
type Service struct {
	userRepository UserRepository
	userCache      UserCache
	hasher         PasswordHasher
}

// NewService constructs a new [Service] with necessary dependencies.
func NewService(userRepo UserRepository, userCache UserCache, hasher PasswordHasher) *Service {
	return &Service{
		userRepository: userRepo,
		userCache:      userCache,
		hasher:         hasher,
	}
}

// # Registration Flow

// RegisterInput holds the data required to enroll a new member.
type RegisterInput struct {
	Email    string
	Password string
}

/*
Register hashes the password and persists a brand new account.

Description: The email pre-check gives the common case a clean Conflict; a
concurrent registration racing past it is still stopped by the unique
constraint, which the repository also maps to Conflict.

Parameters:
  - context: context.Context
  - input: RegisterInput

Returns:
  - *User: Created entity
  - error: ValidationError (password too long), Conflict (if the email exists) or storage errors
*/
func (service *Service) Register(context context.Context, input RegisterInput) (*User, error) {
	if err := checkPasswordSize(FieldPassword, input.Password); err != nil {
		return nil, err
	}

	email := NormalizeEmail(input.Email)

	_, err := service.userRepository.FindBy(context, IdentityEmail, email)
	if err == nil {
		return nil, apperr.Conflict("Email already exists")
	}
	if !apperr.IsNotFound(err) {
		return nil, fmt.Errorf("auth_service_register_lookup_failed: %w", err)
	}

	hashedPassword, err := service.hasher.Hash(input.Password)
	if err != nil {
		return nil, fmt.Errorf("auth_service_hash_failed: %w", err)
	}

	user, err := service.userRepository.Create(context, email, hashedPassword)
	if err != nil {
		return nil, fmt.Errorf("auth_service_register_failed: %w", err)
	}

	ctxutil.GetLogger(context).InfoContext(context, "user_registered", slog.String("user_id", user.ID))
	return user, nil
}

// # Authentication Flow

// LoginInput defines credentials for an authentication attempt.
// Username wins when both identity fields are supplied.
type LoginInput struct {
	Username string
	Email    string
	Password string
}

// Identity returns the identity key and value the login is attempted with.
func (input LoginInput) Identity() (IdentityField, string) {
	if input.Username != "" {
		return IdentityUsername, input.Username
	}
	return IdentityEmail, NormalizeEmail(input.Email)
}

/*
Login verifies credentials against the stored hash.

Description: The session itself is established by the caller with the returned
identity key. On success the user cache is warmed so the next request resolves
without touching the store.

Parameters:
  - context: context.Context
  - input: LoginInput

Returns:
  - *User: The authenticated account
  - IdentityField: The identity key the login used
  - error: NotFound (unknown identity), Forbidden (wrong password) or storage errors
*/
func (service *Service) Login(context context.Context, input LoginInput) (*User, IdentityField, error) {
	field, value := input.Identity()

	user, err := service.userRepository.FindBy(context, field, value)
	if err != nil {
		if apperr.IsNotFound(err) {
			return nil, field, apperr.NotFound("User")
		}
		return nil, field, fmt.Errorf("auth_service_login_lookup_failed: %w", err)
	}

	if !service.hasher.Verify(input.Password, user.PasswordHash) {
		ctxutil.GetLogger(context).WarnContext(context, "login_password_mismatch", slog.String("user_id", user.ID))
		return nil, field, apperr.Forbidden("Incorrect password")
	}

	if err := service.userCache.Put(context, user); err != nil {
		ctxutil.GetLogger(context).WarnContext(context, "login_cache_warm_failed", slog.Any("error", err))
	}

	ctxutil.GetLogger(context).InfoContext(context, "user_logged_in",
		slog.String("user_id", user.ID),
		slog.String("identity_key", string(field)),
	)
	return user, field, nil
}

/*
Logout invalidates the cached projection of the session's user.

Parameters:
  - context: context.Context
  - session: *Session (already removed from the session store)

Returns:
  - error: Cache transport failures
*/
func (service *Service) Logout(context context.Context, session *Session) error {
	if err := service.userCache.Delete(context, session.UserID); err != nil {
		return fmt.Errorf("auth_service_logout_failed: %w", err)
	}

	ctxutil.GetLogger(context).InfoContext(context, "user_logged_out", slog.String("user_id", session.UserID))
	return nil
}

// # Credential Management

// ChangePasswordInput carries the old and new plaintext passwords.
type ChangePasswordInput struct {
	OldPassword string
	NewPassword string
}

/*
ChangePassword replaces the password of the current user.

Description: The old password is checked against the hash re-fetched from the
store, never against the cached projection, which carries no hash.

Parameters:
  - context: context.Context
  - current: *User (resolved session user)
  - input: ChangePasswordInput

Returns:
  - *User: The account as persisted after the change
  - error: ValidationError (same or oversized password), Forbidden (old mismatch) or storage errors
*/
func (service *Service) ChangePassword(context context.Context, current *User, input ChangePasswordInput) (*User, error) {
	if input.OldPassword == input.NewPassword {
		return nil, apperr.ValidationError("Please, choose a different password",
			apperr.FieldError{Field: FieldNewPassword, Message: "Must differ from the old password"})
	}

	if err := checkPasswordSize(FieldNewPassword, input.NewPassword); err != nil {
		return nil, err
	}

	stored, err := service.userRepository.FindByID(context, current.ID)
	if err != nil {
		return nil, fmt.Errorf("auth_service_change_password_lookup_failed: %w", err)
	}

	if !service.hasher.Verify(input.OldPassword, stored.PasswordHash) {
		return nil, apperr.Forbidden("Incorrect old password")
	}

	hashedPassword, err := service.hasher.Hash(input.NewPassword)
	if err != nil {
		return nil, fmt.Errorf("auth_service_hash_failed: %w", err)
	}

	updated, err := service.userRepository.Update(context, current.ID, ProfileUpdate{PasswordHash: &hashedPassword})
	if err != nil {
		return nil, fmt.Errorf("auth_service_change_password_failed: %w", err)
	}

	if err := WriteThrough(context, service.userCache, updated); err != nil {
		return nil, err
	}

	ctxutil.GetLogger(context).InfoContext(context, "user_password_changed", slog.String("user_id", updated.ID))
	return updated, nil
}

// checkPasswordSize rejects passwords bcrypt cannot hash, so they surface as
// bad input rather than as a hashing failure.
func checkPasswordSize(field, password string) error {
	if len(password) > MaxPasswordBytes {
		return apperr.ValidationError("Validation failed", apperr.FieldError{
			Field:   field,
			Message: fmt.Sprintf("Maximum %d bytes", MaxPasswordBytes),
		})
	}
	return nil
}
