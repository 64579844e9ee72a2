// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package account handles profile management of the signed-in user.

It lets users complete and edit their public identity, manage their avatar on
the external image host, and delete their account.

# Architecture

  - Domain: This package depends on the auth package for the User entity, the
    user store and the user cache.
  - Consistency: Every store write is followed by a write-through of the cached
    projection, never preceded by one.
*/
package account

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/taibuivan/userhub/internal/platform/apperr"
	"github.com/taibuivan/userhub/internal/platform/constants"
	"github.com/taibuivan/userhub/internal/platform/ctxutil"
	"github.com/taibuivan/userhub/internal/platform/media"
	"github.com/taibuivan/userhub/internal/users/auth"
	"github.com/taibuivan/userhub/pkg/pointer"
)

// # Service Layer

// Service orchestrates business logic for user profiles.
type Service struct {
	userRepository auth.UserRepository
	userCache      auth.UserCache
	imageHost      media.Host
}

// NewService constructs a new [Service] with its dependencies.
func NewService(userRepo auth.UserRepository, userCache auth.UserCache, imageHost media.Host) *Service {
	return &Service{
		userRepository: userRepo,
		userCache:      userCache,
		imageHost:      imageHost,
	}
}

// # Profile Management

// UpdateProfileInput defines the mutable subset of user profile fields.
// Nil fields are left untouched.
type UpdateProfileInput struct {
	Name     *string
	Username *string
	Gender   *string
	Bio      *string
}

/*
UpdateProfile applies a partial set of changes to the signed-in user's profile.

Description: A username owned by another account is rejected before any write.
The setup flag is recomputed from the merged profile. A concurrent claim of the
same username that slips past the pre-check is stopped by the unique constraint
and surfaces as the same Conflict.

Parameters:
  - context: context.Context
  - current: *auth.User (resolved session user)
  - input: UpdateProfileInput

Returns:
  - *auth.User: The profile as persisted
  - error: Conflict (username taken), NotFound or storage errors
*/
func (service *Service) UpdateProfile(context context.Context, current *auth.User, input UpdateProfileInput) (*auth.User, error) {
	if input.Username != nil {
		owner, err := service.userRepository.FindBy(context, auth.IdentityUsername, *input.Username)
		switch {
		case err == nil && owner.ID != current.ID:
			return nil, apperr.Conflict("Username already exists")
		case err != nil && !apperr.IsNotFound(err):
			return nil, fmt.Errorf("account_service_username_lookup_failed: %w", err)
		}
	}

	update := auth.ProfileUpdate{
		Name:     input.Name,
		Username: input.Username,
		Gender:   input.Gender,
		Bio:      input.Bio,
	}

	merged := update.Merge(*current)
	update.Setup = pointer.To(merged.Complete())

	return service.apply(context, current.ID, update, "account_service_update_profile_failed")
}

// # Avatar Management

/*
UpdateImage replaces the avatar of the signed-in user.

Description: The previous image is deleted from the host first on a best-effort
basis. A failed delete only leaves a dangling remote object behind and does not
stop the upload.

Parameters:
  - context: context.Context
  - current: *auth.User
  - upload: media.Upload (already sniffed)

Returns:
  - *auth.User: The profile with the new image URL
  - error: Upload or storage errors
*/
func (service *Service) UpdateImage(context context.Context, current *auth.User, upload media.Upload) (*auth.User, error) {
	logger := ctxutil.GetLogger(context)

	if current.HasImage() {
		if key, ok := media.KeyFromURL(*current.Image); ok {
			if err := service.imageHost.Delete(context, key); err != nil {
				logger.WarnContext(context, "account_old_image_delete_failed",
					slog.String("key", key),
					slog.Any("error", err),
				)
			}
		}
	}

	asset, err := service.imageHost.Upload(context, constants.ImageFolder, upload)
	if err != nil {
		return nil, apperr.Unexpected("Image upload failed", fmt.Errorf("account_service_image_upload_failed: %w", err))
	}

	updated, err := service.apply(context, current.ID, auth.ProfileUpdate{Image: &asset.URL}, "account_service_update_image_failed")
	if err != nil {
		// The reference was never stored, so the fresh object is orphaned.
		if deleteErr := service.imageHost.Delete(context, asset.Key); deleteErr != nil {
			logger.WarnContext(context, "account_orphan_image_delete_failed",
				slog.String("key", asset.Key),
				slog.Any("error", deleteErr),
			)
		}
		return nil, err
	}

	logger.InfoContext(context, "user_image_updated", slog.String("key", asset.Key))
	return updated, nil
}

/*
DeleteImage removes the avatar of the signed-in user.

Description: The stored reference is cleared only after the host confirms the
delete. An image URL that does not point at our host carries no object to
delete, so its reference is simply cleared.

Parameters:
  - context: context.Context
  - current: *auth.User

Returns:
  - *auth.User: The profile without image
  - error: NotFound (no image), Unexpected (host delete failed) or storage errors
*/
func (service *Service) DeleteImage(context context.Context, current *auth.User) (*auth.User, error) {
	if !current.HasImage() {
		return nil, apperr.NotFound("Image")
	}

	if key, ok := media.KeyFromURL(*current.Image); ok {
		if err := service.imageHost.Delete(context, key); err != nil {
			return nil, apperr.Unexpected("Image could not be deleted", fmt.Errorf("account_service_image_delete_failed: %w", err))
		}
	}

	return service.apply(context, current.ID, auth.ProfileUpdate{ClearImage: true}, "account_service_delete_image_failed")
}

// # Account Lifecycle

/*
DeleteAccount permanently removes the signed-in user.

Description: The avatar is deleted best-effort, then the row, then the cached
projection. Sessions on other devices stop resolving once the row is gone.

Parameters:
  - context: context.Context
  - current: *auth.User

Returns:
  - error: Storage or cache failures
*/
func (service *Service) DeleteAccount(context context.Context, current *auth.User) error {
	logger := ctxutil.GetLogger(context)

	if current.HasImage() {
		if key, ok := media.KeyFromURL(*current.Image); ok {
			if err := service.imageHost.Delete(context, key); err != nil {
				logger.WarnContext(context, "account_image_delete_failed", slog.String("key", key), slog.Any("error", err))
			}
		}
	}

	if err := service.userRepository.Delete(context, current.ID); err != nil {
		return fmt.Errorf("account_service_delete_failed: %w", err)
	}

	if err := service.userCache.Delete(context, current.ID); err != nil {
		return apperr.Internal(fmt.Errorf("account_service_cache_evict_failed: %w", err))
	}

	logger.InfoContext(context, "user_account_deleted", slog.String("user_id", current.ID))
	return nil
}

// apply writes update to the store and, once confirmed, through to the cache.
func (service *Service) apply(context context.Context, userID string, update auth.ProfileUpdate, failure string) (*auth.User, error) {
	updated, err := service.userRepository.Update(context, userID, update)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", failure, err)
	}

	if err := auth.WriteThrough(context, service.userCache, updated); err != nil {
		return nil, err
	}

	return updated, nil
}
