// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package account

import (
	"errors"
	"log/slog"
	"net/http"
	"regexp"

	"github.com/go-chi/chi/v5"

	"github.com/taibuivan/userhub/internal/platform/constants"
	"github.com/taibuivan/userhub/internal/platform/ctxutil"
	"github.com/taibuivan/userhub/internal/platform/media"
	requestutil "github.com/taibuivan/userhub/internal/platform/request"
	"github.com/taibuivan/userhub/internal/platform/respond"
	"github.com/taibuivan/userhub/internal/platform/validate"
	"github.com/taibuivan/userhub/internal/users/auth"
)

// usernamePattern allows 3 to 15 lowercase letters, digits, '_' and '-', not
// starting or ending with '_' or '-'.
var usernamePattern = regexp.MustCompile(`^[a-z0-9][a-z0-9_-]{1,13}[a-z0-9]$`)

// Field names of the profile payload.
const (
	fieldName   = "name"
	fieldGender = "gender"
	fieldBio    = "bio"
)

// Handler implements the HTTP layer for profile management.
type Handler struct {
	accountService *Service
	sessions       *auth.SessionManager
	maxImageBytes  int64
}

// NewHandler constructs a new account [Handler].
func NewHandler(service *Service, sessions *auth.SessionManager, maxImageBytes int64) *Handler {
	if maxImageBytes <= 0 {
		maxImageBytes = constants.DefaultMaxImageBytes
	}
	return &Handler{accountService: service, sessions: sessions, maxImageBytes: maxImageBytes}
}

// RegisterRoutes attaches the profile endpoints to router. All of them require
// a resolved session.
func (handler *Handler) RegisterRoutes(router chi.Router) {
	router.Put("/update-profile", handler.sessions.Require(handler.updateProfile))
	router.Patch("/update-profile", handler.sessions.Require(handler.updateProfile))
	router.Put("/update-image", handler.sessions.Require(handler.updateImage))
	router.Patch("/update-image", handler.sessions.Require(handler.updateImage))
	router.Delete("/delete-image", handler.sessions.Require(handler.deleteImage))
	router.Delete("/delete-account", handler.sessions.Require(handler.deleteAccount))
}

// # User Profile Endpoints

type updateProfileRequest struct {
	Name     *string `json:"name"`
	Username *string `json:"username"`
	Gender   *string `json:"gender"`
	Bio      *string `json:"bio"`
}

/*
PUT|PATCH /api/user/update-profile.

Description: Partially updates the profile. Omitted fields keep their value.

Request:
  - Body: updateProfileRequest

Response:
  - 200: User: Updated profile
  - 400: Validation failure
  - 401: No resolvable session
  - 409: Username already exists
*/
func (handler *Handler) updateProfile(writer http.ResponseWriter, request *http.Request, current *auth.User) {
	var input updateProfileRequest

	if err := requestutil.DecodeJSON(writer, request, &input); err != nil {
		respond.Error(writer, request, err)
		return
	}

	validator := &validate.Validator{}
	if input.Name != nil {
		validator.MinLen(fieldName, *input.Name, 3).MaxLen(fieldName, *input.Name, 30)
	}
	if input.Username != nil {
		validator.Matches(auth.FieldUsername, *input.Username, usernamePattern,
			"Only small letters, numbers, hyphen and underscores are allowed, 3 to 15 characters")
	}
	if input.Gender != nil {
		validator.OneOf(fieldGender, *input.Gender, auth.GenderMale, auth.GenderFemale, auth.GenderOther)
	}
	if input.Bio != nil {
		validator.MaxLen(fieldBio, *input.Bio, 50)
	}

	if err := validator.Err(); err != nil {
		respond.Error(writer, request, err)
		return
	}

	user, err := handler.accountService.UpdateProfile(request.Context(), current, UpdateProfileInput{
		Name:     input.Name,
		Username: input.Username,
		Gender:   input.Gender,
		Bio:      input.Bio,
	})
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	if err := handler.sessions.Rebind(request.Context(), user); err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, "Profile updated successfully!", user)
}

/*
PUT|PATCH /api/user/update-image.

Request:
  - Body: multipart/form-data with an "image" file (JPEG, PNG, GIF or WebP)

Response:
  - 200: User: Profile with the new image URL
  - 400: Missing, oversized or unsupported file
  - 401: No resolvable session
*/
func (handler *Handler) updateImage(writer http.ResponseWriter, request *http.Request, current *auth.User) {
	file, header, err := requestutil.FormFile(writer, request, constants.ImageFormField, handler.maxImageBytes)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}
	defer file.Close()

	upload, err := media.Inspect(file, header.Size)
	if err != nil {
		if errors.Is(err, media.ErrNotImage) {
			respond.Error(writer, request, validate.RequiredError(constants.ImageFormField, "Must be a JPEG, PNG, GIF or WebP image"))
			return
		}
		respond.Error(writer, request, err)
		return
	}

	user, err := handler.accountService.UpdateImage(request.Context(), current, upload)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, "Image updated successfully!", user)
}

/*
DELETE /api/user/delete-image.

Response:
  - 200: User: Profile without image
  - 401: No resolvable session
  - 404: No image to delete
  - 500: The image host refused the delete; the reference is kept
*/
func (handler *Handler) deleteImage(writer http.ResponseWriter, request *http.Request, current *auth.User) {
	user, err := handler.accountService.DeleteImage(request.Context(), current)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, "Image deleted successfully!", user)
}

// # Account Lifecycle Endpoints

/*
DELETE /api/user/delete-account.

Description: Deletes the account and ends the current session.

Response:
  - 200: Account deleted
  - 401: No resolvable session
*/
func (handler *Handler) deleteAccount(writer http.ResponseWriter, request *http.Request, current *auth.User) {
	if err := handler.accountService.DeleteAccount(request.Context(), current); err != nil {
		respond.Error(writer, request, err)
		return
	}

	if _, err := handler.sessions.Destroy(writer, request); err != nil {
		// The account is already gone; a leftover session can no longer resolve.
		ctxutil.GetLogger(request.Context()).WarnContext(request.Context(), "account_session_destroy_failed", slog.Any("error", err))
	}

	respond.OK(writer, "Account deleted successfully!", nil)
}
