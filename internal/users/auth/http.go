// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package auth

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/taibuivan/userhub/internal/platform/apperr"
	requestutil "github.com/taibuivan/userhub/internal/platform/request"
	"github.com/taibuivan/userhub/internal/platform/respond"
	"github.com/taibuivan/userhub/internal/platform/validate"
)

// # Definitions & Constructors

// Handler implements authentication-related HTTP endpoints.
//
// # Scope
//
// This handler manages the session lifecycle entry points (registration, login,
// logout) and the credential endpoints of the signed-in user.
type Handler struct {
	authService *Service
	sessions    *SessionManager
}

// NewHandler constructs a new [Handler] with its dependencies.
func NewHandler(service *Service, sessions *SessionManager) *Handler {
	return &Handler{authService: service, sessions: sessions}
}

// RegisterRoutes attaches the authentication endpoints to router.
//
// The router is expected to run [SessionManager.Load] already.
//
// # Endpoints
//   - POST       /register         : Creates a new account.
//   - POST       /login            : Verifies credentials and sets the session cookie.
//   - GET|DELETE /logout           : Clears the session.
//   - GET        /user-information : Returns the signed-in user.
//   - PUT|PATCH  /change-password  : Replaces the password.
func (handler *Handler) RegisterRoutes(router chi.Router) {
	router.Post("/register", handler.register)
	router.Post("/login", handler.login)
	router.Get("/logout", handler.logout)
	router.Delete("/logout", handler.logout)

	router.Get("/user-information", handler.sessions.Require(handler.currentUser))
	router.Put("/change-password", handler.sessions.Require(handler.changePassword))
	router.Patch("/change-password", handler.sessions.Require(handler.changePassword))
}

// # Request Payloads

type registerRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type changePasswordRequest struct {
	OldPassword string `json:"old_password"`
	NewPassword string `json:"new_password"`
}

/*
Register handles the creation of a new user account.

POST /api/user/register

Request:
  - Body: registerRequest (Email, Password)

Response:
  - 201: User: Created user projection
  - 400: Validation failure
  - 409: Email already exists
*/
func (handler *Handler) register(writer http.ResponseWriter, request *http.Request) {
	var input registerRequest

	if err := requestutil.DecodeJSON(writer, request, &input); err != nil {
		respond.Error(writer, request, err)
		return
	}

	validator := &validate.Validator{}
	validator.Required(FieldEmail, input.Email).
		Email(FieldEmail, input.Email).
		MaxLen(FieldEmail, input.Email, MaxEmailLength).
		Required(FieldPassword, input.Password).
		MinLen(FieldPassword, input.Password, MinPasswordLength).
		MaxBytes(FieldPassword, input.Password, MaxPasswordBytes)

	if err := validator.Err(); err != nil {
		respond.Error(writer, request, err)
		return
	}

	user, err := handler.authService.Register(request.Context(), RegisterInput{
		Email:    input.Email,
		Password: input.Password,
	})
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.Created(writer, "User registered successfully!", user)
}

/*
Login authenticates a user and establishes a session.

POST /api/user/login

Description: A failed attempt clears whatever session the request carried. A
successful one always issues a new session id.

Request:
  - Body: loginRequest (Username or Email, Password)

Response:
  - 200: User: Authenticated user projection, session cookie set
  - 400: Validation failure
  - 403: Incorrect password
  - 404: Unknown username or email
*/
func (handler *Handler) login(writer http.ResponseWriter, request *http.Request) {
	var input loginRequest

	if err := requestutil.DecodeJSON(writer, request, &input); err != nil {
		respond.Error(writer, request, err)
		return
	}

	validator := &validate.Validator{}
	validator.Custom(FieldUsername, input.Username == "" && input.Email == "", "Username or Email is required").
		Custom(FieldEmail, input.Username == "" && input.Email == "", "Username or Email is required").
		Required(FieldPassword, input.Password).
		MaxBytes(FieldPassword, input.Password, MaxPasswordBytes)
	if input.Username == "" && input.Email != "" {
		validator.Email(FieldEmail, input.Email).MaxLen(FieldEmail, input.Email, MaxEmailLength)
	}

	if err := validator.Err(); err != nil {
		respond.Error(writer, request, err)
		return
	}

	user, field, err := handler.authService.Login(request.Context(), LoginInput{
		Username: input.Username,
		Email:    input.Email,
		Password: input.Password,
	})
	if err != nil {
		if apperr.IsNotFound(err) || apperr.HasCode(err, apperr.CodeForbidden) {
			if _, clearErr := handler.sessions.Destroy(writer, request); clearErr != nil {
				respond.Error(writer, request, clearErr)
				return
			}
		}
		respond.Error(writer, request, err)
		return
	}

	if err := handler.sessions.Establish(writer, request, user, field); err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, "User login successfully!", user)
}

/*
Logout clears the session unconditionally.

GET|DELETE /api/user/logout

Description: Calling it without a session is not an error; only the message
tells the two cases apart.

Response:
  - 200: Session cleared, or nothing to clear
*/
func (handler *Handler) logout(writer http.ResponseWriter, request *http.Request) {
	session, err := handler.sessions.Destroy(writer, request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	if session == nil {
		respond.OK(writer, "No active session to clear", nil)
		return
	}

	if err := handler.authService.Logout(request.Context(), session); err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, "User logout successfully!", nil)
}

/*
CurrentUser returns the resolved session user.

GET /api/user/user-information

Response:
  - 200: User: Session user projection
  - 401: No resolvable session
*/
func (handler *Handler) currentUser(writer http.ResponseWriter, _ *http.Request, current *User) {
	respond.OK(writer, "User information!", current)
}

/*
ChangePassword replaces the password of the session user.

PUT|PATCH /api/user/change-password

Request:
  - Body: changePasswordRequest (OldPassword, NewPassword)

Response:
  - 200: User: Updated user projection
  - 400: Validation failure or unchanged password
  - 401: No resolvable session
  - 403: Incorrect old password
*/
func (handler *Handler) changePassword(writer http.ResponseWriter, request *http.Request, current *User) {
	var input changePasswordRequest

	if err := requestutil.DecodeJSON(writer, request, &input); err != nil {
		respond.Error(writer, request, err)
		return
	}

	validator := &validate.Validator{}
	validator.Required(FieldOldPassword, input.OldPassword).
		MaxBytes(FieldOldPassword, input.OldPassword, MaxPasswordBytes).
		Required(FieldNewPassword, input.NewPassword).
		MinLen(FieldNewPassword, input.NewPassword, MinPasswordLength).
		MaxBytes(FieldNewPassword, input.NewPassword, MaxPasswordBytes)

	if err := validator.Err(); err != nil {
		respond.Error(writer, request, err)
		return
	}

	user, err := handler.authService.ChangePassword(request.Context(), current, ChangePasswordInput{
		OldPassword: input.OldPassword,
		NewPassword: input.NewPassword,
	})
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, "Password changed successfully!", user)
}
