// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package auth provides the HTTP delivery layer for token issuance.

# Architecture

The handler is a thin mediation layer: it decodes JSON, hands the request to
[Service] and maps the result onto the standard envelope. All three endpoints
are public; possession of a password or refresh token is the credential.
*/
package auth

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	requestutil "github.com/TimGrootscholten/tournaments-server/internal/platform/request"
	"github.com/TimGrootscholten/tournaments-server/internal/platform/respond"
)

// # Definitions & Constructors

// Handler implements the token endpoints.
type Handler struct {
	authService *Service
}

// NewHandler constructs a new [Handler] with its service dependency.
func NewHandler(service *Service) *Handler {
	return &Handler{authService: service}
}

// Routes returns a [chi.Router] configured with the token endpoints.
//
// # Endpoints
//   - POST /token   : Password login.
//   - POST /refresh : Refresh token rotation.
//   - POST /revoke  : Drops the client's grant.
func (handler *Handler) Routes() chi.Router {
	router := chi.NewRouter()

	router.Post("/token", handler.token)
	router.Post("/refresh", handler.refresh)
	router.Post("/revoke", handler.revoke)

	return router
}

// # Request Payloads

type tokenRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
	ClientID string `json:"client_id"`
}

type refreshRequest struct {
	ClientID     string `json:"client_id"`
	RefreshToken string `json:"refresh_token"`
}

/*
POST /api/v1/auth/token

Description: Verifies the password and issues an access token plus a refresh
token bound to client_id.

Response:
  - 200: AuthResponse
  - 400: ErrValidation: Missing fields
  - 401: ErrUnauthorized: Invalid login credentials
*/
func (handler *Handler) token(writer http.ResponseWriter, request *http.Request) {
	var input tokenRequest
	if err := requestutil.DecodeJSON(writer, request, &input); err != nil {
		respond.Error(writer, request, err)
		return
	}

	response, err := handler.authService.Authenticate(request.Context(), AuthenticateInput{
		Username: input.Username,
		Password: input.Password,
		ClientID: input.ClientID,
	})
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	writer.Header().Set("Cache-Control", "no-store")
	respond.OK(writer, response)
}

/*
POST /api/v1/auth/refresh

Description: Rotates the client's refresh token and issues a new pair. The
presented token stops working immediately.

Response:
  - 200: AuthResponse
  - 400: ErrValidation: Missing fields
  - 401: ErrUnauthorized: Invalid, expired or replayed refresh token
*/
func (handler *Handler) refresh(writer http.ResponseWriter, request *http.Request) {
	var input refreshRequest
	if err := requestutil.DecodeJSON(writer, request, &input); err != nil {
		respond.Error(writer, request, err)
		return
	}

	response, err := handler.authService.Refresh(request.Context(), input.ClientID, input.RefreshToken)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	writer.Header().Set("Cache-Control", "no-store")
	respond.OK(writer, response)
}

/*
POST /api/v1/auth/revoke

Description: Deletes the client's grant when the presented refresh token is
current. Unknown grants also answer 204.

Response:
  - 204: No Content
  - 400: ErrValidation: Missing fields
*/
func (handler *Handler) revoke(writer http.ResponseWriter, request *http.Request) {
	var input refreshRequest
	if err := requestutil.DecodeJSON(writer, request, &input); err != nil {
		respond.Error(writer, request, err)
		return
	}

	if err := handler.authService.Revoke(request.Context(), input.ClientID, input.RefreshToken); err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.NoContent(writer)
}
