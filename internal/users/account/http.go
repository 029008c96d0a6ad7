// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package account provides the HTTP delivery layer for user account management.

# Security

Registration and the username availability probe are public. Reading or
editing an account requires the owner's token or the permission admin scope;
changing group membership always requires the admin scope.
*/
package account

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/TimGrootscholten/tournaments-server/internal/platform/apperr"
	"github.com/TimGrootscholten/tournaments-server/internal/platform/middleware"
	requestutil "github.com/TimGrootscholten/tournaments-server/internal/platform/request"
	"github.com/TimGrootscholten/tournaments-server/internal/platform/respond"
	"github.com/TimGrootscholten/tournaments-server/internal/platform/sec"
	"github.com/TimGrootscholten/tournaments-server/internal/platform/validate"
	"github.com/TimGrootscholten/tournaments-server/pkg/pagination"
	"github.com/TimGrootscholten/tournaments-server/pkg/query"
)

// Handler implements the HTTP layer for user account management.
type Handler struct {
	accountService *Service
	adminScope     sec.Scope
}

// NewHandler constructs a new account [Handler].
func NewHandler(service *Service, adminScope sec.Scope) *Handler {
	return &Handler{accountService: service, adminScope: adminScope}
}

// Routes returns a [chi.Router] configured with the account domain's endpoints.
//
// The router expects [middleware.Authenticate] to run upstream.
func (handler *Handler) Routes() chi.Router {
	router := chi.NewRouter()

	// Public
	router.Post("/", handler.createUser)
	router.Get("/unique", handler.isUsernameUnique)

	// Owner or admin
	router.Group(func(r chi.Router) {
		r.Use(middleware.RequireAuth)
		r.Get("/{id}", handler.getUser)
		r.Put("/{id}", handler.updateUser)
	})

	// Admin only
	router.Group(func(r chi.Router) {
		r.Use(middleware.RequireScope(handler.adminScope))
		r.Get("/", handler.listUsers)
		r.Put("/{id}/permission-groups", handler.setPermissionGroups)
	})

	return router
}

// authorizeOwner allows the account owner or a permission admin.
func (handler *Handler) authorizeOwner(request *http.Request, userID string) error {
	claims, err := requestutil.RequiredClaims(request)
	if err != nil {
		return err
	}
	if claims.UserID() != userID && !claims.HasScope(handler.adminScope) {
		return apperr.Forbidden("You may only access your own account")
	}
	return nil
}

// # Registration Endpoints

// createUserRequest defines the expected JSON payload for registration.
type createUserRequest struct {
	Username  string `json:"username"`
	Password  string `json:"password"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Email     string `json:"email"`
}

/*
POST /api/v1/users.

Description: Registers a new account in the default permission group.

Request:
  - body: createUserRequest

Response:
  - 201: User: The created account (without password digest)
  - 400: ErrValidation: Invalid input data
  - 409: ErrConflict: Username is not unique
*/
func (handler *Handler) createUser(writer http.ResponseWriter, request *http.Request) {
	var input createUserRequest
	if err := requestutil.DecodeJSON(writer, request, &input); err != nil {
		respond.Error(writer, request, err)
		return
	}

	user, err := handler.accountService.CreateUser(request.Context(), CreateUserInput{
		Username:  input.Username,
		Password:  input.Password,
		FirstName: input.FirstName,
		LastName:  input.LastName,
		Email:     input.Email,
	})
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.Created(writer, user)
}

// uniqueResponse reports username availability.
type uniqueResponse struct {
	Unique bool `json:"unique"`
}

/*
GET /api/v1/users/unique?username=.

Response:
  - 200: uniqueResponse
  - 400: ErrValidation: Missing username
*/
func (handler *Handler) isUsernameUnique(writer http.ResponseWriter, request *http.Request) {
	username := request.URL.Query().Get(FieldUsername)

	if err := (&validate.Validator{}).Required(FieldUsername, username).Err(); err != nil {
		respond.Error(writer, request, err)
		return
	}

	unique, err := handler.accountService.IsUsernameUnique(request.Context(), username)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, uniqueResponse{Unique: unique})
}

// # Profile Endpoints

/*
GET /api/v1/users/{id}.

Response:
  - 200: UserInfo: Account with its permission groups
  - 403: ErrForbidden: Not the owner and not an admin
  - 404: ErrNotFound: Unknown account
*/
func (handler *Handler) getUser(writer http.ResponseWriter, request *http.Request) {
	userID, err := requestutil.PathUUID(request, "id")
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	if err := handler.authorizeOwner(request, userID); err != nil {
		respond.Error(writer, request, err)
		return
	}

	user, err := handler.accountService.GetUserByID(request.Context(), userID)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, user)
}

// updateUserRequest defines the expected JSON payload for profile updates.
type updateUserRequest struct {
	Username  *string `json:"username"`
	FirstName *string `json:"first_name"`
	LastName  *string `json:"last_name"`
	Email     *string `json:"email"`
}

/*
PUT /api/v1/users/{id}.

Description: Applies partial updates to an account. Omitted fields are kept.

Response:
  - 200: User: The updated account
  - 400: ErrValidation: Invalid input data
  - 403: ErrForbidden: Not the owner and not an admin
  - 409: ErrConflict: Username is not unique
*/
func (handler *Handler) updateUser(writer http.ResponseWriter, request *http.Request) {
	userID, err := requestutil.PathUUID(request, "id")
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	if err := handler.authorizeOwner(request, userID); err != nil {
		respond.Error(writer, request, err)
		return
	}

	var input updateUserRequest
	if err := requestutil.DecodeJSON(writer, request, &input); err != nil {
		respond.Error(writer, request, err)
		return
	}

	user, err := handler.accountService.UpdateUser(request.Context(), userID, UpdateUserInput{
		Username:  input.Username,
		FirstName: input.FirstName,
		LastName:  input.LastName,
		Email:     input.Email,
	})
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, user)
}

// # Permission Group Endpoints

// setPermissionGroupsRequest is the full replacement set of group ids.
type setPermissionGroupsRequest struct {
	GroupIDs []string `json:"group_ids"`
}

/*
PUT /api/v1/users/{id}/permission-groups.

Description: Replaces the account's permission groups. Requires the admin scope.

Response:
  - 204: No Content
  - 400: ErrValidation: Malformed group ids
  - 403: ErrForbidden: Missing admin scope
  - 404: ErrNotFound: Unknown account or group
*/
func (handler *Handler) setPermissionGroups(writer http.ResponseWriter, request *http.Request) {
	userID, err := requestutil.PathUUID(request, "id")
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	var input setPermissionGroupsRequest
	if err := requestutil.DecodeJSON(writer, request, &input); err != nil {
		respond.Error(writer, request, err)
		return
	}

	if err := (&validate.Validator{}).UUIDs(FieldGroupIDs, input.GroupIDs).Err(); err != nil {
		respond.Error(writer, request, err)
		return
	}

	if err := handler.accountService.AddPermissionGroups(request.Context(), userID, input.GroupIDs); err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.NoContent(writer)
}

/*
GET /api/v1/users

Description: Lists accounts ordered by username. Accepts page, limit and
group_id (repeated or comma separated) query parameters.

Response:
  - 200: []User with pagination meta
  - 400: ErrValidation: Malformed group id
  - 403: ErrForbidden: Missing admin scope
*/
func (handler *Handler) listUsers(writer http.ResponseWriter, request *http.Request) {
	values := request.URL.Query()
	page := pagination.FromQuery(values)
	filter := Filter{GroupIDs: query.StringSlice(values["group_id"])}

	users, meta, err := handler.accountService.ListUsers(request.Context(), filter, page)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.Paginated(writer, users, meta)
}
