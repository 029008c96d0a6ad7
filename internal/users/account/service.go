// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package account

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/TimGrootscholten/tournaments-server/internal/platform/apperr"
	"github.com/TimGrootscholten/tournaments-server/internal/platform/sec"
	"github.com/TimGrootscholten/tournaments-server/internal/platform/validate"
	"github.com/TimGrootscholten/tournaments-server/internal/users/permission"
	"github.com/TimGrootscholten/tournaments-server/pkg/pagination"
	"github.com/TimGrootscholten/tournaments-server/pkg/slice"
	"github.com/TimGrootscholten/tournaments-server/pkg/uuidv7"
)

// GroupResolver resolves permission group ids into groups.
type GroupResolver interface {
	GetPermissionGroupsByIDs(context context.Context, ids []string) ([]*permission.Group, error)
}

// GrantRevoker drops the refresh grants issued under a username.
type GrantRevoker interface {
	DeleteUserGrants(context context.Context, username string) (int64, error)
}

// # Service Layer

// Service orchestrates account creation, profile updates and group membership.
type Service struct {
	userRepository UserRepository
	groups         GroupResolver
	grants         GrantRevoker
	hasher         *sec.PasswordHasher
	defaultGroupID string
	logger         *slog.Logger
}

// NewService constructs a new [Service].
//
// defaultGroupID is attached to every new account. grants may be nil when no
// refresh grants are kept.
func NewService(
	userRepo UserRepository,
	groups GroupResolver,
	grants GrantRevoker,
	hasher *sec.PasswordHasher,
	defaultGroupID string,
	logger *slog.Logger,
) *Service {
	return &Service{
		userRepository: userRepo,
		groups:         groups,
		grants:         grants,
		hasher:         hasher,
		defaultGroupID: defaultGroupID,
		logger:         logger,
	}
}

// # Account Creation

// CreateUserInput carries the fields required to open an account.
type CreateUserInput struct {
	Username  string
	Password  string
	FirstName string
	LastName  string
	Email     string
}

func (input CreateUserInput) validate() error {
	v := &validate.Validator{}
	v.Required(FieldUsername, strings.TrimSpace(input.Username)).
		MaxLen(FieldUsername, input.Username, MaxUsernameLength).
		Printable(FieldUsername, input.Username).
		Required(FieldPassword, input.Password).
		MinLen(FieldPassword, input.Password, MinPasswordLength).
		MaxBytes(FieldPassword, input.Password, MaxPasswordLength).
		MaxLen(FieldFirstName, input.FirstName, MaxNameLength).
		MaxLen(FieldLastName, input.LastName, MaxNameLength)

	if input.Email != "" {
		v.Email(FieldEmail, input.Email)
	}

	return v.Err()
}

/*
CreateUser opens a new account.

Description: Rejects a taken username before paying for the bcrypt hash, then
relies on the store to enforce uniqueness at write time. Every new account
joins the configured default permission group.

Parameters:
  - context: context.Context
  - input: CreateUserInput

Returns:
  - *User: The persisted account
  - error: Validation, ErrUsernameTaken or storage failures
*/
func (service *Service) CreateUser(context context.Context, input CreateUserInput) (*User, error) {
	if err := input.validate(); err != nil {
		return nil, err
	}

	username := strings.TrimSpace(input.Username)

	unique, err := service.userRepository.IsUsernameUnique(context, username)
	if err != nil {
		return nil, fmt.Errorf("account_service_unique_check_failed: %w", err)
	}
	if !unique {
		return nil, ErrUsernameTaken
	}

	passwordHash, err := service.hasher.Hash(input.Password)
	if err != nil {
		return nil, apperr.Internal(fmt.Errorf("account_service_hash_failed: %w", err))
	}

	user := &User{
		ID:                 uuidv7.New(),
		Username:           username,
		PasswordHash:       passwordHash,
		FirstName:          input.FirstName,
		LastName:           input.LastName,
		Email:              input.Email,
		PermissionGroupIDs: []string{service.defaultGroupID},
	}

	if err := service.userRepository.Create(context, user); err != nil {
		return nil, fmt.Errorf("account_service_create_failed: %w", err)
	}

	service.logger.Info("user_created", slog.String("user_id", user.ID))

	return user, nil
}

/*
IsUsernameUnique reports whether a username is still available.

Parameters:
  - context: context.Context
  - username: string

Returns:
  - bool: true if no account uses the case-folded name
  - error: Storage failures
*/
func (service *Service) IsUsernameUnique(context context.Context, username string) (bool, error) {
	unique, err := service.userRepository.IsUsernameUnique(context, strings.TrimSpace(username))
	if err != nil {
		return false, fmt.Errorf("account_service_unique_check_failed: %w", err)
	}
	return unique, nil
}

// # Profile Management

/*
GetUserByID returns the account with its permission groups resolved.

Parameters:
  - context: context.Context
  - id: string

Returns:
  - *UserInfo: Read model without credentials
  - error: apperr.NotFound or storage failures
*/
func (service *Service) GetUserByID(context context.Context, id string) (*UserInfo, error) {
	user, err := service.userRepository.FindByID(context, id)
	if err != nil {
		return nil, fmt.Errorf("account_service_get_user_failed: %w", err)
	}

	groups, err := service.groups.GetPermissionGroupsByIDs(context, user.PermissionGroupIDs)
	if err != nil {
		return nil, fmt.Errorf("account_service_get_user_groups_failed: %w", err)
	}

	return &UserInfo{
		ID:               user.ID,
		Username:         user.Username,
		FirstName:        user.FirstName,
		LastName:         user.LastName,
		Email:            user.Email,
		PermissionGroups: groups,
		CreatedAt:        user.CreatedAt,
		UpdatedAt:        user.UpdatedAt,
	}, nil
}

// UpdateUserInput defines the mutable subset of account fields. Nil fields are left unchanged.
type UpdateUserInput struct {
	Username  *string
	FirstName *string
	LastName  *string
	Email     *string
}

/*
UpdateUser applies a partial set of changes to an account.

Description: A rename to a name that only differs in case from the current
one is allowed; a rename onto another account's name is a conflict. Any
change to the username drops the refresh grants issued under the old one
before the rename is written; if that fails the account keeps its name.

Parameters:
  - context: context.Context
  - id: string
  - input: UpdateUserInput

Returns:
  - *User: The updated account
  - error: Validation, apperr.NotFound, ErrUsernameTaken or storage failures
*/
func (service *Service) UpdateUser(context context.Context, id string, input UpdateUserInput) (*User, error) {
	user, err := service.userRepository.FindByID(context, id)
	if err != nil {
		return nil, fmt.Errorf("account_service_update_lookup_failed: %w", err)
	}

	v := &validate.Validator{}
	previousUsername := user.Username

	if input.Username != nil {
		username := strings.TrimSpace(*input.Username)
		v.Required(FieldUsername, username).
			MaxLen(FieldUsername, username, MaxUsernameLength).
			Printable(FieldUsername, username)

		if username != "" && NormalizeUsername(username) != NormalizeUsername(user.Username) {
			unique, err := service.userRepository.IsUsernameUnique(context, username)
			if err != nil {
				return nil, fmt.Errorf("account_service_unique_check_failed: %w", err)
			}
			if !unique {
				return nil, ErrUsernameTaken
			}
		}
		user.Username = username
	}

	if input.FirstName != nil {
		v.MaxLen(FieldFirstName, *input.FirstName, MaxNameLength)
		user.FirstName = *input.FirstName
	}

	if input.LastName != nil {
		v.MaxLen(FieldLastName, *input.LastName, MaxNameLength)
		user.LastName = *input.LastName
	}

	if input.Email != nil {
		if *input.Email != "" {
			v.Email(FieldEmail, *input.Email)
		}
		user.Email = *input.Email
	}

	if err := v.Err(); err != nil {
		return nil, err
	}

	renamed := user.Username != previousUsername && service.grants != nil

	// Grants go first: a failed revoke aborts the rename, a failed update only
	// costs a fresh login.
	if renamed {
		removed, err := service.grants.DeleteUserGrants(context, previousUsername)
		if err != nil {
			return nil, fmt.Errorf("account_service_revoke_grants_failed: %w", err)
		}
		service.logger.InfoContext(context, "user_grants_revoked_on_rename",
			slog.String("user_id", user.ID),
			slog.Int64("removed", removed),
		)
	}

	if err := service.userRepository.Update(context, user); err != nil {
		return nil, fmt.Errorf("account_service_update_failed: %w", err)
	}

	// A login under the old name may have landed between the revoke and the update.
	if renamed {
		if _, err := service.grants.DeleteUserGrants(context, previousUsername); err != nil {
			service.logger.WarnContext(context, "user_grants_sweep_failed",
				slog.String("user_id", user.ID),
				slog.Any("error", err),
			)
		}
	}

	service.logger.InfoContext(context, "user_updated", slog.String("user_id", user.ID))

	return user, nil
}

// # Listing

/*
ListUsers returns one page of accounts, optionally filtered by group.

Parameters:
  - context: context.Context
  - filter: Filter
  - page: pagination.Params

Returns:
  - []*User: Accounts on the page
  - pagination.Meta: Page metadata
  - error: Validation or storage failures
*/
func (service *Service) ListUsers(context context.Context, filter Filter, page pagination.Params) ([]*User, pagination.Meta, error) {
	if err := (&validate.Validator{}).UUIDs(FieldGroupIDs, filter.GroupIDs).Err(); err != nil {
		return nil, pagination.Meta{}, err
	}

	users, total, err := service.userRepository.List(context, filter, page.Limit, page.Offset())
	if err != nil {
		return nil, pagination.Meta{}, fmt.Errorf("account_service_list_failed: %w", err)
	}

	return users, pagination.NewMeta(page, total), nil
}

// # Permission Groups

/*
AddPermissionGroups replaces the account's group memberships.

Description: Every id must resolve to an existing group; the memberships are
only written once the whole set is known to be valid.

Parameters:
  - context: context.Context
  - userID: string
  - groupIDs: []string

Returns:
  - error: apperr.NotFound for an unknown user or group
*/
func (service *Service) AddPermissionGroups(context context.Context, userID string, groupIDs []string) error {
	groups, err := service.groups.GetPermissionGroupsByIDs(context, groupIDs)
	if err != nil {
		return fmt.Errorf("account_service_resolve_groups_failed: %w", err)
	}

	ids := slice.Map(groups, func(group *permission.Group) string { return group.ID })

	if err := service.userRepository.SetPermissionGroups(context, userID, ids); err != nil {
		return fmt.Errorf("account_service_set_groups_failed: %w", err)
	}

	service.logger.Info("user_permission_groups_replaced",
		slog.String("user_id", userID),
		slog.Int("group_count", len(ids)),
	)

	return nil
}
