// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package account manages user credentials and identity data.

It owns the users.account rows: creation with a unique, case-insensitive
username and a bcrypt password digest, profile updates, and permission group
membership.

# Architecture

  - Entities: User, UserInfo (User plus resolved permission groups).
  - Domain: Group lookups are delegated to the permission package.
  - Security: Password digests never leave this package in JSON form.
*/
package account

import (
	"context"
	"strings"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"

	"github.com/TimGrootscholten/tournaments-server/internal/users/permission"
)

// # Domain Entities

// User is a credential-bearing account.
type User struct {
	ID           string `json:"id"`
	Username     string `json:"username"`
	PasswordHash string `json:"-"`
	FirstName    string `json:"first_name"`
	LastName     string `json:"last_name"`
	Email        string `json:"email"`

	// PermissionGroupIDs lists the groups the user belongs to, in no particular order.
	PermissionGroupIDs []string `json:"permission_group_ids"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// UserInfo is the read model returned by user lookups.
type UserInfo struct {
	ID               string              `json:"id"`
	Username         string              `json:"username"`
	FirstName        string              `json:"first_name"`
	LastName         string              `json:"last_name"`
	Email            string              `json:"email"`
	PermissionGroups []*permission.Group `json:"permission_groups"`
	CreatedAt        time.Time           `json:"created_at"`
	UpdatedAt        time.Time           `json:"updated_at"`
}

// NormalizeUsername returns the comparison key for a username.
//
// Usernames are unique under Unicode case folding, so "Alice" and "ALICE" are
// the same account. The display form is stored untouched.
func NormalizeUsername(username string) string {
	// A Caser is stateful; one per call keeps this safe for concurrent use.
	return norm.NFC.String(cases.Fold().String(norm.NFC.String(strings.TrimSpace(username))))
}

// # Repository Contracts

// UserRepository defines the persistence contract for user accounts.
type UserRepository interface {

	/*
		FindByUsername retrieves a user by username, compared case-insensitively.

		Parameters:
		  - context: context.Context
		  - username: string

		Returns:
		  - *User: Loaded account including group ids
		  - error: apperr.NotFound or storage failures
	*/
	FindByUsername(context context.Context, username string) (*User, error)

	/*
		FindByID retrieves a user record by its unique ID.

		Parameters:
		  - context: context.Context
		  - id: string (UUID)

		Returns:
		  - *User: Loaded account including group ids
		  - error: apperr.NotFound or storage failures
	*/
	FindByID(context context.Context, id string) (*User, error)

	/*
		IsUsernameUnique reports whether no account uses the username.

		Parameters:
		  - context: context.Context
		  - username: string

		Returns:
		  - bool: true when the normalised name is free
		  - error: Storage failures
	*/
	IsUsernameUnique(context context.Context, username string) (bool, error)

	/*
		Create persists a new account and its initial group memberships.

		Description: Enforces username uniqueness at write time, so a caller
		that lost a race after pre-checking still receives a conflict.

		Parameters:
		  - context: context.Context
		  - user: *User (ID and PasswordHash already set)

		Returns:
		  - error: apperr.Conflict on a duplicate username
	*/
	Create(context context.Context, user *User) error

	/*
		Update persists the mutable profile fields and refreshes UpdatedAt.

		Parameters:
		  - context: context.Context
		  - user: *User

		Returns:
		  - error: apperr.NotFound, apperr.Conflict on rename collision
	*/
	Update(context context.Context, user *User) error

	/*
		SetPermissionGroups replaces the user's group memberships.

		Parameters:
		  - context: context.Context
		  - userID: string
		  - groupIDs: []string

		Returns:
		  - error: apperr.NotFound if the user or a group is missing
	*/
	SetPermissionGroups(context context.Context, userID string, groupIDs []string) error

	/*
		List returns one page of accounts ordered by username key.

		Parameters:
		  - context: context.Context
		  - filter: Filter
		  - limit: int
		  - offset: int

		Returns:
		  - []*User: Accounts on the page
		  - int: Total matching accounts
		  - error: Storage failures
	*/
	List(context context.Context, filter Filter, limit, offset int) ([]*User, int, error)
}

// Filter narrows account listings.
type Filter struct {
	// GroupIDs keeps accounts belonging to at least one of the groups. Empty means all.
	GroupIDs []string
}

// # Field Identifiers

const (
	FieldUsername  = "username"
	FieldPassword  = "password"
	FieldFirstName = "first_name"
	FieldLastName  = "last_name"
	FieldEmail     = "email"
	FieldGroupIDs  = "group_ids"
)

// Input limits.
const (
	MaxUsernameLength = 50
	MinPasswordLength = 6
	MaxPasswordLength = 72 // bcrypt ignores bytes past 72
	MaxNameLength     = 100
)
