package schema

// UserTokenTable represents the 'users.token' table
type UserTokenTable struct {
	Table     string
	ClientID  string
	TokenHash string
	ExpiresAt string
	Username  string
	CreatedAt string
	UpdatedAt string
}

// UserToken is the schema definition for users.token
var UserToken = UserTokenTable{
	Table:     "users.token",
	ClientID:  "clientid",
	TokenHash: "tokenhash",
	ExpiresAt: "expiresat",
	Username:  "username",
	CreatedAt: "createdat",
	UpdatedAt: "updatedat",
}

// Columns returns all standard column names
func (t UserTokenTable) Columns() []string {
	return []string{t.ClientID, t.TokenHash, t.ExpiresAt, t.Username, t.CreatedAt, t.UpdatedAt}
}
