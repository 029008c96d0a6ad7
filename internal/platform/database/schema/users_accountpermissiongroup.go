package schema

// UserAccountPermissionGroupTable represents the 'users.accountpermissiongroup' join table
type UserAccountPermissionGroupTable struct {
	Table     string
	AccountID string
	GroupID   string
	CreatedAt string
}

// UserAccountPermissionGroup is the schema definition for users.accountpermissiongroup
var UserAccountPermissionGroup = UserAccountPermissionGroupTable{
	Table:     "users.accountpermissiongroup",
	AccountID: "accountid",
	GroupID:   "groupid",
	CreatedAt: "createdat",
}

// Columns returns all standard column names
func (t UserAccountPermissionGroupTable) Columns() []string {
	return []string{t.AccountID, t.GroupID, t.CreatedAt}
}
