package schema

// UserPermissionGroupTable represents the 'users.permissiongroup' table
type UserPermissionGroupTable struct {
	Table     string
	ID        string
	Name      string
	CreatedAt string
	UpdatedAt string
}

// UserPermissionGroup is the schema definition for users.permissiongroup
var UserPermissionGroup = UserPermissionGroupTable{
	Table:     "users.permissiongroup",
	ID:        "id",
	Name:      "name",
	CreatedAt: "createdat",
	UpdatedAt: "updatedat",
}

// Columns returns all standard column names
func (t UserPermissionGroupTable) Columns() []string {
	return []string{t.ID, t.Name, t.CreatedAt, t.UpdatedAt}
}

// UserPermissionGroupScopeTable represents the 'users.permissiongroupscope' table
type UserPermissionGroupScopeTable struct {
	Table   string
	GroupID string
	Scope   string
}

// UserPermissionGroupScope is the schema definition for users.permissiongroupscope
var UserPermissionGroupScope = UserPermissionGroupScopeTable{
	Table:   "users.permissiongroupscope",
	GroupID: "groupid",
	Scope:   "scope",
}

// Columns returns all standard column names
func (t UserPermissionGroupScopeTable) Columns() []string {
	return []string{t.GroupID, t.Scope}
}
