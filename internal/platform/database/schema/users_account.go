// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

// Package schema holds the physical table and column names used by the
// postgres repositories, so SQL is built from one definition.
package schema

// UserAccountTable represents the 'users.account' table
type UserAccountTable struct {
	Table     string
	ID        string
	Email     string
	Password  string
	FirstName string
	LastName  string
	Roles     string
	CreatedAt string
	UpdatedAt string
	DeletedAt string
}

// UserAccount is the schema definition for users.account
var UserAccount = UserAccountTable{
	Table:     "users.account",
	ID:        "id",
	Email:     "email",
	Password:  "passwordhash",
	FirstName: "firstname",
	LastName:  "lastname",
	Roles:     "roles",
	CreatedAt: "createdat",
	UpdatedAt: "updatedat",
	DeletedAt: "deletedat",
}

// Columns returns all standard column names
func (t UserAccountTable) Columns() []string {
	return []string{
		t.ID, t.Email, t.Password, t.FirstName, t.LastName, t.Roles,
		t.CreatedAt, t.UpdatedAt, t.DeletedAt,
	}
}
