// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

// Package schema names the tables, columns and constraints the repositories query.
package schema

// UsersTable represents the 'users' table
type UsersTable struct {
	Table     string
	ID        string
	Name      string
	Email     string
	Username  string
	Password  string
	Gender    string
	Image     string
	Bio       string
	Setup     string
	CreatedAt string
	UpdatedAt string

	// EmailKey and UsernameKey are the unique constraint names.
	EmailKey    string
	UsernameKey string
}

// Users is the schema definition for users
var Users = UsersTable{
	Table:       "users",
	ID:          "id",
	Name:        "name",
	Email:       "email",
	Username:    "username",
	Password:    "password",
	Gender:      "gender",
	Image:       "image",
	Bio:         "bio",
	Setup:       "setup",
	CreatedAt:   "created_at",
	UpdatedAt:   "updated_at",
	EmailKey:    "users_email_key",
	UsernameKey: "users_username_key",
}

// Columns returns all column names in projection order
func (t UsersTable) Columns() []string {
	return []string{
		t.ID, t.Name, t.Email, t.Username, t.Password, t.Gender,
		t.Image, t.Bio, t.Setup, t.CreatedAt, t.UpdatedAt,
	}
}
