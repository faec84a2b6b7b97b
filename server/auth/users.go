// Package auth checks credentials against the fixed two-user table.
package auth

import (
	"crypto/subtle"
	"errors"

	"ahadchat/server/config"
)

var (
	// ErrInvalidCredentials covers both an unknown id and a wrong password.
	ErrInvalidCredentials = errors.New("invalid credentials")

	ErrMissingCredentials = errors.New("user and password are required")
)

type User struct {
	ID          string
	DisplayName string
	Password    string
	IsAdmin     bool
}

// Directory is the static user table.
type Directory struct {
	users []User
	byID  map[string]User
}

func NewDirectory(users []User) *Directory {
	d := &Directory{
		users: append([]User(nil), users...),
		byID:  make(map[string]User, len(users)),
	}
	for _, u := range users {
		if u.DisplayName == "" {
			u.DisplayName = u.ID
		}
		d.byID[u.ID] = u
	}
	return d
}

// FromConfig builds the directory from configured users.
func FromConfig(users []config.UserConfig) *Directory {
	out := make([]User, 0, len(users))
	for _, u := range users {
		out = append(out, User{ID: u.ID, DisplayName: u.Name, Password: u.Password, IsAdmin: u.IsAdmin})
	}
	return NewDirectory(out)
}

// Authenticate returns the user whose id and password match exactly.
func (d *Directory) Authenticate(id, password string) (User, error) {
	if id == "" || password == "" {
		return User{}, ErrMissingCredentials
	}
	u, ok := d.byID[id]
	if !ok {
		return User{}, ErrInvalidCredentials
	}
	if subtle.ConstantTimeCompare([]byte(u.Password), []byte(password)) != 1 {
		return User{}, ErrInvalidCredentials
	}
	return u, nil
}

// Lookup finds a user by id.
func (d *Directory) Lookup(id string) (User, bool) {
	u, ok := d.byID[id]
	return u, ok
}

// IDs lists user ids in configuration order.
func (d *Directory) IDs() []string {
	ids := make([]string, len(d.users))
	for i, u := range d.users {
		ids[i] = u.ID
	}
	return ids
}
