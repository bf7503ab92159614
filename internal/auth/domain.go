package auth

import "time"

// User represents a registered account held by the credential store.
type User struct {
	ID           string
	Name         string
	Email        string
	PasswordHash string
	CreatedAt    time.Time
}

// RegisterInput carries the fields required to create an account.
type RegisterInput struct {
	Name     string
	Email    string
	Password string
}

// Session is the result of a successful registration or login.
type Session struct {
	User  User
	Token string
}
