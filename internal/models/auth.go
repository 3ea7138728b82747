package models

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// LoginResponse returns the issued token and user info.
type LoginResponse struct {
	Token     string    `json:"token"`
	ExpiresIn int64     `json:"expires_in"`
	User      UserInfo  `json:"user"`
	IssuedAt  time.Time `json:"issued_at"`
}

// UserInfo describes the authenticated user in responses.
type UserInfo struct {
	ID      string `json:"user_id"`
	Email   string `json:"email"`
	Nama    string `json:"nama"`
	Pangkat string `json:"pangkat"`
	NRP     string `json:"nrp"`
	IsAdmin bool   `json:"is_admin"`
}

// NewUserInfo strips a user down to what clients may see about a session.
func NewUserInfo(u *User) UserInfo {
	return UserInfo{ID: u.ID, Email: u.Email, Nama: u.Nama, Pangkat: u.Pangkat, NRP: u.NRP, IsAdmin: u.IsAdmin}
}

// JWTClaims represents the JWT payload for session tokens.
type JWTClaims struct {
	UserID  string `json:"userId"`
	IsAdmin bool   `json:"isAdmin"`
	jwt.RegisteredClaims
}
