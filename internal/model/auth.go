package model

import "github.com/golang-jwt/jwt/v5"

// StaffClaims are JWT claims for staff authentication
type StaffClaims struct {
	StaffID string `json:"staffId"`
	jwt.RegisteredClaims
}

// UserClaims are JWT claims for purchasers
type UserClaims struct {
	UserID    string `json:"userId"`
	Email     string `json:"email"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	jwt.RegisteredClaims
}

// LoginRequest is the request body for staff login
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// LoginResponse is returned after successful login
type LoginResponse struct {
	Token   string `json:"token"`
	StaffID string `json:"staffId"`
}

// GuestRequest registers a purchaser identity
type GuestRequest struct {
	Email     string `json:"email"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
}

// GuestResponse carries the purchaser token
type GuestResponse struct {
	Token  string `json:"token"`
	UserID string `json:"userId"`
}

// User is the authenticated purchaser as seen by services
type User struct {
	ID        string
	Email     string
	FirstName string
	LastName  string
}
