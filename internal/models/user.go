package models

import (
	"time"

	"github.com/uptrace/bun"
)

const (
	UserTypeIndividual = "individual"
	UserTypeBulk       = "bulk"
	UserTypeManager    = "manager"
)

type User struct {
	bun.BaseModel `bun:"table:users"`

	UserID           int64     `bun:"user_id,pk,autoincrement" json:"user_id"`
	FirstName        string    `bun:"first_name,notnull" json:"first_name"`
	Email            string    `bun:"email,unique,notnull" json:"email"`
	ContactNumber    string    `bun:"contact_number" json:"contact_number"`
	Password         string    `bun:"password,notnull" json:"-"`
	UserType         string    `bun:"user_type,notnull,default:'individual'" json:"user_type"`
	RegistrationDate time.Time `bun:"registration_date,notnull" json:"registration_date"`
	CouponCounter    int       `bun:"coupon_counter,notnull,default:0" json:"coupon_counter"`
}

// IsBulk reports whether the user is charged wholesale prices.
func (u *User) IsBulk() bool {
	return u.UserType == UserTypeBulk
}

func (u *User) IsManager() bool {
	return u.UserType == UserTypeManager
}

type RegisterRequest struct {
	FirstName     string `json:"first_name"`
	Email         string `json:"email"`
	ContactNumber string `json:"contact_number"`
	Password      string `json:"password"`
	UserType      string `json:"user_type"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type LoginResponse struct {
	Token string `json:"token"`
	User  *User  `json:"user"`
}

// CustomerSummary is the manager-facing customer listing row.
type CustomerSummary struct {
	UserID   int64  `bun:"user_id" json:"user_id"`
	FullName string `bun:"first_name" json:"full_name"`
	Email    string `bun:"email" json:"email"`
	UserType string `bun:"user_type" json:"user_type"`
}
