package entities

import (
	"time"

	"github.com/aarondl/null/v8"
)

type User struct {
	ID           uint64      `json:"id"`
	OrgID        string      `json:"orgId"`
	Email        string      `json:"email"`
	PasswordHash string      `json:"-"`
	Fio          string      `json:"fio"`
	LastLoginAt  null.Time   `json:"lastLoginAt,omitempty"`
	Phone        null.String `json:"phone,omitempty"`
	CreatedAt    time.Time   `json:"createdAt"`
}
