package models

import (
	"time"
)

// Role IDs referenced throughout the routing engine. The director role is a
// fixed value because legacy review rows are keyed by it.
const (
	RoleReviewer = 1
	RoleAdmin    = 2
	RoleDirector = 4
)

type User struct {
	UserID         int        `gorm:"primaryKey;column:user_id" json:"user_id"`
	UserFname      string     `gorm:"column:user_fname" json:"user_fname"`
	UserLname      string     `gorm:"column:user_lname" json:"user_lname"`
	Email          string     `gorm:"column:email;unique" json:"email"`
	Password       string     `gorm:"column:password" json:"-"`
	RoleID         int        `gorm:"column:role_id" json:"role_id"`
	MunicipalityID int        `gorm:"column:municipality_id" json:"municipality_id"`
	IsActive       bool       `gorm:"column:is_active;default:true" json:"is_active"`
	CreateAt       *time.Time `gorm:"column:create_at" json:"create_at"`
	UpdateAt       *time.Time `gorm:"column:update_at" json:"update_at"`
	DeleteAt       *time.Time `gorm:"column:delete_at" json:"delete_at,omitempty"`

	// Relations
	Role Role `gorm:"foreignKey:RoleID" json:"role,omitempty"`
}

type Role struct {
	RoleID   int        `gorm:"primaryKey;column:role_id" json:"role_id"`
	Role     string     `gorm:"column:role" json:"role"`
	CreateAt *time.Time `gorm:"column:create_at" json:"create_at"`
	UpdateAt *time.Time `gorm:"column:update_at" json:"update_at"`
	DeleteAt *time.Time `gorm:"column:delete_at" json:"delete_at,omitempty"`
}

type Municipality struct {
	MunicipalityID int        `gorm:"primaryKey;column:municipality_id" json:"municipality_id"`
	Name           string     `gorm:"column:name" json:"name"`
	Code           string     `gorm:"column:code;unique" json:"code"`
	IsActive       bool       `gorm:"column:is_active;default:true" json:"is_active"`
	CreateAt       *time.Time `gorm:"column:create_at" json:"create_at"`
	UpdateAt       *time.Time `gorm:"column:update_at" json:"update_at"`
}

// TableName overrides
func (User) TableName() string {
	return "users"
}

func (Role) TableName() string {
	return "roles"
}

func (Municipality) TableName() string {
	return "municipalities"
}

// FullName joins first and last name for notification salutations.
func (u *User) FullName() string {
	if u.UserLname == "" {
		return u.UserFname
	}
	return u.UserFname + " " + u.UserLname
}
