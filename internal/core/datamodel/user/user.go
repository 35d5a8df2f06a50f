package user

import "time"

type User struct {
	ID           int64     `gorm:"primaryKey"`
	Email        string    `gorm:"column:email;uniqueIndex;not null"`
	Name         string    `gorm:"column:name;not null"`
	PasswordHash string    `gorm:"column:password_hash;not null"`
	IsActive     bool      `gorm:"column:is_active;not null"`
	EmployeeID   *int64    `gorm:"column:employee_id"`
	Roles        []Role    `gorm:"many2many:user_roles;"`
	CreatedAt    time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt    time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

type Role struct {
	ID          int64        `gorm:"primaryKey"`
	Name        string       `gorm:"column:name;uniqueIndex;not null"`
	Description string       `gorm:"column:description"`
	Permissions []Permission `gorm:"many2many:role_permissions;"`
	CreatedAt   time.Time    `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time    `gorm:"column:updated_at;autoUpdateTime"`
}

// Permission is an (entity, action, access) tuple such as ("incident", "update", "any").
type Permission struct {
	ID          int64     `gorm:"primaryKey"`
	Entity      string    `gorm:"column:entity;not null;uniqueIndex:idx_permission_tuple"`
	Action      string    `gorm:"column:action;not null;uniqueIndex:idx_permission_tuple"`
	Access      string    `gorm:"column:access;not null;uniqueIndex:idx_permission_tuple"`
	Description string    `gorm:"column:description"`
	CreatedAt   time.Time `gorm:"column:created_at;autoCreateTime"`
}

// Verification holds one pending email code per (target, type).
type Verification struct {
	ID        int64     `gorm:"primaryKey"`
	Target    string    `gorm:"column:target;not null;uniqueIndex:idx_verification_target_type"`
	Type      string    `gorm:"column:type;not null;uniqueIndex:idx_verification_target_type"`
	CodeHash  string    `gorm:"column:code_hash;not null"`
	ExpiresAt time.Time `gorm:"column:expires_at;not null"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
}
