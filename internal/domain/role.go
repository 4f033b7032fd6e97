package domain

type Role struct {
	ID   uint64 `gorm:"primaryKey;autoIncrement" json:"id"`
	Name string `gorm:"uniqueIndex;size:64;not null" json:"name"`
}

func (Role) TableName() string { return "roles" }

// UserRole is the user_roles join row. The composite key allows one row per pair.
type UserRole struct {
	UserID uint64 `gorm:"primaryKey"`
	RoleID uint64 `gorm:"primaryKey"`
}

func (UserRole) TableName() string { return "user_roles" }

// SeedRoles are created on startup when missing.
var SeedRoles = []string{DefaultRoleName, "Moderator", AdminRoleName}
