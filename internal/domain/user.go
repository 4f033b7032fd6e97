package domain

import "time"

// DefaultRoleName is granted to every user at registration.
const DefaultRoleName = "User"

// AdminRoleName gates the admin API.
const AdminRoleName = "Admin"

type User struct {
	ID           uint64    `gorm:"primaryKey;autoIncrement" json:"id"`
	Login        string    `gorm:"uniqueIndex;size:191;not null" json:"login"`
	PasswordHash string    `gorm:"size:191;not null" json:"-"`
	CreatedAt    time.Time `gorm:"autoCreateTime" json:"createdAt"`
	CreatedBy    string    `gorm:"size:191" json:"createdBy,omitempty"`
	UpdatedAt    time.Time `gorm:"autoUpdateTime" json:"updatedAt"`
	UpdatedBy    string    `gorm:"size:191" json:"updatedBy,omitempty"`

	Token   *UserToken `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`
	Roles   []Role     `gorm:"many2many:user_roles;joinForeignKey:UserID;joinReferences:RoleID" json:"roles,omitempty"`
	Reports []Report   `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`
}

func (User) TableName() string { return "users" }

// RoleNames returns the names of the roles currently loaded on u.
func (u *User) RoleNames() []string {
	out := make([]string, 0, len(u.Roles))
	for _, r := range u.Roles {
		out = append(out, r.Name)
	}
	return out
}

// FindRole looks up a held role by id.
func (u *User) FindRole(id uint64) (Role, bool) {
	for _, r := range u.Roles {
		if r.ID == id {
			return r, true
		}
	}
	return Role{}, false
}

// HasRole reports whether u holds the role named name.
func (u *User) HasRole(name string) bool {
	for _, r := range u.Roles {
		if r.Name == name {
			return true
		}
	}
	return false
}

// UserToken is the single refresh-token record owned by a user.
type UserToken struct {
	ID                     uint64    `gorm:"primaryKey;autoIncrement"`
	UserID                 uint64    `gorm:"uniqueIndex;not null"`
	RefreshToken           string    `gorm:"size:128;not null"`
	RefreshTokenExpireTime time.Time `gorm:"not null"`
}

func (UserToken) TableName() string { return "user_tokens" }

// Expired reports whether the stored refresh token is no longer usable at now.
func (t *UserToken) Expired(now time.Time) bool {
	return !t.RefreshTokenExpireTime.After(now)
}
