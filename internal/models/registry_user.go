package models

import "time"

// RegistryUser is an admin-provisioned identity slot that a participant claims with its linking code.
type RegistryUser struct {
	ID          string     `gorm:"primaryKey;size:36" json:"id"`
	Name        string     `gorm:"size:128;not null" json:"name"`
	Affiliation string     `gorm:"size:128;not null" json:"affiliation"`
	Code        string     `gorm:"size:16;index;not null" json:"code"`
	UID         *string    `gorm:"size:128;uniqueIndex" json:"uid"`
	CreatedAt   *time.Time `gorm:"index;autoCreateTime:false" json:"created_at"`
	LinkedAt    *time.Time `json:"linked_at"`
}

// TableName keeps the registry in the users table.
func (RegistryUser) TableName() string {
	return "users"
}

// IsLinked reports whether an external identity has redeemed the code.
func (u RegistryUser) IsLinked() bool {
	return u.UID != nil && *u.UID != ""
}

// Label renders "name (affiliation)", or just the name when no affiliation is stored.
func (u RegistryUser) Label() string {
	if u.Affiliation == "" {
		return u.Name
	}
	return u.Name + " (" + u.Affiliation + ")"
}
