package dto

// SessionResponse describes the signed-in user for page headers.
type SessionResponse struct {
	UID         string                `json:"uid"`
	Label       string                `json:"label"`
	DisplayName string                `json:"display_name"`
	Email       string                `json:"email"`
	IsAdmin     bool                  `json:"is_admin"`
	Registry    *RegistryUserResponse `json:"registry,omitempty"`
}
