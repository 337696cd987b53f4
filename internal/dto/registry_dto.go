package dto

import (
	"time"

	"github.com/noah-isme/probing-go-api/internal/models"
)

// Registry status badges.
const (
	RegistryStatusLinked  = "linked"
	RegistryStatusPending = "pending"
)

// RegistryUserCreateRequest provisions a registry record. Values are trimmed before validation.
type RegistryUserCreateRequest struct {
	Name        string `json:"name" validate:"required,max=128"`
	Affiliation string `json:"affiliation" validate:"required,max=128"`
}

// LinkCodeRequest redeems a linking code for the signed-in identity.
type LinkCodeRequest struct {
	Code string `json:"code" validate:"required,len=5,alphanum"`
}

// RegistryUserResponse is one row of the admin registry list.
type RegistryUserResponse struct {
	ID          string     `json:"id"`
	Name        string     `json:"name"`
	Affiliation string     `json:"affiliation"`
	Code        string     `json:"code"`
	UID         *string    `json:"uid"`
	Status      string     `json:"status"`
	CreatedAt   *time.Time `json:"created_at"`
	LinkedAt    *time.Time `json:"linked_at"`
}

// RegistryImportRejection describes a CSV row that could not be provisioned.
type RegistryImportRejection struct {
	Line   int    `json:"line"`
	Reason string `json:"reason"`
}

// RegistryImportResponse summarises a bulk provisioning run.
type RegistryImportResponse struct {
	Created  []RegistryUserResponse    `json:"created"`
	Rejected []RegistryImportRejection `json:"rejected"`
}

// NewRegistryUserResponse converts a registry model into a DTO.
func NewRegistryUserResponse(model models.RegistryUser) RegistryUserResponse {
	status := RegistryStatusPending
	if model.IsLinked() {
		status = RegistryStatusLinked
	}

	return RegistryUserResponse{
		ID:          model.ID,
		Name:        model.Name,
		Affiliation: model.Affiliation,
		Code:        model.Code,
		UID:         model.UID,
		Status:      status,
		CreatedAt:   model.CreatedAt,
		LinkedAt:    model.LinkedAt,
	}
}

// NewRegistryUserResponseSlice converts registry models into DTOs.
func NewRegistryUserResponseSlice(users []models.RegistryUser) []RegistryUserResponse {
	responses := make([]RegistryUserResponse, 0, len(users))
	for _, user := range users {
		responses = append(responses, NewRegistryUserResponse(user))
	}
	return responses
}
