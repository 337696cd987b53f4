package dto

import (
	"time"

	"github.com/noah-isme/probing-go-api/internal/models"
)

// SubmissionResponse is returned after a successful submit.
type SubmissionResponse struct {
	ID                     string                    `json:"id"`
	UID                    string                    `json:"uid"`
	DisplayName            string                    `json:"display_name"`
	Email                  string                    `json:"email"`
	CreatedAt              *time.Time                `json:"created_at"`
	Conversation           []models.ConversationTurn `json:"conversation"`
	ProbingQuestions       []models.ProbingQuestion  `json:"probing_questions"`
	StudentCharacteristics string                    `json:"student_characteristics"`
	StudentType            string                    `json:"student_type"`
	QuestionType           string                    `json:"question_type"`
}

// SubmissionPreview is one entry of the load-previous picker.
type SubmissionPreview struct {
	ID        string     `json:"id"`
	CreatedAt *time.Time `json:"created_at"`
	Preview   string     `json:"preview"`
}

// NewSubmissionResponse converts a submission model into a DTO.
func NewSubmissionResponse(model models.ProbingSubmission) SubmissionResponse {
	return SubmissionResponse{
		ID:                     model.ID,
		UID:                    model.UID,
		DisplayName:            model.DisplayName,
		Email:                  model.Email,
		CreatedAt:              model.CreatedAt,
		Conversation:           []models.ConversationTurn(model.Conversation),
		ProbingQuestions:       []models.ProbingQuestion(model.ProbingQuestions),
		StudentCharacteristics: model.StudentCharacteristics,
		StudentType:            model.StudentType,
		QuestionType:           model.QuestionType,
	}
}
