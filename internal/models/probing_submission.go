package models

import (
	"time"

	"gorm.io/datatypes"
)

// Speaker values accepted in transcript rows.
const (
	SpeakerInterviewer = "면접관"
	SpeakerStudent     = "학생"
)

// ConversationTurn is one utterance of an interview transcript.
type ConversationTurn struct {
	Speaker string `json:"speaker"`
	Message string `json:"message"`
}

// ProbingQuestion pairs a situation with the follow-up question asked in it.
type ProbingQuestion struct {
	Situation string `json:"situation"`
	Question  string `json:"question"`
}

// ProbingSubmission stores one transcript with its follow-up questions.
type ProbingSubmission struct {
	ID                     string                                `gorm:"primaryKey;size:36" json:"id"`
	UID                    string                                `gorm:"size:128;index;not null" json:"uid"`
	DisplayName            string                                `gorm:"size:128" json:"display_name"`
	Email                  string                                `gorm:"size:256" json:"email"`
	CreatedAt              *time.Time                            `gorm:"index;autoCreateTime:false" json:"created_at"`
	Conversation           datatypes.JSONSlice[ConversationTurn] `gorm:"type:json" json:"conversation"`
	ProbingQuestions       datatypes.JSONSlice[ProbingQuestion]  `gorm:"type:json" json:"probing_questions"`
	StudentCharacteristics string                                `gorm:"type:text" json:"student_characteristics"`
	StudentType            string                                `gorm:"size:16;index" json:"student_type"`
	QuestionType           string                                `gorm:"size:64;index;not null" json:"question_type"`
}

// TableName mirrors the probingQuestions collection.
func (ProbingSubmission) TableName() string {
	return "probing_questions"
}
