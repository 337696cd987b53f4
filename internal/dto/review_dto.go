package dto

import "time"

// Review placeholders.
const (
	AnonymousLabel          = "익명"
	EmptyConversationText   = "대화 내용 없음"
	EmptyConversationDetail = "대화 내용이 없습니다."
	EmptyProbingDetail      = "탐침질문이 없습니다."
	EmptyCellPlaceholder    = "-"
	EmptySelectionDetail    = "좌측 목록에서 항목을 선택하세요"
)

// ReviewFilter narrows review lists to one contributor label.
type ReviewFilter struct {
	Label string `query:"label" validate:"max=300"`
}

// ReviewListItem is one row of a review list.
type ReviewListItem struct {
	ID           string     `json:"id"`
	Label        string     `json:"label"`
	CreatedAt    *time.Time `json:"created_at"`
	Preview      string     `json:"preview"`
	StudentType  string     `json:"student_type"`
	QuestionType string     `json:"question_type"`
}

// ReviewListResponse carries the rendered list plus the contributor labels for filtering.
type ReviewListResponse struct {
	Items  []ReviewListItem `json:"items"`
	Labels []string         `json:"labels,omitempty"`
	Filter string           `json:"filter,omitempty"`
}

// ReviewConversationRow is one transcript row in the detail pane.
type ReviewConversationRow struct {
	Speaker string `json:"speaker"`
	Message string `json:"message"`
}

// ReviewProbingRow is one follow-up row in the detail pane.
type ReviewProbingRow struct {
	Situation string `json:"situation"`
	Question  string `json:"question"`
}

// ReviewDetailResponse is the detail pane for one submission.
type ReviewDetailResponse struct {
	ID                     string                  `json:"id"`
	Label                  string                  `json:"label"`
	CreatedAt              *time.Time              `json:"created_at"`
	StudentCharacteristics *string                 `json:"student_characteristics,omitempty"`
	Conversation           []ReviewConversationRow `json:"conversation"`
	ConversationEmpty      string                  `json:"conversation_empty,omitempty"`
	ProbingQuestions       []ReviewProbingRow      `json:"probing_questions"`
	ProbingEmpty           string                  `json:"probing_empty,omitempty"`
	Deletable              bool                    `json:"deletable"`
}

// EmptyDetailResponse is the detail pane with nothing selected.
type EmptyDetailResponse struct {
	Placeholder string `json:"placeholder"`
}

// ReviewDeleteResponse confirms a moderation delete and resets the detail pane.
type ReviewDeleteResponse struct {
	DeletedID string              `json:"deleted_id"`
	Detail    EmptyDetailResponse `json:"detail"`
}

// ExportResponse reports where an export archive was stored.
type ExportResponse struct {
	URL      string    `json:"url"`
	Count    int       `json:"count"`
	Exported time.Time `json:"exported_at"`
}
