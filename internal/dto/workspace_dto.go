package dto

import "time"

// GridRow is one two-column row of an editable grid.
type GridRow [2]string

// WorkspaceResponse is the editable state of one submission slot.
type WorkspaceResponse struct {
	Category               string     `json:"category"`
	Slot                   string     `json:"slot"`
	Conversation           []GridRow  `json:"conversation"`
	ProbingQuestions       []GridRow  `json:"probing_questions"`
	StudentCharacteristics string     `json:"student_characteristics"`
	ConversationLastRow    *int       `json:"conversation_last_row"`
	ProbingLastRow         *int       `json:"probing_last_row"`
	UpdatedAt              *time.Time `json:"updated_at"`
}

// WorkspaceUpdateRequest replaces the cell contents of a slot.
type WorkspaceUpdateRequest struct {
	Conversation           []GridRow `json:"conversation" validate:"max=500"`
	ProbingQuestions       []GridRow `json:"probing_questions" validate:"max=500"`
	StudentCharacteristics string    `json:"student_characteristics" validate:"max=10000"`
}

// RowAddRequest appends a blank row to a grid.
type RowAddRequest struct {
	Grid string `json:"grid" validate:"required,oneof=conversation probing"`
}

// RowSelectRequest remembers the last clicked row of a grid.
type RowSelectRequest struct {
	Grid string `json:"grid" validate:"required,oneof=conversation probing"`
	Row  *int   `json:"row" validate:"required,gte=0"`
}

// RowRange is a multi-cell selection spanning rows From..To.
type RowRange struct {
	From int `json:"from" validate:"gte=0"`
	To   int `json:"to" validate:"gte=0"`
}

// RowRemoveRequest removes one row. The target is the first of Selection,
// Range.From, the remembered row and Index that is present.
type RowRemoveRequest struct {
	Grid      string    `json:"grid" validate:"required,oneof=conversation probing"`
	Selection *int      `json:"selection"`
	Range     *RowRange `json:"range"`
	Index     *int      `json:"index"`
}
