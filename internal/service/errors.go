package service

import "errors"

var (
	// ErrSignInRequired indicates the operation needs an authenticated identity.
	ErrSignInRequired = errors.New("sign in required")
	// ErrUserNotFound indicates a registry record could not be found.
	ErrUserNotFound = errors.New("user not found")
	// ErrCodeNotFound indicates no pending registry record carries the code.
	ErrCodeNotFound = errors.New("linking code not found")
	// ErrAlreadyLinked indicates the identity already owns a registry record.
	ErrAlreadyLinked = errors.New("identity already linked")
	// ErrSubmissionNotFound indicates a submission could not be found.
	ErrSubmissionNotFound = errors.New("submission not found")
	// ErrUnknownWorkflow indicates the category has no registered workflow.
	ErrUnknownWorkflow = errors.New("unknown workflow")
	// ErrUnknownSlot indicates the workflow has no such slot.
	ErrUnknownSlot = errors.New("unknown slot")
	// ErrUnknownGrid indicates the grid name is not conversation or probing.
	ErrUnknownGrid = errors.New("unknown grid")
	// ErrUnknownFeature indicates a flag outside the known feature set.
	ErrUnknownFeature = errors.New("unknown feature")
	// ErrInvalidSpeaker indicates a transcript row uses a speaker outside the allowed set.
	ErrInvalidSpeaker = errors.New("invalid speaker")
	// ErrRowSelectionRequired indicates no row could be resolved for removal.
	ErrRowSelectionRequired = errors.New("row selection required")
	// ErrInvalidRow indicates the resolved row index is out of bounds.
	ErrInvalidRow = errors.New("invalid row number")
	// ErrMinimumRows indicates removal would shrink a grid below its minimum.
	ErrMinimumRows = errors.New("grid is at its minimum row count")
	// ErrConversationRequired indicates no complete transcript turn was provided.
	ErrConversationRequired = errors.New("conversation required")
	// ErrProbingQuestionRequired indicates every follow-up row was blank.
	ErrProbingQuestionRequired = errors.New("probing question required")
	// ErrDraftNotCleared indicates a submission was stored but its slot still holds the old draft.
	ErrDraftNotCleared = errors.New("submission saved but the slot was not cleared")
	// ErrImportTypeNotAllowed indicates the uploaded import file is not CSV text.
	ErrImportTypeNotAllowed = errors.New("import file must be csv text")
	// ErrImportTooLarge indicates the uploaded import file exceeds the size limit.
	ErrImportTooLarge = errors.New("import file exceeds maximum allowed size")
)
