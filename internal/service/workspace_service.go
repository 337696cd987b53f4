package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"

	"github.com/noah-isme/probing-go-api/internal/dto"
	"github.com/noah-isme/probing-go-api/internal/models"
	"github.com/noah-isme/probing-go-api/internal/observability"
	"github.com/noah-isme/probing-go-api/internal/repository"
)

const historyPreviewTurns = 3

// WorkspaceService drives the slot grids of a submission workflow.
type WorkspaceService interface {
	Get(ctx context.Context, identity Identity, workflow Workflow, slot string) (dto.WorkspaceResponse, error)
	Replace(ctx context.Context, identity Identity, workflow Workflow, slot string, payload dto.WorkspaceUpdateRequest) (dto.WorkspaceResponse, error)
	AddRow(ctx context.Context, identity Identity, workflow Workflow, slot string, payload dto.RowAddRequest) (dto.WorkspaceResponse, error)
	SelectRow(ctx context.Context, identity Identity, workflow Workflow, slot string, payload dto.RowSelectRequest) (dto.WorkspaceResponse, error)
	RemoveRow(ctx context.Context, identity Identity, workflow Workflow, slot string, payload dto.RowRemoveRequest) (dto.WorkspaceResponse, error)
	Submit(ctx context.Context, identity Identity, workflow Workflow, slot string) (dto.SubmissionResponse, error)
	History(ctx context.Context, identity Identity, workflow Workflow, slot string) ([]dto.SubmissionPreview, error)
	LoadPrevious(ctx context.Context, identity Identity, workflow Workflow, slot, submissionID string) (dto.WorkspaceResponse, error)
}

type workspaceService struct {
	submissions repository.SubmissionRepository
	drafts      DraftStore
	events      EventPublisher
	validator   *validator.Validate
	logger      zerolog.Logger
	tracer      trace.Tracer
	now         func() time.Time
	newID       func() string
}

// NewWorkspaceService constructs a WorkspaceService instance.
func NewWorkspaceService(submissions repository.SubmissionRepository, drafts DraftStore, events EventPublisher, validate *validator.Validate, logger zerolog.Logger) WorkspaceService {
	if events == nil {
		events = NopPublisher{}
	}
	return &workspaceService{
		submissions: submissions,
		drafts:      drafts,
		events:      events,
		validator:   validate,
		logger:      logger.With().Str("component", "workspace_service").Logger(),
		tracer:      otel.Tracer("github.com/noah-isme/probing-go-api/internal/service/workspace"),
		now:         time.Now,
		newID:       uuid.NewString,
	}
}

func (s *workspaceService) Get(ctx context.Context, identity Identity, workflow Workflow, slot string) (dto.WorkspaceResponse, error) {
	key, err := s.key(identity, workflow, slot)
	if err != nil {
		return dto.WorkspaceResponse{}, err
	}

	draft, err := s.load(ctx, key)
	if err != nil {
		return dto.WorkspaceResponse{}, err
	}

	return newWorkspaceResponse(key, draft), nil
}

func (s *workspaceService) Replace(ctx context.Context, identity Identity, workflow Workflow, slot string, payload dto.WorkspaceUpdateRequest) (dto.WorkspaceResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.WorkspaceResponse{}, err
	}

	return s.mutate(ctx, identity, workflow, slot, func(draft Draft) (Draft, error) {
		return draft.WithContent(payload.Conversation, payload.ProbingQuestions, payload.StudentCharacteristics)
	})
}

func (s *workspaceService) AddRow(ctx context.Context, identity Identity, workflow Workflow, slot string, payload dto.RowAddRequest) (dto.WorkspaceResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.WorkspaceResponse{}, err
	}
	kind, err := ParseGridKind(payload.Grid)
	if err != nil {
		return dto.WorkspaceResponse{}, err
	}

	return s.mutate(ctx, identity, workflow, slot, func(draft Draft) (Draft, error) {
		return draft.WithRowAppended(kind), nil
	})
}

func (s *workspaceService) SelectRow(ctx context.Context, identity Identity, workflow Workflow, slot string, payload dto.RowSelectRequest) (dto.WorkspaceResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.WorkspaceResponse{}, err
	}
	kind, err := ParseGridKind(payload.Grid)
	if err != nil {
		return dto.WorkspaceResponse{}, err
	}

	return s.mutate(ctx, identity, workflow, slot, func(draft Draft) (Draft, error) {
		return draft.WithRowSelected(kind, *payload.Row)
	})
}

func (s *workspaceService) RemoveRow(ctx context.Context, identity Identity, workflow Workflow, slot string, payload dto.RowRemoveRequest) (dto.WorkspaceResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.WorkspaceResponse{}, err
	}
	kind, err := ParseGridKind(payload.Grid)
	if err != nil {
		return dto.WorkspaceResponse{}, err
	}

	target := RowTarget{Selection: payload.Selection, Index: payload.Index}
	if payload.Range != nil {
		from := payload.Range.From
		target.RangeFrom = &from
	}

	return s.mutate(ctx, identity, workflow, slot, func(draft Draft) (Draft, error) {
		return draft.WithRowRemoved(kind, target)
	})
}

func (s *workspaceService) Submit(ctx context.Context, identity Identity, workflow Workflow, slot string) (dto.SubmissionResponse, error) {
	ctx, span := s.tracer.Start(ctx, "workspace.submit", trace.WithAttributes(
		attribute.String("workflow.category", workflow.Category),
		attribute.String("workflow.slot", slot),
	))
	defer span.End()
	logger := observability.ContextLogger(ctx, s.logger)

	key, err := s.key(identity, workflow, slot)
	if err != nil {
		return dto.SubmissionResponse{}, err
	}

	draft, err := s.load(ctx, key)
	if err != nil {
		span.RecordError(err)
		return dto.SubmissionResponse{}, err
	}

	conversation := draft.ConversationTurns()
	if len(conversation) == 0 {
		observability.Submissions().WithLabelValues(workflow.Category, key.Slot, "rejected").Inc()
		return dto.SubmissionResponse{}, ErrConversationRequired
	}

	probing := draft.ProbingEntries()
	if len(probing) == 0 {
		observability.Submissions().WithLabelValues(workflow.Category, key.Slot, "rejected").Inc()
		return dto.SubmissionResponse{}, ErrProbingQuestionRequired
	}

	studentType, _ := workflow.StudentType(slot)
	createdAt := s.now()
	submission := models.ProbingSubmission{
		ID:                     s.newID(),
		UID:                    identity.UID,
		DisplayName:            identity.DisplayName,
		Email:                  identity.Email,
		CreatedAt:              &createdAt,
		Conversation:           conversation,
		ProbingQuestions:       probing,
		StudentCharacteristics: strings.TrimSpace(draft.StudentCharacteristics),
		StudentType:            studentType,
		QuestionType:           workflow.Category,
	}

	if err := s.submissions.Create(ctx, &submission); err != nil {
		span.RecordError(err)
		observability.Submissions().WithLabelValues(workflow.Category, key.Slot, "failed").Inc()
		return dto.SubmissionResponse{}, fmt.Errorf("save submission: %w", err)
	}

	observability.Submissions().WithLabelValues(workflow.Category, key.Slot, "accepted").Inc()
	logger.Info().Str("submission_id", submission.ID).Str("category", workflow.Category).Str("slot", key.Slot).Msg("submission created")

	response := dto.NewSubmissionResponse(submission)
	s.events.Publish(ctx, EventSubmissionCreated, response)

	// The record is already stored, so a reset failure is reported alongside it.
	if err := s.drafts.Delete(ctx, key); err != nil {
		span.RecordError(err)
		logger.Warn().Err(err).Str("draft", key.String()).Str("submission_id", submission.ID).Msg("failed to reset draft after submit")
		return response, fmt.Errorf("%w: %v", ErrDraftNotCleared, err)
	}

	return response, nil
}

func (s *workspaceService) History(ctx context.Context, identity Identity, workflow Workflow, slot string) ([]dto.SubmissionPreview, error) {
	if _, err := s.key(identity, workflow, slot); err != nil {
		return nil, err
	}

	submissions, err := s.history(ctx, identity, workflow, slot)
	if err != nil {
		return nil, err
	}

	previews := make([]dto.SubmissionPreview, 0, len(submissions))
	for _, submission := range submissions {
		previews = append(previews, dto.SubmissionPreview{
			ID:        submission.ID,
			CreatedAt: submission.CreatedAt,
			Preview:   ConversationPreview(submission.Conversation, historyPreviewTurns),
		})
	}
	return previews, nil
}

func (s *workspaceService) LoadPrevious(ctx context.Context, identity Identity, workflow Workflow, slot, submissionID string) (dto.WorkspaceResponse, error) {
	key, err := s.key(identity, workflow, slot)
	if err != nil {
		return dto.WorkspaceResponse{}, err
	}

	submission, err := s.submissions.GetByID(ctx, submissionID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.WorkspaceResponse{}, ErrSubmissionNotFound
		}
		return dto.WorkspaceResponse{}, fmt.Errorf("load submission: %w", err)
	}

	studentType, _ := workflow.StudentType(slot)
	if submission.UID != identity.UID || submission.QuestionType != workflow.Category || submission.StudentType != studentType {
		return dto.WorkspaceResponse{}, ErrSubmissionNotFound
	}

	draft := DraftFromSubmission(submission)
	if err := s.save(ctx, key, draft); err != nil {
		return dto.WorkspaceResponse{}, err
	}

	s.logger.Info().Str("submission_id", submission.ID).Str("draft", key.String()).Msg("submission loaded into draft")

	return s.Get(ctx, identity, workflow, slot)
}

func (s *workspaceService) history(ctx context.Context, identity Identity, workflow Workflow, slot string) ([]models.ProbingSubmission, error) {
	studentType, err := workflow.StudentType(slot)
	if err != nil {
		return nil, err
	}

	uid := identity.UID
	category := workflow.Category
	submissions, err := s.submissions.List(ctx, repository.SubmissionFilter{
		UID:          &uid,
		StudentType:  &studentType,
		QuestionType: &category,
	})
	if err != nil {
		return nil, fmt.Errorf("load submissions: %w", err)
	}

	SortSubmissionsNewestFirst(submissions)
	return submissions, nil
}

func (s *workspaceService) mutate(ctx context.Context, identity Identity, workflow Workflow, slot string, apply func(Draft) (Draft, error)) (dto.WorkspaceResponse, error) {
	key, err := s.key(identity, workflow, slot)
	if err != nil {
		return dto.WorkspaceResponse{}, err
	}

	draft, err := s.load(ctx, key)
	if err != nil {
		return dto.WorkspaceResponse{}, err
	}

	next, err := apply(draft)
	if err != nil {
		return dto.WorkspaceResponse{}, err
	}

	if err := s.save(ctx, key, next); err != nil {
		return dto.WorkspaceResponse{}, err
	}

	stored, err := s.load(ctx, key)
	if err != nil {
		return dto.WorkspaceResponse{}, err
	}
	return newWorkspaceResponse(key, stored), nil
}

func (s *workspaceService) key(identity Identity, workflow Workflow, slot string) (DraftKey, error) {
	if !identity.SignedIn() {
		return DraftKey{}, ErrSignInRequired
	}
	studentType, err := workflow.StudentType(slot)
	if err != nil {
		return DraftKey{}, err
	}
	if studentType == "" {
		studentType = DefaultSlot
	}
	return DraftKey{UID: identity.UID, Category: workflow.Category, Slot: studentType}, nil
}

func (s *workspaceService) load(ctx context.Context, key DraftKey) (Draft, error) {
	draft, ok, err := s.drafts.Load(ctx, key)
	if err != nil {
		return Draft{}, fmt.Errorf("load draft: %w", err)
	}
	if !ok {
		return NewDraft(), nil
	}
	return draft, nil
}

func (s *workspaceService) save(ctx context.Context, key DraftKey, draft Draft) error {
	updatedAt := s.now()
	draft.UpdatedAt = &updatedAt
	if err := s.drafts.Save(ctx, key, draft); err != nil {
		return fmt.Errorf("save draft: %w", err)
	}
	return nil
}

func newWorkspaceResponse(key DraftKey, draft Draft) dto.WorkspaceResponse {
	response := dto.WorkspaceResponse{
		Category:               key.Category,
		Slot:                   key.Slot,
		Conversation:           draft.Rows(GridConversation),
		ProbingQuestions:       draft.Rows(GridProbing),
		StudentCharacteristics: draft.StudentCharacteristics,
		UpdatedAt:              draft.UpdatedAt,
	}
	if row, ok := draft.LastSelectedRow(GridConversation); ok {
		response.ConversationLastRow = &row
	}
	if row, ok := draft.LastSelectedRow(GridProbing); ok {
		probingRow := row
		response.ProbingLastRow = &probingRow
	}
	return response
}

// ConversationPreview joins the first limit turns as "speaker: message" separated by " / ".
func ConversationPreview(turns []models.ConversationTurn, limit int) string {
	if len(turns) == 0 {
		return dto.EmptyConversationText
	}

	count := limit
	if len(turns) < count {
		count = len(turns)
	}

	parts := make([]string, 0, count)
	for _, turn := range turns[:count] {
		parts = append(parts, turn.Speaker+": "+turn.Message)
	}

	preview := strings.Join(parts, " / ")
	if len(turns) > limit {
		preview += " ..."
	}
	return preview
}

// SortSubmissionsNewestFirst orders by creation time descending; records without a timestamp sort last.
func SortSubmissionsNewestFirst(submissions []models.ProbingSubmission) {
	sort.SliceStable(submissions, func(i, j int) bool {
		return newerThan(submissions[i].CreatedAt, submissions[j].CreatedAt)
	})
}

func newerThan(a, b *time.Time) bool {
	switch {
	case a == nil:
		return false
	case b == nil:
		return true
	default:
		return a.After(*b)
	}
}
