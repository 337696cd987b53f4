package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/noah-isme/probing-go-api/internal/dto"
	"github.com/noah-isme/probing-go-api/internal/models"
	"github.com/noah-isme/probing-go-api/internal/observability"
	"github.com/noah-isme/probing-go-api/internal/repository"
)

const reviewPreviewTurns = 2

// ReviewAudience selects which review surface is being rendered.
type ReviewAudience string

// Review surfaces.
const (
	AudienceResults ReviewAudience = "results"
	AudienceAdmin   ReviewAudience = "admin"
)

// ReviewService renders submissions for the results page and the admin console.
type ReviewService interface {
	List(ctx context.Context, audience ReviewAudience, filter dto.ReviewFilter) (dto.ReviewListResponse, error)
	Labels(ctx context.Context) ([]string, error)
	Detail(ctx context.Context, audience ReviewAudience, id string) (dto.ReviewDetailResponse, error)
	Delete(ctx context.Context, id string) (dto.ReviewDeleteResponse, error)
}

type reviewService struct {
	submissions repository.SubmissionRepository
	users       repository.UserRepository
	events      EventPublisher
	logger      zerolog.Logger
}

// NewReviewService constructs a ReviewService.
func NewReviewService(submissions repository.SubmissionRepository, users repository.UserRepository, events EventPublisher, logger zerolog.Logger) ReviewService {
	if events == nil {
		events = NopPublisher{}
	}
	return &reviewService{
		submissions: submissions,
		users:       users,
		events:      events,
		logger:      logger.With().Str("component", "review_service").Logger(),
	}
}

type labeledSubmission struct {
	submission models.ProbingSubmission
	label      string
}

func (s *reviewService) List(ctx context.Context, audience ReviewAudience, filter dto.ReviewFilter) (dto.ReviewListResponse, error) {
	entries, err := s.load(ctx)
	if err != nil {
		return dto.ReviewListResponse{}, err
	}

	response := dto.ReviewListResponse{Items: []dto.ReviewListItem{}}

	selected := ""
	if audience == AudienceAdmin {
		response.Labels = distinctLabels(entries)
		selected = strings.TrimSpace(filter.Label)
		response.Filter = selected
	}

	for _, entry := range entries {
		if selected != "" && entry.label != selected {
			continue
		}
		response.Items = append(response.Items, dto.ReviewListItem{
			ID:           entry.submission.ID,
			Label:        entry.label,
			CreatedAt:    entry.submission.CreatedAt,
			Preview:      ConversationPreview(entry.submission.Conversation, reviewPreviewTurns),
			StudentType:  entry.submission.StudentType,
			QuestionType: entry.submission.QuestionType,
		})
	}

	return response, nil
}

func (s *reviewService) Labels(ctx context.Context) ([]string, error) {
	entries, err := s.load(ctx)
	if err != nil {
		return nil, err
	}
	return distinctLabels(entries), nil
}

func (s *reviewService) Detail(ctx context.Context, audience ReviewAudience, id string) (dto.ReviewDetailResponse, error) {
	submission, err := s.submissions.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.ReviewDetailResponse{}, ErrSubmissionNotFound
		}
		return dto.ReviewDetailResponse{}, fmt.Errorf("load submission: %w", err)
	}

	directory, err := linkedDirectory(ctx, s.users)
	if err != nil {
		return dto.ReviewDetailResponse{}, err
	}

	detail := dto.ReviewDetailResponse{
		ID:               submission.ID,
		Label:            contributorLabel(submission, directory),
		CreatedAt:        submission.CreatedAt,
		Conversation:     []dto.ReviewConversationRow{},
		ProbingQuestions: []dto.ReviewProbingRow{},
		Deletable:        audience == AudienceAdmin,
	}

	if characteristics := strings.TrimSpace(submission.StudentCharacteristics); characteristics != "" {
		detail.StudentCharacteristics = &characteristics
	}

	for _, turn := range submission.Conversation {
		detail.Conversation = append(detail.Conversation, dto.ReviewConversationRow{
			Speaker: placeholderIfBlank(turn.Speaker),
			Message: placeholderIfBlank(turn.Message),
		})
	}
	if len(detail.Conversation) == 0 {
		detail.ConversationEmpty = dto.EmptyConversationDetail
	}

	for _, entry := range submission.ProbingQuestions {
		detail.ProbingQuestions = append(detail.ProbingQuestions, dto.ReviewProbingRow{
			Situation: placeholderIfBlank(entry.Situation),
			Question:  placeholderIfBlank(entry.Question),
		})
	}
	if len(detail.ProbingQuestions) == 0 {
		detail.ProbingEmpty = dto.EmptyProbingDetail
	}

	return detail, nil
}

func (s *reviewService) Delete(ctx context.Context, id string) (dto.ReviewDeleteResponse, error) {
	if err := s.submissions.Delete(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.ReviewDeleteResponse{}, ErrSubmissionNotFound
		}
		return dto.ReviewDeleteResponse{}, fmt.Errorf("delete submission: %w", err)
	}

	observability.ContextLogger(ctx, s.logger).Info().Str("submission_id", id).Msg("submission deleted")
	s.events.Publish(ctx, EventSubmissionDeleted, map[string]string{"id": id})

	return dto.ReviewDeleteResponse{
		DeletedID: id,
		Detail:    dto.EmptyDetailResponse{Placeholder: dto.EmptySelectionDetail},
	}, nil
}

func (s *reviewService) load(ctx context.Context) ([]labeledSubmission, error) {
	return loadLabeledSubmissions(ctx, s.submissions, s.users)
}

// loadLabeledSubmissions returns every submission newest first with its contributor label.
func loadLabeledSubmissions(ctx context.Context, submissionRepo repository.SubmissionRepository, userRepo repository.UserRepository) ([]labeledSubmission, error) {
	submissions, err := submissionRepo.List(ctx, repository.SubmissionFilter{})
	if err != nil {
		return nil, fmt.Errorf("load submissions: %w", err)
	}

	directory, err := linkedDirectory(ctx, userRepo)
	if err != nil {
		return nil, err
	}

	SortSubmissionsNewestFirst(submissions)

	entries := make([]labeledSubmission, 0, len(submissions))
	for _, submission := range submissions {
		entries = append(entries, labeledSubmission{
			submission: submission,
			label:      contributorLabel(submission, directory),
		})
	}
	return entries, nil
}

// linkedDirectory maps linked identities to their registry record.
func linkedDirectory(ctx context.Context, userRepo repository.UserRepository) (map[string]models.RegistryUser, error) {
	users, err := userRepo.ListLinked(ctx)
	if err != nil {
		return nil, fmt.Errorf("load users: %w", err)
	}

	directory := make(map[string]models.RegistryUser, len(users))
	for _, user := range users {
		if user.IsLinked() {
			directory[*user.UID] = user
		}
	}
	return directory, nil
}

func contributorLabel(submission models.ProbingSubmission, directory map[string]models.RegistryUser) string {
	if user, ok := directory[submission.UID]; ok && submission.UID != "" {
		return user.Label()
	}
	if name := strings.TrimSpace(submission.DisplayName); name != "" {
		return name
	}
	return dto.AnonymousLabel
}

func distinctLabels(entries []labeledSubmission) []string {
	seen := make(map[string]struct{}, len(entries))
	labels := make([]string, 0, len(entries))
	for _, entry := range entries {
		if _, ok := seen[entry.label]; ok {
			continue
		}
		seen[entry.label] = struct{}{}
		labels = append(labels, entry.label)
	}
	return labels
}

func placeholderIfBlank(value string) string {
	if strings.TrimSpace(value) == "" {
		return dto.EmptyCellPlaceholder
	}
	return value
}
