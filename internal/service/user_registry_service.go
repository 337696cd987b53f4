package service

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"sort"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"

	"github.com/noah-isme/probing-go-api/internal/dto"
	"github.com/noah-isme/probing-go-api/internal/models"
	"github.com/noah-isme/probing-go-api/internal/observability"
	"github.com/noah-isme/probing-go-api/internal/repository"
)

// UserRegistryService provisions registry users and links them to identities.
type UserRegistryService interface {
	List(ctx context.Context) ([]dto.RegistryUserResponse, error)
	Add(ctx context.Context, payload dto.RegistryUserCreateRequest) (dto.RegistryUserResponse, error)
	Delete(ctx context.Context, id string) error
	Import(ctx context.Context, file *multipart.FileHeader) (dto.RegistryImportResponse, error)
	Redeem(ctx context.Context, identity Identity, payload dto.LinkCodeRequest) (dto.RegistryUserResponse, error)
	LinkedRecord(ctx context.Context, uid string) (*models.RegistryUser, error)
}

type userRegistryService struct {
	repo      repository.UserRepository
	events    EventPublisher
	validator *validator.Validate
	codes     CodeGenerator
	sanitizer textSanitizer
	logger    zerolog.Logger
	tracer    trace.Tracer
	maxImport int64
	now       func() time.Time
	newID     func() string
}

// NewUserRegistryService constructs a UserRegistryService.
func NewUserRegistryService(repo repository.UserRepository, events EventPublisher, validate *validator.Validate, codes CodeGenerator, maxImportKB int, logger zerolog.Logger) UserRegistryService {
	if events == nil {
		events = NopPublisher{}
	}
	if codes == nil {
		codes = NewCodeGenerator(nil)
	}
	if maxImportKB <= 0 {
		maxImportKB = 512
	}
	return &userRegistryService{
		repo:      repo,
		events:    events,
		validator: validate,
		codes:     codes,
		sanitizer: newTextSanitizer(),
		logger:    logger.With().Str("component", "user_registry_service").Logger(),
		tracer:    otel.Tracer("github.com/noah-isme/probing-go-api/internal/service/registry"),
		maxImport: int64(maxImportKB) * 1024,
		now:       time.Now,
		newID:     uuid.NewString,
	}
}

func (s *userRegistryService) List(ctx context.Context) ([]dto.RegistryUserResponse, error) {
	users, err := s.repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("load users: %w", err)
	}

	sort.SliceStable(users, func(i, j int) bool {
		return newerThan(users[i].CreatedAt, users[j].CreatedAt)
	})

	return dto.NewRegistryUserResponseSlice(users), nil
}

func (s *userRegistryService) Add(ctx context.Context, payload dto.RegistryUserCreateRequest) (dto.RegistryUserResponse, error) {
	payload.Name = s.sanitizer.Clean(payload.Name)
	payload.Affiliation = s.sanitizer.Clean(payload.Affiliation)
	if err := s.validator.Struct(payload); err != nil {
		return dto.RegistryUserResponse{}, err
	}

	user, err := s.create(ctx, payload.Name, payload.Affiliation)
	if err != nil {
		return dto.RegistryUserResponse{}, err
	}
	return dto.NewRegistryUserResponse(user), nil
}

func (s *userRegistryService) create(ctx context.Context, name, affiliation string) (models.RegistryUser, error) {
	createdAt := s.now()
	user := models.RegistryUser{
		ID:          s.newID(),
		Name:        name,
		Affiliation: affiliation,
		Code:        s.codes(),
		CreatedAt:   &createdAt,
	}

	if err := s.repo.Create(ctx, &user); err != nil {
		return models.RegistryUser{}, fmt.Errorf("add user: %w", err)
	}

	observability.RegistryMutations().WithLabelValues("create").Inc()
	observability.ContextLogger(ctx, s.logger).Info().Str("user_id", user.ID).Msg("registry user created")
	s.events.Publish(ctx, EventUserCreated, dto.NewRegistryUserResponse(user))
	return user, nil
}

func (s *userRegistryService) Delete(ctx context.Context, id string) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrUserNotFound
		}
		return fmt.Errorf("delete user: %w", err)
	}

	observability.RegistryMutations().WithLabelValues("delete").Inc()
	observability.ContextLogger(ctx, s.logger).Info().Str("user_id", id).Msg("registry user deleted")
	s.events.Publish(ctx, EventUserDeleted, map[string]string{"id": id})
	return nil
}

func (s *userRegistryService) Import(ctx context.Context, file *multipart.FileHeader) (dto.RegistryImportResponse, error) {
	ctx, span := s.tracer.Start(ctx, "registry.import")
	defer span.End()

	if file == nil {
		err := errors.New("file is required")
		span.RecordError(err)
		span.SetStatus(codes.Error, "validation failed")
		return dto.RegistryImportResponse{}, err
	}
	span.SetAttributes(attribute.Int64("import.request_size", file.Size))

	if file.Size > s.maxImport {
		span.SetStatus(codes.Error, "payload too large")
		return dto.RegistryImportResponse{}, ErrImportTooLarge
	}

	handle, err := file.Open()
	if err != nil {
		span.RecordError(err)
		return dto.RegistryImportResponse{}, err
	}
	defer handle.Close()

	buf := bytes.NewBuffer(nil)
	if _, err := io.Copy(buf, io.LimitReader(handle, s.maxImport+1)); err != nil {
		span.RecordError(err)
		return dto.RegistryImportResponse{}, err
	}
	if int64(buf.Len()) > s.maxImport {
		span.SetStatus(codes.Error, "payload too large")
		return dto.RegistryImportResponse{}, ErrImportTooLarge
	}

	detected := mimetype.Detect(buf.Bytes())
	span.SetAttributes(attribute.String("import.detected_mime", detected.String()))
	if !isTextMime(detected) {
		span.SetStatus(codes.Error, "type not allowed")
		return dto.RegistryImportResponse{}, ErrImportTypeNotAllowed
	}

	reader := csv.NewReader(bytes.NewReader(bytes.TrimPrefix(buf.Bytes(), []byte("\xef\xbb\xbf"))))
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	response := dto.RegistryImportResponse{
		Created:  []dto.RegistryUserResponse{},
		Rejected: []dto.RegistryImportRejection{},
	}

	first := true
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			var parseErr *csv.ParseError
			line := 0
			if errors.As(err, &parseErr) {
				line = parseErr.Line
			}
			response.Rejected = append(response.Rejected, dto.RegistryImportRejection{Line: line, Reason: err.Error()})
			break
		}

		line, _ := reader.FieldPos(0)
		if first {
			first = false
			if isImportHeader(record) {
				continue
			}
		}
		if len(record) != 2 {
			response.Rejected = append(response.Rejected, dto.RegistryImportRejection{Line: line, Reason: "expected name and affiliation"})
			continue
		}

		payload := dto.RegistryUserCreateRequest{
			Name:        s.sanitizer.Clean(record[0]),
			Affiliation: s.sanitizer.Clean(record[1]),
		}
		if err := s.validator.Struct(payload); err != nil {
			response.Rejected = append(response.Rejected, dto.RegistryImportRejection{Line: line, Reason: "name and affiliation are required"})
			continue
		}

		user, err := s.create(ctx, payload.Name, payload.Affiliation)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "persistence failed")
			return response, err
		}
		response.Created = append(response.Created, dto.NewRegistryUserResponse(user))
	}

	span.SetAttributes(
		attribute.Int("import.created", len(response.Created)),
		attribute.Int("import.rejected", len(response.Rejected)),
	)
	span.SetStatus(codes.Ok, "imported")
	s.logger.Info().Int("created", len(response.Created)).Int("rejected", len(response.Rejected)).Msg("registry import finished")

	return response, nil
}

func (s *userRegistryService) Redeem(ctx context.Context, identity Identity, payload dto.LinkCodeRequest) (dto.RegistryUserResponse, error) {
	if !identity.SignedIn() {
		return dto.RegistryUserResponse{}, ErrSignInRequired
	}

	payload.Code = strings.ToUpper(strings.TrimSpace(payload.Code))
	if err := s.validator.Struct(payload); err != nil {
		observability.LinkRedemptions().WithLabelValues("invalid").Inc()
		return dto.RegistryUserResponse{}, err
	}

	existing, err := s.LinkedRecord(ctx, identity.UID)
	if err != nil {
		return dto.RegistryUserResponse{}, err
	}
	if existing != nil {
		observability.LinkRedemptions().WithLabelValues("already_linked").Inc()
		return dto.RegistryUserResponse{}, ErrAlreadyLinked
	}

	user, err := s.repo.FindUnlinkedByCode(ctx, payload.Code)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			observability.LinkRedemptions().WithLabelValues("not_found").Inc()
			return dto.RegistryUserResponse{}, ErrCodeNotFound
		}
		return dto.RegistryUserResponse{}, fmt.Errorf("find linking code: %w", err)
	}

	linkedAt := s.now()
	if err := s.repo.Link(ctx, user.ID, identity.UID, linkedAt); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			observability.LinkRedemptions().WithLabelValues("not_found").Inc()
			return dto.RegistryUserResponse{}, ErrCodeNotFound
		}
		return dto.RegistryUserResponse{}, fmt.Errorf("link user: %w", err)
	}

	uid := identity.UID
	user.UID = &uid
	user.LinkedAt = &linkedAt

	observability.LinkRedemptions().WithLabelValues("linked").Inc()
	s.logger.Info().Str("user_id", user.ID).Str("uid", uid).Msg("registry user linked")

	response := dto.NewRegistryUserResponse(user)
	s.events.Publish(ctx, EventUserLinked, response)
	return response, nil
}

// LinkedRecord returns the registry record owned by uid, or nil when none is linked.
func (s *userRegistryService) LinkedRecord(ctx context.Context, uid string) (*models.RegistryUser, error) {
	user, err := s.repo.GetByUID(ctx, uid)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("load linked user: %w", err)
	}
	return &user, nil
}

func isTextMime(detected *mimetype.MIME) bool {
	for current := detected; current != nil; current = current.Parent() {
		if current.Is("text/plain") || current.Is("text/csv") {
			return true
		}
	}
	return false
}

func isImportHeader(record []string) bool {
	if len(record) == 0 {
		return false
	}
	first := strings.ToLower(strings.TrimSpace(record[0]))
	return first == "name" || first == "이름"
}
