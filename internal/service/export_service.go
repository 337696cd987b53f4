package service

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/noah-isme/probing-go-api/internal/dto"
	"github.com/noah-isme/probing-go-api/internal/repository"
)

// FileStorage abstracts export destinations.
type FileStorage interface {
	Upload(ctx context.Context, name string, reader io.Reader) (string, error)
}

// ExportResult carries the rendered archive. Response.URL is empty when no storage is configured.
type ExportResult struct {
	Response dto.ExportResponse
	FileName string
	Content  []byte
}

// ExportService renders every submission as a CSV archive.
type ExportService interface {
	Export(ctx context.Context) (ExportResult, error)
}

type exportService struct {
	submissions repository.SubmissionRepository
	users       repository.UserRepository
	storage     FileStorage
	logger      zerolog.Logger
	tracer      trace.Tracer
	now         func() time.Time
}

var exportHeader = []string{
	"id", "label", "created_at", "question_type", "student_type",
	"student_characteristics", "conversation", "probing_questions",
}

// NewExportService constructs an ExportService. storage may be nil.
func NewExportService(submissions repository.SubmissionRepository, users repository.UserRepository, storage FileStorage, logger zerolog.Logger) ExportService {
	return &exportService{
		submissions: submissions,
		users:       users,
		storage:     storage,
		logger:      logger.With().Str("component", "export_service").Logger(),
		tracer:      otel.Tracer("github.com/noah-isme/probing-go-api/internal/service/export"),
		now:         time.Now,
	}
}

func (s *exportService) Export(ctx context.Context) (ExportResult, error) {
	ctx, span := s.tracer.Start(ctx, "submissions.export")
	defer span.End()

	entries, err := loadLabeledSubmissions(ctx, s.submissions, s.users)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "load failed")
		return ExportResult{}, err
	}

	content, err := renderExport(entries)
	if err != nil {
		span.RecordError(err)
		return ExportResult{}, fmt.Errorf("render export: %w", err)
	}

	exportedAt := s.now().UTC()
	result := ExportResult{
		FileName: fmt.Sprintf("probing-questions-%s.csv", exportedAt.Format("20060102-150405")),
		Content:  content,
		Response: dto.ExportResponse{Count: len(entries), Exported: exportedAt},
	}
	span.SetAttributes(attribute.Int("export.count", len(entries)), attribute.Int("export.bytes", len(content)))

	if s.storage == nil {
		span.SetStatus(codes.Ok, "rendered")
		return result, nil
	}

	url, err := s.storage.Upload(ctx, result.FileName, bytes.NewReader(content))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "storage failed")
		return ExportResult{}, fmt.Errorf("upload export: %w", err)
	}

	result.Response.URL = url
	span.SetStatus(codes.Ok, "stored")
	s.logger.Info().Int("count", len(entries)).Str("url", url).Msg("submissions exported")
	return result, nil
}

func renderExport(entries []labeledSubmission) ([]byte, error) {
	buf := bytes.NewBuffer(nil)
	// Excel needs the BOM to read Hangul as UTF-8.
	buf.WriteString("\xef\xbb\xbf")

	writer := csv.NewWriter(buf)
	if err := writer.Write(exportHeader); err != nil {
		return nil, err
	}

	for _, entry := range entries {
		submission := entry.submission

		createdAt := ""
		if submission.CreatedAt != nil {
			createdAt = submission.CreatedAt.UTC().Format(time.RFC3339)
		}

		turns := make([]string, 0, len(submission.Conversation))
		for _, turn := range submission.Conversation {
			turns = append(turns, turn.Speaker+": "+turn.Message)
		}

		questions := make([]string, 0, len(submission.ProbingQuestions))
		for _, question := range submission.ProbingQuestions {
			questions = append(questions, question.Situation+" -> "+question.Question)
		}

		if err := writer.Write([]string{
			submission.ID,
			entry.label,
			createdAt,
			submission.QuestionType,
			submission.StudentType,
			submission.StudentCharacteristics,
			strings.Join(turns, "\n"),
			strings.Join(questions, "\n"),
		}); err != nil {
			return nil, err
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
