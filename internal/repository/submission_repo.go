package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/noah-isme/probing-go-api/internal/models"
)

// SubmissionFilter allows narrowing submission queries.
type SubmissionFilter struct {
	UID          *string
	StudentType  *string
	QuestionType *string
}

// SubmissionRepository defines data operations for probing question submissions.
type SubmissionRepository interface {
	List(ctx context.Context, filter SubmissionFilter) ([]models.ProbingSubmission, error)
	GetByID(ctx context.Context, id string) (models.ProbingSubmission, error)
	Create(ctx context.Context, submission *models.ProbingSubmission) error
	Delete(ctx context.Context, id string) error
}

type submissionRepository struct {
	db *gorm.DB
}

// NewSubmissionRepository instantiates the repository.
func NewSubmissionRepository(db *gorm.DB) SubmissionRepository {
	return &submissionRepository{db: db}
}

func (r *submissionRepository) List(ctx context.Context, filter SubmissionFilter) ([]models.ProbingSubmission, error) {
	query := r.db.WithContext(ctx).Model(&models.ProbingSubmission{})

	if filter.UID != nil {
		query = query.Where("uid = ?", *filter.UID)
	}

	if filter.StudentType != nil {
		query = query.Where("student_type = ?", *filter.StudentType)
	}

	if filter.QuestionType != nil {
		query = query.Where("question_type = ?", *filter.QuestionType)
	}

	var submissions []models.ProbingSubmission
	if err := query.Find(&submissions).Error; err != nil {
		return nil, err
	}

	return submissions, nil
}

func (r *submissionRepository) GetByID(ctx context.Context, id string) (models.ProbingSubmission, error) {
	var submission models.ProbingSubmission
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&submission).Error; err != nil {
		return models.ProbingSubmission{}, err
	}
	return submission, nil
}

func (r *submissionRepository) Create(ctx context.Context, submission *models.ProbingSubmission) error {
	return r.db.WithContext(ctx).Create(submission).Error
}

func (r *submissionRepository) Delete(ctx context.Context, id string) error {
	result := r.db.WithContext(ctx).Where("id = ?", id).Delete(&models.ProbingSubmission{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
