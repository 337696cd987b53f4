package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/noah-isme/probing-go-api/internal/models"
)

// UserRepository defines data operations for registry users.
type UserRepository interface {
	List(ctx context.Context) ([]models.RegistryUser, error)
	ListLinked(ctx context.Context) ([]models.RegistryUser, error)
	GetByID(ctx context.Context, id string) (models.RegistryUser, error)
	GetByUID(ctx context.Context, uid string) (models.RegistryUser, error)
	FindUnlinkedByCode(ctx context.Context, code string) (models.RegistryUser, error)
	Create(ctx context.Context, user *models.RegistryUser) error
	Link(ctx context.Context, id, uid string, linkedAt time.Time) error
	Delete(ctx context.Context, id string) error
}

type userRepository struct {
	db *gorm.DB
}

// NewUserRepository instantiates the repository.
func NewUserRepository(db *gorm.DB) UserRepository {
	return &userRepository{db: db}
}

func (r *userRepository) List(ctx context.Context) ([]models.RegistryUser, error) {
	var users []models.RegistryUser
	if err := r.db.WithContext(ctx).Find(&users).Error; err != nil {
		return nil, err
	}
	return users, nil
}

func (r *userRepository) ListLinked(ctx context.Context) ([]models.RegistryUser, error) {
	var users []models.RegistryUser
	if err := r.db.WithContext(ctx).
		Where("uid IS NOT NULL AND uid <> ''").
		Find(&users).Error; err != nil {
		return nil, err
	}
	return users, nil
}

func (r *userRepository) GetByID(ctx context.Context, id string) (models.RegistryUser, error) {
	var user models.RegistryUser
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&user).Error; err != nil {
		return models.RegistryUser{}, err
	}
	return user, nil
}

func (r *userRepository) GetByUID(ctx context.Context, uid string) (models.RegistryUser, error) {
	var user models.RegistryUser
	if err := r.db.WithContext(ctx).Where("uid = ?", uid).First(&user).Error; err != nil {
		return models.RegistryUser{}, err
	}
	return user, nil
}

// FindUnlinkedByCode returns the oldest pending record carrying the code.
func (r *userRepository) FindUnlinkedByCode(ctx context.Context, code string) (models.RegistryUser, error) {
	var user models.RegistryUser
	if err := r.db.WithContext(ctx).
		Where("code = ?", code).
		Where("uid IS NULL OR uid = ''").
		Order("created_at ASC").
		First(&user).Error; err != nil {
		return models.RegistryUser{}, err
	}
	return user, nil
}

func (r *userRepository) Create(ctx context.Context, user *models.RegistryUser) error {
	return r.db.WithContext(ctx).Create(user).Error
}

// Link claims a pending record. The uid guard keeps a record from being linked twice.
func (r *userRepository) Link(ctx context.Context, id, uid string, linkedAt time.Time) error {
	result := r.db.WithContext(ctx).
		Model(&models.RegistryUser{}).
		Where("id = ?", id).
		Where("uid IS NULL OR uid = ''").
		Updates(map[string]interface{}{"uid": uid, "linked_at": linkedAt})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *userRepository) Delete(ctx context.Context, id string) error {
	result := r.db.WithContext(ctx).Where("id = ?", id).Delete(&models.RegistryUser{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
