package repository

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/noah-isme/probing-go-api/internal/models"
)

// SettingsRepository reads and writes the menu settings singleton.
type SettingsRepository interface {
	Get(ctx context.Context) (models.MenuSettings, error)
	Save(ctx context.Context, settings *models.MenuSettings) error
}

type settingsRepository struct {
	db *gorm.DB
}

// NewSettingsRepository instantiates the repository.
func NewSettingsRepository(db *gorm.DB) SettingsRepository {
	return &settingsRepository{db: db}
}

// Get returns gorm.ErrRecordNotFound when the singleton has never been written.
func (r *settingsRepository) Get(ctx context.Context) (models.MenuSettings, error) {
	var settings models.MenuSettings
	if err := r.db.WithContext(ctx).Where("id = ?", models.MenuSettingsID).First(&settings).Error; err != nil {
		return models.MenuSettings{}, err
	}
	return settings, nil
}

func (r *settingsRepository) Save(ctx context.Context, settings *models.MenuSettings) error {
	settings.ID = models.MenuSettingsID
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "id"}},
			DoUpdates: clause.AssignmentColumns([]string{"flags", "updated_at"}),
		}).
		Create(settings).Error
}
