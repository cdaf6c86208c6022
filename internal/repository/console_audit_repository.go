package repository

import (
	"github.com/payperplay/mcwatch/internal/models"
	"gorm.io/gorm"
)

type ConsoleAuditRepository struct {
	db *gorm.DB
}

func NewConsoleAuditRepository(db *gorm.DB) *ConsoleAuditRepository {
	return &ConsoleAuditRepository{db: db}
}

func (r *ConsoleAuditRepository) Create(entry *models.ConsoleAuditEntry) error {
	return r.db.Create(entry).Error
}

// FindByChannel returns the newest entries for a channel first
func (r *ConsoleAuditRepository) FindByChannel(channelID int64, limit int) ([]models.ConsoleAuditEntry, error) {
	var entries []models.ConsoleAuditEntry
	err := r.db.Where("channel_id = ?", channelID).
		Order("created_at DESC").
		Limit(limit).
		Find(&entries).Error
	return entries, err
}
