package events

import (
	"encoding/json"

	"github.com/payperplay/mcwatch/internal/models"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// DatabaseEventStorage stores events in PostgreSQL
type DatabaseEventStorage struct {
	db *gorm.DB
}

// NewDatabaseEventStorage creates a new database event storage
func NewDatabaseEventStorage(db *gorm.DB) *DatabaseEventStorage {
	return &DatabaseEventStorage{db: db}
}

// Store saves an event to the database
func (s *DatabaseEventStorage) Store(event Event) error {
	dataJSON, err := json.Marshal(event.Data)
	if err != nil {
		return err
	}

	return s.db.Create(&models.SystemEvent{
		EventID:   event.ID,
		Type:      string(event.Type),
		Timestamp: event.Timestamp,
		Source:    event.Source,
		ChannelID: event.ChannelID,
		UserID:    event.UserID,
		Data:      datatypes.JSON(dataJSON),
	}).Error
}

// Query retrieves events based on filters, newest first
func (s *DatabaseEventStorage) Query(filters EventFilters) ([]Event, error) {
	query := s.db.Model(&models.SystemEvent{})

	if len(filters.Types) > 0 {
		types := make([]string, len(filters.Types))
		for i, t := range filters.Types {
			types[i] = string(t)
		}
		query = query.Where("type IN ?", types)
	}

	if filters.ChannelID != "" {
		query = query.Where("channel_id = ?", filters.ChannelID)
	}

	if filters.UserID != "" {
		query = query.Where("user_id = ?", filters.UserID)
	}

	if !filters.StartTime.IsZero() {
		query = query.Where("timestamp >= ?", filters.StartTime)
	}

	if !filters.EndTime.IsZero() {
		query = query.Where("timestamp <= ?", filters.EndTime)
	}

	limit := filters.Limit
	if limit <= 0 {
		limit = 1000
	}

	var rows []models.SystemEvent
	if err := query.Order("timestamp DESC").Limit(limit).Find(&rows).Error; err != nil {
		return nil, err
	}

	out := make([]Event, len(rows))
	for i, row := range rows {
		data := make(map[string]interface{})
		_ = json.Unmarshal([]byte(row.Data), &data)

		out[i] = Event{
			ID:        row.EventID,
			Type:      EventType(row.Type),
			Timestamp: row.Timestamp,
			Source:    row.Source,
			ChannelID: row.ChannelID,
			UserID:    row.UserID,
			Data:      data,
		}
	}

	return out, nil
}
