package events

import (
	"context"
	"time"

	"github.com/payperplay/mcwatch/internal/storage"
)

// InfluxDBEventStorage stores events in InfluxDB next to the status history
type InfluxDBEventStorage struct {
	client *storage.InfluxDBClient
}

// NewInfluxDBEventStorage creates a new InfluxDB event storage
func NewInfluxDBEventStorage(client *storage.InfluxDBClient) *InfluxDBEventStorage {
	return &InfluxDBEventStorage{client: client}
}

// Store saves an event to InfluxDB
func (s *InfluxDBEventStorage) Store(event Event) error {
	return s.client.WriteEvent(storage.EventData{
		ID:        event.ID,
		Type:      string(event.Type),
		Timestamp: event.Timestamp,
		Source:    event.Source,
		ChannelID: event.ChannelID,
		UserID:    event.UserID,
		Data:      event.Data,
	})
}

// Query retrieves events from InfluxDB based on filters
func (s *InfluxDBEventStorage) Query(filters EventFilters) ([]Event, error) {
	storageFilters := storage.EventFilters{
		Types:     make([]string, len(filters.Types)),
		ChannelID: filters.ChannelID,
		UserID:    filters.UserID,
		StartTime: filters.StartTime,
		EndTime:   filters.EndTime,
		Limit:     filters.Limit,
	}
	for i, t := range filters.Types {
		storageFilters.Types[i] = string(t)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	rows, err := s.client.QueryEvents(ctx, storageFilters)
	if err != nil {
		return nil, err
	}

	out := make([]Event, len(rows))
	for i, row := range rows {
		out[i] = Event{
			ID:        row.ID,
			Type:      EventType(row.Type),
			Timestamp: row.Timestamp,
			Source:    row.Source,
			ChannelID: row.ChannelID,
			UserID:    row.UserID,
			Data:      row.Data,
		}
	}

	return out, nil
}
