package storage

import (
	"context"
	"fmt"
	"strings"
	"time"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	"github.com/influxdata/influxdb-client-go/v2/api"
	"github.com/influxdata/influxdb-client-go/v2/api/write"
	"github.com/payperplay/mcwatch/pkg/logger"
)

const (
	measurementEvent  = "bot_event"
	measurementStatus = "server_status"
)

// EventData mirrors events.Event without importing it
type EventData struct {
	ID        string
	Type      string
	Timestamp time.Time
	Source    string
	ChannelID string
	UserID    string
	Data      map[string]interface{}
}

// EventFilters for querying events
type EventFilters struct {
	Types     []string
	ChannelID string
	UserID    string
	StartTime time.Time
	EndTime   time.Time
	Limit     int
}

// StatusSample is one probe outcome for the status history
type StatusSample struct {
	ChannelID  string
	Address    string
	Type       string
	Online     bool
	Players    int
	MaxPlayers int
	LatencyMs  int64
	Timestamp  time.Time
}

// InfluxDBClient writes status history and bot events to InfluxDB
type InfluxDBClient struct {
	client   influxdb2.Client
	writeAPI api.WriteAPI
	queryAPI api.QueryAPI
	org      string
	bucket   string
}

// InfluxDBConfig holds InfluxDB connection configuration
type InfluxDBConfig struct {
	URL    string
	Token  string
	Org    string
	Bucket string
}

// NewInfluxDBClient connects and verifies the server is healthy
func NewInfluxDBClient(config InfluxDBConfig) (*InfluxDBClient, error) {
	client := influxdb2.NewClient(config.URL, config.Token)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	health, err := client.Health(ctx)
	if err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to InfluxDB: %w", err)
	}

	if health.Status != "pass" {
		client.Close()
		msg := ""
		if health.Message != nil {
			msg = *health.Message
		}
		return nil, fmt.Errorf("InfluxDB health check failed: %s", msg)
	}

	logger.Info("InfluxDB connection established", map[string]interface{}{
		"url":    config.URL,
		"org":    config.Org,
		"bucket": config.Bucket,
	})

	writeAPI := client.WriteAPI(config.Org, config.Bucket)
	go func() {
		for err := range writeAPI.Errors() {
			logger.Warn("InfluxDB write failed", map[string]interface{}{"error": err.Error()})
		}
	}()

	return &InfluxDBClient{
		client:   client,
		writeAPI: writeAPI,
		queryAPI: client.QueryAPI(config.Org),
		org:      config.Org,
		bucket:   config.Bucket,
	}, nil
}

// StatusPoint builds the server_status point for a sample
func StatusPoint(sample StatusSample) *write.Point {
	return influxdb2.NewPoint(
		measurementStatus,
		map[string]string{
			"channel_id": sample.ChannelID,
			"address":    sample.Address,
			"type":       sample.Type,
		},
		map[string]interface{}{
			"online":      sample.Online,
			"players":     sample.Players,
			"max_players": sample.MaxPlayers,
			"latency_ms":  sample.LatencyMs,
		},
		sample.Timestamp,
	)
}

// WriteStatusSample queues one probe outcome (non-blocking)
func (c *InfluxDBClient) WriteStatusSample(sample StatusSample) {
	if sample.Timestamp.IsZero() {
		sample.Timestamp = time.Now()
	}
	c.writeAPI.WritePoint(StatusPoint(sample))
}

// WriteEvent writes an event as a time-series point
func (c *InfluxDBClient) WriteEvent(event EventData) error {
	fields := make(map[string]interface{}, len(event.Data)+1)
	for k, v := range event.Data {
		fields[k] = v
	}
	// A point needs at least one field
	fields["count"] = 1

	c.writeAPI.WritePoint(influxdb2.NewPoint(
		measurementEvent,
		map[string]string{
			"event_id":   event.ID,
			"event_type": event.Type,
			"source":     event.Source,
			"channel_id": event.ChannelID,
			"user_id":    event.UserID,
		},
		fields,
		event.Timestamp,
	))
	return nil
}

// Flush ensures all pending writes are sent to InfluxDB
func (c *InfluxDBClient) Flush() {
	c.writeAPI.Flush()
}

// QueryEvents queries events with filters, newest first
func (c *InfluxDBClient) QueryEvents(ctx context.Context, filters EventFilters) ([]EventData, error) {
	result, err := c.queryAPI.Query(ctx, BuildEventQuery(c.bucket, filters))
	if err != nil {
		return nil, fmt.Errorf("failed to query InfluxDB: %w", err)
	}

	var eventsList []EventData
	for result.Next() {
		record := result.Record()

		event := EventData{
			ID:        tagValue(record.ValueByKey("event_id")),
			Type:      tagValue(record.ValueByKey("event_type")),
			Timestamp: record.Time(),
			Source:    tagValue(record.ValueByKey("source")),
			ChannelID: tagValue(record.ValueByKey("channel_id")),
			UserID:    tagValue(record.ValueByKey("user_id")),
			Data:      make(map[string]interface{}),
		}

		for k, v := range record.Values() {
			if strings.HasPrefix(k, "_") || k == "result" || k == "table" {
				continue
			}
			switch k {
			case "event_id", "event_type", "source", "channel_id", "user_id", "count":
				continue
			}
			event.Data[k] = v
		}

		eventsList = append(eventsList, event)

		if filters.Limit > 0 && len(eventsList) >= filters.Limit {
			break
		}
	}

	if result.Err() != nil {
		return nil, fmt.Errorf("query parsing failed: %w", result.Err())
	}

	return eventsList, nil
}

func tagValue(v interface{}) string {
	s, _ := v.(string)
	return s
}

// BuildEventQuery builds a Flux query from filters
func BuildEventQuery(bucket string, filters EventFilters) string {
	var b strings.Builder
	fmt.Fprintf(&b, `from(bucket: "%s")`, bucket)

	if !filters.StartTime.IsZero() {
		fmt.Fprintf(&b, "\n  |> range(start: %s", filters.StartTime.Format(time.RFC3339))
		if !filters.EndTime.IsZero() {
			fmt.Fprintf(&b, ", stop: %s", filters.EndTime.Format(time.RFC3339))
		}
		b.WriteString(")")
	} else {
		b.WriteString("\n  |> range(start: -24h)")
	}

	fmt.Fprintf(&b, "\n  |> filter(fn: (r) => r._measurement == \"%s\")", measurementEvent)
	b.WriteString("\n  |> pivot(rowKey: [\"_time\"], columnKey: [\"_field\"], valueColumn: \"_value\")")

	if len(filters.Types) > 0 {
		clauses := make([]string, len(filters.Types))
		for i, eventType := range filters.Types {
			clauses[i] = fmt.Sprintf(`r.event_type == "%s"`, eventType)
		}
		fmt.Fprintf(&b, "\n  |> filter(fn: (r) => %s)", strings.Join(clauses, " or "))
	}

	if filters.ChannelID != "" {
		fmt.Fprintf(&b, "\n  |> filter(fn: (r) => r.channel_id == \"%s\")", filters.ChannelID)
	}

	if filters.UserID != "" {
		fmt.Fprintf(&b, "\n  |> filter(fn: (r) => r.user_id == \"%s\")", filters.UserID)
	}

	b.WriteString("\n  |> sort(columns: [\"_time\"], desc: true)")

	if filters.Limit > 0 {
		fmt.Fprintf(&b, "\n  |> limit(n: %d)", filters.Limit)
	}

	return b.String()
}

// Close flushes pending writes and closes the client
func (c *InfluxDBClient) Close() {
	c.writeAPI.Flush()
	c.client.Close()
	logger.Info("InfluxDB client closed", nil)
}
