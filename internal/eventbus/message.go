// Package eventbus carries catalog events between host processes over a
// Redis stream.
package eventbus

import (
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/noah-isme/openedx-sample-plugin/pkg/events"
)

// Stream entry field names.
const (
	fieldID           = "id"
	fieldType         = "type"
	fieldSource       = "source"
	fieldSourceHost   = "sourcehost"
	fieldSourceLib    = "sourcelib"
	fieldMinorVersion = "minorversion"
	fieldTime         = "time"
	fieldData         = "event_data"
)

// Message is one decoded stream entry.
type Message struct {
	StreamID string
	Meta     events.Metadata
	Data     *events.CourseCatalogData
}

// Encode renders an event as stream entry values.
func Encode(meta events.Metadata, data *events.CourseCatalogData) (map[string]interface{}, error) {
	payload, err := json.Marshal(data)
	if err != nil {
		return nil, fmt.Errorf("encode event data: %w", err)
	}
	return map[string]interface{}{
		fieldID:           meta.ID.String(),
		fieldType:         meta.EventType,
		fieldSource:       meta.Source,
		fieldSourceHost:   meta.SourceHost,
		fieldSourceLib:    meta.SourceLib,
		fieldMinorVersion: strconv.Itoa(meta.MinorVersion),
		fieldTime:         meta.Time.UTC().Format(time.RFC3339Nano),
		fieldData:         string(payload),
	}, nil
}

// Decode parses a stream entry written by Encode.
func Decode(msg redis.XMessage) (Message, error) {
	get := func(key string) string {
		v, _ := msg.Values[key].(string)
		return v
	}

	out := Message{StreamID: msg.ID}
	id, err := uuid.Parse(get(fieldID))
	if err != nil {
		return out, fmt.Errorf("decode %s: event id: %w", msg.ID, err)
	}
	eventTime, err := time.Parse(time.RFC3339Nano, get(fieldTime))
	if err != nil {
		return out, fmt.Errorf("decode %s: event time: %w", msg.ID, err)
	}
	minor := 0
	if raw := get(fieldMinorVersion); raw != "" {
		if minor, err = strconv.Atoi(raw); err != nil {
			return out, fmt.Errorf("decode %s: minor version: %w", msg.ID, err)
		}
	}
	out.Meta = events.Metadata{
		ID:           id,
		EventType:    get(fieldType),
		MinorVersion: minor,
		Source:       get(fieldSource),
		SourceHost:   get(fieldSourceHost),
		SourceLib:    get(fieldSourceLib),
		Time:         eventTime,
	}

	raw := get(fieldData)
	if raw == "" {
		return out, fmt.Errorf("decode %s: empty event data", msg.ID)
	}
	var data events.CourseCatalogData
	if err := json.Unmarshal([]byte(raw), &data); err != nil {
		return out, fmt.Errorf("decode %s: event data: %w", msg.ID, err)
	}
	out.Data = &data
	return out, nil
}
