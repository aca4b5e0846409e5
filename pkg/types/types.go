package types

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// BotStatus is the lifecycle state of a bot.
type BotStatus string

// Known bot states. The set is closed.
const (
	BotEnabled  BotStatus = "ENABLED"
	BotDisabled BotStatus = "DISABLED"
	BotPaused   BotStatus = "PAUSED"
)

// Valid reports whether s is one of the known states.
func (s BotStatus) Valid() bool {
	switch s {
	case BotEnabled, BotDisabled, BotPaused:
		return true
	}
	return false
}

// Bot is a top-level managed entity.
type Bot struct {
	ID          string    `json:"id" yaml:"id"`
	Created     Timestamp `json:"created" yaml:"created"`
	Name        string    `json:"name" yaml:"name"`
	Status      BotStatus `json:"status" yaml:"status"`
	Description string    `json:"description" yaml:"description"`
}

// Worker is a unit owned by a bot. Bot holds the owning bot's name as it
// appears in the source snapshot; BotID is filled in by the store when that
// name resolves and is empty otherwise.
type Worker struct {
	ID          string    `json:"id" yaml:"id"`
	Created     Timestamp `json:"created" yaml:"created"`
	Bot         string    `json:"bot" yaml:"bot"`
	BotID       string    `json:"botId,omitempty" yaml:"botId,omitempty"`
	Name        string    `json:"name" yaml:"name"`
	Description string    `json:"description" yaml:"description"`
}

// Log is a timestamped message attributed to a bot and a worker. Bot and
// Worker are the raw references from the snapshot (an id or a name); BotID
// and WorkerID are the ids the store resolved them to.
type Log struct {
	ID       string    `json:"id" yaml:"id"`
	Created  Timestamp `json:"created" yaml:"created"`
	Bot      string    `json:"bot" yaml:"bot"`
	Worker   string    `json:"worker" yaml:"worker"`
	BotID    string    `json:"botId,omitempty" yaml:"botId,omitempty"`
	WorkerID string    `json:"workerId,omitempty" yaml:"workerId,omitempty"`
	Message  string    `json:"message" yaml:"message"`
}

// Timestamp is a point in time in milliseconds since the Unix epoch.
//
// It encodes as a JSON number. It decodes from a number or from an RFC 3339
// string, since snapshots in the wild carry both.
type Timestamp int64

// TimestampOf converts t to a Timestamp.
func TimestampOf(t time.Time) Timestamp { return Timestamp(t.UnixMilli()) }

// Time returns the timestamp as a UTC time.Time.
func (ts Timestamp) Time() time.Time { return time.UnixMilli(int64(ts)).UTC() }

// MarshalJSON implements json.Marshaler.
func (ts Timestamp) MarshalJSON() ([]byte, error) {
	return strconv.AppendInt(nil, int64(ts), 10), nil
}

// UnmarshalJSON implements json.Unmarshaler.
func (ts *Timestamp) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*ts = 0
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		return ts.parse(s)
	}
	return ts.parse(string(data))
}

// UnmarshalYAML implements yaml.Unmarshaler.
func (ts *Timestamp) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind != yaml.ScalarNode {
		return fmt.Errorf("timestamp: expected scalar, got yaml kind %d", value.Kind)
	}
	return ts.parse(value.Value)
}

func (ts *Timestamp) parse(s string) error {
	if s == "" {
		*ts = 0
		return nil
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return fmt.Errorf("timestamp: %q is not a finite number", s)
		}
		*ts = Timestamp(f)
		return nil
	}
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return fmt.Errorf("timestamp: %q is neither epoch milliseconds nor RFC 3339", s)
	}
	*ts = TimestampOf(t)
	return nil
}
