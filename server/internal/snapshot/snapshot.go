package snapshot

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/botdeck/botdeck/pkg/types"
	"github.com/botdeck/botdeck/server/internal/config"
	"github.com/botdeck/botdeck/server/internal/store"
)

// ErrInvalidSnapshot is wrapped by every error caused by the content of a
// snapshot rather than by failing to reach it.
var ErrInvalidSnapshot = errors.New("invalid snapshot")

// Collection names, also used as document base names by the file, s3 and
// http sources and as table names by the sql source.
const (
	Bots    = "bots"
	Workers = "workers"
	Logs    = "logs"
)

// Raw is the three collections exactly as a Source delivered them.
type Raw struct {
	Bots    []types.Bot
	Workers []types.Worker
	Logs    []types.Log
}

// Source delivers a Raw snapshot.
type Source interface {
	// Name identifies the source in logs, e.g. "file:data".
	Name() string
	// Fetch reads all three collections.
	Fetch(ctx context.Context) (*Raw, error)
}

// Open returns the Source selected by cfg.Source.
func Open(cfg config.SnapshotConfig) (Source, error) {
	switch cfg.Source {
	case "file":
		return NewFileSource(cfg.File.Dir, cfg.File.Format), nil
	case "sql":
		return NewSQLSource(cfg.SQL.Driver, cfg.SQL.EffectiveDSN()), nil
	case "s3":
		src, err := NewS3Source(cfg.S3)
		if err != nil {
			return nil, err
		}
		return src, nil
	case "http":
		return NewHTTPSource(cfg.HTTP), nil
	}
	return nil, errors.Errorf("snapshot: unknown source %q", cfg.Source)
}

// Load fetches a snapshot from src, validates it and indexes it.
// A zero timeout means no deadline beyond ctx.
func Load(ctx context.Context, src Source, timeout time.Duration) (*store.Store, error) {
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	raw, err := src.Fetch(ctx)
	if err != nil {
		return nil, errors.Wrapf(err, "snapshot: fetch from %s", src.Name())
	}
	if err := Validate(raw); err != nil {
		return nil, errors.Wrapf(err, "snapshot: %s", src.Name())
	}

	slog.Info("snapshot: fetched",
		"source", src.Name(),
		"bots", len(raw.Bots),
		"workers", len(raw.Workers),
		"logs", len(raw.Logs),
	)
	return store.Load(raw.Bots, raw.Workers, raw.Logs), nil
}

// Validate checks structural constraints on raw. Empty bot statuses are set
// to DISABLED in place. Duplicate ids are allowed (the later record wins)
// and only logged.
func Validate(raw *Raw) error {
	if raw == nil {
		return errors.Wrap(ErrInvalidSnapshot, "no collections")
	}

	seen := make(map[string]struct{}, len(raw.Bots))
	for i := range raw.Bots {
		b := &raw.Bots[i]
		if b.ID == "" {
			return invalid(Bots, i, "missing id")
		}
		if b.Status == "" {
			b.Status = types.BotDisabled
		}
		if !b.Status.Valid() {
			return invalid(Bots, i, fmt.Sprintf("unknown status %q", b.Status))
		}
		noteDuplicate(seen, Bots, b.ID)
	}

	clear(seen)
	for i, w := range raw.Workers {
		if w.ID == "" {
			return invalid(Workers, i, "missing id")
		}
		noteDuplicate(seen, Workers, w.ID)
	}

	clear(seen)
	for i, l := range raw.Logs {
		if l.ID == "" {
			return invalid(Logs, i, "missing id")
		}
		noteDuplicate(seen, Logs, l.ID)
	}
	return nil
}

func invalid(collection string, index int, reason string) error {
	return errors.Wrapf(ErrInvalidSnapshot, "%s[%d]: %s", collection, index, reason)
}

func noteDuplicate(seen map[string]struct{}, collection, id string) {
	if _, dup := seen[id]; dup {
		slog.Warn("snapshot: duplicate id, later record wins",
			"collection", collection, "id", id)
		return
	}
	seen[id] = struct{}{}
}

// decode parses one collection document into out, which must be a pointer
// to a slice. A document whose top level is not an array is rejected.
func decode(format, name string, data []byte, out interface{}) error {
	var err error
	switch format {
	case "json":
		trimmed := bytes.TrimSpace(data)
		if len(trimmed) == 0 || trimmed[0] != '[' {
			return errors.Wrapf(ErrInvalidSnapshot, "%s: top-level JSON value is not an array", name)
		}
		err = json.Unmarshal(trimmed, out)
	case "yaml":
		var doc yaml.Node
		if err := yaml.Unmarshal(data, &doc); err != nil {
			return errors.Wrapf(ErrInvalidSnapshot, "%s: decode yaml: %v", name, err)
		}
		if len(doc.Content) != 1 || doc.Content[0].Kind != yaml.SequenceNode {
			return errors.Wrapf(ErrInvalidSnapshot, "%s: top-level YAML value is not a sequence", name)
		}
		err = doc.Content[0].Decode(out)
	default:
		return errors.Errorf("snapshot: unknown format %q", format)
	}
	if err != nil {
		return errors.Wrapf(ErrInvalidSnapshot, "%s: decode %s: %v", name, format, err)
	}
	return nil
}

// decodeAll parses the three documents of a snapshot.
func decodeAll(format string, docs map[string][]byte) (*Raw, error) {
	raw := &Raw{}
	if err := decode(format, Bots, docs[Bots], &raw.Bots); err != nil {
		return nil, err
	}
	if err := decode(format, Workers, docs[Workers], &raw.Workers); err != nil {
		return nil, err
	}
	if err := decode(format, Logs, docs[Logs], &raw.Logs); err != nil {
		return nil, err
	}
	return raw, nil
}
