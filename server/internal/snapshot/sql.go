package snapshot

import (
	"context"
	"database/sql"

	"github.com/pkg/errors"

	_ "github.com/jackc/pgx/v5/stdlib" // registers the "pgx" database/sql driver
	_ "modernc.org/sqlite"             // registers the "sqlite" database/sql driver

	"github.com/botdeck/botdeck/pkg/types"
)

// Queries issued by SQLSource. Rows come back in the database's natural
// order; the store does not depend on it.
const (
	selectBots    = `SELECT id, created, name, status, description FROM bots`
	selectWorkers = `SELECT id, created, bot, name, description FROM workers`
	selectLogs    = `SELECT id, created, bot, worker, message FROM logs`
)

// SQLSource reads the bots, workers and logs tables through database/sql.
// It only ever issues SELECTs.
type SQLSource struct {
	driver string
	dsn    string
}

// NewSQLSource returns a SQLSource for a registered driver ("sqlite" or "pgx").
func NewSQLSource(driver, dsn string) *SQLSource {
	return &SQLSource{driver: driver, dsn: dsn}
}

// Name implements Source. The DSN is left out since it may carry credentials.
func (s *SQLSource) Name() string { return "sql:" + s.driver }

// Fetch implements Source.
func (s *SQLSource) Fetch(ctx context.Context) (*Raw, error) {
	db, err := sql.Open(s.driver, s.dsn)
	if err != nil {
		return nil, errors.Wrapf(err, "open %s", s.driver)
	}
	defer db.Close()

	if err := db.PingContext(ctx); err != nil {
		return nil, errors.Wrapf(err, "ping %s", s.driver)
	}

	raw := &Raw{}
	if raw.Bots, err = queryAll(ctx, db, selectBots, scanBot); err != nil {
		return nil, errors.Wrap(err, Bots)
	}
	if raw.Workers, err = queryAll(ctx, db, selectWorkers, scanWorker); err != nil {
		return nil, errors.Wrap(err, Workers)
	}
	if raw.Logs, err = queryAll(ctx, db, selectLogs, scanLog); err != nil {
		return nil, errors.Wrap(err, Logs)
	}
	return raw, nil
}

func queryAll[T any](ctx context.Context, db *sql.DB, query string, scan func(*sql.Rows) (T, error)) ([]T, error) {
	rows, err := db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []T
	for rows.Next() {
		v, err := scan(rows)
		if err != nil {
			return nil, errors.Wrapf(ErrInvalidSnapshot, "scan row %d: %v", len(out), err)
		}
		out = append(out, v)
	}
	return out, rows.Err()
}

func scanBot(rows *sql.Rows) (types.Bot, error) {
	var (
		b                         types.Bot
		created                   sql.NullInt64
		name, status, description sql.NullString
	)
	if err := rows.Scan(&b.ID, &created, &name, &status, &description); err != nil {
		return b, err
	}
	b.Created = types.Timestamp(created.Int64)
	b.Name = name.String
	b.Status = types.BotStatus(status.String)
	b.Description = description.String
	return b, nil
}

func scanWorker(rows *sql.Rows) (types.Worker, error) {
	var (
		w                      types.Worker
		created                sql.NullInt64
		bot, name, description sql.NullString
	)
	if err := rows.Scan(&w.ID, &created, &bot, &name, &description); err != nil {
		return w, err
	}
	w.Created = types.Timestamp(created.Int64)
	w.Bot = bot.String
	w.Name = name.String
	w.Description = description.String
	return w, nil
}

func scanLog(rows *sql.Rows) (types.Log, error) {
	var (
		l                    types.Log
		created              sql.NullInt64
		bot, worker, message sql.NullString
	)
	if err := rows.Scan(&l.ID, &created, &bot, &worker, &message); err != nil {
		return l, err
	}
	l.Created = types.Timestamp(created.Int64)
	l.Bot = bot.String
	l.Worker = worker.String
	l.Message = message.String
	return l, nil
}
