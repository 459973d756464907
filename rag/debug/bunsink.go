package debug

import (
	"context"
	"database/sql"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"
)

// eventRow is the persisted form of an Event.
type eventRow struct {
	bun.BaseModel `bun:"table:pipeline_events"`

	ID         int64     `bun:"id,pk,autoincrement"`
	Stage      string    `bun:"stage,notnull"`
	Component  string    `bun:"component,notnull"`
	DurationMS int64     `bun:"duration_ms,notnull"`
	Outcome    string    `bun:"outcome,notnull"`
	At         time.Time `bun:"at,notnull"`
}

// BunRecorder appends pipeline events to a Postgres table. Insert failures
// are logged and swallowed; the debug sink must never fail a request.
type BunRecorder struct {
	db *bun.DB
}

// NewBunRecorder connects to Postgres with the given DSN and ensures the
// events table exists.
func NewBunRecorder(ctx context.Context, dsn string) (*BunRecorder, error) {
	sqldb := sql.OpenDB(pgdriver.NewConnector(pgdriver.WithDSN(dsn)))
	db := bun.NewDB(sqldb, pgdialect.New())

	if _, err := db.NewCreateTable().
		Model((*eventRow)(nil)).
		IfNotExists().
		Exec(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}

	return &BunRecorder{db: db}, nil
}

func (r *BunRecorder) Record(ctx context.Context, ev Event) {
	row := rowFromEvent(ev)
	if _, err := r.db.NewInsert().Model(&row).Exec(ctx); err != nil {
		log.Warn().Err(err).Str("stage", ev.Stage).Msg("failed to persist pipeline event")
	}
}

func (r *BunRecorder) Close() error {
	return r.db.Close()
}

func rowFromEvent(ev Event) eventRow {
	at := ev.At
	if at.IsZero() {
		at = time.Now().UTC()
	}
	return eventRow{
		Stage:      ev.Stage,
		Component:  ev.Component,
		DurationMS: ev.Duration.Milliseconds(),
		Outcome:    ev.Outcome,
		At:         at,
	}
}
