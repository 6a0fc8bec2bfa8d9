package store

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dkeye/Handoff/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/samber/lo"
)

var ErrUnexpectedDatabase = errors.New("unexpected database error")

type Postgres struct {
	pool *pgxpool.Pool
}

func NewPostgres(ctx context.Context, connString string) (*Postgres, error) {
	pool, err := pgxpool.New(ctx, connString)
	if err != nil {
		return nil, err
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	return &Postgres{pool: pool}, nil
}

func dbError(err error, notFound error) error {
	switch {
	case errors.Is(err, pgx.ErrNoRows):
		return notFound
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return err
	default:
		return fmt.Errorf("%w: %w", ErrUnexpectedDatabase, err)
	}
}

const roomColumns = `id, permit_id, sender_conn_id, receiver_conn_id, status, created_at, last_active, armed_at`

func scanRoom(row pgx.Row) (domain.RoomRecord, error) {
	var rec domain.RoomRecord
	err := row.Scan(&rec.ID, &rec.PermitID, &rec.SenderConnID, &rec.ReceiverConnID, &rec.Status,
		&rec.CreatedAt, &rec.LastActive, &rec.ArmedAt)
	return rec, err
}

func (pg *Postgres) FindRoom(ctx context.Context, id domain.RoomID) (domain.RoomRecord, error) {
	rec, err := scanRoom(pg.pool.QueryRow(ctx, `SELECT `+roomColumns+` FROM rooms WHERE id = $1`, id))
	if err != nil {
		return domain.RoomRecord{}, dbError(err, domain.ErrRoomNotFound)
	}
	return rec, nil
}

func (pg *Postgres) UpsertRoom(ctx context.Context, rec domain.RoomRecord) error {
	_, err := pg.pool.Exec(ctx, `
		INSERT INTO rooms (`+roomColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (id) DO UPDATE SET
			sender_conn_id = EXCLUDED.sender_conn_id,
			receiver_conn_id = EXCLUDED.receiver_conn_id,
			status = EXCLUDED.status,
			last_active = EXCLUDED.last_active,
			armed_at = EXCLUDED.armed_at`,
		rec.ID, rec.PermitID, rec.SenderConnID, rec.ReceiverConnID, rec.Status,
		rec.CreatedAt, rec.LastActive, rec.ArmedAt)
	if err != nil {
		return dbError(err, domain.ErrRoomNotFound)
	}
	return nil
}

func (pg *Postgres) DeleteRoom(ctx context.Context, id domain.RoomID) error {
	tag, err := pg.pool.Exec(ctx, `DELETE FROM rooms WHERE id = $1`, id)
	if err != nil {
		return dbError(err, domain.ErrRoomNotFound)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrRoomNotFound
	}
	return nil
}

func (pg *Postgres) DeleteRoomsNotIn(ctx context.Context, active []domain.RoomID, olderThan time.Time) (int, error) {
	ids := lo.Map(active, func(id domain.RoomID, _ int) int64 { return int64(id) })
	tag, err := pg.pool.Exec(ctx,
		`DELETE FROM rooms WHERE created_at < $1 AND NOT (id = ANY($2))`, olderThan, ids)
	if err != nil {
		return 0, dbError(err, domain.ErrRoomNotFound)
	}
	return int(tag.RowsAffected()), nil
}

func (pg *Postgres) ListRooms(ctx context.Context) ([]domain.RoomRecord, error) {
	rows, err := pg.pool.Query(ctx, `SELECT `+roomColumns+` FROM rooms ORDER BY id`)
	if err != nil {
		return nil, dbError(err, domain.ErrRoomNotFound)
	}
	defer rows.Close()

	var out []domain.RoomRecord
	for rows.Next() {
		rec, err := scanRoom(rows)
		if err != nil {
			return nil, dbError(err, domain.ErrRoomNotFound)
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

const permitColumns = `id, code, used, total, disabled, created_at, updated_at`

func scanPermit(row pgx.Row) (domain.Permit, error) {
	var p domain.Permit
	err := row.Scan(&p.ID, &p.Code, &p.Used, &p.Total, &p.Disabled, &p.CreatedAt, &p.UpdatedAt)
	return p, err
}

func (pg *Postgres) SavePermit(ctx context.Context, p domain.Permit) (domain.Permit, error) {
	p.Code = strings.TrimSpace(p.Code)
	var row pgx.Row
	if p.ID == 0 {
		row = pg.pool.QueryRow(ctx, `
			INSERT INTO permits (code, used, total, disabled)
			VALUES ($1, $2, $3, $4)
			RETURNING `+permitColumns, p.Code, p.Used, p.Total, p.Disabled)
	} else {
		row = pg.pool.QueryRow(ctx, `
			INSERT INTO permits (id, code, used, total, disabled)
			VALUES ($1, $2, $3, $4, $5)
			ON CONFLICT (id) DO UPDATE SET
				code = EXCLUDED.code,
				used = EXCLUDED.used,
				total = EXCLUDED.total,
				disabled = EXCLUDED.disabled,
				updated_at = now()
			RETURNING `+permitColumns, p.ID, p.Code, p.Used, p.Total, p.Disabled)
	}
	saved, err := scanPermit(row)
	if err != nil {
		return domain.Permit{}, dbError(err, domain.ErrPermitNotFound)
	}
	return saved, nil
}

func (pg *Postgres) FindPermit(ctx context.Context, id domain.PermitID) (domain.Permit, error) {
	p, err := scanPermit(pg.pool.QueryRow(ctx, `SELECT `+permitColumns+` FROM permits WHERE id = $1`, id))
	if err != nil {
		return domain.Permit{}, dbError(err, domain.ErrPermitNotFound)
	}
	return p, nil
}

func (pg *Postgres) FindPermitByCode(ctx context.Context, code string) (domain.Permit, error) {
	p, err := scanPermit(pg.pool.QueryRow(ctx, `SELECT `+permitColumns+` FROM permits WHERE code = $1`, code))
	if err != nil {
		return domain.Permit{}, dbError(err, domain.ErrPermitNotFound)
	}
	return p, nil
}

// CommitUsage is a single conditional UPDATE; when it matches nothing the current
// count is read back.
func (pg *Postgres) CommitUsage(ctx context.Context, id domain.PermitID) (int, bool, error) {
	var used int
	err := pg.pool.QueryRow(ctx, `
		UPDATE permits SET used = used + 1, updated_at = now()
		WHERE id = $1 AND used < total AND NOT disabled
		RETURNING used`, id).Scan(&used)
	if err == nil {
		return used, true, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return 0, false, dbError(err, domain.ErrPermitNotFound)
	}
	p, err := pg.FindPermit(ctx, id)
	if err != nil {
		return 0, false, err
	}
	return p.Used, false, nil
}

func (pg *Postgres) DisablePermit(ctx context.Context, id domain.PermitID) error {
	tag, err := pg.pool.Exec(ctx, `UPDATE permits SET disabled = TRUE, updated_at = now() WHERE id = $1`, id)
	if err != nil {
		return dbError(err, domain.ErrPermitNotFound)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrPermitNotFound
	}
	return nil
}

func (pg *Postgres) Close() error {
	pg.pool.Close()
	return nil
}
