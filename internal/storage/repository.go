package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"vehicle-health-monitor/internal/monitor"
)

var (
	// ErrNotConfigured indicates the storage pool was not initialised.
	ErrNotConfigured = errors.New("storage: pool not configured")
	// ErrSessionNotFound is returned when a session has no recorded frames.
	ErrSessionNotFound = errors.New("storage: session not found")
)

const (
	createSchemaSQL = `CREATE TABLE IF NOT EXISTS bus_frames (
        session             TEXT             NOT NULL,
        ts                  DOUBLE PRECISION NOT NULL,
        str_angle           DOUBLE PRECISION NOT NULL,
        lon_g               DOUBLE PRECISION NOT NULL,
        lat_g               DOUBLE PRECISION NOT NULL,
        yaw_rate            DOUBLE PRECISION NOT NULL,
        wheel_fl            DOUBLE PRECISION NOT NULL,
        wheel_fr            DOUBLE PRECISION NOT NULL,
        wheel_rl            DOUBLE PRECISION NOT NULL,
        wheel_rr            DOUBLE PRECISION NOT NULL,
        myu                 DOUBLE PRECISION NOT NULL,
        brake_fluid_low     BOOLEAN          NOT NULL,
        brake_pedal         BOOLEAN          NOT NULL,
        mc_pressure_kpa     DOUBLE PRECISION NOT NULL,
        warn_brake          BOOLEAN          NOT NULL,
        warn_abs            BOOLEAN          NOT NULL,
        warn_puncture       BOOLEAN          NOT NULL,
        recorded_at         TIMESTAMPTZ      NOT NULL DEFAULT now(),
        PRIMARY KEY (session, ts)
    );`

	listFramesSQL = `SELECT
        session,
        ts,
        str_angle,
        lon_g,
        lat_g,
        yaw_rate,
        wheel_fl,
        wheel_fr,
        wheel_rl,
        wheel_rr,
        myu,
        brake_fluid_low,
        brake_pedal,
        mc_pressure_kpa,
        warn_brake,
        warn_abs,
        warn_puncture
    FROM bus_frames
    WHERE session = $1
    ORDER BY ts
    LIMIT $2;`

	listSessionsSQL = `SELECT
        session,
        COUNT(*),
        MIN(ts),
        MAX(ts),
        MAX(recorded_at)
    FROM bus_frames
    GROUP BY session
    ORDER BY MAX(recorded_at) DESC
    LIMIT $1;`

	deleteSessionSQL = `DELETE FROM bus_frames WHERE session = $1;`
)

var frameColumns = []string{
	"session",
	"ts",
	"str_angle",
	"lon_g",
	"lat_g",
	"yaw_rate",
	"wheel_fl",
	"wheel_fr",
	"wheel_rl",
	"wheel_rr",
	"myu",
	"brake_fluid_low",
	"brake_pedal",
	"mc_pressure_kpa",
	"warn_brake",
	"warn_abs",
	"warn_puncture",
}

// FrameStore defines persistence of recorded bus frames.
type FrameStore interface {
	InsertFrames(ctx context.Context, session string, frames []monitor.Frame) (int64, error)
	ListFrames(ctx context.Context, session string, limit int) ([]FrameRecord, error)
	ListSessions(ctx context.Context, limit int) ([]SessionSummary, error)
	DeleteSession(ctx context.Context, session string) error
}

// Store gives access to recorded bus frames.
type Store struct {
	pool *pgxpool.Pool
}

// NewStore wires a pgx pool into a Store.
func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

// Close releases the underlying pool resources.
func (s *Store) Close() {
	if s == nil || s.pool == nil {
		return
	}
	s.pool.Close()
}

func (s *Store) getPool() (*pgxpool.Pool, error) {
	if s == nil || s.pool == nil {
		return nil, ErrNotConfigured
	}
	return s.pool, nil
}

// EnsureSchema creates the bus_frames table when missing.
func (s *Store) EnsureSchema(ctx context.Context) error {
	pool, err := s.getPool()
	if err != nil {
		return err
	}
	if _, execErr := pool.Exec(ctx, createSchemaSQL); execErr != nil {
		return fmt.Errorf("create schema: %w", execErr)
	}
	return nil
}

// InsertFrames bulk-loads frames for a session with COPY.
func (s *Store) InsertFrames(ctx context.Context, session string, frames []monitor.Frame) (int64, error) {
	pool, err := s.getPool()
	if err != nil {
		return 0, err
	}
	if len(frames) == 0 {
		return 0, nil
	}

	rows := pgx.CopyFromSlice(len(frames), func(i int) ([]any, error) {
		f := frames[i]
		return []any{
			session,
			f.Timestamp,
			f.SteeringAngle,
			f.LonAccel,
			f.LatAccel,
			f.YawRate,
			f.WheelFL,
			f.WheelFR,
			f.WheelRL,
			f.WheelRR,
			f.Friction,
			f.BrakeFluidLow,
			f.BrakePedal,
			f.MasterCylinderKPa,
			f.WarnBrake,
			f.WarnABS,
			f.WarnPuncture,
		}, nil
	})

	n, copyErr := pool.CopyFrom(ctx, pgx.Identifier{"bus_frames"}, frameColumns, rows)
	if copyErr != nil {
		return 0, fmt.Errorf("copy bus frames: %w", copyErr)
	}
	return n, nil
}

// ListFrames returns up to limit frames of a session ordered by timestamp.
// A non-positive limit returns every frame.
func (s *Store) ListFrames(ctx context.Context, session string, limit int) ([]FrameRecord, error) {
	pool, err := s.getPool()
	if err != nil {
		return nil, err
	}

	var limitArg any
	if limit > 0 {
		limitArg = limit
	}

	rows, queryErr := pool.Query(ctx, listFramesSQL, session, limitArg)
	if queryErr != nil {
		return nil, fmt.Errorf("list frames: %w", queryErr)
	}
	defer rows.Close()

	records := make([]FrameRecord, 0)
	for rows.Next() {
		rec, scanErr := scanFrame(rows)
		if scanErr != nil {
			return nil, scanErr
		}
		records = append(records, rec)
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrSessionNotFound, session)
	}
	return records, nil
}

// ListSessions summarises the most recently recorded sessions.
func (s *Store) ListSessions(ctx context.Context, limit int) ([]SessionSummary, error) {
	pool, err := s.getPool()
	if err != nil {
		return nil, err
	}

	rows, queryErr := pool.Query(ctx, listSessionsSQL, limit)
	if queryErr != nil {
		return nil, fmt.Errorf("list sessions: %w", queryErr)
	}
	defer rows.Close()

	sessions := make([]SessionSummary, 0, limit)
	for rows.Next() {
		var sum SessionSummary
		if err := rows.Scan(&sum.Session, &sum.Frames, &sum.FirstTS, &sum.LastTS, &sum.RecordedAt); err != nil {
			return nil, err
		}
		sessions = append(sessions, sum)
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}
	return sessions, nil
}

// DeleteSession removes every frame of a session.
func (s *Store) DeleteSession(ctx context.Context, session string) error {
	pool, err := s.getPool()
	if err != nil {
		return err
	}
	if _, execErr := pool.Exec(ctx, deleteSessionSQL, session); execErr != nil {
		return fmt.Errorf("delete session: %w", execErr)
	}
	return nil
}

func scanFrame(rows pgx.Rows) (FrameRecord, error) {
	var rec FrameRecord
	if err := rows.Scan(
		&rec.Session,
		&rec.Timestamp,
		&rec.SteeringAngle,
		&rec.LonAccel,
		&rec.LatAccel,
		&rec.YawRate,
		&rec.WheelFL,
		&rec.WheelFR,
		&rec.WheelRL,
		&rec.WheelRR,
		&rec.Friction,
		&rec.BrakeFluidLow,
		&rec.BrakePedal,
		&rec.MasterCylinderKPa,
		&rec.WarnBrake,
		&rec.WarnABS,
		&rec.WarnPuncture,
	); err != nil {
		return FrameRecord{}, fmt.Errorf("scan frame: %w", err)
	}
	return rec, nil
}

var _ FrameStore = (*Store)(nil)
