// Package db persists user settings, monthly plans and delivery logs in
// Postgres.
package db

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"dailyreport/internal/models"
)

// ErrNotFound is returned when a settings row or plan row does not exist.
var ErrNotFound = errors.New("db: record not found")

type Store struct {
	Pool *pgxpool.Pool
}

// New connects to Postgres and verifies the connection with a backoff-retried
// ping. The pipeline itself never retries; transient startup races with the
// database container are the one place retrying is wanted.
func New(ctx context.Context, conn string) (*Store, error) {
	pool, err := pgxpool.New(ctx, conn)
	if err != nil {
		return nil, fmt.Errorf("create pool: %w", err)
	}

	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 500 * time.Millisecond
	b.MaxElapsedTime = 30 * time.Second

	ping := func() error { return pool.Ping(ctx) }
	if err := backoff.Retry(ping, backoff.WithContext(b, ctx)); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	return &Store{Pool: pool}, nil
}

func (s *Store) Close() {
	s.Pool.Close()
}

const settingsColumns = `user_id, user_name,
	gemini_api_key, use_client_proxy, use_relay_proxy, gemini_timeout,
	email_signature_name, email_signature_phone,
	email_from, email_password, email_to, smtp_server, smtp_port,
	send_hour, send_minute, send_days, is_active`

func scanSettings(row pgx.Row) (*models.UserSettings, error) {
	var st models.UserSettings
	var sendDays []byte

	err := row.Scan(
		&st.UserID, &st.UserName,
		&st.GeminiAPIKey, &st.UseClientProxy, &st.UseRelayProxy, &st.GeminiTimeout,
		&st.SignatureName, &st.SignaturePhone,
		&st.EmailFrom, &st.EmailPassword, &st.EmailTo, &st.SMTPServer, &st.SMTPPort,
		&st.SendHour, &st.SendMinute, &sendDays, &st.IsActive,
	)
	if err != nil {
		return nil, err
	}

	if len(sendDays) > 0 {
		if err := json.Unmarshal(sendDays, &st.SendDays); err != nil {
			return nil, fmt.Errorf("decode send_days: %w", err)
		}
	}
	return &st, nil
}

// GetSettings loads one user's configuration snapshot.
func (s *Store) GetSettings(ctx context.Context, userID int64) (*models.UserSettings, error) {
	row := s.Pool.QueryRow(ctx,
		`SELECT `+settingsColumns+`
		 FROM user_settings
		 WHERE user_id = $1`,
		userID,
	)

	st, err := scanSettings(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get settings for user %d: %w", userID, err)
	}
	return st, nil
}

// ListActiveSettings returns the settings of every user with automatic
// sending enabled, for the scheduler scan.
func (s *Store) ListActiveSettings(ctx context.Context) ([]*models.UserSettings, error) {
	rows, err := s.Pool.Query(ctx,
		`SELECT `+settingsColumns+`
		 FROM user_settings
		 WHERE is_active = true`,
	)
	if err != nil {
		return nil, fmt.Errorf("list active settings: %w", err)
	}
	defer rows.Close()

	var out []*models.UserSettings
	for rows.Next() {
		st, err := scanSettings(rows)
		if err != nil {
			return nil, fmt.Errorf("scan settings: %w", err)
		}
		out = append(out, st)
	}
	return out, rows.Err()
}

// GetPlan loads the plan document for one (user, year, month).
func (s *Store) GetPlan(ctx context.Context, userID int64, year, month int) (*models.MonthlyPlan, error) {
	var p models.MonthlyPlan

	err := s.Pool.QueryRow(ctx,
		`SELECT id, user_id, year, month, content, created_at, updated_at
		 FROM monthly_plans
		 WHERE user_id = $1 AND year = $2 AND month = $3`,
		userID, year, month,
	).Scan(&p.ID, &p.UserID, &p.Year, &p.Month, &p.Content, &p.CreatedAt, &p.UpdatedAt)

	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get plan %d/%d for user %d: %w", year, month, userID, err)
	}
	return &p, nil
}

// CreateLog appends one delivery attempt record.
func (s *Store) CreateLog(ctx context.Context, entry *models.EmailLog) error {
	return s.Pool.QueryRow(ctx,
		`INSERT INTO email_logs
		 (user_id, send_timestamp, status, subject, content_preview, error_message, is_scheduled)
		 VALUES ($1, NOW(), $2, $3, $4, $5, $6)
		 RETURNING id, send_timestamp`,
		entry.UserID,
		entry.Status,
		entry.Subject,
		entry.ContentPreview,
		entry.ErrorMessage,
		entry.IsScheduled,
	).Scan(&entry.ID, &entry.SendTimestamp)
}

// ListLogs returns a user's delivery history, newest first, bounded by an
// optional time range.
func (s *Store) ListLogs(ctx context.Context, userID int64, from, to time.Time) ([]*models.EmailLog, error) {
	rows, err := s.Pool.Query(ctx,
		`SELECT id, user_id, send_timestamp, status, subject, content_preview, error_message, is_scheduled
		 FROM email_logs
		 WHERE user_id = $1
		   AND ($2::timestamptz IS NULL OR send_timestamp >= $2)
		   AND ($3::timestamptz IS NULL OR send_timestamp <= $3)
		 ORDER BY send_timestamp DESC`,
		userID, nullableTime(from), nullableTime(to),
	)
	if err != nil {
		return nil, fmt.Errorf("list logs for user %d: %w", userID, err)
	}
	defer rows.Close()

	var out []*models.EmailLog
	for rows.Next() {
		var e models.EmailLog
		var errMsg *string
		if err := rows.Scan(&e.ID, &e.UserID, &e.SendTimestamp, &e.Status,
			&e.Subject, &e.ContentPreview, &errMsg, &e.IsScheduled); err != nil {
			return nil, fmt.Errorf("scan log: %w", err)
		}
		if errMsg != nil {
			e.ErrorMessage = *errMsg
		}
		out = append(out, &e)
	}
	return out, rows.Err()
}

func nullableTime(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	return &t
}
