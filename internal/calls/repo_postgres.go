package calls

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
)

const (
	pgUniqueViolation     = "23505"
	pgForeignKeyViolation = "23503"
)

// Schema creates the two insert-only tables.
// seq gives ListCalls a stable insertion order; the voicemail call_id is both
// a foreign key and unique, which makes concurrent duplicate writes fail safely.
const Schema = `
CREATE TABLE IF NOT EXISTS call_records (
  seq               BIGSERIAL PRIMARY KEY,
  call_id           TEXT NOT NULL UNIQUE,
  from_number       TEXT NOT NULL,
  selected_option   TEXT,
  outbound_call_sid TEXT,
  redirected        BOOLEAN NOT NULL DEFAULT FALSE,
  voicemail_pending BOOLEAN NOT NULL DEFAULT FALSE,
  created_at        TIMESTAMPTZ NOT NULL
);

CREATE TABLE IF NOT EXISTS voicemail_records (
  call_id       TEXT PRIMARY KEY REFERENCES call_records (call_id),
  recording_url TEXT NOT NULL,
  created_at    TIMESTAMPTZ NOT NULL
);
`

// PostgresStore implements Store on database/sql with the pgx stdlib driver.
// The *sql.DB pool is opened once at startup and shared by every request.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore { return &PostgresStore{db: db} }

// Migrate applies Schema. It is idempotent.
func (s *PostgresStore) Migrate(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, Schema); err != nil {
		return persistErr("migrate", "", err)
	}
	return nil
}

func (s *PostgresStore) SaveCall(ctx context.Context, rec CallRecord) error {
	const q = `
INSERT INTO call_records (
  call_id, from_number, selected_option, outbound_call_sid, redirected, voicemail_pending, created_at
) VALUES (
  $1,$2,$3,$4,$5,$6,$7
)
`
	_, err := s.db.ExecContext(ctx, q,
		rec.CallID,
		rec.FromNumber,
		nullString(rec.SelectedOption),
		nullString(rec.OutboundCallSid),
		rec.Redirected,
		rec.VoicemailPending,
		rec.Timestamp,
	)
	return persistErr("save call", rec.CallID, err)
}

func (s *PostgresStore) SaveVoicemail(ctx context.Context, vm VoicemailRecord) error {
	const q = `
INSERT INTO voicemail_records (call_id, recording_url, created_at)
VALUES ($1,$2,$3)
`
	_, err := s.db.ExecContext(ctx, q, vm.CallID, vm.RecordingURL, vm.Timestamp)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) {
			switch pgErr.Code {
			case pgUniqueViolation:
				err = ErrDuplicateVoicemail
			case pgForeignKeyViolation:
				err = ErrUnknownCall
			}
		}
	}
	return persistErr("save voicemail", vm.CallID, err)
}

func (s *PostgresStore) ListCalls(ctx context.Context) ([]CallRecord, error) {
	const q = `
SELECT call_id, from_number, selected_option, outbound_call_sid, redirected, voicemail_pending, created_at
FROM call_records
ORDER BY seq
`
	rows, err := s.db.QueryContext(ctx, q)
	if err != nil {
		return nil, persistErr("list calls", "", fmt.Errorf("%w: %v", ErrStoreUnavailable, err))
	}
	defer rows.Close()

	out := make([]CallRecord, 0)
	for rows.Next() {
		var (
			r        CallRecord
			option   sql.NullString
			outbound sql.NullString
		)
		if err := rows.Scan(
			&r.CallID,
			&r.FromNumber,
			&option,
			&outbound,
			&r.Redirected,
			&r.VoicemailPending,
			&r.Timestamp,
		); err != nil {
			return nil, persistErr("list calls", "", err)
		}
		r.SelectedOption = fromNullString(option)
		r.OutboundCallSid = fromNullString(outbound)
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, persistErr("list calls", "", err)
	}
	return out, nil
}

func (s *PostgresStore) FindVoicemail(ctx context.Context, callID string) (VoicemailRecord, bool, error) {
	const q = `
SELECT call_id, recording_url, created_at
FROM voicemail_records
WHERE call_id = $1
`
	var vm VoicemailRecord
	if err := s.db.QueryRowContext(ctx, q, callID).Scan(&vm.CallID, &vm.RecordingURL, &vm.Timestamp); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return VoicemailRecord{}, false, nil
		}
		return VoicemailRecord{}, false, persistErr("find voicemail", callID, err)
	}
	return vm, true, nil
}

func (s *PostgresStore) FindVoicemails(ctx context.Context, callIDs []string) (map[string]VoicemailRecord, error) {
	out := make(map[string]VoicemailRecord, len(callIDs))
	if len(callIDs) == 0 {
		return out, nil
	}

	placeholders := make([]string, len(callIDs))
	args := make([]any, len(callIDs))
	for i, id := range callIDs {
		placeholders[i] = fmt.Sprintf("$%d", i+1)
		args[i] = id
	}
	q := `
SELECT call_id, recording_url, created_at
FROM voicemail_records
WHERE call_id IN (` + strings.Join(placeholders, ",") + `)
`
	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, persistErr("find voicemails", "", err)
	}
	defer rows.Close()

	for rows.Next() {
		var vm VoicemailRecord
		if err := rows.Scan(&vm.CallID, &vm.RecordingURL, &vm.Timestamp); err != nil {
			return nil, persistErr("find voicemails", "", err)
		}
		out[vm.CallID] = vm
	}
	if err := rows.Err(); err != nil {
		return nil, persistErr("find voicemails", "", err)
	}
	return out, nil
}

func (s *PostgresStore) Ping(ctx context.Context) error {
	if err := s.db.PingContext(ctx); err != nil {
		return persistErr("ping", "", fmt.Errorf("%w: %v", ErrStoreUnavailable, err))
	}
	return nil
}

func (s *PostgresStore) Close(ctx context.Context) error {
	return s.db.Close()
}

func nullString(p *string) sql.NullString {
	if p == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *p, Valid: true}
}

func fromNullString(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	s := ns.String
	return &s
}
