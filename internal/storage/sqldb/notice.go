package sqldb

import (
	"context"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"

	"joconde_watcher/internal/domain"
)

var auditFields = []string{"source_file", "run_id", "source_system", "load_process", "load_timestamp_utc"}

type NoticeStore struct {
	db          *sqlx.DB
	table       string
	insertQuery string
}

// NewNoticeStore binds the store to table. The name must already be
// validated by config.
func NewNoticeStore(db *sqlx.DB, table string) *NoticeStore {
	columns := append(append([]string{}, domain.NoticeFields...), auditFields...)
	placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(columns)), ", ")

	query := fmt.Sprintf(
		"INSERT INTO %s (%s) VALUES (%s)",
		table, strings.Join(columns, ", "), placeholders,
	)

	return &NoticeStore{
		db:          db,
		table:       table,
		insertQuery: db.Rebind(query),
	}
}

// Insert appends one notice with its audit columns. It uses the
// transaction from ctx when there is one.
func (s *NoticeStore) Insert(ctx context.Context, notice *domain.Notice, audit domain.LoadAudit) error {
	args := append(notice.Values(),
		audit.SourceFile,
		audit.RunID,
		audit.SourceSystem,
		audit.LoadProcess,
		audit.LoadedAt.UTC(),
	)

	if _, err := GetExecutor(ctx, s.db).ExecContext(ctx, s.insertQuery, args...); err != nil {
		return fmt.Errorf("%w: insert notice: %w", domain.ErrRecord, err)
	}
	return nil
}

// Count returns the number of rows in the staging table.
func (s *NoticeStore) Count(ctx context.Context) (int64, error) {
	var count int64
	err := sqlx.GetContext(ctx, GetExecutor(ctx, s.db), &count, "SELECT COUNT(*) FROM "+s.table)
	return count, err
}

// StoredNotice is a staging row as read back for verification.
type StoredNotice struct {
	ID int64 `db:"id"`
	domain.Notice
	SourceFile   string `db:"source_file"`
	RunID        string `db:"run_id"`
	SourceSystem string `db:"source_system"`
	LoadProcess  string `db:"load_process"`
}

// ListByRun returns the rows of one run in insertion order.
func (s *NoticeStore) ListByRun(ctx context.Context, runID string) ([]StoredNotice, error) {
	query := s.db.Rebind(fmt.Sprintf(
		"SELECT id, %s, source_file, run_id, source_system, load_process FROM %s WHERE run_id = ? ORDER BY id",
		strings.Join(domain.NoticeFields, ", "), s.table,
	))

	var rows []StoredNotice
	err := sqlx.SelectContext(ctx, GetExecutor(ctx, s.db), &rows, query, runID)
	return rows, err
}
