package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/vladislavdragonenkov/qts/internal/domain"
)

const (
	opTimeout = 5 * time.Second

	defaultLedgerLimit = 100
)

type ledgerRepository struct {
	db *sql.DB
}

// NewLedgerRepository создаёт PostgreSQL-реализацию TransferLedger
// поверх конфигурационной базы сервиса.
func NewLedgerRepository(store *Store) domain.TransferLedger {
	return &ledgerRepository{db: store.DB()}
}

func (r *ledgerRepository) HasSuccessfulTransfer(storeID int64, orderID string) (bool, error) {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	var count int
	err := r.db.QueryRowContext(ctx, `
		SELECT COUNT(*)
		FROM transfer_history
		WHERE store_id = $1 AND order_id = $2 AND status = $3
	`, storeID, orderID, domain.LedgerStatusSuccess).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("check transfer history: %w", err)
	}

	return count > 0, nil
}

func (r *ledgerRepository) Record(record domain.TransferRecord) (domain.TransferRecord, error) {
	if record.ID == "" {
		record.ID = uuid.NewString()
	}
	if record.TransferredAt.IsZero() {
		record.TransferredAt = time.Now().UTC()
	}

	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO transfer_history (
			id, store_id, order_id, order_name, document_number,
			status, error_message, line_count, total, transferred_at
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
	`,
		record.ID, record.StoreID, record.OrderID, record.OrderName, record.DocumentNumber,
		record.Status, record.ErrorMessage, record.LineCount, record.Total, record.TransferredAt,
	)
	if err != nil {
		return domain.TransferRecord{}, fmt.Errorf("insert transfer record: %w", err)
	}

	return record, nil
}

func (r *ledgerRepository) List(filter domain.LedgerFilter) ([]domain.TransferRecord, error) {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	var (
		conditions []string
		args       []any
	)
	addArg := func(condition string, value any) {
		args = append(args, value)
		conditions = append(conditions, fmt.Sprintf(condition, len(args)))
	}

	if filter.StoreID != nil {
		addArg("h.store_id = $%d", *filter.StoreID)
	}
	if filter.Status != "" && filter.Status != "all" {
		addArg("h.status = $%d", filter.Status)
	}
	if !filter.From.IsZero() {
		addArg("h.transferred_at >= $%d", filter.From)
	}
	if !filter.To.IsZero() {
		addArg("h.transferred_at <= $%d", filter.To)
	}

	query := `
		SELECT h.id, h.store_id, h.order_id, h.order_name, h.document_number,
		       h.status, h.error_message, h.line_count, h.total, h.transferred_at,
		       COALESCE(s.name, '')
		FROM transfer_history h
		LEFT JOIN shopify_stores s ON s.id = h.store_id
	`
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += " ORDER BY h.transferred_at DESC, h.id DESC"

	limit := filter.Limit
	if limit <= 0 {
		limit = defaultLedgerLimit
	}
	args = append(args, limit)
	query += fmt.Sprintf(" LIMIT $%d", len(args))

	if filter.Offset > 0 {
		args = append(args, filter.Offset)
		query += fmt.Sprintf(" OFFSET $%d", len(args))
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query transfer history: %w", err)
	}
	defer rows.Close()

	records := make([]domain.TransferRecord, 0, limit)
	for rows.Next() {
		var record domain.TransferRecord
		if err := rows.Scan(
			&record.ID, &record.StoreID, &record.OrderID, &record.OrderName, &record.DocumentNumber,
			&record.Status, &record.ErrorMessage, &record.LineCount, &record.Total, &record.TransferredAt,
			&record.StoreName,
		); err != nil {
			return nil, fmt.Errorf("scan transfer record: %w", err)
		}
		records = append(records, record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate transfer history: %w", err)
	}

	return records, nil
}

func (r *ledgerRepository) Delete(id string) error {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	res, err := r.db.ExecContext(ctx, `DELETE FROM transfer_history WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete transfer record: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("transfer history rows affected: %w", err)
	}
	if affected == 0 {
		return domain.ErrLedgerRecordNotFound
	}

	return nil
}

func (r *ledgerRepository) DeleteFailed(storeID *int64) (int, error) {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	var (
		res sql.Result
		err error
	)

	if storeID != nil {
		res, err = r.db.ExecContext(ctx, `
			DELETE FROM transfer_history
			WHERE status = $1 AND store_id = $2
		`, domain.LedgerStatusFailed, *storeID)
	} else {
		res, err = r.db.ExecContext(ctx, `
			DELETE FROM transfer_history
			WHERE status = $1
		`, domain.LedgerStatusFailed)
	}
	if err != nil {
		return 0, fmt.Errorf("delete failed transfer records: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("transfer history rows affected: %w", err)
	}

	return int(affected), nil
}

func (r *ledgerRepository) DeleteFailedBefore(before time.Time, limit int) (int, error) {
	if before.IsZero() {
		before = time.Now().UTC()
	}

	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	var (
		res sql.Result
		err error
	)

	if limit > 0 {
		res, err = r.db.ExecContext(ctx, `
			DELETE FROM transfer_history
			WHERE id IN (
				SELECT id
				FROM transfer_history
				WHERE status = $1 AND transferred_at <= $2
				ORDER BY transferred_at ASC
				LIMIT $3
			)
		`, domain.LedgerStatusFailed, before, limit)
	} else {
		res, err = r.db.ExecContext(ctx, `
			DELETE FROM transfer_history
			WHERE status = $1 AND transferred_at <= $2
		`, domain.LedgerStatusFailed, before)
	}
	if err != nil {
		return 0, fmt.Errorf("delete stale failed transfers: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("transfer history rows affected: %w", err)
	}

	return int(affected), nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	return false
}

var _ domain.TransferLedger = (*ledgerRepository)(nil)
