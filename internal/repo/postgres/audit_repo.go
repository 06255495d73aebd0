package postgres

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/sentinelworks/gatepass/internal/domain"
)

type AuditLogRepository interface {
	Create(ctx context.Context, entry *domain.AuditLog) error
	List(ctx context.Context, filter domain.AuditLogFilter) ([]domain.AuditLog, error)
	Count(ctx context.Context, filter domain.AuditLogFilter) (int64, error)
}

type auditLogRepository struct {
	pool *pgxpool.Pool
}

func NewAuditLogRepository(pool *pgxpool.Pool) AuditLogRepository {
	return &auditLogRepository{pool: pool}
}

func (r *auditLogRepository) Create(ctx context.Context, entry *domain.AuditLog) error {
	const q = `
		INSERT INTO audit_logs (action, visitor_id, visitor_name, performed_by_id, performed_by_name, performed_by_role, ip_address, notes)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`

	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	_, err := r.pool.Exec(ctx, q,
		entry.Action, entry.VisitorID, entry.VisitorName,
		entry.PerformedBy.UserID, entry.PerformedBy.Name, entry.PerformedBy.Role,
		entry.IPAddress, entry.Notes,
	)
	return err
}

const auditFilterWhere = `
	($1 = '' OR action = $1)
	AND ($2 = '' OR performed_by_name ILIKE '%' || $2 || '%')
	AND ($3::timestamptz IS NULL OR created_at >= $3)
	AND ($4::timestamptz IS NULL OR created_at <= $4)`

func (r *auditLogRepository) List(ctx context.Context, filter domain.AuditLogFilter) ([]domain.AuditLog, error) {
	if filter.Limit <= 0 || filter.Limit > 100 {
		filter.Limit = 20
	}
	if filter.Offset < 0 {
		filter.Offset = 0
	}

	const q = `
		SELECT id, action, visitor_id, visitor_name, performed_by_id, performed_by_name, performed_by_role, ip_address, notes, created_at
		FROM audit_logs
		WHERE ` + auditFilterWhere + `
		ORDER BY created_at DESC
		LIMIT $5 OFFSET $6`

	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	rows, err := r.pool.Query(ctx, q,
		filter.Action, filter.PerformedBy, filter.StartDate, filter.EndDate, filter.Limit, filter.Offset,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var logs []domain.AuditLog
	for rows.Next() {
		var l domain.AuditLog
		if err := rows.Scan(
			&l.ID, &l.Action, &l.VisitorID, &l.VisitorName,
			&l.PerformedBy.UserID, &l.PerformedBy.Name, &l.PerformedBy.Role,
			&l.IPAddress, &l.Notes, &l.CreatedAt,
		); err != nil {
			return nil, err
		}
		logs = append(logs, l)
	}

	return logs, rows.Err()
}

func (r *auditLogRepository) Count(ctx context.Context, filter domain.AuditLogFilter) (int64, error) {
	const q = `SELECT count(*) FROM audit_logs WHERE ` + auditFilterWhere
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	var count int64
	err := r.pool.QueryRow(ctx, q, filter.Action, filter.PerformedBy, filter.StartDate, filter.EndDate).Scan(&count)
	return count, err
}
