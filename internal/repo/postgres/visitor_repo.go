package postgres

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/sentinelworks/gatepass/internal/domain"
)

type VisitorFilter struct {
	Status  string
	Keyword string
	Limit   int
	Offset  int
}

type VisitorRepository interface {
	Create(ctx context.Context, v *domain.Visitor) (*domain.Visitor, error)
	FindByID(ctx context.Context, id int64) (*domain.Visitor, error)
	FindByPassID(ctx context.Context, passID string) (*domain.Visitor, error)
	List(ctx context.Context, filter VisitorFilter) ([]domain.Visitor, error)
	Count(ctx context.Context, filter VisitorFilter) (int64, error)
	ListToday(ctx context.Context) ([]domain.Visitor, error)
	MarkExit(ctx context.Context, id int64, exitTime time.Time) (*domain.Visitor, error)
	UpdateStatus(ctx context.Context, id int64, status string) error
	CountBySession(ctx context.Context, createdBy int64, demoSessionID string) (int64, error)
	CountCreatedSince(ctx context.Context, since time.Time) (int64, error)
	CountByStatus(ctx context.Context, status string) (int64, error)
}

type visitorRepository struct {
	pool *pgxpool.Pool
}

func NewVisitorRepository(pool *pgxpool.Pool) VisitorRepository {
	return &visitorRepository{pool: pool}
}

const visitorCols = `v.id, v.name, v.phone, v.purpose, v.id_proof_number, v.person_to_meet, v.photo,
	v.pass_id, v.status, v.entry_time, v.exit_time, v.expiry_time, v.created_by, u.name,
	v.demo_session_id, v.created_at, v.updated_at`

func scanVisitor(row pgx.Row) (*domain.Visitor, error) {
	var v domain.Visitor
	err := row.Scan(
		&v.ID, &v.Name, &v.Phone, &v.Purpose, &v.IDProofNumber, &v.PersonToMeet, &v.Photo,
		&v.PassID, &v.Status, &v.EntryTime, &v.ExitTime, &v.ExpiryTime, &v.CreatedBy, &v.CreatedByName,
		&v.DemoSessionID, &v.CreatedAt, &v.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &v, nil
}

func (r *visitorRepository) Create(ctx context.Context, v *domain.Visitor) (*domain.Visitor, error) {
	const q = `
		WITH inserted AS (
			INSERT INTO visitors (name, phone, purpose, id_proof_number, person_to_meet, photo,
				pass_id, status, entry_time, expiry_time, created_by, demo_session_id)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
			RETURNING *
		)
		SELECT ` + visitorCols + `
		FROM inserted v
		JOIN users u ON u.id = v.created_by`

	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	return scanVisitor(r.pool.QueryRow(ctx, q,
		v.Name, v.Phone, v.Purpose, v.IDProofNumber, v.PersonToMeet, v.Photo,
		v.PassID, v.Status, v.EntryTime, v.ExpiryTime, v.CreatedBy, v.DemoSessionID,
	))
}

func (r *visitorRepository) FindByID(ctx context.Context, id int64) (*domain.Visitor, error) {
	const q = `SELECT ` + visitorCols + ` FROM visitors v JOIN users u ON u.id = v.created_by WHERE v.id = $1`
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	v, err := scanVisitor(r.pool.QueryRow(ctx, q, id))
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	return v, err
}

func (r *visitorRepository) FindByPassID(ctx context.Context, passID string) (*domain.Visitor, error) {
	const q = `SELECT ` + visitorCols + ` FROM visitors v JOIN users u ON u.id = v.created_by WHERE v.pass_id = $1`
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	v, err := scanVisitor(r.pool.QueryRow(ctx, q, passID))
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	return v, err
}

const visitorFilterWhere = `
	($1 = '' OR v.status = $1)
	AND ($2 = '' OR v.name ILIKE '%' || $2 || '%' OR v.phone ILIKE '%' || $2 || '%' OR v.pass_id ILIKE '%' || $2 || '%')`

func (r *visitorRepository) List(ctx context.Context, filter VisitorFilter) ([]domain.Visitor, error) {
	q := `
		SELECT ` + visitorCols + `
		FROM visitors v
		JOIN users u ON u.id = v.created_by
		WHERE ` + visitorFilterWhere + `
		ORDER BY v.entry_time DESC`

	args := []any{filter.Status, filter.Keyword}
	if filter.Limit > 0 {
		q += ` LIMIT $3 OFFSET $4`
		args = append(args, filter.Limit, filter.Offset)
	}

	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	rows, err := r.pool.Query(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var visitors []domain.Visitor
	for rows.Next() {
		v, err := scanVisitor(rows)
		if err != nil {
			return nil, err
		}
		visitors = append(visitors, *v)
	}

	return visitors, rows.Err()
}

func (r *visitorRepository) Count(ctx context.Context, filter VisitorFilter) (int64, error) {
	const q = `SELECT count(*) FROM visitors v WHERE ` + visitorFilterWhere
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	var count int64
	err := r.pool.QueryRow(ctx, q, filter.Status, filter.Keyword).Scan(&count)
	return count, err
}

func (r *visitorRepository) ListToday(ctx context.Context) ([]domain.Visitor, error) {
	const q = `
		SELECT ` + visitorCols + `
		FROM visitors v
		JOIN users u ON u.id = v.created_by
		WHERE v.created_at >= date_trunc('day', now())
		ORDER BY v.entry_time DESC`

	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	rows, err := r.pool.Query(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var visitors []domain.Visitor
	for rows.Next() {
		v, err := scanVisitor(rows)
		if err != nil {
			return nil, err
		}
		visitors = append(visitors, *v)
	}

	return visitors, rows.Err()
}

func (r *visitorRepository) MarkExit(ctx context.Context, id int64, exitTime time.Time) (*domain.Visitor, error) {
	const q = `
		WITH updated AS (
			UPDATE visitors
			SET status = 'completed', exit_time = $2, updated_at = now()
			WHERE id = $1
			RETURNING *
		)
		SELECT ` + visitorCols + `
		FROM updated v
		JOIN users u ON u.id = v.created_by`

	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	v, err := scanVisitor(r.pool.QueryRow(ctx, q, id, exitTime))
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	return v, err
}

func (r *visitorRepository) UpdateStatus(ctx context.Context, id int64, status string) error {
	const q = `UPDATE visitors SET status = $2, updated_at = now() WHERE id = $1`
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	result, err := r.pool.Exec(ctx, q, id, status)
	if err != nil {
		return err
	}

	if result.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}

	return nil
}

func (r *visitorRepository) CountBySession(ctx context.Context, createdBy int64, demoSessionID string) (int64, error) {
	const q = `SELECT count(*) FROM visitors WHERE created_by = $1 AND demo_session_id = $2`
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	var count int64
	err := r.pool.QueryRow(ctx, q, createdBy, demoSessionID).Scan(&count)
	return count, err
}

func (r *visitorRepository) CountCreatedSince(ctx context.Context, since time.Time) (int64, error) {
	const q = `SELECT count(*) FROM visitors WHERE created_at >= $1`
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	var count int64
	err := r.pool.QueryRow(ctx, q, since).Scan(&count)
	return count, err
}

func (r *visitorRepository) CountByStatus(ctx context.Context, status string) (int64, error) {
	const q = `SELECT count(*) FROM visitors WHERE status = $1`
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	var count int64
	err := r.pool.QueryRow(ctx, q, status).Scan(&count)
	return count, err
}
