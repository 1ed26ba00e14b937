package storage

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/md-rashed-zaman/bizsites/libs/db"
	"github.com/md-rashed-zaman/bizsites/services/site-service/internal/model"
	"github.com/md-rashed-zaman/bizsites/services/site-service/internal/schedule"
)

const businessColumns = `
	id, owner_id, name, slug, subdomain_url, subdirectory_url, description,
	phone, email, address, business_hours, status, view_count, created_at, updated_at`

type BusinessRepository struct {
	pool *db.Pool
}

func NewBusinessRepository(pool *db.Pool) *BusinessRepository {
	return &BusinessRepository{pool: pool}
}

func (r *BusinessRepository) SlugExists(ctx context.Context, slug string) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM businesses WHERE slug = $1)`, slug).Scan(&exists)
	return exists, err
}

func (r *BusinessRepository) Insert(ctx context.Context, b *model.Business) error {
	hours := b.BusinessHours
	if hours == nil {
		hours = schedule.WeeklyHours{}
	}
	return r.pool.QueryRow(ctx, `
		INSERT INTO businesses
			(owner_id, name, slug, subdomain_url, subdirectory_url, description, phone, email, address, business_hours, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING id, created_at, updated_at
	`, b.OwnerID, b.Name, b.Slug, b.SubdomainURL, b.SubdirectoryURL, b.Description,
		b.Phone, b.Email, b.Address, hours, string(b.Status),
	).Scan(&b.ID, &b.CreatedAt, &b.UpdatedAt)
}

func (r *BusinessRepository) Get(ctx context.Context, id int64) (model.Business, error) {
	return scanBusiness(r.pool.QueryRow(ctx, `SELECT `+businessColumns+` FROM businesses WHERE id = $1`, id))
}

func (r *BusinessRepository) GetBySlug(ctx context.Context, slug string) (model.Business, error) {
	return scanBusiness(r.pool.QueryRow(ctx, `SELECT `+businessColumns+` FROM businesses WHERE slug = $1`, slug))
}

func (r *BusinessRepository) ListByOwner(ctx context.Context, ownerID int64) ([]model.Business, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+businessColumns+`
		FROM businesses
		WHERE owner_id = $1
		ORDER BY created_at DESC, id DESC
	`, ownerID)
	if err != nil {
		return nil, err
	}
	return collectBusinesses(rows)
}

func (r *BusinessRepository) ListByStatus(ctx context.Context, status model.ApprovalStatus, limit int) ([]model.Business, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+businessColumns+`
		FROM businesses
		WHERE status = $1
		ORDER BY created_at, id
		LIMIT $2
	`, string(status), limit)
	if err != nil {
		return nil, err
	}
	return collectBusinesses(rows)
}

func (r *BusinessRepository) UpdateProfile(ctx context.Context, id int64, p model.BusinessProfile) (model.Business, error) {
	hours := p.BusinessHours
	if hours == nil {
		hours = schedule.WeeklyHours{}
	}
	return scanBusiness(r.pool.QueryRow(ctx, `
		UPDATE businesses
		SET name = $2,
			description = $3,
			phone = $4,
			email = $5,
			address = $6,
			business_hours = $7,
			updated_at = now()
		WHERE id = $1
		RETURNING `+businessColumns,
		id, p.Name, p.Description, p.Phone, p.Email, p.Address, hours))
}

func (r *BusinessRepository) SetStatus(ctx context.Context, id int64, status model.ApprovalStatus) (model.Business, error) {
	return scanBusiness(r.pool.QueryRow(ctx, `
		UPDATE businesses
		SET status = $2, updated_at = now()
		WHERE id = $1
		RETURNING `+businessColumns,
		id, string(status)))
}

// Delete removes the business; appointments go with it via ON DELETE CASCADE.
func (r *BusinessRepository) Delete(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM businesses WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *BusinessRepository) IncrementViews(ctx context.Context, id int64) error {
	_, err := r.pool.Exec(ctx, `UPDATE businesses SET view_count = view_count + 1 WHERE id = $1`, id)
	return err
}

func scanBusiness(row pgx.Row) (model.Business, error) {
	var b model.Business
	var status string
	err := row.Scan(&b.ID, &b.OwnerID, &b.Name, &b.Slug, &b.SubdomainURL, &b.SubdirectoryURL, &b.Description,
		&b.Phone, &b.Email, &b.Address, &b.BusinessHours, &status, &b.ViewCount, &b.CreatedAt, &b.UpdatedAt)
	if err != nil {
		return model.Business{}, err
	}
	b.Status = model.ApprovalStatus(status)
	return b, nil
}

func collectBusinesses(rows pgx.Rows) ([]model.Business, error) {
	defer rows.Close()

	var out []model.Business
	for rows.Next() {
		b, err := scanBusiness(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}
