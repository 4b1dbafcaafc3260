package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/shopstack/itemstore/internal/model"
)

// ItemRepository persists and reads items.
type ItemRepository struct {
	pool *pgxpool.Pool
}

// NewItemRepository returns an ItemRepository using the given pool.
func NewItemRepository(pool *pgxpool.Pool) *ItemRepository {
	return &ItemRepository{pool: pool}
}

// Create inserts a new item and returns it with ID and timestamps set.
func (r *ItemRepository) Create(ctx context.Context, item *model.Item) error {
	query := `
		INSERT INTO items (id, name, category, price_cents)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at, updated_at`
	if item.ID == uuid.Nil {
		item.ID = uuid.New()
	}
	return r.pool.QueryRow(ctx, query,
		item.ID,
		item.Name,
		item.Category,
		item.PriceCents,
	).Scan(&item.ID, &item.CreatedAt, &item.UpdatedAt)
}

// List returns all items ordered by created_at descending.
func (r *ItemRepository) List(ctx context.Context) ([]model.Item, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, name, category, price_cents, created_at, updated_at
		FROM items
		ORDER BY created_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var list []model.Item
	for rows.Next() {
		var it model.Item
		if err := rows.Scan(
			&it.ID,
			&it.Name,
			&it.Category,
			&it.PriceCents,
			&it.CreatedAt,
			&it.UpdatedAt,
		); err != nil {
			return nil, err
		}
		list = append(list, it)
	}
	return list, rows.Err()
}

// GetByID returns one item by id. found is false when no row matches.
func (r *ItemRepository) GetByID(ctx context.Context, id uuid.UUID) (item model.Item, found bool, err error) {
	err = r.pool.QueryRow(ctx, `
		SELECT id, name, category, price_cents, created_at, updated_at
		FROM items WHERE id = $1`, id).Scan(
		&item.ID,
		&item.Name,
		&item.Category,
		&item.PriceCents,
		&item.CreatedAt,
		&item.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.Item{}, false, nil
		}
		return model.Item{}, false, err
	}
	return item, true, nil
}

// Update replaces name, category and price for an existing item.
// found is false when no row matches the id.
func (r *ItemRepository) Update(ctx context.Context, item *model.Item) (found bool, err error) {
	err = r.pool.QueryRow(ctx, `
		UPDATE items
		SET name = $2, category = $3, price_cents = $4, updated_at = now()
		WHERE id = $1
		RETURNING created_at, updated_at`,
		item.ID,
		item.Name,
		item.Category,
		item.PriceCents,
	).Scan(&item.CreatedAt, &item.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// Delete removes an item. found is false when no row matched.
func (r *ItemRepository) Delete(ctx context.Context, id uuid.UUID) (found bool, err error) {
	tag, err := r.pool.Exec(ctx, `DELETE FROM items WHERE id = $1`, id)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}
