package property

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/evcraddock/rentwise/internal/apperr"
)

// Repository provides data access for properties.
type Repository struct {
	db *sql.DB
}

// NewRepository creates a property repository.
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

const insertSQL = `INSERT INTO properties (owner_id, title, address, price, status) VALUES (?, ?, ?, ?, ?)`

const selectColumns = `id, owner_id, title, address, price, status, created_at, updated_at`

// Insert adds a new property and returns it with its generated ID.
func (r *Repository) Insert(ctx context.Context, p *Property) (*Property, error) {
	p.normalize()
	if p.OwnerID == 0 {
		return nil, apperr.Validation("owner is required")
	}
	if p.Title == "" {
		return nil, apperr.Validation("title is required")
	}
	if p.Price != nil && *p.Price < 0 {
		return nil, apperr.Validation("price must not be negative")
	}

	result, err := r.db.ExecContext(ctx, insertSQL, p.OwnerID, p.Title, p.Address, p.Price, p.Status)
	if err != nil {
		return nil, fmt.Errorf("inserting property: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("getting insert id: %w", err)
	}

	return r.GetByID(ctx, id)
}

// GetByID returns a property by its ID.
func (r *Repository) GetByID(ctx context.Context, id int64) (*Property, error) {
	query := fmt.Sprintf("SELECT %s FROM properties WHERE id = ?", selectColumns)
	row := r.db.QueryRowContext(ctx, query, id)

	p, err := scanProperty(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("property %d: %w", id, apperr.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("querying property %d: %w", id, err)
	}

	return p, nil
}

// ListByOwner returns the properties owned by ownerID, newest first.
func (r *Repository) ListByOwner(ctx context.Context, ownerID int64) (properties []*Property, err error) {
	query := fmt.Sprintf("SELECT %s FROM properties WHERE owner_id = ? ORDER BY created_at DESC, id DESC", selectColumns)

	rows, err := r.db.QueryContext(ctx, query, ownerID)
	if err != nil {
		return nil, fmt.Errorf("listing properties: %w", err)
	}
	defer func() {
		if closeErr := rows.Close(); closeErr != nil && err == nil {
			err = fmt.Errorf("closing rows: %w", closeErr)
		}
	}()

	for rows.Next() {
		p, err := scanProperty(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning property: %w", err)
		}
		properties = append(properties, p)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating properties: %w", err)
	}

	return properties, nil
}

// UpdateStatus sets the listing status for a property.
func (r *Repository) UpdateStatus(ctx context.Context, id int64, status string) error {
	result, err := r.db.ExecContext(ctx,
		"UPDATE properties SET status = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?",
		normalizeStatus(status), id,
	)
	if err != nil {
		return fmt.Errorf("updating status: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("property %d: %w", id, apperr.ErrNotFound)
	}

	return nil
}

// Delete removes a property by ID. Conversations, messages and visit requests cascade.
func (r *Repository) Delete(ctx context.Context, id int64) error {
	result, err := r.db.ExecContext(ctx, "DELETE FROM properties WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("deleting property: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("property %d: %w", id, apperr.ErrNotFound)
	}

	return nil
}
