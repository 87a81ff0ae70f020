// Package property provides the property directory: listings owned by owners
// and looked up by the messaging and visit stores.
package property

import (
	"database/sql"
	"strings"
	"time"
)

// Status values a listing commonly carries. Status is free text; these are the
// values the CLI offers.
const (
	StatusActive = "active"
	StatusRented = "rented"
)

// Property is a listing offered by an owner.
type Property struct {
	ID        int64     `json:"id"`
	OwnerID   int64     `json:"owner_id"`
	Title     string    `json:"title"`
	Address   string    `json:"address,omitempty"`
	Price     *int64    `json:"price,omitempty"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// scanProperty scans a property from a database row.
func scanProperty(row interface{ Scan(...interface{}) error }) (*Property, error) {
	var p Property
	var price sql.NullInt64

	err := row.Scan(
		&p.ID, &p.OwnerID, &p.Title, &p.Address,
		&price, &p.Status, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if price.Valid {
		p.Price = &price.Int64
	}
	if p.Status == "" {
		p.Status = StatusActive
	}

	return &p, nil
}

// normalize trims user-entered text fields.
func (p *Property) normalize() {
	p.Title = strings.TrimSpace(p.Title)
	p.Address = strings.TrimSpace(p.Address)
	p.Status = normalizeStatus(p.Status)
}

func normalizeStatus(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return StatusActive
	}
	return s
}
