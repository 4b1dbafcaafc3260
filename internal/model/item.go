package model

import (
	"math"
	"time"

	"github.com/google/uuid"
)

// Item is one row of the items table. Price is stored and served as
// integer cents; clients submit dollars and get cents back.
type Item struct {
	ID         uuid.UUID `db:"id" json:"id"`
	Name       string    `db:"name" json:"name"`
	Category   string    `db:"category" json:"category"`
	PriceCents int64     `db:"price_cents" json:"price"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
	UpdatedAt  time.Time `db:"updated_at" json:"updated_at"`
}

// PriceToCents converts a dollar amount to integer cents, rounding half
// away from zero (19.99 → 1999).
func PriceToCents(dollars float64) int64 {
	return int64(math.Round(dollars * 100))
}
