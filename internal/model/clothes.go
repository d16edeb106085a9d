package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Clothes represents a sellable item in the catalogue.
type Clothes struct {
	ID             uuid.UUID       `json:"id"`
	Title          string          `json:"title"`
	Price          decimal.Decimal `json:"price"`
	Category       string          `json:"category"`
	Description    string          `json:"description"`
	Available      string          `json:"available"`
	Section        string          `json:"section"`
	Image          string          `json:"image"`
	Tags           []string        `json:"tags"`
	IsFreeSize     bool            `json:"isFreeSize"`
	AvailableSizes []string        `json:"availableSizes"`
	CreatedAt      time.Time       `json:"createdAt"`
}
