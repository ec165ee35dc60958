package domain

import (
	"time"

	"github.com/google/uuid"
)

type Offer struct {
	Stamp
	CarNumber      string    `json:"carNumber" db:"car_number"`
	TypeID         uuid.UUID `json:"typeId" db:"type_id"`
	Date           time.Time `json:"date" db:"date"`
	ExpirationDate time.Time `json:"expirationDate" db:"expiration_date"`
}
