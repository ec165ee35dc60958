package domain

import (
	"time"

	"github.com/google/uuid"
)

// DriverLicense is a license issued to a user.
type DriverLicense struct {
	Stamp
	FirstName      string    `json:"firstName" db:"first_name"`
	LastName       string    `json:"lastName" db:"last_name"`
	MiddleName     string    `json:"middleName,omitempty" db:"middle_name"`
	BirthDate      time.Time `json:"birthDate" db:"birth_date"`
	AddressID      uuid.UUID `json:"addressId" db:"address_id"`
	ReceivedDate   time.Time `json:"receivedDate" db:"received_date"`
	ExpirationDate time.Time `json:"expirationDate" db:"expiration_date"`
	CategoryID     uuid.UUID `json:"categoryId" db:"category_id"`
	Number         string    `json:"number" db:"number"`
	UserID         uuid.UUID `json:"userId" db:"user_id"`
}
