package domain

import "github.com/google/uuid"

// Service is a maintenance provider (garage, inspection station).
type Service struct {
	Stamp
	TypeID            uuid.UUID `json:"typeId" db:"type_id"`
	Name              string    `json:"name" db:"name"`
	SertificateNumber string    `json:"sertificateNumber" db:"sertificate_number"`
	OwnerFIO          string    `json:"ownerFio" db:"owner_fio"`
	Address           string    `json:"address" db:"address"`
	PhoneNumber       string    `json:"phoneNumber" db:"phone_number"`
}
