package domain

import "github.com/google/uuid"

// Car is a registered vehicle.
type Car struct {
	Stamp
	TypeID            uuid.UUID `json:"typeId" db:"type_id"`
	ModelID           uuid.UUID `json:"modelId" db:"model_id"`
	Color             string    `json:"color" db:"color"`
	Year              int       `json:"year" db:"year"`
	LambNumber        string    `json:"lambNumber" db:"lamb_number"`
	EngineNumber      string    `json:"engineNumber" db:"engine_number"`
	HorsePower        int       `json:"horsePower" db:"horse_power"`
	Number            string    `json:"number" db:"number"`
	TexPassportNumber string    `json:"texPassportNumber" db:"tex_passport_number"`
	UserID            uuid.UUID `json:"userId" db:"user_id"`
}
