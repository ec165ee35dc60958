package domain

// Address is a postal address referenced by driver licenses.
type Address struct {
	Stamp
	Region   string `json:"region" db:"region"`
	District string `json:"district" db:"district"`
	Street   string `json:"street" db:"street"`
	House    string `json:"house" db:"house"`
}
