package domain

// Lookup records only carry a name; they back the *TypeID/*ModelID/CategoryID references.

type CarType struct {
	Stamp
	Name string `json:"name" db:"name"`
}

type CarModel struct {
	Stamp
	Name string `json:"name" db:"name"`
}

type Category struct {
	Stamp
	Name string `json:"name" db:"name"`
}

type OfferType struct {
	Stamp
	Name string `json:"name" db:"name"`
}

type ServiceType struct {
	Stamp
	Name string `json:"name" db:"name"`
}
