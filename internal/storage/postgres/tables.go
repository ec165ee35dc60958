package postgres

import "github.com/mvaleed/carfleet/internal/domain"

type named interface {
	domain.CarType | domain.CarModel | domain.Category | domain.OfferType | domain.ServiceType
}

// nameTable maps the lookup records, which only carry a name.
func nameTable[T interface {
	named
	domain.Entity
}](name string) table[T] {
	return table[T]{
		name:    name,
		columns: []string{"name"},
		values: func(r *T) []any {
			switch v := any(r).(type) {
			case *domain.CarType:
				return []any{v.Name}
			case *domain.CarModel:
				return []any{v.Name}
			case *domain.Category:
				return []any{v.Name}
			case *domain.OfferType:
				return []any{v.Name}
			case *domain.ServiceType:
				return []any{v.Name}
			}
			return nil
		},
	}
}

var carTable = table[domain.Car]{
	name: "cars",
	columns: []string{
		"type_id", "model_id", "color", "year", "lamb_number", "engine_number",
		"horse_power", "number", "tex_passport_number", "user_id",
	},
	values: func(c *domain.Car) []any {
		return []any{
			c.TypeID, c.ModelID, c.Color, c.Year, c.LambNumber, c.EngineNumber,
			c.HorsePower, c.Number, c.TexPassportNumber, c.UserID,
		}
	},
}

var addressTable = table[domain.Address]{
	name:    "addresses",
	columns: []string{"region", "district", "street", "house"},
	values: func(a *domain.Address) []any {
		return []any{a.Region, a.District, a.Street, a.House}
	},
}

var driverLicenseTable = table[domain.DriverLicense]{
	name: "driver_licenses",
	columns: []string{
		"first_name", "last_name", "middle_name", "birth_date", "address_id",
		"received_date", "expiration_date", "category_id", "number", "user_id",
	},
	values: func(d *domain.DriverLicense) []any {
		return []any{
			d.FirstName, d.LastName, d.MiddleName, d.BirthDate, d.AddressID,
			d.ReceivedDate, d.ExpirationDate, d.CategoryID, d.Number, d.UserID,
		}
	},
}

var offerTable = table[domain.Offer]{
	name:    "offers",
	columns: []string{"car_number", "type_id", "date", "expiration_date"},
	values: func(o *domain.Offer) []any {
		return []any{o.CarNumber, o.TypeID, o.Date, o.ExpirationDate}
	},
}

var penaltyTable = table[domain.Penalty]{
	name: "penalties",
	columns: []string{
		"tex_passport_number", "car_number", "employee_id", "driver_id", "date", "payment_date",
	},
	values: func(p *domain.Penalty) []any {
		return []any{p.TexPassportNumber, p.CarNumber, p.EmployeeID, p.DriverID, p.Date, p.PaymentDate}
	},
}

var serviceTable = table[domain.Service]{
	name: "services",
	columns: []string{
		"type_id", "name", "sertificate_number", "owner_fio", "address", "phone_number",
	},
	values: func(s *domain.Service) []any {
		return []any{s.TypeID, s.Name, s.SertificateNumber, s.OwnerFIO, s.Address, s.PhoneNumber}
	},
}

var userTable = table[domain.User]{
	name:    "users",
	columns: []string{"first_name", "last_name", "email", "job", "password", "role"},
	values: func(u *domain.User) []any {
		return []any{u.FirstName, u.LastName, u.Email, u.Job, u.Password, string(u.Role)}
	},
}
