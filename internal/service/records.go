package service

import (
	"github.com/mvaleed/carfleet/internal/auth"
	"github.com/mvaleed/carfleet/internal/domain"
	"github.com/mvaleed/carfleet/internal/storage"
	"github.com/mvaleed/carfleet/internal/validator"
)

var (
	CarDescriptor = Descriptor[domain.Car]{
		Name: "Car",
		Rules: func(c *domain.Car) []validator.Check {
			return []validator.Check{
				validator.Field("TypeId", validator.IsInvalidID(c.TypeID)),
				validator.Field("ModelId", validator.IsInvalidID(c.ModelID)),
				validator.Field("Color", validator.IsInvalidText(c.Color)),
				validator.Field("LambNumber", validator.IsInvalidText(c.LambNumber)),
				validator.Field("EngineNumber", validator.IsInvalidText(c.EngineNumber)),
				validator.Field("Number", validator.IsInvalidText(c.Number)),
				validator.Field("TexPassportNumber", validator.IsInvalidText(c.TexPassportNumber)),
				validator.Field("UserId", validator.IsInvalidID(c.UserID)),
			}
		},
	}

	CarTypeDescriptor = Descriptor[domain.CarType]{
		Name: "CarType",
		Rules: func(c *domain.CarType) []validator.Check {
			return []validator.Check{validator.Field("Name", validator.IsInvalidText(c.Name))}
		},
	}

	CarModelDescriptor = Descriptor[domain.CarModel]{
		Name: "CarModel",
		Rules: func(c *domain.CarModel) []validator.Check {
			return []validator.Check{validator.Field("Name", validator.IsInvalidText(c.Name))}
		},
	}

	CategoryDescriptor = Descriptor[domain.Category]{
		Name: "Category",
		Rules: func(c *domain.Category) []validator.Check {
			return []validator.Check{validator.Field("Name", validator.IsInvalidText(c.Name))}
		},
	}

	OfferTypeDescriptor = Descriptor[domain.OfferType]{
		Name: "OfferType",
		Rules: func(o *domain.OfferType) []validator.Check {
			return []validator.Check{validator.Field("Name", validator.IsInvalidText(o.Name))}
		},
	}

	ServiceTypeDescriptor = Descriptor[domain.ServiceType]{
		Name: "ServiceType",
		Rules: func(s *domain.ServiceType) []validator.Check {
			return []validator.Check{validator.Field("Name", validator.IsInvalidText(s.Name))}
		},
	}

	AddressDescriptor = Descriptor[domain.Address]{
		Name: "Address",
		Rules: func(a *domain.Address) []validator.Check {
			return []validator.Check{
				validator.Field("Region", validator.IsInvalidText(a.Region)),
				validator.Field("District", validator.IsInvalidText(a.District)),
				validator.Field("Street", validator.IsInvalidText(a.Street)),
				validator.Field("House", validator.IsInvalidText(a.House)),
			}
		},
	}

	// MiddleName is optional.
	DriverLicenseDescriptor = Descriptor[domain.DriverLicense]{
		Name: "DriverLicense",
		Rules: func(d *domain.DriverLicense) []validator.Check {
			return []validator.Check{
				validator.Field("FirstName", validator.IsInvalidText(d.FirstName)),
				validator.Field("LastName", validator.IsInvalidText(d.LastName)),
				validator.Field("BirthDate", validator.IsInvalidDate(d.BirthDate)),
				validator.Field("AddressId", validator.IsInvalidID(d.AddressID)),
				validator.Field("ReceivedDate", validator.IsInvalidDate(d.ReceivedDate)),
				validator.Field("ExpirationDate", validator.IsInvalidDate(d.ExpirationDate)),
				validator.Field("CategoryId", validator.IsInvalidID(d.CategoryID)),
				validator.Field("Number", validator.IsInvalidText(d.Number)),
				validator.Field("UserId", validator.IsInvalidID(d.UserID)),
			}
		},
	}

	OfferDescriptor = Descriptor[domain.Offer]{
		Name: "Offer",
		Rules: func(o *domain.Offer) []validator.Check {
			return []validator.Check{
				validator.Field("CarNumber", validator.IsInvalidText(o.CarNumber)),
				validator.Field("TypeId", validator.IsInvalidID(o.TypeID)),
				validator.Field("Date", validator.IsInvalidDate(o.Date)),
				validator.Field("ExpirationDate", validator.IsInvalidDate(o.ExpirationDate)),
			}
		},
	}

	// PaymentDate stays empty until the penalty is paid.
	PenaltyDescriptor = Descriptor[domain.Penalty]{
		Name: "Penalty",
		Rules: func(p *domain.Penalty) []validator.Check {
			return []validator.Check{
				validator.Field("TexPassportNumber", validator.IsInvalidText(p.TexPassportNumber)),
				validator.Field("CarNumber", validator.IsInvalidText(p.CarNumber)),
				validator.Field("EmployeeId", validator.IsInvalidID(p.EmployeeID)),
				validator.Field("DriverId", validator.IsInvalidID(p.DriverID)),
				validator.Field("Date", validator.IsInvalidDate(p.Date)),
			}
		},
	}

	ServiceDescriptor = Descriptor[domain.Service]{
		Name: "Service",
		Rules: func(s *domain.Service) []validator.Check {
			return []validator.Check{
				validator.Field("TypeId", validator.IsInvalidID(s.TypeID)),
				validator.Field("Name", validator.IsInvalidText(s.Name)),
				validator.Field("SertificateNumber", validator.IsInvalidText(s.SertificateNumber)),
				validator.Field("OwnerFIO", validator.IsInvalidText(s.OwnerFIO)),
				validator.Field("Address", validator.IsInvalidText(s.Address)),
				validator.Field("PhoneNumber", validator.IsInvalidText(s.PhoneNumber)),
			}
		},
	}
)

// UserDescriptor hashes plain-text passwords before they reach storage. A modify that
// sends back the stored hash unchanged keeps it; any other value is hashed.
func UserDescriptor(hasher *auth.PasswordHasher) Descriptor[domain.User] {
	return Descriptor[domain.User]{
		Name: "User",
		Rules: func(u *domain.User) []validator.Check {
			return []validator.Check{
				validator.Field("FirstName", validator.IsInvalidText(u.FirstName)),
				validator.Field("LastName", validator.IsInvalidText(u.LastName)),
				validator.Field("Email", validator.IsInvalidText(u.Email)),
				validator.Field("Job", validator.IsInvalidText(u.Job)),
				validator.Field("Password", validator.IsInvalidText(u.Password)),
				validator.Field("Password", validator.IsTooLong(u.Password, auth.MaxPasswordBytes)),
				validator.Field("Role", validator.IsInvalidEnum(u.Role, domain.Roles...)),
			}
		},
		Prepare: func(u, stored *domain.User) error {
			if stored != nil && u.Password == stored.Password {
				return nil
			}
			hash, err := hasher.Hash(u.Password)
			if err != nil {
				return err
			}
			u.Password = hash
			return nil
		},
	}
}

// Services bundles one foundation service per record type.
type Services struct {
	Cars           *Foundation[domain.Car]
	CarTypes       *Foundation[domain.CarType]
	CarModels      *Foundation[domain.CarModel]
	Categories     *Foundation[domain.Category]
	OfferTypes     *Foundation[domain.OfferType]
	ServiceTypes   *Foundation[domain.ServiceType]
	Addresses      *Foundation[domain.Address]
	DriverLicenses *Foundation[domain.DriverLicense]
	Offers         *Foundation[domain.Offer]
	Penalties      *Foundation[domain.Penalty]
	Services       *Foundation[domain.Service]
	Users          *Foundation[domain.User]
}

func NewServices(brokers *storage.Brokers, hasher *auth.PasswordHasher, deps Deps) *Services {
	return &Services{
		Cars:           NewFoundation(CarDescriptor, brokers.Cars, deps),
		CarTypes:       NewFoundation(CarTypeDescriptor, brokers.CarTypes, deps),
		CarModels:      NewFoundation(CarModelDescriptor, brokers.CarModels, deps),
		Categories:     NewFoundation(CategoryDescriptor, brokers.Categories, deps),
		OfferTypes:     NewFoundation(OfferTypeDescriptor, brokers.OfferTypes, deps),
		ServiceTypes:   NewFoundation(ServiceTypeDescriptor, brokers.ServiceTypes, deps),
		Addresses:      NewFoundation(AddressDescriptor, brokers.Addresses, deps),
		DriverLicenses: NewFoundation(DriverLicenseDescriptor, brokers.DriverLicenses, deps),
		Offers:         NewFoundation(OfferDescriptor, brokers.Offers, deps),
		Penalties:      NewFoundation(PenaltyDescriptor, brokers.Penalties, deps),
		Services:       NewFoundation(ServiceDescriptor, brokers.Services, deps),
		Users:          NewFoundation(UserDescriptor(hasher), brokers.Users, deps),
	}
}
