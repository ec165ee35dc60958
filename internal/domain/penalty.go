package domain

import (
	"time"

	"github.com/google/uuid"
)

// Penalty is a fine written by an employee against a driver.
// PaymentDate stays nil until the fine is paid.
type Penalty struct {
	Stamp
	TexPassportNumber string     `json:"texPassportNumber" db:"tex_passport_number"`
	CarNumber         string     `json:"carNumber" db:"car_number"`
	EmployeeID        uuid.UUID  `json:"employeeId" db:"employee_id"`
	DriverID          uuid.UUID  `json:"driverId" db:"driver_id"`
	Date              time.Time  `json:"date" db:"date"`
	PaymentDate       *time.Time `json:"paymentDate,omitempty" db:"payment_date"`
}
