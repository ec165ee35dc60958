package postgres

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"

	"github.com/mvaleed/carfleet/internal/domain"
	"github.com/mvaleed/carfleet/internal/storage"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want error
	}{
		{"unique violation", &pgconn.PgError{Code: "23505"}, storage.ErrDuplicateKey},
		{"serialization failure", &pgconn.PgError{Code: "40001"}, storage.ErrConcurrencyConflict},
		{"deadlock", &pgconn.PgError{Code: "40P01"}, storage.ErrConcurrencyConflict},
		{"lock not available", &pgconn.PgError{Code: "55P03"}, storage.ErrConcurrencyConflict},
		{"connection failure", &pgconn.PgError{Code: "08006"}, storage.ErrUnavailable},
		{"too many connections", &pgconn.PgError{Code: "53300"}, storage.ErrUnavailable},
		{"admin shutdown", &pgconn.PgError{Code: "57P01"}, storage.ErrUnavailable},
		{"foreign key violation", &pgconn.PgError{Code: "23503"}, storage.ErrFailed},
		{"unclassified", errors.New("boom"), storage.ErrFailed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := classify(fmt.Errorf("wrapped: %w", tt.err))
			assert.ErrorIs(t, got, tt.want)
			assert.ErrorIs(t, got, tt.err, "cause must stay reachable")
		})
	}
}

func TestClassify_PassesThrough(t *testing.T) {
	assert.NoError(t, classify(nil))
	assert.Equal(t, context.Canceled, classify(context.Canceled))
	assert.Equal(t, context.DeadlineExceeded, classify(context.DeadlineExceeded))
}

func TestMigrateURL(t *testing.T) {
	assert.Equal(t, "pgx5://u:p@db:5432/fleet?sslmode=disable",
		migrateURL("postgres://u:p@db:5432/fleet?sslmode=disable"))
	assert.Equal(t, "pgx5://db/fleet", migrateURL("postgresql://db/fleet"))
	assert.Equal(t, "pgx5://db/fleet", migrateURL("pgx5://db/fleet"))
}

func TestTables_ColumnsMatchValues(t *testing.T) {
	check := func(name string, columns []string, values []any) {
		assert.Len(t, values, len(columns), name)
	}
	check(carTable.name, carTable.columns, carTable.values(new(domain.Car)))
	check(addressTable.name, addressTable.columns, addressTable.values(new(domain.Address)))
	check(driverLicenseTable.name, driverLicenseTable.columns, driverLicenseTable.values(new(domain.DriverLicense)))
	check(offerTable.name, offerTable.columns, offerTable.values(new(domain.Offer)))
	check(penaltyTable.name, penaltyTable.columns, penaltyTable.values(new(domain.Penalty)))
	check(serviceTable.name, serviceTable.columns, serviceTable.values(new(domain.Service)))
	check(userTable.name, userTable.columns, userTable.values(new(domain.User)))

	categories := nameTable[domain.Category]("categories")
	check(categories.name, categories.columns, categories.values(new(domain.Category)))
}
