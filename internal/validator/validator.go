// Package validator evaluates declarative field rules and aggregates every violation
// into a single invalid-entity failure.
//
// A rule is a plain {Condition, Message} pair computed eagerly by the caller:
//
//	validator.Validate("Car",
//		validator.Field("Id", validator.IsInvalidID(car.ID)),
//		validator.Field("Color", validator.IsInvalidText(car.Color)),
//	)
package validator

import (
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/mvaleed/carfleet/internal/domain"
)

// RecentWindow is how far in the past a timestamp may lie and still count as recent.
const RecentWindow = 60 * time.Second

// Rule is violated when Condition is true.
type Rule struct {
	Condition bool
	Message   string
}

// Check pairs a rule with the field it applies to.
type Check struct {
	Field string
	Rule  Rule
}

// Field builds a Check.
func Field(name string, rule Rule) Check {
	return Check{Field: name, Rule: rule}
}

// Validate evaluates every check and returns a *domain.InvalidEntityError listing all
// violations, or nil if none matched.
func Validate(entity string, checks ...Check) error {
	var errs domain.ValidationErrors
	for _, c := range checks {
		if c.Rule.Condition {
			errs = append(errs, domain.ValidationError{Field: c.Field, Message: c.Rule.Message})
		}
	}
	if len(errs) == 0 {
		return nil
	}
	return &domain.InvalidEntityError{Entity: entity, Violations: errs}
}

func IsInvalidID(id uuid.UUID) Rule {
	return Rule{Condition: id == uuid.Nil, Message: "Id is required"}
}

func IsInvalidText(text string) Rule {
	return Rule{Condition: strings.TrimSpace(text) == "", Message: "Text is required"}
}

func IsInvalidDate(date time.Time) Rule {
	return Rule{Condition: date.IsZero(), Message: "Date is required"}
}

// IsTooLong is violated when text is longer than max bytes.
func IsTooLong(text string, max int) Rule {
	return Rule{Condition: len(text) > max, Message: fmt.Sprintf("Text is longer than %d bytes", max)}
}

// IsInvalidEnum is violated when value is not one of allowed.
func IsInvalidEnum[E comparable](value E, allowed ...E) Rule {
	return Rule{Condition: !slices.Contains(allowed, value), Message: "Value is invalid"}
}

func IsNotRecent(now, date time.Time) Rule {
	return Rule{Condition: !Recent(now, date), Message: "Date is not recent"}
}

func IsNotSame(first, second time.Time, secondName string) Rule {
	return Rule{Condition: !first.Equal(second), Message: "Date is not the same as " + secondName}
}

func IsSame(first, second time.Time, secondName string) Rule {
	return Rule{Condition: first.Equal(second), Message: "Date is the same as " + secondName}
}

func IsNotAfter(first, second time.Time, secondName string) Rule {
	return Rule{Condition: !first.After(second), Message: "Date is not after " + secondName}
}

// Recent reports whether date lies within [0, RecentWindow] before now.
// Future dates are never recent.
func Recent(now, date time.Time) bool {
	diff := now.Sub(date)
	return diff >= 0 && diff <= RecentWindow
}
