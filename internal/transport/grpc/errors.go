package grpc

import (
	"errors"

	"google.golang.org/genproto/googleapis/rpc/errdetails"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/mvaleed/carfleet/internal/domain"
)

// mapDomainError converts the failure taxonomy to gRPC status errors.
func mapDomainError(err error) error {
	if err == nil {
		return nil
	}
	if _, ok := status.FromError(err); ok {
		return err
	}

	if errors.Is(err, domain.ErrInvalidCredential) {
		return status.Error(codes.Unauthenticated, err.Error())
	}

	var ee *domain.EntityError
	if !errors.As(err, &ee) {
		return status.Error(codes.Internal, "internal server error")
	}

	switch {
	case errors.Is(err, domain.ErrNotFound):
		return status.Error(codes.NotFound, ee.Err.Error())
	case ee.Kind == domain.KindValidation:
		return withViolations(status.New(codes.InvalidArgument, ee.Err.Error()), domain.Violations(err))
	case errors.Is(err, domain.ErrAlreadyExists):
		return status.Error(codes.AlreadyExists, ee.Err.Error())
	case errors.Is(err, domain.ErrLocked):
		return status.Error(codes.Aborted, ee.Err.Error())
	case ee.Kind == domain.KindDependency:
		return status.Error(codes.Unavailable, ee.Error())
	}
	return status.Error(codes.Internal, ee.Error())
}

func withViolations(st *status.Status, violations domain.ValidationErrors) error {
	if len(violations) == 0 {
		return st.Err()
	}
	br := &errdetails.BadRequest{}
	for _, v := range violations {
		br.FieldViolations = append(br.FieldViolations, &errdetails.BadRequest_FieldViolation{
			Field:       v.Field,
			Description: v.Message,
		})
	}
	detailed, err := st.WithDetails(br)
	if err != nil {
		return st.Err()
	}
	return detailed.Err()
}
