package grpc

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/mvaleed/carfleet/internal/domain"
	"github.com/mvaleed/carfleet/internal/service"
)

// RecordsServiceName is the fully qualified gRPC service name.
const RecordsServiceName = "fleet.v1.Records"

const (
	methodAdd          = "Add"
	methodRetrieveAll  = "RetrieveAll"
	methodRetrieveByID = "RetrieveById"
	methodModify       = "Modify"
	methodRemoveByID   = "RemoveById"
	methodSignIn       = "SignIn"
)

func methodPath(method string) string {
	return "/" + RecordsServiceName + "/" + method
}

// RecordsServer is the server API for fleet.v1.Records. Every request names the record
// collection in its "entity" field, e.g. "car-types".
type RecordsServer interface {
	Add(context.Context, *structpb.Struct) (*structpb.Struct, error)
	RetrieveAll(context.Context, *structpb.Struct) (*structpb.Struct, error)
	RetrieveById(context.Context, *structpb.Struct) (*structpb.Struct, error)
	Modify(context.Context, *structpb.Struct) (*structpb.Struct, error)
	RemoveById(context.Context, *structpb.Struct) (*structpb.Struct, error)
	SignIn(context.Context, *structpb.Struct) (*structpb.Struct, error)
}

// RegisterRecordsServer registers srv with s.
func RegisterRecordsServer(s grpc.ServiceRegistrar, srv RecordsServer) {
	s.RegisterService(&recordsServiceDesc, srv)
}

var recordsServiceDesc = grpc.ServiceDesc{
	ServiceName: RecordsServiceName,
	HandlerType: (*RecordsServer)(nil),
	Methods: []grpc.MethodDesc{
		unaryMethod(methodAdd, RecordsServer.Add),
		unaryMethod(methodRetrieveAll, RecordsServer.RetrieveAll),
		unaryMethod(methodRetrieveByID, RecordsServer.RetrieveById),
		unaryMethod(methodModify, RecordsServer.Modify),
		unaryMethod(methodRemoveByID, RecordsServer.RemoveById),
		unaryMethod(methodSignIn, RecordsServer.SignIn),
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "fleet/v1/records.proto",
}

func unaryMethod(
	name string,
	call func(RecordsServer, context.Context, *structpb.Struct) (*structpb.Struct, error),
) grpc.MethodDesc {
	return grpc.MethodDesc{
		MethodName: name,
		Handler: func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
			in := new(structpb.Struct)
			if err := dec(in); err != nil {
				return nil, err
			}
			if interceptor == nil {
				return call(srv.(RecordsServer), ctx, in)
			}
			info := &grpc.UnaryServerInfo{Server: srv, FullMethod: methodPath(name)}
			handler := func(ctx context.Context, req any) (any, error) {
				return call(srv.(RecordsServer), ctx, req.(*structpb.Struct))
			}
			return interceptor(ctx, in, info, handler)
		},
	}
}

// collection adapts one foundation service to structpb payloads.
type collection interface {
	add(ctx context.Context, record *structpb.Struct) (*structpb.Value, error)
	retrieveAll(ctx context.Context, skip, top int) (*structpb.Value, error)
	retrieveByID(ctx context.Context, id uuid.UUID) (*structpb.Value, error)
	modify(ctx context.Context, record *structpb.Struct) (*structpb.Value, error)
	removeByID(ctx context.Context, id uuid.UUID) (*structpb.Value, error)
}

type records[T domain.Entity] struct {
	svc       *service.Foundation[T]
	present   func(*T) *T
	anonymous func(*T)
}

// newRecords adapts svc. anonymous, when set, rewrites records added without a token.
func newRecords[T domain.Entity](svc *service.Foundation[T], present func(*T) *T, anonymous func(*T)) records[T] {
	if present == nil {
		present = func(record *T) *T { return record }
	}
	return records[T]{svc: svc, present: present, anonymous: anonymous}
}

func (c records[T]) add(ctx context.Context, in *structpb.Struct) (*structpb.Value, error) {
	record, err := fromStruct[T](in)
	if err != nil {
		return nil, err
	}
	if _, ok := ClaimsFromContext(ctx); !ok && c.anonymous != nil && record != nil {
		c.anonymous(record)
	}
	stored, err := c.svc.Add(ctx, record)
	if err != nil {
		return nil, err
	}
	return toValue(c.present(stored))
}

func (c records[T]) retrieveAll(ctx context.Context, skip, top int) (*structpb.Value, error) {
	items, err := c.svc.RetrieveAll(ctx).Skip(skip).Take(top).Collect(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]*T, 0, len(items))
	for _, item := range items {
		out = append(out, c.present(item))
	}
	return toValue(out)
}

func (c records[T]) retrieveByID(ctx context.Context, id uuid.UUID) (*structpb.Value, error) {
	record, err := c.svc.RetrieveByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return toValue(c.present(record))
}

func (c records[T]) modify(ctx context.Context, in *structpb.Struct) (*structpb.Value, error) {
	record, err := fromStruct[T](in)
	if err != nil {
		return nil, err
	}
	updated, err := c.svc.Modify(ctx, record)
	if err != nil {
		return nil, err
	}
	return toValue(c.present(updated))
}

func (c records[T]) removeByID(ctx context.Context, id uuid.UUID) (*structpb.Value, error) {
	removed, err := c.svc.RemoveByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return toValue(c.present(removed))
}

// fromStruct decodes a payload through its JSON form so records keep a single set of
// field names across transports.
func fromStruct[T any](in *structpb.Struct) (*T, error) {
	if in == nil {
		return nil, nil
	}
	raw, err := in.MarshalJSON()
	if err != nil {
		return nil, status.Error(codes.InvalidArgument, "record: invalid payload")
	}
	record := new(T)
	if err := json.Unmarshal(raw, record); err != nil {
		return nil, status.Errorf(codes.InvalidArgument, "record: %v", err)
	}
	return record, nil
}

func toValue(v any) (*structpb.Value, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("encoding record: %w", err)
	}
	out := new(structpb.Value)
	if err := out.UnmarshalJSON(raw); err != nil {
		return nil, fmt.Errorf("encoding record: %w", err)
	}
	return out, nil
}

type recordsServer struct {
	collections map[string]collection
	auth        *service.AuthService
}

func newRecordsServer(services *service.Services, authService *service.AuthService) *recordsServer {
	return &recordsServer{
		auth: authService,
		collections: map[string]collection{
			"cars":            newRecords(services.Cars, nil, nil),
			"car-types":       newRecords(services.CarTypes, nil, nil),
			"car-models":      newRecords(services.CarModels, nil, nil),
			"categories":      newRecords(services.Categories, nil, nil),
			"offer-types":     newRecords(services.OfferTypes, nil, nil),
			"service-types":   newRecords(services.ServiceTypes, nil, nil),
			"addresses":       newRecords(services.Addresses, nil, nil),
			"driver-licenses": newRecords(services.DriverLicenses, nil, nil),
			"offers":          newRecords(services.Offers, nil, nil),
			"penalties":       newRecords(services.Penalties, nil, nil),
			"services":        newRecords(services.Services, nil, nil),
			"users":           newRecords(services.Users, redactPassword, registerUser),
		},
	}
}

func (s *recordsServer) collection(in *structpb.Struct) (collection, error) {
	name := in.GetFields()["entity"].GetStringValue()
	c, ok := s.collections[name]
	if !ok {
		return nil, status.Errorf(codes.InvalidArgument, "unknown entity %q", name)
	}
	return c, nil
}

func (s *recordsServer) Add(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	c, err := s.collection(in)
	if err != nil {
		return nil, err
	}
	v, err := c.add(ctx, in.GetFields()["record"].GetStructValue())
	return recordResponse(v, err)
}

func (s *recordsServer) RetrieveAll(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	c, err := s.collection(in)
	if err != nil {
		return nil, err
	}
	skip, err := intField(in, "skip", 0)
	if err != nil {
		return nil, err
	}
	top, err := intField(in, "top", -1)
	if err != nil {
		return nil, err
	}

	v, err := c.retrieveAll(ctx, skip, top)
	if err != nil {
		return nil, mapDomainError(err)
	}
	return &structpb.Struct{Fields: map[string]*structpb.Value{"records": v}}, nil
}

func (s *recordsServer) RetrieveById(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	c, err := s.collection(in)
	if err != nil {
		return nil, err
	}
	id, err := idField(in)
	if err != nil {
		return nil, err
	}
	v, err := c.retrieveByID(ctx, id)
	return recordResponse(v, err)
}

func (s *recordsServer) Modify(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	c, err := s.collection(in)
	if err != nil {
		return nil, err
	}
	v, err := c.modify(ctx, in.GetFields()["record"].GetStructValue())
	return recordResponse(v, err)
}

func (s *recordsServer) RemoveById(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	c, err := s.collection(in)
	if err != nil {
		return nil, err
	}
	id, err := idField(in)
	if err != nil {
		return nil, err
	}
	v, err := c.removeByID(ctx, id)
	return recordResponse(v, err)
}

func (s *recordsServer) SignIn(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	fields := in.GetFields()
	result, err := s.auth.SignIn(ctx, fields["email"].GetStringValue(), fields["password"].GetStringValue())
	if err != nil {
		return nil, mapDomainError(err)
	}

	user, err := toValue(redactPassword(result.User))
	if err != nil {
		return nil, mapDomainError(err)
	}
	return &structpb.Struct{Fields: map[string]*structpb.Value{
		"access_token": structpb.NewStringValue(result.AccessToken),
		"expires_in":   structpb.NewNumberValue(float64(result.ExpiresInSeconds)),
		"user":         user,
	}}, nil
}

func recordResponse(v *structpb.Value, err error) (*structpb.Struct, error) {
	if err != nil {
		return nil, mapDomainError(err)
	}
	return &structpb.Struct{Fields: map[string]*structpb.Value{"record": v}}, nil
}

func idField(in *structpb.Struct) (uuid.UUID, error) {
	id, err := uuid.Parse(in.GetFields()["id"].GetStringValue())
	if err != nil {
		return uuid.Nil, status.Error(codes.InvalidArgument, "id: invalid id")
	}
	return id, nil
}

func intField(in *structpb.Struct, key string, fallback int) (int, error) {
	v, ok := in.GetFields()[key]
	if !ok {
		return fallback, nil
	}
	n, ok := v.GetKind().(*structpb.Value_NumberValue)
	if !ok || n.NumberValue < 0 || n.NumberValue != float64(int(n.NumberValue)) {
		return 0, status.Errorf(codes.InvalidArgument, "%s: must be a non-negative integer", key)
	}
	return int(n.NumberValue), nil
}

// registerUser pins self-registered accounts to the least privileged role.
func registerUser(u *domain.User) {
	u.Role = domain.RoleUser
}

func redactPassword(u *domain.User) *domain.User {
	if u == nil {
		return nil
	}
	out := *u
	out.Password = ""
	return &out
}
