package query

import (
	"context"
	"encoding/base64"
	"log"
	"math"
	"unicode/utf8"

	"Go2LineCount/internal/model"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
)

const (
	serviceName     = "linecount.v1.QueryService"
	topMethod       = "/" + serviceName + "/Top"
	summaryMethod   = "/" + serviceName + "/Summary"
	maxRequestLimit = math.MaxInt32
	fieldSortBy     = "sort_by"
	fieldLimit      = "limit"
	fieldEntries    = "entries"
	fieldRecord     = "record"
	fieldRecordB64  = "record_base64"
	fieldCount      = "count"
	fieldTotal      = "total_records"
	fieldDistinct   = "distinct_records"
)

// QueryServiceServer is the server API for the query service.
type QueryServiceServer interface {
	Top(context.Context, *structpb.Struct) (*structpb.Struct, error)
	Summary(context.Context, *emptypb.Empty) (*structpb.Struct, error)
}

// QueryServiceDesc describes linecount.v1.QueryService. Requests and responses
// are well-known protobuf types, so no generated code is needed.
var QueryServiceDesc = grpc.ServiceDesc{
	ServiceName: serviceName,
	HandlerType: (*QueryServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "Top", Handler: topHandler},
		{MethodName: "Summary", Handler: summaryHandler},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "linecount/v1/query.proto",
}

// RegisterQueryServiceServer registers srv with s.
func RegisterQueryServiceServer(s grpc.ServiceRegistrar, srv QueryServiceServer) {
	s.RegisterService(&QueryServiceDesc, srv)
}

func topHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(structpb.Struct)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(QueryServiceServer).Top(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: topMethod}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(QueryServiceServer).Top(ctx, req.(*structpb.Struct))
	}
	return interceptor(ctx, in, info, handler)
}

func summaryHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(emptypb.Empty)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(QueryServiceServer).Summary(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: summaryMethod}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(QueryServiceServer).Summary(ctx, req.(*emptypb.Empty))
	}
	return interceptor(ctx, in, info, handler)
}

// QueryClient is the client API for the query service.
type QueryClient struct {
	cc grpc.ClientConnInterface
}

// NewQueryClient creates a client on top of an established connection.
func NewQueryClient(cc grpc.ClientConnInterface) *QueryClient {
	return &QueryClient{cc: cc}
}

func (c *QueryClient) Top(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, topMethod, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *QueryClient) Summary(ctx context.Context, in *emptypb.Empty, opts ...grpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, summaryMethod, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

// Server implements QueryServiceServer on top of a Querier.
type Server struct {
	querier Querier
}

// NewServer creates a gRPC query service backed by q.
func NewServer(q Querier) *Server {
	return &Server{querier: q}
}

func (s *Server) Top(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	sortBy, limit, err := parseTopRequest(req)
	if err != nil {
		return nil, err
	}
	log.Printf("Received Top request: sort_by=%s, limit=%d", sortBy, limit)

	entries, err := s.querier.Top(ctx, sortBy, limit)
	if err != nil {
		return nil, status.Errorf(codes.Internal, "top query failed: %v", err)
	}

	list := make([]any, len(entries))
	for i, e := range entries {
		item := map[string]any{fieldCount: e.Count}
		if utf8.ValidString(e.Key) {
			item[fieldRecord] = e.Key
		} else {
			item[fieldRecordB64] = base64.StdEncoding.EncodeToString([]byte(e.Key))
		}
		list[i] = item
	}

	resp, err := structpb.NewStruct(map[string]any{
		fieldSortBy:  sortBy.String(),
		fieldLimit:   limit,
		fieldEntries: list,
	})
	if err != nil {
		return nil, status.Errorf(codes.Internal, "failed to build response: %v", err)
	}
	return resp, nil
}

func (s *Server) Summary(ctx context.Context, _ *emptypb.Empty) (*structpb.Struct, error) {
	log.Println("Received Summary request")
	summary, err := s.querier.Summary(ctx)
	if err != nil {
		return nil, status.Errorf(codes.Internal, "summary query failed: %v", err)
	}
	resp, err := structpb.NewStruct(map[string]any{
		fieldTotal:    summary.TotalRecords,
		fieldDistinct: summary.DistinctRecords,
	})
	if err != nil {
		return nil, status.Errorf(codes.Internal, "failed to build response: %v", err)
	}
	return resp, nil
}

// parseTopRequest reads the optional sort_by (string) and limit (whole,
// non-negative number) fields.
func parseTopRequest(req *structpb.Struct) (model.SortKey, int, error) {
	fields := req.GetFields()

	sortBy := model.SortByCount
	if v, ok := fields[fieldSortBy]; ok {
		if _, isString := v.GetKind().(*structpb.Value_StringValue); !isString {
			return 0, 0, status.Error(codes.InvalidArgument, "sort_by must be a string")
		}
		var err error
		if sortBy, err = model.ParseSortKey(v.GetStringValue()); err != nil {
			return 0, 0, status.Error(codes.InvalidArgument, err.Error())
		}
	}

	var limit int
	if v, ok := fields[fieldLimit]; ok {
		if _, isNumber := v.GetKind().(*structpb.Value_NumberValue); !isNumber {
			return 0, 0, status.Error(codes.InvalidArgument, "limit must be a number")
		}
		n := v.GetNumberValue()
		if n < 0 || n != math.Trunc(n) || n > maxRequestLimit {
			return 0, 0, status.Errorf(codes.InvalidArgument, "invalid limit %v: must be a non-negative integer", n)
		}
		limit = int(n)
	}
	return sortBy, limit, nil
}
