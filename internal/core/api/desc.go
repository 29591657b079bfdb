package api

import (
	"context"

	"google.golang.org/grpc"
)

// ServiceName is the fully qualified gRPC service name.
const ServiceName = "filtertree.editor.v1.FilterEditor"

// FilterEditorServer is the server API for the editor service.
type FilterEditorServer interface {
	CreateSession(context.Context, *CreateSessionRequest) (*SessionResponse, error)
	GetSession(context.Context, *GetSessionRequest) (*SessionResponse, error)
	Apply(context.Context, *ApplyRequest) (*ApplyResponse, error)
	Affordances(context.Context, *AffordancesRequest) (*AffordancesResponse, error)
	Preview(context.Context, *PreviewRequest) (*PreviewResponse, error)
	ListEvents(context.Context, *ListEventsRequest) (*ListEventsResponse, error)
	DeleteSession(context.Context, *DeleteSessionRequest) (*DeleteSessionResponse, error)
}

// FilterEditorServiceDesc describes the service for grpc.Server. Messages
// are plain structs carried by the json codec.
var FilterEditorServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*FilterEditorServer)(nil),
	Methods: []grpc.MethodDesc{
		unary("CreateSession", FilterEditorServer.CreateSession),
		unary("GetSession", FilterEditorServer.GetSession),
		unary("Apply", FilterEditorServer.Apply),
		unary("Affordances", FilterEditorServer.Affordances),
		unary("Preview", FilterEditorServer.Preview),
		unary("ListEvents", FilterEditorServer.ListEvents),
		unary("DeleteSession", FilterEditorServer.DeleteSession),
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "filtertree/editor/v1",
}

// RegisterFilterEditorServer registers srv on s.
func RegisterFilterEditorServer(s grpc.ServiceRegistrar, srv FilterEditorServer) {
	s.RegisterService(&FilterEditorServiceDesc, srv)
}

// FullMethod returns the full gRPC method name for method.
func FullMethod(method string) string {
	return "/" + ServiceName + "/" + method
}

func unary[Req, Resp any](method string, call func(FilterEditorServer, context.Context, *Req) (*Resp, error)) grpc.MethodDesc {
	return grpc.MethodDesc{
		MethodName: method,
		Handler: func(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
			in := new(Req)
			if err := dec(in); err != nil {
				return nil, err
			}
			s := srv.(FilterEditorServer)
			if interceptor == nil {
				return call(s, ctx, in)
			}
			info := &grpc.UnaryServerInfo{Server: srv, FullMethod: FullMethod(method)}
			return interceptor(ctx, in, info, func(ctx context.Context, req interface{}) (interface{}, error) {
				return call(s, ctx, req.(*Req))
			})
		},
	}
}

// Client calls the editor service over the json codec.
type Client struct {
	cc grpc.ClientConnInterface
}

// NewClient wraps a client connection.
func NewClient(cc grpc.ClientConnInterface) *Client {
	return &Client{cc: cc}
}

func (c *Client) CreateSession(ctx context.Context, in *CreateSessionRequest, opts ...grpc.CallOption) (*SessionResponse, error) {
	out := new(SessionResponse)
	if err := c.invoke(ctx, "CreateSession", in, out, opts); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) GetSession(ctx context.Context, in *GetSessionRequest, opts ...grpc.CallOption) (*SessionResponse, error) {
	out := new(SessionResponse)
	if err := c.invoke(ctx, "GetSession", in, out, opts); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) Apply(ctx context.Context, in *ApplyRequest, opts ...grpc.CallOption) (*ApplyResponse, error) {
	out := new(ApplyResponse)
	if err := c.invoke(ctx, "Apply", in, out, opts); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) Affordances(ctx context.Context, in *AffordancesRequest, opts ...grpc.CallOption) (*AffordancesResponse, error) {
	out := new(AffordancesResponse)
	if err := c.invoke(ctx, "Affordances", in, out, opts); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) Preview(ctx context.Context, in *PreviewRequest, opts ...grpc.CallOption) (*PreviewResponse, error) {
	out := new(PreviewResponse)
	if err := c.invoke(ctx, "Preview", in, out, opts); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) ListEvents(ctx context.Context, in *ListEventsRequest, opts ...grpc.CallOption) (*ListEventsResponse, error) {
	out := new(ListEventsResponse)
	if err := c.invoke(ctx, "ListEvents", in, out, opts); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) DeleteSession(ctx context.Context, in *DeleteSessionRequest, opts ...grpc.CallOption) (*DeleteSessionResponse, error) {
	out := new(DeleteSessionResponse)
	if err := c.invoke(ctx, "DeleteSession", in, out, opts); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) invoke(ctx context.Context, method string, in, out interface{}, opts []grpc.CallOption) error {
	opts = append([]grpc.CallOption{grpc.CallContentSubtype(CodecName)}, opts...)
	return c.cc.Invoke(ctx, FullMethod(method), in, out, opts...)
}
