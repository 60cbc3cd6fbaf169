package rpc

import (
	"context"
	"net/http"
	"strings"

	"connectrpc.com/connect"
)

const (
	BillServiceName = "billed.v1.BillService"
	AuthServiceName = "billed.v1.AuthService"
)

const (
	ListBillsProcedure  = "/" + BillServiceName + "/ListBills"
	CreateBillProcedure = "/" + BillServiceName + "/CreateBill"
	UpdateBillProcedure = "/" + BillServiceName + "/UpdateBill"

	RegisterProcedure       = "/" + AuthServiceName + "/Register"
	LoginProcedure          = "/" + AuthServiceName + "/Login"
	GetCurrentUserProcedure = "/" + AuthServiceName + "/GetCurrentUser"
)

// BillServiceHandler is implemented by the server side of the bill store.
type BillServiceHandler interface {
	ListBills(context.Context, *connect.Request[ListBillsRequest]) (*connect.Response[ListBillsResponse], error)
	CreateBill(context.Context, *connect.Request[CreateBillRequest]) (*connect.Response[CreateBillResponse], error)
	UpdateBill(context.Context, *connect.Request[UpdateBillRequest]) (*connect.Response[UpdateBillResponse], error)
}

// AuthServiceHandler is implemented by the account service.
type AuthServiceHandler interface {
	Register(context.Context, *connect.Request[RegisterRequest]) (*connect.Response[RegisterResponse], error)
	Login(context.Context, *connect.Request[LoginRequest]) (*connect.Response[LoginResponse], error)
	GetCurrentUser(context.Context, *connect.Request[GetCurrentUserRequest]) (*connect.Response[GetCurrentUserResponse], error)
}

func handlerOptions(opts []connect.HandlerOption) []connect.HandlerOption {
	return append([]connect.HandlerOption{connect.WithCodec(JSONCodec{})}, opts...)
}

func clientOptions(opts []connect.ClientOption) []connect.ClientOption {
	return append([]connect.ClientOption{connect.WithCodec(JSONCodec{})}, opts...)
}

// NewBillServiceHandler builds an HTTP handler serving every BillService
// procedure. It returns the path prefix to mount the handler on.
func NewBillServiceHandler(svc BillServiceHandler, opts ...connect.HandlerOption) (string, http.Handler) {
	opts = handlerOptions(opts)
	listBills := connect.NewUnaryHandler(ListBillsProcedure, svc.ListBills, opts...)
	createBill := connect.NewUnaryHandler(CreateBillProcedure, svc.CreateBill, opts...)
	updateBill := connect.NewUnaryHandler(UpdateBillProcedure, svc.UpdateBill, opts...)

	return "/" + BillServiceName + "/", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case ListBillsProcedure:
			listBills.ServeHTTP(w, r)
		case CreateBillProcedure:
			createBill.ServeHTTP(w, r)
		case UpdateBillProcedure:
			updateBill.ServeHTTP(w, r)
		default:
			http.NotFound(w, r)
		}
	})
}

// NewAuthServiceHandler builds an HTTP handler serving every AuthService procedure.
func NewAuthServiceHandler(svc AuthServiceHandler, opts ...connect.HandlerOption) (string, http.Handler) {
	opts = handlerOptions(opts)
	register := connect.NewUnaryHandler(RegisterProcedure, svc.Register, opts...)
	login := connect.NewUnaryHandler(LoginProcedure, svc.Login, opts...)
	currentUser := connect.NewUnaryHandler(GetCurrentUserProcedure, svc.GetCurrentUser, opts...)

	return "/" + AuthServiceName + "/", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case RegisterProcedure:
			register.ServeHTTP(w, r)
		case LoginProcedure:
			login.ServeHTTP(w, r)
		case GetCurrentUserProcedure:
			currentUser.ServeHTTP(w, r)
		default:
			http.NotFound(w, r)
		}
	})
}

// BillServiceClient calls BillService procedures.
type BillServiceClient struct {
	listBills  *connect.Client[ListBillsRequest, ListBillsResponse]
	createBill *connect.Client[CreateBillRequest, CreateBillResponse]
	updateBill *connect.Client[UpdateBillRequest, UpdateBillResponse]
}

// NewBillServiceClient creates a client for the BillService at baseURL.
func NewBillServiceClient(httpClient connect.HTTPClient, baseURL string, opts ...connect.ClientOption) *BillServiceClient {
	baseURL = strings.TrimRight(baseURL, "/")
	opts = clientOptions(opts)
	return &BillServiceClient{
		listBills:  connect.NewClient[ListBillsRequest, ListBillsResponse](httpClient, baseURL+ListBillsProcedure, opts...),
		createBill: connect.NewClient[CreateBillRequest, CreateBillResponse](httpClient, baseURL+CreateBillProcedure, opts...),
		updateBill: connect.NewClient[UpdateBillRequest, UpdateBillResponse](httpClient, baseURL+UpdateBillProcedure, opts...),
	}
}

func (c *BillServiceClient) ListBills(ctx context.Context, req *connect.Request[ListBillsRequest]) (*connect.Response[ListBillsResponse], error) {
	return c.listBills.CallUnary(ctx, req)
}

func (c *BillServiceClient) CreateBill(ctx context.Context, req *connect.Request[CreateBillRequest]) (*connect.Response[CreateBillResponse], error) {
	return c.createBill.CallUnary(ctx, req)
}

func (c *BillServiceClient) UpdateBill(ctx context.Context, req *connect.Request[UpdateBillRequest]) (*connect.Response[UpdateBillResponse], error) {
	return c.updateBill.CallUnary(ctx, req)
}

// AuthServiceClient calls AuthService procedures.
type AuthServiceClient struct {
	register    *connect.Client[RegisterRequest, RegisterResponse]
	login       *connect.Client[LoginRequest, LoginResponse]
	currentUser *connect.Client[GetCurrentUserRequest, GetCurrentUserResponse]
}

// NewAuthServiceClient creates a client for the AuthService at baseURL.
func NewAuthServiceClient(httpClient connect.HTTPClient, baseURL string, opts ...connect.ClientOption) *AuthServiceClient {
	baseURL = strings.TrimRight(baseURL, "/")
	opts = clientOptions(opts)
	return &AuthServiceClient{
		register:    connect.NewClient[RegisterRequest, RegisterResponse](httpClient, baseURL+RegisterProcedure, opts...),
		login:       connect.NewClient[LoginRequest, LoginResponse](httpClient, baseURL+LoginProcedure, opts...),
		currentUser: connect.NewClient[GetCurrentUserRequest, GetCurrentUserResponse](httpClient, baseURL+GetCurrentUserProcedure, opts...),
	}
}

func (c *AuthServiceClient) Register(ctx context.Context, req *connect.Request[RegisterRequest]) (*connect.Response[RegisterResponse], error) {
	return c.register.CallUnary(ctx, req)
}

func (c *AuthServiceClient) Login(ctx context.Context, req *connect.Request[LoginRequest]) (*connect.Response[LoginResponse], error) {
	return c.login.CallUnary(ctx, req)
}

func (c *AuthServiceClient) GetCurrentUser(ctx context.Context, req *connect.Request[GetCurrentUserRequest]) (*connect.Response[GetCurrentUserResponse], error) {
	return c.currentUser.CallUnary(ctx, req)
}
