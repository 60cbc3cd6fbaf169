package service

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"connectrpc.com/connect"
	"github.com/mmynk/billed/internal/auth"
	"github.com/mmynk/billed/internal/blob"
	"github.com/mmynk/billed/internal/middleware"
	"github.com/mmynk/billed/internal/models"
	"github.com/mmynk/billed/internal/rpc"
	"github.com/mmynk/billed/internal/storage/sqlite"
)

var pngBytes = []byte("\x89PNG\r\n\x1a\nfake")

type testEnv struct {
	store         *sqlite.SQLiteStore
	authenticator *auth.PasswordAuthenticator
	bills         *rpc.BillServiceClient
	auth     *rpc.AuthServiceClient
	receipts *blob.LocalStore
}

// setupTestServer creates a test server with both BillService and AuthService.
func setupTestServer(t *testing.T) *testEnv {
	t.Helper()

	tmpFile, err := os.CreateTemp("", "test-*.db")
	if err != nil {
		t.Fatalf("failed to create temp file: %v", err)
	}
	tmpFile.Close()

	store, err := sqlite.New(tmpFile.Name())
	if err != nil {
		os.Remove(tmpFile.Name())
		t.Fatalf("failed to create store: %v", err)
	}

	receipts, err := blob.NewLocalStore(t.TempDir(), "http://receipts.test")
	if err != nil {
		t.Fatalf("failed to create receipt store: %v", err)
	}

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	jwtManager := auth.NewJWTManager("test-secret", time.Hour)
	authenticator := auth.NewPasswordAuthenticator(store)

	billPath, billHandler := rpc.NewBillServiceHandler(
		NewBillService(store, receipts, 64, logger),
		connect.WithInterceptors(middleware.RequireAuth(jwtManager)),
	)
	authPath, authHandler := rpc.NewAuthServiceHandler(
		NewAuthService(authenticator, jwtManager, store, logger),
		connect.WithInterceptors(middleware.OptionalAuth(jwtManager)),
	)

	mux := http.NewServeMux()
	mux.Handle(billPath, billHandler)
	mux.Handle(authPath, authHandler)

	server := httptest.NewServer(mux)

	t.Cleanup(func() {
		server.Close()
		store.Close()
		os.Remove(tmpFile.Name())
	})

	return &testEnv{
		store:         store,
		authenticator: authenticator,
		bills:         rpc.NewBillServiceClient(http.DefaultClient, server.URL),
		auth:     rpc.NewAuthServiceClient(http.DefaultClient, server.URL),
		receipts: receipts,
	}
}

func (e *testEnv) register(t *testing.T, email string, userType models.UserType) string {
	t.Helper()
	resp, err := e.auth.Register(context.Background(), connect.NewRequest(&rpc.RegisterRequest{
		Email:       email,
		DisplayName: "Test",
		Password:    "password123",
		Type:        userType,
	}))
	if err != nil {
		t.Fatalf("Register failed: %v", err)
	}
	return resp.Msg.Token
}

func (e *testEnv) seedAdmin(t *testing.T, email string) string {
	t.Helper()
	if _, err := SeedAdmin(context.Background(), e.authenticator, e.store, email, "password123"); err != nil {
		t.Fatalf("SeedAdmin failed: %v", err)
	}
	resp, err := e.auth.Login(context.Background(), connect.NewRequest(&rpc.LoginRequest{
		Email:    email,
		Password: "password123",
	}))
	if err != nil {
		t.Fatalf("Login failed: %v", err)
	}
	return resp.Msg.Token
}

func authed[T any](token string, msg *T) *connect.Request[T] {
	req := connect.NewRequest(msg)
	req.Header().Set("Authorization", "Bearer "+token)
	return req
}

func (e *testEnv) upload(t *testing.T, token, name string) *rpc.CreateBillResponse {
	t.Helper()
	resp, err := e.bills.CreateBill(context.Background(), authed(token, &rpc.CreateBillRequest{
		File: models.ReceiptFile{Name: name, ContentType: "image/png", Data: pngBytes},
	}))
	if err != nil {
		t.Fatalf("CreateBill failed: %v", err)
	}
	return resp.Msg
}

func (e *testEnv) submit(t *testing.T, token, key, date string) models.Bill {
	t.Helper()
	resp, err := e.bills.UpdateBill(context.Background(), authed(token, &rpc.UpdateBillRequest{
		BillID: key,
		Data: models.Bill{
			Type:   "Transports",
			Name:   "Vol Paris Londres",
			Amount: 348,
			Date:   date,
			VAT:    70,
			Pct:    20,
		},
	}))
	if err != nil {
		t.Fatalf("UpdateBill failed: %v", err)
	}
	return resp.Msg.Bill
}

func TestBillLifecycle(t *testing.T) {
	env := setupTestServer(t)
	token := env.register(t, "employee@test.tld", models.UserTypeEmployee)

	created := env.upload(t, token, `C:\fakepath\receipt.PNG`)
	if created.Key == "" {
		t.Fatal("expected a key")
	}
	if !strings.HasPrefix(created.FileURL, "http://receipts.test/receipts/"+created.Key) {
		t.Errorf("FileURL = %q", created.FileURL)
	}

	// Drafts are not listed.
	list, err := env.bills.ListBills(context.Background(), authed(token, &rpc.ListBillsRequest{}))
	if err != nil {
		t.Fatalf("ListBills failed: %v", err)
	}
	if len(list.Msg.Bills) != 0 {
		t.Fatalf("expected no bills before submit, got %d", len(list.Msg.Bills))
	}

	bill := env.submit(t, token, created.Key, "2004-04-04")
	if bill.Email != "employee@test.tld" {
		t.Errorf("Email = %q", bill.Email)
	}
	if bill.FileURL != created.FileURL || bill.FileName != "receipt.PNG" {
		t.Errorf("file = %q %q", bill.FileURL, bill.FileName)
	}
	if bill.Status != models.StatusPending || bill.CommittedAt == 0 {
		t.Errorf("status = %q committedAt = %d", bill.Status, bill.CommittedAt)
	}

	list, err = env.bills.ListBills(context.Background(), authed(token, &rpc.ListBillsRequest{}))
	if err != nil {
		t.Fatalf("ListBills failed: %v", err)
	}
	if len(list.Msg.Bills) != 1 || list.Msg.Bills[0].ID != created.Key {
		t.Fatalf("unexpected bills: %+v", list.Msg.Bills)
	}

	rc, contentType, err := env.receipts.Open(context.Background(), created.Key+".png")
	if err != nil {
		t.Fatalf("receipt not stored: %v", err)
	}
	rc.Close()
	if contentType != "image/png" {
		t.Errorf("contentType = %q", contentType)
	}
}

func TestListBillsScopedBySession(t *testing.T) {
	env := setupTestServer(t)
	alice := env.register(t, "alice@test.tld", models.UserTypeEmployee)
	bob := env.register(t, "bob@test.tld", models.UserTypeEmployee)
	admin := env.seedAdmin(t, "admin@test.tld")

	env.submit(t, alice, env.upload(t, alice, "a.jpg").Key, "2022-12-01")
	env.submit(t, bob, env.upload(t, bob, "b.jpg").Key, "2023-01-10")

	tests := []struct {
		name  string
		token string
		want  int
	}{
		{"employee sees own", alice, 1},
		{"other employee sees own", bob, 1},
		{"admin sees all", admin, 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, err := env.bills.ListBills(context.Background(), authed(tt.token, &rpc.ListBillsRequest{}))
			if err != nil {
				t.Fatalf("ListBills failed: %v", err)
			}
			if len(resp.Msg.Bills) != tt.want {
				t.Errorf("got %d bills, want %d", len(resp.Msg.Bills), tt.want)
			}
		})
	}
}

func TestCreateBillRejections(t *testing.T) {
	env := setupTestServer(t)
	token := env.register(t, "employee@test.tld", models.UserTypeEmployee)

	tests := []struct {
		name string
		file models.ReceiptFile
		code connect.Code
	}{
		{"pdf", models.ReceiptFile{Name: "test.pdf", Data: pngBytes}, connect.CodeInvalidArgument},
		{"no extension", models.ReceiptFile{Name: "receipt", Data: pngBytes}, connect.CodeInvalidArgument},
		{"empty", models.ReceiptFile{Name: "a.png"}, connect.CodeInvalidArgument},
		{"too large", models.ReceiptFile{Name: "a.png", Data: make([]byte, 65)}, connect.CodeResourceExhausted},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := env.bills.CreateBill(context.Background(), authed(token, &rpc.CreateBillRequest{File: tt.file}))
			if connect.CodeOf(err) != tt.code {
				t.Errorf("code = %v, want %v (err %v)", connect.CodeOf(err), tt.code, err)
			}
		})
	}
}

func TestBillProceduresRequireToken(t *testing.T) {
	env := setupTestServer(t)

	_, err := env.bills.ListBills(context.Background(), connect.NewRequest(&rpc.ListBillsRequest{}))
	if connect.CodeOf(err) != connect.CodeUnauthenticated {
		t.Errorf("no token: code = %v", connect.CodeOf(err))
	}

	_, err = env.bills.ListBills(context.Background(), authed("garbage", &rpc.ListBillsRequest{}))
	if connect.CodeOf(err) != connect.CodeUnauthenticated {
		t.Errorf("bad token: code = %v", connect.CodeOf(err))
	}
}

func TestUpdateBillErrors(t *testing.T) {
	env := setupTestServer(t)
	alice := env.register(t, "alice@test.tld", models.UserTypeEmployee)
	bob := env.register(t, "bob@test.tld", models.UserTypeEmployee)
	key := env.upload(t, alice, "a.jpg").Key

	tests := []struct {
		name  string
		token string
		req   *rpc.UpdateBillRequest
		code  connect.Code
	}{
		{"missing id", alice, &rpc.UpdateBillRequest{Data: models.Bill{Date: "2022-01-01"}}, connect.CodeInvalidArgument},
		{"bad date", alice, &rpc.UpdateBillRequest{BillID: key, Data: models.Bill{Date: "04/04/2004"}}, connect.CodeInvalidArgument},
		{"bad pct", alice, &rpc.UpdateBillRequest{BillID: key, Data: models.Bill{Date: "2022-01-01", Pct: 120}}, connect.CodeInvalidArgument},
		{"unknown bill", alice, &rpc.UpdateBillRequest{BillID: "nope", Data: models.Bill{Date: "2022-01-01"}}, connect.CodeNotFound},
		{"other owner", bob, &rpc.UpdateBillRequest{BillID: key, Data: models.Bill{Date: "2022-01-01"}}, connect.CodePermissionDenied},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := env.bills.UpdateBill(context.Background(), authed(tt.token, tt.req))
			if connect.CodeOf(err) != tt.code {
				t.Errorf("code = %v, want %v (err %v)", connect.CodeOf(err), tt.code, err)
			}
		})
	}
}

func TestAuthService(t *testing.T) {
	env := setupTestServer(t)
	token := env.register(t, "Employee@Test.tld", models.UserTypeEmployee)

	t.Run("duplicate email", func(t *testing.T) {
		_, err := env.auth.Register(context.Background(), connect.NewRequest(&rpc.RegisterRequest{
			Email: "employee@test.tld", DisplayName: "Dup", Password: "password123",
		}))
		if connect.CodeOf(err) != connect.CodeAlreadyExists {
			t.Errorf("code = %v", connect.CodeOf(err))
		}
	})

	t.Run("weak password", func(t *testing.T) {
		_, err := env.auth.Register(context.Background(), connect.NewRequest(&rpc.RegisterRequest{
			Email: "new@test.tld", DisplayName: "New", Password: "short",
		}))
		if connect.CodeOf(err) != connect.CodeInvalidArgument {
			t.Errorf("code = %v", connect.CodeOf(err))
		}
	})

	t.Run("login", func(t *testing.T) {
		resp, err := env.auth.Login(context.Background(), connect.NewRequest(&rpc.LoginRequest{
			Email: "employee@test.tld", Password: "password123",
		}))
		if err != nil {
			t.Fatalf("Login failed: %v", err)
		}
		if resp.Msg.Token == "" || resp.Msg.User.Type != models.UserTypeEmployee {
			t.Errorf("unexpected login response: %+v", resp.Msg)
		}
	})

	t.Run("wrong password", func(t *testing.T) {
		_, err := env.auth.Login(context.Background(), connect.NewRequest(&rpc.LoginRequest{
			Email: "employee@test.tld", Password: "wrongpassword",
		}))
		if connect.CodeOf(err) != connect.CodeUnauthenticated {
			t.Errorf("code = %v", connect.CodeOf(err))
		}
	})

	t.Run("current user", func(t *testing.T) {
		resp, err := env.auth.GetCurrentUser(context.Background(), authed(token, &rpc.GetCurrentUserRequest{}))
		if err != nil {
			t.Fatalf("GetCurrentUser failed: %v", err)
		}
		if resp.Msg.User.Email != "employee@test.tld" || resp.Msg.User.DisplayName != "Test" {
			t.Errorf("unexpected user: %+v", resp.Msg.User)
		}
	})

	t.Run("current user anonymous", func(t *testing.T) {
		_, err := env.auth.GetCurrentUser(context.Background(), connect.NewRequest(&rpc.GetCurrentUserRequest{}))
		if connect.CodeOf(err) != connect.CodeUnauthenticated {
			t.Errorf("code = %v", connect.CodeOf(err))
		}
	})
}

func TestRegisterAdminRequiresAdmin(t *testing.T) {
	env := setupTestServer(t)
	alice := env.register(t, "alice@test.tld", models.UserTypeEmployee)
	env.submit(t, alice, env.upload(t, alice, "a.jpg").Key, "2022-12-01")
	employee := env.register(t, "bob@test.tld", models.UserTypeEmployee)
	admin := env.seedAdmin(t, "admin@test.tld")

	adminRequest := func(email, token string) *connect.Request[rpc.RegisterRequest] {
		msg := &rpc.RegisterRequest{
			Email:       email,
			DisplayName: "Mallory",
			Password:    "password123",
			Type:        models.UserTypeAdmin,
		}
		if token == "" {
			return connect.NewRequest(msg)
		}
		return authed(token, msg)
	}

	tests := []struct {
		name  string
		email string
		token string
		code  connect.Code
	}{
		{"anonymous", "anon@test.tld", "", connect.CodePermissionDenied},
		{"employee", "promoted@test.tld", employee, connect.CodePermissionDenied},
		{"admin", "second-admin@test.tld", admin, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, err := env.auth.Register(context.Background(), adminRequest(tt.email, tt.token))
			if tt.code != 0 {
				if connect.CodeOf(err) != tt.code {
					t.Fatalf("code = %v, want %v (err %v)", connect.CodeOf(err), tt.code, err)
				}
				if _, err := env.store.GetUserByEmail(context.Background(), tt.email); err == nil {
					t.Error("refused registration must not create the account")
				}
				return
			}
			if err != nil {
				t.Fatalf("Register failed: %v", err)
			}
			if resp.Msg.User.Type != models.UserTypeAdmin {
				t.Errorf("Type = %q, want Admin", resp.Msg.User.Type)
			}
		})
	}

	// A default registration is an employee and only sees its own bills.
	resp, err := env.auth.Register(context.Background(), connect.NewRequest(&rpc.RegisterRequest{
		Email: "carol@test.tld", DisplayName: "Carol", Password: "password123",
	}))
	if err != nil {
		t.Fatalf("Register failed: %v", err)
	}
	if resp.Msg.User.Type != models.UserTypeEmployee {
		t.Fatalf("Type = %q, want Employee", resp.Msg.User.Type)
	}
	list, err := env.bills.ListBills(context.Background(), authed(resp.Msg.Token, &rpc.ListBillsRequest{}))
	if err != nil {
		t.Fatalf("ListBills failed: %v", err)
	}
	if len(list.Msg.Bills) != 0 {
		t.Errorf("new employee sees %d bills of other users", len(list.Msg.Bills))
	}
}

func TestSeedAdminIsIdempotent(t *testing.T) {
	env := setupTestServer(t)
	ctx := context.Background()

	created, err := SeedAdmin(ctx, env.authenticator, env.store, "Admin@Test.tld", "password123")
	if err != nil || !created {
		t.Fatalf("first SeedAdmin = %v, %v", created, err)
	}
	created, err = SeedAdmin(ctx, env.authenticator, env.store, "admin@test.tld", "password123")
	if err != nil || created {
		t.Fatalf("second SeedAdmin = %v, %v", created, err)
	}

	user, err := env.store.GetUserByEmail(ctx, "admin@test.tld")
	if err != nil {
		t.Fatalf("GetUserByEmail failed: %v", err)
	}
	if user.Type != models.UserTypeAdmin {
		t.Errorf("Type = %q, want Admin", user.Type)
	}
}
