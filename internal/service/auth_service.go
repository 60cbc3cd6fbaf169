package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"connectrpc.com/connect"
	"github.com/mmynk/billed/internal/auth"
	"github.com/mmynk/billed/internal/middleware"
	"github.com/mmynk/billed/internal/models"
	"github.com/mmynk/billed/internal/rpc"
	"github.com/mmynk/billed/internal/storage"
)

// ErrAdminRequired is returned when a non-admin asks for an admin account.
var ErrAdminRequired = errors.New("only an admin can create admin accounts")

// UserLookup fetches the full account of an authenticated user.
type UserLookup interface {
	GetUserByID(ctx context.Context, id string) (*models.User, error)
}

// AuthService implements the AuthService RPC interface.
type AuthService struct {
	authenticator auth.Authenticator
	jwtManager    *auth.JWTManager
	users         UserLookup
	logger        *slog.Logger
}

// NewAuthService creates a new authentication service.
func NewAuthService(authenticator auth.Authenticator, jwtManager *auth.JWTManager, users UserLookup, logger *slog.Logger) *AuthService {
	if logger == nil {
		logger = slog.Default()
	}
	return &AuthService{
		authenticator: authenticator,
		jwtManager:    jwtManager,
		users:         users,
		logger:        logger,
	}
}

var _ rpc.AuthServiceHandler = (*AuthService)(nil)

func toRPCUser(user *models.User) rpc.User {
	return rpc.User{
		ID:          user.ID,
		Email:       user.Email,
		DisplayName: user.DisplayName,
		Type:        user.Type,
		CreatedAt:   user.CreatedAt,
	}
}

// Register creates a new user account.
func (s *AuthService) Register(ctx context.Context, req *connect.Request[rpc.RegisterRequest]) (*connect.Response[rpc.RegisterResponse], error) {
	s.logger.Info("Register request", "email", req.Msg.Email, "type", req.Msg.Type)

	if req.Msg.Email == "" || req.Msg.DisplayName == "" {
		return nil, connect.NewError(connect.CodeInvalidArgument, auth.ErrInvalidCredentials)
	}

	// Only an admin may create another admin; everyone else gets an employee account.
	userType := req.Msg.Type
	if userType == "" {
		userType = models.UserTypeEmployee
	}
	if userType == models.UserTypeAdmin {
		caller, ok := middleware.GetSession(ctx)
		if !ok || !caller.IsAdmin() {
			s.logger.Warn("Admin registration refused", "email", req.Msg.Email)
			return nil, connect.NewError(connect.CodePermissionDenied, ErrAdminRequired)
		}
	}

	user, err := s.authenticator.Register(ctx, req.Msg.Email, req.Msg.DisplayName, userType, req.Msg.Password)
	if err != nil {
		s.logger.Error("Registration failed", "email", req.Msg.Email, "error", err)
		switch {
		case errors.Is(err, auth.ErrEmailExists):
			return nil, connect.NewError(connect.CodeAlreadyExists, err)
		case errors.Is(err, auth.ErrWeakPassword), errors.Is(err, auth.ErrInvalidUserType):
			return nil, connect.NewError(connect.CodeInvalidArgument, err)
		}
		return nil, connect.NewError(connect.CodeInternal, err)
	}

	token, err := s.jwtManager.Generate(user)
	if err != nil {
		s.logger.Error("Failed to generate token", "user_id", user.ID, "error", err)
		return nil, connect.NewError(connect.CodeInternal, err)
	}

	s.logger.Info("User registered successfully", "user_id", user.ID, "email", user.Email)
	return connect.NewResponse(&rpc.RegisterResponse{User: toRPCUser(user), Token: token}), nil
}

// Login authenticates a user and returns a JWT token.
func (s *AuthService) Login(ctx context.Context, req *connect.Request[rpc.LoginRequest]) (*connect.Response[rpc.LoginResponse], error) {
	s.logger.Info("Login request", "email", req.Msg.Email)

	if req.Msg.Email == "" || req.Msg.Password == "" {
		return nil, connect.NewError(connect.CodeInvalidArgument, auth.ErrInvalidCredentials)
	}

	user, err := s.authenticator.Authenticate(ctx, req.Msg.Email, req.Msg.Password)
	if err != nil {
		s.logger.Warn("Login failed", "email", req.Msg.Email, "error", err)
		return nil, connect.NewError(connect.CodeUnauthenticated, auth.ErrInvalidCredentials)
	}

	token, err := s.jwtManager.Generate(user)
	if err != nil {
		s.logger.Error("Failed to generate token", "user_id", user.ID, "error", err)
		return nil, connect.NewError(connect.CodeInternal, err)
	}

	s.logger.Info("User logged in successfully", "user_id", user.ID, "email", user.Email)
	return connect.NewResponse(&rpc.LoginResponse{User: toRPCUser(user), Token: token}), nil
}

// GetCurrentUser returns the currently authenticated user's information.
func (s *AuthService) GetCurrentUser(ctx context.Context, req *connect.Request[rpc.GetCurrentUserRequest]) (*connect.Response[rpc.GetCurrentUserResponse], error) {
	userID := middleware.GetUserID(ctx)
	if userID == "" {
		return nil, connect.NewError(connect.CodeUnauthenticated, auth.ErrMissingToken)
	}

	user, err := s.users.GetUserByID(ctx, userID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, connect.NewError(connect.CodeUnauthenticated, auth.ErrInvalidToken)
		}
		s.logger.Error("Failed to load current user", "user_id", userID, "error", err)
		return nil, connect.NewError(connect.CodeInternal, err)
	}

	return connect.NewResponse(&rpc.GetCurrentUserResponse{User: toRPCUser(user)}), nil
}

// SeedAdmin creates the back-office account email unless a user with that
// email already exists. It reports whether an account was created.
func SeedAdmin(ctx context.Context, authenticator auth.Authenticator, users auth.UserStorage, email, password string) (bool, error) {
	_, err := users.GetUserByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	switch {
	case err == nil:
		return false, nil
	case !errors.Is(err, storage.ErrNotFound):
		return false, fmt.Errorf("failed to look up admin: %w", err)
	}

	if _, err := authenticator.Register(ctx, email, "Admin", models.UserTypeAdmin, password); err != nil {
		return false, fmt.Errorf("failed to create admin: %w", err)
	}
	return true, nil
}
