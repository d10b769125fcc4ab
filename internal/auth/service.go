package auth

import (
	"context"
	"net/http"

	"github.com/fieldtrace/evidence-cli/internal/credstore"
	"github.com/fieldtrace/evidence-cli/internal/gateway"
	"github.com/fieldtrace/evidence-cli/pkg/apierrors"
	"github.com/sirupsen/logrus"
)

// Upstream endpoints for the auth workflows.
const (
	loginEndpoint    = "/TaskUserValidation/UserValidation"
	logoutEndpoint   = "/TaskUserValidation/UserLogout"
	registerEndpoint = "/TaskUserValidation/UserRegistration"
	otpEndpoint      = "/TaskUserValidation/RequestOTP"
	resetEndpoint    = "/TaskUserValidation/ResetPassword"
)

// strOut sentinel the validation endpoint uses for rejected credentials.
const strOutInvalid = "E"

// Service orchestrates the auth workflows over the gateway and the
// credential store.
type Service struct {
	gw     *gateway.Client
	store  credstore.Store
	logger *logrus.Logger
}

// New creates an auth service.
func New(gw *gateway.Client, store credstore.Store, logger *logrus.Logger) *Service {
	return &Service{gw: gw, store: store, logger: logger}
}

// LoginResult is returned to callers on successful login.
type LoginResult struct {
	Username string
}

type loginRequest struct {
	Username  string `json:"username"`
	StoreCode string `json:"storecode"`
}

type loginResponse struct {
	Key    string `json:"key"`
	Result struct {
		StrOut    string `json:"strOut"`
		Username  string `json:"username"`
		StoreCode string `json:"storecode"`
	} `json:"result"`
}

// Login validates username and store code against the server and persists
// the returned token with a minimal profile. Rejected credentials (the
// server's strOut sentinel) and transport failures both fail the login but
// carry distinct error codes for telemetry.
func (s *Service) Login(ctx context.Context, username, storecode string) (LoginResult, error) {
	if username == "" || storecode == "" {
		return LoginResult{}, apierrors.NewAppError(apierrors.CodeValidationError,
			"username and store code are required", nil)
	}

	res := s.gw.Fetch(ctx, loginEndpoint, gateway.Options{
		Method:   http.MethodPost,
		Body:     loginRequest{Username: username, StoreCode: storecode},
		SkipAuth: true,
	})
	if !res.Success {
		return LoginResult{}, resultError(res, "login request failed")
	}

	var payload loginResponse
	if err := res.DecodeData(&payload); err != nil {
		return LoginResult{}, apierrors.NewAppError(apierrors.CodeInternalError,
			"unexpected login response", err)
	}

	if payload.Result.StrOut == strOutInvalid {
		s.logger.WithFields(logrus.Fields{
			"username": username,
			"str_out":  payload.Result.StrOut,
		}).Warn("Login rejected by server")
		return LoginResult{}, apierrors.NewAppError(apierrors.CodeInvalidCredentials,
			"invalid username or store code", nil)
	}

	profile := &credstore.Profile{
		Username:  payload.Result.Username,
		StoreCode: payload.Result.StoreCode,
	}
	if profile.Username == "" {
		profile.Username = username
	}
	if profile.StoreCode == "" {
		profile.StoreCode = storecode
	}

	if err := s.store.Save(ctx, credstore.Credentials{
		Token:   payload.Key,
		Profile: profile,
	}); err != nil {
		return LoginResult{}, apierrors.NewAppError(apierrors.CodeInternalError,
			"failed to persist credentials", err)
	}

	s.logger.WithField("username", profile.Username).Info("Login successful")
	return LoginResult{Username: profile.Username}, nil
}

// Logout clears local credentials. The server-side logout call is best
// effort: its failure is logged and swallowed, local cleanup always runs.
func (s *Service) Logout(ctx context.Context) error {
	res := s.gw.Fetch(ctx, logoutEndpoint, gateway.Options{Method: http.MethodPost})
	if !res.Success {
		s.logger.WithField("error", res.Error).Warn("Server-side logout failed, clearing local credentials anyway")
	}

	if err := s.store.Clear(ctx); err != nil {
		return apierrors.NewAppError(apierrors.CodeInternalError,
			"failed to clear local credentials", err)
	}

	s.logger.Info("Logged out")
	return nil
}

type registerRequest struct {
	Username  string `json:"username"`
	Email     string `json:"email"`
	StoreCode string `json:"storecode"`
}

type registerResponse struct {
	Key      string `json:"key"`
	Token    string `json:"token"`
	Username string `json:"username"`
}

// Register creates a new account. When the server returns a token the
// credentials are persisted exactly as on login.
func (s *Service) Register(ctx context.Context, username, email, storecode string) error {
	if username == "" || email == "" || storecode == "" {
		return apierrors.NewAppError(apierrors.CodeValidationError,
			"username, email and store code are required", nil)
	}

	res := s.gw.Fetch(ctx, registerEndpoint, gateway.Options{
		Method:   http.MethodPost,
		Body:     registerRequest{Username: username, Email: email, StoreCode: storecode},
		SkipAuth: true,
	})
	if !res.Success {
		return resultError(res, "registration failed")
	}

	var payload registerResponse
	if err := res.DecodeData(&payload); err != nil {
		return apierrors.NewAppError(apierrors.CodeInternalError,
			"unexpected registration response", err)
	}

	token := payload.Key
	if token == "" {
		token = payload.Token
	}
	if token != "" {
		if err := s.store.Save(ctx, credstore.Credentials{
			Token:   token,
			Profile: &credstore.Profile{Username: username, StoreCode: storecode},
		}); err != nil {
			return apierrors.NewAppError(apierrors.CodeInternalError,
				"failed to persist credentials", err)
		}
	}

	s.logger.WithField("username", username).Info("Registration successful")
	return nil
}

// RequestOTP asks the server to send a password-reset OTP to email.
func (s *Service) RequestOTP(ctx context.Context, email string) error {
	if email == "" {
		return apierrors.NewAppError(apierrors.CodeValidationError, "email is required", nil)
	}

	res := s.gw.Fetch(ctx, otpEndpoint, gateway.Options{
		Method:   http.MethodPost,
		Body:     map[string]string{"email": email},
		SkipAuth: true,
	})
	if !res.Success {
		return resultError(res, "OTP request failed")
	}
	return nil
}

// ResetPassword completes a password reset with the emailed OTP.
func (s *Service) ResetPassword(ctx context.Context, email, otp, newPassword string) error {
	if email == "" || otp == "" || newPassword == "" {
		return apierrors.NewAppError(apierrors.CodeValidationError,
			"email, OTP and new password are required", nil)
	}

	res := s.gw.Fetch(ctx, resetEndpoint, gateway.Options{
		Method: http.MethodPost,
		Body: map[string]string{
			"email":       email,
			"otp":         otp,
			"newPassword": newPassword,
		},
		SkipAuth: true,
	})
	if !res.Success {
		return resultError(res, "password reset failed")
	}
	return nil
}

// IsAuthValid reports whether the stored credentials are currently accepted
// by the server. The stored username and store code are replayed against the
// validation endpoint: the server is the sole source of truth for session
// liveness, no client-side expiry clock is consulted. Never returns an
// error; every failure maps to false.
func (s *Service) IsAuthValid(ctx context.Context) bool {
	creds := s.store.Load(ctx)
	if !creds.HasToken() {
		return false
	}

	// A token without a complete profile is corrupt state, not a session.
	if !creds.Profile.Complete() {
		s.logger.Debug("Stored token has no usable profile, treating as signed out")
		return false
	}

	if _, err := s.Login(ctx, creds.Profile.Username, creds.Profile.StoreCode); err != nil {
		s.logger.WithError(err).Debug("Stored credentials rejected by server")
		return false
	}
	return true
}

// resultError maps a failed gateway Result to the client error taxonomy.
func resultError(res gateway.Result, message string) error {
	code := apierrors.CodeHTTPError
	if res.IsNetworkError {
		code = apierrors.CodeNetworkError
	}
	return &apierrors.AppError{
		Code:       code,
		Message:    message + ": " + res.Error,
		StatusCode: res.StatusCode,
	}
}
