package server

import (
	"context"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"

	"topar_market/internal/domain/entity"
	"topar_market/internal/domain/service/account"
	"topar_market/pkg/contextx"
	"topar_market/pkg/httpx/reply"
	"topar_market/pkg/httpx/req"
	"topar_market/pkg/rest"
)

type accountService interface {
	Register(ctx context.Context, params account.RegisterParams) (*account.AuthResult, error)
	Login(ctx context.Context, email, password string) (*account.AuthResult, error)
	GetProfile(ctx context.Context, accountID string) (*account.Profile, error)
	UpdateProfile(ctx context.Context, accountID string, params account.UpdateProfileParams) (*entity.User, error)
	Verify(ctx context.Context, accountID, selfieURL string) (*entity.User, error)
}

type AccountServer struct {
	accountService accountService
}

func NewAccountServer(accountService accountService) AccountServer {
	return AccountServer{
		accountService: accountService,
	}
}

func (s AccountServer) postV1AuthRegister(w http.ResponseWriter, r *http.Request) error {
	ctx := r.Context()

	var request rest.RegisterRequest

	if err := req.Read(r, &request); err != nil {
		return fmt.Errorf("req.Read: %w", err)
	}

	result, err := s.accountService.Register(ctx, account.RegisterParams{
		Email:    request.Email,
		Password: request.Password,
		Username: request.Username,
		Phone:    request.Phone,
		Telegram: request.Telegram,
	})
	if err != nil {
		return fmt.Errorf("accountService.Register: %w", err)
	}

	reply.JSON(ctx, w, http.StatusCreated, newRESTAuthResponse(result))

	return nil
}

func (s AccountServer) postV1AuthLogin(w http.ResponseWriter, r *http.Request) error {
	ctx := r.Context()

	var request rest.LoginRequest

	if err := req.Read(r, &request); err != nil {
		return fmt.Errorf("req.Read: %w", err)
	}

	result, err := s.accountService.Login(ctx, request.Email, request.Password)
	if err != nil {
		return fmt.Errorf("accountService.Login: %w", err)
	}

	reply.JSON(ctx, w, http.StatusOK, newRESTAuthResponse(result))

	return nil
}

func (s AccountServer) getV1User(w http.ResponseWriter, r *http.Request) error {
	ctx := r.Context()

	profile, err := s.accountService.GetProfile(ctx, chi.URLParam(r, "id"))
	if err != nil {
		return fmt.Errorf("accountService.GetProfile: %w", err)
	}

	reply.JSON(ctx, w, http.StatusOK, struct {
		rest.User
		ActiveListings int `json:"activeListings"`
	}{
		User:           newRESTPublicUser(profile.User),
		ActiveListings: profile.ActiveListings,
	})

	return nil
}

func (s AccountServer) getV1Me(w http.ResponseWriter, r *http.Request) error {
	ctx := r.Context()

	userID, err := contextx.UserIDFromContext(ctx)
	if err != nil {
		return fmt.Errorf("contextx.UserIDFromContext: %w", err)
	}

	profile, err := s.accountService.GetProfile(ctx, userID.String())
	if err != nil {
		return fmt.Errorf("accountService.GetProfile: %w", err)
	}

	reply.JSON(ctx, w, http.StatusOK, newRESTUser(profile.User))

	return nil
}

func (s AccountServer) putV1Me(w http.ResponseWriter, r *http.Request) error {
	ctx := r.Context()

	userID, err := contextx.UserIDFromContext(ctx)
	if err != nil {
		return fmt.Errorf("contextx.UserIDFromContext: %w", err)
	}

	var request rest.UpdateProfileRequest

	if err := req.Read(r, &request); err != nil {
		return fmt.Errorf("req.Read: %w", err)
	}

	params := account.UpdateProfileParams{
		FirstName: request.FirstName,
		LastName:  request.LastName,
		Avatar:    request.Avatar,
	}

	if request.Location != nil {
		location := newDomainLocation(request.Location)
		params.Location = &location
	}

	user, err := s.accountService.UpdateProfile(ctx, userID.String(), params)
	if err != nil {
		return fmt.Errorf("accountService.UpdateProfile: %w", err)
	}

	reply.JSON(ctx, w, http.StatusOK, newRESTUser(user))

	return nil
}

func (s AccountServer) postV1MeVerify(w http.ResponseWriter, r *http.Request) error {
	ctx := r.Context()

	userID, err := contextx.UserIDFromContext(ctx)
	if err != nil {
		return fmt.Errorf("contextx.UserIDFromContext: %w", err)
	}

	var request rest.VerifyRequest

	if err := req.Read(r, &request); err != nil {
		return fmt.Errorf("req.Read: %w", err)
	}

	user, err := s.accountService.Verify(ctx, userID.String(), request.SelfieURL)
	if err != nil {
		return fmt.Errorf("accountService.Verify: %w", err)
	}

	reply.JSON(ctx, w, http.StatusOK, newRESTUser(user))

	return nil
}

func newRESTAuthResponse(result *account.AuthResult) rest.AuthResponse {
	return rest.AuthResponse{
		Success: true,
		Token:   result.Token,
		User:    newRESTUser(result.User),
	}
}
