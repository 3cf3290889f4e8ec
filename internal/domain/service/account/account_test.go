package account_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"git.appkode.ru/pub/go/failure"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"topar_market/internal/domain/entity"
	"topar_market/internal/domain/service/account"
	"topar_market/internal/domain/value"
	"topar_market/pkg/errcodes"
)

type fakeUsers struct {
	mu    sync.Mutex
	users map[string]*entity.User
}

func newFakeUsers() *fakeUsers {
	return &fakeUsers{users: map[string]*entity.User{}}
}

func (f *fakeUsers) Create(_ context.Context, u *entity.User) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	copied := *u
	f.users[u.ID] = &copied

	return nil
}

func (f *fakeUsers) GetByID(_ context.Context, id string) (*entity.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	u, ok := f.users[id]
	if !ok {
		return nil, failure.NewNotFoundError("not found", failure.WithCode(errcodes.NotFound))
	}

	copied := *u

	return &copied, nil
}

func (f *fakeUsers) GetByEmail(_ context.Context, email string) (*entity.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	for _, u := range f.users {
		if u.Email == email {
			copied := *u
			return &copied, nil
		}
	}

	return nil, failure.NewNotFoundError("not found", failure.WithCode(errcodes.NotFound))
}

func (f *fakeUsers) ExistsByEmail(_ context.Context, email string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	for _, u := range f.users {
		if u.Email == email {
			return true, nil
		}
	}

	return false, nil
}

func (f *fakeUsers) ExistsByUsername(_ context.Context, username string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	for _, u := range f.users {
		if u.Username == username {
			return true, nil
		}
	}

	return false, nil
}

func (f *fakeUsers) ExistsByPhone(_ context.Context, phone string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	for _, u := range f.users {
		if u.Phone == phone {
			return true, nil
		}
	}

	return false, nil
}

func (f *fakeUsers) Update(_ context.Context, u *entity.User) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	copied := *u
	f.users[u.ID] = &copied

	return nil
}

func (f *fakeUsers) Summaries(_ context.Context, ids []string) (map[string]entity.AccountSummary, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	result := map[string]entity.AccountSummary{}

	for _, id := range ids {
		if u, ok := f.users[id]; ok {
			result[id] = u.Summary()
		}
	}

	return result, nil
}

type fakeListingCounter struct {
	count int
}

func (f fakeListingCounter) CountActiveBySeller(_ context.Context, _ string) (int, error) {
	return f.count, nil
}

type fakeTokens struct{}

func (fakeTokens) Issue(accountID string) (string, error) {
	return "token-" + accountID, nil
}

func validRegister() account.RegisterParams {
	return account.RegisterParams{
		Email:    "user@example.com",
		Password: "secret123",
		Username: "topar_user",
		Phone:    "+998901234567",
		Telegram: "@topar_user",
	}
}

func newService(users *fakeUsers) *account.Service {
	return account.NewService(users, fakeListingCounter{count: 3}, fakeTokens{})
}

func TestRegister(t *testing.T) {
	rq := require.New(t)
	ctx := context.Background()

	users := newFakeUsers()
	svc := newService(users)

	result, err := svc.Register(ctx, validRegister())
	rq.NoError(err)

	rq.NotEmpty(result.User.ID)
	rq.Equal("token-"+result.User.ID, result.Token)
	rq.Equal("user@example.com", result.User.Email)
	rq.NotEqual("secret123", result.User.PasswordHash)
	rq.NoError(bcrypt.CompareHashAndPassword([]byte(result.User.PasswordHash), []byte("secret123")))
}

func TestRegisterNormalizesEmail(t *testing.T) {
	rq := require.New(t)

	users := newFakeUsers()
	svc := newService(users)

	params := validRegister()
	params.Email = "  User@Example.COM "

	result, err := svc.Register(context.Background(), params)
	rq.NoError(err)
	rq.Equal("user@example.com", result.User.Email)
}

func TestRegisterRejections(t *testing.T) {
	ctx := context.Background()

	testCases := []struct {
		name     string
		mutate   func(p *account.RegisterParams)
		wantCode failure.ErrorCode
	}{
		{
			name:     "phone without country code",
			mutate:   func(p *account.RegisterParams) { p.Phone = "901234567" },
			wantCode: errcodes.InvalidPhoneNumber,
		},
		{
			name:     "foreign phone",
			mutate:   func(p *account.RegisterParams) { p.Phone = "+79261234567" },
			wantCode: errcodes.InvalidPhoneNumber,
		},
		{
			name:     "telegram without at sign",
			mutate:   func(p *account.RegisterParams) { p.Telegram = "topar_user" },
			wantCode: errcodes.InvalidTelegramHandle,
		},
		{
			name:     "telegram too short",
			mutate:   func(p *account.RegisterParams) { p.Telegram = "@ab" },
			wantCode: errcodes.InvalidTelegramHandle,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			rq := require.New(t)

			users := newFakeUsers()
			svc := newService(users)

			params := validRegister()
			tc.mutate(&params)

			_, err := svc.Register(ctx, params)
			rq.Error(err)
			rq.Equal(tc.wantCode, failure.Code(err))
			rq.Empty(users.users)
		})
	}
}

func TestRegisterUniqueness(t *testing.T) {
	ctx := context.Background()

	testCases := []struct {
		name     string
		mutate   func(p *account.RegisterParams)
		wantCode failure.ErrorCode
	}{
		{
			name:     "duplicate email",
			mutate:   func(p *account.RegisterParams) { p.Username = "another"; p.Phone = "+998907654321" },
			wantCode: errcodes.EmailAlreadyInUse,
		},
		{
			name:     "duplicate username",
			mutate:   func(p *account.RegisterParams) { p.Email = "other@example.com"; p.Phone = "+998907654321" },
			wantCode: errcodes.UsernameAlreadyInUse,
		},
		{
			name:     "duplicate phone",
			mutate:   func(p *account.RegisterParams) { p.Email = "other@example.com"; p.Username = "another" },
			wantCode: errcodes.PhoneAlreadyInUse,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			rq := require.New(t)

			users := newFakeUsers()
			svc := newService(users)

			_, err := svc.Register(ctx, validRegister())
			rq.NoError(err)

			params := validRegister()
			params.Telegram = "@other_user"
			tc.mutate(&params)

			_, err = svc.Register(ctx, params)
			rq.Error(err)
			rq.Equal(tc.wantCode, failure.Code(err))
		})
	}
}

func TestLogin(t *testing.T) {
	rq := require.New(t)
	ctx := context.Background()

	users := newFakeUsers()
	svc := newService(users)

	registered, err := svc.Register(ctx, validRegister())
	rq.NoError(err)

	result, err := svc.Login(ctx, "user@example.com", "secret123")
	rq.NoError(err)
	rq.Equal(registered.User.ID, result.User.ID)
	rq.NotEmpty(result.Token)

	// Неверный пароль и незнакомый email дают один и тот же код.
	_, err = svc.Login(ctx, "user@example.com", "wrong")
	rq.Error(err)
	rq.Equal(errcodes.CredentialsMismatch, failure.Code(err))
	rq.True(failure.IsUnauthorizedError(err))

	_, err = svc.Login(ctx, "stranger@example.com", "secret123")
	rq.Error(err)
	rq.Equal(errcodes.CredentialsMismatch, failure.Code(err))
}

func TestGetProfile(t *testing.T) {
	rq := require.New(t)
	ctx := context.Background()

	users := newFakeUsers()
	svc := newService(users)

	registered, err := svc.Register(ctx, validRegister())
	rq.NoError(err)

	profile, err := svc.GetProfile(ctx, registered.User.ID)
	rq.NoError(err)
	rq.Equal(registered.User.ID, profile.User.ID)
	rq.Equal(3, profile.ActiveListings)

	_, err = svc.GetProfile(ctx, "missing")
	rq.Error(err)
	rq.True(failure.IsNotFoundError(err))
}

func TestUpdateProfile(t *testing.T) {
	rq := require.New(t)
	ctx := context.Background()

	users := newFakeUsers()
	svc := newService(users)

	registered, err := svc.Register(ctx, validRegister())
	rq.NoError(err)

	firstName := "Алишер"
	city := value.Location{City: "Ташкент"}

	updated, err := svc.UpdateProfile(ctx, registered.User.ID, account.UpdateProfileParams{
		FirstName: &firstName,
		Location:  &city,
	})
	rq.NoError(err)
	rq.Equal("Алишер", updated.FirstName)
	rq.Equal("Ташкент", updated.Location.City)
	rq.Equal("topar_user", updated.Username, "untouched fields keep their values")
}

func TestVerify(t *testing.T) {
	rq := require.New(t)
	ctx := context.Background()

	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	users := newFakeUsers()
	svc := newService(users).WithClock(func() time.Time { return now })

	registered, err := svc.Register(ctx, validRegister())
	rq.NoError(err)
	rq.False(registered.User.IsVerified)

	verified, err := svc.Verify(ctx, registered.User.ID, "https://cdn.example.com/selfie.jpg")
	rq.NoError(err)
	rq.True(verified.IsVerified)
	rq.NotNil(verified.VerifiedAt)
	rq.Equal(now, *verified.VerifiedAt)

	_, err = svc.Verify(ctx, registered.User.ID, "")
	rq.Error(err)
	rq.Equal(errcodes.ValidationError, failure.Code(err))
}
