package account

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"

	"git.appkode.ru/pub/go/failure"
	"github.com/rs/xid"
	"golang.org/x/crypto/bcrypt"

	"topar_market/internal/domain/entity"
	"topar_market/internal/domain/value"
	"topar_market/pkg/errcodes"
)

var (
	phonePattern    = regexp.MustCompile(`^\+998\d{9}$`)
	telegramPattern = regexp.MustCompile(`^@[A-Za-z0-9_]{5,32}$`)
)

type userRepository interface {
	Create(ctx context.Context, user *entity.User) error
	GetByID(ctx context.Context, id string) (*entity.User, error)
	GetByEmail(ctx context.Context, email string) (*entity.User, error)
	ExistsByEmail(ctx context.Context, email string) (bool, error)
	ExistsByUsername(ctx context.Context, username string) (bool, error)
	ExistsByPhone(ctx context.Context, phone string) (bool, error)
	Update(ctx context.Context, user *entity.User) error
	Summaries(ctx context.Context, ids []string) (map[string]entity.AccountSummary, error)
}

type listingCounter interface {
	CountActiveBySeller(ctx context.Context, sellerID string) (int, error)
}

// tokenIssuer выпускает JWT на идентификатор аккаунта.
type tokenIssuer interface {
	Issue(accountID string) (string, error)
}

type Service struct {
	users    userRepository
	listings listingCounter
	tokens   tokenIssuer
	now      func() time.Time
}

// NewService создаёт сервис аккаунтов.
func NewService(users userRepository, listings listingCounter, tokens tokenIssuer) *Service {
	return &Service{
		users:    users,
		listings: listings,
		tokens:   tokens,
		now:      time.Now,
	}
}

// WithClock подменяет источник времени (для тестов).
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now

	return s
}

type RegisterParams struct {
	Email    string
	Password string
	Username string
	Phone    string
	Telegram string
}

type AuthResult struct {
	User  *entity.User
	Token string
}

// Register создаёт аккаунт. Телефон в формате +998, телеграм с @, email и
// username уникальны, пароль хранится bcrypt-хэшем.
func (s *Service) Register(ctx context.Context, params RegisterParams) (*AuthResult, error) {
	email := strings.ToLower(strings.TrimSpace(params.Email))

	if !phonePattern.MatchString(params.Phone) {
		return nil, failure.NewInvalidArgumentError(
			"phone must match +998XXXXXXXXX",
			failure.WithCode(errcodes.InvalidPhoneNumber),
			failure.WithDescription("Phone number must be in +998 format"),
		)
	}

	if !telegramPattern.MatchString(params.Telegram) {
		return nil, failure.NewInvalidArgumentError(
			"telegram handle must match @username",
			failure.WithCode(errcodes.InvalidTelegramHandle),
			failure.WithDescription("Telegram handle must start with @"),
		)
	}

	if err := s.checkUnique(ctx, email, params.Username, params.Phone); err != nil {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(params.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("bcrypt.GenerateFromPassword: %w", err)
	}

	user := &entity.User{
		ID:           xid.New().String(),
		Email:        email,
		PasswordHash: string(hash),
		Username:     params.Username,
		Phone:        params.Phone,
		Telegram:     params.Telegram,
		CreatedAt:    s.now(),
	}

	if err := s.users.Create(ctx, user); err != nil {
		return nil, fmt.Errorf("users.Create: %w", err)
	}

	token, err := s.tokens.Issue(user.ID)
	if err != nil {
		return nil, fmt.Errorf("tokens.Issue: %w", err)
	}

	return &AuthResult{User: user, Token: token}, nil
}

// Login проверяет пару email/пароль и выпускает токен. Несуществующий email
// и неверный пароль неразличимы для вызывающего.
func (s *Service) Login(ctx context.Context, email, password string) (*AuthResult, error) {
	user, err := s.users.GetByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		if failure.IsNotFoundError(err) {
			return nil, errCredentialsMismatch()
		}

		return nil, fmt.Errorf("users.GetByEmail: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, errCredentialsMismatch()
	}

	token, err := s.tokens.Issue(user.ID)
	if err != nil {
		return nil, fmt.Errorf("tokens.Issue: %w", err)
	}

	return &AuthResult{User: user, Token: token}, nil
}

type Profile struct {
	User           *entity.User
	ActiveListings int
}

// GetProfile возвращает публичный профиль с числом активных объявлений.
func (s *Service) GetProfile(ctx context.Context, accountID string) (*Profile, error) {
	user, err := s.users.GetByID(ctx, accountID)
	if err != nil {
		return nil, fmt.Errorf("users.GetByID: %w", err)
	}

	active, err := s.listings.CountActiveBySeller(ctx, accountID)
	if err != nil {
		return nil, fmt.Errorf("listings.CountActiveBySeller: %w", err)
	}

	return &Profile{User: user, ActiveListings: active}, nil
}

type UpdateProfileParams struct {
	FirstName *string
	LastName  *string
	Avatar    *string
	Location  *value.Location
}

// UpdateProfile правит собственный профиль.
func (s *Service) UpdateProfile(ctx context.Context, accountID string, params UpdateProfileParams) (*entity.User, error) {
	user, err := s.users.GetByID(ctx, accountID)
	if err != nil {
		return nil, fmt.Errorf("users.GetByID: %w", err)
	}

	if params.FirstName != nil {
		user.FirstName = *params.FirstName
	}

	if params.LastName != nil {
		user.LastName = *params.LastName
	}

	if params.Avatar != nil {
		user.Avatar = *params.Avatar
	}

	if params.Location != nil {
		user.Location = *params.Location
	}

	if err := s.users.Update(ctx, user); err != nil {
		return nil, fmt.Errorf("users.Update: %w", err)
	}

	return user, nil
}

// Verify отмечает аккаунт проверенным. Ручная модерация селфи пока не
// подключена, отметка ставится сразу.
func (s *Service) Verify(ctx context.Context, accountID, selfieURL string) (*entity.User, error) {
	if selfieURL == "" {
		return nil, failure.NewInvalidArgumentError(
			"selfie url is required",
			failure.WithCode(errcodes.ValidationError),
		)
	}

	user, err := s.users.GetByID(ctx, accountID)
	if err != nil {
		return nil, fmt.Errorf("users.GetByID: %w", err)
	}

	now := s.now()
	user.IsVerified = true
	user.VerifiedAt = &now

	if err := s.users.Update(ctx, user); err != nil {
		return nil, fmt.Errorf("users.Update: %w", err)
	}

	return user, nil
}

// Summaries отдаёт карточки аккаунтов для вложенных ответов других сервисов.
func (s *Service) Summaries(ctx context.Context, ids []string) (map[string]entity.AccountSummary, error) {
	return s.users.Summaries(ctx, ids)
}

func (s *Service) checkUnique(ctx context.Context, email, username, phone string) error {
	exists, err := s.users.ExistsByEmail(ctx, email)
	if err != nil {
		return fmt.Errorf("users.ExistsByEmail: %w", err)
	}

	if exists {
		return failure.NewConflictError(
			"email already in use",
			failure.WithCode(errcodes.EmailAlreadyInUse),
			failure.WithDescription("Email is already registered"),
		)
	}

	exists, err = s.users.ExistsByUsername(ctx, username)
	if err != nil {
		return fmt.Errorf("users.ExistsByUsername: %w", err)
	}

	if exists {
		return failure.NewConflictError(
			"username already in use",
			failure.WithCode(errcodes.UsernameAlreadyInUse),
			failure.WithDescription("Username is already taken"),
		)
	}

	exists, err = s.users.ExistsByPhone(ctx, phone)
	if err != nil {
		return fmt.Errorf("users.ExistsByPhone: %w", err)
	}

	if exists {
		return failure.NewConflictError(
			"phone already in use",
			failure.WithCode(errcodes.PhoneAlreadyInUse),
			failure.WithDescription("Phone number is already registered"),
		)
	}

	return nil
}

func errCredentialsMismatch() error {
	return failure.NewUnauthorizedError(
		"credentials mismatch",
		failure.WithCode(errcodes.CredentialsMismatch),
		failure.WithDescription("Invalid email or password"),
	)
}
