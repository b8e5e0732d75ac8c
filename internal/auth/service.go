package auth

import (
	"context"
	"log/slog"

	"github.com/frahmantamala/fleet-backoffice/internal"
	userDatamodel "github.com/frahmantamala/fleet-backoffice/internal/core/datamodel/user"
	"github.com/frahmantamala/fleet-backoffice/internal/core/events"
	"github.com/frahmantamala/fleet-backoffice/internal/tenant"
	"golang.org/x/crypto/bcrypt"
)

// UserRepository reads users through the tenant scope; an email is only
// found inside the tenant the request resolved to.
type UserRepository interface {
	GetByEmail(ctx context.Context, email string) (*userDatamodel.User, error)
	GetByID(ctx context.Context, id int64) (*userDatamodel.User, error)
}

type Publisher interface {
	PublishSync(ctx context.Context, event events.Event) error
}

// Service is the main auth service with dependencies
type Service struct {
	userRepo       UserRepository
	tokenGenerator TokenGenerator
	events         Publisher
	bcryptCost     int
	accessTTL      int64
	logger         *slog.Logger
}

func NewService(userRepo UserRepository, tokenGen TokenGenerator, publisher Publisher, bcryptCost int, logger *slog.Logger) *Service {
	if bcryptCost == 0 {
		bcryptCost = bcrypt.DefaultCost
	}
	s := &Service{
		userRepo:       userRepo,
		tokenGenerator: tokenGen,
		events:         publisher,
		bcryptCost:     bcryptCost,
		logger:         logger,
	}
	if j, ok := tokenGen.(*JWTTokenGenerator); ok {
		s.accessTTL = int64(j.AccessTokenTTL.Seconds())
	}
	return s
}

// Authenticate validates credentials inside the current tenant and returns
// tokens bound to it. Every outcome is published for the audit trail.
func (s *Service) Authenticate(ctx context.Context, dto LoginDTO) (AuthTokens, error) {
	if err := dto.Validate(); err != nil {
		return AuthTokens{}, err
	}
	tenantID, ok := tenant.IDFromContext(ctx)
	if !ok {
		return AuthTokens{}, internal.NewTenantNotFoundError("")
	}

	u, err := s.userRepo.GetByEmail(ctx, dto.Email)
	if err != nil {
		s.logger.Error("failed to load user for login", "error", err)
		return AuthTokens{}, internal.NewInternalError("failed to authenticate", err)
	}
	if u == nil {
		s.loginFailed(ctx, 0, dto.Email, ReasonUnknownEmail)
		return AuthTokens{}, internal.ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(dto.Password)); err != nil {
		s.loginFailed(ctx, u.ID, dto.Email, ReasonBadPassword)
		return AuthTokens{}, internal.ErrInvalidCredentials
	}
	if !u.IsActive {
		s.loginFailed(ctx, u.ID, dto.Email, ReasonInactive)
		return AuthTokens{}, internal.ErrUserInactive
	}

	tokens, err := s.issue(u, tenantID)
	if err != nil {
		return AuthTokens{}, err
	}

	s.publish(ctx, events.NewAuthEvent(events.EventTypeAuthLogin, u.ID, u.Email, DefaultGuard, ""))
	s.logger.Info("user logged in", "user_id", u.ID, "tenant_id", tenantID)
	return tokens, nil
}

// RefreshTokens validates refresh token and returns new tokens
func (s *Service) RefreshTokens(ctx context.Context, refreshToken string) (AuthTokens, error) {
	claims, err := s.tokenGenerator.ValidateToken(refreshToken, TokenTypeRefresh)
	if err != nil {
		return AuthTokens{}, err
	}
	u, err := s.activeUser(ctx, claims)
	if err != nil {
		return AuthTokens{}, err
	}
	return s.issue(u, claims.TenantID)
}

// Logout records the logout. Tokens are stateless and expire on their own.
func (s *Service) Logout(ctx context.Context, accessToken string) error {
	p, err := s.ValidatePrincipal(ctx, accessToken)
	if err != nil {
		return err
	}
	s.publish(internal.ContextWithPrincipal(ctx, p), events.NewAuthEvent(events.EventTypeAuthLogout, p.ID, p.Email, DefaultGuard, ""))
	s.logger.Info("user logged out", "user_id", p.ID)
	return nil
}

// ValidatePrincipal turns an access token into the request principal. The
// token must belong to the tenant resolved for the request and the user
// must still be active.
func (s *Service) ValidatePrincipal(ctx context.Context, accessToken string) (*internal.Principal, error) {
	claims, err := s.tokenGenerator.ValidateToken(accessToken, TokenTypeAccess)
	if err != nil {
		return nil, err
	}
	u, err := s.activeUser(ctx, claims)
	if err != nil {
		return nil, err
	}
	return &internal.Principal{
		ID:       u.ID,
		TenantID: u.TenantID,
		OfficeID: u.OfficeID,
		Email:    u.Email,
		Name:     u.Name,
	}, nil
}

func (s *Service) activeUser(ctx context.Context, claims *Claims) (*userDatamodel.User, error) {
	if tenantID, ok := tenant.IDFromContext(ctx); ok && tenantID != claims.TenantID {
		s.logger.Warn("token presented to another tenant", "user_id", claims.UserID, "token_tenant", claims.TenantID, "tenant", tenantID)
		return nil, internal.ErrInvalidToken
	}
	u, err := s.userRepo.GetByID(ctx, claims.UserID)
	if err != nil {
		s.logger.Error("failed to load user", "error", err, "user_id", claims.UserID)
		return nil, internal.NewInternalError("failed to load user", err)
	}
	if u == nil {
		return nil, internal.ErrInvalidToken
	}
	if !u.IsActive {
		return nil, internal.ErrUserInactive
	}
	return u, nil
}

func (s *Service) issue(u *userDatamodel.User, tenantID int64) (AuthTokens, error) {
	accessToken, err := s.tokenGenerator.GenerateAccessToken(u.ID, u.Email, tenantID)
	if err != nil {
		return AuthTokens{}, internal.NewInternalError("failed to sign token", err)
	}
	refreshToken, err := s.tokenGenerator.GenerateRefreshToken(u.ID, u.Email, tenantID)
	if err != nil {
		return AuthTokens{}, internal.NewInternalError("failed to sign token", err)
	}
	return AuthTokens{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		TokenType:    "Bearer",
		ExpiresIn:    s.accessTTL,
	}, nil
}

func (s *Service) loginFailed(ctx context.Context, userID int64, email, reason string) {
	s.logger.Info("login failed", "email", email, "reason", reason)
	s.publish(ctx, events.NewAuthEvent(events.EventTypeAuthLoginFailed, userID, email, DefaultGuard, reason))
}

func (s *Service) publish(ctx context.Context, event events.Event) {
	if s.events == nil {
		return
	}
	if err := s.events.PublishSync(ctx, event); err != nil {
		s.logger.Warn("auth event handlers failed", "event", event.EventType(), "error", err)
	}
}

// HashPassword creates a bcrypt hash of the password
func (s *Service) HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.bcryptCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}
