package service

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"

	"github.com/noah-isme/sicali-client/internal/models"
	"github.com/noah-isme/sicali-client/internal/normalize"
	appConfig "github.com/noah-isme/sicali-client/pkg/config"
	appErrors "github.com/noah-isme/sicali-client/pkg/errors"
	"github.com/noah-isme/sicali-client/pkg/session"
)

const tokenIssuer = "sicali-client"

// AuthConfig selects how the session marker is minted.
type AuthConfig struct {
	// TokenMode is "pseudo" (base64 of id:usuario:millis) or "signed" (HS256 JWT).
	TokenMode string
	// Secret signs tokens in "signed" mode.
	Secret string
}

// AuthService logs users in against the backend user list.
//
// The backend offers no usable authentication endpoint, so credentials are
// compared in plaintext against /usuarios and the token is minted here. Neither
// token mode is a credential the backend can verify; the signed mode only makes
// the local session tamper-evident.
type AuthService struct {
	client transport
	store  session.Store
	logger *zap.Logger
	config AuthConfig
	now    func() time.Time
}

// NewAuthService constructs an AuthService. store holds authToken and currentUser
// and must be the store the transport reads its bearer token from.
func NewAuthService(client transport, store session.Store, logger *zap.Logger, config AuthConfig) *AuthService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if store == nil {
		store = session.NewMemoryStore()
	}
	if config.TokenMode == "" {
		config.TokenMode = appConfig.TokenModePseudo
	}
	return &AuthService{client: client, store: store, logger: logger, config: config, now: time.Now}
}

// Login matches the credentials exactly against the user list and opens a session.
func (s *AuthService) Login(ctx context.Context, creds models.Credentials) (*models.LoginResult, error) {
	usuario := creds.Usuario
	if strings.TrimSpace(usuario) == "" || creds.Password == "" {
		return nil, invalid("Completa usuario y contraseña")
	}

	users, err := fetchList(ctx, s.client, usersPath, normalize.User, "usuarios")
	if err != nil {
		s.logger.Error("user list unavailable for login", zap.Error(err))
		cause := appErrors.FromError(err)
		return nil, appErrors.Wrap(err, cause.Code, cause.Status, "No se pudo obtener la lista de usuarios")
	}

	var user *models.User
	for i := range users {
		if users[i].Usuario == usuario && users[i].Password == creds.Password {
			user = &users[i]
			break
		}
	}
	if user == nil {
		s.logger.Info("login rejected", zap.String("usuario", usuario))
		return nil, appErrors.Clone(appErrors.ErrInvalidCredentials, "")
	}
	if strings.TrimSpace(user.Estado) != "" && !user.IsActive() {
		s.logger.Info("inactive user tried to log in", zap.Int64("user_id", user.ID))
		return nil, appErrors.Clone(appErrors.ErrInactiveUser, "")
	}

	token, err := s.mint(*user)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to mint session token")
	}

	info := user.Info()
	if err := s.store.Set(ctx, session.KeyAuthToken, token); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to store session")
	}
	if err := session.SaveJSON(ctx, s.store, session.KeyCurrentUser, info); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to store session")
	}

	s.logger.Info("user logged in", zap.Int64("user_id", user.ID), zap.String("rol", user.Rol))
	raw := *user
	raw.Password = ""
	return &models.LoginResult{Token: token, User: info, Raw: raw}, nil
}

func (s *AuthService) mint(user models.User) (string, error) {
	issued := s.now()
	switch s.config.TokenMode {
	case appConfig.TokenModePseudo:
		marker := fmt.Sprintf("%d:%s:%d", user.ID, user.Usuario, issued.UnixMilli())
		return base64.StdEncoding.EncodeToString([]byte(marker)), nil
	case appConfig.TokenModeSigned:
		if s.config.Secret == "" {
			return "", errors.New("signed token mode requires a secret")
		}
		claims := models.SessionClaims{
			UserID:   user.ID,
			Usuario:  user.Usuario,
			Rol:      user.Rol,
			IssuedMs: issued.UnixMilli(),
			RegisteredClaims: jwt.RegisteredClaims{
				Issuer:   tokenIssuer,
				Subject:  fmt.Sprintf("%d", user.ID),
				IssuedAt: jwt.NewNumericDate(issued),
			},
		}
		return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(s.config.Secret))
	default:
		return "", fmt.Errorf("unknown token mode %q", s.config.TokenMode)
	}
}

// ParseToken verifies a signed session marker.
func (s *AuthService) ParseToken(token string) (*models.SessionClaims, error) {
	claims := &models.SessionClaims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return []byte(s.config.Secret), nil
	}, jwt.WithIssuer(tokenIssuer))
	if err != nil || !parsed.Valid {
		return nil, appErrors.Wrap(err, appErrors.ErrUnauthorized.Code, appErrors.ErrUnauthorized.Status, appErrors.ErrUnauthorized.Message)
	}
	return claims, nil
}

// Logout forgets the session locally. The backend is not contacted.
func (s *AuthService) Logout(ctx context.Context) error {
	for _, key := range []string{session.KeyAuthToken, session.KeyCurrentUser} {
		if err := s.store.Delete(ctx, key); err != nil {
			return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to clear session")
		}
	}
	return nil
}

// CurrentUser returns the logged-in user or UNAUTHORIZED when there is no session.
// In signed mode a token that fails verification or names another user is rejected.
func (s *AuthService) CurrentUser(ctx context.Context) (*models.UserInfo, error) {
	token, err := s.store.Get(ctx, session.KeyAuthToken)
	if errors.Is(err, session.ErrNotFound) || (err == nil && token == "") {
		return nil, appErrors.Clone(appErrors.ErrUnauthorized, "")
	}
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to read session")
	}

	var info models.UserInfo
	if err := session.LoadJSON(ctx, s.store, session.KeyCurrentUser, &info); err != nil {
		if errors.Is(err, session.ErrNotFound) {
			return nil, appErrors.Clone(appErrors.ErrUnauthorized, "")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to read session")
	}

	if s.config.TokenMode == appConfig.TokenModeSigned {
		claims, err := s.ParseToken(token)
		if err != nil {
			return nil, err
		}
		if claims.UserID != info.ID {
			return nil, appErrors.Clone(appErrors.ErrUnauthorized, "")
		}
	}
	return &info, nil
}

// IsAuthenticated reports whether a session is open.
func (s *AuthService) IsAuthenticated(ctx context.Context) bool {
	_, err := s.CurrentUser(ctx)
	return err == nil
}

// HasRole reports whether the current user has one of roles.
func (s *AuthService) HasRole(ctx context.Context, roles ...string) bool {
	user, err := s.CurrentUser(ctx)
	if err != nil {
		return false
	}
	for _, role := range roles {
		if strings.EqualFold(user.Rol, role) {
			return true
		}
	}
	return false
}
