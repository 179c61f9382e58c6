package service

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"

	"github.com/nutrilog/backend/config"
	"github.com/nutrilog/backend/internal/models"
	"github.com/nutrilog/backend/internal/types"
)

// Synthetic identity used outside the Telegram host runtime so the app
// stays usable in local development.
var devFallbackIdentity = types.TelegramUser{
	ID:        123456789,
	FirstName: models.DefaultUserName,
}

// Init data older than this is rejected as replayable.
const initDataMaxAge = 24 * time.Hour

var ErrInvalidInitData = errors.New("invalid Telegram init data")

// AuthService verifies Telegram Mini App init data and mints session
// tokens for the rest of the API.
type AuthService struct {
	jwtSecret  string
	botToken   string
	allowDevID bool
	logger     *zap.Logger
}

func NewAuthService(cfg *config.Config, logger *zap.Logger) *AuthService {
	return &AuthService{
		jwtSecret:  cfg.JWTSecret,
		botToken:   cfg.TelegramBotToken,
		allowDevID: !config.IsProduction(),
		logger:     logger,
	}
}

// ResolveIdentity returns the verified Telegram identity carried in the
// init data. Outside production an empty init data string resolves to
// the fixed synthetic identity instead of an error.
func (s *AuthService) ResolveIdentity(initData string) (*types.TelegramUser, error) {
	if initData == "" {
		if s.allowDevID {
			s.logger.Debug("no init data, using development identity")
			identity := devFallbackIdentity
			return &identity, nil
		}
		return nil, fmt.Errorf("%w: init data is required", ErrInvalidInitData)
	}
	return s.VerifyInitData(initData)
}

// VerifyInitData validates the HMAC signature of Telegram WebApp init
// data and returns the embedded user identity. The secret key is
// HMAC-SHA256("WebAppData", botToken) per Telegram's published scheme.
func (s *AuthService) VerifyInitData(initData string) (*types.TelegramUser, error) {
	values, err := url.ParseQuery(initData)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInitData, err)
	}

	gotHash := values.Get("hash")
	if gotHash == "" {
		return nil, fmt.Errorf("%w: missing hash", ErrInvalidInitData)
	}
	values.Del("hash")

	pairs := make([]string, 0, len(values))
	for key := range values {
		pairs = append(pairs, key+"="+values.Get(key))
	}
	sort.Strings(pairs)
	checkString := strings.Join(pairs, "\n")

	secret := hmac.New(sha256.New, []byte("WebAppData"))
	secret.Write([]byte(s.botToken))
	mac := hmac.New(sha256.New, secret.Sum(nil))
	mac.Write([]byte(checkString))
	wantHash := hex.EncodeToString(mac.Sum(nil))

	if !hmac.Equal([]byte(wantHash), []byte(gotHash)) {
		return nil, fmt.Errorf("%w: signature mismatch", ErrInvalidInitData)
	}

	if authDate := values.Get("auth_date"); authDate != "" {
		ts, err := strconv.ParseInt(authDate, 10, 64)
		if err != nil || time.Since(time.Unix(ts, 0)) > initDataMaxAge {
			return nil, fmt.Errorf("%w: stale auth_date", ErrInvalidInitData)
		}
	}

	userJSON := values.Get("user")
	if userJSON == "" {
		return nil, fmt.Errorf("%w: missing user", ErrInvalidInitData)
	}
	var user types.TelegramUser
	if err := json.Unmarshal([]byte(userJSON), &user); err != nil {
		return nil, fmt.Errorf("%w: malformed user: %v", ErrInvalidInitData, err)
	}
	if user.ID == 0 {
		return nil, fmt.Errorf("%w: missing user id", ErrInvalidInitData)
	}

	return &user, nil
}

// GenerateToken mints a 24h session token for a resolved user.
func (s *AuthService) GenerateToken(user *models.User) (string, error) {
	claims := types.TokenClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatUint(uint64(user.ID), 10),
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(24 * time.Hour)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
		UserID:     user.ID,
		TelegramID: user.TelegramID,
		Name:       user.Name,
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, &claims)
	signed, err := token.SignedString([]byte(s.jwtSecret))
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}

// ValidateToken parses and verifies a session token.
func (s *AuthService) ValidateToken(tokenString string) (*types.TokenClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &types.TokenClaims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return []byte(s.jwtSecret), nil
	})
	if err != nil {
		return nil, fmt.Errorf("invalid token: %w", err)
	}

	claims, ok := token.Claims.(*types.TokenClaims)
	if !ok || !token.Valid {
		return nil, errors.New("invalid token claims")
	}
	return claims, nil
}
