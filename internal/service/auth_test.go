package service

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/nutrilog/backend/internal/models"
)

const testBotToken = "110201543:AAHdqTcvCH1vGWJxfSeofSAs0K5PALDsaw"

func newTestAuthService(allowDev bool) *AuthService {
	return &AuthService{
		jwtSecret:  "test-jwt-secret",
		botToken:   testBotToken,
		allowDevID: allowDev,
		logger:     zap.NewNop(),
	}
}

// signInitData builds a signed init data string the way the Telegram
// host runtime does.
func signInitData(botToken string, fields map[string]string) string {
	pairs := make([]string, 0, len(fields))
	for key, value := range fields {
		pairs = append(pairs, key+"="+value)
	}
	sort.Strings(pairs)
	checkString := strings.Join(pairs, "\n")

	secret := hmac.New(sha256.New, []byte("WebAppData"))
	secret.Write([]byte(botToken))
	mac := hmac.New(sha256.New, secret.Sum(nil))
	mac.Write([]byte(checkString))
	hash := hex.EncodeToString(mac.Sum(nil))

	values := url.Values{}
	for key, value := range fields {
		values.Set(key, value)
	}
	values.Set("hash", hash)
	return values.Encode()
}

func validInitData(t *testing.T) string {
	t.Helper()
	return signInitData(testBotToken, map[string]string{
		"user":      `{"id":987654321,"first_name":"Мария","username":"maria"}`,
		"auth_date": strconv.FormatInt(time.Now().Unix(), 10),
		"query_id":  "AAF9tY0rAAAAAH21jSsYVvtM",
	})
}

func TestVerifyInitData(t *testing.T) {
	svc := newTestAuthService(false)

	t.Run("valid signature", func(t *testing.T) {
		user, err := svc.VerifyInitData(validInitData(t))
		require.NoError(t, err)
		assert.Equal(t, int64(987654321), user.ID)
		assert.Equal(t, "Мария", user.FirstName)
		assert.Equal(t, "maria", user.Username)
	})

	t.Run("tampered payload", func(t *testing.T) {
		data := validInitData(t)
		tampered := strings.Replace(data, "987654321", "111111111", 1)
		_, err := svc.VerifyInitData(tampered)
		assert.ErrorIs(t, err, ErrInvalidInitData)
	})

	t.Run("wrong bot token", func(t *testing.T) {
		data := signInitData("другой:токен", map[string]string{
			"user":      `{"id":987654321,"first_name":"Мария"}`,
			"auth_date": strconv.FormatInt(time.Now().Unix(), 10),
		})
		_, err := svc.VerifyInitData(data)
		assert.ErrorIs(t, err, ErrInvalidInitData)
	})

	t.Run("missing hash", func(t *testing.T) {
		_, err := svc.VerifyInitData("user=%7B%22id%22%3A1%7D")
		assert.ErrorIs(t, err, ErrInvalidInitData)
	})

	t.Run("stale auth_date", func(t *testing.T) {
		old := time.Now().Add(-48 * time.Hour).Unix()
		data := signInitData(testBotToken, map[string]string{
			"user":      `{"id":987654321,"first_name":"Мария"}`,
			"auth_date": strconv.FormatInt(old, 10),
		})
		_, err := svc.VerifyInitData(data)
		assert.ErrorIs(t, err, ErrInvalidInitData)
	})

	t.Run("missing user", func(t *testing.T) {
		data := signInitData(testBotToken, map[string]string{
			"auth_date": strconv.FormatInt(time.Now().Unix(), 10),
		})
		_, err := svc.VerifyInitData(data)
		assert.ErrorIs(t, err, ErrInvalidInitData)
	})

	t.Run("zero user id", func(t *testing.T) {
		data := signInitData(testBotToken, map[string]string{
			"user":      `{"id":0,"first_name":"Мария"}`,
			"auth_date": strconv.FormatInt(time.Now().Unix(), 10),
		})
		_, err := svc.VerifyInitData(data)
		assert.ErrorIs(t, err, ErrInvalidInitData)
	})
}

func TestResolveIdentity(t *testing.T) {
	t.Run("dev mode falls back to synthetic identity", func(t *testing.T) {
		svc := newTestAuthService(true)
		user, err := svc.ResolveIdentity("")
		require.NoError(t, err)
		assert.Equal(t, int64(123456789), user.ID)
		assert.Equal(t, models.DefaultUserName, user.FirstName)
	})

	t.Run("production rejects empty init data", func(t *testing.T) {
		svc := newTestAuthService(false)
		_, err := svc.ResolveIdentity("")
		assert.ErrorIs(t, err, ErrInvalidInitData)
	})

	t.Run("non-empty init data is always verified", func(t *testing.T) {
		svc := newTestAuthService(true)
		_, err := svc.ResolveIdentity("hash=deadbeef&user=%7B%22id%22%3A1%7D")
		assert.ErrorIs(t, err, ErrInvalidInitData)

		user, err := svc.ResolveIdentity(validInitData(t))
		require.NoError(t, err)
		assert.Equal(t, int64(987654321), user.ID)
	})
}

func TestTokenRoundTrip(t *testing.T) {
	svc := newTestAuthService(false)
	user := &models.User{ID: 7, TelegramID: 987654321, Name: "Мария"}

	token, err := svc.GenerateToken(user)
	require.NoError(t, err)
	require.NotEmpty(t, token)

	claims, err := svc.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, uint(7), claims.UserID)
	assert.Equal(t, int64(987654321), claims.TelegramID)
	assert.Equal(t, "Мария", claims.Name)
	assert.Equal(t, "7", claims.Subject)
	assert.True(t, claims.ExpiresAt.After(time.Now().Add(23*time.Hour)))
}

func TestValidateTokenRejectsForgeries(t *testing.T) {
	svc := newTestAuthService(false)
	user := &models.User{ID: 7, TelegramID: 987654321}

	t.Run("wrong secret", func(t *testing.T) {
		other := &AuthService{jwtSecret: "another-secret", logger: zap.NewNop()}
		token, err := other.GenerateToken(user)
		require.NoError(t, err)
		_, err = svc.ValidateToken(token)
		assert.Error(t, err)
	})

	t.Run("garbage token", func(t *testing.T) {
		_, err := svc.ValidateToken("not.a.token")
		assert.Error(t, err)
	})

	t.Run("tampered claims", func(t *testing.T) {
		token, err := svc.GenerateToken(user)
		require.NoError(t, err)
		parts := strings.Split(token, ".")
		require.Len(t, parts, 3)
		forged := fmt.Sprintf("%s.%s.%s", parts[0], parts[1]+"x", parts[2])
		_, err = svc.ValidateToken(forged)
		assert.Error(t, err)
	})
}
