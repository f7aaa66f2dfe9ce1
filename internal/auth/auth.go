// Package auth реализует аутентификацию запросов
// Поддерживаются два режима: статические API ключи и выданные JWT токены
// Режим выбирается один раз при запуске и не смешивается внутри запроса
package auth

import (
	"crypto/subtle"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"telemetry-service/internal/models"
)

// Role роль вызывающей стороны
type Role string

const (
	// RoleDevice роль устройства, дает право записи показаний
	RoleDevice Role = "iot_device"
	// RoleDashboard роль панели, дает право чтения и управления порогом
	RoleDashboard Role = "dashboard"
)

// Identity разрешенная личность запроса
// В режиме токенов DeviceID берется из проверенного токена,
// в режиме API ключей остается пустым и устройство называет себя в теле
type Identity struct {
	DeviceID string
}

// Authenticator проверяет учетные данные запроса для заданной роли
// Любой сбой проверки возвращает models.ErrUnauthorized без уточнения причины
type Authenticator interface {
	Authenticate(r *http.Request, role Role) (Identity, error)
}

// KeyAuthenticator аутентификация по статическим API ключам
// Ключ устройства никогда не принимается на эндпоинтах панели и наоборот
type KeyAuthenticator struct {
	keys map[Role]string
}

// NewKeyAuthenticator создает аутентификатор API ключей
func NewKeyAuthenticator(deviceKey, dashboardKey string) *KeyAuthenticator {
	return &KeyAuthenticator{
		keys: map[Role]string{
			RoleDevice:    deviceKey,
			RoleDashboard: dashboardKey,
		},
	}
}

// Authenticate сверяет заголовок X-API-Key с секретом роли
func (a *KeyAuthenticator) Authenticate(r *http.Request, role Role) (Identity, error) {
	apiKey := r.Header.Get("X-API-Key")
	secret := a.keys[role]

	if apiKey == "" || secret == "" {
		return Identity{}, models.ErrUnauthorized
	}

	if subtle.ConstantTimeCompare([]byte(apiKey), []byte(secret)) != 1 {
		return Identity{}, models.ErrUnauthorized
	}

	return Identity{}, nil
}

// TokenAuthenticator аутентификация устройств по выданным JWT токенам
// Панель в этом режиме продолжает использовать свой API ключ,
// токены выдаются только устройствам
type TokenAuthenticator struct {
	secret       []byte
	ttl          time.Duration
	dashboardKey string
}

// NewTokenAuthenticator создает аутентификатор токенов
func NewTokenAuthenticator(secret string, ttl time.Duration, dashboardKey string) *TokenAuthenticator {
	return &TokenAuthenticator{
		secret:       []byte(secret),
		ttl:          ttl,
		dashboardKey: dashboardKey,
	}
}

// Issue выдает подписанный токен с device_id в качестве субъекта
func (a *TokenAuthenticator) Issue(deviceID string) (string, error) {
	now := time.Now()
	claims := jwt.RegisteredClaims{
		Subject:   deviceID,
		Issuer:    "telemetry-service",
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(a.ttl)),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(a.secret)
}

// Authenticate проверяет Bearer токен устройства или ключ панели
func (a *TokenAuthenticator) Authenticate(r *http.Request, role Role) (Identity, error) {
	if role == RoleDashboard {
		apiKey := r.Header.Get("X-API-Key")
		if apiKey == "" || a.dashboardKey == "" {
			return Identity{}, models.ErrUnauthorized
		}
		if subtle.ConstantTimeCompare([]byte(apiKey), []byte(a.dashboardKey)) != 1 {
			return Identity{}, models.ErrUnauthorized
		}
		return Identity{}, nil
	}

	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		return Identity{}, models.ErrUnauthorized
	}

	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || parts[0] != "Bearer" {
		return Identity{}, models.ErrUnauthorized
	}

	claims := &jwt.RegisteredClaims{}
	token, err := jwt.ParseWithClaims(parts[1], claims, func(t *jwt.Token) (interface{}, error) {
		// Принимаем только HMAC, подмена алгоритма отклоняется
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, models.ErrUnauthorized
		}
		return a.secret, nil
	})
	if err != nil || !token.Valid || claims.Subject == "" {
		return Identity{}, models.ErrUnauthorized
	}

	return Identity{DeviceID: claims.Subject}, nil
}
