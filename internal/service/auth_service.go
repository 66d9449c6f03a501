package service

import (
	"errors"
	"strings"
	"time"

	"github.com/revisit-loyalty/internal/config"
	"github.com/revisit-loyalty/internal/constants"

	"github.com/golang-jwt/jwt/v5"
)

// AuthService 员工令牌服务
//
// 令牌由外部身份服务签发，本服务只负责校验；IssueToken 仅用于本地联调与种子数据。
type AuthService struct {
	cfg config.AuthConfig
}

// StaffClaims 员工令牌声明
type StaffClaims struct {
	RestaurantID string `json:"restaurant_id"`
	AppRole      string `json:"app_role"`
	jwt.RegisteredClaims
}

// Actor 转换为服务层操作者
func (c *StaffClaims) Actor() Actor {
	return Actor{
		RestaurantID: strings.TrimSpace(c.RestaurantID),
		UserID:       strings.TrimSpace(c.Subject),
		Role:         strings.ToLower(strings.TrimSpace(c.AppRole)),
	}
}

// NewAuthService 创建令牌服务
func NewAuthService(cfg config.AuthConfig) *AuthService {
	return &AuthService{cfg: cfg}
}

// ParseToken 校验 HS256 令牌并返回声明
func (s *AuthService) ParseToken(tokenString string) (*StaffClaims, error) {
	options := []jwt.ParserOption{jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()})}
	if issuer := strings.TrimSpace(s.cfg.Issuer); issuer != "" {
		options = append(options, jwt.WithIssuer(issuer))
	}
	parser := jwt.NewParser(options...)
	token, err := parser.ParseWithClaims(tokenString, &StaffClaims{}, func(token *jwt.Token) (interface{}, error) {
		return []byte(s.cfg.SecretKey), nil
	})
	if err != nil {
		return nil, errors.Join(ErrNotAuthenticated, err)
	}
	claims, ok := token.Claims.(*StaffClaims)
	if !ok || !token.Valid {
		return nil, ErrNotAuthenticated
	}
	if strings.TrimSpace(claims.Subject) == "" || strings.TrimSpace(claims.RestaurantID) == "" {
		return nil, ErrNotAuthenticated
	}
	role := strings.ToLower(strings.TrimSpace(claims.AppRole))
	if role != constants.StaffRoleOwner && role != constants.StaffRoleManager {
		return nil, ErrNotAuthenticated
	}
	return claims, nil
}

// IssueToken 签发员工令牌
func (s *AuthService) IssueToken(actor Actor, ttl time.Duration) (string, time.Time, error) {
	if ttl <= 0 {
		ttl = 12 * time.Hour
	}
	now := time.Now()
	expiresAt := now.Add(ttl)
	claims := StaffClaims{
		RestaurantID: actor.RestaurantID,
		AppRole:      actor.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   actor.UserID,
			Issuer:    strings.TrimSpace(s.cfg.Issuer),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(s.cfg.SecretKey))
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, expiresAt, nil
}
