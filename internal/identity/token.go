package identity

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// DefaultCapability 令牌中本系统的能力键
const DefaultCapability = "CARGO"

var (
	ErrTokenMissing = errors.New("identity token missing")
	ErrTokenInvalid = errors.New("identity token invalid")
	ErrSecretEmpty  = errors.New("identity secret not configured")
)

// Claims 外部认证服务签发的访问令牌声明
// capabilities 形如 {"CARGO": "ADMIN"}，roles 为可选的多角色声明
type Claims struct {
	Username     string            `json:"username"`
	Email        string            `json:"email"`
	Capabilities map[string]string `json:"capabilities,omitempty"`
	Roles        []string          `json:"roles,omitempty"`
	jwt.RegisteredClaims
}

// Parser 访问令牌解析器（HS256）
type Parser struct {
	secret     []byte
	capability string
	issuer     string
}

// NewParser 创建令牌解析器
func NewParser(secret, capability, issuer string) *Parser {
	capability = strings.TrimSpace(capability)
	if capability == "" {
		capability = DefaultCapability
	}
	return &Parser{
		secret:     []byte(secret),
		capability: capability,
		issuer:     strings.TrimSpace(issuer),
	}
}

// Parse 校验令牌并生成身份
func (p *Parser) Parse(tokenString string) (Principal, error) {
	if p == nil || len(p.secret) == 0 {
		return Principal{}, ErrSecretEmpty
	}
	tokenString = strings.TrimSpace(tokenString)
	if tokenString == "" {
		return Principal{}, ErrTokenMissing
	}
	opts := []jwt.ParserOption{jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()})}
	if p.issuer != "" {
		opts = append(opts, jwt.WithIssuer(p.issuer))
	}
	parser := jwt.NewParser(opts...)
	claims := &Claims{}
	token, err := parser.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		return p.secret, nil
	})
	if err != nil || !token.Valid {
		return Principal{}, fmt.Errorf("%w: %v", ErrTokenInvalid, err)
	}
	username := strings.TrimSpace(claims.Username)
	if username == "" {
		username = strings.TrimSpace(claims.Subject)
	}
	if username == "" {
		return Principal{}, ErrTokenInvalid
	}
	return Principal{
		Username: username,
		Email:    strings.TrimSpace(claims.Email),
		Roles:    collectRoles(claims, p.capability),
		Token:    tokenString,
	}, nil
}

// Sign 签发令牌（本地联调与测试使用）
func Sign(secret string, principal Principal, capability string, ttl time.Duration) (string, error) {
	if strings.TrimSpace(secret) == "" {
		return "", ErrSecretEmpty
	}
	capability = strings.TrimSpace(capability)
	if capability == "" {
		capability = DefaultCapability
	}
	now := time.Now()
	claims := Claims{
		Username: principal.Username,
		Email:    principal.Email,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   principal.Username,
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
		},
	}
	if ttl > 0 {
		claims.ExpiresAt = jwt.NewNumericDate(now.Add(ttl))
	}
	if len(principal.Roles) > 0 {
		claims.Capabilities = map[string]string{capability: principal.Roles[0]}
		if len(principal.Roles) > 1 {
			claims.Roles = append([]string(nil), principal.Roles[1:]...)
		}
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(secret))
}

func collectRoles(claims *Claims, capability string) []string {
	seen := make(map[string]struct{})
	roles := make([]string, 0, len(claims.Roles)+1)
	add := func(role string) {
		role = strings.ToUpper(strings.TrimSpace(role))
		if role == "" {
			return
		}
		if _, ok := seen[role]; ok {
			return
		}
		seen[role] = struct{}{}
		roles = append(roles, role)
	}
	for key, value := range claims.Capabilities {
		if strings.EqualFold(key, capability) {
			add(value)
		}
	}
	for _, role := range claims.Roles {
		add(role)
	}
	return roles
}
