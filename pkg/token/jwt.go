// Package token 提供了从外部身份提供方签发的 JWT 中提取客户端标识的能力。
// 本服务不签发也不鉴权 token：token 对我们是不透明的，原样转发给远端后端；
// 这里只做尽力而为的 subject 提取，用来给各客户端的状态分键。
package token

import (
	"fmt"

	"github.com/golang-jwt/jwt/v5"
)

// Parser 负责解析 Bearer token 中的声明。
type Parser struct {
	secretKey []byte
}

// NewParser 创建一个新的 Parser 实例。secret 为空时只做无验证解析。
func NewParser(secret string) *Parser {
	return &Parser{secretKey: []byte(secret)}
}

// Subject 从 token 中提取 subject 声明。
// 优先做带签名验证的解析；验证失败（例如密钥不匹配的外部 IdP token）时
// 退回无验证解析——结果只用于状态分键，绝不用于授权判断。
func (p *Parser) Subject(tokenString string) (string, error) {
	if len(p.secretKey) > 0 {
		claims := jwt.MapClaims{}
		parsed, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
			return p.secretKey, nil
		})
		if err == nil && parsed.Valid {
			return subjectOf(claims)
		}
	}

	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(tokenString, claims); err != nil {
		return "", fmt.Errorf("failed to parse token: %w", err)
	}
	return subjectOf(claims)
}

// subjectOf 依次尝试 sub 与 email 声明。
func subjectOf(claims jwt.MapClaims) (string, error) {
	if sub, err := claims.GetSubject(); err == nil && sub != "" {
		return sub, nil
	}
	if email, ok := claims["email"].(string); ok && email != "" {
		return email, nil
	}
	return "", fmt.Errorf("token carries no usable subject claim")
}
