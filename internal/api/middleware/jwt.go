package middleware

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/richmontato/eznews2/internal/model"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"gorm.io/gorm"
)

// 上下文键。
const (
	ContextUserKey = "currentUser"
)

type customClaims struct {
	jwt.RegisteredClaims
	Role string `json:"role"`
}

var errNoIdentity = errors.New("no identity")

// AuthMiddleware 校验 JWT 并从数据库解析出用户，写入上下文。
//
// 凭证缺失、无效或用户不存在时返回 401。角色以数据库为准，
// 不信任 token 里的 role 声明。
func AuthMiddleware(db *gorm.DB, jwtSecret string) gin.HandlerFunc {
	secret := []byte(jwtSecret)
	return func(c *gin.Context) {
		user, err := resolveUser(c, db, secret)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid or missing token"})
			c.Abort()
			return
		}
		c.Set(ContextUserKey, user)
		c.Next()
	}
}

// OptionalAuthMiddleware 尝试解析用户身份，但从不拒绝请求。
//
// 公共读取接口用它来个性化 is_bookmarked 字段。
func OptionalAuthMiddleware(db *gorm.DB, jwtSecret string) gin.HandlerFunc {
	secret := []byte(jwtSecret)
	return func(c *gin.Context) {
		if user, err := resolveUser(c, db, secret); err == nil {
			c.Set(ContextUserKey, user)
		}
		c.Next()
	}
}

// AdminOnly 要求上下文中的用户是管理员，否则 403。
// 必须串在 AuthMiddleware 之后。
func AdminOnly() gin.HandlerFunc {
	return func(c *gin.Context) {
		user, ok := CurrentUser(c)
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid or missing token"})
			c.Abort()
			return
		}
		if !user.IsAdmin() {
			c.JSON(http.StatusForbidden, gin.H{"error": "admin access required"})
			c.Abort()
			return
		}
		c.Next()
	}
}

// CurrentUser 从上下文取出已解析的用户。
func CurrentUser(c *gin.Context) (*model.User, bool) {
	v, ok := c.Get(ContextUserKey)
	if !ok {
		return nil, false
	}
	user, ok := v.(*model.User)
	if !ok || user == nil {
		return nil, false
	}
	return user, true
}

func resolveUser(c *gin.Context, db *gorm.DB, secret []byte) (*model.User, error) {
	authHeader := c.GetHeader("Authorization")
	if authHeader == "" {
		return nil, errNoIdentity
	}
	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return nil, errNoIdentity
	}

	claims := &customClaims{}
	token, err := jwt.ParseWithClaims(parts[1], claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return secret, nil
	})
	if err != nil || !token.Valid {
		return nil, errNoIdentity
	}
	if claims.Subject == "" {
		return nil, errNoIdentity
	}

	uid, err := strconv.ParseUint(claims.Subject, 10, 64)
	if err != nil {
		return nil, errNoIdentity
	}

	var user model.User
	if err := db.WithContext(c.Request.Context()).First(&user, uint(uid)).Error; err != nil {
		return nil, errNoIdentity
	}
	return &user, nil
}
