package middleware

import (
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/richmontato/eznews2/internal/model"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormLogger "gorm.io/gorm/logger"
)

const secret = "test-secret"

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: gormLogger.Default.LogMode(gormLogger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := db.AutoMigrate(&model.User{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

func signToken(t *testing.T, userID uint, expiresIn time.Duration) string {
	t.Helper()
	claims := jwt.MapClaims{
		"sub": strconv.FormatUint(uint64(userID), 10),
		"exp": time.Now().Add(expiresIn).Unix(),
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	return token
}

func newRouter(db *gorm.DB) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/private", AuthMiddleware(db, secret), func(c *gin.Context) {
		user, _ := CurrentUser(c)
		c.JSON(http.StatusOK, gin.H{"email": user.Email})
	})
	r.GET("/admin", AuthMiddleware(db, secret), AdminOnly(), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})
	r.GET("/public", OptionalAuthMiddleware(db, secret), func(c *gin.Context) {
		_, authed := CurrentUser(c)
		c.JSON(http.StatusOK, gin.H{"authed": authed})
	})
	return r
}

func get(r *gin.Engine, path, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestAuthMiddleware(t *testing.T) {
	db := newTestDB(t)
	user := model.User{FullName: "Budi", Email: "budi@eznews.com", Password: "x", Role: model.RoleUser}
	db.Create(&user)
	r := newRouter(db)

	if w := get(r, "/private", ""); w.Code != http.StatusUnauthorized {
		t.Fatalf("missing token: expected 401, got %d", w.Code)
	}
	if w := get(r, "/private", "bukan.token.valid"); w.Code != http.StatusUnauthorized {
		t.Fatalf("garbage token: expected 401, got %d", w.Code)
	}
	if w := get(r, "/private", signToken(t, user.ID, -time.Minute)); w.Code != http.StatusUnauthorized {
		t.Fatalf("expired token: expected 401, got %d", w.Code)
	}
	if w := get(r, "/private", signToken(t, 9999, time.Hour)); w.Code != http.StatusUnauthorized {
		t.Fatalf("unknown user: expected 401, got %d", w.Code)
	}
	if w := get(r, "/private", signToken(t, user.ID, time.Hour)); w.Code != http.StatusOK {
		t.Fatalf("valid token: expected 200, got %d", w.Code)
	}
}

func TestAdminOnlyUsesDatabaseRole(t *testing.T) {
	db := newTestDB(t)
	reader := model.User{FullName: "Budi", Email: "budi@eznews.com", Password: "x", Role: model.RoleUser}
	admin := model.User{FullName: "Admin", Email: "admin@eznews.com", Password: "x", Role: model.RoleAdmin}
	db.Create(&reader)
	db.Create(&admin)
	r := newRouter(db)

	if w := get(r, "/admin", signToken(t, reader.ID, time.Hour)); w.Code != http.StatusForbidden {
		t.Fatalf("reader: expected 403, got %d", w.Code)
	}
	if w := get(r, "/admin", signToken(t, admin.ID, time.Hour)); w.Code != http.StatusOK {
		t.Fatalf("admin: expected 200, got %d", w.Code)
	}

	// 角色以数据库为准，降级后旧 token 不再有管理员权限
	db.Model(&admin).Update("role", model.RoleUser)
	if w := get(r, "/admin", signToken(t, admin.ID, time.Hour)); w.Code != http.StatusForbidden {
		t.Fatalf("demoted admin: expected 403, got %d", w.Code)
	}
}

func TestOptionalAuthNeverFails(t *testing.T) {
	db := newTestDB(t)
	user := model.User{FullName: "Budi", Email: "budi@eznews.com", Password: "x", Role: model.RoleUser}
	db.Create(&user)
	r := newRouter(db)

	w := get(r, "/public", "token.yang.rusak")
	if w.Code != http.StatusOK {
		t.Fatalf("bad token must not fail public route, got %d", w.Code)
	}

	w = get(r, "/public", signToken(t, user.ID, time.Hour))
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
}
