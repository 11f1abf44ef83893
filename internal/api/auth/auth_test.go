package auth

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/richmontato/eznews2/internal/model"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormLogger "gorm.io/gorm/logger"
)

func newTestHandler(t *testing.T) (*Handler, *gin.Engine, *gorm.DB) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: gormLogger.Default.LogMode(gormLogger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := db.AutoMigrate(&model.User{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	h := NewHandler(db, "test-secret", time.Hour, nil, logger)

	r := gin.New()
	r.POST("/register", h.Register)
	r.POST("/login", h.Login)
	r.POST("/forgot-password", h.ForgotPassword)
	r.POST("/reset-password", h.ResetPassword)
	return h, r, db
}

func postJSON(t *testing.T, r *gin.Engine, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	payload, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var out map[string]interface{}
	if err := json.Unmarshal(w.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode %q: %v", w.Body.String(), err)
	}
	return out
}

func registerPayload() map[string]string {
	return map[string]string{
		"full_name":        "Budi Santoso",
		"email":            "budi@eznews.com",
		"password":         "Password1!",
		"confirm_password": "Password1!",
	}
}

func TestRegisterAndLogin(t *testing.T) {
	_, r, _ := newTestHandler(t)

	w := postJSON(t, r, "/register", registerPayload())
	if w.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", w.Code, w.Body.String())
	}
	body := decode(t, w)
	if body["access_token"] == "" {
		t.Fatalf("expected a token on registration")
	}
	user := body["user"].(map[string]interface{})
	if user["role"] != model.RoleUser {
		t.Fatalf("registration must not grant admin, got %v", user["role"])
	}

	w = postJSON(t, r, "/login", map[string]string{
		"email":    "budi@eznews.com",
		"password": "Password1!",
	})
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}

	// 令牌以用户 ID 为 subject，携带角色声明
	tokenStr := decode(t, w)["access_token"].(string)
	claims := jwt.MapClaims{}
	_, err := jwt.ParseWithClaims(tokenStr, claims, func(token *jwt.Token) (interface{}, error) {
		return []byte("test-secret"), nil
	})
	if err != nil {
		t.Fatalf("parse token: %v", err)
	}
	if claims["role"] != model.RoleUser {
		t.Fatalf("expected role claim, got %v", claims["role"])
	}
	if claims["sub"] == "" {
		t.Fatalf("expected subject claim")
	}
}

func TestRegisterValidation(t *testing.T) {
	_, r, _ := newTestHandler(t)

	w := postJSON(t, r, "/register", map[string]string{
		"full_name":        "x",
		"email":            "bukan-email",
		"password":         "pendek",
		"confirm_password": "beda",
	})
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", w.Code)
	}
	errs := decode(t, w)["errors"].([]interface{})
	if len(errs) != 4 {
		t.Fatalf("expected 4 itemized errors, got %v", errs)
	}
}

func TestRegisterDuplicateEmail(t *testing.T) {
	_, r, _ := newTestHandler(t)

	if w := postJSON(t, r, "/register", registerPayload()); w.Code != http.StatusCreated {
		t.Fatalf("first register: expected 201, got %d", w.Code)
	}
	if w := postJSON(t, r, "/register", registerPayload()); w.Code != http.StatusConflict {
		t.Fatalf("second register: expected 409, got %d", w.Code)
	}
}

func TestLoginWrongPassword(t *testing.T) {
	_, r, _ := newTestHandler(t)
	postJSON(t, r, "/register", registerPayload())

	w := postJSON(t, r, "/login", map[string]string{
		"email":    "budi@eznews.com",
		"password": "salah-besar",
	})
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", w.Code)
	}

	w = postJSON(t, r, "/login", map[string]string{
		"email":    "tidak-ada@eznews.com",
		"password": "Password1!",
	})
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 for unknown email, got %d", w.Code)
	}
}

func TestForgotAndResetPassword(t *testing.T) {
	_, r, db := newTestHandler(t)
	postJSON(t, r, "/register", registerPayload())

	// 未注册邮箱与已注册邮箱返回同样的消息
	w := postJSON(t, r, "/forgot-password", map[string]string{"email": "tidak-ada@eznews.com"})
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	generic := decode(t, w)["message"]

	w = postJSON(t, r, "/forgot-password", map[string]string{"email": "budi@eznews.com"})
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if decode(t, w)["message"] != generic {
		t.Fatalf("responses must not reveal whether the email exists")
	}

	var user model.User
	if err := db.Where("email = ?", "budi@eznews.com").First(&user).Error; err != nil {
		t.Fatalf("load user: %v", err)
	}
	if user.ResetToken == "" {
		t.Fatalf("expected a stored reset token")
	}

	w = postJSON(t, r, "/reset-password", map[string]string{
		"token":            user.ResetToken,
		"new_password":     "PasswordBaru1!",
		"confirm_password": "PasswordBaru1!",
	})
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}

	db.First(&user, user.ID)
	if user.ResetToken != "" {
		t.Fatalf("reset token must be cleared after use")
	}

	w = postJSON(t, r, "/login", map[string]string{
		"email":    "budi@eznews.com",
		"password": "PasswordBaru1!",
	})
	if w.Code != http.StatusOK {
		t.Fatalf("expected login with new password, got %d", w.Code)
	}

	w = postJSON(t, r, "/reset-password", map[string]string{
		"token":            "token-usang",
		"new_password":     "PasswordBaru1!",
		"confirm_password": "PasswordBaru1!",
	})
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for bad token, got %d", w.Code)
	}
}
