package router

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/revisit-loyalty/internal/config"
	"github.com/revisit-loyalty/internal/constants"
	"github.com/revisit-loyalty/internal/service"

	"github.com/gin-gonic/gin"
)

type stubTenantResolver struct {
	refs map[string]*service.TenantRef
}

func (s stubTenantResolver) ResolveSlug(_ context.Context, slug string) (*service.TenantRef, error) {
	if ref, ok := s.refs[slug]; ok {
		return ref, nil
	}
	return nil, service.ErrRestaurantNotFound
}

type envelope struct {
	StatusCode int                    `json:"status_code"`
	Msg        string                 `json:"msg"`
	RawData    json.RawMessage        `json:"data"`
	Data       map[string]interface{} `json:"-"`
}

// List 将 data 解析为对象数组
func (e envelope) List(t *testing.T) []map[string]interface{} {
	t.Helper()
	var items []map[string]interface{}
	if err := json.Unmarshal(e.RawData, &items); err != nil {
		t.Fatalf("data is not a list: %v raw=%s", err, string(e.RawData))
	}
	return items
}

func decodeEnvelope(t *testing.T, w *httptest.ResponseRecorder) envelope {
	t.Helper()
	var resp envelope
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal response failed: %v body=%s", err, w.Body.String())
	}
	if len(resp.RawData) > 0 && resp.RawData[0] == '{' {
		if err := json.Unmarshal(resp.RawData, &resp.Data); err != nil {
			t.Fatalf("unmarshal data failed: %v body=%s", err, w.Body.String())
		}
	}
	return resp
}

func TestCORSPolicyAllowOrigin(t *testing.T) {
	cases := []struct {
		name   string
		cfg    config.CORSConfig
		origin string
		want   string
	}{
		{name: "default wildcard", cfg: config.CORSConfig{}, origin: "https://example.com", want: "*"},
		{name: "wildcard with credentials echoes", cfg: config.CORSConfig{AllowedOrigins: []string{"*"}, AllowCredentials: true}, origin: "https://example.com", want: "https://example.com"},
		{name: "allow-list match", cfg: config.CORSConfig{AllowedOrigins: []string{"https://a.example.com", "https://b.example.com"}}, origin: "https://B.example.com", want: "https://B.example.com"},
		{name: "allow-list miss", cfg: config.CORSConfig{AllowedOrigins: []string{"https://a.example.com"}}, origin: "https://x.example.com", want: ""},
		{name: "allow-list without origin", cfg: config.CORSConfig{AllowedOrigins: []string{"https://a.example.com"}}, origin: "", want: ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := newCORSPolicy(tc.cfg).allowOrigin(tc.origin); got != tc.want {
				t.Fatalf("want %q got %q", tc.want, got)
			}
		})
	}
}

func TestCORSMiddlewarePreflight(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(CORSMiddleware(config.CORSConfig{MaxAge: 600}))
	r.POST("/x", func(c *gin.Context) { c.Status(http.StatusOK) })

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodOptions, "/x", nil)
	req.Header.Set("Origin", "https://pos.example.com")
	r.ServeHTTP(w, req)

	if w.Code != http.StatusNoContent {
		t.Fatalf("preflight want 204 got %d", w.Code)
	}
	if w.Header().Get("Access-Control-Max-Age") != "600" || !strings.Contains(w.Header().Get("Access-Control-Allow-Headers"), constants.HeaderRequestID) {
		t.Fatalf("unexpected cors headers: %v", w.Header())
	}
}

func TestRequestIDMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)

	r := gin.New()
	r.Use(RequestIDMiddleware())
	r.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"request_id": c.GetString(constants.ContextKeyRequestID)})
	})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.Header.Set(constants.HeaderRequestID, "req-123")
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status want 200 got %d", w.Code)
	}
	if w.Header().Get(constants.HeaderRequestID) != "req-123" {
		t.Fatalf("response request id want req-123 got %s", w.Header().Get(constants.HeaderRequestID))
	}
	var resp map[string]string
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal response failed: %v", err)
	}
	if resp["request_id"] != "req-123" {
		t.Fatalf("context request id want req-123 got %s", resp["request_id"])
	}

	w2 := httptest.NewRecorder()
	req2 := httptest.NewRequest(http.MethodGet, "/ping", nil)
	r.ServeHTTP(w2, req2)
	if strings.TrimSpace(w2.Header().Get(constants.HeaderRequestID)) == "" {
		t.Fatalf("generated request id should not be blank")
	}
}

func TestTenantMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)

	resolver := stubTenantResolver{refs: map[string]*service.TenantRef{
		"cantina": {RestaurantID: "rest-1", Slug: "cantina"},
	}}
	r := gin.New()
	r.GET("/public/:slug/ping", TenantMiddleware(resolver), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"restaurant_id": c.GetString(constants.ContextKeyRestaurantID)})
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/public/cantina/ping", nil))
	if !strings.Contains(w.Body.String(), `"restaurant_id":"rest-1"`) {
		t.Fatalf("expected tenant in context, got %s", w.Body.String())
	}
	if w.Header().Get(constants.HeaderRestaurantID) != "rest-1" {
		t.Fatalf("expected tenant header, got %q", w.Header().Get(constants.HeaderRestaurantID))
	}

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/public/unknown/ping", nil))
	resp := decodeEnvelope(t, w)
	if resp.StatusCode != 404 || resp.Data["error"] != "restaurant_not_found" {
		t.Fatalf("unexpected unknown tenant response: %+v", resp)
	}
}

func TestStaffAuthMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)

	auth := service.NewAuthService(config.AuthConfig{SecretKey: "middleware-secret"})
	r := gin.New()
	r.Use(StaffAuthMiddleware(auth))
	r.GET("/pos/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"restaurant_id": c.GetString(constants.ContextKeyRestaurantID),
			"user_id":       c.GetString(constants.ContextKeyStaffUserID),
			"role":          c.GetString(constants.ContextKeyStaffRole),
		})
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/pos/ping", nil))
	resp := decodeEnvelope(t, w)
	if resp.StatusCode != 401 || resp.Data["error"] != "not_authenticated" {
		t.Fatalf("missing header should be rejected, got %+v", resp)
	}

	w = httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/pos/ping", nil)
	req.Header.Set("Authorization", "Bearer not-a-token")
	r.ServeHTTP(w, req)
	if resp := decodeEnvelope(t, w); resp.StatusCode != 401 {
		t.Fatalf("garbage token should be rejected, got %+v", resp)
	}

	token, _, err := auth.IssueToken(service.Actor{RestaurantID: "rest-1", UserID: "user-9", Role: "Manager"}, time.Hour)
	if err != nil {
		t.Fatalf("issue token failed: %v", err)
	}
	w = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodGet, "/pos/ping", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	r.ServeHTTP(w, req)
	var body map[string]string
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("unmarshal response failed: %v", err)
	}
	if body["restaurant_id"] != "rest-1" || body["user_id"] != "user-9" || body["role"] != "manager" {
		t.Fatalf("unexpected actor in context: %+v", body)
	}
}

func TestStaffRBACMiddlewareWithoutService(t *testing.T) {
	gin.SetMode(gin.TestMode)

	r := gin.New()
	r.Use(func(c *gin.Context) {
		c.Set(constants.ContextKeyStaffRole, "owner")
		c.Next()
	}, StaffRBACMiddleware(nil))
	r.GET("/owner/settings", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"ok": true})
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/owner/settings", nil))
	if resp := decodeEnvelope(t, w); resp.StatusCode != 401 {
		t.Fatalf("missing authz service should reject, got %+v", resp)
	}
}
