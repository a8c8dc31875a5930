package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/campusbridge/marketplace-backend/internal/domain"
	"github.com/campusbridge/marketplace-backend/pkg/jwt"
	"github.com/gin-gonic/gin"
)

func identityRouter(mgr *jwt.Manager, trustHeaders bool, extra ...gin.HandlerFunc) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(Identity(mgr, trustHeaders))
	r.Use(extra...)
	r.GET("/test", func(c *gin.Context) {
		id, _ := GetIdentity(c)
		c.JSON(http.StatusOK, id)
	})
	return r
}

func TestIdentity_Bearer(t *testing.T) {
	mgr := jwt.NewManager("secret", time.Hour)
	token, err := mgr.Generate("b1", "Acme Corp", "buyer")
	if err != nil {
		t.Fatalf("generate: %v", err)
	}

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/test", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	identityRouter(mgr, false).ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	var got domain.Identity
	if err := json.Unmarshal(w.Body.Bytes(), &got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got.ID != "b1" || got.Name != "Acme Corp" || got.Role != domain.RoleBuyer {
		t.Errorf("unexpected identity %+v", got)
	}
}

func TestIdentity_BadToken(t *testing.T) {
	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/test", nil)
	req.Header.Set("Authorization", "Bearer garbage")
	identityRouter(jwt.NewManager("secret", time.Hour), true).ServeHTTP(w, req)

	if w.Code != http.StatusUnauthorized {
		t.Errorf("expected 401, got %d", w.Code)
	}
}

func TestIdentity_MalformedHeader(t *testing.T) {
	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/test", nil)
	req.Header.Set("Authorization", "Token abc")
	identityRouter(jwt.NewManager("secret", time.Hour), false).ServeHTTP(w, req)

	if w.Code != http.StatusUnauthorized {
		t.Errorf("expected 401, got %d", w.Code)
	}
}

func TestIdentity_TrustedHeaders(t *testing.T) {
	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/test", nil)
	req.Header.Set(HeaderUserID, "s1")
	req.Header.Set(HeaderUserRole, "Seller")
	identityRouter(nil, true).ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	var got domain.Identity
	_ = json.Unmarshal(w.Body.Bytes(), &got)
	if got.ID != "s1" || got.Role != domain.RoleSeller {
		t.Errorf("unexpected identity %+v", got)
	}
	if got.Name != "s1" {
		t.Errorf("expected name to default to id, got %q", got.Name)
	}
}

func TestIdentity_HeadersIgnoredWhenUntrusted(t *testing.T) {
	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/test", nil)
	req.Header.Set(HeaderUserID, "s1")
	req.Header.Set(HeaderUserRole, "seller")
	identityRouter(nil, false).ServeHTTP(w, req)

	if w.Code != http.StatusUnauthorized {
		t.Errorf("expected 401, got %d", w.Code)
	}
}

func TestIdentity_UnknownRole(t *testing.T) {
	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/test", nil)
	req.Header.Set(HeaderUserID, "x1")
	req.Header.Set(HeaderUserRole, "admin")
	identityRouter(nil, true).ServeHTTP(w, req)

	if w.Code != http.StatusUnauthorized {
		t.Errorf("expected 401, got %d", w.Code)
	}
}

func TestRequireRole_Allowed(t *testing.T) {
	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/test", nil)
	req.Header.Set(HeaderUserID, "b1")
	req.Header.Set(HeaderUserRole, "buyer")
	identityRouter(nil, true, RequireRole(domain.RoleBuyer)).ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", w.Code)
	}
}

func TestRequireRole_Denied(t *testing.T) {
	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/test", nil)
	req.Header.Set(HeaderUserID, "s1")
	req.Header.Set(HeaderUserRole, "seller")
	identityRouter(nil, true, RequireRole(domain.RoleBuyer)).ServeHTTP(w, req)

	if w.Code != http.StatusForbidden {
		t.Errorf("expected 403, got %d", w.Code)
	}
}
