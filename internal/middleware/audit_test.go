package middleware

import (
	"bytes"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
)

func TestParseRouteInfo(t *testing.T) {
	cases := []struct {
		path, method   string
		module, action string
	}{
		{"/api/projects/:id/files", "PUT", "Projects", "Update"},
		{"/api/friendships/request", "POST", "Friendships", "Create"},
		{"/api/admin/system-logs", "DELETE", "System Logs", "Delete"},
		{"", "PATCH", "Unknown", "PATCH"},
		{"/api/", "POST", "Unknown", "Create"},
	}
	for _, tc := range cases {
		module, action := parseRouteInfo(tc.path, tc.method)
		if module != tc.module || action != tc.action {
			t.Errorf("parseRouteInfo(%q, %q) = (%q, %q), want (%q, %q)",
				tc.path, tc.method, module, action, tc.module, tc.action)
		}
	}
}

func TestMaskSensitiveFields(t *testing.T) {
	cases := []struct{ in, want string }{
		{`{"email":"a@b.co","password":"hunter2"}`, `{"email":"a@b.co","password":"***"}`},
		{`{"Password" : "x", "name":"n"}`, `{"Password" : "***", "name":"n"}`},
		{`{"type":"password"}`, `{"type":"password"}`},
		{`{"password":"a","nested":{"password":"b"}}`, `{"password":"***","nested":{"password":"***"}}`},
		{`{"access_token":"abc"}`, `{"access_token":"***"}`},
		{`not json`, `not json`},
	}
	for _, tc := range cases {
		if got := maskSensitiveFields(tc.in); got != tc.want {
			t.Errorf("maskSensitiveFields(%s) = %s, want %s", tc.in, got, tc.want)
		}
	}
}

func TestFormatAuditMessage(t *testing.T) {
	if got := formatAuditMessage("", "POST", "/api/projects", 201); got != "[Audit] anonymous POST /api/projects -> OK" {
		t.Errorf("unexpected message %q", got)
	}
	if got := formatAuditMessage("ada@example.com", "DELETE", "/api/projects/3", 403); got != "[Audit] ada@example.com DELETE /api/projects/3 -> Failed" {
		t.Errorf("unexpected message %q", got)
	}
}

func TestAuditLog_PreservesBody(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(AuditLog())

	var seen string
	router.POST("/api/auth/login", func(c *gin.Context) {
		b, _ := io.ReadAll(c.Request.Body)
		seen = string(b)
		c.JSON(200, gin.H{"status": "ok"})
	})

	body := `{"email":"a@b.co","password":"hunter2"}`
	w := httptest.NewRecorder()
	req, _ := http.NewRequest("POST", "/api/auth/login", bytes.NewBufferString(body))
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected %d, got %d", http.StatusOK, w.Code)
	}
	if seen != body {
		t.Errorf("handler saw %q, want the unmasked body", seen)
	}
}
