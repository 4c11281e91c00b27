package middleware

import (
	"bytes"
	"io"
	"net/http"
	"strings"

	"github.com/carlos-juma/branch.it-IMY220/internal/services"
	"github.com/carlos-juma/branch.it-IMY220/pkg/logger"
	"github.com/gin-gonic/gin"
)

const maxAuditBody = 2000

var sensitiveKeys = []string{"password", "secret", "token", "access_token"}

// AuditLog records write operations (POST/PUT/DELETE) to system_logs.
func AuditLog() gin.HandlerFunc {
	return func(c *gin.Context) {
		method := c.Request.Method
		if method != http.MethodPost && method != http.MethodPut && method != http.MethodDelete {
			c.Next()
			return
		}

		var bodySnippet string
		if c.Request.Body != nil {
			bodyBytes, _ := io.ReadAll(c.Request.Body)
			c.Request.Body = io.NopCloser(bytes.NewBuffer(bodyBytes))
			bodySnippet = maskSensitiveFields(string(bodyBytes))
			if len(bodySnippet) > maxAuditBody {
				bodySnippet = bodySnippet[:maxAuditBody] + "...[truncated]"
			}
		}

		c.Next()

		status := c.Writer.Status()
		module, action := parseRouteInfo(c.FullPath(), method)

		var uid *uint
		if userID := GetUserID(c); userID > 0 {
			uid = &userID
		}

		services.LogInfo(module, action, formatAuditMessage(GetEmail(c), method, c.Request.URL.Path, status), services.LogEntry{
			UserID:    uid,
			RequestID: c.Writer.Header().Get(logger.RequestIDHeader),
			IP:        c.ClientIP(),
			UserAgent: c.Request.UserAgent(),
			Extra: map[string]interface{}{
				"method": method,
				"path":   c.Request.URL.Path,
				"status": status,
				"body":   bodySnippet,
			},
		})
	}
}

// parseRouteInfo derives module and action from a gin route pattern,
// e.g. "/api/projects/:id/files" + "PUT" gives ("Projects", "Update").
func parseRouteInfo(fullPath, method string) (module, action string) {
	path := strings.TrimPrefix(fullPath, "/api/")
	path = strings.TrimPrefix(path, "admin/")

	module = "Unknown"
	if words := strings.Fields(strings.ReplaceAll(strings.SplitN(path, "/", 2)[0], "-", " ")); len(words) > 0 {
		for i, w := range words {
			words[i] = strings.ToUpper(w[:1]) + w[1:]
		}
		module = strings.Join(words, " ")
	}

	switch method {
	case http.MethodPost:
		action = "Create"
	case http.MethodPut:
		action = "Update"
	case http.MethodDelete:
		action = "Delete"
	default:
		action = method
	}
	return module, action
}

func formatAuditMessage(actor, method, path string, status int) string {
	if actor == "" {
		actor = "anonymous"
	}
	outcome := "Failed"
	if status >= 200 && status < 300 {
		outcome = "OK"
	}
	return "[Audit] " + actor + " " + method + " " + path + " -> " + outcome
}

// maskSensitiveFields replaces the string values of sensitive JSON keys.
func maskSensitiveFields(body string) string {
	for _, key := range sensitiveKeys {
		body = maskJSONValue(body, key)
	}
	return body
}

// maskJSONValue masks every quoted value of key. Matching is
// case-insensitive on the key.
func maskJSONValue(body, key string) string {
	needle := "\"" + key + "\""
	from := 0
	for {
		idx := strings.Index(strings.ToLower(body[from:]), needle)
		if idx == -1 {
			return body
		}
		idx += from + len(needle)

		rest := strings.TrimLeft(body[idx:], " \t")
		if !strings.HasPrefix(rest, ":") {
			from = idx
			continue
		}
		valueStart := len(body) - len(strings.TrimLeft(rest[1:], " \t\n"))
		if valueStart >= len(body) || body[valueStart] != '"' {
			from = idx
			continue
		}
		end := strings.Index(body[valueStart+1:], "\"")
		if end == -1 {
			return body
		}
		body = body[:valueStart+1] + "***" + body[valueStart+1+end:]
		from = valueStart + 4
	}
}
