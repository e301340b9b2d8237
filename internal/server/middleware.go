package server

import (
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	obsmetrics "github.com/smallbiznis/stockledger/internal/observability/metrics"
	"github.com/smallbiznis/stockledger/internal/txcontext"
	warningdomain "github.com/smallbiznis/stockledger/internal/warning/domain"
)

const (
	HeaderSession = "X-Session-ID"
	HeaderUser    = "X-User-ID"

	contextCollectorKey = "warning_collector"
)

// WarningSession binds the warning session, the user and a fresh warning
// collector to the request context. A session id is generated when the
// client sends none and echoed back so it can be reused.
func WarningSession() gin.HandlerFunc {
	return func(c *gin.Context) {
		sessionID := strings.TrimSpace(c.GetHeader(HeaderSession))
		if sessionID == "" {
			sessionID = uuid.NewString()
		}
		c.Header(HeaderSession, sessionID)

		ctx := txcontext.WithSession(c.Request.Context(), sessionID)
		if userID := strings.TrimSpace(c.GetHeader(HeaderUser)); userID != "" {
			ctx = txcontext.WithUser(ctx, userID)
		}

		collector := warningdomain.NewCollector()
		ctx = warningdomain.WithCollector(ctx, collector)
		c.Set(contextCollectorKey, collector)

		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}

// Metrics counts served requests by route template.
func Metrics(m *obsmetrics.Metrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unknown"
		}
		m.IncHTTPRequest(c.Request.Method, route, c.Writer.Status())
	}
}

func warningsOf(c *gin.Context) []warningdomain.Warning {
	if value, ok := c.Get(contextCollectorKey); ok {
		if collector, ok := value.(*warningdomain.Collector); ok {
			return collector.Warnings()
		}
	}
	return []warningdomain.Warning{}
}
