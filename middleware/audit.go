package middleware

import (
	"net"
	"net/http"

	"github.com/NowakArtur97/Personal-Kanban-Board-Backend/models"
)

// AuditRecorder accepts security audit entries. Implementations must not block.
type AuditRecorder interface {
	Record(entry *models.AuditLog)
}

// NopAuditRecorder discards every entry
type NopAuditRecorder struct{}

// Record implements AuditRecorder
func (NopAuditRecorder) Record(*models.AuditLog) {}

// NewRequestAudit builds an audit entry stamped with the request ID, client
// address and user agent of r.
func NewRequestAudit(r *http.Request, action models.AuditAction, subject, resourceType string) *models.AuditLog {
	return models.NewAuditLog(action, subject, resourceType).
		WithRequest(GetRequestIDFromContext(r.Context()), clientIP(r), r.UserAgent())
}

// clientIP returns the host part of RemoteAddr, which chi's RealIP has
// already replaced with the forwarded address when one was sent
func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
