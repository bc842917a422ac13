package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// AuditAction represents the type of security event being audited
type AuditAction string

const (
	AuditActionLoginSucceeded AuditAction = "login_succeeded"
	AuditActionLoginFailed    AuditAction = "login_failed"
	AuditActionLoginThrottled AuditAction = "login_throttled"
	AuditActionUserRegistered AuditAction = "user_registered"
	AuditActionAccessDenied   AuditAction = "access_denied"
	AuditActionTaskDeleted    AuditAction = "task_deleted"
)

// AuditLog represents an audit trail entry. Subject is the username the
// event concerns; it is empty for anonymous requests.
type AuditLog struct {
	ID           uuid.UUID       `json:"id" db:"id"`
	Action       AuditAction     `json:"action" db:"action"`
	Subject      string          `json:"subject,omitempty" db:"subject"`
	ResourceType string          `json:"resource_type" db:"resource_type"` // user, task, route
	ResourceID   *uuid.UUID      `json:"resource_id,omitempty" db:"resource_id"`
	Details      json.RawMessage `json:"details,omitempty" db:"details"` // JSONB for flexible metadata
	IPAddress    string          `json:"ip_address" db:"ip_address"`
	UserAgent    string          `json:"user_agent" db:"user_agent"`
	RequestID    string          `json:"request_id" db:"request_id"`
	Timestamp    time.Time       `json:"timestamp" db:"timestamp"`
}

// TableName returns the table name for the AuditLog model
func (AuditLog) TableName() string {
	return "audit_logs"
}

// NewAuditLog creates a new AuditLog instance
func NewAuditLog(action AuditAction, subject, resourceType string) *AuditLog {
	return &AuditLog{
		ID:           uuid.New(),
		Action:       action,
		Subject:      subject,
		ResourceType: resourceType,
		Timestamp:    time.Now(),
	}
}

// WithResource sets the resource ID
func (a *AuditLog) WithResource(resourceID uuid.UUID) *AuditLog {
	a.ResourceID = &resourceID
	return a
}

// WithDetails sets the details
func (a *AuditLog) WithDetails(details interface{}) *AuditLog {
	if data, err := json.Marshal(details); err == nil {
		a.Details = data
	}
	return a
}

// WithRequest sets request metadata
func (a *AuditLog) WithRequest(requestID, ipAddress, userAgent string) *AuditLog {
	a.RequestID = requestID
	a.IPAddress = ipAddress
	a.UserAgent = userAgent
	return a
}
