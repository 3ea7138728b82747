package models

import "time"

// AuditAction constants represent actions to be logged.
const (
	AuditActionLogin            = "LOGIN"
	AuditActionRegister         = "REGISTER"
	AuditActionPasswordChange   = "PASSWORD_CHANGE"
	AuditActionUserApprove      = "USER_APPROVE"
	AuditActionUserRevoke       = "USER_REVOKE"
	AuditActionUserRole         = "USER_ROLE"
	AuditActionUserDelete       = "USER_DELETE"
	AuditActionDocumentCreate   = "DOCUMENT_CREATE"
	AuditActionDocumentWorkflow = "DOCUMENT_WORKFLOW"
	AuditActionDocumentDelete   = "DOCUMENT_DELETE"
	AuditActionResponseDelete   = "RESPONSE_DELETE"
)

// AuditLog represents an audit trail record.
type AuditLog struct {
	ID         string    `db:"id" json:"id"`
	UserID     *string   `db:"user_id" json:"user_id,omitempty"`
	Action     string    `db:"action" json:"action"`
	Resource   string    `db:"resource" json:"resource"`
	ResourceID *string   `db:"resource_id" json:"resource_id,omitempty"`
	NewValues  []byte    `db:"new_values" json:"new_values,omitempty"`
	IPAddress  string    `db:"ip_address" json:"ip_address"`
	UserAgent  string    `db:"user_agent" json:"user_agent"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
}
