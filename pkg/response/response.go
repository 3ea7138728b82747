package response

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/siap-api/internal/models"
	appErrors "github.com/noah-isme/siap-api/pkg/errors"
	"github.com/noah-isme/siap-api/pkg/middleware/requestid"
)

// Envelope is the body of every JSON response.
type Envelope struct {
	Data       interface{}            `json:"data,omitempty"`
	Message    string                 `json:"message,omitempty"`
	Error      *appErrors.Error       `json:"error,omitempty"`
	Pagination *models.Pagination     `json:"pagination,omitempty"`
	Meta       map[string]interface{} `json:"meta,omitempty"`
}

// JSON writes data with optional pagination and meta.
func JSON(c *gin.Context, status int, data interface{}, pagination *models.Pagination, meta ...map[string]interface{}) {
	env := Envelope{Data: data, Pagination: pagination}
	if len(meta) > 0 && len(meta[0]) > 0 {
		env.Meta = meta[0]
	}
	write(c, status, env)
}

// Message writes a user facing message next to optional data.
func Message(c *gin.Context, status int, message string, data interface{}) {
	write(c, status, Envelope{Data: data, Message: message})
}

// Error maps err onto its typed status. The request id is echoed so clients
// can quote it when reporting a failure.
func Error(c *gin.Context, err error) {
	writeError(c, appErrors.FromError(err), false)
}

// ErrorWithDetail is Error plus the raw cause of a 5xx under meta.detail.
// Callers only use it outside production.
func ErrorWithDetail(c *gin.Context, err error) {
	writeError(c, appErrors.FromError(err), true)
}

func writeError(c *gin.Context, appErr *appErrors.Error, detail bool) {
	meta := map[string]interface{}{}
	if id := requestid.Value(c); id != "" {
		meta["request_id"] = id
	}
	if detail && appErr.Status >= http.StatusInternalServerError && appErr.Err != nil {
		meta["detail"] = appErr.Err.Error()
	}
	env := Envelope{Error: appErr}
	if len(meta) > 0 {
		env.Meta = meta
	}
	write(c, appErr.Status, env)
}

func write(c *gin.Context, status int, env Envelope) {
	c.Header("Cache-Control", "no-store")
	c.Header("Pragma", "no-cache")
	c.JSON(status, env)
}
