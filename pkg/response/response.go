package response

import (
	"github.com/gin-gonic/gin"

	"github.com/account-kit/user-service/pkg/apperr"
)

// Envelope is the wire shape of every API response.
type Envelope struct {
	Message string `json:"message"`
	Error   any    `json:"error"`
	Body    any    `json:"body"`
}

// OK writes a success envelope with the given status.
func OK(c *gin.Context, status int, message string, body any) {
	c.JSON(status, Envelope{Message: message, Error: nil, Body: body})
}

// Fail writes a failure envelope. The error field carries detail suitable for
// clients (validation maps, etc.), never internal error strings.
func Fail(c *gin.Context, status int, message string, detail any) {
	c.JSON(status, Envelope{Message: message, Error: detail, Body: nil})
}

// FromError maps a use-case failure onto the envelope. Typed failures carry
// their machine-readable code as message and their own status; anything else
// is an unclassified collaborator failure reported as a 500.
func FromError(c *gin.Context, err error) {
	if e, ok := apperr.From(err); ok {
		Fail(c, e.HTTPStatus(), e.Code, nil)
		return
	}
	Fail(c, 500, "INTERNAL_ERROR", nil)
}
