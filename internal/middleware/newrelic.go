package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/newrelic/go-agent/v3/integrations/nrgin"
)

// NewRelicPrincipalMiddleware tags the nrgin transaction with the caller and reports handler errors.
// It must run after AuthMiddleware on routes behind nrgin.Middleware.
func NewRelicPrincipalMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		txn := nrgin.Transaction(c)
		if txn == nil {
			c.Next()
			return
		}

		if p := PrincipalFrom(c); p != nil {
			txn.AddAttribute("principal.id", p.ID)
			txn.AddAttribute("principal.role", string(p.Role))
		}

		c.Next()

		// Record error if present.
		for _, err := range c.Errors {
			txn.NoticeError(err.Err)
		}
	}
}
