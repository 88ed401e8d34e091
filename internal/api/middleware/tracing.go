package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/newrelic/go-agent/v3/integrations/nrgin"
	"github.com/newrelic/go-agent/v3/newrelic"

	"example.com/backstage/services/herdadmin/internal/tracing"
)

// Tracing starts a New Relic transaction per request and tags it with the
// request id and admin. It passes requests through when tracing is disabled.
func Tracing(tracer tracing.Tracer) gin.HandlerFunc {
	app := tracer.Application()
	if app == nil {
		return func(c *gin.Context) { c.Next() }
	}

	return nrgin.Middleware(app)
}

// TagTransaction adds the request id and admin to the request's transaction
// and moves it into the request context, where the services look for it.
func TagTransaction() gin.HandlerFunc {
	return func(c *gin.Context) {
		if txn := nrgin.Transaction(c); txn != nil {
			txn.AddAttribute("request_id", c.GetString("request_id"))
			if admin := Admin(c); admin != "" {
				txn.AddAttribute("admin_mobile", admin)
			}
			c.Request = newrelic.RequestWithTransactionContext(c.Request, txn)
		}
		c.Next()
	}
}
