package middleware

import (
	"fmt"
	"net/http"

	"notemate/utils"

	"github.com/gin-gonic/gin"
	"github.com/pkg/errors"
	"github.com/rollbar/rollbar-go"
	"github.com/rs/zerolog"
)

// Recovery turns a panic into a 500 envelope, logs it and, when enabled,
// reports it to rollbar with the request attached.
func Recovery(report bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if r := recover(); r != nil {
				err, ok := r.(error)
				if !ok {
					err = fmt.Errorf("%v", r)
				}
				err = errors.WithStack(err)

				zerolog.Ctx(c.Request.Context()).Error().Err(err).Str("path", c.Request.URL.Path).Msg("panic recovered")
				utils.TrackError("panic", c.FullPath())
				if report {
					rollbar.RequestError(rollbar.CRIT, c.Request, err)
				}
				utils.Abort(c, http.StatusInternalServerError, "Server error")
			}
		}()
		c.Next()
	}
}
