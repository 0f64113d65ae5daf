package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"

	"github.com/iliyamo/sales-backoffice/internal/utils"
)

const msgInternal = "Erro interno no servidor."

var errInvalidID = errors.New("invalid id")

// parseID reads the :id path parameter.
func parseID(c echo.Context) (uint64, error) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		return 0, errInvalidID
	}
	return id, nil
}

// requestLog returns a logger annotated with the request id and route.
func requestLog(log logrus.FieldLogger, c echo.Context) logrus.FieldLogger {
	return log.WithFields(logrus.Fields{
		"request_id": c.Response().Header().Get(echo.HeaderXRequestID),
		"method":     c.Request().Method,
		"route":      c.Path(),
	})
}

// internalError logs err and answers 500 with msg, never with err itself.
func internalError(c echo.Context, log logrus.FieldLogger, err error, msg string) error {
	requestLog(log, c).WithError(err).Error(msg)
	return utils.Fail(c, http.StatusInternalServerError, msg)
}

// ErrorHandler renders framework errors (unknown route, wrong method, bind
// failures, recovered panics) in the response envelope.
func ErrorHandler(log logrus.FieldLogger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		status := http.StatusInternalServerError
		msg := msgInternal
		var he *echo.HTTPError
		if errors.As(err, &he) {
			status = he.Code
			switch m := he.Message.(type) {
			case string:
				msg = m
			case error:
				msg = m.Error()
			default:
				msg = http.StatusText(status)
			}
			if he.Internal != nil && status >= http.StatusInternalServerError {
				requestLog(log, c).WithError(he.Internal).Error("request failed")
			}
		} else {
			requestLog(log, c).WithError(err).Error("unhandled error")
		}
		if status == http.StatusInternalServerError {
			msg = msgInternal
		}

		if c.Request().Method == http.MethodHead {
			err = c.NoContent(status)
		} else {
			err = utils.Fail(c, status, msg)
		}
		if err != nil {
			requestLog(log, c).WithError(err).Warn("failed to write error response")
		}
	}
}
