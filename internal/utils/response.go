package utils

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// Envelope is the body of every JSON response.
type Envelope struct {
	OK      bool   `json:"ok"`
	Data    any    `json:"data,omitempty"`
	Message string `json:"message,omitempty"`
}

// OK writes a successful envelope with data.
func OK(c echo.Context, status int, data any) error {
	return c.JSON(status, Envelope{OK: true, Data: data})
}

// OKMessage writes a successful envelope carrying only a message.
func OKMessage(c echo.Context, status int, msg string) error {
	return c.JSON(status, Envelope{OK: true, Message: msg})
}

// Fail writes an error envelope.
func Fail(c echo.Context, status int, msg string) error {
	if msg == "" {
		msg = http.StatusText(status)
	}
	return c.JSON(status, Envelope{OK: false, Message: msg})
}
