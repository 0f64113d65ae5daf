package middleware

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/sales-backoffice/internal/audit"
	"github.com/iliyamo/sales-backoffice/internal/model"
)

// AuditRecorder accepts finished entries without blocking.
type AuditRecorder interface {
	Record(e model.AuditEntry) bool
}

const maxCapturedResponse = 4 << 10

// captureWriter keeps the start of the response body while forwarding
// everything to the client.
type captureWriter struct {
	http.ResponseWriter
	status int
	buf    bytes.Buffer
	limit  int
}

func (cw *captureWriter) WriteHeader(code int) {
	cw.status = code
	cw.ResponseWriter.WriteHeader(code)
}

func (cw *captureWriter) Write(b []byte) (int, error) {
	if remain := cw.limit - cw.buf.Len(); remain > 0 {
		if len(b) <= remain {
			cw.buf.Write(b)
		} else {
			cw.buf.Write(b[:remain])
		}
	}
	return cw.ResponseWriter.Write(b)
}

func (cw *captureWriter) Flush() {
	if f, ok := cw.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

// envelopeMessage returns the "message" field of a JSON envelope body.
func envelopeMessage(body []byte) string {
	var env struct {
		Message string `json:"message"`
	}
	if err := json.Unmarshal(body, &env); err != nil {
		return ""
	}
	return env.Message
}

// Audit records every authenticated request that passes through it once the
// response has been written.  It must sit outside JWTAuth so that requests
// rejected by the gates are still seen; requests that never gained an
// identity are skipped.
func Audit(rec AuditRecorder) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()

			var body []byte
			if req.Body != nil && req.Body != http.NoBody {
				b, err := io.ReadAll(req.Body)
				if err == nil {
					body = b
				}
				_ = req.Body.Close()
				req.Body = io.NopCloser(bytes.NewReader(body))
			}

			cw := &captureWriter{ResponseWriter: c.Response().Writer, status: http.StatusOK, limit: maxCapturedResponse}
			c.Response().Writer = cw

			if err := next(c); err != nil {
				c.Error(err)
			}

			id := CurrentIdentity(c)
			uri := req.RequestURI
			if uri == "" {
				uri = req.URL.RequestURI()
			}
			if audit.Skip(uri, id != nil) {
				return nil
			}

			status := c.Response().Status
			if status == 0 {
				status = cw.status
			}
			entry := audit.NewEntry(audit.Request{
				Method:    req.Method,
				URI:       uri,
				UserID:    id.UserID,
				Username:  id.Nome,
				IP:        c.RealIP(),
				UserAgent: req.UserAgent(),
				Body:      body,
				Status:    status,
				Message:   envelopeMessage(cw.buf.Bytes()),
			})
			rec.Record(entry)
			return nil
		}
	}
}
