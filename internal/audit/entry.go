// Package audit turns finished requests into audit_logs entries and hands
// them to a background recorder so the response path never waits on the
// audit store.
package audit

import (
	"bytes"
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"github.com/iliyamo/sales-backoffice/internal/model"
)

const (
	maxBodyChars      = 1000
	maxMessageChars   = 500
	maxUserAgentChars = 255
	maxEndpointChars  = 255
	unknownResource   = "unknown"
)

// Request is what the audit middleware knows about a finished request.
type Request struct {
	Method    string
	URI       string
	UserID    uint64
	Username  string
	IP        string
	UserAgent string
	Body      []byte
	Status    int
	Message   string
}

// Skip reports whether a request to uri is never audited.  Login and
// registration calls carry credentials, the root is a liveness probe, and a
// request without identity was rejected before reaching a handler.
func Skip(uri string, authenticated bool) bool {
	if !authenticated {
		return true
	}
	if strings.Contains(uri, "/login") || strings.Contains(uri, "/register") {
		return true
	}
	return uri == "/"
}

var actionLabels = map[string]string{
	http.MethodGet:    "Consultar",
	http.MethodPost:   "Adicionar",
	http.MethodPut:    "Editar",
	http.MethodDelete: "Remover",
	http.MethodPatch:  "Atualizar",
}

// ActionLabel maps an HTTP method to the action name stored in audit_logs.
// Unmapped methods are stored as is.
func ActionLabel(method string) string {
	if l, ok := actionLabels[strings.ToUpper(method)]; ok {
		return l
	}
	return method
}

// ParseResource extracts the resource name and numeric id from
// /api/dados/{resource}/{id}.  The id is the leading integer of its segment
// ("12abc" is 12); a segment without one, or a zero id, yields no id.  Any
// other path yields "unknown" and no id.
func ParseResource(uri string) (string, *int64) {
	path := uri
	if i := strings.IndexAny(path, "?#"); i >= 0 {
		path = path[:i]
	}
	var parts []string
	for _, p := range strings.Split(path, "/") {
		if p != "" {
			parts = append(parts, p)
		}
	}
	if len(parts) < 2 || parts[0] != "api" || parts[1] != "dados" {
		return unknownResource, nil
	}
	if len(parts) < 3 {
		return unknownResource, nil
	}
	resource := parts[2]
	if len(parts) < 4 {
		return resource, nil
	}
	id, ok := leadingInt(parts[3])
	if !ok || id == 0 {
		return resource, nil
	}
	return resource, &id
}

// leadingInt parses the optionally signed decimal digits at the start of s
// and ignores the rest.
func leadingInt(s string) (int64, bool) {
	end := 0
	if end < len(s) && (s[end] == '-' || s[end] == '+') {
		end++
	}
	start := end
	for end < len(s) && s[end] >= '0' && s[end] <= '9' {
		end++
	}
	if end == start {
		return 0, false
	}
	n, err := strconv.ParseInt(s[:end], 10, 64)
	return n, err == nil
}

// Truncate cuts s to at most n characters.
func Truncate(s string, n int) string {
	if n <= 0 {
		return ""
	}
	if len(s) <= n {
		return s
	}
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}

// bodySnapshot returns the compacted request body, or nil when it is empty
// or an empty JSON object.
func bodySnapshot(body []byte) *string {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 {
		return nil
	}
	var buf bytes.Buffer
	if err := json.Compact(&buf, trimmed); err == nil {
		trimmed = buf.Bytes()
	}
	s := string(trimmed)
	if s == "{}" {
		return nil
	}
	s = Truncate(s, maxBodyChars)
	return &s
}

func optional(s string, limit int) *string {
	if s == "" {
		return nil
	}
	s = Truncate(s, limit)
	return &s
}

// NewEntry derives the audit_logs row for r.
func NewEntry(r Request) model.AuditEntry {
	resource, id := ParseResource(r.URI)
	e := model.AuditEntry{
		Action:         ActionLabel(r.Method),
		Resource:       Truncate(resource, 50),
		ResourceID:     id,
		Method:         r.Method,
		Endpoint:       Truncate(r.URI, maxEndpointChars),
		IPAddress:      optional(r.IP, 45),
		UserAgent:      optional(r.UserAgent, maxUserAgentChars),
		RequestBody:    bodySnapshot(r.Body),
		ResponseStatus: r.Status,
	}
	if r.UserID != 0 {
		uid := r.UserID
		e.UsuarioID = &uid
	}
	e.Username = optional(r.Username, 150)
	if r.Status >= http.StatusBadRequest {
		e.ErrorMessage = optional(r.Message, maxMessageChars)
	}
	return e
}
