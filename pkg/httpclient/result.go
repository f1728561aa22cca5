package httpclient

import (
	"encoding/json"
	"errors"
	"mime"
	"net/http"
	"strings"

	appErrors "github.com/noah-isme/sicali-client/pkg/errors"
)

// Result is the uniform outcome of a backend call.
type Result struct {
	Success     bool            `json:"success"`
	Status      int             `json:"status"`
	Message     string          `json:"message,omitempty"`
	Data        json.RawMessage `json:"data,omitempty"`
	Text        string          `json:"text,omitempty"`
	ContentType string          `json:"contentType,omitempty"`
}

var statusMessages = map[int]string{
	http.StatusBadRequest:          "Solicitud inválida. Verifica los datos enviados.",
	http.StatusUnauthorized:        "No autorizado. Inicia sesión nuevamente.",
	http.StatusForbidden:           "No tienes permisos para realizar esta acción.",
	http.StatusNotFound:            "Recurso no encontrado.",
	http.StatusConflict:            "Conflicto. El recurso ya existe.",
	http.StatusInternalServerError: "Error interno del servidor. Intenta más tarde.",
}

// StatusMessage returns the fixed human-readable message for an HTTP error status.
func StatusMessage(status int) string {
	if msg, ok := statusMessages[status]; ok {
		return msg
	}
	return "Error desconocido"
}

func decodeResponse(resp *http.Response, raw []byte) *Result {
	status := resp.StatusCode

	if status < 200 || status > 299 {
		res := &Result{Status: status, Message: StatusMessage(status)}
		switch {
		case len(raw) == 0:
		case json.Valid(raw):
			res.Data = json.RawMessage(raw)
		default:
			wrapped, _ := json.Marshal(map[string]string{"error": string(raw)})
			res.Data = wrapped
		}
		return res
	}

	if status == http.StatusNoContent {
		return &Result{Success: true, Status: status}
	}

	res := &Result{Success: true, Status: status}
	if isJSON(resp.Header.Get("Content-Type")) {
		switch {
		case len(raw) == 0:
		case json.Valid(raw):
			res.Data = json.RawMessage(raw)
		default:
			res.Text = string(raw)
		}
		return res
	}

	res.Text = string(raw)
	res.ContentType = resp.Header.Get("Content-Type")
	return res
}

func isJSON(contentType string) bool {
	if contentType == "" {
		return false
	}
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return strings.Contains(contentType, "json")
	}
	return mediaType == "application/json" || strings.HasSuffix(mediaType, "+json")
}

// DetailMessage extracts the backend's own explanation from an error body:
// a bare JSON string, or the message/error/mensaje field of an object.
func (r *Result) DetailMessage() string {
	if r == nil || len(r.Data) == 0 {
		return strings.TrimSpace(r.textOrEmpty())
	}
	var s string
	if err := json.Unmarshal(r.Data, &s); err == nil {
		return s
	}
	var obj map[string]json.RawMessage
	if err := json.Unmarshal(r.Data, &obj); err != nil {
		return ""
	}
	for _, key := range []string{"message", "error", "mensaje"} {
		if v, ok := obj[key]; ok {
			if err := json.Unmarshal(v, &s); err == nil && s != "" {
				return s
			}
		}
	}
	return ""
}

func (r *Result) textOrEmpty() string {
	if r == nil {
		return ""
	}
	return r.Text
}

// Err converts an unsuccessful result into an error. 409 surfaces the backend
// detail verbatim when one is present.
func (r *Result) Err() error {
	if r == nil {
		return appErrors.Clone(appErrors.ErrInternal, "empty response")
	}
	if r.Success {
		return nil
	}
	detail := r.DetailMessage()
	switch r.Status {
	case http.StatusConflict:
		if detail != "" {
			return appErrors.Clone(appErrors.ErrConflict, detail)
		}
		return appErrors.Clone(appErrors.ErrConflict, r.Message)
	case http.StatusNotFound:
		return withDetail(appErrors.Clone(appErrors.ErrNotFound, r.Message), detail)
	case http.StatusUnauthorized:
		return withDetail(appErrors.Clone(appErrors.ErrUnauthorized, r.Message), detail)
	}
	e := appErrors.Clone(appErrors.ErrHTTP, r.Message)
	e.Status = r.Status
	return withDetail(e, detail)
}

func withDetail(e *appErrors.Error, detail string) *appErrors.Error {
	if detail != "" && detail != e.Message {
		e.Err = errors.New(detail)
	}
	return e
}
