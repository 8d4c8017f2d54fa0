package httpx

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"

	domainauth "github.com/PoojaS1511/Updated-CMS-sub000/internal/domain/auth"
	"github.com/PoojaS1511/Updated-CMS-sub000/internal/service"
)

// DecodeJSON decodes the request body into dst. On failure the 400 response has
// already been written and false is returned.
func DecodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxJSONBody))
	dec.DisallowUnknownFields()

	if err := dec.Decode(dst); err != nil {
		WriteError(w, ErrorParams{Code: http.StatusBadRequest, ErrCode: "invalid_json", Err: err})
		return false
	}
	return true
}

const maxJSONBody = 64 << 10

// WriteJSON writes v as JSON with the given status code.
func WriteJSON(w http.ResponseWriter, code int, v any) {
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(v); err != nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	// A failed write means the client went away.
	_, _ = buf.WriteTo(w)
}

// ErrorParams groups the parts of a JSON error response.
type ErrorParams struct {
	Code    int
	ErrCode string
	Err     error
}

// WriteError writes {"error": ErrCode, "message": Err.Error()}.
func WriteError(w http.ResponseWriter, p ErrorParams) {
	WriteJSON(w, p.Code, map[string]string{"error": p.ErrCode, "message": p.Err.Error()})
}

// authFailure is the HTTP view of a login or guard error.
type authFailure struct {
	Status  int
	Code    string
	Message string
}

// classifyAuthError maps guard errors onto status codes and user-facing text.
// Messages never include provider or database detail other than the provider's
// own invalid-credentials text.
func classifyAuthError(err error) authFailure {
	var authErr *domainauth.AuthError
	switch {
	case errors.As(err, &authErr):
		return authFailure{Status: authErrorStatus(authErr.Code), Code: string(authErr.Code), Message: authErr.UserMessage()}
	case domainauth.IsResolutionError(err), errors.Is(err, domainauth.ErrStoreUnavailable):
		return authFailure{
			Status:  http.StatusServiceUnavailable,
			Code:    string(domainauth.CodeUnavailable),
			Message: domainauth.ErrProviderUnavailable.Message,
		}
	case errors.Is(err, service.ErrGuardClosed):
		return authFailure{Status: http.StatusServiceUnavailable, Code: "shutting_down", Message: "The portal is shutting down."}
	default:
		return authFailure{
			Status:  http.StatusInternalServerError,
			Code:    "internal",
			Message: domainauth.ErrProviderUnavailable.Message,
		}
	}
}

func authErrorStatus(code domainauth.AuthErrorCode) int {
	switch code {
	case domainauth.CodeInvalidCredentials:
		return http.StatusUnauthorized
	case domainauth.CodeTimeout:
		return http.StatusGatewayTimeout
	case domainauth.CodeNoRole:
		return http.StatusForbidden
	case domainauth.CodeUnavailable:
		return http.StatusServiceUnavailable
	}
	return http.StatusInternalServerError
}

// WriteAuthError writes the JSON form of a login or guard failure.
func WriteAuthError(w http.ResponseWriter, err error) {
	f := classifyAuthError(err)
	WriteJSON(w, f.Status, map[string]string{"error": f.Code, "message": f.Message})
}
