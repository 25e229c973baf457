package httpapi

import (
	"encoding/json"
	"net/http"

	"github.com/BearBump/GLExpress/internal/models"
	"github.com/pkg/errors"
)

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

// errBodyTooLarge: тело длиннее maxBodyBytes. Обрезать молча нельзя, отвечаем 413.
var errBodyTooLarge = errors.New("request body too large")

func statusCode(err error) int {
	switch {
	case errors.Is(err, errBodyTooLarge):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, models.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, models.ErrAuthentication):
		return http.StatusUnauthorized
	case errors.Is(err, models.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, models.ErrConflict):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	code := statusCode(err)
	if code == http.StatusInternalServerError {
		s.log.Error("request failed", "method", r.Method, "path", r.URL.Path, "error", err.Error())
	}
	writeJSON(w, code, map[string]string{"error": err.Error()})
}

func limitBody(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
}

// bodyErr переводит ошибку чтения тела в errBodyTooLarge, если сработал лимит.
func bodyErr(err error) error {
	var mbe *http.MaxBytesError
	if errors.As(err, &mbe) {
		return errors.Wrapf(errBodyTooLarge, "limit is %d bytes", mbe.Limit)
	}
	return err
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	limitBody(w, r)
	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(dst); err != nil {
		if err = bodyErr(err); errors.Is(err, errBodyTooLarge) {
			return err
		}
		return errors.Wrapf(models.ErrValidation, "invalid JSON in request body: %v", err)
	}
	return nil
}
