package httpapi

import (
	"net/http"

	"github.com/BearBump/GLExpress/internal/models"
	"github.com/go-chi/chi/v5"
	"github.com/pkg/errors"
)

type historyItem struct {
	*models.StatusHistoryEntry
	Label string `json:"label"`
}

type trackResponse struct {
	Found   bool            `json:"found"`
	Package *models.Package `json:"package,omitempty"`
	Label   string          `json:"status_label,omitempty"`
	History []historyItem   `json:"history,omitempty"`
}

// track: "не найдено": обычный ответ 404 {found:false}, а не ошибка сервера.
func (s *Server) track(w http.ResponseWriter, r *http.Request) {
	v, err := s.opts.Packages.Lookup(r.Context(), chi.URLParam(r, "trackingNumber"))
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			writeJSON(w, http.StatusNotFound, trackResponse{Found: false})
			return
		}
		s.writeError(w, r, err)
		return
	}

	hist := make([]historyItem, 0, len(v.History))
	for _, h := range v.History {
		hist = append(hist, historyItem{StatusHistoryEntry: h, Label: h.Status.Label()})
	}
	writeJSON(w, http.StatusOK, trackResponse{
		Found:   true,
		Package: v.Package,
		Label:   v.Package.CurrentStatus.Label(),
		History: hist,
	})
}
