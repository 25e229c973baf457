package httpapi

import (
	"net/http"
	"strings"

	"github.com/BearBump/GLExpress/internal/services/packages"
	"github.com/go-chi/chi/v5"
)

func (s *Server) listPackages(w http.ResponseWriter, r *http.Request) {
	ps, err := s.opts.Packages.ListPackages(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"packages": ps})
}

func (s *Server) createPackage(w http.ResponseWriter, r *http.Request) {
	var req packages.CreatePackageRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	p, err := s.opts.Packages.CreatePackage(r.Context(), req)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, p)
}

func (s *Server) getPackage(w http.ResponseWriter, r *http.Request) {
	p, err := s.opts.Packages.GetPackage(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

type deletePackagesRequest struct {
	IDs []string `json:"ids"`
}

func (s *Server) deletePackages(w http.ResponseWriter, r *http.Request) {
	var req deletePackagesRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	n, err := s.opts.Packages.DeletePackages(r.Context(), req.IDs)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"deleted": n})
}

func (s *Server) updateStatus(w http.ResponseWriter, r *http.Request) {
	var req packages.UpdateStatusRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	p, err := s.opts.Packages.UpdateStatus(r.Context(), chi.URLParam(r, "id"), req)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

type recipientEmailRequest struct {
	RecipientEmail string `json:"recipient_email"`
}

func (s *Server) updateRecipientEmail(w http.ResponseWriter, r *http.Request) {
	var req recipientEmailRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	p, err := s.opts.Packages.UpdateRecipientEmail(r.Context(), chi.URLParam(r, "id"), req.RecipientEmail)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (s *Server) listStatusConfigs(w http.ResponseWriter, r *http.Request) {
	cfgs, err := s.opts.Packages.ListStatusConfigs(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"status_configs": cfgs})
}

func (s *Server) updateStatusConfig(w http.ResponseWriter, r *http.Request) {
	var req packages.UpdateStatusConfigRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	c, err := s.opts.Packages.UpdateStatusConfig(r.Context(), chi.URLParam(r, "status"), req)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, c)
}

func (s *Server) triggerProgression(w http.ResponseWriter, r *http.Request) {
	res, err := s.opts.Packages.TriggerProgression(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"triggered": true, "result": res})
}

// AdminUserHeader выставляет прокси провайдера идентификации после логина.
const AdminUserHeader = "X-Admin-User-ID"

func (s *Server) adminProfileID(r *http.Request) string {
	if id := strings.TrimSpace(r.Header.Get(AdminUserHeader)); id != "" {
		return id
	}
	return s.opts.AdminProfileID
}

func (s *Server) getProfile(w http.ResponseWriter, r *http.Request) {
	p, err := s.opts.Packages.GetProfile(r.Context(), s.adminProfileID(r))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (s *Server) updateProfile(w http.ResponseWriter, r *http.Request) {
	var req packages.UpdateProfileRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	p, err := s.opts.Packages.UpdateProfile(r.Context(), s.adminProfileID(r), req)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}
