package httpapi

import (
	"io"
	"net/http"

	"github.com/BearBump/GLExpress/internal/models"
	"github.com/BearBump/GLExpress/internal/services/notify"
	"github.com/pkg/errors"
)

type webhookResponse struct {
	Success        bool   `json:"success"`
	TrackingNumber string `json:"tracking_number,omitempty"`
	PackageID      string `json:"package_id,omitempty"`
	Message        string `json:"message,omitempty"`
	Error          string `json:"error,omitempty"`
}

func (s *Server) woocommerceWebhook(w http.ResponseWriter, r *http.Request) {
	limitBody(w, r)
	body, err := io.ReadAll(r.Body)
	if err != nil {
		if errors.Is(bodyErr(err), errBodyTooLarge) {
			writeJSON(w, http.StatusRequestEntityTooLarge, webhookResponse{Error: "payload too large"})
			return
		}
		writeJSON(w, http.StatusBadRequest, webhookResponse{Error: "failed to read request body"})
		return
	}

	res, err := s.opts.Ingester.Ingest(r.Context(), body, r.Header)
	if err != nil {
		code := statusCode(err)
		if code == http.StatusInternalServerError {
			s.log.Error("woocommerce webhook failed", "error", err.Error())
		}
		writeJSON(w, code, webhookResponse{Error: err.Error()})
		return
	}

	switch {
	case res.Ignored:
		writeJSON(w, http.StatusOK, webhookResponse{Success: true, Message: "Webhook received, no order to process"})
	case res.Deduped:
		writeJSON(w, http.StatusOK, webhookResponse{
			Success:        true,
			TrackingNumber: res.TrackingNumber,
			PackageID:      res.PackageID,
			Message:        "Package already registered for this order",
		})
	default:
		writeJSON(w, http.StatusOK, webhookResponse{
			Success:        true,
			TrackingNumber: res.TrackingNumber,
			PackageID:      res.PackageID,
			Message:        "Package tracking created successfully",
		})
	}
}

type sendEmailResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	EmailID string `json:"emailId"`
}

func (s *Server) sendTrackingEmail(w http.ResponseWriter, r *http.Request) {
	if s.opts.Notifier == nil {
		s.writeError(w, r, errors.New("email notifier is not configured"))
		return
	}
	var req notify.SendTrackingEmailRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	res, err := s.opts.Notifier.SendTrackingEmail(r.Context(), req)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "Package not found"})
			return
		}
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, sendEmailResponse{
		Success: true,
		Message: "Tracking email sent successfully",
		EmailID: res.EmailID,
	})
}
