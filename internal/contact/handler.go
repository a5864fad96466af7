// internal/contact/handler.go
package contact

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/dalemusser/cyborg/httputil"
	"github.com/dalemusser/cyborg/internal/mailer"
	"github.com/dalemusser/cyborg/logging"
	"github.com/dalemusser/cyborg/metrics"
	"github.com/dalemusser/cyborg/middleware"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// Client-facing messages.
const (
	MsgInvalidRequest = "Invalid request data"
	MsgSent           = "Email sent successfully"
	MsgSendFailed     = "Failed to send email"
)

// Handler serves POST /contact.
type Handler struct {
	svc    *Service
	logger *zap.Logger
}

// NewHandler wraps svc for HTTP.
func NewHandler(svc *Service, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{svc: svc, logger: logger}
}

// Mount registers POST path on r. Non-JSON bodies are rejected before the
// handler runs.
func (h *Handler) Mount(r chi.Router, path string) {
	r.With(middleware.RequireJSON(MsgInvalidRequest)).Post(path, h.ServeHTTP)
}

// ServeHTTP decodes the submission, runs it through the Service and
// answers with a {success, message} envelope.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	log := logging.ForRequest(h.logger, r)

	defer func() {
		if rec := recover(); rec != nil {
			log.Error("contact handler panic", zap.Any("panic_value", rec))
			metrics.ObserveContact(metrics.OutcomeDispatchFailed)
			httputil.Fail(w, http.StatusInternalServerError, MsgSendFailed)
		}
	}()

	var fields Fields
	if err := httputil.BindJSON(r, &fields); err != nil {
		log.Info("contact request rejected", zap.Error(err))
		metrics.ObserveContact(metrics.OutcomeMalformed)
		httputil.Fail(w, http.StatusBadRequest, MsgInvalidRequest)
		return
	}

	sub, err := FromFields(fields)
	if err != nil {
		log.Info("contact request rejected", zap.Error(err))
		metrics.ObserveContact(metrics.OutcomeMalformed)
		httputil.Fail(w, http.StatusBadRequest, MsgInvalidRequest)
		return
	}

	id, err := h.svc.Submit(r.Context(), sub)
	if err != nil {
		h.writeError(w, log.With(zap.String("submission_id", id)), err)
		return
	}

	metrics.ObserveContact(metrics.OutcomeSent)
	httputil.WriteResult(w, http.StatusOK, true, MsgSent)
}

func (h *Handler) writeError(w http.ResponseWriter, log *zap.Logger, err error) {
	var verr *ValidationError
	if errors.As(err, &verr) {
		log.Info("contact submission invalid", zap.String("code", verr.Code))
		metrics.ObserveContact(metrics.OutcomeInvalid)
		httputil.Fail(w, http.StatusBadRequest, verr.Message)
		return
	}

	var derr *mailer.DispatchError
	if errors.As(err, &derr) {
		log.Error("contact dispatch failed", zap.String("stage", string(derr.Stage)), zap.Error(derr.Err))
	} else {
		log.Error("contact submission failed", zap.Error(fmt.Errorf("unexpected: %w", err)))
	}
	metrics.ObserveContact(metrics.OutcomeDispatchFailed)
	httputil.Fail(w, http.StatusInternalServerError, MsgSendFailed)
}
