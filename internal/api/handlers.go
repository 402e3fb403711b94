package api

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-chi/render"
	"go.uber.org/zap"

	"github.com/JakeFAU/questify/internal/mail"
	"github.com/JakeFAU/questify/internal/metrics"
	"github.com/JakeFAU/questify/internal/question"
)

// Response bodies of POST /store-email.
const (
	msgRequired    = "Email and platform are required"
	msgSaveFailed  = "An error occurred while saving the email."
	msgBadPlatform = "Invalid platform selected."
	msgFetchFailed = "Failed to fetch a problem."
	msgSendFailed  = "Failed to send email."
)

type storeEmailRequest struct {
	Email    string `json:"email"`
	Platform string `json:"platform"`
}

// statusResponse is the JSON envelope of the subscription endpoint.
type statusResponse struct {
	Status  string             `json:"status"`
	Message string             `json:"message"`
	Data    *question.Question `json:"data,omitempty"`
}

func (s *Server) storeEmail(w http.ResponseWriter, r *http.Request) {
	var req storeEmailRequest
	if err := render.DecodeJSON(r.Body, &req); err != nil {
		writeText(w, r, http.StatusBadRequest, msgRequired)
		return
	}
	if strings.TrimSpace(req.Email) == "" || req.Platform == "" {
		writeText(w, r, http.StatusBadRequest, msgRequired)
		return
	}

	platform, ok := question.ParsePlatform(req.Platform)
	if !ok {
		metrics.ObserveSubscription("invalid", "invalid_platform")
		writeFailure(w, r, http.StatusBadRequest, msgBadPlatform)
		return
	}
	email := strings.TrimSpace(req.Email)

	log := s.logger.With(
		zap.String("request_id", RequestID(r.Context())),
		zap.String("email", email),
		zap.String("platform", platform.String()),
	)

	if err := s.store.Upsert(r.Context(), email); err != nil {
		log.Error("Error saving email", zap.Error(err))
		metrics.ObserveSubscription(platform.String(), "store_error")
		writeText(w, r, http.StatusInternalServerError, msgSaveFailed)
		return
	}

	q, ok := s.fetcher.Fetch(r.Context(), platform)
	if !ok {
		log.Warn("no question fetched for welcome email")
		metrics.ObserveSubscription(platform.String(), "no_question")
		writeFailure(w, r, http.StatusInternalServerError, msgFetchFailed)
		return
	}

	if err := s.mailer.Send(r.Context(), mail.PathWelcome, email, q, mail.WelcomeSubject(platform)); err != nil {
		var me *mail.MailError
		if errors.As(err, &me) {
			log.Error("Error sending email", zap.String("to", me.Recipient), zap.Error(me.Err))
		} else {
			log.Error("Error sending email", zap.Error(err))
		}
		metrics.ObserveSubscription(platform.String(), "mail_error")
		writeFailure(w, r, http.StatusInternalServerError, msgSendFailed)
		return
	}

	metrics.ObserveSubscription(platform.String(), "success")
	render.Status(r, http.StatusOK)
	render.JSON(w, r, statusResponse{
		Status:  "success",
		Message: fmt.Sprintf("Welcome email sent to %s with a %s coding problem.", email, platform),
		Data:    &q,
	})
}

func writeText(w http.ResponseWriter, r *http.Request, status int, msg string) {
	render.Status(r, status)
	render.PlainText(w, r, msg)
}

func writeFailure(w http.ResponseWriter, r *http.Request, status int, msg string) {
	render.Status(r, status)
	render.JSON(w, r, statusResponse{Status: "failure", Message: msg})
}
