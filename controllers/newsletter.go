package controllers

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"go-storefront/repository"
	"go-storefront/utils"
)

// NewsletterController handles the newsletter double opt-in
type NewsletterController struct {
	subscribers SubscriberStore
	notifier    Notifier
	logger      *zap.Logger
}

// NewNewsletterController creates a new NewsletterController
func NewNewsletterController(subscribers SubscriberStore, notifier Notifier, logger *zap.Logger) *NewsletterController {
	return &NewsletterController{
		subscribers: subscribers,
		notifier:    notifier,
		logger:      logger,
	}
}

type subscribeRequest struct {
	Email string `validate:"required,email"`
}

// Subscribe registers an address and sends it a confirmation link.
// Subscribing again resets the subscription to unconfirmed and resends the link.
func (nc *NewsletterController) Subscribe(w http.ResponseWriter, r *http.Request) {
	req := subscribeRequest{Email: strings.ToLower(strings.TrimSpace(r.FormValue("email")))}
	if err := validate.Struct(req); err != nil {
		flash(w, http.StatusBadRequest, levelError, "Invalid email", "/")
		return
	}

	token, err := utils.NewURLToken(tokenBytes)
	if err != nil {
		flash(w, http.StatusInternalServerError, levelError, "Could not process your subscription", "/")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	sub, err := nc.subscribers.Subscribe(ctx, req.Email, token)
	if err != nil {
		nc.logger.Error("failed to subscribe", zap.Error(err))
		flash(w, http.StatusInternalServerError, levelError, "Could not process your subscription", "/")
		return
	}

	go nc.sendConfirmation(sub.Email, sub.Token)

	flash(w, http.StatusOK, levelInfo, "Check your inbox to confirm your subscription", "/")
}

func (nc *NewsletterController) sendConfirmation(email, token string) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := nc.notifier.SendNewsletterConfirmation(ctx, email, token); err != nil {
		nc.logger.Warn("failed to send newsletter confirmation", zap.Error(err))
	}
}

// Confirm confirms the subscription holding the link token
func (nc *NewsletterController) Confirm(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	_, err := nc.subscribers.Confirm(ctx, mux.Vars(r)["token"])
	if errors.Is(err, repository.ErrNotFound) {
		flash(w, http.StatusNotFound, levelError, "Invalid or expired link", "/")
		return
	}
	if err != nil {
		nc.logger.Error("failed to confirm subscription", zap.Error(err))
		flash(w, http.StatusInternalServerError, levelError, "Could not confirm your subscription", "/")
		return
	}
	flash(w, http.StatusOK, levelSuccess, "Your subscription is confirmed. Thank you!", "/")
}
