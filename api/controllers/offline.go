package controllers

import (
	"io"
	"net/http"
	"strings"

	"github.com/angelmondragon/storefront-backend/api/responses"
	"github.com/angelmondragon/storefront-backend/api/validators"
	"github.com/angelmondragon/storefront-backend/internal/offline"
	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
	"github.com/angelmondragon/storefront-backend/pkg/logger"
)

const maxPushPayloadBytes = 4 << 10

// OfflineController exposes the active worker generation.
type OfflineController interface {
	Controller() *offline.Worker
}

type notificationClickRequest struct {
	Action string `json:"action" validate:"max=64"`
}

// OfflineMessage forwards a client message such as CLEAR_CACHE to the active worker.
func OfflineMessage(host OfflineController, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		worker, ok := activeWorker(w, r, host, logg)
		if !ok {
			return
		}

		var msg offline.Message
		if err := validators.DecodeJSONBody(r, &msg); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := worker.OnMessage(r.Context(), msg); err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "handle message"))
			return
		}
		responses.WriteSuccess(w, map[string]string{"type": msg.Type, "status": "handled"})
	}
}

// OfflinePush turns a raw push payload into the notification to display.
func OfflinePush(host OfflineController, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		worker, ok := activeWorker(w, r, host, logg)
		if !ok {
			return
		}

		payload, err := io.ReadAll(io.LimitReader(r.Body, maxPushPayloadBytes))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "read push payload"))
			return
		}
		responses.WriteSuccess(w, worker.OnPush(payload))
	}
}

// OfflineNotificationClick resolves the URL a clicked notification action opens.
func OfflineNotificationClick(host OfflineController, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		worker, ok := activeWorker(w, r, host, logg)
		if !ok {
			return
		}

		var body notificationClickRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		url, open := worker.OnNotificationClick(strings.TrimSpace(body.Action))
		responses.WriteSuccess(w, map[string]any{"open": open, "url": url})
	}
}

func activeWorker(w http.ResponseWriter, r *http.Request, host OfflineController, logg *logger.Logger) (*offline.Worker, bool) {
	if host == nil {
		responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "offline host unavailable"))
		return nil, false
	}
	worker := host.Controller()
	if worker == nil {
		responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeStateConflict, "no active worker"))
		return nil, false
	}
	return worker, true
}
