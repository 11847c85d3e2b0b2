/*
Package handler provides the HTTP handlers and routing setup for the hub.

This file contains the broadcast endpoint: a secret-protected publication of
a broadcast envelope onto the bus, targeting a set of identities or every
connection when the set is empty.
*/
package handler

import (
	"net/http"

	"github.com/google/uuid"

	"prismhub/internal/app/hub"
	"prismhub/internal/pkg/req"
	"prismhub/internal/pkg/resp"
)

// BroadcastRequest is the body accepted by POST /broadcast.
type BroadcastRequest struct {
	Message string      `json:"message"`
	To      []uuid.UUID `json:"to"`
}

// HandleBroadcast publishes the request as a Broadcast envelope.
func HandleBroadcast(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body BroadcastRequest
		if customErr := req.BindJSON(w, r, &body); customErr != nil {
			resp.RespondError(w, r, customErr)
			return
		}

		deps.Hub.Bus().Publish(hub.Broadcast{Message: body.Message, To: body.To})

		resp.RespondSuccess(w, r, nil)
	}
}
