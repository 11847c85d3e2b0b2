/*
Package handler provides the HTTP handlers and routing setup for the hub.

This file contains the public cosmetics endpoint: the catalog plus the map
of users with an active prefix, consumed by game clients at startup.
*/
package handler

import (
	"net/http"

	"github.com/google/uuid"

	"prismhub/internal/pkg/resp"
)

// HandleCosmetics serves the catalog and every user's enabled prefix.
func HandleCosmetics(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		users := make(map[uuid.UUID]uint8)
		for id, u := range deps.Store.Users() {
			if u.EnabledPrefix != nil {
				users[id] = *u.EnabledPrefix
			}
		}

		resp.RespondSuccess(w, r, map[string]any{
			"cosmetics": deps.Store.Cosmetics(),
			"users":     users,
		})
	}
}
