/*
Package handler provides the HTTP handlers and routing setup for the hub.

This file contains the secret-protected admin operations that the bot
front end and dashboard drive: permission flag changes, the IRC blacklist,
external account links, and catalog maintenance.
*/
package handler

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"prismhub/internal/app/store"
	"prismhub/internal/pkg/errs"
	"prismhub/internal/pkg/req"
	"prismhub/internal/pkg/resp"
)

// pathUUID parses the {uuid} route parameter.
func pathUUID(r *http.Request) (uuid.UUID, *errs.CustomError) {
	id, err := uuid.Parse(chi.URLParam(r, "uuid"))
	if err != nil {
		return uuid.Nil, errs.NewError(errs.ErrInvalidParams)
	}
	return id, nil
}

// HandleUserStats reports user table counts.
func HandleUserStats(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		resp.RespondSuccess(w, r, map[string]int{
			"known":     deps.Store.UserCount(),
			"connected": deps.Store.ConnectedCount(),
		})
	}
}

// HandleSetFlags replaces a user's permission bits, creating the record on
// first reference.
func HandleSetFlags(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, customErr := pathUUID(r)
		if customErr != nil {
			resp.RespondError(w, r, customErr)
			return
		}

		var body struct {
			Flags store.Flags `json:"flags"`
		}
		if customErr := req.BindJSON(w, r, &body); customErr != nil {
			resp.RespondError(w, r, customErr)
			return
		}

		deps.Store.MutateUser(id, func(u *store.UserRecord) {
			u.Flags = body.Flags
		})

		resp.RespondSuccess(w, r, nil)
	}
}

// HandleLinkDiscord records the external chat account linked to an identity.
func HandleLinkDiscord(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, customErr := pathUUID(r)
		if customErr != nil {
			resp.RespondError(w, r, customErr)
			return
		}

		var body struct {
			Discord string `json:"discord"`
		}
		if customErr := req.BindJSON(w, r, &body); customErr != nil {
			resp.RespondError(w, r, customErr)
			return
		}
		if body.Discord == "" {
			resp.RespondError(w, r, errs.NewError(errs.ErrInvalidParams))
			return
		}

		deps.Store.MutateUser(id, func(u *store.UserRecord) {
			discord := body.Discord
			u.LinkedDiscord = &discord
		})

		resp.RespondSuccess(w, r, nil)
	}
}

// HandleListBlacklist lists the identities barred from the chat relay.
func HandleListBlacklist(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		blacklist := deps.Store.Blacklist()
		if blacklist == nil {
			blacklist = []uuid.UUID{}
		}
		resp.RespondSuccess(w, r, blacklist)
	}
}

// HandleBlacklist adds or removes one identity on the relay blacklist.
func HandleBlacklist(deps *AppDeps, blacklisted bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, customErr := pathUUID(r)
		if customErr != nil {
			resp.RespondError(w, r, customErr)
			return
		}

		deps.Store.MutateUser(id, func(u *store.UserRecord) {
			u.IrcBlacklisted = blacklisted
		})

		resp.RespondSuccess(w, r, nil)
	}
}

// HandlePutCosmetic creates or replaces one catalog entry.
func HandlePutCosmetic(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body store.Cosmetic
		if customErr := req.BindJSON(w, r, &body); customErr != nil {
			resp.RespondError(w, r, customErr)
			return
		}

		deps.Store.PutCosmetic(body)

		resp.RespondSuccess(w, r, nil)
	}
}

// HandleDeleteCosmetic removes the catalog entry with the given id.
func HandleDeleteCosmetic(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := strconv.ParseUint(chi.URLParam(r, "id"), 10, 8)
		if err != nil {
			resp.RespondError(w, r, errs.NewError(errs.ErrInvalidParams))
			return
		}

		if !deps.Store.RemoveCosmetic(uint8(id)) {
			resp.RespondError(w, r, errs.NewError(errs.ErrCosmeticNotFound, id))
			return
		}

		resp.RespondSuccess(w, r, nil)
	}
}
