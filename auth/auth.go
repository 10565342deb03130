// Package auth serves the admin login, logout and credential change
// endpoints.
package auth

import (
	"net/http"
	"strings"

	"leviro/forms"
	"leviro/middleware"
	"leviro/models"
	"leviro/store"
	"leviro/utils"

	"github.com/julienschmidt/httprouter"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

var log = logrus.WithField("component", "auth")

type Handler struct {
	Store *store.Store
	Auth  *middleware.Auth
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// Login handles POST /api/admin/login
func (h *Handler) Login(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var req loginRequest
	if err := utils.DecodeJSON(w, r, &req); err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if !h.Store.Authenticate(req.Username, req.Password) {
		log.WithField("remote", r.RemoteAddr).Warn("failed admin login")
		utils.RespondWithError(w, http.StatusUnauthorized, "Invalid username or password")
		return
	}
	h.startSession(w, req.Username)
}

func (h *Handler) startSession(w http.ResponseWriter, username string) {
	token, err := h.Auth.Issue(username)
	if err != nil {
		log.WithError(err).Error("token signing failed")
		utils.RespondWithError(w, http.StatusInternalServerError, "Could not start session")
		return
	}
	h.Auth.SetCookie(w, token)
	utils.RespondWithJSON(w, http.StatusOK, utils.M{"username": username, "token": token})
}

// Logout handles POST /api/admin/logout
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	h.Auth.ClearCookie(w)
	w.WriteHeader(http.StatusNoContent)
}

// Session handles GET /api/admin/session and reports who is logged in.
func (h *Handler) Session(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	utils.RespondWithJSON(w, http.StatusOK, utils.M{"username": middleware.Admin(r.Context())})
}

// ChangeCredentials handles PUT /api/admin/credentials. The session is
// reissued for the new username.
func (h *Handler) ChangeCredentials(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var change models.CredentialsChange
	if err := utils.DecodeJSON(w, r, &change); err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	err := h.Store.ChangeCredentials(r.Context(), change)
	var invalid forms.Errors
	switch {
	case err == nil:
		h.startSession(w, strings.TrimSpace(change.NewUsername))
	case err == store.ErrInvalidCredentials:
		utils.RespondWithError(w, http.StatusForbidden, "Current username or password is incorrect")
	case errors.As(err, &invalid):
		utils.RespondWithJSON(w, http.StatusUnprocessableEntity, utils.M{"errors": invalid})
	default:
		utils.RespondWithError(w, http.StatusBadGateway, errors.Cause(err).Error())
	}
}
