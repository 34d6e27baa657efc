// Package auth registers farmers and issues bearer tokens.
package auth

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/jane4246/coffee-advisory/db"
	"github.com/jane4246/coffee-advisory/globals"
	"github.com/jane4246/coffee-advisory/models"
	"github.com/jane4246/coffee-advisory/utils"
	"github.com/julienschmidt/httprouter"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

func readCredentials(w http.ResponseWriter, r *http.Request) (models.Credentials, bool) {
	var creds models.Credentials
	if err := utils.DecodeJSON(r, &creds); err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "Invalid credentials")
		return creds, false
	}
	creds.Username = strings.TrimSpace(creds.Username)
	if err := utils.Validate(creds); err != nil {
		utils.RespondWithValidationError(w, "Invalid credentials", err)
		return creds, false
	}
	return creds, true
}

func Register(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	creds, ok := readCredentials(w, r)
	if !ok {
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(creds.Password), bcrypt.DefaultCost)
	if err != nil {
		globals.Logger.Error("hash password", zap.Error(err))
		utils.RespondWithError(w, http.StatusInternalServerError, "Failed to register user")
		return
	}

	user, err := db.Store.CreateUser(r.Context(), models.User{Username: creds.Username, Password: string(hash)})
	if errors.Is(err, db.ErrDuplicate) {
		utils.RespondWithError(w, http.StatusConflict, "Username already taken")
		return
	}
	if err != nil {
		globals.Logger.Error("create user", zap.Error(err))
		utils.RespondWithError(w, http.StatusInternalServerError, "Failed to register user")
		return
	}

	utils.RespondWithJSON(w, http.StatusCreated, user)
}

func Login(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	creds, ok := readCredentials(w, r)
	if !ok {
		return
	}

	user, err := db.Store.GetUserByUsername(r.Context(), creds.Username)
	if err != nil && !errors.Is(err, db.ErrNotFound) {
		globals.Logger.Error("lookup user", zap.Error(err))
		utils.RespondWithError(w, http.StatusInternalServerError, "Failed to log in")
		return
	}
	if err != nil || bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(creds.Password)) != nil {
		utils.RespondWithError(w, http.StatusUnauthorized, "Invalid username or password")
		return
	}

	token, err := IssueToken(user.ID, user.Username, time.Now())
	if err != nil {
		globals.Logger.Error("issue token", zap.Error(err))
		utils.RespondWithError(w, http.StatusInternalServerError, "Failed to log in")
		return
	}

	utils.RespondWithJSON(w, http.StatusOK, utils.M{"token": token, "user": user})
}
