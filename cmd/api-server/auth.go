package main

import (
	"net/http"

	"github.com/scrimspace/scrim-server/internals/auth"
)

func (app *App) authService() *auth.AuthService {
	return auth.New(app.KVStore, app.DB, app.Cfg.GetString("auth.jwt_secret"))
}

func (app *App) SignUp(w http.ResponseWriter, r *http.Request) {
	var body auth.SignUpRequestBody
	if err := getBody(r, &body); err != nil {
		sendResponse(w, httpResp{Status: http.StatusBadRequest, IsError: true, Error: "Invalid request body"})
		return
	}

	if err := app.authService().SignUp(body); err != nil {
		sendError(w, err)
		return
	}

	sendResponse(w, httpResp{Status: http.StatusCreated, Data: map[string]interface{}{"message": "Signed up successfully"}})
}

func (app *App) Login(w http.ResponseWriter, r *http.Request) {
	var body auth.LoginRequestBody
	if err := getBody(r, &body); err != nil {
		sendResponse(w, httpResp{Status: http.StatusBadRequest, IsError: true, Error: "Invalid request body"})
		return
	}

	token, err := app.authService().Login(body)
	if err != nil {
		sendError(w, err)
		return
	}

	sendResponse(w, httpResp{Status: http.StatusOK, Data: map[string]interface{}{"token": token}})
}

func (app *App) Logout(w http.ResponseWriter, r *http.Request) {
	userID := r.Context().Value("user_id").(int)
	token := r.Context().Value("token").(string)

	if err := app.authService().Logout(userID, token); err != nil {
		sendError(w, err)
		return
	}

	sendResponse(w, httpResp{Status: http.StatusOK, Data: map[string]interface{}{"message": "Logged out successfully"}})
}
