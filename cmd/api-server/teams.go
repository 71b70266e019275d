package main

import (
	"net/http"

	"github.com/scrimspace/scrim-server/internals/notification"
	"github.com/scrimspace/scrim-server/internals/teams"
)

func (app *App) CreateTeam(w http.ResponseWriter, r *http.Request) {
	userID := r.Context().Value("user_id").(int)

	var body teams.CreateTeamRequestBody
	if err := getBody(r, &body); err != nil {
		sendResponse(w, httpResp{Status: http.StatusBadRequest, IsError: true, Error: "Invalid request body"})
		return
	}

	team, err := teams.New(app.DB).CreateTeam(userID, body)
	if err != nil {
		sendError(w, err)
		return
	}

	sendResponse(w, httpResp{Status: http.StatusCreated, Data: team})
}

func (app *App) JoinTeam(w http.ResponseWriter, r *http.Request) {
	userID := r.Context().Value("user_id").(int)

	var body teams.JoinTeamRequestBody
	if err := getBody(r, &body); err != nil {
		sendResponse(w, httpResp{Status: http.StatusBadRequest, IsError: true, Error: "Invalid request body"})
		return
	}

	team, err := teams.New(app.DB).JoinTeam(userID, body)
	if err != nil {
		sendError(w, err)
		return
	}

	sendResponse(w, httpResp{Status: http.StatusOK, Data: team})
}

func (app *App) LeaveTeam(w http.ResponseWriter, r *http.Request) {
	userID := r.Context().Value("user_id").(int)

	teamID := r.URL.Query().Get("team_id")
	if teamID == "" {
		sendResponse(w, httpResp{Status: http.StatusBadRequest, IsError: true, Error: "team_id is required"})
		return
	}

	if err := teams.New(app.DB).LeaveTeam(teamID, userID); err != nil {
		sendError(w, err)
		return
	}

	sendResponse(w, httpResp{Status: http.StatusOK, Data: map[string]interface{}{"message": "Left the team"}})
}

type kickRequestBody struct {
	TeamID string `json:"team_id"`
	UserID int    `json:"user_id"`
}

func (app *App) KickMember(w http.ResponseWriter, r *http.Request) {
	var body kickRequestBody
	if err := getBody(r, &body); err != nil {
		sendResponse(w, httpResp{Status: http.StatusBadRequest, IsError: true, Error: "Invalid request body"})
		return
	}

	svc := teams.New(app.DB)
	team, err := svc.GetTeam(body.TeamID)
	if err != nil {
		sendError(w, err)
		return
	}

	if err := svc.KickMember(body.TeamID, body.UserID); err != nil {
		sendError(w, err)
		return
	}

	notification.New(app.DB).Notify(body.UserID, notification.KindKicked,
		"You were removed from %s", team.Name)

	sendResponse(w, httpResp{Status: http.StatusOK, Data: map[string]interface{}{"message": "Member kicked"}})
}

func (app *App) DisbandTeam(w http.ResponseWriter, r *http.Request) {
	userID := r.Context().Value("user_id").(int)

	teamID := r.URL.Query().Get("team_id")
	if teamID == "" {
		sendResponse(w, httpResp{Status: http.StatusBadRequest, IsError: true, Error: "team_id is required"})
		return
	}

	if err := teams.New(app.DB).DisbandTeam(teamID, userID); err != nil {
		sendError(w, err)
		return
	}

	sendResponse(w, httpResp{Status: http.StatusOK, Data: map[string]interface{}{"message": "Team disbanded"}})
}

func (app *App) GetTeam(w http.ResponseWriter, r *http.Request) {
	teamID := r.URL.Query().Get("team_id")
	if teamID == "" {
		sendResponse(w, httpResp{Status: http.StatusBadRequest, IsError: true, Error: "team_id is required"})
		return
	}

	details, err := teams.New(app.DB).GetTeamDetails(teamID)
	if err != nil {
		sendError(w, err)
		return
	}

	sendResponse(w, httpResp{Status: http.StatusOK, Data: details})
}
