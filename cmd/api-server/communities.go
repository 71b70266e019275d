package main

import (
	"net/http"

	"github.com/scrimspace/scrim-server/internals/communities"
)

func (app *App) CreateCommunity(w http.ResponseWriter, r *http.Request) {
	var body communities.CreateCommunityRequestBody
	if err := getBody(r, &body); err != nil {
		sendResponse(w, httpResp{Status: http.StatusBadRequest, IsError: true, Error: "Invalid request body"})
		return
	}

	community, err := communities.New(app.DB).CreateCommunity(body)
	if err != nil {
		sendError(w, err)
		return
	}

	// Every community gets its daily cleanup job from day one.
	if err := app.Scheduler.ScheduleAutoCleanup(community); err != nil {
		sendError(w, err)
		return
	}

	sendResponse(w, httpResp{Status: http.StatusCreated, Data: community})
}

func (app *App) UpdateCommunity(w http.ResponseWriter, r *http.Request) {
	var body communities.UpdateCommunityRequestBody
	if err := getBody(r, &body); err != nil {
		sendResponse(w, httpResp{Status: http.StatusBadRequest, IsError: true, Error: "Invalid request body"})
		return
	}

	community, err := communities.New(app.DB).UpdateCommunity(body)
	if err != nil {
		sendError(w, err)
		return
	}

	// Timing may have changed; replace the pending cleanup job.
	if err := app.Scheduler.ScheduleAutoCleanup(community); err != nil {
		sendError(w, err)
		return
	}

	sendResponse(w, httpResp{Status: http.StatusOK, Data: community})
}

type banRequestBody struct {
	CommunityID string `json:"community_id"`
	UserID      int    `json:"user_id"`
}

func (app *App) BanUser(w http.ResponseWriter, r *http.Request) {
	var body banRequestBody
	if err := getBody(r, &body); err != nil {
		sendResponse(w, httpResp{Status: http.StatusBadRequest, IsError: true, Error: "Invalid request body"})
		return
	}

	if err := communities.New(app.DB).BanUser(body.CommunityID, body.UserID); err != nil {
		sendError(w, err)
		return
	}

	sendResponse(w, httpResp{Status: http.StatusOK, Data: map[string]interface{}{"message": "User banned"}})
}

func (app *App) UnbanUser(w http.ResponseWriter, r *http.Request) {
	var body banRequestBody
	if err := getBody(r, &body); err != nil {
		sendResponse(w, httpResp{Status: http.StatusBadRequest, IsError: true, Error: "Invalid request body"})
		return
	}

	if err := communities.New(app.DB).UnbanUser(body.CommunityID, body.UserID); err != nil {
		sendError(w, err)
		return
	}

	sendResponse(w, httpResp{Status: http.StatusOK, Data: map[string]interface{}{"message": "User unbanned"}})
}
