package main

import (
	"net/http"

	"github.com/scrimspace/scrim-server/internals/notification"
	"github.com/scrimspace/scrim-server/internals/registration"
	"github.com/scrimspace/scrim-server/internals/scrims"
)

func (app *App) scrimService() *scrims.ScrimService {
	return scrims.New(app.DB, app.Pub)
}

func (app *App) CreateScrim(w http.ResponseWriter, r *http.Request) {
	var body scrims.CreateScrimRequestBody
	if err := getBody(r, &body); err != nil {
		sendResponse(w, httpResp{Status: http.StatusBadRequest, IsError: true, Error: "Invalid request body"})
		return
	}

	scrim, err := app.scrimService().CreateScrim(body)
	if err != nil {
		sendError(w, err)
		return
	}

	// The open job fires at the configured registration start time.
	if err := app.Scheduler.ScheduleRegistrationStart(scrim); err != nil {
		sendError(w, err)
		return
	}

	sendResponse(w, httpResp{Status: http.StatusCreated, Data: scrim})
}

func (app *App) GetScrims(w http.ResponseWriter, r *http.Request) {
	communityID := r.URL.Query().Get("community_id")

	list, err := app.scrimService().GetScrims(communityID)
	if err != nil {
		sendError(w, err)
		return
	}

	sendResponse(w, httpResp{Status: http.StatusOK, Data: list})
}

func (app *App) UpdateScrim(w http.ResponseWriter, r *http.Request) {
	var body scrims.UpdateScrimRequestBody
	if err := getBody(r, &body); err != nil {
		sendResponse(w, httpResp{Status: http.StatusBadRequest, IsError: true, Error: "Invalid request body"})
		return
	}

	scrim, err := app.scrimService().UpdateScrim(body)
	if err != nil {
		sendError(w, err)
		return
	}

	// Timing may have changed; replace the pending open job.
	if err := app.Scheduler.ScheduleRegistrationStart(scrim); err != nil {
		sendError(w, err)
		return
	}

	sendResponse(w, httpResp{Status: http.StatusOK, Data: scrim})
}

func (app *App) DeleteScrim(w http.ResponseWriter, r *http.Request) {
	scrimID := r.URL.Query().Get("scrim_id")
	if scrimID == "" {
		sendResponse(w, httpResp{Status: http.StatusBadRequest, IsError: true, Error: "scrim_id is required"})
		return
	}

	if err := app.scrimService().DeleteScrim(scrimID); err != nil {
		sendError(w, err)
		return
	}

	if err := app.Scheduler.CancelRegistrationStart(scrimID); err != nil {
		sendError(w, err)
		return
	}

	sendResponse(w, httpResp{Status: http.StatusOK, Data: map[string]interface{}{"message": "Scrim deleted successfully"}})
}

func (app *App) OpenRegistration(w http.ResponseWriter, r *http.Request) {
	scrimID := r.URL.Query().Get("scrim_id")
	if scrimID == "" {
		sendResponse(w, httpResp{Status: http.StatusBadRequest, IsError: true, Error: "scrim_id is required"})
		return
	}

	if err := app.scrimService().OpenRegistration(scrimID); err != nil {
		sendError(w, err)
		return
	}

	// An admin opened by hand; a still-pending scheduled open would be a
	// duplicate.
	if err := app.Scheduler.CancelRegistrationStart(scrimID); err != nil {
		sendError(w, err)
		return
	}

	sendResponse(w, httpResp{Status: http.StatusOK, Data: map[string]interface{}{"message": "Registration opened"}})
}

func (app *App) CloseRegistration(w http.ResponseWriter, r *http.Request) {
	scrimID := r.URL.Query().Get("scrim_id")
	if scrimID == "" {
		sendResponse(w, httpResp{Status: http.StatusBadRequest, IsError: true, Error: "scrim_id is required"})
		return
	}

	if err := app.scrimService().CloseRegistration(scrimID); err != nil {
		sendError(w, err)
		return
	}

	sendResponse(w, httpResp{Status: http.StatusOK, Data: map[string]interface{}{"message": "Registration closed"}})
}

func (app *App) EndScrim(w http.ResponseWriter, r *http.Request) {
	scrimID := r.URL.Query().Get("scrim_id")
	if scrimID == "" {
		sendResponse(w, httpResp{Status: http.StatusBadRequest, IsError: true, Error: "scrim_id is required"})
		return
	}

	if err := app.scrimService().EndScrim(scrimID); err != nil {
		sendError(w, err)
		return
	}

	sendResponse(w, httpResp{Status: http.StatusOK, Data: map[string]interface{}{"message": "Scrim ended"}})
}

func (app *App) CancelScrim(w http.ResponseWriter, r *http.Request) {
	scrimID := r.URL.Query().Get("scrim_id")
	if scrimID == "" {
		sendResponse(w, httpResp{Status: http.StatusBadRequest, IsError: true, Error: "scrim_id is required"})
		return
	}

	scrim, err := app.scrimService().GetScrim(scrimID)
	if err != nil {
		sendError(w, err)
		return
	}

	if err := app.scrimService().CancelScrim(scrimID); err != nil {
		sendError(w, err)
		return
	}

	if err := app.Scheduler.CancelRegistrationStart(scrimID); err != nil {
		sendError(w, err)
		return
	}

	app.notifyRegisteredCaptains(scrim, "%s was canceled")

	sendResponse(w, httpResp{Status: http.StatusOK, Data: map[string]interface{}{"message": "Scrim canceled"}})
}

// notifyRegisteredCaptains writes one notification per registered team's
// captain. Best-effort: lookups that fail are skipped.
func (app *App) notifyRegisteredCaptains(scrim *scrims.Scrim, format string) {
	regs := registration.New(app.KVStore, app.DB, app.Pub, app.Roles)
	rows, err := regs.GetRegisteredTeams(scrim.ScrimID)
	if err != nil {
		return
	}
	notifs := notification.New(app.DB)
	for _, row := range rows {
		captain, err := regs.Teams.Captain(row.TeamID)
		if err != nil {
			continue
		}
		notifs.Notify(captain.UserID, notification.KindScrimUpdate, format, scrim.Name)
	}
}

type registerRequestBody struct {
	ScrimID string `json:"scrim_id"`
	TeamID  string `json:"team_id"`
}

func (app *App) RegisterTeam(w http.ResponseWriter, r *http.Request) {
	var body registerRequestBody
	if err := getBody(r, &body); err != nil {
		sendResponse(w, httpResp{Status: http.StatusBadRequest, IsError: true, Error: "Invalid request body"})
		return
	}

	registered, err := registration.New(app.KVStore, app.DB, app.Pub, app.Roles).
		RegisterTeam(body.ScrimID, body.TeamID)
	if err != nil {
		sendError(w, err)
		return
	}

	// An auto-assigned slot may have changed the lobby list.
	app.refreshSlotCache(body.ScrimID)
	sendResponse(w, httpResp{Status: http.StatusCreated, Data: registered})
}

func (app *App) UnregisterTeam(w http.ResponseWriter, r *http.Request) {
	var body registerRequestBody
	if err := getBody(r, &body); err != nil {
		sendResponse(w, httpResp{Status: http.StatusBadRequest, IsError: true, Error: "Invalid request body"})
		return
	}

	err := registration.New(app.KVStore, app.DB, app.Pub, app.Roles).
		UnregisterTeam(body.ScrimID, body.TeamID)
	if err != nil {
		sendError(w, err)
		return
	}

	app.refreshSlotCache(body.ScrimID)
	sendResponse(w, httpResp{Status: http.StatusOK, Data: map[string]interface{}{"message": "Unregistered successfully"}})
}
