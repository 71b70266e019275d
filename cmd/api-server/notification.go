package main

import (
	"net/http"

	"github.com/scrimspace/scrim-server/internals/notification"
)

func (app *App) GetNotifications(w http.ResponseWriter, r *http.Request) {
	userID := r.Context().Value("user_id").(int)

	notifications, err := notification.New(app.DB).GetNotifications(userID)
	if err != nil {
		sendError(w, err)
		return
	}

	sendResponse(w, httpResp{Status: http.StatusOK, Data: notifications})
}

func (app *App) MarkNotificationsSeen(w http.ResponseWriter, r *http.Request) {
	userID := r.Context().Value("user_id").(int)

	if err := notification.New(app.DB).UpdateNotificationStatus(userID); err != nil {
		sendError(w, err)
		return
	}

	sendResponse(w, httpResp{Status: http.StatusOK, Data: map[string]interface{}{"message": "Notifications marked as seen"}})
}
