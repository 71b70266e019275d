package main

import (
	"log"
	"net/http"

	"github.com/scrimspace/scrim-server/db"
	"github.com/scrimspace/scrim-server/internals/scheduler"
	"github.com/scrimspace/scrim-server/internals/scrims"
	"github.com/scrimspace/scrim-server/pkg/jobqueue"
	"github.com/scrimspace/scrim-server/pkg/kvstore"

	"gorm.io/gorm"
)

func failOnError(err error, msg string) {
	if err != nil {
		log.Panicf("%s: %s", msg, err)
	}
}

func (app *App) initDB() (*gorm.DB, error) {
	return db.Setup(app.Cfg.GetString("db.dsn"))
}

func (app *App) initKVStore() {
	app.KVStore = kvstore.NewRedis(
		app.Cfg.GetString("redis.addr"),
		app.Cfg.GetString("redis.password"),
		app.Cfg.GetInt("redis.db"),
	)
}

func (app *App) initScheduler(queue jobqueue.Queue) *scheduler.SchedulerService {
	return scheduler.New(
		queue,
		app.DB,
		scrims.New(app.DB, app.Pub),
		app.Cfg.GetInt("cleanup.retention_days"),
	)
}

func (app *App) initHandlers() {
	app.R.Get("/ws", app.handleWebSocket)

	app.R.Post("/auth/signup", app.SignUp)
	app.R.Post("/auth/login", app.Login)
	app.R.Post("/auth/logout", app.Middleware(http.HandlerFunc(app.Logout)))

	app.R.Post("/communities/create", app.Middleware(http.HandlerFunc(app.CreateCommunity)))
	app.R.Post("/communities/update", app.Middleware(http.HandlerFunc(app.UpdateCommunity)))
	app.R.Post("/communities/ban", app.Middleware(http.HandlerFunc(app.BanUser)))
	app.R.Post("/communities/unban", app.Middleware(http.HandlerFunc(app.UnbanUser)))

	app.R.Post("/scrims/create", app.Middleware(http.HandlerFunc(app.CreateScrim)))
	app.R.Get("/scrims", app.Middleware(http.HandlerFunc(app.GetScrims)))
	app.R.Post("/scrims/update", app.Middleware(http.HandlerFunc(app.UpdateScrim)))
	app.R.Delete("/scrims/delete", app.Middleware(http.HandlerFunc(app.DeleteScrim)))
	app.R.Get("/scrims/open", app.Middleware(http.HandlerFunc(app.OpenRegistration)))
	app.R.Get("/scrims/close", app.Middleware(http.HandlerFunc(app.CloseRegistration)))
	app.R.Get("/scrims/end", app.Middleware(http.HandlerFunc(app.EndScrim)))
	app.R.Get("/scrims/cancel", app.Middleware(http.HandlerFunc(app.CancelScrim)))
	app.R.Post("/scrims/register", app.Middleware(http.HandlerFunc(app.RegisterTeam)))
	app.R.Post("/scrims/unregister", app.Middleware(http.HandlerFunc(app.UnregisterTeam)))

	app.R.Post("/teams/create", app.Middleware(http.HandlerFunc(app.CreateTeam)))
	app.R.Post("/teams/join", app.Middleware(http.HandlerFunc(app.JoinTeam)))
	app.R.Post("/teams/leave", app.Middleware(http.HandlerFunc(app.LeaveTeam)))
	app.R.Post("/teams/kick", app.Middleware(http.HandlerFunc(app.KickMember)))
	app.R.Post("/teams/disband", app.Middleware(http.HandlerFunc(app.DisbandTeam)))
	app.R.Get("/teams", app.Middleware(http.HandlerFunc(app.GetTeam)))

	app.R.Get("/slots", app.Middleware(http.HandlerFunc(app.GetSlots)))
	app.R.Post("/slots/assign", app.Middleware(http.HandlerFunc(app.AssignSlot)))
	app.R.Post("/slots/unassign", app.Middleware(http.HandlerFunc(app.UnassignSlot)))
	app.R.Post("/slots/reserve", app.Middleware(http.HandlerFunc(app.ReserveSlot)))
	app.R.Post("/slots/unreserve", app.Middleware(http.HandlerFunc(app.UnreserveSlot)))
	app.R.Post("/slots/fill", app.Middleware(http.HandlerFunc(app.FillSlots)))

	app.R.Get("/notifications", app.Middleware(http.HandlerFunc(app.GetNotifications)))
	app.R.Post("/notifications/seen", app.Middleware(http.HandlerFunc(app.MarkNotificationsSeen)))

	app.R.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("I am Healthy"))
	})

}
