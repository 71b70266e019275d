package main

import (
	"log"
	"net/http"
	"sync"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"
	"github.com/rs/cors"
	"github.com/spf13/viper"
	"gorm.io/gorm"

	"github.com/scrimspace/scrim-server/internals/events"
	"github.com/scrimspace/scrim-server/internals/roles"
	"github.com/scrimspace/scrim-server/internals/scheduler"
	"github.com/scrimspace/scrim-server/pkg/conf"
	"github.com/scrimspace/scrim-server/pkg/jobqueue"
	"github.com/scrimspace/scrim-server/pkg/kvstore"
)

type App struct {
	DB        *gorm.DB
	R         *chi.Mux
	WS        map[*websocket.Conn]WSDetails
	ClientsM  sync.Mutex
	KVStore   kvstore.KVStore
	Ch        *amqp.Channel
	MQConn    *amqp.Connection
	Cfg       *viper.Viper
	Pub       events.Publisher
	Roles     roles.RoleManager
	Scheduler *scheduler.SchedulerService
}

func main() {

	cfg := conf.Config(".")

	conn, err := amqp.Dial(cfg.GetString("amqp.url"))
	failOnError(err, "Failed to connect to RabbitMQ")
	defer conn.Close()

	ch, err := conn.Channel()
	failOnError(err, "Failed to open a channel")
	defer ch.Close()

	app := &App{
		WS:     make(map[*websocket.Conn]WSDetails),
		Ch:     ch,
		MQConn: conn,
		Cfg:    cfg,
	}

	gdb, err := app.initDB()
	failOnError(err, "Failed to connect to database")
	app.DB = gdb

	app.initKVStore()

	pub, err := events.NewAMQP(ch)
	failOnError(err, "Failed to declare events exchange")
	app.Pub = pub

	rm, err := roles.NewAMQP(ch)
	failOnError(err, "Failed to declare roles queue")
	app.Roles = rm

	queue := jobqueue.New(app.KVStore)
	app.Scheduler = app.initScheduler(queue)

	r := chi.NewRouter()
	// CORS middleware configuration
	r.Use(cors.New(cors.Options{
		AllowedOrigins:   []string{cfg.GetString("server.cors_origin")},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-CSRF-Token"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300, // Maximum value not ignored by any of major browsers
	}).Handler)

	app.R = r
	app.initHandlers()

	worker := scheduler.NewWorker(queue, map[string]scheduler.HandlerFunc{
		scheduler.JobOpenRegistration: app.Scheduler.HandleOpenRegistration,
		scheduler.JobCleanup:          app.Scheduler.HandleCleanup,
	}, func() bool { return !conn.IsClosed() })

	stop := make(chan struct{})
	defer close(stop)
	go worker.Run(stop)

	go app.consumeScrimEvents()

	addr := cfg.GetString("server.addr")
	log.Printf("api-server listening on %s", addr)
	if err := http.ListenAndServe(addr, r); err != nil {
		panic(err)
	}

}
