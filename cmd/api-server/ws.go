package main

import (
	"encoding/json"
	"log"
	"net/http"

	"github.com/gorilla/websocket"

	"github.com/scrimspace/scrim-server/internals/events"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

type WSDetails struct {
	ScrimID string
}

// handleWebSocket subscribes the client to one scrim's lobby stream.
func (app *App) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	scrimID := r.URL.Query().Get("scrim_id")
	if scrimID == "" {
		http.Error(w, "scrim_id is required", http.StatusBadRequest)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		http.Error(w, "Could not open websocket connection", http.StatusBadRequest)
		return
	}

	// defer the connection close and remove the client from the list
	defer func() {
		conn.Close()
		app.ClientsM.Lock()
		delete(app.WS, conn)
		app.ClientsM.Unlock()
	}()

	app.ClientsM.Lock()
	app.WS[conn] = WSDetails{ScrimID: scrimID}
	app.ClientsM.Unlock()

	for {
		_, _, err := conn.ReadMessage()
		if err != nil {
			break
		}
	}
}

// consumeScrimEvents binds a private queue to the fanout exchange and pushes
// every event to the websocket clients watching that scrim.
func (app *App) consumeScrimEvents() {
	q, err := app.Ch.QueueDeclare(
		"",    // name
		false, // durable
		false, // delete when unused
		true,  // exclusive
		false, // no-wait
		nil,   // arguments
	)
	failOnError(err, "Failed to declare a queue")

	err = app.Ch.QueueBind(
		q.Name,              // queue name
		"",                  // routing key
		events.ExchangeName, // exchange
		false,
		nil,
	)
	failOnError(err, "Failed to bind a queue")

	msgs, err := app.Ch.Consume(
		q.Name, // queue
		"",     // consumer
		true,   // auto-ack
		false,  // exclusive
		false,  // no-local
		false,  // no-wait
		nil,    // args
	)
	failOnError(err, "Failed to register a consumer")

	for d := range msgs {
		app.broadcastScrimEvent(d.Body)
	}
}

func (app *App) broadcastScrimEvent(data []byte) {
	var ev events.ScrimEvent
	if err := json.Unmarshal(data, &ev); err != nil {
		log.Printf("error unmarshalling scrim event: %v", err)
		return
	}

	app.ClientsM.Lock()
	defer app.ClientsM.Unlock()
	for conn, val := range app.WS {
		if val.ScrimID != ev.ScrimID {
			continue
		}
		if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
			conn.Close()
			delete(app.WS, conn)
		}
	}
}
