package events

import (
	"encoding/json"

	amqp "github.com/rabbitmq/amqp091-go"
)

// Event kinds pushed to lobby clients.
const (
	KindStageChanged   = "stage_changed"
	KindSlotAssigned   = "slot_assigned"
	KindSlotUnassigned = "slot_unassigned"
	KindTeamRegistered = "team_registered"
	KindTeamWithdrawn  = "team_withdrawn"
)

type ScrimEvent struct {
	ScrimID    string `json:"scrim_id"`
	Kind       string `json:"kind"`
	Stage      string `json:"stage,omitempty"`
	TeamID     string `json:"team_id,omitempty"`
	SlotNumber int    `json:"slot_number,omitempty"`
	Message    string `json:"message,omitempty"`
}

type Publisher interface {
	Publish(ev ScrimEvent) error
}

const ExchangeName = "scrim.events"

// AMQPPublisher fans scrim events out to every connected api-server, which
// re-broadcasts them to its websocket lobby clients.
type AMQPPublisher struct {
	Ch *amqp.Channel
}

func NewAMQP(ch *amqp.Channel) (*AMQPPublisher, error) {
	err := ch.ExchangeDeclare(
		ExchangeName, // name
		"fanout",     // type
		true,         // durable
		false,        // auto-deleted
		false,        // internal
		false,        // no-wait
		nil,          // arguments
	)
	if err != nil {
		return nil, err
	}
	return &AMQPPublisher{Ch: ch}, nil
}

func (p *AMQPPublisher) Publish(ev ScrimEvent) error {
	body, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	return p.Ch.Publish(
		ExchangeName, // exchange
		"",           // routing key
		false,        // mandatory
		false,        // immediate
		amqp.Publishing{ContentType: "application/json", Body: body},
	)
}
