package roles

import (
	"encoding/json"
	"log"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"
)

// RoleManager grants or revokes the community's participant marker for a
// batch of users. Failures are per-user and must never abort the batch.
type RoleManager interface {
	Grant(communityID string, userIDs []int)
	Revoke(communityID string, userIDs []int)
}

const QueueName = "role.sync"

type RoleMessage struct {
	BatchID     string `json:"batch_id"`
	CommunityID string `json:"community_id"`
	UserID      int    `json:"user_id"`
	Action      string `json:"action"` // grant/revoke
}

// AMQPRoleManager hands role changes to the chat-platform worker over a
// queue, one message per user.
type AMQPRoleManager struct {
	Ch *amqp.Channel
}

func NewAMQP(ch *amqp.Channel) (*AMQPRoleManager, error) {
	_, err := ch.QueueDeclare(
		QueueName, // name
		true,      // durable
		false,     // delete when unused
		false,     // exclusive
		false,     // no-wait
		nil,       // arguments
	)
	if err != nil {
		return nil, err
	}
	return &AMQPRoleManager{Ch: ch}, nil
}

func (rm *AMQPRoleManager) send(communityID string, userIDs []int, action string) {
	batchID := uuid.NewString()
	for _, userID := range userIDs {
		msg := RoleMessage{
			BatchID:     batchID,
			CommunityID: communityID,
			UserID:      userID,
			Action:      action,
		}
		body, err := json.Marshal(msg)
		if err != nil {
			log.Printf("error marshalling role %s for user %d: %v", action, userID, err)
			continue
		}
		err = rm.Ch.Publish(
			"",        // exchange
			QueueName, // routing key
			false,     // mandatory
			false,     // immediate
			amqp.Publishing{ContentType: "application/json", Body: body},
		)
		if err != nil {
			log.Printf("error publishing role %s for user %d in community %s: %v",
				action, userID, communityID, err)
		}
	}
}

func (rm *AMQPRoleManager) Grant(communityID string, userIDs []int) {
	rm.send(communityID, userIDs, "grant")
}

func (rm *AMQPRoleManager) Revoke(communityID string, userIDs []int) {
	rm.send(communityID, userIDs, "revoke")
}
