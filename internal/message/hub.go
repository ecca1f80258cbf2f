package message

import (
	"context"
	"encoding/json"
	"log"

	"github.com/redis/go-redis/v9"
)

// conversationsChannel is the redis pub/sub channel every instance shares, so
// a message stored on one instance reaches participants connected elsewhere.
const conversationsChannel = "conversations"

// Notification is the envelope published to redis: the stored message plus
// the user ids it is addressed to.
type Notification struct {
	Targets []int   `json:"targets"`
	Message Message `json:"message"`
}

// Hub fans incoming notifications out to the websocket clients of the two
// conversation participants.
type Hub struct {
	clients    map[*Client]bool
	broadcast  chan []byte  // From Redis -> Clients
	Register   chan *Client // New client joins
	Unregister chan *Client // Client leaves
	redis      *redis.Client
}

func NewHub(redisClient *redis.Client) *Hub {
	return &Hub{
		clients:    make(map[*Client]bool),
		broadcast:  make(chan []byte),
		Register:   make(chan *Client),
		Unregister: make(chan *Client),
		redis:      redisClient,
	}
}

func (h *Hub) Run() {
	for {
		select {
		case client := <-h.Register:
			h.clients[client] = true

		case client := <-h.Unregister:
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.Send)
			}

		case payload := <-h.broadcast:
			var n Notification
			if err := json.Unmarshal(payload, &n); err != nil {
				log.Printf("bad notification payload: %v", err)
				continue
			}

			body, err := json.Marshal(n.Message)
			if err != nil {
				continue
			}

			for client := range h.clients {
				if !n.addressedTo(client.UserID) {
					continue
				}
				select {
				case client.Send <- body:
				default:
					close(client.Send)
					delete(h.clients, client)
				}
			}
		}
	}
}

// SubscribeToRedis pipes notifications published by any instance into the
// local broadcast loop.
func (h *Hub) SubscribeToRedis() {
	pubsub := h.redis.Subscribe(context.Background(), conversationsChannel)
	ch := pubsub.Channel()

	for msg := range ch {
		h.broadcast <- []byte(msg.Payload)
	}
}

func (n *Notification) addressedTo(userID int) bool {
	for _, id := range n.Targets {
		if id == userID {
			return true
		}
	}
	return false
}

// RedisNotifier implements Notifier by publishing to the shared channel.
type RedisNotifier struct {
	redis *redis.Client
}

func NewRedisNotifier(redisClient *redis.Client) *RedisNotifier {
	return &RedisNotifier{redis: redisClient}
}

func (n *RedisNotifier) NotifyNewMessage(ctx context.Context, conv *Conversation, msg *Message) error {
	payload, err := json.Marshal(Notification{
		Targets: []int{conv.OwnerID, conv.UserID},
		Message: *msg,
	})
	if err != nil {
		return err
	}
	return n.redis.Publish(ctx, conversationsChannel, payload).Err()
}
