package ws

import (
	"context"
	"encoding/json"
	"log"

	"github.com/playmatatu/pocketrush/internal/game"
	"github.com/redis/go-redis/v9"
)

// StartPocketEventSubscriber relays pocket_events published by any instance
// to the rooms this instance hosts, and turns off local delivery so each
// event reaches a room once.
func StartPocketEventSubscriber(ctx context.Context, rdb *redis.Client, hub *Hub) {
	if rdb == nil {
		log.Println("[WS] Redis client not set; pocket event subscriber not started")
		return
	}

	pubsub := rdb.Subscribe(ctx, game.PocketEventsChannel)
	hub.SetDirectEvents(false)
	ch := pubsub.Channel()

	go func() {
		defer pubsub.Close()
		log.Printf("[WS] %s subscriber started", game.PocketEventsChannel)
		for msg := range ch {
			var event game.PocketEvent
			if err := json.Unmarshal([]byte(msg.Payload), &event); err != nil {
				log.Printf("[WS] invalid event payload: %v", err)
				continue
			}
			hub.relayEvent(event)
		}
		log.Printf("[WS] %s subscriber stopped", game.PocketEventsChannel)
	}()
}

func (h *Hub) relayEvent(event game.PocketEvent) {
	switch event.Type {
	case "ball_potted":
		h.BroadcastToTable(event.TableToken, pottedMessage(event.BallID))
	case "round_ended":
		var rem game.Remaining
		if event.Remaining != nil {
			rem = *event.Remaining
		}
		h.BroadcastToTable(event.TableToken, roundEndedMessage(rem))
	default:
		log.Printf("[WS] unknown event type: %s", event.Type)
	}
}
