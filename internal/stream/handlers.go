package stream

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
)

func RegisterRoutes(r fiber.Router, hub *Hub) {
	r.Get("/ws/:sessionID", websocket.New(func(c *websocket.Conn) {
		client := hub.Register(c.Params("sessionID"))
		defer hub.Unregister(client)

		// Reader: unregisters on disconnect, which wakes the write loop
		// below through Done. Unregister is idempotent.
		go func() {
			for {
				if _, _, err := c.ReadMessage(); err != nil {
					hub.Unregister(client)
					return
				}
			}
		}()

		for {
			select {
			case msg := <-client.Send:
				if err := c.WriteMessage(websocket.TextMessage, msg); err != nil {
					return
				}
			case <-client.Done():
				return
			}
		}
	}))
}
