package controllers

import (
	"log"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"

	"github.com/voxnote/voxnote/internal/pkg/stt"
	"github.com/voxnote/voxnote/internal/pkg/usercontext"
)

const wsUserKey = "ws_user"

// HandleSTTUpgrade gates the WebSocket upgrade. The stream degrades to
// anonymous on a missing or invalid token rather than refusing the
// connection; the resolved identity rides along into the stream handler.
func HandleSTTUpgrade(c *fiber.Ctx) error {
	if !websocket.IsWebSocketUpgrade(c) {
		return fiber.ErrUpgradeRequired
	}

	ctx := usercontext.Get(c)
	if ctx.IsLoggedIn {
		c.Locals(wsUserKey, ctx.User.Email)
		log.Printf("WebSocket connection accepted for user: %s", ctx.User.Email)
	} else {
		log.Print("WebSocket connection accepted for anonymous user")
	}

	return c.Next()
}

// HandleSTTStream runs the streaming recognition loop: each inbound audio
// frame produces zero or one outbound message (a partial or a finalized
// segment). The recognizer is freed on every exit path.
var HandleSTTStream = websocket.New(func(conn *websocket.Conn) {
	username, _ := conn.Locals(wsUserKey).(string)
	defer conn.Close()

	engine := stt.Get()
	if engine == nil {
		log.Print("WebSocket connection attempted but speech engine is not loaded")
		conn.WriteJSON(fiber.Map{"error": "speech engine not available"})
		return
	}

	rec, err := engine.NewRecognizer(stt.SampleRate())
	if err != nil {
		log.Printf("Failed to create recognizer (user=%s): %v", username, err)
		conn.WriteJSON(fiber.Map{"error": "speech engine not available"})
		return
	}
	defer rec.Close()

	for {
		mt, chunk, err := conn.ReadMessage()
		if err != nil {
			log.Printf("Client disconnected (user=%s)", username)
			return
		}
		if mt != websocket.BinaryMessage {
			continue
		}

		res, err := rec.Accept(chunk)
		if err != nil {
			log.Printf("Recognition error (user=%s): %v", username, err)
			conn.WriteJSON(fiber.Map{"error": "recognition failed"})
			return
		}

		if res.Final {
			err = conn.WriteJSON(fiber.Map{"text": res.Text})
		} else {
			err = conn.WriteJSON(fiber.Map{"partial": res.Partial})
		}
		if err != nil {
			log.Printf("Write failed, closing stream (user=%s): %v", username, err)
			return
		}
	}
})
