package controllers

import (
	"errors"
	"net/http"
	"sync"
	"time"

	"delivery-support-chatbot/models"
	"delivery-support-chatbot/services"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const writeWait = 10 * time.Second

var ErrSessionInUse = errors.New("session is already open on another connection")

type WebSocketController struct {
	sessions       *services.SessionManager
	chatbotService *services.ChatbotService
	upgrader       websocket.Upgrader
	logger         *zap.Logger
}

func NewWebSocketController(sessions *services.SessionManager, chatbotService *services.ChatbotService, allowedOrigins []string, logger *zap.Logger) *WebSocketController {
	allowed := make(map[string]bool, len(allowedOrigins))
	for _, o := range allowedOrigins {
		allowed[o] = true
	}

	return &WebSocketController{
		sessions:       sessions,
		chatbotService: chatbotService,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				return origin == "" || allowed["*"] || allowed[origin]
			},
		},
		logger: logger,
	}
}

// HandleWebSocket binds one conversation session to the socket. The session
// lives exactly as long as the connection; closing the socket cancels any
// reply still waiting on its typing delay. A session_id already in use is
// refused, so a socket never replays or tears down a session it did not open.
func (wc *WebSocketController) HandleWebSocket(c *gin.Context) {
	conn, err := wc.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		wc.logger.Warn("websocket upgrade failed", zap.Error(err))
		return
	}
	defer conn.Close()

	var writeMu sync.Mutex
	writeFrame := func(frame models.SocketFrame) {
		_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := conn.WriteJSON(frame); err != nil {
			wc.logger.Debug("websocket write failed", zap.Error(err))
		}
	}
	write := func(frame models.SocketFrame) {
		writeMu.Lock()
		defer writeMu.Unlock()
		writeFrame(frame)
	}

	session, created := wc.sessions.Open(c.Query("session_id"))
	if !created {
		wc.logger.Info("websocket refused: session already open", zap.String("session_id", session.ID()))
		writeFrame(models.SocketFrame{Type: "error", Error: ErrSessionInUse.Error()})
		_ = conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.ClosePolicyViolation, ErrSessionInUse.Error()),
			time.Now().Add(writeWait))
		return
	}
	defer wc.sessions.Close(session.ID())

	log := wc.logger.With(zap.String("session_id", session.ID()))
	clientKey := c.ClientIP()

	// Held across the replay so pushed messages queue behind the history.
	writeMu.Lock()
	history, unsubscribe := session.SubscribeWithSnapshot(func(msg models.Message) {
		write(models.SocketFrame{Type: "message", Message: &msg})
	})
	for _, msg := range history {
		writeFrame(models.SocketFrame{Type: "message", Message: &msg})
	}
	writeMu.Unlock()
	defer unsubscribe()

	for {
		var in models.SendMessageRequest
		if err := conn.ReadJSON(&in); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Info("websocket closed unexpectedly", zap.Error(err))
			}
			return
		}

		if err := wc.chatbotService.Allow(c.Request.Context(), models.ChannelWeb, clientKey); err != nil {
			write(models.SocketFrame{Type: "error", Error: err.Error()})
			continue
		}

		if _, err := session.Submit(in.Message); err != nil {
			if errors.Is(err, services.ErrSessionClosed) {
				return
			}
			write(models.SocketFrame{Type: "error", Error: err.Error()})
			continue
		}
		write(models.SocketFrame{Type: "typing"})
	}
}
