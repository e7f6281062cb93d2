package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"slices"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/redis/go-redis/v9"

	"caseintake/internal/api/middleware"
	"caseintake/internal/notify"
)

const (
	wsPingInterval = 30 * time.Second
	wsWriteTimeout = 5 * time.Second
	wsAuthTimeout  = 10 * time.Second
)

// Subscriber is the redis pub/sub surface the websocket needs.
type Subscriber interface {
	Subscribe(ctx context.Context, channels ...string) *redis.PubSub
}

// WsHandler 将面板事件从 Redis 频道转发给已登录的操作员。
type WsHandler struct {
	redis    Subscriber
	tokens   middleware.TokenValidator
	logger   *slog.Logger
	upgrader websocket.Upgrader
}

// NewWsHandler 构造 WebSocket 处理器。allowedOrigins 为空时仅允许同源。
func NewWsHandler(redisClient Subscriber, tokens middleware.TokenValidator, logger *slog.Logger, allowedOrigins []string) *WsHandler {
	h := &WsHandler{redis: redisClient, tokens: tokens, logger: logger}
	h.upgrader = websocket.Upgrader{
		CheckOrigin: func(r *http.Request) bool {
			return originAllowed(r.Header.Get("Origin"), r.Host, allowedOrigins)
		},
	}
	return h
}

func originAllowed(origin, host string, allowed []string) bool {
	if origin == "" {
		return true
	}
	if len(allowed) == 0 {
		u, err := url.Parse(origin)
		return err == nil && strings.EqualFold(u.Host, host)
	}
	return slices.Contains(allowed, origin)
}

type wsAuthMessage struct {
	Type  string `json:"type"`
	Token string `json:"token"`
}

// HandleConnection 升级连接，等待首条 auth 消息，然后订阅 notify.Channel。
func (h *WsHandler) HandleConnection(c *gin.Context) {
	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Error("upgrade websocket failed", slog.Any("error", err))
		return
	}
	defer conn.Close()

	ctx, cancel := context.WithCancel(c.Request.Context())
	defer cancel()

	log := h.logger.With(slog.String("client_ip", c.ClientIP()))

	operatorID, err := h.authenticate(conn)
	if err != nil {
		log.Warn("websocket authentication failed", slog.Any("error", err))
		return
	}
	log = log.With(slog.Uint64("operator_id", uint64(operatorID)))
	log.Info("websocket authenticated")

	errCh := make(chan error, 2)
	go h.readLoop(ctx, conn, errCh)
	go h.forwardLoop(ctx, conn, errCh, log)

	select {
	case <-ctx.Done():
	case err := <-errCh:
		log.Info("websocket connection closed", slog.Any("error", err))
	}
}

func (h *WsHandler) authenticate(conn *websocket.Conn) (uint, error) {
	_ = conn.SetReadDeadline(time.Now().Add(wsAuthTimeout))
	defer conn.SetReadDeadline(time.Time{})

	_, message, err := conn.ReadMessage()
	if err != nil {
		return 0, fmt.Errorf("read auth message: %w", err)
	}

	var msg wsAuthMessage
	if err := json.Unmarshal(message, &msg); err != nil {
		writeClose(conn, websocket.ClosePolicyViolation, "invalid auth payload")
		return 0, fmt.Errorf("decode auth payload: %w", err)
	}
	if msg.Type != "auth" || msg.Token == "" {
		writeClose(conn, websocket.ClosePolicyViolation, "auth required")
		return 0, errors.New("invalid auth message")
	}

	claims, err := h.tokens.Validate(msg.Token)
	if err != nil {
		writeClose(conn, websocket.ClosePolicyViolation, "unauthorized")
		return 0, fmt.Errorf("validate token: %w", err)
	}
	return claims.OperatorID, nil
}

// readLoop 只用于检测客户端断开，客户端消息一律忽略。
func (h *WsHandler) readLoop(ctx context.Context, conn *websocket.Conn, errCh chan<- error) {
	for ctx.Err() == nil {
		if _, _, err := conn.ReadMessage(); err != nil {
			errCh <- fmt.Errorf("read message: %w", err)
			return
		}
	}
}

func (h *WsHandler) forwardLoop(ctx context.Context, conn *websocket.Conn, errCh chan<- error, log *slog.Logger) {
	pubsub := h.redis.Subscribe(ctx, notify.Channel)
	defer pubsub.Close()

	ch := pubsub.Channel()
	ticker := time.NewTicker(wsPingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-ch:
			if !ok {
				errCh <- errors.New("pubsub channel closed")
				return
			}
			log.Debug("forwarding event", slog.String("channel", msg.Channel))
			_ = conn.SetWriteDeadline(time.Now().Add(wsWriteTimeout))
			if err := conn.WriteMessage(websocket.TextMessage, []byte(msg.Payload)); err != nil {
				errCh <- fmt.Errorf("write message: %w", err)
				return
			}
		case <-ticker.C:
			if err := conn.WriteControl(websocket.PingMessage, []byte("ping"), time.Now().Add(wsWriteTimeout)); err != nil {
				errCh <- fmt.Errorf("write ping: %w", err)
				return
			}
		}
	}
}

func writeClose(conn *websocket.Conn, code int, text string) {
	_ = conn.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(code, text), time.Now().Add(wsWriteTimeout))
}
