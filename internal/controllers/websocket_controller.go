package controllers

import (
	"net/http"

	gorilla "github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	apperrors "asset-system/pkg/errors"
	"asset-system/pkg/utils"
	"asset-system/pkg/websocket"
)

var upgrader = gorilla.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

type WebsocketController struct {
	hub    *websocket.Hub
	logger *zap.Logger
}

func NewWebsocketController(hub *websocket.Hub, logger *zap.Logger) *WebsocketController {
	return &WebsocketController{
		hub:    hub,
		logger: logger,
	}
}

// Serve апгрейдит соединение и привязывает клиента к организации
// из токена. После регистрации клиент получает все обновления среза
// активов своей организации.
func (c *WebsocketController) Serve(ctx echo.Context) error {
	orgID, err := utils.GetOrgIDFromCtx(ctx.Request().Context())
	if err != nil {
		return utils.ErrorResponse(ctx,
			apperrors.NewHttpError(http.StatusUnauthorized, "Не удалось определить организацию", err, nil),
			c.logger)
	}

	conn, err := upgrader.Upgrade(ctx.Response(), ctx.Request(), nil)
	if err != nil {
		c.logger.Error("Ошибка апгрейда WebSocket-соединения", zap.Error(err))
		return err
	}

	client := websocket.NewClient(c.hub, conn, orgID)
	c.hub.Register <- client

	go client.WritePump()
	go client.ReadPump()
	return nil
}
