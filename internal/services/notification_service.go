package services

import (
	"context"

	"go.uber.org/zap"

	"asset-system/internal/repositories"
	"asset-system/pkg/eventbus"
	"asset-system/pkg/websocket"
)

// NotificationService слушает изменения коллекции активов и рассылает
// подключённым клиентам организации свежий срез через websocket.
type NotificationService struct {
	store  repositories.AssetStoreInterface
	hub    *websocket.Hub
	logger *zap.Logger
}

func NewNotificationService(store repositories.AssetStoreInterface,
	hub *websocket.Hub,
	bus *eventbus.Bus,
	logger *zap.Logger,
) *NotificationService {
	s := &NotificationService{
		store:  store,
		hub:    hub,
		logger: logger,
	}
	bus.Subscribe(repositories.AssetsChangedEvent{}.Name(), s.handleAssetsChanged)
	return s
}

func (s *NotificationService) handleAssetsChanged(ctx context.Context, event eventbus.Event) error {
	changed, ok := event.(repositories.AssetsChangedEvent)
	if !ok {
		return nil
	}

	snapshot, err := s.store.List(ctx, repositories.AssetFilter{OrgID: changed.OrgID})
	if err != nil {
		s.logger.Error("Не удалось перечитать срез активов для рассылки",
			zap.String("orgId", changed.OrgID),
			zap.Error(err),
		)
		return err
	}

	return s.hub.SendMessageToOrg(changed.OrgID, snapshot, websocket.MessageTypeAssetsSnapshot)
}
