package services

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"asset-system/internal/dto"
	"asset-system/internal/entities"
	"asset-system/internal/repositories"
	apperrors "asset-system/pkg/errors"
	"asset-system/pkg/metrics"
	"asset-system/pkg/utils"
)

const reportCachePrefix = "reports:"

// AssetService — жизненный цикл активов: CRUD и машина состояний
// выдачи/возврата/утери. Каждый переход атомарен на уровне хранилища
// и оставляет запись в журнале.
type AssetService struct {
	store     repositories.AssetStoreInterface
	cacheRepo repositories.CacheRepositoryInterface
	logger    *zap.Logger
}

func NewAssetService(store repositories.AssetStoreInterface,
	cacheRepo repositories.CacheRepositoryInterface,
	logger *zap.Logger,
) *AssetService {
	return &AssetService{
		store:     store,
		cacheRepo: cacheRepo,
		logger:    logger,
	}
}

func (s *AssetService) GetAssets(ctx context.Context, filter repositories.AssetFilter) ([]entities.Asset, error) {
	orgID, err := utils.GetOrgIDFromCtx(ctx)
	if err != nil {
		return nil, err
	}
	filter.OrgID = orgID
	return s.store.List(ctx, filter)
}

func (s *AssetService) FindAsset(ctx context.Context, id string) (*entities.Asset, error) {
	orgID, err := utils.GetOrgIDFromCtx(ctx)
	if err != nil {
		return nil, err
	}
	return s.store.Find(ctx, orgID, id)
}

func (s *AssetService) CreateAsset(ctx context.Context, payload dto.CreateAssetDTO) (*entities.Asset, error) {
	orgID, err := utils.GetOrgIDFromCtx(ctx)
	if err != nil {
		return nil, err
	}

	asset := &entities.Asset{
		OrgID:     orgID,
		Name:      payload.Name,
		Type:      entities.AssetType(payload.Type),
		Status:    entities.StatusAvailable,
		Area:      payload.Area,
		TotalKeys: payload.TotalKeys,
		QRCode:    payload.QRCode,
		MetaData:  entities.Metadata(payload.MetaData),
	}
	if asset.MetaData == nil {
		asset.MetaData = entities.Metadata{}
	}

	id, err := s.store.Create(ctx, asset)
	if err != nil {
		s.logger.Error("Ошибка при создании актива", zap.Error(err))
		return nil, err
	}
	s.invalidateReports(ctx, orgID)

	s.logger.Info("Актив создан",
		zap.String("assetId", id),
		zap.String("type", payload.Type),
	)
	return s.store.Find(ctx, orgID, id)
}

func (s *AssetService) UpdateAsset(ctx context.Context, id string, payload dto.UpdateAssetDTO) (*entities.Asset, error) {
	orgID, err := utils.GetOrgIDFromCtx(ctx)
	if err != nil {
		return nil, err
	}

	fields := make(map[string]interface{})
	if payload.Name != nil {
		fields[repositories.FieldName] = *payload.Name
	}
	if payload.Area != nil {
		fields[repositories.FieldArea] = *payload.Area
	}
	if payload.QRCode != nil {
		fields[repositories.FieldQRCode] = *payload.QRCode
	}
	for key, value := range payload.MetaData {
		fields["metaData."+key] = value
	}
	if len(fields) == 0 {
		return s.store.Find(ctx, orgID, id)
	}

	if err := s.store.Update(ctx, orgID, id, fields); err != nil {
		s.logger.Error("Ошибка при обновлении актива", zap.String("assetId", id), zap.Error(err))
		return nil, err
	}
	s.invalidateReports(ctx, orgID)

	return s.store.Find(ctx, orgID, id)
}

func (s *AssetService) DeleteAsset(ctx context.Context, id string) error {
	orgID, err := utils.GetOrgIDFromCtx(ctx)
	if err != nil {
		return err
	}
	if err := s.store.Delete(ctx, orgID, id); err != nil {
		return err
	}
	s.invalidateReports(ctx, orgID)
	return nil
}

// DeleteAllAssets очищает коллекцию организации батчами. Возвращает
// число удалённых документов и число транзакций.
func (s *AssetService) DeleteAllAssets(ctx context.Context) (int, int, error) {
	orgID, err := utils.GetOrgIDFromCtx(ctx)
	if err != nil {
		return 0, 0, err
	}

	deleted, batches, err := s.store.DeleteAll(ctx, orgID)
	if err != nil {
		s.logger.Error("Ошибка при массовом удалении активов", zap.Error(err))
		return deleted, batches, err
	}
	s.invalidateReports(ctx, orgID)

	s.logger.Warn("Коллекция активов очищена",
		zap.String("orgId", orgID),
		zap.Int("deleted", deleted),
		zap.Int("batches", batches),
	)
	return deleted, batches, nil
}

// CheckOut переводит актив AVAILABLE -> CHECKED_OUT, записывает держателя
// в метаданные и фиксирует переход в журнале. Конкурирующая выдача того
// же актива получает InvalidStateError.
func (s *AssetService) CheckOut(ctx context.Context, assetID string, payload dto.CheckOutDTO) (*entities.Asset, error) {
	orgID, err := utils.GetOrgIDFromCtx(ctx)
	if err != nil {
		return nil, err
	}
	actorID, err := utils.GetUserIDFromCtx(ctx)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	fields := map[string]interface{}{
		repositories.FieldStatus:                 string(entities.StatusCheckedOut),
		repositories.FieldCheckedOutAt:           now,
		"metaData." + entities.MetaCurrentHolder: payload.Recipient,
		"metaData." + entities.MetaCheckedOutAt:  now.Format(time.RFC3339),
	}
	if payload.Company != "" {
		fields["metaData."+entities.MetaHolderCompany] = payload.Company
	}
	if payload.DueDate != nil {
		fields["metaData."+entities.MetaDueDate] = payload.DueDate.UTC().Format(time.RFC3339)
	}
	if payload.LoanType != "" {
		fields["metaData."+entities.MetaLoanType] = payload.LoanType
	}

	asset, err := s.store.ApplyTransition(ctx, orgID, repositories.TransitionRequest{
		AssetID:  assetID,
		Expected: entities.StatusAvailable,
		Fields:   fields,
		Log: entities.LogEntry{
			Action:    entities.ActionCheckOut,
			ActorID:   actorID,
			ActorName: utils.GetUserNameFromCtx(ctx),
			Notes:     checkOutNotes(payload),
		},
	})
	if err != nil {
		s.observeTransitionError(err, "checkout", assetID)
		return nil, err
	}
	s.invalidateReports(ctx, orgID)
	metrics.CheckOutsTotal.Inc()

	s.logger.Info("Актив выдан",
		zap.String("assetId", assetID),
		zap.String("recipient", payload.Recipient),
	)
	return asset, nil
}

// CheckIn возвращает актив в AVAILABLE и очищает поля текущей выдачи,
// включая держателя: держатель заполнен только у выданных и пропавших.
// Исходное состояние — CHECKED_OUT (обычный возврат) или MISSING
// (нашёлся, возвращаем на склад).
func (s *AssetService) CheckIn(ctx context.Context, assetID string, payload dto.CheckInDTO) (*entities.Asset, error) {
	orgID, err := utils.GetOrgIDFromCtx(ctx)
	if err != nil {
		return nil, err
	}
	actorID, err := utils.GetUserIDFromCtx(ctx)
	if err != nil {
		return nil, err
	}

	fields := map[string]interface{}{
		repositories.FieldStatus:                 string(entities.StatusAvailable),
		repositories.FieldCheckedOutAt:           nil,
		"metaData." + entities.MetaCurrentHolder: nil,
		"metaData." + entities.MetaCheckedOutAt:  nil,
		"metaData." + entities.MetaDueDate:       nil,
		"metaData." + entities.MetaHolderCompany: nil,
		"metaData." + entities.MetaLoanType:      nil,
		"metaData." + entities.MetaMissingSince:  nil,
		"metaData." + entities.MetaMissingReason: nil,
	}
	req := repositories.TransitionRequest{
		AssetID:  assetID,
		Expected: entities.StatusCheckedOut,
		Fields:   fields,
		Log: entities.LogEntry{
			Action:    entities.ActionCheckIn,
			ActorID:   actorID,
			ActorName: utils.GetUserNameFromCtx(ctx),
			Notes:     payload.Notes,
		},
	}

	asset, err := s.store.ApplyTransition(ctx, orgID, req)
	if err != nil {
		var invalidState *apperrors.InvalidStateError
		if errors.As(err, &invalidState) && invalidState.Current == string(entities.StatusMissing) {
			req.Expected = entities.StatusMissing
			asset, err = s.store.ApplyTransition(ctx, orgID, req)
		}
	}
	if err != nil {
		s.observeTransitionError(err, "checkin", assetID)
		return nil, err
	}
	s.invalidateReports(ctx, orgID)
	metrics.CheckInsTotal.Inc()

	s.logger.Info("Актив возвращён", zap.String("assetId", assetID))
	return asset, nil
}

// ReportMissing переводит актив CHECKED_OUT -> MISSING. Держатель
// сохраняется: он последний, у кого актив видели.
func (s *AssetService) ReportMissing(ctx context.Context, assetID string, payload dto.ReportMissingDTO) (*entities.Asset, error) {
	orgID, err := utils.GetOrgIDFromCtx(ctx)
	if err != nil {
		return nil, err
	}
	actorID, err := utils.GetUserIDFromCtx(ctx)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	fields := map[string]interface{}{
		repositories.FieldStatus:                 string(entities.StatusMissing),
		"metaData." + entities.MetaMissingSince:  now.Format(time.RFC3339),
		"metaData." + entities.MetaMissingReason: payload.Reason,
	}

	asset, err := s.store.ApplyTransition(ctx, orgID, repositories.TransitionRequest{
		AssetID:  assetID,
		Expected: entities.StatusCheckedOut,
		Fields:   fields,
		Log: entities.LogEntry{
			Action:    entities.ActionReportMissing,
			ActorID:   actorID,
			ActorName: utils.GetUserNameFromCtx(ctx),
			Notes:     payload.Reason,
		},
	})
	if err != nil {
		s.observeTransitionError(err, "report-missing", assetID)
		return nil, err
	}
	s.invalidateReports(ctx, orgID)
	metrics.ReportedMissingTotal.Inc()

	s.logger.Warn("Актив отмечен как утерянный",
		zap.String("assetId", assetID),
		zap.String("reason", payload.Reason),
	)
	return asset, nil
}

func (s *AssetService) observeTransitionError(err error, op, assetID string) {
	var invalidState *apperrors.InvalidStateError
	if errors.As(err, &invalidState) {
		metrics.InvalidStateConflictsTotal.Inc()
		s.logger.Warn("Конфликт состояния актива",
			zap.String("op", op),
			zap.String("assetId", assetID),
			zap.String("current", invalidState.Current),
			zap.String("expected", invalidState.Expected),
		)
		return
	}
	s.logger.Error("Ошибка перехода состояния",
		zap.String("op", op),
		zap.String("assetId", assetID),
		zap.Error(err),
	)
}

func (s *AssetService) invalidateReports(ctx context.Context, orgID string) {
	if s.cacheRepo == nil {
		return
	}
	if err := s.cacheRepo.DelByPrefix(ctx, reportCachePrefix+orgID); err != nil {
		s.logger.Warn("Не удалось инвалидировать кеш отчётов", zap.Error(err))
	}
}

func checkOutNotes(payload dto.CheckOutDTO) string {
	if payload.Notes != "" {
		return payload.Notes
	}
	return "выдан: " + payload.Recipient
}
