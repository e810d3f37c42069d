package services

import (
	"context"
	"sort"
	"time"

	"go.uber.org/zap"

	"asset-system/internal/dto"
	"asset-system/internal/entities"
	"asset-system/internal/repositories"
	"asset-system/pkg/metrics"
	"asset-system/pkg/utils"
)

// AuditService — сверка физического пересчёта с ожидаемым составом.
// Сверка пассивна: она фиксирует недостачу в записи инвентаризации,
// но не переводит непересчитанные активы в статус MISSING. Перевод —
// осознанное ручное действие оператора после разбора.
type AuditService struct {
	store     repositories.AssetStoreInterface
	auditRepo repositories.AuditRepositoryInterface
	logger    *zap.Logger
}

func NewAuditService(store repositories.AssetStoreInterface,
	auditRepo repositories.AuditRepositoryInterface,
	logger *zap.Logger,
) *AuditService {
	return &AuditService{
		store:     store,
		auditRepo: auditRepo,
		logger:    logger,
	}
}

// SubmitAudit сверяет введённые оператором количества с доступными
// ключами. Ключи группируются по видимой бирке (shortCode): несколько
// физических копий могут нести одинаковую бирку и различимы только
// внутренним id. Внутри группы id сортируются лексикографически, и
// первые enteredCount штук считаются подтверждёнными — детерминизм
// вместо произвола, раз копии неразличимы.
func (s *AuditService) SubmitAudit(ctx context.Context, payload dto.SubmitAuditDTO) (*dto.AuditSummaryDTO, error) {
	orgID, err := utils.GetOrgIDFromCtx(ctx)
	if err != nil {
		return nil, err
	}

	keyType := entities.AssetTypeKey
	available := entities.StatusAvailable
	keys, err := s.store.List(ctx, repositories.AssetFilter{
		OrgID:  orgID,
		Type:   &keyType,
		Status: &available,
	})
	if err != nil {
		return nil, err
	}

	groups := make(map[string][]entities.Asset)
	for _, key := range keys {
		code := key.ShortCode()
		groups[code] = append(groups[code], key)
	}

	counts := make(map[string]int, len(payload.Counts))
	for _, c := range payload.Counts {
		counts[c.Code] = utils.ParseCount(c.Count)
	}

	codes := make([]string, 0, len(groups))
	for code := range groups {
		codes = append(codes, code)
	}
	sort.Strings(codes)

	now := time.Now().UTC()
	summary := &dto.AuditSummaryDTO{
		MissingAssetIDs: make([]string, 0),
		GroupBreakdown:  make([]dto.AuditGroupBreakdownDTO, 0, len(codes)),
	}

	for _, code := range codes {
		members := groups[code]
		sort.Slice(members, func(i, j int) bool { return members[i].ID < members[j].ID })

		entered := counts[code]
		verified := entered
		if verified > len(members) {
			// Насчитали больше, чем числится: все подтверждены,
			// излишек никак не учитывается.
			verified = len(members)
		}

		for i, member := range members {
			if i < verified {
				s.stampAuditDate(ctx, orgID, member.ID, now, summary)
			} else {
				summary.MissingAssetIDs = append(summary.MissingAssetIDs, member.ID)
			}
		}

		summary.ExpectedTotal += len(members)
		summary.CountedTotal += verified
		summary.GroupBreakdown = append(summary.GroupBreakdown, dto.AuditGroupBreakdownDTO{
			Code:     code,
			Expected: len(members),
			Counted:  entered,
		})
	}

	record := &entities.AuditRecord{
		OrgID:       orgID,
		PerformedBy: utils.GetUserNameFromCtx(ctx),
		MissingKeys: summary.MissingAssetIDs,
		CreatedAt:   now,
	}
	auditID, err := s.auditRepo.Create(ctx, record)
	if err != nil {
		s.logger.Error("Ошибка при сохранении записи инвентаризации", zap.Error(err))
		return nil, err
	}
	summary.AuditID = auditID

	metrics.AuditsSubmittedTotal.Inc()
	metrics.AuditMissingKeysTotal.Add(float64(len(summary.MissingAssetIDs)))

	s.logger.Info("Инвентаризация завершена",
		zap.String("auditId", auditID),
		zap.Int("expected", summary.ExpectedTotal),
		zap.Int("counted", summary.CountedTotal),
		zap.Int("missing", len(summary.MissingAssetIDs)),
	)
	return summary, nil
}

// stampAuditDate проставляет lastAuditDate подтверждённому ключу.
// Запись best-effort: отказ логируется и попадает в StampErrors,
// но инвентаризацию не валит и не откатывает.
func (s *AuditService) stampAuditDate(ctx context.Context, orgID, assetID string, now time.Time, summary *dto.AuditSummaryDTO) {
	err := s.store.Update(ctx, orgID, assetID, map[string]interface{}{
		"metaData." + entities.MetaLastAuditDate: now.Format(time.RFC3339),
	})
	if err != nil {
		s.logger.Warn("Не удалось проставить дату инвентаризации",
			zap.String("assetId", assetID),
			zap.Error(err),
		)
		summary.StampErrors = append(summary.StampErrors, assetID+": "+err.Error())
	}
}

func (s *AuditService) GetAudits(ctx context.Context, limit, offset uint64) ([]entities.AuditRecord, uint64, error) {
	orgID, err := utils.GetOrgIDFromCtx(ctx)
	if err != nil {
		return nil, 0, err
	}
	return s.auditRepo.List(ctx, orgID, limit, offset)
}

func (s *AuditService) FindAudit(ctx context.Context, id string) (*entities.AuditRecord, error) {
	orgID, err := utils.GetOrgIDFromCtx(ctx)
	if err != nil {
		return nil, err
	}
	return s.auditRepo.Find(ctx, orgID, id)
}

// MissingKeyRows собирает строки выгрузки по недостаче инвентаризации.
// Имена активов резолвятся по текущему состоянию склада: актив могли
// удалить после сверки, тогда в строке остаётся только id.
func (s *AuditService) MissingKeyRows(ctx context.Context, id string) (*entities.AuditRecord, []dto.AuditExportRowDTO, error) {
	orgID, err := utils.GetOrgIDFromCtx(ctx)
	if err != nil {
		return nil, nil, err
	}

	record, err := s.auditRepo.Find(ctx, orgID, id)
	if err != nil {
		return nil, nil, err
	}

	rows := make([]dto.AuditExportRowDTO, 0, len(record.MissingKeys))
	for _, assetID := range record.MissingKeys {
		row := dto.AuditExportRowDTO{AssetID: assetID}
		if asset, findErr := s.store.Find(ctx, orgID, assetID); findErr == nil {
			row.Code = asset.ShortCode()
			row.Name = asset.Name
			row.Area = asset.Area
			row.Status = string(asset.Status)
		} else {
			s.logger.Debug("Актив из недостачи не найден при выгрузке",
				zap.String("auditId", id), zap.String("assetId", assetID))
		}
		rows = append(rows, row)
	}
	return record, rows, nil
}
