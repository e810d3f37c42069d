package services

import (
	"context"

	"asset-system/internal/entities"
	"asset-system/internal/repositories"
	"asset-system/pkg/utils"
)

// LogService — чтение журнала действий. Журнал только растёт,
// сервис ничего в него не пишет.
type LogService struct {
	logRepo repositories.LogRepositoryInterface
}

func NewLogService(logRepo repositories.LogRepositoryInterface) *LogService {
	return &LogService{logRepo: logRepo}
}

func (s *LogService) GetLogs(ctx context.Context, limit, offset uint64) ([]entities.LogEntry, uint64, error) {
	orgID, err := utils.GetOrgIDFromCtx(ctx)
	if err != nil {
		return nil, 0, err
	}
	return s.logRepo.ListByOrg(ctx, orgID, limit, offset)
}

func (s *LogService) GetAssetHistory(ctx context.Context, assetID string, limit, offset uint64) ([]entities.LogEntry, error) {
	orgID, err := utils.GetOrgIDFromCtx(ctx)
	if err != nil {
		return nil, err
	}
	return s.logRepo.ListByAsset(ctx, orgID, assetID, limit, offset)
}
