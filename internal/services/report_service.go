package services

import (
	"context"
	"encoding/json"
	"sort"
	"time"

	"github.com/aarondl/null/v8"
	"go.uber.org/zap"

	"asset-system/internal/dto"
	"asset-system/internal/entities"
	"asset-system/internal/repositories"
	"asset-system/pkg/utils"
)

// ReportService — производные read-only выборки по коллекции активов:
// активные выдачи, просрочка, сводка по держателям. Выборки кешируются
// в Redis и инвалидируются сервисом активов на каждой мутации.
type ReportService struct {
	store     repositories.AssetStoreInterface
	cacheRepo repositories.CacheRepositoryInterface
	cacheTTL  time.Duration
	logger    *zap.Logger
}

func NewReportService(store repositories.AssetStoreInterface,
	cacheRepo repositories.CacheRepositoryInterface,
	cacheTTL time.Duration,
	logger *zap.Logger,
) *ReportService {
	return &ReportService{
		store:     store,
		cacheRepo: cacheRepo,
		cacheTTL:  cacheTTL,
		logger:    logger,
	}
}

// ActiveLoans — все активы в статусе CHECKED_OUT, отсортированные по
// дате выдачи (старые сверху).
func (s *ReportService) ActiveLoans(ctx context.Context) ([]dto.LoanRowDTO, error) {
	orgID, err := utils.GetOrgIDFromCtx(ctx)
	if err != nil {
		return nil, err
	}

	cacheKey := reportCachePrefix + orgID + ":loans"
	if rows, ok := s.fromCache(ctx, cacheKey); ok {
		return rows, nil
	}

	rows, err := s.loanRows(ctx, orgID)
	if err != nil {
		return nil, err
	}

	s.toCache(ctx, cacheKey, rows)
	return rows, nil
}

// Overdue — подмножество активных выдач с истёкшим dueDate.
func (s *ReportService) Overdue(ctx context.Context) ([]dto.LoanRowDTO, error) {
	rows, err := s.ActiveLoans(ctx)
	if err != nil {
		return nil, err
	}

	out := make([]dto.LoanRowDTO, 0)
	for _, row := range rows {
		if row.Overdue {
			out = append(out, row)
		}
	}
	return out, nil
}

// Holders — сводка "кто что держит": активные выдачи, сгруппированные
// по держателю, самые нагруженные держатели сверху.
func (s *ReportService) Holders(ctx context.Context) ([]dto.HolderGroupDTO, error) {
	rows, err := s.ActiveLoans(ctx)
	if err != nil {
		return nil, err
	}

	byHolder := make(map[string]*dto.HolderGroupDTO)
	for _, row := range rows {
		group, ok := byHolder[row.Holder]
		if !ok {
			group = &dto.HolderGroupDTO{Holder: row.Holder}
			byHolder[row.Holder] = group
		}
		group.Assets = append(group.Assets, row)
		group.Count++
	}

	out := make([]dto.HolderGroupDTO, 0, len(byHolder))
	for _, g := range byHolder {
		out = append(out, *g)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Holder < out[j].Holder
	})
	return out, nil
}

func (s *ReportService) loanRows(ctx context.Context, orgID string) ([]dto.LoanRowDTO, error) {
	checkedOut := entities.StatusCheckedOut
	assets, err := s.store.List(ctx, repositories.AssetFilter{OrgID: orgID, Status: &checkedOut})
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	rows := make([]dto.LoanRowDTO, 0, len(assets))
	for _, asset := range assets {
		row := dto.LoanRowDTO{
			AssetID:   asset.ID,
			AssetName: asset.Name,
			Type:      string(asset.Type),
			Status:    string(asset.Status),
			Holder:    asset.CurrentHolder(),
		}
		if company := asset.MetaData.GetString(entities.MetaHolderCompany); company != "" {
			row.Company = null.StringFrom(company)
		}
		if asset.CheckedOutAt != nil {
			row.CheckedOutAt = null.TimeFrom(*asset.CheckedOutAt)
		}
		if due, ok := asset.DueDate(); ok {
			row.DueDate = null.TimeFrom(due)
			row.Overdue = due.Before(now)
		}
		rows = append(rows, row)
	}

	sort.Slice(rows, func(i, j int) bool {
		ti, tj := rows[i].CheckedOutAt, rows[j].CheckedOutAt
		if ti.Valid != tj.Valid {
			return ti.Valid
		}
		if ti.Valid && !ti.Time.Equal(tj.Time) {
			return ti.Time.Before(tj.Time)
		}
		return rows[i].AssetID < rows[j].AssetID
	})
	return rows, nil
}

func (s *ReportService) fromCache(ctx context.Context, key string) ([]dto.LoanRowDTO, bool) {
	if s.cacheRepo == nil {
		return nil, false
	}
	raw, err := s.cacheRepo.Get(ctx, key)
	if err != nil {
		return nil, false
	}
	var rows []dto.LoanRowDTO
	if err := json.Unmarshal([]byte(raw), &rows); err != nil {
		s.logger.Warn("Повреждённый кеш отчёта", zap.String("key", key), zap.Error(err))
		return nil, false
	}
	return rows, true
}

func (s *ReportService) toCache(ctx context.Context, key string, rows []dto.LoanRowDTO) {
	if s.cacheRepo == nil {
		return
	}
	raw, err := json.Marshal(rows)
	if err != nil {
		return
	}
	if err := s.cacheRepo.Set(ctx, key, string(raw), s.cacheTTL); err != nil {
		s.logger.Warn("Не удалось записать кеш отчёта", zap.String("key", key), zap.Error(err))
	}
}
