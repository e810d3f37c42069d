package services

import (
	"context"
	"sort"
	"strings"

	"github.com/agnivade/levenshtein"
	"go.uber.org/zap"

	"asset-system/internal/dto"
	"asset-system/internal/entities"
	"asset-system/internal/repositories"
	"asset-system/pkg/utils"
)

// fuzzyThreshold — доля допустимых правок от длины слова.
// 0.3 означает: до 30% символов слова могут отличаться.
const fuzzyThreshold = 0.3

// SearchService — нечёткий поиск по денормализованным ключевым словам
// и группировка ключей по родительским объектам.
type SearchService struct {
	store  repositories.AssetStoreInterface
	logger *zap.Logger
}

func NewSearchService(store repositories.AssetStoreInterface, logger *zap.Logger) *SearchService {
	return &SearchService{store: store, logger: logger}
}

// Search возвращает активы и ключи раздельно. Пустой запрос — полный
// срез: фронту нужен стартовый список без отдельного вызова.
func (s *SearchService) Search(ctx context.Context, query string) (*dto.SearchResultDTO, error) {
	orgID, err := utils.GetOrgIDFromCtx(ctx)
	if err != nil {
		return nil, err
	}

	assets, err := s.store.List(ctx, repositories.AssetFilter{OrgID: orgID})
	if err != nil {
		return nil, err
	}

	result := &dto.SearchResultDTO{
		Assets: make([]entities.Asset, 0),
		Keys:   make([]entities.Asset, 0),
	}

	query = strings.ToLower(strings.TrimSpace(query))
	for _, asset := range assets {
		if query != "" && !matchesKeywords(query, searchTerms(asset)) {
			continue
		}
		if asset.Type == entities.AssetTypeKey {
			result.Keys = append(result.Keys, asset)
		} else {
			result.Assets = append(result.Assets, asset)
		}
	}
	return result, nil
}

// searchTerms — поисковые кандидаты актива: сохранённые ключевые
// слова плюс изменчивые поля, которые в индекс не пишутся (статус
// меняется при каждой выдаче).
func searchTerms(asset entities.Asset) []string {
	terms := append([]string(nil), asset.SearchKeywords...)
	terms = append(terms,
		strings.ToLower(asset.ID),
		strings.ToLower(asset.Area),
		strings.ToLower(string(asset.Status)),
	)
	return terms
}

// matchesKeywords — совпадение по подстроке или по расстоянию
// Левенштейна в пределах порога. Порог считается от длины более
// длинной из двух строк, чтобы короткие слова не матчились со всем
// подряд.
func matchesKeywords(query string, keywords []string) bool {
	for _, kw := range keywords {
		if strings.Contains(kw, query) {
			return true
		}
		longest := len([]rune(kw))
		if l := len([]rune(query)); l > longest {
			longest = l
		}
		if longest == 0 {
			continue
		}
		dist := levenshtein.ComputeDistance(query, kw)
		if float64(dist)/float64(longest) <= fuzzyThreshold {
			return true
		}
	}
	return false
}

// KeyGroups группирует физические ключи по родительскому объекту
// (metaData.assetId). Ключ с нераспознанным родителем образует
// одиночную группу по собственному id и из выдачи не выпадает.
func (s *SearchService) KeyGroups(ctx context.Context) ([]dto.KeyGroupDTO, error) {
	orgID, err := utils.GetOrgIDFromCtx(ctx)
	if err != nil {
		return nil, err
	}

	assets, err := s.store.List(ctx, repositories.AssetFilter{OrgID: orgID})
	if err != nil {
		return nil, err
	}

	parents := make(map[string]*entities.Asset)
	for i := range assets {
		if assets[i].IsParent() {
			parents[assets[i].ID] = &assets[i]
		}
	}

	groups := make(map[string]*dto.KeyGroupDTO)
	for _, asset := range assets {
		if asset.Type != entities.AssetTypeKey {
			continue
		}

		parentID := asset.MetaData.GetString(entities.MetaParentAssetID)
		parent, known := parents[parentID]
		if !known {
			// Одиночная группа: родитель не найден или не указан.
			parentID = asset.ID
		}

		group, ok := groups[parentID]
		if !ok {
			group = &dto.KeyGroupDTO{
				ParentID: parentID,
				Keys:     make([]entities.Asset, 0, 1),
			}
			if known {
				group.ParentName = parent.Name
				group.Location = parent.MetaData.GetString(entities.MetaLocation)
			} else {
				group.ParentName = asset.Name
				group.Location = asset.MetaData.GetString(entities.MetaLocation)
			}
			groups[parentID] = group
		}

		group.Keys = append(group.Keys, asset)
		switch asset.Status {
		case entities.StatusAvailable:
			group.AvailableCount++
		case entities.StatusCheckedOut, entities.StatusMissing:
			// Пропавший ключ на руках не числится, но и на месте его
			// нет — в сводке он «не на месте».
			group.OutCount++
		}
	}

	out := make([]dto.KeyGroupDTO, 0, len(groups))
	for _, g := range groups {
		sort.Slice(g.Keys, func(i, j int) bool { return g.Keys[i].ID < g.Keys[j].ID })
		out = append(out, *g)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].ParentName != out[j].ParentName {
			return out[i].ParentName < out[j].ParentName
		}
		return out[i].ParentID < out[j].ParentID
	})
	return out, nil
}

// ReclassifyRentalParents переводит RENTAL-активы с заполненным
// totalKeys в тип FACILITY. Такие записи — артефакт старого импорта:
// по структуре это родительские объекты, а не арендные позиции.
func (s *SearchService) ReclassifyRentalParents(ctx context.Context) (int, error) {
	orgID, err := utils.GetOrgIDFromCtx(ctx)
	if err != nil {
		return 0, err
	}

	rental := entities.AssetTypeRental
	assets, err := s.store.List(ctx, repositories.AssetFilter{OrgID: orgID, Type: &rental})
	if err != nil {
		return 0, err
	}

	changed := 0
	for _, asset := range assets {
		if asset.TotalKeys == nil {
			continue
		}
		err := s.store.Update(ctx, orgID, asset.ID, map[string]interface{}{
			repositories.FieldType: string(entities.AssetTypeFacility),
		})
		if err != nil {
			s.logger.Error("Ошибка при смене типа актива",
				zap.String("assetId", asset.ID),
				zap.Error(err),
			)
			return changed, err
		}
		changed++
	}

	if changed > 0 {
		s.logger.Info("RENTAL-родители переведены в FACILITY", zap.Int("changed", changed))
	}
	return changed, nil
}
