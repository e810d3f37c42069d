package dto

import "asset-system/internal/entities"

// KeyGroupDTO — группа физических ключей одного родителя (двери/объекта).
// Ключ без распознанного родителя образует одиночную группу по своему id,
// а не выпадает из выдачи.
type KeyGroupDTO struct {
	ParentID       string           `json:"parentId"`
	ParentName     string           `json:"parentName"`
	Location       string           `json:"location"`
	Keys           []entities.Asset `json:"keys"`
	AvailableCount int              `json:"availableCount"`
	OutCount       int              `json:"outCount"`
}

// SearchResultDTO — результат нечёткого поиска: активы и ключи отдельно.
type SearchResultDTO struct {
	Assets []entities.Asset `json:"assets"`
	Keys   []entities.Asset `json:"keys"`
}
