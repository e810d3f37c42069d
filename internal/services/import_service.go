package services

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"asset-system/internal/dto"
	"asset-system/internal/entities"
	"asset-system/internal/repositories"
	apperrors "asset-system/pkg/errors"
	"asset-system/pkg/utils"
)

// ImportService — массовый импорт активов из xlsx. Ошибки копятся
// построчно, импорт не прерывается на первой: частичный результат
// должен быть виден оператору.
type ImportService struct {
	store  repositories.AssetStoreInterface
	logger *zap.Logger
}

func NewImportService(store repositories.AssetStoreInterface, logger *zap.Logger) *ImportService {
	return &ImportService{store: store, logger: logger}
}

// Колонки листа по заголовку. Заголовки сравниваются без регистра,
// распознаются и русские, и английские варианты.
type importColumns struct {
	name      int
	assetType int
	area      int
	qrCode    int
	totalKeys int
	meta      map[int]string
}

var headerAliases = map[string]string{
	"name":       "name",
	"название":   "name",
	"имя":        "name",
	"type":       "type",
	"тип":        "type",
	"area":       "area",
	"зона":       "area",
	"участок":    "area",
	"qrcode":     "qrCode",
	"qr":         "qrCode",
	"totalkeys":  "totalKeys",
	"ключей":     "totalKeys",
	"keycode":    entities.MetaKeyCode,
	"бирка":      entities.MetaKeyCode,
	"assetid":    entities.MetaParentAssetID,
	"parent":     entities.MetaParentAssetID,
	"location":   entities.MetaLocation,
	"помещение":  entities.MetaLocation,
	"serial":     entities.MetaSerialNumber,
	"серийный":   entities.MetaSerialNumber,
	"госномер":   entities.MetaRegistrationPlate,
	"plate":      entities.MetaRegistrationPlate,
	"tenant":     entities.MetaTenantName,
	"арендатор":  entities.MetaTenantName,
	"держатель":  entities.MetaCurrentHolder,
	"holder":     entities.MetaCurrentHolder,
}

// ImportAssets читает первый лист книги. Первая непустая строка с
// распознанными колонками name и type считается шапкой.
func (s *ImportService) ImportAssets(ctx context.Context, reader io.Reader) (*dto.ImportResultDTO, error) {
	orgID, err := utils.GetOrgIDFromCtx(ctx)
	if err != nil {
		return nil, err
	}

	f, err := excelize.OpenReader(reader)
	if err != nil {
		return nil, apperrors.NewInvalidInputError("не удалось открыть файл: %v", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, apperrors.NewInvalidInputError("в книге нет листов")
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, apperrors.NewInvalidInputError("не удалось прочитать лист: %v", err)
	}

	cols, headerRow := findHeader(rows)
	if cols == nil {
		return nil, apperrors.NewInvalidInputError("не найдена шапка таблицы: нужны колонки 'name' и 'type'")
	}

	existing, err := s.existingByQRCode(ctx, orgID)
	if err != nil {
		return nil, err
	}

	result := &dto.ImportResultDTO{Errors: make([]dto.ImportErrorDTO, 0)}
	for i := headerRow + 1; i < len(rows); i++ {
		row := rows[i]
		lineNum := i + 1

		name := cellAt(row, cols.name)
		if name == "" {
			continue
		}

		asset, rowErr := buildImportAsset(orgID, row, cols)
		if rowErr != nil {
			result.Errors = append(result.Errors, dto.ImportErrorDTO{Row: lineNum, Message: rowErr.Error()})
			continue
		}

		if prev, ok := existing[asset.QRCode]; ok && asset.QRCode != "" {
			err = s.store.Update(ctx, orgID, prev, importUpdateFields(asset))
			if err != nil {
				result.Errors = append(result.Errors, dto.ImportErrorDTO{Row: lineNum, Message: err.Error()})
				continue
			}
			result.Updated++
			continue
		}

		id, err := s.store.Create(ctx, asset)
		if err != nil {
			result.Errors = append(result.Errors, dto.ImportErrorDTO{Row: lineNum, Message: err.Error()})
			continue
		}
		if asset.QRCode != "" {
			existing[asset.QRCode] = id
		}
		result.Created++
	}

	s.logger.Info("Импорт активов завершён",
		zap.Int("created", result.Created),
		zap.Int("updated", result.Updated),
		zap.Int("errors", len(result.Errors)),
	)
	return result, nil
}

func findHeader(rows [][]string) (*importColumns, int) {
	for rIdx, row := range rows {
		cols := &importColumns{name: -1, assetType: -1, area: -1, qrCode: -1, totalKeys: -1, meta: make(map[int]string)}
		for cIdx, cell := range row {
			key := strings.ToLower(strings.TrimSpace(cell))
			target, ok := headerAliases[key]
			if !ok {
				continue
			}
			switch target {
			case "name":
				cols.name = cIdx
			case "type":
				cols.assetType = cIdx
			case "area":
				cols.area = cIdx
			case "qrCode":
				cols.qrCode = cIdx
			case "totalKeys":
				cols.totalKeys = cIdx
			default:
				cols.meta[cIdx] = target
			}
		}
		if cols.name != -1 && cols.assetType != -1 {
			return cols, rIdx
		}
	}
	return nil, -1
}

func buildImportAsset(orgID string, row []string, cols *importColumns) (*entities.Asset, error) {
	rawType := strings.ToUpper(cellAt(row, cols.assetType))
	assetType := entities.AssetType(rawType)
	switch assetType {
	case entities.AssetTypeKey, entities.AssetTypeITDevice, entities.AssetTypeVehicle,
		entities.AssetTypeRental, entities.AssetTypeFacility:
	default:
		return nil, fmt.Errorf("неизвестный тип актива: %q", rawType)
	}

	asset := &entities.Asset{
		OrgID:    orgID,
		Name:     cellAt(row, cols.name),
		Type:     assetType,
		Status:   entities.StatusAvailable,
		Area:     cellAt(row, cols.area),
		QRCode:   cellAt(row, cols.qrCode),
		MetaData: entities.Metadata{},
	}

	if raw := cellAt(row, cols.totalKeys); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			return nil, fmt.Errorf("некорректное значение totalKeys: %q", raw)
		}
		asset.TotalKeys = &n
	}

	for cIdx, metaKey := range cols.meta {
		if value := cellAt(row, cIdx); value != "" {
			asset.MetaData[metaKey] = value
		}
	}
	return asset, nil
}

func importUpdateFields(asset *entities.Asset) map[string]interface{} {
	fields := map[string]interface{}{
		repositories.FieldName: asset.Name,
		repositories.FieldType: string(asset.Type),
	}
	if asset.Area != "" {
		fields[repositories.FieldArea] = asset.Area
	}
	if asset.TotalKeys != nil {
		fields[repositories.FieldTotalKeys] = *asset.TotalKeys
	}
	for key, value := range asset.MetaData {
		fields["metaData."+key] = value
	}
	return fields
}

func (s *ImportService) existingByQRCode(ctx context.Context, orgID string) (map[string]string, error) {
	assets, err := s.store.List(ctx, repositories.AssetFilter{OrgID: orgID})
	if err != nil {
		return nil, err
	}
	byQR := make(map[string]string, len(assets))
	for _, a := range assets {
		if a.QRCode != "" {
			byQR[a.QRCode] = a.ID
		}
	}
	return byQR, nil
}

func cellAt(row []string, idx int) string {
	if idx < 0 || idx >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[idx])
}
