package seeders

import (
	"context"
	"fmt"
	"log"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"asset-system/internal/entities"
)

// Демонстрационный набор: пара дверей с копиями ключей, техника и
// транспорт. Нужен для ручной проверки поиска, группировки и выдачи.
func seedDemoAssets(ctx context.Context, db *pgxpool.Pool) error {
	log.Println("  - Наполнение демонстрационными активами...")

	var count int
	if err := db.QueryRow(ctx, "SELECT COUNT(*) FROM assets WHERE org_id = 'default'").Scan(&count); err != nil {
		return fmt.Errorf("ошибка проверки коллекции активов: %w", err)
	}
	if count > 0 {
		log.Println("    - Коллекция не пуста. Пропускаем.")
		return nil
	}

	two := 2
	doorID := uuid.NewString()
	demo := []entities.Asset{
		{
			ID:        doorID,
			Name:      "Серверная, 2 этаж",
			Type:      entities.AssetTypeFacility,
			TotalKeys: &two,
			MetaData:  entities.Metadata{entities.MetaLocation: "Корпус А"},
		},
		{
			Name:     "Ключ серверная #1",
			Type:     entities.AssetTypeKey,
			QRCode:   "KEY-SRV-01",
			MetaData: entities.Metadata{entities.MetaKeyCode: "SRV", entities.MetaParentAssetID: doorID},
		},
		{
			Name:     "Ключ серверная #2",
			Type:     entities.AssetTypeKey,
			QRCode:   "KEY-SRV-02",
			MetaData: entities.Metadata{entities.MetaKeyCode: "SRV", entities.MetaParentAssetID: doorID},
		},
		{
			Name:     "Ноутбук Dell Latitude 5440",
			Type:     entities.AssetTypeITDevice,
			MetaData: entities.Metadata{entities.MetaSerialNumber: "DL5440-8812"},
		},
		{
			Name:     "Toyota Hilux",
			Type:     entities.AssetTypeVehicle,
			MetaData: entities.Metadata{entities.MetaRegistrationPlate: "0101AB01"},
		},
	}

	for i := range demo {
		asset := &demo[i]
		if asset.ID == "" {
			asset.ID = uuid.NewString()
		}
		asset.OrgID = "default"
		asset.Status = entities.StatusAvailable
		asset.RebuildSearchKeywords()

		_, err := db.Exec(ctx,
			`INSERT INTO assets (id, org_id, name, type, status, area, total_keys, qr_code, meta_data, search_keywords)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
			asset.ID, asset.OrgID, asset.Name, asset.Type, asset.Status, asset.Area,
			asset.TotalKeys, asset.QRCode, asset.MetaData, asset.SearchKeywords,
		)
		if err != nil {
			return fmt.Errorf("не удалось вставить актив %q: %w", asset.Name, err)
		}
	}

	log.Printf("    - Вставлено %d демонстрационных активов.", len(demo))
	return nil
}
