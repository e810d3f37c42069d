package seeders

import (
	"context"
	"log"

	"github.com/jackc/pgx/v5/pgxpool"
)

func SeedUsers(db *pgxpool.Pool) {
	ctx := context.Background()
	if err := seedAdminUser(ctx, db); err != nil {
		log.Fatalf("Сидер пользователей завершился с ошибкой: %v", err)
	}
	log.Println("  ✔ Пользователи готовы.")
}

func SeedDemoData(db *pgxpool.Pool) {
	ctx := context.Background()
	if err := seedDemoAssets(ctx, db); err != nil {
		log.Fatalf("Сидер демонстрационных данных завершился с ошибкой: %v", err)
	}
	log.Println("  ✔ Демонстрационные данные готовы.")
}
