package main

import (
	"flag"
	"log"

	"asset-system/pkg/config"
	"asset-system/pkg/database/postgresql"
	"asset-system/seeders"

	_ "github.com/jackc/pgx/v5/stdlib"
)

func main() {
	log.Println("======================================================")
	log.Println("       🌱 СИСТЕМА СИДЕРОВ (Наполнение БД)           ")
	log.Println("======================================================")

	runUsers := flag.Bool("users", false, "Создать административного пользователя")
	runDemo := flag.Bool("demo", false, "Наполнить коллекцию демонстрационными активами")
	runAll := flag.Bool("all", false, "Запустить все сидеры (эквивалентно -users -demo)")

	flag.Parse()

	if !*runUsers && !*runDemo && !*runAll {
		log.Println("❌ Не выбран ни один сидер для запуска.")
		log.Println("")
		log.Println("Доступные флаги:")
		flag.PrintDefaults()
		log.Println("")
		log.Println("Примеры использования:")
		log.Println("  go run ./seeders/cmd/seed/main.go -users")
		log.Println("  go run ./seeders/cmd/seed/main.go -all")
		log.Println("======================================================")
		return
	}

	cfg := config.New()
	log.Println("📦 Используется DSN:", cfg.Postgres.DSN)

	if err := postgresql.Migrate(cfg.Postgres.DSN); err != nil {
		log.Fatalf("Ошибка применения миграций: %v", err)
	}

	dbPool := postgresql.ConnectDB(cfg.Postgres.DSN)
	defer dbPool.Close()

	log.Println("======================================================")

	if *runAll || *runUsers {
		seeders.SeedUsers(dbPool)
		log.Println("======================================================")
	}

	if *runAll || *runDemo {
		seeders.SeedDemoData(dbPool)
		log.Println("======================================================")
	}

	log.Println("✅ Сидеры завершили работу.")
}
