package seeders

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"asset-system/pkg/utils"
)

func seedAdminUser(ctx context.Context, db *pgxpool.Pool) error {
	log.Println("  - Создание пользователя 'Администратор'...")

	email := "admin@asset-system.local"
	var userID uint64
	err := db.QueryRow(ctx, "SELECT id FROM users WHERE email = $1", email).Scan(&userID)
	if err == nil {
		log.Println("    - Администратор уже существует. Пропускаем.")
		return nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return fmt.Errorf("ошибка при проверке существования пользователя: %w", err)
	}

	passwordHash, err := utils.HashPassword("ChangeMe123!")
	if err != nil {
		return fmt.Errorf("не удалось захешировать пароль: %w", err)
	}

	_, err = db.Exec(ctx,
		`INSERT INTO users (org_id, email, password_hash, fio, created_at)
		 VALUES ($1, $2, $3, $4, NOW())`,
		"default", email, passwordHash, "Администратор системы",
	)
	if err != nil {
		return fmt.Errorf("не удалось создать администратора: %w", err)
	}

	log.Println("    - Администратор создан:", email)
	return nil
}
