package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/zaryan/api/internal/config"
	"github.com/zaryan/api/internal/logger"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

func main() {
	// CLI flags
	email := flag.String("email", "", "Owner email address")
	password := flag.String("password", "", "Owner password")
	name := flag.String("name", "", "Owner full name")
	demo := flag.Bool("demo", false, "Also create a demo customer and inventory item")
	flag.Parse()

	cfg := config.Load()
	log, err := logger.New(cfg.IsProduction())
	if err != nil {
		panic(err)
	}
	defer log.Sync() //nolint:errcheck

	// Fall back to environment variables, then defaults
	if *email == "" {
		*email = os.Getenv("SEED_EMAIL")
	}
	if *password == "" {
		*password = os.Getenv("SEED_PASSWORD")
	}
	if *name == "" {
		*name = os.Getenv("SEED_NAME")
	}
	if *email == "" {
		*email = "owner@zaryan.local"
	}
	if *password == "" {
		*password = "password123"
		log.Warn("using default password 'password123', change it before going live")
	}
	if *name == "" {
		*name = "Zaryan Owner"
	}

	ctx := context.Background()
	pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatal("connect to database", zap.Error(err))
	}
	defer pool.Close()

	if err := pool.Ping(ctx); err != nil {
		log.Fatal("ping database", zap.Error(err))
	}

	// Seed in a transaction: all rows or none
	tx, err := pool.Begin(ctx)
	if err != nil {
		log.Fatal("begin transaction", zap.Error(err))
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	userID, err := seedOwner(ctx, log, tx, *email, *password, *name)
	if err != nil {
		log.Fatal("seed owner", zap.Error(err))
	}

	if *demo {
		if err := seedDemoData(ctx, log, tx, userID); err != nil {
			log.Fatal("seed demo data", zap.Error(err))
		}
	}

	if err := tx.Commit(ctx); err != nil {
		log.Fatal("commit", zap.Error(err))
	}

	log.Info("seed completed", zap.String("owner_id", userID.String()), zap.String("email", *email))
}

// seedOwner creates the owner user if it doesn't exist.
func seedOwner(ctx context.Context, log *zap.Logger, tx pgx.Tx, email, password, fullName string) (uuid.UUID, error) {
	var existingID uuid.UUID
	err := tx.QueryRow(ctx, `SELECT id FROM users WHERE email = $1 LIMIT 1`, email).Scan(&existingID)
	if err == nil {
		log.Info("user already exists, skipping", zap.String("email", email), zap.String("id", existingID.String()))
		return existingID, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return uuid.Nil, fmt.Errorf("check user: %w", err)
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return uuid.Nil, fmt.Errorf("hash password: %w", err)
	}

	insertSQL := `
		INSERT INTO users (email, hashed_password, full_name, role)
		VALUES ($1, $2, $3, 'OWNER')
		RETURNING id
	`
	var newID uuid.UUID
	if err := tx.QueryRow(ctx, insertSQL, email, string(hashed), fullName).Scan(&newID); err != nil {
		return uuid.Nil, fmt.Errorf("insert user: %w", err)
	}

	log.Info("created owner user", zap.String("email", email), zap.String("id", newID.String()))
	return newID, nil
}

// seedDemoData adds one customer and one stocked item so a first sale can be
// recorded right away. Existing rows are left alone.
func seedDemoData(ctx context.Context, log *zap.Logger, tx pgx.Tx, userID uuid.UUID) error {
	tag, err := tx.Exec(ctx, `
		INSERT INTO customers (user_id, name, phone, address)
		VALUES ($1, 'Bilal Ahmed', '03001234567', 'Model Town, Lahore')
		ON CONFLICT (user_id, phone) DO NOTHING
	`, userID)
	if err != nil {
		return fmt.Errorf("insert demo customer: %w", err)
	}
	log.Info("demo customer", zap.Int64("inserted", tag.RowsAffected()))

	tag, err = tx.Exec(ctx, `
		INSERT INTO inventory_items (user_id, name, sku, category, quantity, cost_price, sale_price)
		VALUES ($1, 'Dawlance Refrigerator 9178', 'DW-9178', 'refrigerator', 5, 95000, 120000)
		ON CONFLICT (user_id, sku) DO NOTHING
	`, userID)
	if err != nil {
		return fmt.Errorf("insert demo item: %w", err)
	}
	log.Info("demo inventory item", zap.Int64("inserted", tag.RowsAffected()))
	return nil
}
