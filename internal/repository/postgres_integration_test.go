//go:build integration
// +build integration

package repository

import (
	"os"
	"strings"
	"testing"
	"time"

	"github.com/beanpass/internal/models"

	"github.com/shopspring/decimal"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// setupPostgresIntegrationDB 初始化 PostgreSQL 集成测试数据库。
func setupPostgresIntegrationDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := strings.TrimSpace(os.Getenv("TEST_POSTGRES_DSN"))
	if dsn == "" {
		t.Skip("skip postgres integration test: TEST_POSTGRES_DSN is empty")
	}

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open postgres failed: %v", err)
	}

	cleanupModels := models.AllModels()
	_ = db.Migrator().DropTable(cleanupModels...)
	if err := db.AutoMigrate(cleanupModels...); err != nil {
		t.Fatalf("migrate postgres models failed: %v", err)
	}

	t.Cleanup(func() {
		_ = db.Migrator().DropTable(cleanupModels...)
		sqlDB, err := db.DB()
		if err == nil {
			_ = sqlDB.Close()
		}
	})

	return db
}

func TestPostgresAnalyticsUpserts(t *testing.T) {
	db := setupPostgresIntegrationDB(t)
	repo := NewAnalyticsRepository(db)

	for i := 0; i < 2; i++ {
		if err := repo.IncrementDaily(1, "2026-05-01", CounterDelta{
			CoffeesServed: 1,
			Revenue:       decimal.RequireFromString("3.25"),
		}); err != nil {
			t.Fatalf("increment daily failed: %v", err)
		}
		if err := repo.IncrementHourly(1, "2026-05-01", 10); err != nil {
			t.Fatalf("increment hourly failed: %v", err)
		}
		if err := repo.IncrementMonthly(1, "2026-05", CounterDelta{CoffeesServed: 1}); err != nil {
			t.Fatalf("increment monthly failed: %v", err)
		}
	}
	row, err := repo.GetDaily(1, "2026-05-01")
	if err != nil || row == nil {
		t.Fatalf("get daily failed: %v", err)
	}
	if row.CoffeesServed != 2 || row.Revenue.String() != "6.50" {
		t.Fatalf("unexpected daily row: %+v", row)
	}
	added, err := repo.AddMonthlyCustomer(1, "2026-05", 3)
	if err != nil || !added {
		t.Fatalf("monthly customer should be added: %v", err)
	}
	added, err = repo.AddMonthlyCustomer(1, "2026-05", 3)
	if err != nil || added {
		t.Fatalf("monthly customer should be deduplicated: %v", err)
	}
}

func TestPostgresTokenLockAndMarkUsed(t *testing.T) {
	db := setupPostgresIntegrationDB(t)
	repo := NewRedemptionTokenRepository(db)
	now := time.Now().UTC().Truncate(time.Second)
	token := &models.RedemptionToken{
		UniqueCode:     "BPPGLOCK",
		UserID:         1,
		CafeID:         1,
		SubscriptionID: 1,
		IssuedAt:       now,
		ValidUntil:     now.Add(5 * time.Minute),
	}
	if err := repo.Create(token); err != nil {
		t.Fatalf("create token failed: %v", err)
	}
	err := db.Transaction(func(tx *gorm.DB) error {
		txRepo := repo.WithTx(tx)
		locked, err := txRepo.GetByCodeForUpdate("BPPGLOCK")
		if err != nil || locked == nil {
			t.Fatalf("lock token failed: %v", err)
		}
		affected, err := txRepo.MarkUsed(locked.ID, 2, now)
		if err != nil || affected != 1 {
			t.Fatalf("mark used failed: affected=%d err=%v", affected, err)
		}
		return nil
	})
	if err != nil {
		t.Fatalf("transaction failed: %v", err)
	}
	affected, err := repo.MarkUsed(token.ID, 2, now)
	if err != nil || affected != 0 {
		t.Fatalf("second mark should be rejected: affected=%d err=%v", affected, err)
	}
}
