//go:build integration
// +build integration

package service

import (
	"context"
	"errors"
	"os"
	"strings"
	"sync"
	"testing"

	"github.com/revisit-loyalty/internal/constants"
	"github.com/revisit-loyalty/internal/models"

	"github.com/shopspring/decimal"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// setupPostgresLoyaltyEnv 在 PostgreSQL 上装配服务，行锁在此真正生效
func setupPostgresLoyaltyEnv(t *testing.T) *loyaltyTestEnv {
	t.Helper()

	dsn := strings.TrimSpace(os.Getenv("TEST_POSTGRES_DSN"))
	if dsn == "" {
		t.Skip("skip postgres integration test: TEST_POSTGRES_DSN is empty")
	}
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{TranslateError: true})
	if err != nil {
		t.Fatalf("open postgres failed: %v", err)
	}
	all := models.AllModels()
	_ = db.Migrator().DropTable(all...)
	if err := db.AutoMigrate(all...); err != nil {
		t.Fatalf("migrate postgres models failed: %v", err)
	}
	t.Cleanup(func() {
		_ = db.Migrator().DropTable(all...)
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	return newLoyaltyTestEnv(db)
}

func TestPostgresConcurrentRedeemsNeverOverspend(t *testing.T) {
	env := setupPostgresLoyaltyEnv(t)
	ctx := context.Background()
	restaurant, actor := env.createRestaurant(t, "pg-redeem", 1, constants.RewardTypeFreeProduct)
	customer := env.register(t, restaurant.ID, "11955550000")
	config, err := env.rewards.Create(ctx, restaurant.ID, RewardConfigInput{Name: "Sobremesa", PointsRequired: 100})
	if err != nil {
		t.Fatalf("create reward config failed: %v", err)
	}
	if _, err := env.ledger.Adjust(ctx, actor, AdjustInput{CustomerID: customer.CustomerID, Delta: 150, Note: "saldo inicial"}); err != nil {
		t.Fatalf("adjust failed: %v", err)
	}

	const workers = 8
	var wg sync.WaitGroup
	errs := make([]error, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(idx int) {
			defer wg.Done()
			_, errs[idx] = env.redemptions.Redeem(ctx, actor, RedeemInput{
				CardNumber:     customer.CardNumber,
				RewardType:     constants.RewardTypeFreeProduct,
				RewardConfigID: config.ID,
			})
		}(i)
	}
	wg.Wait()

	succeeded := 0
	for i, err := range errs {
		switch {
		case err == nil:
			succeeded++
		case errors.Is(err, ErrInsufficientPoints):
		default:
			t.Fatalf("redeem %d failed unexpectedly: %v", i, err)
		}
	}
	if succeeded != 1 {
		t.Fatalf("expected exactly one redemption, got %d", succeeded)
	}
	if got := env.balance(t, restaurant.ID, customer.CustomerID); got != 50 {
		t.Fatalf("unexpected balance after redeems: %d", got)
	}
	var rows int64
	if err := env.db.Model(&models.RewardRedemption{}).Where("restaurant_id = ?", restaurant.ID).Count(&rows).Error; err != nil {
		t.Fatalf("count redemptions failed: %v", err)
	}
	if rows != 1 {
		t.Fatalf("expected one redemption row, got %d", rows)
	}
	report, err := env.ledger.VerifyLedger(ctx, restaurant.ID, customer.CustomerID)
	if err != nil || !report.Consistent {
		t.Fatalf("ledger must reconcile: %+v err=%v", report, err)
	}
}

func TestPostgresConcurrentSalesKeepLedgerConsistent(t *testing.T) {
	env := setupPostgresLoyaltyEnv(t)
	ctx := context.Background()
	restaurant, actor := env.createRestaurant(t, "pg-sales", 2, constants.RewardTypeCashback)
	if _, err := env.ranks.ReplaceRanks(ctx, restaurant.ID, []RankInput{
		{Name: "Casa", MinVisits: 0, Multiplier: decimal.NewFromInt(1), DiscountPct: decimal.Zero},
	}); err != nil {
		t.Fatalf("replace ranks failed: %v", err)
	}
	customer := env.register(t, restaurant.ID, "11955551111")

	const workers = 12
	var wg sync.WaitGroup
	errs := make([]error, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(idx int) {
			defer wg.Done()
			_, errs[idx] = env.sales.RegisterSale(ctx, actor, RegisterSaleInput{CardNumber: customer.CardNumber, AmountCents: 1000})
		}(i)
	}
	wg.Wait()
	for i, err := range errs {
		if err != nil {
			t.Fatalf("sale %d failed: %v", i, err)
		}
	}

	loaded, err := env.customers.GetCustomer(ctx, restaurant.ID, customer.CustomerID)
	if err != nil {
		t.Fatalf("load customer failed: %v", err)
	}
	if loaded.VisitCount != workers || loaded.TotalSpend != workers*1000 || loaded.PointsBalance != workers*20 {
		t.Fatalf("lost update detected: visits=%d spend=%d balance=%d", loaded.VisitCount, loaded.TotalSpend, loaded.PointsBalance)
	}
	report, err := env.ledger.VerifyLedger(ctx, restaurant.ID, customer.CustomerID)
	if err != nil {
		t.Fatalf("verify failed: %v", err)
	}
	if !report.Consistent || report.Entries != workers {
		t.Fatalf("ledger must reconcile after concurrent sales: %+v", report)
	}
}
