//go:build integration
// +build integration

package repository

import (
	"fmt"
	"os"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/revisit-loyalty/internal/models"

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

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{TranslateError: true})
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

func TestPostgresCardSequenceUnderContention(t *testing.T) {
	db := setupPostgresIntegrationDB(t)
	restaurant := createTestRestaurant(t, db, "pg-sequence")
	repo := NewRestaurantRepository(db)

	const workers = 24
	var wg sync.WaitGroup
	values := make([]int, workers)
	errs := make([]error, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(idx int) {
			defer wg.Done()
			values[idx], errs[idx] = repo.NextCardSequence(restaurant.ID)
		}(i)
	}
	wg.Wait()

	seen := make(map[int]struct{}, workers)
	for i := 0; i < workers; i++ {
		if errs[i] != nil {
			t.Fatalf("worker %d failed: %v", i, errs[i])
		}
		if _, dup := seen[values[i]]; dup {
			t.Fatalf("duplicate sequence %d", values[i])
		}
		seen[values[i]] = struct{}{}
	}
	for n := 1; n <= workers; n++ {
		if _, ok := seen[n]; !ok {
			t.Fatalf("sequence %d missing from %v", n, values)
		}
	}
}

func TestPostgresRowLockSerializesBalanceUpdates(t *testing.T) {
	db := setupPostgresIntegrationDB(t)
	restaurant := createTestRestaurant(t, db, "pg-locking")
	customer := &models.Customer{RestaurantID: restaurant.ID, Name: "Ana", Phone: "11999990000", CardNumber: "#0001-9"}
	if err := NewCustomerRepository(db).Create(customer); err != nil {
		t.Fatalf("create customer failed: %v", err)
	}

	const workers = 16
	var wg sync.WaitGroup
	errs := make(chan error, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			errs <- db.Transaction(func(tx *gorm.DB) error {
				repo := NewCustomerRepository(tx)
				locked, err := repo.GetByCardNumberForUpdate(restaurant.ID, "#0001-9")
				if err != nil {
					return err
				}
				if locked == nil {
					return fmt.Errorf("customer not found")
				}
				locked.PointsBalance += 10
				locked.VisitCount++
				now := time.Now()
				locked.LastVisitAt = &now
				return repo.UpdateLedgerState(locked)
			})
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		if err != nil {
			t.Fatalf("locked update failed: %v", err)
		}
	}

	reloaded, err := NewCustomerRepository(db).GetByID(restaurant.ID, customer.ID)
	if err != nil || reloaded == nil {
		t.Fatalf("reload customer failed: %v", err)
	}
	if reloaded.PointsBalance != workers*10 || reloaded.VisitCount != workers {
		t.Fatalf("lost update: balance=%d visits=%d", reloaded.PointsBalance, reloaded.VisitCount)
	}
}

func TestPostgresPhoneUniquenessAndSearch(t *testing.T) {
	db := setupPostgresIntegrationDB(t)
	restaurant := createTestRestaurant(t, db, "pg-unique")
	repo := NewCustomerRepository(db)

	if err := repo.Create(&models.Customer{RestaurantID: restaurant.ID, Name: "Beatriz Souza", Phone: "21988887777", CardNumber: "#0001-9"}); err != nil {
		t.Fatalf("create customer failed: %v", err)
	}
	err := repo.Create(&models.Customer{RestaurantID: restaurant.ID, Name: "Outra", Phone: "21988887777", CardNumber: "#0002-8"})
	if !IsUniqueViolation(err) {
		t.Fatalf("expected unique violation, got %v", err)
	}

	rows, total, err := repo.List(restaurant.ID, CustomerListFilter{Page: 1, PageSize: 10, Search: "beatriz"})
	if err != nil {
		t.Fatalf("list customers failed: %v", err)
	}
	if total != 1 || len(rows) != 1 {
		t.Fatalf("case-insensitive search want 1 got total=%d len=%d", total, len(rows))
	}
}
