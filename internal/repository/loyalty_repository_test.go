package repository

import (
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/revisit-loyalty/internal/models"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
)

func setupLoyaltyRepositoryTest(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:loyalty_repo_test_%d?mode=memory&cache=shared", time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{TranslateError: true})
	if err != nil {
		t.Fatalf("open sqlite failed: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("get sql db failed: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	if err := db.AutoMigrate(models.AllModels()...); err != nil {
		t.Fatalf("auto migrate failed: %v", err)
	}
	return db
}

func createTestRestaurant(t *testing.T, db *gorm.DB, slug string) *models.Restaurant {
	t.Helper()
	restaurant := &models.Restaurant{Slug: slug, Name: slug, EarnRate: 1, RewardType: "cashback"}
	if err := NewRestaurantRepository(db).Create(restaurant); err != nil {
		t.Fatalf("create restaurant failed: %v", err)
	}
	return restaurant
}

func TestRepositoriesRejectEmptyTenant(t *testing.T) {
	db := setupLoyaltyRepositoryTest(t)

	if _, err := NewCustomerRepository(db).GetByCardNumber("", "#0001-9"); !errors.Is(err, ErrTenantRequired) {
		t.Fatalf("customer lookup: want ErrTenantRequired got %v", err)
	}
	if _, err := NewRankRepository(db).ListByRestaurant(" "); !errors.Is(err, ErrTenantRequired) {
		t.Fatalf("rank list: want ErrTenantRequired got %v", err)
	}
	if _, err := NewRestaurantRepository(db).NextCardSequence(""); !errors.Is(err, ErrTenantRequired) {
		t.Fatalf("card sequence: want ErrTenantRequired got %v", err)
	}
	if err := NewPointTransactionRepository(db).Create(&models.PointTransaction{CustomerID: "x"}); !errors.Is(err, ErrTenantRequired) {
		t.Fatalf("ledger append: want ErrTenantRequired got %v", err)
	}
}

func TestNextCardSequenceIsPerTenantAndMonotonic(t *testing.T) {
	db := setupLoyaltyRepositoryTest(t)
	repo := NewRestaurantRepository(db)
	a := createTestRestaurant(t, db, "alpha")
	b := createTestRestaurant(t, db, "beta")

	for want := 1; want <= 3; want++ {
		got, err := repo.NextCardSequence(a.ID)
		if err != nil {
			t.Fatalf("next sequence failed: %v", err)
		}
		if got != want {
			t.Fatalf("tenant a sequence want %d got %d", want, got)
		}
	}
	got, err := repo.NextCardSequence(b.ID)
	if err != nil {
		t.Fatalf("next sequence failed: %v", err)
	}
	if got != 1 {
		t.Fatalf("tenant b should start at 1, got %d", got)
	}
}

func TestNextCardSequenceCreatesMissingCounter(t *testing.T) {
	db := setupLoyaltyRepositoryTest(t)
	restaurant := &models.Restaurant{Slug: "legacy", Name: "legacy", EarnRate: 1, RewardType: "cashback"}
	if err := db.Create(restaurant).Error; err != nil {
		t.Fatalf("create restaurant failed: %v", err)
	}
	got, err := NewRestaurantRepository(db).NextCardSequence(restaurant.ID)
	if err != nil {
		t.Fatalf("next sequence failed: %v", err)
	}
	if got != 1 {
		t.Fatalf("want 1 got %d", got)
	}
}

func TestNextCardSequenceConcurrentUnique(t *testing.T) {
	db := setupLoyaltyRepositoryTest(t)
	repo := NewRestaurantRepository(db)
	restaurant := createTestRestaurant(t, db, "busy")

	const workers = 20
	results := make(chan int, workers)
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			seq, err := repo.NextCardSequence(restaurant.ID)
			if err != nil {
				t.Errorf("next sequence failed: %v", err)
				return
			}
			results <- seq
		}()
	}
	wg.Wait()
	close(results)

	seen := map[int]bool{}
	for seq := range results {
		if seen[seq] {
			t.Fatalf("duplicate sequence %d", seq)
		}
		seen[seq] = true
	}
	if len(seen) != workers {
		t.Fatalf("want %d sequences got %d", workers, len(seen))
	}
}

func TestCustomerPhoneUniqueAmongActiveRows(t *testing.T) {
	db := setupLoyaltyRepositoryTest(t)
	repo := NewCustomerRepository(db)
	restaurant := createTestRestaurant(t, db, "phones")
	other := createTestRestaurant(t, db, "other")

	first := &models.Customer{RestaurantID: restaurant.ID, Name: "Ana", Phone: "11999990000", CardNumber: "#0001-9"}
	if err := repo.Create(first); err != nil {
		t.Fatalf("create customer failed: %v", err)
	}
	dup := &models.Customer{RestaurantID: restaurant.ID, Name: "Ana", Phone: "11999990000", CardNumber: "#0002-8"}
	if err := repo.Create(dup); !IsUniqueViolation(err) {
		t.Fatalf("expected unique violation, got %v", err)
	}

	sameInOtherTenant := &models.Customer{RestaurantID: other.ID, Name: "Ana", Phone: "11999990000", CardNumber: "#0001-9"}
	if err := repo.Create(sameInOtherTenant); err != nil {
		t.Fatalf("same phone in another tenant should be allowed: %v", err)
	}

	if err := db.Delete(first).Error; err != nil {
		t.Fatalf("soft delete failed: %v", err)
	}
	again := &models.Customer{RestaurantID: restaurant.ID, Name: "Ana", Phone: "11999990000", CardNumber: "#0003-7"}
	if err := repo.Create(again); err != nil {
		t.Fatalf("re-enrollment after soft delete should succeed: %v", err)
	}
}

func TestCustomerLookupIsTenantScoped(t *testing.T) {
	db := setupLoyaltyRepositoryTest(t)
	repo := NewCustomerRepository(db)
	a := createTestRestaurant(t, db, "scope-a")
	b := createTestRestaurant(t, db, "scope-b")

	if err := repo.Create(&models.Customer{RestaurantID: a.ID, Name: "Bia", Phone: "11988887777", CardNumber: "#0001-9"}); err != nil {
		t.Fatalf("create customer failed: %v", err)
	}
	found, err := repo.GetByCardNumber(b.ID, "#0001-9")
	if err != nil {
		t.Fatalf("lookup failed: %v", err)
	}
	if found != nil {
		t.Fatalf("customer leaked across tenants")
	}
	found, err = repo.GetByCardNumberForUpdate(a.ID, "#0001-9")
	if err != nil || found == nil {
		t.Fatalf("expected customer in own tenant, err=%v", err)
	}
}

func TestCustomerListSearch(t *testing.T) {
	db := setupLoyaltyRepositoryTest(t)
	repo := NewCustomerRepository(db)
	restaurant := createTestRestaurant(t, db, "search")

	rows := []models.Customer{
		{RestaurantID: restaurant.ID, Name: "Carlos Souza", Phone: "11900000001", CardNumber: "#0001-9"},
		{RestaurantID: restaurant.ID, Name: "Daniela Lima", Phone: "11900000002", CardNumber: "#0002-8"},
		{RestaurantID: restaurant.ID, Name: "Carla Dias", Phone: "11900000003", CardNumber: "#0003-7"},
	}
	for i := range rows {
		if err := repo.Create(&rows[i]); err != nil {
			t.Fatalf("create customer failed: %v", err)
		}
	}

	list, total, err := repo.List(restaurant.ID, CustomerListFilter{Search: "Car", Page: 1, PageSize: 10})
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if total != 2 || len(list) != 2 {
		t.Fatalf("want 2 results got total=%d len=%d", total, len(list))
	}
	if list[0].CardNumber != "#0001-9" {
		t.Fatalf("unexpected order: %s", list[0].CardNumber)
	}

	page, total, err := repo.List(restaurant.ID, CustomerListFilter{Page: 2, PageSize: 2})
	if err != nil {
		t.Fatalf("list page 2 failed: %v", err)
	}
	if total != 3 || len(page) != 1 || page[0].CardNumber != "#0003-7" {
		t.Fatalf("unexpected page 2: total=%d len=%d", total, len(page))
	}

	_, total, err = repo.List(restaurant.ID, CustomerListFilter{Search: "%", Page: 1, PageSize: 10})
	if err != nil {
		t.Fatalf("wildcard search failed: %v", err)
	}
	if total != 0 {
		t.Fatalf("percent sign must be matched literally, got %d rows", total)
	}
}

func TestRankReplaceAllAndEntryRank(t *testing.T) {
	db := setupLoyaltyRepositoryTest(t)
	repo := NewRankRepository(db)
	restaurant := createTestRestaurant(t, db, "ranks")

	gold, _ := models.RateFromString("1.5")
	one, _ := models.RateFromString("1")
	if err := repo.ReplaceAll(restaurant.ID, []models.Rank{
		{Name: "Bronze", SortOrder: 0, MinVisits: 0, Multiplier: one},
		{Name: "Ouro", SortOrder: 1, MinVisits: 10, Multiplier: gold},
	}); err != nil {
		t.Fatalf("replace ranks failed: %v", err)
	}
	if err := repo.ReplaceAll(restaurant.ID, []models.Rank{
		{Name: "Iniciante", SortOrder: 0, MinVisits: 0, Multiplier: one},
	}); err != nil {
		t.Fatalf("second replace failed: %v", err)
	}

	ranks, err := repo.ListByRestaurant(restaurant.ID)
	if err != nil {
		t.Fatalf("list ranks failed: %v", err)
	}
	if len(ranks) != 1 || ranks[0].Name != "Iniciante" {
		t.Fatalf("ranks not replaced: %+v", ranks)
	}
	entry, err := repo.GetEntryRank(restaurant.ID)
	if err != nil || entry == nil {
		t.Fatalf("entry rank missing, err=%v", err)
	}
	if !entry.Multiplier.Equal(one.Decimal) {
		t.Fatalf("multiplier round trip failed: %s", entry.Multiplier.String())
	}
}

func TestFirstAffordableConfigCheapestActive(t *testing.T) {
	db := setupLoyaltyRepositoryTest(t)
	repo := NewRewardRepository(db)
	restaurant := createTestRestaurant(t, db, "rewards")

	configs := []models.RewardConfig{
		{RestaurantID: restaurant.ID, Name: "Sobremesa", PointsRequired: 50, IsActive: true},
		{RestaurantID: restaurant.ID, Name: "Café", PointsRequired: 20, IsActive: true},
		{RestaurantID: restaurant.ID, Name: "Prato", PointsRequired: 150, IsActive: true},
	}
	for i := range configs {
		if err := repo.CreateConfig(&configs[i]); err != nil {
			t.Fatalf("create config failed: %v", err)
		}
	}
	configs[1].IsActive = false
	if err := repo.UpdateConfig(&configs[1]); err != nil {
		t.Fatalf("deactivate config failed: %v", err)
	}

	got, err := repo.FirstAffordableConfig(restaurant.ID, 100)
	if err != nil {
		t.Fatalf("first affordable failed: %v", err)
	}
	if got == nil || got.Name != "Sobremesa" {
		t.Fatalf("expected Sobremesa, got %+v", got)
	}
	got, err = repo.FirstAffordableConfig(restaurant.ID, 10)
	if err != nil {
		t.Fatalf("first affordable failed: %v", err)
	}
	if got != nil {
		t.Fatalf("expected nothing affordable, got %+v", got)
	}
	inactive, err := repo.GetActiveConfig(restaurant.ID, configs[1].ID)
	if err != nil {
		t.Fatalf("get active config failed: %v", err)
	}
	if inactive != nil {
		t.Fatalf("inactive config should not be returned")
	}
}
