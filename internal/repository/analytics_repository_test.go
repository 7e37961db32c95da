package repository

import (
	"testing"
	"time"

	"github.com/beanpass/internal/models"

	"github.com/shopspring/decimal"
)

func TestAnalyticsRepositoryIncrementsAndSets(t *testing.T) {
	db := openRepositoryTestDB(t, "analytics_repo")
	repo := NewAnalyticsRepository(db)

	delta := CounterDelta{CoffeesServed: 1, Revenue: decimal.RequireFromString("4.50"), NewCustomers: 1, UniqueCustomers: 1}
	if err := repo.IncrementDaily(7, "2026-05-01", delta); err != nil {
		t.Fatalf("increment daily failed: %v", err)
	}
	delta.NewCustomers = 0
	delta.UniqueCustomers = 0
	if err := repo.IncrementDaily(7, "2026-05-01", delta); err != nil {
		t.Fatalf("second increment daily failed: %v", err)
	}
	row, err := repo.GetDaily(7, "2026-05-01")
	if err != nil || row == nil {
		t.Fatalf("get daily failed: row=%v err=%v", row, err)
	}
	if row.CoffeesServed != 2 || row.NewCustomers != 1 || row.UniqueCustomers != 1 {
		t.Fatalf("unexpected daily counters: %+v", row)
	}
	if row.Revenue.String() != "9.00" {
		t.Fatalf("unexpected daily revenue: %s", row.Revenue)
	}

	added, err := repo.AddDailyCustomer(7, "2026-05-01", 11)
	if err != nil || !added {
		t.Fatalf("first add customer should be new: added=%v err=%v", added, err)
	}
	added, err = repo.AddDailyCustomer(7, "2026-05-01", 11)
	if err != nil || added {
		t.Fatalf("second add customer should be duplicate: added=%v err=%v", added, err)
	}

	for i := 0; i < 3; i++ {
		if err := repo.IncrementHourly(7, "2026-05-01", 9); err != nil {
			t.Fatalf("increment hourly failed: %v", err)
		}
	}
	hours, err := repo.ListHourly(7, "2026-05-01")
	if err != nil || len(hours) != 1 || hours[0].Redemptions != 3 {
		t.Fatalf("unexpected hourly rows: %+v err=%v", hours, err)
	}
}

func TestAnalyticsRepositoryCreateEventIsIdempotent(t *testing.T) {
	db := openRepositoryTestDB(t, "analytics_repo_event")
	repo := NewAnalyticsRepository(db)
	event := &models.RedemptionEvent{
		TokenID:    5,
		PartnerID:  1,
		StatDate:   "2026-05-01",
		CafeID:     2,
		UserID:     3,
		Hour:       8,
		RedeemedAt: time.Now(),
	}
	created, err := repo.CreateEvent(event)
	if err != nil || !created {
		t.Fatalf("first create should insert: created=%v err=%v", created, err)
	}
	dup := *event
	dup.ID = 0
	created, err = repo.CreateEvent(&dup)
	if err != nil || created {
		t.Fatalf("duplicate create should be skipped: created=%v err=%v", created, err)
	}
}

func TestAnalyticsRepositoryRangeQueries(t *testing.T) {
	db := openRepositoryTestDB(t, "analytics_repo_range")
	repo := NewAnalyticsRepository(db)
	days := []string{"2026-04-30", "2026-05-01", "2026-05-02"}
	for _, day := range days {
		if err := repo.IncrementDaily(1, day, CounterDelta{CoffeesServed: 2, Revenue: decimal.NewFromInt(6)}); err != nil {
			t.Fatalf("increment daily failed: %v", err)
		}
		if _, err := repo.AddDailyCustomer(1, day, 100); err != nil {
			t.Fatalf("add customer failed: %v", err)
		}
		if err := repo.IncrementHourly(1, day, 14); err != nil {
			t.Fatalf("increment hourly failed: %v", err)
		}
	}
	if _, err := repo.AddDailyCustomer(1, "2026-05-02", 101); err != nil {
		t.Fatalf("add customer failed: %v", err)
	}

	rows, err := repo.ListDailyRange(1, "2026-05-01", "2026-05-02")
	if err != nil || len(rows) != 2 {
		t.Fatalf("unexpected range rows: %d err=%v", len(rows), err)
	}
	unique, err := repo.CountUniqueCustomers(1, "2026-04-30", "2026-05-02")
	if err != nil || unique != 2 {
		t.Fatalf("unexpected unique customers: %d err=%v", unique, err)
	}
	totals, err := repo.SumHourlyRange(1, "2026-04-30", "2026-05-02")
	if err != nil || len(totals) != 1 || totals[0].Hour != 14 || totals[0].Total != 3 {
		t.Fatalf("unexpected hourly totals: %+v err=%v", totals, err)
	}

	summary := &models.PartnerWeeklySummary{PartnerID: 1, WeekStart: "2026-04-26", WeekEnd: "2026-05-02", CoffeesServed: 6, ComputedAt: time.Now()}
	if err := repo.UpsertWeekly(summary); err != nil {
		t.Fatalf("upsert weekly failed: %v", err)
	}
	summary2 := &models.PartnerWeeklySummary{PartnerID: 1, WeekStart: "2026-04-27", WeekEnd: "2026-05-03", CoffeesServed: 4, ComputedAt: time.Now()}
	if err := repo.UpsertWeekly(summary2); err != nil {
		t.Fatalf("second upsert weekly failed: %v", err)
	}
	weekly, err := repo.GetWeekly(1)
	if err != nil || weekly == nil {
		t.Fatalf("get weekly failed: %v", err)
	}
	if weekly.WeekEnd != "2026-05-03" || weekly.CoffeesServed != 4 {
		t.Fatalf("weekly summary should be overwritten: %+v", weekly)
	}
}
