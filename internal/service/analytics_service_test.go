package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/beanpass/internal/config"
	"github.com/beanpass/internal/constants"
	"github.com/beanpass/internal/models"

	"github.com/shopspring/decimal"
)

type failingPublisher struct {
	calls int
}

func (p *failingPublisher) Publish(ctx context.Context, event models.AnalyticsOutbox) error {
	p.calls++
	return errors.New("broker unavailable")
}

func redeemOne(t *testing.T, f *serviceFixture, partnerID, cafeID, userID uint, productID *uint) *models.RedemptionToken {
	t.Helper()
	token, err := f.qrcodes.Issue(IssueQRCodeInput{UserID: userID, CafeID: cafeID, ProductID: productID})
	if err != nil {
		t.Fatalf("issue failed: %v", err)
	}
	result, err := f.redemptions.Redeem(context.Background(), RedeemInput{
		PartnerID:  partnerID,
		CafeID:     cafeID,
		UniqueCode: token.UniqueCode,
	})
	if err != nil {
		t.Fatalf("redeem failed: %v", err)
	}
	return result.Token
}

func TestNewCustomerCountedOnlyOnFirstRedemption(t *testing.T) {
	f := newServiceFixture(t, "analytics_new_customer")
	plan := f.createPlan(t, "Double", 10, 2)
	partner := f.createUser(t, "partner@example.com", constants.RolePartner)
	cafe := f.createCafe(t, partner.ID, "Bean There", "4.50")
	customer, _ := f.subscribedCustomer(t, "customer@example.com", plan)
	relay := NewOutboxRelay(config.OutboxConfig{BatchSize: 10, MaxRetries: 3}, f.outboxRepo, NewDirectPublisher(f.analytics), nil)
	day := dayKey(f.now, time.UTC)

	redeemOne(t, f, partner.ID, cafe.ID, customer.ID, nil)
	stats, err := relay.RunOnce(context.Background())
	if err != nil || stats.Published != 1 {
		t.Fatalf("relay first round failed: %+v err=%v", stats, err)
	}
	report, err := f.analytics.GetDaily(partner.ID, day)
	if err != nil {
		t.Fatalf("get daily failed: %v", err)
	}
	if report.CoffeesServed != 1 || report.NewCustomers != 1 || report.UniqueCustomers != 1 {
		t.Fatalf("unexpected first report: %+v", report)
	}
	if !report.Revenue.Decimal.Equal(decimal.RequireFromString("4.50")) {
		t.Fatalf("unexpected revenue: %s", report.Revenue.String())
	}

	f.now = f.now.Add(time.Hour)
	redeemOne(t, f, partner.ID, cafe.ID, customer.ID, nil)
	if _, err := relay.RunOnce(context.Background()); err != nil {
		t.Fatalf("relay second round failed: %v", err)
	}
	report, err = f.analytics.GetDaily(partner.ID, day)
	if err != nil {
		t.Fatalf("get daily failed: %v", err)
	}
	if report.CoffeesServed != 2 || report.NewCustomers != 1 || report.UniqueCustomers != 1 {
		t.Fatalf("unexpected second report: %+v", report)
	}
	if report.Hourly[9] != 1 || report.Hourly[10] != 1 {
		t.Fatalf("unexpected hourly histogram: %v", report.Hourly)
	}
	if len(report.Redemptions) != 2 || !report.Redemptions[0].IsNewCustomer || report.Redemptions[1].IsNewCustomer {
		t.Fatalf("unexpected redemption events: %+v", report.Redemptions)
	}

	monthly, err := f.analytics.GetMonthly(partner.ID, "")
	if err != nil {
		t.Fatalf("get monthly failed: %v", err)
	}
	if monthly.Month != "2026-03" || monthly.CoffeesServed != 2 || monthly.NewCustomers != 1 || monthly.UniqueCustomers != 1 {
		t.Fatalf("unexpected monthly: %+v", monthly)
	}
}

func TestApplyRedemptionUsesProductPrice(t *testing.T) {
	f := newServiceFixture(t, "analytics_product_price")
	plan := f.createPlan(t, "Double", 10, 2)
	partner := f.createUser(t, "partner@example.com", constants.RolePartner)
	cafe := f.createCafe(t, partner.ID, "Bean There", "4.50")
	product := &models.Product{CafeID: cafe.ID, Name: "Flat White", Price: models.NewMoneyFromString("5.25"), IsActive: true}
	if err := f.db.Create(product).Error; err != nil {
		t.Fatalf("create product failed: %v", err)
	}
	customer, _ := f.subscribedCustomer(t, "customer@example.com", plan)

	token := redeemOne(t, f, partner.ID, cafe.ID, customer.ID, &product.ID)
	if err := f.analytics.ApplyRedemption(context.Background(), token.ID); err != nil {
		t.Fatalf("apply failed: %v", err)
	}
	report, err := f.analytics.GetDaily(partner.ID, "")
	if err != nil {
		t.Fatalf("get daily failed: %v", err)
	}
	if !report.Revenue.Decimal.Equal(decimal.RequireFromString("5.25")) {
		t.Fatalf("expected product price revenue, got %s", report.Revenue.String())
	}
}

func TestApplyRedemptionIsIdempotent(t *testing.T) {
	f := newServiceFixture(t, "analytics_idempotent")
	plan := f.createPlan(t, "Double", 10, 2)
	partner := f.createUser(t, "partner@example.com", constants.RolePartner)
	cafe := f.createCafe(t, partner.ID, "Bean There", "4.50")
	customer, _ := f.subscribedCustomer(t, "customer@example.com", plan)

	token := redeemOne(t, f, partner.ID, cafe.ID, customer.ID, nil)
	for i := 0; i < 3; i++ {
		if err := f.analytics.ApplyRedemption(context.Background(), token.ID); err != nil {
			t.Fatalf("apply #%d failed: %v", i, err)
		}
	}
	report, err := f.analytics.GetDaily(partner.ID, "")
	if err != nil {
		t.Fatalf("get daily failed: %v", err)
	}
	if report.CoffeesServed != 1 || report.NewCustomers != 1 || len(report.Redemptions) != 1 {
		t.Fatalf("redelivery must be applied once: %+v", report)
	}
}

func TestApplyRedemptionRejectsUnusedToken(t *testing.T) {
	f := newServiceFixture(t, "analytics_unused")
	plan := f.createPlan(t, "Double", 10, 2)
	partner := f.createUser(t, "partner@example.com", constants.RolePartner)
	cafe := f.createCafe(t, partner.ID, "Bean There", "4.50")
	customer, _ := f.subscribedCustomer(t, "customer@example.com", plan)

	token, err := f.qrcodes.Issue(IssueQRCodeInput{UserID: customer.ID, CafeID: cafe.ID})
	if err != nil {
		t.Fatalf("issue failed: %v", err)
	}
	if err := f.analytics.ApplyRedemption(context.Background(), token.ID); !errors.Is(err, ErrTokenNotConsumed) {
		t.Fatalf("expected token not consumed, got %v", err)
	}
	if count := f.countRows(t, &models.RedemptionEvent{}); count != 0 {
		t.Fatalf("expected no events, got %d", count)
	}
}

func TestRelayDeadLettersWhileRedemptionStaysCommitted(t *testing.T) {
	f := newServiceFixture(t, "analytics_dead_letter")
	plan := f.createPlan(t, "Double", 10, 2)
	partner := f.createUser(t, "partner@example.com", constants.RolePartner)
	cafe := f.createCafe(t, partner.ID, "Bean There", "4.50")
	customer, sub := f.subscribedCustomer(t, "customer@example.com", plan)
	token := redeemOne(t, f, partner.ID, cafe.ID, customer.ID, nil)

	publisher := &failingPublisher{}
	relay := NewOutboxRelay(config.OutboxConfig{BatchSize: 10, MaxRetries: 3}, f.outboxRepo, publisher, nil)
	for round := 1; round <= 3; round++ {
		stats, err := relay.RunOnce(context.Background())
		if err != nil {
			t.Fatalf("round %d failed: %v", round, err)
		}
		if stats.Claimed != 1 {
			t.Fatalf("round %d: expected one claimed event, got %+v", round, stats)
		}
		if round < 3 && stats.Failed != 1 {
			t.Fatalf("round %d: expected failure, got %+v", round, stats)
		}
		if round == 3 && stats.DeadLettered != 1 {
			t.Fatalf("round 3: expected dead letter, got %+v", stats)
		}
	}
	stats, err := relay.RunOnce(context.Background())
	if err != nil || stats.Claimed != 0 {
		t.Fatalf("dead-lettered event must not be reclaimed: %+v err=%v", stats, err)
	}
	if publisher.calls != 3 {
		t.Fatalf("expected 3 publish attempts, got %d", publisher.calls)
	}

	counts, err := relay.Counts(context.Background())
	if err != nil {
		t.Fatalf("count outbox failed: %v", err)
	}
	if counts[constants.OutboxStatusDeadLettered] != 1 || counts[constants.OutboxStatusPending] != 0 {
		t.Fatalf("unexpected outbox counts: %+v", counts)
	}
	var event models.AnalyticsOutbox
	if err := f.db.First(&event).Error; err != nil {
		t.Fatalf("load outbox failed: %v", err)
	}
	if event.RetryCount != 3 || event.LastError != "broker unavailable" {
		t.Fatalf("unexpected dead letter row: %+v", event)
	}

	stored, err := f.tokenRepo.GetByID(token.ID)
	if err != nil || stored == nil || !stored.IsUsed {
		t.Fatalf("redemption must stay committed: %+v err=%v", stored, err)
	}
	if got := f.reloadSubscription(t, sub.ID).RemainingCredits; got != 9 {
		t.Fatalf("debit must stay committed, remaining=%d", got)
	}
}

func TestGetDailyEmptyAndInvalidInput(t *testing.T) {
	f := newServiceFixture(t, "analytics_empty")
	report, err := f.analytics.GetDaily(7, "2026-01-01")
	if err != nil {
		t.Fatalf("get daily failed: %v", err)
	}
	if report.CoffeesServed != 0 || len(report.Hourly) != HoursPerDay || len(report.Redemptions) != 0 {
		t.Fatalf("unexpected empty report: %+v", report)
	}
	if _, err := f.analytics.GetDaily(7, "01/02/2026"); !errors.Is(err, ErrInvalidDate) {
		t.Fatalf("expected invalid date, got %v", err)
	}
	if _, err := f.analytics.GetMonthly(7, "2026-13"); !errors.Is(err, ErrInvalidMonth) {
		t.Fatalf("expected invalid month, got %v", err)
	}
	weekly, err := f.analytics.GetWeekly(7)
	if err != nil || weekly.BusiestHour != -1 {
		t.Fatalf("unexpected empty weekly: %+v err=%v", weekly, err)
	}
}
