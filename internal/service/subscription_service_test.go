package service

import (
	"context"
	"errors"
	"testing"

	"github.com/beanpass/internal/constants"
	"github.com/beanpass/internal/logger"
	"github.com/beanpass/internal/models"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestSubscribeCancelsPreviousActive(t *testing.T) {
	f := newServiceFixture(t, "subscribe_replace")
	starter := f.createPlan(t, "Starter", 10, 1)
	regular := f.createPlan(t, "Regular", 30, 2)
	customer, first := f.subscribedCustomer(t, "customer@example.com", starter)

	second, err := f.subscriptions.Subscribe(customer.ID, regular.ID)
	if err != nil {
		t.Fatalf("second subscribe failed: %v", err)
	}
	if got := f.reloadSubscription(t, first.ID); got.Status != constants.SubscriptionStatusCancelled || got.CancelledAt == nil {
		t.Fatalf("previous subscription must be cancelled: %+v", got)
	}
	var user models.User
	if err := f.db.First(&user, customer.ID).Error; err != nil {
		t.Fatalf("reload user failed: %v", err)
	}
	if user.ActiveSubscriptionID == nil || *user.ActiveSubscriptionID != second.ID {
		t.Fatalf("user must reference new subscription: %+v", user.ActiveSubscriptionID)
	}

	active, err := f.subscriptions.GetActive(customer.ID)
	if err != nil {
		t.Fatalf("get active failed: %v", err)
	}
	if active.ID != second.ID || active.RemainingToday != 2 {
		t.Fatalf("unexpected active view: %+v", active)
	}
	mine, err := f.subscriptions.ListMine(customer.ID)
	if err != nil || len(mine) != 2 {
		t.Fatalf("unexpected list: %d err=%v", len(mine), err)
	}
}

func TestSubscribeRequiresCustomerRole(t *testing.T) {
	f := newServiceFixture(t, "subscribe_role")
	plan := f.createPlan(t, "Starter", 10, 1)
	partner := f.createUser(t, "partner@example.com", constants.RolePartner)
	if _, err := f.subscriptions.Subscribe(partner.ID, plan.ID); !errors.Is(err, ErrCustomerRoleRequired) {
		t.Fatalf("expected customer role required, got %v", err)
	}
	if _, err := f.subscriptions.Subscribe(partner.ID, 9999); !errors.Is(err, ErrPlanNotFound) {
		t.Fatalf("expected plan not found, got %v", err)
	}
}

func TestCancelOwnSubscriptionOnly(t *testing.T) {
	f := newServiceFixture(t, "subscribe_cancel")
	plan := f.createPlan(t, "Starter", 10, 1)
	customer, sub := f.subscribedCustomer(t, "customer@example.com", plan)
	other := f.createUser(t, "other@example.com", constants.RoleCustomer)

	if _, err := f.subscriptions.Cancel(other.ID, sub.ID); !errors.Is(err, ErrSubscriptionNotFound) {
		t.Fatalf("expected not found for foreign subscription, got %v", err)
	}
	cancelled, err := f.subscriptions.Cancel(customer.ID, sub.ID)
	if err != nil {
		t.Fatalf("cancel failed: %v", err)
	}
	if cancelled.Status != constants.SubscriptionStatusCancelled {
		t.Fatalf("unexpected status: %s", cancelled.Status)
	}
	if _, err := f.subscriptions.GetActive(customer.ID); !errors.Is(err, ErrNoActiveSubscription) {
		t.Fatalf("expected no active subscription, got %v", err)
	}
}

func TestListPlansWithoutRedis(t *testing.T) {
	f := newServiceFixture(t, "subscribe_plans")
	f.createPlan(t, "Starter", 10, 1)
	plans, err := f.subscriptions.ListPlans(context.Background())
	if err != nil || len(plans) != 1 {
		t.Fatalf("unexpected plans: %d err=%v", len(plans), err)
	}
}

func TestSubscribeLogsStorageFailure(t *testing.T) {
	f := newServiceFixture(t, "subscribe_storage_failure")
	plan := f.createPlan(t, "Starter", 10, 1)
	customer := f.createUser(t, "customer@example.com", constants.RoleCustomer)

	core, logs := observer.New(zapcore.ErrorLevel)
	prev := logger.L
	logger.L = zap.New(core)
	t.Cleanup(func() { logger.L = prev })

	if err := f.db.Migrator().DropTable(&models.UserSubscription{}); err != nil {
		t.Fatalf("drop subscriptions table failed: %v", err)
	}
	if _, err := f.subscriptions.Subscribe(customer.ID, plan.ID); !errors.Is(err, ErrSubscriptionUpdateFailed) {
		t.Fatalf("want update failed sentinel, got %v", err)
	}
	entries := logs.FilterMessage("subscription_cancel_previous_failed").All()
	if len(entries) != 1 {
		t.Fatalf("expected storage failure to be logged once, got %d entries", len(entries))
	}
	fields := entries[0].ContextMap()
	if fields["user_id"] != uint64(customer.ID) || fields["error"] == nil {
		t.Fatalf("unexpected log fields: %v", fields)
	}
}
