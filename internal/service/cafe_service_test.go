package service

import (
	"errors"
	"testing"

	"github.com/beanpass/internal/constants"
	"github.com/beanpass/internal/models"
	"github.com/beanpass/internal/repository"

	"github.com/shopspring/decimal"
)

func TestCafeLifecycleForPartner(t *testing.T) {
	f := newServiceFixture(t, "cafe_lifecycle")
	partner := f.createUser(t, "owner@example.com", constants.RolePartner)
	other := f.createUser(t, "other@example.com", constants.RolePartner)
	svc := NewCafeService(f.cafeRepo)

	price := models.NewMoneyFromDecimal(decimal.RequireFromString("3.40"))
	cafe, err := svc.Create(partner.ID, CafeInput{Name: "  Bean Bar ", City: "Lisbon", DefaultPrice: &price})
	if err != nil {
		t.Fatalf("create cafe failed: %v", err)
	}
	if cafe.Name != "Bean Bar" || !cafe.IsActive || cafe.DefaultPrice.String() != "3.40" {
		t.Fatalf("unexpected cafe: %+v", cafe)
	}

	if _, err := svc.Update(other.ID, cafe.ID, CafeInput{Name: "Hijacked"}); !errors.Is(err, ErrCafeOwnershipDenied) {
		t.Fatalf("foreign update want ownership denied, got %v", err)
	}
	if _, err := svc.AddProduct(other.ID, cafe.ID, ProductInput{Name: "Latte"}); !errors.Is(err, ErrCafeOwnershipDenied) {
		t.Fatalf("foreign add product want ownership denied, got %v", err)
	}

	product, err := svc.AddProduct(partner.ID, cafe.ID, ProductInput{
		Name:  "Flat White",
		Price: models.NewMoneyFromDecimal(decimal.RequireFromString("3.90")),
	})
	if err != nil {
		t.Fatalf("add product failed: %v", err)
	}
	if product.CafeID != cafe.ID {
		t.Fatalf("product should belong to cafe")
	}

	detail, err := svc.GetPublic(cafe.ID)
	if err != nil {
		t.Fatalf("get public cafe failed: %v", err)
	}
	if len(detail.Products) != 1 || detail.Products[0].Name != "Flat White" {
		t.Fatalf("expected product on public detail, got %+v", detail.Products)
	}

	closed := false
	if _, err := svc.Update(partner.ID, cafe.ID, CafeInput{IsActive: &closed}); err != nil {
		t.Fatalf("close cafe failed: %v", err)
	}
	if _, err := svc.GetPublic(cafe.ID); !errors.Is(err, ErrCafeNotFound) {
		t.Fatalf("closed cafe should be hidden, got %v", err)
	}
	cafes, total, err := svc.ListPublic(repository.CafeListFilter{Page: 1, PageSize: 20})
	if err != nil {
		t.Fatalf("list public failed: %v", err)
	}
	if total != 0 || len(cafes) != 0 {
		t.Fatalf("closed cafe should not be listed, total=%d", total)
	}
	mine, err := svc.ListMine(partner.ID)
	if err != nil {
		t.Fatalf("list mine failed: %v", err)
	}
	if len(mine) != 1 {
		t.Fatalf("partner should still see own closed cafe, got %d", len(mine))
	}
}

func TestCafeInputValidation(t *testing.T) {
	f := newServiceFixture(t, "cafe_validation")
	partner := f.createUser(t, "owner@example.com", constants.RolePartner)
	svc := NewCafeService(f.cafeRepo)

	if _, err := svc.Create(0, CafeInput{Name: "x"}); !errors.Is(err, ErrUnauthenticated) {
		t.Fatalf("want unauthenticated, got %v", err)
	}
	if _, err := svc.Create(partner.ID, CafeInput{Name: "   "}); !errors.Is(err, ErrCafeInvalid) {
		t.Fatalf("blank name want invalid, got %v", err)
	}
	negative := models.NewMoneyFromDecimal(decimal.RequireFromString("-1"))
	if _, err := svc.Create(partner.ID, CafeInput{Name: "Neg", DefaultPrice: &negative}); !errors.Is(err, ErrCafeInvalid) {
		t.Fatalf("negative price want invalid, got %v", err)
	}
	if _, err := svc.RequireOwnedCafe(partner.ID, 0); !errors.Is(err, ErrCafeIDRequired) {
		t.Fatalf("zero cafe id want required, got %v", err)
	}
	if _, err := svc.RequireOwnedCafe(partner.ID, 999); !errors.Is(err, ErrCafeNotFound) {
		t.Fatalf("missing cafe want not found, got %v", err)
	}
}
