package auction

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/Additional-Code/gavel/internal/entity"
)

func expiredItem(id string, price int64, now time.Time) entity.Item {
	item := forSaleItem(id, price, now)
	item.EndTime = now.Add(-time.Minute)
	return item
}

func TestResolveExpiredSweep(t *testing.T) {
	now := time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC)

	withBid := expiredItem(itemID1, 500, now)
	withoutBid := expiredItem(itemID2, 120, now)

	items := newFakeItemStore(withBid, withoutBid)
	bids := &fakeBidStore{}
	bids.bids = append(bids.bids, entity.Bid{
		ID:        "bid-1",
		ItemID:    itemID1,
		BidderID:  "user1",
		Amount:    1000,
		CreatedAt: now.Add(-2 * time.Minute),
	})
	svc, _ := newTestService(items, bids, now)

	summary, err := svc.ResolveExpired(context.Background())
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	want := ResolutionSummary{TotalConsidered: 2, ResolvedSold: 1, ResolvedReserve: 1}
	if summary != want {
		t.Fatalf("expected summary %+v, got %+v", want, summary)
	}

	sold := items.get(itemID1)
	if sold.Status != entity.ItemSold || sold.BuyerID != "user1" {
		t.Fatalf("expected SOLD to user1, got %+v", sold)
	}
	reserve := items.get(itemID2)
	if reserve.Status != entity.ItemReserveNotMet || reserve.BuyerID != "" {
		t.Fatalf("expected RESERVE_NOT_MET with no buyer, got %+v", reserve)
	}
}

func TestResolveExpiredIdempotent(t *testing.T) {
	now := time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC)
	items := newFakeItemStore(expiredItem(itemID1, 500, now))
	svc, _ := newTestService(items, &fakeBidStore{}, now)

	if _, err := svc.ResolveExpired(context.Background()); err != nil {
		t.Fatalf("first sweep: %v", err)
	}

	summary, err := svc.ResolveExpired(context.Background())
	if err != nil {
		t.Fatalf("second sweep: %v", err)
	}
	if summary != (ResolutionSummary{}) {
		t.Fatalf("expected empty second sweep, got %+v", summary)
	}
	if items.updateHits != 1 {
		t.Fatalf("expected exactly one persisted update across both sweeps, got %d", items.updateHits)
	}
}

func TestResolveExpiredPicksHighestBidder(t *testing.T) {
	now := time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC)
	items := newFakeItemStore(expiredItem(itemID1, 100, now))
	bids := &fakeBidStore{}
	bids.bids = append(bids.bids,
		entity.Bid{ID: "bid-1", ItemID: itemID1, BidderID: "user1", Amount: 200, CreatedAt: now.Add(-3 * time.Minute)},
		entity.Bid{ID: "bid-2", ItemID: itemID1, BidderID: "user2", Amount: 900, CreatedAt: now.Add(-2 * time.Minute)},
		entity.Bid{ID: "bid-3", ItemID: itemID1, BidderID: "user3", Amount: 400, CreatedAt: now.Add(-time.Minute)},
	)
	svc, _ := newTestService(items, bids, now)

	if _, err := svc.ResolveExpired(context.Background()); err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if got := items.get(itemID1); got.BuyerID != "user2" {
		t.Fatalf("expected buyer user2, got %q", got.BuyerID)
	}
}

func TestResolveExpiredContinuesPastFailure(t *testing.T) {
	now := time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC)

	failing := expiredItem(itemID1, 500, now)
	failing.EndTime = now.Add(-2 * time.Minute)
	healthy := expiredItem(itemID2, 120, now)

	items := newFakeItemStore(failing, healthy)
	storageErr := errors.New("write refused")
	items.updateErr = map[string]error{itemID1: storageErr}
	svc, _ := newTestService(items, &fakeBidStore{}, now)

	summary, err := svc.ResolveExpired(context.Background())
	if !errors.Is(err, storageErr) {
		t.Fatalf("expected sweep error wrapping storage failure, got %v", err)
	}
	want := ResolutionSummary{TotalConsidered: 2, ResolvedReserve: 1}
	if summary != want {
		t.Fatalf("expected partial summary %+v, got %+v", want, summary)
	}

	// The failed item stays FOR_SALE so the next sweep retries it.
	if got := items.get(itemID1); got.Status != entity.ItemForSale {
		t.Fatalf("expected failed item untouched, got %q", got.Status)
	}
	if got := items.get(itemID2); got.Status != entity.ItemReserveNotMet {
		t.Fatalf("expected healthy item resolved, got %q", got.Status)
	}
}

func TestResolveExpiredSkipsDeletedAndOpenItems(t *testing.T) {
	now := time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC)

	deleted := expiredItem(itemID1, 500, now)
	deleted.Deleted = true
	open := forSaleItem(itemID2, 120, now)

	items := newFakeItemStore(deleted, open)
	svc, _ := newTestService(items, &fakeBidStore{}, now)

	summary, err := svc.ResolveExpired(context.Background())
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if summary != (ResolutionSummary{}) {
		t.Fatalf("expected nothing considered, got %+v", summary)
	}
	if got := items.get(itemID2); got.Status != entity.ItemForSale {
		t.Fatalf("open item must stay FOR_SALE, got %q", got.Status)
	}
}
