package cache

import (
	"context"
	"testing"
	"time"

	"github.com/go-redis/redismock/v9"

	"github.com/gary322/flashbets-ledger/internal/domain"
)

func TestDedupGuardClaimFirstWins(t *testing.T) {
	rdb, mock := redismock.NewClientMock()
	c := &Client{rdb: rdb, Timeout: time.Second}
	g := NewDedupGuard(c, 10*time.Second)

	var marketID domain.MarketID
	marketID[0] = 0x01
	ts := time.Unix(1_700_000_000, 0)

	key := dedupKey(marketID, ts)
	mock.ExpectSetNX(key, 1, 10*time.Second).SetVal(true)

	first, err := g.Claim(context.Background(), marketID, ts)
	if err != nil {
		t.Fatalf("Claim returned error: %v", err)
	}
	if !first {
		t.Fatalf("expected first claim to win")
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("redis expectations not met: %v", err)
	}
}

func TestDedupGuardClaimSecondLoses(t *testing.T) {
	rdb, mock := redismock.NewClientMock()
	c := &Client{rdb: rdb, Timeout: time.Second}
	g := NewDedupGuard(c, 10*time.Second)

	var marketID domain.MarketID
	marketID[0] = 0x02
	ts := time.Unix(1_700_000_100, 0)

	key := dedupKey(marketID, ts)
	mock.ExpectSetNX(key, 1, 10*time.Second).SetVal(false)

	first, err := g.Claim(context.Background(), marketID, ts)
	if err != nil {
		t.Fatalf("Claim returned error: %v", err)
	}
	if first {
		t.Fatalf("expected duplicate claim to lose")
	}
}
