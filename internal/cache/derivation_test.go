package cache

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/go-redis/redismock/v9"

	"github.com/gary322/flashbets-ledger/internal/domain"
	"github.com/gary322/flashbets-ledger/internal/fixedpoint"
	"github.com/gary322/flashbets-ledger/internal/synthetic"
)

func TestDerivationCacheGetMiss(t *testing.T) {
	rdb, mock := redismock.NewClientMock()
	c := &Client{rdb: rdb, Timeout: time.Second}
	d := NewDerivationCache(c, 30*time.Second)

	var wrapperID domain.ID128
	wrapperID[0] = 0xAB

	mock.ExpectGet(derivationKey(wrapperID)).RedisNil()

	_, found, err := d.Get(context.Background(), wrapperID)
	if err != nil {
		t.Fatalf("Get returned error: %v", err)
	}
	if found {
		t.Fatalf("expected cache miss")
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("redis expectations not met: %v", err)
	}
}

func TestDerivationCacheSetAndGetRoundTrips(t *testing.T) {
	rdb, mock := redismock.NewClientMock()
	c := &Client{rdb: rdb, Timeout: time.Second}
	d := NewDerivationCache(c, 30*time.Second)

	var wrapperID domain.ID128
	wrapperID[0] = 0xCD

	want := synthetic.Result{
		DerivedProbability: fixedpoint.FromBps(6200),
		LiveSourceCount:     3,
		NewStatus:           domain.WrapperStatus(1),
	}
	raw, err := json.Marshal(want)
	if err != nil {
		t.Fatalf("marshal fixture: %v", err)
	}

	mock.ExpectSet(derivationKey(wrapperID), raw, 30*time.Second).SetVal("OK")
	if err := d.Set(context.Background(), wrapperID, want); err != nil {
		t.Fatalf("Set returned error: %v", err)
	}

	mock.ExpectGet(derivationKey(wrapperID)).SetVal(string(raw))
	got, found, err := d.Get(context.Background(), wrapperID)
	if err != nil {
		t.Fatalf("Get returned error: %v", err)
	}
	if !found {
		t.Fatalf("expected cache hit")
	}
	if got.LiveSourceCount != want.LiveSourceCount {
		t.Fatalf("LiveSourceCount = %d, want %d", got.LiveSourceCount, want.LiveSourceCount)
	}
	if got.DerivedProbability.Cmp(want.DerivedProbability) != 0 {
		t.Fatalf("DerivedProbability mismatch after round-trip")
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("redis expectations not met: %v", err)
	}
}

func TestDerivationCacheInvalidate(t *testing.T) {
	rdb, mock := redismock.NewClientMock()
	c := &Client{rdb: rdb, Timeout: time.Second}
	d := NewDerivationCache(c, 30*time.Second)

	var wrapperID domain.ID128
	wrapperID[0] = 0xEF

	mock.ExpectDel(derivationKey(wrapperID)).SetVal(1)
	if err := d.Invalidate(context.Background(), wrapperID); err != nil {
		t.Fatalf("Invalidate returned error: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("redis expectations not met: %v", err)
	}
}
