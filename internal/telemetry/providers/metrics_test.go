package providers

import "testing"

func TestMetricsCollectorTracksErrorRate(t *testing.T) {
	c := NewMetricsCollector()
	c.RecordFetch("polymarket", 12.5)
	c.RecordFetch("polymarket", 15.0)
	c.RecordFetchError("polymarket")

	fm, ok := c.Get("polymarket")
	if !ok {
		t.Fatalf("expected metrics for polymarket to exist")
	}
	if fm.TotalFetches != 3 {
		t.Fatalf("TotalFetches = %d, want 3", fm.TotalFetches)
	}
	if fm.FailedFetches != 1 {
		t.Fatalf("FailedFetches = %d, want 1", fm.FailedFetches)
	}
	want := float64(1) / float64(3) * 100
	if fm.ErrorRate != want {
		t.Fatalf("ErrorRate = %f, want %f", fm.ErrorRate, want)
	}
}

func TestMetricsCollectorUpdateCircuitState(t *testing.T) {
	c := NewMetricsCollector()
	c.UpdateCircuitState("kalshi", "open")

	fm, ok := c.Get("kalshi")
	if !ok {
		t.Fatalf("expected metrics for kalshi to exist")
	}
	if fm.CircuitState != "open" {
		t.Fatalf("CircuitState = %q, want open", fm.CircuitState)
	}
}

func TestMetricsCollectorAllReturnsEverySource(t *testing.T) {
	c := NewMetricsCollector()
	c.RecordFetch("a", 1)
	c.RecordFetch("b", 2)

	all := c.All()
	if len(all) != 2 {
		t.Fatalf("len(all) = %d, want 2", len(all))
	}
}
