package router

import (
	"github.com/gary322/flashbets-ledger/internal/domain"
	"github.com/gary322/flashbets-ledger/internal/fixedpoint"
)

// Intent is one caller's decomposed synthetic order: a parent order
// against a wrapper's source markets, already weighted by the
// wrapper's derivation-time renormalized weights.
type Intent struct {
	Caller string
	WrapperID domain.ID128
	OrderID domain.ID128
	ChildMarkets []domain.MarketID
	ChildNotional []fixedpoint.Q64 // N·wᵢ, parallel to ChildMarkets
	Side domain.Side
}

// unionFind is a minimal disjoint-set over intent indices, used to
// compute connected components over shared source markets — the
// "graph components over market overlap" grouping calls
// for.
type unionFind struct {
	parent []int
}

func newUnionFind(n int) *unionFind {
	p := make([]int, n)
	for i := range p {
		p[i] = i
	}
	return &unionFind{parent: p}
}

func (u *unionFind) find(x int) int {
	for u.parent[x] != x {
		u.parent[x] = u.parent[u.parent[x]]
		x = u.parent[x]
	}
	return x
}

func (u *unionFind) union(a, b int) {
	ra, rb := u.find(a), u.find(b)
	if ra != rb {
		u.parent[ra] = rb
	}
}

// Bundle groups intents whose child-market sets overlap.
type Bundle struct {
	Intents []Intent
}

// GroupBundles partitions intents into connected components by shared
// MarketID membership.
func GroupBundles(intents []Intent) []Bundle {
	n := len(intents)
	uf := newUnionFind(n)

	marketFirstIntent := make(map[domain.MarketID]int)
	for i, intent := range intents {
		for _, m := range intent.ChildMarkets {
			if j, ok := marketFirstIntent[m]; ok {
				uf.union(i, j)
			} else {
				marketFirstIntent[m] = i
			}
		}
	}

	groups := make(map[int][]Intent)
	for i, intent := range intents {
		root := uf.find(i)
		groups[root] = append(groups[root], intent)
	}

	bundles := make([]Bundle, 0, len(groups))
	for _, g := range groups {
		bundles = append(bundles, Bundle{Intents: g})
	}
	return bundles
}

// NetOrder is one market's net position across a bundle after netting
// opposing sides, plus the count of distinct callers who touched it
// (for bundle fee-discount eligibility).
type NetOrder struct {
	MarketID domain.MarketID
	Side domain.Side
	Notional fixedpoint.Q64
	DistinctCallers int
}

// Net nets opposing sides per market within a bundle: buy/sell on the
// same market cancel, leaving a single directional net order (or none,
// if the notionals fully offset).
func Net(bundle Bundle) ([]NetOrder, error) {
	type acc struct {
		buy, sell fixedpoint.Q64
		callers map[string]bool
	}
	byMarket := make(map[domain.MarketID]*acc)
	order := make([]domain.MarketID, 0)

	for _, intent := range bundle.Intents {
		for i, m := range intent.ChildMarkets {
			a, ok := byMarket[m]
			if !ok {
				a = &acc{buy: fixedpoint.FromInt64(0), sell: fixedpoint.FromInt64(0), callers: map[string]bool{}}
				byMarket[m] = a
				order = append(order, m)
			}
			a.callers[intent.Caller] = true
			var err error
			switch intent.Side {
			case domain.SideBuy:
				a.buy, err = a.buy.Add(intent.ChildNotional[i])
			case domain.SideSell:
				a.sell, err = a.sell.Add(intent.ChildNotional[i])
			}
			if err != nil {
				return nil, err
			}
		}
	}

	results := make([]NetOrder, 0, len(order))
	for _, m := range order {
		a := byMarket[m]
		net, err := a.buy.Sub(a.sell)
		if err != nil {
			return nil, err
		}
		if net.IsZero() {
			continue
		}
		side := domain.SideBuy
		notional := net
		if net.Sign() < 0 {
			side = domain.SideSell
			notional = net.Abs()
		}
		results = append(results, NetOrder{
			MarketID: m,
			Side: side,
			Notional: notional,
			DistinctCallers: len(a.callers),
		})
	}
	return results, nil
}
