package services

import (
	"context"
	"strconv"

	"shopfront/internal/cache"
	"shopfront/internal/domain"
	"shopfront/internal/session"
)

// MaxBuyCount bounds a single add-to-cart.
const MaxBuyCount = 99

type CartService struct {
	API      PurchaseAPI
	Sessions *session.Store
	Cache    *cache.Cache
}

func NewCartService(api PurchaseAPI, sessions *session.Store, c *cache.Cache) *CartService {
	s := &CartService{API: api, Sessions: sessions, Cache: c}
	sessions.Subscribe(func(ev session.Event) {
		if ev.Kind == session.Cleared {
			c.InvalidatePrefix(purchasesPrefix(ev.SID))
		}
	})
	return s
}

func purchasesPrefix(sid string) string { return cache.Key("purchases", sid) + "|" }

type CartView struct {
	Items []domain.Purchase
	Total float64
	// Savings is the difference to the pre-discount prices.
	Savings float64
}

func (s *CartService) Cart(ctx context.Context, sid string) (CartView, error) {
	items, err := s.Purchases(ctx, sid, domain.PurchaseInCart)
	if err != nil {
		return CartView{}, err
	}
	v := CartView{Items: items}
	for _, it := range items {
		v.Total += it.Subtotal()
		if it.PriceBeforeDiscount > it.Price {
			v.Savings += (it.PriceBeforeDiscount - it.Price) * float64(it.BuyCount)
		}
	}
	return v, nil
}

// Purchases lists the session's purchases with status. The list is always
// refetched; concurrent requests for the same list share one call.
func (s *CartService) Purchases(ctx context.Context, sid string, status int) ([]domain.Purchase, error) {
	st, err := tokenFor(s.Sessions, sid)
	if err != nil {
		return nil, err
	}
	key := purchasesPrefix(sid) + strconv.Itoa(status)
	out, err := cache.Fetch(ctx, s.Cache, key, 0, func(ctx context.Context) ([]domain.Purchase, error) {
		return s.API.Purchases(ctx, st.Token, status)
	})
	return out, signOutOn401(ctx, s.Sessions, sid, err)
}

func (s *CartService) Add(ctx context.Context, sid, productID string, qty int) (domain.Purchase, error) {
	st, err := tokenFor(s.Sessions, sid)
	if err != nil {
		return domain.Purchase{}, err
	}
	if qty < 1 {
		qty = 1
	}
	if qty > MaxBuyCount {
		qty = MaxBuyCount
	}
	p, err := s.API.AddToCart(ctx, st.Token, productID, qty)
	if err != nil {
		return domain.Purchase{}, signOutOn401(ctx, s.Sessions, sid, err)
	}
	s.Cache.InvalidatePrefix(purchasesPrefix(sid))
	return p, nil
}
