// Package query derives the product-list configuration from URL search
// parameters and builds the follow-up URLs the filter controls link to.
//
// The URL is the only place filter state lives: every control produces a new
// query string from the current Config, nothing is remembered server-side.
package query

import (
	"net/url"
	"strconv"
	"strings"
)

// Known keys.
const (
	Page         = "page"
	Limit        = "limit"
	SortBy       = "sort_by"
	Order        = "order"
	Exclude      = "exclude"
	Name         = "name"
	PriceMin     = "price_min"
	PriceMax     = "price_max"
	RatingFilter = "rating_filter"
	Category     = "category"
)

const (
	DefaultPage  = "1"
	DefaultLimit = "20"
)

// Keys is the fixed key set, in display order.
var Keys = []string{Page, Limit, SortBy, Order, Exclude, Name, PriceMin, PriceMax, RatingFilter, Category}

// FilterKeys are removed by "clear all"; everything else survives it.
var FilterKeys = []string{PriceMin, PriceMax, RatingFilter, Category}

// Sort values understood by the shop API.
const (
	SortCreatedAt = "createdAt"
	SortView      = "view"
	SortSold      = "sold"
	SortPrice     = "price"
	OrderAsc      = "asc"
	OrderDesc     = "desc"
)

// Config maps known keys to their values. Absent keys are unset. Values are
// passed through as found; nothing here checks that numbers are numbers.
type Config map[string]string

func known(key string) bool {
	for _, k := range Keys {
		if k == key {
			return true
		}
	}
	return false
}

// FromValues keeps the first value of every known key, when non-empty, and fills the
// pagination defaults.
func FromValues(v url.Values) Config {
	c := Config{}
	for _, k := range Keys {
		if val := v.Get(k); val != "" {
			c[k] = val
		}
	}
	if c[Page] == "" {
		c[Page] = DefaultPage
	}
	if c[Limit] == "" {
		c[Limit] = DefaultLimit
	}
	return c
}

// FromQueryString parses a raw query string (without the leading '?').
// Malformed escapes are skipped, the rest is kept.
func FromQueryString(raw string) Config {
	v, _ := url.ParseQuery(raw)
	return FromValues(v)
}

func (c Config) clone() Config {
	out := make(Config, len(c))
	for k, v := range c {
		out[k] = v
	}
	return out
}

// Get returns the value for key or "".
func (c Config) Get(key string) string { return c[key] }

// Int parses key, returning def when it is unset or not a positive integer.
func (c Config) Int(key string, def int) int {
	n, err := strconv.Atoi(strings.TrimSpace(c[key]))
	if err != nil || n < 1 {
		return def
	}
	return n
}

// Merge returns a copy with the given keys replaced. Unknown keys are ignored;
// an empty value removes the key.
func (c Config) Merge(changes map[string]string) Config {
	out := c.clone()
	for k, v := range changes {
		if !known(k) {
			continue
		}
		if v == "" {
			delete(out, k)
			continue
		}
		out[k] = v
	}
	return out
}

// With is Merge for a single key.
func (c Config) With(key, value string) Config {
	return c.Merge(map[string]string{key: value})
}

// Omit returns a copy without keys.
func (c Config) Omit(keys ...string) Config {
	out := c.clone()
	for _, k := range keys {
		delete(out, k)
	}
	return out
}

// ClearFilters drops price, rating and category, keeping sort, paging and search.
func (c Config) ClearFilters() Config { return c.Omit(FilterKeys...) }

// SortedBy switches the sort column. The previous order only applies to
// price sorting, so it is dropped.
func (c Config) SortedBy(sortBy string) Config {
	return c.With(SortBy, sortBy).Omit(Order)
}

// PriceOrder sorts by price in the given direction.
func (c Config) PriceOrder(order string) Config {
	return c.Merge(map[string]string{SortBy: SortPrice, Order: order})
}

// Values converts back to url.Values with one value per key.
func (c Config) Values() url.Values {
	v := url.Values{}
	for k, val := range c {
		if val != "" {
			v.Set(k, val)
		}
	}
	return v
}

// Encode is deterministic (keys sorted), so it doubles as a cache key.
func (c Config) Encode() string { return c.Values().Encode() }

// Href returns path with the encoded config as its query.
func (c Config) Href(path string) string {
	q := c.Encode()
	if q == "" {
		return path
	}
	return path + "?" + q
}

// Active reports whether key currently equals value.
func (c Config) Active(key, value string) bool { return c[key] == value }
