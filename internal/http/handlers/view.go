package handlers

import (
	"strconv"

	"shopfront/internal/domain"
	"shopfront/internal/query"
	"shopfront/internal/validate"
)

// Link is an anchor the templates render as-is.
type Link struct {
	Label  string
	Href   string
	Active bool
}

type categoryLink struct {
	Link
	ID string
}

type ratingLink struct {
	Stars  int
	Filled []bool
	Href   string
	Active bool
}

// asideView is the filter column of the product list.
type asideView struct {
	AllHref    string
	AllActive  bool
	Categories []categoryLink
	Ratings    []ratingLink
	PriceMin   string
	PriceMax   string
	Errors     validate.Result
	ClearHref  string
	// Query is the current config, posted back with the price form.
	Query string
}

func buildAside(cfg query.Config, cats []domain.Category, priceMin, priceMax string, errs validate.Result) asideView {
	v := asideView{
		AllHref:   cfg.Omit(query.Category).Href("/"),
		AllActive: cfg.Get(query.Category) == "",
		PriceMin:  priceMin,
		PriceMax:  priceMax,
		Errors:    errs,
		ClearHref: cfg.Href("/filter/clear"),
		Query:     cfg.Encode(),
	}
	for _, cat := range cats {
		v.Categories = append(v.Categories, categoryLink{
			ID: cat.ID,
			Link: Link{
				Label:  cat.Name,
				Href:   cfg.With(query.Category, cat.ID).Href("/"),
				Active: cfg.Active(query.Category, cat.ID),
			},
		})
	}
	for stars := 5; stars >= 1; stars-- {
		n := strconv.Itoa(stars)
		filled := make([]bool, 5)
		for i := 0; i < stars; i++ {
			filled[i] = true
		}
		v.Ratings = append(v.Ratings, ratingLink{
			Stars:  stars,
			Filled: filled,
			Href:   cfg.With(query.RatingFilter, n).Href("/"),
			Active: cfg.Active(query.RatingFilter, n),
		})
	}
	return v
}

type sortView struct {
	Columns   []Link
	PriceAsc  Link
	PriceDesc Link
	Page      int
	PageSize  int
	PrevHref  string
	NextHref  string
}

func buildSort(cfg query.Config, pageSize int) sortView {
	current := cfg.Get(query.SortBy)
	if current == "" {
		current = query.SortCreatedAt
	}
	col := func(label, by string) Link {
		return Link{Label: label, Href: cfg.SortedBy(by).Href("/"), Active: current == by}
	}
	page := cfg.Int(query.Page, 1)
	v := sortView{
		Columns: []Link{
			col("home.sort.popular", query.SortView),
			col("home.sort.latest", query.SortCreatedAt),
			col("home.sort.top_sales", query.SortSold),
		},
		PriceAsc: Link{Label: "home.sort.price_asc", Href: cfg.PriceOrder(query.OrderAsc).Href("/"),
			Active: current == query.SortPrice && cfg.Active(query.Order, query.OrderAsc)},
		PriceDesc: Link{Label: "home.sort.price_desc", Href: cfg.PriceOrder(query.OrderDesc).Href("/"),
			Active: current == query.SortPrice && cfg.Active(query.Order, query.OrderDesc)},
		Page:     page,
		PageSize: pageSize,
	}
	if page > 1 {
		v.PrevHref = cfg.With(query.Page, strconv.Itoa(page-1)).Href("/")
	}
	if page < pageSize {
		v.NextHref = cfg.With(query.Page, strconv.Itoa(page+1)).Href("/")
	}
	return v
}

// pageRange is how many pages around the current one get a link.
const pageRange = 2

// PageLink is one pagination item; Gap marks an ellipsis.
type PageLink struct {
	Page   int
	Href   string
	Active bool
	Gap    bool
}

func buildPages(cfg query.Config, pageSize int) []PageLink {
	page := cfg.Int(query.Page, 1)
	var out []PageLink
	gap := false
	for p := 1; p <= pageSize; p++ {
		near := p <= pageRange || p > pageSize-pageRange || (p >= page-pageRange && p <= page+pageRange)
		if !near {
			if !gap {
				out = append(out, PageLink{Gap: true})
				gap = true
			}
			continue
		}
		gap = false
		out = append(out, PageLink{
			Page:   p,
			Href:   cfg.With(query.Page, strconv.Itoa(p)).Href("/"),
			Active: p == page,
		})
	}
	return out
}

type productCard struct {
	domain.Product
	Href string
}

func cards(ps []domain.Product) []productCard {
	out := make([]productCard, 0, len(ps))
	for _, p := range ps {
		out = append(out, productCard{Product: p, Href: "/product/" + domain.NameID(p.Name, p.ID)})
	}
	return out
}
