package domain

// SuccessResponse is the envelope every shop API response uses.
type SuccessResponse[T any] struct {
	Message string `json:"message"`
	Data    T      `json:"data"`
}

// ErrorResponse carries per-field messages when Data is a map.
type ErrorResponse[T any] struct {
	Message string `json:"message"`
	Data    T      `json:"data,omitempty"`
}

type Category struct {
	ID   string `json:"_id"`
	Name string `json:"name"`
}

type Product struct {
	ID                  string   `json:"_id"`
	Images              []string `json:"images"`
	Image               string   `json:"image"`
	Name                string   `json:"name"`
	Description         string   `json:"description"`
	Price               float64  `json:"price"`
	PriceBeforeDiscount float64  `json:"price_before_discount"`
	Rating              float64  `json:"rating"`
	Quantity            int      `json:"quantity"`
	Sold                int      `json:"sold"`
	View                int      `json:"view"`
	Category            Category `json:"category"`
	CreatedAt           string   `json:"createdAt"`
	UpdatedAt           string   `json:"updatedAt"`
}

// DiscountPercent is the rounded saving shown next to the price.
func (p Product) DiscountPercent() int {
	if p.PriceBeforeDiscount <= 0 || p.Price >= p.PriceBeforeDiscount {
		return 0
	}
	return int((p.PriceBeforeDiscount-p.Price)/p.PriceBeforeDiscount*100 + 0.5)
}

type Pagination struct {
	Page     int `json:"page"`
	Limit    int `json:"limit"`
	PageSize int `json:"page_size"`
}

type ProductList struct {
	Products   []Product  `json:"products"`
	Pagination Pagination `json:"pagination"`
}

// Purchase statuses as the shop API numbers them.
const (
	PurchaseInCart      = -1
	PurchaseAll         = 0
	PurchaseWaitConfirm = 1
	PurchaseWaitPickup  = 2
	PurchaseInProgress  = 3
	PurchaseDelivered   = 4
	PurchaseCancelled   = 5
)

type Purchase struct {
	ID                  string  `json:"_id"`
	BuyCount            int     `json:"buy_count"`
	Price               float64 `json:"price"`
	PriceBeforeDiscount float64 `json:"price_before_discount"`
	Status              int     `json:"status"`
	User                string  `json:"user"`
	Product             Product `json:"product"`
	CreatedAt           string  `json:"createdAt"`
	UpdatedAt           string  `json:"updatedAt"`
}

// Subtotal is what the line costs at the current price.
func (p Purchase) Subtotal() float64 { return p.Price * float64(p.BuyCount) }
