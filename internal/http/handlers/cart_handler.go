package handlers

import (
	"strconv"

	"github.com/gofiber/fiber/v2"

	"shopfront/internal/domain"
	"shopfront/internal/log"
	"shopfront/internal/services"
	"shopfront/internal/validate"
)

type CartHandler struct {
	renderer
	Cart *services.CartService
}

func (h *CartHandler) View(c *fiber.Ctx) error {
	cv, err := h.Cart.Cart(c.UserContext(), c.Cookies(SIDCookie))
	if signedOut(err) {
		return c.Redirect("/login")
	}
	if err != nil {
		return err
	}
	return h.render(c, "cart", fiber.Map{"Cart": cv, "Items": purchaseRows(cv.Items)})
}

func (h *CartHandler) Add(c *fiber.Ctx) error {
	productID, ok := validate.ID(c.FormValue("product_id"))
	if !ok {
		log.Security(c, "validation.fail", map[string]any{"field": "product_id"})
		return fiber.NewError(fiber.StatusBadRequest, "missing product")
	}
	qty := validate.Qty(c.FormValue("buy_count"), services.MaxBuyCount)
	p, err := h.Cart.Add(c.UserContext(), c.Cookies(SIDCookie), productID, qty)
	if signedOut(err) {
		return c.Redirect("/login")
	}
	if err != nil {
		return err
	}
	log.Audit(c, "cart.add", map[string]any{"product": productID, "qty": qty, "purchase": p.ID})
	return c.Redirect("/cart")
}

type statusTab struct {
	Label  string
	Href   string
	Active bool
}

var purchaseTabs = []struct {
	status int
	label  string
}{
	{domain.PurchaseAll, "user.purchase.all"},
	{domain.PurchaseWaitConfirm, "user.purchase.wait_confirm"},
	{domain.PurchaseWaitPickup, "user.purchase.wait_pickup"},
	{domain.PurchaseInProgress, "user.purchase.in_progress"},
	{domain.PurchaseDelivered, "user.purchase.delivered"},
	{domain.PurchaseCancelled, "user.purchase.cancelled"},
}

// Purchases is the order history, one tab per status.
func (h *CartHandler) Purchases(c *fiber.Ctx) error {
	status, err := strconv.Atoi(c.Query("status", "0"))
	if err != nil || status < domain.PurchaseAll || status > domain.PurchaseCancelled {
		status = domain.PurchaseAll
	}
	items, err := h.Cart.Purchases(c.UserContext(), c.Cookies(SIDCookie), status)
	if signedOut(err) {
		return c.Redirect("/login")
	}
	if err != nil {
		return err
	}
	tabs := make([]statusTab, 0, len(purchaseTabs))
	for _, t := range purchaseTabs {
		tabs = append(tabs, statusTab{
			Label:  t.label,
			Href:   "/user/purchase?status=" + strconv.Itoa(t.status),
			Active: t.status == status,
		})
	}
	return h.render(c, "purchase", fiber.Map{"Tabs": tabs, "Items": purchaseRows(items)})
}

type purchaseRow struct {
	domain.Purchase
	Href string
}

func purchaseRows(ps []domain.Purchase) []purchaseRow {
	out := make([]purchaseRow, 0, len(ps))
	for _, p := range ps {
		out = append(out, purchaseRow{Purchase: p, Href: "/product/" + domain.NameID(p.Product.Name, p.Product.ID)})
	}
	return out
}
