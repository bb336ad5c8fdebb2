package models

// Site categories produced by the catalog rule table.
const (
	CategoryAccessories     = "Accessories"
	CategoryCatering        = "Catering"
	CategoryRumInfusedBites = "Rum Infused Bites"
)

// Product is the storefront view of a provider catalog item.
type Product struct {
	ID          string  `json:"id"`
	Name        string  `json:"name"`
	Description string  `json:"description"`
	Price       int64   `json:"price"`
	Currency    string  `json:"currency"`
	Category    string  `json:"category"`
	ImageURL    *string `json:"imageUrl"`
	Available   bool    `json:"available"`

	Variations     []Variation     `json:"variations,omitempty"`
	ModifierGroups []ModifierGroup `json:"modifierGroups,omitempty"`
}

type Variation struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Price    int64  `json:"price"`
	Currency string `json:"currency"`
	SKU      string `json:"sku,omitempty"`
}

type ModifierGroup struct {
	ID          string           `json:"id"`
	Name        string           `json:"name"`
	MinSelected int              `json:"minSelected"`
	MaxSelected int              `json:"maxSelected"`
	Options     []ModifierOption `json:"options"`
}

type ModifierOption struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Price int64  `json:"price"`
}

// RawItem is the per-item diagnostic record of the catalog debug block.
type RawItem struct {
	ID              string `json:"id"`
	Name            string `json:"name"`
	IsDeleted       bool   `json:"isDeleted"`
	AvailableOnline *bool  `json:"availableOnline"`
	CategoryID      string `json:"categoryId,omitempty"`
	VariationsCount int    `json:"variationsCount"`
}

// CartItem is a client-supplied cart line.
type CartItem struct {
	ID            string             `json:"id"`
	VariationID   string             `json:"variationId,omitempty"`
	VariationName string             `json:"variationName,omitempty"`
	Quantity      int                `json:"quantity"`
	Name          string             `json:"name"`
	Price         int64              `json:"price"`
	Modifiers     []SelectedModifier `json:"modifiers,omitempty"`
	Note          string             `json:"note,omitempty"`
}

// CatalogObjectID is the id placed on the provider line item: the chosen
// variation when present, the item otherwise.
func (c CartItem) CatalogObjectID() string {
	if c.VariationID != "" {
		return c.VariationID
	}
	return c.ID
}

type SelectedModifier struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Price int64  `json:"price"`
}

// Fulfillment kinds accepted from the client.
const (
	FulfillmentPickup   = "PICKUP"
	FulfillmentShipment = "SHIPMENT"
)

// Money is an amount in minor units with its currency.
type Money struct {
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
}

// Checkout modes.
const (
	CheckoutModeOrder    = "order"
	CheckoutModeQuickPay = "quick_pay"
)
