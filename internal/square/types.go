package square

// Catalog object types.
const (
	ObjectTypeItem          = "ITEM"
	ObjectTypeItemVariation = "ITEM_VARIATION"
	ObjectTypeCategory      = "CATEGORY"
	ObjectTypeImage         = "IMAGE"
	ObjectTypeModifierList  = "MODIFIER_LIST"
	ObjectTypeModifier      = "MODIFIER"
)

// Money is an amount in the smallest denomination of Currency.
type Money struct {
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
}

// CatalogObject is a tagged record: Type selects which of the *Data pointers
// is populated. It decodes the provider's catalog JSON directly.
type CatalogObject struct {
	Type      string `json:"type"`
	ID        string `json:"id"`
	IsDeleted bool   `json:"is_deleted,omitempty"`

	ItemData          *ItemData          `json:"item_data,omitempty"`
	ItemVariationData *ItemVariationData `json:"item_variation_data,omitempty"`
	CategoryData      *CategoryData      `json:"category_data,omitempty"`
	ImageData         *ImageData         `json:"image_data,omitempty"`
	ModifierListData  *ModifierListData  `json:"modifier_list_data,omitempty"`
	ModifierData      *ModifierData      `json:"modifier_data,omitempty"`
}

type ItemData struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	CategoryID  string `json:"category_id,omitempty"`
	// Categories is the newer multi-category field; CategoryID is kept by
	// older catalogs.
	Categories       []CategoryRef      `json:"categories,omitempty"`
	ImageIDs         []string           `json:"image_ids,omitempty"`
	Variations       []CatalogObject    `json:"variations,omitempty"`
	ModifierListInfo []ModifierListInfo `json:"modifier_list_info,omitempty"`
	// AvailableOnline is a pointer because absence means available.
	AvailableOnline *bool `json:"available_online,omitempty"`
}

type CategoryRef struct {
	ID string `json:"id"`
}

type ItemVariationData struct {
	Name       string `json:"name,omitempty"`
	SKU        string `json:"sku,omitempty"`
	PriceMoney *Money `json:"price_money,omitempty"`
}

type ModifierListInfo struct {
	ModifierListID       string `json:"modifier_list_id"`
	MinSelectedModifiers *int   `json:"min_selected_modifiers,omitempty"`
	MaxSelectedModifiers *int   `json:"max_selected_modifiers,omitempty"`
	Enabled              *bool  `json:"enabled,omitempty"`
}

type CategoryData struct {
	Name string `json:"name"`
}

type ImageData struct {
	URL string `json:"url"`
}

type ModifierListData struct {
	Name          string          `json:"name"`
	SelectionType string          `json:"selection_type,omitempty"`
	Modifiers     []CatalogObject `json:"modifiers,omitempty"`
}

type ModifierData struct {
	Name       string `json:"name"`
	PriceMoney *Money `json:"price_money,omitempty"`
}

// ListCatalogResponse is one page of catalog objects.
type ListCatalogResponse struct {
	Objects []CatalogObject `json:"objects,omitempty"`
	Cursor  string          `json:"cursor,omitempty"`
}

// Order enumerations, as named by the provider.
const (
	LineItemTypeItem = "ITEM"

	FulfillmentTypePickup   = "PICKUP"
	FulfillmentTypeShipment = "SHIPMENT"

	FulfillmentStateProposed = "PROPOSED"

	PickupScheduleASAP = "ASAP"
)

// Order is the request and response view of a provider order. ReferenceID
// carries an external identifier, such as the id of a previously created
// order.
type Order struct {
	ID           string
	LocationID   string
	ReferenceID  string
	LineItems    []LineItem
	Fulfillments []Fulfillment
	TotalMoney   *Money
}

type LineItem struct {
	// Quantity is a decimal string.
	Quantity        string
	CatalogObjectID string
	ItemType        string
	Note            string
	Modifiers       []LineItemModifier
}

type LineItemModifier struct {
	CatalogObjectID string
	Quantity        string
}

type Fulfillment struct {
	Type            string
	State           string
	PickupDetails   *PickupDetails
	ShipmentDetails *ShipmentDetails
}

type Recipient struct {
	EmailAddress string
}

type PickupDetails struct {
	Recipient    *Recipient
	Note         string
	ScheduleType string
}

type ShipmentDetails struct {
	Recipient    *Recipient
	ShippingNote string
}

type CreateOrderRequest struct {
	IdempotencyKey string
	Order          Order
}

type CreateOrderResponse struct {
	Order *Order
}

type CheckoutOptions struct {
	RedirectURL           string
	MerchantSupportEmail  string
	AskForShippingAddress bool
	AllowTipping          bool
}

type PrePopulatedData struct {
	BuyerEmail string
}

// QuickPay is an ad-hoc single-amount checkout with no catalog linkage.
type QuickPay struct {
	Name       string
	PriceMoney Money
	LocationID string
}

// CreatePaymentLinkRequest must set exactly one of Order or QuickPay.
type CreatePaymentLinkRequest struct {
	IdempotencyKey   string
	Description      string
	Order            *Order
	QuickPay         *QuickPay
	CheckoutOptions  *CheckoutOptions
	PrePopulatedData *PrePopulatedData
	PaymentNote      string
}

type PaymentLink struct {
	ID string
	// OrderID is the order the hosted page collects payment for.
	OrderID string
	URL     string
}

type CreatePaymentLinkResponse struct {
	PaymentLink *PaymentLink
}

type CreatePaymentRequest struct {
	SourceID       string
	IdempotencyKey string
	AmountMoney    Money
	LocationID     string
	Note           string
	Autocomplete   bool
}

type Payment struct {
	ID          string
	Status      string
	AmountMoney *Money
	ReceiptURL  string
}

type CreatePaymentResponse struct {
	Payment *Payment
}
