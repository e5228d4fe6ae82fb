package domain

import "time"

type User struct {
	ID         string     `json:"id,omitempty"`
	AuthUserID string     `json:"auth_user_id,omitempty"`
	Name       string     `json:"name"`
	Email      string     `json:"email"`
	Phone      string     `json:"phone"`
	Role       string     `json:"role"`
	StoreID    string     `json:"storeid"`
	CreatedAt  *time.Time `json:"created_at,omitempty"`
}

type UserCreateRequest struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Phone   string `json:"phone"`
	Role    string `json:"role"`
	StoreID string `json:"storeid"`
}

// UserUpdateRequest holds the user fields a PUT may change. Nil fields keep
// their stored value and are left out of the encoded patch.
type UserUpdateRequest struct {
	Name    *string `json:"name,omitempty"`
	Phone   *string `json:"phone,omitempty"`
	Role    *string `json:"role,omitempty"`
	StoreID *string `json:"storeid,omitempty"`
}

type PasswordResetRequest struct {
	Email string `json:"email"`
}

type Store struct {
	ID        string     `json:"id"`
	Name      string     `json:"name"`
	Address   string     `json:"address"`
	Phone     string     `json:"phone"`
	Email     string     `json:"email"`
	CreatedAt *time.Time `json:"created_at,omitempty"`
}

type InventoryItem struct {
	ID           string     `json:"id,omitempty"`
	Item         string     `json:"item"`
	Description  string     `json:"description"`
	BuyingPrice  float64    `json:"buyingprice"`
	SellingPrice float64    `json:"sellingprice"`
	Rate         float64    `json:"rate"`
	Tax          bool       `json:"tax"`
	Barcode      string     `json:"barcode"`
	StoreID      string     `json:"storeid"`
	Quantity     int        `json:"quantity"`
	CreatedAt    *time.Time `json:"created_at,omitempty"`
}

// InventoryUpdate holds the inventory columns a PUT may change. Nil fields keep
// their stored value.
type InventoryUpdate struct {
	Item         *string  `json:"item,omitempty"`
	Description  *string  `json:"description,omitempty"`
	BuyingPrice  *float64 `json:"buyingprice,omitempty"`
	SellingPrice *float64 `json:"sellingprice,omitempty"`
	Rate         *float64 `json:"rate,omitempty"`
	Tax          *bool    `json:"tax,omitempty"`
	Barcode      *string  `json:"barcode,omitempty"`
	StoreID      *string  `json:"storeid,omitempty"`
	Quantity     *int     `json:"quantity,omitempty"`
}

type Category struct {
	ID        string     `json:"id,omitempty"`
	Category  string     `json:"category"`
	StoreID   string     `json:"storeid"`
	CreatedAt *time.Time `json:"created_at,omitempty"`
}

type CategoryRequest struct {
	Category string `json:"category"`
	StoreID  string `json:"storeid"`
}

const (
	SaleStatusUnpaid   = "unpaid"
	SaleStatusPaid     = "paid"
	SaleStatusPartial  = "partial"
	SaleStatusRefunded = "refunded"
)

// Sale is one row of the sales table. SaleItems is only populated on reads
// that join the child rows.
type Sale struct {
	ID            string     `json:"id,omitempty"`
	BillNo        string     `json:"billno"`
	Server        string     `json:"server"`
	Status        string     `json:"status"`
	Total         float64    `json:"total"`
	PaymentMethod string     `json:"payment_method"`
	StoreID       string     `json:"storeid"`
	Tax           float64    `json:"tax"`
	CreatedAt     *time.Time `json:"created_at,omitempty"`
	SaleItems     []SaleItem `json:"sale_items,omitempty"`
}

type SaleItem struct {
	ID       string  `json:"id,omitempty"`
	BillNo   string  `json:"billno,omitempty"`
	Name     string  `json:"name"`
	Rate     float64 `json:"rate"`
	Quantity int     `json:"quantity"`
	Tax      float64 `json:"tax"`
	StoreID  string  `json:"storeid,omitempty"`
}

// SaleRequest is the body of POST /sales and PUT /sales/recall/{id}.
type SaleRequest struct {
	BillNo        string     `json:"billno"`
	Server        string     `json:"server"`
	Status        string     `json:"status"`
	Total         float64    `json:"total"`
	PaymentMethod string     `json:"payment_method"`
	StoreID       string     `json:"storeid"`
	Tax           float64    `json:"tax"`
	Items         []SaleItem `json:"items"`
}

// SaleUpdate changes sale columns only. Nil fields keep their stored value.
type SaleUpdate struct {
	BillNo        *string  `json:"billno,omitempty"`
	Server        *string  `json:"server,omitempty"`
	Status        *string  `json:"status,omitempty"`
	Total         *float64 `json:"total,omitempty"`
	PaymentMethod *string  `json:"payment_method,omitempty"`
	StoreID       *string  `json:"storeid,omitempty"`
	Tax           *float64 `json:"tax,omitempty"`
}

// SaleWithItems is the response of a sale write: the stored row merged with
// the line items that were submitted alongside it.
type SaleWithItems struct {
	Sale
	Items []SaleItem `json:"items"`
}

type Setting struct {
	ID                   string     `json:"id,omitempty"`
	StoreID              string     `json:"storeid"`
	Currency             string     `json:"currency"`
	Timezone             string     `json:"timezone"`
	TaxRate              float64    `json:"tax_rate"`
	Theme                string     `json:"theme"`
	NotificationsEnabled bool       `json:"notifications_enabled"`
	CreatedAt            *time.Time `json:"created_at,omitempty"`
	UpdatedAt            *time.Time `json:"updated_at,omitempty"`
}

type SettingRequest struct {
	StoreID              string  `json:"storeId"`
	Currency             string  `json:"currency"`
	Timezone             string  `json:"timezone"`
	TaxRate              float64 `json:"tax_rate"`
	Theme                string  `json:"theme"`
	NotificationsEnabled bool    `json:"notifications_enabled"`
}

// SettingUpdateRequest is the body of PUT /settings/{id}.
type SettingUpdateRequest struct {
	StoreID              *string  `json:"storeId,omitempty"`
	Currency             *string  `json:"currency,omitempty"`
	Timezone             *string  `json:"timezone,omitempty"`
	TaxRate              *float64 `json:"tax_rate,omitempty"`
	Theme                *string  `json:"theme,omitempty"`
	NotificationsEnabled *bool    `json:"notifications_enabled,omitempty"`
}

// SettingUpdate is the column patch written for a settings update.
type SettingUpdate struct {
	StoreID              *string    `json:"storeid,omitempty"`
	Currency             *string    `json:"currency,omitempty"`
	Timezone             *string    `json:"timezone,omitempty"`
	TaxRate              *float64   `json:"tax_rate,omitempty"`
	Theme                *string    `json:"theme,omitempty"`
	NotificationsEnabled *bool      `json:"notifications_enabled,omitempty"`
	UpdatedAt            *time.Time `json:"updated_at,omitempty"`
}

type ErrorLog struct {
	ID           string     `json:"id,omitempty"`
	StoreID      string     `json:"storeid"`
	ErrorMessage string     `json:"error_message"`
	CreatedAt    *time.Time `json:"created_at,omitempty"`
}

type ErrorLogRequest struct {
	StoreID      string `json:"storeId"`
	ErrorMessage string `json:"error_message"`
}

type HealthStatus struct {
	Status    string `json:"status"`
	Timestamp string `json:"timestamp"`
}

type MessageResponse struct {
	Message string `json:"message"`
}
