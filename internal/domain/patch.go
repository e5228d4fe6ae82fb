package domain

func assign[T any](dst *T, v *T) {
	if v != nil {
		*dst = *v
	}
}

func (u UserUpdateRequest) Apply(user *User) {
	assign(&user.Name, u.Name)
	assign(&user.Phone, u.Phone)
	assign(&user.Role, u.Role)
	assign(&user.StoreID, u.StoreID)
}

func (u InventoryUpdate) Apply(item *InventoryItem) {
	assign(&item.Item, u.Item)
	assign(&item.Description, u.Description)
	assign(&item.BuyingPrice, u.BuyingPrice)
	assign(&item.SellingPrice, u.SellingPrice)
	assign(&item.Rate, u.Rate)
	assign(&item.Tax, u.Tax)
	assign(&item.Barcode, u.Barcode)
	assign(&item.StoreID, u.StoreID)
	assign(&item.Quantity, u.Quantity)
}

func (u SaleUpdate) Apply(sale *Sale) {
	assign(&sale.BillNo, u.BillNo)
	assign(&sale.Server, u.Server)
	assign(&sale.Status, u.Status)
	assign(&sale.Total, u.Total)
	assign(&sale.PaymentMethod, u.PaymentMethod)
	assign(&sale.StoreID, u.StoreID)
	assign(&sale.Tax, u.Tax)
}

func (u SettingUpdate) Apply(setting *Setting) {
	assign(&setting.StoreID, u.StoreID)
	assign(&setting.Currency, u.Currency)
	assign(&setting.Timezone, u.Timezone)
	assign(&setting.TaxRate, u.TaxRate)
	assign(&setting.Theme, u.Theme)
	assign(&setting.NotificationsEnabled, u.NotificationsEnabled)
	if u.UpdatedAt != nil {
		setting.UpdatedAt = u.UpdatedAt
	}
}

// FullSaleUpdate sets every sale column from sale, as a recall does.
func FullSaleUpdate(sale Sale) SaleUpdate {
	return SaleUpdate{
		BillNo:        &sale.BillNo,
		Server:        &sale.Server,
		Status:        &sale.Status,
		Total:         &sale.Total,
		PaymentMethod: &sale.PaymentMethod,
		StoreID:       &sale.StoreID,
		Tax:           &sale.Tax,
	}
}
