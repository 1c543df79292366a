package resources

// ERP groups the typed collections of one tenant.
type ERP struct {
	Locations        *Collection[Location]
	DeliveryOrders   *Collection[DeliveryOrder]
	IncomingProducts *Collection[IncomingProduct]
	StockAdjustments *Collection[StockAdjustment]
	Invoices         *Collection[Invoice]
}

func New(doer Doer) *ERP {
	return &ERP{
		Locations:        NewCollection[Location](doer, LocationsPath),
		DeliveryOrders:   NewCollection[DeliveryOrder](doer, DeliveryOrdersPath),
		IncomingProducts: NewCollection[IncomingProduct](doer, IncomingProductsPath),
		StockAdjustments: NewCollection[StockAdjustment](doer, StockAdjustmentsPath),
		Invoices:         NewCollection[Invoice](doer, InvoicesPath),
	}
}
