package medication

import "context"

type MedicineRepository interface {
	List(ctx context.Context) ([]Medicine, error)
	Get(ctx context.Context, id string) (Medicine, error)
	Create(ctx context.Context, m Medicine) (Medicine, error)
	Update(ctx context.Context, id string, patch MedicinePatch) (Medicine, error)
	Delete(ctx context.Context, id string) error
	// LowStock lists medicines the backend considers low on stock.
	LowStock(ctx context.Context) ([]Medicine, error)
}

type SaleRepository interface {
	List(ctx context.Context) ([]Sale, error)
	Get(ctx context.Context, id string) (Sale, error)
	Create(ctx context.Context, s Sale) (Sale, error)
	Update(ctx context.Context, id string, patch SalePatch) (Sale, error)
	Delete(ctx context.Context, id string) error
	TotalRevenue(ctx context.Context, start, end string) (Revenue, error)
	TodaySales(ctx context.Context) (DailySales, error)
}
