package diagnostics

import "context"

type OrderRepository interface {
	List(ctx context.Context) ([]LabOrder, error)
	Get(ctx context.Context, id string) (LabOrder, error)
	Create(ctx context.Context, o LabOrder) (LabOrder, error)
	Update(ctx context.Context, id string, patch LabOrderPatch) (LabOrder, error)
	Delete(ctx context.Context, id string) error
}

type ResultRepository interface {
	List(ctx context.Context) ([]LabResult, error)
	Get(ctx context.Context, id string) (LabResult, error)
	Create(ctx context.Context, r LabResult) (LabResult, error)
	Update(ctx context.Context, id string, patch LabResultPatch) (LabResult, error)
	Delete(ctx context.Context, id string) error
}
