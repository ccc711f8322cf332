package clinical

import "context"

type DiagnosisRepository interface {
	List(ctx context.Context) ([]Diagnosis, error)
	Get(ctx context.Context, id string) (Diagnosis, error)
	Create(ctx context.Context, d Diagnosis) (Diagnosis, error)
	Update(ctx context.Context, id string, patch DiagnosisPatch) (Diagnosis, error)
	Delete(ctx context.Context, id string) error
}
