package scheduling

import "context"

type AppointmentRepository interface {
	List(ctx context.Context) ([]Appointment, error)
	Get(ctx context.Context, id string) (Appointment, error)
	Create(ctx context.Context, a Appointment) (Appointment, error)
	Update(ctx context.Context, id string, patch AppointmentPatch) (Appointment, error)
	Delete(ctx context.Context, id string) error
}
