package repository

import "github.com/tu-usuario/fulfillment-pro/internal/domain/entity"

// JobCardRepository define el puerto de órdenes de fabricación (job cards).
type JobCardRepository interface {
	Create(job *entity.JobCard) error
	GetByID(id string) (*entity.JobCard, error)
	GetByIDForUpdate(id string) (*entity.JobCard, error)
	Update(job *entity.JobCard) error
	ListOpenByOrderLine(orderLineID string) ([]*entity.JobCard, error)
}
