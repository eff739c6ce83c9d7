package intake

import (
	"context"

	"gorm.io/gorm"
)

type RequestRepository interface {
	CreateRequest(ctx context.Context, rec RequestRecord) (uint, error)
}

type requestRepository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) RequestRepository {
	return &requestRepository{db: db}
}

// CreateRequest добавляет ровно одну строку и возвращает присвоенный id.
// Вставка выполняется одним атомарным оператором, частичная запись не
// наблюдаема.
func (r *requestRepository) CreateRequest(ctx context.Context, rec RequestRecord) (uint, error) {
	if err := r.db.WithContext(ctx).Create(&rec).Error; err != nil {
		return 0, err
	}
	return rec.ID, nil
}
