package intake

import "time"

// RequestRecord — строка таблицы requests. Создаётся один раз при успешной
// заявке и дальше не изменяется.
type RequestRecord struct {
	ID          uint      `json:"id" gorm:"primarykey"`
	Name        string    `json:"name" gorm:"not null"`
	Email       string    `json:"email" gorm:"not null"`
	PackageType string    `json:"package_type" gorm:"column:package_type"`
	Description string    `json:"description" gorm:"type:text"`
	FileURL     *string   `json:"file_url,omitempty" gorm:"type:text"`
	CreatedAt   time.Time `json:"created_at" gorm:"not null"`
}

func (RequestRecord) TableName() string {
	return "requests"
}
