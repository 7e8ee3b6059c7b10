package models

import "time"

// BaseModel общие колонки записей журнала. Журнал только дописывается,
// поэтому soft delete из gorm.Model не нужен.
type BaseModel struct {
	ID        uint      `gorm:"primarykey"`
	CreatedAt time.Time `gorm:"index"`
	UpdatedAt time.Time
}
