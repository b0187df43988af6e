package models

import "time"

// Genre is static reference data; rows are seeded, never written by the API.
type Genre struct {
	GenreID  int        `gorm:"primaryKey;column:genre_id" json:"genre_id"`
	Name     string     `gorm:"column:name;unique" json:"name"`
	CreateAt *time.Time `gorm:"column:create_at" json:"create_at"`
	UpdateAt *time.Time `gorm:"column:update_at" json:"update_at"`
	DeleteAt *time.Time `gorm:"column:delete_at" json:"delete_at,omitempty"`
}

func (Genre) TableName() string {
	return "genres"
}
