package models

import (
	"time"

	"github.com/pkg/errors"
	"gorm.io/gorm"
)

// TrackingRecord is the persisted form of one tracked sub-item
type TrackingRecord struct {
	Key               string            `gorm:"primaryKey" json:"key"`
	CreatedAt         time.Time         `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt         time.Time         `gorm:"autoUpdateTime" json:"updated_at"`
	OrderID           string            `gorm:"not null;index" json:"order_id"`
	Unit              int               `gorm:"not null" json:"unit"`
	CurrentStageID    int               `gorm:"not null;default:1" json:"current_stage_id"`
	DeliveryConfirmed bool              `gorm:"not null;default:false" json:"delivery_confirmed"`
	DeliveredDate     *string           `json:"delivered_date"`
	DeliveredTime     *string           `json:"delivered_time"`
	History           []TrackingHistory `gorm:"foreignKey:RecordKey;references:Key" json:"history"`
}

// TrackingHistory is the date and time a tracked sub-item reached a stage
type TrackingHistory struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	RecordKey string    `gorm:"not null;uniqueIndex:idx_tracking_history_stage" json:"record_key"`
	StageID   int       `gorm:"not null;uniqueIndex:idx_tracking_history_stage" json:"stage_id"`
	Date      string    `gorm:"not null" json:"date"`
	Time      string    `gorm:"not null" json:"time"`
}

// SetupModels runs the migrations for the tracking tables
func SetupModels(db *gorm.DB) error {
	if err := db.AutoMigrate(&TrackingRecord{}, &TrackingHistory{}); err != nil {
		return errors.Wrap(err, "failed to run auto migrations")
	}
	return nil
}
