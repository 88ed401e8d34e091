package repositories

import (
	"context"

	"github.com/pkg/errors"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"example.com/backstage/services/herdadmin/internal/models"
	"example.com/backstage/services/herdadmin/internal/tracking"
)

// TrackingRepository keeps tracking records in postgres
type TrackingRepository struct {
	db *gorm.DB
}

// NewTrackingRepository creates a new tracking repository
func NewTrackingRepository(db *gorm.DB) *TrackingRepository {
	return &TrackingRepository{db: db}
}

// Get loads the record stored under key
func (r *TrackingRepository) Get(ctx context.Context, key tracking.Key) (tracking.Record, bool, error) {
	var row models.TrackingRecord
	err := r.db.WithContext(ctx).
		Preload("History").
		Where("key = ?", key.String()).
		First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return tracking.Record{}, false, nil
	}
	if err != nil {
		return tracking.Record{}, false, errors.Wrap(err, "failed to get tracking record")
	}
	return ToRecord(row), true, nil
}

// Put replaces the record stored under key and its history in one transaction
func (r *TrackingRepository) Put(ctx context.Context, key tracking.Key, rec tracking.Record) error {
	row := FromRecord(key, rec)
	history := row.History
	row.History = nil

	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := upsertRecord(tx, &row).Error; err != nil {
			return errors.Wrap(err, "failed to upsert tracking record")
		}
		if len(history) == 0 {
			return nil
		}
		if err := upsertHistory(tx, history).Error; err != nil {
			return errors.Wrap(err, "failed to upsert tracking history")
		}
		return nil
	})
}

func upsertRecord(tx *gorm.DB, row *models.TrackingRecord) *gorm.DB {
	return tx.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "key"}},
		DoUpdates: clause.AssignmentColumns([]string{"current_stage_id", "delivery_confirmed", "delivered_date", "delivered_time", "updated_at"}),
	}).Create(row)
}

func upsertHistory(tx *gorm.DB, history []models.TrackingHistory) *gorm.DB {
	return tx.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "record_key"}, {Name: "stage_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"date", "time"}),
	}).Create(&history)
}

// ListByOrder returns the records of every tracked sub-item of an order
func (r *TrackingRepository) ListByOrder(ctx context.Context, orderID string) (map[int]tracking.Record, error) {
	var rows []models.TrackingRecord
	err := r.db.WithContext(ctx).
		Preload("History").
		Where("order_id = ?", orderID).
		Order("unit").
		Find(&rows).Error
	if err != nil {
		return nil, errors.Wrap(err, "failed to list tracking records")
	}

	out := make(map[int]tracking.Record, len(rows))
	for _, row := range rows {
		out[row.Unit] = ToRecord(row)
	}
	return out, nil
}

// ToRecord converts a stored row to a tracking record
func ToRecord(row models.TrackingRecord) tracking.Record {
	rec := tracking.Record{
		CurrentStageID: row.CurrentStageID,
		History:        make(map[int]tracking.Stamp, len(row.History)),
	}
	for _, h := range row.History {
		rec.History[h.StageID] = tracking.Stamp{Date: h.Date, Time: h.Time}
	}
	if row.DeliveryConfirmed {
		stamp := tracking.Stamp{}
		if row.DeliveredDate != nil {
			stamp.Date = *row.DeliveredDate
		}
		if row.DeliveredTime != nil {
			stamp.Time = *row.DeliveredTime
		}
		rec.DeliveryConfirmed = &stamp
	}
	return rec
}

// FromRecord converts a tracking record to a row. History rows come out in
// stage order.
func FromRecord(key tracking.Key, rec tracking.Record) models.TrackingRecord {
	row := models.TrackingRecord{
		Key:            key.String(),
		OrderID:        key.OrderID,
		Unit:           key.Unit,
		CurrentStageID: rec.CurrentStageID,
	}
	if rec.DeliveryConfirmed != nil {
		date, clock := rec.DeliveryConfirmed.Date, rec.DeliveryConfirmed.Time
		row.DeliveryConfirmed = true
		row.DeliveredDate = &date
		row.DeliveredTime = &clock
	}
	for id := tracking.FirstStage; id <= tracking.FinalStage; id++ {
		stamp, ok := rec.History[id]
		if !ok {
			continue
		}
		row.History = append(row.History, models.TrackingHistory{
			RecordKey: row.Key,
			StageID:   id,
			Date:      stamp.Date,
			Time:      stamp.Time,
		})
	}
	return row
}
