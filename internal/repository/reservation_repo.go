package repository

import (
	"context"

	"gorm.io/gorm"

	"campus-venue/internal/model"
	pkgerrors "campus-venue/pkg/errors"
)

// ReservationFilter 预约列表过滤条件（零值字段不参与过滤）
type ReservationFilter struct {
	OwnerID *uint
	RoomID  *uint
	Status  string
}

// ReservationRepository 预约数据访问接口
type ReservationRepository interface {
	Create(ctx context.Context, r *model.Reservation) error
	GetByID(ctx context.Context, id uint) (*model.Reservation, error)
	List(ctx context.Context, filter ReservationFilter) ([]model.Reservation, error)
	ListByStatus(ctx context.Context, status string) ([]model.Reservation, error)
	// Update 整行覆盖可变字段，version 不匹配时返回 ErrOptimisticLock
	Update(ctx context.Context, r *model.Reservation) error
	Delete(ctx context.Context, id uint) error
}

type reservationRepo struct {
	db *gorm.DB
}

// NewReservationRepo 创建 ReservationRepository 实例
func NewReservationRepo(db *gorm.DB) ReservationRepository {
	return &reservationRepo{db: db}
}

func (r *reservationRepo) Create(ctx context.Context, res *model.Reservation) error {
	return r.db.WithContext(ctx).Create(res).Error
}

func (r *reservationRepo) GetByID(ctx context.Context, id uint) (*model.Reservation, error) {
	var res model.Reservation
	err := r.db.WithContext(ctx).
		Preload("Room").
		Where("id = ?", id).
		First(&res).Error
	if err != nil {
		return nil, err
	}
	return &res, nil
}

func (r *reservationRepo) List(ctx context.Context, filter ReservationFilter) ([]model.Reservation, error) {
	var list []model.Reservation
	db := r.db.WithContext(ctx).Preload("Room").Preload("Owner")

	if filter.OwnerID != nil {
		db = db.Where("owner_id = ?", *filter.OwnerID)
	}
	if filter.RoomID != nil {
		db = db.Where("room_id = ?", *filter.RoomID)
	}
	if filter.Status != "" {
		db = db.Where("status = ?", filter.Status)
	}

	err := db.Order("id ASC").Find(&list).Error
	return list, err
}

func (r *reservationRepo) ListByStatus(ctx context.Context, status string) ([]model.Reservation, error) {
	return r.List(ctx, ReservationFilter{Status: status})
}

func (r *reservationRepo) Update(ctx context.Context, res *model.Reservation) error {
	oldVersion := res.Version
	result := r.db.WithContext(ctx).
		Model(&model.Reservation{}).
		Where("id = ? AND version = ?", res.ID, oldVersion).
		Updates(map[string]interface{}{
			"room_id":             res.RoomID,
			"activity_purpose":    res.ActivityPurpose,
			"division":            res.Division,
			"attendees":           res.Attendees,
			"participant_type":    res.ParticipantType,
			"participant_details": res.ParticipantDetails,
			"classification":      res.Classification,
			"person_in_charge":    res.PersonInCharge,
			"contact_number":      res.ContactNumber,
			"equipment":           res.Equipment,
			"start_time":          res.StartTime,
			"end_time":            res.EndTime,
			"final_form_ref":      res.FinalFormRef,
			"final_form_uploaded": res.FinalFormUploaded,
			"status":              res.Status,
			"denial_reason":       res.DenialReason,
			"archived_at":         res.ArchivedAt,
			"version":             oldVersion + 1,
			"updated_at":          gorm.Expr("NOW()"),
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return pkgerrors.ErrOptimisticLock
	}
	res.Version = oldVersion + 1
	return nil
}

func (r *reservationRepo) Delete(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).
		Where("id = ?", id).
		Delete(&model.Reservation{}).Error
}
