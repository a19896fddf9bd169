package services

import (
	"context"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/ignation/worldcourse-backend/models"
)

type OrderParams struct {
	CourseIDs []uuid.UUID `json:"course_ids" binding:"required,min=1"`
}

// PlaceOrder creates a completed order and enrolls the user in each course they
// do not own yet. Order, items and enrollments are written in one transaction.
func PlaceOrder(ctx context.Context, db *gorm.DB, userID uuid.UUID, p OrderParams) (*models.Order, []models.CourseEnrollment, error) {
	ids := make([]uuid.UUID, 0, len(p.CourseIDs))
	seen := map[uuid.UUID]bool{}
	for _, id := range p.CourseIDs {
		if !seen[id] {
			seen[id] = true
			ids = append(ids, id)
		}
	}

	var order *models.Order
	var enrolled []models.CourseEnrollment
	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var courses []models.Course
		if err := tx.Where("id IN ?", ids).Find(&courses).Error; err != nil {
			return err
		}
		if len(courses) != len(ids) {
			return ErrNotFound
		}

		var owned []uuid.UUID
		if err := tx.Model(&models.CourseEnrollment{}).
			Where("user_id = ? AND course_id IN ?", userID, ids).
			Pluck("course_id", &owned).Error; err != nil {
			return err
		}
		have := map[uuid.UUID]bool{}
		for _, id := range owned {
			have[id] = true
		}

		order = &models.Order{UserID: userID, Status: models.OrderCompleted}
		for _, c := range courses {
			if have[c.ID] {
				continue
			}
			order.Items = append(order.Items, models.OrderItem{CourseID: c.ID, Price: c.Price})
			order.Total += c.Price
		}
		if len(order.Items) == 0 {
			verr := NewValidationError("already enrolled in every course of the order")
			verr.Add("course_ids", "already enrolled")
			return verr
		}
		if err := tx.Create(order).Error; err != nil {
			return err
		}

		orderID := order.ID
		for _, item := range order.Items {
			enrolled = append(enrolled, models.CourseEnrollment{
				CourseID: item.CourseID,
				UserID:   userID,
				OrderID:  &orderID,
			})
		}
		return tx.Omit(clause.Associations).Create(&enrolled).Error
	})
	if err != nil {
		var verr *ValidationError
		if errors.Is(err, ErrNotFound) || errors.As(err, &verr) {
			return nil, nil, err
		}
		return nil, nil, errors.Wrap(err, "placing order")
	}
	return order, enrolled, nil
}

func ListOrders(ctx context.Context, db *gorm.DB, userID uuid.UUID) ([]models.Order, error) {
	var orders []models.Order
	if err := db.WithContext(ctx).
		Preload("Items.Course").
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&orders).Error; err != nil {
		return nil, errors.Wrap(err, "listing orders")
	}
	return orders, nil
}

func ListEnrollments(ctx context.Context, db *gorm.DB, userID uuid.UUID) ([]models.CourseEnrollment, error) {
	var list []models.CourseEnrollment
	if err := db.WithContext(ctx).
		Preload("Course").
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&list).Error; err != nil {
		return nil, errors.Wrap(err, "listing enrollments")
	}
	return list, nil
}
