// internal/services/admin_service.go
package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/javajoker/jingjai-backend/internal/models"
	"github.com/javajoker/jingjai-backend/internal/utils"
)

var auditLogSort = utils.SortSpec{
	Columns: map[string]string{
		"created_at":  "created_at",
		"action":      "action",
		"status_code": "status_code",
	},
	DefaultSort:  "created_at",
	DefaultOrder: "desc",
	TieBreaker:   "id",
}

type AdminService struct {
	db *gorm.DB
}

type AdminDashboardStats struct {
	TotalUsers             int64 `json:"total_users"`
	ActiveUsers            int64 `json:"active_users"`
	NewUsersThisMonth      int64 `json:"new_users_this_month"`
	TotalPayments          int64 `json:"total_payments"`
	SucceededPayments      int64 `json:"succeeded_payments"`
	FailedPayments         int64 `json:"failed_payments"`
	RefundedPayments       int64 `json:"refunded_payments"`
	PendingAuthentications int64 `json:"pending_authentications"`
	ActiveProducts         int64 `json:"active_products"`
}

type AdminPaymentFilter struct {
	utils.PaginationParams
	Status        *models.PaymentStatus
	UserID        *uuid.UUID
	CreatedAfter  *time.Time
	CreatedBefore *time.Time
}

type AdminAuditLogFilter struct {
	utils.PaginationParams
	UserID       *uuid.UUID
	ResourceType string
	Action       string
}

func NewAdminService(db *gorm.DB) *AdminService {
	return &AdminService{db: db}
}

// Dashboard Statistics
func (s *AdminService) GetDashboardStats(ctx context.Context) (*AdminDashboardStats, error) {
	stats := &AdminDashboardStats{}
	now := time.Now()
	monthStart := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
	db := s.db.WithContext(ctx)

	counts := []struct {
		target *int64
		query  *gorm.DB
	}{
		{&stats.TotalUsers, db.Model(&models.User{})},
		{&stats.ActiveUsers, db.Model(&models.User{}).Where("is_active = ?", true)},
		{&stats.NewUsersThisMonth, db.Model(&models.User{}).Where("created_at >= ?", monthStart)},
		{&stats.TotalPayments, db.Model(&models.Payment{})},
		{&stats.SucceededPayments, db.Model(&models.Payment{}).Where("status = ?", models.PaymentStatusSucceeded)},
		{&stats.FailedPayments, db.Model(&models.Payment{}).Where("status = ?", models.PaymentStatusFailed)},
		{&stats.RefundedPayments, db.Model(&models.Payment{}).
			Where("status IN ?", []models.PaymentStatus{models.PaymentStatusRefunded, models.PaymentStatusPartiallyRefunded})},
		{&stats.PendingAuthentications, db.Model(&models.AuthenticationRecord{}).
			Where("status = ?", models.AuthenticationStatusPending)},
		{&stats.ActiveProducts, db.Model(&models.Product{}).Where("is_active = ?", true)},
	}
	for _, c := range counts {
		if err := c.query.Count(c.target).Error; err != nil {
			return nil, fmt.Errorf("failed to compute dashboard stats: %w", err)
		}
	}

	return stats, nil
}

// Payment Management
func (s *AdminService) ListPayments(ctx context.Context, filter AdminPaymentFilter) ([]models.Payment, int64, error) {
	query := s.db.WithContext(ctx).Model(&models.Payment{})

	if filter.Status != nil {
		query = query.Where("status = ?", *filter.Status)
	}
	if filter.UserID != nil {
		query = query.Where("user_id = ?", *filter.UserID)
	}
	if filter.CreatedAfter != nil {
		query = query.Where("created_at >= ?", *filter.CreatedAfter)
	}
	if filter.CreatedBefore != nil {
		query = query.Where("created_at <= ?", *filter.CreatedBefore)
	}
	query = query.Session(&gorm.Session{})

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count payments: %w", err)
	}

	payments := make([]models.Payment, 0)
	page := utils.ApplyPagination(utils.ApplySort(query, filter.PaginationParams, paymentSort), filter.PaginationParams)
	if err := page.Preload("Refunds").Find(&payments).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to fetch payments: %w", err)
	}

	return payments, total, nil
}

// Audit Logs
func (s *AdminService) ListAuditLogs(ctx context.Context, filter AdminAuditLogFilter) ([]models.AuditLog, int64, error) {
	query := s.db.WithContext(ctx).Model(&models.AuditLog{})

	if filter.UserID != nil {
		query = query.Where("user_id = ?", *filter.UserID)
	}
	if filter.ResourceType != "" {
		query = query.Where("resource_type = ?", filter.ResourceType)
	}
	if filter.Action != "" {
		query = query.Where("action = ?", filter.Action)
	}
	query = query.Session(&gorm.Session{})

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count audit logs: %w", err)
	}

	logs := make([]models.AuditLog, 0)
	page := utils.ApplyPagination(utils.ApplySort(query, filter.PaginationParams, auditLogSort), filter.PaginationParams)
	if err := page.Find(&logs).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to fetch audit logs: %w", err)
	}

	return logs, total, nil
}

func (s *AdminService) RecordAuditLog(ctx context.Context, entry *models.AuditLog) error {
	if err := s.db.WithContext(ctx).Create(entry).Error; err != nil {
		return fmt.Errorf("failed to write audit log: %w", err)
	}
	return nil
}
