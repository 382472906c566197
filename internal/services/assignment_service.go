package services

import (
	"context"
	"time"

	"cropcare/internal/models"
	"cropcare/internal/policy"
	apperrors "cropcare/pkg/errors"
	"cropcare/pkg/logger"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// AssignmentService 员工分区分配
type AssignmentService struct {
	db  *gorm.DB
	log *logrus.Logger
	now func() time.Time
}

// NewAssignmentService 创建分配服务
func NewAssignmentService(db *gorm.DB) *AssignmentService {
	return &AssignmentService{
		db:  db,
		log: logger.GetLogger(),
		now: time.Now,
	}
}

// AssignZonesParams 覆盖式分配，zone_ids 为空表示清空
type AssignZonesParams struct {
	WorkerID uint   `json:"worker_id" validate:"required"`
	ZoneIDs  []uint `json:"zone_ids"`
}

// WorkerZones 员工当前负责的分区
type WorkerZones struct {
	WorkerID uint   `json:"worker_id"`
	ZoneIDs  []uint `json:"zone_ids"`
}

// AssignZones 用新的分区列表替换员工原有分配，员工和分区都必须属于管理员所在公司
func (s *AssignmentService) AssignZones(ctx context.Context, actor *models.Membership, p AssignZonesParams) (*WorkerZones, error) {
	if !policy.IsCompanyAdmin(actor) {
		return nil, apperrors.Forbidden("只有公司管理员可以分配分区")
	}
	if err := validateStruct(p); err != nil {
		return nil, err
	}
	tenantID := actor.TenantIDValue()
	zoneIDs := uniqueIDs(p.ZoneIDs)

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := findTenantWorker(tx, tenantID, p.WorkerID); err != nil {
			return err
		}

		if len(zoneIDs) > 0 {
			var count int64
			err := tx.Model(&models.Zone{}).
				Where("id IN ? AND tenant_id = ?", zoneIDs, tenantID).
				Count(&count).Error
			if err != nil {
				return err
			}
			if int(count) != len(zoneIDs) {
				return apperrors.Validation("部分分区不存在或不属于本公司")
			}
		}

		if err := tx.Where("user_id = ?", p.WorkerID).Delete(&models.WorkerZoneAssignment{}).Error; err != nil {
			return err
		}
		if len(zoneIDs) == 0 {
			return nil
		}

		now := s.now()
		rows := make([]models.WorkerZoneAssignment, 0, len(zoneIDs))
		for _, zoneID := range zoneIDs {
			rows = append(rows, models.WorkerZoneAssignment{
				UserID:     p.WorkerID,
				ZoneID:     zoneID,
				TenantID:   tenantID,
				AssignedBy: actor.UserID,
				AssignedAt: now,
			})
		}
		return tx.Create(&rows).Error
	})
	if err != nil {
		return nil, classifyDBError(err, "assign zones")
	}

	s.log.WithFields(logrus.Fields{
		"worker_id": p.WorkerID,
		"tenant_id": tenantID,
		"zones":     len(zoneIDs),
		"actor_id":  actor.UserID,
	}).Info("员工分区已分配")
	return &WorkerZones{WorkerID: p.WorkerID, ZoneIDs: zoneIDs}, nil
}

// WorkerZones 员工只能查自己的分配，管理员可查本公司任意员工
func (s *AssignmentService) WorkerZones(ctx context.Context, actor *models.Membership, workerID uint) (*WorkerZones, error) {
	if !policy.IsCompanyMember(actor) {
		return nil, apperrors.Forbidden("只有公司成员可以查看分区分配")
	}
	db := s.db.WithContext(ctx)
	tenantID := actor.TenantIDValue()

	if actor.Role == models.RoleWorker {
		if actor.UserID != workerID {
			return nil, apperrors.Forbidden("不能查看其他员工的分区")
		}
	} else if err := findTenantWorker(db, tenantID, workerID); err != nil {
		return nil, classifyDBError(err, "load worker")
	}

	zoneIDs := []uint{}
	err := db.Model(&models.WorkerZoneAssignment{}).
		Where("user_id = ? AND tenant_id = ?", workerID, tenantID).
		Order("zone_id ASC").
		Pluck("zone_id", &zoneIDs).Error
	if err != nil {
		return nil, classifyDBError(err, "list worker zones")
	}
	return &WorkerZones{WorkerID: workerID, ZoneIDs: zoneIDs}, nil
}

func findTenantWorker(db *gorm.DB, tenantID, userID uint) error {
	var count int64
	err := db.Model(&models.Membership{}).
		Where("user_id = ? AND tenant_id = ? AND role = ?", userID, tenantID, models.RoleWorker).
		Count(&count).Error
	if err != nil {
		return err
	}
	if count == 0 {
		return apperrors.NotFound("员工不存在或不属于本公司")
	}
	return nil
}

func uniqueIDs(ids []uint) []uint {
	seen := make(map[uint]struct{}, len(ids))
	out := make([]uint, 0, len(ids))
	for _, id := range ids {
		if id == 0 {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
