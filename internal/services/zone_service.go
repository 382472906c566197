package services

import (
	"context"
	"strings"

	"cropcare/internal/models"
	"cropcare/internal/policy"
	apperrors "cropcare/pkg/errors"
	"cropcare/pkg/logger"
	"cropcare/pkg/pagination"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

var errZoneNameTaken = apperrors.Conflict("分区名称已存在")

// ZoneService 分区管理，所有操作都经过访问策略判定
type ZoneService struct {
	db  *gorm.DB
	log *logrus.Logger
}

// NewZoneService 创建分区服务
func NewZoneService(db *gorm.DB) *ZoneService {
	return &ZoneService{
		db:  db,
		log: logger.GetLogger(),
	}
}

// ZoneParams 创建或更新分区
type ZoneParams struct {
	Name        *string  `json:"name" validate:"omitempty,max=120"`
	Description *string  `json:"description" validate:"omitempty,max=500"`
	AreaHa      *float64 `json:"area_ha" validate:"omitempty,min=0"`
}

// Create 公司成员在本公司下创建，个人用户创建个人分区
func (s *ZoneService) Create(ctx context.Context, actor *models.Membership, p ZoneParams) (*models.Zone, error) {
	if err := validateStruct(p); err != nil {
		return nil, err
	}
	if actor == nil {
		return nil, apperrors.Forbidden("缺少成员关系")
	}

	zone := &models.Zone{OwnerID: actor.UserID}
	if actor.TenantID != nil {
		tenantID := *actor.TenantID
		zone.TenantID = &tenantID
	}
	if !policy.CanCreate(actor, zone.TenantID) {
		return nil, apperrors.Forbidden("无权创建分区")
	}
	applyZoneParams(zone, p)
	if err := zone.Validate(); err != nil {
		return nil, err
	}

	if err := s.db.WithContext(ctx).Create(zone).Error; err != nil {
		if isUniqueViolation(err) {
			return nil, errZoneNameTaken
		}
		return nil, classifyDBError(err, "create zone")
	}
	s.log.WithFields(logrus.Fields{
		"zone_id":   zone.ID,
		"tenant_id": zone.TenantID,
		"owner_id":  zone.OwnerID,
	}).Info("分区创建成功")
	return zone, nil
}

// List 列出可读的分区
func (s *ZoneService) List(ctx context.Context, actor *models.Membership, page *pagination.PageParams) ([]models.Zone, int64, error) {
	return s.list(ctx, actor, false, page)
}

// ListAssigned 只列出分配给当前员工的分区，管理员和个人用户与 List 相同
func (s *ZoneService) ListAssigned(ctx context.Context, actor *models.Membership, page *pagination.PageParams) ([]models.Zone, int64, error) {
	return s.list(ctx, actor, true, page)
}

func (s *ZoneService) list(ctx context.Context, actor *models.Membership, assignedOnly bool, page *pagination.PageParams) ([]models.Zone, int64, error) {
	if actor == nil || !actor.IsActive {
		return nil, 0, apperrors.Forbidden("成员关系已停用")
	}
	db := s.db.WithContext(ctx)
	query := db.Model(&models.Zone{})
	if policy.IsCompanyMember(actor) {
		query = query.Where("tenant_id = ?", actor.TenantIDValue())
		if assignedOnly && actor.Role == models.RoleWorker {
			assigned := db.Model(&models.WorkerZoneAssignment{}).
				Select("zone_id").
				Where("user_id = ? AND tenant_id = ?", actor.UserID, actor.TenantIDValue())
			query = query.Where("id IN (?)", assigned)
		}
	} else {
		query = query.Where("owner_id = ? AND tenant_id IS NULL", actor.UserID)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, classifyDBError(err, "count zones")
	}
	var zones []models.Zone
	err := query.Order("name ASC, id ASC").
		Offset(page.GetOffset()).
		Limit(page.GetLimit()).
		Find(&zones).Error
	if err != nil {
		return nil, 0, classifyDBError(err, "list zones")
	}
	return zones, total, nil
}

// Get 不可读的分区按不存在处理
func (s *ZoneService) Get(ctx context.Context, actor *models.Membership, id uint) (*models.Zone, error) {
	var zone models.Zone
	if err := s.db.WithContext(ctx).First(&zone, id).Error; err != nil {
		if isNotFound(err) {
			return nil, apperrors.NotFound("分区不存在")
		}
		return nil, classifyDBError(err, "load zone")
	}
	if !policy.CanRead(actor, &zone) {
		return nil, apperrors.NotFound("分区不存在")
	}
	return &zone, nil
}

// Update 修改分区
func (s *ZoneService) Update(ctx context.Context, actor *models.Membership, id uint, p ZoneParams) (*models.Zone, error) {
	if err := validateStruct(p); err != nil {
		return nil, err
	}
	zone, err := s.Get(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	if !policy.CanWrite(actor, zone) {
		return nil, apperrors.Forbidden("无权修改该分区")
	}

	applyZoneParams(zone, p)
	if err := zone.Validate(); err != nil {
		return nil, err
	}
	err = s.db.WithContext(ctx).Model(&models.Zone{}).Where("id = ?", zone.ID).Updates(map[string]interface{}{
		"name":        zone.Name,
		"description": zone.Description,
		"area_ha":     zone.AreaHa,
	}).Error
	if err != nil {
		if isUniqueViolation(err) {
			return nil, errZoneNameTaken
		}
		return nil, classifyDBError(err, "update zone")
	}
	return zone, nil
}

func applyZoneParams(zone *models.Zone, p ZoneParams) {
	if p.Name != nil {
		zone.Name = *p.Name
	}
	if p.Description != nil {
		zone.Description = strings.TrimSpace(*p.Description)
	}
	if p.AreaHa != nil {
		zone.AreaHa = *p.AreaHa
	}
}
