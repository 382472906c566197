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

var errCropNameTaken = apperrors.Conflict("该分区已有同名作物")

// CropService 作物管理，权限跟随所在分区
type CropService struct {
	db    *gorm.DB
	log   *logrus.Logger
	zones *ZoneService
}

// NewCropService 创建作物服务
func NewCropService(db *gorm.DB, zones *ZoneService) *CropService {
	return &CropService{
		db:    db,
		log:   logger.GetLogger(),
		zones: zones,
	}
}

// CropParams 创建或更新作物
type CropParams struct {
	Name    *string `json:"name" validate:"omitempty,max=100"`
	Variety *string `json:"variety" validate:"omitempty,max=100"`
	Notes   *string `json:"notes" validate:"omitempty,max=500"`
}

// Create 在分区下新建作物，需要该分区的写权限
func (s *CropService) Create(ctx context.Context, actor *models.Membership, zoneID uint, p CropParams) (*models.Crop, error) {
	if err := validateStruct(p); err != nil {
		return nil, err
	}
	zone, err := s.zones.Get(ctx, actor, zoneID)
	if err != nil {
		return nil, err
	}
	if !policy.CanWrite(actor, zone) {
		return nil, apperrors.Forbidden("无权在该分区下创建作物")
	}

	crop := &models.Crop{
		ZoneID:   zone.ID,
		TenantID: zone.TenantID,
		OwnerID:  zone.OwnerID,
	}
	applyCropParams(crop, p)
	if err := crop.Validate(); err != nil {
		return nil, err
	}
	if err := s.db.WithContext(ctx).Create(crop).Error; err != nil {
		if isUniqueViolation(err) {
			return nil, errCropNameTaken
		}
		return nil, classifyDBError(err, "create crop")
	}

	s.log.WithFields(logrus.Fields{
		"crop_id": crop.ID,
		"zone_id": zone.ID,
		"user_id": actor.UserID,
	}).Info("作物创建成功")
	return crop, nil
}

// ListByZone 列出分区下的作物，按名称排序
func (s *CropService) ListByZone(ctx context.Context, actor *models.Membership, zoneID uint, page *pagination.PageParams) ([]models.Crop, int64, error) {
	if _, err := s.zones.Get(ctx, actor, zoneID); err != nil {
		return nil, 0, err
	}
	query := s.db.WithContext(ctx).Model(&models.Crop{}).Where("zone_id = ?", zoneID)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, classifyDBError(err, "count crops")
	}
	var crops []models.Crop
	err := query.Order("name ASC, id ASC").
		Offset(page.GetOffset()).
		Limit(page.GetLimit()).
		Find(&crops).Error
	if err != nil {
		return nil, 0, classifyDBError(err, "list crops")
	}
	return crops, total, nil
}

// Get 不可读的作物按不存在处理
func (s *CropService) Get(ctx context.Context, actor *models.Membership, id uint) (*models.Crop, error) {
	var crop models.Crop
	if err := s.db.WithContext(ctx).First(&crop, id).Error; err != nil {
		if isNotFound(err) {
			return nil, apperrors.NotFound("作物不存在")
		}
		return nil, classifyDBError(err, "load crop")
	}
	if !policy.CanRead(actor, &crop) {
		return nil, apperrors.NotFound("作物不存在")
	}
	return &crop, nil
}

// Update 修改作物
func (s *CropService) Update(ctx context.Context, actor *models.Membership, id uint, p CropParams) (*models.Crop, error) {
	if err := validateStruct(p); err != nil {
		return nil, err
	}
	crop, err := s.Get(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	if !policy.CanWrite(actor, crop) {
		return nil, apperrors.Forbidden("无权修改该作物")
	}

	applyCropParams(crop, p)
	if err := crop.Validate(); err != nil {
		return nil, err
	}
	err = s.db.WithContext(ctx).Model(&models.Crop{}).Where("id = ?", crop.ID).Updates(map[string]interface{}{
		"name":    crop.Name,
		"variety": crop.Variety,
		"notes":   crop.Notes,
	}).Error
	if err != nil {
		if isUniqueViolation(err) {
			return nil, errCropNameTaken
		}
		return nil, classifyDBError(err, "update crop")
	}
	return crop, nil
}

// Delete 删除作物
func (s *CropService) Delete(ctx context.Context, actor *models.Membership, id uint) error {
	crop, err := s.Get(ctx, actor, id)
	if err != nil {
		return err
	}
	if !policy.CanWrite(actor, crop) {
		return apperrors.Forbidden("无权删除该作物")
	}
	if err := s.db.WithContext(ctx).Delete(&models.Crop{}, crop.ID).Error; err != nil {
		return classifyDBError(err, "delete crop")
	}
	s.log.WithFields(logrus.Fields{
		"crop_id": crop.ID,
		"user_id": actor.UserID,
	}).Info("作物已删除")
	return nil
}

func applyCropParams(crop *models.Crop, p CropParams) {
	if p.Name != nil {
		crop.Name = *p.Name
	}
	if p.Variety != nil {
		crop.Variety = *p.Variety
	}
	if p.Notes != nil {
		crop.Notes = strings.TrimSpace(*p.Notes)
	}
}
