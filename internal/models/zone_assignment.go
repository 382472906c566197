package models

import "time"

// WorkerZoneAssignment 员工负责的分区
type WorkerZoneAssignment struct {
	ID         uint      `json:"id" gorm:"primarykey"`
	UserID     uint      `json:"user_id" gorm:"not null;uniqueIndex:idx_worker_zone"`
	ZoneID     uint      `json:"zone_id" gorm:"not null;uniqueIndex:idx_worker_zone;index"`
	TenantID   uint      `json:"tenant_id" gorm:"not null;index"`
	AssignedBy uint      `json:"assigned_by"`
	AssignedAt time.Time `json:"assigned_at" gorm:"not null"`
}

func (WorkerZoneAssignment) TableName() string {
	return "worker_zone_assignments"
}
