// Package repository 提供了数据访问层的实现。
package repository

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"deco-front-go/internal/model"

	"gorm.io/gorm"
)

// ProjectSnapshot 定义了 project_snapshot 表的 ORM 模型。
// 每个客户端一行，Payload 是整个项目集合的 JSON 快照——
// 它是浏览器 localStorage 的服务端替身，每次变更整体重写。
type ProjectSnapshot struct {
	ID        uint      `gorm:"primaryKey;autoIncrement"`
	ClientKey string    `gorm:"type:varchar(191);uniqueIndex;not null"`
	Payload   string    `gorm:"type:longtext;not null"`
	UpdatedAt time.Time `gorm:"autoUpdateTime"`
}

// TableName 指定了此模型在数据库中对应的表名。
func (ProjectSnapshot) TableName() string {
	return "project_snapshot"
}

// ProjectRepository 定义了项目集合本地快照的操作接口。
type ProjectRepository interface {
	// LoadSnapshot 读取客户端的项目集合快照；没有快照时返回空集合。
	LoadSnapshot(clientKey string) ([]model.Project, error)
	// SaveSnapshot 将完整的项目集合整体写入快照。
	SaveSnapshot(clientKey string, projects []model.Project) error
}

type gormProjectRepository struct {
	db *gorm.DB
}

// NewProjectRepository 创建一个新的 ProjectRepository 实例。
func NewProjectRepository(db *gorm.DB) ProjectRepository {
	return &gormProjectRepository{db: db}
}

func (r *gormProjectRepository) LoadSnapshot(clientKey string) ([]model.Project, error) {
	var row ProjectSnapshot
	err := r.db.Where("client_key = ?", clientKey).First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return []model.Project{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load project snapshot: %w", err)
	}

	var projects []model.Project
	if err := json.Unmarshal([]byte(row.Payload), &projects); err != nil {
		return nil, fmt.Errorf("failed to unmarshal project snapshot: %w", err)
	}
	return projects, nil
}

func (r *gormProjectRepository) SaveSnapshot(clientKey string, projects []model.Project) error {
	if projects == nil {
		projects = []model.Project{}
	}
	payload, err := json.Marshal(projects)
	if err != nil {
		return fmt.Errorf("failed to marshal project snapshot: %w", err)
	}

	var row ProjectSnapshot
	err = r.db.Where("client_key = ?", clientKey).First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		row = ProjectSnapshot{ClientKey: clientKey, Payload: string(payload)}
		if err := r.db.Create(&row).Error; err != nil {
			return fmt.Errorf("failed to create project snapshot: %w", err)
		}
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to query project snapshot: %w", err)
	}

	row.Payload = string(payload)
	if err := r.db.Save(&row).Error; err != nil {
		return fmt.Errorf("failed to update project snapshot: %w", err)
	}
	return nil
}
