// Package pipeline 实现了目录导入任务的异步处理流水线。
package pipeline

import (
	"context"
	"fmt"

	"deco-front-go/internal/config"
	"deco-front-go/pkg/log"
	"deco-front-go/pkg/remote"
	"deco-front-go/pkg/storage"
	"deco-front-go/pkg/tasks"
)

// ImportProcessor 消费目录导入任务：从对象存储取回暂存文件，
// 转交远端后端解析入库，成功后清理暂存对象。
type ImportProcessor struct {
	remote *remote.Client
}

// NewImportProcessor 创建一个新的 ImportProcessor 实例。
func NewImportProcessor(remoteClient *remote.Client) *ImportProcessor {
	return &ImportProcessor{remote: remoteClient}
}

// Process 处理单个导入任务。返回错误时消费端会按重试策略重投。
func (p *ImportProcessor) Process(ctx context.Context, task tasks.CatalogImportTask) error {
	bucket := config.Conf.MinIO.BucketName

	file, err := storage.GetObject(ctx, bucket, task.ObjectName)
	if err != nil {
		return fmt.Errorf("failed to fetch staged file: %w", err)
	}
	defer file.Close()

	sourceID, err := p.remote.ImportCatalog(ctx, task.FileName, file, task.SourceName, task.Token)
	if err != nil {
		return fmt.Errorf("failed to import catalog: %w", err)
	}
	log.Infof("目录导入完成: object=%s, source_id=%s", task.ObjectName, sourceID)

	// 暂存对象只在导入成功后清理；失败的任务重试时还要再读它
	storage.RemoveObject(ctx, bucket, task.ObjectName)
	return nil
}
