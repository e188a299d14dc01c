package service

import (
	"context"
	"fmt"
	"io"
	"time"

	"deco-front-go/internal/config"
	"deco-front-go/pkg/kafka"
	"deco-front-go/pkg/log"
	"deco-front-go/pkg/storage"
	"deco-front-go/pkg/tasks"
)

// ImportService 定义了目录导入的入队接口。
// 上传的文件先落入对象存储，再通过消息队列异步推给远端后端解析，
// 接口立即返回对象名作为任务凭据。
type ImportService interface {
	Enqueue(ctx context.Context, clientKey, token, fileName, sourceName string, file io.Reader, size int64, contentType string) (string, error)
}

type importService struct{}

// NewImportService 创建一个新的 ImportService 实例。
func NewImportService() ImportService {
	return &importService{}
}

// Enqueue 将导入文件写入 MinIO 并投递 Kafka 任务。
func (s *importService) Enqueue(ctx context.Context, clientKey, token, fileName, sourceName string, file io.Reader, size int64, contentType string) (string, error) {
	objectName := fmt.Sprintf("%d-%s", time.Now().UnixNano(), fileName)
	bucket := config.Conf.MinIO.BucketName

	if err := storage.PutObject(ctx, bucket, objectName, file, size, contentType); err != nil {
		return "", fmt.Errorf("failed to stage import file: %w", err)
	}

	task := tasks.CatalogImportTask{
		ObjectName: objectName,
		FileName:   fileName,
		SourceName: sourceName,
		ClientKey:  clientKey,
		Token:      token,
	}
	if err := kafka.ProduceImportTask(task); err != nil {
		// 入队失败时回收已暂存的对象，避免存储里留下孤儿文件
		storage.RemoveObject(ctx, bucket, objectName)
		return "", fmt.Errorf("failed to enqueue import task: %w", err)
	}

	log.Infof("导入任务已入队: object=%s, source=%s", objectName, sourceName)
	return objectName, nil
}
