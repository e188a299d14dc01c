// Package tasks defines the structure for tasks that are sent to Kafka.
package tasks

// CatalogImportTask represents a catalog import job waiting in the queue.
// ObjectName 指向 MinIO 中暂存的目录文件；Token 原样透传给远端后端。
type CatalogImportTask struct {
	ObjectName string `json:"object_name"`
	FileName   string `json:"file_name"`
	SourceName string `json:"source_name"`
	ClientKey  string `json:"client_key"`
	Token      string `json:"token"`
}
