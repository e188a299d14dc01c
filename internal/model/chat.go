package model

// 消息角色常量。
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// ChatMessage 代表对话中的一条消息。
// Content 与各种媒体字段都是可选的；一条既无文本又无媒体的消息在语义上是空的，
// 但不会被拒绝，渲染端需要能优雅处理。
type ChatMessage struct {
	Role            string         `json:"role"`
	Content         string         `json:"content,omitempty"`
	Image           string         `json:"image,omitempty"`
	SimulationImage string         `json:"simulation_image,omitempty"`
	Blocks          []MessageBlock `json:"blocks,omitempty"`
}

// MessageBlock 是助手消息里携带的结构化推荐块（商品轮播）。
type MessageBlock struct {
	Type     string    `json:"type"`
	Title    string    `json:"title"`
	View     string    `json:"view"`
	Products []Product `json:"products"`
}

// HistorySession 是一份已保存的对话记录。
// Messages 是保存时刻对话的快照，其中超限的内联图片已被剔除。
type HistorySession struct {
	ID       string        `json:"id"`
	Title    string        `json:"title"`
	Date     string        `json:"date"`
	Messages []ChatMessage `json:"messages"`
}
