package handler

import (
	"encoding/base64"
	"encoding/json"
	"io"
	"net/http"
	"strings"

	"deco-front-go/internal/middleware"
	"deco-front-go/internal/service"
	"deco-front-go/pkg/log"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // 允许所有来源
	},
}

// ChatHandler 负责对话消息的收发，支持 HTTP 与 WebSocket 两种通道。
type ChatHandler struct {
	chatService service.ChatService
}

// NewChatHandler 创建一个新的 ChatHandler 实例。
func NewChatHandler(chatService service.ChatService) *ChatHandler {
	return &ChatHandler{chatService: chatService}
}

// Send 处理一轮 HTTP 对话请求。
// multipart 表单携带可选的 image 文件与 query 字段；纯文本也可以用 JSON 提交。
func (h *ChatHandler) Send(c *gin.Context) {
	query, image, err := h.parseTurn(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "无效的对话请求"})
		return
	}
	if query == "" && image == nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "消息不能为空"})
		return
	}

	transcript := h.chatService.Send(c.Request.Context(), middleware.ClientKey(c), middleware.Token(c), query, image)
	c.JSON(http.StatusOK, gin.H{"code": 200, "data": transcript, "message": "success"})
}

// Handle 处理一个传入的 WebSocket 连接，每条消息是一轮对话。
// 消息格式: {"query":"...","image":"data:image/...;base64,..."}，image 可选。
func (h *ChatHandler) Handle(c *gin.Context) {
	clientKey := middleware.ClientKey(c)
	token := middleware.Token(c)

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Error("WebSocket 升级失败", err)
		return
	}
	defer conn.Close()

	log.Infof("WebSocket 连接已建立，客户端: %s", clientKey)

	for {
		_, message, err := conn.ReadMessage()
		if err != nil {
			log.Warnf("从 WebSocket 读取消息失败: %v", err)
			break
		}

		var turn struct {
			Query string `json:"query"`
			Image string `json:"image"`
		}
		if err := json.Unmarshal(message, &turn); err != nil {
			// 非 JSON 的消息整体当作文本查询
			turn.Query = string(message)
		}
		if turn.Query == "" && turn.Image == "" {
			continue
		}

		image := decodeInlineImage(turn.Image)
		transcript := h.chatService.Send(c.Request.Context(), clientKey, token, turn.Query, image)

		reply, err := json.Marshal(gin.H{"type": "transcript", "messages": transcript})
		if err != nil {
			log.Errorf("序列化对话回复失败: %v", err)
			continue
		}
		if err := conn.WriteMessage(websocket.TextMessage, reply); err != nil {
			log.Warnf("向 WebSocket 写入消息失败: %v", err)
			break
		}
	}
}

// parseTurn 解析一轮对话的输入。
func (h *ChatHandler) parseTurn(c *gin.Context) (string, *service.ChatImage, error) {
	if !strings.HasPrefix(c.ContentType(), "multipart/") {
		var req struct {
			Query string `json:"query"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			return "", nil, err
		}
		return req.Query, nil, nil
	}

	query := c.PostForm("query")
	fileHeader, err := c.FormFile("image")
	if err != nil {
		// 没有附带图片的 multipart 也是合法的
		return query, nil, nil
	}
	file, err := fileHeader.Open()
	if err != nil {
		return "", nil, err
	}
	defer file.Close()
	data, err := io.ReadAll(file)
	if err != nil {
		return "", nil, err
	}
	return query, &service.ChatImage{
		FileName:    fileHeader.Filename,
		ContentType: fileHeader.Header.Get("Content-Type"),
		Data:        data,
	}, nil
}

// decodeInlineImage 解析 data URL 形式的内联图片，格式不符时返回 nil。
func decodeInlineImage(dataURL string) *service.ChatImage {
	if !strings.HasPrefix(dataURL, "data:") {
		return nil
	}
	meta, payload, ok := strings.Cut(dataURL[len("data:"):], ",")
	if !ok || !strings.HasSuffix(meta, ";base64") {
		return nil
	}
	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		log.Warnf("解码内联图片失败: %v", err)
		return nil
	}
	return &service.ChatImage{
		FileName:    "inline-image",
		ContentType: strings.TrimSuffix(meta, ";base64"),
		Data:        data,
	}
}
