package service

import (
	"bytes"
	"context"
	"encoding/base64"
	"io"

	"deco-front-go/internal/model"
	"deco-front-go/pkg/log"
	"deco-front-go/pkg/remote"
)

// ChatBackend 是聊天服务依赖的远端 AI 能力子集。
type ChatBackend interface {
	Chat(ctx context.Context, query string, history []remote.HistoryEntry, image, token string) (remote.ChatResult, error)
	SearchByImage(ctx context.Context, fileName string, file io.Reader) ([]model.Product, error)
	UploadImage(ctx context.Context, fileName string, file io.Reader, token string) (string, error)
}

// ChatImage 是随消息上传的一张图片。
type ChatImage struct {
	FileName    string
	ContentType string
	Data        []byte
}

// ChatService 处理一轮对话：把用户输入转发给远端 AI，并把问答双方的消息
// 追加进活动对话。远端失败不向调用方抛错，而是以致歉消息的形式进入对话，
// 这样对话流永远是自洽的。
type ChatService interface {
	Send(ctx context.Context, clientKey, token, query string, image *ChatImage) []model.ChatMessage
}

type chatService struct {
	backend  ChatBackend
	sessions SessionService
}

// NewChatService 创建一个新的 ChatService 实例。
func NewChatService(backend ChatBackend, sessions SessionService) ChatService {
	return &chatService{backend: backend, sessions: sessions}
}

// Send 执行一轮对话并返回追加后的完整对话。
// 发给后端的历史取自调用时刻的对话快照，不包含本轮的用户消息。
func (s *chatService) Send(ctx context.Context, clientKey, token, query string, image *ChatImage) []model.ChatMessage {
	_, transcript := s.sessions.Transcript(clientKey)
	history := backendHistory(transcript)

	var userMsg, reply model.ChatMessage
	if image == nil {
		userMsg, reply = s.textTurn(ctx, token, query, history)
	} else {
		userMsg, reply = s.imageTurn(ctx, token, query, history, image)
	}
	return s.sessions.AppendMessages(clientKey, userMsg, reply)
}

// textTurn 处理纯文本的一轮对话。
func (s *chatService) textTurn(ctx context.Context, token, query string, history []remote.HistoryEntry) (model.ChatMessage, model.ChatMessage) {
	userMsg := model.ChatMessage{Role: model.RoleUser, Content: query}

	result, err := s.backend.Chat(ctx, query, history, "", token)
	if err != nil {
		log.Errorf("对话请求失败: %v", err)
		return userMsg, model.ChatMessage{Role: model.RoleAssistant, Content: "Извините, произошла ошибка."}
	}
	return userMsg, assistantMessage(result, "Рекомендованная мебель")
}

// imageTurn 处理带图片的一轮对话。
// 图片先上传换取 URL，上传失败时退回内联 data URL；带文本走对话接口，
// 纯图片走以图搜图。
func (s *chatService) imageTurn(ctx context.Context, token, query string, history []remote.HistoryEntry, image *ChatImage) (model.ChatMessage, model.ChatMessage) {
	imageRef, err := s.backend.UploadImage(ctx, image.FileName, bytes.NewReader(image.Data), token)
	if err != nil {
		log.Warnf("上传图片失败，退回内联图片: %v", err)
		imageRef = dataURL(image)
	}

	if query != "" {
		userMsg := model.ChatMessage{Role: model.RoleUser, Content: query, Image: imageRef}
		result, err := s.backend.Chat(ctx, query, history, imageRef, token)
		if err != nil {
			log.Errorf("带图对话请求失败: %v", err)
			return userMsg, model.ChatMessage{Role: model.RoleAssistant, Content: "Произошла ошибка при обработке изображения."}
		}
		return userMsg, assistantMessage(result, "Рекомендации")
	}

	userMsg := model.ChatMessage{Role: model.RoleUser, Content: "Найти похожую мебель", Image: imageRef}
	products, err := s.backend.SearchByImage(ctx, image.FileName, bytes.NewReader(image.Data))
	if err != nil {
		log.Errorf("以图搜图失败: %v", err)
		return userMsg, model.ChatMessage{Role: model.RoleAssistant, Content: "Произошла ошибка при обработке изображения."}
	}
	if len(products) == 0 {
		return userMsg, model.ChatMessage{Role: model.RoleAssistant, Content: "К сожалению, похожих товаров не нашлось."}
	}
	return userMsg, model.ChatMessage{
		Role:    model.RoleAssistant,
		Content: "Вот похожие товары, которые я нашёл:",
		Blocks: []model.MessageBlock{{
			Type:     "products",
			Title:    "Результаты поиска по фото",
			View:     "carousel",
			Products: products,
		}},
	}
}

// backendHistory 把对话快照转成后端词汇表的历史：只保留有文本内容的消息，
// 助手角色映射为 "model"。
func backendHistory(transcript []model.ChatMessage) []remote.HistoryEntry {
	history := make([]remote.HistoryEntry, 0, len(transcript))
	for _, m := range transcript {
		if m.Content == "" {
			continue
		}
		role := "user"
		if m.Role == model.RoleAssistant {
			role = "model"
		}
		history = append(history, remote.HistoryEntry{Role: role, Content: m.Content})
	}
	return history
}

// assistantMessage 把一次对话结果组装成助手消息。
func assistantMessage(result remote.ChatResult, blockTitle string) model.ChatMessage {
	msg := model.ChatMessage{
		Role:            model.RoleAssistant,
		Content:         result.Answer,
		SimulationImage: result.SimulationImage,
	}
	if len(result.Products) > 0 {
		msg.Blocks = []model.MessageBlock{{
			Type:     "products",
			Title:    blockTitle,
			View:     "carousel",
			Products: result.Products,
		}}
	}
	return msg
}

func dataURL(image *ChatImage) string {
	contentType := image.ContentType
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	return "data:" + contentType + ";base64," + base64.StdEncoding.EncodeToString(image.Data)
}
