package service

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"deco-front-go/internal/model"
	"deco-front-go/internal/repository"
	"deco-front-go/pkg/log"
	"deco-front-go/pkg/remote"
)

// Greeting 是每个新对话的开场白。
const Greeting = "Привет! Я эксперт по дизайнерской мебели. Спросите меня о чем угодно или загрузите фото для поиска."

// ServerHistorySessionID 是后端侧完整对话记录在历史列表中的合成会话 ID。
// 该会话由远端数据即时合成，从不写入本地历史，也不占历史容量。
const ServerHistorySessionID = "server_history"

// titleLimit 是会话标题取自首条用户消息的最大字符数（按 rune 计）。
const titleLimit = 30

// ErrSessionNotFound 表示目标会话不存在。
var ErrSessionNotFound = fmt.Errorf("session not found")

// TranscriptSource 是会话服务依赖的远端对话记录能力子集。
type TranscriptSource interface {
	GetChatHistory(ctx context.Context, token string) ([]remote.TranscriptEntry, error)
}

// SessionService 管理每个客户端的活动对话与已保存的历史会话列表。
//
// 活动对话常驻内存；历史列表整体持久化，按保存时间倒序、按 ID 去重、
// 封顶裁剪。切换会话前总是先归档当前对话，避免未保存的消息丢失。
// 历史列表是整体读-改-写的，同一客户端的归档与删除按键串行化。
type SessionService interface {
	// Transcript 返回活动对话的快照，没有时先用开场白初始化。
	Transcript(clientKey string) (string, []model.ChatMessage)
	// AppendMessages 向活动对话追加消息，返回追加后的快照。
	AppendMessages(clientKey string, msgs ...model.ChatMessage) []model.ChatMessage
	// List 返回历史会话列表，带 token 时尝试附加后端侧的合成会话。
	List(ctx context.Context, clientKey, token string) ([]model.HistorySession, error)
	// SaveActive 把活动对话归档进历史列表，返回归档后的列表。
	// 持久化失败只记录日志，调用方总是拿到内存中的最新列表。
	SaveActive(ctx context.Context, clientKey string) []model.HistorySession
	// StartNew 归档当前对话并开启一个全新对话。
	StartNew(ctx context.Context, clientKey string) []model.ChatMessage
	// Switch 归档当前对话并载入目标会话。
	Switch(ctx context.Context, clientKey, token, sessionID string) ([]model.ChatMessage, error)
	// Delete 从历史列表中移除一个会话。
	Delete(ctx context.Context, clientKey, sessionID string) ([]model.HistorySession, error)
}

type activeSession struct {
	id       string
	messages []model.ChatMessage
}

type sessionService struct {
	mu         sync.Mutex
	active     map[string]*activeSession
	repo       repository.HistoryRepository
	transcript TranscriptSource
	locks      keyedMutex

	historyCap       int
	inlineImageLimit int
}

// NewSessionService 创建一个新的 SessionService 实例。
func NewSessionService(repo repository.HistoryRepository, transcript TranscriptSource, historyCap, inlineImageLimit int) SessionService {
	return &sessionService{
		active:           make(map[string]*activeSession),
		repo:             repo,
		transcript:       transcript,
		historyCap:       historyCap,
		inlineImageLimit: inlineImageLimit,
	}
}

func (s *sessionService) Transcript(clientKey string) (string, []model.ChatMessage) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a := s.activeLocked(clientKey)
	return a.id, append([]model.ChatMessage(nil), a.messages...)
}

func (s *sessionService) AppendMessages(clientKey string, msgs ...model.ChatMessage) []model.ChatMessage {
	s.mu.Lock()
	defer s.mu.Unlock()
	a := s.activeLocked(clientKey)
	a.messages = append(a.messages, msgs...)
	return append([]model.ChatMessage(nil), a.messages...)
}

// List 返回历史会话列表。带 token 且后端有对话记录时，在列表末尾附加一个
// 合成会话；后端不可达只记录日志，不影响本地列表。
func (s *sessionService) List(ctx context.Context, clientKey, token string) ([]model.HistorySession, error) {
	sessions, err := s.repo.GetSessions(ctx, clientKey)
	if err != nil {
		return nil, err
	}
	if token == "" {
		return sessions, nil
	}

	// 本地列表里已有同 ID 会话时不再附加（切换后归档会留下一份本地副本）
	for _, sess := range sessions {
		if sess.ID == ServerHistorySessionID {
			return sessions, nil
		}
	}
	entries, err := s.transcript.GetChatHistory(ctx, token)
	if err != nil {
		log.Warnf("获取后端对话记录失败: %v", err)
		return sessions, nil
	}
	if len(entries) == 0 {
		return sessions, nil
	}
	return append(sessions, serverHistorySession(entries)), nil
}

func (s *sessionService) SaveActive(ctx context.Context, clientKey string) []model.HistorySession {
	l := s.locks.get(clientKey)
	l.Lock()
	defer l.Unlock()

	s.mu.Lock()
	a := s.activeLocked(clientKey)
	session, ok := s.snapshotLocked(a)
	s.mu.Unlock()

	sessions, err := s.repo.GetSessions(ctx, clientKey)
	if err != nil {
		log.Errorf("读取历史会话失败: %v", err)
		sessions = nil
	}
	if !ok {
		// 还没有用户消息的对话不值得归档
		return sessions
	}
	sessions = s.archive(sessions, session)
	if err := s.repo.SaveSessions(ctx, clientKey, sessions); err != nil {
		// 归档失败降级为日志，对话流不中断；消息仍在内存里
		log.Errorf("归档历史会话失败: %v", err)
	}
	return sessions
}

func (s *sessionService) StartNew(ctx context.Context, clientKey string) []model.ChatMessage {
	s.SaveActive(ctx, clientKey)

	s.mu.Lock()
	defer s.mu.Unlock()
	a := newActiveSession()
	s.active[clientKey] = a
	return append([]model.ChatMessage(nil), a.messages...)
}

func (s *sessionService) Switch(ctx context.Context, clientKey, token, sessionID string) ([]model.ChatMessage, error) {
	s.SaveActive(ctx, clientKey)

	target, err := s.findSession(ctx, clientKey, token, sessionID)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	a := &activeSession{
		id:       target.ID,
		messages: append([]model.ChatMessage(nil), target.Messages...),
	}
	s.active[clientKey] = a
	return append([]model.ChatMessage(nil), a.messages...), nil
}

// Delete 移除一个历史会话。删除的恰好是当前活动对话时，活动对话被重置为
// 全新对话而不归档：归档会让刚删掉的会话立即复活。
func (s *sessionService) Delete(ctx context.Context, clientKey, sessionID string) ([]model.HistorySession, error) {
	l := s.locks.get(clientKey)
	l.Lock()
	defer l.Unlock()

	sessions, err := s.repo.GetSessions(ctx, clientKey)
	if err != nil {
		return nil, err
	}
	kept := sessions[:0]
	found := false
	for _, sess := range sessions {
		if sess.ID == sessionID {
			found = true
			continue
		}
		kept = append(kept, sess)
	}
	if !found {
		return nil, ErrSessionNotFound
	}
	if err := s.repo.SaveSessions(ctx, clientKey, kept); err != nil {
		return nil, err
	}

	s.mu.Lock()
	if a, ok := s.active[clientKey]; ok && a.id == sessionID {
		s.active[clientKey] = newActiveSession()
	}
	s.mu.Unlock()
	return kept, nil
}

// activeLocked 返回客户端的活动对话，不存在时初始化。调用方必须持有锁。
func (s *sessionService) activeLocked(clientKey string) *activeSession {
	if a, ok := s.active[clientKey]; ok {
		return a
	}
	a := newActiveSession()
	s.active[clientKey] = a
	return a
}

// snapshotLocked 把活动对话转成可归档的会话。没有用户消息时返回 ok=false。
func (s *sessionService) snapshotLocked(a *activeSession) (model.HistorySession, bool) {
	title := ""
	for _, m := range a.messages {
		if m.Role == model.RoleUser && m.Content != "" {
			title = truncateTitle(m.Content)
			break
		}
	}
	if title == "" {
		return model.HistorySession{}, false
	}
	return model.HistorySession{
		ID:       a.id,
		Title:    title,
		Date:     time.Now().Format(time.RFC3339),
		Messages: s.stripInlineImages(a.messages),
	}, true
}

// archive 按 ID 去重后把会话放到列表最前，并裁剪到容量上限。
func (s *sessionService) archive(sessions []model.HistorySession, session model.HistorySession) []model.HistorySession {
	kept := make([]model.HistorySession, 0, len(sessions)+1)
	kept = append(kept, session)
	for _, sess := range sessions {
		if sess.ID == session.ID {
			continue
		}
		kept = append(kept, sess)
	}
	if len(kept) > s.historyCap {
		kept = kept[:s.historyCap]
	}
	return kept
}

// findSession 定位目标会话；合成的后端会话不在本地列表时按需从远端取。
func (s *sessionService) findSession(ctx context.Context, clientKey, token, sessionID string) (model.HistorySession, error) {
	sessions, err := s.repo.GetSessions(ctx, clientKey)
	if err != nil {
		return model.HistorySession{}, err
	}
	for _, sess := range sessions {
		if sess.ID == sessionID {
			return sess, nil
		}
	}
	if sessionID == ServerHistorySessionID && token != "" {
		entries, err := s.transcript.GetChatHistory(ctx, token)
		if err != nil {
			return model.HistorySession{}, fmt.Errorf("failed to load server transcript: %w", err)
		}
		if len(entries) > 0 {
			return serverHistorySession(entries), nil
		}
	}
	return model.HistorySession{}, ErrSessionNotFound
}

// stripInlineImages 返回消息的归档副本：超过上限的内联 data URL 图片被剔除，
// 普通 URL 引用原样保留。simulation_image 永远是 URL，无条件保留。
func (s *sessionService) stripInlineImages(msgs []model.ChatMessage) []model.ChatMessage {
	stripped := make([]model.ChatMessage, len(msgs))
	for i, m := range msgs {
		if isOversizedInline(m.Image, s.inlineImageLimit) {
			m.Image = ""
		}
		stripped[i] = m
	}
	return stripped
}

func isOversizedInline(image string, limit int) bool {
	return strings.HasPrefix(image, "data:") && len(image) > limit
}

// truncateTitle 将首条用户消息裁剪成会话标题。
func truncateTitle(content string) string {
	runes := []rune(content)
	if len(runes) <= titleLimit {
		return content
	}
	return string(runes[:titleLimit]) + "..."
}

// serverHistorySession 把后端保存的对话记录合成为一个只读会话。
func serverHistorySession(entries []remote.TranscriptEntry) model.HistorySession {
	messages := make([]model.ChatMessage, 0, len(entries))
	for _, e := range entries {
		role := model.RoleUser
		if e.Role == "model" {
			role = model.RoleAssistant
		}
		msg := model.ChatMessage{Role: role, Content: e.Content}
		if len(e.Products) > 0 {
			msg.Blocks = []model.MessageBlock{{
				Type:     "products",
				Title:    "Рекомендованная мебель",
				View:     "carousel",
				Products: e.Products,
			}}
		}
		messages = append(messages, msg)
	}
	return model.HistorySession{
		ID:       ServerHistorySessionID,
		Title:    "История с сервера",
		Date:     time.Now().Format(time.RFC3339),
		Messages: messages,
	}
}

func newActiveSession() *activeSession {
	return &activeSession{
		id: strconv.FormatInt(time.Now().UnixNano(), 10),
		messages: []model.ChatMessage{
			{Role: model.RoleAssistant, Content: Greeting},
		},
	}
}
