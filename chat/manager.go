package chat

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"multichat/store"
)

// DefaultKey is the store key conversations are saved under.
const DefaultKey = "conversations"

// Config wires a Manager. Zero values select the defaults.
type Config struct {
	Store     store.Store
	Key       string
	Responder Responder
	Logger    *slog.Logger
	Now       func() time.Time
	NewID     func() string
}

// Manager owns every conversation. Each change is saved to the store best
// effort: failures are logged and the in-memory state stays authoritative.
type Manager struct {
	mu            sync.RWMutex
	conversations map[string]*Conversation

	store     store.Store
	key       string
	responder Responder
	logger    *slog.Logger
	now       func() time.Time
	newID     func() string
}

func NewManager(cfg Config) *Manager {
	m := &Manager{
		conversations: make(map[string]*Conversation),
		store:         cfg.Store,
		key:           cfg.Key,
		responder:     cfg.Responder,
		logger:        cfg.Logger,
		now:           cfg.Now,
		newID:         cfg.NewID,
	}
	if m.store == nil {
		m.store = store.NewMemory()
	}
	if m.key == "" {
		m.key = DefaultKey
	}
	if m.responder == nil {
		m.responder = NewSimulator(0, 1)
	}
	if m.logger == nil {
		m.logger = slog.Default()
	}
	if m.now == nil {
		m.now = time.Now
	}
	if m.newID == nil {
		m.newID = uuid.NewString
	}
	m.load()
	return m
}

func (m *Manager) load() {
	raw, ok, err := m.store.Get(m.key)
	if err != nil {
		m.logger.Warn("read failed, starting empty", slog.String("key", m.key), slog.Any("error", err))
		return
	}
	if !ok {
		return
	}
	var list []Conversation
	if err := json.Unmarshal([]byte(raw), &list); err != nil {
		m.logger.Warn("stored value is not valid JSON, starting empty", slog.String("key", m.key), slog.Any("error", err))
		return
	}
	for _, c := range list {
		if c.ID == "" {
			continue
		}
		c = c.clone()
		m.conversations[c.ID] = &c
	}
}

// save writes every conversation, oldest first. Caller must hold m.mu.
func (m *Manager) save() {
	list := make([]Conversation, 0, len(m.conversations))
	for _, c := range m.conversations {
		list = append(list, *c)
	}
	slices.SortFunc(list, func(a, b Conversation) int {
		if n := a.CreatedAt.Compare(b.CreatedAt); n != 0 {
			return n
		}
		return strings.Compare(a.ID, b.ID)
	})
	data, err := json.Marshal(list)
	if err != nil {
		m.logger.Warn("encode failed", slog.String("key", m.key), slog.Any("error", err))
		return
	}
	if err := m.store.Set(m.key, string(data)); err != nil {
		m.logger.Warn("write failed", slog.String("key", m.key), slog.Any("error", err))
	}
}

// Create opens a conversation. An empty title becomes "New chat".
func (m *Manager) Create(title string, models []string) Conversation {
	if strings.TrimSpace(title) == "" {
		title = "New chat"
	}
	now := m.now()
	c := &Conversation{
		ID:        m.newID(),
		Title:     title,
		Models:    slices.Clone(models),
		Messages:  []Message{},
		CreatedAt: now,
		UpdatedAt: now,
	}
	if c.Models == nil {
		c.Models = []string{}
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.conversations[c.ID] = c
	m.save()
	return c.clone()
}

// List returns every conversation, most recently updated first.
func (m *Manager) List() []Conversation {
	m.mu.RLock()
	defer m.mu.RUnlock()

	list := make([]Conversation, 0, len(m.conversations))
	for _, c := range m.conversations {
		list = append(list, c.clone())
	}
	slices.SortFunc(list, func(a, b Conversation) int {
		if n := b.UpdatedAt.Compare(a.UpdatedAt); n != 0 {
			return n
		}
		return strings.Compare(a.ID, b.ID)
	})
	return list
}

// Get returns a copy of the conversation.
func (m *Manager) Get(id string) (Conversation, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	c, ok := m.conversations[id]
	if !ok {
		return Conversation{}, ErrNotFound
	}
	return c.clone(), nil
}

// modify runs fn on the conversation under the write lock, bumps UpdatedAt
// and saves.
func (m *Manager) modify(id string, fn func(c *Conversation)) (Conversation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.conversations[id]
	if !ok {
		return Conversation{}, ErrNotFound
	}
	fn(c)
	c.UpdatedAt = m.now()
	m.save()
	return c.clone(), nil
}

// Rename sets the conversation title.
func (m *Manager) Rename(id, title string) (Conversation, error) {
	return m.modify(id, func(c *Conversation) { c.Title = title })
}

// SetModels replaces the model selection, for example when a preset is
// applied to the window.
func (m *Manager) SetModels(id string, models []string) (Conversation, error) {
	return m.modify(id, func(c *Conversation) {
		c.Models = slices.Clone(models)
		if c.Models == nil {
			c.Models = []string{}
		}
	})
}

// Delete removes the conversation.
func (m *Manager) Delete(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.conversations[id]; !ok {
		return ErrNotFound
	}
	delete(m.conversations, id)
	m.save()
	return nil
}

// Send posts text and waits for every selected model to reply. It returns the
// user message followed by the replies in model order.
func (m *Manager) Send(ctx context.Context, id, text string) ([]Message, error) {
	var out []Message
	err := m.Stream(ctx, id, text, func(ev Event) error {
		if ev.Type == "message" {
			out = append(out, *ev.Message)
		}
		return nil
	})
	return out, err
}

// Stream posts text and streams each selected model's reply through emit:
// a "message" event for the stored user message, "chunk" events while a
// model generates, a "message" event with each finished reply, then "done".
// Models reply one after another in selection order. A reply is stored only
// once complete; if ctx is cancelled or emit fails the partial reply is
// dropped.
func (m *Manager) Stream(ctx context.Context, id, text string, emit func(Event) error) error {
	if strings.TrimSpace(text) == "" {
		return ErrEmptyMessage
	}

	conv, err := m.Get(id)
	if err != nil {
		return err
	}
	models := conv.Models
	if len(models) == 0 {
		return ErrNoModels
	}

	user := Message{ID: m.newID(), Role: RoleUser, Content: text}
	if _, err := m.modify(id, func(c *Conversation) {
		user.CreatedAt = m.now()
		c.Messages = append(c.Messages, user)
	}); err != nil {
		return err
	}
	if err := emit(Event{Type: "message", Message: &user}); err != nil {
		return err
	}

	for _, model := range models {
		var b strings.Builder
		err := m.responder.Respond(ctx, model, text, func(chunk string) error {
			b.WriteString(chunk)
			return emit(Event{Type: "chunk", Model: model, Data: chunk})
		})
		if err != nil {
			return fmt.Errorf("%s: %w", model, err)
		}

		reply := Message{ID: m.newID(), Role: RoleAssistant, Model: model, Content: b.String()}
		if _, err := m.modify(id, func(c *Conversation) {
			reply.CreatedAt = m.now()
			c.Messages = append(c.Messages, reply)
		}); err != nil {
			return err
		}
		if err := emit(Event{Type: "message", Model: model, Message: &reply}); err != nil {
			return err
		}
	}
	return emit(Event{Type: "done"})
}
