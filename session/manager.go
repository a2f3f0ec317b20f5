package session

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"log/slog"
	"strings"
	"sync"

	"github.com/sweetpotato0/ai-lawdesk/consult"
	lderrors "github.com/sweetpotato0/ai-lawdesk/errors"
	"github.com/sweetpotato0/ai-lawdesk/message"
	"github.com/sweetpotato0/ai-lawdesk/middleware"
	"github.com/sweetpotato0/ai-lawdesk/pkg/logging"
	"github.com/sweetpotato0/ai-lawdesk/pkg/telemetry"
	"go.opentelemetry.io/otel/attribute"
)

// Store defines the interface for conversation storage backends. Load of
// an unknown id returns an error wrapping errors.ErrNotFound.
type Store interface {
	Save(ctx context.Context, record *Record) error
	Load(ctx context.Context, id string) (*Record, error)
	Delete(ctx context.Context, id string) error
	List(ctx context.Context) ([]string, error)
	Count(ctx context.Context) (int, error)
	Exists(ctx context.Context, id string) (bool, error)
}

// Locker guards a conversation across processes. TryLock fails with
// errors.ErrSessionBusy when another holder owns the lock.
type Locker interface {
	TryLock(ctx context.Context, id string) (unlock func(context.Context) error, err error)
}

// Responder produces the reply to the latest turn of a history.
type Responder interface {
	Reply(ctx context.Context, hist []*message.Message, opts ...consult.ReplyOption) (*consult.Reply, error)
}

// Manager serialises and persists the turns of every conversation.
type Manager struct {
	responder Responder
	store     Store
	locker    Locker
	chain     *middleware.MiddlewareChain
	logger    *slog.Logger

	mu       sync.Mutex
	inflight map[string]struct{}
}

// Option is a function that configures a Manager.
type Option func(*Manager)

// WithStore sets the store for the manager.
func WithStore(s Store) Option {
	return func(m *Manager) {
		m.store = s
	}
}

// WithLocker adds a distributed turn lock on top of the in-process guard.
func WithLocker(l Locker) Option {
	return func(m *Manager) {
		m.locker = l
	}
}

// WithMiddleware appends middlewares to the chain run for every message.
func WithMiddleware(mw ...middleware.Middleware) Option {
	return func(m *Manager) {
		for _, x := range mw {
			m.chain.Add(x)
		}
	}
}

// WithLogger overrides the logger used by the manager.
func WithLogger(logger *slog.Logger) Option {
	return func(m *Manager) {
		if logger != nil {
			m.logger = logger
		}
	}
}

// NewManager creates a manager answering with responder.
//
// Example:
//
//	mgr := session.NewManager(engine, session.WithStore(inmemory.NewInMemoryStore()))
func NewManager(responder Responder, opts ...Option) *Manager {
	m := &Manager{
		responder: responder,
		chain:     middleware.NewChain(),
		inflight:  make(map[string]struct{}),
	}
	for _, opt := range opts {
		opt(m)
	}
	if m.logger == nil {
		m.logger = logging.WithComponent("session_manager")
	}
	return m
}

// Send appends text to conversation id and returns the reply. A new
// conversation is created on first use.
//
// The conversation is busy until the reply is consumed: a text reply is
// persisted before Send returns, a streamed reply once its fragments have
// been drained or iteration stops. Callers must consume every reply. A
// second Send for a busy conversation fails with errors.ErrSessionBusy.
func (m *Manager) Send(ctx context.Context, id, text string, opts ...consult.ReplyOption) (reply *consult.Reply, err error) {
	if err := m.ensureStore(); err != nil {
		return nil, err
	}
	if m.responder == nil {
		return nil, fmt.Errorf("session manager responder is not configured")
	}
	release, err := m.acquire(ctx, id)
	if err != nil {
		m.logger.Warn("conversation busy", "id", id)
		return nil, err
	}
	handedOff := false
	defer func() {
		if !handedOff {
			release()
		}
	}()

	ctx, span := telemetry.Start(ctx, "session.Send", attribute.String("session", id))
	defer func() { telemetry.End(span, err) }()

	record, err := m.loadOrNew(ctx, id)
	if err != nil {
		return nil, err
	}
	if record.State == StateClosed {
		return nil, fmt.Errorf("conversation %s is closed: %w", id, lderrors.ErrInvalidInput)
	}

	user := message.NewMessage(message.RoleUser, text)
	hist := append(message.CloneMessages(record.Messages), user)
	mctx := middleware.NewContext(ctx, id, text, hist)
	err = m.chain.Execute(mctx, func(c *middleware.Context) error {
		r, err := m.responder.Reply(c.Context(), c.History, opts...)
		if err != nil {
			return err
		}
		c.Reply = r
		return nil
	})
	if err != nil {
		return nil, err
	}
	if mctx.Reply == nil {
		return nil, fmt.Errorf("conversation %s: no reply produced: %w", id, lderrors.ErrInternal)
	}
	if mctx.Error != nil {
		// The notice replacing a failed turn is shown, not stored.
		return mctx.Reply, nil
	}
	if mctx.Title != "" && record.Title == "" {
		record.Title = mctx.Title
	}

	if !mctx.Reply.Streaming() {
		record.Append(user, assistantTurn(mctx.Reply, mctx.Reply.Text, false))
		if err := m.store.Save(ctx, record); err != nil {
			return nil, fmt.Errorf("save conversation %s: %w", id, err)
		}
		return mctx.Reply, nil
	}

	handedOff = true
	return consult.NewStream(mctx.Reply.Intent, m.persisting(ctx, record, user, mctx.Reply, release)), nil
}

// persisting relays the fragments of reply and stores the exchange once
// the stream ends. A stream that fails is not stored; one abandoned by the
// caller is stored as far as it got.
func (m *Manager) persisting(ctx context.Context, record *Record, user *message.Message, reply *consult.Reply, release func()) iter.Seq2[string, error] {
	return func(yield func(string, error) bool) {
		defer release()

		var text strings.Builder
		interrupted := false
		for frag, err := range reply.Fragments() {
			if err != nil {
				m.logger.Error("reply stream failed", "id", record.ID, "error", err)
				yield("", err)
				return
			}
			text.WriteString(frag)
			if !yield(frag, nil) {
				interrupted = true
				break
			}
		}

		record.Append(user, assistantTurn(reply, text.String(), interrupted))
		if err := m.store.Save(context.WithoutCancel(ctx), record); err != nil {
			m.logger.Error("save conversation failed", "id", record.ID, "error", err)
			if !interrupted {
				yield("", fmt.Errorf("save conversation %s: %w", record.ID, err))
			}
		}
	}
}

func assistantTurn(reply *consult.Reply, text string, interrupted bool) *message.Message {
	msg := message.NewMessage(message.RoleAssistant, text)
	msg.Metadata["kind"] = string(reply.Kind)
	if reply.Intent != "" {
		msg.Metadata["intent"] = reply.Intent.String()
	}
	if interrupted {
		msg.Metadata["interrupted"] = true
	}
	return msg
}

// acquire takes the in-process guard and, when configured, the distributed
// lock. The returned release is idempotent.
func (m *Manager) acquire(ctx context.Context, id string) (func(), error) {
	m.mu.Lock()
	if _, busy := m.inflight[id]; busy {
		m.mu.Unlock()
		return nil, fmt.Errorf("conversation %s: %w", id, lderrors.ErrSessionBusy)
	}
	m.inflight[id] = struct{}{}
	m.mu.Unlock()

	forget := func() {
		m.mu.Lock()
		delete(m.inflight, id)
		m.mu.Unlock()
	}

	var unlock func(context.Context) error
	if m.locker != nil {
		u, err := m.locker.TryLock(ctx, id)
		if err != nil {
			forget()
			return nil, err
		}
		unlock = u
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			if unlock != nil {
				if err := unlock(context.Background()); err != nil {
					m.logger.Warn("release conversation lock failed", "id", id, "error", err)
				}
			}
			forget()
		})
	}, nil
}

// Busy reports whether a turn of id is being processed by this manager.
func (m *Manager) Busy(id string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.inflight[id]
	return ok
}

func (m *Manager) loadOrNew(ctx context.Context, id string) (*Record, error) {
	record, err := m.store.Load(ctx, id)
	if errors.Is(err, lderrors.ErrNotFound) {
		m.logger.Info("starting conversation", "id", id)
		return NewRecord(id), nil
	}
	if err != nil {
		return nil, fmt.Errorf("load conversation %s: %w", id, err)
	}
	return record, nil
}

// Create stores a new empty conversation. It fails if id is taken.
func (m *Manager) Create(ctx context.Context, id string) (*Record, error) {
	if err := m.ensureStore(); err != nil {
		return nil, err
	}
	exists, err := m.store.Exists(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to check conversation existence: %w", err)
	}
	if exists {
		return nil, fmt.Errorf("conversation %s: %w", id, lderrors.ErrAlreadyExists)
	}
	record := NewRecord(id)
	if err := m.store.Save(ctx, record); err != nil {
		return nil, fmt.Errorf("failed to save conversation: %w", err)
	}
	m.logger.Info("conversation created", "id", id)
	return record, nil
}

// Get returns a stored conversation.
func (m *Manager) Get(ctx context.Context, id string) (*Record, error) {
	if err := m.ensureStore(); err != nil {
		return nil, err
	}
	return m.store.Load(ctx, id)
}

// Close marks a conversation closed; further messages are rejected.
func (m *Manager) Close(ctx context.Context, id string) error {
	record, err := m.Get(ctx, id)
	if err != nil {
		return err
	}
	if record.State == StateClosed {
		return fmt.Errorf("conversation %s already closed", id)
	}
	record.State = StateClosed
	return m.store.Save(ctx, record)
}

// Delete removes a conversation.
func (m *Manager) Delete(ctx context.Context, id string) error {
	if err := m.ensureStore(); err != nil {
		return err
	}
	if m.Busy(id) {
		return fmt.Errorf("conversation %s: %w", id, lderrors.ErrSessionBusy)
	}
	return m.store.Delete(ctx, id)
}

// List returns the ids of all stored conversations.
func (m *Manager) List(ctx context.Context) ([]string, error) {
	if err := m.ensureStore(); err != nil {
		return nil, err
	}
	return m.store.List(ctx)
}

// Count returns the number of stored conversations.
func (m *Manager) Count(ctx context.Context) (int, error) {
	if err := m.ensureStore(); err != nil {
		return 0, err
	}
	return m.store.Count(ctx)
}

func (m *Manager) ensureStore() error {
	if m.store == nil {
		return fmt.Errorf("session manager store is not configured")
	}
	return nil
}
