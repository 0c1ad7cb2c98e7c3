// Package session manages edit sessions: a working copy of a stored mesh
// document with a bounded lifetime. A session owns the only EditMesh for
// its document; callers funnel every edit through the manager so lock
// state and persistence stay consistent.
package session

import (
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/meshlock/meshlock-go/internal/datastore"
	"github.com/meshlock/meshlock-go/internal/errors"
	"github.com/meshlock/meshlock-go/internal/geometry"
	"github.com/meshlock/meshlock-go/internal/observability"
	"github.com/meshlock/meshlock-go/internal/reconcile"
	"github.com/meshlock/meshlock-go/internal/unlockmode"
	"github.com/patrickmn/go-cache"
)

const (
	// DefaultTTL is how long an idle session survives before eviction.
	DefaultTTL = 30 * time.Minute

	cleanupInterval = 5 * time.Minute
)

// Session is one open working copy of a stored mesh document.
type Session struct {
	ID       string
	Object   *geometry.Object
	Edit     *geometry.EditMesh
	Mode     geometry.SelectMode
	OpenedAt time.Time
}

// Manager opens, tracks and closes edit sessions. Access to each session
// is serialized through the manager's mutex.
type Manager struct {
	mu         sync.Mutex
	store      datastore.Interface
	sessions   *cache.Cache
	byObject   map[string]string // object name -> session id
	reconciler *reconcile.Reconciler
	workflow   *unlockmode.Mode
	metrics    *observability.SessionMetrics
	logger     *slog.Logger
}

// NewManager wires a manager to the datastore. TTL <= 0 selects
// DefaultTTL.
func NewManager(store datastore.Interface, rc *reconcile.Reconciler, wf *unlockmode.Mode, metrics *observability.Metrics, logger *slog.Logger, ttl time.Duration) *Manager {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	if logger == nil {
		logger = slog.Default()
	}
	m := &Manager{
		store:      store,
		sessions:   cache.New(ttl, cleanupInterval),
		byObject:   map[string]string{},
		reconciler: rc,
		workflow:   wf,
		metrics:    metrics.SessionMetrics(),
		logger:     logger,
	}
	m.sessions.OnEvicted(m.onEvicted)
	return m
}

// onEvicted runs for TTL expiry as well as explicit deletes; explicit
// closes already removed the object index under the lock, so only the
// stale-index case does work here.
func (m *Manager) onEvicted(id string, value any) {
	sess, ok := value.(*Session)
	if !ok {
		return
	}
	m.mu.Lock()
	if cur, exists := m.byObject[sess.Object.Name]; exists && cur == id {
		delete(m.byObject, sess.Object.Name)
		m.logger.Warn("session expired with uncommitted edits discarded",
			"session", id, "object", sess.Object.Name)
		m.metrics.SessionClosed()
	}
	m.mu.Unlock()
}

// Open loads a document and starts an edit session on it. A document
// saved while unlock-selection mode was active gets an implicit cancel
// before the first reconcile, so a fresh session never starts inside the
// mode. Only one session per document may be open at a time.
func (m *Manager) Open(objectName string) (*Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if existing, ok := m.byObject[objectName]; ok {
		if _, found := m.sessions.Get(existing); found {
			return nil, errors.Newf("object %q already has an open session", objectName).
				Component("session").
				Category(errors.CategoryState).
				Context("session", existing).
				Build()
		}
		delete(m.byObject, objectName)
	}

	obj, err := m.store.GetMesh(objectName)
	if err != nil {
		return nil, fmt.Errorf("opening session: %w", err)
	}

	em := geometry.FromMesh(obj.Mesh)
	if obj.UnlockMode() {
		m.logger.Info("document was saved in unlock-selection mode, cancelling",
			"object", objectName)
		m.workflow.Cancel(obj, em)
	}
	m.reconciler.Reconcile(obj, em)

	sess := &Session{
		ID:       uuid.New().String(),
		Object:   obj,
		Edit:     em,
		Mode:     geometry.SelectVertex,
		OpenedAt: time.Now(),
	}
	m.sessions.SetDefault(sess.ID, sess)
	m.byObject[objectName] = sess.ID
	m.metrics.SessionOpened()
	m.logger.Info("session opened", "session", sess.ID, "object", objectName)
	return sess, nil
}

// Get returns an open session by ID, refreshing its TTL.
func (m *Manager) Get(id string) (*Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.get(id)
}

func (m *Manager) get(id string) (*Session, error) {
	value, found := m.sessions.Get(id)
	if !found {
		return nil, errors.Newf("session %q not found", id).
			Component("session").
			Category(errors.CategoryNotFound).
			Build()
	}
	sess := value.(*Session)
	m.sessions.SetDefault(id, sess)
	return sess, nil
}

// Commit writes the working copy back into the document and persists it.
// The session stays open.
func (m *Manager) Commit(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	sess, err := m.get(id)
	if err != nil {
		return err
	}
	sess.Edit.CommitTo(sess.Object.Mesh)
	if err := m.store.SaveMesh(sess.Object); err != nil {
		return fmt.Errorf("committing session %s: %w", id, err)
	}
	m.logger.Info("session committed", "session", id, "object", sess.Object.Name)
	return nil
}

// Close ends a session. Unless discard is set, pending edits are
// committed and persisted first.
func (m *Manager) Close(id string, discard bool) error {
	m.mu.Lock()
	sess, err := m.get(id)
	if err != nil {
		m.mu.Unlock()
		return err
	}
	if !discard {
		sess.Edit.CommitTo(sess.Object.Mesh)
		if err := m.store.SaveMesh(sess.Object); err != nil {
			m.mu.Unlock()
			return fmt.Errorf("closing session %s: %w", id, err)
		}
	}
	delete(m.byObject, sess.Object.Name)
	// Drop the lock before the cache delete: eviction callbacks re-enter
	// the manager.
	m.mu.Unlock()

	m.sessions.Delete(id)
	m.metrics.SessionClosed()
	m.logger.Info("session closed", "session", id, "object", sess.Object.Name, "discarded", discard)
	return nil
}

// Count returns the number of open sessions.
func (m *Manager) Count() int {
	return m.sessions.ItemCount()
}
