// Package device owns the lifecycle of the process-wide device identity:
// recover-or-generate, replicate, then periodically re-synchronize so that a
// layer wiped mid-session is restored from the survivors.
package device

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"runtime"
	"sync"
	"time"

	"github.com/iudanet/japakeeper/internal/fingerprint"
	"github.com/iudanet/japakeeper/internal/models"
	"github.com/iudanet/japakeeper/internal/storage"
)

const (
	// IDKey — логический ключ, под которым идентификатор реплицируется
	// по всем слоям
	IDKey = "deviceIdentity"
	// MetaKey — ключ метаданных идентичности
	MetaKey = "deviceIdentityMeta"

	// DefaultResyncInterval — период фоновой ресинхронизации
	DefaultResyncInterval = 5 * time.Minute
)

// Manager owns the single device identity of a running application.
// Создается явно в composition root и внедряется зависимостями; ровно один
// экземпляр на работающее приложение, без скрытого глобального состояния.
type Manager struct {
	rep      *storage.Replicator
	logger   *slog.Logger
	interval time.Duration

	mu       sync.Mutex
	identity *models.DeviceIdentity

	wake chan struct{}
	stop chan struct{}
	wg   sync.WaitGroup
}

// NewManager creates an uninitialized manager. interval <= 0 selects
// DefaultResyncInterval.
func NewManager(rep *storage.Replicator, logger *slog.Logger, interval time.Duration) *Manager {
	if interval <= 0 {
		interval = DefaultResyncInterval
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &Manager{
		rep:      rep,
		logger:   logger,
		interval: interval,
		wake:     make(chan struct{}, 1),
		stop:     make(chan struct{}),
	}
}

// Initialize recovers an existing device id from whichever layer still holds
// one, or generates a fresh id, then replicates it into every layer and
// starts the background resync loop.
//
// Идемпотентно: повторный вызов возвращает уже известный id без повторного
// сканирования слоев.
func (m *Manager) Initialize(ctx context.Context) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	// Uninitialized -> Ready ровно один раз
	if m.identity != nil {
		return m.identity.ID, nil
	}

	id, recovered := m.recover(ctx)
	if !recovered {
		id = NewID()
		m.logger.Info("generated new device identity", "device_id", id)
	} else {
		m.logger.Info("recovered device identity", "device_id", id)
	}

	meta := models.DeviceMetadata{
		CreatedAt:   time.Now(),
		LastAccess:  time.Now(),
		HostInfo:    runtime.GOOS + "/" + runtime.GOARCH,
		Fingerprint: fingerprint.Generate(),
	}

	// Самовосстанавливающая избыточность: id тиражируется во ВСЕ слои,
	// а не только в тот, где нашелся
	status, err := m.rep.StoreEverywhere(ctx, IDKey, id)
	meta.LayerStatus = status
	if err != nil {
		// Все слои отказали: работаем, но идентичность не переживет процесс
		m.logger.Error("device identity not persisted, running degraded", "error", err)
	}

	m.identity = &models.DeviceIdentity{ID: id, Metadata: meta}
	m.persistMeta(ctx, meta, m.rep.StoreEverywhere)

	m.wg.Add(1)
	go m.resyncLoop()

	return id, nil
}

// recover сканирует слои и принимает первый корректно сформированный id
func (m *Manager) recover(ctx context.Context) (string, bool) {
	id, err := m.rep.RetrieveAnyValid(ctx, IDKey, ValidID)
	if err != nil {
		if !errors.Is(err, storage.ErrNotFound) {
			m.logger.Warn("device identity recovery failed", "error", err)
		}
		return "", false
	}
	return id, true
}

// ID returns the resolved device id, or "" before Initialize
func (m *Manager) ID() string {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.identity == nil {
		return ""
	}
	return m.identity.ID
}

// Identity returns a copy of the resolved identity, or nil before Initialize
func (m *Manager) Identity() *models.DeviceIdentity {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.identity == nil {
		return nil
	}
	cp := *m.identity
	return &cp
}

// WakeResync requests an out-of-schedule resync (analog of the browser's
// visibility-regain hook; wired to the broadcast receiver). Safe to call
// concurrently and before Initialize.
func (m *Manager) WakeResync() {
	select {
	case m.wake <- struct{}{}:
	default:
		// ресинхронизация уже запрошена
	}
}

// ValidateIntegrity re-runs recovery and compares the result against the
// in-memory id. A mismatch indicates layer corruption or tampering; it is
// reported but not auto-corrected beyond the normal periodic resync.
func (m *Manager) ValidateIntegrity(ctx context.Context) (bool, error) {
	m.mu.Lock()
	current := m.identity
	m.mu.Unlock()

	if current == nil {
		return false, fmt.Errorf("device manager is not initialized")
	}

	recovered, ok := m.recover(ctx)
	if !ok {
		// Ни один слой не ответил — это не расхождение, просто деградация
		return true, nil
	}

	if recovered != current.ID {
		m.logger.Warn("device identity mismatch detected",
			"in_memory", current.ID, "recovered", recovered)
		return false, nil
	}
	return true, nil
}

// Shutdown stops the background resync loop. Идентичность в слоях остается.
func (m *Manager) Shutdown() {
	select {
	case <-m.stop:
		return // уже остановлен
	default:
		close(m.stop)
	}
	m.wg.Wait()
}

func (m *Manager) resyncLoop() {
	defer m.wg.Done()

	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	for {
		select {
		case <-m.stop:
			return
		case <-ticker.C:
			m.resync()
		case <-m.wake:
			m.resync()
		}
	}
}

// resync перезаписывает известный id по читаемым слоям; идемпотентно и
// безопасно параллельно с операциями переднего плана. В fanout не пишем:
// ресинхронизация запускается в том числе по сигналу от соседнего процесса,
// и ответная публикация в spool зациклила бы взаимные пробуждения.
func (m *Manager) resync() {
	m.mu.Lock()
	if m.identity == nil {
		m.mu.Unlock()
		return
	}
	id := m.identity.ID
	m.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), storage.DefaultTimeout*2)
	defer cancel()

	status, err := m.rep.StoreLocal(ctx, IDKey, id)
	if err != nil {
		m.logger.Warn("device identity resync failed", "error", err)
		return
	}

	m.mu.Lock()
	m.identity.Metadata.LastAccess = time.Now()
	m.identity.Metadata.LayerStatus = status
	meta := m.identity.Metadata
	m.mu.Unlock()

	m.persistMeta(ctx, meta, m.rep.StoreLocal)
	m.logger.Debug("device identity resynced", "device_id", id)
}

// persistMeta сохраняет метаданные через переданную запись; их потеря
// некритична
func (m *Manager) persistMeta(ctx context.Context, meta models.DeviceMetadata,
	store func(context.Context, string, string) (map[string]bool, error),
) {
	raw, err := json.Marshal(meta)
	if err != nil {
		m.logger.Debug("failed to marshal identity metadata", "error", err)
		return
	}

	if _, err := store(ctx, MetaKey, string(raw)); err != nil {
		m.logger.Debug("failed to persist identity metadata", "error", err)
	}
}
