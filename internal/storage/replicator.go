package storage

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/iudanet/japakeeper/internal/codec"
)

const (
	// DefaultTimeout — таймаут одного обращения к одному слою.
	// Слой, не ответивший вовремя, считается отказавшим для этой попытки,
	// но не фатальным для операции в целом.
	DefaultTimeout = 5 * time.Second

	// probeKey — одноразовый ключ для HealthCheck
	probeKey = "__japakeeper_probe__"
)

// Config configures a Replicator. One generic orchestrator covers both the
// device-identity and the account-record replication: the two differ only in
// which layers participate and in what priority order reads try them.
type Config struct {
	// Layers participate in reads and writes; slice order is the read
	// priority order (first decodable value wins)
	Layers []Layer

	// FanoutLayers receive writes but are never consulted by reads
	// (broadcast-style channels)
	FanoutLayers []Layer

	// Timeout bounds each individual layer call; zero means DefaultTimeout
	Timeout time.Duration
}

// Replicator replicates encoded records across every configured layer and
// recovers them from whichever layer still answers.
type Replicator struct {
	layers  []Layer
	fanout  []Layer
	timeout time.Duration
	logger  *slog.Logger

	mu     sync.RWMutex
	status map[string]bool // успех последней записи по каждому слою
}

// NewReplicator creates a replication orchestrator over the given layers.
func NewReplicator(cfg Config, logger *slog.Logger) (*Replicator, error) {
	if len(cfg.Layers) == 0 {
		return nil, fmt.Errorf("at least one readable layer is required")
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &Replicator{
		layers:  cfg.Layers,
		fanout:  cfg.FanoutLayers,
		timeout: cfg.Timeout,
		logger:  logger,
		status:  make(map[string]bool),
	}, nil
}

// StoreEverywhere encodes the value once and fans it out to every layer
// concurrently. The join never short-circuits on individual failure: the
// write succeeds if at least one layer stored the value, and returns
// ErrAllLayersFailed only when every layer failed.
func (r *Replicator) StoreEverywhere(ctx context.Context, key, value string) (map[string]bool, error) {
	encoded := codec.EncodeRecord(value)
	return r.storeEncoded(ctx, key, encoded, r.allTargets())
}

// StoreLocal encodes the value and writes it to the readable layers only,
// never to fanout channels. Фоновое обслуживание пишет через него: повторная
// публикация в broadcast будила бы соседние процессы, а их ресинхронизация,
// в свою очередь, будила бы нас, и так по кругу.
func (r *Replicator) StoreLocal(ctx context.Context, key, value string) (map[string]bool, error) {
	encoded := codec.EncodeRecord(value)
	return r.storeEncoded(ctx, key, encoded, r.layers)
}

func (r *Replicator) allTargets() []Layer {
	targets := make([]Layer, 0, len(r.layers)+len(r.fanout))
	targets = append(targets, r.layers...)
	return append(targets, r.fanout...)
}

// storeEncoded рассылает уже закодированный payload по указанным слоям
func (r *Replicator) storeEncoded(ctx context.Context, key, encoded string, targets []Layer) (map[string]bool, error) {
	type outcome struct {
		name string
		err  error
	}

	results := make(chan outcome, len(targets))
	var wg sync.WaitGroup

	for _, layer := range targets {
		wg.Add(1)
		go func(l Layer) {
			defer wg.Done()

			storeCtx, cancel := context.WithTimeout(ctx, r.timeout)
			defer cancel()

			results <- outcome{name: l.Name(), err: l.Store(storeCtx, key, encoded)}
		}(layer)
	}

	wg.Wait()
	close(results)

	succeeded := 0
	statusMap := make(map[string]bool, len(targets))
	for res := range results {
		ok := res.err == nil
		statusMap[res.name] = ok
		if ok {
			succeeded++
		} else {
			r.logger.Warn("layer write failed",
				"layer", res.name, "key", key, "error", res.err)
		}
	}

	r.mu.Lock()
	for name, ok := range statusMap {
		r.status[name] = ok
	}
	r.mu.Unlock()

	if succeeded == 0 {
		return statusMap, fmt.Errorf("failed to store %q: %w", key, ErrAllLayersFailed)
	}

	r.logger.Debug("record replicated",
		"key", key, "succeeded", succeeded, "total", len(targets))
	return statusMap, nil
}

// RetrieveAny tries the readable layers in priority order and returns the
// first successfully decoded value. Decode failure on a layer is treated
// exactly like "not found" on that layer. ErrNotFound is returned only when
// every layer is exhausted. Fanout layers never participate in reads.
//
// A found value is re-replicated to the remaining layers in the background,
// so a layer wiped mid-session heals from the survivors on the next read.
func (r *Replicator) RetrieveAny(ctx context.Context, key string) (string, error) {
	return r.RetrieveAnyValid(ctx, key, nil)
}

// RetrieveAnyValid is RetrieveAny with a structural validation hook: a layer
// whose decoded value fails the check is skipped the same way as a layer
// that has no value at all. Обфускация обратима для любого входа, поэтому
// «не расшифровалось» можно распознать только структурной проверкой.
func (r *Replicator) RetrieveAnyValid(ctx context.Context, key string, valid func(string) bool) (string, error) {
	for i, layer := range r.layers {
		encoded, err := r.retrieveOne(ctx, layer, key)
		if err != nil {
			if !errors.Is(err, ErrNotFound) {
				r.logger.Debug("layer read failed",
					"layer", layer.Name(), "key", key, "error", err)
			}
			continue
		}

		decoded := codec.DecodeRecord(encoded)
		if valid != nil && !valid(decoded) {
			r.logger.Debug("layer returned undecodable record",
				"layer", layer.Name(), "key", key)
			continue
		}

		// Самовосстановление: найденное значение дотираживается в слои,
		// которые стояли в очереди раньше и ничего не вернули
		if i > 0 {
			r.healAsync(key, encoded)
		}

		return decoded, nil
	}

	return "", fmt.Errorf("failed to retrieve %q from any layer: %w", key, ErrNotFound)
}

func (r *Replicator) retrieveOne(ctx context.Context, layer Layer, key string) (string, error) {
	retrieveCtx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	return layer.Retrieve(retrieveCtx, key)
}

// healAsync дотираживает payload в фоне, только по читаемым слоям: эхо в
// broadcast здесь не нужно. Ошибки не важны, следующая плановая
// ресинхронизация повторит попытку
func (r *Replicator) healAsync(key, encoded string) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), r.timeout)
		defer cancel()

		if _, err := r.storeEncoded(ctx, key, encoded, r.layers); err != nil {
			r.logger.Debug("background heal failed", "key", key, "error", err)
		}
	}()
}

// DeleteEverywhere removes the key from every layer. Partial failure is
// logged, never surfaced: a copy left behind in a dead layer is handled by
// structural validation on the read path.
func (r *Replicator) DeleteEverywhere(ctx context.Context, key string) {
	targets := r.allTargets()

	var wg sync.WaitGroup
	for _, layer := range targets {
		wg.Add(1)
		go func(l Layer) {
			defer wg.Done()

			deleteCtx, cancel := context.WithTimeout(ctx, r.timeout)
			defer cancel()

			if err := l.Delete(deleteCtx, key); err != nil {
				r.logger.Debug("layer delete failed",
					"layer", l.Name(), "key", key, "error", err)
			}
		}(layer)
	}
	wg.Wait()
}

// HealthCheck writes and reads back a throwaway probe through every layer
// and reports a per-layer boolean map. Observability only: the result never
// gates functional behavior.
func (r *Replicator) HealthCheck(ctx context.Context) map[string]bool {
	probe := fmt.Sprintf("probe_%d", time.Now().UnixNano())

	health := make(map[string]bool, len(r.layers))
	for _, layer := range r.layers {
		health[layer.Name()] = r.probeLayer(ctx, layer, probe)
	}

	// Fanout-слои проверяем только на запись: читать из них нельзя
	for _, layer := range r.fanout {
		storeCtx, cancel := context.WithTimeout(ctx, r.timeout)
		health[layer.Name()] = layer.Store(storeCtx, probeKey, probe) == nil
		cancel()
	}

	return health
}

func (r *Replicator) probeLayer(ctx context.Context, layer Layer, probe string) bool {
	storeCtx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	if err := layer.Store(storeCtx, probeKey, probe); err != nil {
		return false
	}

	readCtx, cancel2 := context.WithTimeout(ctx, r.timeout)
	defer cancel2()

	got, err := layer.Retrieve(readCtx, probeKey)
	if err != nil || got != probe {
		return false
	}

	_ = layer.Delete(readCtx, probeKey)
	return true
}

// Status returns a copy of the last known per-layer write status map
func (r *Replicator) Status() map[string]bool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make(map[string]bool, len(r.status))
	for name, ok := range r.status {
		out[name] = ok
	}
	return out
}

// Layers returns the configured read-priority layer names, for diagnostics
func (r *Replicator) Layers() []string {
	names := make([]string, 0, len(r.layers)+len(r.fanout))
	for _, l := range r.layers {
		names = append(names, l.Name())
	}
	for _, l := range r.fanout {
		names = append(names, l.Name())
	}
	return names
}

// Close closes every layer and reports the first error encountered
func (r *Replicator) Close() error {
	var firstErr error
	for _, layer := range append(append([]Layer{}, r.layers...), r.fanout...) {
		if err := layer.Close(); err != nil && firstErr == nil {
			firstErr = fmt.Errorf("failed to close layer %s: %w", layer.Name(), err)
		}
	}
	return firstErr
}
