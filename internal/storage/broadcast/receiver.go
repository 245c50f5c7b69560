package broadcast

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/iudanet/japakeeper/internal/storage"
)

// Receiver watches the spool directory and opportunistically caches messages
// from other processes into a local sink layer (normally the in-memory
// session layer). Optionally notifies a wake callback, который менеджер
// идентичности использует как сигнал внеплановой ресинхронизации.
type Receiver struct {
	dir     string
	sink    storage.Layer
	logger  *slog.Logger
	onWake  func()
	watcher *fsnotify.Watcher
	done    chan struct{}
}

// NewReceiver creates a spool receiver caching into sink. onWake may be nil.
func NewReceiver(dir string, sink storage.Layer, logger *slog.Logger, onWake func()) (*Receiver, error) {
	if err := os.MkdirAll(dir, 0700); err != nil {
		return nil, err
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := watcher.Add(dir); err != nil {
		watcher.Close()
		return nil, err
	}

	if logger == nil {
		logger = slog.Default()
	}

	r := &Receiver{
		dir:     dir,
		sink:    sink,
		logger:  logger,
		onWake:  onWake,
		watcher: watcher,
		done:    make(chan struct{}),
	}
	go r.loop()

	return r, nil
}

func (r *Receiver) loop() {
	for {
		select {
		case <-r.done:
			return

		case event, ok := <-r.watcher.Events:
			if !ok {
				return
			}
			// Писатель публикует сообщение через rename
			if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
				continue
			}
			if strings.HasSuffix(event.Name, ".tmp") {
				continue
			}
			r.consume(event.Name)

		case err, ok := <-r.watcher.Errors:
			if !ok {
				return
			}
			r.logger.Debug("broadcast watcher error", "error", err)
		}
	}
}

// consume читает сообщение и кеширует его значение в sink
func (r *Receiver) consume(path string) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return
	}

	var msg Message
	if err := json.Unmarshal(raw, &msg); err != nil {
		r.logger.Debug("broadcast: malformed message ignored", "path", filepath.Base(path))
		return
	}

	// Собственные сообщения не слушаем
	if msg.Origin == os.Getpid() {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	if err := r.sink.Store(ctx, msg.Key, msg.Value); err != nil && !errors.Is(err, storage.ErrClosed) {
		r.logger.Debug("broadcast: failed to cache message", "key", msg.Key, "error", err)
		return
	}

	r.logger.Debug("broadcast: cached message from peer", "key", msg.Key, "origin", msg.Origin)

	if r.onWake != nil {
		r.onWake()
	}
}

// Close stops the receiver
func (r *Receiver) Close() error {
	select {
	case <-r.done:
		return nil
	default:
		close(r.done)
	}
	return r.watcher.Close()
}
