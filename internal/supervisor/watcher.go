package supervisor

import (
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/relaykit/relayctl/internal/logging"
)

// storeDebounce collapses the event bursts editors and writers produce
// for a single save into one notification.
const storeDebounce = 250 * time.Millisecond

// StoreWatcher observes the shared account store file and invokes a
// callback after its contents change. The parent directory is watched
// rather than the file itself, so atomic rename-into-place saves are
// seen too.
type StoreWatcher struct {
	watcher   *fsnotify.Watcher
	storePath string
	onChange  func()
	logger    *logging.Logger
	stopCh    chan struct{}
}

// NewStoreWatcher creates a watcher for the account store at storePath.
// The callback runs on the watcher's goroutine after each debounced
// change.
func NewStoreWatcher(storePath string, onChange func(), logger *logging.Logger) (*StoreWatcher, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := watcher.Add(filepath.Dir(storePath)); err != nil {
		watcher.Close()
		return nil, err
	}
	if logger == nil {
		logger = logging.NopLogger()
	}
	return &StoreWatcher{
		watcher:   watcher,
		storePath: storePath,
		onChange:  onChange,
		logger:    logger.WithComponent("storewatcher"),
		stopCh:    make(chan struct{}),
	}, nil
}

// Start begins watching for account store changes.
func (w *StoreWatcher) Start() {
	go w.watchLoop()
}

// Stop stops the watcher and releases its resources.
func (w *StoreWatcher) Stop() {
	close(w.stopCh)
	_ = w.watcher.Close()
}

func (w *StoreWatcher) watchLoop() {
	debounceTimer := time.NewTimer(0)
	<-debounceTimer.C // drain initial timer

	pending := false

	for {
		select {
		case <-w.stopCh:
			return

		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			if filepath.Base(event.Name) != filepath.Base(w.storePath) {
				continue
			}
			pending = true
			debounceTimer.Reset(storeDebounce)

		case <-debounceTimer.C:
			if !pending {
				continue
			}
			pending = false
			w.logger.Debug("account store changed", "path", w.storePath)
			if w.onChange != nil {
				w.onChange()
			}

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Warn("account store watch error", "error", err)
		}
	}
}
