package tasks

import (
	"context"
	"errors"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

const (
	watcherNoPathsMessageConstant      = "watcher requires at least one path"
	watcherStartedMessageConstant      = "watching for changes"
	watcherTriggeredMessageConstant    = "change detected; re-running task"
	watcherTaskFailureMessageConstant  = "watched task failed"
	watcherEventErrorMessageConstant   = "watcher reported an error"
	watcherPathsLogFieldConstant       = "paths"
	watcherEventLogFieldConstant       = "event"
	defaultWatchDebounceDurationNumber = 500 * time.Millisecond
)

// ErrNoWatchPaths indicates the watcher was constructed without paths.
var ErrNoWatchPaths = errors.New(watcherNoPathsMessageConstant)

// Watcher re-runs a callback whenever watched filesystem paths change.
//
// Rapid event bursts are coalesced with a debounce window so editor save
// storms trigger a single re-run.
type Watcher struct {
	fileWatcher      *fsnotify.Watcher
	logger           *zap.Logger
	watchedPaths     []string
	debounceDuration time.Duration
}

// NewWatcher constructs a watcher over the provided filesystem paths.
func NewWatcher(logger *zap.Logger, watchedPaths []string, debounceDuration time.Duration) (*Watcher, error) {
	if len(watchedPaths) == 0 {
		return nil, ErrNoWatchPaths
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if debounceDuration <= 0 {
		debounceDuration = defaultWatchDebounceDurationNumber
	}

	fileWatcher, watcherError := fsnotify.NewWatcher()
	if watcherError != nil {
		return nil, watcherError
	}

	for _, watchedPath := range watchedPaths {
		if addError := fileWatcher.Add(watchedPath); addError != nil {
			_ = fileWatcher.Close()
			return nil, addError
		}
	}

	return &Watcher{
		fileWatcher:      fileWatcher,
		logger:           logger,
		watchedPaths:     watchedPaths,
		debounceDuration: debounceDuration,
	}, nil
}

// Run blocks dispatching the callback on debounced change events until the context ends.
//
// Callback failures are logged and do not stop the watch loop; the loop only
// returns when the context is cancelled.
func (watcher *Watcher) Run(executionContext context.Context, onChange func(context.Context) error) error {
	watcher.logger.Info(watcherStartedMessageConstant, zap.Strings(watcherPathsLogFieldConstant, watcher.watchedPaths))

	var debounceTimer *time.Timer
	var debounceChannel <-chan time.Time

	for {
		select {
		case <-executionContext.Done():
			return executionContext.Err()

		case event, channelOpen := <-watcher.fileWatcher.Events:
			if !channelOpen {
				return nil
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) == 0 {
				continue
			}
			watcher.logger.Debug(watcherTriggeredMessageConstant, zap.String(watcherEventLogFieldConstant, event.String()))
			if debounceTimer == nil {
				debounceTimer = time.NewTimer(watcher.debounceDuration)
				debounceChannel = debounceTimer.C
			} else {
				if !debounceTimer.Stop() {
					select {
					case <-debounceTimer.C:
					default:
					}
				}
				debounceTimer.Reset(watcher.debounceDuration)
			}

		case errorValue, channelOpen := <-watcher.fileWatcher.Errors:
			if !channelOpen {
				return nil
			}
			watcher.logger.Warn(watcherEventErrorMessageConstant, zap.Error(errorValue))

		case <-debounceChannel:
			debounceTimer = nil
			debounceChannel = nil
			if callbackError := onChange(executionContext); callbackError != nil {
				watcher.logger.Warn(watcherTaskFailureMessageConstant, zap.Error(callbackError))
			}
		}
	}
}

// Close releases the underlying filesystem watcher.
func (watcher *Watcher) Close() error {
	return watcher.fileWatcher.Close()
}
