package livequery

import (
	"context"
	"reflect"
	"sync"
	"time"

	"github.com/autom8ter/livequery/errors"
	"github.com/autom8ter/livequery/internal/safe"
	"github.com/autom8ter/livequery/logger"
	"github.com/autom8ter/livequery/metrics"
	"github.com/autom8ter/livequery/model"
	"github.com/segmentio/ksuid"
)

// DefaultDebounce is the quiet period an executor waits for before executing
const DefaultDebounce = 500 * time.Millisecond

// PaginationMode is how a new page is combined with the items already loaded
type PaginationMode string

const (
	// PaginationAppend concatenates the new page after the existing items
	PaginationAppend PaginationMode = "append"
	// PaginationReplace replaces the existing items with the new page
	PaginationReplace PaginationMode = "replace"
)

// RefreshOptions configure Refresh
type RefreshOptions struct {
	// MaintainStartAfter keeps the current start after cursor instead of reloading from the first page
	MaintainStartAfter bool
}

// Snapshot is the visible state of an executor
type Snapshot[T any] struct {
	Items                  []T    `json:"items"`
	Cursor                 any    `json:"-"`
	Loading                bool   `json:"loading"`
	LoadingInitial         bool   `json:"loadingInitial"`
	LoadingMore            bool   `json:"loadingMore"`
	LoadingOnOptionsChange bool   `json:"loadingOnOptionsChange"`
	Refreshing             bool   `json:"refreshing"`
	LoadError              string `json:"loadError,omitempty"`
	// Generation is incremented whenever an execution completes, is superseded or is canceled
	Generation uint64 `json:"generation"`
}

// Subscriber is called with the executor's snapshot after every change
type Subscriber[T any] func(snapshot Snapshot[T])

// Option configures an Executor
type Option[T any] func(e *Executor[T])

// WithDebounce sets the quiet period an executor waits for before executing, coalescing triggers
func WithDebounce[T any](debounce time.Duration) Option[T] {
	return func(e *Executor[T]) {
		e.debounce = debounce
	}
}

// WithLoad overrides the data source
func WithLoad[T any](load LoadFunc[T]) Option[T] {
	return func(e *Executor[T]) {
		e.load = load
	}
}

// WithMap sets the function mapping store snapshots to items
func WithMap[T any](mapper Mapper[T]) Option[T] {
	return func(e *Executor[T]) {
		e.mapper = mapper
	}
}

// WithPaginationMode sets how pages are combined
func WithPaginationMode[T any](mode PaginationMode) Option[T] {
	return func(e *Executor[T]) {
		e.mode = mode
	}
}

// OnLoadSuccess is called with every page applied to the executor's state
func OnLoadSuccess[T any](fn func(result *Result[T])) Option[T] {
	return func(e *Executor[T]) {
		e.onSuccess = fn
	}
}

// OnLoadError is called with every load error applied to the executor's state
func OnLoadError[T any](fn func(err error)) Option[T] {
	return func(e *Executor[T]) {
		e.onError = fn
	}
}

// OnLoadComplete is called after every current execution with either the result or the error.
// Failures of superseded executions are reported too, with a nil result.
func OnLoadComplete[T any](fn func(result *Result[T], err error)) Option[T] {
	return func(e *Executor[T]) {
		e.onComplete = fn
	}
}

// WithLogger sets the executor's logger
func WithLogger[T any](l logger.Logger) Option[T] {
	return func(e *Executor[T]) {
		e.logger = l
	}
}

// WithContext sets the context passed to the load function. Canceling it stops the executor.
func WithContext[T any](ctx context.Context) Option[T] {
	return func(e *Executor[T]) {
		e.parent = ctx
	}
}

type triggerKind string

const (
	triggerInitial       triggerKind = "initial"
	triggerOptionsChange triggerKind = "options_change"
	triggerPagination    triggerKind = "pagination"
	triggerRefresh       triggerKind = "refresh"
	triggerReload        triggerKind = "reload"
	triggerSkipped       triggerKind = "skipped"
)

// deps are the values an execution depends on. A trigger whose deps are unchanged is ignored.
type deps struct {
	revision Revision
	refresh  uint64
}

// Executor keeps a result set consistent with a State. Every option change is classified as a
// fresh load, an options change, a pagination continuation or a refresh, then executed after the
// debounce period. Results and errors are applied only if no newer execution started while they
// were in flight. All mutable state is owned by a single event loop goroutine.
type Executor[T any] struct {
	collection  string
	state       *State
	load        LoadFunc[T]
	mapper      Mapper[T]
	debounce    time.Duration
	mode        PaginationMode
	onSuccess   func(result *Result[T])
	onError     func(err error)
	onComplete  func(result *Result[T], err error)
	logger      logger.Logger
	parent      context.Context
	ctx         context.Context
	cancel      context.CancelFunc
	mailbox     *mailbox
	done        chan struct{}
	closeOnce   sync.Once
	unobserve   func()
	subscribers *safe.Map[Subscriber[T]]

	mu        sync.RWMutex
	published Snapshot[T]

	// owned by the event loop
	view       Snapshot[T]
	generation uint64
	timer      *time.Timer
	timerSeq   uint64
	pending    triggerKind
	inFlight   bool
	executed   bool
	baseline   Revision
	lastCursor any
	hasDeps    bool
	lastDeps   deps
	refreshes  uint64
}

// New creates an executor for the collection and starts it. The initial load is scheduled
// immediately. Either loader or WithLoad must provide the data source.
func New[T any](collection string, state *State, loader model.Loader, opts ...Option[T]) (*Executor[T], error) {
	if collection == "" {
		return nil, errors.New(errors.Validation, "empty collection path")
	}
	if state == nil {
		return nil, errors.New(errors.Validation, "nil query state")
	}
	e := &Executor[T]{
		collection:  collection,
		state:       state,
		mapper:      DefaultMapper[T](),
		debounce:    DefaultDebounce,
		mode:        PaginationAppend,
		logger:      logger.Noop(),
		parent:      context.Background(),
		mailbox:     newMailbox(),
		done:        make(chan struct{}),
		subscribers: safe.NewMap(map[string]Subscriber[T]{}),
	}
	if loader != nil {
		e.load = FromLoader[T](loader)
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.load == nil {
		return nil, errors.New(errors.Validation, "a loader or load function is required")
	}
	switch e.mode {
	case PaginationAppend, PaginationReplace:
	default:
		return nil, errors.New(errors.Validation, "invalid pagination mode: '%s'", e.mode)
	}
	e.ctx, e.cancel = context.WithCancel(e.parent)
	e.unobserve = state.Observe(func(Options) {
		e.OptionsChanged()
	})
	go e.run()
	e.mailbox.post(e.evaluate)
	return e, nil
}

// OptionsChanged notifies the executor that the state's options may have changed. The executor
// observes its state so this is only required for external dependencies.
func (e *Executor[T]) OptionsChanged() {
	e.mailbox.post(e.evaluate)
}

// LoadNext loads the page after the current cursor. It is a no-op while loading or once the result set is exhausted.
func (e *Executor[T]) LoadNext() {
	e.mailbox.post(func() {
		if e.view.Loading || e.view.Cursor == nil {
			return
		}
		e.state.SetStartAfter(e.view.Cursor)
		e.evaluate()
	})
}

// Refresh re-executes the query even if the options are unchanged. Unless MaintainStartAfter is
// set the query restarts from the first page. It is a no-op while a refresh is in progress.
func (e *Executor[T]) Refresh(opts RefreshOptions) {
	e.mailbox.post(func() {
		if e.view.Refreshing {
			return
		}
		e.view.Refreshing = true
		e.refreshes++
		if !opts.MaintainStartAfter {
			e.state.SetStartAfter(nil)
		}
		e.evaluate()
	})
}

// Cancel clears the loading flags and discards any pending or in flight execution. The underlying
// load call is not aborted, its result is ignored.
func (e *Executor[T]) Cancel() {
	e.mailbox.post(func() {
		e.stopTimer()
		e.generation++
		e.inFlight = false
		e.clearFlags()
		e.logger.Debug(e.ctx, "canceled query", e.tags(map[string]any{
			"generation": e.generation,
		}))
		e.publish()
	})
}

// State returns the executor's current snapshot
func (e *Executor[T]) State() Snapshot[T] {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.published
}

// Subscribe registers a subscriber called on the event loop after every change. The returned
// function removes it.
func (e *Executor[T]) Subscribe(fn Subscriber[T]) func() {
	id := ksuid.New().String()
	e.subscribers.Set(id, fn)
	return func() {
		e.subscribers.Del(id)
	}
}

// Close stops observing the state and stops the event loop. Load calls in flight
// have their context canceled. Close waits for the event loop to exit, so subscribers and
// load callbacks, which run on the loop, must not call it directly.
func (e *Executor[T]) Close() {
	e.closeOnce.Do(func() {
		e.unobserve()
		e.cancel()
		<-e.done
	})
}

func (e *Executor[T]) run() {
	defer close(e.done)
	for {
		select {
		case <-e.ctx.Done():
			e.stopTimer()
			return
		case <-e.mailbox.wake:
			for _, event := range e.mailbox.drain() {
				if e.ctx.Err() != nil {
					break
				}
				event()
			}
		}
	}
}

// evaluate classifies a trigger and schedules an execution
func (e *Executor[T]) evaluate() {
	opts := e.state.Options()
	current := deps{revision: opts.Revision, refresh: e.refreshes}
	if e.hasDeps && current == e.lastDeps {
		return
	}
	refreshTriggered := e.hasDeps && current.refresh != e.lastDeps.refresh
	e.hasDeps = true
	e.lastDeps = current

	optionsChanged := e.executed && (opts.Revision.Filters != e.baseline.Filters ||
		opts.Revision.Limit != e.baseline.Limit ||
		opts.Revision.OrderBy != e.baseline.OrderBy)
	pagination := e.executed && !refreshTriggered && !optionsChanged && sameCursor(opts.StartAfter, e.lastCursor)
	if pagination && (opts.StartAfter == nil || e.view.Refreshing) {
		e.record(triggerSkipped)
		return
	}
	var kind triggerKind
	switch {
	case !e.executed:
		kind = triggerInitial
	case refreshTriggered:
		kind = triggerRefresh
	case optionsChanged:
		kind = triggerOptionsChange
	case pagination:
		kind = triggerPagination
	default:
		kind = triggerReload
	}
	e.record(kind)
	if e.inFlight {
		e.generation++
		e.inFlight = false
		e.view.Generation = e.generation
	}
	e.view.Loading = true
	e.view.LoadingInitial = !e.executed
	e.view.LoadingMore = pagination
	e.view.LoadingOnOptionsChange = optionsChanged
	e.view.LoadError = ""
	e.publish()
	e.schedule(kind)
}

func (e *Executor[T]) record(kind triggerKind) {
	metrics.TriggersTotal.WithLabelValues(e.collection, string(kind)).Inc()
	e.logger.Debug(e.ctx, "query triggered", e.tags(map[string]any{
		"kind":       string(kind),
		"generation": e.generation,
	}))
}

func (e *Executor[T]) schedule(kind triggerKind) {
	e.stopTimer()
	e.pending = kind
	seq := e.timerSeq
	e.timer = time.AfterFunc(e.debounce, func() {
		e.mailbox.post(func() {
			e.execute(seq)
		})
	})
}

func (e *Executor[T]) stopTimer() {
	e.timerSeq++
	if e.timer != nil {
		e.timer.Stop()
		e.timer = nil
	}
}

// execute starts the load call for the trailing trigger of a debounce window
func (e *Executor[T]) execute(seq uint64) {
	if seq != e.timerSeq {
		return
	}
	e.timer = nil
	opts := e.state.Options()
	generation := e.generation
	kind := e.pending
	e.inFlight = true
	query := opts.Query()
	go func() {
		start := time.Now()
		result, err := e.load(e.ctx, e.collection, query, e.mapper)
		metrics.ExecutionDuration.WithLabelValues(e.collection).Observe(time.Since(start).Seconds())
		e.mailbox.post(func() {
			e.complete(generation, kind, opts, result, err)
		})
	}()
}

// complete applies a load result if its execution is still current
func (e *Executor[T]) complete(generation uint64, kind triggerKind, opts Options, result *Result[T], err error) {
	if generation != e.generation {
		metrics.ExecutionsTotal.WithLabelValues(e.collection, "stale").Inc()
		e.logger.Debug(e.ctx, "discarded stale query result", e.tags(map[string]any{
			"generation":         generation,
			"current_generation": e.generation,
			"error":              err != nil,
		}))
		if err != nil && e.onComplete != nil {
			e.onComplete(nil, err)
		}
		return
	}
	e.inFlight = false
	if err != nil {
		metrics.ExecutionsTotal.WithLabelValues(e.collection, "error").Inc()
		e.logger.Warn(e.ctx, "query failed", e.tags(map[string]any{
			"kind":  string(kind),
			"error": err.Error(),
		}))
		e.view.LoadError = errors.Extract(err).Message()
		e.clearFlags()
		e.publish()
		if e.onError != nil {
			e.onError(err)
		}
		if e.onComplete != nil {
			e.onComplete(nil, err)
		}
		return
	}
	if result == nil {
		result = &Result[T]{}
	}
	metrics.ExecutionsTotal.WithLabelValues(e.collection, "success").Inc()
	if kind == triggerPagination && e.mode == PaginationAppend {
		items := make([]T, 0, len(e.view.Items)+len(result.Items))
		items = append(items, e.view.Items...)
		e.view.Items = append(items, result.Items...)
	} else {
		e.view.Items = result.Items
	}
	e.view.Cursor = result.Cursor
	e.view.LoadError = ""
	e.executed = true
	e.baseline = opts.Revision
	e.lastCursor = result.Cursor
	e.clearFlags()
	e.generation++
	e.view.Generation = e.generation
	e.logger.Debug(e.ctx, "query loaded", e.tags(map[string]any{
		"kind":  string(kind),
		"count": len(result.Items),
		"total": len(e.view.Items),
	}))
	e.publish()
	if e.onSuccess != nil {
		e.onSuccess(result)
	}
	if e.onComplete != nil {
		e.onComplete(result, nil)
	}
}

func (e *Executor[T]) clearFlags() {
	e.view.Loading = false
	e.view.LoadingInitial = false
	e.view.LoadingMore = false
	e.view.LoadingOnOptionsChange = false
	e.view.Refreshing = false
	e.view.Generation = e.generation
}

func (e *Executor[T]) publish() {
	snapshot := e.view
	e.mu.Lock()
	e.published = snapshot
	e.mu.Unlock()
	e.subscribers.Range(func(_ string, fn Subscriber[T]) bool {
		fn(snapshot)
		return true
	})
}

func (e *Executor[T]) tags(tags map[string]any) map[string]any {
	tags["collection"] = e.collection
	return tags
}

// sameCursor compares cursors by identity where possible and structurally otherwise
func sameCursor(a, b any) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	ta, tb := reflect.TypeOf(a), reflect.TypeOf(b)
	if ta == tb && ta.Comparable() {
		return a == b
	}
	return reflect.DeepEqual(a, b)
}
