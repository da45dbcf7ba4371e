package loader

import (
	"context"
	stderrors "errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/justgrid/pkg/clock"
	"github.com/matzehuels/justgrid/pkg/errors"
	"github.com/matzehuels/justgrid/pkg/gallery"
	"github.com/matzehuels/justgrid/pkg/layout"
	"github.com/matzehuels/justgrid/pkg/observability"
	"github.com/matzehuels/justgrid/pkg/proximity"
)

// ErrDestroyed is returned by operations on a destroyed controller.
var ErrDestroyed = stderrors.New("gallery controller destroyed")

// DefaultTriggerMarginPx is how far below the viewport the last item may be
// before more pages are requested.
const DefaultTriggerMarginPx = 600.0

// State is the controller's position in its load cycle.
type State int

const (
	Idle State = iota
	Loading
	Backoff
	Exhausted
	Fatal
)

var stateNames = [...]string{"idle", "loading", "backoff", "exhausted", "fatal"}

func (s State) String() string {
	if s < 0 || int(s) >= len(stateNames) {
		return fmt.Sprintf("State(%d)", int(s))
	}
	return stateNames[s]
}

// MarshalText encodes the state by name.
func (s State) MarshalText() ([]byte, error) { return []byte(s.String()), nil }

// UnmarshalText decodes a state name.
func (s *State) UnmarshalText(b []byte) error {
	for i, name := range stateNames {
		if name == string(b) {
			*s = State(i)
			return nil
		}
	}
	return fmt.Errorf("unknown state %q", b)
}

// Terminal reports whether the state only ends with Reset.
func (s State) Terminal() bool { return s == Exhausted || s == Fatal }

// IndicatorKind is the kind of status banner a gallery shows.
type IndicatorKind string

const (
	IndicatorNone      IndicatorKind = ""
	IndicatorLoading   IndicatorKind = "loading"
	IndicatorRetrying  IndicatorKind = "retrying"
	IndicatorExhausted IndicatorKind = "exhausted"
	IndicatorFatal     IndicatorKind = "fatal"
)

// Indicator is the single persistent status of a gallery. Each transition
// replaces the previous indicator.
type Indicator struct {
	Kind    IndicatorKind `json:"kind,omitempty"`
	Message string        `json:"message,omitempty"`
}

// CollectionSet tracks the pagination of one collection in a gallery.
type CollectionSet struct {
	CollectionID string `json:"collection_id" bson:"collection_id"`
	CurrentPage  int    `json:"current_page" bson:"current_page"`
	TotalPages   int    `json:"total_pages,omitempty" bson:"total_pages,omitempty"`
	HasMore      bool   `json:"has_more" bson:"has_more"`
	LoadingError bool   `json:"loading_error,omitempty" bson:"loading_error,omitempty"`
}

func (s CollectionSet) pending() bool { return s.HasMore && !s.LoadingError }

// Status is a point-in-time view of a controller.
type Status struct {
	ID        string          `json:"id"`
	State     State           `json:"state"`
	Loading   bool            `json:"loading"`
	HasMore   bool            `json:"has_more"`
	Items     int             `json:"items"`
	Pending   int             `json:"pending"`
	FailCount int             `json:"fail_count,omitempty"`
	RetryAt   time.Time       `json:"retry_at,omitzero"`
	Indicator Indicator       `json:"indicator"`
	Sets      []CollectionSet `json:"sets"`
}

// Options configures a Controller.
type Options struct {
	// ID names the gallery in logs and hooks.
	ID string
	// Collections are fetched in order, one page per set per round.
	Collections []string
	Provider    PageProvider
	SortOrder   SortOrder
	// MaxItems caps the number of items the gallery holds; 0 means no cap.
	MaxItems int

	// Cooldown is the quiet period after a merge during which load
	// requests are ignored.
	Cooldown          time.Duration
	BaseDelay         time.Duration
	MaxDelay          time.Duration
	DefaultRetryDelay time.Duration
	DedupCapacity     int

	TriggerMarginPx    float64
	TriggerMinInterval time.Duration

	Clock  clock.Clock
	Logger *log.Logger

	// OnMerge receives the full item list after every merge.
	OnMerge func(items []gallery.Item)
	// OnStatus receives the status after every load round and transition.
	OnStatus func(Status)
}

// SetDefaults fills zero-valued fields with their defaults.
func (o *Options) SetDefaults() {
	if o.SortOrder == "" {
		o.SortOrder = SortDefault
	}
	if o.Cooldown == 0 {
		o.Cooldown = DefaultCooldown
	}
	if o.BaseDelay == 0 {
		o.BaseDelay = DefaultBaseDelay
	}
	if o.MaxDelay == 0 {
		o.MaxDelay = DefaultMaxDelay
	}
	if o.DefaultRetryDelay == 0 {
		o.DefaultRetryDelay = DefaultRetryDelay
	}
	if o.DedupCapacity == 0 {
		o.DedupCapacity = DefaultDedupCapacity
	}
	if o.TriggerMarginPx == 0 {
		o.TriggerMarginPx = DefaultTriggerMarginPx
	}
	if o.TriggerMinInterval == 0 {
		o.TriggerMinInterval = proximity.DefaultMinInterval
	}
	if o.Clock == nil {
		o.Clock = clock.Real{}
	}
	if o.Logger == nil {
		o.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}
}

// Validate checks the options for errors.
func (o *Options) Validate() error {
	if o.Provider == nil {
		return errors.New(errors.ErrCodeInvalidConfig, "page provider is required")
	}
	if len(o.Collections) == 0 {
		return errors.New(errors.ErrCodeInvalidConfig, "at least one collection is required")
	}
	for _, id := range o.Collections {
		if err := errors.ValidateCollectionID(id); err != nil {
			return err
		}
	}
	if !o.SortOrder.Valid() {
		return errors.New(errors.ErrCodeInvalidConfig, "invalid sort order: %q (must be one of: default, most-viewed)", o.SortOrder)
	}
	if o.MaxItems < 0 {
		return errors.New(errors.ErrCodeInvalidConfig, "max items must be >= 0, got %d", o.MaxItems)
	}
	if o.MaxDelay < o.BaseDelay {
		return errors.New(errors.ErrCodeInvalidConfig, "max delay %s is below base delay %s", o.MaxDelay, o.BaseDelay)
	}
	return nil
}

// Controller loads successive pages of a gallery's collections and merges
// them into its item list.
//
// All state is owned by the controller. Operations on one controller are
// serialized by its mutex, which is released while the provider is called;
// a request token discards responses that were superseded in the meantime.
// Controllers of different galleries share nothing.
type Controller struct {
	opts    Options
	log     *log.Logger
	clock   clock.Clock
	trigger *proximity.Trigger

	baseCtx    context.Context
	baseCancel context.CancelFunc

	mu         sync.Mutex
	state      State
	sets       []CollectionSet
	items      []gallery.Item
	pending    []gallery.Item
	seen       *seenSet
	token      uint64
	cancel     context.CancelFunc
	failCount  int
	retryAt    time.Time
	retryTimer clock.Timer
	lastMerge  time.Time
	indicator  Indicator
	destroyed  bool
	outbox     []func()
}

// New creates a controller in the Idle state. No page is fetched until
// LoadNextPages is called.
func New(opts Options) (*Controller, error) {
	opts.SetDefaults()
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	ctx, cancel := context.WithCancel(context.Background())
	c := &Controller{
		opts:       opts,
		log:        opts.Logger.With("gallery", opts.ID),
		clock:      opts.Clock,
		trigger:    proximity.New(opts.Clock, opts.TriggerMinInterval),
		baseCtx:    ctx,
		baseCancel: cancel,
	}
	c.resetLocked()
	return c, nil
}

// ID returns the gallery id.
func (c *Controller) ID() string { return c.opts.ID }

// LoadNextPages fetches the next page of every collection set that still
// has more, one set at a time, and merges the new items. It returns when
// the round is complete. Calls while a round is running, during the
// post-merge cooldown, while a retry is scheduled, or in a terminal state
// do nothing.
func (c *Controller) LoadNextPages(ctx context.Context) {
	c.load(ctx, false)
}

func (c *Controller) load(ctx context.Context, retry bool) {
	defer c.flush()

	c.mu.Lock()
	if !c.canLoadLocked(retry) {
		c.mu.Unlock()
		return
	}
	if c.capReachedLocked() {
		c.finishLocked(nil, false, false)
		c.mu.Unlock()
		return
	}

	c.token++
	token := c.token
	if c.cancel != nil {
		c.cancel()
	}
	fetchCtx, cancel := context.WithCancel(ctx)
	c.cancel = cancel
	c.setStateLocked(Loading)
	c.indicator = Indicator{Kind: IndicatorLoading}
	c.mu.Unlock()
	defer cancel()

	var (
		retryOutcome *Outcome
		stopOutcome  *Outcome
		cancelled    bool
	)
	for idx := 0; ; idx++ {
		c.mu.Lock()
		if c.staleLocked(token) {
			c.mu.Unlock()
			return
		}
		idx = c.nextSetLocked(idx)
		if idx < 0 || c.capReachedLocked() {
			c.mu.Unlock()
			break
		}
		set := c.sets[idx]
		req := PageRequest{
			CollectionID:  set.CollectionID,
			Page:          set.CurrentPage + 1,
			SortOrder:     c.opts.SortOrder,
			MaxItems:      c.opts.MaxItems,
			AlreadyLoaded: len(c.items) + len(c.pending),
		}
		c.mu.Unlock()

		page, err := c.fetch(fetchCtx, req)

		c.mu.Lock()
		if c.staleLocked(token) {
			c.mu.Unlock()
			c.log.Debug("discarding stale response", "collection", req.CollectionID, "page", req.Page)
			return
		}
		if err == nil {
			c.acceptLocked(idx, req, page)
			c.mu.Unlock()
			continue
		}

		out := Classify(err)
		if out.Kind == SetFatal {
			c.sets[idx].LoadingError = true
		}
		c.mu.Unlock()
		switch {
		case out.Kind == Ignored:
			c.log.Debug("fetch cancelled", "collection", req.CollectionID, "page", req.Page)
			cancelled = true
		case out.Kind == SetFatal:
			c.log.Warn("collection failed", "collection", req.CollectionID, "page", req.Page, "err", err)
			continue
		case out.NoRetry:
			c.log.Error("authorization failed", "collection", req.CollectionID, "err", err)
			stopOutcome = &out
		default:
			c.log.Warn("fetch failed", "collection", req.CollectionID, "page", req.Page, "err", err)
			retryOutcome = &out
		}
		break
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.staleLocked(token) {
		return
	}
	c.cancel = nil
	c.finishLocked(retryOutcome, stopOutcome != nil, cancelled)
}

func (c *Controller) fetch(ctx context.Context, req PageRequest) (Page, error) {
	hooks := observability.Loader()
	hooks.OnFetchStart(ctx, c.opts.ID, req.CollectionID, req.Page)
	c.log.Debug("fetching page", "collection", req.CollectionID, "page", req.Page, "loaded", req.AlreadyLoaded)

	start := c.clock.Now()
	page, err := c.opts.Provider.FetchPage(ctx, req)
	hooks.OnFetchComplete(ctx, c.opts.ID, req.CollectionID, req.Page, len(page.Items), c.clock.Now().Sub(start), err)
	return page, err
}

// canLoadLocked applies the guards of LoadNextPages.
func (c *Controller) canLoadLocked(retry bool) bool {
	switch {
	case c.destroyed, c.state == Loading, c.state.Terminal():
		return false
	case c.retryTimer != nil:
		return false
	case !c.setsPendingLocked():
		return false
	}
	if !retry && !c.lastMerge.IsZero() && c.clock.Now().Sub(c.lastMerge) < c.opts.Cooldown {
		// The trigger already latched on this visibility event; let a later
		// observation fire again once the cooldown is over.
		c.trigger.ClearLatch()
		return false
	}
	return true
}

func (c *Controller) staleLocked(token uint64) bool {
	return c.destroyed || c.token != token
}

// nextSetLocked returns the first index >= from of a set that still has
// pages to fetch, or -1.
func (c *Controller) nextSetLocked(from int) int {
	for i := from; i < len(c.sets); i++ {
		if c.sets[i].pending() {
			return i
		}
	}
	return -1
}

func (c *Controller) loadedLocked() int { return len(c.items) + len(c.pending) }

func (c *Controller) capReachedLocked() bool {
	return c.opts.MaxItems > 0 && c.loadedLocked() >= c.opts.MaxItems
}

func (c *Controller) setsPendingLocked() bool {
	for _, s := range c.sets {
		if s.pending() {
			return true
		}
	}
	return false
}

// hasMoreLocked is the gallery-level gate: some set has more pages and the
// cap has not been reached.
func (c *Controller) hasMoreLocked() bool {
	return !c.capReachedLocked() && c.setsPendingLocked()
}

// acceptLocked records a page response: new, unseen items are added to
// pending up to the remaining budget, and the set's pagination is updated.
func (c *Controller) acceptLocked(idx int, req PageRequest, page Page) {
	accepted := 0
	for _, it := range page.Items {
		if c.capReachedLocked() {
			break
		}
		key := it.Key()
		if key == "" || !c.seen.Add(key) {
			continue
		}
		c.pending = append(c.pending, it)
		accepted++
	}

	set := &c.sets[idx]
	set.CurrentPage = req.Page
	if page.Page > 0 {
		set.CurrentPage = page.Page
	}
	if page.TotalPages > 0 {
		set.TotalPages = page.TotalPages
	}
	set.HasMore = page.HasMore && (set.TotalPages == 0 || set.CurrentPage < set.TotalPages)

	c.log.Debug("page received", "collection", set.CollectionID, "page", set.CurrentPage,
		"items", len(page.Items), "accepted", accepted, "has_more", set.HasMore)
}

// finishLocked ends a load round: pending items are merged, then the next
// state is chosen from the round's failures.
func (c *Controller) finishLocked(retry *Outcome, stop, cancelled bool) {
	merged := c.mergeLocked()

	switch {
	case stop:
		for i := range c.sets {
			c.sets[i].LoadingError = true
		}
		c.setStateLocked(Fatal)
		c.indicator = Indicator{Kind: IndicatorFatal, Message: msgSession}
		c.trigger.Disarm()

	case retry != nil:
		c.failCount++
		delay := retryDelay(*retry, c.failCount, c.opts)
		c.scheduleRetryLocked(delay)
		c.setStateLocked(Backoff)
		c.indicator = Indicator{Kind: IndicatorRetrying, Message: retry.Message}
		failCount := c.failCount
		c.emit(func() { observability.Loader().OnBackoff(c.baseCtx, c.opts.ID, failCount, delay) })
		c.log.Info("retry scheduled", "attempt", failCount, "delay", delay)

	case !c.hasMoreLocked():
		c.setStateLocked(Exhausted)
		c.indicator = Indicator{Kind: IndicatorExhausted}
		for _, s := range c.sets {
			if s.LoadingError {
				c.indicator.Message = msgSetFailed
				break
			}
		}
		c.trigger.Disarm()
		c.log.Info("gallery exhausted", "items", len(c.items))

	default:
		c.setStateLocked(Idle)
		c.indicator = Indicator{}
		if !merged || cancelled {
			c.trigger.ClearLatch()
		}
	}
	c.emitStatusLocked()
}

// mergeLocked moves pending items into the gallery and re-arms the trigger
// on the new last item. It reports whether anything was merged.
func (c *Controller) mergeLocked() bool {
	if len(c.pending) == 0 {
		return false
	}
	added := len(c.pending)
	items := append(c.items, c.pending...)
	if c.opts.SortOrder == SortMostViewed {
		items = gallery.SortByPopularity(items)
	}
	c.items = items
	c.pending = nil
	c.failCount = 0
	c.lastMerge = c.clock.Now()

	last := c.items[len(c.items)-1].Key()
	c.trigger.Arm(last, c.onNear, c.opts.TriggerMarginPx)

	snapshot := c.itemsLocked()
	total := len(snapshot)
	c.emit(func() { observability.Loader().OnMerge(c.baseCtx, c.opts.ID, added, total) })
	if c.opts.OnMerge != nil {
		fn := c.opts.OnMerge
		c.emit(func() { fn(snapshot) })
	}
	c.log.Debug("merged items", "added", added, "total", total)
	return true
}

func (c *Controller) onNear() {
	c.load(c.baseCtx, false)
}

func (c *Controller) scheduleRetryLocked(delay time.Duration) {
	c.stopRetryLocked()
	token := c.token
	c.retryAt = c.clock.Now().Add(delay)
	c.retryTimer = c.clock.AfterFunc(delay, func() {
		c.mu.Lock()
		if c.destroyed || c.token != token {
			c.mu.Unlock()
			return
		}
		c.retryTimer = nil
		c.retryAt = time.Time{}
		c.mu.Unlock()
		c.load(c.baseCtx, true)
	})
}

func (c *Controller) stopRetryLocked() {
	if c.retryTimer != nil {
		c.retryTimer.Stop()
		c.retryTimer = nil
	}
	c.retryAt = time.Time{}
}

func (c *Controller) setStateLocked(s State) {
	if c.state == s {
		return
	}
	from := c.state
	c.state = s
	c.emit(func() { observability.Loader().OnStateChange(c.baseCtx, c.opts.ID, from.String(), s.String()) })
}

func (c *Controller) emitStatusLocked() {
	if c.opts.OnStatus == nil {
		return
	}
	st := c.statusLocked()
	fn := c.opts.OnStatus
	c.emit(func() { fn(st) })
}

// emit queues fn to run after the controller's lock is released.
func (c *Controller) emit(fn func()) {
	c.outbox = append(c.outbox, fn)
}

func (c *Controller) flush() {
	c.mu.Lock()
	out := c.outbox
	c.outbox = nil
	c.mu.Unlock()
	for _, fn := range out {
		fn()
	}
}

// Observe reports the distance in pixels between the top of the target
// item's row and the viewport bottom. When the target is the gallery's last
// item and within the trigger margin, the next pages are loaded before
// Observe returns. It reports whether the trigger fired.
func (c *Controller) Observe(target string, distancePx float64) bool {
	return c.trigger.Observe(target, distancePx)
}

// ObserveLayout is Observe for a rendered layout: it locates the trigger's
// target in rows and measures its distance to the viewport bottom.
func (c *Controller) ObserveLayout(rows []layout.Row, scrollTop, viewportHeight float64) bool {
	target := c.trigger.Target()
	if target == "" {
		return false
	}
	d, ok := layout.DistanceBelow(rows, target, scrollTop, viewportHeight)
	if !ok {
		return false
	}
	return c.trigger.Observe(target, d)
}

// TriggerTarget returns the key of the item the trigger is armed on, or ""
// when no more pages will be requested.
func (c *Controller) TriggerTarget() string {
	return c.trigger.Target()
}

// Layout lays out the merged items.
func (c *Controller) Layout(containerWidth float64, cfg layout.Config, vp layout.Viewport) []layout.Row {
	items := c.Items()
	start := c.clock.Now()
	rows := layout.Compute(items, containerWidth, cfg, vp)
	observability.Layout().OnLayout(c.baseCtx, len(items), len(rows), containerWidth, c.clock.Now().Sub(start))
	return rows
}

// Items returns a copy of the merged items in display order.
func (c *Controller) Items() []gallery.Item {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.itemsLocked()
}

func (c *Controller) itemsLocked() []gallery.Item {
	out := make([]gallery.Item, len(c.items))
	copy(out, c.items)
	return out
}

// State returns the current state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Indicator returns the current status indicator.
func (c *Controller) Indicator() Indicator {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.indicator
}

// Status returns a snapshot of the controller.
func (c *Controller) Status() Status {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.statusLocked()
}

func (c *Controller) statusLocked() Status {
	sets := make([]CollectionSet, len(c.sets))
	copy(sets, c.sets)
	return Status{
		ID:        c.opts.ID,
		State:     c.state,
		Loading:   c.state == Loading,
		HasMore:   c.hasMoreLocked(),
		Items:     len(c.items),
		Pending:   len(c.pending),
		FailCount: c.failCount,
		RetryAt:   c.retryAt,
		Indicator: c.indicator,
		Sets:      sets,
	}
}

// Progress returns the merged items, followed by any not yet merged, and
// the collection sets, read under one lock so that they agree.
func (c *Controller) Progress() ([]gallery.Item, []CollectionSet) {
	c.mu.Lock()
	defer c.mu.Unlock()
	items := append(c.itemsLocked(), c.pending...)
	sets := make([]CollectionSet, len(c.sets))
	copy(sets, c.sets)
	return items, sets
}

// Restore seeds an idle, empty controller with previously merged items and
// set progress, as saved by a snapshot. Sets are matched by collection id;
// collections without saved progress start from the first page.
func (c *Controller) Restore(items []gallery.Item, sets []CollectionSet) error {
	defer c.flush()
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.destroyed {
		return ErrDestroyed
	}
	if c.state != Idle || len(c.items) > 0 || len(c.pending) > 0 {
		return errors.New(errors.ErrCodeInvalidInput, "gallery %s already has items", c.opts.ID)
	}

	saved := make(map[string]CollectionSet, len(sets))
	for _, s := range sets {
		saved[s.CollectionID] = s
	}
	for i, s := range c.sets {
		if prev, ok := saved[s.CollectionID]; ok {
			c.sets[i] = prev
		}
	}
	for _, it := range items {
		if c.opts.MaxItems > 0 && len(c.pending) >= c.opts.MaxItems {
			break
		}
		if key := it.Key(); key != "" && c.seen.Add(key) {
			c.pending = append(c.pending, it)
		}
	}
	c.mergeLocked()
	c.lastMerge = time.Time{}
	if !c.hasMoreLocked() {
		c.setStateLocked(Exhausted)
		c.indicator = Indicator{Kind: IndicatorExhausted}
		c.trigger.Disarm()
	}
	c.emitStatusLocked()
	return nil
}

// Reset returns the controller to Idle with fresh collection sets and no
// items. Any in-flight fetch is superseded and any retry is cancelled.
func (c *Controller) Reset() error {
	defer c.flush()
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.destroyed {
		return ErrDestroyed
	}
	c.token++
	if c.cancel != nil {
		c.cancel()
		c.cancel = nil
	}
	c.resetLocked()
	c.emitStatusLocked()
	c.log.Debug("gallery reset")
	return nil
}

func (c *Controller) resetLocked() {
	c.stopRetryLocked()
	c.trigger.Disarm()
	c.sets = make([]CollectionSet, len(c.opts.Collections))
	for i, id := range c.opts.Collections {
		c.sets[i] = CollectionSet{CollectionID: id, HasMore: true}
	}
	c.items = nil
	c.pending = nil
	c.seen = newSeenSet(c.opts.DedupCapacity)
	c.failCount = 0
	c.lastMerge = time.Time{}
	c.indicator = Indicator{}
	c.setStateLocked(Idle)
}

// Destroy tears the controller down: the in-flight fetch is cancelled,
// timers are stopped and the trigger is disarmed. No callback runs after
// Destroy returns, and later responses are discarded.
func (c *Controller) Destroy() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.destroyed {
		return ErrDestroyed
	}
	c.destroyed = true
	c.token++
	if c.cancel != nil {
		c.cancel()
		c.cancel = nil
	}
	c.stopRetryLocked()
	c.trigger.Disarm()
	c.baseCancel()
	c.outbox = nil
	c.log.Debug("gallery destroyed")
	return nil
}
