package xsync

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/garrettladley/inbox/internal/client/sse"
	"github.com/garrettladley/inbox/internal/session"
	"github.com/garrettladley/inbox/internal/storage"
	"github.com/garrettladley/inbox/internal/xslog"
)

const DefaultNamespace = "marketplace-chat"

var (
	ErrEmptyServiceID = errors.New("xsync: service id is required")
	ErrNotAttached    = errors.New("xsync: controller is not attached")
)

// Summary is a point-in-time copy of the controller's cached state.
type Summary struct {
	UserID         string
	UnreadCount    int
	UnreadMessages []storage.Notification
	Connection     sse.State
}

// Controller keeps a local cache of a user's unread notifications consistent
// with the Store. The cache is re-derived on attach, on every (re)connect of
// the Channel, and on every newNotification event addressed to the user.
//
// Every fetch remembers the ticket it was issued under and its result is only
// applied if the ticket is still current, so responses that arrive after a
// detach, a re-attach, or a confirmed mark-read are dropped.
type Controller struct {
	store     Store
	channel   Channel
	logger    *slog.Logger
	namespace string
	retry     RetryPolicy
	// lazy skips the reconciliation Attach would otherwise run.
	lazy bool

	mu sync.Mutex
	// generation changes on every attach and detach.
	generation uint64
	// acks changes whenever the store confirms a mark-read.
	acks           uint64
	attached       bool
	sess           session.Session
	cancel         context.CancelFunc
	sub            Subscription
	unreadCount    int
	unreadMessages []storage.Notification
	connection     sse.State
	observers      map[int]chan Summary
	nextObserver   int
}

type Option func(*Controller)

func WithNamespace(namespace string) Option {
	return func(c *Controller) { c.namespace = namespace }
}

// WithRetry sets the retry policy of reconciliation fetches. maxAttempts of 1
// disables retries.
func WithRetry(initial time.Duration, maxAttempts int) Option {
	return func(c *Controller) {
		c.retry = RetryPolicy{Initial: initial, MaxAttempts: maxAttempts}
	}
}

// WithoutInitialReconcile makes Attach skip its reconciliation, for callers
// that fetch exactly what they need right after attaching.
func WithoutInitialReconcile() Option {
	return func(c *Controller) { c.lazy = true }
}

// NewController returns a detached controller. channel may be nil, in which
// case the controller only reconciles on demand.
func NewController(store Store, channel Channel, logger *slog.Logger, opts ...Option) *Controller {
	if logger == nil {
		logger = slog.Default()
	}
	c := &Controller{
		store:      store,
		channel:    channel,
		logger:     logger,
		namespace:  DefaultNamespace,
		retry:      defaultRetryPolicy(),
		connection: sse.StateClosed,
		observers:  make(map[int]chan Summary),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type ticket struct {
	generation uint64
	acks       uint64
}

// Attach binds the controller to sess and, unless WithoutInitialReconcile
// was given, performs the initial reconciliation before returning. An anonymous session detaches and does no
// network activity. Attaching the already attached user is a no-op.
//
// The returned error only reports a failure to open the push channel; the
// controller stays attached and can still be reconciled on demand.
func (c *Controller) Attach(ctx context.Context, sess session.Session) error {
	if sess.Anonymous() {
		c.Detach()
		return nil
	}

	c.mu.Lock()
	if c.attached && c.sess.UserID == sess.UserID {
		c.mu.Unlock()
		return nil
	}
	prev := c.resetLocked()
	c.generation++
	gen := c.generation
	attachCtx, cancel := context.WithCancel(ctx)
	c.attached = true
	c.sess = sess
	c.cancel = cancel
	if c.channel != nil {
		c.connection = sse.StateConnecting
	}
	c.publishLocked()
	c.mu.Unlock()

	if prev != nil {
		prev.Close()
	}

	logger := c.logger.With(xslog.UserID(sess.UserID), xslog.Generation(gen))
	logger.InfoContext(ctx, "attached")

	var subErr error
	if c.channel != nil {
		kick := make(chan struct{}, 1)
		go c.reconcileLoop(attachCtx, gen, kick)

		sub, err := c.channel.Subscribe(attachCtx, sess, c.namespace, c.handlers(gen, sess.UserID, kick))
		if err != nil {
			logger.WarnContext(ctx, "failed to subscribe to event channel",
				xslog.Namespace(c.namespace),
				xslog.Error(err),
			)
			c.setConnection(gen, sse.StateClosed)
			subErr = fmt.Errorf("subscribing to %s: %w", c.namespace, err)
		} else {
			c.mu.Lock()
			current := c.attached && c.generation == gen
			if current {
				c.sub = sub
			}
			c.mu.Unlock()
			if !current {
				sub.Close()
			}
		}
	}

	if !c.lazy {
		_ = c.reconcile(attachCtx, gen)
	}
	return subErr
}

// Detach closes the subscription, discards the cached state and makes every
// in-flight fetch stale. Detaching a detached controller does nothing.
func (c *Controller) Detach() {
	c.mu.Lock()
	if !c.attached {
		c.mu.Unlock()
		return
	}
	userID := c.sess.UserID
	sub := c.resetLocked()
	c.generation++
	gen := c.generation
	c.publishLocked()
	c.mu.Unlock()

	if sub != nil {
		sub.Close()
	}
	c.logger.Info("detached", xslog.UserID(userID), xslog.Generation(gen))
}

// resetLocked tears down the current attachment and returns its
// subscription, which the caller must close after releasing the lock.
func (c *Controller) resetLocked() Subscription {
	if c.cancel != nil {
		c.cancel()
		c.cancel = nil
	}
	sub := c.sub
	c.sub = nil
	c.attached = false
	c.sess = session.Session{}
	c.unreadCount = 0
	c.unreadMessages = nil
	c.connection = sse.StateClosed
	return sub
}

func (c *Controller) handlers(gen uint64, userID string, kick chan<- struct{}) sse.Handlers {
	trigger := func() {
		select {
		case kick <- struct{}{}:
		default:
			// a reconciliation is already pending
		}
	}
	return sse.Handlers{
		OnConnect: trigger,
		OnNotification: func(n storage.Notification) {
			if n.RecipientID != userID {
				c.logger.Debug("ignoring notification for another recipient",
					xslog.UserID(userID),
					xslog.RecipientID(n.RecipientID),
				)
				return
			}
			c.logger.Debug("notification received",
				xslog.UserID(userID),
				xslog.NotificationID(n.ID),
				xslog.ServiceID(n.ServiceID),
			)
			trigger()
		},
		OnState: func(s sse.State) {
			c.setConnection(gen, s)
		},
	}
}

// reconcileLoop serializes push-triggered reconciliations; a burst of events
// collapses into one pending run.
func (c *Controller) reconcileLoop(ctx context.Context, gen uint64, kick <-chan struct{}) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-kick:
			_ = c.reconcile(ctx, gen)
		}
	}
}

// Reconcile re-fetches the unread count and the unread list concurrently.
// Failures are logged and leave the cached state as it was; the first one is
// returned.
func (c *Controller) Reconcile(ctx context.Context) error {
	c.mu.Lock()
	attached, gen := c.attached, c.generation
	c.mu.Unlock()
	if !attached {
		return ErrNotAttached
	}
	return c.reconcile(ctx, gen)
}

func (c *Controller) reconcile(ctx context.Context, gen uint64) error {
	t, sess, ok := c.currentTicket()
	if !ok || t.generation != gen {
		return nil
	}

	var g errgroup.Group
	g.Go(func() error {
		_, err := c.fetchUnreadCount(ctx, sess, t, c.retry)
		return err
	})
	g.Go(func() error {
		_, err := c.fetchUnreadMessages(ctx, sess, t, c.retry)
		return err
	})
	return g.Wait()
}

// Refresh re-runs FetchUnreadCount.
func (c *Controller) Refresh(ctx context.Context) error {
	_, err := c.FetchUnreadCount(ctx)
	return err
}

// FetchUnreadCount replaces the cached count with the store's. On failure
// the cached count is kept and the error is returned.
func (c *Controller) FetchUnreadCount(ctx context.Context) (int, error) {
	t, sess, ok := c.currentTicket()
	if !ok {
		return 0, ErrNotAttached
	}
	return c.fetchUnreadCount(ctx, sess, t, RetryPolicy{MaxAttempts: 1})
}

// FetchUnreadMessages replaces the cached list wholesale with the store's.
func (c *Controller) FetchUnreadMessages(ctx context.Context) ([]storage.Notification, error) {
	t, sess, ok := c.currentTicket()
	if !ok {
		return nil, ErrNotAttached
	}
	return c.fetchUnreadMessages(ctx, sess, t, RetryPolicy{MaxAttempts: 1})
}

func (c *Controller) fetchUnreadCount(ctx context.Context, sess session.Session, t ticket, policy RetryPolicy) (int, error) {
	logger := c.logger.With(xslog.UserID(sess.UserID), xslog.Generation(t.generation))

	var count int
	err := policy.do(ctx, logger, func(ctx context.Context) error {
		var err error
		count, err = c.store.UnreadCount(ctx, sess)
		return err
	})
	if err != nil {
		c.logFetchFailure(ctx, logger, t, "failed to fetch unread count", err)
		return 0, err
	}

	count = max(count, 0)

	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.isCurrentLocked(t) {
		logger.DebugContext(ctx, "discarding stale unread count", xslog.Count(count))
		return count, nil
	}
	c.unreadCount = count
	c.publishLocked()
	return count, nil
}

func (c *Controller) fetchUnreadMessages(ctx context.Context, sess session.Session, t ticket, policy RetryPolicy) ([]storage.Notification, error) {
	logger := c.logger.With(xslog.UserID(sess.UserID), xslog.Generation(t.generation))

	var messages []storage.Notification
	err := policy.do(ctx, logger, func(ctx context.Context) error {
		var err error
		messages, err = c.store.ListUnread(ctx, sess)
		return err
	})
	if err != nil {
		c.logFetchFailure(ctx, logger, t, "failed to fetch unread messages", err)
		return nil, err
	}
	if messages == nil {
		messages = []storage.Notification{}
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.isCurrentLocked(t) {
		logger.DebugContext(ctx, "discarding stale unread messages", xslog.Count(len(messages)))
		return messages, nil
	}
	c.unreadMessages = slices.Clone(messages)
	c.publishLocked()
	return messages, nil
}

// logFetchFailure warns about failures of current fetches only; a fetch made
// stale by a detach usually fails with a cancellation nobody cares about.
func (c *Controller) logFetchFailure(ctx context.Context, logger *slog.Logger, t ticket, msg string, err error) {
	c.mu.Lock()
	current := c.isCurrentLocked(t)
	c.mu.Unlock()

	if !current {
		logger.DebugContext(ctx, msg+" (stale)", xslog.Error(err))
		return
	}
	logger.WarnContext(ctx, msg, xslog.Error(err))
}

// MarkAsRead marks every notification of serviceID as read on the store,
// then reconciles. The cached state is not touched before the store
// confirms; once it does, the service's items are dropped from the cache and
// fetches issued before the confirmation are discarded. Repeating the call is
// harmless.
func (c *Controller) MarkAsRead(ctx context.Context, serviceID string) error {
	serviceID = strings.TrimSpace(serviceID)
	if serviceID == "" {
		return ErrEmptyServiceID
	}

	t, sess, ok := c.currentTicket()
	if !ok {
		return ErrNotAttached
	}
	logger := c.logger.With(
		xslog.UserID(sess.UserID),
		xslog.ServiceID(serviceID),
		xslog.Generation(t.generation),
	)

	updated, err := c.store.MarkServiceRead(ctx, sess, serviceID)
	if err != nil {
		logger.WarnContext(ctx, "failed to mark service read", xslog.Error(err))
		return fmt.Errorf("marking %s read: %w", serviceID, err)
	}
	logger.InfoContext(ctx, "marked service read", xslog.Updated(updated))

	c.mu.Lock()
	if c.attached && c.generation == t.generation {
		c.acks++
		before := len(c.unreadMessages)
		c.unreadMessages = slices.DeleteFunc(c.unreadMessages, func(n storage.Notification) bool {
			return n.ServiceID == serviceID
		})
		if removed := before - len(c.unreadMessages); removed > 0 {
			c.unreadCount = max(c.unreadCount-removed, 0)
		}
		c.publishLocked()
	}
	c.mu.Unlock()

	_ = c.reconcile(ctx, t.generation)
	return nil
}

// MarkAllAsRead marks everything read on the store and, once it confirms,
// clears the cached state without waiting for a re-fetch. Fetches issued
// before the clear are discarded when they complete.
func (c *Controller) MarkAllAsRead(ctx context.Context) error {
	t, sess, ok := c.currentTicket()
	if !ok {
		return ErrNotAttached
	}
	logger := c.logger.With(xslog.UserID(sess.UserID), xslog.Generation(t.generation))

	updated, err := c.store.MarkAllRead(ctx, sess)
	if err != nil {
		logger.WarnContext(ctx, "failed to mark all read", xslog.Error(err))
		return fmt.Errorf("marking all read: %w", err)
	}

	c.mu.Lock()
	if c.attached && c.generation == t.generation {
		c.acks++
		c.unreadCount = 0
		c.unreadMessages = []storage.Notification{}
		c.publishLocked()
	}
	c.mu.Unlock()

	logger.InfoContext(ctx, "marked all read", xslog.Updated(updated))
	return nil
}

func (c *Controller) currentTicket() (ticket, session.Session, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.attached {
		return ticket{}, session.Session{}, false
	}
	return ticket{generation: c.generation, acks: c.acks}, c.sess, true
}

func (c *Controller) isCurrentLocked(t ticket) bool {
	return c.attached && c.generation == t.generation && c.acks == t.acks
}

func (c *Controller) setConnection(gen uint64, s sse.State) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.attached || c.generation != gen || c.connection == s {
		return
	}
	c.connection = s
	c.publishLocked()
}

func (c *Controller) Snapshot() Summary {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshotLocked()
}

func (c *Controller) snapshotLocked() Summary {
	messages := slices.Clone(c.unreadMessages)
	if messages == nil {
		messages = []storage.Notification{}
	}
	return Summary{
		UserID:         c.sess.UserID,
		UnreadCount:    c.unreadCount,
		UnreadMessages: messages,
		Connection:     c.connection,
	}
}

func (c *Controller) UnreadCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.unreadCount
}

func (c *Controller) UnreadMessages() []storage.Notification {
	return c.Snapshot().UnreadMessages
}

func (c *Controller) UserID() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.sess.UserID
}

func (c *Controller) Attached() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.attached
}

// Subscribe returns a channel that receives a Summary after every state
// change, starting with the current one. Slow readers only see the latest
// Summary. The returned func unsubscribes and closes the channel.
func (c *Controller) Subscribe() (<-chan Summary, func()) {
	ch := make(chan Summary, 1)

	c.mu.Lock()
	id := c.nextObserver
	c.nextObserver++
	c.observers[id] = ch
	ch <- c.snapshotLocked()
	c.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			c.mu.Lock()
			delete(c.observers, id)
			close(ch)
			c.mu.Unlock()
		})
	}
}

func (c *Controller) publishLocked() {
	if len(c.observers) == 0 {
		return
	}
	s := c.snapshotLocked()
	for _, ch := range c.observers {
		select {
		case ch <- s:
			continue
		default:
		}
		// drop the stale summary the reader has not picked up yet
		select {
		case <-ch:
		default:
		}
		select {
		case ch <- s:
		default:
		}
	}
}
