package coalesce

import (
	"context"
	"fmt"
	"regexp"
	"slices"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
	"github.com/puzpuzpuz/xsync/v4"

	"github.com/arloliu/coalesce/internal/clock"
	"github.com/arloliu/coalesce/internal/events"
	"github.com/arloliu/coalesce/internal/logging"
	"github.com/arloliu/coalesce/internal/metrics"
	"github.com/arloliu/coalesce/signature"
)

// Manager deduplicates polling subscriptions to remote operations.
//
// Manager is the main entry point of the coalesce library. It handles:
//   - Signature derivation from an operation and its arguments
//   - A registry of live Channels keyed by signature
//   - Eviction of Channels once their last Subscription leaves
//   - Lifecycle notifications to the configured Sink
//
// Operation failures are never returned by the Manager: they are captured into
// channel state and observed through Subscription.Errored and Subscription.Err.
// Only misuse (nil operation, negative interval, unencodable arguments, use after
// Close) fails synchronously.
//
// Thread Safety:
//   - All public methods are safe for concurrent use
//   - Concurrent Subscribe calls with the same signature share one Channel
//
// Lifecycle:
//   - Create with NewManager()
//   - Subscribe and Unsubscribe freely
//   - Call Close() to tear down every Channel and stop in-flight operations
type Manager struct {
	cfg Config
	id  string

	// Optional dependencies
	logger     Logger
	metrics    MetricsCollector
	dispatcher *events.Dispatcher
	generator  *signature.Generator
	clock      clock.Clock

	channels      *xsync.Map[string, *Channel]
	subscriptions atomic.Int64

	// Lifecycle management
	ctx    context.Context
	cancel context.CancelFunc
	mu     sync.RWMutex
	closed bool
}

// NewManager creates a new Manager instance with the provided configuration.
//
// Returns a concrete *Manager struct following the "accept interfaces, return structs" principle.
// Consumers can define their own interfaces for testing if needed.
//
// Parameters:
//   - cfg: Configuration; missing values are filled with defaults (modified in place)
//   - opts: Optional configuration (logger, metrics, sink, signature generator)
//
// Returns:
//   - *Manager: Initialized manager instance
//   - error: ErrInvalidConfig if configuration is nil or invalid
//
// Example:
//
//	cfg := coalesce.DefaultConfig()
//	mgr, err := coalesce.NewManager(&cfg, coalesce.WithLogger(logger))
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer mgr.Close()
func NewManager(cfg *Config, opts ...Option) (*Manager, error) {
	if cfg == nil {
		return nil, ErrInvalidConfig
	}

	// Fill in missing configuration values with defaults
	SetDefaults(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}

	// Apply options
	options := &managerOptions{}
	for _, opt := range opts {
		opt(options)
	}

	// Use nop implementations for nil dependencies
	if options.logger == nil {
		options.logger = logging.NewNop()
	}
	if options.metrics == nil {
		options.metrics = metrics.NewNop()
	}
	if options.clock == nil {
		options.clock = clock.New()
	}

	cfg.ValidateWithWarnings(options.logger)

	gen := options.generator
	if gen == nil {
		encoding, err := signature.ParseEncoding(cfg.Signature.Encoding)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrInvalidConfig, err)
		}

		gen, err = signature.NewGenerator(
			signature.WithRegistry(options.registry),
			signature.WithEncoding(encoding),
			signature.WithCompact(cfg.Signature.Compact),
		)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrInvalidConfig, err)
		}
	}

	ctx, cancel := context.WithCancel(context.Background())

	m := &Manager{
		cfg:        *cfg,
		id:         uuid.NewString(),
		logger:     options.logger,
		metrics:    options.metrics,
		dispatcher: events.NewDispatcher(options.sink, cfg.EventBufferSize, options.logger, options.metrics),
		generator:  gen,
		clock:      options.clock,
		channels:   xsync.NewMap[string, *Channel](),
		ctx:        ctx,
		cancel:     cancel,
	}

	m.logger.Debug("manager created", "manager", m.id)

	return m, nil
}

// ID returns the unique id of this manager instance.
func (m *Manager) ID() string {
	return m.id
}

// Subscribe attaches a consumer to the channel for op called with args.
//
// Calls with the same operation and structurally equal arguments share a
// single Channel, and therefore a single execution, cached response and refresh
// timer. The first subscription of a channel triggers an execution; later ones
// see the cached state immediately.
//
// Parameters:
//   - op: Operation to execute (identity matters, reuse the same pointer)
//   - args: Positional arguments; Ref values are resolved once, here, and the channel
//     always executes with those values (use Resubscribe to follow a changed Ref)
//   - opts: Per-subscription options (refresh interval)
//
// Returns:
//   - *Subscription: Handle to read state from and Unsubscribe
//   - error: ErrNilOperation, ErrInvalidInterval, ErrUnencodableArgs or ErrManagerClosed
//
// Example:
//
//	sub, err := mgr.Subscribe(fetchUser, []any{42}, coalesce.Options{Interval: 5 * time.Second})
//	if err != nil {
//	    return err
//	}
//	defer sub.Unsubscribe()
func (m *Manager) Subscribe(op *Operation, args []any, opts Options) (*Subscription, error) {
	if op == nil {
		return nil, ErrNilOperation
	}
	if opts.Interval < 0 {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInterval, opts.Interval)
	}

	// Refs are read once: the channel runs with exactly the values its signature encodes.
	args = signature.ResolveArgs(args)

	sig, err := m.generator.Sign(op, args)
	if err != nil {
		return nil, fmt.Errorf("failed to sign %q: %w", op.name, err)
	}

	opts = m.normalize(op, opts)

	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.closed {
		return nil, ErrManagerClosed
	}

	for {
		ch := m.getOrCreateChannel(sig, op, args)
		if sub, ok := ch.subscribe(opts); ok {
			return sub, nil
		}
		// The channel lost its last subscription between lookup and attach.
	}
}

// Resubscribe moves a consumer to new arguments for the same operation.
//
// The new subscription is created before the old one is released, so moving
// to the same signature keeps the channel alive. Until the new channel has a
// response of its own, the new subscription keeps reporting the previous
// response, and Executed stays true if the previous subscription had executed.
//
// Parameters:
//   - sub: Current subscription (unsubscribed on success)
//   - args: New arguments
//
// Returns:
//   - *Subscription: Subscription on the channel for the new arguments
//   - error: ErrNilSubscription, ErrManagerClosed or a Subscribe error
func (m *Manager) Resubscribe(sub *Subscription, args []any) (*Subscription, error) {
	if sub == nil {
		return nil, ErrNilSubscription
	}

	ch := sub.channel()
	if ch == nil {
		return nil, fmt.Errorf("%w: subscription %d is detached", ErrNilSubscription, sub.id)
	}

	next, err := m.Subscribe(ch.op, args, sub.opts)
	if err != nil {
		return nil, err
	}

	sub.mu.RLock()
	prev := carried{
		response:    sub.state.response,
		hasResponse: sub.state.hasResponse,
		executed:    sub.state.executed,
	}
	sub.mu.RUnlock()

	next.inherit(prev)
	sub.Unsubscribe()

	return next, nil
}

// Len returns the number of live channels.
func (m *Manager) Len() int {
	return m.channels.Size()
}

// Channel returns a snapshot of the channel with the given signature.
func (m *Manager) Channel(signature string) (ChannelSnapshot, bool) {
	ch, ok := m.channels.Load(signature)
	if !ok {
		return ChannelSnapshot{}, false
	}

	return ch.Snapshot(), true
}

// Snapshot returns the state of every live channel, sorted by signature.
//
// Parameters:
//   - filter: Case-insensitive regular expression matched against the operation
//     name and the signature; empty matches everything
//
// Returns:
//   - []ChannelSnapshot: Matching channels
//   - error: Invalid filter expression
func (m *Manager) Snapshot(filter string) ([]ChannelSnapshot, error) {
	var re *regexp.Regexp
	if filter != "" {
		var err error
		re, err = regexp.Compile("(?i)" + filter)
		if err != nil {
			return nil, fmt.Errorf("invalid filter: %w", err)
		}
	}

	snaps := make([]ChannelSnapshot, 0, m.channels.Size())
	m.channels.Range(func(sig string, ch *Channel) bool {
		if re == nil || re.MatchString(ch.op.name) || re.MatchString(sig) {
			snaps = append(snaps, ch.Snapshot())
		}
		return true
	})

	slices.SortFunc(snaps, func(a, b ChannelSnapshot) int {
		return strings.Compare(a.Signature, b.Signature)
	})

	return snaps, nil
}

// Close tears down every channel and cancels in-flight operation contexts.
//
// Subscriptions are detached and their Changed channels closed. Results that
// arrive afterwards are discarded. Subscribe returns ErrManagerClosed once Close
// has been called. Calling Close more than once is a no-op.
//
// Returns:
//   - error: Always nil; present to satisfy io.Closer
func (m *Manager) Close() error {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return nil
	}
	m.closed = true
	m.mu.Unlock()

	var chans []*Channel
	m.channels.Range(func(_ string, ch *Channel) bool {
		chans = append(chans, ch)
		return true
	})

	for _, ch := range chans {
		ch.teardown()
		m.deleteChannel(ch)
	}

	m.cancel()
	m.dispatcher.Close()

	m.logger.Debug("manager closed", "manager", m.id)

	return nil
}

// normalize raises intervals below the configured floor and folds Never into 0.
func (m *Manager) normalize(op *Operation, opts Options) Options {
	if !opts.refreshes() {
		opts.Interval = 0
		return opts
	}

	if opts.Interval < m.cfg.MinInterval {
		m.logger.Warn("refresh interval below minimum, raising it",
			"operation", op.name,
			"requested", opts.Interval,
			"minInterval", m.cfg.MinInterval,
		)
		opts.Interval = m.cfg.MinInterval
	}

	return opts
}

// getOrCreateChannel returns the live channel for sig, creating it atomically if
// absent or if the registered one is already closed.
func (m *Manager) getOrCreateChannel(sig string, op *Operation, args []any) *Channel {
	var (
		created  bool
		replaced *Channel
	)

	ch, _ := m.channels.Compute(sig, func(old *Channel, loaded bool) (*Channel, xsync.ComputeOp) {
		if loaded && !old.isClosed() {
			return old, xsync.CancelOp
		}

		created = true
		if loaded {
			replaced = old
		}

		return newChannel(m, sig, op, args), xsync.UpdateOp
	})

	// The closed channel's own deleteChannel no longer matches; report it here.
	if replaced != nil {
		m.dispatcher.ChannelRemoved(replaced.info)
	}

	if created {
		m.logger.Debug("channel created", "signature", sig, "operation", op.name)
		m.dispatcher.ChannelCreated(ch.info)
		m.metrics.SetActiveChannels(m.channels.Size())
	}

	return ch
}

// deleteChannel removes ch from the registry unless it was already replaced.
func (m *Manager) deleteChannel(ch *Channel) {
	var deleted bool

	m.channels.Compute(ch.signature, func(old *Channel, loaded bool) (*Channel, xsync.ComputeOp) {
		if loaded && old == ch {
			deleted = true
			return nil, xsync.DeleteOp
		}

		return old, xsync.CancelOp
	})

	if !deleted {
		return
	}

	m.logger.Debug("channel removed", "signature", ch.signature, "operation", ch.op.name)
	m.dispatcher.ChannelRemoved(ch.info)
	m.metrics.SetActiveChannels(m.channels.Size())
}

// operationContext derives the context for one operation call.
func (m *Manager) operationContext() (context.Context, context.CancelFunc) {
	if m.cfg.OperationTimeout > 0 {
		return context.WithTimeout(m.ctx, m.cfg.OperationTimeout)
	}

	return context.WithCancel(m.ctx)
}

func (m *Manager) subscriptionAdded(info ChannelInfo, id uint64) {
	m.dispatcher.SubscriptionCreated(info, id)
	m.metrics.SetActiveSubscriptions(int(m.subscriptions.Add(1)))
}

func (m *Manager) subscriptionRemoved(info ChannelInfo, id uint64) {
	m.dispatcher.SubscriptionRemoved(info, id)
	m.metrics.SetActiveSubscriptions(int(m.subscriptions.Add(-1)))
}
