package usecase

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	domain "github.com/agrikart/storefront/internal/entity"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// ReconcileState is the client-visible verification state. loading is the
// only non-terminal state; no automatic transition leaves the other three.
type ReconcileState string

const (
	StateLoading  ReconcileState = "loading"
	StateSuccess  ReconcileState = "success"
	StateError    ReconcileState = "error"
	StateTimedOut ReconcileState = "timedout"
)

var (
	pollsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "storefront_payment_polls_total",
			Help: "Status polls issued against the commerce backend, by result",
		},
		[]string{"result"},
	)
	reconcileOutcomes = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "storefront_reconciliations_total",
			Help: "Payment reconciliation sessions reaching a terminal state",
		},
		[]string{"outcome"},
	)
)

type ReconcilerConfig struct {
	PollInterval  time.Duration
	PollTimeout   time.Duration
	RedirectDelay time.Duration
	SessionTTL    time.Duration
}

func (c *ReconcilerConfig) setDefaults() {
	if c.PollInterval <= 0 {
		c.PollInterval = 3 * time.Second
	}
	if c.PollTimeout <= 0 {
		c.PollTimeout = 60 * time.Second
	}
	if c.RedirectDelay <= 0 {
		c.RedirectDelay = 3 * time.Second
	}
	if c.SessionTTL <= 0 {
		c.SessionTTL = 10 * time.Minute
	}
}

// SessionView is a snapshot of a reconciliation session.
type SessionView struct {
	State   ReconcileState `json:"state"`
	OrderID string         `json:"orderId,omitempty"`
	Message string         `json:"message,omitempty"`
	// Location appears RedirectDelay after success; the client should
	// navigate there replacing history, so back does not land on the
	// verification screen.
	Location       string `json:"location,omitempty"`
	ReplaceHistory bool   `json:"replaceHistory,omitempty"`
}

// Reconciler resolves the outcome of online payments after the customer
// returns from the external gateway, purely by polling the backend keyed
// by mtid. One session per mtid; Start is idempotent.
type Reconciler struct {
	gw    CommerceGateway
	carts CartStore
	cache StatusCache
	cfg   ReconcilerConfig
	log   *slog.Logger

	mu       sync.Mutex
	sessions map[string]*session
	closed   bool
}

func NewReconciler(gw CommerceGateway, carts CartStore, cache StatusCache, cfg ReconcilerConfig, log *slog.Logger) *Reconciler {
	cfg.setDefaults()
	return &Reconciler{
		gw:       gw,
		carts:    carts,
		cache:    cache,
		cfg:      cfg,
		log:      log,
		sessions: map[string]*session{},
	}
}

// Start begins (or rejoins) reconciliation for mtid. An empty mtid is the
// missing-correlation-token case: immediately terminal, no network call.
func (r *Reconciler) Start(mtid, userID, auth string) SessionView {
	if mtid == "" {
		reconcileOutcomes.WithLabelValues(string(StateError)).Inc()
		return SessionView{State: StateError, Message: ErrMissingMtid.Error() + " in return url"}
	}

	r.mu.Lock()
	if s, ok := r.sessions[mtid]; ok {
		r.mu.Unlock()
		return s.view()
	}
	if r.closed {
		r.mu.Unlock()
		return SessionView{State: StateError, Message: "service shutting down"}
	}
	ctx, cancel := context.WithCancel(context.Background())
	s := &session{
		rec:    r,
		mtid:   mtid,
		userID: userID,
		auth:   auth,
		ctx:    ctx,
		cancel: cancel,
		state:  StateLoading,
		log:    r.log.With("mtid", mtid, "user_id", userID),
	}
	r.sessions[mtid] = s
	r.mu.Unlock()

	go s.run()
	return s.view()
}

// View reports the current state for mtid, if a session exists.
func (r *Reconciler) View(mtid string) (SessionView, bool) {
	r.mu.Lock()
	s, ok := r.sessions[mtid]
	r.mu.Unlock()
	if !ok {
		return SessionView{}, false
	}
	return s.view(), true
}

// Cancel tears down the session for mtid, stopping all of its timers.
func (r *Reconciler) Cancel(mtid string) {
	r.mu.Lock()
	s, ok := r.sessions[mtid]
	delete(r.sessions, mtid)
	r.mu.Unlock()
	if ok {
		s.teardown()
	}
}

// Close cancels every live session. Used on shutdown.
func (r *Reconciler) Close() {
	r.mu.Lock()
	r.closed = true
	all := make([]*session, 0, len(r.sessions))
	for _, s := range r.sessions {
		all = append(all, s)
	}
	r.sessions = map[string]*session{}
	r.mu.Unlock()
	for _, s := range all {
		s.teardown()
	}
}

func (r *Reconciler) remove(mtid string) {
	r.mu.Lock()
	s, ok := r.sessions[mtid]
	delete(r.sessions, mtid)
	r.mu.Unlock()
	if ok {
		s.teardown()
	}
}

type session struct {
	rec    *Reconciler
	mtid   string
	userID string
	auth   string
	ctx    context.Context
	cancel context.CancelFunc
	log    *slog.Logger

	mu            sync.Mutex
	state         ReconcileState
	orderID       string
	message       string
	location      string
	replace       bool
	redirectTimer *time.Timer
	expireTimer   *time.Timer
}

// run drives the poll loop. Polls execute synchronously in the loop, so at
// most one status request is outstanding; a tick that fires mid-request is
// simply dropped by the ticker. The deadline and the ticker race, and the
// first terminal transition wins.
func (s *session) run() {
	ticker := time.NewTicker(s.rec.cfg.PollInterval)
	defer ticker.Stop()
	deadline := time.NewTimer(s.rec.cfg.PollTimeout)
	defer deadline.Stop()

	if s.poll() {
		return
	}
	for {
		select {
		case <-s.ctx.Done():
			return
		case <-deadline.C:
			s.timeout()
			return
		case <-ticker.C:
			if s.poll() {
				return
			}
		}
	}
}

// poll issues one status request; the return value reports whether the
// session reached a terminal state.
func (s *session) poll() bool {
	probe, err := s.rec.gw.StatusByMtid(s.ctx, s.auth, s.mtid)
	if err != nil {
		if s.ctx.Err() != nil {
			return true
		}
		if errors.Is(err, ErrNotFound) {
			// The backend does not know this transaction; retrying
			// cannot fix that.
			pollsTotal.WithLabelValues("not_found").Inc()
			s.fail("transaction not found")
			return true
		}
		// Transient: surface the message, keep polling until the
		// deadline stops us.
		pollsTotal.WithLabelValues("error").Inc()
		s.note(err.Error())
		s.log.Warn("status poll failed", "error", err)
		return false
	}

	if s.ctx.Err() != nil {
		// Cancelled while the request was in flight; the session is
		// gone, so no terminal transition may run.
		return true
	}

	pollsTotal.WithLabelValues(string(probe.PaymentStatus)).Inc()
	switch probe.PaymentStatus {
	case domain.PaymentPaid:
		s.succeed(probe)
		return true
	case domain.PaymentFailed:
		s.fail(ErrPaymentFailed.Error())
		return true
	default:
		return false
	}
}

func (s *session) succeed(probe *PaymentProbe) {
	s.mu.Lock()
	if s.state != StateLoading {
		s.mu.Unlock()
		return
	}
	s.state = StateSuccess
	s.orderID = probe.OrderID
	s.message = ""
	s.redirectTimer = time.AfterFunc(s.rec.cfg.RedirectDelay, func() {
		s.mu.Lock()
		s.location = "/order-success/" + s.orderID
		s.replace = true
		s.mu.Unlock()
	})
	s.mu.Unlock()

	reconcileOutcomes.WithLabelValues(string(StateSuccess)).Inc()
	s.log.Info("payment confirmed", "order_id", probe.OrderID)

	// Payment confirmed: the cart contents are now an order. Clearing is
	// idempotent, so racing a rejoined session is harmless.
	ctx, cancelClear := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancelClear()
	if err := s.rec.carts.Clear(ctx, s.userID); err != nil {
		s.log.Warn("cart clear after payment failed", "error", err)
	}
	if probe.Status != "" {
		if err := s.rec.cache.SetStatus(ctx, probe.OrderID, string(probe.Status)); err != nil {
			s.log.Warn("status cache write failed", "error", err)
		}
	}
	s.expire()
	s.cancel()
}

func (s *session) fail(msg string) {
	s.mu.Lock()
	if s.state != StateLoading {
		s.mu.Unlock()
		return
	}
	s.state = StateError
	s.message = msg
	s.mu.Unlock()

	reconcileOutcomes.WithLabelValues(string(StateError)).Inc()
	s.log.Warn("payment verification failed", "reason", msg)
	s.expire()
	s.cancel()
}

func (s *session) timeout() {
	s.mu.Lock()
	if s.state != StateLoading {
		s.mu.Unlock()
		return
	}
	s.state = StateTimedOut
	s.message = "verification timed out; the order may still complete, check your orders"
	s.mu.Unlock()

	reconcileOutcomes.WithLabelValues(string(StateTimedOut)).Inc()
	s.log.Warn("payment verification timed out")
	s.expire()
	s.cancel()
}

// note records a transient error message without leaving loading.
func (s *session) note(msg string) {
	s.mu.Lock()
	if s.state == StateLoading {
		s.message = msg
	}
	s.mu.Unlock()
}

// expire schedules removal of the terminal session so late status queries
// still see the outcome for a while.
func (s *session) expire() {
	s.mu.Lock()
	if s.expireTimer == nil {
		s.expireTimer = time.AfterFunc(s.rec.cfg.SessionTTL, func() {
			s.rec.remove(s.mtid)
		})
	}
	s.mu.Unlock()
}

func (s *session) teardown() {
	s.cancel()
	s.mu.Lock()
	if s.redirectTimer != nil {
		s.redirectTimer.Stop()
	}
	if s.expireTimer != nil {
		s.expireTimer.Stop()
	}
	s.mu.Unlock()
}

func (s *session) view() SessionView {
	s.mu.Lock()
	defer s.mu.Unlock()
	return SessionView{
		State:          s.state,
		OrderID:        s.orderID,
		Message:        s.message,
		Location:       s.location,
		ReplaceHistory: s.replace,
	}
}
