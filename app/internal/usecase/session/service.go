package session

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/singleflight"

	domnotification "example.com/rocketshoes/app/internal/domain/notification"
	domsession "example.com/rocketshoes/app/internal/domain/session"
	domstorage "example.com/rocketshoes/app/internal/domain/storage"
	cartuc "example.com/rocketshoes/app/internal/usecase/cart"
)

type Claims struct {
	SessionID string
}

type TokenService interface {
	GenerateToken(sessionID string) (string, error)
	ParseToken(token string) (*Claims, error)
}

// Inbox collects a shopper's toasts until the storefront reads them.
type Inbox interface {
	domnotification.Notifier
	Drain() []domnotification.Notification
}

type InboxFactory func(sessionID string) Inbox

// requestRouter delivers a toast to the request that raised it when the
// context carries a collector, and to the shopper's inbox otherwise.
type requestRouter struct {
	inbox Inbox
}

func (r requestRouter) Notify(ctx context.Context, n domnotification.Notification) {
	if c, ok := domnotification.CollectorFrom(ctx); ok {
		c.Notify(ctx, n)
		return
	}
	r.inbox.Notify(ctx, n)
}

// Shopper bundles the cart store and toast inbox of one session.
type Shopper struct {
	SessionID string
	Cart      *cartuc.Service
	Inbox     Inbox
}

// DefaultIdleTimeout is how long an unused shopper stays in memory. Its cart
// stays in storage and is rehydrated on the next request.
const DefaultIdleTimeout = 30 * time.Minute

type shopperEntry struct {
	shopper  *Shopper
	lastSeen time.Time
}

type Service struct {
	tokens      TokenService
	catalog     cartuc.Catalog
	storage     domstorage.Storage
	newInbox    InboxFactory
	idleTimeout time.Duration
	log         *logrus.Entry
	now         func() time.Time

	loads    singleflight.Group
	mu       sync.Mutex
	shoppers map[string]*shopperEntry
}

func NewService(
	tokens TokenService,
	catalog cartuc.Catalog,
	storage domstorage.Storage,
	newInbox InboxFactory,
	idleTimeout time.Duration,
	log *logrus.Entry,
) *Service {
	if idleTimeout <= 0 {
		idleTimeout = DefaultIdleTimeout
	}
	return &Service{
		tokens:      tokens,
		catalog:     catalog,
		storage:     storage,
		newInbox:    newInbox,
		idleTimeout: idleTimeout,
		log:         log,
		now:         time.Now,
		shoppers:    make(map[string]*shopperEntry),
	}
}

type StartResult struct {
	SessionID string
	Token     string
}

func (s *Service) Start(ctx context.Context) (*StartResult, error) {
	id := uuid.NewString()
	token, err := s.tokens.GenerateToken(id)
	if err != nil {
		return nil, err
	}
	s.log.WithField("session_id", id).Info("session started")
	return &StartResult{SessionID: id, Token: token}, nil
}

// Authenticate resolves a bearer token to its session id.
func (s *Service) Authenticate(token string) (string, error) {
	claims, err := s.tokens.ParseToken(token)
	if err != nil {
		return "", domsession.ErrUnauthorized
	}
	if _, err := uuid.Parse(claims.SessionID); err != nil {
		return "", domsession.ErrUnauthorized
	}
	return claims.SessionID, nil
}

// Shopper returns the shopper for sessionID, rehydrating its cart from
// storage the first time the session is seen by this process. Concurrent
// first requests for one session share a single rehydration, and other
// sessions are not held up by it.
func (s *Service) Shopper(ctx context.Context, sessionID string) (*Shopper, error) {
	if _, err := uuid.Parse(sessionID); err != nil {
		return nil, domsession.ErrInvalidSession
	}
	if sh := s.lookup(sessionID); sh != nil {
		return sh, nil
	}

	// The load outlives a cancelled first request: a cart cached empty
	// would overwrite the stored one on the next mutation.
	loadCtx := context.WithoutCancel(ctx)
	v, _, _ := s.loads.Do(sessionID, func() (any, error) {
		if sh := s.lookup(sessionID); sh != nil {
			return sh, nil
		}
		sh := s.newShopper(loadCtx, sessionID)

		s.mu.Lock()
		defer s.mu.Unlock()
		s.shoppers[sessionID] = &shopperEntry{shopper: sh, lastSeen: s.now()}
		return sh, nil
	})
	return v.(*Shopper), nil
}

func (s *Service) lookup(sessionID string) *Shopper {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.shoppers[sessionID]
	if !ok {
		return nil
	}
	e.lastSeen = s.now()
	return e.shopper
}

func (s *Service) newShopper(ctx context.Context, sessionID string) *Shopper {
	log := s.log.WithField("session_id", sessionID)
	inbox := s.newInbox(sessionID)
	return &Shopper{
		SessionID: sessionID,
		Cart: cartuc.NewService(
			ctx,
			s.catalog,
			domstorage.WithPrefix(s.storage, sessionID),
			requestRouter{inbox: inbox},
			log.WithField("component", "cart"),
		),
		Inbox: inbox,
	}
}

// End forgets the in-memory shopper. The persisted cart is kept, so a
// later request with the same token rehydrates it.
func (s *Service) End(sessionID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.shoppers, sessionID)
}

// EvictIdle drops shoppers unused for longer than the idle timeout and
// reports how many were removed.
func (s *Service) EvictIdle() int {
	cutoff := s.now().Add(-s.idleTimeout)

	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for id, e := range s.shoppers {
		if e.lastSeen.Before(cutoff) {
			delete(s.shoppers, id)
			n++
		}
	}
	return n
}

// RunEvictor calls EvictIdle every interval until ctx is done.
func (s *Service) RunEvictor(ctx context.Context, interval time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if n := s.EvictIdle(); n > 0 {
				s.log.WithFields(logrus.Fields{"evicted": n, "active": s.Active()}).Info("idle shoppers evicted")
			}
		}
	}
}

func (s *Service) Active() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.shoppers)
}
