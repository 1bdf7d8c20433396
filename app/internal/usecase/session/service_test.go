package session

import (
	"context"
	"errors"
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"

	domcart "example.com/rocketshoes/app/internal/domain/cart"
	domnotification "example.com/rocketshoes/app/internal/domain/notification"
	domproduct "example.com/rocketshoes/app/internal/domain/product"
	domsession "example.com/rocketshoes/app/internal/domain/session"
	domstorage "example.com/rocketshoes/app/internal/domain/storage"
)

type fakeTokens struct {
	genErr error
}

func (f *fakeTokens) GenerateToken(sessionID string) (string, error) {
	if f.genErr != nil {
		return "", f.genErr
	}
	return "token:" + sessionID, nil
}

func (f *fakeTokens) ParseToken(token string) (*Claims, error) {
	id, ok := strings.CutPrefix(token, "token:")
	if !ok {
		return nil, errors.New("bad token")
	}
	return &Claims{SessionID: id}, nil
}

type fakeCatalog struct{}

func (fakeCatalog) GetProduct(ctx context.Context, id int64) (*domproduct.Product, error) {
	return &domproduct.Product{ID: id, Title: "Tênis", Price: 100}, nil
}

func (fakeCatalog) GetStock(ctx context.Context, id int64) (*domproduct.Stock, error) {
	return &domproduct.Stock{ID: id, Amount: 10}, nil
}

type mapStorage map[string]string

func (m mapStorage) GetItem(ctx context.Context, key string) (string, bool, error) {
	v, ok := m[key]
	return v, ok, nil
}

func (m mapStorage) SetItem(ctx context.Context, key, value string) error {
	m[key] = value
	return nil
}

func (m mapStorage) RemoveItem(ctx context.Context, key string) error {
	delete(m, key)
	return nil
}

type sliceInbox struct {
	items []domnotification.Notification
}

func (s *sliceInbox) Notify(ctx context.Context, n domnotification.Notification) {
	s.items = append(s.items, n)
}

func (s *sliceInbox) Drain() []domnotification.Notification {
	out := s.items
	s.items = nil
	return out
}

// blockingStorage holds every GetItem until release is closed.
type blockingStorage struct {
	mapStorage
	entered chan struct{}
	release chan struct{}
	once    sync.Once
}

func newBlockingStorage() *blockingStorage {
	return &blockingStorage{
		mapStorage: mapStorage{},
		entered:    make(chan struct{}),
		release:    make(chan struct{}),
	}
}

func (b *blockingStorage) GetItem(ctx context.Context, key string) (string, bool, error) {
	b.once.Do(func() { close(b.entered) })
	<-b.release
	return b.mapStorage.GetItem(ctx, key)
}

func newTestService(storage domstorage.Storage) *Service {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return NewService(
		&fakeTokens{},
		fakeCatalog{},
		storage,
		func(string) Inbox { return &sliceInbox{} },
		time.Hour,
		logrus.NewEntry(l),
	)
}

func TestStart_IssuesTokenForNewSession(t *testing.T) {
	svc := newTestService(mapStorage{})

	res, err := svc.Start(context.Background())

	require.NoError(t, err)
	require.NotEmpty(t, res.SessionID)
	require.Equal(t, "token:"+res.SessionID, res.Token)

	id, err := svc.Authenticate(res.Token)
	require.NoError(t, err)
	require.Equal(t, res.SessionID, id)
}

func TestStart_TokenFailure(t *testing.T) {
	l := logrus.New()
	l.SetOutput(io.Discard)
	svc := NewService(&fakeTokens{genErr: errors.New("no key")}, fakeCatalog{}, mapStorage{}, nil, 0, logrus.NewEntry(l))

	res, err := svc.Start(context.Background())

	require.Error(t, err)
	require.Nil(t, res)
}

func TestAuthenticate_Rejects(t *testing.T) {
	svc := newTestService(mapStorage{})

	tests := []struct {
		name  string
		token string
	}{
		{name: "Unparsable token", token: "garbage"},
		{name: "Subject is not a session id", token: "token:admin"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Authenticate(tt.token)
			require.ErrorIs(t, err, domsession.ErrUnauthorized)
		})
	}
}

func TestShopper_InvalidSessionID(t *testing.T) {
	svc := newTestService(mapStorage{})

	_, err := svc.Shopper(context.Background(), "../../etc")

	require.ErrorIs(t, err, domsession.ErrInvalidSession)
}

func TestShopper_ReusedWithinProcess(t *testing.T) {
	svc := newTestService(mapStorage{})
	res, err := svc.Start(context.Background())
	require.NoError(t, err)

	first, err := svc.Shopper(context.Background(), res.SessionID)
	require.NoError(t, err)
	second, err := svc.Shopper(context.Background(), res.SessionID)
	require.NoError(t, err)

	require.Same(t, first, second)
	require.Equal(t, 1, svc.Active())
}

func TestShopper_CartsAreIsolated(t *testing.T) {
	storage := mapStorage{}
	svc := newTestService(storage)
	ctx := context.Background()

	alice, err := svc.Start(ctx)
	require.NoError(t, err)
	bob, err := svc.Start(ctx)
	require.NoError(t, err)

	aliceShopper, err := svc.Shopper(ctx, alice.SessionID)
	require.NoError(t, err)
	bobShopper, err := svc.Shopper(ctx, bob.SessionID)
	require.NoError(t, err)

	require.NoError(t, aliceShopper.Cart.AddProduct(ctx, 1))
	require.NoError(t, bobShopper.Cart.AddProduct(ctx, 2))
	require.NoError(t, bobShopper.Cart.AddProduct(ctx, 2))

	require.Len(t, aliceShopper.Cart.Cart().Items, 1)
	require.Equal(t, int64(1), aliceShopper.Cart.Cart().Items[0].ID)
	require.Equal(t, int64(2), bobShopper.Cart.Cart().Items[0].Amount)

	require.Contains(t, storage, alice.SessionID+"/"+domcart.StorageKey)
	require.Contains(t, storage, bob.SessionID+"/"+domcart.StorageKey)

	require.Len(t, aliceShopper.Inbox.Drain(), 1)
	require.Len(t, bobShopper.Inbox.Drain(), 2)
}

func TestEnd_CartRehydratesOnNextVisit(t *testing.T) {
	storage := mapStorage{}
	svc := newTestService(storage)
	ctx := context.Background()

	res, err := svc.Start(ctx)
	require.NoError(t, err)
	sh, err := svc.Shopper(ctx, res.SessionID)
	require.NoError(t, err)
	require.NoError(t, sh.Cart.AddProduct(ctx, 7))

	svc.End(res.SessionID)
	require.Equal(t, 0, svc.Active())

	again, err := svc.Shopper(ctx, res.SessionID)
	require.NoError(t, err)
	require.NotSame(t, sh, again)
	require.Equal(t, sh.Cart.Cart(), again.Cart.Cart())
}

func TestShopper_RehydrateDoesNotBlockOtherCallers(t *testing.T) {
	storage := newBlockingStorage()
	svc := newTestService(storage)
	ctx := context.Background()

	res, err := svc.Start(ctx)
	require.NoError(t, err)

	loaded := make(chan *Shopper, 2)
	for range 2 {
		go func() {
			sh, err := svc.Shopper(ctx, res.SessionID)
			if err != nil {
				sh = nil
			}
			loaded <- sh
		}()
	}
	<-storage.entered

	done := make(chan int)
	go func() { done <- svc.Active() }()
	select {
	case n := <-done:
		require.Equal(t, 0, n)
	case <-time.After(time.Second):
		t.Fatal("Active blocked behind a cart rehydrate")
	}

	close(storage.release)
	first, second := <-loaded, <-loaded
	require.NotNil(t, first)
	require.Same(t, first, second)
	require.Equal(t, 1, svc.Active())
}

func TestEvictIdle(t *testing.T) {
	storage := mapStorage{}
	svc := newTestService(storage)
	ctx := context.Background()

	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return now }

	idle, err := svc.Start(ctx)
	require.NoError(t, err)
	busy, err := svc.Start(ctx)
	require.NoError(t, err)

	idleShopper, err := svc.Shopper(ctx, idle.SessionID)
	require.NoError(t, err)
	require.NoError(t, idleShopper.Cart.AddProduct(ctx, 4))
	_, err = svc.Shopper(ctx, busy.SessionID)
	require.NoError(t, err)

	now = now.Add(40 * time.Minute)
	_, err = svc.Shopper(ctx, busy.SessionID)
	require.NoError(t, err)

	now = now.Add(30 * time.Minute)
	require.Equal(t, 1, svc.EvictIdle())
	require.Equal(t, 1, svc.Active())

	again, err := svc.Shopper(ctx, idle.SessionID)
	require.NoError(t, err)
	require.NotSame(t, idleShopper, again)
	require.Equal(t, idleShopper.Cart.Cart(), again.Cart.Cart())
}

func TestEvictIdle_ManyAbandonedSessions(t *testing.T) {
	svc := newTestService(mapStorage{})
	ctx := context.Background()

	now := time.Now()
	svc.now = func() time.Time { return now }

	for range 1000 {
		res, err := svc.Start(ctx)
		require.NoError(t, err)
		_, err = svc.Shopper(ctx, res.SessionID)
		require.NoError(t, err)
	}
	require.Equal(t, 1000, svc.Active())

	now = now.Add(2 * time.Hour)
	require.Equal(t, 1000, svc.EvictIdle())
	require.Equal(t, 0, svc.Active())
}

func TestRunEvictor(t *testing.T) {
	svc := newTestService(mapStorage{})
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	res, err := svc.Start(ctx)
	require.NoError(t, err)
	_, err = svc.Shopper(ctx, res.SessionID)
	require.NoError(t, err)

	var mu sync.Mutex
	now := time.Now()
	svc.now = func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		return now
	}
	mu.Lock()
	now = now.Add(2 * time.Hour)
	mu.Unlock()

	stopped := make(chan error, 1)
	go func() { stopped <- svc.RunEvictor(ctx, 10*time.Millisecond) }()

	require.Eventually(t, func() bool { return svc.Active() == 0 }, time.Second, 10*time.Millisecond)

	cancel()
	require.NoError(t, <-stopped)
}
