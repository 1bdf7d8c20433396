package cart

import (
	"context"
	"errors"
	"sync"

	pkgerrors "github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	domcart "example.com/rocketshoes/app/internal/domain/cart"
	domnotification "example.com/rocketshoes/app/internal/domain/notification"
	domproduct "example.com/rocketshoes/app/internal/domain/product"
	domstorage "example.com/rocketshoes/app/internal/domain/storage"
)

// Toast messages shown to the shopper.
const (
	MsgAdded        = "Adicionado"
	MsgOutOfStock   = "Quantidade fora de estoque"
	MsgRemoveFailed = "Erro na remoção"
	MsgUpdateFailed = "Erro na alteração"
)

var tracer = otel.Tracer("example.com/rocketshoes/usecase/cart")

type Catalog interface {
	domproduct.Catalog
}

type Storage interface {
	domstorage.Storage
}

type Notifier interface {
	domnotification.Notifier
}

type Service struct {
	catalog  Catalog
	storage  Storage
	notifier Notifier
	log      *logrus.Entry

	mu   sync.RWMutex
	cart domcart.Cart
}

// NewService builds a cart store and rehydrates it from storage. A missing
// or unreadable stored cart starts the store empty.
func NewService(ctx context.Context, catalog Catalog, storage Storage, notifier Notifier, log *logrus.Entry) *Service {
	s := &Service{
		catalog:  catalog,
		storage:  storage,
		notifier: notifier,
		log:      log,
		cart:     domcart.Cart{Items: []domcart.Item{}},
	}
	s.load(ctx)
	return s
}

func (s *Service) load(ctx context.Context) {
	raw, found, err := s.storage.GetItem(ctx, domcart.StorageKey)
	if err != nil {
		s.log.WithError(err).Warn("read stored cart, starting empty")
		return
	}
	if !found {
		return
	}
	c, err := domcart.Unmarshal(raw)
	if err != nil {
		s.log.WithError(err).Warn("stored cart unparsable, starting empty")
		return
	}
	s.cart = c
}

// Cart returns a copy of the current cart.
func (s *Service) Cart() domcart.Cart {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cart.Clone()
}

func (s *Service) AddProduct(ctx context.Context, productID int64) (err error) {
	ctx, span := tracer.Start(ctx, "cart.AddProduct")
	span.SetAttributes(attribute.Int64("product.id", productID))
	defer endSpan(span, &err)

	log := s.log.WithField("product_id", productID)

	existing, inCart := s.Cart().Find(productID)
	product := existing.Product
	if !inCart {
		p, err := s.catalog.GetProduct(ctx, productID)
		if err != nil {
			log.WithError(err).Error("fetch product")
			return err
		}
		product = *p
	}

	stock, err := s.catalog.GetStock(ctx, productID)
	if err != nil {
		log.WithError(err).Error("fetch stock")
		return err
	}

	// A product that is not in the cart and has no stock is skipped quietly.
	if !inCart && stock.Amount <= 0 {
		log.Info("add skipped, product unavailable")
		return domproduct.ErrOutOfStock
	}

	err = s.commit(ctx, func(c *domcart.Cart) error {
		return c.AddOne(product, stock.Amount)
	})
	switch {
	case errors.Is(err, domproduct.ErrOutOfStock):
		log.WithField("stock", stock.Amount).Info("add refused, out of stock")
		s.notifier.Notify(ctx, domnotification.Error(MsgOutOfStock))
		return err
	case err != nil:
		log.WithError(err).Error("persist cart")
		return err
	}

	s.notifier.Notify(ctx, domnotification.Success(MsgAdded))
	return nil
}

func (s *Service) RemoveProduct(ctx context.Context, productID int64) (err error) {
	ctx, span := tracer.Start(ctx, "cart.RemoveProduct")
	span.SetAttributes(attribute.Int64("product.id", productID))
	defer endSpan(span, &err)

	err = s.commit(ctx, func(c *domcart.Cart) error {
		return c.Remove(productID)
	})
	if err != nil {
		s.log.WithError(err).WithField("product_id", productID).Warn("remove product")
		s.notifier.Notify(ctx, domnotification.Error(MsgRemoveFailed))
		return err
	}
	return nil
}

type UpdateAmountInput struct {
	ProductID int64
	Amount    int64
}

func (s *Service) UpdateProductAmount(ctx context.Context, in UpdateAmountInput) (err error) {
	ctx, span := tracer.Start(ctx, "cart.UpdateProductAmount")
	span.SetAttributes(
		attribute.Int64("product.id", in.ProductID),
		attribute.Int64("cart.amount", in.Amount),
	)
	defer endSpan(span, &err)

	log := s.log.WithFields(logrus.Fields{"product_id": in.ProductID, "amount": in.Amount})

	if in.Amount < 1 {
		log.Warn("update refused, invalid amount")
		s.notifier.Notify(ctx, domnotification.Error(MsgUpdateFailed))
		return domcart.ErrInvalidAmount
	}

	stock, err := s.catalog.GetStock(ctx, in.ProductID)
	if err != nil {
		log.WithError(err).Error("fetch stock")
		s.notifier.Notify(ctx, domnotification.Error(MsgUpdateFailed))
		return err
	}

	// Over-stock requests are dropped without telling the shopper.
	if in.Amount > stock.Amount {
		log.WithField("stock", stock.Amount).Debug("update ignored, amount exceeds stock")
		return nil
	}

	err = s.commit(ctx, func(c *domcart.Cart) error {
		return c.SetAmount(in.ProductID, in.Amount)
	})
	if err != nil {
		log.WithError(err).Warn("update amount")
		s.notifier.Notify(ctx, domnotification.Error(MsgUpdateFailed))
		return err
	}
	return nil
}

// commit applies mutate to a copy of the current cart, writes the result
// to storage and only then makes it the current cart.
func (s *Service) commit(ctx context.Context, mutate func(c *domcart.Cart) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	next := s.cart.Clone()
	if err := mutate(&next); err != nil {
		return err
	}
	raw, err := next.Marshal()
	if err != nil {
		return pkgerrors.Wrap(err, "encode cart")
	}
	if err := s.storage.SetItem(ctx, domcart.StorageKey, raw); err != nil {
		return pkgerrors.Wrap(err, "store cart")
	}
	s.cart = next
	return nil
}

func endSpan(span trace.Span, err *error) {
	if *err != nil {
		span.RecordError(*err)
		span.SetStatus(codes.Error, (*err).Error())
	}
	span.End()
}
