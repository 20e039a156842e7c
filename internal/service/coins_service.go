package service

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"

	"linguameet/internal/event"
	"linguameet/internal/model"
	"linguameet/internal/repository"
	"linguameet/pkg/apierror"
)

// CoinsStore gives the service a balance read and a transactional
// scope for balance mutations.
type CoinsStore interface {
	Balance(ctx context.Context, userID string) (int64, error)
	InTransfer(ctx context.Context, fn func(tx repository.TransferTx) error) error
}

// BalanceCache is an optional read cache in front of Balance. A nil
// cache is valid and turns every lookup into a store read.
type BalanceCache interface {
	GetBalance(ctx context.Context, userID string) (int64, bool)
	SetBalance(ctx context.Context, userID string, balance int64)
	Invalidate(ctx context.Context, userIDs ...string)
}

type CoinsService struct {
	store CoinsStore
	cache BalanceCache
	bus   event.Bus
	now   func() time.Time
}

func NewCoinsService(store CoinsStore, cache BalanceCache, bus event.Bus) *CoinsService {
	return &CoinsService{
		store: store,
		cache: cache,
		bus:   bus,
		now:   time.Now,
	}
}

func (s *CoinsService) GetBalance(ctx context.Context, userID string) (int64, error) {
	if s.cache != nil {
		if balance, ok := s.cache.GetBalance(ctx, userID); ok {
			return balance, nil
		}
	}

	balance, err := s.store.Balance(ctx, userID)
	if errors.Is(err, model.ErrUserNotFound) {
		return 0, apierror.New("NOT_FOUND", "user not found", userID, http.StatusNotFound)
	}
	if err != nil {
		return 0, err
	}

	if s.cache != nil {
		s.cache.SetBalance(ctx, userID, balance)
	}
	return balance, nil
}

// Transfer moves amount from the sender to the account behind
// recipientEmail. All checks and both writes happen inside one store
// transaction; a failed check leaves both balances untouched. The
// amount is validated positive by the HTTP boundary before this is
// called.
func (s *CoinsService) Transfer(ctx context.Context, senderID string, req model.TransferRequest) (model.TransferResult, error) {
	var result model.TransferResult
	var recipientID string

	err := s.store.InTransfer(ctx, func(tx repository.TransferTx) error {
		sender, err := tx.LockUserByID(ctx, senderID)
		if errors.Is(err, model.ErrUserNotFound) {
			return apierror.New("NOT_FOUND", "sender not found", senderID, http.StatusNotFound)
		}
		if err != nil {
			return err
		}

		if sender.Balance < req.Amount {
			return apierror.New("INSUFFICIENT_BALANCE", "insufficient balance", "", http.StatusBadRequest)
		}

		recipient, err := tx.LockUserByEmail(ctx, req.RecipientEmail)
		if errors.Is(err, model.ErrUserNotFound) {
			return apierror.New("NOT_FOUND", "recipient not found", req.RecipientEmail, http.StatusNotFound)
		}
		if err != nil {
			return err
		}

		if sender.ID == recipient.ID {
			return apierror.New("SELF_TRANSFER", "cannot transfer coins to yourself", "", http.StatusBadRequest)
		}

		if err := tx.SetBalance(ctx, sender.ID, sender.Balance-req.Amount); err != nil {
			return err
		}
		if err := tx.SetBalance(ctx, recipient.ID, recipient.Balance+req.Amount); err != nil {
			return err
		}

		result = model.TransferResult{
			SenderBalance:    sender.Balance - req.Amount,
			RecipientBalance: recipient.Balance + req.Amount,
		}
		recipientID = recipient.ID
		return nil
	})
	if err != nil {
		return model.TransferResult{}, err
	}

	// Only after commit: a dropped cache entry or published event must
	// never describe a transfer that was rolled back.
	if s.cache != nil {
		s.cache.Invalidate(ctx, senderID, recipientID)
	}
	s.publish(event.TypeCoinsTransferred, senderID, map[string]any{
		"recipient_id": recipientID,
		"amount":       req.Amount,
	})

	return result, nil
}

// Credit is the privileged mint operation used for platform rewards.
// It bypasses the peer-to-peer checks but shares the same row-locked
// transaction boundary.
func (s *CoinsService) Credit(ctx context.Context, req model.CreditRequest) (model.CreditResult, error) {
	var result model.CreditResult

	err := s.store.InTransfer(ctx, func(tx repository.TransferTx) error {
		user, err := tx.LockUserByID(ctx, req.UserID)
		if errors.Is(err, model.ErrUserNotFound) {
			return apierror.New("NOT_FOUND", "user not found", req.UserID, http.StatusNotFound)
		}
		if err != nil {
			return err
		}

		if err := tx.SetBalance(ctx, user.ID, user.Balance+req.Amount); err != nil {
			return err
		}

		result = model.CreditResult{UserID: user.ID, Balance: user.Balance + req.Amount}
		return nil
	})
	if err != nil {
		return model.CreditResult{}, err
	}

	if s.cache != nil {
		s.cache.Invalidate(ctx, req.UserID)
	}
	s.publish(event.TypeCoinsCredited, req.UserID, map[string]any{
		"amount": req.Amount,
		"reason": req.Reason,
	})

	return result, nil
}

func (s *CoinsService) publish(t event.Type, actorID string, payload any) {
	if s.bus == nil {
		return
	}
	s.bus.Publish(event.Event{
		ID:        uuid.NewString(),
		Type:      t,
		Payload:   payload,
		Timestamp: s.now().UTC().Format(time.RFC3339Nano),
		ActorID:   actorID,
	})
}
