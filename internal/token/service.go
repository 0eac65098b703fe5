package token

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ethereum/go-ethereum/common"

	"github.com/veilpay/veilpay/internal/confidential"
	"github.com/veilpay/veilpay/internal/entropy"
	"github.com/veilpay/veilpay/internal/events"
	"github.com/veilpay/veilpay/internal/ledger"
	"github.com/veilpay/veilpay/internal/metrics"
)

var (
	// ErrInvalidOracleAddress occurs when the service is constructed without
	// an entropy source address.
	ErrInvalidOracleAddress = errors.New("invalid entropy oracle address")

	// ErrInsufficientFee occurs when a wrap request carries less than the fee
	// currently quoted by the entropy source.
	ErrInsufficientFee = errors.New("insufficient entropy fee")

	// ErrEntropyNotReady occurs when a wrap completion is attempted before
	// the entropy source reports fulfillment for the request.
	ErrEntropyNotReady = errors.New("entropy not yet fulfilled")

	// ErrInvalidAmount occurs when an unwrap carries a non-positive public
	// amount.
	ErrInvalidAmount = errors.New("amount must be positive")
)

// DefaultMintAmount is the fixed public amount minted per completed wrap when
// no mint strategy is configured. A placeholder rate, not a conversion.
const DefaultMintAmount = int64(1000)

// MintStrategy computes the public amount minted for a completed wrap. The
// wrapped value is only available as an opaque handle, so strategies cannot
// derive the amount from the encrypted quantity itself.
type MintStrategy func(ctx context.Context, requestID uint64, wrapped confidential.Handle) (int64, error)

// FixedMint returns a strategy minting the same amount for every wrap.
func FixedMint(amount int64) MintStrategy {
	return func(context.Context, uint64, confidential.Handle) (int64, error) {
		return amount, nil
	}
}

// Params aggregates everything needed to build the wrap coordinator.
type Params struct {
	Name    string
	Symbol  string
	Oracle  common.Address
	Ledger  ledger.Ledger
	Engine  confidential.Engine
	Source  entropy.Source
	Emitter events.Emitter
	Metrics *metrics.Metrics
	Mint    MintStrategy
}

// Service is the wrap coordinator: it issues correlation identifiers for
// entropy-backed wraps, enforces single-use consumption of fulfilled
// requests, and applies the wrap/unwrap balance transitions.
type Service struct {
	name    string
	symbol  string
	oracle  common.Address
	ledger  ledger.Ledger
	engine  confidential.Engine
	source  entropy.Source
	emitter events.Emitter
	metrics *metrics.Metrics
	mint    MintStrategy
}

// New validates the parameters and builds the coordinator.
func New(p Params) (*Service, error) {
	if p.Oracle == (common.Address{}) {
		return nil, ErrInvalidOracleAddress
	}
	if p.Ledger == nil {
		return nil, fmt.Errorf("ledger is required")
	}
	if p.Engine == nil {
		return nil, fmt.Errorf("confidential engine is required")
	}
	if p.Source == nil {
		return nil, fmt.Errorf("entropy source is required")
	}
	if p.Mint == nil {
		p.Mint = FixedMint(DefaultMintAmount)
	}
	return &Service{
		name:    p.Name,
		symbol:  p.Symbol,
		oracle:  p.Oracle,
		ledger:  p.Ledger,
		engine:  p.Engine,
		source:  p.Source,
		emitter: p.Emitter,
		metrics: p.Metrics,
		mint:    p.Mint,
	}, nil
}

// Name returns the display name supplied at construction.
func (s *Service) Name() string { return s.name }

// Symbol returns the symbol supplied at construction.
func (s *Service) Symbol() string { return s.symbol }

// Oracle returns the entropy source address supplied at construction.
func (s *Service) Oracle() common.Address { return s.oracle }

// RequestWrap pays the entropy source for a fresh correlation identifier and
// records the pending request for the caller. The fee check precedes any
// side effect: underpayment leaves no pending entry behind.
func (s *Service) RequestWrap(ctx context.Context, caller common.Address, tag common.Hash, paidFee int64) (uint64, error) {
	fee, err := s.source.Fee(ctx)
	if err != nil {
		return 0, fmt.Errorf("quote entropy fee: %w", err)
	}
	if paidFee < fee {
		s.fail("request_wrap")
		return 0, ErrInsufficientFee
	}

	requestID, err := s.source.Request(ctx, tag, paidFee)
	if err != nil {
		s.fail("request_wrap")
		return 0, fmt.Errorf("request entropy: %w", err)
	}

	if err := s.ledger.EnsureAccount(ctx, caller); err != nil {
		return 0, err
	}
	if err := s.ledger.CreatePendingWrap(ctx, requestID, caller); err != nil {
		return 0, err
	}

	s.count(func(m *metrics.Metrics) { m.WrapRequests.Inc() })
	s.emit(ctx, events.Event{
		Kind:      events.KindWrapRequested,
		Caller:    caller,
		RequestID: requestID,
	})
	return requestID, nil
}

// WrapResult captures the outcome of a completed wrap.
type WrapResult struct {
	RequestID     uint64
	Minted        int64
	PublicBalance int64
	Handle        confidential.Handle
}

// CompleteWrap consumes a fulfilled pending request owned by the caller:
// it imports the encrypted amount under proof, folds it into the caller's
// confidential balance, and mints the public amount. The pending entry is
// deleted in the same ledger transition as the balance updates, so replaying
// the identifier fails with ledger.ErrUnknownRequest.
func (s *Service) CompleteWrap(ctx context.Context, caller common.Address, requestID uint64, ciphertext, proof []byte) (WrapResult, error) {
	fulfilled, err := s.source.IsFulfilled(ctx, requestID)
	if err != nil && !errors.Is(err, entropy.ErrUnknownRequestID) {
		return WrapResult{}, fmt.Errorf("check entropy fulfillment: %w", err)
	}
	if !fulfilled {
		s.fail("complete_wrap")
		return WrapResult{}, ErrEntropyNotReady
	}

	pw, err := s.ledger.PendingWrap(ctx, requestID)
	if err != nil {
		s.fail("complete_wrap")
		return WrapResult{}, err
	}
	if pw.Requester != caller {
		s.fail("complete_wrap")
		return WrapResult{}, ledger.ErrUnknownRequest
	}

	imported, err := s.importValue(ctx, caller, ciphertext, proof)
	if err != nil {
		s.fail("complete_wrap")
		return WrapResult{}, err
	}

	minted, err := s.mint(ctx, requestID, imported)
	if err != nil {
		s.fail("complete_wrap")
		return WrapResult{}, fmt.Errorf("compute mint amount: %w", err)
	}

	balance, err := s.ledger.ApplyWrap(ctx, requestID, caller, minted, s.combineWith(ctx, imported))
	if err != nil {
		s.fail("complete_wrap")
		return WrapResult{}, err
	}

	s.count(func(m *metrics.Metrics) { m.WrapsCompleted.Inc() })
	s.emit(ctx, events.Event{
		Kind:         events.KindWrapped,
		Caller:       caller,
		RequestID:    requestID,
		PublicAmount: minted,
		Handle:       imported.Hex(),
	})
	return WrapResult{RequestID: requestID, Minted: minted, PublicBalance: balance, Handle: imported}, nil
}

// UnwrapResult captures the outcome of an unwrap.
type UnwrapResult struct {
	PublicAmount  int64
	PublicBalance int64
	Handle        confidential.Handle
}

// Unwrap debits the caller's public balance and folds the encrypted amount
// into the confidential balance. No correlation step is required; this is a
// direct synchronous transition.
func (s *Service) Unwrap(ctx context.Context, caller common.Address, publicAmount int64, ciphertext, proof []byte) (UnwrapResult, error) {
	if publicAmount <= 0 {
		return UnwrapResult{}, ErrInvalidAmount
	}

	// The balance precondition is checked before the proof, so an underfunded
	// caller never registers a value in the engine. ApplyUnwrap rechecks
	// atomically under its own lock.
	acct, err := s.ledger.Account(ctx, caller)
	if err != nil {
		return UnwrapResult{}, err
	}
	if acct.PublicBalance < publicAmount {
		s.fail("unwrap")
		return UnwrapResult{}, ledger.ErrInsufficientBalance
	}

	imported, err := s.importValue(ctx, caller, ciphertext, proof)
	if err != nil {
		s.fail("unwrap")
		return UnwrapResult{}, err
	}

	balance, err := s.ledger.ApplyUnwrap(ctx, caller, publicAmount, s.combineWith(ctx, imported))
	if err != nil {
		s.fail("unwrap")
		return UnwrapResult{}, err
	}

	s.count(func(m *metrics.Metrics) { m.Unwraps.Inc() })
	s.emit(ctx, events.Event{
		Kind:         events.KindUnwrapped,
		Caller:       caller,
		PublicAmount: publicAmount,
		Handle:       imported.Hex(),
	})
	return UnwrapResult{PublicAmount: publicAmount, PublicBalance: balance, Handle: imported}, nil
}

// AccountBalance returns the caller's dual balance record.
func (s *Service) AccountBalance(ctx context.Context, addr common.Address) (ledger.Account, error) {
	return s.ledger.Account(ctx, addr)
}

// RequestCount returns the informational count of wrap requests ever made.
func (s *Service) RequestCount(ctx context.Context) (uint64, error) {
	return s.ledger.RequestCount(ctx)
}

// PendingRequest looks up a pending wrap with its current fulfillment status.
func (s *Service) PendingRequest(ctx context.Context, requestID uint64) (ledger.PendingWrap, bool, error) {
	pw, err := s.ledger.PendingWrap(ctx, requestID)
	if err != nil {
		return ledger.PendingWrap{}, false, err
	}
	fulfilled, err := s.source.IsFulfilled(ctx, requestID)
	if err != nil && !errors.Is(err, entropy.ErrUnknownRequestID) {
		return ledger.PendingWrap{}, false, err
	}
	return pw, fulfilled, nil
}

// importValue verifies the proof, registers the value, and grants this
// service access so the value can be combined with stored balances.
func (s *Service) importValue(ctx context.Context, caller common.Address, ciphertext, proof []byte) (confidential.Handle, error) {
	imported, err := s.engine.ImportExternal(ctx, ciphertext, proof, caller)
	if err != nil {
		return confidential.Handle{}, err
	}
	if err := s.engine.Allow(ctx, imported); err != nil {
		return confidential.Handle{}, err
	}
	return imported, nil
}

// combineWith folds the imported value into a stored confidential balance.
// Accounts that never held a confidential balance take the imported value
// directly; otherwise the engine adds the two ciphertexts.
func (s *Service) combineWith(ctx context.Context, imported confidential.Handle) ledger.CombineFunc {
	return func(current confidential.Handle) (confidential.Handle, error) {
		if current.IsZero() {
			return imported, nil
		}
		return s.engine.Add(ctx, current, imported)
	}
}

func (s *Service) emit(ctx context.Context, event events.Event) {
	if s.emitter == nil {
		return
	}
	event.At = time.Now().UTC()
	_ = s.emitter.Emit(ctx, event)
}

func (s *Service) count(inc func(*metrics.Metrics)) {
	if s.metrics != nil {
		inc(s.metrics)
	}
}

func (s *Service) fail(op string) {
	if s.metrics != nil {
		s.metrics.Failures.WithLabelValues(op).Inc()
	}
}
