package entropy

import (
	"context"
	"errors"
	"testing"

	"github.com/ethereum/go-ethereum/common"
)

func TestSimulatedSource_RequestAndFulfill(t *testing.T) {
	s := NewSimulatedSource(25)
	ctx := context.Background()

	fee, err := s.Fee(ctx)
	if err != nil {
		t.Fatalf("fee: %v", err)
	}
	if fee != 25 {
		t.Fatalf("expected fee 25, got %d", fee)
	}

	if _, err := s.Request(ctx, common.HexToHash("0x01"), 24); !errors.Is(err, ErrFeeTooLow) {
		t.Fatalf("expected fee too low, got %v", err)
	}

	first, err := s.Request(ctx, common.HexToHash("0x01"), 25)
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	second, err := s.Request(ctx, common.HexToHash("0x02"), 30)
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	if first != 1 || second != 2 {
		t.Fatalf("expected monotonic ids 1,2; got %d,%d", first, second)
	}

	fulfilled, err := s.IsFulfilled(ctx, first)
	if err != nil {
		t.Fatalf("is fulfilled: %v", err)
	}
	if fulfilled {
		t.Fatal("request fulfilled before Fulfill")
	}

	if err := s.Fulfill(first); err != nil {
		t.Fatalf("fulfill: %v", err)
	}
	fulfilled, err = s.IsFulfilled(ctx, first)
	if err != nil {
		t.Fatalf("is fulfilled: %v", err)
	}
	if !fulfilled {
		t.Fatal("request not fulfilled after Fulfill")
	}

	if _, err := s.IsFulfilled(ctx, 99); !errors.Is(err, ErrUnknownRequestID) {
		t.Fatalf("expected unknown request id, got %v", err)
	}
	if err := s.Fulfill(99); !errors.Is(err, ErrUnknownRequestID) {
		t.Fatalf("expected unknown request id, got %v", err)
	}
}
