package ledger

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/ethereum/go-ethereum/common"

	"github.com/veilpay/veilpay/internal/confidential"
)

var (
	addrA = common.HexToAddress("0x00000000000000000000000000000000000000aa")
	addrB = common.HexToAddress("0x00000000000000000000000000000000000000bb")
)

func keepHandle(h confidential.Handle) CombineFunc {
	return func(confidential.Handle) (confidential.Handle, error) { return h, nil }
}

func TestInMemoryLedger_PendingWrapLifecycle(t *testing.T) {
	l := NewInMemory()
	ctx := context.Background()

	if err := l.CreatePendingWrap(ctx, 1, addrA); err != nil {
		t.Fatalf("create pending wrap: %v", err)
	}
	if err := l.CreatePendingWrap(ctx, 1, addrB); !errors.Is(err, ErrDuplicateRequest) {
		t.Fatalf("expected duplicate request error, got %v", err)
	}

	pw, err := l.PendingWrap(ctx, 1)
	if err != nil {
		t.Fatalf("pending wrap: %v", err)
	}
	if pw.Requester != addrA {
		t.Fatalf("expected requester %s, got %s", addrA, pw.Requester)
	}

	count, err := l.RequestCount(ctx)
	if err != nil {
		t.Fatalf("request count: %v", err)
	}
	if count != 1 {
		t.Fatalf("expected request count 1, got %d", count)
	}
}

func TestInMemoryLedger_ApplyWrapConsumesEntry(t *testing.T) {
	l := NewInMemory()
	ctx := context.Background()
	h := confidential.HexToHandle("0x01")

	if err := l.CreatePendingWrap(ctx, 7, addrA); err != nil {
		t.Fatalf("create pending wrap: %v", err)
	}

	balance, err := l.ApplyWrap(ctx, 7, addrA, 1_000, keepHandle(h))
	if err != nil {
		t.Fatalf("apply wrap: %v", err)
	}
	if balance != 1_000 {
		t.Fatalf("expected balance 1000, got %d", balance)
	}

	acct, err := l.Account(ctx, addrA)
	if err != nil {
		t.Fatalf("account: %v", err)
	}
	if acct.Confidential != h {
		t.Fatalf("expected handle %s, got %s", h.Hex(), acct.Confidential.Hex())
	}

	// Entry consumed: replay is indistinguishable from an unknown request.
	if _, err := l.ApplyWrap(ctx, 7, addrA, 1_000, keepHandle(h)); !errors.Is(err, ErrUnknownRequest) {
		t.Fatalf("expected unknown request on replay, got %v", err)
	}
	if _, err := l.PendingWrap(ctx, 7); !errors.Is(err, ErrUnknownRequest) {
		t.Fatalf("expected unknown request after consumption, got %v", err)
	}
}

func TestInMemoryLedger_ApplyWrapForeignCaller(t *testing.T) {
	l := NewInMemory()
	ctx := context.Background()

	if err := l.CreatePendingWrap(ctx, 3, addrA); err != nil {
		t.Fatalf("create pending wrap: %v", err)
	}

	if _, err := l.ApplyWrap(ctx, 3, addrB, 1_000, keepHandle(confidential.Handle{})); !errors.Is(err, ErrUnknownRequest) {
		t.Fatalf("expected unknown request for foreign caller, got %v", err)
	}

	// The entry survives a foreign attempt and stays usable by its owner.
	if _, err := l.ApplyWrap(ctx, 3, addrA, 1_000, keepHandle(confidential.Handle{})); err != nil {
		t.Fatalf("owner apply wrap after foreign attempt: %v", err)
	}
}

func TestInMemoryLedger_ApplyWrapCombineFailureMutatesNothing(t *testing.T) {
	l := NewInMemory()
	ctx := context.Background()

	if err := l.CreatePendingWrap(ctx, 5, addrA); err != nil {
		t.Fatalf("create pending wrap: %v", err)
	}

	combineErr := errors.New("engine rejected operands")
	_, err := l.ApplyWrap(ctx, 5, addrA, 1_000, func(confidential.Handle) (confidential.Handle, error) {
		return confidential.Handle{}, combineErr
	})
	if !errors.Is(err, combineErr) {
		t.Fatalf("expected combine error, got %v", err)
	}

	acct, _ := l.Account(ctx, addrA)
	if acct.PublicBalance != 0 {
		t.Fatalf("balance mutated on failed combine: %d", acct.PublicBalance)
	}
	if _, err := l.PendingWrap(ctx, 5); err != nil {
		t.Fatalf("pending entry consumed on failed combine: %v", err)
	}
}

func TestInMemoryLedger_ApplyUnwrap(t *testing.T) {
	l := NewInMemory()
	ctx := context.Background()
	SeedPublicBalance(l, addrA, 1_000)

	balance, err := l.ApplyUnwrap(ctx, addrA, 400, keepHandle(confidential.HexToHandle("0x02")))
	if err != nil {
		t.Fatalf("apply unwrap: %v", err)
	}
	if balance != 600 {
		t.Fatalf("expected balance 600, got %d", balance)
	}

	if _, err := l.ApplyUnwrap(ctx, addrA, 601, keepHandle(confidential.Handle{})); !errors.Is(err, ErrInsufficientBalance) {
		t.Fatalf("expected insufficient balance, got %v", err)
	}

	acct, _ := l.Account(ctx, addrA)
	if acct.PublicBalance != 600 {
		t.Fatalf("failed unwrap mutated balance: %d", acct.PublicBalance)
	}

	if _, err := l.ApplyUnwrap(ctx, addrB, 1, keepHandle(confidential.Handle{})); !errors.Is(err, ErrInsufficientBalance) {
		t.Fatalf("expected insufficient balance for unknown account, got %v", err)
	}
}

func TestInMemoryLedger_ConcurrentReplayConsumesOnce(t *testing.T) {
	l := NewInMemory()
	ctx := context.Background()

	if err := l.CreatePendingWrap(ctx, 9, addrA); err != nil {
		t.Fatalf("create pending wrap: %v", err)
	}

	const workers = 10
	var wg sync.WaitGroup
	var mu sync.Mutex
	successes := 0

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := l.ApplyWrap(ctx, 9, addrA, 1_000, keepHandle(confidential.Handle{})); err == nil {
				mu.Lock()
				successes++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	if successes != 1 {
		t.Fatalf("expected exactly one successful consumption, got %d", successes)
	}

	acct, _ := l.Account(ctx, addrA)
	if acct.PublicBalance != 1_000 {
		t.Fatalf("expected balance 1000 after single consumption, got %d", acct.PublicBalance)
	}
}
