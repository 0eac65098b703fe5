package account

import (
	"context"
	"testing"

	"github.com/ethereum/go-ethereum/common"
)

const testAddr = "0x00000000000000000000000000000000000000aa"

func TestServiceRegisterAndAuthenticate(t *testing.T) {
	svc := NewService(NewMemoryRepository())
	ctx := context.Background()

	acct, err := svc.Register(ctx, Credentials{Address: testAddr, Passphrase: "correct horse"})
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if acct.ID == "" {
		t.Fatal("expected account id")
	}
	if acct.Address != common.HexToAddress(testAddr) {
		t.Fatalf("expected address %s, got %s", testAddr, acct.Address.Hex())
	}

	authed, err := svc.Authenticate(ctx, Credentials{Address: testAddr, Passphrase: "correct horse"})
	if err != nil {
		t.Fatalf("authenticate: %v", err)
	}
	if authed.ID != acct.ID {
		t.Fatalf("expected account %s, got %s", acct.ID, authed.ID)
	}

	if _, err := svc.Authenticate(ctx, Credentials{Address: testAddr, Passphrase: "wrong passphrase"}); err == nil {
		t.Fatal("expected authentication failure")
	}
}

func TestServiceRegisterValidation(t *testing.T) {
	svc := NewService(NewMemoryRepository())
	ctx := context.Background()

	if _, err := svc.Register(ctx, Credentials{Address: "not-an-address", Passphrase: "correct horse"}); err == nil {
		t.Fatal("expected invalid address error")
	}
	if _, err := svc.Register(ctx, Credentials{Address: testAddr, Passphrase: "short"}); err == nil {
		t.Fatal("expected short passphrase error")
	}

	if _, err := svc.Register(ctx, Credentials{Address: testAddr, Passphrase: "correct horse"}); err != nil {
		t.Fatalf("register: %v", err)
	}
	if _, err := svc.Register(ctx, Credentials{Address: testAddr, Passphrase: "correct horse"}); err == nil {
		t.Fatal("expected duplicate address error")
	}
}

func TestMemoryRepositoryTokenVersion(t *testing.T) {
	repo := NewMemoryRepository()
	svc := NewService(repo)
	ctx := context.Background()

	acct, err := svc.Register(ctx, Credentials{Address: testAddr, Passphrase: "correct horse"})
	if err != nil {
		t.Fatalf("register: %v", err)
	}

	if err := repo.UpdateTokenVersion(ctx, acct.ID, acct.TokenVersion+1); err != nil {
		t.Fatalf("update token version: %v", err)
	}
	updated, err := repo.FindByID(ctx, acct.ID)
	if err != nil {
		t.Fatalf("find by id: %v", err)
	}
	if updated.TokenVersion != acct.TokenVersion+1 {
		t.Fatalf("expected version %d, got %d", acct.TokenVersion+1, updated.TokenVersion)
	}
}
