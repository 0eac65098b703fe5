package events

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/ethereum/go-ethereum/common"
	"github.com/redis/go-redis/v9"
)

func TestRedisEmitterPublishesJSON(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("start miniredis: %v", err)
	}
	defer mr.Close()

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()

	ctx := context.Background()
	sub := client.Subscribe(ctx, DefaultChannel)
	defer sub.Close()
	if _, err := sub.Receive(ctx); err != nil {
		t.Fatalf("subscribe: %v", err)
	}

	caller := common.HexToAddress("0x00000000000000000000000000000000000000aa")
	emitter := NewRedisEmitter(client, "")
	if err := emitter.Emit(ctx, Event{
		Kind:         KindWrapped,
		Caller:       caller,
		RequestID:    7,
		PublicAmount: 1_000,
	}); err != nil {
		t.Fatalf("emit: %v", err)
	}

	select {
	case msg := <-sub.Channel():
		var got Event
		if err := json.Unmarshal([]byte(msg.Payload), &got); err != nil {
			t.Fatalf("decode payload: %v", err)
		}
		if got.Kind != KindWrapped || got.RequestID != 7 || got.PublicAmount != 1_000 {
			t.Fatalf("unexpected event: %+v", got)
		}
		if got.Caller != caller {
			t.Fatalf("expected caller %s, got %s", caller, got.Caller)
		}
		if got.At.IsZero() {
			t.Fatal("expected emit timestamp")
		}
	case <-time.After(2 * time.Second):
		t.Fatal("no event received")
	}
}
