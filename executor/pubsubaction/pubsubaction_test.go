package pubsubaction

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"

	"github.com/pithecene-io/tornado/types"
)

func TestNewExecutor_RequiresURL(t *testing.T) {
	if _, err := NewExecutor(Config{}); err == nil {
		t.Fatalf("expected an error for a missing URL")
	}
}

func TestExecute_PublishesPayloadToChannel(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("unexpected miniredis error: %v", err)
	}
	defer mr.Close()

	client := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	exec := newFromClient(client, "tornado:actions")

	sub := client.Subscribe(context.Background(), "tornado:actions")
	defer sub.Close()
	if _, err := sub.Receive(context.Background()); err != nil {
		t.Fatalf("unexpected subscribe error: %v", err)
	}

	action := &types.Action{ID: "notify", Payload: types.Str("hello")}
	if err := exec.Execute(context.Background(), action); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	msg, err := sub.ReceiveMessage(ctx)
	if err != nil {
		t.Fatalf("unexpected receive error: %v", err)
	}
	if msg.Payload != `"hello"` {
		t.Fatalf("unexpected published payload: %q", msg.Payload)
	}
}

func TestExecute_DefaultsChannel(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("unexpected miniredis error: %v", err)
	}
	defer mr.Close()

	client := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	exec := newFromClient(client, "")
	if exec.channel != DefaultChannel {
		t.Fatalf("expected default channel %q, got %q", DefaultChannel, exec.channel)
	}
}
