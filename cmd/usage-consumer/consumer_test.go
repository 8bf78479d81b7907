package main

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"transfer-pricing/internal/repositories/interfaces"
	"transfer-pricing/pkg/events"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// fakeIncrementer fails the first `fail` calls with err.
type fakeIncrementer struct {
	fail  int
	err   error
	calls int
	last  primitive.ObjectID
}

func (f *fakeIncrementer) IncrementUsage(_ context.Context, id primitive.ObjectID) error {
	f.calls++
	f.last = id
	if f.calls <= f.fail {
		return f.err
	}
	return nil
}

func eventFor(t *testing.T, id primitive.ObjectID) []byte {
	t.Helper()
	b, err := json.Marshal(events.NewRuleApplied(id, time.Now()))
	if err != nil {
		t.Fatal(err)
	}
	return b
}

func TestHandleMessage_SucceedsAfterRetries(t *testing.T) {
	id := primitive.NewObjectID()
	f := &fakeIncrementer{fail: 2, err: errors.New("not primary")}

	if err := handleMessage(context.Background(), f, eventFor(t, id), 3, time.Millisecond); err != nil {
		t.Fatalf("expected success, got err=%v", err)
	}
	if f.calls != 3 || f.last != id {
		t.Fatalf("calls=%d last=%s", f.calls, f.last.Hex())
	}
}

func TestHandleMessage_FailsWhenExhausted(t *testing.T) {
	f := &fakeIncrementer{fail: 5, err: errors.New("not primary")}
	if err := handleMessage(context.Background(), f, eventFor(t, primitive.NewObjectID()), 3, time.Millisecond); err == nil {
		t.Fatal("expected error after retries")
	}
	if f.calls != 3 {
		t.Errorf("calls = %d, want 3", f.calls)
	}
}

func TestHandleMessage_DeletedRuleIsNotRetried(t *testing.T) {
	f := &fakeIncrementer{fail: 5, err: interfaces.ErrNotFound}
	err := handleMessage(context.Background(), f, eventFor(t, primitive.NewObjectID()), 3, time.Millisecond)
	if !errors.Is(err, interfaces.ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
	if f.calls != 1 {
		t.Errorf("calls = %d, want 1", f.calls)
	}
}

func TestHandleMessage_Poison(t *testing.T) {
	f := &fakeIncrementer{}
	err := handleMessage(context.Background(), f, []byte("garbage"), 3, time.Millisecond)
	if !errors.Is(err, events.ErrPoisonMessage) {
		t.Fatalf("err = %v, want ErrPoisonMessage", err)
	}
	if f.calls != 0 {
		t.Errorf("store touched for a poison message")
	}
}

func TestSleepCtx_ReturnsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	start := time.Now()
	if sleepCtx(ctx, 30*time.Second) {
		t.Fatal("sleepCtx reported a full wait on a cancelled context")
	}
	if elapsed := time.Since(start); elapsed > time.Second {
		t.Errorf("sleepCtx blocked for %s after cancel", elapsed)
	}
	if !sleepCtx(context.Background(), time.Millisecond) {
		t.Error("sleepCtx should report true once the wait elapses")
	}
}
