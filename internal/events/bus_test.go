package events

import (
	"testing"
	"time"
)

func TestEventBus_PublishDeliversToMatchingSubscriber(t *testing.T) {
	bus := New(4)
	ch := bus.Subscribe(TypeTaskCreated)

	bus.Publish(NewTaskCreatedEvent("task-1", "do a thing", "implementation"))

	select {
	case ev := <-ch:
		if ev.EventType() != TypeTaskCreated {
			t.Fatalf("expected %s, got %s", TypeTaskCreated, ev.EventType())
		}
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for event")
	}
}

func TestEventBus_SubscribeAllTypesReceivesEverything(t *testing.T) {
	bus := New(4)
	ch := bus.Subscribe()

	bus.Publish(NewTaskCreatedEvent("task-1", "title", "bugfix"))
	bus.Publish(NewWorkflowStartedEvent("task-1", "solo"))

	for i := 0; i < 2; i++ {
		select {
		case <-ch:
		case <-time.After(time.Second):
			t.Fatal("timed out waiting for event")
		}
	}
}

func TestEventBus_TypeFilterExcludesOthers(t *testing.T) {
	bus := New(4)
	ch := bus.Subscribe(TypeWorkflowFailed)

	bus.Publish(NewTaskCreatedEvent("task-1", "title", "bugfix"))

	select {
	case ev := <-ch:
		t.Fatalf("expected no delivery for a filtered-out type, got %v", ev)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestEventBus_RingBufferDropsOldestOnFullBuffer(t *testing.T) {
	bus := New(1)
	ch := bus.Subscribe(TypeTaskUpdated)

	bus.Publish(NewTaskUpdatedEvent("task-1", "status"))
	bus.Publish(NewTaskUpdatedEvent("task-1", "metadata"))

	ev := <-ch
	updated, ok := ev.(TaskUpdatedEvent)
	if !ok {
		t.Fatalf("expected a TaskUpdatedEvent, got %T", ev)
	}
	if len(updated.Fields) != 1 || updated.Fields[0] != "metadata" {
		t.Fatalf("expected the newest event to survive the ring buffer, got %v", updated.Fields)
	}
	if bus.DroppedCount() != 1 {
		t.Fatalf("expected exactly one dropped event, got %d", bus.DroppedCount())
	}
}

func TestEventBus_PublishPriorityBlocksUntilDelivered(t *testing.T) {
	bus := New(4)
	ch := bus.SubscribePriority(TypeWorkflowFailed)

	done := make(chan struct{})
	go func() {
		bus.PublishPriority(NewWorkflowFailedEvent("task-1", "execute", nil))
		close(done)
	}()

	select {
	case <-ch:
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for priority delivery")
	}
	<-done
}

func TestEventBus_Unsubscribe(t *testing.T) {
	bus := New(4)
	ch := bus.Subscribe(TypeTaskCreated)
	bus.Unsubscribe(ch)

	if _, ok := <-ch; ok {
		t.Fatal("expected the channel to be closed after unsubscribe")
	}
}

func TestEventBus_CloseStopsDeliveryAndClosesChannels(t *testing.T) {
	bus := New(4)
	ch := bus.Subscribe(TypeTaskCreated)
	bus.Close()

	bus.Publish(NewTaskCreatedEvent("task-1", "title", "bugfix"))

	if _, ok := <-ch; ok {
		t.Fatal("expected the channel to be closed after Close")
	}
}

func TestEventBus_CloseIsIdempotent(t *testing.T) {
	bus := New(4)
	bus.Close()
	bus.Close()
}
