package events

import "testing"

func TestBusSubscribe(t *testing.T) {
	bus := NewBus()

	var got []string
	bus.Subscribe(TopicShowPopup, func(ev Event) {
		got = append(got, "popup:"+ev.Payload.(string))
	})
	bus.Subscribe(TopicRemindersUpdated, func(ev Event) {
		got = append(got, "reminders")
	})

	bus.Publish(TopicShowPopup, "a")
	bus.Publish(TopicShowPopup, "b")
	bus.Publish(TopicRemindersUpdated, nil)
	bus.Publish("unknown-topic", nil)

	want := []string{"popup:a", "popup:b", "reminders"}
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("event %d: got %q, want %q", i, got[i], want[i])
		}
	}
}

func TestBusSubscribeAll(t *testing.T) {
	bus := NewBus()

	order := []string{}
	bus.Subscribe(TopicPomodoroComplete, func(ev Event) {
		order = append(order, "topical")
	})
	bus.SubscribeAll(func(ev Event) {
		order = append(order, "all:"+ev.Topic)
	})

	bus.Publish(TopicPomodoroComplete, nil)
	bus.Publish(TopicTasksUpdated, nil)

	want := []string{"topical", "all:" + TopicPomodoroComplete, "all:" + TopicTasksUpdated}
	if len(order) != len(want) {
		t.Fatalf("got %v, want %v", order, want)
	}
	for i := range want {
		if order[i] != want[i] {
			t.Errorf("delivery %d: got %q, want %q", i, order[i], want[i])
		}
	}
}

func TestBusEventTimestamp(t *testing.T) {
	bus := NewBus()

	var ev Event
	bus.Subscribe(TopicHabitsUpdated, func(e Event) { ev = e })
	bus.Publish(TopicHabitsUpdated, 42)

	if ev.Topic != TopicHabitsUpdated || ev.Payload != 42 || ev.At.IsZero() {
		t.Errorf("unexpected event: %+v", ev)
	}
}
