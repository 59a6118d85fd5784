package directory

import (
	"context"
	"testing"
)

func TestMemoryThreadLifecycle(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()

	ref, err := m.CreateThread(ctx, "C1", PostInput{Text: "header", Role: RoleVisitor, SessionID: "s1"})
	if err != nil {
		t.Fatal(err)
	}
	ts1, err := m.PostMessage(ctx, ref, PostInput{Text: "first", Role: RoleVisitor, SessionID: "s1"})
	if err != nil {
		t.Fatal(err)
	}
	ts2 := m.AppendOperator(ref, "reply one")
	ts3 := m.AppendOperator(ref, "reply two")

	if !(ts1 < ts2 && ts2 < ts3) {
		t.Fatalf("positions not increasing: %q %q %q", ts1, ts2, ts3)
	}

	// Full read excludes the header.
	msgs, err := m.Replies(ctx, ref, "", 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(msgs) != 3 {
		t.Fatalf("got %d messages, want 3", len(msgs))
	}

	// Cursor read is strictly-after.
	msgs, err = m.Replies(ctx, ref, ts1, 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(msgs) != 2 || msgs[0].Text != "reply one" || msgs[1].Text != "reply two" {
		t.Fatalf("unexpected window %+v", msgs)
	}

	// Limit truncates.
	msgs, err = m.Replies(ctx, ref, ts1, 1)
	if err != nil {
		t.Fatal(err)
	}
	if len(msgs) != 1 || msgs[0].Text != "reply one" {
		t.Fatalf("unexpected limited window %+v", msgs)
	}
}

func TestMemoryUnknownThread(t *testing.T) {
	m := NewMemory()
	_, err := m.PostMessage(context.Background(), ThreadRef{Channel: "C", Thread: "nope"}, PostInput{Text: "x"})
	if kind, ok := KindOf(err); !ok || kind != KindNotFound {
		t.Fatalf("kind = %v ok=%v, want KindNotFound", kind, ok)
	}
	_, err = m.Replies(context.Background(), ThreadRef{Channel: "C", Thread: "nope"}, "", 0)
	if kind, ok := KindOf(err); !ok || kind != KindNotFound {
		t.Fatalf("kind = %v ok=%v, want KindNotFound", kind, ok)
	}
}

func TestMemoryFaultInjection(t *testing.T) {
	m := NewMemory()
	m.FailNext = &Error{Kind: KindUnavailable, Code: "boom"}
	if _, err := m.CreateThread(context.Background(), "C", PostInput{Text: "h"}); err == nil {
		t.Fatal("expected injected failure")
	}
	// Fault is one-shot.
	if _, err := m.CreateThread(context.Background(), "C", PostInput{Text: "h"}); err != nil {
		t.Fatalf("fault not cleared: %v", err)
	}
}
