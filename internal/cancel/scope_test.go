package cancel

import (
	"testing"
	"time"
)

func TestChildCancelledByParent(t *testing.T) {
	parent := New(nil)
	child := parent.Child()

	if parent.Done() || child.Done() {
		t.Fatal("neither scope should be done yet")
	}

	parent.Cancel()

	if !parent.Done() {
		t.Error("parent should be done after Cancel")
	}
	if !child.Done() {
		t.Error("child should observe parent cancellation")
	}
}

func TestWithTimeoutExpires(t *testing.T) {
	s := WithTimeout(nil, 10*time.Millisecond)
	<-s.Context().Done()
	if !s.Done() {
		t.Error("scope should be done after its deadline elapses")
	}
}

func TestRegistryCancelAll(t *testing.T) {
	r := NewRegistry()
	a := New(nil)
	b := New(nil)
	r.Register(a)
	r.Register(b)

	if r.Len() != 2 {
		t.Fatalf("expected 2 active scopes, got %d", r.Len())
	}

	r.CancelAll()

	if r.Len() != 0 {
		t.Errorf("expected active set to be empty after CancelAll, got %d", r.Len())
	}
	if !a.Done() || !b.Done() {
		t.Error("both scopes should be cancelled")
	}
}

func TestRegistryDeregister(t *testing.T) {
	r := NewRegistry()
	a := New(nil)
	r.Register(a)
	r.Deregister(a)
	if r.Len() != 0 {
		t.Errorf("expected 0 active scopes after Deregister, got %d", r.Len())
	}
}
