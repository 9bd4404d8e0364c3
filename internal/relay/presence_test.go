package relay

import (
	"reflect"
	"testing"
)

func TestRegistryJoinLeave(t *testing.T) {
	r := NewRegistry()

	if !r.Join("n1", "alice") {
		t.Error("First join should grow the presence set")
	}
	if r.Join("n1", "alice") {
		t.Error("Second connection for the same user should not grow the set")
	}
	if !r.Join("n1", "bob") {
		t.Error("New user should grow the set")
	}

	if r.Leave("n1", "alice") {
		t.Error("Leave with a connection remaining should not shrink the set")
	}
	if !r.Leave("n1", "alice") {
		t.Error("Last leave should shrink the set")
	}

	if got := r.Users("n1"); !reflect.DeepEqual(got, []string{"bob"}) {
		t.Errorf("Expected [bob], got %v", got)
	}
}

func TestRegistryUsersSorted(t *testing.T) {
	r := NewRegistry()
	r.Join("n1", "zoe")
	r.Join("n1", "alice")
	r.Join("n1", "mia")

	want := []string{"alice", "mia", "zoe"}
	if got := r.Users("n1"); !reflect.DeepEqual(got, want) {
		t.Errorf("Expected %v, got %v", want, got)
	}
}

func TestRegistryUnknownLeaveIsNoop(t *testing.T) {
	r := NewRegistry()

	if r.Leave("ghost", "alice") {
		t.Error("Leave on unknown room should report no change")
	}

	r.Join("n1", "alice")
	if r.Leave("n1", "bob") {
		t.Error("Leave for unknown user should report no change")
	}
	if got := r.Users("n1"); len(got) != 1 {
		t.Errorf("Presence set corrupted by unknown leave: %v", got)
	}
}

func TestRegistryRoomsIndependent(t *testing.T) {
	r := NewRegistry()
	r.Join("n1", "alice")
	r.Join("n2", "alice")

	r.Leave("n1", "alice")

	if got := r.Users("n2"); len(got) != 1 {
		t.Errorf("Leave in one room must not affect another: %v", got)
	}
	if got := r.Users("n1"); len(got) != 0 {
		t.Errorf("Expected empty presence set, got %v", got)
	}
}
