package access

import "testing"

func TestAllowListEmptyAllowsEveryone(t *testing.T) {
	gate := NewAllowList(nil)
	if !gate.Allow("chat", "anyone") {
		t.Fatal("empty allow list should allow everyone")
	}
}

func TestAllowListRestricts(t *testing.T) {
	gate := NewAllowList([]string{"admin", ""})
	if !gate.Allow("chat", "admin") {
		t.Fatal("listed participant should be allowed")
	}
	if gate.Allow("chat", "intruder") {
		t.Fatal("unlisted participant should be denied")
	}
	if gate.Allow("chat", "") {
		t.Fatal("empty participant ID should be denied")
	}
}
