package rbac

import "testing"

func TestMemoryPolicy(t *testing.T) {
	p := NewMemoryPolicy()
	p.Grant("alice", PermTicketsRead)
	if !p.Can("alice", PermTicketsRead) {
		t.Fatal("granted perm denied")
	}
	if p.Can("alice", PermSettingsManage) {
		t.Fatal("ungranted perm allowed")
	}
	p.Grant("root", "*")
	if !p.Can("root", PermSettingsManage) {
		t.Fatal("wildcard must allow everything")
	}
	if p.Can("nobody", PermTicketsRead) {
		t.Fatal("unknown subject allowed")
	}
}

func TestDefaultPolicy(t *testing.T) {
	p := DefaultPolicy()
	if !p.Can("role:admin", PermSettingsManage) {
		t.Fatal("admin role must manage settings")
	}
	if !p.Can("role:support", PermTicketsManage) {
		t.Fatal("support role must manage tickets")
	}
	if p.Can("role:support", PermSettingsManage) {
		t.Fatal("support role must not manage settings")
	}
}

func TestSplitPerm(t *testing.T) {
	obj, act := splitPerm("ticket-settings:manage")
	if obj != "ticket-settings" || act != "manage" {
		t.Fatalf("got %q %q", obj, act)
	}
	obj, act = splitPerm("everything")
	if obj != "everything" || act != "*" {
		t.Fatalf("got %q %q", obj, act)
	}
}
