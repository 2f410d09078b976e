package registry

import (
	"testing"
)

func TestGrantIdempotent(t *testing.T) {
	t.Parallel()
	r := New()
	r.Grant(Channel{ID: "c1", GuildID: "g1"})
	r.Grant(Channel{ID: "c1", GuildID: "g1"})
	if r.Len() != 1 {
		t.Fatalf("Len = %d, want 1", r.Len())
	}
}

func TestGrantPreservesOrder(t *testing.T) {
	t.Parallel()
	r := New()
	r.Grant(Channel{ID: "c2", GuildID: "g1"})
	r.Grant(Channel{ID: "c1", GuildID: "g1"})
	r.Grant(Channel{ID: "c3", GuildID: "g1"})

	got := r.List("g1")
	want := []string{"c2", "c1", "c3"}
	if len(got) != len(want) {
		t.Fatalf("List returned %d channels, want %d", len(got), len(want))
	}
	for i, id := range want {
		if got[i].ID != id {
			t.Fatalf("List[%d] = %q, want %q", i, got[i].ID, id)
		}
	}
}

func TestDeny(t *testing.T) {
	t.Parallel()
	r := New()
	r.Grant(Channel{ID: "c1", GuildID: "g1"})
	r.Grant(Channel{ID: "c2", GuildID: "g1"})

	r.Deny("c1", "g1")
	if r.Len() != 1 {
		t.Fatalf("Len = %d, want 1", r.Len())
	}
	if got := r.List("g1"); len(got) != 1 || got[0].ID != "c2" {
		t.Fatalf("List = %v, want only c2", got)
	}
}

func TestDenyUnknownIsNoop(t *testing.T) {
	t.Parallel()
	r := New()
	r.Grant(Channel{ID: "c1", GuildID: "g1"})
	r.Deny("missing", "g1")
	if r.Len() != 1 {
		t.Fatalf("Len = %d, want 1", r.Len())
	}
}

func TestDenyIsGuildScoped(t *testing.T) {
	t.Parallel()
	r := New()
	r.Grant(Channel{ID: "c1", GuildID: "g1"})
	// same id, wrong guild: must not remove
	r.Deny("c1", "g2")
	if r.Len() != 1 {
		t.Fatalf("Len = %d, want 1 (cross-guild deny must be a no-op)", r.Len())
	}
}

func TestListFiltersByGuild(t *testing.T) {
	t.Parallel()
	r := New()
	r.Grant(Channel{ID: "c1", GuildID: "g1"})
	r.Grant(Channel{ID: "c2", GuildID: "g2"})
	r.Grant(Channel{ID: "c3", GuildID: "g1"})

	if got := r.List("g1"); len(got) != 2 {
		t.Fatalf("List(g1) = %v, want 2 channels", got)
	}
	if got := r.List("g3"); len(got) != 0 {
		t.Fatalf("List(g3) = %v, want empty", got)
	}
}

func TestAllReturnsSnapshot(t *testing.T) {
	t.Parallel()
	r := New()
	r.Grant(Channel{ID: "c1", GuildID: "g1"})
	snap := r.All()
	r.Deny("c1", "g1")
	if len(snap) != 1 {
		t.Fatalf("snapshot mutated: %v", snap)
	}
	if r.Len() != 0 {
		t.Fatalf("Len = %d, want 0", r.Len())
	}
}
