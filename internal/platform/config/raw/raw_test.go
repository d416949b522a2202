package raw

import "testing"

func TestGet(t *testing.T) {
	c := New().Prefix("RAW_")
	t.Setenv("RAW_NAME", "  zeroshot ")
	if got := c.Get("NAME", "def"); got != "zeroshot" {
		t.Fatalf("Get = %q, want %q", got, "zeroshot")
	}
	if got := c.Get("MISSING", "def"); got != "def" {
		t.Fatalf("Get default = %q, want %q", got, "def")
	}
}

func TestGetBool(t *testing.T) {
	c := New().Prefix("RAW_")
	for _, v := range []string{"1", "true", "yes", " TRUE "} {
		t.Setenv("RAW_FLAG", v)
		if !c.GetBool("FLAG", false) {
			t.Fatalf("GetBool(%q) = false, want true", v)
		}
	}
	t.Setenv("RAW_FLAG", "0")
	if c.GetBool("FLAG", true) {
		t.Fatalf("GetBool(0) = true, want false")
	}
	if !c.GetBool("MISSING", true) {
		t.Fatalf("GetBool default lost")
	}
}

func TestGetInt(t *testing.T) {
	c := New().Prefix("RAW_")
	t.Setenv("RAW_N", " 42 ")
	if got := c.GetInt("N", 7); got != 42 {
		t.Fatalf("GetInt = %d, want 42", got)
	}
	t.Setenv("RAW_N", "4x2")
	if got := c.GetInt("N", 7); got != 7 {
		t.Fatalf("GetInt non-numeric = %d, want default 7", got)
	}
	if got := c.GetInt("MISSING", 7); got != 7 {
		t.Fatalf("GetInt missing = %d, want default 7", got)
	}
}
