package labels

import (
	"testing"

	perr "zeroshot/internal/platform/errors"
)

func TestNormalizeKey(t *testing.T) {
	t.Parallel()

	cases := []struct {
		in   string
		want string
	}{
		{"economy", "economy"},
		{"Economy", "economy"},
		{"  public   health ", "public_health"},
		{"élan vital", "elan_vital"},
		{"jobs & labor", "jobs_labor"},
		{"ＦＵＬＬｗｉｄｔｈ", "fullwidth"},
		{"CO2 policy", "co2_policy"},
	}
	for _, c := range cases {
		if got := NormalizeKey(c.in); got != c.want {
			t.Fatalf("NormalizeKey(%q) = %q, want %q", c.in, got, c.want)
		}
	}
}

func TestParseSetOrderAndKeys(t *testing.T) {
	t.Parallel()

	set, err := ParseSet([]string{"Economy", "jobs", "public health"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if set.Len() != 3 {
		t.Fatalf("len = %d", set.Len())
	}
	wantKeys := []string{"economy", "jobs", "public_health"}
	for i, k := range set.Keys() {
		if k != wantKeys[i] {
			t.Fatalf("keys = %v", set.Keys())
		}
	}
	// description order preserved for column layout
	if set.Descriptions()[0] != "Economy" {
		t.Fatalf("descriptions = %v", set.Descriptions())
	}
	if key, ok := set.KeyFor("public health"); !ok || key != "public_health" {
		t.Fatalf("KeyFor = (%q, %v)", key, ok)
	}
}

func TestParseSetRejectsBadInput(t *testing.T) {
	t.Parallel()

	if _, err := ParseSet(nil); !perr.IsCode(err, perr.ErrorCodeInvalidArgument) {
		t.Fatalf("empty set: %v", err)
	}
	if _, err := ParseSet([]string{"economy", "  "}); !perr.IsCode(err, perr.ErrorCodeInvalidArgument) {
		t.Fatalf("blank label: %v", err)
	}
	if _, err := ParseSet([]string{"!!!"}); !perr.IsCode(err, perr.ErrorCodeInvalidArgument) {
		t.Fatalf("empty key: %v", err)
	}
}

func TestParseSetCollisions(t *testing.T) {
	t.Parallel()

	// distinct descriptions folding to the same key is a schema problem
	if _, err := ParseSet([]string{"Economy", "economy!"}); !perr.IsCode(err, perr.ErrorCodeSchema) {
		t.Fatalf("collision: %v", err)
	}

	// exact repeats are deduped silently, first occurrence wins
	set, err := ParseSet([]string{"jobs", "jobs"})
	if err != nil {
		t.Fatalf("dup: %v", err)
	}
	if set.Len() != 1 {
		t.Fatalf("len after dedup = %d", set.Len())
	}
}

func TestTemplate(t *testing.T) {
	t.Parallel()

	if err := DefaultTemplate.Validate(); err != nil {
		t.Fatalf("default template invalid: %v", err)
	}
	if err := Template("no slot").Validate(); !perr.IsCode(err, perr.ErrorCodeInvalidArgument) {
		t.Fatalf("missing slot: %v", err)
	}
	if err := Template("{} and {}").Validate(); !perr.IsCode(err, perr.ErrorCodeInvalidArgument) {
		t.Fatalf("double slot: %v", err)
	}
	if got := Template("This text is about {}.").Render("the economy"); got != "This text is about the economy." {
		t.Fatalf("Render = %q", got)
	}
}
