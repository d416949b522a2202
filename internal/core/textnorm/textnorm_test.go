package textnorm

import "testing"

func TestNormalize(t *testing.T) {
	t.Parallel()

	n := New()

	cases := []struct {
		name string
		in   string
		want string
	}{
		{"empty", "", ""},
		{"plain", "hello world", "hello world"},
		{"case fold", "Hello WORLD", "hello world"},
		{"whitespace runs", "  a \t b\n\nc  ", "a b c"},
		{"fullwidth", "ｈｅｌｌｏ", "hello"},
		{"zero width", "he‍llo", "hello"},
		{"invalid utf8", "ok\xffok", "okok"},
	}
	for _, c := range cases {
		if got := n.Normalize(c.in); got != c.want {
			t.Fatalf("%s: Normalize(%q) = %q, want %q", c.name, c.in, got, c.want)
		}
	}
}

func TestNormalizeIdempotent(t *testing.T) {
	t.Parallel()

	n := New()
	in := "  Grüß  GOTT\tＷｏｒｌｄ "
	once := n.Normalize(in)
	if twice := n.Normalize(once); twice != once {
		t.Fatalf("not idempotent: %q vs %q", once, twice)
	}
}
