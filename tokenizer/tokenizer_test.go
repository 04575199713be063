package tokenizer

import "testing"

func TestSplitTokens(t *testing.T) {
	cases := []struct {
		in   string
		want []string
	}{
		{"hello world", []string{"hello", "world"}},
		{"abc123 def", []string{"abc123", "def"}},
		{"a, b!", []string{"a", ",", "b", "!"}},
		{"你好world", []string{"你", "好", "world"}},
		{"   ", nil},
	}
	for _, c := range cases {
		got := splitTokens(c.in)
		if len(got) != len(c.want) {
			t.Errorf("splitTokens(%q) = %v, want %v", c.in, got, c.want)
			continue
		}
		for i := range got {
			if got[i] != c.want[i] {
				t.Errorf("splitTokens(%q)[%d] = %q, want %q", c.in, i, got[i], c.want[i])
			}
		}
	}
}

func TestEncodeStableIDs(t *testing.T) {
	tok := NewSimpleTokenizer()
	first := tok.Encode("hello world hello")
	if len(first) != 3 {
		t.Fatalf("Expected 3 ids, got %v", first)
	}
	if first[0] != first[2] {
		t.Errorf("Same token must map to same id, got %v", first)
	}
	second := tok.Encode("hello")
	if second[0] != first[0] {
		t.Errorf("Vocab must be stable across calls, got %d vs %d", second[0], first[0])
	}
}
