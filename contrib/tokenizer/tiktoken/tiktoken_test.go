package tiktoken

import (
	"os"
	"testing"
)

// The BPE ranks are downloaded on first use, so this needs network access.
func TestCountAndTruncate(t *testing.T) {
	if os.Getenv("NYAYA_TEST_TIKTOKEN") == "" {
		t.Skip("NYAYA_TEST_TIKTOKEN not set")
	}
	tok, err := New("gpt-4o-mini")
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	text := "The Right to Information Act, 2005 lets citizens request information from public authorities."
	n := tok.CountTokens(text)
	if n <= 0 || n > len(text) {
		t.Fatalf("implausible token count %d", n)
	}
	short := tok.Truncate(text, 5)
	if tok.CountTokens(short) > 5 {
		t.Fatalf("truncated text still has %d tokens", tok.CountTokens(short))
	}
	if tok.Truncate(text, n+10) != text {
		t.Fatalf("text within budget should be unchanged")
	}
}
