package token

import (
	"strings"
	"testing"
)

var secret = []byte("signsecret")

func TestSignVerify_RoundTrip(t *testing.T) {
	cases := []Claims{
		{SessionID: "sess-1", ChannelID: "C123", ThreadID: "1712345678.000100"},
		{SessionID: "sess-with-unicode-日本", ChannelID: "C0AB", ThreadID: "42"},
		{SessionID: strings.Repeat("x", 256), ChannelID: "C", ThreadID: "t"},
	}
	for _, c := range cases {
		tok, err := Sign(c, secret)
		if err != nil {
			t.Fatalf("Sign(%+v) failed: %v", c, err)
		}
		got, ok := Verify(tok, secret)
		if !ok {
			t.Fatalf("Verify rejected freshly signed token for %+v", c)
		}
		if got != c {
			t.Fatalf("round trip mismatch: got %+v want %+v", got, c)
		}
	}
}

func TestSign_Deterministic(t *testing.T) {
	c := Claims{SessionID: "s", ChannelID: "C1", ThreadID: "t1"}
	a, err := Sign(c, secret)
	if err != nil {
		t.Fatal(err)
	}
	b, err := Sign(c, secret)
	if err != nil {
		t.Fatal(err)
	}
	if a != b {
		t.Fatalf("same claims produced different tokens: %q vs %q", a, b)
	}
}

func TestVerify_TamperEvidence(t *testing.T) {
	tok, err := Sign(Claims{SessionID: "sess-1", ChannelID: "C123", ThreadID: "1712345678.000100"}, secret)
	if err != nil {
		t.Fatal(err)
	}
	// Flip every byte position in turn; all mutations must be rejected.
	for i := 0; i < len(tok); i++ {
		mutated := []byte(tok)
		mutated[i] ^= 0x01
		if _, ok := Verify(string(mutated), secret); ok {
			t.Fatalf("accepted token with byte %d flipped", i)
		}
	}
	// Truncations too.
	for i := 0; i < len(tok); i++ {
		if _, ok := Verify(tok[:i], secret); ok {
			t.Fatalf("accepted token truncated to %d bytes", i)
		}
	}
}

func TestVerify_CrossSecretRejection(t *testing.T) {
	tok, err := Sign(Claims{SessionID: "s", ChannelID: "C", ThreadID: "t"}, []byte("secret-one"))
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := Verify(tok, []byte("secret-two")); ok {
		t.Fatal("token signed with one secret verified under another")
	}
}

func TestVerify_Malformed(t *testing.T) {
	bad := []string{
		"",
		"no-dot-at-all",
		".",
		"a.",
		".b",
		"!!!.###",
		"e30.e30", // valid base64 halves, bogus signature
	}
	for _, tok := range bad {
		if _, ok := Verify(tok, secret); ok {
			t.Fatalf("accepted malformed token %q", tok)
		}
	}
}

func TestVerify_EmptySecret(t *testing.T) {
	tok, err := Sign(Claims{SessionID: "s", ChannelID: "C", ThreadID: "t"}, secret)
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := Verify(tok, nil); ok {
		t.Fatal("verified with empty secret")
	}
	if _, err := Sign(Claims{SessionID: "s"}, nil); err == nil {
		t.Fatal("signed with empty secret")
	}
}
