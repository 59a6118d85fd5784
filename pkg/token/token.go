package token

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"errors"
	"strings"
)

// Claims is the payload carried by a chat capability token: the binding of a
// visitor session to its conversation thread. The token is the only durable
// record of that binding; the server keeps no session state.
type Claims struct {
	SessionID string `json:"sid"`
	ChannelID string `json:"ch"`
	ThreadID  string `json:"th"`
}

var b64 = base64.RawURLEncoding

// Sign encodes claims as base64url(JSON) and appends an HMAC-SHA256 digest
// over the encoded portion, keyed by secret. The result is URL safe and
// deterministic: identical claims always yield an identical token.
func Sign(c Claims, secret []byte) (string, error) {
	if len(secret) == 0 {
		return "", errors.New("empty signing secret")
	}
	payload, err := json.Marshal(c)
	if err != nil {
		return "", err
	}
	body := b64.EncodeToString(payload)
	mac := hmac.New(sha256.New, secret)
	mac.Write([]byte(body))
	return body + "." + b64.EncodeToString(mac.Sum(nil)), nil
}

// Verify recomputes the digest over the encoded portion and decodes the
// claims only if it matches byte-for-byte. Malformed input, truncation and
// wrong-secret signatures all collapse to ok=false; callers cannot
// distinguish why a token was rejected.
func Verify(tok string, secret []byte) (Claims, bool) {
	if len(secret) == 0 || tok == "" {
		return Claims{}, false
	}
	body, sig, found := strings.Cut(tok, ".")
	if !found || body == "" || sig == "" {
		return Claims{}, false
	}
	mac := hmac.New(sha256.New, secret)
	mac.Write([]byte(body))
	expected := b64.EncodeToString(mac.Sum(nil))
	// Compare the encoded forms so lenient base64 decodings of a mutated
	// signature can never alias the genuine digest.
	if !hmac.Equal([]byte(sig), []byte(expected)) {
		return Claims{}, false
	}
	payload, err := b64.DecodeString(body)
	if err != nil {
		return Claims{}, false
	}
	var c Claims
	if err := json.Unmarshal(payload, &c); err != nil {
		return Claims{}, false
	}
	if c.SessionID == "" || c.ChannelID == "" || c.ThreadID == "" {
		return Claims{}, false
	}
	return c, true
}
