package auth

import (
	"strings"
	"testing"
)

func TestCookieCodecRoundTrip(t *testing.T) {
	codec := NewCookieCodec([]byte("0123456789abcdef0123456789abcdef"))

	encoded := codec.EncodeSessionID("sess-1")
	if encoded == "sess-1" {
		t.Fatalf("expected signed cookie value")
	}

	id, ok := codec.DecodeSessionID(encoded)
	if !ok || id != "sess-1" {
		t.Fatalf("decode failed: %q %v", id, ok)
	}
}

func TestCookieCodecRejectsTampering(t *testing.T) {
	codec := NewCookieCodec([]byte("0123456789abcdef0123456789abcdef"))

	encoded := codec.EncodeSessionID("sess-1")
	tampered := strings.Replace(encoded, "sess-1", "sess-2", 1)

	if _, ok := codec.DecodeSessionID(tampered); ok {
		t.Fatalf("expected tampered cookie to be rejected")
	}
	if _, ok := codec.DecodeSessionID("garbage"); ok {
		t.Fatalf("expected malformed cookie to be rejected")
	}
}

func TestCookieCodecEmptySecretPassesThrough(t *testing.T) {
	codec := NewCookieCodec(nil)

	if got := codec.EncodeSessionID("sess-1"); got != "sess-1" {
		t.Fatalf("unexpected encoding without secret: %q", got)
	}
	id, ok := codec.DecodeSessionID("sess-1")
	if !ok || id != "sess-1" {
		t.Fatalf("unexpected decode without secret: %q %v", id, ok)
	}
	if _, ok := codec.DecodeSessionID(""); ok {
		t.Fatalf("expected empty cookie to be rejected")
	}
}
