// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package auth

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDerivePublicKey(t *testing.T) {
	tests := []struct {
		name       string
		privateKey string
		secret     string
	}{
		{"standard", "ABCDEFGHIJKL", "master-secret"},
		{"short key", "A", "s"},
		{"unicode secret", "QWERTYUIOPAS", "segredo-eleição"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			key := DerivePublicKey(tt.privateKey, tt.secret)

			if !IsPublicKey(key) {
				t.Errorf("DerivePublicKey() = %q, want 64 lowercase hex chars", key)
			}

			// Should be deterministic
			if again := DerivePublicKey(tt.privateKey, tt.secret); again != key {
				t.Error("DerivePublicKey() is not deterministic")
			}

			// Different secrets should produce different keys
			if other := DerivePublicKey(tt.privateKey, tt.secret+"x"); other == key {
				t.Error("DerivePublicKey() produced same key for different secrets")
			}
		})
	}
}

func TestDerivePublicKeyKnownVector(t *testing.T) {
	// RFC 4231 style vector: HMAC-SHA256 keyed by "key".
	got := DerivePublicKey("The quick brown fox jumps over the lazy dog", "key")
	want := "f7bc83f430538424b13298e6aa6fb143ef4d59a14946175997479dbc2d1a3cd8"
	if got != want {
		t.Errorf("DerivePublicKey() = %s, want %s", got, want)
	}
}

func TestDerivePublicKeyEmptyInputs(t *testing.T) {
	tests := []struct {
		name       string
		privateKey string
		secret     string
	}{
		{"empty private key", "", "secret"},
		{"empty secret", "ABCDEFGHIJKL", ""},
		{"both empty", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := DerivePublicKey(tt.privateKey, tt.secret); got != "" {
				t.Errorf("DerivePublicKey() = %q, want empty", got)
			}
		})
	}
}

func TestNormalize(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"ABCDEFGHIJKL", "ABCDEFGHIJKL"},
		{"abcdefghijkl", "ABCDEFGHIJKL"},
		{"  abcd efgh\tijkl\n", "ABCDEFGHIJKL"},
		{"ABC-DEF.GHI_JKL", "ABCDEFGHIJKL"},
		{"ABC123DEF", "ABCDEF"},
		{"ÁBÇ", "B"},
		{"", ""},
		{"1234", ""},
	}

	for _, tt := range tests {
		if got := Normalize(tt.in); got != tt.want {
			t.Errorf("Normalize(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestNormalizeCollapsesVariants(t *testing.T) {
	// Distinct raw inputs share one digest after normalization.
	secret := "master"
	a := DerivePublicKey(Normalize("qwer-tyui-opas"), secret)
	b := DerivePublicKey(Normalize("QWERTYUIOPAS"), secret)
	if a != b {
		t.Error("expected normalized variants to derive the same key")
	}
}

func TestKeysEqual(t *testing.T) {
	k := DerivePublicKey("ABCDEFGHIJKL", "s")
	if !KeysEqual(k, k) {
		t.Error("KeysEqual() false for identical keys")
	}
	if KeysEqual(k, DerivePublicKey("ABCDEFGHIJKM", "s")) {
		t.Error("KeysEqual() true for different keys")
	}
}

func TestIsPublicKey(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want bool
	}{
		{"derived", DerivePublicKey("X", "Y"), true},
		{"uppercase", "F7BC83F430538424B13298E6AA6FB143EF4D59A14946175997479DBC2D1A3CD8", false},
		{"short", "abc", false},
		{"empty", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsPublicKey(tt.in); got != tt.want {
				t.Errorf("IsPublicKey(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestDigestText(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"", "e3b0c44298fc1c149afbf4c8996fb92427ae41e4649b934ca495991b7852b855"},
		{"abc", "ba7816bf8f01cfea414140de5dae2223b00361a396177a9cb410ff61f20015ad"},
	}

	for _, tt := range tests {
		if got := DigestText(tt.in); got != tt.want {
			t.Errorf("DigestText(%q) = %s, want %s", tt.in, got, tt.want)
		}
	}
}

func TestDigestFiles(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "roster.csv")
	if err := os.WriteFile(path, []byte("abc"), 0o600); err != nil {
		t.Fatalf("write file: %v", err)
	}

	digests := DigestFiles([]string{path, filepath.Join(dir, "missing.csv")})
	if len(digests) != 2 {
		t.Fatalf("expected 2 digests, got %d", len(digests))
	}
	if digests[0].Err != nil || digests[0].SHA256 != DigestText("abc") {
		t.Errorf("unexpected digest for existing file: %+v", digests[0])
	}
	if digests[1].Err == nil {
		t.Error("expected error for missing file")
	}
}

func BenchmarkDerivePublicKey(b *testing.B) {
	for i := 0; i < b.N; i++ {
		DerivePublicKey("ABCDEFGHIJKL", "master-secret")
	}
}

func BenchmarkNormalize(b *testing.B) {
	for i := 0; i < b.N; i++ {
		Normalize(" abcd-efgh ijkl ")
	}
}
