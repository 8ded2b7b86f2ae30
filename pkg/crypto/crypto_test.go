package crypto

import (
	"errors"
	"strings"
	"testing"
)

const testSK = "nsec19nzdqz0awf73vmhtptexj32fyjjufrt62whzfa9mfakcaml5vckqukyjyp"
const testPK = "npub1u4kr6t7cuqcfye89tqcf4ej7xyeglc9zu8lzdn6qwj5078053lpq2qwka7"
const testSK_hex = "2cc4d009fd727d166eeb0af269454924a5c48d7a53ae24f4bb4f6d8eeff4662c"
const testPK_hex = "e56c3d2fd8e0309264e558309ae65e31328fe0a2e1fe26cf4074a8ff1df48fc2"

func TestDeriveKeyPair_Encodings(t *testing.T) {
	tests := []struct {
		name   string
		secret string
	}{
		{"nsec", testSK},
		{"hex", testSK_hex},
		{"upper hex", strings.ToUpper(testSK_hex)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			kp, err := DeriveKeyPair(tt.secret)
			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if kp.PublicKeyHex != testPK_hex {
				t.Errorf("expected public key %s, got %s", testPK_hex, kp.PublicKeyHex)
			}
			if kp.PublicKeyBech32 != testPK {
				t.Errorf("expected npub %s, got %s", testPK, kp.PublicKeyBech32)
			}
			if kp.PrivateKeyHex != testSK_hex {
				t.Errorf("expected normalized hex secret, got %s", kp.PrivateKeyHex)
			}
			if kp.Ephemeral {
				t.Error("derived key must not be marked ephemeral")
			}
		})
	}
}

func TestDeriveKeyPair_Invalid(t *testing.T) {
	tests := []struct {
		name   string
		secret string
	}{
		{"garbage", "invalid"},
		{"short hex", "invalidhexstring"},
		{"64 chars not hex", strings.Repeat("z", 64)},
		{"npub instead of nsec", testPK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := DeriveKeyPair(tt.secret)
			if !errors.Is(err, ErrInvalidSecretKey) {
				t.Fatalf("expected ErrInvalidSecretKey, got %v", err)
			}
		})
	}
}

func TestResolveKeyPair_BlankGeneratesEphemeral(t *testing.T) {
	a, err := ResolveKeyPair("  ")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	b, err := ResolveKeyPair("")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if !a.Ephemeral || !b.Ephemeral {
		t.Error("expected generated keys to be ephemeral")
	}
	if a.PublicKeyHex == b.PublicKeyHex {
		t.Error("expected distinct keys per generation")
	}
	if !strings.HasPrefix(a.PublicKeyBech32, "npub1") {
		t.Errorf("unexpected npub %s", a.PublicKeyBech32)
	}
}

func TestResolveKeyPair_UsesConfiguredSecret(t *testing.T) {
	kp, err := ResolveKeyPair(" " + testSK + " ")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if kp.PublicKeyBech32 != testPK {
		t.Errorf("expected %s, got %s", testPK, kp.PublicKeyBech32)
	}
}

func TestKeyPair_StringHidesSecret(t *testing.T) {
	kp, err := DeriveKeyPair(testSK)
	if err != nil {
		t.Fatal(err)
	}
	s := kp.String()
	if strings.Contains(s, testSK_hex) || strings.Contains(s, testSK) {
		t.Fatalf("String leaked secret: %s", s)
	}
	if s != testPK {
		t.Errorf("expected %s, got %s", testPK, s)
	}
}
