// Package crypto resolves the signing identity a relay transport publishes
// trace events under.
package crypto

import (
	"encoding/hex"
	"errors"
	"fmt"
	"strings"

	"github.com/nbd-wtf/go-nostr"
	"github.com/nbd-wtf/go-nostr/nip19"
)

var ErrInvalidSecretKey = errors.New("invalid secret key")

// KeyPair carries a secp256k1 key in both hex and bech32 encodings.
type KeyPair struct {
	PrivateKeyHex    string
	PrivateKeyBech32 string // nsec
	PublicKeyHex     string
	PublicKeyBech32  string // npub
	Ephemeral        bool
}

// ResolveKeyPair derives a KeyPair from secretKey, or generates a fresh
// ephemeral one when secretKey is blank.
func ResolveKeyPair(secretKey string) (*KeyPair, error) {
	secretKey = strings.TrimSpace(secretKey)
	if secretKey == "" {
		return GenerateKeyPair()
	}
	return DeriveKeyPair(secretKey)
}

func GenerateKeyPair() (*KeyPair, error) {
	kp, err := fromHex(nostr.GeneratePrivateKey())
	if err != nil {
		return nil, err
	}
	kp.Ephemeral = true
	return kp, nil
}

// DeriveKeyPair accepts a 64 character hex key or an nsec.
func DeriveKeyPair(secretKey string) (*KeyPair, error) {
	skHex, err := secretHex(secretKey)
	if err != nil {
		return nil, err
	}
	return fromHex(skHex)
}

func secretHex(secretKey string) (string, error) {
	if len(secretKey) == 64 {
		if _, err := hex.DecodeString(secretKey); err != nil {
			return "", fmt.Errorf("%w: not valid hex", ErrInvalidSecretKey)
		}
		return strings.ToLower(secretKey), nil
	}

	prefix, sk, err := nip19.Decode(secretKey)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidSecretKey, err)
	}
	if prefix != "nsec" {
		return "", fmt.Errorf("%w: expected nsec, got %s", ErrInvalidSecretKey, prefix)
	}
	switch v := sk.(type) {
	case string:
		return v, nil
	case []byte:
		return hex.EncodeToString(v), nil
	default:
		return "", fmt.Errorf("%w: unexpected nsec payload %T", ErrInvalidSecretKey, sk)
	}
}

func fromHex(skHex string) (*KeyPair, error) {
	pubHex, err := nostr.GetPublicKey(skHex)
	if err != nil {
		return nil, fmt.Errorf("failed to derive public key: %w", err)
	}
	nsec, err := nip19.EncodePrivateKey(skHex)
	if err != nil {
		return nil, fmt.Errorf("failed to encode private key: %w", err)
	}
	npub, err := nip19.EncodePublicKey(pubHex)
	if err != nil {
		return nil, fmt.Errorf("failed to encode public key: %w", err)
	}
	return &KeyPair{
		PrivateKeyHex:    skHex,
		PrivateKeyBech32: nsec,
		PublicKeyHex:     pubHex,
		PublicKeyBech32:  npub,
	}, nil
}

// String never prints the secret half.
func (k *KeyPair) String() string {
	if k == nil {
		return "<nil>"
	}
	if k.Ephemeral {
		return k.PublicKeyBech32 + " (ephemeral)"
	}
	return k.PublicKeyBech32
}
