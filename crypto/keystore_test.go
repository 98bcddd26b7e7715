package crypto

import (
	"errors"
	"path/filepath"
	"testing"
)

func TestKeystoreRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "keys", "operator.keystore")
	key, err := GenerateKeystore(path, "secret", LightKeystore)
	if err != nil {
		t.Fatalf("generate keystore: %v", err)
	}
	loaded, err := LoadFromKeystore(path, "secret")
	if err != nil {
		t.Fatalf("load keystore: %v", err)
	}
	if loaded.Address() != key.Address() {
		t.Fatalf("loaded key %s want %s", loaded.Address(), key.Address())
	}
	if _, err := LoadFromKeystore(path, "wrong"); err == nil {
		t.Fatalf("expected wrong passphrase to fail")
	}
}

func TestGenerateKeystoreRefusesOverwrite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "operator.keystore")
	if _, err := GenerateKeystore(path, "", LightKeystore); err != nil {
		t.Fatalf("generate keystore: %v", err)
	}
	if _, err := GenerateKeystore(path, "", LightKeystore); !errors.Is(err, ErrKeystoreExists) {
		t.Fatalf("expected ErrKeystoreExists, got %v", err)
	}
}
