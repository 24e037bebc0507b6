package encryption

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"foodwaste/internal/config"
)

func newTestAgeEncryptor(t *testing.T) *AgeEncryptor {
	t.Helper()
	dir := t.TempDir()
	return NewAgeEncryptor(config.EncryptionConfig{
		PublicKeyPath:  filepath.Join(dir, "keys", "foodwaste.pub"),
		PrivateKeyPath: filepath.Join(dir, "keys", "foodwaste.key"),
	})
}

func TestAgeEncryptor_Setup(t *testing.T) {
	t.Parallel()

	t.Run("creates key pair", func(t *testing.T) {
		e := newTestAgeEncryptor(t)
		if e.IsConfigured() {
			t.Error("IsConfigured() = true before Setup, want false")
		}
		if err := e.Setup("pass"); err != nil {
			t.Fatalf("Setup() error = %v", err)
		}
		if !e.IsConfigured() {
			t.Error("IsConfigured() = false after Setup, want true")
		}
		info, err := os.Stat(e.privateKeyPath)
		if err != nil {
			t.Fatal(err)
		}
		if perm := info.Mode().Perm(); perm != 0600 {
			t.Errorf("private key permissions = %o, want 600", perm)
		}
	})

	t.Run("refuses to replace keys", func(t *testing.T) {
		e := newTestAgeEncryptor(t)
		if err := e.Setup("pass"); err != nil {
			t.Fatal(err)
		}
		if err := e.Setup("other"); !errors.Is(err, ErrKeysExist) {
			t.Errorf("second Setup() error = %v, want ErrKeysExist", err)
		}
	})

	t.Run("rejects empty passphrase", func(t *testing.T) {
		e := newTestAgeEncryptor(t)
		if err := e.Setup("  "); err == nil {
			t.Error("Setup() with blank passphrase should return error")
		}
		if e.IsConfigured() {
			t.Error("failed Setup() left keys behind")
		}
	})
}

func TestAgeEncryptor_EncryptDecryptRoundTrip(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		input []byte
	}{
		{name: "sqlite header", input: []byte("SQLite format 3\x00")},
		{name: "empty", input: []byte{}},
		{name: "large", input: bytes.Repeat([]byte("food_listings"), 20000)},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			e := newTestAgeEncryptor(t)
			if err := e.Setup("snapshot-pass"); err != nil {
				t.Fatalf("Setup() error = %v", err)
			}

			var encrypted bytes.Buffer
			if err := e.Encrypt(bytes.NewReader(tt.input), &encrypted); err != nil {
				t.Fatalf("Encrypt() error = %v", err)
			}
			if len(tt.input) > 0 && bytes.Contains(encrypted.Bytes(), tt.input) {
				t.Error("ciphertext contains plaintext")
			}

			dc, err := e.Unlock("snapshot-pass")
			if err != nil {
				t.Fatalf("Unlock() error = %v", err)
			}
			var decrypted bytes.Buffer
			if err := dc.Decrypt(&encrypted, &decrypted); err != nil {
				t.Fatalf("Decrypt() error = %v", err)
			}
			if !bytes.Equal(decrypted.Bytes(), tt.input) {
				t.Errorf("round-trip failed: got %d bytes, want %d bytes", decrypted.Len(), len(tt.input))
			}
		})
	}
}

func TestAgeEncryptor_Errors(t *testing.T) {
	t.Parallel()

	t.Run("wrong passphrase", func(t *testing.T) {
		e := newTestAgeEncryptor(t)
		if err := e.Setup("correct"); err != nil {
			t.Fatal(err)
		}
		if _, err := e.Unlock("wrong"); !errors.Is(err, ErrWrongPassphrase) {
			t.Errorf("Unlock() error = %v, want ErrWrongPassphrase", err)
		}
	})

	t.Run("encrypt before setup", func(t *testing.T) {
		e := newTestAgeEncryptor(t)
		if err := e.Encrypt(bytes.NewReader([]byte("x")), &bytes.Buffer{}); !errors.Is(err, ErrNotConfigured) {
			t.Errorf("Encrypt() error = %v, want ErrNotConfigured", err)
		}
	})

	t.Run("unlock before setup", func(t *testing.T) {
		e := newTestAgeEncryptor(t)
		if _, err := e.Unlock("x"); !errors.Is(err, ErrNotConfigured) {
			t.Errorf("Unlock() error = %v, want ErrNotConfigured", err)
		}
	})
}

func TestTestEncryptor(t *testing.T) {
	t.Parallel()

	e := NewTestEncryptor()
	if !e.IsConfigured() {
		t.Error("IsConfigured() = false, want true")
	}

	var enc bytes.Buffer
	if err := e.Encrypt(bytes.NewReader([]byte("db")), &enc); err != nil {
		t.Fatalf("Encrypt() error = %v", err)
	}
	if bytes.Equal(enc.Bytes(), []byte("db")) {
		t.Error("output identical to input")
	}

	if _, err := e.Unlock("nope"); !errors.Is(err, ErrWrongPassphrase) {
		t.Errorf("Unlock() error = %v, want ErrWrongPassphrase", err)
	}
	dc, err := e.Unlock("test")
	if err != nil {
		t.Fatalf("Unlock() error = %v", err)
	}
	var out bytes.Buffer
	if err := dc.Decrypt(&enc, &out); err != nil {
		t.Fatalf("Decrypt() error = %v", err)
	}
	if out.String() != "db" {
		t.Errorf("Decrypt() = %q, want db", out.String())
	}

	if err := dc.Decrypt(bytes.NewReader([]byte("plain text here")), &out); err == nil {
		t.Error("Decrypt() of foreign data should fail")
	}
}

func TestNewEncryptorFromConfig(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		cfg     config.EncryptionConfig
		wantErr bool
	}{
		{"age", config.EncryptionConfig{Type: "age", PublicKeyPath: "a.pub", PrivateKeyPath: "a.key"}, false},
		{"default type", config.EncryptionConfig{PublicKeyPath: "a.pub", PrivateKeyPath: "a.key"}, false},
		{"age without paths", config.EncryptionConfig{Type: "age"}, true},
		{"test", config.EncryptionConfig{Type: "test"}, false},
		{"unknown", config.EncryptionConfig{Type: "rot13"}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewEncryptorFromConfig(tt.cfg)
			if (err != nil) != tt.wantErr {
				t.Errorf("NewEncryptorFromConfig() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
