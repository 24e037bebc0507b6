package encryption

import (
	"bytes"
	"fmt"
	"io"

	"foodwaste/internal/food"
)

// snapshotMagic prefixes output of TestEncryptor.
var snapshotMagic = []byte("FWSNAP\x00\x01")

// TestEncryptor is a deterministic, crypto-free Encryptor for tests. It
// prefixes data with a fixed header and remembers the Setup passphrase so
// Unlock can reject a wrong one.
type TestEncryptor struct {
	passphrase string
	configured bool
}

var _ food.Encryptor = (*TestEncryptor)(nil)

// NewTestEncryptor returns an encryptor already set up with passphrase "test".
func NewTestEncryptor() *TestEncryptor {
	return &TestEncryptor{passphrase: "test", configured: true}
}

func (e *TestEncryptor) Setup(passphrase string) error {
	e.passphrase = passphrase
	e.configured = true
	return nil
}

func (e *TestEncryptor) Encrypt(r io.Reader, w io.Writer) error {
	if _, err := w.Write(snapshotMagic); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}
	if _, err := io.Copy(w, r); err != nil {
		return fmt.Errorf("copying data: %w", err)
	}
	return nil
}

func (e *TestEncryptor) Unlock(passphrase string) (food.DecryptionContext, error) {
	if !e.configured {
		return nil, ErrNotConfigured
	}
	if passphrase != e.passphrase {
		return nil, ErrWrongPassphrase
	}
	return &TestDecryptionContext{}, nil
}

func (e *TestEncryptor) IsConfigured() bool {
	return e.configured
}

// TestDecryptionContext strips the header written by TestEncryptor.
type TestDecryptionContext struct{}

var _ food.DecryptionContext = (*TestDecryptionContext)(nil)

func (c *TestDecryptionContext) Decrypt(r io.Reader, w io.Writer) error {
	header := make([]byte, len(snapshotMagic))
	if _, err := io.ReadFull(r, header); err != nil {
		return fmt.Errorf("reading header: %w", err)
	}
	if !bytes.Equal(header, snapshotMagic) {
		return fmt.Errorf("not a test snapshot")
	}
	if _, err := io.Copy(w, r); err != nil {
		return fmt.Errorf("copying data: %w", err)
	}
	return nil
}
