package food

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

const (
	snapshotPrefix = "snapshots/"
	snapshotSuffix = ".db.age"
)

// CreateSnapshot copies the store to a temporary file, encrypts it and puts
// it in the sink. It returns the snapshot name.
func (s *FoodService) CreateSnapshot() (string, error) {
	if !s.encryptor.IsConfigured() {
		return "", fmt.Errorf("encryption keys not configured")
	}

	tmpDir, err := os.MkdirTemp("", "foodwaste-snapshot-*")
	if err != nil {
		return "", fmt.Errorf("creating temp dir: %w", err)
	}
	defer os.RemoveAll(tmpDir)

	dbPath := filepath.Join(tmpDir, "snapshot.db")
	if err := s.store.BackupTo(dbPath); err != nil {
		return "", err
	}

	f, err := os.Open(dbPath)
	if err != nil {
		return "", fmt.Errorf("opening snapshot: %w", err)
	}
	defer f.Close()

	var encrypted bytes.Buffer
	if err := s.encryptor.Encrypt(f, &encrypted); err != nil {
		return "", fmt.Errorf("encrypting snapshot: %w", err)
	}

	name := snapshotPrefix + s.clock.Now().UTC().Format("20060102T150405Z") + snapshotSuffix
	if err := s.sink.Put(name, bytes.NewReader(encrypted.Bytes()), int64(encrypted.Len())); err != nil {
		return "", fmt.Errorf("storing snapshot: %w", err)
	}
	s.logger.Info("snapshot created", "name", name, "bytes", encrypted.Len())
	return name, nil
}

// ListSnapshots returns snapshot names, oldest first.
func (s *FoodService) ListSnapshots() ([]string, error) {
	names, err := s.sink.List(snapshotPrefix)
	if err != nil {
		return nil, fmt.Errorf("listing snapshots: %w", err)
	}
	var snapshots []string
	for _, n := range names {
		if strings.HasSuffix(n, snapshotSuffix) {
			snapshots = append(snapshots, n)
		}
	}
	return snapshots, nil
}

// RestoreSnapshot decrypts snapshot name to destPath. The destination must
// not exist; the live store is never overwritten.
func (s *FoodService) RestoreSnapshot(name, passphrase, destPath string) error {
	if !strings.HasPrefix(name, snapshotPrefix) {
		name = snapshotPrefix + name
	}
	if _, err := os.Stat(destPath); err == nil {
		return fmt.Errorf("destination already exists: %s", destPath)
	}

	dc, err := s.encryptor.Unlock(passphrase)
	if err != nil {
		return fmt.Errorf("unlocking key: %w", err)
	}

	var encrypted bytes.Buffer
	if err := s.sink.Get(name, &encrypted); err != nil {
		return fmt.Errorf("fetching snapshot: %w", err)
	}

	out, err := os.OpenFile(destPath, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0600)
	if err != nil {
		return fmt.Errorf("creating destination: %w", err)
	}
	if err := dc.Decrypt(&encrypted, out); err != nil {
		out.Close()
		os.Remove(destPath)
		return fmt.Errorf("decrypting snapshot: %w", err)
	}
	if err := out.Close(); err != nil {
		return fmt.Errorf("closing destination: %w", err)
	}
	s.logger.Info("snapshot restored", "name", name, "dest", destPath)
	return nil
}
