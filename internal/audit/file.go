package audit

import (
	"bufio"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// Hash chain constants.
const (
	HashPrefix  = "sha256:"
	GenesisHash = HashPrefix + "genesis"
)

// FileWriter appends hash-chained events to a JSONL file.
type FileWriter struct {
	mu       sync.Mutex
	file     *os.File
	lastHash string
}

var _ Writer = (*FileWriter)(nil)

// NewFileWriter opens (or creates) an audit log at path. If the file already
// contains events, the hash chain continues from the last one.
func NewFileWriter(path string) (*FileWriter, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return nil, fmt.Errorf("create audit log directory: %w", err)
		}
	}

	lastHash, err := lastHashInFile(path)
	if err != nil {
		return nil, err
	}

	file, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o600)
	if err != nil {
		return nil, fmt.Errorf("open audit log: %w", err)
	}

	return &FileWriter{file: file, lastHash: lastHash}, nil
}

// Write validates the event, chains it to the previous one, and appends it
// with an fsync before returning.
func (w *FileWriter) Write(event *Event) error {
	if err := event.Validate(); err != nil {
		return fmt.Errorf("invalid audit event: %w", err)
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	event.HashPrev = w.lastHash
	hash, err := eventHash(event)
	if err != nil {
		return err
	}
	event.Hash = hash

	line, err := event.JSON()
	if err != nil {
		return fmt.Errorf("marshal audit event: %w", err)
	}
	line = append(line, '\n')

	if _, err := w.file.Write(line); err != nil {
		return fmt.Errorf("write audit event: %w", err)
	}
	if err := w.file.Sync(); err != nil {
		return fmt.Errorf("sync audit log: %w", err)
	}

	w.lastHash = event.Hash
	return nil
}

// Close closes the underlying file.
func (w *FileWriter) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.file == nil {
		return nil
	}
	err := w.file.Close()
	w.file = nil
	return err
}

// LastHash returns the hash of the last written event.
func (w *FileWriter) LastHash() string {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.lastHash
}

// eventHash computes the chained hash of an event's canonical JSON.
func eventHash(event *Event) (string, error) {
	canonical, err := event.CanonicalJSON()
	if err != nil {
		return "", fmt.Errorf("canonicalize audit event: %w", err)
	}
	sum := sha256.Sum256(canonical)
	return HashPrefix + hex.EncodeToString(sum[:]), nil
}

// lastHashInFile reads the hash of the final event in an existing log.
func lastHashInFile(path string) (string, error) {
	file, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return GenesisHash, nil
		}
		return "", fmt.Errorf("open audit log: %w", err)
	}
	defer func() { _ = file.Close() }()

	lastHash := GenesisHash
	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		var event Event
		if err := json.Unmarshal(line, &event); err != nil {
			return "", fmt.Errorf("corrupt audit log entry: %w", err)
		}
		lastHash = event.Hash
	}
	if err := scanner.Err(); err != nil {
		return "", fmt.Errorf("read audit log: %w", err)
	}
	return lastHash, nil
}

// VerifyChain checks the hash chain of an audit log and returns the number
// of valid events. Any tampering breaks the chain at the altered entry.
func VerifyChain(path string) (int, error) {
	file, err := os.Open(path)
	if err != nil {
		return 0, fmt.Errorf("open audit log: %w", err)
	}
	defer func() { _ = file.Close() }()

	count := 0
	prev := GenesisHash
	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}

		var event Event
		if err := json.Unmarshal(line, &event); err != nil {
			return count, fmt.Errorf("entry %d: corrupt JSON: %w", count+1, err)
		}
		if event.HashPrev != prev {
			return count, fmt.Errorf("entry %d: hash chain broken: prev %s, expected %s", count+1, event.HashPrev, prev)
		}

		expected, err := eventHash(&event)
		if err != nil {
			return count, err
		}
		if event.Hash != expected {
			return count, fmt.Errorf("entry %d: hash mismatch", count+1)
		}

		prev = event.Hash
		count++
	}
	if err := scanner.Err(); err != nil {
		return count, fmt.Errorf("read audit log: %w", err)
	}
	return count, nil
}

// Package-level default writer, wired by the CLI.
var (
	defaultMu     sync.Mutex
	defaultWriter Writer = NopWriter{}
)

// InitFile routes package-level audit logging to a file.
func InitFile(path string) error {
	w, err := NewFileWriter(path)
	if err != nil {
		return err
	}
	defaultMu.Lock()
	defer defaultMu.Unlock()
	defaultWriter = w
	return nil
}

// Log writes an event to the default writer.
func Log(event *Event) error {
	defaultMu.Lock()
	w := defaultWriter
	defaultMu.Unlock()
	return w.Write(event)
}

// Close closes the default writer and reverts to the no-op writer.
func Close() error {
	defaultMu.Lock()
	defer defaultMu.Unlock()
	err := defaultWriter.Close()
	defaultWriter = NopWriter{}
	return err
}
