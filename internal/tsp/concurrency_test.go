package tsp

import (
	"fmt"
	"math/big"
	"sync"
	"sync/atomic"
	"testing"
)

// =============================================================================
// Concurrency Tests
// =============================================================================

// TestConcurrency_CreateTimestamp_Concurrent validates that one factory can
// serve simultaneous issuances without mutating shared state.
func TestConcurrency_CreateTimestamp_Concurrent(t *testing.T) {
	cert, key := createSelfSignedTSA(t)
	factory := newTestFactory(t)

	const numGoroutines = 50
	var wg sync.WaitGroup
	var successCount int32
	errs := make(chan error, numGoroutines)

	wg.Add(numGoroutines)
	for i := 0; i < numGoroutines; i++ {
		go func(id int) {
			defer wg.Done()

			req := NewRequest()
			if err := req.SetHashAlgorithm("SHA256"); err != nil {
				errs <- fmt.Errorf("goroutine %d: SetHashAlgorithm failed: %w", id, err)
				return
			}
			imprint, err := ComputeImprint(req.HashAlgorithm(), []byte(fmt.Sprintf("test data %d", id)))
			if err != nil {
				errs <- fmt.Errorf("goroutine %d: ComputeImprint failed: %w", id, err)
				return
			}
			if err := req.SetMessageImprint(imprint); err != nil {
				errs <- fmt.Errorf("goroutine %d: SetMessageImprint failed: %w", id, err)
				return
			}
			if err := req.SetNonce(big.NewInt(int64(id + 1))); err != nil {
				errs <- fmt.Errorf("goroutine %d: SetNonce failed: %w", id, err)
				return
			}

			token, err := factory.CreateTimestamp(key, cert, req)
			if err != nil {
				errs <- fmt.Errorf("goroutine %d: CreateTimestamp failed: %w", id, err)
				return
			}
			if token == nil || token.Info == nil {
				errs <- fmt.Errorf("goroutine %d: CreateTimestamp returned nil token or info", id)
				return
			}
			if token.Nonce().Cmp(big.NewInt(int64(id+1))) != 0 {
				errs <- fmt.Errorf("goroutine %d: nonce mismatch", id)
				return
			}

			atomic.AddInt32(&successCount, 1)
		}(i)
	}

	wg.Wait()
	close(errs)

	for err := range errs {
		t.Error(err)
	}

	if int(successCount) != numGoroutines {
		t.Errorf("Expected %d successful tokens, got %d", numGoroutines, successCount)
	}
}

// TestConcurrency_Verify_Concurrent validates that Verify is safe to call
// repeatedly from multiple goroutines on the same token.
func TestConcurrency_Verify_Concurrent(t *testing.T) {
	chain := createTestChain(t)
	factory := newTestFactory(t)
	factory.AdditionalCerts = append(factory.AdditionalCerts, chain.Intermediate)

	req := newTestRequest(t, "SHA256", []byte("shared document"))
	token, err := factory.CreateTimestamp(chain.LeafKey, chain.Leaf, req)
	if err != nil {
		t.Fatalf("CreateTimestamp failed: %v", err)
	}

	const numGoroutines = 50
	var wg sync.WaitGroup
	var successCount int32
	errs := make(chan error, numGoroutines)

	wg.Add(numGoroutines)
	for i := 0; i < numGoroutines; i++ {
		go func(id int) {
			defer wg.Done()

			if err := Verify(token, req, chain.Root); err != nil {
				errs <- fmt.Errorf("goroutine %d: Verify failed: %w", id, err)
				return
			}
			atomic.AddInt32(&successCount, 1)
		}(i)
	}

	wg.Wait()
	close(errs)

	for err := range errs {
		t.Error(err)
	}

	if int(successCount) != numGoroutines {
		t.Errorf("Expected %d successful verifications, got %d", numGoroutines, successCount)
	}
}

// TestConcurrency_Request_MarshalParse exercises concurrent request
// construction, marshaling and parsing.
func TestConcurrency_Request_MarshalParse(t *testing.T) {
	const numGoroutines = 50
	var wg sync.WaitGroup
	var successCount int32
	errs := make(chan error, numGoroutines)

	wg.Add(numGoroutines)
	for i := 0; i < numGoroutines; i++ {
		go func(id int) {
			defer wg.Done()

			req := NewRequest()
			if err := req.SetHashAlgorithm("SHA256"); err != nil {
				errs <- fmt.Errorf("goroutine %d: SetHashAlgorithm failed: %w", id, err)
				return
			}
			imprint, err := ComputeImprint(req.HashAlgorithm(), []byte(fmt.Sprintf("request %d", id)))
			if err != nil {
				errs <- fmt.Errorf("goroutine %d: ComputeImprint failed: %w", id, err)
				return
			}
			if err := req.SetMessageImprint(imprint); err != nil {
				errs <- fmt.Errorf("goroutine %d: SetMessageImprint failed: %w", id, err)
				return
			}

			data, err := req.Marshal()
			if err != nil {
				errs <- fmt.Errorf("goroutine %d: Marshal failed: %w", id, err)
				return
			}

			parsed, err := ParseRequest(data)
			if err != nil {
				errs <- fmt.Errorf("goroutine %d: ParseRequest failed: %w", id, err)
				return
			}
			if parsed.Version() != 1 {
				errs <- fmt.Errorf("goroutine %d: version mismatch", id)
				return
			}

			atomic.AddInt32(&successCount, 1)
		}(i)
	}

	wg.Wait()
	close(errs)

	for err := range errs {
		t.Error(err)
	}

	if int(successCount) != numGoroutines {
		t.Errorf("Expected %d successful operations, got %d", numGoroutines, successCount)
	}
}
