package fetch

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/floodcast/hydrofetch/internal/ratelimit"
	"github.com/floodcast/hydrofetch/internal/sources"
)

// Credentials are basic-auth credentials for password-protected sources.
// Provisioning them is the caller's concern; the worker only attaches them.
type Credentials struct {
	Username string
	Password string
}

// Request describes one artifact retrieval.
type Request struct {
	ID        sources.ArtifactID
	URL       string
	LocalPath string

	// MinBytes is the smallest acceptable payload. Upstream servers
	// sometimes publish zero-byte placeholders before the real grid lands.
	MinBytes int64

	// Recent marks artifacts whose cycle is young enough that a remote
	// "not found" means not-yet-published rather than missing.
	Recent bool

	// Check validates the staged payload before the atomic rename.
	// Nil means size-only.
	Check IntegrityCheck
}

// Worker performs single-artifact retrievals. The limiter and retry policy
// are supplied by the coordinator; the worker never builds its own.
type Worker struct {
	client  *http.Client
	limiter ratelimit.Limiter
	policy  ratelimit.RetryPolicy
	creds   *Credentials
}

// NewWorker creates a fetch worker. A nil client gets a 60-second timeout
// default, a nil limiter runs unlimited.
func NewWorker(client *http.Client, limiter ratelimit.Limiter, policy ratelimit.RetryPolicy) *Worker {
	if client == nil {
		client = &http.Client{Timeout: 60 * time.Second}
	}
	if limiter == nil {
		limiter = ratelimit.Unlimited{}
	}
	return &Worker{client: client, limiter: limiter, policy: policy}
}

// WithCredentials returns a copy of the worker that attaches basic auth to
// every request.
func (w *Worker) WithCredentials(creds Credentials) *Worker {
	cp := *w
	cp.creds = &creds
	return &cp
}

// Fetch retrieves one artifact and classifies the result. Transient failures
// (network errors, timeouts, 5xx responses, truncated payloads) are retried
// with the policy's backoff; everything else resolves on the first attempt.
// The payload is staged to a temporary file and renamed into place only
// after the integrity check passes, so an interrupted transfer never leaves
// a partial file at the destination path.
func (w *Worker) Fetch(ctx context.Context, req Request) Outcome {
	attempt := 0
	for {
		attempt++

		if err := w.limiter.Wait(ctx); err != nil {
			// This attempt never issued a request, so it does not count.
			return Transient(attempt-1, "run deadline exceeded")
		}

		outcome, retryable := w.attempt(ctx, req, attempt)
		if !retryable {
			return outcome
		}
		if !w.policy.ShouldRetry(attempt) {
			return outcome
		}

		select {
		case <-time.After(w.policy.Backoff(attempt)):
		case <-ctx.Done():
			return Transient(attempt, "run deadline exceeded")
		}
	}
}

// attempt performs one retrieval. The second return value reports whether
// the failure may be retried.
func (w *Worker) attempt(ctx context.Context, req Request, attempt int) (Outcome, bool) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, req.URL, nil)
	if err != nil {
		return Permanent(fmt.Sprintf("malformed address: %v", err)), false
	}
	if w.creds != nil {
		httpReq.SetBasicAuth(w.creds.Username, w.creds.Password)
	}

	resp, err := w.client.Do(httpReq)
	if err != nil {
		if ctx.Err() != nil {
			return Transient(attempt, "run deadline exceeded"), false
		}
		return Transient(attempt, err.Error()), true
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	switch {
	case resp.StatusCode == http.StatusOK:
		// Staged below.
	case resp.StatusCode == http.StatusNotFound:
		if req.Recent {
			return NotYetPublished(), false
		}
		return NotFound(), false
	case resp.StatusCode >= 500:
		return Transient(attempt, fmt.Sprintf("server error: status %d", resp.StatusCode)), true
	default:
		return Permanent(fmt.Sprintf("unexpected status %d", resp.StatusCode)), false
	}

	n, err := w.stage(resp.Body, req)
	if err != nil {
		if perr, ok := err.(*integrityError); ok {
			// A truncated or placeholder payload may be complete on the
			// next attempt.
			return Transient(attempt, perr.reason), true
		}
		return Permanent(err.Error()), false
	}
	return Fetched(n, req.LocalPath, attempt), false
}

type integrityError struct {
	reason string
}

func (e *integrityError) Error() string { return e.reason }

// stage streams the payload to a temporary file beside the destination,
// verifies it, and renames it into place. The rename is atomic on POSIX
// filesystems, so downstream consumers only ever see complete artifacts.
func (w *Worker) stage(body io.Reader, req Request) (int64, error) {
	dir := filepath.Dir(req.LocalPath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return 0, fmt.Errorf("create staging directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(req.LocalPath)+".part")
	if err != nil {
		return 0, fmt.Errorf("create temporary file: %w", err)
	}
	tmpName := tmp.Name()
	defer func() {
		_ = os.Remove(tmpName)
	}()

	n, err := io.Copy(tmp, body)
	if cerr := tmp.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return 0, &integrityError{reason: fmt.Sprintf("transfer interrupted: %v", err)}
	}

	if req.MinBytes > 0 && n < req.MinBytes {
		return 0, &integrityError{reason: fmt.Sprintf("payload %d bytes, below minimum %d", n, req.MinBytes)}
	}
	if req.Check != nil {
		f, err := os.Open(tmpName)
		if err != nil {
			return 0, fmt.Errorf("reopen staged payload: %w", err)
		}
		cerr := req.Check(f)
		_ = f.Close()
		if cerr != nil {
			return 0, &integrityError{reason: fmt.Sprintf("integrity check failed: %v", cerr)}
		}
	}

	if err := os.Rename(tmpName, req.LocalPath); err != nil {
		return 0, fmt.Errorf("rename into place: %w", err)
	}
	return n, nil
}
