// Package fetch performs single-artifact retrievals with timeout, retry and
// atomic staging, and classifies every attempt into a typed outcome.
package fetch

// Kind classifies the result of fetching one artifact. Exactly one outcome
// is recorded per artifact per run.
type Kind string

const (
	// KindFetched means the payload was staged at its local path.
	KindFetched Kind = "fetched"
	// KindNotYetPublished means the remote reported the artifact missing
	// while its cycle is still young enough that absence is expected.
	KindNotYetPublished Kind = "not_yet_published"
	// KindNotFound means the remote reported an old artifact missing,
	// which usually indicates a retracted or never-published product.
	KindNotFound Kind = "not_found"
	// KindTransient means retries were exhausted on recoverable failures.
	KindTransient Kind = "transient_error"
	// KindPermanent means a non-recoverable condition; never retried.
	KindPermanent Kind = "permanent_error"
)

// Outcome is the typed result of one artifact retrieval.
type Outcome struct {
	Kind      Kind
	Bytes     int64
	LocalPath string
	Attempts  int
	Reason    string
}

// Failed reports whether the outcome counts as a failure for run summaries.
// Expected absence is not a failure.
func (o Outcome) Failed() bool {
	return o.Kind == KindTransient || o.Kind == KindPermanent || o.Kind == KindNotFound
}

// Fetched builds a success outcome.
func Fetched(bytes int64, localPath string, attempts int) Outcome {
	return Outcome{Kind: KindFetched, Bytes: bytes, LocalPath: localPath, Attempts: attempts}
}

// NotYetPublished builds the expected-absence outcome.
func NotYetPublished() Outcome {
	return Outcome{Kind: KindNotYetPublished, Attempts: 1}
}

// NotFound builds the unexpected-absence outcome.
func NotFound() Outcome {
	return Outcome{Kind: KindNotFound, Attempts: 1}
}

// Transient builds the retries-exhausted outcome.
func Transient(attempts int, reason string) Outcome {
	return Outcome{Kind: KindTransient, Attempts: attempts, Reason: reason}
}

// Permanent builds the non-retryable failure outcome.
func Permanent(reason string) Outcome {
	return Outcome{Kind: KindPermanent, Attempts: 1, Reason: reason}
}
