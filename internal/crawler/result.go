package crawler

// Outcome is the kind of a container Result.
type Outcome int

const (
	// OutcomeOK means a listing was produced
	OutcomeOK Outcome = iota
	// OutcomeSkip means the container lacked a required field
	OutcomeSkip
	// OutcomeFailure means processing the container raised an error
	OutcomeFailure
)

// Result is the outcome of processing one deal container.
type Result struct {
	Outcome Outcome
	Listing Listing
	Reason  string
	Err     error
}

// OK wraps a produced listing.
func OK(listing Listing) Result {
	return Result{Outcome: OutcomeOK, Listing: listing}
}

// Skip records why a container produced nothing.
func Skip(reason string) Result {
	return Result{Outcome: OutcomeSkip, Reason: reason}
}

// Failure records an error raised while processing a container.
func Failure(err error) Result {
	return Result{Outcome: OutcomeFailure, Err: err, Reason: err.Error()}
}
