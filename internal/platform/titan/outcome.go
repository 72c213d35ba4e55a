package titan

// Outcome is the uniform result classification every store call reduces to
// before the retry loop inspects it.
type Outcome int

const (
	// Success means the call returned 200 with a usable body.
	Success Outcome = iota

	// Unauthorized means the call returned 401; the caller's token is stale
	// and must not be reused.
	Unauthorized

	// Failure covers everything else: transport errors, non-200/401 statuses
	// and bodies that do not have the expected shape. Failures are retryable.
	Failure
)

// String implements fmt.Stringer.
func (o Outcome) String() string {
	switch o {
	case Success:
		return "success"
	case Unauthorized:
		return "unauthorized"
	default:
		return "failure"
	}
}
