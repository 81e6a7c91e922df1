package domain

// Verdict classifies the outcome of a resolution.
type Verdict string

const (
	VerdictSuccess      Verdict = "SUCCESS"
	VerdictDeadLink     Verdict = "DEAD_LINK"
	VerdictForbidden    Verdict = "FORBIDDEN"
	VerdictNetworkError Verdict = "NETWORK_ERROR"
	VerdictUnknownError Verdict = "UNKNOWN_ERROR"
)

// ClassifyVerdict reduces the aggregate of all failed attempts to a verdict.
// The mapping is strict: a uniform failure class across every attempt is
// required before blaming the destination (DEAD_LINK), the blocker
// (FORBIDDEN) or the network (NETWORK_ERROR).
func ClassifyVerdict(attempts []Attempt) Verdict {
	if len(attempts) == 0 {
		return VerdictUnknownError
	}

	allNotFound := true
	allForbidden := true
	allNoResponse := true

	for _, a := range attempts {
		if a.Success {
			return VerdictSuccess
		}
		if a.ErrorClass != ErrClassNotFound {
			allNotFound = false
		}
		if a.ErrorClass != ErrClassForbidden {
			allForbidden = false
		}
		// "No response at all" means a transport-level failure: no status
		// code ever came back. Policy-synthesized attempts count too since
		// they performed no I/O.
		if a.Status != nil {
			allNoResponse = false
		} else if a.ErrorClass != ErrClassTimeout && a.ErrorClass != ErrClassNetwork && a.ErrorClass != ErrClassPolicy {
			allNoResponse = false
		}
	}

	switch {
	case allNotFound:
		return VerdictDeadLink
	case allForbidden:
		return VerdictForbidden
	case allNoResponse:
		return VerdictNetworkError
	default:
		return VerdictUnknownError
	}
}

// Recommend returns the human-readable guidance attached to a failure verdict.
func Recommend(v Verdict) string {
	switch v {
	case VerdictSuccess:
		return "Stream is reachable."
	case VerdictDeadLink:
		return "Every route reported the stream as gone. The channel has most likely moved; try submitting an alternate URL."
	case VerdictForbidden:
		return "Every route was refused by the origin. The stream is probably geo-blocked or requires authentication."
	case VerdictNetworkError:
		return "No route produced any response. Check your connection, or retry later in case the origin is down."
	default:
		return "Attempts failed for mixed reasons. Inspect the forensic log for per-attempt detail."
	}
}
