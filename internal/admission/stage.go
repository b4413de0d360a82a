package admission

// Stage is a step of the admission state machine:
//
//	RECEIVED -> ACCESS_CHECKED -> RATE_CHECKED -> EXECUTED -> [PAGINATED] -> RESPONDED
//
// ACCESS_CHECKED, RATE_CHECKED and EXECUTED may instead move to REJECTED,
// which ends the request.
type Stage int

const (
	StageReceived Stage = iota
	StageAccessChecked
	StageRateChecked
	StageExecuted
	StagePaginated
	StageResponded
	StageRejected
)

func (s Stage) String() string {
	switch s {
	case StageReceived:
		return "RECEIVED"
	case StageAccessChecked:
		return "ACCESS_CHECKED"
	case StageRateChecked:
		return "RATE_CHECKED"
	case StageExecuted:
		return "EXECUTED"
	case StagePaginated:
		return "PAGINATED"
	case StageResponded:
		return "RESPONDED"
	case StageRejected:
		return "REJECTED"
	default:
		return "UNKNOWN"
	}
}

// Observer is told about every stage a request enters.
type Observer func(req *Request, stage Stage)
