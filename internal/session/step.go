package session

// Step: шаг мастера NFS-e, на котором сейчас находится документ
type Step int

const (
	StepNone Step = iota
	StepPayer
	StepServices
	StepValues
	StepIssued
)

func (s Step) String() string {
	switch s {
	case StepNone:
		return "none"
	case StepPayer:
		return "payer"
	case StepServices:
		return "services"
	case StepValues:
		return "values"
	case StepIssued:
		return "issued"
	default:
		return "unknown"
	}
}
