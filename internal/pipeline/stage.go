package pipeline

// Stage is how far a target got in one pipeline run.
type Stage int

const (
	NotBuilt Stage = iota
	Built
	Tested
	Packaged
)

func (s Stage) String() string {
	switch s {
	case NotBuilt:
		return "not built"
	case Built:
		return "built"
	case Tested:
		return "tested"
	case Packaged:
		return "packaged"
	}
	return "unknown"
}
