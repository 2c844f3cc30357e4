package stats

import "strings"

// DataType is the type of the samples a statistic records.
type DataType int

const (
	Integer DataType = iota
	Time
	Float
)

var dataTypeNames = map[DataType]string{
	Integer: "integer",
	Time:    "time",
	Float:   "float",
}

func (d DataType) String() string {
	if s, ok := dataTypeNames[d]; ok {
		return s
	}
	return "unknown"
}

// ParseDataType maps "integer", "time" or "float" to a DataType.
func ParseDataType(s string) (DataType, error) {
	for d, name := range dataTypeNames {
		if strings.EqualFold(s, name) {
			return d, nil
		}
	}
	return 0, invalidf("data type %q", s)
}

// Kind is the closed set of statistic variants.
type Kind int

const (
	RunningInteger Kind = iota
	RunningTime
	RunningFloat
	WindowInteger
	WindowTime
	WindowFloat
	EventCounter
)

var kindNames = []string{
	RunningInteger: "running-integer",
	RunningTime:    "running-time",
	RunningFloat:   "running-float",
	WindowInteger:  "window-integer",
	WindowTime:     "window-time",
	WindowFloat:    "window-float",
	EventCounter:   "event-counter",
}

func (k Kind) String() string {
	if k >= 0 && int(k) < len(kindNames) {
		return kindNames[k]
	}
	return "unknown"
}

// RunningKind returns the running kind for a data type.
func RunningKind(d DataType) Kind {
	switch d {
	case Time:
		return RunningTime
	case Float:
		return RunningFloat
	default:
		return RunningInteger
	}
}

// WindowKind returns the window kind for a data type.
func WindowKind(d DataType) Kind {
	switch d {
	case Time:
		return WindowTime
	case Float:
		return WindowFloat
	default:
		return WindowInteger
	}
}

// DataType returns the sample type of the kind. Counters count integers.
func (k Kind) DataType() DataType {
	switch k {
	case RunningTime, WindowTime:
		return Time
	case RunningFloat, WindowFloat:
		return Float
	default:
		return Integer
	}
}

// IsWindow reports whether the kind keeps a window of recent samples.
func (k Kind) IsWindow() bool {
	return k == WindowInteger || k == WindowTime || k == WindowFloat
}
