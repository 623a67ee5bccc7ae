package models

// StepID identifies a wizard step. Values are stable across feature flag
// changes so a persisted step keeps its meaning; the displayed position is
// always computed from the active Topology.
type StepID int

const (
	StepPhone    StepID = 1
	StepVerify   StepID = 2
	StepReferral StepID = 3
	StepPersonal StepID = 4
	StepAddress  StepID = 5
	StepKinship  StepID = 6
	StepPlan     StepID = 7
)

var stepNames = map[StepID]string{
	StepPhone:    "phone",
	StepVerify:   "verify",
	StepReferral: "referral",
	StepPersonal: "personal",
	StepAddress:  "address",
	StepKinship:  "kinship",
	StepPlan:     "plan",
}

func (s StepID) String() string {
	if name, ok := stepNames[s]; ok {
		return name
	}
	return "unknown"
}

// Valid reports whether s is a known step identifier.
func (s StepID) Valid() bool {
	_, ok := stepNames[s]
	return ok
}

// Flags are the feature switches that shape the topology.
type Flags struct {
	PhoneVerification bool
	Referral          bool
}

// Topology is the ordered, flag-dependent list of steps. The plan step is
// always present and always terminal.
type Topology struct {
	steps []StepID
}

// NewTopology computes the step order for the given flags.
func NewTopology(f Flags) Topology {
	steps := []StepID{StepPhone}
	if f.PhoneVerification {
		steps = append(steps, StepVerify)
	}
	if f.Referral {
		steps = append(steps, StepReferral)
	}
	steps = append(steps, StepPersonal, StepAddress, StepKinship, StepPlan)
	return Topology{steps: steps}
}

// Steps returns a copy of the ordered steps.
func (t Topology) Steps() []StepID {
	out := make([]StepID, len(t.steps))
	copy(out, t.steps)
	return out
}

func (t Topology) Len() int { return len(t.steps) }

func (t Topology) First() StepID { return t.steps[0] }

func (t Topology) Terminal() StepID { return t.steps[len(t.steps)-1] }

func (t Topology) IsTerminal(s StepID) bool { return s == t.Terminal() }

func (t Topology) Contains(s StepID) bool {
	return t.index(s) >= 0
}

// Position returns the 1-based displayed position of s, or 0 when the
// topology omits it.
func (t Topology) Position(s StepID) int {
	return t.index(s) + 1
}

// Next returns the step after s. ok is false for the terminal step or a step
// the topology does not contain.
func (t Topology) Next(s StepID) (StepID, bool) {
	i := t.index(s)
	if i < 0 || i == len(t.steps)-1 {
		return s, false
	}
	return t.steps[i+1], true
}

// Prev returns the step before s, skipping any step the topology omits.
// The first step is its own predecessor.
func (t Topology) Prev(s StepID) StepID {
	if i := t.index(s); i >= 0 {
		if i == 0 {
			return t.steps[0]
		}
		return t.steps[i-1]
	}
	// s is not part of this topology: land on the closest earlier step.
	prev := t.steps[0]
	for _, step := range t.steps {
		if step >= s {
			break
		}
		prev = step
	}
	return prev
}

// Clamp maps a persisted step onto the topology. Steps the topology omits
// map to the nearest preceding present step.
func (t Topology) Clamp(s StepID) StepID {
	if t.Contains(s) {
		return s
	}
	if s > t.Terminal() {
		return t.Terminal()
	}
	return t.Prev(s)
}

func (t Topology) index(s StepID) int {
	for i, step := range t.steps {
		if step == s {
			return i
		}
	}
	return -1
}
