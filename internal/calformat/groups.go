package calformat

import "strconv"

// groupSet keeps day groups in first-seen label order
type groupSet struct {
	groups []DayGroup
	index  map[string]int
}

func newGroupSet() *groupSet {
	return &groupSet{index: make(map[string]int)}
}

// open starts an empty group under label and returns the label actually used.
// An existing group with the same label is emptied in place and keeps its
// position, unless disambiguate is set, in which case the new group gets the
// first free " (n)" suffix.
func (s *groupSet) open(label string, disambiguate bool) string {
	if i, ok := s.index[label]; ok {
		if !disambiguate {
			s.groups[i].Lines = nil
			return label
		}
		base := label
		for n := 2; s.has(label); n++ {
			label = base + " (" + strconv.Itoa(n) + ")"
		}
	}
	s.index[label] = len(s.groups)
	s.groups = append(s.groups, DayGroup{Label: label})
	return label
}

// append adds a line to label's group, creating the group when needed
func (s *groupSet) append(label string, line Line) {
	i, ok := s.index[label]
	if !ok {
		i = len(s.groups)
		s.index[label] = i
		s.groups = append(s.groups, DayGroup{Label: label})
	}
	s.groups[i].Lines = append(s.groups[i].Lines, line)
}

func (s *groupSet) has(label string) bool {
	_, ok := s.index[label]
	return ok
}

// list returns the groups in first-seen order. Lines is never nil.
func (s *groupSet) list() []DayGroup {
	out := make([]DayGroup, len(s.groups))
	for i, g := range s.groups {
		if g.Lines == nil {
			g.Lines = []Line{}
		}
		out[i] = g
	}
	return out
}
