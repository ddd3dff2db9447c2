package effectiveclass

import "github.com/osis-hub/osis-attribution/internal/domain/learningunit"

// QuadrimesterRule lists the derogation quadrimesters a class may declare
// under a given learning unit quadrimester.
type QuadrimesterRule struct {
	Allowed     []learningunit.Quadrimester
	Description string
}

// Allows reports whether q is in the allowed set.
func (r QuadrimesterRule) Allows(q learningunit.Quadrimester) bool {
	for _, a := range r.Allowed {
		if a == q {
			return true
		}
	}
	return false
}

// SessionRule lists the derogation sessions a class may declare under a
// given learning unit session.
type SessionRule struct {
	Allowed     []learningunit.Session
	Description string
}

// Allows reports whether s is in the allowed set.
func (r SessionRule) Allows(s learningunit.Session) bool {
	for _, a := range r.Allowed {
		if a == s {
			return true
		}
	}
	return false
}

// QuadrimesterCompatibility is keyed by the learning unit's quadrimester.
var QuadrimesterCompatibility = map[learningunit.Quadrimester]QuadrimesterRule{
	learningunit.Q1: {
		Allowed:     []learningunit.Quadrimester{learningunit.Q1},
		Description: "Q1",
	},
	learningunit.Q2: {
		Allowed:     []learningunit.Quadrimester{learningunit.Q2},
		Description: "Q2",
	},
	learningunit.Q3: {
		Allowed:     []learningunit.Quadrimester{learningunit.Q3},
		Description: "Q3",
	},
	learningunit.Q1and2: {
		Allowed:     []learningunit.Quadrimester{learningunit.Q1, learningunit.Q2, learningunit.Q1and2},
		Description: "Q1, Q2 or Q1and2",
	},
	learningunit.Q1or2: {
		Allowed:     []learningunit.Quadrimester{learningunit.Q1, learningunit.Q2, learningunit.Q1or2},
		Description: "Q1, Q2 or Q1or2",
	},
}

// SessionCompatibility is keyed by the learning unit's session.
var SessionCompatibility = map[learningunit.Session]SessionRule{
	learningunit.Session1: {
		Allowed:     []learningunit.Session{learningunit.Session1},
		Description: "1",
	},
	learningunit.Session2: {
		Allowed:     []learningunit.Session{learningunit.Session2},
		Description: "2",
	},
	learningunit.Session3: {
		Allowed:     []learningunit.Session{learningunit.Session3},
		Description: "3",
	},
	learningunit.Session12: {
		Allowed:     []learningunit.Session{learningunit.Session1, learningunit.Session2, learningunit.Session12},
		Description: "1, 2 or 12",
	},
	learningunit.Session13: {
		Allowed:     []learningunit.Session{learningunit.Session1, learningunit.Session3, learningunit.Session13},
		Description: "1, 3 or 13",
	},
	learningunit.Session23: {
		Allowed:     []learningunit.Session{learningunit.Session2, learningunit.Session3, learningunit.Session23},
		Description: "2, 3 or 23",
	},
	learningunit.Session123: {
		Allowed: []learningunit.Session{
			learningunit.Session1, learningunit.Session2, learningunit.Session3,
			learningunit.Session12, learningunit.Session13, learningunit.Session23,
			learningunit.Session123,
		},
		Description: "1, 2, 3, 12, 13, 23 or 123",
	},
	learningunit.SessionP23: {
		Allowed:     []learningunit.Session{learningunit.Session2, learningunit.Session3, learningunit.Session23, learningunit.SessionP23},
		Description: "2, 3, 23 or P23",
	},
}

// IsQuadrimesterCompatible reports whether a class quadrimester fits the
// learning unit's. Empty values on either side are always compatible.
func IsQuadrimesterCompatible(unit, class learningunit.Quadrimester) bool {
	if unit == learningunit.NoQuadri || class == learningunit.NoQuadri {
		return true
	}
	rule, ok := QuadrimesterCompatibility[unit]
	if !ok {
		return true
	}
	return rule.Allows(class)
}

// IsSessionCompatible reports whether a class session fits the learning
// unit's. Empty values on either side are always compatible.
func IsSessionCompatible(unit, class learningunit.Session) bool {
	if unit == learningunit.NoSession || class == learningunit.NoSession {
		return true
	}
	rule, ok := SessionCompatibility[unit]
	if !ok {
		return true
	}
	return rule.Allows(class)
}
