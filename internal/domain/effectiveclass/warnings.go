package effectiveclass

import (
	"fmt"

	"github.com/osis-hub/osis-attribution/internal/domain/learningunit"
	"github.com/osis-hub/osis-attribution/internal/domain/shared"
)

// Warnings returns advisory messages about data quality issues between a
// class and its learning unit. It never fails; an empty slice means the
// class is consistent.
func Warnings(class *EffectiveClass, lu *learningunit.LearningUnit) []string {
	warnings := make([]string, 0)
	warnings = append(warnings, volumeWarnings(class, lu)...)
	warnings = append(warnings, quadrimesterWarnings(class, lu)...)
	if w, ok := sessionWarning(class, lu); ok {
		warnings = append(warnings, w)
	}
	return warnings
}

func volumeWarnings(class *EffectiveClass, lu *learningunit.LearningUnit) []string {
	part := class.Type.Part(lu)
	acronym := class.CompleteAcronym()
	var out []string

	if class.IsVolumeFirstQuadrimesterGreaterThan(shared.OrZero(part.Volumes.VolumeFirstQuadrimester)) {
		out = append(out, fmt.Sprintf(
			"The volume of Q1 of class %s (%s) is greater than the Q1 volume of the learning unit (%s)",
			acronym, shared.OrZero(class.Volumes.VolumeFirstQuadrimester), shared.OrZero(part.Volumes.VolumeFirstQuadrimester)))
	}
	if class.IsVolumeSecondQuadrimesterGreaterThan(shared.OrZero(part.Volumes.VolumeSecondQuadrimester)) {
		out = append(out, fmt.Sprintf(
			"The volume of Q2 of class %s (%s) is greater than the Q2 volume of the learning unit (%s)",
			acronym, shared.OrZero(class.Volumes.VolumeSecondQuadrimester), shared.OrZero(part.Volumes.VolumeSecondQuadrimester)))
	}
	if class.IsVolumeTotalGreaterThan(part.Volumes.Annual()) {
		out = append(out, fmt.Sprintf(
			"The total volume of class %s (%s) is greater than the annual volume of the learning unit (%s)",
			acronym, class.Volumes.TotalVolume(), part.Volumes.Annual()))
	}
	return out
}

func quadrimesterWarnings(class *EffectiveClass, lu *learningunit.LearningUnit) []string {
	var out []string
	acronym := class.CompleteAcronym()

	if !IsQuadrimesterCompatible(lu.DerogationQuadrimester, class.DerogationQuadrimester) {
		out = append(out, fmt.Sprintf(
			"The quadrimester of class %s (%s) is not consistent with the quadrimester of the learning unit (%s): allowed values are %s",
			acronym, class.DerogationQuadrimester, lu.DerogationQuadrimester,
			QuadrimesterCompatibility[lu.DerogationQuadrimester].Description))
	}

	q1 := shared.IsFilled(class.Volumes.VolumeFirstQuadrimester)
	q2 := shared.IsFilled(class.Volumes.VolumeSecondQuadrimester)

	switch class.DerogationQuadrimester {
	case learningunit.Q1:
		if !q1 || q2 {
			out = append(out, fmt.Sprintf("Class %s is taught in Q1: only the Q1 volume should be filled in", acronym))
		}
	case learningunit.Q2:
		if q1 || !q2 {
			out = append(out, fmt.Sprintf("Class %s is taught in Q2: only the Q2 volume should be filled in", acronym))
		}
	case learningunit.Q1and2:
		if !q1 || !q2 {
			out = append(out, fmt.Sprintf("Class %s is taught in Q1 and Q2: both volumes should be filled in", acronym))
		}
	case learningunit.Q1or2:
		if q1 == q2 {
			out = append(out, fmt.Sprintf("Class %s is taught in Q1 or Q2: exactly one of the volumes should be filled in", acronym))
		}
	case learningunit.Q3, learningunit.NoQuadri:
	}
	return out
}

func sessionWarning(class *EffectiveClass, lu *learningunit.LearningUnit) (string, bool) {
	if IsSessionCompatible(lu.DerogationSession, class.DerogationSession) {
		return "", false
	}
	return fmt.Sprintf(
		"The session of class %s (%s) is not consistent with the session of the learning unit (%s): allowed values are %s",
		class.CompleteAcronym(), class.DerogationSession, lu.DerogationSession,
		SessionCompatibility[lu.DerogationSession].Description), true
}
