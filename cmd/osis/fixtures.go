package main

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"

	"github.com/osis-hub/osis-attribution/internal/domain/attribution"
	"github.com/osis-hub/osis-attribution/internal/domain/effectiveclass"
	"github.com/osis-hub/osis-attribution/internal/domain/learningunit"
)

// ══════════════════════════════════════════════════════════════════════════════
// FIXTURE FILE
// Volumes are strings so that "10.5" keeps its exact decimal value.
// ══════════════════════════════════════════════════════════════════════════════

type fixtureFile struct {
	LearningUnits []learningUnitFixture `yaml:"learning_units"`
	Classes       []classFixture        `yaml:"effective_classes"`
	Attributions  []attributionFixture  `yaml:"attributions"`
	Tutors        []tutorFixture        `yaml:"tutors"`
}

type learningUnitFixture struct {
	Code                   string           `yaml:"code"`
	Year                   int              `yaml:"year"`
	Type                   string           `yaml:"type"`
	TitleFr                string           `yaml:"title_fr"`
	TitleEn                string           `yaml:"title_en"`
	Credits                string           `yaml:"credits"`
	Lecturing              partFixture      `yaml:"lecturing"`
	Practical              partFixture      `yaml:"practical"`
	Partims                []partimFixture  `yaml:"partims"`
	DerogationQuadrimester string           `yaml:"derogation_quadrimester"`
	DerogationSession      string           `yaml:"derogation_session"`
	External               *externalFixture `yaml:"external"`

	// ProposalYears lists the years a modification proposal was filed for
	// this code.
	ProposalYears []int    `yaml:"proposal_years"`
	Enrollments   []string `yaml:"enrollments"`
}

type partFixture struct {
	Acronym                      string `yaml:"acronym"`
	VolumeQ1                     string `yaml:"volume_q1"`
	VolumeQ2                     string `yaml:"volume_q2"`
	VolumeAnnual                 string `yaml:"volume_annual"`
	PlannedClasses               int    `yaml:"planned_classes"`
	RequirementEntity            string `yaml:"requirement_entity"`
	AdditionalRequirementEntity1 string `yaml:"additional_requirement_entity_1"`
	AdditionalRequirementEntity2 string `yaml:"additional_requirement_entity_2"`
}

type partimFixture struct {
	Subdivision string `yaml:"subdivision"`
	Credits     string `yaml:"credits"`
}

type externalFixture struct {
	Acronym  string `yaml:"acronym"`
	Credits  string `yaml:"credits"`
	Mobility bool   `yaml:"mobility"`
}

type classFixture struct {
	ClassCode         string `yaml:"class_code"`
	LearningUnitCode  string `yaml:"learning_unit_code"`
	Year              int    `yaml:"year"`
	Type              string `yaml:"type"`
	TitleFr           string `yaml:"title_fr"`
	TitleEn           string `yaml:"title_en"`
	TeachingPlaceUUID string `yaml:"teaching_place_uuid"`
	TeachingPlaceName string `yaml:"teaching_place_name"`
	Quadrimester      string `yaml:"derogation_quadrimester"`
	Session           string `yaml:"derogation_session"`
	VolumeQ1          string `yaml:"volume_q1"`
	VolumeQ2          string `yaml:"volume_q2"`
}

type attributionFixture struct {
	UUID                  string `yaml:"uuid"`
	TutorPersonalIDNumber string `yaml:"tutor_personal_id_number"`
	FirstName             string `yaml:"first_name"`
	LastName              string `yaml:"last_name"`
	Function              string `yaml:"function"`
	LearningUnitCode      string `yaml:"learning_unit_code"`
	Year                  int    `yaml:"year"`
	AttributedVolume      string `yaml:"attributed_volume"`
}

type tutorFixture struct {
	PersonalIDNumber string               `yaml:"personal_id_number"`
	FirstName        string               `yaml:"first_name"`
	LastName         string               `yaml:"last_name"`
	Repartitions     []repartitionFixture `yaml:"repartitions"`
}

type repartitionFixture struct {
	ClassCode        string `yaml:"class_code"`
	LearningUnitCode string `yaml:"learning_unit_code"`
	Year             int    `yaml:"year"`
	AttributionUUID  string `yaml:"attribution_uuid"`
	Volume           string `yaml:"volume"`
}

// parseFixtures decodes a fixture file, rejecting unknown keys.
func parseFixtures(data []byte) (*fixtureFile, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	var f fixtureFile
	if err := dec.Decode(&f); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("parse fixtures: %w", err)
	}
	return &f, nil
}

// ══════════════════════════════════════════════════════════════════════════════
// SEED PLAN
// ══════════════════════════════════════════════════════════════════════════════

type enrollment struct {
	unit           learningunit.Identity
	registrationID string
}

// seedPlan is a fixture file converted to domain objects, ready to store.
type seedPlan struct {
	units        []*learningunit.LearningUnit
	proposals    []learningunit.Identity
	enrollments  []enrollment
	classes      []*effectiveclass.EffectiveClass
	attributions []attribution.TutorAttribution
	tutors       []*attribution.Tutor
}

// plan validates every record and builds the domain objects. Nothing is
// stored if any record is malformed.
func (f *fixtureFile) plan() (*seedPlan, error) {
	p := &seedPlan{}
	byID := make(map[learningunit.Identity]*learningunit.LearningUnit, len(f.LearningUnits))

	for i, fx := range f.LearningUnits {
		lu, err := fx.build()
		if err != nil {
			return nil, fmt.Errorf("learning_units[%d]: %w", i, err)
		}
		p.units = append(p.units, lu)
		byID[lu.Identity] = lu

		for _, y := range fx.ProposalYears {
			id, err := learningunit.NewIdentity(fx.Code, y)
			if err != nil {
				return nil, fmt.Errorf("learning_units[%d].proposal_years: %w", i, err)
			}
			p.proposals = append(p.proposals, id)
		}
		for _, reg := range fx.Enrollments {
			p.enrollments = append(p.enrollments, enrollment{unit: lu.Identity, registrationID: strings.TrimSpace(reg)})
		}
	}

	for i, fx := range f.Classes {
		class, err := fx.build(byID)
		if err != nil {
			return nil, fmt.Errorf("effective_classes[%d]: %w", i, err)
		}
		p.classes = append(p.classes, class)
	}

	for i, fx := range f.Attributions {
		a, err := fx.build()
		if err != nil {
			return nil, fmt.Errorf("attributions[%d]: %w", i, err)
		}
		p.attributions = append(p.attributions, a)
	}

	for i, fx := range f.Tutors {
		t, err := fx.build()
		if err != nil {
			return nil, fmt.Errorf("tutors[%d]: %w", i, err)
		}
		p.tutors = append(p.tutors, t)
	}

	return p, nil
}

// apply stores the plan, parents first.
func (p *seedPlan) apply(ctx context.Context, a *app) error {
	for _, lu := range p.units {
		if err := a.units.Save(ctx, lu); err != nil {
			return fmt.Errorf("save %s: %w", lu.Identity, err)
		}
	}
	for _, id := range p.proposals {
		if err := a.units.AddProposal(ctx, id.Code, id.Year); err != nil {
			return fmt.Errorf("add proposal %s: %w", id, err)
		}
	}
	for _, e := range p.enrollments {
		if err := a.units.AddEnrollment(ctx, e.unit, e.registrationID); err != nil {
			return fmt.Errorf("add enrollment on %s: %w", e.unit, err)
		}
	}
	for _, c := range p.classes {
		if err := a.classes.Save(ctx, c); err != nil {
			return fmt.Errorf("save %s: %w", c.Identity, err)
		}
	}
	for _, at := range p.attributions {
		if err := a.attributions.Save(ctx, at); err != nil {
			return fmt.Errorf("save attribution %s: %w", at.Attribution, err)
		}
	}
	for _, t := range p.tutors {
		if err := a.tutors.Save(ctx, t); err != nil {
			return fmt.Errorf("save tutor %s: %w", t.Identity, err)
		}
	}
	return nil
}

func (p *seedPlan) summary() map[string]int {
	repartitions := 0
	for _, t := range p.tutors {
		repartitions += len(t.Repartitions())
	}
	return map[string]int{
		"learning_units": len(p.units),
		"proposals":      len(p.proposals),
		"enrollments":    len(p.enrollments),
		"classes":        len(p.classes),
		"attributions":   len(p.attributions),
		"tutors":         len(p.tutors),
		"repartitions":   repartitions,
	}
}

// ══════════════════════════════════════════════════════════════════════════════
// RECORD BUILDERS
// ══════════════════════════════════════════════════════════════════════════════

func (fx learningUnitFixture) build() (*learningunit.LearningUnit, error) {
	id, err := learningunit.NewIdentity(fx.Code, fx.Year)
	if err != nil {
		return nil, err
	}

	luType := learningunit.Type(strings.TrimSpace(fx.Type))
	if luType == "" {
		luType = learningunit.TypeCourse
	}
	if !luType.IsValid() {
		return nil, fmt.Errorf("unknown type %q", fx.Type)
	}

	quadri := learningunit.Quadrimester(fx.DerogationQuadrimester)
	if !quadri.IsValid() {
		return nil, fmt.Errorf("unknown derogation_quadrimester %q", fx.DerogationQuadrimester)
	}
	session := learningunit.Session(fx.DerogationSession)
	if !session.IsValid() {
		return nil, fmt.Errorf("unknown derogation_session %q", fx.DerogationSession)
	}

	credits, err := parseAmount("credits", fx.Credits)
	if err != nil {
		return nil, err
	}
	lecturing, err := fx.Lecturing.build("lecturing")
	if err != nil {
		return nil, err
	}
	practical, err := fx.Practical.build("practical")
	if err != nil {
		return nil, err
	}

	lu := &learningunit.LearningUnit{
		Identity:               id,
		Type:                   luType,
		Titles:                 learningunit.Titles{Fr: fx.TitleFr, En: fx.TitleEn},
		Credits:                credits,
		LecturingPart:          lecturing,
		PracticalPart:          practical,
		DerogationQuadrimester: quadri,
		DerogationSession:      session,
	}

	for _, pf := range fx.Partims {
		c, err := parseAmount("partims.credits", pf.Credits)
		if err != nil {
			return nil, err
		}
		lu.Partims = append(lu.Partims, learningunit.Partim{Subdivision: strings.TrimSpace(pf.Subdivision), Credits: c})
	}

	if fx.External != nil {
		c, err := parseAmount("external.credits", fx.External.Credits)
		if err != nil {
			return nil, err
		}
		lu.External = &learningunit.ExternalDetails{
			ExternalAcronym: fx.External.Acronym,
			ExternalCredits: c,
			Mobility:        fx.External.Mobility,
		}
	}

	return lu, nil
}

type volumeField struct {
	key string
	raw string
	dst *decimal.NullDecimal
}

func (fx partFixture) build(name string) (learningunit.Part, error) {
	v := learningunit.Volumes{PlannedClasses: fx.PlannedClasses}
	fields := []volumeField{
		{"volume_q1", fx.VolumeQ1, &v.VolumeFirstQuadrimester},
		{"volume_q2", fx.VolumeQ2, &v.VolumeSecondQuadrimester},
		{"volume_annual", fx.VolumeAnnual, &v.VolumeAnnual},
		{"requirement_entity", fx.RequirementEntity, &v.VolumesRepartition.RequirementEntity},
		{"additional_requirement_entity_1", fx.AdditionalRequirementEntity1, &v.VolumesRepartition.AdditionalRequirementEntity1},
		{"additional_requirement_entity_2", fx.AdditionalRequirementEntity2, &v.VolumesRepartition.AdditionalRequirementEntity2},
	}

	for _, f := range fields {
		d, err := parseOptionalVolume(f.raw)
		if err != nil {
			return learningunit.Part{}, fmt.Errorf("%s.%s: %w", name, f.key, err)
		}
		*f.dst = d
	}

	return learningunit.Part{Acronym: fx.Acronym, Volumes: v}, nil
}

// build resolves the class type from the fixture, or from the parent unit
// when the unit is part of the same file.
func (fx classFixture) build(units map[learningunit.Identity]*learningunit.LearningUnit) (*effectiveclass.EffectiveClass, error) {
	id, err := effectiveclass.BuildIdentity(fx.ClassCode, fx.LearningUnitCode, fx.Year)
	if err != nil {
		return nil, err
	}

	classType := effectiveclass.ClassType(strings.TrimSpace(fx.Type))
	switch classType {
	case effectiveclass.TypeLecturing, effectiveclass.TypePractical:
	case "":
		classType = effectiveclass.TypeLecturing
		if lu, ok := units[id.LearningUnit]; ok {
			classType = effectiveclass.TypeForLearningUnit(lu)
		}
	default:
		return nil, fmt.Errorf("unknown class type %q", fx.Type)
	}

	quadri := learningunit.Quadrimester(fx.Quadrimester)
	if !quadri.IsValid() {
		return nil, fmt.Errorf("unknown derogation_quadrimester %q", fx.Quadrimester)
	}
	session := learningunit.Session(fx.Session)
	if !session.IsValid() {
		return nil, fmt.Errorf("unknown derogation_session %q", fx.Session)
	}

	q1, err := parseOptionalVolume(fx.VolumeQ1)
	if err != nil {
		return nil, fmt.Errorf("volume_q1: %w", err)
	}
	q2, err := parseOptionalVolume(fx.VolumeQ2)
	if err != nil {
		return nil, fmt.Errorf("volume_q2: %w", err)
	}

	return &effectiveclass.EffectiveClass{
		Identity:               id,
		Type:                   classType,
		Titles:                 effectiveclass.Titles{Fr: fx.TitleFr, En: fx.TitleEn},
		TeachingPlace:          effectiveclass.TeachingPlace{UUID: fx.TeachingPlaceUUID, Name: fx.TeachingPlaceName},
		DerogationQuadrimester: quadri,
		DerogationSession:      session,
		Volumes:                effectiveclass.ClassVolumes{VolumeFirstQuadrimester: q1, VolumeSecondQuadrimester: q2},
	}, nil
}

func (fx attributionFixture) build() (attribution.TutorAttribution, error) {
	attributionID, err := attribution.NewAttributionIdentity(fx.UUID)
	if err != nil {
		return attribution.TutorAttribution{}, err
	}
	tutorID, err := attribution.NewTutorIdentity(fx.TutorPersonalIDNumber)
	if err != nil {
		return attribution.TutorAttribution{}, err
	}
	luID, err := learningunit.NewIdentity(fx.LearningUnitCode, fx.Year)
	if err != nil {
		return attribution.TutorAttribution{}, err
	}
	function := attribution.Function(strings.ToUpper(strings.TrimSpace(fx.Function)))
	if !function.IsValid() {
		return attribution.TutorAttribution{}, fmt.Errorf("unknown function %q", fx.Function)
	}
	volume, err := parseAmount("attributed_volume", fx.AttributedVolume)
	if err != nil {
		return attribution.TutorAttribution{}, err
	}

	return attribution.TutorAttribution{
		Attribution:                    attributionID,
		Tutor:                          tutorID,
		FirstName:                      fx.FirstName,
		LastName:                       fx.LastName,
		Function:                       function,
		LearningUnit:                   luID,
		AttributedVolumeToLearningUnit: volume,
	}, nil
}

// build goes through TutorDTO so fixtures and the cache share one decoder.
func (fx tutorFixture) build() (*attribution.Tutor, error) {
	dto := attribution.TutorDTO{
		PersonalIDNumber: fx.PersonalIDNumber,
		FirstName:        fx.FirstName,
		LastName:         fx.LastName,
	}
	for i, r := range fx.Repartitions {
		volume, err := parseAmount(fmt.Sprintf("repartitions[%d].volume", i), r.Volume)
		if err != nil {
			return nil, err
		}
		dto.Repartitions = append(dto.Repartitions, attribution.RepartitionDTO{
			ClassCode:         r.ClassCode,
			LearningUnitCode:  r.LearningUnitCode,
			Year:              r.Year,
			AttributionUUID:   r.AttributionUUID,
			DistributedVolume: volume,
		})
	}
	return attribution.TutorFromDTO(dto)
}

// parseAmount parses a required-shape decimal; empty means zero.
func parseAmount(key, raw string) (decimal.Decimal, error) {
	v, err := parseOptionalVolume(raw)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%s: %w", key, err)
	}
	if !v.Valid {
		return decimal.Zero, nil
	}
	return v.Decimal, nil
}
