package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/osis-hub/osis-attribution/internal/application/command"
	"github.com/osis-hub/osis-attribution/internal/application/query"
	"github.com/osis-hub/osis-attribution/internal/infrastructure/persistence/postgres"
	"github.com/osis-hub/osis-attribution/internal/infrastructure/persistence/redis"
	"github.com/osis-hub/osis-attribution/pkg/logger"
)

// ══════════════════════════════════════════════════════════════════════════════
// SCHEMA AND FIXTURES
// ══════════════════════════════════════════════════════════════════════════════

func migrateCmd(opts *globalOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending database migrations",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(cmd, opts, func(ctx context.Context, a *app) error {
				applied, err := postgres.NewMigrator(a.conn).Migrate(ctx)
				if err != nil {
					return err
				}
				a.log.Info("migrations applied", logger.Any("versions", applied))
				return printJSON(cmd.OutOrStdout(), map[string]any{"applied": applied})
			})
		},
	}

	cmd.AddCommand(
		&cobra.Command{
			Use:   "down",
			Short: "Roll back the last applied migration",
			RunE: func(cmd *cobra.Command, _ []string) error {
				return withApp(cmd, opts, func(ctx context.Context, a *app) error {
					version, err := postgres.NewMigrator(a.conn).Rollback(ctx)
					if err != nil {
						return err
					}
					return printJSON(cmd.OutOrStdout(), map[string]any{"rolled_back": version})
				})
			},
		},
		&cobra.Command{
			Use:   "status",
			Short: "Show migration status",
			RunE: func(cmd *cobra.Command, _ []string) error {
				return withApp(cmd, opts, func(ctx context.Context, a *app) error {
					status, err := postgres.NewMigrator(a.conn).Status(ctx)
					if err != nil {
						return err
					}
					w := cmd.OutOrStdout()
					for _, m := range status {
						state := "pending"
						if m.IsApplied {
							state = "applied " + m.AppliedAt.Format("2006-01-02 15:04:05")
						}
						_, _ = fmt.Fprintf(w, "%03d  %-32s %s\n", m.Version, m.Name, state)
					}
					return nil
				})
			},
		},
	)

	return cmd
}

func seedCmd(opts *globalOptions) *cobra.Command {
	var file string

	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Load learning units, classes, attributions and tutors from a YAML file",
		RunE: func(cmd *cobra.Command, _ []string) error {
			data, err := os.ReadFile(file)
			if err != nil {
				return fmt.Errorf("read fixtures: %w", err)
			}
			fixtures, err := parseFixtures(data)
			if err != nil {
				return err
			}
			plan, err := fixtures.plan()
			if err != nil {
				return err
			}

			return inTx(cmd, opts, func(ctx context.Context, a *app) error {
				if err := plan.apply(ctx, a); err != nil {
					return err
				}
				a.log.Info("fixtures loaded",
					logger.Int("learning_units", len(plan.units)),
					logger.Int("classes", len(plan.classes)),
					logger.Int("attributions", len(plan.attributions)),
					logger.Int("tutors", len(plan.tutors)),
				)
				return printJSON(cmd.OutOrStdout(), plan.summary())
			})
		},
	}

	cmd.Flags().StringVarP(&file, "file", "f", "", "Fixture file")
	_ = cmd.MarkFlagRequired("file")
	return cmd
}

// ══════════════════════════════════════════════════════════════════════════════
// VOLUME DISTRIBUTION
// ══════════════════════════════════════════════════════════════════════════════

// distributionFlags are shared by distribute and edit.
type distributionFlags struct {
	tutor       string
	attribution string
	classCode   string
	unit        string
	year        int
	volume      string
}

func (f *distributionFlags) bind(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.tutor, "tutor", "", "Tutor personal id number")
	cmd.Flags().StringVar(&f.attribution, "attribution", "", "Learning unit attribution UUID")
	cmd.Flags().StringVar(&f.classCode, "class", "", "Class code")
	cmd.Flags().StringVar(&f.unit, "unit", "", "Learning unit code")
	cmd.Flags().IntVar(&f.year, "year", 0, "Academic year (e.g. 2020 for 2020-21)")
	cmd.Flags().StringVar(&f.volume, "volume", "", "Distributed volume in hours")
}

func distributeCmd(opts *globalOptions) *cobra.Command {
	f := &distributionFlags{}

	cmd := &cobra.Command{
		Use:   "distribute",
		Short: "Distribute part of a class volume to a tutor",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return inTx(cmd, opts, func(ctx context.Context, a *app) error {
				h := command.NewDistributeClassToTutorHandler(a.tutors, a.classes, a.units, a.attributions, a.log)
				res, err := h.Handle(ctx, command.DistributeClassToTutorCommand{
					TutorPersonalIDNumber:       f.tutor,
					LearningUnitAttributionUUID: f.attribution,
					ClassCode:                   f.classCode,
					LearningUnitCode:            f.unit,
					Year:                        f.year,
					DistributedVolume:           f.volume,
				})
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), map[string]any{"tutor": res.Tutor.PersonalIDNumber})
			})
		},
	}

	f.bind(cmd)
	return cmd
}

func editVolumeCmd(opts *globalOptions) *cobra.Command {
	f := &distributionFlags{}

	cmd := &cobra.Command{
		Use:   "edit-volume",
		Short: "Change the volume a tutor teaches on a class",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return inTx(cmd, opts, func(ctx context.Context, a *app) error {
				h := command.NewEditClassVolumeRepartitionHandler(a.tutors, a.classes, a.units, a.attributions, a.log)
				res, err := h.Handle(ctx, command.EditClassVolumeRepartitionToTutorCommand{
					TutorPersonalIDNumber:       f.tutor,
					LearningUnitAttributionUUID: f.attribution,
					ClassCode:                   f.classCode,
					LearningUnitCode:            f.unit,
					Year:                        f.year,
					DistributedVolume:           f.volume,
				})
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), map[string]any{"tutor": res.Tutor.PersonalIDNumber})
			})
		},
	}

	f.bind(cmd)
	return cmd
}

func unassignCmd(opts *globalOptions) *cobra.Command {
	var tutor, attributionUUID, classCode string

	cmd := &cobra.Command{
		Use:   "unassign",
		Short: "Remove a tutor from a class",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return inTx(cmd, opts, func(ctx context.Context, a *app) error {
				h := command.NewUnassignTutorClassHandler(a.tutors, a.log)
				res, err := h.Handle(ctx, command.UnassignTutorClassCommand{
					TutorPersonalIDNumber:       tutor,
					LearningUnitAttributionUUID: attributionUUID,
					ClassCode:                   classCode,
				})
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), map[string]any{
					"tutor":   res.Tutor.PersonalIDNumber,
					"removed": res.Removed,
				})
			})
		},
	}

	cmd.Flags().StringVar(&tutor, "tutor", "", "Tutor personal id number")
	cmd.Flags().StringVar(&attributionUUID, "attribution", "", "Learning unit attribution UUID")
	cmd.Flags().StringVar(&classCode, "class", "", "Class code")
	return cmd
}

// ══════════════════════════════════════════════════════════════════════════════
// EFFECTIVE CLASSES
// ══════════════════════════════════════════════════════════════════════════════

// classFlags are shared by create-class and update-class.
type classFlags struct {
	classCode    string
	unit         string
	year         int
	titleFr      string
	titleEn      string
	placeUUID    string
	placeName    string
	quadrimester string
	session      string
	volumeFirst  string
	volumeSecond string
}

func (f *classFlags) bind(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.classCode, "class", "", "Class code (one letter or digit)")
	cmd.Flags().StringVar(&f.unit, "unit", "", "Learning unit code")
	cmd.Flags().IntVar(&f.year, "year", 0, "Academic year (e.g. 2020 for 2020-21)")
	cmd.Flags().StringVar(&f.titleFr, "title-fr", "", "French title")
	cmd.Flags().StringVar(&f.titleEn, "title-en", "", "English title")
	cmd.Flags().StringVar(&f.placeUUID, "teaching-place", "", "Teaching place UUID")
	cmd.Flags().StringVar(&f.placeName, "teaching-place-name", "", "Teaching place name")
	cmd.Flags().StringVar(&f.quadrimester, "quadrimester", "", "Derogation quadrimester (Q1, Q2, Q3, Q1and2, Q1or2)")
	cmd.Flags().StringVar(&f.session, "session", "", "Derogation session (1, 2, 3, 12, 13, 23, 123, P23)")
	cmd.Flags().StringVar(&f.volumeFirst, "volume-q1", "", "Volume of the first quadrimester")
	cmd.Flags().StringVar(&f.volumeSecond, "volume-q2", "", "Volume of the second quadrimester")
}

func (f *classFlags) volumes() (decimal.NullDecimal, decimal.NullDecimal, error) {
	q1, err := parseOptionalVolume(f.volumeFirst)
	if err != nil {
		return decimal.NullDecimal{}, decimal.NullDecimal{}, fmt.Errorf("--volume-q1: %w", err)
	}
	q2, err := parseOptionalVolume(f.volumeSecond)
	if err != nil {
		return decimal.NullDecimal{}, decimal.NullDecimal{}, fmt.Errorf("--volume-q2: %w", err)
	}
	return q1, q2, nil
}

// parseOptionalVolume maps an empty flag to an absent volume.
func parseOptionalVolume(raw string) (decimal.NullDecimal, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return decimal.NullDecimal{}, nil
	}
	d, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.NullDecimal{}, fmt.Errorf("%q is not a number", raw)
	}
	return decimal.NewNullDecimal(d), nil
}

func createClassCmd(opts *globalOptions) *cobra.Command {
	f := &classFlags{}

	cmd := &cobra.Command{
		Use:   "create-class",
		Short: "Create an effective class on a learning unit",
		RunE: func(cmd *cobra.Command, _ []string) error {
			q1, q2, err := f.volumes()
			if err != nil {
				return err
			}
			return inTx(cmd, opts, func(ctx context.Context, a *app) error {
				h := command.NewCreateEffectiveClassHandler(a.classes, a.units, a.log)
				res, err := h.Handle(ctx, command.CreateEffectiveClassCommand{
					ClassCode:                f.classCode,
					LearningUnitCode:         f.unit,
					Year:                     f.year,
					TitleFr:                  f.titleFr,
					TitleEn:                  f.titleEn,
					TeachingPlaceUUID:        f.placeUUID,
					TeachingPlaceName:        f.placeName,
					DerogationQuadrimester:   f.quadrimester,
					DerogationSession:        f.session,
					VolumeFirstQuadrimester:  q1,
					VolumeSecondQuadrimester: q2,
				})
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), map[string]any{"class": res.CompleteAcronym})
			})
		},
	}

	f.bind(cmd)
	return cmd
}

func updateClassCmd(opts *globalOptions) *cobra.Command {
	f := &classFlags{}

	cmd := &cobra.Command{
		Use:   "update-class",
		Short: "Update an effective class",
		RunE: func(cmd *cobra.Command, _ []string) error {
			q1, q2, err := f.volumes()
			if err != nil {
				return err
			}
			return inTx(cmd, opts, func(ctx context.Context, a *app) error {
				h := command.NewUpdateEffectiveClassHandler(a.classes, a.units, a.log)
				res, err := h.Handle(ctx, command.UpdateEffectiveClassCommand{
					ClassCode:                f.classCode,
					LearningUnitCode:         f.unit,
					Year:                     f.year,
					TitleFr:                  f.titleFr,
					TitleEn:                  f.titleEn,
					TeachingPlaceUUID:        f.placeUUID,
					TeachingPlaceName:        f.placeName,
					DerogationQuadrimester:   f.quadrimester,
					DerogationSession:        f.session,
					VolumeFirstQuadrimester:  q1,
					VolumeSecondQuadrimester: q2,
				})
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), map[string]any{"class": res.Class.String()})
			})
		},
	}

	f.bind(cmd)
	return cmd
}

func deleteClassCmd(opts *globalOptions) *cobra.Command {
	var (
		classCode, unit string
		year            int
		dryRun          bool
	)

	cmd := &cobra.Command{
		Use:   "delete-class",
		Short: "Delete an effective class that has no enrollments and no tutors",
		RunE: func(cmd *cobra.Command, _ []string) error {
			c := command.DeleteEffectiveClassCommand{ClassCode: classCode, LearningUnitCode: unit, Year: year}

			return inTx(cmd, opts, func(ctx context.Context, a *app) error {
				h := command.NewDeleteEffectiveClassHandler(a.classes, a.units, a.tutors, a.log)
				if dryRun {
					if err := h.CanDelete(ctx, c); err != nil {
						return err
					}
					return printJSON(cmd.OutOrStdout(), map[string]any{"deletable": true})
				}
				res, err := h.Handle(ctx, c)
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), map[string]any{"deleted": res.Class.String()})
			})
		},
	}

	cmd.Flags().StringVar(&classCode, "class", "", "Class code")
	cmd.Flags().StringVar(&unit, "unit", "", "Learning unit code")
	cmd.Flags().IntVar(&year, "year", 0, "Academic year")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Only check whether the class can be deleted")
	return cmd
}

func canCreateClassCmd(opts *globalOptions) *cobra.Command {
	var unit string
	var year int

	cmd := &cobra.Command{
		Use:   "can-create-class",
		Short: "Check whether a learning unit accepts new classes",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(cmd, opts, func(ctx context.Context, a *app) error {
				err := command.NewCanCreateEffectiveClassHandler(a.units).Handle(ctx, command.CanCreateEffectiveClassCommand{
					LearningUnitCode: unit,
					Year:             year,
				})
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), map[string]any{"can_create": true})
			})
		},
	}

	cmd.Flags().StringVar(&unit, "unit", "", "Learning unit code")
	cmd.Flags().IntVar(&year, "year", 0, "Academic year")
	return cmd
}

// ══════════════════════════════════════════════════════════════════════════════
// READS
// ══════════════════════════════════════════════════════════════════════════════

func warningsCmd(opts *globalOptions) *cobra.Command {
	var classCode, unit string
	var year int

	cmd := &cobra.Command{
		Use:   "warnings",
		Short: "List advisory warnings of one class or of every class of a learning unit",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(cmd, opts, func(ctx context.Context, a *app) error {
				if classCode != "" {
					res, err := query.NewGetEffectiveClassWarningsHandler(a.classes, a.units).Handle(ctx,
						query.GetEffectiveClassWarningsQuery{ClassCode: classCode, LearningUnitCode: unit, Year: year})
					if err != nil {
						return err
					}
					return printJSON(cmd.OutOrStdout(), res)
				}

				res, err := query.NewGetLearningUnitWarningsHandler(a.classes, a.units).Handle(ctx,
					query.GetLearningUnitWarningsQuery{LearningUnitCode: unit, Year: year})
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), res)
			})
		},
	}

	cmd.Flags().StringVar(&classCode, "class", "", "Class code (all classes of the unit when empty)")
	cmd.Flags().StringVar(&unit, "unit", "", "Learning unit code")
	cmd.Flags().IntVar(&year, "year", 0, "Academic year")
	return cmd
}

func tutorCmd(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "tutor PERSONAL_ID_NUMBER",
		Short: "Show the class volumes a tutor teaches",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, opts, func(ctx context.Context, a *app) error {
				res, err := query.NewGetTutorRepartitionsHandler(a.tutors, a.classes).Handle(ctx,
					query.GetTutorRepartitionsQuery{TutorPersonalIDNumber: args[0]})
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), res)
			})
		},
	}
}

func attributionsCmd(opts *globalOptions) *cobra.Command {
	var unit string
	var year int

	cmd := &cobra.Command{
		Use:   "attributions",
		Short: "List the attributions on a learning unit with their distributed volumes",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(cmd, opts, func(ctx context.Context, a *app) error {
				res, err := query.NewSearchAttributionsToLearningUnitHandler(a.attributions, a.tutors).Handle(ctx,
					query.SearchAttributionsToLearningUnitQuery{LearningUnitCode: unit, Year: year})
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), res)
			})
		},
	}

	cmd.Flags().StringVar(&unit, "unit", "", "Learning unit code")
	cmd.Flags().IntVar(&year, "year", 0, "Academic year")
	return cmd
}

// ══════════════════════════════════════════════════════════════════════════════
// MAINTENANCE
// ══════════════════════════════════════════════════════════════════════════════

func cacheCmd(opts *globalOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Maintain the Redis tutor cache",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "flush",
		Short: "Drop every cached tutor",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(cmd, opts, func(ctx context.Context, a *app) error {
				if a.cache == nil {
					return fmt.Errorf("tutor cache is not enabled")
				}
				if err := a.cache.DeleteByPattern(ctx, redis.PrefixTutor+"*"); err != nil {
					return fmt.Errorf("flush tutor cache: %w", err)
				}
				a.log.Info("tutor cache flushed")
				return printJSON(cmd.OutOrStdout(), map[string]any{"flushed": redis.PrefixTutor + "*"})
			})
		},
	})

	return cmd
}
