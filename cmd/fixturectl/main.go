// Command fixturectl partitions a YAML roster, generates fixtures and
// schedules them without a database.
package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"log/slog"
	"os"
	"sort"
	"strings"
	"text/tabwriter"

	"github.com/urfave/cli/v2"

	"github.com/Dosada05/tournament-scheduler/config"
	"github.com/Dosada05/tournament-scheduler/models"
	"github.com/Dosada05/tournament-scheduler/repositories"
	"github.com/Dosada05/tournament-scheduler/services"
)

var operator = models.Actor{UserID: "fixturectl", Role: models.RoleOrganizer}

func main() {
	if err := newApp().Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func newApp() *cli.App {
	rosterFlag := &cli.StringFlag{Name: "roster", Aliases: []string{"r"}, Usage: "roster YAML file", Required: true}
	generateFlags := []cli.Flag{
		rosterFlag,
		&cli.StringFlag{Name: "sport-rules", Usage: "sport rules YAML catalogue"},
		&cli.IntFlag{Name: "group-size", Usage: "entrants per group for group_stage events"},
		&cli.IntFlag{Name: "swiss-rounds", Usage: "planned rounds for swiss events"},
		&cli.Uint64Flag{Name: "seed", Usage: "random seed of the first swiss round"},
		&cli.BoolFlag{Name: "verbose", Aliases: []string{"v"}, Usage: "log engine decisions to stderr"},
	}

	return &cli.App{
		Name:  "fixturectl",
		Usage: "plan tournament fixtures and court schedules offline",
		Commands: []*cli.Command{
			{
				Name:  "partition",
				Usage: "split the roster into category groups",
				Flags: generateFlags,
				Action: func(c *cli.Context) error {
					s, err := openSession(c)
					if err != nil {
						return err
					}
					res, err := s.fixtures.Partition(c.Context, operator, s.event.ID)
					if err != nil {
						return err
					}
					s.printGroups(c.App.Writer, res.Groups)
					printOutcome(c.App.Writer, res.Outcome)
					return nil
				},
			},
			{
				Name:  "generate",
				Usage: "partition and generate the fixture of every group",
				Flags: generateFlags,
				Action: func(c *cli.Context) error {
					s, err := openSession(c)
					if err != nil {
						return err
					}
					if err := s.generateAll(c); err != nil {
						return err
					}
					return s.printMatches(c.Context, c.App.Writer)
				},
			},
			{
				Name:  "schedule",
				Usage: "generate fixtures and place them on courts",
				Flags: append(generateFlags,
					&cli.StringFlag{Name: "xlsx", Usage: "also write the schedule workbook to this path"},
				),
				Action: func(c *cli.Context) error {
					s, err := openSession(c)
					if err != nil {
						return err
					}
					if err := s.generateAll(c); err != nil {
						return err
					}
					res, err := s.schedule.ScheduleEvent(c.Context, operator, s.event.ID, services.ScheduleOptions{})
					if err != nil {
						return err
					}
					if err := s.printSchedule(c.Context, c.App.Writer); err != nil {
						return err
					}
					printOutcome(c.App.Writer, res.Outcome)

					if path := c.String("xlsx"); path != "" {
						data, _, err := s.export.Workbook(c.Context, operator, s.event.ID)
						if err != nil {
							return err
						}
						if err := os.WriteFile(path, data, 0o644); err != nil {
							return fmt.Errorf("writing workbook: %w", err)
						}
						fmt.Fprintf(c.App.Writer, "workbook written to %s\n", path)
					}
					return nil
				},
			},
		},
	}
}

// session is one in-memory run over a roster file.
type session struct {
	event    *models.Event
	names    map[string]string
	fixtures services.FixtureService
	matches  repositories.MatchRepository
	schedule services.ScheduleService
	export   services.ExportService
}

func openSession(c *cli.Context) (*session, error) {
	level := slog.LevelWarn
	if c.Bool("verbose") {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(c.App.ErrWriter, &slog.HandlerOptions{Level: level}))

	rf, err := loadRoster(c.String("roster"))
	if err != nil {
		return nil, err
	}
	catalogue, err := config.LoadSportRules(c.String("sport-rules"))
	if err != nil {
		return nil, err
	}

	store := repositories.NewMemoryStore()
	events := repositories.NewEventRepository(store)
	participants := repositories.NewParticipantRepository(store)
	groups := repositories.NewGroupRepository(store)
	matches := repositories.NewMatchRepository(store)
	rows := repositories.NewStandingRepository(store)
	rules := services.NewSportRulesProvider(repositories.NewSportRuleRepository(store), catalogue, logger)

	ev, err := rf.Event.toEvent()
	if err != nil {
		return nil, err
	}
	if err := services.NewEventService(events, participants, logger).CreateEvent(c.Context, operator, ev); err != nil {
		return nil, err
	}
	names := make(map[string]string, len(rf.Participants))
	for _, spec := range rf.Participants {
		p := spec.toParticipant(ev.ID)
		if err := participants.Create(c.Context, p); err != nil {
			return nil, fmt.Errorf("adding participant %s: %w", p.ID, err)
		}
		names[p.ID] = p.Name
	}

	standings := services.NewStandingsService(events, participants, groups, matches, rows, rules, nil, nil, nil, logger)
	schedule := services.NewScheduleService(events, participants, groups, matches, nil, nil, nil, nil, logger)
	return &session{
		event:    ev,
		names:    names,
		fixtures: services.NewFixtureService(events, participants, groups, matches, standings, nil, nil, logger),
		matches:  matches,
		schedule: schedule,
		export:   services.NewExportService(events, participants, groups, schedule, nil, logger),
	}, nil
}

func (s *session) generateAll(c *cli.Context) error {
	res, err := s.fixtures.Partition(c.Context, operator, s.event.ID)
	if err != nil {
		return err
	}
	opts := services.GenerateOptions{GroupSize: c.Int("group-size"), SwissRounds: c.Int("swiss-rounds")}
	if c.IsSet("seed") {
		seed := c.Uint64("seed")
		opts.Seed = &seed
	}
	for _, g := range res.Groups {
		if len(g.Entrants) < 2 {
			fmt.Fprintf(c.App.ErrWriter, "skipping %s: %d entrant(s)\n", g.Name, len(g.Entrants))
			continue
		}
		if _, err := s.fixtures.GenerateFixture(c.Context, operator, g.ID, opts); err != nil {
			return fmt.Errorf("generating %s: %w", g.Name, err)
		}
	}
	return nil
}

func (s *session) entrantName(e *models.EntrantRef) string {
	if e == nil {
		return "-"
	}
	members := e.Members()
	out := make([]string, 0, len(members))
	for _, id := range members {
		if n := s.names[id]; n != "" {
			out = append(out, n)
		} else {
			out = append(out, id)
		}
	}
	return strings.Join(out, " / ")
}

func (s *session) printGroups(w io.Writer, groups []*models.Group) {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "GROUP\tCATEGORY\tENTRANTS")
	for _, g := range groups {
		names := make([]string, 0, len(g.Entrants))
		for i := range g.Entrants {
			names = append(names, s.entrantName(&g.Entrants[i]))
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\n", g.Name, g.Category.Label(), strings.Join(names, ", "))
	}
	tw.Flush()
}

func (s *session) printMatches(ctx context.Context, w io.Writer) error {
	list, err := s.matches.ListByEvent(ctx, s.event.ID)
	if err != nil {
		return err
	}
	sort.SliceStable(list, func(i, j int) bool {
		a, b := list[i], list[j]
		if a.GroupID != b.GroupID {
			return a.GroupID < b.GroupID
		}
		if a.Round != b.Round {
			return a.Round < b.Round
		}
		return a.BracketIndex < b.BracketIndex
	})
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "CATEGORY\tROUND\tSIDE 1\tSIDE 2\tSTATUS")
	for _, m := range list {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", m.Category.Label(), m.RoundName,
			s.entrantName(m.Participant1), s.entrantName(m.Participant2), m.Status)
	}
	return tw.Flush()
}

func (s *session) printSchedule(ctx context.Context, w io.Writer) error {
	list, err := s.schedule.EventSchedule(ctx, s.event.ID)
	if err != nil {
		return err
	}
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "DATE\tTIME\tCOURT\tCATEGORY\tROUND\tSIDE 1\tSIDE 2")
	for _, m := range list {
		fmt.Fprintf(tw, "%s\t%s\t%d\t%s\t%s\t%s\t%s\n",
			m.ScheduledAt.Format("02.01.2006"), m.ScheduledAt.Format("15:04"), *m.Court,
			m.Category.Label(), m.RoundName, s.entrantName(m.Participant1), s.entrantName(m.Participant2))
	}
	return tw.Flush()
}

func printOutcome(w io.Writer, o models.Outcome) {
	fmt.Fprintf(w, "outcome: %s (%d processed)\n", o.Status, o.Processed)
	for _, id := range o.Unscheduled {
		fmt.Fprintf(w, "  unscheduled: %s\n", id)
	}
	for _, id := range o.Excluded {
		fmt.Fprintf(w, "  excluded: %s\n", id)
	}
	if o.Message != "" {
		fmt.Fprintf(w, "  %s\n", o.Message)
	}
}
