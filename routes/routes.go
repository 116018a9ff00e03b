package routes

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	httpSwagger "github.com/swaggo/http-swagger"

	_ "github.com/Dosada05/tournament-scheduler/docs"
	"github.com/Dosada05/tournament-scheduler/handlers"
	"github.com/Dosada05/tournament-scheduler/middleware"
	"github.com/Dosada05/tournament-scheduler/models"
)

type Handlers struct {
	Events        *handlers.EventHandler
	Fixtures      *handlers.FixtureHandler
	Matches       *handlers.MatchHandler
	Standings     *handlers.StandingsHandler
	Schedule      *handlers.ScheduleHandler
	Notifications *handlers.NotificationHandler
	Sports        *handlers.SportHandler
	WebSocket     *handlers.WebSocketHandler
}

type Options struct {
	JWTSecret      []byte
	AllowedOrigins []string
	// Gatherer backs /metrics; nil leaves the endpoint out.
	Gatherer prometheus.Gatherer
	Logger   *slog.Logger
}

func SetupRoutes(h Handlers, opts Options) http.Handler {
	r := chi.NewRouter()

	r.Use(chiMiddleware.RequestID)
	r.Use(chiMiddleware.RealIP)
	r.Use(chiMiddleware.Logger)
	r.Use(chiMiddleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   opts.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Content-Disposition"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	authenticate := middleware.Authenticate(opts.JWTSecret, opts.Logger)
	organizers := middleware.Authorize(models.RoleOrganizer, models.RoleAdmin)
	admins := middleware.Authorize(models.RoleAdmin)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	r.Get("/swagger/*", httpSwagger.Handler(httpSwagger.URL("/swagger/doc.json")))
	if opts.Gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(opts.Gatherer, promhttp.HandlerOpts{}))
	}

	r.Route("/ws", func(r chi.Router) {
		r.Get("/events/{eventID}", h.WebSocket.ServeEvent)
		r.With(authenticate).Get("/me", h.WebSocket.ServeInbox)
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(chiMiddleware.Timeout(30 * time.Second))

		r.Get("/sports", h.Sports.ListSports)
		r.Get("/sports/{sportName}", h.Sports.GetSport)
		r.With(authenticate, admins).Put("/sports/{sportName}", h.Sports.OverrideSport)

		r.Route("/events", func(r chi.Router) {
			r.Get("/", h.Events.ListEvents)
			r.With(authenticate, organizers).Post("/", h.Events.CreateEvent)

			r.Route("/{eventID}", func(r chi.Router) {
				r.Get("/", h.Events.GetEvent)
				r.Get("/participants", h.Events.ListParticipants)
				r.Get("/groups", h.Fixtures.ListGroups)
				r.Get("/matches", h.Matches.ListByEvent)
				r.Get("/schedule", h.Schedule.EventSchedule)

				r.Group(func(r chi.Router) {
					r.Use(authenticate)
					r.Post("/participants", h.Events.Register)
					r.Put("/schedule-config", h.Events.UpdateSchedule)
					r.Post("/partition", h.Fixtures.Partition)
					r.Post("/groups", h.Fixtures.CreateGroup)
					r.Post("/groups/merge", h.Fixtures.MergeGroups)
					r.Post("/elimination", h.Fixtures.BuildElimination)
					r.Post("/schedule", h.Schedule.ScheduleEvent)
					r.Post("/referees/auto-assign", h.Matches.AutoAssignReferees)
					r.Get("/schedule.xlsx", h.Schedule.DownloadWorkbook)
					r.Post("/schedule/publish", h.Schedule.PublishWorkbook)
				})
			})
		})

		r.Route("/groups/{groupID}", func(r chi.Router) {
			r.Get("/", h.Fixtures.GetGroup)
			r.Get("/matches", h.Matches.ListByGroup)
			r.Get("/standings", h.Standings.GroupStandings)
			r.Get("/swiss/ranking", h.Standings.SwissRanking)

			r.Group(func(r chi.Router) {
				r.Use(authenticate)
				r.Post("/entrants", h.Fixtures.AddEntrant)
				r.Delete("/entrants/{entrantKey}", h.Fixtures.RemoveEntrant)
				r.Post("/entrants/{entrantKey}/move", h.Fixtures.MoveEntrant)
				r.Post("/split", h.Fixtures.SplitGroup)
				r.Put("/byes", h.Fixtures.SetByes)
				r.Post("/fixture", h.Fixtures.GenerateFixture)
				r.Post("/swiss/rounds", h.Standings.PairNextRound)
				r.With(admins).Post("/standings/rebuild", h.Standings.Rebuild)
			})
		})

		r.Route("/matches/{matchID}", func(r chi.Router) {
			r.Get("/", h.Matches.GetMatch)
			r.Get("/corrections", h.Matches.Corrections)

			r.Group(func(r chi.Router) {
				r.Use(authenticate)
				r.Post("/start", h.Matches.Start)
				r.Post("/result", h.Matches.SubmitResult)
				r.Post("/result/confirm", h.Matches.ConfirmResult)
				r.Post("/result/reject", h.Matches.RejectResult)
				r.Post("/correction", h.Matches.CorrectScore)
				r.Post("/cancel", h.Matches.Cancel)
				r.Put("/referee", h.Matches.AssignReferee)
			})
		})

		r.Route("/notifications", func(r chi.Router) {
			r.Use(authenticate)
			r.Get("/", h.Notifications.Inbox)
			r.Post("/{notificationID}/read", h.Notifications.MarkRead)
		})
	})

	return r
}
