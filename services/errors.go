package services

import (
	"errors"
	"fmt"

	"github.com/Dosada05/tournament-scheduler/brackets"
	"github.com/Dosada05/tournament-scheduler/categories"
	"github.com/Dosada05/tournament-scheduler/repositories"
	"github.com/Dosada05/tournament-scheduler/scheduling"
	"github.com/Dosada05/tournament-scheduler/scoring"
)

// Taxonomy roots. Every error a service returns wraps exactly one of them.
var (
	ErrValidation    = errors.New("validation failed")
	ErrNotFound      = errors.New("requested resource not found")
	ErrForbidden     = errors.New("operation not allowed for the current user")
	ErrConflict      = errors.New("conflicting state")
	ErrUnschedulable = errors.New("match could not be scheduled")
)

var (
	ErrInvalidScore       = fmt.Errorf("%w: invalid score", ErrValidation)
	ErrTooFewEntrants     = fmt.Errorf("%w: not enough entrants", ErrValidation)
	ErrInvalidTransition  = fmt.Errorf("%w: match status transition not allowed", ErrValidation)
	ErrNotAParticipant    = fmt.Errorf("%w: user is not playing in this match", ErrForbidden)
	ErrOrganizerOnly      = fmt.Errorf("%w: organizer rights required", ErrForbidden)
	ErrOwnProposal        = fmt.Errorf("%w: a proposal cannot be confirmed by its author", ErrForbidden)
	ErrNoPendingResult    = fmt.Errorf("%w: match has no pending result", ErrConflict)
	ErrMatchNotReady      = fmt.Errorf("%w: match does not have both entrants", ErrConflict)
	ErrMatchClosed        = fmt.Errorf("%w: match is already closed", ErrConflict)
	ErrRefereeDoubleBook  = fmt.Errorf("%w: referee already has an overlapping match", ErrConflict)
	ErrRefereeIsPlayer    = fmt.Errorf("%w: referee plays in this match", ErrConflict)
	ErrNoRefereeFree      = fmt.Errorf("%w: no referee of the pool is free", ErrConflict)
	ErrNoReferees         = fmt.Errorf("%w: referee pool is empty", ErrValidation)
	ErrFixtureGenerated   = fmt.Errorf("%w: fixture already generated", ErrConflict)
	ErrFixtureMissing     = fmt.Errorf("%w: fixture not generated yet", ErrConflict)
	ErrDownstreamStarted  = fmt.Errorf("%w: a later match already started", ErrConflict)
	ErrGroupsNotFinished  = fmt.Errorf("%w: source groups still have open matches", ErrConflict)
	ErrRoundNotFinished   = fmt.Errorf("%w: current round still has open matches", ErrConflict)
	ErrAllRoundsPlayed    = fmt.Errorf("%w: every planned round has been paired", ErrConflict)
	ErrPartnerPaired      = fmt.Errorf("%w: partner already paired", ErrConflict)
	ErrStandingsRetry     = fmt.Errorf("%w: standings row kept changing", ErrConflict)
	ErrExportNotAvailable = fmt.Errorf("%w: no object storage configured", ErrValidation)
)

// ErrorClass is the taxonomy bucket of an error, used for HTTP mapping and
// structured outcomes.
type ErrorClass string

const (
	ClassNone          ErrorClass = ""
	ClassValidation    ErrorClass = "validation"
	ClassNotFound      ErrorClass = "not_found"
	ClassForbidden     ErrorClass = "forbidden"
	ClassConflict      ErrorClass = "conflict"
	ClassUnschedulable ErrorClass = "unschedulable"
	ClassInternal      ErrorClass = "internal"
)

var classRoots = []struct {
	class ErrorClass
	errs  []error
}{
	{ClassForbidden, []error{ErrForbidden}},
	{ClassNotFound, []error{
		ErrNotFound,
		repositories.ErrDocumentNotFound,
		repositories.ErrEventNotFound,
		repositories.ErrParticipantNotFound,
		repositories.ErrGroupNotFound,
		repositories.ErrMatchNotFound,
		repositories.ErrStandingNotFound,
		repositories.ErrSportNotFound,
		repositories.ErrNotificationNotFound,
		repositories.ErrCorrectionNotFound,
	}},
	{ClassConflict, []error{ErrConflict, repositories.ErrConflictingUpdate, repositories.ErrDuplicateDocument}},
	{ClassUnschedulable, []error{ErrUnschedulable}},
	{ClassValidation, []error{
		ErrValidation,
		scoring.ErrMalformedScore,
		scoring.ErrSetCount,
		scoring.ErrTiedSet,
		scoring.ErrDrawNotAllowed,
		scoring.ErrWinnerMismatch,
		scoring.ErrNegativeScore,
		scoring.ErrPlayedAfterDone,
		scoring.ErrNotDecided,
		brackets.ErrTooFewEntrants,
		brackets.ErrDuplicateEntrant,
		brackets.ErrUnsupportedSystem,
		brackets.ErrByeAgainstBye,
		brackets.ErrMalformedBracket,
		scheduling.ErrInvalidConfig,
		scheduling.ErrInvalidClock,
		categories.ErrNoEvent,
		categories.ErrUnknownGameType,
		categories.ErrNothingToMerge,
	}},
}

// ClassOf maps err onto the taxonomy. Unknown errors are internal.
func ClassOf(err error) ErrorClass {
	if err == nil {
		return ClassNone
	}
	for _, root := range classRoots {
		for _, target := range root.errs {
			if errors.Is(err, target) {
				return root.class
			}
		}
	}
	return ClassInternal
}

// validationf wraps a lower-level validation error so it also matches
// ErrValidation.
func validationf(err error, format string, args ...any) error {
	return fmt.Errorf("%w: %s: %w", ErrValidation, fmt.Sprintf(format, args...), err)
}

// notFound keeps the repository sentinel and adds the taxonomy root.
func notFound(err error) error {
	if ClassOf(err) == ClassNotFound && !errors.Is(err, ErrNotFound) {
		return fmt.Errorf("%w: %w", ErrNotFound, err)
	}
	return err
}
