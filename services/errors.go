package services

import (
	"errors"

	"github.com/Dosada05/x1-arena/utils"
)

// Errors returned by the services and mapped to HTTP statuses by the handlers.
var (
	// Validation
	ErrValidationFailed = errors.New("validation failed")
	ErrPasswordTooShort = utils.ErrPasswordTooShort
	ErrInvalidScore     = errors.New("scores must be between 0 and 2 and at most one side may reach 2")

	// Lookups
	ErrPlayerNotFound = errors.New("player not found")
	ErrMatchNotFound  = errors.New("match not found")

	// Conflicts with the current tournament phase
	ErrDuplicateExternalID      = errors.New("a player with this external id is already registered")
	ErrTournamentAlreadyStarted = errors.New("tournament has already started")
	ErrTournamentNotStarted     = errors.New("tournament has not started")
	ErrNotEnoughPlayers         = errors.New("at least 3 players are needed to start")
	ErrGroupStageIncomplete     = errors.New("group matches are still open")
	ErrPlayoffsAlreadyGenerated = errors.New("playoffs already exist; regenerate with force")
	ErrMatchNotReady            = errors.New("match participants are not decided yet")

	// Authentication
	ErrInvalidCredentials = errors.New("invalid credentials")
)
