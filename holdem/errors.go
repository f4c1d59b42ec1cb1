package holdem

import "errors"

// Validation errors: reported to the acting player, table untouched.
var (
	ErrNotYourTurn                = errors.New("not your turn")
	ErrWrongStage                 = errors.New("no betting round in progress")
	ErrInvalidActionForCurrentBet = errors.New("action not allowed against the current bet")
	ErrBelowMinimumBet            = errors.New("bet below minimum")
	ErrBelowMinimumRaise          = errors.New("raise below minimum")
	ErrAmountExceedsStack         = errors.New("amount exceeds stack")
	ErrUnknownActionType          = errors.New("unknown action type")
	ErrPlayerCannotAct            = errors.New("player cannot act in this hand")
)

// State errors.
var (
	ErrNotEnoughPlayers = errors.New("not enough players with chips")
	ErrNotCreator       = errors.New("only the table creator can start the game")
	ErrTableFull        = errors.New("table is full")
	ErrAlreadySeated    = errors.New("already seated at this table")
	ErrGameInProgress   = errors.New("hand in progress")
	ErrWrongStatus      = errors.New("table status does not allow this")
	ErrPlayerNotFound   = errors.New("player not at table")
)

// Internal consistency errors. These are logged and turned into a forced
// terminal transition; they never reach callers.
var (
	ErrDeckExhausted     = errors.New("deck exhausted")
	ErrNoPlayerCanAct    = errors.New("no player can act but betting round is open")
	ErrNoEligiblePlayers = errors.New("no eligible players at hand end")
)
