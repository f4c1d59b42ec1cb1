package holdem

import "strings"

// NoSeat marks an unset seat reference (seats are numbered from 1).
const NoSeat = 0

// Status is the table-level lifecycle.
type Status string

const (
	StatusWaiting  Status = "waiting"
	StatusPlaying  Status = "playing"
	StatusFinished Status = "finished"
)

// Stage 游戏阶段
type Stage string

const (
	StageNone             Stage = ""
	StageDealing          Stage = "dealing"
	StagePreflopBlinds    Stage = "preflop_blinds"
	StagePreflopBetting   Stage = "preflop_betting"
	StageFlopBetting      Stage = "flop_betting"
	StageTurnBetting      Stage = "turn_betting"
	StageRiverBetting     Stage = "river_betting"
	StageShowdown         Stage = "showdown"
	StageShowdownComplete Stage = "showdown_complete"
)

func (s Stage) IsBetting() bool {
	return strings.HasSuffix(string(s), "_betting")
}

// boardSize is the number of community cards a betting stage is played with.
func (s Stage) boardSize() int {
	switch s {
	case StageFlopBetting:
		return 3
	case StageTurnBetting:
		return 4
	case StageRiverBetting, StageShowdown:
		return 5
	default:
		return 0
	}
}

// PlayerStatus is a seated player's status in the current hand.
type PlayerStatus string

const (
	PlayerWaiting    PlayerStatus = "waiting"
	PlayerPlaying    PlayerStatus = "playing"
	PlayerFolded     PlayerStatus = "folded"
	PlayerAllIn      PlayerStatus = "all_in"
	PlayerSittingOut PlayerStatus = "sitting_out"
)

// ActionKind 动作类型
type ActionKind string

const (
	ActionFold  ActionKind = "fold"
	ActionCheck ActionKind = "check"
	ActionCall  ActionKind = "call"
	ActionBet   ActionKind = "bet"
	ActionRaise ActionKind = "raise"
)

// Action is one of Fold | Check | Call | Bet(amount) | Raise(amount).
// Amount is the player's total wager for the street after the action and
// is only meaningful for Bet and Raise.
type Action struct {
	Kind   ActionKind
	Amount Chips
}

func Fold() Action { return Action{Kind: ActionFold} }
func Check() Action { return Action{Kind: ActionCheck} }
func Call() Action { return Action{Kind: ActionCall} }
func Bet(amount Chips) Action { return Action{Kind: ActionBet, Amount: amount} }
func Raise(amount Chips) Action { return Action{Kind: ActionRaise, Amount: amount} }

func (a Action) IsAggressive() bool {
	return a.Kind == ActionBet || a.Kind == ActionRaise
}

func (a Action) String() string {
	if a.IsAggressive() {
		return string(a.Kind) + " " + a.Amount.String()
	}
	return string(a.Kind)
}

// ParseAction validates a loosely typed action coming from a client.
func ParseAction(kind string, amount Chips) (Action, error) {
	switch ActionKind(strings.ToLower(strings.TrimSpace(kind))) {
	case ActionFold:
		return Fold(), nil
	case ActionCheck:
		return Check(), nil
	case ActionCall:
		return Call(), nil
	case ActionBet:
		if amount <= 0 {
			return Action{}, ErrBelowMinimumBet
		}
		return Bet(amount), nil
	case ActionRaise:
		if amount <= 0 {
			return Action{}, ErrBelowMinimumRaise
		}
		return Raise(amount), nil
	default:
		return Action{}, ErrUnknownActionType
	}
}
