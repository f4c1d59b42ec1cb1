package holdem

import "holdem-live/card"

// View is the per-viewer snapshot broadcast to clients.
type View struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	Creator    string `json:"creator"`
	SmallBlind Chips  `json:"smallBlind"`
	BigBlind   Chips  `json:"bigBlind"`
	MaxSeats   int    `json:"maxPlayers"`

	Status     Status `json:"status"`
	Stage      Stage  `json:"stage"`
	HandNumber uint64 `json:"handNumber"`

	DealerSeat      int   `json:"dealerSeat"`
	SmallBlindSeat  int   `json:"smallBlindSeat"`
	BigBlindSeat    int   `json:"bigBlindSeat"`
	CurrentTurnSeat int   `json:"currentTurnSeat"`
	CurrentBet      Chips `json:"currentBet"`
	LastRaiseSize   Chips `json:"lastRaiseSize"`
	MinRaiseTo      Chips `json:"minRaiseTo"`
	Pot             Chips `json:"pot"`

	CommunityCards []card.Card  `json:"communityCards"`
	Players        []PlayerView `json:"players"`

	IsCreator bool             `json:"isCreator"`
	Showdown  *ShowdownSummary `json:"showdownResults,omitempty"`
}

// ShowdownSummary is the public part of a ShowdownResult.
type ShowdownSummary struct {
	HandNumber      uint64   `json:"handNumber"`
	ByDefault       bool     `json:"byDefault"`
	Pot             Chips    `json:"pot"`
	Winners         []string `json:"winners"`
	WinningHandName string   `json:"winningHandName,omitempty"`
	WinningHandDesc string   `json:"winningHandDescription,omitempty"`
}

type PlayerView struct {
	Username     string        `json:"username"`
	Seat         int           `json:"seat"`
	Stack        Chips         `json:"stack"`
	Status       PlayerStatus  `json:"statusInHand"`
	BetInStage   Chips         `json:"betInStage"`
	HoleCards    []card.Card   `json:"holeCards,omitempty"`
	HasCards     bool          `json:"hasCards"`
	ShowdownInfo *ShowdownInfo `json:"showdownInfo,omitempty"`
}

type ShowdownInfo struct {
	HandName        string      `json:"handName,omitempty"`
	HandDescription string      `json:"handDescription,omitempty"`
	HandRank        int32       `json:"handRank,omitempty"`
	BestFive        []card.Card `json:"bestFive,omitempty"`
	Shown           bool        `json:"shown"`
	IsWinner        bool        `json:"isWinner"`
	MuckReason      string      `json:"muckReason,omitempty"`
	Won             Chips       `json:"won"`
}

// View redacts hole cards: viewers see their own cards during the hand and
// any hand that was shown at the last showdown.
func (t *Table) View(viewer string) View {
	v := View{
		ID:              t.ID,
		Name:            t.Name,
		Creator:         t.creator,
		SmallBlind:      t.cfg.SmallBlind,
		BigBlind:        t.cfg.BigBlind,
		MaxSeats:        t.cfg.MaxSeats,
		Status:          t.status,
		Stage:           t.stage,
		HandNumber:      t.handNumber,
		DealerSeat:      t.dealerSeat,
		SmallBlindSeat:  t.smallBlindSeat,
		BigBlindSeat:    t.bigBlindSeat,
		CurrentTurnSeat: t.currentTurnSeat,
		CurrentBet:      t.currentBet,
		LastRaiseSize:   t.lastRaiseSize,
		Pot:             t.pot,
		CommunityCards:  t.CommunityCards(),
		IsCreator:       viewer != "" && viewer == t.creator,
	}
	if t.status == StatusPlaying && t.stage.IsBetting() {
		v.MinRaiseTo = t.MinRaiseTo()
	}
	if t.status == StatusFinished && t.showdown != nil {
		r := t.showdown
		v.Showdown = &ShowdownSummary{
			HandNumber:      r.HandNumber,
			ByDefault:       r.ByDefault,
			Pot:             r.Pot,
			Winners:         r.Winners,
			WinningHandName: r.WinningHandName,
			WinningHandDesc: r.WinningHandDesc,
		}
	}

	for _, p := range t.Players() {
		pv := PlayerView{
			Username:   p.Username,
			Seat:       p.Seat,
			Stack:      p.stack,
			Status:     p.status,
			BetInStage: p.betInStage,
			HasCards:   len(p.holeCards) > 0 && p.inHand(),
		}
		if p.Username == viewer && len(p.holeCards) > 0 {
			pv.HoleCards = p.HoleCards()
		}
		if t.status == StatusFinished {
			if e := t.showdown.Entry(p.Username); e != nil {
				pv.ShowdownInfo = &ShowdownInfo{
					HandName:        e.HandName,
					HandDescription: e.HandDescription,
					HandRank:        e.HandRank,
					BestFive:        e.BestFive,
					Shown:           e.Shown,
					IsWinner:        e.IsWinner,
					MuckReason:      e.MuckReason,
					Won:             e.Won,
				}
				if e.Shown || p.Username == viewer {
					pv.HoleCards = e.HoleCards
				}
				pv.HasCards = len(e.HoleCards) > 0
				if !e.Shown {
					// a mucked hand keeps its ranking private
					pv.ShowdownInfo.HandName = ""
					pv.ShowdownInfo.HandDescription = ""
					pv.ShowdownInfo.HandRank = 0
					pv.ShowdownInfo.BestFive = nil
					if p.Username == viewer {
						pv.ShowdownInfo.HandName = e.HandName
						pv.ShowdownInfo.HandDescription = e.HandDescription
					}
				}
			}
		}
		v.Players = append(v.Players, pv)
	}
	return v
}
