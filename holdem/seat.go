package holdem

// Seat navigation over the circular seat ring 1..MaxSeats. Seats can be
// sparse, so the walk is over seat numbers, never over slice indices.

// seatAfter returns the seat i steps clockwise of from.
func seatAfter(from, i, maxSeats int) int {
	return ((from-1+i)%maxSeats+maxSeats)%maxSeats + 1
}

// seatBefore returns the seat i steps counter-clockwise of from.
func seatBefore(from, i, maxSeats int) int {
	return seatAfter(from, -i, maxSeats)
}

// NextActor walks clockwise starting after from and returns the first seat
// whose player is still in the hand. With requireCanAct the player must
// also be able to bet (playing with chips behind). A full cycle ends at
// from itself, so from is returned when it is the only match. Returns
// NoSeat when nobody matches.
func NextActor(t *Table, from int, requireCanAct bool) int {
	n := t.cfg.MaxSeats
	if from == NoSeat {
		from = n
	}
	for i := 1; i <= n; i++ {
		seat := seatAfter(from, i, n)
		p := t.PlayerAt(seat)
		if p == nil {
			continue
		}
		if requireCanAct {
			if !p.canAct() {
				continue
			}
		} else if !p.inHand() {
			continue
		}
		return seat
	}
	return NoSeat
}

// FirstToActPostFlop opens flop, turn and river betting.
func FirstToActPostFlop(t *Table) int {
	return NextActor(t, t.dealerSeat, true)
}

// PreviousActiveSeat returns the first seat counter-clockwise of target
// whose player can still act. That seat closes the round once action comes
// back around to it. When nobody else can act target itself is returned.
func PreviousActiveSeat(t *Table, target int) int {
	n := t.cfg.MaxSeats
	for i := 1; i < n; i++ {
		seat := seatBefore(target, i, n)
		if p := t.PlayerAt(seat); p != nil && p.canAct() {
			return seat
		}
	}
	return target
}
