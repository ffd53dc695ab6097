package battle

// Battle is the aggregate of every opponent and the target selection for the single
// in-progress fight. The zero value is not usable; construct with NewBattle.
//
// Invariants:
//   - the local player's id is never a key of the roster;
//   - the selected target, when set, is a key of the roster;
//   - at most one opponent has IsCurrentTurn set;
//   - when the battle is inactive the roster is empty and nothing is selected.
//
// Battle is not safe for concurrent use; it is owned by a single View.
type Battle struct {
	localID  string
	active   bool
	id       string
	order    []string
	roster   map[string]*Combatant
	selected string
}

// NewBattle creates an inactive Battle for the given local player.
//
// Precondition: localID is the id the player logged in with.
// Postcondition: Returns an inactive Battle with an empty roster.
func NewBattle(localID string) *Battle {
	return &Battle{
		localID: localID,
		roster:  make(map[string]*Combatant),
	}
}

// LocalID returns the id of the local player.
func (b *Battle) LocalID() string { return b.localID }

// ID returns the battle identifier. It is "" when no battle is active, and may also be ""
// for an active battle when the server did not assign one.
func (b *Battle) ID() string { return b.id }

// Active reports whether a battle is in progress.
func (b *Battle) Active() bool { return b.active }

// Len returns the number of opponents in the roster.
func (b *Battle) Len() int { return len(b.order) }

// Opponents returns a copy of the roster in the order the server supplied it.
//
// Postcondition: Mutating the returned slice does not affect the Battle.
func (b *Battle) Opponents() []Combatant {
	out := make([]Combatant, 0, len(b.order))
	for _, id := range b.order {
		out = append(out, *b.roster[id])
	}
	return out
}

// Opponent returns a copy of the named opponent.
//
// Postcondition: Returns (combatant, true) if id is in the roster, or (zero, false).
func (b *Battle) Opponent(id string) (Combatant, bool) {
	c, ok := b.roster[id]
	if !ok {
		return Combatant{}, false
	}
	return *c, true
}

// SelectedTarget returns the selected target id.
//
// Postcondition: Returns ("", false) when nothing is selected.
func (b *Battle) SelectedTarget() (string, bool) {
	return b.selected, b.selected != ""
}

// SetOpponents replaces the roster wholesale with the given snapshots. Entries for the
// local player and entries with an empty id are dropped. A repeated id keeps its first
// position and its last snapshot. If more than one entry claims the current turn only the
// first keeps the flag. An inactive battle ignores the call.
//
// Postcondition: The selection is kept if it survives the replacement; otherwise the first
// opponent becomes the selection, or nothing is selected when the roster is empty.
func (b *Battle) SetOpponents(list []Combatant) {
	if !b.active {
		return
	}
	b.order = b.order[:0]
	b.roster = make(map[string]*Combatant, len(list))
	turnTaken := false
	for _, c := range list {
		if c.ID == "" || c.ID == b.localID {
			continue
		}
		if _, dup := b.roster[c.ID]; !dup {
			b.order = append(b.order, c.ID)
		}
		entry := c
		entry.setHP(c.HP)
		b.roster[c.ID] = &entry
	}
	for _, id := range b.order {
		c := b.roster[id]
		if c.IsCurrentTurn {
			if turnTaken {
				c.IsCurrentTurn = false
			}
			turnTaken = true
		}
	}
	b.ensureSelection()
}

// SelectTarget selects id as the target of the next action.
//
// Postcondition: Returns true and selects id if it is in the roster; otherwise returns
// false and the selection is unchanged.
func (b *Battle) SelectTarget(id string) bool {
	if _, ok := b.roster[id]; !ok {
		return false
	}
	b.selected = id
	return true
}

// RemoveMonster removes the monster with the given id. Players sharing the id are kept.
//
// Postcondition: Returns true if a monster was removed.
func (b *Battle) RemoveMonster(id string) bool {
	return b.remove(id, true)
}

// RemovePlayer removes the non-monster combatant with the given id. Monsters sharing the
// id are kept.
//
// Postcondition: Returns true if a player was removed.
func (b *Battle) RemovePlayer(id string) bool {
	return b.remove(id, false)
}

func (b *Battle) remove(id string, monster bool) bool {
	c, ok := b.roster[id]
	if !ok || c.IsMonster != monster {
		return false
	}
	delete(b.roster, id)
	for i, oid := range b.order {
		if oid == id {
			b.order = append(b.order[:i], b.order[i+1:]...)
			break
		}
	}
	b.ensureSelection()
	return true
}

// SetActiveTurn marks the opponent with the given id as the one whose turn it is and
// clears the flag on everyone else. An id outside the roster (including the local player's
// own id) clears every flag.
//
// Postcondition: At most one opponent has IsCurrentTurn set.
func (b *Battle) SetActiveTurn(id string) {
	for _, oid := range b.order {
		b.roster[oid].IsCurrentTurn = oid == id
	}
}

// UpdateHP records a new hit point value for the named opponent.
//
// Postcondition: Returns false and changes nothing if id is not in the roster.
func (b *Battle) UpdateHP(id string, hp int) bool {
	c, ok := b.roster[id]
	if !ok {
		return false
	}
	c.setHP(hp)
	return true
}

// SetDefending sets the display-only defending flag on the named opponent.
func (b *Battle) SetDefending(id string, defending bool) bool {
	c, ok := b.roster[id]
	if !ok {
		return false
	}
	c.IsDefending = defending
	return true
}

// Start makes the battle active under the given id with a fresh roster, discarding any
// battle already in progress.
//
// Postcondition: Active() is true; the roster holds opponents minus the local player.
func (b *Battle) Start(id string, opponents []Combatant) {
	b.Reset()
	b.active = true
	b.id = id
	b.SetOpponents(opponents)
}

// Reset returns the battle to the inactive state. Resetting an inactive battle is a no-op.
//
// Postcondition: Active() is false, the roster is empty, nothing is selected.
func (b *Battle) Reset() {
	b.active = false
	b.id = ""
	b.order = nil
	b.roster = make(map[string]*Combatant)
	b.selected = ""
}

// ensureSelection applies the default-selection policy.
func (b *Battle) ensureSelection() {
	if _, ok := b.roster[b.selected]; ok {
		return
	}
	b.selected = ""
	if len(b.order) > 0 {
		b.selected = b.order[0]
	}
}
