package battle

import "slices"

// Status lines shown while the local player waits.
const (
	StatusThinking = "Your opponent weighs their next move..."
	StatusWaiting  = "Waiting for next turn..."
)

// ActionState pairs an action with whether the UI may offer it.
type ActionState struct {
	Action  Action
	Enabled bool
}

// Projection is the read-only view of the battle handed to the display layer.
type Projection struct {
	Active   bool
	BattleID string
	YourTurn bool
	// Actions lists every action of the combat panel in display order.
	Actions        []ActionState
	Opponents      []Combatant
	SelectedTarget string
	// Message is the current combat narration. It may span several lines.
	Message string
	// Status is the waiting line shown while it is not the local player's turn.
	Status string
	// Highlight is true while the message area is emphasised after the turn passes to the
	// local player.
	Highlight bool
	// YourHP is the local player's hit points as last reported in battle, or nil.
	YourHP *int
}

// Enabled reports whether the projection permits action a.
func (p Projection) Enabled(a Action) bool {
	for _, s := range p.Actions {
		if s.Action == a {
			return s.Enabled
		}
	}
	return false
}

// LegalActions returns the enabled actions in display order.
func (p Projection) LegalActions() []Action {
	var out []Action
	for _, s := range p.Actions {
		if s.Enabled {
			out = append(out, s.Action)
		}
	}
	return out
}

// SameContent reports whether p and q differ only in the Highlight flag.
func (p Projection) SameContent(q Projection) bool {
	if p.Active != q.Active || p.BattleID != q.BattleID || p.YourTurn != q.YourTurn ||
		p.SelectedTarget != q.SelectedTarget || p.Message != q.Message || p.Status != q.Status {
		return false
	}
	if (p.YourHP == nil) != (q.YourHP == nil) || (p.YourHP != nil && *p.YourHP != *q.YourHP) {
		return false
	}
	return slices.Equal(p.Actions, q.Actions) && slices.Equal(p.Opponents, q.Opponents)
}

func actionStates(yourTurn bool) []ActionState {
	legal := LegalActions(yourTurn)
	all := AllActions()
	out := make([]ActionState, 0, len(all))
	for _, a := range all {
		out = append(out, ActionState{Action: a, Enabled: slices.Contains(legal, a)})
	}
	return out
}
