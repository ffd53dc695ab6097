// Package battle implements the client-side combat state synchronization engine.
//
// The server is authoritative over every combat outcome. This package only folds the
// server's combat events into a local snapshot, projects that snapshot for display and
// turns local intents into outbound action requests.
package battle

// Action is a combat action the local player may request.
type Action string

const (
	ActionAttack Action = "attack"
	ActionDefend Action = "defend"
	ActionSpell  Action = "spell"
	ActionItem   Action = "item"
	ActionRun    Action = "run"
)

// AllActions returns every action the combat panel offers, in display order.
func AllActions() []Action {
	return []Action{ActionAttack, ActionDefend, ActionSpell, ActionItem, ActionRun}
}

// ParseAction maps a label to an Action.
//
// Postcondition: Returns (action, true) for a known label, or ("", false).
func ParseAction(label string) (Action, bool) {
	for _, a := range AllActions() {
		if string(a) == label {
			return a, true
		}
	}
	return "", false
}

// Combatant is one participant of the current battle as last reported by the server.
type Combatant struct {
	ID        string
	IsMonster bool
	// HP is the last hit point value the server reported. Reaching zero does not remove
	// the combatant; only a death event does.
	HP            int
	IsCurrentTurn bool
	// IsDefending is a display decoration only.
	IsDefending bool
}

// setHP stores hp, flooring at zero.
//
// Postcondition: c.HP >= 0.
func (c *Combatant) setHP(hp int) {
	if hp < 0 {
		hp = 0
	}
	c.HP = hp
}
