package battle

import "fmt"

// LegalActions returns the actions the local player may take.
//
// Postcondition: Returns exactly [attack, defend] when yourTurn is true, otherwise nil.
// Spell, item and run are never legal.
func LegalActions(yourTurn bool) []Action {
	if !yourTurn {
		return nil
	}
	return []Action{ActionAttack, ActionDefend}
}

// Narrate synthesizes the combat message for an action result. The rules are evaluated in
// order and the first that matches wins, even if it yields no text.
//
// Postcondition: Returns (message, true) when a message was produced, ("", false) otherwise.
func Narrate(ev ActionResult) (string, bool) {
	switch {
	case ev.Blocked:
		if ev.YourTurn {
			return fmt.Sprintf("You blocked %s's attack with your skillful guard!", ev.OpponentID), true
		}
		return fmt.Sprintf("Your blow was thwarted by %s's skillful guard!", ev.OpponentID), true

	case ev.Action == string(ActionDefend):
		if !ev.YourTurn {
			return "You took a defensive stance.", true
		}
		if ev.PreviousAction == string(ActionDefend) {
			return fmt.Sprintf("%s took a defensive stance.", ev.OpponentID), true
		}
		return "", false

	case ev.DamageDealt > 0:
		msg := fmt.Sprintf("You dealt %d damage to %s.", ev.DamageDealt, ev.OpponentID)
		if ev.DamageTaken > 0 && ev.OpponentIsMonster {
			msg += fmt.Sprintf("\nThe %s strikes back for %d damage!", ev.OpponentID, ev.DamageTaken)
		}
		return msg, true

	case ev.DamageTaken > 0:
		return fmt.Sprintf("You took %d damage from %s.", ev.DamageTaken, ev.OpponentID), true
	}
	return "", false
}
