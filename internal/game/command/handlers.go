package command

import (
	"fmt"
	"strings"

	"github.com/cory-johannsen/dungeon-client/internal/game/battle"
)

// Player-facing refusals.
const (
	MsgNotInCombat   = "You are not in combat."
	MsgCannotActNow  = "You cannot do that right now."
	MsgUnknownPrefix = "Unknown command"
)

// TargetSelector is the part of the battle view the target command drives.
type TargetSelector interface {
	SelectTarget(id string) bool
	Projection() battle.Projection
}

// HandleTarget processes the "target" command.
// arg is an opponent id; an empty arg lists the choices.
//
// Precondition: sel must not be nil.
// Postcondition: On success the opponent is selected and a confirmation is returned. On
// failure the selection is unchanged.
func HandleTarget(sel TargetSelector, arg string) string {
	p := sel.Projection()
	if !p.Active {
		return MsgNotInCombat
	}
	choices := opponentIDs(p.Opponents)
	id := strings.TrimSpace(arg)
	if id == "" {
		if len(choices) == 0 {
			return "There is no one to target."
		}
		return fmt.Sprintf("Target whom? Choices: %s", strings.Join(choices, ", "))
	}
	if !sel.SelectTarget(id) {
		return fmt.Sprintf("No opponent named %q. Choices: %s", id, strings.Join(choices, ", "))
	}
	return fmt.Sprintf("Targeting %s.", id)
}

// CheckAction reports why action a may not be sent now.
//
// Postcondition: Returns "" when the projection enables a, else a refusal message.
func CheckAction(p battle.Projection, a battle.Action) string {
	if !p.Active {
		return MsgNotInCombat
	}
	if !p.Enabled(a) {
		return MsgCannotActNow
	}
	return ""
}

// HandleStatus renders a plain-text summary of the battle.
//
// Postcondition: Returns a non-empty multi-line string.
func HandleStatus(p battle.Projection) string {
	if !p.Active {
		return MsgNotInCombat
	}

	var b strings.Builder
	if p.BattleID != "" {
		fmt.Fprintf(&b, "Battle %s\n", p.BattleID)
	}
	if p.YourHP != nil {
		fmt.Fprintf(&b, "Your HP: %d\n", *p.YourHP)
	}
	if p.YourTurn {
		b.WriteString("It is your turn.\n")
	} else if p.Status != "" {
		b.WriteString(p.Status + "\n")
	}
	if len(p.Opponents) == 0 {
		b.WriteString("No opponents remain.")
		return b.String()
	}
	b.WriteString("Opponents:")
	for _, c := range p.Opponents {
		fmt.Fprintf(&b, "\n  %s (HP %d)", c.ID, c.HP)
		if c.ID == p.SelectedTarget {
			b.WriteString(" [target]")
		}
		if c.IsCurrentTurn {
			b.WriteString(" [acting]")
		}
		if c.IsDefending {
			b.WriteString(" [defending]")
		}
	}
	return b.String()
}

// HandleHelp lists every command by category.
//
// Precondition: r must not be nil.
// Postcondition: Returns one line per command, grouped under category headings.
func HandleHelp(r *Registry) string {
	cats := r.CommandsByCategory()
	var b strings.Builder
	for _, cat := range []string{CategoryMovement, CategoryCombat, CategorySystem} {
		cmds := cats[cat]
		if len(cmds) == 0 {
			continue
		}
		if b.Len() > 0 {
			b.WriteString("\n")
		}
		fmt.Fprintf(&b, "%s:", strings.ToUpper(cat[:1])+cat[1:])
		for _, cmd := range cmds {
			name := cmd.Name
			if len(cmd.Aliases) > 0 {
				name += " (" + strings.Join(cmd.Aliases, ", ") + ")"
			}
			fmt.Fprintf(&b, "\n  %-24s %s", name, cmd.Help)
		}
	}
	return b.String()
}

// HandleUnknown reports an unrecognized command word.
func HandleUnknown(word string) string {
	return fmt.Sprintf("%s %q. Type help for a list of commands.", MsgUnknownPrefix, word)
}

func opponentIDs(cs []battle.Combatant) []string {
	out := make([]string, 0, len(cs))
	for _, c := range cs {
		out = append(out, c.ID)
	}
	return out
}
