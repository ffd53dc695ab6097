// Package command provides the client command registry, parser, and built-in command
// definitions.
package command

import (
	"github.com/cory-johannsen/dungeon-client/internal/game/battle"
	"github.com/cory-johannsen/dungeon-client/internal/protocol"
)

// Categories for organizing commands.
const (
	CategoryMovement = "movement"
	CategoryCombat   = "combat"
	CategorySystem   = "system"
)

// Handler identifiers mapping commands to session behavior.
const (
	HandlerMove   = "move"
	HandlerAction = "action"
	HandlerTarget = "target"
	HandlerStatus = "status"
	HandlerHelp   = "help"
	HandlerQuit   = "quit"
)

// Command defines a player-invocable command.
type Command struct {
	// Name is the canonical command name.
	Name string
	// Aliases are alternate names for this command.
	Aliases []string
	// Help is the short help text displayed to players.
	Help string
	// Category groups the command (movement, combat, system).
	Category string
	// Handler selects the session behavior the command triggers.
	Handler string
	// Direction is the wire direction of a movement command.
	Direction string
	// Action is the combat action of an action command.
	Action battle.Action
}

// BuiltinCommands returns all built-in client commands.
func BuiltinCommands() []Command {
	return []Command{
		// Movement commands; the single-letter aliases are the classic w/a/s/d keys.
		{Name: "up", Aliases: []string{"w", "north", "n"}, Help: "Move up", Category: CategoryMovement, Handler: HandlerMove, Direction: protocol.DirUp},
		{Name: "left", Aliases: []string{"a", "west"}, Help: "Move left", Category: CategoryMovement, Handler: HandlerMove, Direction: protocol.DirLeft},
		{Name: "down", Aliases: []string{"s", "south"}, Help: "Move down", Category: CategoryMovement, Handler: HandlerMove, Direction: protocol.DirDown},
		{Name: "right", Aliases: []string{"d", "east", "e"}, Help: "Move right", Category: CategoryMovement, Handler: HandlerMove, Direction: protocol.DirRight},

		// Combat commands
		{Name: "attack", Aliases: []string{"att", "1"}, Help: "Attack the selected target", Category: CategoryCombat, Handler: HandlerAction, Action: battle.ActionAttack},
		{Name: "defend", Aliases: []string{"def", "2"}, Help: "Take a defensive stance", Category: CategoryCombat, Handler: HandlerAction, Action: battle.ActionDefend},
		{Name: "spell", Aliases: []string{"cast", "3"}, Help: "Cast a spell", Category: CategoryCombat, Handler: HandlerAction, Action: battle.ActionSpell},
		{Name: "item", Aliases: []string{"use", "4"}, Help: "Use an item", Category: CategoryCombat, Handler: HandlerAction, Action: battle.ActionItem},
		{Name: "run", Aliases: []string{"flee", "5"}, Help: "Run from the battle", Category: CategoryCombat, Handler: HandlerAction, Action: battle.ActionRun},
		{Name: "target", Aliases: []string{"t", "tgt"}, Help: "Select an opponent (target <id>)", Category: CategoryCombat, Handler: HandlerTarget},
		{Name: "status", Aliases: []string{"st"}, Help: "Show the battle status", Category: CategoryCombat, Handler: HandlerStatus},

		// System commands
		{Name: "help", Aliases: []string{"?"}, Help: "Show available commands", Category: CategorySystem, Handler: HandlerHelp},
		{Name: "quit", Aliases: []string{"exit", "q"}, Help: "Leave the game", Category: CategorySystem, Handler: HandlerQuit},
	}
}

// IsMovementCommand reports whether the command name is a movement direction.
func IsMovementCommand(name string) bool {
	switch name {
	case "up", "down", "left", "right":
		return true
	default:
		return false
	}
}
