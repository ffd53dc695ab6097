package terminal

import (
	"fmt"
	"strings"

	"github.com/cory-johannsen/dungeon-client/internal/game/battle"
	"github.com/cory-johannsen/dungeon-client/internal/protocol"
)

// DeathText is shown in place of everything else once the local player has died.
const DeathText = "Thou art dead."

// RenderMap formats the world grid, one row per line.
func RenderMap(grid [][]string) string {
	var b strings.Builder
	for _, row := range grid {
		for _, cell := range row {
			b.WriteString(renderTile(cell))
		}
		b.WriteString("\n")
	}
	return b.String()
}

func renderTile(cell string) string {
	switch cell {
	case "#":
		return Colorize(BrightBlack, cell)
	case "":
		return " "
	case " ", ".":
		return cell
	default:
		return Colorize(Bold+BrightCyan, cell)
	}
}

// RenderMessages formats the server's message log, oldest first.
func RenderMessages(msgs []string) string {
	var b strings.Builder
	for _, m := range msgs {
		b.WriteString(Colorize(White, m))
		b.WriteString("\n")
	}
	return b.String()
}

// RenderPlayer formats the local player's stat block.
func RenderPlayer(p *protocol.PlayerProperties) string {
	if p == nil {
		return ""
	}
	var b strings.Builder
	b.WriteString(Colorf(BrightYellow, "%s", p.ID))
	b.WriteString(fmt.Sprintf("  Level %d  XP %d\n", p.Level, p.XP))
	b.WriteString(fmt.Sprintf("%sHP%s %-8s %sMP%s %s\n", Red, Reset, p.HP, Blue, Reset, p.MP))
	b.WriteString(Colorf(Dim, "STR %d  INT %d  WIS %d  CHR %d  DEX %d  AGI %d",
		p.Str, p.Int, p.Wis, p.Chr, p.Dex, p.Agi))
	b.WriteString("\n")
	return b.String()
}

// RenderGameInfo formats the free-form info grid, cells separated by two spaces.
func RenderGameInfo(rows [][]string) string {
	var b strings.Builder
	for _, row := range rows {
		b.WriteString(Colorize(Cyan, strings.Join(row, "  ")))
		b.WriteString("\n")
	}
	return b.String()
}

// RenderWorld formats a complete world snapshot.
func RenderWorld(gs protocol.GameState) string {
	var b strings.Builder
	b.WriteString(RenderPlayer(gs.Player))
	if len(gs.Map) > 0 {
		b.WriteString("\n")
		b.WriteString(RenderMap(gs.Map))
	}
	if len(gs.GameInfo) > 0 {
		b.WriteString("\n")
		b.WriteString(RenderGameInfo(gs.GameInfo))
	}
	return b.String()
}

// RenderBattle formats the combat panel for a projection.
//
// Postcondition: Returns "" for an inactive projection.
func RenderBattle(p battle.Projection) string {
	if !p.Active {
		return ""
	}

	var b strings.Builder
	title := "Battle"
	if p.BattleID != "" {
		title += " " + p.BattleID
	}
	b.WriteString(Colorf(Bold+BrightRed, "== %s ==", title))
	b.WriteString("\n")
	if p.YourHP != nil {
		b.WriteString(fmt.Sprintf("Your HP: %d\n", *p.YourHP))
	}

	if len(p.Opponents) == 0 {
		b.WriteString(Colorize(Dim, "  (no opponents)"))
		b.WriteString("\n")
	}
	for _, c := range p.Opponents {
		b.WriteString(renderOpponent(c, c.ID == p.SelectedTarget))
		b.WriteString("\n")
	}

	if p.Message != "" {
		color := Green
		if p.Highlight {
			color = Bold + Yellow
		}
		for _, line := range strings.Split(p.Message, "\n") {
			b.WriteString(Colorize(color, line))
			b.WriteString("\n")
		}
	}
	if p.Status != "" {
		b.WriteString(Colorize(Italic+Dim, p.Status))
		b.WriteString("\n")
	}

	b.WriteString(RenderActions(p.Actions))
	b.WriteString("\n")
	return b.String()
}

func renderOpponent(c battle.Combatant, selected bool) string {
	var b strings.Builder
	if selected {
		b.WriteString(Colorize(BrightYellow, "> "))
	} else {
		b.WriteString("  ")
	}
	name := c.ID
	if c.IsCurrentTurn {
		name = Colorize(Bold+BrightWhite, name)
	}
	b.WriteString(name)
	b.WriteString(fmt.Sprintf("  HP %d", c.HP))
	if c.IsMonster {
		b.WriteString(Colorize(Dim, " (monster)"))
	}
	if c.IsDefending {
		b.WriteString(Colorize(Cyan, " [defending]"))
	}
	if c.IsCurrentTurn {
		b.WriteString(Colorize(Magenta, " *acting*"))
	}
	return b.String()
}

// RenderActions formats the action buttons; disabled ones are dimmed.
func RenderActions(actions []battle.ActionState) string {
	parts := make([]string, 0, len(actions))
	for _, a := range actions {
		label := "[" + actionLabel(a.Action) + "]"
		if a.Enabled {
			parts = append(parts, Colorize(Bold+BrightWhite, label))
		} else {
			parts = append(parts, Colorize(BrightBlack, label))
		}
	}
	return strings.Join(parts, " ")
}

func actionLabel(a battle.Action) string {
	s := string(a)
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

// RenderLog formats one line of the client-side log.
func RenderLog(line string) string {
	return Colorize(BrightGreen, line)
}

// RenderNotice formats a message from the client itself rather than the server.
func RenderNotice(text string) string {
	return Colorize(Yellow, text)
}

// RenderDeath formats the terminal death screen.
func RenderDeath() string {
	return Colorize(Bold+Red, DeathText)
}
