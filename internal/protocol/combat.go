package protocol

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/cory-johannsen/dungeon-client/internal/game/battle"
)

// HitPoints decodes a hit point or damage value sent either as a number or as a string,
// including the "current/max" form player stat blocks use.
type HitPoints int

// UnmarshalJSON implements json.Unmarshaler.
func (h *HitPoints) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		cur, _, _ := strings.Cut(strings.TrimSpace(s), "/")
		n, err := strconv.Atoi(strings.TrimSpace(cur))
		if err != nil {
			return fmt.Errorf("hit points %q: %w", s, err)
		}
		*h = HitPoints(n)
		return nil
	}
	var f float64
	if err := json.Unmarshal(data, &f); err != nil {
		return fmt.Errorf("hit points: %w", err)
	}
	*h = HitPoints(int(f))
	return nil
}

// Combatant is the wire form of a battle participant.
type Combatant struct {
	ID            string    `json:"id"`
	IsMonster     bool      `json:"is_monster"`
	HP            HitPoints `json:"hp"`
	IsCurrentTurn bool      `json:"is_current_turn,omitempty"`
	IsDefending   bool      `json:"is_defending,omitempty"`
}

// CombatUpdate is the union of every combat_update payload. Type selects which fields are
// meaningful.
type CombatUpdate struct {
	Type string `json:"type"`

	BattleID  string      `json:"battle_id,omitempty"`
	Opponents []Combatant `json:"opponents,omitempty"`
	YourTurn  bool        `json:"your_turn"`

	Targets []Combatant `json:"targets,omitempty"`

	Action            string      `json:"action,omitempty"`
	Blocked           bool        `json:"blocked,omitempty"`
	PreviousAction    string      `json:"previous_action,omitempty"`
	DamageDealt       HitPoints   `json:"damage_dealt,omitempty"`
	DamageTaken       HitPoints   `json:"damage_taken,omitempty"`
	OpponentID        string      `json:"opponent_id,omitempty"`
	OpponentIsMonster bool        `json:"opponent_is_monster,omitempty"`
	OpponentHP        *HitPoints  `json:"opponent_hp,omitempty"`
	YourHP            *HitPoints  `json:"your_hp,omitempty"`
	Combatants        []Combatant `json:"combatants,omitempty"`
	Message           string      `json:"message,omitempty"`
	TargetID          string      `json:"target_id,omitempty"`

	MonsterID string `json:"monster_id,omitempty"`
	PlayerID  string `json:"player_id,omitempty"`

	ActivePlayer string `json:"active_player,omitempty"`
}

// DecodeCombatEvent unmarshals a combat_update payload into its battle event. Unknown
// types decode to battle.Unknown rather than an error.
//
// Postcondition: Returns a non-nil event, or a non-nil error if data is not valid JSON.
func DecodeCombatEvent(data json.RawMessage) (battle.Event, error) {
	var u CombatUpdate
	if err := json.Unmarshal(data, &u); err != nil {
		return nil, fmt.Errorf("decoding combat update: %w", err)
	}
	return u.Event(), nil
}

// Event converts the payload into the battle event its Type names.
func (u CombatUpdate) Event() battle.Event {
	switch u.Type {
	case battle.KindStart:
		opponents := combatants(u.Opponents)
		if u.Opponents == nil && u.OpponentID != "" {
			// Older servers announce a single opponent inline.
			legacy := battle.Combatant{ID: u.OpponentID, IsMonster: u.OpponentIsMonster}
			if u.OpponentHP != nil {
				legacy.HP = int(*u.OpponentHP)
			}
			opponents = []battle.Combatant{legacy}
		}
		return battle.Start{BattleID: u.BattleID, Opponents: opponents, YourTurn: u.YourTurn}
	case battle.KindTargetRequest:
		targets := combatants(u.Targets)
		if targets == nil {
			targets = []battle.Combatant{}
		}
		return battle.TargetRequest{Targets: targets}
	case battle.KindAction:
		return battle.ActionResult{
			YourTurn:          u.YourTurn,
			Action:            u.Action,
			Blocked:           u.Blocked,
			PreviousAction:    u.PreviousAction,
			DamageDealt:       int(u.DamageDealt),
			DamageTaken:       int(u.DamageTaken),
			OpponentID:        u.OpponentID,
			OpponentIsMonster: u.OpponentIsMonster,
			OpponentHP:        intPtr(u.OpponentHP),
			YourHP:            intPtr(u.YourHP),
			Combatants:        combatants(u.Combatants),
			Message:           u.Message,
			TargetID:          u.TargetID,
		}
	case battle.KindMonsterDeath:
		return battle.MonsterDeath{MonsterID: u.MonsterID, Message: u.Message}
	case battle.KindPlayerDeath:
		return battle.PlayerDeath{PlayerID: u.PlayerID, Message: u.Message}
	case battle.KindEnd:
		return battle.End{Message: u.Message}
	case battle.KindTurnNotification:
		return battle.TurnNotification{YourTurn: u.YourTurn, Message: u.Message, ActivePlayer: u.ActivePlayer}
	default:
		return battle.Unknown{Type: u.Type}
	}
}

func combatants(in []Combatant) []battle.Combatant {
	if in == nil {
		return nil
	}
	out := make([]battle.Combatant, 0, len(in))
	for _, c := range in {
		out = append(out, battle.Combatant{
			ID:            c.ID,
			IsMonster:     c.IsMonster,
			HP:            int(c.HP),
			IsCurrentTurn: c.IsCurrentTurn,
			IsDefending:   c.IsDefending,
		})
	}
	return out
}

func intPtr(h *HitPoints) *int {
	if h == nil {
		return nil
	}
	n := int(*h)
	return &n
}
