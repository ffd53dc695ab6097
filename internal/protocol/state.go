package protocol

import (
	"encoding/json"
	"fmt"
)

// PlayerProperties is the flat stat block of the local player.
type PlayerProperties struct {
	ID    string `json:"id"`
	Level int    `json:"level"`
	XP    int    `json:"xp"`
	// HP and MP are "current/max" strings.
	HP  string `json:"hp"`
	MP  string `json:"mp"`
	Str int    `json:"str"`
	Int int    `json:"int"`
	Wis int    `json:"wis"`
	Chr int    `json:"chr"`
	Dex int    `json:"dex"`
	Agi int    `json:"agi"`
}

// GameState is the periodic world snapshot for the local player.
type GameState struct {
	// Map is a grid of symbols, row-major.
	Map      [][]string        `json:"map,omitempty"`
	Messages []string          `json:"messages,omitempty"`
	Player   *PlayerProperties `json:"player,omitempty"`
	GameInfo [][]string        `json:"game_info,omitempty"`
}

// DecodeGameState unmarshals a game_state payload.
func DecodeGameState(data json.RawMessage) (GameState, error) {
	var gs GameState
	if err := json.Unmarshal(data, &gs); err != nil {
		return GameState{}, fmt.Errorf("decoding game state: %w", err)
	}
	return gs, nil
}
