// Package devserver serves scripted game sessions over websockets for local development
// and end-to-end tests of the client.
package devserver

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"
	"unicode/utf8"

	"gopkg.in/yaml.v3"

	"github.com/cory-johannsen/dungeon-client/internal/protocol"
)

// Tokens replaced in scripted event data.
const (
	// PlayerToken stands for the connected player's id.
	PlayerToken = "${player}"
	// TargetToken stands for the target of the action request being answered.
	TargetToken = "${target}"
)

// PlayerTile marks the player's position on a scenario map.
const PlayerTile = "@"

// yamlScenarioFile is the top-level YAML structure for scenario files.
type yamlScenarioFile struct {
	Scenario yamlScenario `yaml:"scenario"`
}

// yamlScenario is the YAML representation of a scenario.
type yamlScenario struct {
	Name        string      `yaml:"name"`
	Description string      `yaml:"description"`
	TakenIDs    []string    `yaml:"taken_ids"`
	World       yamlWorld   `yaml:"world"`
	Opening     []yamlEvent `yaml:"opening"`
	Rounds      []yamlRound `yaml:"rounds"`
}

// yamlWorld is the YAML representation of the initial world snapshot.
type yamlWorld struct {
	Map      []string    `yaml:"map"`
	Messages []string    `yaml:"messages"`
	Player   *yamlPlayer `yaml:"player"`
	GameInfo [][]string  `yaml:"game_info"`
}

// yamlPlayer is the YAML representation of the player's stat block.
type yamlPlayer struct {
	Level int    `yaml:"level"`
	XP    int    `yaml:"xp"`
	HP    string `yaml:"hp"`
	MP    string `yaml:"mp"`
	Str   int    `yaml:"str"`
	Int   int    `yaml:"int"`
	Wis   int    `yaml:"wis"`
	Chr   int    `yaml:"chr"`
	Dex   int    `yaml:"dex"`
	Agi   int    `yaml:"agi"`
}

// yamlRound is the YAML representation of the events answering one action request.
type yamlRound struct {
	Events []yamlEvent `yaml:"events"`
}

// yamlEvent is the YAML representation of one scripted server frame.
type yamlEvent struct {
	Event string    `yaml:"event"`
	Data  yaml.Node `yaml:"data"`
}

// Event is one scripted server frame. Data is the JSON payload, possibly containing
// PlayerToken.
type Event struct {
	Name string
	Data json.RawMessage
}

// Envelope renders the event, replacing each token key of vars with its value.
func (e Event) Envelope(vars map[string]string) protocol.Envelope {
	env := protocol.Envelope{Event: e.Name}
	if len(e.Data) == 0 {
		return env
	}
	pairs := make([]string, 0, 2*len(vars))
	for token, value := range vars {
		// Values are JSON-escaped so they are safe inside string literals.
		quoted, _ := json.Marshal(value)
		pairs = append(pairs, token, string(quoted[1:len(quoted)-1]))
	}
	env.Data = json.RawMessage(strings.NewReplacer(pairs...).Replace(string(e.Data)))
	return env
}

// Round is the list of events sent in answer to one action request.
type Round struct {
	Events []Event
}

// Scenario is a scripted encounter.
type Scenario struct {
	Name        string
	Description string
	TakenIDs    []string

	// Map rows hold one tile per character; PlayerTile marks the start position.
	Map      []string
	Messages []string
	Player   *protocol.PlayerProperties
	GameInfo [][]string
	Opening  []Event
	Rounds   []Round
}

// Validate checks that the scenario can be served.
//
// Postcondition: Returns nil if valid, or an error listing every violation.
func (s *Scenario) Validate() error {
	var errs []string
	if s.Name == "" {
		errs = append(errs, "scenario name must not be empty")
	}
	players := 0
	for i, row := range s.Map {
		players += strings.Count(row, PlayerTile)
		if width, want := utf8.RuneCountInString(row), utf8.RuneCountInString(s.Map[0]); width != want {
			errs = append(errs, fmt.Sprintf("map row %d has width %d, want %d", i, width, want))
		}
	}
	if len(s.Map) > 0 && players != 1 {
		errs = append(errs, fmt.Sprintf("map must contain exactly one %q tile, found %d", PlayerTile, players))
	}
	for i, id := range s.TakenIDs {
		if strings.TrimSpace(id) == "" {
			errs = append(errs, fmt.Sprintf("taken_ids[%d] must not be empty", i))
		}
	}
	for i, ev := range s.Opening {
		if ev.Name == "" {
			errs = append(errs, fmt.Sprintf("opening[%d]: event name must not be empty", i))
		}
	}
	for i, r := range s.Rounds {
		if len(r.Events) == 0 {
			errs = append(errs, fmt.Sprintf("rounds[%d] has no events", i))
		}
		for j, ev := range r.Events {
			if ev.Name == "" {
				errs = append(errs, fmt.Sprintf("rounds[%d].events[%d]: event name must not be empty", i, j))
			}
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("invalid scenario: %s", strings.Join(errs, "; "))
	}
	return nil
}

// World builds the opening world snapshot for playerID.
func (s *Scenario) World(playerID string) protocol.GameState {
	gs := protocol.GameState{
		Map:      tiles(s.Map),
		Messages: append([]string(nil), s.Messages...),
		GameInfo: s.GameInfo,
	}
	if s.Player != nil {
		p := *s.Player
		p.ID = playerID
		gs.Player = &p
	}
	return gs
}

// IsTaken reports whether playerID is reserved by the scenario.
func (s *Scenario) IsTaken(playerID string) bool {
	for _, id := range s.TakenIDs {
		if id == playerID {
			return true
		}
	}
	return false
}

// LoadScenarioFromFile reads and validates a single scenario YAML file.
//
// Precondition: path must point to a valid YAML scenario file.
// Postcondition: Returns a validated Scenario or a non-nil error.
func LoadScenarioFromFile(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading scenario file %s: %w", path, err)
	}
	return LoadScenarioFromBytes(data)
}

// LoadScenarioFromBytes parses and validates a scenario from YAML bytes.
//
// Precondition: data must be valid YAML conforming to the scenario schema.
// Postcondition: Returns a validated Scenario or a non-nil error.
func LoadScenarioFromBytes(data []byte) (*Scenario, error) {
	var file yamlScenarioFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parsing scenario YAML: %w", err)
	}

	scenario, err := convertYAMLScenario(file.Scenario)
	if err != nil {
		return nil, err
	}
	if err := scenario.Validate(); err != nil {
		return nil, fmt.Errorf("validating scenario: %w", err)
	}
	return scenario, nil
}

func convertYAMLScenario(ys yamlScenario) (*Scenario, error) {
	s := &Scenario{
		Name:        ys.Name,
		Description: ys.Description,
		TakenIDs:    ys.TakenIDs,
		Map:         ys.World.Map,
		Messages:    ys.World.Messages,
		GameInfo:    ys.World.GameInfo,
	}
	if p := ys.World.Player; p != nil {
		s.Player = &protocol.PlayerProperties{
			Level: p.Level, XP: p.XP, HP: p.HP, MP: p.MP,
			Str: p.Str, Int: p.Int, Wis: p.Wis, Chr: p.Chr, Dex: p.Dex, Agi: p.Agi,
		}
	}

	var err error
	if s.Opening, err = convertYAMLEvents(ys.Opening, "opening"); err != nil {
		return nil, err
	}
	for i, r := range ys.Rounds {
		events, err := convertYAMLEvents(r.Events, fmt.Sprintf("rounds[%d]", i))
		if err != nil {
			return nil, err
		}
		s.Rounds = append(s.Rounds, Round{Events: events})
	}
	return s, nil
}

func convertYAMLEvents(in []yamlEvent, where string) ([]Event, error) {
	out := make([]Event, 0, len(in))
	for i, ye := range in {
		ev := Event{Name: ye.Event}
		if !ye.Data.IsZero() {
			data, err := nodeToJSON(&ye.Data)
			if err != nil {
				return nil, fmt.Errorf("%s[%d] %s data: %w", where, i, ye.Event, err)
			}
			ev.Data = data
		}
		out = append(out, ev)
	}
	return out, nil
}

// nodeToJSON re-encodes a YAML node as JSON.
func nodeToJSON(node *yaml.Node) (json.RawMessage, error) {
	value, err := plain(node)
	if err != nil {
		return nil, err
	}
	return json.Marshal(value)
}

// plain decodes a node into values encoding/json accepts: mappings become
// map[string]any with string keys.
func plain(node *yaml.Node) (any, error) {
	switch node.Kind {
	case yaml.DocumentNode:
		if len(node.Content) == 0 {
			return nil, nil
		}
		return plain(node.Content[0])
	case yaml.AliasNode:
		return plain(node.Alias)
	case yaml.MappingNode:
		m := make(map[string]any, len(node.Content)/2)
		for i := 0; i+1 < len(node.Content); i += 2 {
			v, err := plain(node.Content[i+1])
			if err != nil {
				return nil, err
			}
			m[node.Content[i].Value] = v
		}
		return m, nil
	case yaml.SequenceNode:
		list := make([]any, 0, len(node.Content))
		for _, child := range node.Content {
			v, err := plain(child)
			if err != nil {
				return nil, err
			}
			list = append(list, v)
		}
		return list, nil
	case yaml.ScalarNode:
		var v any
		if err := node.Decode(&v); err != nil {
			return nil, err
		}
		return v, nil
	default:
		return nil, errors.New("unsupported YAML node")
	}
}

func tiles(rows []string) [][]string {
	if len(rows) == 0 {
		return nil
	}
	grid := make([][]string, len(rows))
	for i, row := range rows {
		grid[i] = make([]string, 0, len(row))
		for _, r := range row {
			grid[i] = append(grid[i], string(r))
		}
	}
	return grid
}
