package devserver

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/cory-johannsen/dungeon-client/internal/game/battle"
	"github.com/cory-johannsen/dungeon-client/internal/protocol"
)

// maxMessages bounds the world messages kept per connection.
const maxMessages = 5

// Sender delivers envelopes to one connected client.
type Sender interface {
	Send(env protocol.Envelope) error
}

// Registry tracks the player ids in use across connections.
type Registry interface {
	Claim(playerID string) bool
	Release(playerID string)
}

type step struct {
	dRow, dCol int
	name       string
}

var steps = map[string]step{
	protocol.DirUp:    {-1, 0, "north"},
	protocol.DirDown:  {1, 0, "south"},
	protocol.DirLeft:  {0, -1, "west"},
	protocol.DirRight: {0, 1, "east"},
}

// Match plays one scenario for one connection. Handle must be called from a single
// goroutine.
type Match struct {
	scenario *Scenario
	out      Sender
	players  Registry
	delay    time.Duration
	logger   *zap.Logger

	playerID string
	world    protocol.GameState
	row, col int
	round    int
}

// NewMatch creates a match that answers on out.
//
// Precondition: scenario, out and players must be non-nil.
// Postcondition: A nil logger is replaced by a no-op logger.
func NewMatch(scenario *Scenario, out Sender, players Registry, delay time.Duration, logger *zap.Logger) *Match {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Match{scenario: scenario, out: out, players: players, delay: delay, logger: logger}
}

// PlayerID returns the id the client logged in as, or "" before login.
func (m *Match) PlayerID() string { return m.playerID }

// Close releases the player id claimed by the match.
func (m *Match) Close() {
	if m.playerID != "" {
		m.players.Release(m.playerID)
	}
}

// Handle answers one client request. Pacing waits end early when ctx is done.
//
// Postcondition: Returns a non-nil error only if a reply could not be sent.
func (m *Match) Handle(ctx context.Context, env protocol.Envelope) error {
	switch env.Event {
	case protocol.EventSelectID:
		return m.login(ctx, env.Data)
	case protocol.EventMove:
		if m.playerID == "" {
			m.logger.Debug("ignoring move before login")
			return nil
		}
		return m.move(env.Data)
	case protocol.EventActionRequest:
		if m.playerID == "" {
			m.logger.Debug("ignoring action before login")
			return nil
		}
		return m.act(ctx, env.Data)
	default:
		m.logger.Debug("ignoring unknown request", zap.String("event", env.Event))
		return nil
	}
}

func (m *Match) login(ctx context.Context, data json.RawMessage) error {
	if m.playerID != "" {
		m.logger.Debug("ignoring repeated login")
		return nil
	}
	var id string
	if err := json.Unmarshal(data, &id); err != nil || id == "" {
		return m.notice(protocol.EventIDTaken, "A name is required.")
	}
	if m.scenario.IsTaken(id) || !m.players.Claim(id) {
		m.logger.Info("rejecting taken id", zap.String("player_id", id))
		return m.notice(protocol.EventIDTaken, fmt.Sprintf("The name %q is already taken.", id))
	}

	m.playerID = id
	m.logger = m.logger.With(zap.String("player_id", id))
	m.world = m.scenario.World(id)
	m.row, m.col = findPlayer(m.world.Map)
	m.logger.Info("player logged in", zap.String("scenario", m.scenario.Name))

	if err := m.send(protocol.EventGameState, m.world); err != nil {
		return err
	}
	return m.play(ctx, m.scenario.Opening, "")
}

func (m *Match) move(data json.RawMessage) error {
	var dir string
	_ = json.Unmarshal(data, &dir)
	st, ok := steps[dir]
	if !ok {
		m.logger.Debug("ignoring unknown direction", zap.String("direction", dir))
		return nil
	}

	msg := "You cannot go that way."
	row, col := m.row+st.dRow, m.col+st.dCol
	if m.row >= 0 && walkable(m.world.Map, row, col) {
		m.world.Map[m.row][m.col] = "."
		m.world.Map[row][col] = PlayerTile
		m.row, m.col = row, col
		msg = "You walk " + st.name + "."
	}
	m.world.Messages = append(m.world.Messages, msg)
	if over := len(m.world.Messages) - maxMessages; over > 0 {
		m.world.Messages = m.world.Messages[over:]
	}
	return m.send(protocol.EventGameState, m.world)
}

func (m *Match) act(ctx context.Context, data json.RawMessage) error {
	var req protocol.ActionRequestPayload
	if err := json.Unmarshal(data, &req); err != nil {
		m.logger.Debug("discarding action request", zap.Error(err))
		return nil
	}
	action, ok := battle.ParseAction(req.Action)
	if !ok {
		m.logger.Debug("ignoring unknown action", zap.String("action", req.Action))
		return nil
	}
	target := ""
	if req.TargetID != nil {
		target = *req.TargetID
	}
	m.logger.Debug("action requested",
		zap.String("action", string(action)),
		zap.String("target_id", target),
		zap.Int("round", m.round),
	)

	if m.round >= len(m.scenario.Rounds) {
		return m.send(protocol.EventCombatUpdate, protocol.CombatUpdate{
			Type:    battle.KindEnd,
			Message: "The encounter is over.",
		})
	}
	round := m.scenario.Rounds[m.round]
	m.round++
	return m.play(ctx, round.Events, target)
}

// play sends scripted events, each after the pacing delay.
func (m *Match) play(ctx context.Context, events []Event, target string) error {
	vars := map[string]string{PlayerToken: m.playerID, TargetToken: target}
	for _, ev := range events {
		if !m.wait(ctx) {
			return nil
		}
		if err := m.out.Send(ev.Envelope(vars)); err != nil {
			return fmt.Errorf("sending %s: %w", ev.Name, err)
		}
	}
	return nil
}

func (m *Match) wait(ctx context.Context) bool {
	if m.delay <= 0 {
		return ctx.Err() == nil
	}
	timer := time.NewTimer(m.delay)
	defer timer.Stop()
	select {
	case <-timer.C:
		return true
	case <-ctx.Done():
		return false
	}
}

func (m *Match) notice(event, message string) error {
	return m.send(event, protocol.Notice{Message: message})
}

func (m *Match) send(event string, payload any) error {
	env, err := protocol.NewEnvelope(event, payload)
	if err != nil {
		return err
	}
	if err := m.out.Send(env); err != nil {
		return fmt.Errorf("sending %s: %w", event, err)
	}
	return nil
}

func findPlayer(grid [][]string) (int, int) {
	for r, row := range grid {
		for c, tile := range row {
			if tile == PlayerTile {
				return r, c
			}
		}
	}
	return -1, -1
}

func walkable(grid [][]string, row, col int) bool {
	if row < 0 || row >= len(grid) || col < 0 || col >= len(grid[row]) {
		return false
	}
	tile := grid[row][col]
	return tile == "." || tile == " "
}
