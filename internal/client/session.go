// Package client runs one player's session against the game server: it logs in, folds
// server events into the battle view and the screen, and turns console lines into requests.
package client

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/cory-johannsen/dungeon-client/internal/config"
	"github.com/cory-johannsen/dungeon-client/internal/game/battle"
	"github.com/cory-johannsen/dungeon-client/internal/game/command"
	"github.com/cory-johannsen/dungeon-client/internal/protocol"
)

// Terminal session outcomes, checked with errors.Is.
var (
	ErrPlayerDied   = errors.New("client: player died")
	ErrIDTaken      = errors.New("client: player id taken")
	ErrQuit         = errors.New("client: player quit")
	ErrDisconnected = errors.New("client: server closed the connection")
	ErrNoPlayerID   = errors.New("client: player id must not be empty")
)

// Conn is the server connection a Session speaks through.
type Conn interface {
	Send(env protocol.Envelope) error
	ReadLoop(ctx context.Context, handle func(protocol.Envelope)) error
	Close() error
}

// Display is everything the session shows the player.
type Display interface {
	battle.Sink
	ShowWorld(gs protocol.GameState)
	Notice(text string)
	ShowDeath()
}

// LineSource delivers player input lines until input ends.
type LineSource interface {
	Run(ctx context.Context, handle func(string)) error
}

// Option configures a Session.
type Option func(*Session)

// WithLogger sets the Session's logger.
func WithLogger(logger *zap.Logger) Option {
	return func(s *Session) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithClock replaces the wall clock used for movement throttling.
func WithClock(now func() time.Time) Option {
	return func(s *Session) {
		if now != nil {
			s.now = now
		}
	}
}

// Session is one logged-in player. All state is owned by its Loop.
type Session struct {
	id       uuid.UUID
	playerID string
	conn     Conn
	display  Display
	loop     *Loop
	view     *battle.View
	registry *command.Registry
	moves    *Throttle
	now      func() time.Time
	logger   *zap.Logger

	inWorld bool
	over    bool
	result  chan error
}

// NewSession builds a session for cfg.PlayerID over conn.
//
// Precondition: conn and display must be non-nil.
// Postcondition: Returns a Session ready to Run, or ErrNoPlayerID.
func NewSession(conn Conn, display Display, cfg config.ClientConfig, opts ...Option) (*Session, error) {
	if cfg.PlayerID == "" {
		return nil, ErrNoPlayerID
	}
	s := &Session{
		id:       uuid.New(),
		playerID: cfg.PlayerID,
		conn:     conn,
		display:  display,
		registry: command.DefaultRegistry(),
		moves:    NewThrottle(cfg.MoveThrottle),
		now:      time.Now,
		logger:   zap.NewNop(),
		result:   make(chan error, 1),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = s.logger.With(
		zap.String("session_id", s.id.String()),
		zap.String("player_id", s.playerID),
	)
	s.loop = NewLoop(cfg.EventBuffer, s.logger)
	s.view = battle.NewView(s.playerID, &actionSender{conn: conn}, display, s.loop,
		battle.WithLogger(s.logger),
		battle.WithHighlightDelay(cfg.HighlightDelay),
	)
	return s, nil
}

// ID returns the session's correlation id.
func (s *Session) ID() uuid.UUID { return s.id }

// Run logs in and processes server events and input lines until the session ends. input
// may be nil for a session driven only by the server.
//
// Postcondition: The connection is closed. Returns ErrQuit, ErrPlayerDied, ErrIDTaken,
// ErrDisconnected, ctx.Err(), or a wrapped transport error.
func (s *Session) Run(ctx context.Context, input LineSource) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	defer func() { _ = s.conn.Close() }()

	go func() { _ = s.loop.Run(ctx) }()

	env, err := protocol.SelectID(s.playerID)
	if err != nil {
		return err
	}
	if err := s.conn.Send(env); err != nil {
		return fmt.Errorf("logging in: %w", err)
	}
	s.logger.Info("login requested")

	go func() {
		err := s.conn.ReadLoop(ctx, func(env protocol.Envelope) {
			s.loop.Post(func() { s.handleEnvelope(env) })
		})
		switch {
		case err == nil:
			err = ErrDisconnected
		case !errors.Is(err, context.Canceled):
			err = fmt.Errorf("reading from server: %w", err)
		}
		// Through the loop, so events already queued are handled first.
		if !s.loop.Post(func() { s.finish(err) }) {
			s.finish(err)
		}
	}()

	if input != nil {
		go func() {
			err := input.Run(ctx, func(line string) {
				s.loop.Post(func() { s.HandleLine(line) })
			})
			if err == nil {
				err = ErrQuit
			} else if !errors.Is(err, context.Canceled) {
				err = fmt.Errorf("reading input: %w", err)
			}
			if !s.loop.Post(func() { s.finish(err) }) {
				s.finish(err)
			}
		}()
	}

	select {
	case err := <-s.result:
		s.logger.Info("session ended", zap.Error(err))
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// finish records the session outcome; only the first one counts.
func (s *Session) finish(err error) {
	select {
	case s.result <- err:
	default:
	}
}

// handleEnvelope routes one server frame. It runs on the loop.
func (s *Session) handleEnvelope(env protocol.Envelope) {
	if s.over {
		s.logger.Debug("ignoring event after session end", zap.String("event", env.Event))
		return
	}

	switch env.Event {
	case protocol.EventGameState:
		gs, err := protocol.DecodeGameState(env.Data)
		if err != nil {
			s.logger.Debug("discarding game state", zap.Error(err))
			return
		}
		if !s.inWorld {
			s.inWorld = true
			s.logger.Info("entered the world")
		}
		s.display.ShowWorld(gs)

	case protocol.EventCombatUpdate:
		ev, err := protocol.DecodeCombatEvent(env.Data)
		if err != nil {
			s.logger.Debug("discarding combat update", zap.Error(err))
			return
		}
		s.view.Apply(ev)

	case protocol.EventPlayerDied:
		s.over = true
		s.display.ShowDeath()
		s.finish(ErrPlayerDied)

	case protocol.EventIDTaken:
		msg := protocol.DecodeNotice(env.Data)
		if msg == "" {
			msg = fmt.Sprintf("The name %q is already taken.", s.playerID)
		}
		s.over = true
		s.display.Notice(msg)
		s.finish(ErrIDTaken)

	default:
		s.logger.Debug("ignoring unknown event", zap.String("event", env.Event))
	}
}

// HandleLine executes one console line. It must run on the loop.
func (s *Session) HandleLine(line string) {
	if s.over {
		return
	}
	cmd, parsed, ok := s.registry.Lookup(line)
	if parsed.Command == "" {
		return
	}
	if !ok {
		s.display.Notice(command.HandleUnknown(parsed.Command))
		return
	}

	switch cmd.Handler {
	case command.HandlerMove:
		s.move(cmd.Direction)
	case command.HandlerAction:
		s.act(cmd.Action)
	case command.HandlerTarget:
		s.display.Notice(command.HandleTarget(s.view, parsed.RawArgs))
	case command.HandlerStatus:
		s.display.Notice(command.HandleStatus(s.view.Projection()))
	case command.HandlerHelp:
		s.display.Notice(command.HandleHelp(s.registry))
	case command.HandlerQuit:
		s.over = true
		s.finish(ErrQuit)
	}
}

func (s *Session) move(direction string) {
	if !s.moves.Allow(s.now()) {
		return
	}
	env, err := protocol.Move(direction)
	if err == nil {
		err = s.conn.Send(env)
	}
	if err != nil {
		s.logger.Warn("sending move", zap.String("direction", direction), zap.Error(err))
		s.display.Notice("Your move did not reach the server.")
	}
}

func (s *Session) act(a battle.Action) {
	if msg := command.CheckAction(s.view.Projection(), a); msg != "" {
		s.display.Notice(msg)
		return
	}
	if _, err := s.view.Act(a); err != nil {
		s.display.Notice("Your action did not reach the server.")
	}
}

// actionSender delivers battle action requests as protocol envelopes.
type actionSender struct {
	conn Conn
}

func (a *actionSender) SendAction(req battle.ActionRequest) error {
	env, err := protocol.ActionRequest(req)
	if err != nil {
		return err
	}
	return a.conn.Send(env)
}
