package battle

import (
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
)

// DefaultHighlightDelay is how long the message area stays emphasised after the turn
// passes to the local player.
const DefaultHighlightDelay = 500 * time.Millisecond

// ErrNoSender is returned by Act when the View was built without a Sender.
var ErrNoSender = errors.New("battle: no action sender configured")

// ActionRequest asks the server to resolve an action against a target. An empty TargetID
// means no target was selected.
type ActionRequest struct {
	Action   Action
	TargetID string
}

// Sender delivers action requests to the server.
type Sender interface {
	SendAction(req ActionRequest) error
}

// Sink receives projections and log lines. It is called on the same goroutine that drives
// the View.
type Sink interface {
	// Render displays the current projection.
	Render(p Projection)
	// AppendLog appends a line to the message log.
	AppendLog(line string)
}

// Scheduler runs fn once after d on the goroutine that drives the View. The returned
// function cancels the pending call; calling it after fn ran is harmless.
type Scheduler interface {
	After(d time.Duration, fn func()) (cancel func())
}

// Option configures a View.
type Option func(*View)

// WithLogger sets the View's logger.
func WithLogger(logger *zap.Logger) Option {
	return func(v *View) {
		if logger != nil {
			v.logger = logger
		}
	}
}

// WithHighlightDelay sets how long the turn emphasis lasts.
//
// Precondition: d > 0; non-positive values are ignored.
func WithHighlightDelay(d time.Duration) Option {
	return func(v *View) {
		if d > 0 {
			v.delay = d
		}
	}
}

// View owns the battle state of one client session. It folds combat events into the
// Battle, projects the result to a Sink and emits action requests through a Sender.
//
// View is not safe for concurrent use. Every method, and every callback handed to the
// Scheduler, must run on a single goroutine.
type View struct {
	battle *Battle
	sender Sender
	sink   Sink
	sched  Scheduler
	delay  time.Duration
	logger *zap.Logger

	yourTurn bool
	message  string
	status   string
	yourHP   *int

	highlighted  bool
	highlightGen uint64
	cancelRevert func()
}

// NewView creates a View for the local player identified by localID.
//
// Precondition: localID is fixed for the session. sched should run callbacks on the
// goroutine driving the View; with a nil sched the turn emphasis is never shown.
// Postcondition: Returns an inactive View.
func NewView(localID string, sender Sender, sink Sink, sched Scheduler, opts ...Option) *View {
	v := &View{
		battle: NewBattle(localID),
		sender: sender,
		sink:   sink,
		sched:  sched,
		delay:  DefaultHighlightDelay,
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(v)
	}
	return v
}

// LocalID returns the local player's id.
func (v *View) LocalID() string { return v.battle.LocalID() }

// Active reports whether a battle is in progress.
func (v *View) Active() bool { return v.battle.Active() }

// Apply folds one combat event into the battle state and publishes the new projection.
// Events that make no sense in the current lifecycle state, and unknown events, are
// ignored.
func (v *View) Apply(e Event) {
	switch ev := e.(type) {
	case nil:
		return
	case Start:
		v.applyStart(ev)
	case End:
		if !v.battle.Active() {
			v.ignore(e, "no active battle")
			return
		}
		v.applyEnd(ev)
	case Unknown:
		v.ignore(e, "unknown event type")
		return
	default:
		if !v.battle.Active() {
			v.ignore(e, "no active battle")
			return
		}
		v.applyInBattle(e)
	}
	v.publish()
}

func (v *View) applyInBattle(e Event) {
	switch ev := e.(type) {
	case TargetRequest:
		v.battle.SetOpponents(ev.Targets)
	case ActionResult:
		v.applyAction(ev)
	case MonsterDeath:
		removed := v.battle.RemoveMonster(ev.MonsterID)
		v.applyDeath(ev.MonsterID, removed, ev.Message)
	case PlayerDeath:
		removed := v.battle.RemovePlayer(ev.PlayerID)
		v.applyDeath(ev.PlayerID, removed, ev.Message)
	case TurnNotification:
		v.applyTurn(ev)
	}
}

func (v *View) applyStart(ev Start) {
	if v.battle.Active() {
		v.logger.Debug("battle replaced without end",
			zap.String("old_battle_id", v.battle.ID()),
			zap.String("battle_id", ev.BattleID),
		)
	}
	v.stopHighlight()
	v.battle.Start(ev.BattleID, ev.Opponents)
	v.yourTurn = ev.YourTurn
	v.message = ""
	v.yourHP = nil
	v.status = waitingStatus(ev.YourTurn, "")
	v.logger.Info("battle started",
		zap.String("battle_id", ev.BattleID),
		zap.Int("opponents", v.battle.Len()),
		zap.Bool("your_turn", ev.YourTurn),
	)
}

func (v *View) applyEnd(ev End) {
	v.logger.Info("battle ended", zap.String("battle_id", v.battle.ID()))
	v.stopHighlight()
	v.battle.Reset()
	v.yourTurn = false
	v.message = ""
	v.status = ""
	v.yourHP = nil
	if ev.Message != "" && v.sink != nil {
		v.sink.AppendLog(ev.Message)
	}
}

func (v *View) applyAction(ev ActionResult) {
	v.yourTurn = ev.YourTurn
	if ev.Combatants != nil {
		v.battle.SetOpponents(ev.Combatants)
	}
	if ev.OpponentID == "" && v.battle.Len() == 1 {
		// Single-opponent servers omit the id.
		ev.OpponentID = v.battle.Opponents()[0].ID
	}
	if ev.OpponentHP != nil {
		v.battle.UpdateHP(ev.OpponentID, *ev.OpponentHP)
	}
	if ev.YourHP != nil {
		hp := *ev.YourHP
		v.yourHP = &hp
	}
	if ev.YourTurn {
		// The opponent acted last.
		v.battle.SetDefending(ev.OpponentID, ev.Action == string(ActionDefend) && !ev.Blocked)
	}

	if msg, ok := Narrate(ev); ok {
		v.message = msg
	} else if ev.Message != "" {
		v.message = ev.Message
	}

	status := ""
	if !ev.YourTurn && ev.TargetID != "" {
		status = StatusWaiting
	}
	v.status = waitingStatus(ev.YourTurn, status)
}

func (v *View) applyDeath(id string, removed bool, message string) {
	if !removed {
		v.logger.Debug("death for unknown combatant", zap.String("combatant_id", id))
	}
	if message != "" {
		v.message = message
	}
}

func (v *View) applyTurn(ev TurnNotification) {
	v.yourTurn = ev.YourTurn
	switch {
	case ev.ActivePlayer != "":
		v.battle.SetActiveTurn(ev.ActivePlayer)
	case ev.YourTurn:
		v.battle.SetActiveTurn(v.battle.LocalID())
	}
	if ev.Message != "" {
		v.message = ev.Message
	}
	v.status = waitingStatus(ev.YourTurn, ev.Message)
	if ev.YourTurn {
		v.highlight()
	}
}

// SelectTarget selects the target of the next action.
//
// Postcondition: Returns false and changes nothing if id is not a current opponent.
func (v *View) SelectTarget(id string) bool {
	if !v.battle.SelectTarget(id) {
		return false
	}
	v.publish()
	return true
}

// Act emits exactly one action request carrying the selected target, if any. It does not
// re-check whether the action is legal.
//
// Postcondition: Returns the request that was sent, and a non-nil error if sending failed.
func (v *View) Act(a Action) (ActionRequest, error) {
	req := ActionRequest{Action: a}
	if id, ok := v.battle.SelectedTarget(); ok {
		req.TargetID = id
	}
	if v.sender == nil {
		return req, ErrNoSender
	}
	if err := v.sender.SendAction(req); err != nil {
		v.logger.Warn("sending action request",
			zap.String("action", string(a)),
			zap.String("target_id", req.TargetID),
			zap.Error(err),
		)
		return req, fmt.Errorf("sending %s request: %w", a, err)
	}
	v.logger.Debug("action requested",
		zap.String("action", string(a)),
		zap.String("target_id", req.TargetID),
	)
	return req, nil
}

// Projection returns the current read-only view of the battle.
func (v *View) Projection() Projection {
	p := Projection{
		Active:    v.battle.Active(),
		BattleID:  v.battle.ID(),
		YourTurn:  v.yourTurn,
		Actions:   actionStates(v.yourTurn),
		Opponents: v.battle.Opponents(),
		Message:   v.message,
		Status:    v.status,
		Highlight: v.highlighted,
	}
	p.SelectedTarget, _ = v.battle.SelectedTarget()
	if v.yourHP != nil {
		hp := *v.yourHP
		p.YourHP = &hp
	}
	return p
}

// highlight turns the emphasis on and schedules its reversion, superseding any
// reversion still pending.
func (v *View) highlight() {
	if v.sched == nil {
		return
	}
	v.stopHighlight()
	gen := v.highlightGen
	v.highlighted = true
	v.cancelRevert = v.sched.After(v.delay, func() { v.revert(gen) })
}

// revert ends the emphasis started under generation gen. Reversions from older
// generations are dropped.
func (v *View) revert(gen uint64) {
	if gen != v.highlightGen || !v.highlighted {
		return
	}
	v.highlighted = false
	v.cancelRevert = nil
	v.publish()
}

func (v *View) stopHighlight() {
	if v.cancelRevert != nil {
		v.cancelRevert()
		v.cancelRevert = nil
	}
	v.highlightGen++
	v.highlighted = false
}

func (v *View) publish() {
	if v.sink != nil {
		v.sink.Render(v.Projection())
	}
}

func (v *View) ignore(e Event, reason string) {
	v.logger.Debug("combat event ignored",
		zap.String("type", e.Kind()),
		zap.String("reason", reason),
	)
}

func waitingStatus(yourTurn bool, status string) string {
	if yourTurn {
		return ""
	}
	if status == "" {
		return StatusThinking
	}
	return status
}
