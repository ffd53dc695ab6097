package battle

// Event is a combat event pushed by the server. The set of variants is closed: every
// concrete type lives in this file and View.Apply switches over all of them, with Unknown
// standing in for tags this client does not understand.
type Event interface {
	// Kind returns the wire tag of the event.
	Kind() string
	event()
}

// Wire tags of the combat events.
const (
	KindStart            = "combat_start"
	KindTargetRequest    = "target_request"
	KindAction           = "combat_action"
	KindMonsterDeath     = "monster_death"
	KindPlayerDeath      = "player_death"
	KindEnd              = "combat_end"
	KindTurnNotification = "turn_notification"
)

// Start opens a battle, replacing any battle in progress.
type Start struct {
	BattleID  string
	Opponents []Combatant
	YourTurn  bool
}

// TargetRequest supplies a fresh roster of selectable targets.
type TargetRequest struct {
	Targets []Combatant
}

// ActionResult reports the outcome of one resolved combat action. Zero damage values mean
// no damage was reported; nil hit point pointers mean the field was absent.
type ActionResult struct {
	YourTurn          bool
	Action            string
	Blocked           bool
	PreviousAction    string
	DamageDealt       int
	DamageTaken       int
	OpponentID        string
	OpponentIsMonster bool
	OpponentHP        *int
	YourHP            *int
	// Combatants, when non-nil, replaces the roster.
	Combatants []Combatant
	// Message is narration supplied by the server, used when no local rule applies.
	Message  string
	TargetID string
}

// MonsterDeath removes a monster from the battle.
type MonsterDeath struct {
	MonsterID string
	Message   string
}

// PlayerDeath removes another player from the battle.
type PlayerDeath struct {
	PlayerID string
	Message  string
}

// End closes the battle.
type End struct {
	Message string
}

// TurnNotification declares whose turn it is, independent of any action outcome.
type TurnNotification struct {
	YourTurn     bool
	Message      string
	ActivePlayer string
}

// Unknown is an event whose tag this client does not recognise. It is always ignored.
type Unknown struct {
	Type string
}

func (Start) Kind() string            { return KindStart }
func (TargetRequest) Kind() string    { return KindTargetRequest }
func (ActionResult) Kind() string     { return KindAction }
func (MonsterDeath) Kind() string     { return KindMonsterDeath }
func (PlayerDeath) Kind() string      { return KindPlayerDeath }
func (End) Kind() string              { return KindEnd }
func (TurnNotification) Kind() string { return KindTurnNotification }
func (u Unknown) Kind() string        { return u.Type }

func (Start) event()            {}
func (TargetRequest) event()    {}
func (ActionResult) event()     {}
func (MonsterDeath) event()     {}
func (PlayerDeath) event()      {}
func (End) event()              {}
func (TurnNotification) event() {}
func (Unknown) event()          {}
