package protocol

import "github.com/cory-johannsen/dungeon-client/internal/game/battle"

// ActionRequestPayload is the body of a combat_action_request. TargetID is null when no
// target was selected; the server decides what that means.
type ActionRequestPayload struct {
	Action   string  `json:"action"`
	TargetID *string `json:"target_id"`
}

// SelectID builds the login request claiming the given player id.
func SelectID(playerID string) (Envelope, error) {
	return NewEnvelope(EventSelectID, playerID)
}

// Movement directions understood by the server. They are the classic movement keys.
const (
	DirUp    = "w"
	DirLeft  = "a"
	DirDown  = "s"
	DirRight = "d"
)

// Move builds a movement request. direction is one of the Dir constants.
func Move(direction string) (Envelope, error) {
	return NewEnvelope(EventMove, direction)
}

// ActionRequest builds a combat_action_request from a battle request.
//
// Postcondition: The payload's target_id is null when req.TargetID is empty.
func ActionRequest(req battle.ActionRequest) (Envelope, error) {
	payload := ActionRequestPayload{Action: string(req.Action)}
	if req.TargetID != "" {
		target := req.TargetID
		payload.TargetID = &target
	}
	return NewEnvelope(EventActionRequest, payload)
}
