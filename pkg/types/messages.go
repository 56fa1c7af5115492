package types

// Client -> Server
//
//	{action: start_game}
//	{action: play_word,    word: string, card_index: int (-1 = server auto-selects)}
//	{action: reroll,       card_index: int}
//	{action: oppose}
//	{action: approve}
//	{action: set_priority, priority: [char|row|length, ...]}
//	{action: get_hand,     target_id: string}
type Action string

const (
	ActionStartGame   Action = "start_game"
	ActionPlayWord    Action = "play_word"
	ActionReroll      Action = "reroll"
	ActionOppose      Action = "oppose"
	ActionApprove     Action = "approve"
	ActionSetPriority Action = "set_priority"
	ActionGetHand     Action = "get_hand"
)

// AutoSelectIndex lets the server pick the card for a played word.
const AutoSelectIndex = -1

// Server -> Client
//
//	{type: game_state, ...GameSnapshot}
//	{type: error, message}            transient, non-fatal
//	{type: return_to_title, message}  forced exit, identity must be cleared
//	{type: view_hand, target_name, hand}
type MessageType string

const (
	MsgGameState     MessageType = "game_state"
	MsgError         MessageType = "error"
	MsgReturnToTitle MessageType = "return_to_title"
	MsgViewHand      MessageType = "view_hand"
)

// Close codes.
const (
	// CloseRoomNotFound is fatal: the client must not reconnect.
	CloseRoomNotFound = 4000
)

// CreateRoomRequest is the optional body of POST /api/rooms.
type CreateRoomRequest struct {
	Settings map[string]any `json:"settings,omitempty"`
}

type CreateRoomResponse struct {
	RoomCode string `json:"room_code"`
}
