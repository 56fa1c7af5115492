package types

// Category is a card kind. The same tags are used for matching and for the
// user's priority order.
type Category string

const (
	CategoryChar   Category = "char"
	CategoryRow    Category = "row"
	CategoryLength Category = "length"
)

// Categories in the server's default priority order.
var Categories = []Category{CategoryChar, CategoryRow, CategoryLength}

func (c Category) Valid() bool {
	switch c {
	case CategoryChar, CategoryRow, CategoryLength:
		return true
	}
	return false
}

// Card is immutable once dealt.
//
//	char:   value is a single kana ("か")
//	row:    value is every kana of a row ("かきくけこ")
//	length: value is a decimal word length ("3"); "7" means 7 or more
type Card struct {
	Type    Category `json:"type"`
	Value   string   `json:"value"`
	Display string   `json:"display"`
}

// Hand is index-addressable. Indices are only stable within one snapshot.
type Hand []Card

type Status string

const (
	StatusWaiting        Status = "waiting"
	StatusPlaying        Status = "playing"
	StatusFinishingCheck Status = "finishing_check"
	StatusFinished       Status = "finished"
)

type PlayerInfo struct {
	PlayerID    string `json:"player_id"`
	Name        string `json:"name"`
	IsHost      bool   `json:"is_host"`
	Rank        *int   `json:"rank"` // nil while still playing
	HandCount   int    `json:"hand_count"`
	IsConnected bool   `json:"is_connected"`
}

func (p PlayerInfo) Finished() bool { return p.Rank != nil }

// GameSnapshot is the full server-authoritative state pushed with every
// game_state message, personalised for the receiving player.
//
//	status:                waiting | playing | finishing_check | finished
//	current_word:          last accepted word
//	target_char:           character the next word must start with
//	players_info:          public per-player info
//	my_hand, my_player_id, is_host, my_priority, has_voted: personal fields
//	finishing_player_id:   set during finishing_check
//	approval_votes, opposition_votes, active_voting_players: vote tallies
//	game_over, winner, ranks: final result
type GameSnapshot struct {
	RoomCode            string       `json:"room_code"`
	Status              Status       `json:"status"`
	CurrentWord         string       `json:"current_word"`
	TargetChar          string       `json:"target_char"`
	DeckCount           int          `json:"deck_count"`
	DiscardCount        int          `json:"discard_pile_count"`
	DictionarySize      int          `json:"dictionary_size"`
	Message             string       `json:"message"`
	Players             []PlayerInfo `json:"players_info"`
	ActivePlayers       int          `json:"active_players"`
	FinishingPlayerID   string       `json:"finishing_player_id"`
	ApprovalVotes       int          `json:"approval_votes"`
	OppositionVotes     int          `json:"opposition_votes"`
	ActiveVotingPlayers int          `json:"active_voting_players"`
	GameOver            bool         `json:"game_over"`
	Winner              string       `json:"winner"`
	Ranks               []PlayerInfo `json:"ranks"`

	MyPlayerID string     `json:"my_player_id"`
	IsHost     bool       `json:"is_host"`
	MyHand     Hand       `json:"my_hand"`
	MyPriority []Category `json:"my_priority"`
	HasVoted   bool       `json:"has_voted"`
}

// Player returns the info entry for id.
func (s GameSnapshot) Player(id string) (PlayerInfo, bool) {
	if id == "" {
		return PlayerInfo{}, false
	}
	for _, p := range s.Players {
		if p.PlayerID == id {
			return p, true
		}
	}
	return PlayerInfo{}, false
}

// HandView is the reply to a get_hand request.
type HandView struct {
	TargetName string `json:"target_name"`
	Hand       Hand   `json:"hand"`
}
