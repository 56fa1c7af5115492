package engine

import (
	"fmt"
	"strings"

	"github.com/DoyleJ11/wordchain-client/internal/conn"
	"github.com/DoyleJ11/wordchain-client/internal/matcher"
	"github.com/DoyleJ11/wordchain-client/internal/store"
	"github.com/DoyleJ11/wordchain-client/pkg/types"
)

const (
	placeholderWord    = "type a word (hiragana)"
	placeholderVotes   = "waiting for the other players to vote..."
	placeholderOffline = "reconnecting..."
	noticeWaitForHost  = "waiting for the host to start the game"
)

// ViewModel is everything a renderer needs for one frame.
type ViewModel struct {
	Screen     Screen `json:"screen"`
	Connection string `json:"connection"`
	RoomCode   string `json:"room_code,omitempty"`
	PlayerName string `json:"player_name,omitempty"`
	PlayerID   string `json:"player_id,omitempty"`
	IsHost     bool   `json:"is_host"`
	CanResume  bool   `json:"can_resume"`

	Prefs store.Preferences `json:"prefs"`

	Players       []PlayerView `json:"players,omitempty"`
	ShowStart     bool         `json:"show_start"`
	WaitingNotice string       `json:"waiting_notice,omitempty"`

	Table            *TableView  `json:"table,omitempty"`
	Layout           string      `json:"layout"`
	Hand             []CardView  `json:"hand,omitempty"`
	SelectedIndex    int         `json:"selected_index"`
	AutoSelectIndex  int         `json:"auto_select_index"`
	Word             string      `json:"word"`
	InputEnabled     bool        `json:"input_enabled"`
	InputPlaceholder string      `json:"input_placeholder,omitempty"`
	ShowOppose       bool        `json:"show_oppose"`
	Opposing         bool        `json:"opposing"`
	Voting           *VotingView `json:"voting,omitempty"`

	Ranking           []RankView `json:"ranking,omitempty"`
	Winner            string     `json:"winner,omitempty"`
	ShowReturnToLobby bool       `json:"show_return_to_lobby"`

	Banner *Banner     `json:"banner,omitempty"`
	Notice string      `json:"notice,omitempty"`
	Viewer *ViewerView `json:"viewer,omitempty"`
}

type PlayerView struct {
	PlayerID    string `json:"player_id"`
	Name        string `json:"name"`
	IsMe        bool   `json:"is_me"`
	IsHost      bool   `json:"is_host"`
	Rank        int    `json:"rank,omitempty"`
	Finished    bool   `json:"finished"`
	HandCount   int    `json:"hand_count"`
	Connected   bool   `json:"connected"`
	CanViewHand bool   `json:"can_view_hand"`
}

type TableView struct {
	CurrentWord    string `json:"current_word"`
	TargetChar     string `json:"target_char"`
	DeckCount      int    `json:"deck_count"`
	DiscardCount   int    `json:"discard_count"`
	HandCount      int    `json:"hand_count"`
	DictionarySize int    `json:"dictionary_size"`
}

type CardView struct {
	Index        int            `json:"index"`
	Type         types.Category `json:"type"`
	Value        string         `json:"value"`
	Display      string         `json:"display"`
	Label        string         `json:"label"`
	Selected     bool           `json:"selected"`
	AutoSelected bool           `json:"auto_selected"`
	Placement    Placement      `json:"placement"`
}

// VotingView is present for the whole finishing check. Visible controls
// the approve/oppose modal.
type VotingView struct {
	Visible         bool   `json:"visible"`
	Word            string `json:"word"`
	FinishingPlayer string `json:"finishing_player"`
	Approvals       int    `json:"approvals"`
	Oppositions     int    `json:"oppositions"`
	ActiveVoters    int    `json:"active_voters"`
	WaitingForVotes bool   `json:"waiting_for_votes"`
}

type RankView struct {
	Rank int    `json:"rank"`
	Name string `json:"name"`
}

type ViewerView struct {
	TargetName string     `json:"target_name"`
	Cards      []CardView `json:"cards"`
}

// View derives the ViewModel. It is pure: same state and layout, same
// result.
func View(s State, layout HandLayout) ViewModel {
	if layout == nil {
		layout = RowLayout{Threshold: 8}
	}

	vm := ViewModel{
		Screen:          s.Screen,
		Connection:      s.Local.Conn.String(),
		RoomCode:        s.Identity.RoomCode,
		PlayerName:      s.Identity.PlayerName,
		PlayerID:        s.Identity.PlayerID,
		CanResume:       s.Screen == ScreenTitle && s.Identity.Complete() && s.Local.Conn == conn.StateDisconnected,
		Prefs:           s.Prefs,
		Layout:          layout.Name(),
		SelectedIndex:   s.Local.Selected,
		AutoSelectIndex: -1,
		Word:            s.Local.Word,
		Banner:          s.Local.Banner,
		Notice:          s.Local.Notice,
	}
	if v := s.Local.Viewer; v != nil {
		vm.Viewer = &ViewerView{TargetName: v.TargetName, Cards: cardViews(v.Hand, -1, -1, nil)}
	}

	snap := s.Snapshot
	if snap == nil {
		return vm
	}

	myID := s.Identity.PlayerID
	me, inRoom := snap.Player(myID)
	vm.IsHost = snap.IsHost
	vm.Players = playerViews(snap.Players, myID, inRoom && me.Finished())

	switch s.Screen {
	case ScreenWaiting:
		vm.ShowStart = snap.IsHost
		if !snap.IsHost {
			vm.WaitingNotice = noticeWaitForHost
		}
		return vm
	case ScreenFinished:
		vm.Ranking = rankViews(snap.Ranks)
		vm.Winner = snap.Winner
		vm.ShowReturnToLobby = snap.IsHost
		return vm
	case ScreenPlaying, ScreenFinishingCheck:
	default:
		return vm
	}

	vm.Table = &TableView{
		CurrentWord:    snap.CurrentWord,
		TargetChar:     snap.TargetChar,
		DeckCount:      snap.DeckCount,
		DiscardCount:   snap.DiscardCount,
		HandCount:      len(snap.MyHand),
		DictionarySize: snap.DictionarySize,
	}

	if word := strings.TrimSpace(s.Local.Word); s.Prefs.AutoSelect && word != "" {
		if idx, ok := matcher.SelectBestCard(word, snap.MyHand, s.Prefs.CategoryPriority); ok {
			vm.AutoSelectIndex = idx
		}
	}
	active := s.Local.Selected
	if active < 0 {
		active = vm.AutoSelectIndex
	}
	vm.Hand = cardViews(snap.MyHand, s.Local.Selected, vm.AutoSelectIndex,
		layout.Place(len(snap.MyHand), active, s.Prefs.CompactLayout))

	vm.ShowOppose = true
	vm.Opposing = s.Local.Opposing

	finished := inRoom && me.Finished()
	switch {
	case finished:
		vm.InputPlaceholder = fmt.Sprintf("finished in place %d, waiting for the other players...", *me.Rank)
	case s.Local.Conn != conn.StateOpen:
		vm.InputPlaceholder = placeholderOffline
	default:
		vm.InputEnabled = true
		vm.InputPlaceholder = placeholderWord
	}

	if s.Screen == ScreenFinishingCheck {
		vm.Voting = votingView(snap, me, inRoom)
		if vm.Voting.Visible {
			vm.InputEnabled = false
		} else if vm.Voting.WaitingForVotes {
			vm.InputEnabled = false
			vm.InputPlaceholder = placeholderVotes
		}
	}
	return vm
}

// CanVote reports whether the approval prompt is showing, which is the only
// time an approve may be sent.
func CanVote(s State) bool {
	if s.Screen != ScreenFinishingCheck || s.Snapshot == nil {
		return false
	}
	me, inRoom := s.Snapshot.Player(s.Identity.PlayerID)
	return votingView(s.Snapshot, me, inRoom).Visible
}

func votingView(snap *types.GameSnapshot, me types.PlayerInfo, inRoom bool) *VotingView {
	isFinishing := inRoom && snap.FinishingPlayerID == me.PlayerID
	finished := inRoom && me.Finished()

	v := &VotingView{
		Word:         snap.CurrentWord,
		Approvals:    snap.ApprovalVotes,
		Oppositions:  snap.OppositionVotes,
		ActiveVoters: snap.ActiveVotingPlayers,
	}
	if p, ok := snap.Player(snap.FinishingPlayerID); ok {
		v.FinishingPlayer = p.Name
	}
	v.Visible = inRoom && !isFinishing && !finished && !snap.HasVoted
	v.WaitingForVotes = isFinishing || finished || snap.HasVoted
	return v
}

func playerViews(players []types.PlayerInfo, myID string, meFinished bool) []PlayerView {
	out := make([]PlayerView, 0, len(players))
	for _, p := range players {
		isMe := myID != "" && p.PlayerID == myID
		pv := PlayerView{
			PlayerID:    p.PlayerID,
			Name:        p.Name,
			IsMe:        isMe,
			IsHost:      p.IsHost,
			Finished:    p.Finished(),
			HandCount:   p.HandCount,
			Connected:   p.IsConnected,
			CanViewHand: meFinished && !isMe,
		}
		if p.Rank != nil {
			pv.Rank = *p.Rank
		}
		out = append(out, pv)
	}
	return out
}

func rankViews(ranks []types.PlayerInfo) []RankView {
	out := make([]RankView, 0, len(ranks))
	for _, p := range ranks {
		rv := RankView{Name: p.Name}
		if p.Rank != nil {
			rv.Rank = *p.Rank
		}
		out = append(out, rv)
	}
	return out
}

func cardViews(hand types.Hand, selected, auto int, place []Placement) []CardView {
	out := make([]CardView, len(hand))
	for i, c := range hand {
		out[i] = CardView{
			Index:        i,
			Type:         c.Type,
			Value:        c.Value,
			Display:      CardDisplay(c),
			Label:        CardLabel(c.Type),
			Selected:     i == selected,
			AutoSelected: i == auto && i != selected,
		}
		if i < len(place) {
			out[i].Placement = place[i]
		}
	}
	return out
}

// CardDisplay is the face text. A length card of 7 reads "7+".
func CardDisplay(c types.Card) string {
	if c.Type == types.CategoryLength && c.Value == fmt.Sprint(matcher.OpenEndedLength) {
		return c.Value + "+"
	}
	if c.Display != "" {
		return c.Display
	}
	return c.Value
}

func CardLabel(t types.Category) string {
	switch t {
	case types.CategoryChar:
		return "character"
	case types.CategoryRow:
		return "row"
	case types.CategoryLength:
		return "length"
	}
	return ""
}
