package types

// Pile identifiers. Piles 1 and 2 climb from 1 towards 99, piles 3 and 4
// descend from 100 towards 2.
const (
	PileUpFirst    = "1"
	PileUpSecond   = "2"
	PileDownFirst  = "3"
	PileDownSecond = "4"
)

// WinnerAll is the winner value recorded for a shared win.
const WinnerAll = "all"

// Player is one participant in a match.
type Player struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	// Hand is kept sorted ascending for display. Order carries no meaning
	// for the rules.
	Hand   []int `json:"hand"`
	IsHost bool  `json:"isHost"`
}

// GameState is the complete snapshot of one match. It is the unit of
// replication: every mutation replaces the whole document. Transforms must
// treat a GameState as immutable and derive a new value via Copy.
type GameState struct {
	GameID               string             `json:"gameId"`
	Players              map[string]*Player `json:"players"`
	Piles                map[string]int     `json:"piles"`
	Deck                 []int              `json:"deck"`
	PlayerTurnOrder      []string           `json:"playerTurnOrder"`
	CurrentPlayerID      string             `json:"currentPlayerId"`
	LastPlayedCardsCount int                `json:"lastPlayedCardsCount"`
	LastPlayedPileIndex  *string            `json:"lastPlayedPileIndex"`
	IsGameStarted        bool               `json:"isGameStarted"`
	IsGameOver           bool               `json:"isGameOver"`
	WinnerPlayerID       *string            `json:"winnerPlayerId"`
}

// NewGameState returns an empty lobby snapshot with seeded piles.
func NewGameState(gameID string) *GameState {
	return &GameState{
		GameID:  gameID,
		Players: make(map[string]*Player),
		Piles:   SeedPiles(),
	}
}

// SeedPiles returns the four piles at their starting values.
func SeedPiles() map[string]int {
	return map[string]int{
		PileUpFirst:    1,
		PileUpSecond:   1,
		PileDownFirst:  100,
		PileDownSecond: 100,
	}
}

// Copy returns a deep copy of the snapshot. Transforms copy before mutating
// so that retried commits and local echoes never alias shared structure.
func (s *GameState) Copy() *GameState {
	if s == nil {
		return nil
	}
	copied := &GameState{
		GameID:               s.GameID,
		Players:              make(map[string]*Player, len(s.Players)),
		Piles:                make(map[string]int, len(s.Piles)),
		CurrentPlayerID:      s.CurrentPlayerID,
		LastPlayedCardsCount: s.LastPlayedCardsCount,
		IsGameStarted:        s.IsGameStarted,
		IsGameOver:           s.IsGameOver,
	}
	for id, p := range s.Players {
		copied.Players[id] = p.Copy()
	}
	for pile, top := range s.Piles {
		copied.Piles[pile] = top
	}
	if len(s.Deck) > 0 {
		copied.Deck = append([]int(nil), s.Deck...)
	}
	if len(s.PlayerTurnOrder) > 0 {
		copied.PlayerTurnOrder = append([]string(nil), s.PlayerTurnOrder...)
	}
	if s.LastPlayedPileIndex != nil {
		pile := *s.LastPlayedPileIndex
		copied.LastPlayedPileIndex = &pile
	}
	if s.WinnerPlayerID != nil {
		winner := *s.WinnerPlayerID
		copied.WinnerPlayerID = &winner
	}
	return copied
}

// Copy returns a deep copy of the player.
func (p *Player) Copy() *Player {
	if p == nil {
		return nil
	}
	copied := &Player{
		ID:     p.ID,
		Name:   p.Name,
		IsHost: p.IsHost,
	}
	if len(p.Hand) > 0 {
		copied.Hand = append([]int(nil), p.Hand...)
	}
	return copied
}

// Host returns the player currently holding the host flag, or nil.
func (s *GameState) Host() *Player {
	for _, p := range s.Players {
		if p.IsHost {
			return p
		}
	}
	return nil
}

// CurrentPlayer returns the player whose turn it is, or nil if the current
// player is not a member of the match.
func (s *GameState) CurrentPlayer() *Player {
	return s.Players[s.CurrentPlayerID]
}

// Winner returns the recorded winner identity and whether one is set.
func (s *GameState) Winner() (string, bool) {
	if s.WinnerPlayerID == nil {
		return "", false
	}
	return *s.WinnerPlayerID, true
}
