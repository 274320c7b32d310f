package game

import "fmt"

// Refusal errors. These mark transforms that must not be committed; they are
// routinely hit by stale UI state racing a newer snapshot, so callers treat
// them as no-ops rather than failures.

type ErrNotHost struct {
	PlayerID string
}

func (e *ErrNotHost) Error() string {
	return fmt.Sprintf("player %s is not the host", e.PlayerID)
}

func IsNotHost(err error) bool {
	_, ok := err.(*ErrNotHost)
	return ok
}

type ErrNotYourTurn struct {
	PlayerID string
}

func (e *ErrNotYourTurn) Error() string {
	return fmt.Sprintf("it is not player %s's turn", e.PlayerID)
}

func IsNotYourTurn(err error) bool {
	_, ok := err.(*ErrNotYourTurn)
	return ok
}

type ErrIllegalMove struct {
	Card int
	Pile string
}

func (e *ErrIllegalMove) Error() string {
	return fmt.Sprintf("card %d cannot be played on pile %s", e.Card, e.Pile)
}

func IsIllegalMove(err error) bool {
	_, ok := err.(*ErrIllegalMove)
	return ok
}

type ErrCardNotInHand struct {
	PlayerID string
	Card     int
}

func (e *ErrCardNotInHand) Error() string {
	return fmt.Sprintf("player %s does not hold card %d", e.PlayerID, e.Card)
}

func IsCardNotInHand(err error) bool {
	_, ok := err.(*ErrCardNotInHand)
	return ok
}

type ErrMinimumNotMet struct {
	Played   int
	Required int
}

func (e *ErrMinimumNotMet) Error() string {
	return fmt.Sprintf("played %d cards this turn, %d required before ending", e.Played, e.Required)
}

func IsMinimumNotMet(err error) bool {
	_, ok := err.(*ErrMinimumNotMet)
	return ok
}

type ErrAlreadyStarted struct {
	GameID string
}

func (e *ErrAlreadyStarted) Error() string {
	return fmt.Sprintf("match %s has already started", e.GameID)
}

func IsAlreadyStarted(err error) bool {
	_, ok := err.(*ErrAlreadyStarted)
	return ok
}

type ErrNotStarted struct {
	GameID string
}

func (e *ErrNotStarted) Error() string {
	return fmt.Sprintf("match %s has not started", e.GameID)
}

func IsNotStarted(err error) bool {
	_, ok := err.(*ErrNotStarted)
	return ok
}

type ErrMatchOver struct {
	GameID string
}

func (e *ErrMatchOver) Error() string {
	return fmt.Sprintf("match %s is over", e.GameID)
}

func IsMatchOver(err error) bool {
	_, ok := err.(*ErrMatchOver)
	return ok
}

type ErrNotEnoughPlayers struct {
	Count int
}

func (e *ErrNotEnoughPlayers) Error() string {
	return fmt.Sprintf("need at least 2 players, have %d", e.Count)
}

func IsNotEnoughPlayers(err error) bool {
	_, ok := err.(*ErrNotEnoughPlayers)
	return ok
}

type ErrUnknownPlayer struct {
	PlayerID string
}

func (e *ErrUnknownPlayer) Error() string {
	return fmt.Sprintf("player %s is not in the match", e.PlayerID)
}

func IsUnknownPlayer(err error) bool {
	_, ok := err.(*ErrUnknownPlayer)
	return ok
}

type ErrMatchNotFound struct {
	GameID string
}

func (e *ErrMatchNotFound) Error() string {
	return fmt.Sprintf("match %s does not exist", e.GameID)
}

func IsMatchNotFound(err error) bool {
	_, ok := err.(*ErrMatchNotFound)
	return ok
}

// IsRefusal reports whether err is one of the refusal errors above, as
// opposed to an infrastructure failure.
func IsRefusal(err error) bool {
	switch err.(type) {
	case *ErrNotHost, *ErrNotYourTurn, *ErrIllegalMove, *ErrCardNotInHand,
		*ErrMinimumNotMet, *ErrAlreadyStarted, *ErrNotStarted, *ErrMatchOver,
		*ErrNotEnoughPlayers, *ErrUnknownPlayer:
		return true
	default:
		return false
	}
}
