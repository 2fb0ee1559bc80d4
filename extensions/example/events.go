package example

import (
	"time"

	"github.com/artpar/mira/core/events"
)

// Player is the minimal player view the example events carry.
type Player struct {
	Name string
	Role string
	Vote *VoteData
}

// VoteData tracks one player's votes during a meeting.
type VoteData struct {
	VotesRemaining int
	Voted          []int
}

// VoteFor spends a vote on target.
func (v *VoteData) VoteFor(target int) {
	v.Voted = append(v.Voted, target)
}

// StartMeetingEvent fires when a meeting is called.
type StartMeetingEvent struct {
	events.Base
	Players []*Player
}

// HandleVoteEvent fires when a player casts a vote. Cancelling it stops the
// default vote from being counted.
type HandleVoteEvent struct {
	events.CancelableBase
	Voter    *Player
	TargetID int
	Players  []*Player
}

// ButtonClickEvent fires when the freeze button is pressed.
type ButtonClickEvent struct {
	events.CancelableBase
	Button *FreezeButton
	Player *Player
}

// ButtonCancelledEvent fires after a click was cancelled.
type ButtonCancelledEvent struct {
	events.Base
	Button *FreezeButton
}

type BeforeMurderEvent struct {
	events.CancelableBase
	Source, Target *Player
}

type AfterMurderEvent struct {
	events.Base
	Source, Target *Player
}

type CompleteTaskEvent struct {
	events.Base
	Player *Player
	Task   string
}

// StartMeeting gives every mayor an extra vote.
func StartMeeting(e *StartMeetingEvent) {
	for _, p := range e.Players {
		if p.Role == mayorName && p.Vote != nil {
			p.Vote.VotesRemaining++
		}
	}
}

// HandleVote lets the neutral killer take over the vote: all its votes go
// to the target and everyone else loses theirs.
func HandleVote(e *HandleVoteEvent) {
	if e.Voter == nil || e.Voter.Role != neutralKillerName || e.Voter.Vote == nil {
		return
	}

	e.Voter.Vote.VotesRemaining = 0
	for i := 0; i < 5; i++ {
		e.Voter.Vote.VoteFor(e.TargetID)
	}

	for _, p := range e.Players {
		if p == e.Voter || p.Vote == nil {
			continue
		}
		p.Vote.Voted = nil
		p.Vote.VotesRemaining = 0
	}

	e.Cancel()
}

func (p *Plugin) freezeButtonClick(e *ButtonClickEvent) {
	p.logger.Warn().Msg("freeze button clicked")

	if e.Player == nil || e.Player.Name != "stupid" {
		return
	}
	e.Cancel()
	e.Button.SetTimer(15 * time.Second)
}

func (p *Plugin) freezeButtonCancelled(e *ButtonCancelledEvent) {
	p.logger.Warn().Msg("freeze button cancelled")
	e.Button.OverrideName("Freeze Canceled")
}
