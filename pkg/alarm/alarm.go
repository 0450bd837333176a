package alarm

import (
	"sync"

	"github.com/looplab/fsm"
	"github.com/sirupsen/logrus"
)

const (
	stateSilent  = "silent"
	statePlaying = "playing"

	eventTrigger = "trigger"
	eventFinish  = "finish"
	eventStop    = "stop"
)

// Player plays the alarm sound once and calls done when playback ends on
// its own. Stop cuts playback short.
type Player interface {
	Play(done func()) error
	Stop()
}

// Alarm is the process-wide alert sink. Triggering while the sound is
// already playing is a no-op.
type Alarm struct {
	mu     sync.Mutex
	state  *fsm.FSM
	player Player
	log    *logrus.Logger

	// playback counts started sounds; only the current one may finish.
	playback uint64
}

func New(player Player, log *logrus.Logger) *Alarm {
	a := &Alarm{
		player: player,
		log:    log,
	}

	a.state = fsm.NewFSM(
		stateSilent,
		fsm.Events{
			{Name: eventTrigger, Src: []string{stateSilent}, Dst: statePlaying},
			{Name: eventTrigger, Src: []string{statePlaying}, Dst: statePlaying},
			{Name: eventFinish, Src: []string{statePlaying}, Dst: stateSilent},
			{Name: eventStop, Src: []string{statePlaying, stateSilent}, Dst: stateSilent},
		},
		fsm.Callbacks{
			"after_event": func(e *fsm.Event) {
				if e.Src != e.Dst {
					a.log.WithFields(logrus.Fields{
						"from":  e.Src,
						"to":    e.Dst,
						"event": e.Event,
					}).Debug("Alarm state changed")
				}
			},
		},
	)

	return a
}

func (a *Alarm) Trigger() {
	a.mu.Lock()
	defer a.mu.Unlock()

	if !a.transition(eventTrigger) {
		return
	}

	a.playback++
	playback := a.playback

	// done runs on the audio goroutine; hand off so it never waits on a.mu
	// while Trigger holds it and waits on the audio device.
	if err := a.player.Play(func() { go a.finish(playback) }); err != nil {
		a.log.WithField("error", err.Error()).Warn("Alarm playback failed")
		a.transition(eventFinish)
	}
}

func (a *Alarm) Stop() {
	a.mu.Lock()
	defer a.mu.Unlock()

	wasPlaying := a.state.Is(statePlaying)
	a.transition(eventStop)
	if wasPlaying {
		a.player.Stop()
	}
}

func (a *Alarm) Playing() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.state.Is(statePlaying)
}

// finish ends playback n. A sound that was stopped and replaced can still
// report its end late; that report must not silence the newer sound.
func (a *Alarm) finish(n uint64) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if n != a.playback {
		a.log.WithField("playback", n).Debug("Ignoring end of a replaced alarm sound")
		return
	}
	a.transition(eventFinish)
}

// transition reports whether the event changed state. Self transitions and
// events that do not apply to the current state are expected and silent.
func (a *Alarm) transition(event string) bool {
	err := a.state.Event(event)
	switch err.(type) {
	case nil:
		return true
	case fsm.NoTransitionError, fsm.InvalidEventError:
		return false
	default:
		a.log.WithFields(logrus.Fields{
			"event": event,
			"error": err.Error(),
		}).Error("Alarm state machine error")
		return false
	}
}
