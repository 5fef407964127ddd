package recording

import "fmt"

// State is a pipeline lifecycle state.
type State int

const (
	Idle State = iota
	Recording
	Stopped
	PersistedTemp
	Transcoding
	PersistedFinal
	DownloadsCopied
	GalleryCopied
)

var stateNames = [...]string{
	Idle:            "idle",
	Recording:       "recording",
	Stopped:         "stopped",
	PersistedTemp:   "persisted-temp",
	Transcoding:     "transcoding",
	PersistedFinal:  "persisted-final",
	DownloadsCopied: "downloads-copied",
	GalleryCopied:   "gallery-copied",
}

func (s State) String() string {
	if s < 0 || int(s) >= len(stateNames) {
		return fmt.Sprintf("state(%d)", int(s))
	}
	return stateNames[s]
}

type event int

const (
	evStart event = iota
	evStopped
	evPersistTemp
	evTranscode
	evPromote
	evCopyDownloads
	evSaveGallery
	evFinish
	evAbort
)

var eventNames = [...]string{
	evStart:         "start",
	evStopped:       "stopped",
	evPersistTemp:   "persist-temp",
	evTranscode:     "transcode",
	evPromote:       "promote",
	evCopyDownloads: "copy-downloads",
	evSaveGallery:   "save-gallery",
	evFinish:        "finish",
	evAbort:         "abort",
}

func (e event) String() string {
	if e < 0 || int(e) >= len(eventNames) {
		return fmt.Sprintf("event(%d)", int(e))
	}
	return eventNames[e]
}

// transitions is the full lifecycle table. evAbort is accepted from every
// non-idle state and is handled in transition.
var transitions = map[State]map[event]State{
	Idle:            {evStart: Recording},
	Recording:       {evStopped: Stopped},
	Stopped:         {evPersistTemp: PersistedTemp},
	PersistedTemp:   {evTranscode: Transcoding},
	Transcoding:     {evPromote: PersistedFinal},
	PersistedFinal:  {evCopyDownloads: DownloadsCopied},
	DownloadsCopied: {evSaveGallery: GalleryCopied},
	GalleryCopied:   {evFinish: Idle},
}

// InvalidTransitionError reports an event that is not allowed in a state.
type InvalidTransitionError struct {
	From  State
	Event string
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("invalid transition %q from state %s", e.Event, e.From)
}

func transition(from State, ev event) (State, error) {
	if ev == evAbort && from != Idle {
		return Idle, nil
	}
	if to, ok := transitions[from][ev]; ok {
		return to, nil
	}
	return from, &InvalidTransitionError{From: from, Event: ev.String()}
}
