// Package callflow drives a phone call across stateless webhook round trips:
// it classifies each inbound request, runs the conversational turn and picks
// the directive the IVR platform should execute next.
package callflow

// State is the lifecycle tag of a call identifier.
type State int

const (
	// StateNew means no session and no completed marker.
	StateNew State = iota
	// StateActive means a session exists and the call is mid-conversation.
	StateActive
	// StateCompletedPendingHangup means the call finished and must be
	// disconnected on its next contact.
	StateCompletedPendingHangup
	// StateHungUp is terminal: session and marker are gone.
	StateHungUp
)

func (s State) String() string {
	switch s {
	case StateNew:
		return "new"
	case StateActive:
		return "active"
	case StateCompletedPendingHangup:
		return "completed_pending_hangup"
	case StateHungUp:
		return "hung_up"
	default:
		return "unknown"
	}
}

// Action is what the controller does for a request.
type Action int

const (
	// Acknowledge answers a hangup notification and drops all call state.
	Acknowledge Action = iota
	// Disconnect consumes the completed marker and hangs up.
	Disconnect
	// Reprompt asks the caller to repeat; history is untouched.
	Reprompt
	// Greet starts a fresh session and plays the greeting.
	Greet
	// Process runs a conversational turn on the attached recording.
	Process
	// Prompt speaks the generated reply and waits for the next recording.
	Prompt
	// Terminate speaks the closing reply and ends the conversation.
	Terminate
	// Apologize answers with the fixed apology after a failure.
	Apologize
)

func (a Action) String() string {
	switch a {
	case Acknowledge:
		return "acknowledge"
	case Disconnect:
		return "disconnect"
	case Reprompt:
		return "reprompt"
	case Greet:
		return "greet"
	case Process:
		return "process"
	case Prompt:
		return "prompt"
	case Terminate:
		return "terminate"
	case Apologize:
		return "apology"
	default:
		return "unknown"
	}
}

// Event is what an inbound request tells us about a call.
type Event struct {
	Hangup     bool // platform reports the caller disconnected
	Recording  bool // a caller utterance is attached
	HasHistory bool // the existing session holds at least one turn
}

// Step is the outcome of a transition.
type Step struct {
	Action Action
	Next   State
}

// Next resolves a request against the call's current state. Rules apply in
// order: hangup always wins, then the completed marker, then the
// no-recording cases, and finally processing.
func Next(state State, ev Event) Step {
	switch {
	case ev.Hangup:
		return Step{Action: Acknowledge, Next: StateHungUp}
	case state == StateCompletedPendingHangup:
		return Step{Action: Disconnect, Next: StateHungUp}
	case !ev.Recording && state == StateActive && ev.HasHistory:
		return Step{Action: Reprompt, Next: StateActive}
	case !ev.Recording:
		return Step{Action: Greet, Next: StateActive}
	default:
		return Step{Action: Process, Next: StateActive}
	}
}

// Finish resolves a processed turn once the reply is known.
func Finish(complete bool) Step {
	if complete {
		return Step{Action: Terminate, Next: StateCompletedPendingHangup}
	}
	return Step{Action: Prompt, Next: StateActive}
}
