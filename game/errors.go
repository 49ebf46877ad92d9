package game

import "fmt"

// InvalidMessageError is a recognized message with a payload that cannot be used.
type InvalidMessageError struct {
	Msg string
}

func (e InvalidMessageError) Error() string {
	return e.Msg
}

// UnknownMessageError is a message type that is not accepted in the client's join state.
type UnknownMessageError struct {
	Type   string
	Joined bool
}

func (e UnknownMessageError) Error() string {
	if e.Joined {
		return fmt.Sprintf("bad player message type: %q", e.Type)
	}
	return fmt.Sprintf("client sent %q before joining", e.Type)
}
