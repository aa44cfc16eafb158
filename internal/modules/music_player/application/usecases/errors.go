package usecases

import "github.com/cockroachdb/errors"

// Errors returned by the music player use cases.
var (
	// ErrEmptyQuery is returned when a play request has no query.
	ErrEmptyQuery = errors.New("query is empty")

	// ErrUserNotInVoice is returned when the user is not in a voice channel.
	ErrUserNotInVoice = errors.New("you must be in a voice channel")

	// ErrNoQueue is returned when the guild has no active queue.
	ErrNoQueue = errors.New("nothing is playing in this guild")
)
