package overlay

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"

	"github.com/seckatie/marktube/internal/core"
)

// CommandType discriminates the messages a Controller accepts.
type CommandType string

const (
	// CommandNew announces that the tab is now showing VideoID.
	CommandNew CommandType = "NEW"
	// CommandPlay seeks the player to Value seconds.
	CommandPlay CommandType = "PLAY"
	// CommandDelete removes every bookmark at Value seconds and replies with
	// the remaining list.
	CommandDelete CommandType = "DELETE"
	// CommandAdd bookmarks the current playback position. It is sent by the
	// injected button.
	CommandAdd CommandType = "ADD"
)

// ErrInvalidCommand is returned for messages that cannot be acted on.
var ErrInvalidCommand = errors.New("invalid command")

// Command is a message delivered to a Controller.
type Command struct {
	Type    CommandType `json:"type"`
	VideoID string      `json:"videoId,omitempty"`
	Value   float64     `json:"value,omitempty"`
}

// NewCommand builds a NEW command.
func NewCommand(videoID string) Command {
	return Command{Type: CommandNew, VideoID: videoID}
}

// PlayCommand builds a PLAY command.
func PlayCommand(seconds float64) Command {
	return Command{Type: CommandPlay, Value: seconds}
}

// DeleteCommand builds a DELETE command.
func DeleteCommand(seconds float64) Command {
	return Command{Type: CommandDelete, Value: seconds}
}

// Validate checks the fields each command type relies on.
func (c Command) Validate() error {
	switch c.Type {
	case CommandNew:
		if c.VideoID == "" {
			return fmt.Errorf("%w: NEW without videoId", ErrInvalidCommand)
		}
	case CommandPlay, CommandDelete:
		if math.IsNaN(c.Value) || math.IsInf(c.Value, 0) || c.Value < 0 || c.Value > core.MaxTimestamp {
			return fmt.Errorf("%w: %s with value %v", ErrInvalidCommand, c.Type, c.Value)
		}
	case CommandAdd:
	default:
		return fmt.Errorf("%w: unknown type %q", ErrInvalidCommand, c.Type)
	}
	return nil
}

// ParseCommand decodes and validates a JSON command.
func ParseCommand(data []byte) (Command, error) {
	var c Command
	if err := json.Unmarshal(data, &c); err != nil {
		return Command{}, fmt.Errorf("%w: %v", ErrInvalidCommand, err)
	}
	if err := c.Validate(); err != nil {
		return Command{}, err
	}
	return c, nil
}
