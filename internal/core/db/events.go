package db

// ------------------------------
// Event System
// ------------------------------
//
// The DB emits typed events when a bookmark list is written. Register
// listeners to react to these changes.
//
// Example usage:
//
//	db.RegisterEventListener(db.OnBookmarksSavedEvent, func(event db.Event) error {
//	    ev := event.(db.BookmarksSavedEvent)
//	    logger.Info("bookmarks saved", "video", ev.VideoID, "count", ev.Count)
//	    return nil
//	})
//
// Event is the common interface for all database events.
type Event interface {
	Kind() EventKind
}

// EventKind represents all the kinds of events that can be emitted by the DB.
type EventKind int

const (
	// OnBookmarksSavedEvent is emitted when a video's bookmark list is written.
	OnBookmarksSavedEvent EventKind = iota
)

func (k EventKind) String() string {
	switch k {
	case OnBookmarksSavedEvent:
		return "bookmarks_saved"
	default:
		return "unknown"
	}
}

// BookmarksSavedEvent is emitted after a bookmark list is successfully stored.
type BookmarksSavedEvent struct {
	VideoID string
	Count   int
}

func (e BookmarksSavedEvent) Kind() EventKind { return OnBookmarksSavedEvent }

// EventListener is a callback that handles events of a specific kind.
type EventListener func(event Event) error

// RegisterEventListener adds a listener for a specific event kind.
// Listeners are called synchronously in registration order after the DB operation succeeds.
func (db *DB) RegisterEventListener(eventKind EventKind, listener EventListener) {
	if db.eventListeners == nil {
		db.eventListeners = make(map[EventKind][]EventListener)
	}
	db.eventListeners[eventKind] = append(db.eventListeners[eventKind], listener)
}

// emit dispatches an event to all registered listeners for that event kind.
func (db *DB) emit(event Event) {
	for _, listener := range db.eventListeners[event.Kind()] {
		if err := listener(event); err != nil {
			db.logger.Error("event listener failed", "event", event.Kind(), "err", err)
		}
	}
}
