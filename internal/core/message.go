package core

import "maps"

// User is a room participant as announced by a client on join. Immutable for
// the lifetime of the membership.
type User struct {
	ID       string
	Name     string
	Language string
}

// ChatMessage is an immutable entry of a room history.
type ChatMessage struct {
	ID             string
	UserID         string
	UserName       string
	OriginalText   string
	SourceLanguage string
	// Translations always holds SourceLanguage -> OriginalText.
	Translations map[string]string
	// Timestamp is unix milliseconds.
	Timestamp int64
}

// newChatMessage builds a message, forcing the source entry into translations.
func newChatMessage(id string, from User, text string, translations map[string]string, ts int64) ChatMessage {
	out := make(map[string]string, len(translations)+1)
	maps.Copy(out, translations)
	out[from.Language] = text

	return ChatMessage{
		ID:             id,
		UserID:         from.ID,
		UserName:       from.Name,
		OriginalText:   text,
		SourceLanguage: from.Language,
		Translations:   out,
		Timestamp:      ts,
	}
}
