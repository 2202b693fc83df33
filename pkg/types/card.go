package types

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// CardID is an opaque card identifier. The server is free to key cards by
// number or by string; either form decodes into the same value, and numeric
// ids are re-encoded as numbers so a round trip matches what the server sent.
type CardID string

func (id *CardID) UnmarshalJSON(data []byte) error {
	s := strings.TrimSpace(string(data))
	if s == "null" {
		return fmt.Errorf("null card id")
	}
	if len(s) >= 2 && s[0] == '"' {
		var v string
		if err := json.Unmarshal(data, &v); err != nil {
			return err
		}
		*id = CardID(v)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("card id: %w", err)
	}
	*id = CardID(n.String())
	return nil
}

func (id CardID) MarshalJSON() ([]byte, error) {
	// Only canonical integers go out raw; "007" or "+7" parse fine but are
	// not valid JSON numbers, so anything that does not round-trip exactly
	// stays a string.
	if n, err := strconv.ParseInt(string(id), 10, 64); err == nil && strconv.FormatInt(n, 10) == string(id) {
		return []byte(id), nil
	}
	return json.Marshal(string(id))
}

// CardRecord is the immutable text and metadata for one card. Draw and Pick
// are only meaningful for black cards.
type CardRecord struct {
	Text      string `json:"text"`
	Watermark string `json:"watermark,omitempty"`
	Draw      int    `json:"draw,omitempty"`
	Pick      int    `json:"pick,omitempty"`
}

// GameListing is one entry of the lobby's game list. Listings are transient;
// the server resends the full list on every refresh.
type GameListing struct {
	Name     string `json:"name"`
	Players  int    `json:"players"`
	Joinable bool   `json:"joinable"`
}
