package models

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Transaction is a single ledger row: value moved from SenderID to ReceiverID.
// Account ids are opaque and compared verbatim.
type Transaction struct {
	SenderID   string `json:"sender_id"`
	ReceiverID string `json:"receiver_id"`
}

// UnmarshalJSON accepts account ids encoded either as JSON strings or as
// JSON numbers. Numbers keep their literal text ("1001", not "1001.0").
func (t *Transaction) UnmarshalJSON(data []byte) error {
	var raw struct {
		SenderID   json.RawMessage `json:"sender_id"`
		ReceiverID json.RawMessage `json:"receiver_id"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	sender, err := decodeAccountID(raw.SenderID)
	if err != nil {
		return fmt.Errorf("sender_id: %w", err)
	}
	receiver, err := decodeAccountID(raw.ReceiverID)
	if err != nil {
		return fmt.Errorf("receiver_id: %w", err)
	}

	t.SenderID = sender
	t.ReceiverID = receiver
	return nil
}

func decodeAccountID(raw json.RawMessage) (string, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return "", nil
	}

	switch raw[0] {
	case '"':
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return "", err
		}
		return s, nil
	default:
		var n json.Number
		if err := json.Unmarshal(raw, &n); err != nil {
			return "", fmt.Errorf("account id must be a string or number")
		}
		return n.String(), nil
	}
}
