package service

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"dev3-backend/internal/core/domain"
	"dev3-backend/pkg/apperror"
)

var (
	errNoEventData = errors.New("payload.Events.data is missing")
	errNoEvents    = errors.New("event list is empty")
	errNoMemo      = errors.New("event memo is missing")
)

// indexerEnvelope is the JSON body the indexer posts for a matched transfer.
type indexerEnvelope struct {
	Payload struct {
		Events struct {
			BlockHash       string          `json:"block_hash"`
			ReceiptID       string          `json:"receipt_id"`
			TransactionHash string          `json:"transaction_hash"`
			Event           string          `json:"event"`
			Standard        string          `json:"standard"`
			Version         string          `json:"version"`
			Data            json.RawMessage `json:"data"`
		} `json:"Events"`
	} `json:"payload"`
}

// normalizeEventData turns the indexer's single-quoted pseudo-JSON into JSON.
// Only quote characters are touched.
func normalizeEventData(s string) string {
	return strings.ReplaceAll(s, "'", `"`)
}

// ParseTransferEvents decodes an indexer delivery. The event list must be
// non-empty and its first event must carry a memo.
func ParseTransferEvents(body []byte) (*domain.TransferNotification, error) {
	var env indexerEnvelope
	if err := json.Unmarshal(body, &env); err != nil {
		return nil, apperror.ErrMalformedPayload(fmt.Errorf("decode envelope: %w", err))
	}

	ev := env.Payload.Events
	raw := bytes.TrimSpace(ev.Data)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return nil, apperror.ErrMalformedPayload(errNoEventData)
	}

	// data normally arrives as a string holding the list; accept a bare list too.
	if raw[0] == '"' {
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return nil, apperror.ErrMalformedPayload(fmt.Errorf("decode data string: %w", err))
		}
		raw = []byte(normalizeEventData(s))
	}

	var events []domain.TransferEvent
	if err := json.Unmarshal(raw, &events); err != nil {
		return nil, apperror.ErrMalformedPayload(fmt.Errorf("decode events: %w", err))
	}
	if len(events) == 0 {
		return nil, apperror.ErrMalformedPayload(errNoEvents)
	}
	if events[0].Memo == "" {
		return nil, apperror.ErrMalformedPayload(errNoMemo)
	}

	return &domain.TransferNotification{
		BlockHash:       ev.BlockHash,
		ReceiptID:       ev.ReceiptID,
		TransactionHash: ev.TransactionHash,
		Event:           ev.Event,
		Standard:        ev.Standard,
		Version:         ev.Version,
		Events:          events,
	}, nil
}
