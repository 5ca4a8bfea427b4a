package store

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/gowebpki/jcs"
)

// Record is one logged model payload with the time it was recovered.
type Record struct {
	ID        string          `json:"id"`
	SessionID string          `json:"session_id"`
	State     json.RawMessage `json:"state"`
	Digest    string          `json:"digest"`
	Timestamp time.Time       `json:"timestamp"`
}

// NewRecord assigns an ID and digests state in its RFC 8785 canonical form,
// so payloads that differ only in key order or spacing share a digest.
func NewRecord(sessionID string, state json.RawMessage, at time.Time) (Record, error) {
	digest, err := Digest(state)
	if err != nil {
		return Record{}, err
	}
	return Record{
		ID:        uuid.NewString(),
		SessionID: sessionID,
		State:     state,
		Digest:    digest,
		Timestamp: at.UTC(),
	}, nil
}

func Digest(state json.RawMessage) (string, error) {
	canonical, err := jcs.Transform(state)
	if err != nil {
		return "", fmt.Errorf("%w: canonicalizing state: %v", ErrInvalidRecord, err)
	}
	sum := sha256.Sum256(canonical)
	return hex.EncodeToString(sum[:]), nil
}

func (r Record) Validate() error {
	if _, err := uuid.Parse(r.ID); err != nil {
		return fmt.Errorf("%w: id: %v", ErrInvalidRecord, err)
	}
	if strings.TrimSpace(r.SessionID) == "" {
		return fmt.Errorf("%w: session id is required", ErrInvalidRecord)
	}
	if !json.Valid(r.State) {
		return fmt.Errorf("%w: state is not valid json", ErrInvalidRecord)
	}
	if r.Timestamp.IsZero() {
		return fmt.Errorf("%w: timestamp is required", ErrInvalidRecord)
	}
	return nil
}
