package models

import (
	"time"

	"github.com/google/uuid"
)

// StatusEvent is published whenever a submission changes status.
type StatusEvent struct {
	SubmissionID uuid.UUID `msgpack:"submission_id" json:"submission_id"`
	OwnerID      uuid.UUID `msgpack:"owner_id" json:"owner_id"`
	From         string    `msgpack:"from" json:"from"`
	To           string    `msgpack:"to" json:"to"`
	ApproveCount int       `msgpack:"approve_count" json:"approve_count"`
	RejectCount  int       `msgpack:"reject_count" json:"reject_count"`
	At           time.Time `msgpack:"at" json:"at"`
}
