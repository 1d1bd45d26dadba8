package report

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Receipt is the payload rendered into a QR code on the printed pickup
// receipt. The engine guarantees the content; rendering is the caller's job.
type Receipt struct {
	Token    string         `json:"token"`
	IssuedAt time.Time      `json:"issued_at"`
	Request  receiptRequest `json:"request"`
}

type receiptRequest struct {
	RequestID   int64     `json:"request_id"`
	ClientName  string    `json:"client_name"`
	Equipment   string    `json:"equipment"`
	Description string    `json:"description"`
	MasterName  string    `json:"master_name"`
	StatusName  string    `json:"status_name"`
	DateCreated time.Time `json:"date_created"`
}

// Receipt builds a receipt for the given request from its denormalized
// details. The token is freshly generated per issuance.
func (s *Service) Receipt(ctx context.Context, requestID int64) (Receipt, error) {
	details, err := s.repo.RequestDetails(ctx, requestID)
	if err != nil {
		return Receipt{}, err
	}

	return Receipt{
		Token:    uuid.NewString(),
		IssuedAt: time.Now().UTC(),
		Request: receiptRequest{
			RequestID:   details.RequestID,
			ClientName:  details.ClientName,
			Equipment:   details.Equipment,
			Description: details.Description,
			MasterName:  details.MasterName,
			StatusName:  details.StatusName,
			DateCreated: details.DateCreated,
		},
	}, nil
}

// Encode serializes the receipt to the JSON form embedded in the QR code.
func (r Receipt) Encode() ([]byte, error) {
	body, err := json.Marshal(r)
	if err != nil {
		return nil, fmt.Errorf("report: encode receipt: %w", err)
	}
	return body, nil
}
