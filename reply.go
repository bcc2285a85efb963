package overledger

import (
	"encoding/json"
	"strings"

	"github.com/architectjyothi/overledger-sdk-go/lib/gateway"
)

// Status is the state of one DLT entry of a submission. The gateway reports it either as a plain string or as an
// object carrying a "status" field; both decode to the lowercased state.
type Status string

// UnmarshalJSON implements json.Unmarshaler.
func (s *Status) UnmarshalJSON(b []byte) error {
	var v string
	if len(b) > 0 && b[0] == '{' {
		var obj struct {
			Status string `json:"status"`
		}
		if err := json.Unmarshal(b, &obj); err != nil {
			return err
		}

		v = obj.Status
	} else if err := json.Unmarshal(b, &v); err != nil {
		return err
	}

	*s = Status(strings.ToLower(strings.TrimSpace(v)))

	return nil
}

// DltStatus is the gateway view of one DLT entry of a submission.
type DltStatus struct {
	Dlt             string `json:"dlt"`
	TransactionHash string `json:"transactionHash,omitempty"`
	Status          Status `json:"status,omitempty"`
}

// TransactionReply is the gateway view of a submission, as replied to Send and ReadByTransactionID.
type TransactionReply struct {
	MappID        string      `json:"mappId,omitempty"`
	TransactionID string      `json:"overledgerTransactionId"`
	DltData       []DltStatus `json:"dltData"`
}

// DecodeReply decodes r into a TransactionReply.
func DecodeReply(r *gateway.Response) (*TransactionReply, error) {
	var tr TransactionReply
	if err := r.Decode(&tr); err != nil {
		return nil, err
	}

	return &tr, nil
}

// Entry returns the entry of dlt, if any.
func (tr *TransactionReply) Entry(dlt string) (DltStatus, bool) {
	for _, d := range tr.DltData {
		if strings.EqualFold(d.Dlt, dlt) {
			return d, true
		}
	}

	return DltStatus{}, false
}
