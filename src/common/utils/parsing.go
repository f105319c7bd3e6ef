package utils

import (
	"encoding/json"

	"github.com/jack-barr3tt/gbr-tsdb/src/common/types"
)

func UnmarshalTrustMessages(data string) ([]types.TrustMessage, error) {
	var messages []types.TrustMessage
	err := json.Unmarshal([]byte(data), &messages)
	return messages, err
}

// tdEnvelope holds whichever C or S class body an element of the TD feed
// carries. Each element has exactly one key.
type tdEnvelope struct {
	types.TDCMsgEnvelope
	types.TDSMsgEnvelope
}

func UnmarshalTDMessages(data string) ([]types.TDCMsgBody, []types.TDSMsgBody, error) {
	var envelopes []tdEnvelope
	if err := json.Unmarshal([]byte(data), &envelopes); err != nil {
		return nil, nil, err
	}

	var tdCMsgs []types.TDCMsgBody
	var tdSMsgs []types.TDSMsgBody

	for _, e := range envelopes {
		for _, body := range []*types.TDCMsgBody{e.CAMsgBody, e.CBMsgBody, e.CCMsgBody, e.CTMsgBody} {
			if body != nil {
				tdCMsgs = append(tdCMsgs, *body)
			}
		}
		for _, body := range []*types.TDSMsgBody{e.SFMsgBody, e.SGMsgBody, e.SHMsgBody} {
			if body != nil {
				tdSMsgs = append(tdSMsgs, *body)
			}
		}
	}

	return tdCMsgs, tdSMsgs, nil
}

func UnmarshalVSTP(jsonStr string) (*types.VSTPMessage, error) {
	var vstpMsg types.VSTPMessage
	err := json.Unmarshal([]byte(jsonStr), &vstpMsg)
	if err != nil {
		return nil, err
	}
	return &vstpMsg, nil
}
