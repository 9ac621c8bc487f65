package api

import (
	"encoding/json"
	"fmt"
)

// DecodeList normalizes the backend's duck-typed list payloads. Older
// endpoints answer with a bare JSON array, newer ones wrap it in
// {"results": [...]} and a few admin endpoints use {"items": [...]}.
// Applied once at the API boundary so call sites never branch on shape.
func DecodeList(data []byte) ([]json.RawMessage, error) {
	var list []json.RawMessage
	if err := json.Unmarshal(data, &list); err == nil {
		return list, nil
	}

	var wrapped struct {
		Results []json.RawMessage `json:"results"`
		Items   []json.RawMessage `json:"items"`
	}
	if err := json.Unmarshal(data, &wrapped); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnexpectedListShape, err)
	}

	if wrapped.Results != nil {
		return wrapped.Results, nil
	}
	if wrapped.Items != nil {
		return wrapped.Items, nil
	}

	return nil, ErrUnexpectedListShape
}
