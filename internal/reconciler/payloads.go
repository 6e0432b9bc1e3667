package reconciler

import (
	"encoding/json"
	"strconv"
	"strings"
)

// itemPayload covers the shapes seen on active-item-event and bid-event
type itemPayload struct {
	AuctionID    flexString `json:"auctionId"`
	ItemID       flexInt    `json:"itemId"`
	ActiveItemID flexInt    `json:"activeItemId"`
	Item         *struct {
		ID flexInt `json:"id"`
	} `json:"item"`
}

func (p itemPayload) itemID() int64 {
	switch {
	case p.ItemID > 0:
		return int64(p.ItemID)
	case p.ActiveItemID > 0:
		return int64(p.ActiveItemID)
	case p.Item != nil && p.Item.ID > 0:
		return int64(p.Item.ID)
	}
	return 0
}

// auctionStatePayload announces an auction starting or stopping server-wide
type auctionStatePayload struct {
	AuctionID flexString `json:"auctionId"`
	Active    *bool      `json:"active"`
	Status    string     `json:"status"`
}

func (p auctionStatePayload) ended() bool {
	if p.Active != nil {
		return !*p.Active
	}
	switch strings.ToLower(p.Status) {
	case "stopped", "ended", "closed", "inactive", "finished":
		return true
	}
	return false
}

// flexInt accepts a JSON number, a numeric string or null
type flexInt int64

func (f *flexInt) UnmarshalJSON(b []byte) error {
	s := strings.Trim(string(b), `"`)
	if s == "" || s == "null" {
		*f = 0
		return nil
	}
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return err
	}
	*f = flexInt(n)
	return nil
}

// flexString accepts a JSON string or number
type flexString string

func (f *flexString) UnmarshalJSON(b []byte) error {
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*f = flexString(s)
		return nil
	}
	if string(b) == "null" {
		*f = ""
		return nil
	}
	*f = flexString(b)
	return nil
}
