package models

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestAuctionItem_SeedDecoding(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		body    string
		want    Seed
		wantErr bool
	}{
		{name: "number", body: `{"id":1,"seed":4}`, want: "4"},
		{name: "numeric_string", body: `{"id":1,"seed":"4"}`, want: "4"},
		{name: "play_in_string", body: `{"id":1,"seed":"16a"}`, want: "16a"},
		{name: "null", body: `{"id":1,"seed":null}`, want: ""},
		{name: "missing", body: `{"id":1}`, want: ""},
		{name: "object", body: `{"id":1,"seed":{"v":1}}`, wantErr: true},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			var item AuctionItem
			err := json.Unmarshal([]byte(tc.body), &item)
			if tc.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			require.Equal(t, int64(1), item.ID)
			require.Equal(t, tc.want, item.Seed)
		})
	}
}

func TestAuctionItem_CloneDoesNotAlias(t *testing.T) {
	t.Parallel()

	soldTo := int64(3)
	item := AuctionItem{ID: 1, Seed: "2", SoldTo: &soldTo, Bids: []Bid{{UserID: 3}}}
	clone := item.Clone()

	*clone.SoldTo = 9
	clone.Bids[0].UserID = 9
	require.Equal(t, int64(3), *item.SoldTo)
	require.Equal(t, int64(3), item.Bids[0].UserID)
	require.Equal(t, Seed("2"), clone.Seed)
}
