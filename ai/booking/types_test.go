package booking

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseKind(t *testing.T) {
	tests := []struct {
		in      string
		want    Kind
		wantErr bool
	}{
		{"new", KindNew, false},
		{"modify", KindModify, false},
		{" Modify ", KindModify, false},
		{"NEW", KindNew, false},
		{"cancel", 0, true},
		{"", 0, true},
	}
	for _, tt := range tests {
		got, err := ParseKind(tt.in)
		if tt.wantErr {
			require.Error(t, err, "ParseKind(%q)", tt.in)
			continue
		}
		require.NoError(t, err, "ParseKind(%q)", tt.in)
		require.Equal(t, tt.want, got)
	}
}

func TestCheck_UnknownKindFailsDecode(t *testing.T) {
	var check Check
	err := json.Unmarshal([]byte(`{"description":"x","is_ticket_booking":true,"new_or_modify":"cancel"}`), &check)
	require.Error(t, err, "an unrecognized routing label must fail at decode time")
}

func TestKind_RoundTrip(t *testing.T) {
	data, err := json.Marshal(KindModify)
	require.NoError(t, err)
	require.JSONEq(t, `"modify"`, string(data))

	var k Kind
	require.NoError(t, json.Unmarshal(data, &k))
	require.Equal(t, KindModify, k)
}

func TestTicketInfo_Normalize(t *testing.T) {
	info := TicketInfo{
		Source:        " New York ",
		Destination:   "None",
		DepartureDate: "null",
		ReturnDate:    "2026-03-25",
	}.Normalize()

	require.Equal(t, "New York", info.Source)
	require.Empty(t, info.Destination)
	require.Empty(t, info.DepartureDate)
	require.Equal(t, "2026-03-25", info.ReturnDate)
}

func TestFormatDate(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"2026-03-10", "March 10, 2026"},
		{"2026-03-10T00:00:00", "March 10, 2026"},
		{"", ""},
		{"March 10, 2026", "March 10, 2026"}, // already formatted, passed through
	}
	for _, tt := range tests {
		require.Equal(t, tt.want, formatDate(tt.in), "formatDate(%q)", tt.in)
	}
}
