package mssql

import "testing"

func TestMsFQN(t *testing.T) {
	t.Parallel()

	cases := []struct {
		in   string
		want string
	}{
		{"raw_events", "[raw_events]"},
		{"dbo.raw_events", "[dbo].[raw_events]"},
		{"odd]name", "[odd]]name]"},
		{".leading", "[leading]"},
	}
	for _, c := range cases {
		if got := msFQN(c.in); got != c.want {
			t.Errorf("msFQN(%q) = %s, want %s", c.in, got, c.want)
		}
	}
}
