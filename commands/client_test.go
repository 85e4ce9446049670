package commands

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAPIURL(t *testing.T) {
	testCases := []struct {
		addr string
		want string
	}{
		{
			addr: "127.0.0.1:1234",
			want: "http://127.0.0.1:1234/rpc/v0",
		},
		{
			addr: "localhost:1234",
			want: "http://localhost:1234/rpc/v0",
		},
		{
			addr: "http://127.0.0.1:1234",
			want: "http://127.0.0.1:1234/rpc/v0",
		},
		{
			addr: "http://127.0.0.1:1234/",
			want: "http://127.0.0.1:1234/rpc/v0",
		},
		{
			addr: "https://gavel.example.com:1234/rpc/v0",
			want: "https://gavel.example.com:1234/rpc/v0",
		},
		{
			addr: "  127.0.0.1:1234 ",
			want: "http://127.0.0.1:1234/rpc/v0",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.addr, func(t *testing.T) {
			got, err := apiURL(tc.addr)
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestAPIURLEmpty(t *testing.T) {
	_, err := apiURL("")
	require.Error(t, err)

	_, err = apiURL("   ")
	require.Error(t, err)
}
