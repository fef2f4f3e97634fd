package notifier

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestBuildAgentRegisteredMessage(t *testing.T) {
	require := require.New(t)

	msg := BuildAgentRegisteredMessage(
		"Sepolia",
		"https://sepolia.etherscan.io/",
		7,
		"Summarizer",
		"0xAbCdEf0000000000000000000000000000000001",
		"0xabc0000000000000000000000000000000000000000000000000000000000001",
	)

	require.Equal("agentscan", msg.Username)
	require.Len(msg.Embeds, 1)
	embed := msg.Embeds[0]
	require.Equal("New Agent: Summarizer (#7)", embed.Title)
	require.Equal(
		"https://sepolia.etherscan.io/tx/0xabc0000000000000000000000000000000000000000000000000000000000001",
		embed.URL,
	)
	require.Len(embed.Fields, 2)
	require.Equal("Sepolia", embed.Fields[0].Value)
	require.Equal("0xAbCd…0001", embed.Fields[1].Value)
}

func TestBuildSyncErrorAlertTruncates(t *testing.T) {
	require := require.New(t)

	long := strings.Repeat("x", 600)
	msg := BuildSyncErrorAlert("Sepolia", 1099, long)

	require.Len(msg.Embeds, 1)
	embed := msg.Embeds[0]
	require.Equal("Sync failed on Sepolia", embed.Title)
	require.Len(embed.Description, 500+len("…"))
	require.Equal("1099", embed.Fields[0].Value)
}

func TestBuildNodeHealthAlert(t *testing.T) {
	require := require.New(t)

	msg := BuildNodeHealthAlert("Sepolia", 3, 3, "connection refused", 250)
	embed := msg.Embeds[0]
	require.Equal("RPC health check failing on Sepolia", embed.Title)
	require.Equal("3/3", embed.Fields[0].Value)
	require.Equal("250ms", embed.Fields[1].Value)
}

func TestBuildHeightStagnationAlert(t *testing.T) {
	require := require.New(t)

	msg := BuildHeightStagnationAlert(
		"Sepolia", 123456, 25*time.Minute, 20*time.Minute,
	)
	embed := msg.Embeds[0]
	require.Equal("Chain height stagnant on Sepolia", embed.Title)
	require.Equal("123456", embed.Fields[0].Value)
	require.Equal("25m0s", embed.Fields[1].Value)
}

func TestTxLink(t *testing.T) {
	tests := []struct {
		name        string
		explorerURL string
		txHash      string
		want        string
	}{
		{
			name:        "trailing slash stripped",
			explorerURL: "https://explorer.example/",
			txHash:      "0xabc",
			want:        "https://explorer.example/tx/0xabc",
		},
		{
			name:        "no explorer configured",
			explorerURL: "",
			txHash:      "0xabc",
			want:        "",
		},
		{
			name:        "no hash",
			explorerURL: "https://explorer.example",
			txHash:      "",
			want:        "",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, txLink(tt.explorerURL, tt.txHash))
		})
	}
}

func TestShorteners(t *testing.T) {
	require := require.New(t)

	require.Equal("0xshort", shortenAddress("0xshort"))
	require.Equal("0xAbCd…0001",
		shortenAddress("0xAbCdEf0000000000000000000000000000000001"))
	require.Equal("0xdeadbeef…",
		shortenHash("0xdeadbeef00000000000000000000000000000001"))
}
