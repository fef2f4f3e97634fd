// Package notifier builds Discord webhook messages for operator-facing
// events. Senders own the webhook client; this package only shapes payloads.
package notifier

import (
	"fmt"
	"time"

	"github.com/disgoorg/disgo/discord"
)

const (
	colorGreen  = 0x2ecc71
	colorRed    = 0xe74c3c
	colorOrange = 0xe67e22

	botUsername = "agentscan"
)

// BuildAgentRegisteredMessage announces a newly indexed agent.
func BuildAgentRegisteredMessage(
	networkName string,
	explorerURL string,
	tokenID uint64,
	agentName string,
	ownerAddress string,
	txHash string,
) discord.WebhookMessageCreate {
	embed := discord.NewEmbedBuilder().
		SetColor(colorGreen).
		SetTitle(fmt.Sprintf("New Agent: %s (#%d)", agentName, tokenID)).
		SetURL(txLink(explorerURL, txHash)).
		AddField("Network", networkName, true).
		AddField("Owner", shortenAddress(ownerAddress), true).
		SetFooter(fmt.Sprintf("tx %s", shortenHash(txHash)), "")

	return discord.NewWebhookMessageCreateBuilder().
		SetUsername(botUsername).
		SetEmbeds(embed.Build()).
		Build()
}

// BuildSyncErrorAlert reports a failed sync run with its cursor position.
func BuildSyncErrorAlert(
	networkName string,
	lastProcessedBlock uint64,
	errorMessage string,
) discord.WebhookMessageCreate {
	embed := discord.NewEmbedBuilder().
		SetColor(colorRed).
		SetTitle(fmt.Sprintf("Sync failed on %s", networkName)).
		SetDescription(truncateMessage(errorMessage, 500)).
		AddField("Last processed block", fmt.Sprintf("%d", lastProcessedBlock), true).
		SetTimestamp(time.Now())

	return discord.NewWebhookMessageCreateBuilder().
		SetUsername(botUsername).
		SetEmbeds(embed.Build()).
		Build()
}

// BuildNodeHealthAlert reports repeated RPC health check failures.
func BuildNodeHealthAlert(
	networkName string,
	consecutiveFailures int,
	maxFailures int,
	errorMessage string,
	responseTimeMs int64,
) discord.WebhookMessageCreate {
	embed := discord.NewEmbedBuilder().
		SetColor(colorRed).
		SetTitle(fmt.Sprintf("RPC health check failing on %s", networkName)).
		SetDescription(truncateMessage(errorMessage, 500)).
		AddField("Consecutive failures", fmt.Sprintf("%d/%d", consecutiveFailures, maxFailures), true).
		AddField("Response time", fmt.Sprintf("%dms", responseTimeMs), true).
		SetTimestamp(time.Now())

	return discord.NewWebhookMessageCreateBuilder().
		SetUsername(botUsername).
		SetEmbeds(embed.Build()).
		Build()
}

// BuildHeightStagnationAlert reports a chain height that has stopped moving.
func BuildHeightStagnationAlert(
	networkName string,
	currentHeight uint64,
	stagnationDuration time.Duration,
	stagnationLimit time.Duration,
) discord.WebhookMessageCreate {
	embed := discord.NewEmbedBuilder().
		SetColor(colorOrange).
		SetTitle(fmt.Sprintf("Chain height stagnant on %s", networkName)).
		AddField("Current height", fmt.Sprintf("%d", currentHeight), true).
		AddField("Stagnant for", stagnationDuration.Round(time.Second).String(), true).
		AddField("Limit", stagnationLimit.String(), true).
		SetTimestamp(time.Now())

	return discord.NewWebhookMessageCreateBuilder().
		SetUsername(botUsername).
		SetEmbeds(embed.Build()).
		Build()
}
