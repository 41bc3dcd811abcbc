package discord

import (
	"net/http"

	"github.com/bwmarrin/discordgo"
)

// Client is a wrapper around a discordgo session. It implements the forum
// thread API, the backup channel and the announcement sender.
type Client struct {
	session *discordgo.Session
	guildID string
	http    *http.Client
}

// MaxHistoryPage is the most messages Discord returns per history request.
const MaxHistoryPage = 100

// threadArchiveMinutes keeps bucket threads visible for a week of inactivity.
const threadArchiveMinutes = 10080
