package types

import "time"

// Invocation is one handled interaction.
type Invocation struct {
	ID            int64     `bun:",pk,autoincrement"       json:"id"`
	InteractionID int64     `bun:",notnull,unique"         json:"interactionId"`
	Type          int       `bun:",notnull"                json:"type"`
	CommandID     int64     `bun:",notnull,default:0"      json:"commandId"`
	CommandType   int       `bun:",notnull,default:0"      json:"commandType"`
	CommandName   string    `bun:",notnull,default:''"     json:"commandName"`
	CustomID      string    `bun:",notnull,default:''"     json:"customId"`
	GuildID       int64     `bun:",notnull,default:0"      json:"guildId"`
	ChannelID     int64     `bun:",notnull,default:0"      json:"channelId"`
	UserID        int64     `bun:",notnull"                json:"userId"`
	State         string    `bun:",notnull"                json:"state"`
	Error         string    `bun:",notnull,default:''"     json:"error"`
	ReceivedAt    time.Time `bun:",notnull"                json:"receivedAt"`
	DurationMS    int64     `bun:"duration_ms,notnull"     json:"durationMs"`
}

// CommandUsage is the aggregated usage of one command name.
type CommandUsage struct {
	CommandName string    `bun:"command_name" json:"commandName"`
	Total       int64     `bun:"total"        json:"total"`
	Failed      int64     `bun:"failed"       json:"failed"`
	LastUsed    time.Time `bun:"last_used"    json:"lastUsed"`
}
