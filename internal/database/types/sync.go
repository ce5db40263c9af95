package types

import "time"

// SyncFailure is a declaration that failed to register during a sync run.
type SyncFailure struct {
	Name    string `json:"name"`
	Type    int    `json:"type"`
	GuildID int64  `json:"guildId"`
	Stage   string `json:"stage"`
	Error   string `json:"error"`
}

// SyncRun records the outcome of one registration pass.
type SyncRun struct {
	ID         int64         `bun:",pk,autoincrement"      json:"id"`
	StartedAt  time.Time     `bun:",notnull"               json:"startedAt"`
	DurationMS int64         `bun:"duration_ms,notnull"    json:"durationMs"`
	Declared   int           `bun:",notnull"               json:"declared"`
	Synced     int           `bun:",notnull"               json:"synced"`
	Pruned     int           `bun:",notnull,default:0"     json:"pruned"`
	Failures   []SyncFailure `bun:"type:jsonb,notnull"     json:"failures"`
}

// Failed reports whether any declaration failed.
func (r *SyncRun) Failed() bool {
	return len(r.Failures) > 0
}
