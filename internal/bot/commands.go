package bot

import (
	"cmp"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/robalyx/slashcore/internal/command"
	"github.com/robalyx/slashcore/internal/interaction"
	"github.com/robalyx/slashcore/internal/registry"
	"github.com/robalyx/slashcore/internal/router"
	"go.uber.org/zap"
)

const (
	StatusCommandName  = "status"
	CommandCommandName = "command"
	RefreshCustomID    = "status:refresh"
	DefaultEmbedColor  = 0x312D2B
	usageWindow        = 24 * time.Hour
	maxUsageRows       = 5
	maxAutocomplete    = 25
)

var manageGuild = int64(1 << 5)

// registerBuiltins mounts the operational commands every deployment carries.
func (b *Bot) registerBuiltins() error {
	status := command.MustBuild(command.Definition{
		Name:        StatusCommandName,
		Description: "Show bot uptime, registered commands and recent usage",
	})

	info := command.MustBuild(command.Definition{
		Name:        CommandCommandName,
		Description: "Inspect a registered command",
		Options: []command.Option{
			command.String("name", "Command name").Require().WithAutocomplete(),
		},
		Access: command.Access{DefaultMemberPermissions: &manageGuild},
	})

	if err := b.router.Mount(
		router.Route{Descriptor: status, GuildID: b.devGuild, Handler: b.handleStatus},
		router.Route{
			Descriptor:   info,
			GuildID:      b.devGuild,
			Handler:      b.handleCommandInfo,
			Autocomplete: b.completeCommandName,
		},
	); err != nil {
		return err
	}

	return b.router.HandleComponent("status", b.handleStatusRefresh)
}

func (b *Bot) handleStatus(ctx *interaction.Context) error {
	// Usage comes from the database and may take longer than the initial window.
	if err := ctx.Defer(true); err != nil {
		return err
	}

	_, err := ctx.Respond(interaction.MessageCreate{
		Embeds:     []interaction.Embed{b.statusEmbed(ctx)},
		Components: []interaction.Component{refreshRow()},
	})
	return err
}

func (b *Bot) handleStatusRefresh(ctx *interaction.Context) error {
	if err := ctx.DeferUpdate(); err != nil {
		return err
	}

	// Respond after DeferUpdate edits the message carrying the button.
	_, err := ctx.Respond(interaction.MessageCreate{
		Embeds:     []interaction.Embed{b.statusEmbed(ctx)},
		Components: []interaction.Component{refreshRow()},
	})
	return err
}

func refreshRow() interaction.Component {
	return interaction.ActionRow(interaction.Button(interaction.ButtonStyleSecondary, "Refresh", RefreshCustomID))
}

// statusEmbed renders the status view. Database failures degrade to missing fields.
func (b *Bot) statusEmbed(ctx *interaction.Context) interaction.Embed {
	now := time.Now()
	registered := b.engine.Cache().All()

	embed := interaction.Embed{
		Title:     "Status",
		Color:     DefaultEmbedColor,
		Timestamp: &now,
		Fields: []interaction.EmbedField{
			{Name: "Uptime", Value: FormatDuration(now.Sub(b.startedAt)), Inline: true},
			{Name: "Registered Commands", Value: FormatNumber(uint64(len(registered))), Inline: true},
			{Name: "Scopes", Value: formatScopes(registered), Inline: true},
		},
	}

	if b.db == nil {
		embed.Footer = &interaction.EmbedFooter{Text: "Invocation log disabled"}
		return embed
	}

	if run, err := b.db.Model().SyncRun().GetLatest(ctx.Context()); err != nil {
		ctx.Logger().Warn("Failed to load last sync run", zap.Error(err))
	} else if run != nil {
		value := fmt.Sprintf("%d/%d synced, %d pruned, %s ago",
			run.Synced, run.Declared, run.Pruned, FormatDuration(now.Sub(run.StartedAt)))
		if run.Failed() {
			value += fmt.Sprintf("\n%d failed", len(run.Failures))
		}
		embed.Fields = append(embed.Fields, interaction.EmbedField{Name: "Last Sync", Value: value})
	}

	usage, err := b.db.Model().Invocation().GetUsage(ctx.Context(), now.Add(-usageWindow))
	if err != nil {
		ctx.Logger().Warn("Failed to load command usage", zap.Error(err))
		return embed
	}

	lines := make([]string, 0, maxUsageRows)
	for _, u := range usage[:min(len(usage), maxUsageRows)] {
		lines = append(lines, fmt.Sprintf("`/%s` %s uses, %s failed",
			u.CommandName, FormatNumber(uint64(u.Total)), FormatNumber(uint64(u.Failed)))) //nolint:gosec // counts are never negative
	}
	if len(lines) == 0 {
		lines = append(lines, "No usage recorded")
	}
	embed.Fields = append(embed.Fields, interaction.EmbedField{Name: "Usage (24h)", Value: strings.Join(lines, "\n")})

	return embed
}

func (b *Bot) handleCommandInfo(ctx *interaction.Context) error {
	name, _ := ctx.Options().String("name")

	matches := b.findRegistered(name)
	if len(matches) == 0 {
		_, err := ctx.Respond(interaction.MessageCreate{
			Content:   fmt.Sprintf("No registered command named `%s`.", TruncateString(name, 32)),
			Ephemeral: true,
		})
		return err
	}

	embeds := make([]interaction.Embed, 0, len(matches))
	for _, r := range matches[:min(len(matches), 10)] {
		embeds = append(embeds, commandEmbed(r))
	}

	_, err := ctx.Respond(interaction.MessageCreate{Embeds: embeds, Ephemeral: true})
	return err
}

func (b *Bot) completeCommandName(ctx *interaction.Context) error {
	_, partial, _ := ctx.Options().Focused()
	partial = strings.ToLower(partial)

	seen := make(map[string]struct{})
	choices := make([]command.Choice, 0, maxAutocomplete)
	for _, r := range b.engine.Cache().All() {
		if _, ok := seen[r.Name]; ok || !strings.Contains(strings.ToLower(r.Name), partial) {
			continue
		}
		seen[r.Name] = struct{}{}
		choices = append(choices, command.Choice{Name: r.Name, Value: r.Name})
		if len(choices) == maxAutocomplete {
			break
		}
	}

	return ctx.Autocomplete(choices)
}

// findRegistered returns every registered command with the name, across scopes and types.
func (b *Bot) findRegistered(name string) []registry.RegisteredCommand {
	var matches []registry.RegisteredCommand
	for _, r := range b.engine.Cache().All() {
		if strings.EqualFold(r.Name, name) {
			matches = append(matches, r)
		}
	}
	return matches
}

func commandEmbed(r registry.RegisteredCommand) interaction.Embed {
	scope := "Global"
	if r.GuildID != 0 {
		scope = "Guild " + r.GuildID.String()
	}

	fields := []interaction.EmbedField{
		{Name: "ID", Value: r.ID.String(), Inline: true},
		{Name: "Scope", Value: scope, Inline: true},
		{Name: "Version", Value: r.Version.String(), Inline: true},
		{Name: "Hash", Value: "`" + TruncateString(r.Hash, 16) + "`", Inline: true},
		{Name: "Synced", Value: FormatDuration(time.Since(r.SyncedAt)) + " ago", Inline: true},
		{Name: "Overwrites", Value: FormatNumber(uint64(len(r.Permissions))), Inline: true},
	}

	if r.Descriptor != nil && len(r.Descriptor.Options()) > 0 {
		names := make([]string, 0, len(r.Descriptor.Options()))
		for _, o := range r.Descriptor.Options() {
			names = append(names, o.Name)
		}
		fields = append(fields, interaction.EmbedField{Name: "Options", Value: strings.Join(names, ", ")})
	}

	description := ""
	if r.Descriptor != nil {
		description = r.Descriptor.Description()
	}

	return interaction.Embed{
		Title:       r.Name,
		Description: description,
		Color:       DefaultEmbedColor,
		Fields:      fields,
	}
}

// formatScopes counts commands per scope, global first.
func formatScopes(registered []registry.RegisteredCommand) string {
	counts := make(map[uint64]int)
	for _, r := range registered {
		counts[uint64(r.GuildID)]++
	}
	if len(counts) == 0 {
		return "None"
	}

	guilds := make([]uint64, 0, len(counts))
	for g := range counts {
		guilds = append(guilds, g)
	}
	slices.SortFunc(guilds, cmp.Compare[uint64])

	parts := make([]string, 0, len(guilds))
	for _, g := range guilds {
		label := "global"
		if g != 0 {
			label = fmt.Sprintf("guild %d", g)
		}
		parts = append(parts, fmt.Sprintf("%s: %d", label, counts[g]))
	}
	return strings.Join(parts, "\n")
}
