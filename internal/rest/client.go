// Package rest is the outbound transport for command registration and interaction
// responses. Requests go through the disgo REST client, which owns rate limiting.
package rest

import (
	"context"
	"net/http"
	"time"

	"github.com/disgoorg/disgo/discord"
	disgorest "github.com/disgoorg/disgo/rest"
	"github.com/disgoorg/snowflake/v2"
	"github.com/robalyx/slashcore/internal/command"
	"go.uber.org/zap"
)

var (
	getGlobalCommands = disgorest.NewEndpoint(http.MethodGet, "/applications/{application.id}/commands")
	getGlobalCommand  = disgorest.NewEndpoint(http.MethodGet, "/applications/{application.id}/commands/{command.id}")
	createGlobal      = disgorest.NewEndpoint(http.MethodPost, "/applications/{application.id}/commands")
	updateGlobal      = disgorest.NewEndpoint(http.MethodPatch, "/applications/{application.id}/commands/{command.id}")
	deleteGlobal      = disgorest.NewEndpoint(http.MethodDelete, "/applications/{application.id}/commands/{command.id}")

	getGuildCommands = disgorest.NewEndpoint(http.MethodGet, "/applications/{application.id}/guilds/{guild.id}/commands")
	getGuildCommand  = disgorest.NewEndpoint(http.MethodGet, "/applications/{application.id}/guilds/{guild.id}/commands/{command.id}")
	createGuild      = disgorest.NewEndpoint(http.MethodPost, "/applications/{application.id}/guilds/{guild.id}/commands")
	updateGuild      = disgorest.NewEndpoint(http.MethodPatch, "/applications/{application.id}/guilds/{guild.id}/commands/{command.id}")
	deleteGuild      = disgorest.NewEndpoint(http.MethodDelete, "/applications/{application.id}/guilds/{guild.id}/commands/{command.id}")

	getPermissions = disgorest.NewEndpoint(http.MethodGet, "/applications/{application.id}/guilds/{guild.id}/commands/{command.id}/permissions")
	setPermissions = disgorest.NewEndpoint(http.MethodPut, "/applications/{application.id}/guilds/{guild.id}/commands/{command.id}/permissions")

	createCallback = disgorest.NewNoBotAuthEndpoint(http.MethodPost, "/interactions/{interaction.id}/{interaction.token}/callback")
	getOriginal    = disgorest.NewNoBotAuthEndpoint(http.MethodGet, "/webhooks/{application.id}/{interaction.token}/messages/@original")
	editOriginal   = disgorest.NewNoBotAuthEndpoint(http.MethodPatch, "/webhooks/{application.id}/{interaction.token}/messages/@original")
	deleteOriginal = disgorest.NewNoBotAuthEndpoint(http.MethodDelete, "/webhooks/{application.id}/{interaction.token}/messages/@original")
	createFollowup = disgorest.NewNoBotAuthEndpoint(http.MethodPost, "/webhooks/{application.id}/{interaction.token}")
	editFollowup   = disgorest.NewNoBotAuthEndpoint(http.MethodPatch, "/webhooks/{application.id}/{interaction.token}/messages/{message.id}")
	deleteFollowup = disgorest.NewNoBotAuthEndpoint(http.MethodDelete, "/webhooks/{application.id}/{interaction.token}/messages/{message.id}")
)

// Client performs the outbound calls of one application.
type Client struct {
	rest          disgorest.Client
	applicationID snowflake.ID
	logger        *zap.Logger
}

// New creates a Client backed by a new disgo REST client authenticated with token.
func New(token string, applicationID snowflake.ID, logger *zap.Logger, opts ...disgorest.ConfigOpt) *Client {
	return NewWithClient(disgorest.NewClient(token, opts...), applicationID, logger)
}

// NewWithClient wraps an existing disgo REST client, e.g. the one owned by a gateway bot.
func NewWithClient(client disgorest.Client, applicationID snowflake.ID, logger *zap.Logger) *Client {
	return &Client{
		rest:          client,
		applicationID: applicationID,
		logger:        logger.Named("rest"),
	}
}

// ApplicationID returns the application the client acts for.
func (c *Client) ApplicationID() snowflake.ID {
	return c.applicationID
}

// Close releases idle connections of the underlying client.
func (c *Client) Close(ctx context.Context) {
	c.rest.Close(ctx)
}

// do runs one request and converts failures into RemoteRequestError.
func (c *Client) do(
	ctx context.Context, op string, endpoint *disgorest.CompiledEndpoint, rqBody, rsBody any,
) error {
	start := time.Now()
	err := c.rest.Do(endpoint, rqBody, rsBody, disgorest.WithCtx(ctx))

	c.logger.Debug("Remote request",
		zap.String("op", op),
		zap.String("method", endpoint.Endpoint.Method),
		zap.Duration("duration", time.Since(start)),
		zap.Bool("ok", err == nil))

	return wrapError(op, err)
}

// withFiles turns a body into a multipart body when files are attached.
func withFiles(body any, files []File) (any, error) {
	if len(files) == 0 {
		return body, nil
	}

	discordFiles := make([]*discord.File, len(files))
	for i, f := range files {
		discordFiles[i] = &discord.File{Name: f.Name, Description: f.Description, Reader: f.Reader}
	}
	return discord.PayloadWithFiles(body, discordFiles...)
}

// ListCommands returns the commands registered in a scope. A zero guildID lists global commands.
func (c *Client) ListCommands(ctx context.Context, guildID snowflake.ID) ([]Command, error) {
	var endpoint *disgorest.CompiledEndpoint
	if guildID == 0 {
		endpoint = getGlobalCommands.Compile(nil, c.applicationID)
	} else {
		endpoint = getGuildCommands.Compile(nil, c.applicationID, guildID)
	}

	var commands []Command
	if err := c.do(ctx, "list commands", endpoint, nil, &commands); err != nil {
		return nil, err
	}
	return commands, nil
}

// GetCommand fetches one command by ID.
func (c *Client) GetCommand(ctx context.Context, guildID, commandID snowflake.ID) (*Command, error) {
	var endpoint *disgorest.CompiledEndpoint
	if guildID == 0 {
		endpoint = getGlobalCommand.Compile(nil, c.applicationID, commandID)
	} else {
		endpoint = getGuildCommand.Compile(nil, c.applicationID, guildID, commandID)
	}

	var cmd Command
	if err := c.do(ctx, "get command", endpoint, nil, &cmd); err != nil {
		return nil, err
	}
	return &cmd, nil
}

// CreateCommand registers a command. Creating a command whose (type, name) already exists
// in the scope overwrites it remotely.
func (c *Client) CreateCommand(ctx context.Context, guildID snowflake.ID, payload command.Payload) (*Command, error) {
	var endpoint *disgorest.CompiledEndpoint
	if guildID == 0 {
		endpoint = createGlobal.Compile(nil, c.applicationID)
	} else {
		endpoint = createGuild.Compile(nil, c.applicationID, guildID)
	}

	var cmd Command
	if err := c.do(ctx, "create command", endpoint, payload, &cmd); err != nil {
		return nil, err
	}
	return &cmd, nil
}

// UpdateCommand edits an existing command.
func (c *Client) UpdateCommand(
	ctx context.Context, guildID, commandID snowflake.ID, payload command.Payload,
) (*Command, error) {
	var endpoint *disgorest.CompiledEndpoint
	if guildID == 0 {
		endpoint = updateGlobal.Compile(nil, c.applicationID, commandID)
	} else {
		endpoint = updateGuild.Compile(nil, c.applicationID, guildID, commandID)
	}

	var cmd Command
	if err := c.do(ctx, "update command", endpoint, payload, &cmd); err != nil {
		return nil, err
	}
	return &cmd, nil
}

// DeleteCommand removes a command.
func (c *Client) DeleteCommand(ctx context.Context, guildID, commandID snowflake.ID) error {
	var endpoint *disgorest.CompiledEndpoint
	if guildID == 0 {
		endpoint = deleteGlobal.Compile(nil, c.applicationID, commandID)
	} else {
		endpoint = deleteGuild.Compile(nil, c.applicationID, guildID, commandID)
	}
	return c.do(ctx, "delete command", endpoint, nil, nil)
}

// GetPermissions returns the overwrites of a command in a guild.
func (c *Client) GetPermissions(ctx context.Context, guildID, commandID snowflake.ID) (*CommandPermissions, error) {
	var perms CommandPermissions
	endpoint := getPermissions.Compile(nil, c.applicationID, guildID, commandID)
	if err := c.do(ctx, "get permissions", endpoint, nil, &perms); err != nil {
		return nil, err
	}
	return &perms, nil
}

// SetPermissions replaces the overwrites of a command in a guild.
func (c *Client) SetPermissions(
	ctx context.Context, guildID, commandID snowflake.ID, payload command.PermissionsPayload,
) (*CommandPermissions, error) {
	var perms CommandPermissions
	endpoint := setPermissions.Compile(nil, c.applicationID, guildID, commandID)
	if err := c.do(ctx, "set permissions", endpoint, payload, &perms); err != nil {
		return nil, err
	}
	return &perms, nil
}

// CreateResponse sends the initial response to an interaction.
func (c *Client) CreateResponse(
	ctx context.Context, interactionID snowflake.ID, token string, body any, files []File,
) error {
	rqBody, err := withFiles(body, files)
	if err != nil {
		return wrapError("create response", err)
	}
	return c.do(ctx, "create response", createCallback.Compile(nil, interactionID, token), rqBody, nil)
}

// GetOriginal fetches the original response of an interaction.
func (c *Client) GetOriginal(ctx context.Context, token string) (*Message, error) {
	var msg Message
	if err := c.do(ctx, "get original", getOriginal.Compile(nil, c.applicationID, token), nil, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}

// EditOriginal edits the original response of an interaction.
func (c *Client) EditOriginal(ctx context.Context, token string, body any, files []File) (*Message, error) {
	rqBody, err := withFiles(body, files)
	if err != nil {
		return nil, wrapError("edit original", err)
	}

	var msg Message
	if err := c.do(ctx, "edit original", editOriginal.Compile(nil, c.applicationID, token), rqBody, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}

// DeleteOriginal deletes the original response of an interaction.
func (c *Client) DeleteOriginal(ctx context.Context, token string) error {
	return c.do(ctx, "delete original", deleteOriginal.Compile(nil, c.applicationID, token), nil, nil)
}

// CreateFollowup sends a followup message. The request waits for the created message.
func (c *Client) CreateFollowup(ctx context.Context, token string, body any, files []File) (*Message, error) {
	rqBody, err := withFiles(body, files)
	if err != nil {
		return nil, wrapError("create followup", err)
	}

	var msg Message
	endpoint := createFollowup.Compile(discord.QueryValues{"wait": true}, c.applicationID, token)
	if err := c.do(ctx, "create followup", endpoint, rqBody, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}

// EditFollowup edits a followup message.
func (c *Client) EditFollowup(
	ctx context.Context, token string, messageID snowflake.ID, body any, files []File,
) (*Message, error) {
	rqBody, err := withFiles(body, files)
	if err != nil {
		return nil, wrapError("edit followup", err)
	}

	var msg Message
	endpoint := editFollowup.Compile(nil, c.applicationID, token, messageID)
	if err := c.do(ctx, "edit followup", endpoint, rqBody, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}

// DeleteFollowup deletes a followup message.
func (c *Client) DeleteFollowup(ctx context.Context, token string, messageID snowflake.ID) error {
	endpoint := deleteFollowup.Compile(nil, c.applicationID, token, messageID)
	return c.do(ctx, "delete followup", endpoint, nil, nil)
}
