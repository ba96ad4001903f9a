package shell

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"datamart/internal/cli"
	"datamart/internal/marketplace"
)

// SubscribeCommand creates a subscription
type SubscribeCommand struct {
	*BaseCommand
}

// NewSubscribeCommand creates a new subscribe command
func NewSubscribeCommand(env *Env) *SubscribeCommand {
	return &SubscribeCommand{BaseCommand: NewBaseCommand(env)}
}

// Execute subscribes to a category. key=value arguments become filters,
// except notify which sets the webhook.
func (c *SubscribeCommand) Execute(ctx context.Context, args []string) error {
	params, rest := parseKeyValueArgs(args)
	if len(rest) != 1 {
		return fmt.Errorf("usage: %s", c.Usage())
	}

	req := marketplace.SubscriptionRequest{Category: rest[0], NotificationURL: params["notify"]}
	delete(params, "notify")
	if len(params) > 0 {
		req.Filters = make(map[string]any, len(params))
		for k, v := range params {
			req.Filters[k] = v
		}
	}

	s := c.env.Services
	sub, err := s.Market.Subscribe(ctx, req)
	if err != nil {
		return err
	}
	c.println(cli.FormatSuccess("Subscribed to " + sub.Category))
	return s.Formatter.Subscription(c.env.Out, sub)
}

// Usage returns the usage string
func (c *SubscribeCommand) Usage() string {
	return "subscribe <category> [key=value...] [notify=<url>]"
}

// Description returns the command description
func (c *SubscribeCommand) Description() string {
	return "Get notified about new data in a category"
}

// Completions returns the categories
func (c *SubscribeCommand) Completions(string) []string {
	return marketplace.Categories
}

// UnsubscribeCommand deletes a subscription
type UnsubscribeCommand struct {
	*BaseCommand
}

// NewUnsubscribeCommand creates a new unsubscribe command
func NewUnsubscribeCommand(env *Env) *UnsubscribeCommand {
	return &UnsubscribeCommand{BaseCommand: NewBaseCommand(env)}
}

// Execute deletes the subscription with the given id
func (c *UnsubscribeCommand) Execute(ctx context.Context, args []string) error {
	args, err := c.parseArgs(args, 1, c.Usage())
	if err != nil {
		return err
	}
	if err := c.env.Services.Market.Unsubscribe(ctx, args[0]); err != nil {
		return err
	}
	c.println(cli.FormatSuccess("Deleted subscription " + args[0]))
	return nil
}

// Usage returns the usage string
func (c *UnsubscribeCommand) Usage() string {
	return "unsubscribe <id>"
}

// Description returns the command description
func (c *UnsubscribeCommand) Description() string {
	return "Delete a subscription"
}

// SubscriptionStateCommand pauses or resumes a subscription
type SubscriptionStateCommand struct {
	*BaseCommand
	active bool
}

// NewPauseCommand creates a command that pauses subscriptions
func NewPauseCommand(env *Env) *SubscriptionStateCommand {
	return &SubscriptionStateCommand{BaseCommand: NewBaseCommand(env)}
}

// NewResumeCommand creates a command that resumes subscriptions
func NewResumeCommand(env *Env) *SubscriptionStateCommand {
	return &SubscriptionStateCommand{BaseCommand: NewBaseCommand(env), active: true}
}

// Execute sets the subscription's active flag
func (c *SubscriptionStateCommand) Execute(ctx context.Context, args []string) error {
	args, err := c.parseArgs(args, 1, c.Usage())
	if err != nil {
		return err
	}
	s := c.env.Services
	sub, err := s.Market.UpdateSubscription(ctx, args[0], marketplace.SubscriptionUpdate{IsActive: &c.active})
	if err != nil {
		return err
	}
	return s.Formatter.Subscription(c.env.Out, sub)
}

// Usage returns the usage string
func (c *SubscriptionStateCommand) Usage() string {
	if c.active {
		return "resume <id>"
	}
	return "pause <id>"
}

// Description returns the command description
func (c *SubscriptionStateCommand) Description() string {
	if c.active {
		return "Resume notifications for a subscription"
	}
	return "Pause notifications for a subscription"
}

// APIKeyCommand creates and revokes API keys
type APIKeyCommand struct {
	*BaseCommand
}

// NewAPIKeyCommand creates a new apikey command
func NewAPIKeyCommand(env *Env) *APIKeyCommand {
	return &APIKeyCommand{BaseCommand: NewBaseCommand(env)}
}

// Execute runs the create or revoke subcommand
func (c *APIKeyCommand) Execute(ctx context.Context, args []string) error {
	args, err := c.parseArgs(args, 2, c.Usage())
	if err != nil {
		return err
	}

	s := c.env.Services
	switch args[0] {
	case "create":
		key, err := s.Market.CreateAPIKey(ctx, args[1])
		if err != nil {
			return err
		}
		return s.Formatter.APIKey(c.env.Out, key)
	case "revoke":
		if err := s.Market.RevokeAPIKey(ctx, args[1]); err != nil {
			return err
		}
		c.println(cli.FormatSuccess("Revoked API key " + args[1]))
		return nil
	default:
		return fmt.Errorf("unknown subcommand: %s. Valid subcommands: create, revoke", args[0])
	}
}

// Usage returns the usage string
func (c *APIKeyCommand) Usage() string {
	return "apikey <create <name>|revoke <id>>"
}

// Description returns the command description
func (c *APIKeyCommand) Description() string {
	return "Create or revoke API keys"
}

// Completions returns the subcommands
func (c *APIKeyCommand) Completions(string) []string {
	return []string{"create", "revoke"}
}

// Aliases returns command aliases
func (c *APIKeyCommand) Aliases() []string {
	return []string{"api-key"}
}

// UploadCommand submits a data point
type UploadCommand struct {
	*BaseCommand
}

// NewUploadCommand creates a new upload command
func NewUploadCommand(env *Env) *UploadCommand {
	return &UploadCommand{BaseCommand: NewBaseCommand(env)}
}

// Execute uploads one value. quality, privacy, lat and lon are read from
// key=value arguments; any other key=value becomes metadata.
func (c *UploadCommand) Execute(ctx context.Context, args []string) error {
	params, rest := parseKeyValueArgs(args)
	if len(rest) != 2 {
		return fmt.Errorf("usage: %s", c.Usage())
	}

	sub := marketplace.DataSubmission{
		Category:     rest[0],
		Value:        marketplace.ParseValue(rest[1]),
		Quality:      params["quality"],
		PrivacyLevel: params["privacy"],
	}
	lat, hasLat := params["lat"]
	lon, hasLon := params["lon"]
	if hasLat || hasLon {
		loc, err := parseLocation(lat, lon)
		if err != nil {
			return err
		}
		sub.Location = loc
	}
	for _, k := range []string{"quality", "privacy", "lat", "lon"} {
		delete(params, k)
	}
	if len(params) > 0 {
		sub.Metadata = make(map[string]any, len(params))
		for k, v := range params {
			sub.Metadata[k] = v
		}
	}

	s := c.env.Services
	point, err := s.Market.SubmitData(ctx, sub)
	if err != nil {
		return err
	}
	c.println(cli.FormatSuccess("Uploaded data point " + point.ID))
	return s.Formatter.DataPoint(c.env.Out, point)
}

func parseLocation(lat, lon string) (*marketplace.Location, error) {
	if lat == "" || lon == "" {
		return nil, fmt.Errorf("lat and lon must be given together")
	}
	latitude, err := strconv.ParseFloat(lat, 64)
	if err != nil {
		return nil, fmt.Errorf("lat must be a number, got %q", lat)
	}
	longitude, err := strconv.ParseFloat(lon, 64)
	if err != nil {
		return nil, fmt.Errorf("lon must be a number, got %q", lon)
	}
	return &marketplace.Location{Latitude: latitude, Longitude: longitude}, nil
}

// Usage returns the usage string
func (c *UploadCommand) Usage() string {
	return "upload <category> <value> [quality=..] [privacy=..] [lat=.. lon=..] [key=value...]"
}

// Description returns the command description
func (c *UploadCommand) Description() string {
	return "Upload a data point"
}

// Completions returns the categories
func (c *UploadCommand) Completions(string) []string {
	return marketplace.Categories
}

// Aliases returns command aliases
func (c *UploadCommand) Aliases() []string {
	return []string{"submit"}
}

// ProfileCommand edits the account profile
type ProfileCommand struct {
	*BaseCommand
}

// NewProfileCommand creates a new profile command
func NewProfileCommand(env *Env) *ProfileCommand {
	return &ProfileCommand{BaseCommand: NewBaseCommand(env)}
}

// Execute applies name= and organization= arguments to the profile
func (c *ProfileCommand) Execute(ctx context.Context, args []string) error {
	params, rest := parseKeyValueArgs(args)
	if len(rest) > 0 {
		return fmt.Errorf("usage: %s", c.Usage())
	}

	var update marketplace.ProfileUpdate
	for k, v := range params {
		switch k {
		case "name":
			update.Name = &v
		case "organization", "org":
			update.Organization = &v
		default:
			return fmt.Errorf("unknown profile field: %s", k)
		}
	}

	s := c.env.Services
	p, err := s.Market.UpdateProfile(ctx, update)
	if err != nil {
		return err
	}
	c.println(cli.FormatSuccess("Profile updated"))
	return s.Formatter.Profile(c.env.Out, p)
}

// Usage returns the usage string
func (c *ProfileCommand) Usage() string {
	return "profile [name=<name>] [organization=<org>]"
}

// Description returns the command description
func (c *ProfileCommand) Description() string {
	return "Change your display name or organization"
}

// NotifyCommand switches a notification kind on or off
type NotifyCommand struct {
	*BaseCommand
}

// NewNotifyCommand creates a new notify command
func NewNotifyCommand(env *Env) *NotifyCommand {
	return &NotifyCommand{BaseCommand: NewBaseCommand(env)}
}

// Execute switches one notification kind
func (c *NotifyCommand) Execute(ctx context.Context, args []string) error {
	args, err := c.parseArgs(args, 2, c.Usage())
	if err != nil {
		return err
	}

	var on bool
	switch strings.ToLower(args[1]) {
	case "on", "true", "yes":
		on = true
	case "off", "false", "no":
	default:
		return fmt.Errorf("usage: %s", c.Usage())
	}

	var update marketplace.NotificationUpdate
	if err := update.Set(strings.ReplaceAll(args[0], "-", "_"), on); err != nil {
		return err
	}

	s := c.env.Services
	n, err := s.Market.UpdateNotifications(ctx, update)
	if err != nil {
		return err
	}
	return s.Formatter.Notifications(c.env.Out, n)
}

// Usage returns the usage string
func (c *NotifyCommand) Usage() string {
	return "notify <email|webhook|failure_alerts> <on|off>"
}

// Description returns the command description
func (c *NotifyCommand) Description() string {
	return "Switch a notification kind on or off"
}

// Completions returns the notification kinds
func (c *NotifyCommand) Completions(string) []string {
	return marketplace.NotificationKinds
}
