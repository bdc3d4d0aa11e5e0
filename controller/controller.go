// Package controller implements the controller side of GTP: a channel
// over an engine's streams, and a Controller that sends commands on it
// and classifies everything that can go wrong.
//
// Errors returned here are from gtpkit/internal/errors:
//
//   - *ValidationError: the command couldn't be sent as given; nothing
//     was written.
//   - *ChannelError: the transport failed or the engine isn't speaking
//     GTP. The controller marks its channel bad and refuses further
//     commands.
//   - *BadResponseError: the engine answered with a failure response.
//     The channel is still good.
package controller

import (
	"fmt"
	"strings"

	gtperr "gtpkit/internal/errors"
	"gtpkit/internal/metrics"
	"gtpkit/util"
)

// Controller runs GTP commands on a Channel.
//
// A Controller is not safe for concurrent use.
type Controller struct {
	// Metrics, if set, counts commands, failure responses and channel
	// errors.
	Metrics *metrics.Collector

	channel Channel
	name    string
	logger  *util.Logger

	channelIsBad bool
	commandsSent int
	known        map[string]bool
	closed       bool
}

// New returns a controller for the engine on channel. name is used in
// error messages and logs (eg "player black"). A nil logger logs
// nothing but errors.
func New(channel Channel, name string, logger *util.Logger) *Controller {
	if logger == nil {
		logger = util.NewLogger(0)
	}
	return &Controller{
		channel: channel,
		name:    name,
		logger:  logger,
		known:   make(map[string]bool),
	}
}

// Name returns the engine name given to New.
func (c *Controller) Name() string { return c.name }

// Channel returns the underlying channel.
func (c *Controller) Channel() Channel { return c.channel }

// ChannelIsBad reports whether a channel error has been seen. Once it
// is set it stays set.
func (c *Controller) ChannelIsBad() bool { return c.channelIsBad }

// DoCommand sends a command and returns the body of its success
// response.
func (c *Controller) DoCommand(command string, args ...string) (string, error) {
	first := c.commandsSent == 0
	desc := gtperr.DescribeCommand(command, first)

	if c.channelIsBad {
		return "", fmt.Errorf("error sending %s to %s: %w", desc, c.name, gtperr.ErrChannelBad)
	}

	line := gtperr.FormatCommandLine(command, args)
	c.logger.Debug("%s <- %s", c.name, line)
	if err := c.channel.SendCommand(command, args); err != nil {
		return "", c.channelFailure(err, fmt.Sprintf("error sending %s to %s", desc, c.name), command, args)
	}
	c.commandsSent++
	c.Metrics.CommandSent(command, int64(len(line)+1))

	isFailure, body, err := c.channel.GetResponse()
	if err != nil {
		return "", c.channelFailure(err, fmt.Sprintf("error reading response to %s from %s", desc, c.name), command, args)
	}
	c.Metrics.ResponseReceived(int64(len(body)), isFailure)
	if isFailure {
		c.logger.Debug("%s -> ? %s", c.name, body)
		return "", &gtperr.BadResponseError{
			Command:      command,
			Args:         args,
			Engine:       c.name,
			Message:      body,
			FirstCommand: first,
		}
	}
	c.logger.Debug("%s -> = %s", c.name, body)
	return body, nil
}

// channelFailure adds controller context to a ChannelError and marks
// the channel bad. Other errors are returned unchanged.
func (c *Controller) channelFailure(err error, context, command string, args []string) error {
	var ce *gtperr.ChannelError
	if !gtperr.As(err, &ce) {
		return err
	}
	ce.Context = context
	ce.Command = command
	ce.Args = args
	c.channelIsBad = true
	c.Metrics.RecordChannelError(ce.Error())
	c.logger.Warn("%s", strings.ReplaceAll(ce.Error(), "\n", " "))
	return ce
}

// KnownCommand reports whether the engine says it supports command.
// Answers are cached for the life of the controller.
func (c *Controller) KnownCommand(command string) (bool, error) {
	if known, ok := c.known[command]; ok {
		return known, nil
	}
	response, err := c.DoCommand("known_command", command)
	if err != nil {
		return false, err
	}
	known := strings.TrimSpace(response) == "true"
	c.known[command] = known
	return known, nil
}

// ListCommands returns the commands the engine reports in
// list_commands, in the order given.
func (c *Controller) ListCommands() ([]string, error) {
	response, err := c.DoCommand("list_commands")
	if err != nil {
		return nil, err
	}
	var commands []string
	for _, line := range strings.Split(response, "\n") {
		if s := strings.TrimSpace(line); s != "" {
			commands = append(commands, s)
		}
	}
	return commands, nil
}

// CheckProtocolVersion checks that the engine speaks GTP version 2. An
// engine that fails protocol_version is given the benefit of the doubt.
func (c *Controller) CheckProtocolVersion() error {
	response, err := c.DoCommand("protocol_version")
	if err != nil {
		var bad *gtperr.BadResponseError
		if gtperr.As(err, &bad) {
			return nil
		}
		return err
	}
	if v := strings.TrimSpace(response); v != "2" {
		return fmt.Errorf("%s reports GTP protocol version %s: %w", c.name, v, gtperr.ErrProtocolVersion)
	}
	return nil
}

// Close sends quit (unless the channel is bad) and closes the channel.
// A failure response to quit is ignored. Calling Close again does
// nothing.
func (c *Controller) Close() error {
	if c.closed {
		return nil
	}
	c.closed = true

	var errs []error
	if !c.channelIsBad {
		if _, err := c.DoCommand("quit"); err != nil && gtperr.IsChannelError(err) {
			errs = append(errs, err)
		}
	}
	if err := c.channel.Close(); err != nil {
		var ce *gtperr.ChannelError
		if gtperr.As(err, &ce) && ce.Context == "" {
			ce.Context = "error closing channel to " + c.name
		}
		errs = append(errs, err)
	}
	return gtperr.Join(errs...)
}
