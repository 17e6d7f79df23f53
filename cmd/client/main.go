package main

import (
	"chat-relay/client"
	"chat-relay/projection"
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gookit/color"
	"github.com/kelseyhightower/envconfig"
	"github.com/olekukonko/tablewriter"
)

// Exit codes for the client application.
const (
	exitOK      = 0
	exitRuntime = 1
	exitConfig  = 2
)

// Config defines the client-side environment variables.
type Config struct {
	ServerURL string        `envconfig:"CHAT_SERVER_URL" default:"http://localhost:8080"`
	Username  string        `envconfig:"CHAT_USERNAME" required:"true"`
	Password  string        `envconfig:"CHAT_PASSWORD" required:"true"`
	Timeout   time.Duration `envconfig:"CHAT_TIMEOUT" default:"10s"`
	// CHAT_COLOURS enables colorized output
	Colours bool `envconfig:"CHAT_COLOURS" default:"true"`
}

const usage = `usage: client [-register] [-limit n] <command>

flags:
  -register                 create the account before logging in
  -limit n                  messages shown by history and the tail backlog

commands:
  tail                      print live events until Ctrl+C (default)
  history                   print the latest direct messages
  send <user> <text...>     send a direct message
  group <group_id> <text>   send a group message
  groups                    list my groups`

func main() {
	code, err := run(os.Args[1:])
	if err != nil {
		fmt.Fprintf(os.Stderr, "Client error: %v\n", err)
	}
	os.Exit(code)
}

func run(args []string) (int, error) {
	var config Config
	if err := envconfig.Process("", &config); err != nil {
		return exitConfig, fmt.Errorf("config error: %w", err)
	}
	color.Enable = config.Colours

	flags := flag.NewFlagSet("client", flag.ContinueOnError)
	register := flags.Bool("register", false, "register the account before logging in")
	limit := flags.Int("limit", 20, "number of messages printed by history")
	flags.Usage = func() { fmt.Fprintln(os.Stderr, usage) }
	if err := flags.Parse(args); err != nil {
		return exitConfig, err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	c := client.New(config.ServerURL, config.Timeout)
	if *register {
		if err := c.Register(ctx, config.Username, config.Password); err != nil {
			return exitRuntime, fmt.Errorf("register: %w", err)
		}
		color.Green.Printf("Registered %s\n", config.Username)
	}
	if err := c.Login(ctx, config.Username, config.Password); err != nil {
		return exitRuntime, fmt.Errorf("login: %w", err)
	}

	command := flags.Args()
	if len(command) == 0 {
		command = []string{"tail"}
	}

	var err error
	switch command[0] {
	case "tail":
		err = tail(ctx, c, config, *limit)
	case "history":
		err = history(ctx, c, *limit)
	case "send":
		if len(command) < 3 {
			return exitConfig, errors.New(usage)
		}
		_, err = c.SendDirect(ctx, command[1], strings.Join(command[2:], " "))
	case "group":
		if len(command) < 3 {
			return exitConfig, errors.New(usage)
		}
		_, err = c.SendGroup(ctx, command[1], strings.Join(command[2:], " "))
	case "groups":
		err = groups(ctx, c)
	default:
		return exitConfig, errors.New(usage)
	}
	if err != nil {
		return exitRuntime, err
	}
	return exitOK, nil
}

// tail prints the latest history then live events, each message once.
func tail(ctx context.Context, c *client.Client, config Config, limit int) error {
	timeline := projection.NewTimeline()
	page, err := c.History(ctx, "", limit)
	if err != nil {
		return err
	}
	for _, m := range timeline.Load(page) {
		printMessage(m)
	}

	color.New(color.BgBlack, color.FgGreen).Printf(">>> Connected to %s as %s (Ctrl+C to quit)\n", config.ServerURL, config.Username)
	return c.Listen(ctx, func(evt client.Event) {
		if m, isNew := timeline.Consume(evt); isNew {
			printMessage(m)
		}
	})
}

func printMessage(m client.Message) {
	at := m.CreatedAt.Local().Format(time.TimeOnly)
	if m.GroupID != "" {
		fmt.Printf("[%s] %s %s: %s\n", at, color.Magenta.Sprintf("#%s", shortID(m.GroupID)),
			color.Cyan.Sprint(m.Sender), m.Content)
		return
	}
	fmt.Printf("[%s] %s: %s\n", at, color.Cyan.Sprint(m.Sender), m.Content)
}

func history(ctx context.Context, c *client.Client, limit int) error {
	page, err := c.History(ctx, "", limit)
	if err != nil {
		return err
	}
	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"Time", "From", "To", "Content"})
	table.SetAutoWrapText(false)
	table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetBorder(false)
	for i := len(page.Messages) - 1; i >= 0; i-- {
		m := page.Messages[i]
		table.Append([]string{m.CreatedAt.Local().Format(time.DateTime), m.Sender, m.Receiver, m.Content})
	}
	table.Render()
	return nil
}

func groups(ctx context.Context, c *client.Client) error {
	list, err := c.Groups(ctx)
	if err != nil {
		return err
	}
	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"ID", "Name", "Members"})
	table.SetBorder(false)
	for _, g := range list {
		table.Append([]string{g.ID, g.Name, strings.Join(g.Members, ", ")})
	}
	table.Render()
	return nil
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
