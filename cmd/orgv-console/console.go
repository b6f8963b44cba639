package main

import (
	"bufio"
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/urfave/cli/v3"

	orgv "github.com/VimalKMGithub/orgvclient"
)

// buildClient assembles a ready client from environment configuration
// layered under the global flags, bootstraps the anti-forgery token, and
// probes the session. The caller owns Close.
func buildClient(ctx context.Context, cmd *cli.Command) (*orgv.Client, error) {
	cfg, err := orgv.ConfigFromEnv(ctx)
	if err != nil {
		return nil, err
	}
	if v := cmd.String("base-url"); v != "" {
		cfg.HTTP.BaseURL = v
	}
	if v := cmd.String("state-dir"); v != "" {
		cfg.Device.StateDir = v
	}

	client, err := orgv.New().
		WithConfig(cfg).
		WithNotifier(consoleNotifier()).
		WithLogger(slog.Default()).
		Build(ctx)
	if err != nil {
		return nil, err
	}
	if err := client.Session().Bootstrap(ctx); err != nil {
		client.Close()
		return nil, err
	}
	return client, nil
}

// consoleNotifier renders notices as prefixed lines, the console's stand-in
// for toasts.
func consoleNotifier() orgv.Notifier {
	return orgv.NotifierFunc(func(level orgv.NoticeLevel, _, message string) {
		switch level {
		case orgv.NoticeError:
			fmt.Fprintf(os.Stderr, "error: %s\n", message)
		case orgv.NoticeWarning:
			fmt.Fprintf(os.Stderr, "warning: %s\n", message)
		default:
			fmt.Println(message)
		}
	})
}

var stdin = bufio.NewReader(os.Stdin)

func prompt(label string) (string, error) {
	fmt.Printf("%s: ", label)
	line, err := stdin.ReadString('\n')
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(line), nil
}

// promptChoice asks the user to pick one of the offered options; a single
// option is chosen automatically.
func promptChoice(label string, options []string) (string, error) {
	if len(options) == 1 {
		fmt.Printf("%s: %s\n", label, options[0])
		return options[0], nil
	}
	for i, option := range options {
		fmt.Printf("  [%d] %s\n", i+1, option)
	}
	for {
		answer, err := prompt(label)
		if err != nil {
			return "", err
		}
		for i, option := range options {
			if answer == option || answer == fmt.Sprint(i+1) {
				return option, nil
			}
		}
		fmt.Println("pick one of the listed options")
	}
}

// fieldErrors prints any field-level validation errors a flow recorded.
func fieldErrors(state orgv.FlowState) {
	for field, message := range state.Errors {
		fmt.Fprintf(os.Stderr, "  %s: %s\n", field, message)
	}
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
