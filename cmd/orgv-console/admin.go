package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/urfave/cli/v3"

	orgv "github.com/VimalKMGithub/orgvclient"
)

func adminCommand() *cli.Command {
	return &cli.Command{
		Name:  "admin",
		Usage: "bulk user, role and permission administration",
		Commands: []*cli.Command{
			adminUsersCommand(),
			adminRolesCommand(),
			adminPermissionsCommand(),
		},
	}
}

// lenientFlag toggles partial success on bulk endpoints; by default a single
// bad entry fails the whole batch.
func lenientFlag() cli.Flag {
	return &cli.BoolFlag{Name: "lenient", Usage: "allow partial success, reporting per-entry reasons"}
}

func adminUsersCommand() *cli.Command {
	return &cli.Command{
		Name:  "users",
		Usage: "manage company users",
		Commands: []*cli.Command{
			{
				Name:  "create",
				Usage: "create users from a JSON array file",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "file", Required: true, Usage: "JSON array of user definitions"},
					lenientFlag(),
				},
				Action: func(ctx context.Context, cmd *cli.Command) error {
					var users []orgv.CreateUserRequest
					if err := readJSONFile(cmd.String("file"), &users); err != nil {
						return err
					}
					client, err := buildClient(ctx, cmd)
					if err != nil {
						return err
					}
					defer client.Close()
					resp, err := client.CreateUsers(ctx, users, cmd.Bool("lenient"))
					if err != nil {
						return err
					}
					return printJSON(resp)
				},
			},
			{
				Name:      "read",
				Usage:     "look up users by username, email or id",
				ArgsUsage: "<identifier>...",
				Flags:     []cli.Flag{lenientFlag()},
				Action: func(ctx context.Context, cmd *cli.Command) error {
					if cmd.Args().Len() == 0 {
						return errors.New("expected at least one identifier")
					}
					client, err := buildClient(ctx, cmd)
					if err != nil {
						return err
					}
					defer client.Close()
					resp, err := client.ReadUsers(ctx, cmd.Args().Slice(), cmd.Bool("lenient"))
					if err != nil {
						return err
					}
					return printJSON(resp)
				},
			},
			{
				Name:  "update",
				Usage: "update users from a JSON array file",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "file", Required: true, Usage: "JSON array of user updates"},
					lenientFlag(),
				},
				Action: func(ctx context.Context, cmd *cli.Command) error {
					var users []orgv.UpdateUserRequest
					if err := readJSONFile(cmd.String("file"), &users); err != nil {
						return err
					}
					client, err := buildClient(ctx, cmd)
					if err != nil {
						return err
					}
					defer client.Close()
					resp, err := client.UpdateUsers(ctx, users, cmd.Bool("lenient"))
					if err != nil {
						return err
					}
					return printJSON(resp)
				},
			},
			{
				Name:      "delete",
				Usage:     "delete users by username, email or id",
				ArgsUsage: "<identifier>...",
				Flags: []cli.Flag{
					&cli.BoolFlag{Name: "hard", Usage: "remove the record instead of soft-deleting"},
					lenientFlag(),
				},
				Action: func(ctx context.Context, cmd *cli.Command) error {
					if cmd.Args().Len() == 0 {
						return errors.New("expected at least one identifier")
					}
					client, err := buildClient(ctx, cmd)
					if err != nil {
						return err
					}
					defer client.Close()
					resp, err := client.DeleteUsers(ctx, cmd.Args().Slice(), cmd.Bool("hard"), cmd.Bool("lenient"))
					if err != nil {
						return err
					}
					return printJSON(resp)
				},
			},
		},
	}
}

func adminRolesCommand() *cli.Command {
	return &cli.Command{
		Name:  "roles",
		Usage: "manage roles",
		Commands: []*cli.Command{
			{
				Name:  "create",
				Usage: "create roles from a JSON array file",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "file", Required: true, Usage: "JSON array of role definitions"},
					lenientFlag(),
				},
				Action: func(ctx context.Context, cmd *cli.Command) error {
					var roles []orgv.RoleRequest
					if err := readJSONFile(cmd.String("file"), &roles); err != nil {
						return err
					}
					client, err := buildClient(ctx, cmd)
					if err != nil {
						return err
					}
					defer client.Close()
					resp, err := client.CreateRoles(ctx, roles, cmd.Bool("lenient"))
					if err != nil {
						return err
					}
					return printJSON(resp)
				},
			},
			{
				Name:      "read",
				Usage:     "look up roles by name",
				ArgsUsage: "<role-name>...",
				Flags:     []cli.Flag{lenientFlag()},
				Action: func(ctx context.Context, cmd *cli.Command) error {
					if cmd.Args().Len() == 0 {
						return errors.New("expected at least one role name")
					}
					client, err := buildClient(ctx, cmd)
					if err != nil {
						return err
					}
					defer client.Close()
					resp, err := client.ReadRoles(ctx, cmd.Args().Slice(), cmd.Bool("lenient"))
					if err != nil {
						return err
					}
					return printJSON(resp)
				},
			},
			{
				Name:  "update",
				Usage: "update roles from a JSON array file",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "file", Required: true, Usage: "JSON array of role updates"},
					lenientFlag(),
				},
				Action: func(ctx context.Context, cmd *cli.Command) error {
					var roles []orgv.RoleRequest
					if err := readJSONFile(cmd.String("file"), &roles); err != nil {
						return err
					}
					client, err := buildClient(ctx, cmd)
					if err != nil {
						return err
					}
					defer client.Close()
					resp, err := client.UpdateRoles(ctx, roles, cmd.Bool("lenient"))
					if err != nil {
						return err
					}
					return printJSON(resp)
				},
			},
			{
				Name:      "delete",
				Usage:     "delete roles by name",
				ArgsUsage: "<role-name>...",
				Flags: []cli.Flag{
					&cli.BoolFlag{Name: "force", Usage: "delete even when the role is assigned to users"},
					lenientFlag(),
				},
				Action: func(ctx context.Context, cmd *cli.Command) error {
					if cmd.Args().Len() == 0 {
						return errors.New("expected at least one role name")
					}
					client, err := buildClient(ctx, cmd)
					if err != nil {
						return err
					}
					defer client.Close()
					resp, err := client.DeleteRoles(ctx, cmd.Args().Slice(), cmd.Bool("force"), cmd.Bool("lenient"))
					if err != nil {
						return err
					}
					return printJSON(resp)
				},
			},
		},
	}
}

func adminPermissionsCommand() *cli.Command {
	return &cli.Command{
		Name:      "permissions",
		Usage:     "look up permissions by name",
		ArgsUsage: "<permission-name>...",
		Flags:     []cli.Flag{lenientFlag()},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			if cmd.Args().Len() == 0 {
				return errors.New("expected at least one permission name")
			}
			client, err := buildClient(ctx, cmd)
			if err != nil {
				return err
			}
			defer client.Close()
			resp, err := client.ReadPermissions(ctx, cmd.Args().Slice(), cmd.Bool("lenient"))
			if err != nil {
				return err
			}
			return printJSON(resp)
		},
	}
}

func readJSONFile(path string, out any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("parse %s: %w", path, err)
	}
	return nil
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
