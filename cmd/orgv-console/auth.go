package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/urfave/cli/v3"

	orgv "github.com/VimalKMGithub/orgvclient"
)

func loginCommand() *cli.Command {
	return &cli.Command{
		Name:  "login",
		Usage: "establish a session, walking the MFA challenge when demanded",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "user", Usage: "username, email or account id"},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			client, err := buildClient(ctx, cmd)
			if err != nil {
				return err
			}
			defer client.Close()

			identifier := cmd.String("user")
			if identifier == "" {
				if identifier, err = prompt("user"); err != nil {
					return err
				}
			}
			password, err := prompt("password")
			if err != nil {
				return err
			}

			flow := client.NewLoginFlow()
			defer flow.Close()
			done, err := flow.SubmitCredentials(ctx, identifier, password)
			if err != nil {
				fieldErrors(flow.State())
				return err
			}
			if !done {
				if err := walkMFA(ctx, flow); err != nil {
					return err
				}
			}
			return printWhoami(client)
		},
	}
}

// walkMFA drives the method selection and code entry of a pending login
// challenge.
func walkMFA(ctx context.Context, flow *orgv.LoginFlow) error {
	method, err := promptChoice("verification method", flow.State().Methods)
	if err != nil {
		return err
	}
	if err := flow.SelectMethod(ctx, method); err != nil {
		return err
	}
	for {
		otp, err := prompt("code")
		if err != nil {
			return err
		}
		if otp == "resend" {
			if err := flow.Resend(ctx); err != nil && !errors.Is(err, orgv.ErrResendCooldown) {
				return err
			}
			continue
		}
		err = flow.VerifyOTP(ctx, otp)
		if err == nil {
			return nil
		}
		if errors.Is(err, orgv.ErrChallengeExpired) || errors.Is(err, orgv.ErrChallengeStep) {
			return err
		}
		fieldErrors(flow.State())
	}
}

func whoamiCommand() *cli.Command {
	return &cli.Command{
		Name:  "whoami",
		Usage: "show the authenticated account",
		Action: func(ctx context.Context, cmd *cli.Command) error {
			client, err := buildClient(ctx, cmd)
			if err != nil {
				return err
			}
			defer client.Close()
			return printWhoami(client)
		},
	}
}

func printWhoami(client *orgv.Client) error {
	user, ok := client.Session().Current()
	if !ok {
		return orgv.ErrNotAuthenticated
	}
	fmt.Printf("%s <%s> (id %s)\n", user.Username, user.Email, user.ID)
	for _, role := range user.Roles {
		fmt.Printf("  role: %s\n", role.RoleName)
	}
	if info, err := client.SessionInfo(); err == nil {
		fmt.Printf("  session expires in %s\n", info.Remaining().Round(time.Second))
	}
	return nil
}

func devicesCommand() *cli.Command {
	return &cli.Command{
		Name:  "devices",
		Usage: "list devices holding a session for the account",
		Action: func(ctx context.Context, cmd *cli.Command) error {
			client, err := buildClient(ctx, cmd)
			if err != nil {
				return err
			}
			defer client.Close()

			devices, err := client.ActiveDevices(ctx)
			if err != nil {
				return err
			}
			for id, seen := range devices.Devices {
				marker := " "
				if id == devices.CurrentDeviceID {
					marker = "*"
				}
				fmt.Printf("%s %s  %s\n", marker, id, seen)
			}
			return nil
		},
	}
}

func logoutCommand() *cli.Command {
	return &cli.Command{
		Name:  "logout",
		Usage: "end the session on this device, selected devices, or everywhere",
		Flags: []cli.Flag{
			&cli.BoolFlag{Name: "all", Usage: "log out every device"},
			&cli.StringSliceFlag{Name: "device", Usage: "log out specific device ids"},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			client, err := buildClient(ctx, cmd)
			if err != nil {
				return err
			}
			defer client.Close()

			switch {
			case cmd.Bool("all"):
				if err := client.LogoutAllDevices(ctx); err != nil {
					return err
				}
				client.Session().LocalLogout()
				fmt.Println("logged out everywhere")
			case len(cmd.StringSlice("device")) > 0:
				if err := client.LogoutFromDevices(ctx, cmd.StringSlice("device")); err != nil {
					return err
				}
				fmt.Println("selected devices logged out")
			default:
				if err := client.Session().Logout(ctx); err != nil && !orgv.IsSessionExpired(err) {
					return err
				}
				fmt.Println("logged out")
			}
			return nil
		},
	}
}
