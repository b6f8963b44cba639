package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/urfave/cli/v3"

	orgv "github.com/VimalKMGithub/orgvclient"
)

func registerCommand() *cli.Command {
	return &cli.Command{
		Name:  "register",
		Usage: "create a new account (verification email is sent)",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "username", Required: true},
			&cli.StringFlag{Name: "email", Required: true},
			&cli.StringFlag{Name: "first-name", Required: true},
			&cli.StringFlag{Name: "middle-name"},
			&cli.StringFlag{Name: "last-name"},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			client, err := buildClient(ctx, cmd)
			if err != nil {
				return err
			}
			defer client.Close()

			password, err := prompt("password")
			if err != nil {
				return err
			}
			resp, err := client.Register(ctx, orgv.RegisterRequest{
				Username:   cmd.String("username"),
				Email:      cmd.String("email"),
				Password:   password,
				FirstName:  cmd.String("first-name"),
				MiddleName: optional(cmd.String("middle-name")),
				LastName:   optional(cmd.String("last-name")),
			})
			if err != nil {
				return err
			}
			fmt.Println(resp.Message)
			return nil
		},
		Commands: []*cli.Command{
			{
				Name:      "verify",
				Usage:     "redeem an email verification token",
				ArgsUsage: "<token>",
				Action: func(ctx context.Context, cmd *cli.Command) error {
					if cmd.Args().Len() != 1 {
						return errors.New("expected exactly one token argument")
					}
					client, err := buildClient(ctx, cmd)
					if err != nil {
						return err
					}
					defer client.Close()
					resp, err := client.VerifyEmail(ctx, cmd.Args().First())
					if err != nil {
						return err
					}
					fmt.Println(resp.Message)
					return nil
				},
			},
			{
				Name:      "resend",
				Usage:     "resend the verification link",
				ArgsUsage: "<identifier>",
				Action: func(ctx context.Context, cmd *cli.Command) error {
					if cmd.Args().Len() != 1 {
						return errors.New("expected exactly one identifier argument")
					}
					client, err := buildClient(ctx, cmd)
					if err != nil {
						return err
					}
					defer client.Close()
					resp, err := client.ResendEmailVerificationLink(ctx, cmd.Args().First())
					if err != nil {
						return err
					}
					fmt.Println(resp.Message)
					return nil
				},
			},
		},
	}
}

func passwdCommand() *cli.Command {
	return &cli.Command{
		Name:  "passwd",
		Usage: "change the account password, verifying by MFA when enabled",
		Action: func(ctx context.Context, cmd *cli.Command) error {
			client, err := buildClient(ctx, cmd)
			if err != nil {
				return err
			}
			defer client.Close()

			oldPassword, err := prompt("current password")
			if err != nil {
				return err
			}
			newPassword, err := prompt("new password")
			if err != nil {
				return err
			}
			confirm, err := prompt("confirm new password")
			if err != nil {
				return err
			}

			flow := client.NewChangePasswordFlow()
			defer flow.Close()
			done, err := flow.Submit(ctx, oldPassword, newPassword, confirm)
			if err != nil {
				fieldErrors(flow.State())
				return err
			}
			if done {
				return nil
			}
			method, err := promptChoice("verification method", flow.State().Methods)
			if err != nil {
				return err
			}
			if err := flow.SelectMethod(ctx, method); err != nil {
				return err
			}
			otp, err := prompt("code")
			if err != nil {
				return err
			}
			if err := flow.Verify(ctx, otp); err != nil {
				fieldErrors(flow.State())
				return err
			}
			return nil
		},
	}
}

func forgotPasswordCommand() *cli.Command {
	return &cli.Command{
		Name:      "forgot-password",
		Usage:     "recover an account with a one-time code",
		ArgsUsage: "<identifier>",
		Action: func(ctx context.Context, cmd *cli.Command) error {
			if cmd.Args().Len() != 1 {
				return errors.New("expected exactly one identifier argument")
			}
			client, err := buildClient(ctx, cmd)
			if err != nil {
				return err
			}
			defer client.Close()

			flow := client.NewForgotPasswordFlow()
			defer flow.Close()
			if err := flow.Submit(ctx, cmd.Args().First()); err != nil {
				fieldErrors(flow.State())
				return err
			}
			method, err := promptChoice("recovery method", flow.State().Methods)
			if err != nil {
				return err
			}
			if err := flow.SelectMethod(ctx, method); err != nil {
				return err
			}
			otp, err := prompt("code")
			if err != nil {
				return err
			}
			newPassword, err := prompt("new password")
			if err != nil {
				return err
			}
			confirm, err := prompt("confirm new password")
			if err != nil {
				return err
			}
			if err := flow.SubmitReset(ctx, otp, newPassword, confirm); err != nil {
				fieldErrors(flow.State())
				return err
			}
			return nil
		},
	}
}

func mfaCommand() *cli.Command {
	return &cli.Command{
		Name:  "mfa",
		Usage: "enable or disable a second factor",
		Commands: []*cli.Command{
			mfaToggleCommand("enable", true),
			mfaToggleCommand("disable", false),
		},
	}
}

func mfaToggleCommand(name string, enable bool) *cli.Command {
	return &cli.Command{
		Name:      name,
		Usage:     name + " an MFA method for the account",
		ArgsUsage: "<EMAIL_MFA|AUTHENTICATOR_APP_MFA>",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "qr-out", Usage: "write the authenticator QR png to this file"},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			if cmd.Args().Len() != 1 {
				return errors.New("expected exactly one method argument")
			}
			method := cmd.Args().First()
			client, err := buildClient(ctx, cmd)
			if err != nil {
				return err
			}
			defer client.Close()

			flow := client.NewMFAToggleFlow()
			defer flow.Close()
			if err := flow.Request(ctx, method, enable); err != nil {
				return err
			}
			if qr := flow.QRCode(); len(qr) > 0 {
				out := cmd.String("qr-out")
				if out == "" {
					out = "orgv-authenticator-qr.png"
				}
				if err := os.WriteFile(out, qr, 0o600); err != nil {
					return err
				}
				fmt.Printf("scan the QR code written to %s, then enter the code\n", out)
			}
			otp, err := prompt("code")
			if err != nil {
				return err
			}
			loggedOut, err := flow.Verify(ctx, otp)
			if err != nil {
				fieldErrors(flow.State())
				return err
			}
			if loggedOut {
				fmt.Println("sessions revoked, log in again")
			}
			return nil
		},
	}
}

func emailCommand() *cli.Command {
	return &cli.Command{
		Name:      "email",
		Usage:     "change the account email address",
		ArgsUsage: "<new-email>",
		Action: func(ctx context.Context, cmd *cli.Command) error {
			if cmd.Args().Len() != 1 {
				return errors.New("expected exactly one email argument")
			}
			client, err := buildClient(ctx, cmd)
			if err != nil {
				return err
			}
			defer client.Close()

			flow := client.NewChangeEmailFlow()
			defer flow.Close()
			if err := flow.Submit(ctx, cmd.Args().First()); err != nil {
				fieldErrors(flow.State())
				return err
			}
			oldOTP, err := prompt("code sent to current email")
			if err != nil {
				return err
			}
			newOTP, err := prompt("code sent to new email")
			if err != nil {
				return err
			}
			password, err := prompt("password")
			if err != nil {
				return err
			}
			if err := flow.Verify(ctx, oldOTP, newOTP, password); err != nil {
				fieldErrors(flow.State())
				return err
			}
			return nil
		},
	}
}

func accountCommand() *cli.Command {
	return &cli.Command{
		Name:  "account",
		Usage: "manage the authenticated account",
		Commands: []*cli.Command{
			accountDeleteCommand(),
			accountUpdateCommand(),
		},
	}
}

func accountDeleteCommand() *cli.Command {
	return &cli.Command{
		Name:  "delete",
		Usage: "permanently delete the account",
		Action: func(ctx context.Context, cmd *cli.Command) error {
			client, err := buildClient(ctx, cmd)
			if err != nil {
				return err
			}
			defer client.Close()

			password, err := prompt("password")
			if err != nil {
				return err
			}
			flow := client.NewDeleteAccountFlow()
			defer flow.Close()
			done, err := flow.Submit(ctx, password)
			if err != nil {
				fieldErrors(flow.State())
				return err
			}
			if done {
				return nil
			}
			method, err := promptChoice("verification method", flow.State().Methods)
			if err != nil {
				return err
			}
			if err := flow.SelectMethod(ctx, method); err != nil {
				return err
			}
			otp, err := prompt("code")
			if err != nil {
				return err
			}
			if err := flow.Verify(ctx, otp); err != nil {
				fieldErrors(flow.State())
				return err
			}
			return nil
		},
	}
}

func accountUpdateCommand() *cli.Command {
	return &cli.Command{
		Name:  "update",
		Usage: "update profile details",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "username"},
			&cli.StringFlag{Name: "first-name"},
			&cli.StringFlag{Name: "middle-name"},
			&cli.StringFlag{Name: "last-name"},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			client, err := buildClient(ctx, cmd)
			if err != nil {
				return err
			}
			defer client.Close()

			password, err := prompt("password")
			if err != nil {
				return err
			}
			resp, err := client.UpdateDetails(ctx, orgv.UpdateDetailsRequest{
				Username:    optional(cmd.String("username")),
				FirstName:   optional(cmd.String("first-name")),
				MiddleName:  optional(cmd.String("middle-name")),
				LastName:    optional(cmd.String("last-name")),
				OldPassword: password,
			})
			if err != nil {
				return err
			}
			fmt.Println(resp.Message)
			return client.Session().RefreshUser(ctx)
		},
	}
}
