package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"syscall"

	"github.com/arzan03/SchoolDesk/internal/services"
	"github.com/arzan03/SchoolDesk/internal/store"
	"github.com/pkg/errors"
	"golang.org/x/term"
)

var (
	readPasswordFunc = term.ReadPassword // mockable

	errHelp = errors.New("help provided")
)

type commandLine struct {
	users   *services.UserService
	repos   store.Repos
	migrate func(ctx context.Context) error
	out     io.Writer
}

func (cli *commandLine) printUsage() {
	fmt.Fprintln(cli.out, "Usage:")
	fmt.Fprintln(cli.out, "  createadmin -name NAME -email EMAIL  - create a superadmin, the password is prompted")
	fmt.Fprintln(cli.out, "  resetpassword -email EMAIL           - reset a user's password, the password is prompted")
	fmt.Fprintln(cli.out, "  migrate                              - create the MongoDB indexes")
}

func (cli *commandLine) run(ctx context.Context, args []string) error {
	if len(args) < 2 {
		cli.printUsage()
		return errHelp
	}

	createAdminCmd := flag.NewFlagSet("createadmin", flag.ContinueOnError)
	createAdminCmd.SetOutput(cli.out)
	adminName := createAdminCmd.String("name", "", "The admin's display name.")
	adminEmail := createAdminCmd.String("email", "", "The admin's login email. The password will be prompted next.")

	resetPasswordCmd := flag.NewFlagSet("resetpassword", flag.ContinueOnError)
	resetPasswordCmd.SetOutput(cli.out)
	resetEmail := resetPasswordCmd.String("email", "", "The user's email. The password will be prompted next.")

	switch args[1] {
	case "createadmin":
		if err := createAdminCmd.Parse(args[2:]); err != nil {
			return errHelp
		}
		if *adminName == "" || *adminEmail == "" {
			createAdminCmd.Usage()
			return errHelp
		}
		pwd, err := cli.promptPassword()
		if err != nil {
			return err
		}
		if pwd == "" {
			createAdminCmd.Usage()
			return errHelp
		}
		user, err := cli.users.CreateAdmin(ctx, *adminName, *adminEmail, pwd)
		if err != nil {
			return err
		}
		fmt.Fprintf(cli.out, "created superadmin %s (%s)\n", user.ID, user.Email)
		return nil

	case "resetpassword":
		if err := resetPasswordCmd.Parse(args[2:]); err != nil {
			return errHelp
		}
		if *resetEmail == "" {
			resetPasswordCmd.Usage()
			return errHelp
		}
		pwd, err := cli.promptPassword()
		if err != nil {
			return err
		}
		if pwd == "" {
			resetPasswordCmd.Usage()
			return errHelp
		}
		return cli.resetPassword(ctx, *resetEmail, pwd)

	case "migrate":
		if err := cli.migrate(ctx); err != nil {
			return err
		}
		fmt.Fprintln(cli.out, "indexes are up to date")
		return nil

	default:
		cli.printUsage()
		return errHelp
	}
}

func (cli *commandLine) promptPassword() (string, error) {
	fmt.Fprint(cli.out, "Enter password:")
	pwd, err := readPasswordFunc(int(syscall.Stdin))
	fmt.Fprintln(cli.out)
	if err != nil {
		return "", errors.Wrap(err, "read password")
	}
	return string(pwd), nil
}

func (cli *commandLine) resetPassword(ctx context.Context, email, pwd string) error {
	user, err := cli.repos.Users.FindOne(ctx, store.Where(store.Eq("email", services.NormalizeEmail(email))))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return errors.Errorf("no user with email %s", email)
		}
		return err
	}
	if len(pwd) < 8 {
		return errors.New("password must be at least 8 characters")
	}
	hash, err := services.HashPassword(pwd)
	if err != nil {
		return err
	}
	if err = cli.repos.Users.Update(ctx, user.ID, store.Set{"passwordHash": hash}); err != nil {
		return errors.Wrapf(err, "update user %s", user.ID)
	}
	fmt.Fprintf(cli.out, "password reset for %s\n", user.ID)
	return nil
}
