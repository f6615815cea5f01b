package main

import (
	"context"
	"database/sql"
	"errors"
	"flag"
	"fmt"
	"syscall"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"golang.org/x/term"

	"github.com/specedu/caseboard/core/sheet"
	"github.com/specedu/caseboard/core/user"
)

var (
	readPasswordFunc = term.ReadPassword // mockable

	errHelp = errors.New("help provided")
)

type commandLine struct {
	tables     sheet.TableService
	usrSvc     *user.Service
	validate   *validator.Validate
	translator ut.Translator
	openDB     func() (*sql.DB, error) // only needed by migrate
}

func (cli *commandLine) printUsage() {
	fmt.Println("Usage:")
	fmt.Println("  adduser -username USERNAME -name NAME -role ROLE [-email EMAIL] - add or update a user; the password is prompted")
	fmt.Println("  resetpassword -username USERNAME - reset user's password")
	fmt.Println("  initsheets - write the header row of every table that has none")
	fmt.Println("  migrate COMMAND [ARGS] - run a goose migration command against the database backend")
}

func (cli *commandLine) readPassword(usage func()) (string, error) {
	fmt.Print("Enter password:")
	pwd, err := readPasswordFunc(int(syscall.Stdin))
	fmt.Println()
	if err != nil {
		return "", err
	}
	if len(pwd) == 0 {
		usage()
		return "", errHelp
	}
	return string(pwd), nil
}

func (cli *commandLine) run(args []string) error {
	if len(args) < 2 {
		cli.printUsage()
		return errHelp
	}

	addUserCmd := flag.NewFlagSet("adduser", flag.ContinueOnError)
	addUserUname := addUserCmd.String("username", "", "The user's username.")
	addUserName := addUserCmd.String("name", "", "The user's display name.")
	addUserRole := addUserCmd.String("role", "", "One of teacher, therapist, parents.")
	addUserEmail := addUserCmd.String("email", "", "The user's email, used for question notifications.")

	resetPasswordCmd := flag.NewFlagSet("resetpassword", flag.ContinueOnError)
	resetPasswordUname := resetPasswordCmd.String("username", "", "The user's username. The password will be prompted next.")

	ctx := context.Background()

	switch args[1] {
	case "adduser":
		if err := addUserCmd.Parse(args[2:]); err != nil {
			return err
		}
		if *addUserUname == "" || *addUserName == "" || *addUserRole == "" {
			addUserCmd.Usage()
			return errHelp
		}
		pwd, err := cli.readPassword(addUserCmd.Usage)
		if err != nil {
			return err
		}
		return cli.addUser(ctx, user.NewUser{
			Username: *addUserUname,
			Name:     *addUserName,
			Role:     *addUserRole,
			Email:    *addUserEmail,
			Password: pwd,
		})
	case "resetpassword":
		if err := resetPasswordCmd.Parse(args[2:]); err != nil {
			return err
		}
		if *resetPasswordUname == "" {
			resetPasswordCmd.Usage()
			return errHelp
		}
		pwd, err := cli.readPassword(resetPasswordCmd.Usage)
		if err != nil {
			return err
		}
		return cli.resetPassword(ctx, *resetPasswordUname, pwd)
	case "initsheets":
		return cli.initSheets(ctx)
	case "migrate":
		if len(args) < 3 {
			cli.printUsage()
			return errHelp
		}
		return cli.migrate(ctx, args[2:])
	default:
		cli.printUsage()
		return errHelp
	}
}
