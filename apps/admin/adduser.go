package main

import (
	"context"
	"fmt"

	"github.com/go-playground/validator/v10"

	"github.com/specedu/caseboard/core/user"
)

// addUser updates or creates a user.User
func (cli *commandLine) addUser(ctx context.Context, nu user.NewUser) error {
	if err := cli.validateUser(&nu); err != nil {
		return err
	}
	usr, err := cli.usrSvc.Save(ctx, nu)
	if err != nil {
		return err
	}
	fmt.Printf("saved %s (%s)\n", usr.Username, usr.Role)
	return nil
}

// validateUser applies the user validators, reporting the first failure in plain words.
func (cli *commandLine) validateUser(nu *user.NewUser) error {
	err := nu.Validate(cli.validate)
	if vErrs, ok := err.(validator.ValidationErrors); ok && len(vErrs) > 0 {
		return fmt.Errorf("%s: %s", vErrs[0].Field(), vErrs[0].Translate(cli.translator))
	}
	return err
}
