package main

import (
	"context"
	"fmt"

	"github.com/specedu/caseboard/core/user"
)

func (cli *commandLine) resetPassword(ctx context.Context, uname, pwd string) error {
	usr, err := cli.usrSvc.GetByUsername(ctx, uname)
	if err != nil {
		return err
	}

	// same policy as new users
	check := user.NewUser{Name: usr.Name, Username: usr.Username, Email: usr.Email, Role: usr.Role, Password: pwd}
	if err := cli.validateUser(&check); err != nil {
		return err
	}
	if err := cli.usrSvc.ResetPassword(ctx, usr.Username, pwd); err != nil {
		return err
	}
	fmt.Printf("password of %s reset\n", usr.Username)
	return nil
}
