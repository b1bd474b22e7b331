package main

import (
	"context"
	"fmt"

	"github.com/pkg/errors"

	"github.com/roeiles/voortgang/core/user"
)

func (cli *commandLine) resetPassword(uname, pwd string) error {
	ctx := context.Background()
	usr, err := cli.usrSvc.GetByUsername(ctx, uname)
	if err != nil {
		return err
	}
	if _, err = cli.usrSvc.Update(ctx, usr.ID, user.UpdateUser{Password: pwd}); err != nil {
		return cli.describe(err)
	}
	if cli.sessSvc != nil {
		if err = cli.sessSvc.LogoutUser(ctx, usr.ID); err != nil {
			return errors.Wrap(err, "ending user sessions")
		}
	}
	fmt.Printf("password of %q reset\n", usr.Username)
	return nil
}
