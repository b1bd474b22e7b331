package main

import (
	"context"
	"fmt"

	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"

	"github.com/roeiles/voortgang/core"
	"github.com/roeiles/voortgang/core/user"
)

func (cli *commandLine) addUser(nu user.NewUser) error {
	usr, err := cli.usrSvc.Create(context.Background(), nu)
	if err != nil {
		return cli.describe(err)
	}
	fmt.Printf("created %s %q (%s)\n", usr.Role(), usr.Username, usr.ID)
	return nil
}

// describe flattens validation errors into a readable one-line error.
func (cli *commandLine) describe(err error) error {
	switch e := errors.Cause(err).(type) {
	case validator.ValidationErrors:
		msg := "invalid input:"
		for _, fe := range e {
			msg += fmt.Sprintf(" %s: %s;", fe.Field(), fe.Translate(cli.translator))
		}
		return errors.New(msg)
	case *core.ValidationError:
		msg := "invalid input:"
		for _, fe := range e.Fields {
			msg += fmt.Sprintf(" %s: %s;", fe.Field, fe.Error)
		}
		return errors.New(msg)
	}
	return err
}
