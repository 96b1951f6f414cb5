package main

import (
	"context"

	"github.com/topsell/tams/core/user"
)

func (cli *commandLine) register(ctx context.Context, email, pwd, name string) error {
	reg, err := cli.api.Register(ctx, user.RegisterUser{Email: email, Password: pwd, Name: name})
	if err != nil {
		return err
	}
	cli.printf("Registered %s. You can now login.\n", reg.User.Email)
	if reg.Warning != "" {
		cli.printf("warning: %s\n", reg.Warning)
	}
	return nil
}

func (cli *commandLine) login(ctx context.Context, email, pwd string) error {
	usr, err := cli.api.Login(ctx, email, pwd)
	if err != nil {
		return err
	}
	cli.printf("Welcome %s!\n", usr.Name)
	return nil
}
