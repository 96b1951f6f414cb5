package main

import (
	"context"
	"fmt"
)

// addUser creates or updates a verified user with a profile.
func (cli *commandLine) addUser(email, name, pwd string) error {
	usr, created, err := cli.usrSvc.EnsureVerifiedUser(context.Background(), email, pwd, name)
	if err != nil {
		return err
	}
	if created {
		fmt.Printf("created user %s (%s)\n", usr.Email, usr.Role)
	} else {
		fmt.Printf("updated user %s\n", usr.Email)
	}
	return nil
}
