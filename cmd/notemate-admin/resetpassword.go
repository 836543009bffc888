package main

import (
	"context"
	"fmt"

	"notemate/dto"

	"go.mongodb.org/mongo-driver/bson"
)

func (cli *commandLine) resetPassword(ctx context.Context, email, pwd string) error {
	email = dto.NormalizeEmail(email)
	user, err := cli.users.FindByEmail(ctx, email)
	if err != nil {
		return err
	}
	hash, err := hashPassword(pwd)
	if err != nil {
		return err
	}
	if _, err := cli.users.UpdateAny(ctx, user.ID, bson.M{"password": hash}); err != nil {
		return err
	}
	fmt.Fprintf(cli.out, "password reset for %s\n", email)
	return nil
}
