package main

import (
	"context"
	"fmt"
	"strings"

	"notemate/dto"
	"notemate/model"
	"notemate/repository"
	"notemate/services"

	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/bson"
)

const minPasswordLength = 6

func hashPassword(pwd string) (string, error) {
	if len(pwd) < minPasswordLength {
		return "", errors.Errorf("password must be at least %d characters", minPasswordLength)
	}
	return services.HashPassword(pwd)
}

// createAdmin creates an admin account, or promotes and reactivates the
// existing account with that email.
func (cli *commandLine) createAdmin(ctx context.Context, name, email, pwd string) error {
	name = strings.TrimSpace(name)
	email = dto.NormalizeEmail(email)
	hash, err := hashPassword(pwd)
	if err != nil {
		return err
	}

	existing, err := cli.users.FindByEmail(ctx, email)
	switch {
	case errors.Is(err, repository.ErrNotFound):
		if len(name) < 2 {
			return errors.New("-name is required for a new account")
		}
		user := model.NewUser(name, email, model.RoleAdmin)
		user.Password = hash
		if err := cli.users.Create(ctx, user); err != nil {
			return err
		}
		fmt.Fprintf(cli.out, "created admin %s\n", email)
		return nil
	case err != nil:
		return err
	}

	if _, err := cli.users.UpdateAny(ctx, existing.ID, bson.M{
		"role":     model.RoleAdmin,
		"isActive": true,
		"password": hash,
	}); err != nil {
		return err
	}
	fmt.Fprintf(cli.out, "promoted %s to admin\n", email)
	return nil
}
