package main

import (
	"context"
	"errors"
	"flag"
	"fmt"

	"github.com/MrEthical07/recipeauth"
)

type command func(ctx context.Context, env *cmdEnv, args []string) error

var commands = map[string]command{
	"login":    runLogin,
	"register": runRegister,
	"logout":   runLogout,
	"reset":    runReset,
	"whoami":   runWhoami,
	"update":   runUpdate,
	"quota":    runQuota,
}

func newFlagSet(env *cmdEnv, name string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(env.stderr)
	return fs
}

func runLogin(ctx context.Context, env *cmdEnv, args []string) error {
	fs := newFlagSet(env, "login")
	email := fs.String("email", "", "account email")
	if err := fs.Parse(args); err != nil {
		return err
	}
	pw, err := promptPassword(env.stderr, "Password")
	if err != nil {
		return err
	}
	return env.report(env.engine.Login(ctx, *email, pw))
}

func runRegister(ctx context.Context, env *cmdEnv, args []string) error {
	fs := newFlagSet(env, "register")
	email := fs.String("email", "", "account email")
	name := fs.String("name", "", "display name")
	if err := fs.Parse(args); err != nil {
		return err
	}
	pw, err := promptPassword(env.stderr, "Password")
	if err != nil {
		return err
	}
	return env.report(env.engine.Register(ctx, *email, pw, *name))
}

func runLogout(ctx context.Context, env *cmdEnv, _ []string) error {
	if _, err := env.engine.ResolveSession(ctx); err != nil {
		return err
	}
	res := env.engine.Logout(ctx)
	if res.Success && res.Message == "" {
		res.Message = "Signed out"
	}
	return env.report(res)
}

func runReset(ctx context.Context, env *cmdEnv, args []string) error {
	fs := newFlagSet(env, "reset")
	email := fs.String("email", "", "account email")
	if err := fs.Parse(args); err != nil {
		return err
	}
	return env.report(env.engine.ResetPassword(ctx, *email))
}

func runWhoami(ctx context.Context, env *cmdEnv, _ []string) error {
	rec, err := env.engine.ResolveSession(ctx)
	if err != nil {
		return err
	}
	if rec == nil {
		fmt.Fprintln(env.stdout, "Not signed in")
		return nil
	}
	fmt.Fprintf(env.stdout, "%s <%s> (%s)\n", rec.Label(), rec.Email, rec.Provider)
	return nil
}

func runUpdate(ctx context.Context, env *cmdEnv, args []string) error {
	fs := newFlagSet(env, "update")
	name := fs.String("name", "", "new display name")
	email := fs.String("email", "", "new email")
	changePassword := fs.Bool("password", false, "change the password (prompted)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	if _, err := env.engine.ResolveSession(ctx); err != nil {
		return err
	}

	changes := recipeauth.AccountChanges{Name: *name, Email: *email}
	if *changePassword {
		var err error
		changes.ChangePassword = true
		if changes.CurrentPassword, err = promptPassword(env.stderr, "Current password"); err != nil {
			return err
		}
		if changes.NewPassword, err = promptPassword(env.stderr, "New password"); err != nil {
			return err
		}
		if changes.ConfirmPassword, err = promptPassword(env.stderr, "Confirm new password"); err != nil {
			return err
		}
	}

	res := env.engine.UpdateAccount(ctx, changes)
	if !res.Success {
		fmt.Fprintln(env.stderr, res.Message)
		return errReported
	}
	fmt.Fprintln(env.stdout, res.Message)
	if res.Remaining != nil {
		fmt.Fprintf(env.stdout, "Remaining changes: email %d, password %d (%s)\n",
			res.Remaining.Email, res.Remaining.Password, env.engine.QuotaPolicy())
	}
	return nil
}

func runQuota(ctx context.Context, env *cmdEnv, args []string) error {
	fs := newFlagSet(env, "quota")
	email := fs.String("email", "", "account email (defaults to the signed-in account)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	target := *email
	if target == "" {
		rec, err := env.engine.ResolveSession(ctx)
		if err != nil {
			return err
		}
		if rec == nil {
			return errors.New("not signed in; pass -email")
		}
		target = rec.Email
	}

	q, err := env.engine.RemainingChanges(ctx, target)
	if err != nil {
		return err
	}
	fmt.Fprintf(env.stdout, "%s: email %d, password %d remaining (%s)\n",
		target, q.Email, q.Password, env.engine.QuotaPolicy())
	return nil
}
