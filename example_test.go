package recipeauth_test

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/MrEthical07/recipeauth"
	"github.com/MrEthical07/recipeauth/identity/rest"
)

// ExampleNew wires an engine against Redis and a REST identity provider.
func ExampleNew() {
	rdb := redis.NewClient(&redis.Options{Addr: "127.0.0.1:6379"})

	engine, err := recipeauth.New().
		WithRedis(rdb).
		WithProvider(rest.New(rest.Config{APIKey: "api-key"})).
		Build()
	if err != nil {
		return
	}
	defer engine.Close()
}

// ExampleEngine_UpdateAccount changes the email of a local session. The
// change counts against the original address.
func ExampleEngine_UpdateAccount() {
	engine, err := recipeauth.New().Build()
	if err != nil {
		return
	}
	defer engine.Close()

	ctx := context.Background()
	engine.Login(ctx, "cook@example.com", "secret1")

	res := engine.UpdateAccount(ctx, recipeauth.AccountChanges{Email: "chef@example.com"})
	switch {
	case errors.Is(res.Err, recipeauth.ErrQuotaExceeded):
		fmt.Println("quota:", res.Message)
	case !res.Success:
		fmt.Println("rejected:", res.Message)
	default:
		fmt.Println(res.User.Email, res.Remaining.Email, res.Remaining.Password)
	}
	// Output: chef@example.com 2 3
}
