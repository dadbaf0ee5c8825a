package memory

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MrEthical07/recipeauth/identity"
)

func credentialCode(t *testing.T, err error) identity.Code {
	t.Helper()
	var ce *identity.CredentialError
	require.ErrorAs(t, err, &ce)
	return ce.Code
}

func TestSignUpSignInFlow(t *testing.T) {
	p, err := New()
	require.NoError(t, err)
	ctx := context.Background()

	pr, err := p.SignUp(ctx, "ana@x.co", "secret1")
	require.NoError(t, err)
	require.NotEmpty(t, pr.UID)
	require.NotEmpty(t, pr.IDToken)

	claims, err := p.Tokens().Parse(pr.IDToken)
	require.NoError(t, err)
	assert.Equal(t, pr.UID, claims.UserID)

	require.NoError(t, p.UpdateDisplayName(ctx, pr, "Ana"))
	name, ok := p.DisplayName("ana@x.co")
	require.True(t, ok)
	assert.Equal(t, "Ana", name)

	require.NoError(t, p.SignOut(ctx))
	cur, err := p.Current(ctx)
	require.NoError(t, err)
	require.Nil(t, cur)

	pr2, err := p.SignIn(ctx, "ana@x.co", "secret1")
	require.NoError(t, err)
	assert.Equal(t, pr.UID, pr2.UID)
	assert.Equal(t, "Ana", pr2.DisplayName)
}

func TestCredentialRejections(t *testing.T) {
	p, err := New()
	require.NoError(t, err)
	ctx := context.Background()
	_, err = p.SignUp(ctx, "bo@x.co", "secret1")
	require.NoError(t, err)

	_, err = p.SignIn(ctx, "nobody@x.co", "secret1")
	assert.Equal(t, identity.CodeUserNotFound, credentialCode(t, err))

	_, err = p.SignIn(ctx, "bo@x.co", "wrong!!")
	assert.Equal(t, identity.CodeWrongPassword, credentialCode(t, err))

	_, err = p.SignIn(ctx, "not-an-email", "secret1")
	assert.Equal(t, identity.CodeInvalidEmail, credentialCode(t, err))

	_, err = p.SignUp(ctx, "bo@x.co", "secret1")
	assert.Equal(t, identity.CodeEmailInUse, credentialCode(t, err))

	_, err = p.SignUp(ctx, "cy@x.co", "123")
	assert.Equal(t, identity.CodeWeakPassword, credentialCode(t, err))

	p.Disable("bo@x.co")
	_, err = p.SignIn(ctx, "bo@x.co", "secret1")
	assert.Equal(t, identity.CodeUserDisabled, credentialCode(t, err))
}

func TestOutageAndFaults(t *testing.T) {
	p, err := New()
	require.NoError(t, err)
	ctx := context.Background()

	p.SetUnavailable(true)
	_, err = p.SignIn(ctx, "a@x.co", "secret1")
	require.ErrorIs(t, err, identity.ErrUnavailable)
	require.ErrorIs(t, p.SendPasswordReset(ctx, "a@x.co"), identity.ErrUnavailable)
	p.SetUnavailable(false)

	boom := errors.New("boom")
	p.FailOn(OpSignOut, boom)
	require.ErrorIs(t, p.SignOut(ctx), boom)
	p.FailOn(OpSignOut, nil)
	require.NoError(t, p.SignOut(ctx))
}

func TestSubscribeAndUnsubscribe(t *testing.T) {
	p, err := New()
	require.NoError(t, err)
	ctx := context.Background()

	var calls atomic.Int32
	var last atomic.Pointer[identity.Principal]
	unsub := p.Subscribe(func(pr *identity.Principal) {
		calls.Add(1)
		last.Store(pr)
	})

	_, err = p.SignUp(ctx, "d@x.co", "secret1")
	require.NoError(t, err)
	require.EqualValues(t, 1, calls.Load())
	require.Equal(t, "d@x.co", last.Load().Email)

	require.NoError(t, p.SignOut(ctx))
	require.EqualValues(t, 2, calls.Load())
	require.Nil(t, last.Load())

	unsub()
	unsub()
	p.Emit(&identity.Principal{UID: "x", Email: "e@x.co"})
	require.EqualValues(t, 2, calls.Load())
}

func TestVerifyPasswordAndResets(t *testing.T) {
	p, err := New()
	require.NoError(t, err)
	ctx := context.Background()
	_, err = p.SignUp(ctx, "e@x.co", "secret1")
	require.NoError(t, err)

	require.NoError(t, p.VerifyPassword(ctx, "e@x.co", "secret1"))
	assert.Equal(t, identity.CodeWrongPassword, credentialCode(t, p.VerifyPassword(ctx, "e@x.co", "nope")))

	require.NoError(t, p.SendPasswordReset(ctx, "e@x.co"))
	assert.Equal(t, identity.CodeUserNotFound, credentialCode(t, p.SendPasswordReset(ctx, "zz@x.co")))
	assert.Equal(t, []string{"e@x.co"}, p.Resets())
}
