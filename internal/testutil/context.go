package testutil

import (
	"context"
	"net/http"
)

type ctxKeyAccount struct{}

func withAccount(ctx context.Context, account *Account) context.Context {
	return context.WithValue(ctx, ctxKeyAccount{}, account)
}

func accountFrom(r *http.Request) *Account {
	account, _ := r.Context().Value(ctxKeyAccount{}).(*Account)
	return account
}
