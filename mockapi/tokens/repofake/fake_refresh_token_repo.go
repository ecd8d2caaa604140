package refreshrepofake

import (
	"errors"
	"sync"

	"github.com/jrsteele09/go-learn-admin/mockapi/tokens"
)

var _ tokens.RefreshRepo = (*FakeRefreshTokenRepo)(nil)

var errNotFound = errors.New("not found")

type FakeRefreshTokenRepo struct {
	tokens map[string]tokens.StoredRefreshToken
	lock   sync.RWMutex
}

func NewFakeRefreshTokenRepo() tokens.RefreshRepo {
	return &FakeRefreshTokenRepo{
		tokens: make(map[string]tokens.StoredRefreshToken),
	}
}

func (tr *FakeRefreshTokenRepo) Upsert(refreshToken *tokens.StoredRefreshToken) error {
	tr.lock.Lock()
	defer tr.lock.Unlock()

	tr.tokens[refreshToken.Token] = *refreshToken
	return nil
}

func (tr *FakeRefreshTokenRepo) Delete(token string) error {
	tr.lock.Lock()
	defer tr.lock.Unlock()

	if _, ok := tr.tokens[token]; !ok {
		return errNotFound
	}
	delete(tr.tokens, token)
	return nil
}

func (tr *FakeRefreshTokenRepo) Get(token string) (*tokens.StoredRefreshToken, error) {
	tr.lock.RLock()
	defer tr.lock.RUnlock()

	rt, ok := tr.tokens[token]
	if !ok {
		return nil, errNotFound
	}
	return &rt, nil
}

func (tr *FakeRefreshTokenRepo) DeleteAll() error {
	tr.lock.Lock()
	defer tr.lock.Unlock()

	tr.tokens = make(map[string]tokens.StoredRefreshToken)
	return nil
}
