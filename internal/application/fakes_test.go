package application

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"shopify-oauth-layer/internal/domain"
	"shopify-oauth-layer/internal/ports"
)

type fakeNonces struct {
	values []string
	err    error
	calls  int
}

func (f *fakeNonces) Generate() (string, error) {
	f.calls++
	if f.err != nil {
		return "", f.err
	}
	if len(f.values) == 0 {
		return fmt.Sprintf("nonce-%d", f.calls), nil
	}
	v := f.values[0]
	f.values = f.values[1:]
	return v, nil
}

type fakeURLBuilder struct {
	got ports.AuthURLParams
}

func (f *fakeURLBuilder) BuildAuthURL(params ports.AuthURLParams) string {
	f.got = params
	return "https://" + params.Shop.String() + "/admin/oauth/authorize?state=" + params.State
}

type storeEntry struct {
	value string
	ttl   time.Duration
}

type fakeStore struct {
	mu         sync.Mutex
	entries    map[string]storeEntry
	getErr     error
	setErr     error
	consumeErr error
	deleted    []string
	consumed   []string
	setCalls   int
}

func newFakeStore() *fakeStore {
	return &fakeStore{entries: map[string]storeEntry{}}
}

func (s *fakeStore) Get(_ context.Context, key string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.getErr != nil {
		return "", s.getErr
	}
	e, ok := s.entries[key]
	if !ok {
		return "", ports.ErrStateNotFound
	}
	return e.value, nil
}

func (s *fakeStore) Set(_ context.Context, key, value string, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.setCalls++
	if s.setErr != nil {
		return s.setErr
	}
	s.entries[key] = storeEntry{value: value, ttl: ttl}
	return nil
}

func (s *fakeStore) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.deleted = append(s.deleted, key)
	delete(s.entries, key)
	return nil
}

// Consume leaves the entry in place when consumeErr is set, like a store
// that could not be reached.
func (s *fakeStore) Consume(_ context.Context, key string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.consumed = append(s.consumed, key)
	if s.consumeErr != nil {
		return "", s.consumeErr
	}
	e, ok := s.entries[key]
	if !ok {
		return "", ports.ErrStateNotFound
	}
	delete(s.entries, key)
	return e.value, nil
}

type fakeVerifier struct {
	ok    bool
	err   error
	calls int
	panic bool
}

func (f *fakeVerifier) Verify(domain.CallbackParameters) (bool, error) {
	f.calls++
	if f.panic {
		panic("verifier exploded")
	}
	return f.ok, f.err
}

type fakeExchanger struct {
	token *domain.AccessTokenResult
	err   error
	calls int
	shop  domain.ShopDomain
	code  string
}

func (f *fakeExchanger) ExchangeToken(_ context.Context, shop domain.ShopDomain, code string) (*domain.AccessTokenResult, error) {
	f.calls++
	f.shop = shop
	f.code = code
	if f.err != nil {
		return nil, f.err
	}
	return f.token, nil
}

type fakeCredentials struct {
	saved []*domain.ShopCredential
	err   error
}

func (f *fakeCredentials) SaveCredential(_ context.Context, c *domain.ShopCredential) error {
	if f.err != nil {
		return f.err
	}
	f.saved = append(f.saved, c)
	return nil
}

type fakeRecorder struct {
	shops []domain.ShopDomain
}

func (f *fakeRecorder) RecordInstallation(_ context.Context, shop domain.ShopDomain, _ *domain.AccessTokenResult) {
	f.shops = append(f.shops, shop)
}

type fakeInstallationRepo struct {
	records   map[string]*domain.Installation
	upserted  []*domain.Installation
	upsertErr error
}

func newFakeInstallationRepo() *fakeInstallationRepo {
	return &fakeInstallationRepo{records: map[string]*domain.Installation{}}
}

func (f *fakeInstallationRepo) Upsert(_ context.Context, inst *domain.Installation) error {
	if f.upsertErr != nil {
		return f.upsertErr
	}
	f.upserted = append(f.upserted, inst)
	f.records[inst.Shop] = inst
	return nil
}

func (f *fakeInstallationRepo) GetByShop(_ context.Context, shop string) (*domain.Installation, error) {
	return f.records[shop], nil
}

func (f *fakeInstallationRepo) Delete(_ context.Context, shop string) error {
	if _, ok := f.records[shop]; !ok {
		return ports.ErrInstallationNotFound
	}
	delete(f.records, shop)
	return nil
}

type fakeShopInfo struct {
	info *domain.ShopInfo
	err  error
}

func (f *fakeShopInfo) GetShopInfo(context.Context, domain.ShopDomain, string) (*domain.ShopInfo, error) {
	return f.info, f.err
}

var errBoom = errors.New("boom")
