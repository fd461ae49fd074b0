package service

import (
	"context"
	"errors"
	"strconv"
	"sync"

	"gm-economy-api/internal/gateway"
	"gm-economy-api/internal/model"
)

// memRepo is an in-memory EconomyRepository for tests. Collections are
// deep-copied on load so tests exercise the same read-modify-write shape
// the real backends have.
type memRepo struct {
	mu       sync.Mutex
	wallets  model.Wallets
	catalogs map[string]*model.Catalog

	saveWalletErrs int
	saveCalls      int
}

func newMemRepo() *memRepo {
	return &memRepo{
		wallets: model.Wallets{},
		catalogs: map[string]*model.Catalog{
			model.CatalogMarket:      model.NewCatalog(),
			model.CatalogBlackMarket: model.NewCatalog(),
		},
	}
}

func (r *memRepo) LoadWallets(ctx context.Context) (model.Wallets, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := model.Wallets{}
	for id, w := range r.wallets {
		cp := *w
		cp.Items = append([]string{}, w.Items...)
		out[id] = &cp
	}
	return out, nil
}

func (r *memRepo) SaveWallets(ctx context.Context, wallets model.Wallets) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.saveCalls++
	if r.saveWalletErrs > 0 {
		r.saveWalletErrs--
		return errors.New("simulated write failure")
	}
	out := model.Wallets{}
	for id, w := range wallets {
		cp := *w
		cp.Items = append([]string{}, w.Items...)
		out[id] = &cp
	}
	r.wallets = out
	return nil
}

func (r *memRepo) LoadCatalog(ctx context.Context, catalogID string) (*model.Catalog, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	catalog, ok := r.catalogs[catalogID]
	if !ok {
		catalog = model.NewCatalog()
		r.catalogs[catalogID] = catalog
	}
	return copyCatalog(catalog), nil
}

func (r *memRepo) SaveCatalog(ctx context.Context, catalogID string, catalog *model.Catalog) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.catalogs[catalogID] = copyCatalog(catalog)
	return nil
}

func (r *memRepo) Stats(ctx context.Context) (map[string]interface{}, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return map[string]interface{}{"wallets": len(r.wallets)}, nil
}

func (r *memRepo) Close() error { return nil }

func copyCatalog(catalog *model.Catalog) *model.Catalog {
	cp := &model.Catalog{
		ChannelID: catalog.ChannelID,
		Title:     catalog.Title,
		Intro:     catalog.Intro,
		Items:     map[string]*model.Item{},
	}
	for id, item := range catalog.Items {
		itemCp := *item
		if item.RoleStock != nil {
			itemCp.RoleStock = map[string]model.StockAmount{}
			for role, amount := range item.RoleStock {
				itemCp.RoleStock[role] = amount
			}
		}
		cp.Items[id] = &itemCp
	}
	return cp
}

// fakeIdentity serves member and role lookups from fixed maps.
type fakeIdentity struct {
	members map[string]*gateway.MemberProfile
	roles   map[string][]*gateway.MemberProfile
}

func (f *fakeIdentity) ResolveMember(ctx context.Context, memberID string) (*gateway.MemberProfile, error) {
	if profile, ok := f.members[memberID]; ok {
		return profile, nil
	}
	return nil, errors.New("member not found")
}

func (f *fakeIdentity) GroupMembers(ctx context.Context, roleID string) ([]*gateway.MemberProfile, error) {
	return f.roles[roleID], nil
}

// fakeSurface records posts and edits per channel. The latest message in
// each channel is what FetchLatestSystemMessage returns.
type fakeSurface struct {
	mu     sync.Mutex
	nextID int
	latest map[int64]*gateway.Message
	posts  []string
	edits  []string
}

func newFakeSurface() *fakeSurface {
	return &fakeSurface{latest: map[int64]*gateway.Message{}}
}

func (f *fakeSurface) FetchLatestSystemMessage(ctx context.Context, channelID int64) (*gateway.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if msg, ok := f.latest[channelID]; ok {
		cp := *msg
		return &cp, nil
	}
	return nil, nil
}

func (f *fakeSurface) Post(ctx context.Context, channelID int64, content string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	ref := "msg-" + strconv.Itoa(f.nextID)
	f.latest[channelID] = &gateway.Message{Ref: ref, Content: content}
	f.posts = append(f.posts, content)
	return ref, nil
}

func (f *fakeSurface) Edit(ctx context.Context, messageRef string, content string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for channelID, msg := range f.latest {
		if msg.Ref == messageRef {
			f.latest[channelID] = &gateway.Message{Ref: messageRef, Content: content}
		}
	}
	f.edits = append(f.edits, content)
	return nil
}
