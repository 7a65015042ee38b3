package directory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/tendant/proforma-api/pkg/auth"
	"github.com/tendant/proforma-api/pkg/domain"
)

type memUsers struct {
	mu       sync.Mutex
	users    map[uuid.UUID]*domain.User
	creds    map[uuid.UUID]*domain.UserPassword
	settings map[uuid.UUID][]*domain.Configuration
}

func newMemUsers() *memUsers {
	return &memUsers{
		users:    make(map[uuid.UUID]*domain.User),
		creds:    make(map[uuid.UUID]*domain.UserPassword),
		settings: make(map[uuid.UUID][]*domain.Configuration),
	}
}

func (m *memUsers) CreateAccount(_ context.Context, user *domain.User, cred *domain.UserPassword, settings []*domain.Configuration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.Email == user.Email {
			return domain.ErrUserAlreadyExists
		}
	}
	cp := *user
	m.users[user.ID] = &cp
	m.creds[user.ID] = cred
	m.settings[user.ID] = settings
	return nil
}

func (m *memUsers) GetByID(_ context.Context, id uuid.UUID) (*domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok || u.IsDeleted() {
		return nil, domain.ErrUserNotFound
	}
	cp := *u
	return &cp, nil
}

func (m *memUsers) List(_ context.Context, deleted bool, page domain.PageRequest) ([]*domain.User, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var all []*domain.User
	for _, u := range m.users {
		if u.IsDeleted() == deleted {
			cp := *u
			all = append(all, &cp)
		}
	}
	sort.Slice(all, func(i, j int) bool { return all[i].Name < all[j].Name })
	start := page.Offset()
	if start > len(all) {
		start = len(all)
	}
	end := start + page.PageSize
	if end > len(all) {
		end = len(all)
	}
	return all[start:end], len(all), nil
}

func (m *memUsers) Search(_ context.Context, term string) ([]*domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	term = strings.ToLower(term)
	var out []*domain.User
	for _, u := range m.users {
		if !u.IsDeleted() && (strings.Contains(strings.ToLower(u.Name), term) || strings.Contains(u.Email, term)) {
			cp := *u
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (m *memUsers) Update(_ context.Context, user *domain.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	existing, ok := m.users[user.ID]
	if !ok || existing.IsDeleted() {
		return domain.ErrUserNotFound
	}
	for id, u := range m.users {
		if id != user.ID && u.Email == user.Email {
			return domain.ErrUserAlreadyExists
		}
	}
	cp := *user
	m.users[user.ID] = &cp
	return nil
}

func (m *memUsers) SoftDelete(_ context.Context, id uuid.UUID, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok || u.IsDeleted() {
		return domain.ErrUserNotFound
	}
	u.DeletedAt = &at
	return nil
}

func (m *memUsers) Restore(_ context.Context, id uuid.UUID, _ time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok || !u.IsDeleted() {
		return domain.ErrUserNotFound
	}
	u.DeletedAt = nil
	return nil
}

type recordingRevoker struct {
	mu      sync.Mutex
	revoked []uuid.UUID
}

func (r *recordingRevoker) RevokeAllSessions(_ context.Context, userID uuid.UUID) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.revoked = append(r.revoked, userID)
	return 1, nil
}

var _ auth.SessionRevoker = (*recordingRevoker)(nil)

type memOrgs struct {
	mu   sync.Mutex
	orgs map[uuid.UUID]*domain.Organization
}

func newMemOrgs() *memOrgs {
	return &memOrgs{orgs: make(map[uuid.UUID]*domain.Organization)}
}

func (m *memOrgs) nameTaken(org *domain.Organization) bool {
	for id, o := range m.orgs {
		if id != org.ID && !o.IsDeleted() && o.Name == org.Name {
			return true
		}
	}
	return false
}

func (m *memOrgs) Create(_ context.Context, org *domain.Organization) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.nameTaken(org) {
		return domain.ErrOrganizationAlreadyExists
	}
	cp := *org
	m.orgs[org.ID] = &cp
	return nil
}

func (m *memOrgs) GetByID(_ context.Context, ownerID, id uuid.UUID) (*domain.Organization, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	o, ok := m.orgs[id]
	if !ok || o.OwnerID != ownerID || o.IsDeleted() {
		return nil, domain.ErrOrganizationNotFound
	}
	cp := *o
	return &cp, nil
}

func (m *memOrgs) ListByOwner(_ context.Context, ownerID uuid.UUID, deleted bool) ([]*domain.Organization, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*domain.Organization
	for _, o := range m.orgs {
		if o.OwnerID == ownerID && o.IsDeleted() == deleted {
			cp := *o
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (m *memOrgs) Search(_ context.Context, ownerID uuid.UUID, term string) ([]*domain.Organization, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*domain.Organization
	for _, o := range m.orgs {
		if o.OwnerID == ownerID && !o.IsDeleted() && strings.Contains(strings.ToLower(o.Name), strings.ToLower(term)) {
			cp := *o
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (m *memOrgs) Update(_ context.Context, org *domain.Organization) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	o, ok := m.orgs[org.ID]
	if !ok || o.OwnerID != org.OwnerID || o.IsDeleted() {
		return domain.ErrOrganizationNotFound
	}
	if m.nameTaken(org) {
		return domain.ErrOrganizationAlreadyExists
	}
	cp := *org
	m.orgs[org.ID] = &cp
	return nil
}

func (m *memOrgs) SoftDelete(_ context.Context, ownerID, id uuid.UUID, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	o, ok := m.orgs[id]
	if !ok || o.OwnerID != ownerID || o.IsDeleted() {
		return domain.ErrOrganizationNotFound
	}
	o.DeletedAt = &at
	return nil
}

func (m *memOrgs) Restore(_ context.Context, ownerID, id uuid.UUID, _ time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	o, ok := m.orgs[id]
	if !ok || o.OwnerID != ownerID || !o.IsDeleted() {
		return domain.ErrOrganizationNotFound
	}
	if m.nameTaken(o) {
		return domain.ErrOrganizationAlreadyExists
	}
	o.DeletedAt = nil
	return nil
}

type clientLink struct {
	orgID, clientID uuid.UUID
}

type memClients struct {
	mu      sync.Mutex
	clients map[uuid.UUID]*domain.Client
	links   map[clientLink]bool // value: unlinked
}

func newMemClients() *memClients {
	return &memClients{clients: make(map[uuid.UUID]*domain.Client), links: make(map[clientLink]bool)}
}

func (m *memClients) CreateInOrganization(_ context.Context, orgID uuid.UUID, client *domain.Client) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, c := range m.clients {
		if c.Identification == client.Identification {
			return domain.ErrClientAlreadyExists
		}
	}
	cp := *client
	m.clients[client.ID] = &cp
	m.links[clientLink{orgID, client.ID}] = false
	return nil
}

func (m *memClients) linked(orgID, id uuid.UUID) bool {
	unlinked, ok := m.links[clientLink{orgID, id}]
	return ok && !unlinked
}

func (m *memClients) GetInOrganization(_ context.Context, orgID, id uuid.UUID) (*domain.Client, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.linked(orgID, id) {
		return nil, domain.ErrClientNotFound
	}
	cp := *m.clients[id]
	return &cp, nil
}

func (m *memClients) ListByOrganization(_ context.Context, orgID uuid.UUID, deleted bool) ([]*domain.Client, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*domain.Client
	for link, unlinked := range m.links {
		if link.orgID == orgID && unlinked == deleted {
			cp := *m.clients[link.clientID]
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (m *memClients) Search(_ context.Context, orgID uuid.UUID, term string) ([]*domain.Client, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*domain.Client
	for link, unlinked := range m.links {
		c := m.clients[link.clientID]
		if link.orgID == orgID && !unlinked && (strings.Contains(c.Name, term) || strings.Contains(c.Identification, term)) {
			cp := *c
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (m *memClients) Update(_ context.Context, orgID uuid.UUID, client *domain.Client) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.linked(orgID, client.ID) {
		return domain.ErrClientNotFound
	}
	cp := *client
	m.clients[client.ID] = &cp
	return nil
}

func (m *memClients) Unlink(_ context.Context, orgID, id uuid.UUID, _ time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.linked(orgID, id) {
		return domain.ErrClientNotFound
	}
	m.links[clientLink{orgID, id}] = true
	return nil
}

func (m *memClients) Relink(_ context.Context, orgID, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	unlinked, ok := m.links[clientLink{orgID, id}]
	if !ok || !unlinked {
		return domain.ErrClientNotFound
	}
	m.links[clientLink{orgID, id}] = false
	return nil
}

type memConfigs struct {
	mu      sync.Mutex
	configs map[string]*domain.Configuration
}

func newMemConfigs() *memConfigs {
	return &memConfigs{configs: make(map[string]*domain.Configuration)}
}

func configKey(userID uuid.UUID, key string) string {
	return userID.String() + "/" + key
}

func (m *memConfigs) Upsert(_ context.Context, cfg *domain.Configuration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if existing, ok := m.configs[configKey(cfg.UserID, cfg.Key)]; ok {
		cfg.ID = existing.ID
		cfg.CreatedAt = existing.CreatedAt
	}
	cp := *cfg
	m.configs[configKey(cfg.UserID, cfg.Key)] = &cp
	return nil
}

func (m *memConfigs) GetByKey(_ context.Context, userID uuid.UUID, key string) (*domain.Configuration, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.configs[configKey(userID, key)]
	if !ok {
		return nil, domain.ErrConfigurationNotFound
	}
	cp := *c
	return &cp, nil
}

func (m *memConfigs) ListByUser(_ context.Context, userID uuid.UUID) ([]*domain.Configuration, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*domain.Configuration
	for _, c := range m.configs {
		if c.UserID == userID {
			cp := *c
			out = append(out, &cp)
		}
	}
	return out, nil
}

type memArticles struct {
	mu       sync.Mutex
	articles map[uuid.UUID]*domain.Article
}

func newMemArticles() *memArticles {
	return &memArticles{articles: make(map[uuid.UUID]*domain.Article)}
}

func copyArticle(a *domain.Article) *domain.Article {
	cp := *a
	cp.Barcodes = append([]string(nil), a.Barcodes...)
	return &cp
}

func (m *memArticles) barcodeTaken(article *domain.Article) bool {
	for id, a := range m.articles {
		if id == article.ID || a.OwnerID != article.OwnerID {
			continue
		}
		for _, taken := range a.Barcodes {
			for _, code := range article.Barcodes {
				if taken == code {
					return true
				}
			}
		}
	}
	return false
}

func (m *memArticles) Create(_ context.Context, article *domain.Article) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.barcodeTaken(article) {
		return domain.ErrArticleAlreadyExists
	}
	m.articles[article.ID] = copyArticle(article)
	return nil
}

func (m *memArticles) GetByID(_ context.Context, ownerID, id uuid.UUID) (*domain.Article, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.articles[id]
	if !ok || a.OwnerID != ownerID || a.IsDeleted() {
		return nil, domain.ErrArticleNotFound
	}
	return copyArticle(a), nil
}

func (m *memArticles) GetByBarcode(_ context.Context, ownerID uuid.UUID, barcode string) (*domain.Article, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, a := range m.articles {
		if a.OwnerID != ownerID || a.IsDeleted() {
			continue
		}
		for _, code := range a.Barcodes {
			if code == barcode {
				return copyArticle(a), nil
			}
		}
	}
	return nil, domain.ErrArticleNotFound
}

func (m *memArticles) List(_ context.Context, ownerID uuid.UUID, deleted bool, page domain.PageRequest) ([]*domain.Article, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var all []*domain.Article
	for _, a := range m.articles {
		if a.OwnerID == ownerID && a.IsDeleted() == deleted {
			all = append(all, copyArticle(a))
		}
	}
	sort.Slice(all, func(i, j int) bool { return all[i].Description < all[j].Description })
	start := min(page.Offset(), len(all))
	end := min(start+page.PageSize, len(all))
	return all[start:end], len(all), nil
}

func (m *memArticles) Search(_ context.Context, ownerID uuid.UUID, term string) ([]*domain.Article, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	term = strings.ToLower(term)
	var out []*domain.Article
	for _, a := range m.articles {
		if a.OwnerID != ownerID || a.IsDeleted() {
			continue
		}
		match := strings.Contains(strings.ToLower(a.Description), term)
		for _, code := range a.Barcodes {
			match = match || strings.Contains(strings.ToLower(code), term)
		}
		if match {
			out = append(out, copyArticle(a))
		}
	}
	return out, nil
}

func (m *memArticles) Update(_ context.Context, article *domain.Article) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.articles[article.ID]
	if !ok || a.OwnerID != article.OwnerID || a.IsDeleted() {
		return domain.ErrArticleNotFound
	}
	if m.barcodeTaken(article) {
		return domain.ErrArticleAlreadyExists
	}
	m.articles[article.ID] = copyArticle(article)
	return nil
}

func (m *memArticles) SoftDelete(_ context.Context, ownerID, id uuid.UUID, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.articles[id]
	if !ok || a.OwnerID != ownerID || a.IsDeleted() {
		return domain.ErrArticleNotFound
	}
	a.DeletedAt = &at
	return nil
}

func (m *memArticles) Restore(_ context.Context, ownerID, id uuid.UUID, _ time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.articles[id]
	if !ok || a.OwnerID != ownerID || !a.IsDeleted() {
		return domain.ErrArticleNotFound
	}
	a.DeletedAt = nil
	return nil
}

type memInventories struct {
	mu          sync.Mutex
	inventories map[uuid.UUID]*domain.Inventory
}

func newMemInventories() *memInventories {
	return &memInventories{inventories: make(map[uuid.UUID]*domain.Inventory)}
}

func copyInventory(inv *domain.Inventory) *domain.Inventory {
	cp := *inv
	cp.Details = append([]domain.InventoryDetail(nil), inv.Details...)
	return &cp
}

func (m *memInventories) live(orgID, id uuid.UUID) (*domain.Inventory, bool) {
	inv, ok := m.inventories[id]
	if !ok || inv.OrganizationID != orgID || inv.IsDeleted() {
		return nil, false
	}
	return inv, true
}

func (m *memInventories) Create(_ context.Context, inv *domain.Inventory) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.inventories[inv.ID] = copyInventory(inv)
	return nil
}

func (m *memInventories) GetInOrganization(_ context.Context, orgID, id uuid.UUID) (*domain.Inventory, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	inv, ok := m.live(orgID, id)
	if !ok {
		return nil, domain.ErrInventoryNotFound
	}
	return copyInventory(inv), nil
}

func (m *memInventories) ListByOrganization(_ context.Context, orgID uuid.UUID, deleted bool) ([]*domain.Inventory, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*domain.Inventory
	for _, inv := range m.inventories {
		if inv.OrganizationID == orgID && inv.IsDeleted() == deleted {
			out = append(out, copyInventory(inv))
		}
	}
	return out, nil
}

func (m *memInventories) Search(_ context.Context, orgID uuid.UUID, term string) ([]*domain.Inventory, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	term = strings.ToLower(term)
	var out []*domain.Inventory
	for _, inv := range m.inventories {
		if inv.OrganizationID != orgID || inv.IsDeleted() {
			continue
		}
		match := strings.Contains(strings.ToLower(inv.Name), term)
		for _, d := range inv.Details {
			match = match || strings.Contains(strings.ToLower(d.Description), term)
		}
		if match {
			out = append(out, copyInventory(inv))
		}
	}
	return out, nil
}

func (m *memInventories) Update(_ context.Context, inv *domain.Inventory) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.live(inv.OrganizationID, inv.ID); !ok {
		return domain.ErrInventoryNotFound
	}
	m.inventories[inv.ID] = copyInventory(inv)
	return nil
}

func (m *memInventories) AddStock(_ context.Context, orgID, id, articleID uuid.UUID, quantity int, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	inv, ok := m.live(orgID, id)
	if !ok {
		return domain.ErrInventoryNotFound
	}
	for i := range inv.Details {
		if inv.Details[i].ArticleID == articleID {
			inv.Details[i].Quantity += quantity
			inv.UpdatedAt = at
			return nil
		}
	}
	inv.Details = append(inv.Details, domain.InventoryDetail{ArticleID: articleID, Quantity: quantity})
	inv.UpdatedAt = at
	return nil
}

func (m *memInventories) SoftDelete(_ context.Context, orgID, id uuid.UUID, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	inv, ok := m.live(orgID, id)
	if !ok {
		return domain.ErrInventoryNotFound
	}
	inv.DeletedAt = &at
	return nil
}

func (m *memInventories) Restore(_ context.Context, orgID, id uuid.UUID, _ time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	inv, ok := m.inventories[id]
	if !ok || inv.OrganizationID != orgID || !inv.IsDeleted() {
		return domain.ErrInventoryNotFound
	}
	inv.DeletedAt = nil
	return nil
}

type memProformas struct {
	mu        sync.Mutex
	proformas map[uuid.UUID]*domain.Proforma
}

func newMemProformas() *memProformas {
	return &memProformas{proformas: make(map[uuid.UUID]*domain.Proforma)}
}

func copyProforma(p *domain.Proforma) *domain.Proforma {
	cp := *p
	cp.Lines = append([]domain.ProformaLine(nil), p.Lines...)
	return &cp
}

func (m *memProformas) Create(_ context.Context, p *domain.Proforma) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.proformas {
		if existing.OrganizationID == p.OrganizationID && existing.InvoiceNumber == p.InvoiceNumber {
			return domain.ErrProformaAlreadyExists
		}
	}
	m.proformas[p.ID] = copyProforma(p)
	return nil
}

func (m *memProformas) GetInOrganization(_ context.Context, orgID, id uuid.UUID) (*domain.Proforma, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.proformas[id]
	if !ok || p.OrganizationID != orgID || p.IsDeleted() {
		return nil, domain.ErrProformaNotFound
	}
	return copyProforma(p), nil
}

func (m *memProformas) List(_ context.Context, orgID uuid.UUID, deleted bool, page domain.PageRequest) ([]*domain.Proforma, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var all []*domain.Proforma
	for _, p := range m.proformas {
		if p.OrganizationID == orgID && p.IsDeleted() == deleted {
			cp := copyProforma(p)
			cp.Lines = nil
			all = append(all, cp)
		}
	}
	sort.Slice(all, func(i, j int) bool { return all[i].InvoiceNumber > all[j].InvoiceNumber })
	start := min(page.Offset(), len(all))
	end := min(start+page.PageSize, len(all))
	return all[start:end], len(all), nil
}

func (m *memProformas) Search(_ context.Context, orgID uuid.UUID, term string) ([]*domain.Proforma, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*domain.Proforma
	for _, p := range m.proformas {
		if p.OrganizationID == orgID && !p.IsDeleted() && strings.Contains(p.InvoiceNumber, term) {
			out = append(out, copyProforma(p))
		}
	}
	return out, nil
}

func (m *memProformas) SoftDelete(_ context.Context, orgID, id uuid.UUID, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.proformas[id]
	if !ok || p.OrganizationID != orgID || p.IsDeleted() {
		return domain.ErrProformaNotFound
	}
	p.DeletedAt = &at
	return nil
}

func (m *memProformas) Restore(_ context.Context, orgID, id uuid.UUID, _ time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.proformas[id]
	if !ok || p.OrganizationID != orgID || !p.IsDeleted() {
		return domain.ErrProformaNotFound
	}
	p.DeletedAt = nil
	return nil
}

type memTemplates struct {
	mu        sync.Mutex
	templates map[uuid.UUID]*domain.PrintingTemplate
}

func newMemTemplates() *memTemplates {
	return &memTemplates{templates: make(map[uuid.UUID]*domain.PrintingTemplate)}
}

func (m *memTemplates) nameTaken(t *domain.PrintingTemplate) bool {
	for id, other := range m.templates {
		if id != t.ID && other.UserID == t.UserID && !other.IsDeleted() && other.Name == t.Name {
			return true
		}
	}
	return false
}

func (m *memTemplates) Create(_ context.Context, t *domain.PrintingTemplate) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.nameTaken(t) {
		return domain.ErrPrintingTemplateAlreadyExists
	}
	cp := *t
	m.templates[t.ID] = &cp
	return nil
}

func (m *memTemplates) GetByID(_ context.Context, userID, id uuid.UUID) (*domain.PrintingTemplate, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.templates[id]
	if !ok || t.UserID != userID || t.IsDeleted() {
		return nil, domain.ErrPrintingTemplateNotFound
	}
	cp := *t
	return &cp, nil
}

func (m *memTemplates) ListByUser(_ context.Context, userID uuid.UUID, deleted bool) ([]*domain.PrintingTemplate, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*domain.PrintingTemplate
	for _, t := range m.templates {
		if t.UserID == userID && t.IsDeleted() == deleted {
			cp := *t
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (m *memTemplates) Search(_ context.Context, userID uuid.UUID, term string) ([]*domain.PrintingTemplate, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*domain.PrintingTemplate
	for _, t := range m.templates {
		if t.UserID == userID && !t.IsDeleted() && strings.Contains(strings.ToLower(t.Name), strings.ToLower(term)) {
			cp := *t
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (m *memTemplates) Update(_ context.Context, t *domain.PrintingTemplate) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	existing, ok := m.templates[t.ID]
	if !ok || existing.UserID != t.UserID || existing.IsDeleted() {
		return domain.ErrPrintingTemplateNotFound
	}
	if m.nameTaken(t) {
		return domain.ErrPrintingTemplateAlreadyExists
	}
	cp := *t
	m.templates[t.ID] = &cp
	return nil
}

func (m *memTemplates) SoftDelete(_ context.Context, userID, id uuid.UUID, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.templates[id]
	if !ok || t.UserID != userID || t.IsDeleted() {
		return domain.ErrPrintingTemplateNotFound
	}
	t.DeletedAt = &at
	return nil
}

func (m *memTemplates) Restore(_ context.Context, userID, id uuid.UUID, _ time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.templates[id]
	if !ok || t.UserID != userID || !t.IsDeleted() {
		return domain.ErrPrintingTemplateNotFound
	}
	if m.nameTaken(t) {
		return domain.ErrPrintingTemplateAlreadyExists
	}
	t.DeletedAt = nil
	return nil
}

var (
	_ ArticleRepository          = (*memArticles)(nil)
	_ InventoryRepository        = (*memInventories)(nil)
	_ ProformaRepository         = (*memProformas)(nil)
	_ PrintingTemplateRepository = (*memTemplates)(nil)
)
