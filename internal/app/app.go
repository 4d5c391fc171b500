// Package app wires the live state of the point-of-sale coordinator: the
// account directory, the in-memory catalog and table stores, the session
// registry and the broadcast hub. One App is one authoritative process;
// nothing here survives a restart except what the ledger recorded.
package app

import (
	"log/slog"
	"time"

	"adisyon-go/internal/ledger"
	"adisyon-go/internal/pos"
)

type Config struct {
	Addr        string
	StaticDir   string
	DatabaseURL string
	TokenSecret string
	TokenTTL    time.Duration
	SeedUsers   string
}

type App struct {
	Cfg Config
	Log *slog.Logger

	Directory *Directory
	Catalog   *pos.Catalog
	Tables    *pos.TableStore
	Registry  *Registry
	Hub       *Hub
	Tokens    *TokenIssuer

	Ledger ledger.Ledger
	Audit  *ledger.AuditWriter
}

func New(cfg Config, logger *slog.Logger, ldg ledger.Ledger) *App {
	if logger == nil {
		logger = slog.Default()
	}
	seed := DefaultSeedAccounts()
	if cfg.SeedUsers != "" {
		if parsed := ParseSeedAccounts(cfg.SeedUsers); len(parsed) > 0 {
			seed = parsed
		}
	}
	reg := NewRegistry()
	a := &App{
		Cfg:       cfg,
		Log:       logger,
		Directory: NewDirectory(seed, logger),
		Catalog:   pos.NewCatalog(pos.SeedProducts()),
		Tables:    pos.NewTableStore(pos.SeedTables()),
		Registry:  reg,
		Hub:       NewHub(reg, logger),
		Tokens:    NewTokenIssuer([]byte(cfg.TokenSecret), cfg.TokenTTL),
		Ledger:    ldg,
		Audit:     ledger.NewAuditWriter(ldg, logger),
	}
	return a
}
