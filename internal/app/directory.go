package app

import (
	"errors"
	"log/slog"
	"strings"
	"sync"

	"golang.org/x/crypto/bcrypt"
)

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrUsernameTaken      = errors.New("username already exists")
	ErrAccountNotFound    = errors.New("account not found")
)

// Account is one entry in the directory. Only the hash is kept; seed
// passwords are hashed once at startup.
type Account struct {
	ID           int64
	Username     string
	PasswordHash []byte
	Role         string
}

// AccountInfo is the directory view safe to send to terminals.
type AccountInfo struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
	Role     string `json:"role,omitempty"`
}

type SeedAccount struct {
	Username string
	Password string
	Role     string
}

// DefaultSeedAccounts is the built-in staff roster, used when SEED_USERS
// is not provided.
func DefaultSeedAccounts() []SeedAccount {
	return []SeedAccount{
		{Username: "onkasa", Password: "onkasa12", Role: RoleCashier},
		{Username: "arkakasa", Password: "arkakasa12", Role: RoleCashier},
		{Username: "omerfaruk", Password: "omer.faruk", Role: RoleWaiter},
		{Username: "zeynel", Password: "zey.nel", Role: RoleWaiter},
		{Username: "halil", Password: "ha.lil", Role: RoleWaiter},
		{Username: "garson", Password: "gar.son", Role: RoleWaiter},
		{Username: "mutfak", Password: "mut.fak", Role: RoleKitchen},
	}
}

// ParseSeedAccounts reads "user:pass:role,user:pass:role,..." from the
// environment. Malformed entries are skipped.
func ParseSeedAccounts(s string) []SeedAccount {
	var out []SeedAccount
	for _, entry := range strings.Split(s, ",") {
		parts := strings.SplitN(strings.TrimSpace(entry), ":", 3)
		if len(parts) != 3 || parts[0] == "" || parts[1] == "" {
			continue
		}
		role := parts[2]
		if role != RoleCashier && role != RoleWaiter && role != RoleKitchen {
			continue
		}
		out = append(out, SeedAccount{Username: parts[0], Password: parts[1], Role: role})
	}
	return out
}

// Directory is the account lookup service. The rest of the system treats
// it as opaque: sessions resolve against it at login and reconnect, and
// cashiers manage the waiter roster through it.
type Directory struct {
	mu       sync.Mutex
	accounts []*Account
	nextID   int64
}

func NewDirectory(seed []SeedAccount, log *slog.Logger) *Directory {
	d := &Directory{nextID: 1}
	for _, s := range seed {
		hash, err := bcrypt.GenerateFromPassword([]byte(s.Password), bcrypt.DefaultCost)
		if err != nil {
			log.Warn("seed account skipped", "username", s.Username, "err", err)
			continue
		}
		d.accounts = append(d.accounts, &Account{
			ID:           d.nextID,
			Username:     s.Username,
			PasswordHash: hash,
			Role:         s.Role,
		})
		d.nextID++
	}
	return d
}

func (d *Directory) Authenticate(username, password string) (Account, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	for _, a := range d.accounts {
		if a.Username != username {
			continue
		}
		if bcrypt.CompareHashAndPassword(a.PasswordHash, []byte(password)) != nil {
			return Account{}, ErrInvalidCredentials
		}
		return *a, nil
	}
	return Account{}, ErrInvalidCredentials
}

// Lookup confirms an id+username pair still exists, for reconnecting
// sessions that skip the password check.
func (d *Directory) Lookup(id int64, username string) (Account, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	for _, a := range d.accounts {
		if a.ID == id && a.Username == username {
			return *a, true
		}
	}
	return Account{}, false
}

func (d *Directory) Users() []AccountInfo {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make([]AccountInfo, 0, len(d.accounts))
	for _, a := range d.accounts {
		out = append(out, AccountInfo{ID: a.ID, Username: a.Username, Role: a.Role})
	}
	return out
}

func (d *Directory) Waiters() []AccountInfo {
	d.mu.Lock()
	defer d.mu.Unlock()
	var out []AccountInfo
	for _, a := range d.accounts {
		if a.Role == RoleWaiter {
			out = append(out, AccountInfo{ID: a.ID, Username: a.Username})
		}
	}
	return out
}

func (d *Directory) AddWaiter(username, password string) (Account, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return Account{}, ErrInvalidCredentials
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return Account{}, err
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	for _, a := range d.accounts {
		if a.Username == username {
			return Account{}, ErrUsernameTaken
		}
	}
	acc := &Account{ID: d.nextID, Username: username, PasswordHash: hash, Role: RoleWaiter}
	d.nextID++
	d.accounts = append(d.accounts, acc)
	return *acc, nil
}

func (d *Directory) SetWaiterPassword(id int64, newPassword string) (Account, error) {
	if newPassword == "" {
		return Account{}, ErrInvalidCredentials
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return Account{}, err
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	for _, a := range d.accounts {
		if a.ID == id && a.Role == RoleWaiter {
			a.PasswordHash = hash
			return *a, nil
		}
	}
	return Account{}, ErrAccountNotFound
}

func (d *Directory) DeleteWaiter(id int64) (Account, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	for i, a := range d.accounts {
		if a.ID == id && a.Role == RoleWaiter {
			gone := *a
			d.accounts = append(d.accounts[:i], d.accounts[i+1:]...)
			return gone, nil
		}
	}
	return Account{}, ErrAccountNotFound
}
