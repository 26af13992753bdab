// internal/launchpad/catalog.go
package launchpad

import (
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/gagliardetto/solana-go"
	"go.uber.org/zap"

	"github.com/rovshanmuradov/mintwatch/internal/domain"
)

// Handle is a running program-log watcher.
type Handle interface {
	Stop()
}

// Subscriber starts log watchers for launchpad programs.
type Subscriber interface {
	Watch(lp domain.Launchpad) (Handle, error)
}

// ParseCatalog parses "name:programId,name:programId". Invalid program ids
// are skipped with a warning; duplicate names are kept in order.
func ParseCatalog(raw string, logger *zap.Logger) []domain.Launchpad {
	var out []domain.Launchpad
	for _, pair := range strings.Split(raw, ",") {
		pair = strings.TrimSpace(pair)
		if pair == "" {
			continue
		}
		name, pid, found := strings.Cut(pair, ":")
		name = strings.ToLower(strings.TrimSpace(name))
		pid = strings.TrimSpace(pid)
		if !found || name == "" || pid == "" {
			logger.Warn("Ignoring malformed launchpad entry", zap.String("entry", pair))
			continue
		}
		programID, err := solana.PublicKeyFromBase58(pid)
		if err != nil {
			logger.Warn("Ignoring invalid launchpad program id",
				zap.String("entry", pair),
				zap.Error(err))
			continue
		}
		out = append(out, domain.Launchpad{Name: name, ProgramID: programID})
	}
	return out
}

// Catalog holds the known launchpads and the active (watched) subset.
type Catalog struct {
	entries    []domain.Launchpad
	subscriber Subscriber
	logger     *zap.Logger

	mu     sync.Mutex
	active map[string]Handle
}

// NewCatalog creates a catalog. subscriber may be nil, in which case
// activation only updates state.
func NewCatalog(entries []domain.Launchpad, subscriber Subscriber, logger *zap.Logger) *Catalog {
	return &Catalog{
		entries:    append([]domain.Launchpad(nil), entries...),
		subscriber: subscriber,
		logger:     logger.Named("launchpads"),
		active:     make(map[string]Handle),
	}
}

// SetSubscriber wires the watcher manager after construction; the manager
// itself needs the catalog, so one side is always set late.
func (c *Catalog) SetSubscriber(s Subscriber) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.subscriber = s
}

// Entries returns a copy of the catalog in declaration order.
func (c *Catalog) Entries() []domain.Launchpad {
	return append([]domain.Launchpad(nil), c.entries...)
}

// Available returns every catalog name.
func (c *Catalog) Available() []string {
	names := make([]string, 0, len(c.entries))
	for _, e := range c.entries {
		names = append(names, e.Name)
	}
	return names
}

// Active returns the watched names, sorted.
func (c *Catalog) Active() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.activeLocked()
}

func (c *Catalog) activeLocked() []string {
	names := make([]string, 0, len(c.active))
	for n := range c.active {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Lookup returns the first entry with the given name.
func (c *Catalog) Lookup(name string) (domain.Launchpad, bool) {
	name = strings.ToLower(strings.TrimSpace(name))
	for _, e := range c.entries {
		if e.Name == name {
			return e, true
		}
	}
	return domain.Launchpad{}, false
}

// SetActive makes exactly the known names in names active. Unknown names
// are ignored. Returns the resulting active set.
func (c *Catalog) SetActive(names []string) []string {
	wanted := c.known(names)

	c.mu.Lock()
	defer c.mu.Unlock()

	for name := range c.active {
		if _, ok := wanted[name]; !ok {
			c.stopLocked(name)
		}
	}
	for name := range wanted {
		if _, ok := c.active[name]; !ok {
			c.startLocked(name)
		}
	}
	return c.activeLocked()
}

// Activate adds names to the active set.
func (c *Catalog) Activate(names []string) []string {
	wanted := c.known(names)

	c.mu.Lock()
	defer c.mu.Unlock()
	for name := range wanted {
		if _, ok := c.active[name]; !ok {
			c.startLocked(name)
		}
	}
	return c.activeLocked()
}

// Deactivate removes names from the active set.
func (c *Catalog) Deactivate(names []string) []string {
	wanted := c.known(names)

	c.mu.Lock()
	defer c.mu.Unlock()
	for name := range wanted {
		if _, ok := c.active[name]; ok {
			c.stopLocked(name)
		}
	}
	return c.activeLocked()
}

// Close stops every active watcher.
func (c *Catalog) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	for name := range c.active {
		c.stopLocked(name)
	}
	return nil
}

func (c *Catalog) known(names []string) map[string]struct{} {
	out := make(map[string]struct{}, len(names))
	for _, n := range names {
		n = strings.ToLower(strings.TrimSpace(n))
		if _, ok := c.Lookup(n); ok {
			out[n] = struct{}{}
		}
	}
	return out
}

func (c *Catalog) startLocked(name string) {
	lp, _ := c.Lookup(name)
	var h Handle
	if c.subscriber != nil {
		var err error
		h, err = c.subscriber.Watch(lp)
		if err != nil {
			c.logger.Warn("Launchpad subscription failed",
				zap.String("launchpad", name),
				zap.Error(err))
			return
		}
	}
	c.active[name] = h
	c.logger.Info("Launchpad subscribed",
		zap.String("launchpad", name),
		zap.String("program", lp.ProgramID.String()))
}

func (c *Catalog) stopLocked(name string) {
	if h := c.active[name]; h != nil {
		h.Stop()
	}
	delete(c.active, name)
	c.logger.Info("Launchpad unsubscribed", zap.String("launchpad", name))
}

// ClassifyOwnerProgram returns the tag of the first catalog entry whose
// program id equals owner. Active state does not matter.
func (c *Catalog) ClassifyOwnerProgram(owner solana.PublicKey) (string, bool) {
	for _, e := range c.entries {
		if e.ProgramID.Equals(owner) {
			return e.Name, true
		}
	}
	return "", false
}

// String is used in startup logs.
func (c *Catalog) String() string {
	return fmt.Sprintf("catalog(%s)", strings.Join(c.Available(), ","))
}
