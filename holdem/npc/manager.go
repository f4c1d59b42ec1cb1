package npc

import (
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"holdem-live/holdem"
)

// Instance is a bot seated at a table.
type Instance struct {
	Username   string
	Persona    *Persona
	Brain      BrainDecider
	ThinkDelay time.Duration
}

// Manager tracks the bots of one table and asks them for decisions.
type Manager struct {
	registry  *PersonaRegistry
	instances map[string]*Instance // keyed by username
	mu        sync.RWMutex
	rng       *rand.Rand
	nextID    int
	log       logrus.FieldLogger

	// MaxThinkDelay bounds the simulated thinking time; zero means act on
	// the next tick.
	MaxThinkDelay time.Duration
}

func NewManager(registry *PersonaRegistry, seed int64, log logrus.FieldLogger) *Manager {
	if registry == nil {
		registry = DefaultRegistry()
	}
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Manager{
		registry:      registry,
		instances:     make(map[string]*Instance),
		rng:           rand.New(rand.NewSource(seed)),
		log:           log,
		MaxThinkDelay: 3 * time.Second,
	}
}

func (m *Manager) Registry() *PersonaRegistry { return m.registry }

// Spawn creates a bot for personaID (a random persona when empty). The
// caller seats it at the table under the returned username.
func (m *Manager) Spawn(personaID string) (*Instance, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var persona *Persona
	if personaID == "" {
		all := m.registry.All()
		if len(all) == 0 {
			return nil, fmt.Errorf("no bot personas registered")
		}
		persona = all[m.rng.Intn(len(all))]
	} else if persona = m.registry.Get(personaID); persona == nil {
		return nil, fmt.Errorf("unknown bot persona %q", personaID)
	}

	m.nextID++
	inst := &Instance{
		Username: fmt.Sprintf("%s_bot%d", persona.ID, m.nextID),
		Persona:  persona,
		Brain:    NewRuleBrain(persona, m.rng.Int63()),
	}
	if m.MaxThinkDelay > 0 {
		inst.ThinkDelay = time.Duration(float64(m.MaxThinkDelay) * (0.3 + 0.7*m.rng.Float64()))
	}
	m.instances[inst.Username] = inst
	m.log.Infof("[NPC] Spawned %s as %s", persona.Name, inst.Username)
	return inst, nil
}

// OnTurn asks the bot for its action on t.
func (m *Manager) OnTurn(t *holdem.Table, username string) holdem.Action {
	m.mu.RLock()
	inst := m.instances[username]
	m.mu.RUnlock()
	if inst == nil {
		m.log.Warnf("[NPC] OnTurn called for unknown bot %s", username)
		return holdem.Fold()
	}
	decision := inst.Brain.Decide(BuildView(t, username))
	m.log.Debugf("[NPC] %s decides: %s", username, decision)
	return decision
}

func (m *Manager) IsBot(username string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.instances[username] != nil
}

// Bots lists the usernames of the tracked bots.
func (m *Manager) Bots() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]string, 0, len(m.instances))
	for name := range m.instances {
		out = append(out, name)
	}
	return out
}

func (m *Manager) Despawn(username string) {
	m.mu.Lock()
	inst := m.instances[username]
	delete(m.instances, username)
	m.mu.Unlock()
	if inst != nil {
		m.log.Infof("[NPC] Despawned %s", username)
	}
}

func (m *Manager) ThinkDelay(username string) time.Duration {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if inst := m.instances[username]; inst != nil {
		return inst.ThinkDelay
	}
	return 0
}
