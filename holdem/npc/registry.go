package npc

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"sync"
)

// PersonaRegistry holds all persona definitions.
type PersonaRegistry struct {
	mu       sync.RWMutex
	personas map[string]*Persona
}

func NewRegistry() *PersonaRegistry {
	return &PersonaRegistry{
		personas: make(map[string]*Persona),
	}
}

// DefaultRegistry contains the built-in house personas.
func DefaultRegistry() *PersonaRegistry {
	r := NewRegistry()
	for _, p := range []*Persona{
		{ID: "rock", Name: "Rock", Tagline: "Waits for aces.", Brain: PersonalityProfile{Aggression: 0.3, Tightness: 0.85, Bluffing: 0.05, Randomness: 0.1}},
		{ID: "station", Name: "Station", Tagline: "Calls everything.", Brain: PersonalityProfile{Aggression: 0.1, Tightness: 0.1, Bluffing: 0.0, Randomness: 0.2}},
		{ID: "maniac", Name: "Maniac", Tagline: "Raise first, think later.", Brain: PersonalityProfile{Aggression: 0.9, Tightness: 0.2, Bluffing: 0.6, Randomness: 0.4}},
		{ID: "reg", Name: "Reg", Tagline: "Plays by the book.", Brain: PersonalityProfile{Aggression: 0.6, Tightness: 0.55, Bluffing: 0.2, Randomness: 0.15}},
	} {
		r.personas[p.ID] = p
	}
	return r
}

// LoadFromFile loads personas from a JSON file.
func (r *PersonaRegistry) LoadFromFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read personas file: %w", err)
	}
	return r.LoadFromJSON(data)
}

// LoadFromJSON loads personas from raw JSON bytes. Entries without an id
// are skipped; an existing id is replaced.
func (r *PersonaRegistry) LoadFromJSON(data []byte) error {
	var list []*Persona
	if err := json.Unmarshal(data, &list); err != nil {
		return fmt.Errorf("parse personas JSON: %w", err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	for _, p := range list {
		if p == nil || p.ID == "" {
			continue
		}
		if p.Name == "" {
			p.Name = p.ID
		}
		r.personas[p.ID] = p
	}
	return nil
}

func (r *PersonaRegistry) Get(id string) *Persona {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.personas[id]
}

// All returns the personas ordered by id.
func (r *PersonaRegistry) All() []*Persona {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*Persona, 0, len(r.personas))
	for _, p := range r.personas {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (r *PersonaRegistry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.personas)
}
