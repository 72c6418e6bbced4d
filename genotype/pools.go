package genotype

import (
	"encoding/json"
	"fmt"
	"os"
)

// Pools is the static value catalog the pool-based mutator and crossover
// name-drawing read from (§4.2, §6 mutation_pools). Each field corresponds
// to one of the pool names in the JSON file's keys.
type Pools struct {
	Hobbies             []string `json:"hobbies"`
	CoreValues          []string `json:"core_values"`
	Goals               []string `json:"goals"`
	CommunicationStyles []string `json:"communication_styles"`
	TopicalFocuses      []string `json:"topical_focuses"`
	InteractionPolicies []string `json:"interaction_policies"`
	Occupations         []string `json:"occupations"`
	LifeEvents          []string `json:"life_events"`
	Names               []string `json:"names"`
}

// LoadPools reads a mutation_pools JSON file (§6). Any zero-length field
// falls back to the built-in default so a partial catalog never starves an
// operator of candidates.
func LoadPools(path string) (*Pools, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("genotype: reading mutation pools %s: %w", path, err)
	}
	var p Pools
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("genotype: parsing mutation pools %s: %w", path, err)
	}
	p.fillDefaults()
	return &p, nil
}

// DefaultPools returns the built-in fallback catalog, used when no
// mutation_pools file is configured.
func DefaultPools() *Pools {
	p := &Pools{}
	p.fillDefaults()
	return p
}

func (p *Pools) fillDefaults() {
	d := defaultPools
	if len(p.Hobbies) == 0 {
		p.Hobbies = d.Hobbies
	}
	if len(p.CoreValues) == 0 {
		p.CoreValues = d.CoreValues
	}
	if len(p.Goals) == 0 {
		p.Goals = d.Goals
	}
	if len(p.CommunicationStyles) == 0 {
		p.CommunicationStyles = d.CommunicationStyles
	}
	if len(p.TopicalFocuses) == 0 {
		p.TopicalFocuses = d.TopicalFocuses
	}
	if len(p.InteractionPolicies) == 0 {
		p.InteractionPolicies = d.InteractionPolicies
	}
	if len(p.Occupations) == 0 {
		p.Occupations = d.Occupations
	}
	if len(p.LifeEvents) == 0 {
		p.LifeEvents = d.LifeEvents
	}
	if len(p.Names) == 0 {
		p.Names = d.Names
	}
}

var defaultPools = Pools{
	Hobbies: []string{
		"hiking", "pottery", "chess", "birdwatching", "home brewing",
		"woodworking", "astrophotography", "calligraphy", "urban sketching",
		"distance running", "baking sourdough", "modular synths", "gardening",
	},
	CoreValues: []string{
		"honesty", "curiosity", "loyalty", "independence", "craftsmanship",
		"community", "resilience", "fairness", "ambition", "humility",
	},
	Goals: []string{
		"launch a side project", "read a book a month", "learn a new language",
		"run a marathon", "mentor a junior colleague", "save for a sabbatical",
		"write a novel", "get better at public speaking", "travel somewhere new",
	},
	CommunicationStyles: []string{
		"blunt", "warm and verbose", "dry and sarcastic", "formal", "terse",
		"enthusiastic", "Socratic", "self-deprecating",
	},
	TopicalFocuses: []string{
		"technology", "local politics", "food culture", "climate", "sports",
		"personal finance", "parenting", "travel", "pop culture", "science",
	},
	InteractionPolicies: []string{
		"replies only when directly addressed", "engages liberally",
		"prefers short replies", "asks clarifying questions before replying",
		"avoids arguments", "enjoys friendly debate",
	},
	Occupations: []string{
		"barista", "civil engineer", "elementary teacher", "freelance illustrator",
		"nurse", "software engineer", "small business owner", "line cook",
		"urban planner", "data analyst",
	},
	LifeEvents: []string{
		"moved across the country for a job that didn't work out",
		"took a year off to care for a family member",
		"started over in a new city after a divorce",
		"won a regional award nobody outside the field has heard of",
		"backpacked alone for six months after college",
		"lost a long-time job to automation and retrained",
	},
	Names: []string{
		"Briar", "Soren", "Marisol", "Dax", "Imani", "Petra", "Olamide",
		"Wren", "Tavish", "Nadia", "Callum", "Yeva", "Rosalind", "Kofi",
	},
}
