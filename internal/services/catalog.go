package services

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

var ErrUnknownDomain = errors.New("invalid domain selected")

// SkillCatalog maps a domain identifier to its required-skills text. It is
// built once at start-up and never mutated.
type SkillCatalog struct {
	skills map[string]string
	ids    []string
}

func NewSkillCatalog(domains map[string]string) (*SkillCatalog, error) {
	if len(domains) == 0 {
		return nil, errors.New("skill catalog needs at least one domain")
	}

	skills := make(map[string]string, len(domains))
	ids := make([]string, 0, len(domains))
	for id, text := range domains {
		id = strings.TrimSpace(id)
		text = strings.TrimSpace(text)
		if id == "" || text == "" {
			return nil, fmt.Errorf("domain %q has no skills", id)
		}
		skills[id] = text
		ids = append(ids, id)
	}
	sort.Strings(ids)

	return &SkillCatalog{skills: skills, ids: ids}, nil
}

// Lookup returns the required skills for a domain or ErrUnknownDomain.
func (c *SkillCatalog) Lookup(domain string) (string, error) {
	text, ok := c.skills[domain]
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownDomain, domain)
	}
	return text, nil
}

func (c *SkillCatalog) Has(domain string) bool {
	_, ok := c.skills[domain]
	return ok
}

// Domains returns the domain ids in sorted order.
func (c *SkillCatalog) Domains() []string {
	return append([]string(nil), c.ids...)
}

// Skills returns a copy of the full table.
func (c *SkillCatalog) Skills() map[string]string {
	out := make(map[string]string, len(c.skills))
	for id, text := range c.skills {
		out[id] = text
	}
	return out
}

// SkillList splits a domain's skills text into individual tokens.
func (c *SkillCatalog) SkillList(domain string) ([]string, error) {
	text, err := c.Lookup(domain)
	if err != nil {
		return nil, err
	}

	var out []string
	for _, token := range strings.Split(text, ",") {
		if token = strings.TrimSpace(token); token != "" {
			out = append(out, token)
		}
	}
	return out, nil
}
