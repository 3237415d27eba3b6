package skillgraph

import (
	"fmt"
	"sort"

	"github.com/spf13/viper"
	"golang.org/x/mod/semver"
)

// SupportedDocVersion is the graph document major version this build reads.
// Documents from an older or newer major are rejected at load.
const SupportedDocVersion = "v1"

// skillDoc is the on-disk form of a skill entry.
type skillDoc struct {
	ID            string        `mapstructure:"id"`
	Name          string        `mapstructure:"name"`
	Description   string        `mapstructure:"description"`
	Tier          string        `mapstructure:"tier"`
	Keywords      []string      `mapstructure:"keywords"`
	Prerequisites []string      `mapstructure:"prerequisites"`
	Resources     []resourceDoc `mapstructure:"resources"`
}

type resourceDoc struct {
	Title string `mapstructure:"title"`
	URL   string `mapstructure:"url"`
}

// graphDoc is the on-disk form of the whole graph document.
type graphDoc struct {
	Version string                        `mapstructure:"version"`
	Skills  []skillDoc                    `mapstructure:"skills"`
	Roles   map[string]map[string]float64 `mapstructure:"roles"`
}

// Load reads a declarative graph document (YAML), checks its version, and
// builds the validated graph. Any structural problem is a *GraphError; an
// unreadable file is an ordinary wrapped error.
func Load(path string) (*Graph, error) {
	v := viper.New()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("reading graph document %s: %w", path, err)
	}

	var doc graphDoc
	if err := v.Unmarshal(&doc); err != nil {
		return nil, &GraphError{Problems: []string{fmt.Sprintf("decoding graph document: %v", err)}}
	}

	return fromDoc(&doc)
}

// fromDoc converts the decoded document into a Graph. Field-level problems
// (bad version, unknown tier) are collected before structural validation so a
// broken document reports as much as possible in one pass.
func fromDoc(doc *graphDoc) (*Graph, error) {
	var problems []string

	switch {
	case doc.Version == "":
		problems = append(problems, "document missing version")
	case !semver.IsValid(doc.Version):
		problems = append(problems, fmt.Sprintf("document version %q is not a valid semantic version", doc.Version))
	case semver.Major(doc.Version) != SupportedDocVersion:
		problems = append(problems, fmt.Sprintf("document version %s not supported (want major %s)", doc.Version, SupportedDocVersion))
	}

	skills := make([]Skill, 0, len(doc.Skills))
	for _, sd := range doc.Skills {
		tier, err := ParseTier(sd.Tier)
		if err != nil {
			problems = append(problems, fmt.Sprintf("skill %q: %v", sd.ID, err))
		}
		s := Skill{
			ID:            sd.ID,
			Name:          sd.Name,
			Description:   sd.Description,
			Tier:          tier,
			Keywords:      sd.Keywords,
			Prerequisites: sd.Prerequisites,
		}
		if s.Name == "" {
			s.Name = s.ID
		}
		for _, rd := range sd.Resources {
			s.Resources = append(s.Resources, Resource{Title: rd.Title, URL: rd.URL})
		}
		skills = append(skills, s)
	}

	roles := make([]Role, 0, len(doc.Roles))
	for id, targets := range doc.Roles {
		roles = append(roles, Role{ID: id, Targets: targets})
	}
	sort.Slice(roles, func(i, j int) bool { return roles[i].ID < roles[j].ID })

	if len(problems) > 0 {
		// Still run structural validation so everything surfaces together.
		if err := validateGraph(skills, roles); err != nil {
			if ge, ok := err.(*GraphError); ok {
				problems = append(problems, ge.Problems...)
			}
		}
		return nil, &GraphError{Problems: problems}
	}

	return New(skills, roles)
}
