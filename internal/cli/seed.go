package cli

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	domainagg "github.com/tnahs/hlts/internal/domain/aggregates"
	"github.com/tnahs/hlts/internal/domain/knowledge"
	"github.com/tnahs/hlts/internal/platform/dbctx"
	"github.com/tnahs/hlts/internal/app"
	"github.com/tnahs/hlts/internal/services"
)

// Fixtures is the YAML document `hltsadm seed` imports. Names that already
// exist are reused, so seeding the same file twice only adds nodes.
type Fixtures struct {
	Tags        []string            `yaml:"tags"`
	Collections []collectionFixture `yaml:"collections"`
	Origins     []string            `yaml:"origins"`
	Topics      []string            `yaml:"topics"`
	Individuals []individualFixture `yaml:"individuals"`
	Nodes       []nodeFixture       `yaml:"nodes"`
}

type collectionFixture struct {
	Name        string `yaml:"name"`
	Color       string `yaml:"color"`
	Description string `yaml:"description"`
}

type individualFixture struct {
	Name      string   `yaml:"name"`
	FirstName string   `yaml:"first_name"`
	LastName  string   `yaml:"last_name"`
	Aka       []string `yaml:"aka"`
}

type sourceFixture struct {
	Name        string   `yaml:"name"`
	Individuals []string `yaml:"individuals"`
	URL         string   `yaml:"url"`
	Date        string   `yaml:"date"`
	Notes       string   `yaml:"notes"`
}

type nodeFixture struct {
	Body        string         `yaml:"body"`
	Notes       string         `yaml:"notes"`
	Source      *sourceFixture `yaml:"source"`
	Origin      string         `yaml:"origin"`
	Tags        []string       `yaml:"tags"`
	Collections []string       `yaml:"collections"`
	Topics      []string       `yaml:"topics"`
	Starred     bool           `yaml:"starred"`
}

type SeedReport struct {
	Attributes  int `json:"attributes"`
	Individuals int `json:"individuals"`
	Nodes       int `json:"nodes"`
}

func LoadFixtures(path string) (*Fixtures, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read fixtures: %w", err)
	}
	var fx Fixtures
	if err := yaml.Unmarshal(raw, &fx); err != nil {
		return nil, fmt.Errorf("parse fixtures %s: %w", path, err)
	}
	return &fx, nil
}

func (a *admin) seedCmd() *cobra.Command {
	var (
		owner string
		file  string
	)
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Import a YAML fixture file for an owner",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			userID, err := parseOwner(owner)
			if err != nil {
				return err
			}
			fx, err := LoadFixtures(file)
			if err != nil {
				return err
			}
			return a.withEnv(cmd, func(ctx context.Context, env *Env) error {
				if err := env.Core.Services.Owners.EnsureDefaults(ctx, userID); err != nil {
					return err
				}
				report, err := Seed(ctx, env.Core.Services, env.Core.Repos.Individuals, userID, fx)
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), report)
			})
		},
	}
	addOwnerFlag(cmd, &owner)
	cmd.Flags().StringVarP(&file, "file", "f", "", "Fixture YAML file")
	_ = cmd.MarkFlagRequired("file")
	return cmd
}

type individualLookup interface {
	GetByName(dbc dbctx.Context, userID uuid.UUID, name string) (*knowledge.Individual, error)
}

// Seed writes fx for owner through the regular services.
func Seed(ctx context.Context, svc app.Services, lookup individualLookup, owner uuid.UUID, fx *Fixtures) (SeedReport, error) {
	var report SeedReport

	for _, name := range fx.Tags {
		created, err := seedAttribute(ctx, svc.Tags, owner, services.AttributeInput{Name: &name})
		if err != nil {
			return report, err
		}
		report.Attributes += created
	}
	for _, c := range fx.Collections {
		in := services.AttributeInput{Name: &c.Name}
		if c.Color != "" {
			in.Color = &c.Color
		}
		if c.Description != "" {
			in.Description = &c.Description
		}
		created, err := seedAttribute(ctx, svc.Collections, owner, in)
		if err != nil {
			return report, err
		}
		report.Attributes += created
	}
	for _, name := range fx.Origins {
		created, err := seedAttribute(ctx, svc.Origins, owner, services.AttributeInput{Name: &name})
		if err != nil {
			return report, err
		}
		report.Attributes += created
	}
	for _, name := range fx.Topics {
		created, err := seedAttribute(ctx, svc.Topics, owner, services.AttributeInput{Name: &name})
		if err != nil {
			return report, err
		}
		report.Attributes += created
	}

	for _, ind := range fx.Individuals {
		created, err := seedIndividual(ctx, svc.Individuals, lookup, owner, ind)
		if err != nil {
			return report, err
		}
		if created {
			report.Individuals++
		}
	}

	for i, n := range fx.Nodes {
		in := domainagg.CreateNodeInput{
			UserID:      owner,
			Body:        n.Body,
			Notes:       n.Notes,
			Origin:      n.Origin,
			Tags:        n.Tags,
			Collections: n.Collections,
			Topics:      n.Topics,
			IsStarred:   n.Starred,
		}
		if n.Source != nil {
			spec, err := n.Source.spec()
			if err != nil {
				return report, fmt.Errorf("node %d: %w", i, err)
			}
			in.Source = spec
		}
		if _, err := svc.Nodes.Create(ctx, in); err != nil {
			return report, fmt.Errorf("node %d: %w", i, err)
		}
		report.Nodes++
	}
	return report, nil
}

func seedAttribute[T any](ctx context.Context, svc services.AttributeService[T], owner uuid.UUID, in services.AttributeInput) (int, error) {
	_, err := svc.Create(ctx, owner, in)
	switch {
	case err == nil:
		return 1, nil
	case domainagg.IsCode(err, domainagg.CodeDuplicate):
		return 0, nil
	default:
		return 0, fmt.Errorf("seed %s %q: %w", svc.Kind(), *in.Name, err)
	}
}

// seedIndividual creates ind, or fills in an existing row of the same name.
// Aka names that do not exist yet are created by the resolver.
func seedIndividual(ctx context.Context, svc services.IndividualService, lookup individualLookup, owner uuid.UUID, ind individualFixture) (bool, error) {
	aka := knowledge.RefsByName(ind.Aka...)
	_, err := svc.Create(ctx, domainagg.CreateIndividualInput{
		UserID:    owner,
		Name:      ind.Name,
		FirstName: ind.FirstName,
		LastName:  ind.LastName,
		Aka:       aka,
	})
	if err == nil {
		return true, nil
	}
	if !domainagg.IsCode(err, domainagg.CodeDuplicate) {
		return false, fmt.Errorf("seed individual %q: %w", ind.Name, err)
	}

	existing, err := lookup.GetByName(dbctx.Context{Ctx: ctx}, owner, ind.Name)
	if err != nil || existing == nil {
		return false, fmt.Errorf("seed individual %q: lookup existing: %v", ind.Name, err)
	}
	up := domainagg.UpdateIndividualInput{UserID: owner, IndividualID: existing.ID}
	if ind.FirstName != "" {
		up.FirstName = &ind.FirstName
	}
	if ind.LastName != "" {
		up.LastName = &ind.LastName
	}
	if len(aka) > 0 {
		up.Aka = &aka
	}
	if _, err := svc.Update(ctx, up); err != nil {
		return false, fmt.Errorf("seed individual %q: %w", ind.Name, err)
	}
	return false, nil
}

func (s *sourceFixture) spec() (*domainagg.SourceSpec, error) {
	spec := &domainagg.SourceSpec{
		Name:        s.Name,
		Individuals: knowledge.RefsByName(s.Individuals...),
		URL:         s.URL,
		Notes:       s.Notes,
	}
	if d := strings.TrimSpace(s.Date); d != "" {
		t, err := time.Parse(time.DateOnly, d)
		if err != nil {
			return nil, fmt.Errorf("source %q: date %q is not YYYY-MM-DD", s.Name, d)
		}
		spec.Date = &t
	}
	return spec, nil
}
