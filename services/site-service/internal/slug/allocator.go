package slug

import (
	"context"
	"fmt"
	"strings"

	"github.com/md-rashed-zaman/bizsites/services/site-service/internal/apperr"
)

const (
	maxSuggestions     = 3
	maxSuggestionProbe = 50
)

// Checker answers whether a slug is already stored.
type Checker interface {
	SlugExists(ctx context.Context, slug string) (bool, error)
}

type Allocation struct {
	Slug            string
	SubdomainURL    string
	SubdirectoryURL string
}

type Availability struct {
	Slug        string
	Available   bool
	Suggestions []string
}

// Allocator picks free slugs. It never writes; the caller persists the slug
// and must treat a unique violation on insert as "taken".
type Allocator struct {
	checker Checker
	deploy  DeploymentConfig
}

func NewAllocator(checker Checker, deploy DeploymentConfig) *Allocator {
	return &Allocator{checker: checker, deploy: deploy}
}

func (a *Allocator) Deployment() DeploymentConfig {
	return a.deploy
}

// Allocate returns the preferred slug when it normalizes to a valid, free
// value. Otherwise it probes base, base-1, base-2, ... derived from the
// business name and returns the first free candidate.
func (a *Allocator) Allocate(ctx context.Context, businessName, preferred string) (Allocation, error) {
	if strings.TrimSpace(preferred) != "" {
		p := Normalize(preferred)
		if Valid(p) {
			taken, err := a.taken(ctx, p)
			if err != nil {
				return Allocation{}, err
			}
			if !taken {
				return a.allocation(p), nil
			}
		}
	}

	base := Base(businessName)
	candidate := base
	for n := 1; ; n++ {
		taken, err := a.taken(ctx, candidate)
		if err != nil {
			return Allocation{}, err
		}
		if !taken {
			return a.allocation(candidate), nil
		}
		if err := ctx.Err(); err != nil {
			return Allocation{}, err
		}
		candidate = WithSuffix(base, n)
	}
}

// Check validates raw as-is and reports whether it is free. When taken, up to
// three free alternatives raw-1, raw-2, ... are suggested.
func (a *Allocator) Check(ctx context.Context, raw string) (Availability, error) {
	s := strings.TrimSpace(raw)
	if !Valid(s) {
		return Availability{}, apperr.Validation("slug", fmt.Sprintf(
			"must be %d-%d characters of lowercase letters, digits or hyphens", MinLength, MaxLength))
	}

	taken, err := a.taken(ctx, s)
	if err != nil {
		return Availability{}, err
	}
	if !taken {
		return Availability{Slug: s, Available: true}, nil
	}

	var suggestions []string
	for n := 1; n <= maxSuggestionProbe && len(suggestions) < maxSuggestions; n++ {
		candidate := WithSuffix(s, n)
		t, err := a.taken(ctx, candidate)
		if err != nil {
			return Availability{}, err
		}
		if !t {
			suggestions = append(suggestions, candidate)
		}
	}
	return Availability{Slug: s, Available: false, Suggestions: suggestions}, nil
}

func (a *Allocator) taken(ctx context.Context, s string) (bool, error) {
	if Reserved(s) {
		return true, nil
	}
	exists, err := a.checker.SlugExists(ctx, s)
	if err != nil {
		return false, fmt.Errorf("check slug %q: %w", s, err)
	}
	return exists, nil
}

func (a *Allocator) allocation(s string) Allocation {
	sub, dir := a.deploy.URLs(s)
	return Allocation{Slug: s, SubdomainURL: sub, SubdirectoryURL: dir}
}
