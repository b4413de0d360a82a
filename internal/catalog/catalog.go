// Package catalog implements the data operations behind the cats, users
// and achievements endpoints on top of the storage tables.
package catalog

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"sync"
)

import (
	"github.com/nanjiek/pixiu-cats/internal/apperr"
	"github.com/nanjiek/pixiu-cats/internal/clock"
	"github.com/nanjiek/pixiu-cats/internal/config"
	"github.com/nanjiek/pixiu-cats/internal/listing"
	"github.com/nanjiek/pixiu-cats/internal/model"
	"github.com/nanjiek/pixiu-cats/internal/store"
)

// CatView is the API representation of a cat.
type CatView struct {
	ID           int64               `json:"id"`
	Name         string              `json:"name"`
	Color        string              `json:"color"`
	BirthYear    int                 `json:"birth_year"`
	Owner        string              `json:"owner"`
	Achievements []model.Achievement `json:"achievements"`
	Age          int                 `json:"age"`
}

// UserView is the API representation of a user with the ids of the cats
// they own.
type UserView struct {
	ID        int64   `json:"id"`
	Username  string  `json:"username"`
	FirstName string  `json:"first_name"`
	LastName  string  `json:"last_name"`
	Cats      []int64 `json:"cats"`
}

var catsByID = listing.Query{Ordering: []listing.Order{{Field: "id"}}}

type Service struct {
	Cats         *store.Table[model.Cat]
	Users        *store.Table[model.User]
	Achievements *store.Table[model.Achievement]

	clock clock.Clock
	names sync.Mutex // guards achievement name uniqueness
}

func New(clk clock.Clock) *Service {
	if clk == nil {
		clk = clock.System{}
	}
	return &Service{
		Cats:         store.NewTable[model.Cat]("cat"),
		Users:        store.NewTable[model.User]("user"),
		Achievements: store.NewTable[model.Achievement]("achievement"),
		clock:        clk,
	}
}

// SeedUsers creates the configured users, skipping usernames that exist.
func (s *Service) SeedUsers(ctx context.Context, users []config.UserCfg) error {
	for _, u := range users {
		name := strings.TrimSpace(u.Username)
		if name == "" {
			return fmt.Errorf("seed users: empty username")
		}
		if _, ok, err := s.Users.Find(ctx, func(x model.User) bool { return x.Username == name }); err != nil {
			return err
		} else if ok {
			continue
		}
		if _, err := s.Users.Create(ctx, model.User{Username: name, FirstName: u.FirstName, LastName: u.LastName}); err != nil {
			return fmt.Errorf("seed user %s: %w", name, err)
		}
	}
	return nil
}

// CatViewer returns a function rendering cats with their achievements and
// age at the current clock time.
func (s *Service) CatViewer(ctx context.Context) func(model.Cat) CatView {
	now := s.clock.Now()
	return func(c model.Cat) CatView {
		v := CatView{
			ID:           c.ID,
			Name:         c.Name,
			Color:        c.Color,
			BirthYear:    c.BirthYear,
			Owner:        c.Owner,
			Achievements: make([]model.Achievement, 0, len(c.Achievements)),
			Age:          c.Age(now),
		}
		for _, id := range c.Achievements {
			if a, err := s.Achievements.Get(ctx, id); err == nil {
				v.Achievements = append(v.Achievements, a)
			}
		}
		return v
	}
}

// UserViewer returns a function rendering users with their cat ids. Cat
// ownership is read on the first call, so building the viewer touches no
// storage.
func (s *Service) UserViewer(ctx context.Context) func(model.User) UserView {
	var (
		once  sync.Once
		owned map[string][]int64
	)
	return func(u model.User) UserView {
		once.Do(func() {
			owned = map[string][]int64{}
			if all, err := s.Cats.List(ctx, catsByID); err == nil {
				for _, c := range all {
					owned[c.Owner] = append(owned[c.Owner], c.ID)
				}
			}
		})
		cats := owned[u.Username]
		if cats == nil {
			cats = []int64{}
		}
		return UserView{
			ID:        u.ID,
			Username:  u.Username,
			FirstName: u.FirstName,
			LastName:  u.LastName,
			Cats:      cats,
		}
	}
}

// CreateCat stores a new cat owned by owner. The owner comes from the
// caller identity, never from the payload.
func (s *Service) CreateCat(ctx context.Context, owner string, in model.CatInput) (CatView, error) {
	if owner == "" {
		return CatView{}, apperr.Denied("authentication required")
	}
	if problems := in.Validate(false, s.clock.Now()); problems != nil {
		return CatView{}, invalid(problems)
	}
	c := model.Cat{Owner: owner}
	in.Apply(&c)
	if in.Achievements != nil {
		ids, err := s.resolveAchievements(ctx, *in.Achievements)
		if err != nil {
			return CatView{}, err
		}
		c.Achievements = ids
	}
	created, err := s.Cats.Create(ctx, c)
	if err != nil {
		return CatView{}, err
	}
	return s.CatViewer(ctx)(created), nil
}

// UpdateCat replaces (partial=false) or patches the fields of cur. The
// owner never changes.
func (s *Service) UpdateCat(ctx context.Context, cur model.Cat, in model.CatInput, partial bool) (CatView, error) {
	if problems := in.Validate(partial, s.clock.Now()); problems != nil {
		return CatView{}, invalid(problems)
	}
	var ids []int64
	if in.Achievements != nil {
		var err error
		if ids, err = s.resolveAchievements(ctx, *in.Achievements); err != nil {
			return CatView{}, err
		}
	}
	updated, err := s.Cats.Update(ctx, cur.ID, func(c *model.Cat) error {
		owner := c.Owner
		in.Apply(c)
		if in.Achievements != nil {
			c.Achievements = ids
		}
		c.Owner = owner
		return nil
	})
	if err != nil {
		return CatView{}, err
	}
	return s.CatViewer(ctx)(updated), nil
}

func (s *Service) DeleteCat(ctx context.Context, c model.Cat) error {
	return s.Cats.Delete(ctx, c.ID)
}

// CreateAchievement stores a new achievement. Names are unique.
func (s *Service) CreateAchievement(ctx context.Context, in model.AchievementInput) (model.Achievement, error) {
	if problems := in.Validate(); problems != nil {
		return model.Achievement{}, invalid(problems)
	}
	s.names.Lock()
	defer s.names.Unlock()

	if _, ok, err := s.findAchievement(ctx, *in.Name); err != nil {
		return model.Achievement{}, err
	} else if ok {
		return model.Achievement{}, apperr.ValidationField("name", "achievement with this name already exists")
	}
	return s.Achievements.Create(ctx, model.Achievement{Name: *in.Name})
}

func (s *Service) UpdateAchievement(ctx context.Context, cur model.Achievement, in model.AchievementInput) (model.Achievement, error) {
	if problems := in.Validate(); problems != nil {
		return model.Achievement{}, invalid(problems)
	}
	s.names.Lock()
	defer s.names.Unlock()

	if other, ok, err := s.findAchievement(ctx, *in.Name); err != nil {
		return model.Achievement{}, err
	} else if ok && other.ID != cur.ID {
		return model.Achievement{}, apperr.ValidationField("name", "achievement with this name already exists")
	}
	return s.Achievements.Update(ctx, cur.ID, func(a *model.Achievement) error {
		a.Name = *in.Name
		return nil
	})
}

// DeleteAchievement removes the achievement and unlinks it from every cat.
func (s *Service) DeleteAchievement(ctx context.Context, a model.Achievement) error {
	if err := s.Achievements.Delete(ctx, a.ID); err != nil {
		return err
	}
	all, err := s.Cats.List(ctx, catsByID)
	if err != nil {
		return err
	}
	for _, c := range all {
		if !slices.Contains(c.Achievements, a.ID) {
			continue
		}
		_, err := s.Cats.Update(ctx, c.ID, func(c *model.Cat) error {
			c.Achievements = slices.DeleteFunc(c.Achievements, func(id int64) bool { return id == a.ID })
			return nil
		})
		if err != nil && !errors.Is(err, store.ErrNotFound) {
			return err
		}
	}
	return nil
}

// resolveAchievements maps names to ids, creating achievements that do
// not exist yet. Duplicate names collapse to one id.
func (s *Service) resolveAchievements(ctx context.Context, refs []model.AchievementRef) ([]int64, error) {
	s.names.Lock()
	defer s.names.Unlock()

	ids := make([]int64, 0, len(refs))
	for _, ref := range refs {
		name := strings.TrimSpace(ref.Name)
		a, ok, err := s.findAchievement(ctx, name)
		if err != nil {
			return nil, err
		}
		if !ok {
			if a, err = s.Achievements.Create(ctx, model.Achievement{Name: name}); err != nil {
				return nil, err
			}
		}
		if !slices.Contains(ids, a.ID) {
			ids = append(ids, a.ID)
		}
	}
	return ids, nil
}

func (s *Service) findAchievement(ctx context.Context, name string) (model.Achievement, bool, error) {
	return s.Achievements.Find(ctx, func(a model.Achievement) bool {
		return strings.EqualFold(a.Name, name)
	})
}

func invalid(problems map[string]string) *apperr.Error {
	return &apperr.Error{
		Kind:    apperr.KindValidationFailed,
		Message: "invalid input",
		Fields:  problems,
	}
}
