// Package model holds the records served by the API and their input
// validation.
package model

import (
	"fmt"
	"strings"
	"time"
)

const (
	MaxCatNameLen         = 16
	MaxAchievementNameLen = 64
)

// Cat is the primary resource. Owner is the username of the creating user
// and is never taken from client input.
type Cat struct {
	ID           int64
	Name         string
	Color        string
	BirthYear    int
	Owner        string
	Achievements []int64
}

func (c Cat) RecordID() int64 { return c.ID }

func (c Cat) WithID(id int64) Cat {
	c.ID = id
	c.Achievements = append([]int64(nil), c.Achievements...)
	return c
}

func (c Cat) OwnerRef() string { return c.Owner }

// Age is the cat's age in whole years at now.
func (c Cat) Age(now time.Time) int {
	age := now.Year() - c.BirthYear
	if age < 0 {
		return 0
	}
	return age
}

func (c Cat) FieldValue(name string) (any, bool) {
	switch name {
	case "id":
		return c.ID, true
	case "name":
		return c.Name, true
	case "color":
		return c.Color, true
	case "birth_year":
		return int64(c.BirthYear), true
	case "owner":
		return c.Owner, true
	default:
		return nil, false
	}
}

// AchievementRef names an achievement inside a cat payload.
type AchievementRef struct {
	Name string `json:"name"`
}

// CatInput is the client payload for create and update. Nil fields are
// left unchanged on a partial update. Any owner field in the payload is
// ignored.
type CatInput struct {
	Name         *string           `json:"name"`
	Color        *string           `json:"color"`
	BirthYear    *int              `json:"birth_year"`
	Achievements *[]AchievementRef `json:"achievements"`
}

// Validate checks the payload. partial relaxes the required fields for
// PATCH. now bounds the birth year.
func (in *CatInput) Validate(partial bool, now time.Time) map[string]string {
	problems := map[string]string{}

	if in.Name != nil {
		name := strings.TrimSpace(*in.Name)
		switch {
		case name == "":
			problems["name"] = "must not be blank"
		case len([]rune(name)) > MaxCatNameLen:
			problems["name"] = fmt.Sprintf("at most %d characters", MaxCatNameLen)
		default:
			in.Name = &name
		}
	} else if !partial {
		problems["name"] = "this field is required"
	}

	if in.Color != nil {
		c, err := NormalizeColor(*in.Color)
		if err != nil {
			problems["color"] = err.Error()
		} else {
			in.Color = &c
		}
	} else if !partial {
		problems["color"] = "this field is required"
	}

	if in.BirthYear != nil {
		if *in.BirthYear <= 0 || *in.BirthYear > now.Year() {
			problems["birth_year"] = fmt.Sprintf("must be between 1 and %d", now.Year())
		}
	} else if !partial {
		problems["birth_year"] = "this field is required"
	}

	if in.Achievements != nil {
		for _, a := range *in.Achievements {
			if msg := validateAchievementName(a.Name); msg != "" {
				problems["achievements"] = msg
				break
			}
		}
	}

	if len(problems) == 0 {
		return nil
	}
	return problems
}

// Apply copies the set fields of in onto c.
func (in CatInput) Apply(c *Cat) {
	if in.Name != nil {
		c.Name = *in.Name
	}
	if in.Color != nil {
		c.Color = *in.Color
	}
	if in.BirthYear != nil {
		c.BirthYear = *in.BirthYear
	}
}
