package model

import (
	"fmt"
	"strings"
)

// Achievement is a named award; names are unique.
type Achievement struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

func (a Achievement) RecordID() int64 { return a.ID }

func (a Achievement) WithID(id int64) Achievement {
	a.ID = id
	return a
}

func (a Achievement) FieldValue(name string) (any, bool) {
	switch name {
	case "id":
		return a.ID, true
	case "name":
		return a.Name, true
	default:
		return nil, false
	}
}

type AchievementInput struct {
	Name *string `json:"name"`
}

func (in *AchievementInput) Validate() map[string]string {
	if in.Name == nil {
		return map[string]string{"name": "this field is required"}
	}
	name := strings.TrimSpace(*in.Name)
	if msg := validateAchievementName(name); msg != "" {
		return map[string]string{"name": msg}
	}
	in.Name = &name
	return nil
}

func validateAchievementName(name string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		return "must not be blank"
	}
	if len([]rune(name)) > MaxAchievementNameLen {
		return fmt.Sprintf("at most %d characters", MaxAchievementNameLen)
	}
	return ""
}
