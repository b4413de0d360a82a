package model

import (
	"testing"
	"time"
)

import (
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func strp(s string) *string { return &s }
func intp(i int) *int       { return &i }

var now = time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

func TestNormalizeColor(t *testing.T) {
	cases := []struct {
		in, want string
		ok       bool
	}{
		{"Black", "black", true},
		{" white ", "white", true},
		{"#000000", "black", true},
		{"#FFFFFF", "white", true},
		{"#123456", "", false},
		{"octarine", "", false},
		{"", "", false},
	}
	for _, tc := range cases {
		got, err := NormalizeColor(tc.in)
		if !tc.ok {
			assert.Error(t, err, tc.in)
			continue
		}
		require.NoError(t, err, tc.in)
		assert.Equal(t, tc.want, got)
	}
}

func TestCatInputValidateCreate(t *testing.T) {
	in := CatInput{Name: strp(" Barsik "), Color: strp("#000000"), BirthYear: intp(2020)}
	assert.Nil(t, in.Validate(false, now))
	assert.Equal(t, "Barsik", *in.Name)
	assert.Equal(t, "black", *in.Color)

	var c Cat
	in.Apply(&c)
	assert.Equal(t, Cat{Name: "Barsik", Color: "black", BirthYear: 2020}, c)
}

func TestCatInputValidateProblems(t *testing.T) {
	in := CatInput{Name: strp(""), Color: strp("octarine"), BirthYear: intp(2030)}
	problems := in.Validate(false, now)
	assert.Contains(t, problems, "name")
	assert.Contains(t, problems, "color")
	assert.Contains(t, problems, "birth_year")

	missing := CatInput{}
	problems = missing.Validate(false, now)
	assert.Len(t, problems, 3)

	assert.Nil(t, missing.Validate(true, now))
}

func TestCatInputRejectsLongName(t *testing.T) {
	in := CatInput{Name: strp("abcdefghijklmnopq"), Color: strp("black"), BirthYear: intp(2020)}
	assert.Contains(t, in.Validate(false, now), "name")
}

func TestCatInputRejectsBlankAchievement(t *testing.T) {
	refs := []AchievementRef{{Name: "mouser"}, {Name: " "}}
	in := CatInput{Achievements: &refs}
	assert.Contains(t, in.Validate(true, now), "achievements")
}

func TestCatAge(t *testing.T) {
	assert.Equal(t, 4, Cat{BirthYear: 2020}.Age(now))
	assert.Equal(t, 0, Cat{BirthYear: 2030}.Age(now))
}

func TestCatFieldValue(t *testing.T) {
	c := Cat{ID: 7, Name: "Murka", Color: "gray", BirthYear: 2019, Owner: "alice"}

	v, ok := c.FieldValue("birth_year")
	assert.True(t, ok)
	assert.Equal(t, int64(2019), v)

	_, ok = c.FieldValue("achievements")
	assert.False(t, ok)
	assert.Equal(t, "alice", c.OwnerRef())
}

func TestAchievementInputValidate(t *testing.T) {
	in := AchievementInput{Name: strp("  catches mice ")}
	assert.Nil(t, in.Validate())
	assert.Equal(t, "catches mice", *in.Name)

	assert.Contains(t, (&AchievementInput{}).Validate(), "name")
	assert.Contains(t, (&AchievementInput{Name: strp(" ")}).Validate(), "name")
}
