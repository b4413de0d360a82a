package model

// User owns cats. Users are read-only through the API and seeded from
// configuration.
type User struct {
	ID        int64
	Username  string
	FirstName string
	LastName  string
}

func (u User) RecordID() int64 { return u.ID }

func (u User) WithID(id int64) User {
	u.ID = id
	return u
}

func (u User) FieldValue(name string) (any, bool) {
	switch name {
	case "id":
		return u.ID, true
	case "username":
		return u.Username, true
	case "first_name":
		return u.FirstName, true
	case "last_name":
		return u.LastName, true
	default:
		return nil, false
	}
}
