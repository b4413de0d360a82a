package access

import (
	"fmt"
	"net/http"
	"strings"
)

// Action is the operation a request performs on a resource.
type Action int

const (
	ActionList Action = iota + 1
	ActionRetrieve
	ActionCreate
	ActionUpdate
	ActionDelete
)

func (a Action) String() string {
	switch a {
	case ActionList:
		return "list"
	case ActionRetrieve:
		return "retrieve"
	case ActionCreate:
		return "create"
	case ActionUpdate:
		return "update"
	case ActionDelete:
		return "delete"
	default:
		return fmt.Sprintf("action(%d)", int(a))
	}
}

// IsSafeMethod reports whether the HTTP method is defined not to mutate state.
func IsSafeMethod(method string) bool {
	switch strings.ToUpper(method) {
	case http.MethodGet, http.MethodHead, http.MethodOptions:
		return true
	}
	return false
}
