package echoapi

import (
	"encoding/json"
	"reflect"
	"strings"

	"github.com/specedu/caseboard/core"
	"github.com/specedu/caseboard/core/user"
)

type (
	DataResponse struct {
		Data interface{} `json:"data"`
	}

	MessageResponse struct {
		Message string      `json:"message"`
		Data    interface{} `json:"data,omitempty"`
	}

	SummaryResponse struct {
		Summary string `json:"summary"`
	}

	HealthResponse struct {
		OK bool `json:"ok"`
	}

	ReplyRequest struct {
		Reply string `json:"reply" validate:"required,notblank"`
	}

	// RoleList is a list of role tags sent either as a JSON array or as a comma separated string.
	RoleList []string
)

var jsonStringType = reflect.TypeOf("")

func (r *ReplyRequest) clean() {
	r.Reply = core.CleanString(r.Reply)
}

func (rl *RoleList) UnmarshalJSON(data []byte) error {
	var raw interface{}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	var roles []string
	switch v := raw.(type) {
	case nil:
	case string:
		roles = user.SplitRoles(v)
	case []interface{}:
		for _, elem := range v {
			s, ok := elem.(string)
			if !ok {
				return &json.UnmarshalTypeError{Value: "array element", Type: jsonStringType}
			}
			if s = core.CleanString(s, true); s != "" {
				roles = append(roles, s)
			}
		}
	default:
		return &json.UnmarshalTypeError{Value: "target_role", Type: jsonStringType}
	}
	*rl = roles
	return nil
}

// String joins the roles the way the questions table stores them.
func (rl RoleList) String() string {
	return strings.Join(rl, ",")
}
