package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/specedu/caseboard/core/user"
)

// Operations guarded by the access policy.
const (
	opRecordList     = "records.list"
	opRecordCreate   = "records.create"
	opRecordReply    = "records.reply"
	opMessageList    = "messages.list"
	opMessageCreate  = "messages.create"
	opMessageSummary = "messages.summary"
	opIEPList        = "iep.list"
	opIEPUpload      = "iep.upload"
	opQuestionList   = "questions.list"
	opQuestionCreate = "questions.create"
	opQuestionReply  = "questions.reply"
	opEvents         = "events"
)

type policy struct {
	roles  []string
	denied *echo.HTTPError // nil: errHttpForbidden
}

var errParentsNoRecords = echo.NewHTTPError(http.StatusForbidden, "家長權限無法查看專業治療紀錄")

// accessPolicy lists the roles allowed to perform each operation.
var accessPolicy = map[string]policy{
	opRecordList:     {roles: []string{user.RoleTeacher, user.RoleTherapist}, denied: errParentsNoRecords},
	opRecordCreate:   {roles: []string{user.RoleTherapist}},
	opRecordReply:    {roles: []string{user.RoleTeacher}},
	opMessageList:    {roles: user.AllRoles},
	opMessageCreate:  {roles: user.AllRoles},
	opMessageSummary: {roles: user.AllRoles},
	opIEPList:        {roles: user.AllRoles},
	opIEPUpload:      {roles: []string{user.RoleTeacher}},
	opQuestionList:   {roles: user.AllRoles},
	opQuestionCreate: {roles: user.AllRoles},
	opQuestionReply:  {roles: user.AllRoles},
	opEvents:         {roles: user.AllRoles},
}

// authorize rejects identities whose role is not allowed to perform op.
// Unknown operations are denied to everyone.
func authorize(op string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			id, err := getContextIdentity(ctx)
			if err != nil {
				return errors.Wrap(err, "getting context identity")
			}
			p, ok := accessPolicy[op]
			if ok && id.HasAnyRole(p.roles...) {
				return next(ctx)
			}
			if p.denied != nil {
				return p.denied
			}
			return errHttpForbidden
		}
	}
}
