package rbac

const (
	PermProgressUpdate   = "progress:update"
	PermProgressView     = "progress:view"
	PermExamView         = "exam:view"
	PermExamSubmit       = "exam:submit"
	PermCertificateView  = "certificate:view"
	PermCertificateClaim = "certificate:claim"
	PermExamDefine       = "exam:define"
	PermCourseDefine     = "course:define"
	PermEventsRead       = "events:read"
)

// Learners act only on their own records; the subject comes from the token.
var RolePermissions = map[string][]string{
	"student": {
		"progress:*",
		PermExamView,
		PermExamSubmit,
		"certificate:*",
	},
	"author": {
		PermExamView,
		PermExamDefine,
		PermCourseDefine,
	},
	"admin": {
		"*",
	},
}
