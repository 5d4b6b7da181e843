package rbac

// Simple default policy. HR staff author exams and grade submissions;
// admin additionally deletes things.
var RolePermissions = map[string][]string{
	"hr": {
		"exam:create",
		"exam:list",
		"exam:update",
		"exam:view",
		"submission:view",
		"submission:grade",
		"results:send",
	},
	"admin": {
		"*", // everything
	},
}
