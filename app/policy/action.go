package policy

type Action uint8

const (
	ActionListAduan Action = iota + 1
	ActionViewAduan
	ActionCreateAduan
	ActionUpdateAduan
	ActionDeleteAduan
	ActionVerifyAduan
	ActionRejectAduan
	ActionAssignDinas
	ActionAssignStaff
	ActionUpdateStatus
	ActionUpdateProgress
	ActionSetPriority
	ActionAddNote
	ActionViewHistory

	ActionListUsers
	ActionViewUser
	ActionCreateUser
	ActionUpdateUser
	ActionDeleteUser
	ActionActivateUser
	ActionDeactivateUser
)

var actionNames = map[Action]string{
	ActionListAduan:      "list_aduan",
	ActionViewAduan:      "view_aduan",
	ActionCreateAduan:    "create_aduan",
	ActionUpdateAduan:    "update_aduan",
	ActionDeleteAduan:    "delete_aduan",
	ActionVerifyAduan:    "verify",
	ActionRejectAduan:    "reject",
	ActionAssignDinas:    "assign_dinas",
	ActionAssignStaff:    "assign_staff",
	ActionUpdateStatus:   "update_status",
	ActionUpdateProgress: "update_progress",
	ActionSetPriority:    "set_priority",
	ActionAddNote:        "note",
	ActionViewHistory:    "view_history",
	ActionListUsers:      "list_users",
	ActionViewUser:       "view_user",
	ActionCreateUser:     "create_user",
	ActionUpdateUser:     "update_user",
	ActionDeleteUser:     "delete_user",
	ActionActivateUser:   "activate_user",
	ActionDeactivateUser: "deactivate_user",
}

func (a Action) String() string {
	if name, ok := actionNames[a]; ok {
		return name
	}
	return "unknown"
}

// targetless actions are decided on the actor alone.
func (a Action) targetless() bool {
	return a == ActionListAduan || a == ActionCreateAduan || a == ActionListUsers
}
