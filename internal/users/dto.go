package users

// Editor endpoint payloads. Confirmation is explicit: destructive operations
// are rejected until the client resends with confirm set.

type selectUserRequest struct {
	UserID string `json:"user_id" validate:"required,uuid4"`
}

type toggleCellRequest struct {
	Module string `json:"module" validate:"required"`
	Action string `json:"action" validate:"required,oneof=create read update delete"`
}

type setRowRequest struct {
	Module string `json:"module" validate:"required"`
	Value  bool   `json:"value"`
}

type setAllRequest struct {
	Value bool `json:"value"`
}

type changeRoleRequest struct {
	Role string `json:"role" validate:"required"`
}

type confirmRequest struct {
	Confirm bool `json:"confirm"`
}
