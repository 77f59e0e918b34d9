package transport

// RegisterRequest creates an account.
type RegisterRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginRequest exchanges credentials for a token plus session cookie.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// TaskCreateRequest creates a task, optionally pre-shared by ids or emails.
type TaskCreateRequest struct {
	Title            string   `json:"title"`
	Description      string   `json:"description"`
	Status           string   `json:"status"`
	DueDate          string   `json:"due_date"`
	SharedWithIDs    []string `json:"shared_with_ids"`
	SharedWithEmails []string `json:"shared_with_emails"`
}

// TaskUpdateRequest patches a task. Pointer fields distinguish "absent"
// from "set to zero"; a JSON null due_date clears it. Owner is decoded only
// to reject owner-change attempts explicitly.
type TaskUpdateRequest struct {
	Title            *string  `json:"title"`
	Description      *string  `json:"description"`
	Status           *string  `json:"status"`
	DueDate          *string  `json:"due_date"`
	SharedWithIDs    []string `json:"shared_with_ids"`
	SharedWithEmails []string `json:"shared_with_emails"`
	Owner            *string  `json:"owner"`
}

// ShareRequest grants or revokes access for the listed emails.
type ShareRequest struct {
	Emails []string `json:"emails"`
}

// RoleChangeRequest sets a user's role.
type RoleChangeRequest struct {
	Role string `json:"role"`
}

// UserSummary is the public directory shape.
type UserSummary struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

// AdminUser is the admin directory shape with the protected flag.
type AdminUser struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Email     string `json:"email"`
	Role      string `json:"role"`
	Protected bool   `json:"protected"`
	CreatedAt string `json:"created_at"`
}
