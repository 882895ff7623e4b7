package user

// DefaultAvatar is sent with every registration.
const DefaultAvatar = "https://picsum.photos/800"

type Profile struct {
	ID     int64  `json:"id"`
	Name   string `json:"name"`
	Email  string `json:"email"`
	Role   string `json:"role"`
	Avatar string `json:"avatar"`
}

type Credentials struct {
	Email    string
	Password string
}

type Registration struct {
	Name     string
	Email    string
	Password string
	Avatar   string
}
