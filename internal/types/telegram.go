package types

// TelegramUser is the identity object supplied by the Telegram Mini App
// host runtime in its init data.
type TelegramUser struct {
	ID        int64  `json:"id"`
	Username  string `json:"username"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
}

// DisplayName picks the profile display name the way the Mini App does:
// first name, then username, then the generic fallback handled upstream.
func (u TelegramUser) DisplayName() string {
	if u.FirstName != "" {
		return u.FirstName
	}
	return u.Username
}
