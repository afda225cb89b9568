package entity

// User представляет покупателя магазина
type User struct {
	ID        int64  // Telegram User ID
	Username  string // @username, может отсутствовать
	FirstName string // имя
	LastName  string // фамилия, может отсутствовать
}

// NewUser создаёт покупателя из атрибутов отправителя
func NewUser(id int64, username, firstName, lastName string) *User {
	return &User{
		ID:        id,
		Username:  username,
		FirstName: firstName,
		LastName:  lastName,
	}
}

// DisplayName возвращает имя для обращения к покупателю.
func (u *User) DisplayName() string {
	if u.FirstName != "" {
		return u.FirstName
	}
	if u.Username != "" {
		return u.Username
	}
	return "гость"
}
