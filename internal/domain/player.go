package domain

import "time"

// User is the Telegram identity row. It is created on first contact and
// never deleted.
type User struct {
	ID        int64     `db:"id"`
	TgID      int64     `db:"tg_id"`
	Username  string    `db:"username"`
	FirstName string    `db:"first_name"`
	CreatedAt time.Time `db:"created_at"`
}

// DisplayName returns the best human-readable name for chat messages.
func (u *User) DisplayName() string {
	if u.FirstName != "" {
		return u.FirstName
	}
	if u.Username != "" {
		return u.Username
	}
	return "игрок"
}

// Player is the game profile linked 1:1 to a User.
type Player struct {
	ID                int64      `db:"id"`
	UserID            int64      `db:"user_id"`
	Rank              int        `db:"rank"`
	XP                int        `db:"xp"`
	Neurons           int64      `db:"neurons"`
	CountBets         int        `db:"count_bets"`
	NoshenieCount     int        `db:"noshenie_count"`
	CreatedAt         time.Time  `db:"created_at"`
	LastNoshenieAt    *time.Time `db:"last_noshenie_at"`
	LastFreeNoshenieAt *time.Time `db:"last_free_noshenie_at"`
}
