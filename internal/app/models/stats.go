package models

import "time"

type Chat struct {
	ID        int64     `gorm:"primaryKey"`
	CreatedAt time.Time `gorm:"autoCreateTime"`
	UpdatedAt time.Time `gorm:"autoUpdateTime"`
}

// Event is one pixellized image.
type Event struct {
	ID        uint      `gorm:"primaryKey;autoIncrement"`
	ChatID    int64     `gorm:"index"`
	Pixels    int       // longest edge of the pixel grid
	Colors    int       // palette size
	Width     int       // output width
	Height    int       // output height
	Source    string    // photo or document
	CreatedAt time.Time `gorm:"autoCreateTime"`
}
