package entity

import (
	"fmt"
	"time"
)

type PoolProfile struct {
	ID        int64
	Name      string
	Bio       string
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (p *PoolProfile) String() string {
	return fmt.Sprintf("hey i m %s and here is my bio : %s thanks ", p.Name, p.Bio)
}
