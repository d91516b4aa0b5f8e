package models

import "time"

type TimeFrame string

const (
	Minute30 TimeFrame = "30m"
	Minute   TimeFrame = "1m"
)

func (tf TimeFrame) Duration() time.Duration {
	switch tf {
	case Minute30:
		return 30 * time.Minute
	default:
		return time.Minute
	}
}
