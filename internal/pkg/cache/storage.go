package cache

import (
	"net"
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/storage/redis"
)

// Redis databases used besides the cache itself (DB 0).
const (
	LimiterDatabase = 1
)

// NewFiberStorage returns a fiber.Storage on the cache server, using the
// given redis database so keys stay apart from cached values.
func NewFiberStorage(database int) fiber.Storage {
	opts := Options()
	host := "localhost"
	port := 6379
	if h, p, err := net.SplitHostPort(opts.Addr); err == nil {
		host = h
		if v, err := strconv.Atoi(p); err == nil {
			port = v
		}
	}

	return redis.New(redis.Config{
		Host:     host,
		Port:     port,
		Password: opts.Password,
		Database: database,
		Reset:    false,
	})
}
