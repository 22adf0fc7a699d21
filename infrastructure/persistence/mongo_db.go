package persistence

import (
	"fmt"
	"net/url"

	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

// NewMongoDb connects lazily; callers Ping before relying on the client.
func NewMongoDb(host, port, user, password string) (*mongo.Client, error) {
	if host == "" {
		return nil, fmt.Errorf("mongo host not configured")
	}
	u := &url.URL{Scheme: "mongodb", Host: host, Path: "/"}
	if port != "" {
		u.Host = fmt.Sprintf("%s:%s", host, port)
	}
	if user != "" {
		u.User = url.UserPassword(user, password)
		u.RawQuery = url.Values{"authSource": {"admin"}}.Encode()
	}
	return mongo.Connect(options.Client().ApplyURI(u.String()).SetAppName("blog-social"))
}
