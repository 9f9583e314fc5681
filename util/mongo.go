package util

import (
	"context"
	"net/url"
	"time"

	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

// ConnectionTimeout - How long establishing (and verifying) a MongoDB connection may take
const ConnectionTimeout = time.Second * 10

// ConnectMongo - Connects to the deployment and verifies it is reachable
func ConnectMongo(ctx context.Context, uri string, appName string) (*mongo.Client, error) {
	ctx, cancel := context.WithTimeout(ctx, ConnectionTimeout)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri).SetAppName(appName))
	if err != nil {
		return nil, errors.Wrapf(err, "could not connect to %s", RedactURI(uri))
	}

	err = client.Ping(ctx, readpref.Primary())
	if err != nil {
		client.Disconnect(context.Background())
		return nil, errors.Wrapf(err, "could not reach %s", RedactURI(uri))
	}

	return client, nil
}

// RedactURI - Connection string safe for logging
func RedactURI(uri string) string {
	u, err := url.Parse(uri)
	if err != nil {
		return "(unparseable connection string)"
	}
	if u.User != nil {
		if _, hasPassword := u.User.Password(); hasPassword {
			u.User = url.UserPassword(u.User.Username(), "xxxxx")
		}
	}
	return u.String()
}
