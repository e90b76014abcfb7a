package logger

import "go.uber.org/zap"

// Subscription tags a log entry with a subscription id.
func Subscription(id int) zap.Field {
	return zap.Int("subscription_id", id)
}

// Publication tags a log entry with a publication name.
func Publication(name string) zap.Field {
	return zap.String("publication", name)
}

// Item tags a log entry with a group item name.
func Item(name string) zap.Field {
	return zap.String("item", name)
}

// Connection tags a log entry with a transport connection id.
func Connection(id string) zap.Field {
	return zap.String("connection_id", id)
}
