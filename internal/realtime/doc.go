// Package realtime delivers row-change and session notifications.
//
// A [Hub] fans values out to cancellable [Subscription] handles inside one process.
// A [Broker] owns the hubs for bookmark changes and session signals and, when given a
// [Bridge], mirrors them to other processes: through the shared SQLite file
// ([SQLiteBridge], the default), Redis pub/sub ([RedisBridge]) or NATS ([NATSBridge]).
package realtime
